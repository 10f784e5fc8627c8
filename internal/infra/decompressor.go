package infra

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/andybalholm/brotli"
)

// ErrTooLarge is returned when decoded output exceeds the size limit.
var ErrTooLarge = errors.New("decoded body exceeds size limit")

// DecodeResult contains the result of decoding a response body.
type DecodeResult struct {
	Data           []byte
	Encoding       string
	CompressedSize int
	DecodedSize    int
}

// Decode decodes body according to a Content-Encoding header value. Stacked
// encodings ("gzip, br") are undone in reverse order. Unknown encodings are
// rejected so a remote fragment is never parsed as compressed bytes.
// Output of every stage is capped at limit bytes; a non-positive limit
// disables the cap.
func Decode(body []byte, contentEncoding string, limit int64) (*DecodeResult, error) {
	data := body
	codings := strings.Split(contentEncoding, ",")
	for i := len(codings) - 1; i >= 0; i-- {
		coding := strings.ToLower(strings.TrimSpace(codings[i]))
		var err error
		switch coding {
		case "", "identity":
			continue
		case "gzip", "x-gzip":
			data, err = decodeGzip(data, limit)
		case "deflate":
			data, err = decodeDeflate(data, limit)
		case "br":
			data, err = decodeBrotli(data, limit)
		default:
			return nil, fmt.Errorf("unsupported content encoding %q", coding)
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", coding, err)
		}
	}

	return &DecodeResult{
		Data:           data,
		Encoding:       strings.TrimSpace(contentEncoding),
		CompressedSize: len(body),
		DecodedSize:    len(data),
	}, nil
}

func decodeGzip(data []byte, limit int64) ([]byte, error) {
	reader, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return readLimited(reader, limit)
}

func decodeDeflate(data []byte, limit int64) ([]byte, error) {
	reader := flate.NewReader(bytes.NewReader(data))
	defer reader.Close()
	return readLimited(reader, limit)
}

func decodeBrotli(data []byte, limit int64) ([]byte, error) {
	return readLimited(brotli.NewReader(bytes.NewReader(data)), limit)
}

// readLimited reads r fully, failing with ErrTooLarge past limit bytes.
func readLimited(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, ErrTooLarge
	}
	return data, nil
}
