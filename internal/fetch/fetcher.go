package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptrace"
	"net/url"
	"time"

	"zone.digit.host/internal/infra"
)

const (
	// MaxRedirects is the maximum number of redirects to follow.
	MaxRedirects = 20
	// DefaultTimeout bounds a whole Get including redirects.
	DefaultTimeout = 30 * time.Second
	// MaxBodySize caps a remote body, both as sent and once decoded.
	MaxBodySize = 8 << 20
)

// Fetcher performs GET requests against remote origins. It follows redirects
// itself so each hop is visible to the caller, and decodes compressed bodies.
type Fetcher struct {
	client  *http.Client
	timeout time.Duration
	// resolve is swapped in tests.
	resolve func(ctx context.Context, host string) (*infra.DNSResult, error)
}

// New creates a Fetcher. A non-positive timeout selects DefaultTimeout.
func New(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DisableCompression = true
	return &Fetcher{
		client: &http.Client{
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		timeout: timeout,
		resolve: infra.ResolveDNS,
	}
}

// Get fetches rawURL and returns the decoded response. Non-2xx statuses are
// returned as responses, not errors.
func (f *Fetcher) Get(ctx context.Context, rawURL string) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	timing := newDetailedTiming()

	current, err := url.Parse(rawURL)
	if err != nil {
		return nil, newError(CodeInvalidURL, "invalid URL", err)
	}
	if current.Host == "" || (current.Scheme != "http" && current.Scheme != "https") {
		return nil, newError(CodeInvalidURL, fmt.Sprintf("URL %q is not absolute http(s)", rawURL), nil)
	}

	timing.mark(&timing.dnsStart)
	dns, err := f.resolve(ctx, current.Hostname())
	if err != nil {
		return nil, newError(CodeDNS, "DNS lookup failed", err)
	}
	timing.mark(&timing.dnsEnd)

	var redirects []RedirectHop
	for {
		reqCtx := ctx
		if len(redirects) == 0 {
			reqCtx = httptrace.WithClientTrace(ctx, timing.trace())
		}
		req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, current.String(), nil)
		if err != nil {
			return nil, newError(CodeRequestBuild, "failed to create request", err)
		}
		req.Header.Set("Accept-Encoding", "gzip, deflate, br")

		resp, err := f.client.Do(req)
		if err != nil {
			return nil, newError(CodeRequestFailed, "request failed", err)
		}

		if resp.StatusCode >= 300 && resp.StatusCode < 400 {
			if location := resp.Header.Get("Location"); location != "" {
				resp.Body.Close()
				next, err := current.Parse(location)
				if err != nil {
					return nil, newError(CodeInvalidURL, "invalid redirect location", err)
				}
				redirects = append(redirects, RedirectHop{
					URL:      current.String(),
					Status:   resp.StatusCode,
					Location: next.String(),
				})
				if len(redirects) >= MaxRedirects {
					return nil, newError(CodeTooManyRedirects, "too many redirects", nil)
				}
				current = next
				continue
			}
		}

		timing.mark(&timing.downloadStart)
		raw, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodySize+1))
		resp.Body.Close()
		if err != nil {
			return nil, newError(CodeBodyRead, "failed to read body", err)
		}
		timing.mark(&timing.downloadEnd)
		if len(raw) > MaxBodySize {
			return nil, newError(CodeBodyTooLarge, fmt.Sprintf("body exceeds %d bytes", MaxBodySize), nil)
		}

		decoded, err := infra.Decode(raw, resp.Header.Get("Content-Encoding"), MaxBodySize)
		if errors.Is(err, infra.ErrTooLarge) {
			return nil, newError(CodeBodyTooLarge, fmt.Sprintf("decoded body exceeds %d bytes", MaxBodySize), err)
		}
		if err != nil {
			return nil, newError(CodeDecompression, "decompression failed", err)
		}

		return &Response{
			URL:       current.String(),
			Status:    resp.StatusCode,
			Header:    resp.Header,
			Body:      decoded.Data,
			Protocol:  resp.Proto,
			ServerIP:  dns.First(),
			Encoding:  decoded.Encoding,
			WireSize:  decoded.CompressedSize,
			TLS:       infra.ExtractCertInfo(resp.TLS),
			Timing:    timing.info(),
			Redirects: redirects,
		}, nil
	}
}
