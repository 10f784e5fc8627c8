// Package fetch retrieves remote manifests and fragments over HTTP.
package fetch

import (
	"fmt"
	"net/http"

	"zone.digit.host/internal/infra"
)

// Error codes reported by Fetcher.Get.
const (
	CodeInvalidURL       = "INVALID_URL"
	CodeDNS              = "DNS_ERROR"
	CodeRequestBuild     = "REQUEST_BUILD_ERROR"
	CodeRequestFailed    = "REQUEST_FAILED"
	CodeBodyRead         = "BODY_READ_ERROR"
	CodeBodyTooLarge     = "BODY_TOO_LARGE"
	CodeTooManyRedirects = "TOO_MANY_REDIRECTS"
	CodeDecompression    = "DECOMPRESSION_ERROR"
)

// Error is a transport level failure.
type Error struct {
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// RedirectHop represents one redirect in the chain.
type RedirectHop struct {
	URL    string
	Status int
	// Location is the resolved target of the hop.
	Location string
}

// Response is a fully read and decoded HTTP response.
type Response struct {
	URL       string
	Status    int
	Header    http.Header
	Body      []byte
	Protocol  string
	ServerIP  string
	Encoding  string
	WireSize  int
	TLS       *infra.CertInfo
	Timing    TimingInfo
	Redirects []RedirectHop
}

// OK reports whether the response carries a 2xx status.
func (r *Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}
