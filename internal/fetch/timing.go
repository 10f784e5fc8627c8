package fetch

import (
	"crypto/tls"
	"net/http/httptrace"
	"sync"
	"time"
)

// TimingInfo contains the duration of each request phase. Phases that did not
// happen, such as TLS on plain HTTP or connect on a reused connection, stay zero.
type TimingInfo struct {
	Total    time.Duration
	DNS      time.Duration
	Connect  time.Duration
	TLS      time.Duration
	TTFB     time.Duration
	Download time.Duration
}

// detailedTiming tracks timestamps for HTTP request phases of the first hop.
// Trace callbacks can fire from transport goroutines after the response is
// returned, so every field is guarded by mu.
type detailedTiming struct {
	mu            sync.Mutex
	totalStart    time.Time
	dnsStart      time.Time
	dnsEnd        time.Time
	connectStart  time.Time
	connectEnd    time.Time
	tlsStart      time.Time
	tlsEnd        time.Time
	requestStart  time.Time
	ttfb          time.Time
	downloadStart time.Time
	downloadEnd   time.Time
}

func newDetailedTiming() *detailedTiming {
	return &detailedTiming{totalStart: time.Now()}
}

// mark stamps *field with the current time unless it is already set.
func (t *detailedTiming) mark(field *time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if field.IsZero() {
		*field = time.Now()
	}
}

// trace returns a ClientTrace that records connection phases.
func (t *detailedTiming) trace() *httptrace.ClientTrace {
	return &httptrace.ClientTrace{
		ConnectStart: func(_, _ string) { t.mark(&t.connectStart) },
		ConnectDone: func(_, _ string, err error) {
			if err == nil {
				t.mark(&t.connectEnd)
			}
		},
		TLSHandshakeStart: func() { t.mark(&t.tlsStart) },
		TLSHandshakeDone: func(_ tls.ConnectionState, err error) {
			if err == nil {
				t.mark(&t.tlsEnd)
			}
		},
		WroteRequest:         func(httptrace.WroteRequestInfo) { t.mark(&t.requestStart) },
		GotFirstResponseByte: func() { t.mark(&t.ttfb) },
	}
}

func span(start, end time.Time) time.Duration {
	if start.IsZero() || end.IsZero() {
		return 0
	}
	return end.Sub(start)
}

func (t *detailedTiming) info() TimingInfo {
	t.mu.Lock()
	defer t.mu.Unlock()
	end := t.downloadEnd
	if end.IsZero() {
		end = time.Now()
	}
	return TimingInfo{
		Total:    end.Sub(t.totalStart),
		DNS:      span(t.dnsStart, t.dnsEnd),
		Connect:  span(t.connectStart, t.connectEnd),
		TLS:      span(t.tlsStart, t.tlsEnd),
		TTFB:     span(t.requestStart, t.ttfb),
		Download: span(t.downloadStart, t.downloadEnd),
	}
}
