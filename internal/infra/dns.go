// Package infra provides the network plumbing used when fetching remotes.
package infra

import (
	"context"
	"net"
	"time"
)

// DNSResult contains DNS resolution results and timing information.
type DNSResult struct {
	IPs      []net.IP
	Duration time.Duration
}

// First returns the first resolved address, or "" when there is none.
func (r *DNSResult) First() string {
	if r == nil || len(r.IPs) == 0 {
		return ""
	}
	return r.IPs[0].String()
}

// ResolveDNS resolves a hostname to IP addresses with timing.
func ResolveDNS(ctx context.Context, host string) (*DNSResult, error) {
	start := time.Now()

	if ip := net.ParseIP(host); ip != nil {
		return &DNSResult{IPs: []net.IP{ip}}, nil
	}

	ips, err := net.DefaultResolver.LookupIP(ctx, "ip", host)
	if err != nil {
		return nil, err
	}
	if len(ips) == 0 {
		return nil, &net.DNSError{
			Err:  "no addresses found",
			Name: host,
		}
	}

	return &DNSResult{
		IPs:      ips,
		Duration: time.Since(start),
	}, nil
}
