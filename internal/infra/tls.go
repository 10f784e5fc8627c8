package infra

import (
	"crypto/tls"
	"time"
)

// CertInfo describes the TLS session negotiated with a remote origin.
type CertInfo struct {
	Protocol  string
	Cipher    string
	Issuer    string
	Subject   string
	ValidFrom time.Time
	ValidTo   time.Time
}

// Valid reports whether the peer certificate is inside its validity window at t.
func (c *CertInfo) Valid(t time.Time) bool {
	if c == nil || c.ValidFrom.IsZero() {
		return false
	}
	return !t.Before(c.ValidFrom) && !t.After(c.ValidTo)
}

// ExtractCertInfo extracts certificate information from a TLS connection state.
func ExtractCertInfo(state *tls.ConnectionState) *CertInfo {
	if state == nil {
		return nil
	}

	info := &CertInfo{
		Protocol: TLSVersionString(state.Version),
		Cipher:   tls.CipherSuiteName(state.CipherSuite),
	}
	if len(state.PeerCertificates) > 0 {
		cert := state.PeerCertificates[0]
		info.Subject = cert.Subject.String()
		info.Issuer = cert.Issuer.String()
		info.ValidFrom = cert.NotBefore
		info.ValidTo = cert.NotAfter
	}
	return info
}

// TLSVersionString returns a human-readable TLS version string.
func TLSVersionString(version uint16) string {
	switch version {
	case tls.VersionTLS10:
		return "TLS 1.0"
	case tls.VersionTLS11:
		return "TLS 1.1"
	case tls.VersionTLS12:
		return "TLS 1.2"
	case tls.VersionTLS13:
		return "TLS 1.3"
	default:
		return "TLS"
	}
}
