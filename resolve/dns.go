// Package resolve turns identity handles into ledger addresses. A handle is
// a hex address, a hex compressed public key, or alias@domain published as
// a DNS TXT record.
package resolve

import (
	"net"
)

// DNSResolver defines the TXT lookup used for handle resolution.
// This allows tests to mock DNS resolution.
type DNSResolver interface {
	LookupTXT(name string) ([]string, error)
}

type defaultDNSResolver struct{}

func (d *defaultDNSResolver) LookupTXT(name string) ([]string, error) {
	return net.LookupTXT(name)
}

// DefaultDNSResolver uses the system resolver without DNSSEC.
var DefaultDNSResolver DNSResolver = &defaultDNSResolver{}
