package resolve

import (
	"encoding/hex"
	"fmt"
	"strings"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"

	"github.com/bitfsorg/revledger-go/revshare"
)

const (
	// RecordLabel is the DNS label between alias and domain.
	RecordLabel = "_revledger"

	// RecordPrefix starts the TXT record value.
	RecordPrefix = "revledger="

	pubKeyHexLen = 66
)

// Identity is a resolved handle.
type Identity struct {
	Handle  string
	PubKey  *ec.PublicKey // nil when the handle was a bare address
	Address revshare.Address
}

// Resolver resolves handles through a DNSResolver.
type Resolver struct {
	DNS DNSResolver
}

// New returns a Resolver. A nil dns uses DefaultDNSResolver.
func New(dns DNSResolver) *Resolver {
	if dns == nil {
		dns = DefaultDNSResolver
	}
	return &Resolver{DNS: dns}
}

// RecordName returns the TXT owner name for alias@domain.
func RecordName(alias, domain string) string {
	return alias + "." + RecordLabel + "." + domain
}

// FormatRecord returns the TXT value an operator publishes for pub.
func FormatRecord(pub *ec.PublicKey) string {
	return RecordPrefix + hex.EncodeToString(pub.Compressed())
}

// SplitHandle splits alias@domain.
func SplitHandle(handle string) (alias, domain string, err error) {
	alias, domain, ok := strings.Cut(handle, "@")
	if !ok || alias == "" || domain == "" || strings.ContainsAny(alias, ". ") || strings.Contains(domain, "@") {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidHandle, handle)
	}
	return strings.ToLower(alias), strings.ToLower(strings.TrimSuffix(domain, ".")), nil
}

// Resolve accepts a 20-byte hex address, a 33-byte hex compressed public
// key, or an alias@domain handle.
func (r *Resolver) Resolve(handle string) (*Identity, error) {
	handle = strings.TrimSpace(handle)
	if strings.Contains(handle, "@") {
		return r.lookup(handle)
	}
	if len(handle) == pubKeyHexLen {
		pub, err := ParsePubKey(handle)
		if err != nil {
			return nil, err
		}
		return &Identity{Handle: handle, PubKey: pub, Address: revshare.AddressFromPubKey(pub)}, nil
	}
	addr, err := revshare.ParseAddress(handle)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidHandle, handle, err)
	}
	return &Identity{Handle: handle, Address: addr}, nil
}

func (r *Resolver) lookup(handle string) (*Identity, error) {
	alias, domain, err := SplitHandle(handle)
	if err != nil {
		return nil, err
	}
	name := RecordName(alias, domain)
	txts, err := r.DNS.LookupTXT(name)
	if err != nil {
		return nil, fmt.Errorf("%w: TXT lookup for %s: %w", ErrDNSLookupFailed, name, err)
	}

	var pubHex string
	for _, txt := range txts {
		txt = strings.TrimSpace(txt)
		if strings.HasPrefix(txt, RecordPrefix) {
			pubHex = strings.TrimSpace(strings.TrimPrefix(txt, RecordPrefix))
			break
		}
	}
	if pubHex == "" {
		return nil, fmt.Errorf("%w: no %s TXT record for %s", ErrNoRecord, RecordPrefix, name)
	}
	pub, err := ParsePubKey(pubHex)
	if err != nil {
		return nil, err
	}
	return &Identity{Handle: alias + "@" + domain, PubKey: pub, Address: revshare.AddressFromPubKey(pub)}, nil
}

// ParsePubKey decodes a 66-hex-character compressed secp256k1 public key.
func ParsePubKey(s string) (*ec.PublicKey, error) {
	if len(s) != pubKeyHexLen {
		return nil, fmt.Errorf("%w: expected %d hex chars, got %d", ErrInvalidPubKey, pubKeyHexLen, len(s))
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPubKey, err)
	}
	if b[0] != 0x02 && b[0] != 0x03 {
		return nil, fmt.Errorf("%w: invalid prefix byte 0x%02x", ErrInvalidPubKey, b[0])
	}
	pub, err := ec.PublicKeyFromBytes(b)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPubKey, err)
	}
	return pub, nil
}
