package resolve

import "errors"

var (
	// ErrInvalidHandle indicates the input is not an address, pubkey or alias@domain handle.
	ErrInvalidHandle = errors.New("resolve: invalid identity handle")

	// ErrDNSLookupFailed indicates a DNS TXT lookup failed.
	ErrDNSLookupFailed = errors.New("resolve: DNS lookup failed")

	// ErrDNSSECValidationFailed indicates the upstream resolver did not authenticate the answer.
	ErrDNSSECValidationFailed = errors.New("resolve: DNSSEC validation failed")

	// ErrNoRecord indicates no revledger= TXT record was published for the handle.
	ErrNoRecord = errors.New("resolve: no identity record")

	// ErrInvalidPubKey indicates a public key is not a valid compressed secp256k1 key.
	ErrInvalidPubKey = errors.New("resolve: invalid compressed public key")
)
