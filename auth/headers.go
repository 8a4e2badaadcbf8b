package auth

import (
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
)

// Signed request header names.
const (
	HeaderPubKey    = "X-Revledger-Pubkey"
	HeaderTimestamp = "X-Revledger-Timestamp"
	HeaderNonce     = "X-Revledger-Nonce"
	HeaderSignature = "X-Revledger-Signature"
)

// Headers holds the signature material carried by a request.
type Headers struct {
	PubKey    []byte // compressed, 33 bytes
	Timestamp int64  // unix seconds
	Nonce     string
	Signature []byte // DER
}

// Apply writes h onto an outgoing header set.
func (h *Headers) Apply(hdr http.Header) {
	hdr.Set(HeaderPubKey, hex.EncodeToString(h.PubKey))
	hdr.Set(HeaderTimestamp, strconv.FormatInt(h.Timestamp, 10))
	hdr.Set(HeaderNonce, h.Nonce)
	hdr.Set(HeaderSignature, hex.EncodeToString(h.Signature))
}

// ParseHeaders extracts the signature headers from a request.
func ParseHeaders(hdr http.Header) (*Headers, error) {
	pubStr := hdr.Get(HeaderPubKey)
	if pubStr == "" {
		return nil, fmt.Errorf("%w: %s header missing", ErrMissingHeaders, HeaderPubKey)
	}
	pub, err := hex.DecodeString(pubStr)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid %s value: %w", ErrMissingHeaders, HeaderPubKey, err)
	}

	tsStr := hdr.Get(HeaderTimestamp)
	if tsStr == "" {
		return nil, fmt.Errorf("%w: %s header missing", ErrMissingHeaders, HeaderTimestamp)
	}
	ts, err := strconv.ParseInt(tsStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid %s value: %w", ErrMissingHeaders, HeaderTimestamp, err)
	}

	nonce := hdr.Get(HeaderNonce)
	if nonce == "" {
		return nil, fmt.Errorf("%w: %s header missing", ErrMissingHeaders, HeaderNonce)
	}

	sigStr := hdr.Get(HeaderSignature)
	if sigStr == "" {
		return nil, fmt.Errorf("%w: %s header missing", ErrMissingHeaders, HeaderSignature)
	}
	sig, err := hex.DecodeString(sigStr)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid %s value: %w", ErrMissingHeaders, HeaderSignature, err)
	}

	return &Headers{PubKey: pub, Timestamp: ts, Nonce: nonce, Signature: sig}, nil
}
