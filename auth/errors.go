package auth

import "errors"

var (
	// ErrMissingHeaders indicates a signature header is absent or malformed.
	ErrMissingHeaders = errors.New("auth: missing or malformed signature headers")

	// ErrInvalidPubKey indicates the public key header does not hold a compressed secp256k1 key.
	ErrInvalidPubKey = errors.New("auth: invalid public key")

	// ErrInvalidSignature indicates the signature does not verify against the request digest.
	ErrInvalidSignature = errors.New("auth: invalid signature")

	// ErrStaleRequest indicates the request timestamp is outside the accepted window.
	ErrStaleRequest = errors.New("auth: request timestamp outside allowed skew")

	// ErrReplayedRequest indicates a signed request that was already accepted.
	ErrReplayedRequest = errors.New("auth: replayed request")

	// ErrReplayCacheFull indicates too many live signed requests to track.
	ErrReplayCacheFull = errors.New("auth: replay cache full")

	// ErrNilKey indicates a nil signing key.
	ErrNilKey = errors.New("auth: nil private key")
)
