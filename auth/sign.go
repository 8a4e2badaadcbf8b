// Package auth implements the signed-request scheme of the ledger API.
// A caller signs SHA256(method \n path \n unix-ts \n nonce \n hex(SHA256(body)))
// with its secp256k1 key; the verifier recovers the caller's Address from
// the attached public key and accepts each signed digest once.
package auth

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	bsvhash "github.com/bsv-blockchain/go-sdk/primitives/hash"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/bitfsorg/revledger-go/revshare"
)

// DefaultMaxSkew is the accepted distance between request and server clocks.
const DefaultMaxSkew = 5 * time.Minute

const (
	compressedPubKeyLen = 33
	maxNonceLen         = 64
)

// Digest returns the 32-byte message a request signature covers.
func Digest(method, path string, ts int64, nonce string, body []byte) []byte {
	msg := strings.Join([]string{
		strings.ToUpper(method),
		path,
		strconv.FormatInt(ts, 10),
		nonce,
		hex.EncodeToString(bsvhash.Sha256(body)),
	}, "\n")
	return bsvhash.Sha256([]byte(msg))
}

// Sign produces the headers for a request signed by priv at ts. Every call
// draws a fresh nonce, so two signatures over the same request differ.
func Sign(priv *ec.PrivateKey, method, path string, ts int64, body []byte) (*Headers, error) {
	if priv == nil {
		return nil, ErrNilKey
	}
	nonce := uuid.NewString()
	sig, err := priv.Sign(Digest(method, path, ts, nonce, body))
	if err != nil {
		return nil, fmt.Errorf("auth: sign request: %w", err)
	}
	return &Headers{
		PubKey:    priv.PubKey().Compressed(),
		Timestamp: ts,
		Nonce:     nonce,
		Signature: sig.Serialize(),
	}, nil
}

// Verifier checks request signatures against a clock. Replay, when set,
// rejects a signed request seen before inside the skew window.
type Verifier struct {
	Clock   clockwork.Clock
	MaxSkew time.Duration
	Replay  *ReplayCache
}

// NewVerifier returns a Verifier with a DefaultReplayCacheSize replay cache.
// A nil clock uses the real clock and a non-positive skew uses
// DefaultMaxSkew.
func NewVerifier(clock clockwork.Clock, maxSkew time.Duration) *Verifier {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if maxSkew <= 0 {
		maxSkew = DefaultMaxSkew
	}
	return &Verifier{Clock: clock, MaxSkew: maxSkew, Replay: NewReplayCache(DefaultReplayCacheSize)}
}

// Verify checks h against the request and returns the signer's Address.
func (v *Verifier) Verify(h *Headers, method, path string, body []byte) (revshare.Address, error) {
	if h == nil {
		return revshare.ZeroAddress, ErrMissingHeaders
	}
	if len(h.PubKey) != compressedPubKeyLen || (h.PubKey[0] != 0x02 && h.PubKey[0] != 0x03) {
		return revshare.ZeroAddress, fmt.Errorf("%w: expected %d-byte compressed key", ErrInvalidPubKey, compressedPubKeyLen)
	}
	pub, err := ec.PublicKeyFromBytes(h.PubKey)
	if err != nil {
		return revshare.ZeroAddress, fmt.Errorf("%w: %w", ErrInvalidPubKey, err)
	}

	if h.Nonce == "" || len(h.Nonce) > maxNonceLen {
		return revshare.ZeroAddress, fmt.Errorf("%w: nonce must be 1-%d bytes", ErrMissingHeaders, maxNonceLen)
	}

	now := v.Clock.Now()
	signedAt := time.Unix(h.Timestamp, 0)
	skew := now.Sub(signedAt)
	if skew < 0 {
		skew = -skew
	}
	if skew > v.MaxSkew {
		return revshare.ZeroAddress, fmt.Errorf("%w: %s > %s", ErrStaleRequest, skew, v.MaxSkew)
	}

	sig, err := ec.ParseDERSignature(h.Signature)
	if err != nil {
		return revshare.ZeroAddress, fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	}
	digest := Digest(method, path, h.Timestamp, h.Nonce, body)
	if !sig.Verify(digest, pub) {
		return revshare.ZeroAddress, ErrInvalidSignature
	}
	if v.Replay != nil {
		if err := v.Replay.Observe(replayKey(h.PubKey, digest), now, signedAt.Add(v.MaxSkew)); err != nil {
			return revshare.ZeroAddress, err
		}
	}
	return revshare.AddressFromPubKey(pub), nil
}
