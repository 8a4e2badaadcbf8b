package revshare

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	bsvhash "github.com/bsv-blockchain/go-sdk/primitives/hash"
	"github.com/holiman/uint256"
)

// AddressSize is the length of an Address in bytes.
const AddressSize = 20

// Address identifies an operator, shareholder or platform owner.
// It is HASH160 of the holder's compressed secp256k1 public key.
type Address [AddressSize]byte

// ZeroAddress is the null identity.
var ZeroAddress Address

// AddressFromPubKey derives the Address of a public key.
func AddressFromPubKey(pub *ec.PublicKey) Address {
	var a Address
	copy(a[:], bsvhash.Hash160(pub.Compressed()))
	return a
}

// ShareTokenAddress returns the deterministic reference of an asset's
// ownership token.
func ShareTokenAddress(assetID uint64) Address {
	var a Address
	copy(a[:], bsvhash.Hash160([]byte(fmt.Sprintf("revledger/share-token/%d", assetID))))
	return a
}

// ParseAddress decodes a 40-character hex address. A leading "0x" is optional.
func ParseAddress(s string) (Address, error) {
	var a Address
	s = strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "0x"), "0X")
	if len(s) != AddressSize*2 {
		return a, fmt.Errorf("%w: expected %d hex chars, got %d", ErrInvalidAddress, AddressSize*2, len(s))
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return a, fmt.Errorf("%w: %w", ErrInvalidAddress, err)
	}
	copy(a[:], b)
	return a, nil
}

// IsZero reports whether a is the null identity.
func (a Address) IsZero() bool { return a == ZeroAddress }

// String returns the 0x-prefixed hex form.
func (a Address) String() string { return "0x" + hex.EncodeToString(a[:]) }

// MarshalText implements encoding.TextMarshaler.
func (a Address) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Asset is one revenue-generating entity and its share bookkeeping header.
type Asset struct {
	ID             uint64
	Operator       Address
	Name           string
	MetadataRef    string
	Token          Address     // ownership token reference
	TotalShares    uint256.Int // fixed at registration
	TotalRevenue   uint256.Int // cumulative gross revenue
	LastRevenueAt  time.Time
	LastSnapshotID uint64 // 0 until the first deposit
	Active         bool
	CreatedAt      time.Time
}

// Snapshot is the distribution record created by one revenue deposit.
type Snapshot struct {
	AssetID       uint64
	ID            uint64
	TotalShares   uint256.Int // token supply at deposit time
	Gross         uint256.Int
	Fee           uint256.Int
	Distributable uint256.Int
	PaidOut       uint256.Int
	Completed     bool
	Depositor     Address
	CreatedAt     time.Time
}

// Remaining returns the distributable amount not yet paid out.
func (s *Snapshot) Remaining() *uint256.Int {
	if s.PaidOut.Cmp(&s.Distributable) >= 0 {
		return new(uint256.Int)
	}
	return new(uint256.Int).Sub(&s.Distributable, &s.PaidOut)
}

// ClaimRecord tracks one (asset, snapshot, claimant) triple.
type ClaimRecord struct {
	AssetID       uint64
	SnapshotID    uint64
	Claimant      Address
	Claimed       bool
	BalanceCached bool
	Balance       uint256.Int // balance used for the payout, set at most once
	Amount        uint256.Int // amount paid
	ClaimedAt     time.Time
}

// Holding is one holder's balance of an ownership token.
type Holding struct {
	Holder  Address
	Balance uint256.Int
}

// Checkpoint records a holder's balance after a change. Epoch is the
// number of snapshots the asset had when the change happened.
type Checkpoint struct {
	Epoch   uint64
	Balance uint256.Int
}

// Settings is the platform-wide configuration owned by the platform admin.
type Settings struct {
	Owner               Address
	FeeBps              uint16
	MaxFeeBps           uint16
	MinRevenueThreshold uint256.Int
	Paused              bool
}

// Distribution represents a single payout in a projected distribution.
type Distribution struct {
	Holder Address
	Amount uint256.Int
}
