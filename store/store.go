// Package store persists revenue ledger state.
//
// Every ledger operation runs inside exactly one Update (or View) call.
// An Update whose callback returns an error leaves no trace: all writes made
// through its Tx are discarded. This is what makes ledger operations atomic,
// including the rollback of claim markers when an outbound payment fails.
package store

import (
	"context"

	"github.com/holiman/uint256"

	"github.com/bitfsorg/revledger-go/revshare"
)

// Store opens transactions over the ledger state.
type Store interface {
	// View runs fn in a read-only transaction.
	View(ctx context.Context, fn func(Tx) error) error

	// Update runs fn in a read-write transaction. The transaction commits
	// only if fn returns nil.
	Update(ctx context.Context, fn func(Tx) error) error

	// Close releases the underlying resources.
	Close() error
}

// Tx is the set of reads and writes available inside a transaction.
// Lookups of absent records return ErrNotFound, except balances and supply
// which read as zero.
type Tx interface {
	Settings() (*revshare.Settings, error)
	PutSettings(s *revshare.Settings) error

	// NextAssetID allocates the next asset id, starting at 1.
	NextAssetID() (uint64, error)
	Asset(id uint64) (*revshare.Asset, error)
	PutAsset(a *revshare.Asset) error
	// Assets returns every asset ordered by id.
	Assets() ([]*revshare.Asset, error)

	Supply(assetID uint64) (*uint256.Int, error)
	PutSupply(assetID uint64, supply *uint256.Int) error
	Balance(assetID uint64, holder revshare.Address) (*uint256.Int, error)
	// PutBalance stores a balance; a zero balance removes the holder.
	PutBalance(assetID uint64, holder revshare.Address, balance *uint256.Int) error
	// Holdings returns non-zero balances ordered by holder address.
	Holdings(assetID uint64) ([]revshare.Holding, error)

	// Checkpoints returns a holder's balance history ordered by epoch.
	Checkpoints(assetID uint64, holder revshare.Address) ([]revshare.Checkpoint, error)
	// PutCheckpoint records a balance for an epoch, replacing any earlier
	// checkpoint of the same epoch.
	PutCheckpoint(assetID uint64, holder revshare.Address, cp revshare.Checkpoint) error

	Snapshot(assetID, snapshotID uint64) (*revshare.Snapshot, error)
	PutSnapshot(s *revshare.Snapshot) error
	// Snapshots returns an asset's snapshots ordered by id.
	Snapshots(assetID uint64) ([]*revshare.Snapshot, error)

	Claim(assetID, snapshotID uint64, claimant revshare.Address) (*revshare.ClaimRecord, error)
	PutClaim(c *revshare.ClaimRecord) error

	// AppendEvent stores e and assigns its sequence number.
	AppendEvent(e *revshare.Event) error
	// Events returns up to limit events with Seq > after, ascending.
	// assetID 0 selects events of every asset. limit <= 0 means no limit.
	Events(assetID, after uint64, limit int) ([]*revshare.Event, error)
}
