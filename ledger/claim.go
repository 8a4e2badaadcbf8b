package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/bitfsorg/revledger-go/revshare"
	"github.com/bitfsorg/revledger-go/store"
)

// SnapshotPayout is the amount owed or paid for one snapshot.
type SnapshotPayout struct {
	SnapshotID uint64
	Amount     uint256.Int
}

// BatchResult reports the outcome of BatchClaim.
type BatchResult struct {
	Total   uint256.Int
	Claimed []SnapshotPayout
	Skipped []uint64
}

// Summary is a read-only preview of what a claimant can collect.
type Summary struct {
	Total       uint256.Int
	SnapshotIDs []uint64
	Amounts     []uint256.Int
}

// Claim pays caller its share of one snapshot. The claim marker and the
// snapshot's paid-out total are only kept if the payout transfer succeeds.
func (l *Ledger) Claim(ctx context.Context, caller revshare.Address, assetID, snapshotID uint64) (*uint256.Int, error) {
	var payout *uint256.Int
	err := l.mutate(ctx, "claim", func(t *txn) error {
		if _, err := requireRunning(t); err != nil {
			return err
		}
		if _, err := loadAsset(t, assetID); err != nil {
			return err
		}
		var err error
		if payout, err = l.claimOne(t, assetID, snapshotID, caller); err != nil {
			return err
		}
		return l.pay(t, caller, payout)
	})
	if err != nil {
		return nil, err
	}
	return payout, nil
}

// BatchClaim claims several snapshots of one asset and pays the total in a
// single transfer. Snapshots that are unknown, already claimed, or owe
// nothing are skipped. Each claimed snapshot gets its own RevenueClaimed
// event. If nothing at all is owed the call fails with ErrZeroPayout.
func (l *Ledger) BatchClaim(ctx context.Context, caller revshare.Address, assetID uint64, snapshotIDs []uint64) (*BatchResult, error) {
	var res *BatchResult
	err := l.mutate(ctx, "batch-claim", func(t *txn) error {
		if _, err := requireRunning(t); err != nil {
			return err
		}
		if _, err := loadAsset(t, assetID); err != nil {
			return err
		}

		res = &BatchResult{}
		for _, id := range snapshotIDs {
			amount, err := l.claimOne(t, assetID, id, caller)
			if skippable(err) {
				res.Skipped = append(res.Skipped, id)
				continue
			}
			if err != nil {
				return err
			}
			if _, overflow := res.Total.AddOverflow(&res.Total, amount); overflow {
				return fmt.Errorf("%w: batch total overflow", ErrInvalidAmount)
			}
			res.Claimed = append(res.Claimed, SnapshotPayout{SnapshotID: id, Amount: *amount})
		}
		if res.Total.IsZero() {
			return fmt.Errorf("%w: nothing claimable on asset %d", ErrZeroPayout, assetID)
		}
		return l.pay(t, caller, &res.Total)
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func skippable(err error) bool {
	return errors.Is(err, ErrAlreadyClaimed) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrNoSharesOwned) ||
		errors.Is(err, ErrZeroPayout)
}

func (l *Ledger) pay(t *txn, to revshare.Address, amount *uint256.Int) error {
	if err := l.transfer(t, to, amount); err != nil {
		return fmt.Errorf("%w: %s to %s: %w", ErrTransferFailed, amount.Dec(), to, err)
	}
	return nil
}

// claimOne marks one (asset, snapshot, claimant) triple claimed and books
// the payout against the snapshot. It does not transfer anything.
func (l *Ledger) claimOne(t *txn, assetID, snapshotID uint64, claimant revshare.Address) (*uint256.Int, error) {
	snap, rec, err := loadClaimable(t, assetID, snapshotID, claimant)
	if err != nil {
		return nil, err
	}
	payout, bal, err := l.owed(t, snap, rec, claimant)
	if err != nil {
		return nil, err
	}

	if err := t.PutClaim(&revshare.ClaimRecord{
		AssetID:       assetID,
		SnapshotID:    snapshotID,
		Claimant:      claimant,
		Claimed:       true,
		BalanceCached: true,
		Balance:       *bal,
		Amount:        *payout,
		ClaimedAt:     t.now,
	}); err != nil {
		return nil, err
	}

	snap.PaidOut.Add(&snap.PaidOut, payout)
	snap.Completed = snap.PaidOut.Cmp(&snap.Distributable) >= 0
	if err := t.PutSnapshot(snap); err != nil {
		return nil, err
	}

	if err := t.emit(&revshare.Event{
		Kind:       revshare.EventRevenueClaimed,
		AssetID:    assetID,
		SnapshotID: snapshotID,
		Actor:      claimant,
		Amount:     *payout,
	}); err != nil {
		return nil, err
	}
	return payout, nil
}

// loadClaimable returns the snapshot and any existing claim record, failing
// if the snapshot is unknown or the triple was already claimed.
func loadClaimable(tx store.Tx, assetID, snapshotID uint64, claimant revshare.Address) (*revshare.Snapshot, *revshare.ClaimRecord, error) {
	snap, err := tx.Snapshot(assetID, snapshotID)
	if err != nil {
		return nil, nil, notFound(err, "snapshot %d of asset %d", snapshotID, assetID)
	}
	if snap.Distributable.IsZero() {
		return nil, nil, fmt.Errorf("%w: snapshot %d of asset %d has nothing to distribute", ErrNotFound, snapshotID, assetID)
	}

	rec, err := tx.Claim(assetID, snapshotID, claimant)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return snap, nil, nil
	case err != nil:
		return nil, nil, err
	case rec.Claimed:
		return nil, nil, fmt.Errorf("%w: asset %d snapshot %d by %s", ErrAlreadyClaimed, assetID, snapshotID, claimant)
	}
	return snap, rec, nil
}

// owed computes floor(distributable * balance / totalShares), capped at
// what the snapshot still holds.
func (l *Ledger) owed(tx store.Tx, snap *revshare.Snapshot, rec *revshare.ClaimRecord, claimant revshare.Address) (payout, bal *uint256.Int, err error) {
	bal, err = l.balanceAt(tx, snap, rec, claimant)
	if err != nil {
		return nil, nil, err
	}
	if bal.IsZero() {
		return nil, nil, fmt.Errorf("%w: %s at asset %d snapshot %d", ErrNoSharesOwned, claimant, snap.AssetID, snap.ID)
	}

	payout, err = revshare.Payout(&snap.Distributable, bal, &snap.TotalShares)
	if err != nil {
		return nil, nil, err
	}
	if remaining := snap.Remaining(); payout.Gt(remaining) {
		payout = remaining
	}
	if payout.IsZero() {
		return nil, nil, fmt.Errorf("%w: asset %d snapshot %d balance %s of %s",
			ErrZeroPayout, snap.AssetID, snap.ID, bal.Dec(), snap.TotalShares.Dec())
	}
	return payout, bal, nil
}

// balanceAt resolves the claimant's balance for a snapshot. A cached
// balance on the claim record always wins.
func (l *Ledger) balanceAt(tx store.Tx, snap *revshare.Snapshot, rec *revshare.ClaimRecord, claimant revshare.Address) (*uint256.Int, error) {
	if rec != nil && rec.BalanceCached {
		b := rec.Balance
		return &b, nil
	}
	if l.mode == BalanceLazy {
		return tx.Balance(snap.AssetID, claimant)
	}

	cps, err := tx.Checkpoints(snap.AssetID, claimant)
	if err != nil {
		return nil, err
	}
	bal := new(uint256.Int)
	for _, cp := range cps {
		if cp.Epoch >= snap.ID {
			break
		}
		*bal = cp.Balance
	}
	return bal, nil
}

// ClaimableSummary lists every snapshot of an asset that claimant could
// claim now and the amount each would pay. It changes nothing.
func (l *Ledger) ClaimableSummary(ctx context.Context, assetID uint64, claimant revshare.Address) (*Summary, error) {
	sum := &Summary{}
	err := l.view(ctx, func(tx store.Tx) error {
		if _, err := loadAsset(tx, assetID); err != nil {
			return err
		}
		snaps, err := tx.Snapshots(assetID)
		if err != nil {
			return err
		}
		for _, s := range snaps {
			snap, rec, err := loadClaimable(tx, assetID, s.ID, claimant)
			if skippable(err) {
				continue
			}
			if err != nil {
				return err
			}
			payout, _, err := l.owed(tx, snap, rec, claimant)
			if skippable(err) {
				continue
			}
			if err != nil {
				return err
			}
			sum.Total.Add(&sum.Total, payout)
			sum.SnapshotIDs = append(sum.SnapshotIDs, snap.ID)
			sum.Amounts = append(sum.Amounts, *payout)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sum, nil
}
