package ledger

import (
	"context"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/bitfsorg/revledger-go/revshare"
)

// DepositRevenue records amount of revenue for an asset and opens a new
// distribution snapshot. The deposited value must already be in ledger
// custody. The platform fee is paid to the platform owner as the last step;
// if that transfer fails the whole deposit is discarded. Operator only.
func (l *Ledger) DepositRevenue(ctx context.Context, caller revshare.Address, assetID uint64, amount *uint256.Int) (uint64, error) {
	var snapID uint64
	err := l.mutate(ctx, "deposit", func(t *txn) error {
		settings, err := requireRunning(t)
		if err != nil {
			return err
		}
		a, err := loadAsset(t, assetID)
		if err != nil {
			return err
		}
		if err := requireOperator(a, caller); err != nil {
			return err
		}
		if !a.Active {
			return fmt.Errorf("%w: asset %d", ErrAssetInactive, a.ID)
		}
		if amount == nil || amount.IsZero() {
			return fmt.Errorf("%w: zero revenue", ErrInvalidAmount)
		}
		if amount.Lt(&settings.MinRevenueThreshold) {
			return fmt.Errorf("%w: %s < %s", ErrBelowMinimumThreshold, amount.Dec(), settings.MinRevenueThreshold.Dec())
		}

		fee, distributable, err := revshare.SplitRevenue(amount, settings.FeeBps)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidFee, err)
		}
		supply, err := t.Supply(a.ID)
		if err != nil {
			return err
		}
		if supply.IsZero() {
			return fmt.Errorf("%w: asset %d has no outstanding shares", ErrInvalidShareCount, a.ID)
		}
		total, overflow := new(uint256.Int).AddOverflow(&a.TotalRevenue, amount)
		if overflow {
			return fmt.Errorf("%w: cumulative revenue overflow", ErrInvalidAmount)
		}

		snapID = a.LastSnapshotID + 1
		snap := &revshare.Snapshot{
			AssetID:       a.ID,
			ID:            snapID,
			TotalShares:   *supply,
			Gross:         *amount,
			Fee:           *fee,
			Distributable: *distributable,
			Completed:     distributable.IsZero(),
			Depositor:     caller,
			CreatedAt:     t.now,
		}
		if err := t.PutSnapshot(snap); err != nil {
			return err
		}

		a.TotalRevenue = *total
		a.LastRevenueAt = t.now
		a.LastSnapshotID = snapID
		if err := t.PutAsset(a); err != nil {
			return err
		}

		if err := t.emit(&revshare.Event{
			Kind:         revshare.EventRevenueReported,
			AssetID:      a.ID,
			SnapshotID:   snapID,
			Actor:        caller,
			Counterparty: settings.Owner,
			Amount:       *amount,
			FeeBps:       settings.FeeBps,
		}); err != nil {
			return err
		}

		if fee.IsZero() {
			return nil
		}
		if err := l.transfer(t, settings.Owner, fee); err != nil {
			return fmt.Errorf("%w: %s to %s: %w", ErrFeeTransferFailed, fee.Dec(), settings.Owner, err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return snapID, nil
}
