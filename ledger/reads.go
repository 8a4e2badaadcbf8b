package ledger

import (
	"context"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/bitfsorg/revledger-go/revshare"
	"github.com/bitfsorg/revledger-go/store"
)

// Asset returns one asset.
func (l *Ledger) Asset(ctx context.Context, id uint64) (*revshare.Asset, error) {
	var a *revshare.Asset
	err := l.view(ctx, func(tx store.Tx) error {
		var err error
		a, err = loadAsset(tx, id)
		return err
	})
	return a, err
}

// Assets returns every asset ordered by id.
func (l *Ledger) Assets(ctx context.Context) ([]*revshare.Asset, error) {
	var assets []*revshare.Asset
	err := l.view(ctx, func(tx store.Tx) error {
		var err error
		assets, err = tx.Assets()
		return err
	})
	return assets, err
}

// AssetsByOperator returns the assets currently operated by op.
func (l *Ledger) AssetsByOperator(ctx context.Context, op revshare.Address) ([]*revshare.Asset, error) {
	all, err := l.Assets(ctx)
	if err != nil {
		return nil, err
	}
	var result []*revshare.Asset
	for _, a := range all {
		if a.Operator == op {
			result = append(result, a)
		}
	}
	return result, nil
}

// Snapshot returns one distribution snapshot.
func (l *Ledger) Snapshot(ctx context.Context, assetID, snapshotID uint64) (*revshare.Snapshot, error) {
	var s *revshare.Snapshot
	err := l.view(ctx, func(tx store.Tx) error {
		var err error
		s, err = tx.Snapshot(assetID, snapshotID)
		return notFound(err, "snapshot %d of asset %d", snapshotID, assetID)
	})
	return s, err
}

// Snapshots returns an asset's snapshots ordered by id.
func (l *Ledger) Snapshots(ctx context.Context, assetID uint64) ([]*revshare.Snapshot, error) {
	var snaps []*revshare.Snapshot
	err := l.view(ctx, func(tx store.Tx) error {
		if _, err := loadAsset(tx, assetID); err != nil {
			return err
		}
		var err error
		snaps, err = tx.Snapshots(assetID)
		return err
	})
	return snaps, err
}

// Events returns up to limit persisted events with Seq > after. assetID 0
// selects all assets, including platform admin events.
func (l *Ledger) Events(ctx context.Context, assetID, after uint64, limit int) ([]*revshare.Event, error) {
	var events []*revshare.Event
	err := l.view(ctx, func(tx store.Tx) error {
		var err error
		events, err = tx.Events(assetID, after, limit)
		return err
	})
	return events, err
}

// Projection previews how a deposit would be split.
type Projection struct {
	AssetID       uint64
	Gross         uint256.Int
	Fee           uint256.Int
	Distributable uint256.Int
	TotalShares   uint256.Int
	Distributions []revshare.Distribution
	Dust          uint256.Int
}

// ProjectDistribution computes what each current holder would receive from
// a deposit of amount under the current fee, without recording anything.
func (l *Ledger) ProjectDistribution(ctx context.Context, assetID uint64, amount *uint256.Int) (*Projection, error) {
	if amount == nil {
		return nil, fmt.Errorf("%w: nil amount", ErrInvalidAmount)
	}
	p := &Projection{AssetID: assetID, Gross: *amount}
	err := l.view(ctx, func(tx store.Tx) error {
		if _, err := loadAsset(tx, assetID); err != nil {
			return err
		}
		settings, err := loadSettings(tx)
		if err != nil {
			return err
		}
		fee, distributable, err := revshare.SplitRevenue(amount, settings.FeeBps)
		if err != nil {
			return err
		}
		supply, err := tx.Supply(assetID)
		if err != nil {
			return err
		}
		holdings, err := tx.Holdings(assetID)
		if err != nil {
			return err
		}
		dists, dust, err := revshare.Distribute(distributable, holdings, supply)
		if err != nil {
			return err
		}
		p.Fee, p.Distributable, p.TotalShares, p.Dust = *fee, *distributable, *supply, *dust
		p.Distributions = dists
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Outstanding returns the revenue recorded for distribution and not yet
// paid out, summed over every snapshot of every asset. Custody must hold at
// least this much for every open claim to succeed.
func (l *Ledger) Outstanding(ctx context.Context) (*uint256.Int, error) {
	total := new(uint256.Int)
	err := l.view(ctx, func(tx store.Tx) error {
		assets, err := tx.Assets()
		if err != nil {
			return err
		}
		for _, a := range assets {
			snaps, err := tx.Snapshots(a.ID)
			if err != nil {
				return err
			}
			for _, s := range snaps {
				if _, overflow := total.AddOverflow(total, s.Remaining()); overflow {
					return fmt.Errorf("%w: outstanding revenue overflow", ErrInvalidAmount)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return total, nil
}

// Audit re-checks an asset's bookkeeping: balances sum to supply, supply
// equals the registered share count, and every snapshot respects its
// payout bound.
func (l *Ledger) Audit(ctx context.Context, assetID uint64) error {
	return l.view(ctx, func(tx store.Tx) error {
		a, err := loadAsset(tx, assetID)
		if err != nil {
			return err
		}
		supply, err := tx.Supply(assetID)
		if err != nil {
			return err
		}
		holdings, err := tx.Holdings(assetID)
		if err != nil {
			return err
		}
		if err := revshare.ValidateShareConservation(holdings, supply); err != nil {
			return fmt.Errorf("asset %d: %w", assetID, err)
		}
		if !supply.Eq(&a.TotalShares) {
			return fmt.Errorf("asset %d: %w: supply %s, registered %s",
				assetID, revshare.ErrShareConservationViolation, supply.Dec(), a.TotalShares.Dec())
		}

		snaps, err := tx.Snapshots(assetID)
		if err != nil {
			return err
		}
		for _, s := range snaps {
			if err := revshare.ValidatePayoutBound(s); err != nil {
				return err
			}
		}
		return nil
	})
}
