package ledger

import (
	"context"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/bitfsorg/revledger-go/revshare"
)

// Register creates an asset operated by operator and mints initialShares of
// its new ownership token to the operator. Anyone may register; caller is
// recorded on the registration event.
func (l *Ledger) Register(ctx context.Context, caller, operator revshare.Address, name, metadataRef string, initialShares *uint256.Int) (uint64, error) {
	var id uint64
	err := l.mutate(ctx, "register", func(t *txn) error {
		if _, err := requireRunning(t); err != nil {
			return err
		}
		if operator.IsZero() {
			return ErrInvalidOperator
		}
		if initialShares == nil || initialShares.IsZero() {
			return ErrInvalidShareCount
		}

		var err error
		if id, err = t.NextAssetID(); err != nil {
			return fmt.Errorf("allocate asset id: %w", err)
		}
		asset := &revshare.Asset{
			ID:          id,
			Operator:    operator,
			Name:        name,
			MetadataRef: metadataRef,
			Token:       revshare.ShareTokenAddress(id),
			TotalShares: *initialShares,
			Active:      true,
			CreatedAt:   t.now,
		}
		if err := t.PutAsset(asset); err != nil {
			return err
		}
		if err := l.mint(t, asset, operator, initialShares); err != nil {
			return err
		}
		return t.emit(&revshare.Event{
			Kind:         revshare.EventAssetRegistered,
			AssetID:      id,
			Actor:        caller,
			Counterparty: operator,
			Amount:       *initialShares,
			Name:         name,
			MetadataRef:  metadataRef,
			Token:        asset.Token,
			Active:       true,
		})
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// UpdateMetadata replaces an asset's metadata reference. Operator only.
func (l *Ledger) UpdateMetadata(ctx context.Context, caller revshare.Address, assetID uint64, metadataRef string) error {
	return l.mutateAsset(ctx, "update-metadata", caller, assetID, func(t *txn, a *revshare.Asset) error {
		a.MetadataRef = metadataRef
		if err := t.PutAsset(a); err != nil {
			return err
		}
		return t.emit(&revshare.Event{
			Kind:        revshare.EventMetadataUpdated,
			AssetID:     a.ID,
			Actor:       caller,
			MetadataRef: metadataRef,
		})
	})
}

// SetActive toggles whether an asset accepts revenue deposits. Claims on an
// inactive asset still work. Operator only.
func (l *Ledger) SetActive(ctx context.Context, caller revshare.Address, assetID uint64, active bool) error {
	return l.mutateAsset(ctx, "set-active", caller, assetID, func(t *txn, a *revshare.Asset) error {
		a.Active = active
		if err := t.PutAsset(a); err != nil {
			return err
		}
		return t.emit(&revshare.Event{
			Kind:    revshare.EventStatusChanged,
			AssetID: a.ID,
			Actor:   caller,
			Active:  active,
		})
	})
}

// TransferOperator hands operator rights to newOperator. Share balances do
// not move. Operator only.
func (l *Ledger) TransferOperator(ctx context.Context, caller revshare.Address, assetID uint64, newOperator revshare.Address) error {
	return l.mutateAsset(ctx, "transfer-operator", caller, assetID, func(t *txn, a *revshare.Asset) error {
		if newOperator.IsZero() {
			return ErrInvalidOperator
		}
		a.Operator = newOperator
		if err := t.PutAsset(a); err != nil {
			return err
		}
		return t.emit(&revshare.Event{
			Kind:         revshare.EventOperatorTransferred,
			AssetID:      a.ID,
			Actor:        caller,
			Counterparty: newOperator,
		})
	})
}

// mutateAsset runs an operator-only mutation of an existing asset.
func (l *Ledger) mutateAsset(ctx context.Context, op string, caller revshare.Address, assetID uint64, fn func(t *txn, a *revshare.Asset) error) error {
	return l.mutate(ctx, op, func(t *txn) error {
		if _, err := requireRunning(t); err != nil {
			return err
		}
		a, err := loadAsset(t, assetID)
		if err != nil {
			return err
		}
		if err := requireOperator(a, caller); err != nil {
			return err
		}
		return fn(t, a)
	})
}
