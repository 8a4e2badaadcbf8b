package ledger

import (
	"context"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/bitfsorg/revledger-go/revshare"
	"github.com/bitfsorg/revledger-go/store"
)

// mint credits amount new shares to holder. Only the ledger mints, and only
// at registration.
func (l *Ledger) mint(t *txn, a *revshare.Asset, to revshare.Address, amount *uint256.Int) error {
	supply, err := t.Supply(a.ID)
	if err != nil {
		return err
	}
	newSupply, overflow := new(uint256.Int).AddOverflow(supply, amount)
	if overflow {
		return fmt.Errorf("%w: supply overflow", ErrInvalidAmount)
	}
	bal, err := t.Balance(a.ID, to)
	if err != nil {
		return err
	}
	// balance <= supply, so this cannot overflow once the supply did not
	bal.Add(bal, amount)

	if err := t.PutSupply(a.ID, newSupply); err != nil {
		return err
	}
	return l.setBalance(t, a, to, bal)
}

// burn destroys amount shares held by from.
func (l *Ledger) burn(t *txn, a *revshare.Asset, from revshare.Address, amount *uint256.Int) error {
	bal, err := t.Balance(a.ID, from)
	if err != nil {
		return err
	}
	if bal.Lt(amount) {
		return fmt.Errorf("%w: %s holds %s, burning %s", ErrInsufficientBalance, from, bal.Dec(), amount.Dec())
	}
	supply, err := t.Supply(a.ID)
	if err != nil {
		return err
	}
	supply.Sub(supply, amount)
	bal.Sub(bal, amount)

	if err := t.PutSupply(a.ID, supply); err != nil {
		return err
	}
	return l.setBalance(t, a, from, bal)
}

// setBalance writes a balance and records it in the holder's history at the
// asset's current epoch (its snapshot count).
func (l *Ledger) setBalance(t *txn, a *revshare.Asset, holder revshare.Address, bal *uint256.Int) error {
	if err := t.PutBalance(a.ID, holder, bal); err != nil {
		return err
	}
	return t.PutCheckpoint(a.ID, holder, revshare.Checkpoint{Epoch: a.LastSnapshotID, Balance: *bal})
}

// TransferShares moves amount of an asset's shares from caller to to.
// Transfers are allowed while the platform is paused.
func (l *Ledger) TransferShares(ctx context.Context, caller revshare.Address, assetID uint64, to revshare.Address, amount *uint256.Int) error {
	return l.mutate(ctx, "transfer-shares", func(t *txn) error {
		if to.IsZero() {
			return ErrInvalidRecipient
		}
		if amount == nil || amount.IsZero() {
			return fmt.Errorf("%w: zero share transfer", ErrInvalidAmount)
		}
		a, err := loadAsset(t, assetID)
		if err != nil {
			return err
		}

		from, err := t.Balance(a.ID, caller)
		if err != nil {
			return err
		}
		if from.Lt(amount) {
			return fmt.Errorf("%w: %s holds %s of asset %d, sending %s",
				ErrInsufficientBalance, caller, from.Dec(), a.ID, amount.Dec())
		}
		if caller != to {
			dest, err := t.Balance(a.ID, to)
			if err != nil {
				return err
			}
			from.Sub(from, amount)
			dest.Add(dest, amount)
			if err := l.setBalance(t, a, caller, from); err != nil {
				return err
			}
			if err := l.setBalance(t, a, to, dest); err != nil {
				return err
			}
		}

		return t.emit(&revshare.Event{
			Kind:         revshare.EventSharesTransferred,
			AssetID:      a.ID,
			Actor:        caller,
			Counterparty: to,
			Amount:       *amount,
			Token:        a.Token,
		})
	})
}

// BalanceOf returns holder's current share balance of an asset.
func (l *Ledger) BalanceOf(ctx context.Context, assetID uint64, holder revshare.Address) (*uint256.Int, error) {
	var bal *uint256.Int
	err := l.view(ctx, func(tx store.Tx) error {
		if _, err := loadAsset(tx, assetID); err != nil {
			return err
		}
		var err error
		bal, err = tx.Balance(assetID, holder)
		return err
	})
	return bal, err
}

// TotalSupply returns the outstanding shares of an asset.
func (l *Ledger) TotalSupply(ctx context.Context, assetID uint64) (*uint256.Int, error) {
	var supply *uint256.Int
	err := l.view(ctx, func(tx store.Tx) error {
		if _, err := loadAsset(tx, assetID); err != nil {
			return err
		}
		var err error
		supply, err = tx.Supply(assetID)
		return err
	})
	return supply, err
}

// Holders returns every non-zero balance of an asset ordered by holder.
func (l *Ledger) Holders(ctx context.Context, assetID uint64) ([]revshare.Holding, error) {
	var holdings []revshare.Holding
	err := l.view(ctx, func(tx store.Tx) error {
		if _, err := loadAsset(tx, assetID); err != nil {
			return err
		}
		var err error
		holdings, err = tx.Holdings(assetID)
		return err
	})
	return holdings, err
}
