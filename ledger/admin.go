package ledger

import (
	"context"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/bitfsorg/revledger-go/revshare"
	"github.com/bitfsorg/revledger-go/store"
)

// SetPlatformFee sets the fee taken from each deposit, in basis points.
// Platform owner only; bps may not exceed the configured maximum.
func (l *Ledger) SetPlatformFee(ctx context.Context, caller revshare.Address, bps uint16) error {
	return l.mutateSettings(ctx, "set-fee", caller, func(t *txn, s *revshare.Settings) error {
		if bps > s.MaxFeeBps {
			return fmt.Errorf("%w: %d bps exceeds maximum %d", ErrInvalidFee, bps, s.MaxFeeBps)
		}
		s.FeeBps = bps
		return t.emit(&revshare.Event{Kind: revshare.EventFeeUpdated, Actor: caller, FeeBps: bps})
	})
}

// SetMinRevenueThreshold sets the smallest deposit accepted. Platform owner only.
func (l *Ledger) SetMinRevenueThreshold(ctx context.Context, caller revshare.Address, amount *uint256.Int) error {
	return l.mutateSettings(ctx, "set-threshold", caller, func(t *txn, s *revshare.Settings) error {
		if amount == nil {
			return fmt.Errorf("%w: nil threshold", ErrInvalidAmount)
		}
		s.MinRevenueThreshold = *amount
		return t.emit(&revshare.Event{Kind: revshare.EventThresholdUpdated, Actor: caller, Amount: *amount})
	})
}

// TransferPlatformOwnership hands the platform admin role to newOwner.
func (l *Ledger) TransferPlatformOwnership(ctx context.Context, caller, newOwner revshare.Address) error {
	return l.mutateSettings(ctx, "transfer-ownership", caller, func(t *txn, s *revshare.Settings) error {
		if newOwner.IsZero() {
			return ErrInvalidOperator
		}
		s.Owner = newOwner
		return t.emit(&revshare.Event{Kind: revshare.EventPlatformOwnerChanged, Actor: caller, Counterparty: newOwner})
	})
}

// Pause stops registrations, asset mutations, deposits and claims.
func (l *Ledger) Pause(ctx context.Context, caller revshare.Address) error {
	return l.mutateSettings(ctx, "pause", caller, func(t *txn, s *revshare.Settings) error {
		if s.Paused {
			return ErrPaused
		}
		s.Paused = true
		return t.emit(&revshare.Event{Kind: revshare.EventPaused, Actor: caller})
	})
}

// Unpause resumes normal operation.
func (l *Ledger) Unpause(ctx context.Context, caller revshare.Address) error {
	return l.mutateSettings(ctx, "unpause", caller, func(t *txn, s *revshare.Settings) error {
		if !s.Paused {
			return ErrNotPaused
		}
		s.Paused = false
		return t.emit(&revshare.Event{Kind: revshare.EventUnpaused, Actor: caller})
	})
}

// Settings returns the current platform settings.
func (l *Ledger) Settings(ctx context.Context) (*revshare.Settings, error) {
	var s *revshare.Settings
	err := l.view(ctx, func(tx store.Tx) error {
		var err error
		s, err = loadSettings(tx)
		return err
	})
	return s, err
}

func (l *Ledger) mutateSettings(ctx context.Context, op string, caller revshare.Address, fn func(t *txn, s *revshare.Settings) error) error {
	return l.mutate(ctx, op, func(t *txn) error {
		s, err := loadSettings(t)
		if err != nil {
			return err
		}
		if err := requireOwner(s, caller); err != nil {
			return err
		}
		if err := fn(t, s); err != nil {
			return err
		}
		return t.PutSettings(s)
	})
}
