// Package payment moves value out of ledger custody.
package payment

import (
	"context"
	"fmt"
	"sync"

	"github.com/holiman/uint256"

	"github.com/bitfsorg/revledger-go/revshare"
)

// Payer performs a single outbound transfer. Implementations must not
// retry: a returned error means nothing was transferred.
type Payer interface {
	Pay(ctx context.Context, to revshare.Address, amount *uint256.Int) error
}

// PayerFunc adapts a function to the Payer interface.
type PayerFunc func(ctx context.Context, to revshare.Address, amount *uint256.Int) error

// Pay calls f.
func (f PayerFunc) Pay(ctx context.Context, to revshare.Address, amount *uint256.Int) error {
	return f(ctx, to, amount)
}

// Transfer is one completed payout.
type Transfer struct {
	To     revshare.Address
	Amount uint256.Int
}

// MemBank is an in-memory custody account. Deposits are credited to
// custody; Pay moves funds from custody to a recipient account.
type MemBank struct {
	mu        sync.Mutex
	custody   uint256.Int
	accounts  map[revshare.Address]uint256.Int
	transfers []Transfer

	// OnPay, if set, runs before funds move, in the caller's goroutine and
	// with the caller's context. A non-nil error rejects the transfer.
	OnPay func(ctx context.Context, to revshare.Address, amount *uint256.Int) error
}

// Compile-time interface check.
var _ Payer = (*MemBank)(nil)

// NewMemBank creates an empty bank.
func NewMemBank() *MemBank {
	return &MemBank{accounts: make(map[revshare.Address]uint256.Int)}
}

// Credit adds amount to custody.
func (b *MemBank) Credit(amount *uint256.Int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	sum, overflow := new(uint256.Int).AddOverflow(&b.custody, amount)
	if overflow {
		return ErrOverflow
	}
	b.custody = *sum
	return nil
}

// Debit removes amount from custody, reversing a Credit whose deposit was
// not recorded.
func (b *MemBank) Debit(amount *uint256.Int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.custody.Lt(amount) {
		return fmt.Errorf("%w: have %s, need %s", ErrInsufficientFunds, b.custody.Dec(), amount.Dec())
	}
	b.custody.Sub(&b.custody, amount)
	return nil
}

// Pay transfers amount from custody to the account of to.
func (b *MemBank) Pay(ctx context.Context, to revshare.Address, amount *uint256.Int) error {
	if to.IsZero() {
		return ErrZeroRecipient
	}
	if b.OnPay != nil {
		if err := b.OnPay(ctx, to, amount); err != nil {
			return fmt.Errorf("%w: %w", ErrRejected, err)
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.custody.Lt(amount) {
		return fmt.Errorf("%w: have %s, need %s", ErrInsufficientFunds, b.custody.Dec(), amount.Dec())
	}
	b.custody.Sub(&b.custody, amount)
	bal := b.accounts[to]
	bal.Add(&bal, amount)
	b.accounts[to] = bal
	b.transfers = append(b.transfers, Transfer{To: to, Amount: *amount})
	return nil
}

// Custody returns the funds still held for distribution.
func (b *MemBank) Custody() *uint256.Int {
	b.mu.Lock()
	defer b.mu.Unlock()
	v := b.custody
	return &v
}

// BalanceOf returns the total received by addr.
func (b *MemBank) BalanceOf(addr revshare.Address) *uint256.Int {
	b.mu.Lock()
	defer b.mu.Unlock()
	v := b.accounts[addr]
	return &v
}

// Transfers returns the completed payouts in order.
func (b *MemBank) Transfers() []Transfer {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Transfer(nil), b.transfers...)
}
