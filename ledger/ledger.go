// Package ledger implements the revenue ledger: asset registration, per-asset
// ownership tokens, revenue snapshots and proportional claims.
//
// Every mutating operation runs inside one store transaction and is
// serialized against all other mutations. Outbound transfers are the last
// step of an operation; a failed transfer aborts the transaction so that no
// claim marker, paid-out increment or revenue update survives it.
//
// Calls made back into the Ledger while an operation is in flight fail with
// ErrReentrantCall. A call carrying the context handed to the payer is
// always rejected. Any other call that arrives while an outbound transfer
// is running is rejected too rather than queued behind it, since a payee
// calling back synchronously would otherwise wait on itself forever.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/holiman/uint256"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/bitfsorg/revledger-go/payment"
	"github.com/bitfsorg/revledger-go/revshare"
	"github.com/bitfsorg/revledger-go/store"
)

// BalanceMode selects how a claimant's balance at a snapshot is resolved.
type BalanceMode string

const (
	// BalanceLazy uses the claimant's balance at first claim time and caches
	// it on the claim record. Transfers between deposit and claim change the
	// outcome.
	BalanceLazy BalanceMode = "lazy"

	// BalanceCheckpoint uses the balance history recorded on every share
	// movement, giving true point-in-time balances.
	BalanceCheckpoint BalanceMode = "checkpoint"
)

// DefaultMaxFeeBps caps the platform fee at 10%.
const DefaultMaxFeeBps = 1000

// Ledger is the revenue ledger. It is safe for concurrent use.
type Ledger struct {
	store store.Store
	payer payment.Payer
	clock clockwork.Clock
	log   logrus.FieldLogger
	mode  BalanceMode

	mu       sync.Mutex  // serializes mutating operations
	inPayout atomic.Bool // set while the payer runs

	subMu   sync.Mutex
	subs    map[uint64]chan revshare.Event
	nextSub uint64
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock sets the clock used for timestamps.
func WithClock(c clockwork.Clock) Option {
	return func(l *Ledger) { l.clock = c }
}

// WithLogger sets the logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(l *Ledger) { l.log = log }
}

// WithBalanceMode selects the claim balance mode. The default is BalanceLazy.
func WithBalanceMode(m BalanceMode) Option {
	return func(l *Ledger) { l.mode = m }
}

// New creates a Ledger over st, paying out through payer. defaults seeds the
// platform settings the first time the store is opened; afterwards the
// stored settings win and only change through the admin operations.
func New(ctx context.Context, st store.Store, payer payment.Payer, defaults revshare.Settings, opts ...Option) (*Ledger, error) {
	if st == nil || payer == nil {
		return nil, errors.New("ledger: store and payer are required")
	}
	l := &Ledger{
		store: st,
		payer: payer,
		clock: clockwork.NewRealClock(),
		log:   logrus.StandardLogger(),
		mode:  BalanceLazy,
		subs:  make(map[uint64]chan revshare.Event),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.mode != BalanceLazy && l.mode != BalanceCheckpoint {
		return nil, fmt.Errorf("ledger: unknown balance mode %q", l.mode)
	}

	if defaults.MaxFeeBps == 0 {
		defaults.MaxFeeBps = DefaultMaxFeeBps
	}
	if err := validateSettings(&defaults); err != nil {
		return nil, err
	}

	err := st.Update(ctx, func(tx store.Tx) error {
		_, err := tx.Settings()
		if errors.Is(err, store.ErrNotFound) {
			return tx.PutSettings(&defaults)
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("ledger: seed settings: %w", err)
	}
	return l, nil
}

// Mode returns the balance mode in use.
func (l *Ledger) Mode() BalanceMode { return l.mode }

func validateSettings(s *revshare.Settings) error {
	if s.Owner.IsZero() {
		return fmt.Errorf("%w: platform owner", ErrInvalidOperator)
	}
	if s.MaxFeeBps > revshare.BasisPoints {
		return fmt.Errorf("%w: max fee %d bps", ErrInvalidFee, s.MaxFeeBps)
	}
	if s.FeeBps > s.MaxFeeBps {
		return fmt.Errorf("%w: %d bps exceeds maximum %d", ErrInvalidFee, s.FeeBps, s.MaxFeeBps)
	}
	return nil
}

type inFlightKey struct{}

func (l *Ledger) reentrant(ctx context.Context) bool {
	if l.inPayout.Load() {
		return true
	}
	owner, _ := ctx.Value(inFlightKey{}).(*Ledger)
	return owner == l
}

// transfer runs the payer with the in-flight marker set.
func (l *Ledger) transfer(t *txn, to revshare.Address, amount *uint256.Int) error {
	l.inPayout.Store(true)
	defer l.inPayout.Store(false)
	return l.payer.Pay(t.ctx, to, amount)
}

// txn is the working state of one mutating operation.
type txn struct {
	store.Tx
	ctx    context.Context
	now    time.Time
	events []*revshare.Event
}

// emit stamps and stores e; it is published once the transaction commits.
func (t *txn) emit(e *revshare.Event) error {
	e.Time = t.now
	if err := t.AppendEvent(e); err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	t.events = append(t.events, e)
	return nil
}

// mutate runs fn as one serialized, atomic operation.
func (l *Ledger) mutate(ctx context.Context, op string, fn func(t *txn) error) error {
	if l.reentrant(ctx) {
		return fmt.Errorf("%w: %s", ErrReentrantCall, op)
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	ctx = context.WithValue(ctx, inFlightKey{}, l)
	var t *txn
	err := l.store.Update(ctx, func(tx store.Tx) error {
		t = &txn{Tx: tx, ctx: ctx, now: l.clock.Now().UTC()}
		return fn(t)
	})
	if err != nil {
		entry := l.log.WithField("op", op).WithError(err)
		if IsPaymentFailure(err) {
			entry.Warn("operation rolled back")
		} else {
			entry.Debug("operation rejected")
		}
		return err
	}
	l.publish(t.events)
	return nil
}

// view runs fn in a read-only transaction.
func (l *Ledger) view(ctx context.Context, fn func(tx store.Tx) error) error {
	if l.reentrant(ctx) {
		return fmt.Errorf("%w: read", ErrReentrantCall)
	}
	return l.store.View(ctx, fn)
}

func notFound(err error, format string, args ...interface{}) error {
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
	}
	return err
}

func loadAsset(tx store.Tx, id uint64) (*revshare.Asset, error) {
	a, err := tx.Asset(id)
	if err != nil {
		return nil, notFound(err, "asset %d", id)
	}
	return a, nil
}

func loadSettings(tx store.Tx) (*revshare.Settings, error) {
	s, err := tx.Settings()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	return s, nil
}

func requireRunning(tx store.Tx) (*revshare.Settings, error) {
	s, err := loadSettings(tx)
	if err != nil {
		return nil, err
	}
	if s.Paused {
		return nil, ErrPaused
	}
	return s, nil
}

func requireOperator(a *revshare.Asset, caller revshare.Address) error {
	if a.Operator != caller {
		return fmt.Errorf("%w: %s is not the operator of asset %d", ErrUnauthorized, caller, a.ID)
	}
	return nil
}

func requireOwner(s *revshare.Settings, caller revshare.Address) error {
	if s.Owner != caller {
		return fmt.Errorf("%w: %s is not the platform owner", ErrUnauthorized, caller)
	}
	return nil
}
