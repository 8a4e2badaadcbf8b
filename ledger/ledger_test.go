package ledger

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitfsorg/revledger-go/payment"
	"github.com/bitfsorg/revledger-go/revshare"
	"github.com/bitfsorg/revledger-go/store"
)

func addr(seed byte) revshare.Address {
	var a revshare.Address
	for i := range a {
		a[i] = seed
	}
	return a
}

var (
	owner    = addr(0xF0)
	operator = addr(0x01)
	holderX  = addr(0xAA)
	holderY  = addr(0xBB)
	stranger = addr(0xEE)
)

func u(v uint64) *uint256.Int { return uint256.NewInt(v) }

func oneUnit() *uint256.Int { return uint256.MustFromDecimal("1000000000000000000") }

type fixture struct {
	l     *Ledger
	bank  *payment.MemBank
	clock *clockwork.FakeClock
	logs  *logtest.Hook
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	st := store.NewMemStore()
	t.Cleanup(func() { st.Close() })
	return newFixtureWithStore(t, st, opts...)
}

func newFixtureWithStore(t *testing.T, st store.Store, opts ...Option) *fixture {
	t.Helper()
	bank := payment.NewMemBank()
	clock := clockwork.NewFakeClockAt(time.Unix(1700000000, 0))
	log, hook := logtest.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)

	all := append([]Option{WithClock(clock), WithLogger(log)}, opts...)
	l, err := New(context.Background(), st, bank, revshare.Settings{
		Owner:               owner,
		FeeBps:              250,
		MinRevenueThreshold: *u(1000),
	}, all...)
	require.NoError(t, err)
	return &fixture{l: l, bank: bank, clock: clock, logs: hook}
}

func (f *fixture) register(t *testing.T, shares uint64) uint64 {
	t.Helper()
	id, err := f.l.Register(context.Background(), operator, operator, "press-01", "ipfs://meta", u(shares))
	require.NoError(t, err)
	return id
}

// deposit credits custody with amount and reports it as revenue.
func (f *fixture) deposit(t *testing.T, assetID uint64, amount *uint256.Int) uint64 {
	t.Helper()
	require.NoError(t, f.bank.Credit(amount))
	id, err := f.l.DepositRevenue(context.Background(), operator, assetID, amount)
	require.NoError(t, err)
	return id
}

func (f *fixture) transfer(t *testing.T, assetID uint64, from, to revshare.Address, amount uint64) {
	t.Helper()
	require.NoError(t, f.l.TransferShares(context.Background(), from, assetID, to, u(amount)))
}

func (f *fixture) eventKinds(t *testing.T) []revshare.EventKind {
	t.Helper()
	events, err := f.l.Events(context.Background(), 0, 0, 0)
	require.NoError(t, err)
	kinds := make([]revshare.EventKind, 0, len(events))
	for _, e := range events {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}

// ---------------------------------------------------------------------------
// Construction
// ---------------------------------------------------------------------------

func TestNew_ValidatesSettings(t *testing.T) {
	ctx := context.Background()
	bank := payment.NewMemBank()

	_, err := New(ctx, store.NewMemStore(), bank, revshare.Settings{})
	assert.ErrorIs(t, err, ErrInvalidOperator)

	_, err = New(ctx, store.NewMemStore(), bank, revshare.Settings{Owner: owner, FeeBps: 1001})
	assert.ErrorIs(t, err, ErrInvalidFee)

	_, err = New(ctx, store.NewMemStore(), bank, revshare.Settings{Owner: owner}, WithBalanceMode("eager"))
	assert.Error(t, err)
}

func TestNew_StoredSettingsWin(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemStore()
	f := newFixtureWithStore(t, st)
	require.NoError(t, f.l.SetPlatformFee(ctx, owner, 100))

	l2, err := New(ctx, st, f.bank, revshare.Settings{Owner: stranger, FeeBps: 900})
	require.NoError(t, err)
	s, err := l2.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, owner, s.Owner)
	assert.Equal(t, uint16(100), s.FeeBps)
	assert.Equal(t, uint16(DefaultMaxFeeBps), s.MaxFeeBps)
}

// ---------------------------------------------------------------------------
// Asset registry
// ---------------------------------------------------------------------------

func TestRegister(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	id := f.register(t, 1000)
	assert.Equal(t, uint64(1), id)
	assert.Equal(t, uint64(2), f.register(t, 5))

	a, err := f.l.Asset(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, operator, a.Operator)
	assert.Equal(t, "press-01", a.Name)
	assert.True(t, a.Active)
	assert.Equal(t, "1000", a.TotalShares.Dec())
	assert.Equal(t, revshare.ShareTokenAddress(id), a.Token)
	assert.True(t, a.CreatedAt.Equal(f.clock.Now()))

	bal, err := f.l.BalanceOf(ctx, id, operator)
	require.NoError(t, err)
	assert.Equal(t, "1000", bal.Dec())
	supply, err := f.l.TotalSupply(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "1000", supply.Dec())

	events, err := f.l.Events(ctx, id, 0, 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	e := events[0]
	assert.Equal(t, revshare.EventAssetRegistered, e.Kind)
	assert.Equal(t, operator, e.Counterparty)
	assert.Equal(t, "ipfs://meta", e.MetadataRef)
	assert.Equal(t, a.Token, e.Token)
}

func TestRegister_Invalid(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.l.Register(ctx, operator, revshare.ZeroAddress, "x", "", u(10))
	assert.ErrorIs(t, err, ErrInvalidOperator)

	_, err = f.l.Register(ctx, operator, operator, "x", "", u(0))
	assert.ErrorIs(t, err, ErrInvalidShareCount)

	_, err = f.l.Register(ctx, operator, operator, "x", "", nil)
	assert.ErrorIs(t, err, ErrInvalidShareCount)

	assets, err := f.l.Assets(ctx)
	require.NoError(t, err)
	assert.Empty(t, assets)
	// Rejected registrations must not consume ids.
	assert.Equal(t, uint64(1), f.register(t, 1))
}

func TestOperatorOnlyMutations(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := f.register(t, 1000)

	assert.ErrorIs(t, f.l.UpdateMetadata(ctx, stranger, id, "evil"), ErrUnauthorized)
	assert.ErrorIs(t, f.l.SetActive(ctx, stranger, id, false), ErrUnauthorized)
	assert.ErrorIs(t, f.l.TransferOperator(ctx, stranger, id, stranger), ErrUnauthorized)
	assert.ErrorIs(t, f.l.UpdateMetadata(ctx, operator, 99, "x"), ErrNotFound)

	require.NoError(t, f.l.UpdateMetadata(ctx, operator, id, "ipfs://v2"))
	require.NoError(t, f.l.SetActive(ctx, operator, id, false))
	assert.ErrorIs(t, f.l.TransferOperator(ctx, operator, id, revshare.ZeroAddress), ErrInvalidOperator)
	require.NoError(t, f.l.TransferOperator(ctx, operator, id, holderY))

	a, err := f.l.Asset(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "ipfs://v2", a.MetadataRef)
	assert.False(t, a.Active)
	assert.Equal(t, holderY, a.Operator)

	// Operator transfer moves rights, not shares.
	bal, err := f.l.BalanceOf(ctx, id, operator)
	require.NoError(t, err)
	assert.Equal(t, "1000", bal.Dec())
	assert.ErrorIs(t, f.l.UpdateMetadata(ctx, operator, id, "x"), ErrUnauthorized)

	byOp, err := f.l.AssetsByOperator(ctx, holderY)
	require.NoError(t, err)
	require.Len(t, byOp, 1)
	assert.Equal(t, id, byOp[0].ID)

	assert.Equal(t, []revshare.EventKind{
		revshare.EventAssetRegistered,
		revshare.EventMetadataUpdated,
		revshare.EventStatusChanged,
		revshare.EventOperatorTransferred,
	}, f.eventKinds(t))
}

// ---------------------------------------------------------------------------
// Ownership token
// ---------------------------------------------------------------------------

func TestTransferShares(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := f.register(t, 1000)

	f.transfer(t, id, operator, holderX, 300)
	f.transfer(t, id, holderX, holderY, 100)
	f.transfer(t, id, holderY, holderY, 50)

	holders, err := f.l.Holders(ctx, id)
	require.NoError(t, err)
	require.Len(t, holders, 3)
	assert.Equal(t, operator, holders[0].Holder)
	assert.Equal(t, "700", holders[0].Balance.Dec())
	assert.Equal(t, holderX, holders[1].Holder)
	assert.Equal(t, "200", holders[1].Balance.Dec())
	assert.Equal(t, holderY, holders[2].Holder)
	assert.Equal(t, "100", holders[2].Balance.Dec())
	require.NoError(t, f.l.Audit(ctx, id))
}

func TestTransferShares_Errors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := f.register(t, 1000)

	assert.ErrorIs(t, f.l.TransferShares(ctx, holderX, id, holderY, u(1)), ErrInsufficientBalance)
	assert.ErrorIs(t, f.l.TransferShares(ctx, operator, id, revshare.ZeroAddress, u(1)), ErrInvalidRecipient)
	assert.ErrorIs(t, f.l.TransferShares(ctx, operator, id, holderX, u(0)), ErrInvalidAmount)
	assert.ErrorIs(t, f.l.TransferShares(ctx, operator, id, holderX, u(1001)), ErrInsufficientBalance)
	assert.ErrorIs(t, f.l.TransferShares(ctx, operator, 42, holderX, u(1)), ErrNotFound)
}

func TestMintAndBurn(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := f.register(t, 1000)

	err := f.l.mutate(ctx, "burn", func(tx *txn) error {
		a, err := loadAsset(tx, id)
		require.NoError(t, err)
		return f.l.burn(tx, a, operator, u(1001))
	})
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	err = f.l.mutate(ctx, "burn", func(tx *txn) error {
		a, err := loadAsset(tx, id)
		require.NoError(t, err)
		if err := f.l.burn(tx, a, operator, u(400)); err != nil {
			return err
		}
		return f.l.mint(tx, a, holderX, u(100))
	})
	require.NoError(t, err)

	supply, err := f.l.TotalSupply(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "700", supply.Dec())
	holders, err := f.l.Holders(ctx, id)
	require.NoError(t, err)
	require.NoError(t, revshare.ValidateShareConservation(holders, supply))
}

// ---------------------------------------------------------------------------
// Scenarios
// ---------------------------------------------------------------------------

func TestScenarioA_SoleHolderClaimsAll(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := f.register(t, 1000)

	snap := f.deposit(t, id, oneUnit())
	assert.Equal(t, uint64(1), snap)

	s, err := f.l.Snapshot(ctx, id, snap)
	require.NoError(t, err)
	assert.Equal(t, "975000000000000000", s.Distributable.Dec())
	assert.Equal(t, "25000000000000000", s.Fee.Dec())
	assert.Equal(t, "1000", s.TotalShares.Dec())
	assert.Equal(t, "25000000000000000", f.bank.BalanceOf(owner).Dec())

	paid, err := f.l.Claim(ctx, operator, id, snap)
	require.NoError(t, err)
	assert.Equal(t, "975000000000000000", paid.Dec())
	assert.Equal(t, "975000000000000000", f.bank.BalanceOf(operator).Dec())
	assert.True(t, f.bank.Custody().IsZero())

	s, err = f.l.Snapshot(ctx, id, snap)
	require.NoError(t, err)
	assert.True(t, s.Completed)
	require.NoError(t, f.l.Audit(ctx, id))
}

func TestScenarioB_ProportionalClaims(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := f.register(t, 1000)
	f.transfer(t, id, operator, holderX, 300)
	snap := f.deposit(t, id, oneUnit())

	paidX, err := f.l.Claim(ctx, holderX, id, snap)
	require.NoError(t, err)
	assert.Equal(t, "292500000000000000", paidX.Dec())

	paidOp, err := f.l.Claim(ctx, operator, id, snap)
	require.NoError(t, err)
	assert.Equal(t, "682500000000000000", paidOp.Dec())

	for _, who := range []revshare.Address{holderX, operator} {
		_, err := f.l.Claim(ctx, who, id, snap)
		assert.ErrorIs(t, err, ErrAlreadyClaimed)
	}

	s, err := f.l.Snapshot(ctx, id, snap)
	require.NoError(t, err)
	assert.Equal(t, "975000000000000000", s.PaidOut.Dec())
	assert.True(t, s.Completed)
	require.NoError(t, f.l.Audit(ctx, id))
}

func TestScenarioC_NoSharesOwned(t *testing.T) {
	f := newFixture(t)
	id := f.register(t, 1000)
	snap := f.deposit(t, id, oneUnit())

	_, err := f.l.Claim(context.Background(), stranger, id, snap)
	assert.ErrorIs(t, err, ErrNoSharesOwned)
}

func TestScenarioD_DepositGuards(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := f.register(t, 1000)

	_, err := f.l.DepositRevenue(ctx, stranger, id, oneUnit())
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = f.l.DepositRevenue(ctx, operator, id, u(999))
	assert.ErrorIs(t, err, ErrBelowMinimumThreshold)

	_, err = f.l.DepositRevenue(ctx, operator, id, u(0))
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = f.l.DepositRevenue(ctx, operator, 77, oneUnit())
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, f.l.SetActive(ctx, operator, id, false))
	_, err = f.l.DepositRevenue(ctx, operator, id, oneUnit())
	assert.ErrorIs(t, err, ErrAssetInactive)

	snaps, err := f.l.Snapshots(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, snaps)
}

func TestScenarioE_BatchClaimSinglePayout(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := f.register(t, 1000)
	f.transfer(t, id, operator, holderX, 300)

	for want := uint64(1); want <= 3; want++ {
		assert.Equal(t, want, f.deposit(t, id, oneUnit()))
	}
	before := len(f.bank.Transfers())

	res, err := f.l.BatchClaim(ctx, holderX, id, []uint64{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, "877500000000000000", res.Total.Dec())
	require.Len(t, res.Claimed, 3)
	for i, c := range res.Claimed {
		assert.Equal(t, uint64(i+1), c.SnapshotID)
		assert.Equal(t, "292500000000000000", c.Amount.Dec())
	}
	assert.Empty(t, res.Skipped)

	transfers := f.bank.Transfers()
	require.Len(t, transfers, before+1)
	assert.Equal(t, holderX, transfers[len(transfers)-1].To)
	assert.Equal(t, "877500000000000000", transfers[len(transfers)-1].Amount.Dec())

	events, err := f.l.Events(ctx, id, 0, 0)
	require.NoError(t, err)
	claimed := 0
	for _, e := range events {
		if e.Kind == revshare.EventRevenueClaimed {
			claimed++
		}
	}
	assert.Equal(t, 3, claimed)
}

func TestBatchClaim_SkipsAndFailsWhenNothingOwed(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := f.register(t, 1000)
	f.transfer(t, id, operator, holderX, 300)
	f.deposit(t, id, oneUnit())
	f.deposit(t, id, oneUnit())

	_, err := f.l.Claim(ctx, holderX, id, 1)
	require.NoError(t, err)

	res, err := f.l.BatchClaim(ctx, holderX, id, []uint64{1, 2, 2, 9})
	require.NoError(t, err)
	assert.Equal(t, "292500000000000000", res.Total.Dec())
	assert.Equal(t, []uint64{1, 2, 9}, res.Skipped)

	_, err = f.l.BatchClaim(ctx, holderX, id, []uint64{1, 2})
	assert.ErrorIs(t, err, ErrZeroPayout)

	_, err = f.l.BatchClaim(ctx, stranger, id, []uint64{1, 2})
	assert.ErrorIs(t, err, ErrZeroPayout)
}

// ---------------------------------------------------------------------------
// Claim processor edge cases
// ---------------------------------------------------------------------------

func TestClaim_UnknownSnapshot(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := f.register(t, 1000)

	_, err := f.l.Claim(ctx, operator, id, 1)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.l.Claim(ctx, operator, 5, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClaim_ZeroPayoutOnTinyBalance(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := f.register(t, 1_000_000)
	f.transfer(t, id, operator, holderX, 1)
	snap := f.deposit(t, id, u(1000)) // distributable 975

	_, err := f.l.Claim(ctx, holderX, id, snap)
	assert.ErrorIs(t, err, ErrZeroPayout)
}

func TestClaim_TransferFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := f.register(t, 1000)
	snap := f.deposit(t, id, oneUnit())
	eventsBefore := len(f.eventKinds(t))

	f.bank.OnPay = func(context.Context, revshare.Address, *uint256.Int) error {
		return errors.New("recipient offline")
	}
	_, err := f.l.Claim(ctx, operator, id, snap)
	assert.ErrorIs(t, err, ErrTransferFailed)
	assert.True(t, IsPaymentFailure(err))

	s, err := f.l.Snapshot(ctx, id, snap)
	require.NoError(t, err)
	assert.True(t, s.PaidOut.IsZero())
	assert.False(t, s.Completed)
	assert.Len(t, f.eventKinds(t), eventsBefore)

	f.bank.OnPay = nil
	paid, err := f.l.Claim(ctx, operator, id, snap)
	require.NoError(t, err)
	assert.Equal(t, "975000000000000000", paid.Dec())
}

func TestDeposit_FeeTransferFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := f.register(t, 1000)

	f.bank.OnPay = func(_ context.Context, to revshare.Address, _ *uint256.Int) error {
		if to == owner {
			return errors.New("owner wallet closed")
		}
		return nil
	}
	require.NoError(t, f.bank.Credit(oneUnit()))
	_, err := f.l.DepositRevenue(ctx, operator, id, oneUnit())
	assert.ErrorIs(t, err, ErrFeeTransferFailed)
	assert.True(t, IsPaymentFailure(err))

	a, err := f.l.Asset(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), a.LastSnapshotID)
	assert.True(t, a.TotalRevenue.IsZero())
	snaps, err := f.l.Snapshots(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, snaps)

	f.bank.OnPay = nil
	snap, err := f.l.DepositRevenue(ctx, operator, id, oneUnit())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), snap)
}

func TestDeposit_ZeroFeeSkipsTransfer(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.l.SetPlatformFee(ctx, owner, 0))
	id := f.register(t, 1000)
	f.deposit(t, id, oneUnit())

	assert.Empty(t, f.bank.Transfers())
	a, err := f.l.Asset(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, oneUnit().Dec(), a.TotalRevenue.Dec())
	assert.True(t, a.LastRevenueAt.Equal(f.clock.Now()))
}

func TestReentrancyBlocked(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := f.register(t, 1000)
	snap := f.deposit(t, id, oneUnit())

	var nestedClaim, nestedRead error
	f.bank.OnPay = func(ctx context.Context, to revshare.Address, _ *uint256.Int) error {
		_, nestedClaim = f.l.Claim(ctx, to, id, snap)
		_, nestedRead = f.l.Asset(ctx, id)
		return nil
	}

	paid, err := f.l.Claim(ctx, operator, id, snap)
	require.NoError(t, err)
	assert.Equal(t, "975000000000000000", paid.Dec())
	assert.ErrorIs(t, nestedClaim, ErrReentrantCall)
	assert.ErrorIs(t, nestedRead, ErrReentrantCall)
	assert.Equal(t, "975000000000000000", f.bank.BalanceOf(operator).Dec())
}

func TestReentrancyBlocked_DetachedContext(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := f.register(t, 1000)
	snap := f.deposit(t, id, oneUnit())

	var nestedClaim, nestedRead, nestedDeposit error
	f.bank.OnPay = func(_ context.Context, to revshare.Address, _ *uint256.Int) error {
		_, nestedClaim = f.l.Claim(context.Background(), to, id, snap)
		_, nestedRead = f.l.Snapshots(context.Background(), id)
		_, nestedDeposit = f.l.DepositRevenue(context.TODO(), operator, id, oneUnit())
		return nil
	}

	done := make(chan error, 1)
	go func() {
		_, err := f.l.Claim(ctx, operator, id, snap)
		done <- err
	}()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("claim blocked on a nested call")
	}
	assert.ErrorIs(t, nestedClaim, ErrReentrantCall)
	assert.ErrorIs(t, nestedRead, ErrReentrantCall)
	assert.ErrorIs(t, nestedDeposit, ErrReentrantCall)

	// The guard is released once the transfer returns.
	f.bank.OnPay = nil
	_, err := f.l.Claim(ctx, operator, id, snap)
	assert.ErrorIs(t, err, ErrAlreadyClaimed)
}

func TestOutstanding(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	owed, err := f.l.Outstanding(ctx)
	require.NoError(t, err)
	assert.True(t, owed.IsZero())

	a := f.register(t, 1000)
	b := f.register(t, 500)
	snapA := f.deposit(t, a, oneUnit())
	f.deposit(t, b, oneUnit())

	owed, err = f.l.Outstanding(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1950000000000000000", owed.Dec())
	assert.Equal(t, f.bank.Custody().Dec(), owed.Dec())

	_, err = f.l.Claim(ctx, operator, a, snapA)
	require.NoError(t, err)
	owed, err = f.l.Outstanding(ctx)
	require.NoError(t, err)
	assert.Equal(t, "975000000000000000", owed.Dec())
	assert.Equal(t, f.bank.Custody().Dec(), owed.Dec())
}

func TestClaimableSummary_NoSideEffects(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := f.register(t, 1000)
	f.transfer(t, id, operator, holderX, 300)
	for i := 0; i < 3; i++ {
		f.deposit(t, id, oneUnit())
	}
	_, err := f.l.Claim(ctx, holderX, id, 2)
	require.NoError(t, err)
	eventsBefore := len(f.eventKinds(t))

	first, err := f.l.ClaimableSummary(ctx, id, holderX)
	require.NoError(t, err)
	second, err := f.l.ClaimableSummary(ctx, id, holderX)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	assert.Equal(t, []uint64{1, 3}, first.SnapshotIDs)
	assert.Equal(t, "585000000000000000", first.Total.Dec())
	assert.Len(t, f.eventKinds(t), eventsBefore)

	empty, err := f.l.ClaimableSummary(ctx, id, stranger)
	require.NoError(t, err)
	assert.True(t, empty.Total.IsZero())
	assert.Empty(t, empty.SnapshotIDs)

	// Summary must not cache a balance: a later transfer still changes the
	// lazy claim result.
	f.transfer(t, id, holderX, holderY, 300)
	_, err = f.l.Claim(ctx, holderX, id, 1)
	assert.ErrorIs(t, err, ErrNoSharesOwned)
}

// ---------------------------------------------------------------------------
// Balance modes
// ---------------------------------------------------------------------------

func TestLazyMode_UsesBalanceAtClaimTime(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := f.register(t, 1000)
	snap := f.deposit(t, id, oneUnit())

	// Shares move after the deposit; the new holder collects the whole snapshot.
	f.transfer(t, id, operator, holderX, 1000)
	paid, err := f.l.Claim(ctx, holderX, id, snap)
	require.NoError(t, err)
	assert.Equal(t, "975000000000000000", paid.Dec())

	_, err = f.l.Claim(ctx, operator, id, snap)
	assert.ErrorIs(t, err, ErrNoSharesOwned)
}

func TestLazyMode_PayoutCappedAtRemaining(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := f.register(t, 1000)
	snap := f.deposit(t, id, oneUnit())

	_, err := f.l.Claim(ctx, operator, id, snap)
	require.NoError(t, err)
	f.transfer(t, id, operator, holderX, 500)

	_, err = f.l.Claim(ctx, holderX, id, snap)
	assert.ErrorIs(t, err, ErrZeroPayout)
	require.NoError(t, f.l.Audit(ctx, id))
}

func TestCheckpointMode_UsesBalanceAtDeposit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, WithBalanceMode(BalanceCheckpoint))
	assert.Equal(t, BalanceCheckpoint, f.l.Mode())
	id := f.register(t, 1000)
	f.transfer(t, id, operator, holderX, 300)
	snap1 := f.deposit(t, id, oneUnit())

	// Moving shares after snapshot 1 only affects later snapshots.
	f.transfer(t, id, holderX, holderY, 300)
	snap2 := f.deposit(t, id, oneUnit())

	paid, err := f.l.Claim(ctx, holderX, id, snap1)
	require.NoError(t, err)
	assert.Equal(t, "292500000000000000", paid.Dec())
	_, err = f.l.Claim(ctx, holderX, id, snap2)
	assert.ErrorIs(t, err, ErrNoSharesOwned)

	_, err = f.l.Claim(ctx, holderY, id, snap1)
	assert.ErrorIs(t, err, ErrNoSharesOwned)
	paid, err = f.l.Claim(ctx, holderY, id, snap2)
	require.NoError(t, err)
	assert.Equal(t, "292500000000000000", paid.Dec())

	paid, err = f.l.Claim(ctx, operator, id, snap1)
	require.NoError(t, err)
	assert.Equal(t, "682500000000000000", paid.Dec())
	require.NoError(t, f.l.Audit(ctx, id))
}

// ---------------------------------------------------------------------------
// Platform admin
// ---------------------------------------------------------------------------

func TestAdmin_Fee(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	assert.ErrorIs(t, f.l.SetPlatformFee(ctx, stranger, 100), ErrUnauthorized)
	assert.ErrorIs(t, f.l.SetPlatformFee(ctx, owner, 1001), ErrInvalidFee)
	require.NoError(t, f.l.SetPlatformFee(ctx, owner, 1000))

	id := f.register(t, 1000)
	snap := f.deposit(t, id, oneUnit())
	s, err := f.l.Snapshot(ctx, id, snap)
	require.NoError(t, err)
	assert.Equal(t, "100000000000000000", s.Fee.Dec())
	assert.Equal(t, "900000000000000000", s.Distributable.Dec())
}

func TestAdmin_ThresholdAndOwnership(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := f.register(t, 1000)

	assert.ErrorIs(t, f.l.SetMinRevenueThreshold(ctx, stranger, u(1)), ErrUnauthorized)
	require.NoError(t, f.l.SetMinRevenueThreshold(ctx, owner, oneUnit()))
	_, err := f.l.DepositRevenue(ctx, operator, id, u(5000))
	assert.ErrorIs(t, err, ErrBelowMinimumThreshold)

	assert.ErrorIs(t, f.l.TransferPlatformOwnership(ctx, owner, revshare.ZeroAddress), ErrInvalidOperator)
	require.NoError(t, f.l.TransferPlatformOwnership(ctx, owner, holderY))
	assert.ErrorIs(t, f.l.SetPlatformFee(ctx, owner, 1), ErrUnauthorized)

	// Fees now go to the new owner.
	f.deposit(t, id, oneUnit())
	assert.Equal(t, "25000000000000000", f.bank.BalanceOf(holderY).Dec())
	assert.True(t, f.bank.BalanceOf(owner).IsZero())
}

func TestAdmin_Pause(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := f.register(t, 1000)
	snap := f.deposit(t, id, oneUnit())

	assert.ErrorIs(t, f.l.Pause(ctx, stranger), ErrUnauthorized)
	require.NoError(t, f.l.Pause(ctx, owner))
	assert.ErrorIs(t, f.l.Pause(ctx, owner), ErrPaused)

	_, err := f.l.Register(ctx, operator, operator, "x", "", u(1))
	assert.ErrorIs(t, err, ErrPaused)
	assert.ErrorIs(t, f.l.UpdateMetadata(ctx, operator, id, "x"), ErrPaused)
	_, err = f.l.DepositRevenue(ctx, operator, id, oneUnit())
	assert.ErrorIs(t, err, ErrPaused)
	_, err = f.l.Claim(ctx, operator, id, snap)
	assert.ErrorIs(t, err, ErrPaused)
	_, err = f.l.BatchClaim(ctx, operator, id, []uint64{snap})
	assert.ErrorIs(t, err, ErrPaused)

	// Share transfers and reads keep working.
	f.transfer(t, id, operator, holderX, 10)
	_, err = f.l.ClaimableSummary(ctx, id, operator)
	require.NoError(t, err)

	require.NoError(t, f.l.Unpause(ctx, owner))
	assert.ErrorIs(t, f.l.Unpause(ctx, owner), ErrNotPaused)
	_, err = f.l.Claim(ctx, operator, id, snap)
	require.NoError(t, err)
}

// ---------------------------------------------------------------------------
// Reads, events, projection
// ---------------------------------------------------------------------------

func TestProjectDistribution(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := f.register(t, 3)
	f.transfer(t, id, operator, holderX, 1)
	f.transfer(t, id, operator, holderY, 1)

	p, err := f.l.ProjectDistribution(ctx, id, u(1000))
	require.NoError(t, err)
	assert.Equal(t, "25", p.Fee.Dec())
	assert.Equal(t, "975", p.Distributable.Dec())
	require.Len(t, p.Distributions, 3)
	for _, d := range p.Distributions {
		assert.Equal(t, "325", d.Amount.Dec())
	}
	assert.True(t, p.Dust.IsZero())
	require.NoError(t, revshare.ValidateDistribution(p.Distributions, []revshare.Holding{
		{Holder: operator, Balance: *u(1)}, {Holder: holderX, Balance: *u(1)}, {Holder: holderY, Balance: *u(1)},
	}, &p.Distributable, &p.TotalShares))

	snaps, err := f.l.Snapshots(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, snaps)
}

func TestSubscribe_ReceivesCommittedEventsOnly(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	events, cancel := f.l.Subscribe(16)
	defer cancel()

	id := f.register(t, 1000)
	_, err := f.l.DepositRevenue(ctx, stranger, id, oneUnit())
	require.Error(t, err)
	f.deposit(t, id, oneUnit())

	e := <-events
	assert.Equal(t, revshare.EventAssetRegistered, e.Kind)
	e = <-events
	assert.Equal(t, revshare.EventRevenueReported, e.Kind)
	assert.Equal(t, uint64(1), e.SnapshotID)
	assert.Equal(t, uint16(250), e.FeeBps)
	select {
	case extra := <-events:
		t.Fatalf("unexpected event %s", extra.Kind)
	default:
	}

	cancel()
	_, open := <-events
	assert.False(t, open)
}

func TestEventsAreLogged(t *testing.T) {
	f := newFixture(t)
	f.register(t, 1000)

	var found bool
	for _, entry := range f.logs.AllEntries() {
		if entry.Message == string(revshare.EventAssetRegistered) {
			found = true
			assert.Equal(t, uint64(1), entry.Data["asset"])
		}
	}
	assert.True(t, found)
}

func TestEvents_Paging(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := f.register(t, 1000)
	require.NoError(t, f.l.SetPlatformFee(ctx, owner, 300))
	f.deposit(t, id, oneUnit())

	all, err := f.l.Events(ctx, 0, 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, revshare.EventFeeUpdated, all[1].Kind)

	assetOnly, err := f.l.Events(ctx, id, 0, 0)
	require.NoError(t, err)
	assert.Len(t, assetOnly, 2)

	page, err := f.l.Events(ctx, 0, all[0].Seq, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, all[1].Seq, page[0].Seq)
}

// ---------------------------------------------------------------------------
// Invariants
// ---------------------------------------------------------------------------

func TestInvariants_RandomizedHistory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := f.register(t, 997)
	holders := []revshare.Address{operator, holderX, holderY, stranger}

	steps := []struct {
		from, to int
		amount   uint64
	}{
		{0, 1, 331}, {0, 2, 13}, {1, 3, 7}, {2, 1, 13}, {0, 3, 401}, {3, 2, 99},
	}
	for i, step := range steps {
		f.transfer(t, id, holders[step.from], holders[step.to], step.amount)
		snap := f.deposit(t, id, uint256.NewInt(uint64(1_000_003+i*7919)))

		var total uint256.Int
		for _, h := range holders {
			paid, err := f.l.Claim(ctx, h, id, snap)
			if errors.Is(err, ErrNoSharesOwned) || errors.Is(err, ErrZeroPayout) {
				continue
			}
			require.NoError(t, err)
			total.Add(&total, paid)
		}

		s, err := f.l.Snapshot(ctx, id, snap)
		require.NoError(t, err)
		assert.True(t, total.Eq(&s.PaidOut))
		assert.False(t, s.PaidOut.Gt(&s.Distributable))
		require.NoError(t, f.l.Audit(ctx, id))
	}
}

func TestBoltBackedLedger(t *testing.T) {
	ctx := context.Background()
	st, err := store.OpenBoltStore(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	f := newFixtureWithStore(t, st, WithBalanceMode(BalanceCheckpoint))

	id := f.register(t, 1000)
	f.transfer(t, id, operator, holderX, 300)
	snap := f.deposit(t, id, oneUnit())

	f.bank.OnPay = func(context.Context, revshare.Address, *uint256.Int) error { return errors.New("down") }
	_, err = f.l.Claim(ctx, holderX, id, snap)
	assert.ErrorIs(t, err, ErrTransferFailed)
	f.bank.OnPay = nil

	paid, err := f.l.Claim(ctx, holderX, id, snap)
	require.NoError(t, err)
	assert.Equal(t, "292500000000000000", paid.Dec())
	_, err = f.l.Claim(ctx, holderX, id, snap)
	assert.ErrorIs(t, err, ErrAlreadyClaimed)
	require.NoError(t, f.l.Audit(ctx, id))
}
