package payment

import (
	"context"
	"errors"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitfsorg/revledger-go/revshare"
)

func addr(seed byte) revshare.Address {
	var a revshare.Address
	for i := range a {
		a[i] = seed
	}
	return a
}

func TestMemBank_CreditAndPay(t *testing.T) {
	b := NewMemBank()
	require.NoError(t, b.Credit(uint256.NewInt(1000)))
	require.NoError(t, b.Pay(context.Background(), addr(0xAA), uint256.NewInt(300)))
	require.NoError(t, b.Pay(context.Background(), addr(0xAA), uint256.NewInt(200)))

	assert.Equal(t, "500", b.Custody().Dec())
	assert.Equal(t, "500", b.BalanceOf(addr(0xAA)).Dec())
	assert.True(t, b.BalanceOf(addr(0xBB)).IsZero())
	assert.Len(t, b.Transfers(), 2)
}

func TestMemBank_InsufficientFunds(t *testing.T) {
	b := NewMemBank()
	require.NoError(t, b.Credit(uint256.NewInt(10)))
	err := b.Pay(context.Background(), addr(0xAA), uint256.NewInt(11))
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Equal(t, "10", b.Custody().Dec())
	assert.Empty(t, b.Transfers())
}

func TestMemBank_ZeroRecipient(t *testing.T) {
	b := NewMemBank()
	require.NoError(t, b.Credit(uint256.NewInt(10)))
	assert.ErrorIs(t, b.Pay(context.Background(), revshare.ZeroAddress, uint256.NewInt(1)), ErrZeroRecipient)
}

func TestMemBank_OnPayRejects(t *testing.T) {
	b := NewMemBank()
	require.NoError(t, b.Credit(uint256.NewInt(10)))
	refuse := errors.New("refused")
	b.OnPay = func(context.Context, revshare.Address, *uint256.Int) error { return refuse }

	err := b.Pay(context.Background(), addr(0xAA), uint256.NewInt(5))
	assert.ErrorIs(t, err, ErrRejected)
	assert.ErrorIs(t, err, refuse)
	assert.Equal(t, "10", b.Custody().Dec())
}

func TestMemBank_CreditOverflow(t *testing.T) {
	b := NewMemBank()
	require.NoError(t, b.Credit(new(uint256.Int).SetAllOne()))
	assert.ErrorIs(t, b.Credit(uint256.NewInt(1)), ErrOverflow)
}

func TestPayerFunc(t *testing.T) {
	var got revshare.Address
	var p Payer = PayerFunc(func(_ context.Context, to revshare.Address, _ *uint256.Int) error {
		got = to
		return nil
	})
	require.NoError(t, p.Pay(context.Background(), addr(0x01), uint256.NewInt(1)))
	assert.Equal(t, addr(0x01), got)
}

func TestMemBank_Debit(t *testing.T) {
	b := NewMemBank()
	require.NoError(t, b.Credit(uint256.NewInt(100)))
	require.NoError(t, b.Debit(uint256.NewInt(40)))
	assert.Equal(t, "60", b.Custody().Dec())

	assert.ErrorIs(t, b.Debit(uint256.NewInt(61)), ErrInsufficientFunds)
	assert.Equal(t, "60", b.Custody().Dec())
	assert.Empty(t, b.Transfers())
}
