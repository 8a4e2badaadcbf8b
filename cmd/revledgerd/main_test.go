package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/holiman/uint256"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitfsorg/revledger-go/config"
	"github.com/bitfsorg/revledger-go/ledger"
	"github.com/bitfsorg/revledger-go/revshare"
)

func TestParseSnapshotIDs(t *testing.T) {
	ids, err := parseSnapshotIDs([]string{"1,2", " 3 ", "4,"})
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2, 3, 4}, ids)

	_, err = parseSnapshotIDs([]string{"1,x"})
	assert.Error(t, err)
	_, err = parseSnapshotIDs([]string{","})
	assert.Error(t, err)
}

func TestParseAmount(t *testing.T) {
	v, err := parseAmount("amount", "115792089237316195423570985008687907853269984665640564039457584007913129639935")
	require.NoError(t, err)
	assert.Equal(t, 256, v.BitLen())

	_, err = parseAmount("amount", "-1")
	assert.ErrorContains(t, err, "--amount")
}

func TestOpenStore(t *testing.T) {
	log, _ := logtest.NewNullLogger()
	ctx := context.Background()

	c := config.DefaultConfig()
	c.Store = config.StoreMemory
	st, err := openStore(ctx, c, log)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	c.Store = config.StoreBolt
	c.DataDir = filepath.Join(t.TempDir(), "nested")
	st, err = openStore(ctx, c, log)
	require.NoError(t, err)
	require.NoError(t, st.Close())
	_, err = os.Stat(filepath.Join(c.DataDir, boltFileName))
	assert.NoError(t, err)

	c.Store = "sqlite"
	_, err = openStore(ctx, c, log)
	assert.ErrorIs(t, err, config.ErrInvalidStoreType)
}

func TestOpenLedger_RestoresCustodyAfterRestart(t *testing.T) {
	log, _ := logtest.NewNullLogger()
	ctx := context.Background()

	var operator revshare.Address
	operator[0] = 0x01
	c := config.DefaultConfig()
	c.Store = config.StoreBolt
	c.DataDir = t.TempDir()
	c.Platform.Owner = "0x" + strings.Repeat("0f", 20)

	st, err := openStore(ctx, c, log)
	require.NoError(t, err)
	l, bank, err := openLedger(ctx, c, st, log)
	require.NoError(t, err)
	assert.True(t, bank.Custody().IsZero())

	id, err := l.Register(ctx, operator, operator, "press-01", "", uint256.NewInt(1000))
	require.NoError(t, err)
	amount := uint256.NewInt(1_000_000_000_000_000_000)
	require.NoError(t, bank.Credit(amount))
	snap, err := l.DepositRevenue(ctx, operator, id, amount)
	require.NoError(t, err)
	owed := bank.Custody().Dec()
	require.NoError(t, st.Close())

	st, err = openStore(ctx, c, log)
	require.NoError(t, err)
	defer st.Close()
	l, bank, err = openLedger(ctx, c, st, log)
	require.NoError(t, err)
	assert.Equal(t, owed, bank.Custody().Dec())

	paid, err := l.Claim(ctx, operator, id, snap)
	require.NoError(t, err)
	assert.Equal(t, owed, paid.Dec())
	assert.True(t, bank.Custody().IsZero())

	_, err = l.Claim(ctx, operator, id, snap)
	assert.ErrorIs(t, err, ledger.ErrAlreadyClaimed)
}
