package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/holiman/uint256"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/bitfsorg/revledger-go/revshare"
)

// schema creates the ledger tables. Amounts are NUMERIC(78,0), wide enough
// for any 256-bit value; addresses are 20-byte BYTEA.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS revledger_counters (
		name  VARCHAR(32) PRIMARY KEY,
		value BIGINT NOT NULL
	)`,
	`INSERT INTO revledger_counters (name, value) VALUES ('asset', 0), ('event', 0)
		ON CONFLICT (name) DO NOTHING`,
	`CREATE TABLE IF NOT EXISTS revledger_settings (
		id          INT PRIMARY KEY,
		owner       BYTEA NOT NULL,
		fee_bps     INT NOT NULL,
		max_fee_bps INT NOT NULL,
		min_revenue NUMERIC(78,0) NOT NULL,
		paused      BOOLEAN NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS revledger_assets (
		id               BIGINT PRIMARY KEY,
		operator         BYTEA NOT NULL,
		name             TEXT NOT NULL,
		metadata_ref     TEXT NOT NULL,
		token            BYTEA NOT NULL,
		total_shares     NUMERIC(78,0) NOT NULL,
		total_revenue    NUMERIC(78,0) NOT NULL,
		last_revenue_at  TIMESTAMPTZ NOT NULL,
		last_snapshot_id BIGINT NOT NULL,
		active           BOOLEAN NOT NULL,
		created_at       TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS revledger_supply (
		asset_id BIGINT PRIMARY KEY,
		supply   NUMERIC(78,0) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS revledger_balances (
		asset_id BIGINT NOT NULL,
		holder   BYTEA NOT NULL,
		balance  NUMERIC(78,0) NOT NULL,
		PRIMARY KEY (asset_id, holder)
	)`,
	`CREATE TABLE IF NOT EXISTS revledger_checkpoints (
		asset_id BIGINT NOT NULL,
		holder   BYTEA NOT NULL,
		epoch    BIGINT NOT NULL,
		balance  NUMERIC(78,0) NOT NULL,
		PRIMARY KEY (asset_id, holder, epoch)
	)`,
	`CREATE TABLE IF NOT EXISTS revledger_snapshots (
		asset_id      BIGINT NOT NULL,
		id            BIGINT NOT NULL,
		total_shares  NUMERIC(78,0) NOT NULL,
		gross         NUMERIC(78,0) NOT NULL,
		fee           NUMERIC(78,0) NOT NULL,
		distributable NUMERIC(78,0) NOT NULL,
		paid_out      NUMERIC(78,0) NOT NULL,
		completed     BOOLEAN NOT NULL,
		depositor     BYTEA NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (asset_id, id)
	)`,
	`CREATE TABLE IF NOT EXISTS revledger_claims (
		asset_id       BIGINT NOT NULL,
		snapshot_id    BIGINT NOT NULL,
		claimant       BYTEA NOT NULL,
		claimed        BOOLEAN NOT NULL,
		balance_cached BOOLEAN NOT NULL,
		balance        NUMERIC(78,0) NOT NULL,
		amount         NUMERIC(78,0) NOT NULL,
		claimed_at     TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (asset_id, snapshot_id, claimant)
	)`,
	`CREATE TABLE IF NOT EXISTS revledger_events (
		seq          BIGINT PRIMARY KEY,
		kind         VARCHAR(32) NOT NULL,
		asset_id     BIGINT NOT NULL,
		snapshot_id  BIGINT NOT NULL,
		actor        BYTEA NOT NULL,
		counterparty BYTEA NOT NULL,
		amount       NUMERIC(78,0) NOT NULL,
		name         TEXT NOT NULL,
		metadata_ref TEXT NOT NULL,
		token        BYTEA NOT NULL,
		active       BOOLEAN NOT NULL,
		fee_bps      INT NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_revledger_events_asset ON revledger_events(asset_id, seq)`,
}

// PostgresStore implements Store on PostgreSQL. Each Update is one
// serializable transaction.
type PostgresStore struct {
	db *sqlx.DB
}

// Compile-time interface check.
var _ Store = (*PostgresStore)(nil)

// OpenPostgresStore connects to dsn and creates the schema if needed.
func OpenPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: connect postgres: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	s := NewPostgresStore(db)
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewPostgresStore wraps an existing connection. The schema is not touched.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the ledger tables if they do not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("store: migrate: %w", err)
		}
	}
	return nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error { return s.db.Close() }

// View runs fn in a read-only transaction.
func (s *PostgresStore) View(ctx context.Context, fn func(Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	return fn(&pgTx{ctx: ctx, tx: tx, readOnly: true})
}

// Update runs fn in a serializable transaction and commits if fn succeeds.
func (s *PostgresStore) Update(ctx context.Context, fn func(Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	if err := fn(&pgTx{ctx: ctx, tx: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}
	return nil
}

// pgAmount scans a NUMERIC column into a uint256.
type pgAmount struct {
	v uint256.Int
}

func (a *pgAmount) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		a.v.Clear()
		return nil
	case int64:
		if v < 0 {
			return fmt.Errorf("negative amount %d", v)
		}
		a.v.SetUint64(uint64(v))
		return nil
	case []byte:
		return a.v.SetFromDecimal(string(v))
	case string:
		return a.v.SetFromDecimal(v)
	}
	return fmt.Errorf("unsupported amount type %T", src)
}

// pgAddress scans a BYTEA column into an Address.
type pgAddress revshare.Address

func (a *pgAddress) Scan(src interface{}) error {
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("unsupported address type %T", src)
	}
	if len(b) != revshare.AddressSize {
		return fmt.Errorf("address length %d", len(b))
	}
	copy(a[:], b)
	return nil
}

func addrArg(a revshare.Address) []byte {
	b := make([]byte, revshare.AddressSize)
	copy(b, a[:])
	return b
}

type pgTx struct {
	ctx      context.Context
	tx       *sqlx.Tx
	readOnly bool
}

func (t *pgTx) writable() error {
	if t.readOnly {
		return ErrReadOnly
	}
	return nil
}

func (t *pgTx) exec(query string, args ...interface{}) error {
	if err := t.writable(); err != nil {
		return err
	}
	_, err := t.tx.ExecContext(t.ctx, query, args...)
	return err
}

func (t *pgTx) get(dest interface{}, what, query string, args ...interface{}) error {
	err := t.tx.GetContext(t.ctx, dest, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	return err
}

func (t *pgTx) nextCounter(name string) (uint64, error) {
	if err := t.writable(); err != nil {
		return 0, err
	}
	var v int64
	err := t.tx.QueryRowxContext(t.ctx,
		`UPDATE revledger_counters SET value = value + 1 WHERE name = $1 RETURNING value`, name).Scan(&v)
	if err != nil {
		return 0, fmt.Errorf("next %s id: %w", name, err)
	}
	return uint64(v), nil
}

type settingsRow struct {
	Owner      pgAddress `db:"owner"`
	FeeBps     uint16    `db:"fee_bps"`
	MaxFeeBps  uint16    `db:"max_fee_bps"`
	MinRevenue pgAmount  `db:"min_revenue"`
	Paused     bool      `db:"paused"`
}

func (t *pgTx) Settings() (*revshare.Settings, error) {
	var r settingsRow
	err := t.get(&r, "settings",
		`SELECT owner, fee_bps, max_fee_bps, min_revenue, paused FROM revledger_settings WHERE id = 1`)
	if err != nil {
		return nil, err
	}
	return &revshare.Settings{
		Owner:               revshare.Address(r.Owner),
		FeeBps:              r.FeeBps,
		MaxFeeBps:           r.MaxFeeBps,
		MinRevenueThreshold: r.MinRevenue.v,
		Paused:              r.Paused,
	}, nil
}

func (t *pgTx) PutSettings(s *revshare.Settings) error {
	if s == nil {
		return fmt.Errorf("%w: settings", ErrNilParam)
	}
	return t.exec(`
		INSERT INTO revledger_settings (id, owner, fee_bps, max_fee_bps, min_revenue, paused)
		VALUES (1, $1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET owner = EXCLUDED.owner, fee_bps = EXCLUDED.fee_bps,
			max_fee_bps = EXCLUDED.max_fee_bps, min_revenue = EXCLUDED.min_revenue, paused = EXCLUDED.paused`,
		addrArg(s.Owner), int(s.FeeBps), int(s.MaxFeeBps), s.MinRevenueThreshold.Dec(), s.Paused)
}

func (t *pgTx) NextAssetID() (uint64, error) { return t.nextCounter("asset") }

type assetRow struct {
	ID             int64     `db:"id"`
	Operator       pgAddress `db:"operator"`
	Name           string    `db:"name"`
	MetadataRef    string    `db:"metadata_ref"`
	Token          pgAddress `db:"token"`
	TotalShares    pgAmount  `db:"total_shares"`
	TotalRevenue   pgAmount  `db:"total_revenue"`
	LastRevenueAt  time.Time `db:"last_revenue_at"`
	LastSnapshotID int64     `db:"last_snapshot_id"`
	Active         bool      `db:"active"`
	CreatedAt      time.Time `db:"created_at"`
}

func (r *assetRow) asset() *revshare.Asset {
	return &revshare.Asset{
		ID:             uint64(r.ID),
		Operator:       revshare.Address(r.Operator),
		Name:           r.Name,
		MetadataRef:    r.MetadataRef,
		Token:          revshare.Address(r.Token),
		TotalShares:    r.TotalShares.v,
		TotalRevenue:   r.TotalRevenue.v,
		LastRevenueAt:  r.LastRevenueAt,
		LastSnapshotID: uint64(r.LastSnapshotID),
		Active:         r.Active,
		CreatedAt:      r.CreatedAt,
	}
}

const assetColumns = `id, operator, name, metadata_ref, token, total_shares, total_revenue,
	last_revenue_at, last_snapshot_id, active, created_at`

func (t *pgTx) Asset(id uint64) (*revshare.Asset, error) {
	var r assetRow
	err := t.get(&r, fmt.Sprintf("asset %d", id),
		`SELECT `+assetColumns+` FROM revledger_assets WHERE id = $1`, int64(id))
	if err != nil {
		return nil, err
	}
	return r.asset(), nil
}

func (t *pgTx) PutAsset(a *revshare.Asset) error {
	if a == nil {
		return fmt.Errorf("%w: asset", ErrNilParam)
	}
	return t.exec(`
		INSERT INTO revledger_assets (`+assetColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET operator = EXCLUDED.operator, name = EXCLUDED.name,
			metadata_ref = EXCLUDED.metadata_ref, total_revenue = EXCLUDED.total_revenue,
			last_revenue_at = EXCLUDED.last_revenue_at, last_snapshot_id = EXCLUDED.last_snapshot_id,
			active = EXCLUDED.active`,
		int64(a.ID), addrArg(a.Operator), a.Name, a.MetadataRef, addrArg(a.Token),
		a.TotalShares.Dec(), a.TotalRevenue.Dec(), a.LastRevenueAt, int64(a.LastSnapshotID),
		a.Active, a.CreatedAt)
}

func (t *pgTx) Assets() ([]*revshare.Asset, error) {
	var rows []assetRow
	if err := t.tx.SelectContext(t.ctx, &rows,
		`SELECT `+assetColumns+` FROM revledger_assets ORDER BY id`); err != nil {
		return nil, err
	}
	result := make([]*revshare.Asset, 0, len(rows))
	for i := range rows {
		result = append(result, rows[i].asset())
	}
	return result, nil
}

func (t *pgTx) Supply(assetID uint64) (*uint256.Int, error) {
	var a pgAmount
	err := t.tx.GetContext(t.ctx, &a, `SELECT supply FROM revledger_supply WHERE asset_id = $1`, int64(assetID))
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	return &a.v, nil
}

func (t *pgTx) PutSupply(assetID uint64, supply *uint256.Int) error {
	return t.exec(`
		INSERT INTO revledger_supply (asset_id, supply) VALUES ($1, $2)
		ON CONFLICT (asset_id) DO UPDATE SET supply = EXCLUDED.supply`,
		int64(assetID), supply.Dec())
}

func (t *pgTx) Balance(assetID uint64, holder revshare.Address) (*uint256.Int, error) {
	var a pgAmount
	err := t.tx.GetContext(t.ctx, &a,
		`SELECT balance FROM revledger_balances WHERE asset_id = $1 AND holder = $2`,
		int64(assetID), addrArg(holder))
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	return &a.v, nil
}

func (t *pgTx) PutBalance(assetID uint64, holder revshare.Address, balance *uint256.Int) error {
	if balance.IsZero() {
		return t.exec(`DELETE FROM revledger_balances WHERE asset_id = $1 AND holder = $2`,
			int64(assetID), addrArg(holder))
	}
	return t.exec(`
		INSERT INTO revledger_balances (asset_id, holder, balance) VALUES ($1, $2, $3)
		ON CONFLICT (asset_id, holder) DO UPDATE SET balance = EXCLUDED.balance`,
		int64(assetID), addrArg(holder), balance.Dec())
}

type holdingRow struct {
	Holder  pgAddress `db:"holder"`
	Balance pgAmount  `db:"balance"`
}

func (t *pgTx) Holdings(assetID uint64) ([]revshare.Holding, error) {
	var rows []holdingRow
	if err := t.tx.SelectContext(t.ctx, &rows,
		`SELECT holder, balance FROM revledger_balances WHERE asset_id = $1 ORDER BY holder`,
		int64(assetID)); err != nil {
		return nil, err
	}
	result := make([]revshare.Holding, 0, len(rows))
	for _, r := range rows {
		result = append(result, revshare.Holding{Holder: revshare.Address(r.Holder), Balance: r.Balance.v})
	}
	return result, nil
}

type checkpointRow struct {
	Epoch   int64    `db:"epoch"`
	Balance pgAmount `db:"balance"`
}

func (t *pgTx) Checkpoints(assetID uint64, holder revshare.Address) ([]revshare.Checkpoint, error) {
	var rows []checkpointRow
	if err := t.tx.SelectContext(t.ctx, &rows, `
		SELECT epoch, balance FROM revledger_checkpoints
		WHERE asset_id = $1 AND holder = $2 ORDER BY epoch`,
		int64(assetID), addrArg(holder)); err != nil {
		return nil, err
	}
	result := make([]revshare.Checkpoint, 0, len(rows))
	for _, r := range rows {
		result = append(result, revshare.Checkpoint{Epoch: uint64(r.Epoch), Balance: r.Balance.v})
	}
	return result, nil
}

func (t *pgTx) PutCheckpoint(assetID uint64, holder revshare.Address, cp revshare.Checkpoint) error {
	return t.exec(`
		INSERT INTO revledger_checkpoints (asset_id, holder, epoch, balance) VALUES ($1, $2, $3, $4)
		ON CONFLICT (asset_id, holder, epoch) DO UPDATE SET balance = EXCLUDED.balance`,
		int64(assetID), addrArg(holder), int64(cp.Epoch), cp.Balance.Dec())
}

type snapshotRow struct {
	AssetID       int64     `db:"asset_id"`
	ID            int64     `db:"id"`
	TotalShares   pgAmount  `db:"total_shares"`
	Gross         pgAmount  `db:"gross"`
	Fee           pgAmount  `db:"fee"`
	Distributable pgAmount  `db:"distributable"`
	PaidOut       pgAmount  `db:"paid_out"`
	Completed     bool      `db:"completed"`
	Depositor     pgAddress `db:"depositor"`
	CreatedAt     time.Time `db:"created_at"`
}

func (r *snapshotRow) snapshot() *revshare.Snapshot {
	return &revshare.Snapshot{
		AssetID:       uint64(r.AssetID),
		ID:            uint64(r.ID),
		TotalShares:   r.TotalShares.v,
		Gross:         r.Gross.v,
		Fee:           r.Fee.v,
		Distributable: r.Distributable.v,
		PaidOut:       r.PaidOut.v,
		Completed:     r.Completed,
		Depositor:     revshare.Address(r.Depositor),
		CreatedAt:     r.CreatedAt,
	}
}

const snapshotColumns = `asset_id, id, total_shares, gross, fee, distributable, paid_out,
	completed, depositor, created_at`

func (t *pgTx) Snapshot(assetID, snapshotID uint64) (*revshare.Snapshot, error) {
	var r snapshotRow
	err := t.get(&r, fmt.Sprintf("snapshot %d/%d", assetID, snapshotID),
		`SELECT `+snapshotColumns+` FROM revledger_snapshots WHERE asset_id = $1 AND id = $2`,
		int64(assetID), int64(snapshotID))
	if err != nil {
		return nil, err
	}
	return r.snapshot(), nil
}

func (t *pgTx) PutSnapshot(s *revshare.Snapshot) error {
	if s == nil {
		return fmt.Errorf("%w: snapshot", ErrNilParam)
	}
	return t.exec(`
		INSERT INTO revledger_snapshots (`+snapshotColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (asset_id, id) DO UPDATE SET paid_out = EXCLUDED.paid_out, completed = EXCLUDED.completed`,
		int64(s.AssetID), int64(s.ID), s.TotalShares.Dec(), s.Gross.Dec(), s.Fee.Dec(),
		s.Distributable.Dec(), s.PaidOut.Dec(), s.Completed, addrArg(s.Depositor), s.CreatedAt)
}

func (t *pgTx) Snapshots(assetID uint64) ([]*revshare.Snapshot, error) {
	var rows []snapshotRow
	if err := t.tx.SelectContext(t.ctx, &rows,
		`SELECT `+snapshotColumns+` FROM revledger_snapshots WHERE asset_id = $1 ORDER BY id`,
		int64(assetID)); err != nil {
		return nil, err
	}
	result := make([]*revshare.Snapshot, 0, len(rows))
	for i := range rows {
		result = append(result, rows[i].snapshot())
	}
	return result, nil
}

type claimRow struct {
	AssetID       int64     `db:"asset_id"`
	SnapshotID    int64     `db:"snapshot_id"`
	Claimant      pgAddress `db:"claimant"`
	Claimed       bool      `db:"claimed"`
	BalanceCached bool      `db:"balance_cached"`
	Balance       pgAmount  `db:"balance"`
	Amount        pgAmount  `db:"amount"`
	ClaimedAt     time.Time `db:"claimed_at"`
}

const claimColumns = `asset_id, snapshot_id, claimant, claimed, balance_cached, balance, amount, claimed_at`

func (t *pgTx) Claim(assetID, snapshotID uint64, claimant revshare.Address) (*revshare.ClaimRecord, error) {
	var r claimRow
	err := t.get(&r, fmt.Sprintf("claim %d/%d/%s", assetID, snapshotID, claimant), `
		SELECT `+claimColumns+` FROM revledger_claims
		WHERE asset_id = $1 AND snapshot_id = $2 AND claimant = $3`,
		int64(assetID), int64(snapshotID), addrArg(claimant))
	if err != nil {
		return nil, err
	}
	return &revshare.ClaimRecord{
		AssetID:       uint64(r.AssetID),
		SnapshotID:    uint64(r.SnapshotID),
		Claimant:      revshare.Address(r.Claimant),
		Claimed:       r.Claimed,
		BalanceCached: r.BalanceCached,
		Balance:       r.Balance.v,
		Amount:        r.Amount.v,
		ClaimedAt:     r.ClaimedAt,
	}, nil
}

func (t *pgTx) PutClaim(c *revshare.ClaimRecord) error {
	if c == nil {
		return fmt.Errorf("%w: claim", ErrNilParam)
	}
	return t.exec(`
		INSERT INTO revledger_claims (`+claimColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (asset_id, snapshot_id, claimant) DO UPDATE SET claimed = EXCLUDED.claimed,
			balance_cached = EXCLUDED.balance_cached, balance = EXCLUDED.balance,
			amount = EXCLUDED.amount, claimed_at = EXCLUDED.claimed_at`,
		int64(c.AssetID), int64(c.SnapshotID), addrArg(c.Claimant), c.Claimed, c.BalanceCached,
		c.Balance.Dec(), c.Amount.Dec(), c.ClaimedAt)
}

type eventRow struct {
	Seq          int64     `db:"seq"`
	Kind         string    `db:"kind"`
	AssetID      int64     `db:"asset_id"`
	SnapshotID   int64     `db:"snapshot_id"`
	Actor        pgAddress `db:"actor"`
	Counterparty pgAddress `db:"counterparty"`
	Amount       pgAmount  `db:"amount"`
	Name         string    `db:"name"`
	MetadataRef  string    `db:"metadata_ref"`
	Token        pgAddress `db:"token"`
	Active       bool      `db:"active"`
	FeeBps       uint16    `db:"fee_bps"`
	CreatedAt    time.Time `db:"created_at"`
}

const eventColumns = `seq, kind, asset_id, snapshot_id, actor, counterparty, amount, name,
	metadata_ref, token, active, fee_bps, created_at`

func (t *pgTx) AppendEvent(e *revshare.Event) error {
	if e == nil {
		return fmt.Errorf("%w: event", ErrNilParam)
	}
	seq, err := t.nextCounter("event")
	if err != nil {
		return err
	}
	e.Seq = seq
	return t.exec(`
		INSERT INTO revledger_events (`+eventColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		int64(e.Seq), string(e.Kind), int64(e.AssetID), int64(e.SnapshotID), addrArg(e.Actor),
		addrArg(e.Counterparty), e.Amount.Dec(), e.Name, e.MetadataRef, addrArg(e.Token),
		e.Active, int(e.FeeBps), e.Time)
}

func (t *pgTx) Events(assetID, after uint64, limit int) ([]*revshare.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM revledger_events WHERE seq > $1`
	args := []interface{}{int64(after)}
	if assetID != 0 {
		args = append(args, int64(assetID))
		query += fmt.Sprintf(" AND asset_id = $%d", len(args))
	}
	query += " ORDER BY seq"
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	var rows []eventRow
	if err := t.tx.SelectContext(t.ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	result := make([]*revshare.Event, 0, len(rows))
	for _, r := range rows {
		result = append(result, &revshare.Event{
			Seq:          uint64(r.Seq),
			Kind:         revshare.EventKind(r.Kind),
			AssetID:      uint64(r.AssetID),
			SnapshotID:   uint64(r.SnapshotID),
			Actor:        revshare.Address(r.Actor),
			Counterparty: revshare.Address(r.Counterparty),
			Amount:       r.Amount.v,
			Name:         r.Name,
			MetadataRef:  r.MetadataRef,
			Token:        revshare.Address(r.Token),
			Active:       r.Active,
			FeeBps:       r.FeeBps,
			Time:         r.CreatedAt,
		})
	}
	return result, nil
}
