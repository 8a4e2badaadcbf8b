package store

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"github.com/holiman/uint256"
	"go.etcd.io/bbolt"

	"github.com/bitfsorg/revledger-go/revshare"
)

var (
	bucketMeta        = []byte("meta")
	bucketAssets      = []byte("assets")
	bucketSupply      = []byte("supply")
	bucketBalances    = []byte("balances")
	bucketCheckpoints = []byte("checkpoints")
	bucketSnapshots   = []byte("snapshots")
	bucketClaims      = []byte("claims")
	bucketEvents      = []byte("events")
	bucketAssetEvents = []byte("asset_events")

	keySettings = []byte("settings")
)

// BoltStore wraps a bbolt database for ledger storage. bbolt allows a
// single writer, so Update calls are serialized by the database itself.
type BoltStore struct {
	db *bbolt.DB
}

// Compile-time interface check.
var _ Store = (*BoltStore)(nil)

// OpenBoltStore opens or creates the bbolt database at dbPath.
// The parent directory is created if it does not exist.
func OpenBoltStore(dbPath string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("store: create directory: %w", err)
	}
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("store: open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{
			bucketMeta, bucketAssets, bucketSupply, bucketBalances, bucketCheckpoints,
			bucketSnapshots, bucketClaims, bucketEvents, bucketAssetEvents,
		} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("boltstore: create bucket %q: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: create buckets: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// Close closes the underlying database.
func (s *BoltStore) Close() error { return s.db.Close() }

// View runs fn in a bbolt read transaction.
func (s *BoltStore) View(_ context.Context, fn func(Tx) error) error {
	return s.db.View(func(tx *bbolt.Tx) error {
		return fn(&boltTx{tx: tx})
	})
}

// Update runs fn in a bbolt read-write transaction; a non-nil error from
// fn rolls the transaction back.
func (s *BoltStore) Update(_ context.Context, fn func(Tx) error) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return fn(&boltTx{tx: tx})
	})
}

// u64Key encodes an id as an 8-byte big-endian key for sorted storage.
func u64Key(v uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, v)
	return k
}

func compositeKey(parts ...[]byte) []byte {
	var buf bytes.Buffer
	for _, p := range parts {
		buf.Write(p)
	}
	return buf.Bytes()
}

func amountBytes(v *uint256.Int) []byte {
	b := v.Bytes32()
	return b[:]
}

func amountFromBytes(b []byte) *uint256.Int {
	return new(uint256.Int).SetBytes(b)
}

// encodeGob serializes a value using gob encoding.
func encodeGob(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decodeGob deserializes gob-encoded data into a value.
func decodeGob(data []byte, v interface{}) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}

type boltTx struct {
	tx *bbolt.Tx
}

func (t *boltTx) bucket(name []byte) *bbolt.Bucket { return t.tx.Bucket(name) }

func (t *boltTx) writable() error {
	if !t.tx.Writable() {
		return ErrReadOnly
	}
	return nil
}

func (t *boltTx) put(bucket, key []byte, v interface{}) error {
	if err := t.writable(); err != nil {
		return err
	}
	data, err := encodeGob(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", bucket, err)
	}
	return t.bucket(bucket).Put(key, data)
}

func (t *boltTx) get(bucket, key []byte, v interface{}, what string) error {
	data := t.bucket(bucket).Get(key)
	if data == nil {
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	if err := decodeGob(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", what, err)
	}
	return nil
}

func (t *boltTx) Settings() (*revshare.Settings, error) {
	var s revshare.Settings
	if err := t.get(bucketMeta, keySettings, &s, "settings"); err != nil {
		return nil, err
	}
	return &s, nil
}

func (t *boltTx) PutSettings(s *revshare.Settings) error {
	if s == nil {
		return fmt.Errorf("%w: settings", ErrNilParam)
	}
	return t.put(bucketMeta, keySettings, s)
}

// NextAssetID uses the assets bucket sequence, which rolls back with the transaction.
func (t *boltTx) NextAssetID() (uint64, error) {
	if err := t.writable(); err != nil {
		return 0, err
	}
	return t.bucket(bucketAssets).NextSequence()
}

func (t *boltTx) Asset(id uint64) (*revshare.Asset, error) {
	var a revshare.Asset
	if err := t.get(bucketAssets, u64Key(id), &a, fmt.Sprintf("asset %d", id)); err != nil {
		return nil, err
	}
	return &a, nil
}

func (t *boltTx) PutAsset(a *revshare.Asset) error {
	if a == nil {
		return fmt.Errorf("%w: asset", ErrNilParam)
	}
	return t.put(bucketAssets, u64Key(a.ID), a)
}

func (t *boltTx) Assets() ([]*revshare.Asset, error) {
	var result []*revshare.Asset
	err := t.bucket(bucketAssets).ForEach(func(k, v []byte) error {
		var a revshare.Asset
		if err := decodeGob(v, &a); err != nil {
			return fmt.Errorf("decode asset: %w", err)
		}
		result = append(result, &a)
		return nil
	})
	return result, err
}

func (t *boltTx) Supply(assetID uint64) (*uint256.Int, error) {
	return amountFromBytes(t.bucket(bucketSupply).Get(u64Key(assetID))), nil
}

func (t *boltTx) PutSupply(assetID uint64, supply *uint256.Int) error {
	if err := t.writable(); err != nil {
		return err
	}
	return t.bucket(bucketSupply).Put(u64Key(assetID), amountBytes(supply))
}

func (t *boltTx) Balance(assetID uint64, holder revshare.Address) (*uint256.Int, error) {
	return amountFromBytes(t.bucket(bucketBalances).Get(compositeKey(u64Key(assetID), holder[:]))), nil
}

func (t *boltTx) PutBalance(assetID uint64, holder revshare.Address, balance *uint256.Int) error {
	if err := t.writable(); err != nil {
		return err
	}
	key := compositeKey(u64Key(assetID), holder[:])
	if balance.IsZero() {
		return t.bucket(bucketBalances).Delete(key)
	}
	return t.bucket(bucketBalances).Put(key, amountBytes(balance))
}

func (t *boltTx) Holdings(assetID uint64) ([]revshare.Holding, error) {
	prefix := u64Key(assetID)
	var result []revshare.Holding
	c := t.bucket(bucketBalances).Cursor()
	for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
		var h revshare.Holding
		copy(h.Holder[:], k[len(prefix):])
		h.Balance = *amountFromBytes(v)
		result = append(result, h)
	}
	return result, nil
}

func (t *boltTx) Checkpoints(assetID uint64, holder revshare.Address) ([]revshare.Checkpoint, error) {
	prefix := compositeKey(u64Key(assetID), holder[:])
	var result []revshare.Checkpoint
	c := t.bucket(bucketCheckpoints).Cursor()
	for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
		result = append(result, revshare.Checkpoint{
			Epoch:   binary.BigEndian.Uint64(k[len(prefix):]),
			Balance: *amountFromBytes(v),
		})
	}
	return result, nil
}

func (t *boltTx) PutCheckpoint(assetID uint64, holder revshare.Address, cp revshare.Checkpoint) error {
	if err := t.writable(); err != nil {
		return err
	}
	key := compositeKey(u64Key(assetID), holder[:], u64Key(cp.Epoch))
	return t.bucket(bucketCheckpoints).Put(key, amountBytes(&cp.Balance))
}

func (t *boltTx) Snapshot(assetID, snapshotID uint64) (*revshare.Snapshot, error) {
	var s revshare.Snapshot
	key := compositeKey(u64Key(assetID), u64Key(snapshotID))
	if err := t.get(bucketSnapshots, key, &s, fmt.Sprintf("snapshot %d/%d", assetID, snapshotID)); err != nil {
		return nil, err
	}
	return &s, nil
}

func (t *boltTx) PutSnapshot(s *revshare.Snapshot) error {
	if s == nil {
		return fmt.Errorf("%w: snapshot", ErrNilParam)
	}
	return t.put(bucketSnapshots, compositeKey(u64Key(s.AssetID), u64Key(s.ID)), s)
}

func (t *boltTx) Snapshots(assetID uint64) ([]*revshare.Snapshot, error) {
	prefix := u64Key(assetID)
	var result []*revshare.Snapshot
	c := t.bucket(bucketSnapshots).Cursor()
	for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
		var s revshare.Snapshot
		if err := decodeGob(v, &s); err != nil {
			return nil, fmt.Errorf("decode snapshot: %w", err)
		}
		result = append(result, &s)
	}
	return result, nil
}

func claimKeyBytes(assetID, snapshotID uint64, claimant revshare.Address) []byte {
	return compositeKey(u64Key(assetID), u64Key(snapshotID), claimant[:])
}

func (t *boltTx) Claim(assetID, snapshotID uint64, claimant revshare.Address) (*revshare.ClaimRecord, error) {
	var c revshare.ClaimRecord
	what := fmt.Sprintf("claim %d/%d/%s", assetID, snapshotID, claimant)
	if err := t.get(bucketClaims, claimKeyBytes(assetID, snapshotID, claimant), &c, what); err != nil {
		return nil, err
	}
	return &c, nil
}

func (t *boltTx) PutClaim(c *revshare.ClaimRecord) error {
	if c == nil {
		return fmt.Errorf("%w: claim", ErrNilParam)
	}
	return t.put(bucketClaims, claimKeyBytes(c.AssetID, c.SnapshotID, c.Claimant), c)
}

func (t *boltTx) AppendEvent(e *revshare.Event) error {
	if err := t.writable(); err != nil {
		return err
	}
	if e == nil {
		return fmt.Errorf("%w: event", ErrNilParam)
	}
	seq, err := t.bucket(bucketEvents).NextSequence()
	if err != nil {
		return fmt.Errorf("event sequence: %w", err)
	}
	e.Seq = seq
	if err := t.put(bucketEvents, u64Key(seq), e); err != nil {
		return err
	}
	if e.AssetID != 0 {
		return t.bucket(bucketAssetEvents).Put(compositeKey(u64Key(e.AssetID), u64Key(seq)), []byte{})
	}
	return nil
}

func (t *boltTx) Events(assetID, after uint64, limit int) ([]*revshare.Event, error) {
	var result []*revshare.Event
	full := func() bool { return limit > 0 && len(result) >= limit }

	if assetID == 0 {
		c := t.bucket(bucketEvents).Cursor()
		for k, v := c.Seek(u64Key(after + 1)); k != nil && !full(); k, v = c.Next() {
			var e revshare.Event
			if err := decodeGob(v, &e); err != nil {
				return nil, fmt.Errorf("decode event: %w", err)
			}
			result = append(result, &e)
		}
		return result, nil
	}

	prefix := u64Key(assetID)
	events := t.bucket(bucketEvents)
	c := t.bucket(bucketAssetEvents).Cursor()
	for k, _ := c.Seek(compositeKey(prefix, u64Key(after+1))); k != nil && bytes.HasPrefix(k, prefix) && !full(); k, _ = c.Next() {
		var e revshare.Event
		if err := decodeGob(events.Get(k[len(prefix):]), &e); err != nil {
			return nil, fmt.Errorf("decode event: %w", err)
		}
		result = append(result, &e)
	}
	return result, nil
}
