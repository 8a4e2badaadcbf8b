package store

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/holiman/uint256"

	"github.com/bitfsorg/revledger-go/revshare"
)

type holderKey struct {
	asset  uint64
	holder revshare.Address
}

type snapshotKey struct {
	asset uint64
	id    uint64
}

type claimKey struct {
	asset    uint64
	snapshot uint64
	claimant revshare.Address
}

// memState holds records by value so that reads hand out copies.
type memState struct {
	settings    *revshare.Settings
	lastAssetID uint64
	lastSeq     uint64
	assets      map[uint64]revshare.Asset
	supply      map[uint64]uint256.Int
	balances    map[holderKey]uint256.Int
	checkpoints map[holderKey][]revshare.Checkpoint
	snapshots   map[snapshotKey]revshare.Snapshot
	claims      map[claimKey]revshare.ClaimRecord
	events      []revshare.Event
}

func newMemState() *memState {
	return &memState{
		assets:      make(map[uint64]revshare.Asset),
		supply:      make(map[uint64]uint256.Int),
		balances:    make(map[holderKey]uint256.Int),
		checkpoints: make(map[holderKey][]revshare.Checkpoint),
		snapshots:   make(map[snapshotKey]revshare.Snapshot),
		claims:      make(map[claimKey]revshare.ClaimRecord),
	}
}

// MemStore is an in-memory implementation of Store for tests and
// single-process deployments. Update writes to the live state under the
// write lock and keeps an undo log that is replayed if the callback fails,
// so the cost of an Update is proportional to what it writes.
type MemStore struct {
	mu     sync.RWMutex
	state  *memState
	closed bool
}

// Compile-time interface check.
var _ Store = (*MemStore)(nil)

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{state: newMemState()}
}

// View runs fn against the current state.
func (s *MemStore) View(_ context.Context, fn func(Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return fn(&memTx{state: s.state, readOnly: true})
}

// Update runs fn against the live state and undoes its writes unless fn
// returns nil.
func (s *MemStore) Update(_ context.Context, fn func(Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	tx := &memTx{state: s.state}
	committed := false
	defer func() {
		if !committed {
			tx.rollback()
		}
	}()
	if err := fn(tx); err != nil {
		return err
	}
	committed = true
	return nil
}

// Close marks the store closed.
func (s *MemStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

type memTx struct {
	state    *memState
	readOnly bool
	undo     []func()
}

func (t *memTx) rollback() {
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
}

// saveEntry records how to restore m[k] to its current state.
func saveEntry[K comparable, V any](t *memTx, m map[K]V, k K) {
	prev, ok := m[k]
	t.undo = append(t.undo, func() {
		if ok {
			m[k] = prev
		} else {
			delete(m, k)
		}
	})
}

func (t *memTx) writable() error {
	if t.readOnly {
		return ErrReadOnly
	}
	return nil
}

func (t *memTx) Settings() (*revshare.Settings, error) {
	if t.state.settings == nil {
		return nil, fmt.Errorf("%w: settings", ErrNotFound)
	}
	s := *t.state.settings
	return &s, nil
}

func (t *memTx) PutSettings(s *revshare.Settings) error {
	if err := t.writable(); err != nil {
		return err
	}
	if s == nil {
		return fmt.Errorf("%w: settings", ErrNilParam)
	}
	prev := t.state.settings
	t.undo = append(t.undo, func() { t.state.settings = prev })
	c := *s
	t.state.settings = &c
	return nil
}

func (t *memTx) NextAssetID() (uint64, error) {
	if err := t.writable(); err != nil {
		return 0, err
	}
	prev := t.state.lastAssetID
	t.undo = append(t.undo, func() { t.state.lastAssetID = prev })
	t.state.lastAssetID++
	return t.state.lastAssetID, nil
}

func (t *memTx) Asset(id uint64) (*revshare.Asset, error) {
	a, ok := t.state.assets[id]
	if !ok {
		return nil, fmt.Errorf("%w: asset %d", ErrNotFound, id)
	}
	return &a, nil
}

func (t *memTx) PutAsset(a *revshare.Asset) error {
	if err := t.writable(); err != nil {
		return err
	}
	if a == nil {
		return fmt.Errorf("%w: asset", ErrNilParam)
	}
	saveEntry(t, t.state.assets, a.ID)
	t.state.assets[a.ID] = *a
	return nil
}

func (t *memTx) Assets() ([]*revshare.Asset, error) {
	result := make([]*revshare.Asset, 0, len(t.state.assets))
	for _, a := range t.state.assets {
		a := a
		result = append(result, &a)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (t *memTx) Supply(assetID uint64) (*uint256.Int, error) {
	v := t.state.supply[assetID]
	return &v, nil
}

func (t *memTx) PutSupply(assetID uint64, supply *uint256.Int) error {
	if err := t.writable(); err != nil {
		return err
	}
	saveEntry(t, t.state.supply, assetID)
	t.state.supply[assetID] = *supply
	return nil
}

func (t *memTx) Balance(assetID uint64, holder revshare.Address) (*uint256.Int, error) {
	v := t.state.balances[holderKey{assetID, holder}]
	return &v, nil
}

func (t *memTx) PutBalance(assetID uint64, holder revshare.Address, balance *uint256.Int) error {
	if err := t.writable(); err != nil {
		return err
	}
	key := holderKey{assetID, holder}
	saveEntry(t, t.state.balances, key)
	if balance.IsZero() {
		delete(t.state.balances, key)
		return nil
	}
	t.state.balances[key] = *balance
	return nil
}

func (t *memTx) Holdings(assetID uint64) ([]revshare.Holding, error) {
	var result []revshare.Holding
	for k, v := range t.state.balances {
		if k.asset == assetID {
			result = append(result, revshare.Holding{Holder: k.holder, Balance: v})
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return bytes.Compare(result[i].Holder[:], result[j].Holder[:]) < 0
	})
	return result, nil
}

func (t *memTx) Checkpoints(assetID uint64, holder revshare.Address) ([]revshare.Checkpoint, error) {
	return append([]revshare.Checkpoint(nil), t.state.checkpoints[holderKey{assetID, holder}]...), nil
}

func (t *memTx) PutCheckpoint(assetID uint64, holder revshare.Address, cp revshare.Checkpoint) error {
	if err := t.writable(); err != nil {
		return err
	}
	key := holderKey{assetID, holder}
	saveEntry(t, t.state.checkpoints, key)
	cps := append([]revshare.Checkpoint(nil), t.state.checkpoints[key]...)
	if n := len(cps); n > 0 && cps[n-1].Epoch == cp.Epoch {
		cps[n-1] = cp
	} else {
		cps = append(cps, cp)
		sort.Slice(cps, func(i, j int) bool { return cps[i].Epoch < cps[j].Epoch })
	}
	t.state.checkpoints[key] = cps
	return nil
}

func (t *memTx) Snapshot(assetID, snapshotID uint64) (*revshare.Snapshot, error) {
	s, ok := t.state.snapshots[snapshotKey{assetID, snapshotID}]
	if !ok {
		return nil, fmt.Errorf("%w: snapshot %d/%d", ErrNotFound, assetID, snapshotID)
	}
	return &s, nil
}

func (t *memTx) PutSnapshot(s *revshare.Snapshot) error {
	if err := t.writable(); err != nil {
		return err
	}
	if s == nil {
		return fmt.Errorf("%w: snapshot", ErrNilParam)
	}
	key := snapshotKey{s.AssetID, s.ID}
	saveEntry(t, t.state.snapshots, key)
	t.state.snapshots[key] = *s
	return nil
}

func (t *memTx) Snapshots(assetID uint64) ([]*revshare.Snapshot, error) {
	var result []*revshare.Snapshot
	for k, v := range t.state.snapshots {
		if k.asset == assetID {
			v := v
			result = append(result, &v)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (t *memTx) Claim(assetID, snapshotID uint64, claimant revshare.Address) (*revshare.ClaimRecord, error) {
	c, ok := t.state.claims[claimKey{assetID, snapshotID, claimant}]
	if !ok {
		return nil, fmt.Errorf("%w: claim %d/%d/%s", ErrNotFound, assetID, snapshotID, claimant)
	}
	return &c, nil
}

func (t *memTx) PutClaim(c *revshare.ClaimRecord) error {
	if err := t.writable(); err != nil {
		return err
	}
	if c == nil {
		return fmt.Errorf("%w: claim", ErrNilParam)
	}
	key := claimKey{c.AssetID, c.SnapshotID, c.Claimant}
	saveEntry(t, t.state.claims, key)
	t.state.claims[key] = *c
	return nil
}

func (t *memTx) AppendEvent(e *revshare.Event) error {
	if err := t.writable(); err != nil {
		return err
	}
	if e == nil {
		return fmt.Errorf("%w: event", ErrNilParam)
	}
	prevSeq, prevLen := t.state.lastSeq, len(t.state.events)
	t.undo = append(t.undo, func() {
		t.state.lastSeq = prevSeq
		t.state.events = t.state.events[:prevLen]
	})
	t.state.lastSeq++
	e.Seq = t.state.lastSeq
	t.state.events = append(t.state.events, *e)
	return nil
}

func (t *memTx) Events(assetID, after uint64, limit int) ([]*revshare.Event, error) {
	var result []*revshare.Event
	for i := range t.state.events {
		e := t.state.events[i]
		if e.Seq <= after || (assetID != 0 && e.AssetID != assetID) {
			continue
		}
		result = append(result, &e)
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result, nil
}
