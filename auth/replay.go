package auth

import (
	"sync"
	"time"

	bsvhash "github.com/bsv-blockchain/go-sdk/primitives/hash"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultReplayCacheSize bounds the signed requests remembered at once.
const DefaultReplayCacheSize = 1 << 16

type replayID [32]byte

// replayKey binds a digest to the signer so that signature re-encodings
// of the same request map to the same entry.
func replayKey(pubKey, digest []byte) replayID {
	var id replayID
	copy(id[:], bsvhash.Sha256(append(append([]byte(nil), pubKey...), digest...)))
	return id
}

// ReplayCache remembers accepted requests until they could no longer pass
// the timestamp check. It never forgets a live entry: when every slot holds
// one, new requests fail with ErrReplayCacheFull.
type ReplayCache struct {
	mu   sync.Mutex
	size int
	seen *lru.Cache[replayID, time.Time]
}

// NewReplayCache returns a cache holding up to size entries. A
// non-positive size uses DefaultReplayCacheSize.
func NewReplayCache(size int) *ReplayCache {
	if size <= 0 {
		size = DefaultReplayCacheSize
	}
	seen, err := lru.New[replayID, time.Time](size)
	if err != nil {
		panic(err) // size is positive
	}
	return &ReplayCache{size: size, seen: seen}
}

// Observe records id as seen until expires. It fails if id is already
// recorded.
func (r *ReplayCache) Observe(id replayID, now, expires time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if exp, ok := r.seen.Peek(id); ok && !now.After(exp) {
		return ErrReplayedRequest
	}
	for r.seen.Len() >= r.size {
		_, exp, ok := r.seen.GetOldest()
		if !ok {
			break
		}
		if !now.After(exp) {
			return ErrReplayCacheFull
		}
		r.seen.RemoveOldest()
	}
	r.seen.Add(id, expires)
	return nil
}

// Len returns the number of remembered requests.
func (r *ReplayCache) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.seen.Len()
}
