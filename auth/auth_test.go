package auth

import (
	"net/http"
	"testing"
	"time"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitfsorg/revledger-go/revshare"
)

var epoch = time.Unix(1700000000, 0)

func newKey(t *testing.T) *ec.PrivateKey {
	t.Helper()
	priv, err := ec.NewPrivateKey()
	require.NoError(t, err)
	return priv
}

func TestDigest(t *testing.T) {
	body := []byte(`{"amount":"10"}`)
	d := Digest("post", "/v1/assets", 42, "n1", body)
	assert.Len(t, d, 32)
	assert.Equal(t, d, Digest("POST", "/v1/assets", 42, "n1", body), "method is case-insensitive")

	assert.NotEqual(t, d, Digest("POST", "/v1/assets?x=1", 42, "n1", body))
	assert.NotEqual(t, d, Digest("POST", "/v1/assets", 43, "n1", body))
	assert.NotEqual(t, d, Digest("POST", "/v1/assets", 42, "n2", body))
	assert.NotEqual(t, d, Digest("POST", "/v1/assets", 42, "n1", []byte(`{"amount":"11"}`)))
	assert.NotEqual(t, d, Digest("PUT", "/v1/assets", 42, "n1", body))
}

func TestSignVerify(t *testing.T) {
	priv := newKey(t)
	body := []byte(`{"shares":"100"}`)
	h, err := Sign(priv, http.MethodPost, "/v1/assets", epoch.Unix(), body)
	require.NoError(t, err)

	v := NewVerifier(clockwork.NewFakeClockAt(epoch.Add(time.Minute)), 0)
	assert.Equal(t, DefaultMaxSkew, v.MaxSkew)

	addr, err := v.Verify(h, http.MethodPost, "/v1/assets", body)
	require.NoError(t, err)
	assert.Equal(t, revshare.AddressFromPubKey(priv.PubKey()), addr)
}

func TestVerify_Rejects(t *testing.T) {
	priv := newKey(t)
	body := []byte("payload")
	v := NewVerifier(clockwork.NewFakeClockAt(epoch), 30*time.Second)

	sign := func(ts int64) *Headers {
		h, err := Sign(priv, http.MethodPost, "/v1/claim", ts, body)
		require.NoError(t, err)
		return h
	}

	t.Run("tampered body", func(t *testing.T) {
		_, err := v.Verify(sign(epoch.Unix()), http.MethodPost, "/v1/claim", []byte("other"))
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})
	t.Run("other path", func(t *testing.T) {
		_, err := v.Verify(sign(epoch.Unix()), http.MethodPost, "/v1/batch-claim", body)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})
	t.Run("foreign key", func(t *testing.T) {
		h := sign(epoch.Unix())
		h.PubKey = newKey(t).PubKey().Compressed()
		_, err := v.Verify(h, http.MethodPost, "/v1/claim", body)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})
	t.Run("garbage signature", func(t *testing.T) {
		h := sign(epoch.Unix())
		h.Signature = []byte{0x30, 0x01}
		_, err := v.Verify(h, http.MethodPost, "/v1/claim", body)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})
	t.Run("too old", func(t *testing.T) {
		_, err := v.Verify(sign(epoch.Unix()-31), http.MethodPost, "/v1/claim", body)
		assert.ErrorIs(t, err, ErrStaleRequest)
	})
	t.Run("too far ahead", func(t *testing.T) {
		_, err := v.Verify(sign(epoch.Unix()+31), http.MethodPost, "/v1/claim", body)
		assert.ErrorIs(t, err, ErrStaleRequest)
	})
	t.Run("edge of window", func(t *testing.T) {
		_, err := v.Verify(sign(epoch.Unix()-30), http.MethodPost, "/v1/claim", body)
		assert.NoError(t, err)
	})
	t.Run("uncompressed key", func(t *testing.T) {
		h := sign(epoch.Unix())
		h.PubKey = append([]byte{0x04}, make([]byte, 64)...)
		_, err := v.Verify(h, http.MethodPost, "/v1/claim", body)
		assert.ErrorIs(t, err, ErrInvalidPubKey)
	})
	t.Run("missing nonce", func(t *testing.T) {
		h := sign(epoch.Unix())
		h.Nonce = ""
		_, err := v.Verify(h, http.MethodPost, "/v1/claim", body)
		assert.ErrorIs(t, err, ErrMissingHeaders)
	})
	t.Run("swapped nonce", func(t *testing.T) {
		h := sign(epoch.Unix())
		h.Nonce = "other"
		_, err := v.Verify(h, http.MethodPost, "/v1/claim", body)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})
	t.Run("nil headers", func(t *testing.T) {
		_, err := v.Verify(nil, http.MethodPost, "/v1/claim", body)
		assert.ErrorIs(t, err, ErrMissingHeaders)
	})
}

func TestSign_NilKey(t *testing.T) {
	_, err := Sign(nil, http.MethodGet, "/", 0, nil)
	assert.ErrorIs(t, err, ErrNilKey)
}

func TestHeaders_ApplyParse(t *testing.T) {
	h, err := Sign(newKey(t), http.MethodGet, "/v1/settings", epoch.Unix(), nil)
	require.NoError(t, err)

	hdr := http.Header{}
	h.Apply(hdr)
	assert.Len(t, hdr.Get(HeaderPubKey), 66)

	parsed, err := ParseHeaders(hdr)
	require.NoError(t, err)
	assert.Equal(t, h, parsed)
}

func TestParseHeaders_Missing(t *testing.T) {
	full := http.Header{}
	h, err := Sign(newKey(t), http.MethodGet, "/", epoch.Unix(), nil)
	require.NoError(t, err)
	h.Apply(full)

	for _, name := range []string{HeaderPubKey, HeaderTimestamp, HeaderNonce, HeaderSignature} {
		t.Run("missing "+name, func(t *testing.T) {
			hdr := full.Clone()
			hdr.Del(name)
			_, err := ParseHeaders(hdr)
			assert.ErrorIs(t, err, ErrMissingHeaders)
		})
		if name == HeaderNonce {
			continue
		}
		t.Run("malformed "+name, func(t *testing.T) {
			hdr := full.Clone()
			hdr.Set(name, "zz")
			_, err := ParseHeaders(hdr)
			assert.ErrorIs(t, err, ErrMissingHeaders)
		})
	}
}

func TestVerify_RejectsReplay(t *testing.T) {
	priv := newKey(t)
	body := []byte(`{"to":"x","amount":"100"}`)
	clock := clockwork.NewFakeClockAt(epoch)
	v := NewVerifier(clock, time.Minute)

	h, err := Sign(priv, http.MethodPost, "/v1/assets/1/transfers", epoch.Unix(), body)
	require.NoError(t, err)
	_, err = v.Verify(h, http.MethodPost, "/v1/assets/1/transfers", body)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err = v.Verify(h, http.MethodPost, "/v1/assets/1/transfers", body)
		assert.ErrorIs(t, err, ErrReplayedRequest)
	}

	again, err := Sign(priv, http.MethodPost, "/v1/assets/1/transfers", epoch.Unix(), body)
	require.NoError(t, err)
	assert.NotEqual(t, h.Nonce, again.Nonce)
	_, err = v.Verify(again, http.MethodPost, "/v1/assets/1/transfers", body)
	assert.NoError(t, err, "same request with a fresh nonce")

	clock.Advance(2 * time.Minute)
	_, err = v.Verify(h, http.MethodPost, "/v1/assets/1/transfers", body)
	assert.ErrorIs(t, err, ErrStaleRequest, "expired entries stay rejected by the skew check")
}

func TestReplayCache_Capacity(t *testing.T) {
	c := NewReplayCache(2)
	key := func(b byte) replayID { return replayID{b} }

	require.NoError(t, c.Observe(key(1), epoch, epoch.Add(time.Minute)))
	require.NoError(t, c.Observe(key(2), epoch, epoch.Add(2*time.Minute)))
	assert.ErrorIs(t, c.Observe(key(3), epoch, epoch.Add(time.Minute)), ErrReplayCacheFull)

	// Once the oldest entry expires its slot is reused.
	later := epoch.Add(90 * time.Second)
	require.NoError(t, c.Observe(key(3), later, later.Add(time.Minute)))
	assert.Equal(t, 2, c.Len())
	assert.ErrorIs(t, c.Observe(key(2), later, later.Add(time.Minute)), ErrReplayedRequest)
}
