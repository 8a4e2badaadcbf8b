package resolve

import (
	"encoding/hex"
	"errors"
	"net"
	"testing"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitfsorg/revledger-go/revshare"
)

type mockDNS struct {
	txt   map[string][]string
	err   error
	names []string
}

func (m *mockDNS) LookupTXT(name string) ([]string, error) {
	m.names = append(m.names, name)
	if m.err != nil {
		return nil, m.err
	}
	return m.txt[name], nil
}

func testKey(t *testing.T) *ec.PublicKey {
	t.Helper()
	priv, err := ec.NewPrivateKey()
	require.NoError(t, err)
	return priv.PubKey()
}

func TestSplitHandle(t *testing.T) {
	tests := []struct {
		in     string
		alias  string
		domain string
		ok     bool
	}{
		{"alice@example.com", "alice", "example.com", true},
		{"Alice@Example.COM.", "alice", "example.com", true},
		{"alice", "", "", false},
		{"@example.com", "", "", false},
		{"alice@", "", "", false},
		{"a.b@example.com", "", "", false},
		{"a@b@c", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			alias, domain, err := SplitHandle(tt.in)
			if !tt.ok {
				assert.ErrorIs(t, err, ErrInvalidHandle)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.alias, alias)
			assert.Equal(t, tt.domain, domain)
		})
	}
}

func TestResolve_Alias(t *testing.T) {
	pub := testKey(t)
	m := &mockDNS{txt: map[string][]string{
		"alice._revledger.example.com": {"v=spf1 -all", " " + FormatRecord(pub) + " "},
	}}

	id, err := New(m).Resolve("alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, revshare.AddressFromPubKey(pub), id.Address)
	assert.Equal(t, pub.Compressed(), id.PubKey.Compressed())
	assert.Equal(t, "alice@example.com", id.Handle)
	assert.Equal(t, []string{"alice._revledger.example.com"}, m.names)
}

func TestResolve_AliasErrors(t *testing.T) {
	pub := testKey(t)
	name := "bob._revledger.example.com"

	tests := []struct {
		name string
		dns  *mockDNS
		want error
	}{
		{"lookup error", &mockDNS{err: errors.New("timeout")}, ErrDNSLookupFailed},
		{"no record", &mockDNS{txt: map[string][]string{name: {"hello"}}}, ErrNoRecord},
		{"short key", &mockDNS{txt: map[string][]string{name: {RecordPrefix + "02abcd"}}}, ErrInvalidPubKey},
		{"bad prefix", &mockDNS{txt: map[string][]string{name: {RecordPrefix + "04" + hex.EncodeToString(pub.Compressed()[1:])}}}, ErrInvalidPubKey},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.dns).Resolve("bob@example.com")
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestResolve_DirectForms(t *testing.T) {
	pub := testKey(t)
	want := revshare.AddressFromPubKey(pub)
	m := &mockDNS{}
	r := New(m)

	id, err := r.Resolve(hex.EncodeToString(pub.Compressed()))
	require.NoError(t, err)
	assert.Equal(t, want, id.Address)
	assert.NotNil(t, id.PubKey)

	id, err = r.Resolve(want.String())
	require.NoError(t, err)
	assert.Equal(t, want, id.Address)
	assert.Nil(t, id.PubKey)

	_, err = r.Resolve("not-a-handle")
	assert.ErrorIs(t, err, ErrInvalidHandle)

	assert.Empty(t, m.names, "direct forms must not hit DNS")
}

func TestNew_DefaultResolver(t *testing.T) {
	assert.Equal(t, DefaultDNSResolver, New(nil).DNS)
}

// --- DNSSEC resolver against a local server ---

func startDNSServer(t *testing.T, authenticated bool, records map[string][]string) string {
	t.Helper()
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)

	mux := dns.NewServeMux()
	mux.HandleFunc(".", func(w dns.ResponseWriter, req *dns.Msg) {
		m := new(dns.Msg)
		m.SetReply(req)
		m.AuthenticatedData = authenticated
		q := req.Question[0]
		txts, ok := records[q.Name]
		if !ok {
			m.Rcode = dns.RcodeNameError
		}
		for _, txt := range txts {
			m.Answer = append(m.Answer, &dns.TXT{
				Hdr: dns.RR_Header{Name: q.Name, Rrtype: dns.TypeTXT, Class: dns.ClassINET, Ttl: 60},
				Txt: []string{txt[:len(txt)/2], txt[len(txt)/2:]},
			})
		}
		_ = w.WriteMsg(m)
	})

	started := make(chan struct{})
	srv := &dns.Server{PacketConn: pc, Handler: mux, NotifyStartedFunc: func() { close(started) }}
	go func() { _ = srv.ActivateAndServe() }()
	<-started
	t.Cleanup(func() { _ = srv.Shutdown() })
	return pc.LocalAddr().String()
}

func TestNewDNSSECResolver_Defaults(t *testing.T) {
	assert.Equal(t, DefaultUpstream, NewDNSSECResolver("").Upstream)
	assert.Equal(t, "1.1.1.1:53", NewDNSSECResolver("1.1.1.1:53").Upstream)
}

func TestDNSSECResolver_Authenticated(t *testing.T) {
	pub := testKey(t)
	upstream := startDNSServer(t, true, map[string][]string{
		"carol._revledger.example.org.": {FormatRecord(pub)},
	})

	id, err := New(NewDNSSECResolver(upstream)).Resolve("carol@example.org")
	require.NoError(t, err)
	assert.Equal(t, revshare.AddressFromPubKey(pub), id.Address)

	_, err = NewDNSSECResolver(upstream).LookupTXT("missing.example.org")
	assert.ErrorIs(t, err, ErrDNSLookupFailed)
}

func TestDNSSECResolver_Unauthenticated(t *testing.T) {
	upstream := startDNSServer(t, false, map[string][]string{
		"carol._revledger.example.org.": {"revledger=00"},
	})

	_, err := NewDNSSECResolver(upstream).LookupTXT("carol._revledger.example.org")
	assert.ErrorIs(t, err, ErrDNSSECValidationFailed)

	_, err = New(NewDNSSECResolver(upstream)).Resolve("carol@example.org")
	assert.ErrorIs(t, err, ErrDNSSECValidationFailed)
}
