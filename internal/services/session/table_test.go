package session_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"wut/internal/domain"
	"wut/internal/services/session"
)

type recordingSink struct{ lines []string }

func (s *recordingSink) Log(line string) { s.lines = append(s.lines, line) }

type countingFactory struct {
	opened []domain.PeerID
	known  []bool
}

func (f *countingFactory) DirectSink(peer domain.PeerID, _ domain.PeerProfile, known bool) domain.Sink {
	f.opened = append(f.opened, peer)
	f.known = append(f.known, known)
	return &recordingSink{}
}

func TestOpen_LazyAndReused(t *testing.T) {
	f := &countingFactory{}
	tbl := session.New(f)

	_, ok := tbl.Lookup("peerA")
	require.False(t, ok)

	first := tbl.Open("peerA", domain.PeerProfile{ID: "peerA", Handle: "alice"}, true)
	second := tbl.Open("peerA", domain.PeerProfile{}, false)
	require.Same(t, first, second)
	require.Equal(t, []domain.PeerID{"peerA"}, f.opened)

	sink, ok := tbl.Lookup("peerA")
	require.True(t, ok)
	require.Same(t, first, sink)
}

func TestOpen_UnknownProfileStillCreatesSession(t *testing.T) {
	f := &countingFactory{}
	tbl := session.New(f)

	tbl.Open("ghost", domain.PeerProfile{}, false)
	s, ok := tbl.Get("ghost")
	require.True(t, ok)
	require.Equal(t, domain.PeerID("ghost"), s.PeerID)
	require.Equal(t, []bool{false}, f.known)
}

func TestPeers_Sorted(t *testing.T) {
	tbl := session.New(&countingFactory{})
	tbl.Open("b", domain.PeerProfile{}, false)
	tbl.Open("a", domain.PeerProfile{}, false)
	require.Equal(t, []domain.PeerID{"a", "b"}, tbl.Peers())
	require.Equal(t, 2, tbl.Len())
}
