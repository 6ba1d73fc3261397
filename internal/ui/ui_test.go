package ui

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"wut/internal/domain"
)

func TestConsoleLogAndDirectSinks(t *testing.T) {
	var out bytes.Buffer
	c := NewPlainConsole(strings.NewReader(""), &out)

	c.Log("peerA: hi")
	c.DirectSink("peerA", domain.PeerProfile{ID: "peerA", Handle: "alice"}, true).Log("alice: hello")
	c.DirectSink("peerB", domain.PeerProfile{}, false).Log("*** wut: Cannot decrypt message from peerB: unknown sender")

	require.Equal(t,
		"peerA: hi\n"+
			"[dm alice] alice: hello\n"+
			"[dm peerB] *** wut: Cannot decrypt message from peerB: unknown sender\n",
		out.String())
}

func TestConsoleLines(t *testing.T) {
	c := NewPlainConsole(strings.NewReader("/help\nhello there\n"), &bytes.Buffer{})
	var got []string
	for line := range c.Lines() {
		got = append(got, line)
	}
	require.Equal(t, []string{"/help", "hello there"}, got)
}

func TestOpenFallsBackWithoutTerminal(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()

	var out bytes.Buffer
	c, err := Open("> ", r, &out)
	require.NoError(t, err)
	defer c.Close()
	require.Nil(t, c.rl)

	_, err = w.WriteString("/peers\n/quit\n")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	var got []string
	for line := range c.Lines() {
		got = append(got, line)
	}
	require.Equal(t, []string{"/peers", "/quit"}, got)

	c.Log("*** hello")
	require.Contains(t, out.String(), "*** hello")
}

func TestPeerListUpdate(t *testing.T) {
	var p PeerList
	require.True(t, p.Update(nil), "first update always shows")
	require.False(t, p.Update([]domain.PeerID{}))
	require.True(t, p.Update([]domain.PeerID{"b", "a"}))
	require.False(t, p.Update([]domain.PeerID{"a", "b"}))
	require.Equal(t, []domain.PeerID{"a", "b"}, p.Current())
	require.True(t, p.Update([]domain.PeerID{"a"}))
}

func TestFormatPeers(t *testing.T) {
	lookup := func(id domain.PeerID) (domain.PeerProfile, bool) {
		if id == "p1" {
			return domain.PeerProfile{ID: id, Handle: "alice"}, true
		}
		return domain.PeerProfile{}, false
	}
	require.Equal(t, "*** Peers (2): alice (p1), p2", FormatPeers([]domain.PeerID{"p1", "p2"}, lookup))
	require.Equal(t, "*** Peers: nobody else is here", FormatPeers(nil, lookup))
}

func TestWriteQR(t *testing.T) {
	var out bytes.Buffer
	WriteQR(&out, "wut-public-key")
	require.NotZero(t, out.Len())
	require.Greater(t, strings.Count(out.String(), "\n"), 10)
}
