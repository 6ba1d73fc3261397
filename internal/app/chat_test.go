package app

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"wut/internal/crypto"
	"wut/internal/domain"
	"wut/internal/services/message"
	"wut/internal/transport/memory"
)

// screen is a Display that records every line, including DM sink output
// prefixed the way the terminal shows it.
type screen struct {
	mu    sync.Mutex
	lines []string
	raw   bytes.Buffer
}

func (s *screen) Log(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = append(s.lines, line)
}

func (s *screen) DirectSink(peer domain.PeerID, profile domain.PeerProfile, known bool) domain.Sink {
	label := peer.String()
	if known {
		label = profile.Handle
	}
	return sinkFunc(func(line string) { s.Log(fmt.Sprintf("[dm %s] %s", label, line)) })
}

func (s *screen) Writer() io.Writer {
	return writerFunc(func(p []byte) (int, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.raw.Write(p)
	})
}

func (s *screen) has(line string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.lines {
		if l == line {
			return true
		}
	}
	return false
}

func (s *screen) hasPrefix(prefix string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.lines {
		if strings.HasPrefix(l, prefix) {
			return true
		}
	}
	return false
}

func (s *screen) rawLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.raw.Len()
}

type sinkFunc func(string)

func (f sinkFunc) Log(line string) { f(line) }

type writerFunc func([]byte) (int, error)

func (f writerFunc) Write(p []byte) (int, error) { return f(p) }

type client struct {
	screen *screen
	input  chan string
	done   chan error
}

func startClient(ctx context.Context, t *testing.T, conn domain.Transport, handle string) *client {
	t.Helper()
	kp, err := crypto.GenerateIdentity()
	require.NoError(t, err)
	c := &client{screen: &screen{}, input: make(chan string), done: make(chan error, 1)}
	chat := NewChat(ChatConfig{
		Transport:   conn,
		Keys:        kp,
		Profile:     message.Profile{Handle: handle, Bio: "testing"},
		Display:     c.screen,
		Input:       c.input,
		PeerRefresh: 20 * time.Millisecond,
		Log:         zerolog.Nop(),
	})
	go func() { c.done <- chat.Run(ctx) }()
	return c
}

func (c *client) waitFor(t *testing.T, line string) {
	t.Helper()
	require.Eventually(t, func() bool { return c.screen.has(line) }, 5*time.Second, 5*time.Millisecond, "waiting for %q", line)
}

func TestChatDirectMessageBetweenClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := memory.NewHub()
	aliceConn := hub.Join("peerA")
	bobConn := hub.Join("peerB")

	alice := startClient(ctx, t, aliceConn, "alice")
	bob := startClient(ctx, t, bobConn, "bob")

	alice.waitFor(t, "*** Profile broadcast: peerB is now bob")
	bob.waitFor(t, "*** Profile broadcast: peerA is now alice")

	alice.input <- "/dm bob hello"
	bob.waitFor(t, "[dm alice] alice: hello")
	alice.waitFor(t, "[dm bob] alice: hello")

	bob.input <- "/dm peerA hi back"
	alice.waitFor(t, "[dm bob] bob: hi back")

	alice.input <- "/quit"
	require.NoError(t, <-alice.done)
}

func TestChatLobbyCommands(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := memory.NewHub()
	aliceConn := hub.Join("peerA")
	bobConn := hub.Join("peerB")

	alice := startClient(ctx, t, aliceConn, "alice")
	bob := startClient(ctx, t, bobConn, "bob")
	bob.waitFor(t, "*** Profile broadcast: peerA is now alice")

	alice.input <- "good morning"
	bob.waitFor(t, "peerA: good morning")
	alice.waitFor(t, "alice: good morning")

	alice.input <- "/broadcast server restart at noon"
	bob.waitFor(t, "*** Broadcast: peerA: server restart at noon")

	alice.input <- "/handle ally"
	alice.waitFor(t, "*** Handle is now ally")
	bob.waitFor(t, "*** Profile broadcast: peerA is now ally")

	alice.input <- "/dm carol hi"
	alice.waitFor(t, "*** wut: Unknown peer carol; try /refresh")

	alice.input <- "/dance"
	alice.waitFor(t, `*** wut: Unknown command /dance. Type "/help" for help`)

	alice.waitFor(t, "*** Profile broadcast: peerB is now bob")
	alice.input <- "/profiles"
	require.Eventually(t, func() bool { return alice.screen.hasPrefix("*** bob (peerB) [") }, 5*time.Second, 5*time.Millisecond)

	alice.input <- "/whoami"
	require.Eventually(t, func() bool { return alice.screen.rawLen() > 0 }, 5*time.Second, 5*time.Millisecond)

	close(alice.input)
	require.NoError(t, <-alice.done)
}

func TestChatJoinLeaveAndPeerList(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := memory.NewHub()
	aliceConn := hub.Join("peerA")
	alice := startClient(ctx, t, aliceConn, "")

	alice.waitFor(t, "*** Peers: nobody else is here")
	alice.waitFor(t, "Peer id: peerA")

	bobConn := hub.Join("peerB")
	alice.waitFor(t, "Peer joined the room: peerB")
	alice.waitFor(t, "*** Peers (1): peerB")

	require.NoError(t, bobConn.Close())
	alice.waitFor(t, "Peer left: peerB")

	cancel()
	require.NoError(t, <-alice.done)
}

func TestChatStopsWhenTransportCloses(t *testing.T) {
	hub := memory.NewHub()
	conn := hub.Join("peerA")
	c := startClient(context.Background(), t, conn, "alice")
	c.waitFor(t, "*** Peers: nobody else is here")

	require.NoError(t, conn.Close())
	require.ErrorIs(t, <-c.done, ErrTransportClosed)
}

// movingConn is a transport that loses its membership and comes back under
// a new id, the way the relay client does after an idle reap.
type movingConn struct {
	mu     sync.Mutex
	cur    *memory.Conn
	events chan domain.TransportEvent
}

func newMovingConn(c *memory.Conn) *movingConn {
	m := &movingConn{cur: c, events: make(chan domain.TransportEvent, 64)}
	go m.forward(c)
	return m
}

func (m *movingConn) forward(c *memory.Conn) {
	for ev := range c.Events() {
		m.events <- ev
	}
}

func (m *movingConn) conn() *memory.Conn {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cur
}

func (m *movingConn) moveTo(c *memory.Conn) error {
	old := m.conn()
	m.mu.Lock()
	m.cur = c
	m.mu.Unlock()
	go m.forward(c)
	m.events <- domain.TransportEvent{Kind: domain.EventJoin, From: c.Self()}
	return old.Close()
}

func (m *movingConn) Self() domain.PeerID { return m.conn().Self() }

func (m *movingConn) Broadcast(ctx context.Context, data string) error {
	return m.conn().Broadcast(ctx, data)
}

func (m *movingConn) SendTo(ctx context.Context, to domain.PeerID, data string) error {
	return m.conn().SendTo(ctx, to, data)
}

func (m *movingConn) Peers(ctx context.Context) ([]domain.PeerID, error) {
	return m.conn().Peers(ctx)
}

func (m *movingConn) Events() <-chan domain.TransportEvent { return m.events }

func TestChatReannouncesAfterRejoin(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := memory.NewHub()
	aliceConn := newMovingConn(hub.Join("peerA"))
	bobConn := hub.Join("peerB")

	alice := startClient(ctx, t, aliceConn, "alice")
	bob := startClient(ctx, t, bobConn, "bob")
	bob.waitFor(t, "*** Profile broadcast: peerA is now alice")

	require.NoError(t, aliceConn.moveTo(hub.Join("peerA2")))

	alice.waitFor(t, "*** Rejoined the room as peerA2")
	bob.waitFor(t, "*** Profile broadcast: peerA2 is now alice")
	require.False(t, alice.screen.has("Peer joined the room: peerA2"))

	// Bob seals to the key announced under the new id.
	alice.input <- "/dm bob still here"
	bob.waitFor(t, "[dm alice] alice: still here")

	cancel()
	require.NoError(t, <-alice.done)
}
