package router_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"wut/internal/codec"
	"wut/internal/crypto"
	"wut/internal/domain"
	"wut/internal/router"
	"wut/internal/services/directory"
	"wut/internal/services/message"
	"wut/internal/services/session"
	"wut/internal/transport/memory"
)

type recordingSink struct{ lines []string }

func (s *recordingSink) Log(line string) { s.lines = append(s.lines, line) }

type sinkFactory struct{ sinks map[domain.PeerID]*recordingSink }

func (f *sinkFactory) DirectSink(peer domain.PeerID, _ domain.PeerProfile, _ bool) domain.Sink {
	s := &recordingSink{}
	f.sinks[peer] = s
	return s
}

type announcer struct {
	to  []domain.PeerID
	err error
}

func (a *announcer) BroadcastProfile(_ context.Context, to domain.PeerID) error {
	a.to = append(a.to, to)
	return a.err
}

type fixture struct {
	keys     domain.KeyPair
	peers    *directory.Directory
	sessions *session.Table
	sinks    *sinkFactory
	lobby    *recordingSink
	announce *announcer
	router   *router.Router
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	kp, err := crypto.GenerateIdentity()
	require.NoError(t, err)
	f := &fixture{
		keys:     kp,
		peers:    directory.New(),
		sinks:    &sinkFactory{sinks: make(map[domain.PeerID]*recordingSink)},
		lobby:    &recordingSink{},
		announce: &announcer{},
	}
	f.sessions = session.New(f.sinks)
	f.router = router.New(kp, f.peers, f.sessions, f.lobby, f.announce, zerolog.Nop())
	return f
}

func profilePayload(t *testing.T, handle, bio string, pub domain.PublicKey) string {
	t.Helper()
	b, err := json.Marshal(domain.ProfileWire{
		MessageType: domain.MessageTypeProfile,
		Handle:      handle,
		Bio:         bio,
		PublicKey:   codec.ToWireObject(pub.Slice()),
	})
	require.NoError(t, err)
	return string(b)
}

func directPayload(t *testing.T, fromHandle string, sealed domain.Sealed) string {
	t.Helper()
	b, err := json.Marshal(domain.DirectWire{
		MessageType: domain.MessageTypeDirect,
		FromHandle:  fromHandle,
		Nonce:       codec.ToWireObject(sealed.Nonce.Slice()),
		Ciphertext:  codec.ToWireObject(sealed.Ciphertext),
	})
	require.NoError(t, err)
	return string(b)
}

func TestRoute_ProfileUpsertsDirectory(t *testing.T) {
	f := newFixture(t)
	alice, err := crypto.GenerateIdentity()
	require.NoError(t, err)

	out := f.router.Route(context.Background(), domain.InboundMessage{
		From: "peerA",
		Data: profilePayload(t, "alice", "hi", alice.Public),
	})
	require.Equal(t, router.OutcomeProfile, out)

	p, ok := f.peers.Lookup("peerA")
	require.True(t, ok)
	require.Equal(t, "alice", p.Handle)
	require.Equal(t, "hi", p.Bio)
	require.Equal(t, alice.Public, p.PublicKey)
	require.Equal(t, []string{"*** Profile broadcast: peerA is now alice"}, f.lobby.lines)
}

func TestRoute_ProfileLastWriterWins(t *testing.T) {
	f := newFixture(t)
	k1, _ := crypto.GenerateIdentity()
	k2, _ := crypto.GenerateIdentity()
	ctx := context.Background()

	f.router.Route(ctx, domain.InboundMessage{From: "peerA", Data: profilePayload(t, "alice", "", k1.Public)})
	f.router.Route(ctx, domain.InboundMessage{From: "peerA", Data: profilePayload(t, "alice2", "new", k2.Public)})

	p, ok := f.peers.Lookup("peerA")
	require.True(t, ok)
	require.Equal(t, "alice2", p.Handle)
	require.Equal(t, k2.Public, p.PublicKey)
	require.Equal(t, 1, f.peers.Len())
}

func TestRoute_ProfileHandleIsTrimmed(t *testing.T) {
	f := newFixture(t)
	alice, err := crypto.GenerateIdentity()
	require.NoError(t, err)

	f.router.Route(context.Background(), domain.InboundMessage{
		From: "peerA",
		Data: profilePayload(t, "  alice \t", "hi", alice.Public),
	})

	p, ok := f.peers.Lookup("peerA")
	require.True(t, ok)
	require.Equal(t, "alice", p.Handle)
	require.Equal(t, []string{"*** Profile broadcast: peerA is now alice"}, f.lobby.lines)
}

func TestRoute_ProfileWithBadKeyIsRejected(t *testing.T) {
	f := newFixture(t)
	out := f.router.Route(context.Background(), domain.InboundMessage{
		From: "peerA",
		Data: `{"messageType":"profile","handle":"alice","bio":"","publicKey":{"0":1,"1":2}}`,
	})
	require.Equal(t, router.OutcomeMalformed, out)
	require.Equal(t, 0, f.peers.Len())
	require.Equal(t, []string{"*** wut: Ignoring profile from peerA: invalid public key"}, f.lobby.lines)
}

func TestRoute_DirectFromUnknownSender(t *testing.T) {
	f := newFixture(t)
	sender, _ := crypto.GenerateIdentity()
	sealed, err := crypto.Encrypt("hello", f.keys.Public, sender.Secret)
	require.NoError(t, err)

	out := f.router.Route(context.Background(), domain.InboundMessage{
		From: "stranger",
		Data: directPayload(t, "mallory", sealed),
	})
	require.Equal(t, router.OutcomeDirect, out)

	require.Equal(t, 0, f.peers.Len())
	require.Equal(t, []domain.PeerID{"stranger"}, f.sessions.Peers())
	require.Equal(t, []string{"*** wut: Cannot decrypt message from stranger: unknown sender"}, f.sinks.sinks["stranger"].lines)
	require.Empty(t, f.lobby.lines)
}

func TestRoute_DirectReusesSession(t *testing.T) {
	f := newFixture(t)
	alice, _ := crypto.GenerateIdentity()
	ctx := context.Background()
	f.router.Route(ctx, domain.InboundMessage{From: "peerA", Data: profilePayload(t, "alice", "", alice.Public)})

	for _, text := range []string{"one", "two"} {
		sealed, err := crypto.Encrypt(text, f.keys.Public, alice.Secret)
		require.NoError(t, err)
		f.router.Route(ctx, domain.InboundMessage{From: "peerA", Data: directPayload(t, "alice", sealed)})
	}

	require.Equal(t, 1, f.sessions.Len())
	require.Equal(t, []string{"alice: one", "alice: two"}, f.sinks.sinks["peerA"].lines)
}

func TestRoute_DirectFallsBackToProfileHandle(t *testing.T) {
	f := newFixture(t)
	alice, _ := crypto.GenerateIdentity()
	ctx := context.Background()
	f.router.Route(ctx, domain.InboundMessage{From: "peerA", Data: profilePayload(t, "alice", "", alice.Public)})

	sealed, err := crypto.Encrypt("hey", f.keys.Public, alice.Secret)
	require.NoError(t, err)
	f.router.Route(ctx, domain.InboundMessage{From: "peerA", Data: directPayload(t, "", sealed)})
	require.Equal(t, []string{"alice: hey"}, f.sinks.sinks["peerA"].lines)
}

func TestRoute_DirectTamperedIsNull(t *testing.T) {
	f := newFixture(t)
	alice, _ := crypto.GenerateIdentity()
	ctx := context.Background()
	f.router.Route(ctx, domain.InboundMessage{From: "peerA", Data: profilePayload(t, "alice", "", alice.Public)})

	sealed, err := crypto.Encrypt("secret", f.keys.Public, alice.Secret)
	require.NoError(t, err)
	sealed.Ciphertext[0] ^= 0xff

	out := f.router.Route(ctx, domain.InboundMessage{From: "peerA", Data: directPayload(t, "alice", sealed)})
	require.Equal(t, router.OutcomeDirect, out)
	require.Equal(t, []string{"*** wut: Error: Message is null."}, f.sinks.sinks["peerA"].lines)
}

func TestRoute_DirectMalformedEnvelope(t *testing.T) {
	f := newFixture(t)
	alice, _ := crypto.GenerateIdentity()
	ctx := context.Background()
	f.router.Route(ctx, domain.InboundMessage{From: "peerA", Data: profilePayload(t, "alice", "", alice.Public)})

	// A nonce of the wrong length.
	data := `{"messageType":"dm","fromHandle":"alice","nonce":{"0":1},"ciphertext":{"0":1}}`
	out := f.router.Route(ctx, domain.InboundMessage{From: "peerA", Data: data})
	require.Equal(t, router.OutcomeDirect, out)
	require.Equal(t, []string{"*** wut: Cannot decrypt messages from alice"}, f.sinks.sinks["peerA"].lines)

	// The next message from the same peer still decrypts.
	sealed, err := crypto.Encrypt("still here", f.keys.Public, alice.Secret)
	require.NoError(t, err)
	f.router.Route(ctx, domain.InboundMessage{From: "peerA", Data: directPayload(t, "alice", sealed)})
	require.Equal(t, "alice: still here", f.sinks.sinks["peerA"].lines[1])
}

func TestRoute_MalformedJSONIsDiscarded(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	out := f.router.Route(ctx, domain.InboundMessage{From: "peerA", Data: `{"messageType":"profile",`})
	require.Equal(t, router.OutcomeMalformed, out)
	require.Equal(t, []string{"*** wut: Error: Cannot parse badly-formed command."}, f.lobby.lines)
	require.Equal(t, 0, f.peers.Len())
	require.Equal(t, 0, f.sessions.Len())

	out = f.router.Route(ctx, domain.InboundMessage{From: "peerA", Data: "hi all"})
	require.Equal(t, router.OutcomePlain, out)
	require.Equal(t, "peerA: hi all", f.lobby.lines[1])
}

func TestRoute_BroadcastAndLegacySpelling(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.Equal(t, router.OutcomeBroadcast, f.router.Route(ctx, domain.InboundMessage{
		From: "peerA", Data: `{"messageType":"broadcast","content":"news"}`,
	}))
	require.Equal(t, router.OutcomeBroadcast, f.router.Route(ctx, domain.InboundMessage{
		From: "peerB", Data: `{"messageType":"brodcast","content":"old news"}`,
	}))
	require.Equal(t, []string{
		"*** Broadcast: peerA: news",
		"*** Broadcast: peerB: old news",
	}, f.lobby.lines)
}

func TestRoute_RefreshRepliesToRequester(t *testing.T) {
	f := newFixture(t)
	out := f.router.Route(context.Background(), domain.InboundMessage{From: "peerA", Data: domain.RefreshSentinel})
	require.Equal(t, router.OutcomeRefresh, out)
	require.Equal(t, []domain.PeerID{"peerA"}, f.announce.to)
	require.Empty(t, f.lobby.lines)
}

func TestRoute_RefreshFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	f.announce.err = errors.New("relay down")
	out := f.router.Route(context.Background(), domain.InboundMessage{From: "peerA", Data: domain.RefreshSentinel})
	require.Equal(t, router.OutcomeRefresh, out)
}

func TestRoute_ExactlyOneOutcome(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cases := map[string]router.Outcome{
		domain.RefreshSentinel:                     router.OutcomeRefresh,
		`"peer-refresh"`:                           router.OutcomePlain,
		"peer-refresh ":                            router.OutcomePlain,
		`{"messageType":"unknown","content":"x"}`:  router.OutcomePlain,
		`{"content":"x"}`:                          router.OutcomePlain,
		`[1,2,3]`:                                  router.OutcomePlain,
		`[1,2`:                                     router.OutcomeMalformed,
		`{"messageType":42}`:                       router.OutcomePlain,
		`{"messageType":null}`:                     router.OutcomePlain,
		`{"content":5}`:                            router.OutcomePlain,
		`{"publicKey":"abc"}`:                      router.OutcomePlain,
		`{"handle":null,"bio":["x"]}`:              router.OutcomePlain,
		`{"messageType":"broadcast","content":5}`:  router.OutcomeMalformed,
		`{"messageType":"broadcast","content":""}`: router.OutcomeBroadcast,
		"":                                         router.OutcomePlain,
	}
	for data, want := range cases {
		t.Run(fmt.Sprintf("%q", data), func(t *testing.T) {
			require.Equal(t, want, f.router.Route(ctx, domain.InboundMessage{From: "p", Data: data}))
		})
	}
}

func TestDecode_Variants(t *testing.T) {
	kp, _ := crypto.GenerateIdentity()

	m, err := router.Decode(profilePayload(t, "alice", "hi", kp.Public))
	require.NoError(t, err)
	require.Equal(t, router.ProfileMessage{Handle: "alice", Bio: "hi", PublicKey: kp.Public}, m)

	m, err = router.Decode(domain.RefreshSentinel)
	require.NoError(t, err)
	require.Equal(t, router.RefreshRequest{}, m)

	m, err = router.Decode(`{"messageType":"dm","fromHandle":"bob","nonce":{"0":1},"ciphertext":{}}`)
	require.NoError(t, err)
	dm, ok := m.(router.DirectMessage)
	require.True(t, ok)
	require.Equal(t, "bob", dm.FromHandle)
	require.Equal(t, domain.WireBytes{"0": 1}, dm.Nonce)

	_, err = router.Decode(`{bad json}`)
	require.ErrorIs(t, err, router.ErrMalformed)

	m, err = router.Decode(`{"messageType":42,"content":5}`)
	require.NoError(t, err)
	require.Equal(t, router.PlainMessage{Text: `{"messageType":42,"content":5}`}, m)

	_, err = router.Decode(`{"messageType":"dm","fromHandle":7}`)
	require.ErrorIs(t, err, router.ErrMalformed)

	_, err = router.Decode(`{"messageType":"profile","handle":"x"}`)
	require.ErrorIs(t, err, router.ErrBadProfile)
	require.ErrorIs(t, err, codec.ErrNullResult)
}

// Alice and Bob exchange profiles over a shared topic; Alice sends Bob an
// encrypted "hello" and Bob's router shows it in the session with Alice.
func TestEndToEnd_AliceToBob(t *testing.T) {
	ctx := context.Background()
	hub := memory.NewHub()
	aliceConn := hub.Join("peerA")
	bobConn := hub.Join("peerB")
	<-aliceConn.Events() // bob joined

	aliceKeys, err := crypto.GenerateIdentity()
	require.NoError(t, err)
	bobKeys, err := crypto.GenerateIdentity()
	require.NoError(t, err)

	alicePeers, bobPeers := directory.New(), directory.New()
	aliceSvc := message.New(aliceConn, alicePeers, aliceKeys, message.Profile{Handle: "alice", Bio: "hi"}, zerolog.Nop())
	bobSvc := message.New(bobConn, bobPeers, bobKeys, message.Profile{Handle: "bob"}, zerolog.Nop())

	aliceSinks := &sinkFactory{sinks: make(map[domain.PeerID]*recordingSink)}
	bobSinks := &sinkFactory{sinks: make(map[domain.PeerID]*recordingSink)}
	aliceRouter := router.New(aliceKeys, alicePeers, session.New(aliceSinks), &recordingSink{}, aliceSvc, zerolog.Nop())
	bobRouter := router.New(bobKeys, bobPeers, session.New(bobSinks), &recordingSink{}, bobSvc, zerolog.Nop())

	// Profile exchange.
	require.NoError(t, aliceSvc.BroadcastProfile(ctx, ""))
	require.NoError(t, bobSvc.BroadcastProfile(ctx, ""))
	require.Equal(t, router.OutcomeProfile, bobRouter.Route(ctx, (<-bobConn.Events()).Message()))
	require.Equal(t, router.OutcomeProfile, aliceRouter.Route(ctx, (<-aliceConn.Events()).Message()))

	require.NoError(t, aliceSvc.SendDirect(ctx, "peerB", "hello"))
	require.Equal(t, router.OutcomeDirect, bobRouter.Route(ctx, (<-bobConn.Events()).Message()))

	require.Equal(t, []string{"alice: hello"}, bobSinks.sinks["peerA"].lines)
}

func TestEndToEnd_RefreshRoundTrip(t *testing.T) {
	ctx := context.Background()
	hub := memory.NewHub()
	aliceConn := hub.Join("peerA")
	bobConn := hub.Join("peerB")
	<-aliceConn.Events()

	aliceKeys, _ := crypto.GenerateIdentity()
	bobKeys, _ := crypto.GenerateIdentity()
	alicePeers := directory.New()
	aliceSvc := message.New(aliceConn, alicePeers, aliceKeys, message.Profile{Handle: "alice"}, zerolog.Nop())
	bobSvc := message.New(bobConn, directory.New(), bobKeys, message.Profile{Handle: "bob"}, zerolog.Nop())
	aliceRouter := router.New(aliceKeys, alicePeers, session.New(&sinkFactory{sinks: map[domain.PeerID]*recordingSink{}}), &recordingSink{}, aliceSvc, zerolog.Nop())
	bobRouter := router.New(bobKeys, directory.New(), session.New(&sinkFactory{sinks: map[domain.PeerID]*recordingSink{}}), &recordingSink{}, bobSvc, zerolog.Nop())

	require.NoError(t, aliceSvc.RequestRefresh(ctx))
	require.Equal(t, router.OutcomeRefresh, bobRouter.Route(ctx, (<-bobConn.Events()).Message()))
	require.Equal(t, router.OutcomeProfile, aliceRouter.Route(ctx, (<-aliceConn.Events()).Message()))

	p, ok := alicePeers.Lookup("peerB")
	require.True(t, ok)
	require.Equal(t, "bob", p.Handle)
	require.Equal(t, bobKeys.Public, p.PublicKey)
}
