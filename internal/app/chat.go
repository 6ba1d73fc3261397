package app

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"wut/internal/crypto"
	"wut/internal/domain"
	"wut/internal/router"
	"wut/internal/services/directory"
	"wut/internal/services/message"
	"wut/internal/services/session"
	"wut/internal/ui"
)

// ErrTransportClosed is returned by Run when the transport stops delivering
// events.
var ErrTransportClosed = errors.New("transport closed")

// Display is the terminal surface the chat loop writes to.
type Display interface {
	domain.Sink
	domain.SinkFactory
	// Writer is used for multi-line output such as QR codes.
	Writer() io.Writer
}

// ChatConfig carries the collaborators of a Chat.
type ChatConfig struct {
	Transport   domain.Transport
	Keys        domain.KeyPair
	Profile     message.Profile
	Display     Display
	Input       <-chan string
	PeerRefresh time.Duration
	Log         zerolog.Logger
}

// Chat is the client event loop. Run owns the directory and session table;
// nothing else may touch them while it runs.
type Chat struct {
	transport domain.Transport
	keys      domain.KeyPair
	display   Display
	input     <-chan string
	refresh   time.Duration
	log       zerolog.Logger

	peers    *directory.Directory
	sessions *session.Table
	messages *message.Service
	router   *router.Router
	peerList ui.PeerList
}

// NewChat builds a Chat. An empty profile handle defaults to the transport
// peer id.
func NewChat(cfg ChatConfig) *Chat {
	if cfg.Profile.Handle == "" {
		cfg.Profile.Handle = cfg.Transport.Self().String()
	}
	if cfg.PeerRefresh <= 0 {
		cfg.PeerRefresh = DefaultPeerRefresh
	}
	peers := directory.New()
	sessions := session.New(cfg.Display)
	messages := message.New(cfg.Transport, peers, cfg.Keys, cfg.Profile, cfg.Log)
	return &Chat{
		transport: cfg.Transport,
		keys:      cfg.Keys,
		display:   cfg.Display,
		input:     cfg.Input,
		refresh:   cfg.PeerRefresh,
		log:       cfg.Log.With().Str("component", "chat").Logger(),
		peers:     peers,
		sessions:  sessions,
		messages:  messages,
		router:    router.New(cfg.Keys, peers, sessions, cfg.Display, messages, cfg.Log),
	}
}

// Run processes transport events, input lines and peer refreshes until the
// input closes, /quit is entered, or ctx is done.
func (c *Chat) Run(ctx context.Context) error {
	c.welcome()

	if err := c.messages.BroadcastProfile(ctx, ""); err != nil {
		c.fail("broadcast profile", err)
	}
	if err := c.messages.RequestRefresh(ctx); err != nil {
		c.fail("request profiles", err)
	}
	c.refreshPeers(ctx)

	t := time.NewTicker(c.refresh)
	defer t.Stop()

	events := c.transport.Events()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return ErrTransportClosed
			}
			c.handleEvent(ctx, ev)
		case line, ok := <-c.input:
			if !ok {
				return nil
			}
			if quit := c.handleLine(ctx, line); quit {
				return nil
			}
		case <-t.C:
			c.refreshPeers(ctx)
		}
	}
}

func (c *Chat) welcome() {
	pub := c.keys.Public
	c.display.Log(fmt.Sprintf("Your NaCl public key is: %s", base64.StdEncoding.EncodeToString(pub.Slice())))
	c.display.Log(fmt.Sprintf("Fingerprint: %s", crypto.Fingerprint(pub)))
	c.display.Log(fmt.Sprintf("Peer id: %s", c.transport.Self()))
	c.display.Log("")
	c.display.Log("*** This is the LOBBY. It is *plaintext* group chat ***")
	c.display.Log(`*** Type "/help" for help ***`)
}

func (c *Chat) handleEvent(ctx context.Context, ev domain.TransportEvent) {
	switch ev.Kind {
	case domain.EventJoin:
		if ev.From == c.transport.Self() {
			// The transport rejoined under a new id; peers only know the old one.
			c.display.Log(fmt.Sprintf("*** Rejoined the room as %s", ev.From))
			c.announce(ctx)
			if err := c.messages.RequestRefresh(ctx); err != nil {
				c.fail("request profiles", err)
			}
			return
		}
		c.display.Log(fmt.Sprintf("Peer joined the room: %s", ev.From))
	case domain.EventLeave:
		c.display.Log(fmt.Sprintf("Peer left: %s", ev.From))
	case domain.EventMessage:
		out := c.router.Route(ctx, ev.Message())
		c.log.Debug().Str("from", ev.From.String()).Stringer("outcome", out).Msg("routed")
	}
}

func (c *Chat) refreshPeers(ctx context.Context) {
	ids, err := c.transport.Peers(ctx)
	if err != nil {
		c.log.Warn().Err(err).Msg("peer refresh failed")
		return
	}
	if c.peerList.Update(ids) {
		c.display.Log(ui.FormatPeers(ids, c.peers.Lookup))
	}
}

// handleLine executes a lobby command or sends a plain line. It reports
// whether the user asked to quit.
func (c *Chat) handleLine(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	if !strings.HasPrefix(line, "/") {
		if err := c.messages.SendPlain(ctx, line); err != nil {
			c.fail("send", err)
			return false
		}
		c.display.Log(fmt.Sprintf("%s: %s", c.messages.Profile().Handle, line))
		return false
	}

	cmd, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)
	switch cmd {
	case "/quit", "/exit":
		return true
	case "/help":
		c.help()
	case "/dm":
		c.direct(ctx, rest)
	case "/handle":
		if rest == "" {
			c.display.Log("*** wut: Usage: /handle <name>")
			return false
		}
		c.messages.SetHandle(rest)
		c.display.Log(fmt.Sprintf("*** Handle is now %s", c.messages.Profile().Handle))
		c.announce(ctx)
	case "/bio":
		c.messages.SetBio(rest)
		c.display.Log("*** Bio updated")
		c.announce(ctx)
	case "/peers":
		c.peerList = ui.PeerList{}
		c.refreshPeers(ctx)
	case "/profiles":
		c.profiles()
	case "/refresh":
		if err := c.messages.RequestRefresh(ctx); err != nil {
			c.fail("request profiles", err)
		}
	case "/broadcast":
		if err := c.messages.Broadcast(ctx, rest); err != nil {
			c.fail("broadcast", err)
			return false
		}
		c.display.Log(fmt.Sprintf("*** Broadcast: %s: %s", c.transport.Self(), rest))
	case "/whoami":
		c.whoami()
	default:
		c.display.Log(fmt.Sprintf(`*** wut: Unknown command %s. Type "/help" for help`, cmd))
	}
	return false
}

func (c *Chat) direct(ctx context.Context, args string) {
	target, text, _ := strings.Cut(args, " ")
	text = strings.TrimSpace(text)
	if target == "" || text == "" {
		c.display.Log("*** wut: Usage: /dm <peer-or-handle> <message>")
		return
	}
	profile, ok := c.peers.Resolve(target)
	if !ok {
		c.display.Log(fmt.Sprintf("*** wut: Unknown peer %s; try /refresh", target))
		return
	}
	if err := c.messages.SendDirect(ctx, profile.ID, text); err != nil {
		c.fail("send direct message", err)
		return
	}
	sink := c.sessions.Open(profile.ID, profile, true)
	sink.Log(fmt.Sprintf("%s: %s", c.messages.Profile().Handle, text))
}

func (c *Chat) announce(ctx context.Context) {
	if err := c.messages.BroadcastProfile(ctx, ""); err != nil {
		c.fail("broadcast profile", err)
	}
}

func (c *Chat) profiles() {
	list := c.peers.List()
	if len(list) == 0 {
		c.display.Log("*** No profiles yet; try /refresh")
		return
	}
	for _, p := range list {
		c.display.Log(fmt.Sprintf("*** %s (%s) [%s]: %s", p.Handle, p.ID, crypto.Fingerprint(p.PublicKey), p.Bio))
	}
}

func (c *Chat) whoami() {
	p := c.messages.Profile()
	pub := base64.StdEncoding.EncodeToString(c.keys.Public.Slice())
	c.display.Log(fmt.Sprintf("*** %s (%s): %s", p.Handle, c.transport.Self(), p.Bio))
	c.display.Log(fmt.Sprintf("*** Public key: %s", pub))
	c.display.Log(fmt.Sprintf("*** Fingerprint: %s", crypto.Fingerprint(c.keys.Public)))
	ui.WriteQR(c.display.Writer(), pub)
}

func (c *Chat) help() {
	for _, l := range []string{
		"*** Commands:",
		"***   /dm <peer-or-handle> <message>  send an encrypted direct message",
		"***   /handle <name>                  change and announce your handle",
		"***   /bio <text>                     change and announce your bio",
		"***   /broadcast <text>               send a tagged public announcement",
		"***   /peers                          list peers in the room",
		"***   /profiles                       list announced profiles",
		"***   /refresh                        ask peers to re-announce",
		"***   /whoami                         show your key and its QR code",
		"***   /quit                           leave",
		"*** Anything else is sent to the lobby in plaintext.",
	} {
		c.display.Log(l)
	}
}

func (c *Chat) fail(what string, err error) {
	c.log.Error().Err(err).Msg(what)
	c.display.Log(fmt.Sprintf("*** wut: Error: %s: %v", what, err))
}
