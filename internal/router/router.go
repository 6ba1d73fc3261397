package router

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"wut/internal/codec"
	"wut/internal/crypto"
	"wut/internal/domain"
)

// Outcome is the branch a payload was dispatched to.
type Outcome int

const (
	OutcomeMalformed Outcome = iota
	OutcomeProfile
	OutcomeDirect
	OutcomeBroadcast
	OutcomeRefresh
	OutcomePlain
)

func (o Outcome) String() string {
	switch o {
	case OutcomeProfile:
		return "profile"
	case OutcomeDirect:
		return "dm"
	case OutcomeBroadcast:
		return "broadcast"
	case OutcomeRefresh:
		return "refresh"
	case OutcomePlain:
		return "plain"
	default:
		return "malformed"
	}
}

// Notices shown to the user.
const (
	noticeMalformed     = "*** wut: Error: Cannot parse badly-formed command."
	noticeNullMessage   = "*** wut: Error: Message is null."
	noticeUnknownSender = "*** wut: Cannot decrypt message from %s: unknown sender"
	noticeCannotDecrypt = "*** wut: Cannot decrypt messages from %s"
	noticeBadProfile    = "*** wut: Ignoring profile from %s: invalid public key"
	noticeProfile       = "*** Profile broadcast: %s is now %s"
	noticeBroadcast     = "*** Broadcast: %s: %s"
)

// Router dispatches inbound messages. It is driven from a single goroutine
// and touches the directory and session table without locking.
type Router struct {
	keys      domain.KeyPair
	peers     domain.PeerDirectory
	sessions  domain.SessionTable
	lobby     domain.Sink
	announcer domain.ProfileAnnouncer
	log       zerolog.Logger
}

// New constructs a Router that decrypts with keys and writes lobby output
// to lobby.
func New(
	keys domain.KeyPair,
	peers domain.PeerDirectory,
	sessions domain.SessionTable,
	lobby domain.Sink,
	announcer domain.ProfileAnnouncer,
	log zerolog.Logger,
) *Router {
	return &Router{
		keys:      keys,
		peers:     peers,
		sessions:  sessions,
		lobby:     lobby,
		announcer: announcer,
		log:       log.With().Str("component", "router").Logger(),
	}
}

// Route classifies msg and handles it. It never panics and never returns an
// error; failures become notices.
func (r *Router) Route(ctx context.Context, msg domain.InboundMessage) (out Outcome) {
	defer func() {
		if p := recover(); p != nil {
			r.log.Error().Str("from", msg.From.String()).Interface("panic", p).Msg("router panic")
			r.lobby.Log(noticeMalformed)
			out = OutcomeMalformed
		}
	}()

	decoded, err := Decode(msg.Data)
	if err != nil {
		r.log.Warn().Err(err).Str("from", msg.From.String()).Msg("discarding inbound message")
		if errors.Is(err, ErrBadProfile) {
			r.lobby.Log(fmt.Sprintf(noticeBadProfile, msg.From))
		} else {
			r.lobby.Log(noticeMalformed)
		}
		return OutcomeMalformed
	}

	switch m := decoded.(type) {
	case ProfileMessage:
		r.peers.Upsert(domain.PeerProfile{
			ID:        msg.From,
			Handle:    m.Handle,
			Bio:       m.Bio,
			PublicKey: m.PublicKey,
		})
		r.log.Debug().Str("from", msg.From.String()).Str("handle", m.Handle).Msg("profile updated")
		r.lobby.Log(fmt.Sprintf(noticeProfile, msg.From, m.Handle))
		return OutcomeProfile
	case DirectMessage:
		r.handleDirect(msg.From, m)
		return OutcomeDirect
	case BroadcastMessage:
		r.lobby.Log(fmt.Sprintf(noticeBroadcast, msg.From, m.Content))
		return OutcomeBroadcast
	case RefreshRequest:
		if err := r.announcer.BroadcastProfile(ctx, msg.From); err != nil {
			r.log.Warn().Err(err).Str("to", msg.From.String()).Msg("profile refresh reply failed")
		}
		return OutcomeRefresh
	case PlainMessage:
		r.lobby.Log(fmt.Sprintf("%s: %s", msg.From, m.Text))
		return OutcomePlain
	default:
		r.lobby.Log(noticeMalformed)
		return OutcomeMalformed
	}
}

func (r *Router) handleDirect(from domain.PeerID, m DirectMessage) {
	profile, known := r.peers.Lookup(from)
	sink := r.sessions.Open(from, profile, known)

	if !known {
		r.log.Warn().Str("from", from.String()).Msg("direct message from peer without profile")
		sink.Log(fmt.Sprintf(noticeUnknownSender, from))
		return
	}

	handle := m.FromHandle
	if handle == "" {
		handle = profile.Handle
	}

	sealed, err := codec.Sealed(m.Nonce, m.Ciphertext)
	if errors.Is(err, codec.ErrNullResult) {
		r.log.Warn().Err(err).Str("from", from.String()).Msg("empty direct message envelope")
		sink.Log(noticeNullMessage)
		return
	}
	if err != nil {
		r.cannotDecrypt(sink, from, handle, err)
		return
	}
	plaintext, ok, err := crypto.Decrypt(sealed, profile.PublicKey, r.keys.Secret)
	if err != nil {
		r.cannotDecrypt(sink, from, handle, err)
		return
	}
	if !ok {
		r.log.Warn().Str("from", from.String()).Msg("direct message failed authentication")
		sink.Log(noticeNullMessage)
		return
	}
	sink.Log(fmt.Sprintf("%s: %s", handle, plaintext))
}

func (r *Router) cannotDecrypt(sink domain.Sink, from domain.PeerID, handle string, err error) {
	r.log.Error().Err(err).Str("from", from.String()).Msg("malformed direct message")
	sink.Log(fmt.Sprintf(noticeCannotDecrypt, handle))
}
