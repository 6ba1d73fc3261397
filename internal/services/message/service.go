package message

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"wut/internal/codec"
	"wut/internal/crypto"
	"wut/internal/domain"
)

var (
	// ErrUnknownPeer indicates there is no announced profile for the
	// recipient, so there is no public key to encrypt to.
	ErrUnknownPeer = errors.New("no profile for peer; ask them to announce or run /refresh")
	// ErrEmptyMessage is returned for blank outbound text.
	ErrEmptyMessage = errors.New("empty message")
)

// Profile is what we announce about ourselves.
type Profile struct {
	Handle string
	Bio    string
}

// Service sends payloads over the transport on behalf of the local identity.
type Service struct {
	transport domain.Transport
	peers     domain.PeerDirectory
	keys      domain.KeyPair
	profile   Profile
	log       zerolog.Logger
}

// New constructs a message Service.
func New(
	transport domain.Transport,
	peers domain.PeerDirectory,
	keys domain.KeyPair,
	profile Profile,
	log zerolog.Logger,
) *Service {
	return &Service{
		transport: transport,
		peers:     peers,
		keys:      keys,
		profile:   profile,
		log:       log.With().Str("component", "message").Logger(),
	}
}

// Profile returns the profile we announce.
func (s *Service) Profile() Profile { return s.profile }

// SetHandle changes the announced handle. Call BroadcastProfile to publish it.
func (s *Service) SetHandle(handle string) { s.profile.Handle = strings.TrimSpace(handle) }

// SetBio changes the announced bio. Call BroadcastProfile to publish it.
func (s *Service) SetBio(bio string) { s.profile.Bio = bio }

// BroadcastProfile announces our handle, bio and public key. When to is
// set the announcement is addressed to that peer only.
func (s *Service) BroadcastProfile(ctx context.Context, to domain.PeerID) error {
	payload, err := json.Marshal(domain.ProfileWire{
		MessageType: domain.MessageTypeProfile,
		Handle:      s.profile.Handle,
		Bio:         s.profile.Bio,
		PublicKey:   codec.ToWireObject(s.keys.Public.Slice()),
	})
	if err != nil {
		return err
	}
	if to != "" {
		return s.transport.SendTo(ctx, to, string(payload))
	}
	return s.transport.Broadcast(ctx, string(payload))
}

// SendDirect encrypts text for peer to and sends it to that peer alone.
func (s *Service) SendDirect(ctx context.Context, to domain.PeerID, text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyMessage
	}
	profile, ok := s.peers.Lookup(to)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPeer, to)
	}
	sealed, err := crypto.Encrypt(text, profile.PublicKey, s.keys.Secret)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(domain.DirectWire{
		MessageType: domain.MessageTypeDirect,
		FromHandle:  s.profile.Handle,
		Nonce:       codec.ToWireObject(sealed.Nonce.Slice()),
		Ciphertext:  codec.ToWireObject(sealed.Ciphertext),
	})
	if err != nil {
		return err
	}
	s.log.Debug().Str("to", to.String()).Int("bytes", len(sealed.Ciphertext)).Msg("sending direct message")
	return s.transport.SendTo(ctx, to, string(payload))
}

// Broadcast publishes a tagged public announcement.
func (s *Service) Broadcast(ctx context.Context, content string) error {
	if strings.TrimSpace(content) == "" {
		return ErrEmptyMessage
	}
	payload, err := json.Marshal(domain.BroadcastWire{
		MessageType: domain.MessageTypeBroadcast,
		Content:     content,
	})
	if err != nil {
		return err
	}
	return s.transport.Broadcast(ctx, string(payload))
}

// RequestRefresh asks every peer to re-send its profile to us.
func (s *Service) RequestRefresh(ctx context.Context) error {
	return s.transport.Broadcast(ctx, domain.RefreshSentinel)
}

// SendPlain publishes text as an untagged lobby line.
func (s *Service) SendPlain(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyMessage
	}
	return s.transport.Broadcast(ctx, text)
}

// Compile-time assertion that Service implements domain.MessageService.
var _ domain.MessageService = (*Service)(nil)
