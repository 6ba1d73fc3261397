package interfaces

import (
	"context"

	domaintypes "wut/internal/domain/types"
)

// IdentityService creates and loads the local identity.
type IdentityService interface {
	Generate() (domaintypes.KeyPair, domaintypes.Fingerprint, error)
	Ensure() (domaintypes.KeyPair, error)
	Load() (domaintypes.KeyPair, error)
}

// PeerDirectory maps peer identifiers to their announced profiles.
type PeerDirectory interface {
	Upsert(profile domaintypes.PeerProfile)
	Lookup(id domaintypes.PeerID) (domaintypes.PeerProfile, bool)
}

// SessionTable hands out the per-peer direct-message display sink,
// creating it on first use.
type SessionTable interface {
	Open(peer domaintypes.PeerID, profile domaintypes.PeerProfile, known bool) Sink
	Lookup(peer domaintypes.PeerID) (Sink, bool)
}

// ProfileAnnouncer publishes our profile. An empty to broadcasts it to the
// whole topic.
type ProfileAnnouncer interface {
	BroadcastProfile(ctx context.Context, to domaintypes.PeerID) error
}

// MessageService builds and sends outbound payloads.
type MessageService interface {
	ProfileAnnouncer
	SendDirect(ctx context.Context, to domaintypes.PeerID, text string) error
	Broadcast(ctx context.Context, content string) error
	RequestRefresh(ctx context.Context) error
	SendPlain(ctx context.Context, text string) error
}
