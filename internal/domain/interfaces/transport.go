package interfaces

import (
	"context"

	domaintypes "wut/internal/domain/types"
)

// Transport is the pub/sub topic the client is joined to.
type Transport interface {
	// Self is the identifier the transport assigned to us.
	Self() domaintypes.PeerID
	// Broadcast delivers data to every other subscriber of the topic.
	Broadcast(ctx context.Context, data string) error
	// SendTo delivers data to a single subscriber.
	SendTo(ctx context.Context, to domaintypes.PeerID, data string) error
	// Peers lists the current subscribers, excluding ourselves.
	Peers(ctx context.Context) ([]domaintypes.PeerID, error)
	// Events streams inbound messages and join/leave notifications in
	// arrival order.
	Events() <-chan domaintypes.TransportEvent
}
