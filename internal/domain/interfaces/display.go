package interfaces

import domaintypes "wut/internal/domain/types"

// Sink is an output surface that appends lines of text.
type Sink interface {
	Log(line string)
}

// SinkFactory opens a display surface for a direct-message conversation.
// profile is the zero value when known is false.
type SinkFactory interface {
	DirectSink(peer domaintypes.PeerID, profile domaintypes.PeerProfile, known bool) Sink
}
