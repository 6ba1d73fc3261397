package types

// EventKind distinguishes transport events.
type EventKind int

const (
	EventMessage EventKind = iota
	EventJoin
	EventLeave
)

// String returns the name of the event kind.
func (k EventKind) String() string {
	switch k {
	case EventMessage:
		return "message"
	case EventJoin:
		return "join"
	case EventLeave:
		return "leave"
	default:
		return "unknown"
	}
}

// TransportEvent is an inbound message or a membership change.
type TransportEvent struct {
	Kind EventKind
	From PeerID
	Data string
}

// Message returns the event as an InboundMessage.
func (e TransportEvent) Message() InboundMessage {
	return InboundMessage{From: e.From, Data: e.Data}
}
