package relay

// Event kinds as carried on the wire.
const (
	KindMessage = "message"
	KindJoin    = "join"
	KindLeave   = "leave"
)

// Event is one entry in a member's inbox. Seq numbers the events of one
// inbox from 1 upwards and never repeats, even when older events are
// dropped.
type Event struct {
	Seq       uint64 `json:"seq"`
	Kind      string `json:"kind"`
	From      string `json:"from"`
	Data      string `json:"data,omitempty"`
	Timestamp int64  `json:"ts"`
}

// JoinResponse carries the identifier the relay assigned to a new member
// and the secret token that proves membership. The id is public; the token
// must accompany every later request made as that member.
type JoinResponse struct {
	ID    string `json:"id"`
	Token string `json:"token"`
}

// PostMessage is the body of a publish request. To is empty for a topic-wide
// broadcast.
type PostMessage struct {
	From string `json:"from"`
	To   string `json:"to,omitempty"`
	Data string `json:"data"`
}

// AckRequest drops every queued event whose Seq is at most UpTo.
type AckRequest struct {
	UpTo uint64 `json:"upTo"`
}

type errorResponse struct {
	Error string `json:"error"`
}
