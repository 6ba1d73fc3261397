package session

import (
	"sort"

	"wut/internal/domain"
)

// Session is one peer's direct-message conversation.
type Session struct {
	PeerID domain.PeerID
	Sink   domain.Sink
}

// Table maps peers to their sessions, creating display sinks on demand.
//
// It is not safe for concurrent use; the chat loop owns it.
type Table struct {
	sinks    domain.SinkFactory
	sessions map[domain.PeerID]*Session
}

// New returns an empty Table that opens sinks through f.
func New(f domain.SinkFactory) *Table {
	return &Table{sinks: f, sessions: make(map[domain.PeerID]*Session)}
}

// Get returns the session for peer, if one has been opened.
func (t *Table) Get(peer domain.PeerID) (*Session, bool) {
	s, ok := t.sessions[peer]
	return s, ok
}

// Lookup returns the display sink of an open session.
func (t *Table) Lookup(peer domain.PeerID) (domain.Sink, bool) {
	s, ok := t.sessions[peer]
	if !ok {
		return nil, false
	}
	return s.Sink, true
}

// Open returns the sink for peer, opening a session first if there is none.
// The session is created even when the peer's profile is unknown.
func (t *Table) Open(peer domain.PeerID, profile domain.PeerProfile, known bool) domain.Sink {
	if s, ok := t.sessions[peer]; ok {
		return s.Sink
	}
	s := &Session{PeerID: peer, Sink: t.sinks.DirectSink(peer, profile, known)}
	t.sessions[peer] = s
	return s.Sink
}

// Peers lists peers with an open session.
func (t *Table) Peers() []domain.PeerID {
	out := make([]domain.PeerID, 0, len(t.sessions))
	for id := range t.sessions {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Len is the number of open sessions.
func (t *Table) Len() int { return len(t.sessions) }

// Compile-time assertion that Table implements domain.SessionTable.
var _ domain.SessionTable = (*Table)(nil)
