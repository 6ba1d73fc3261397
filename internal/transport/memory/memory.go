// Package memory is an in-process pub/sub hub implementing domain.Transport.
// It delivers events synchronously into buffered per-member channels and is
// used to wire several chat clients together without a relay.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"wut/internal/domain"
)

// ErrNotMember is returned when sending to or from a peer that is not joined.
var ErrNotMember = errors.New("memory: peer is not a member of the hub")

const defaultBuffer = 256

// Hub is a single topic.
type Hub struct {
	mu      sync.Mutex
	members map[domain.PeerID]*Conn
	buffer  int
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{members: make(map[domain.PeerID]*Conn), buffer: defaultBuffer}
}

// Join adds a member with the given identifier and announces it to the
// others.
func (h *Hub) Join(id domain.PeerID) *Conn {
	c := &Conn{hub: h, id: id, events: make(chan domain.TransportEvent, h.buffer)}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.members[id] = c
	h.fanout(id, domain.TransportEvent{Kind: domain.EventJoin, From: id})
	return c
}

// fanout must be called with h.mu held.
func (h *Hub) fanout(from domain.PeerID, ev domain.TransportEvent) {
	for id, m := range h.members {
		if id == from {
			continue
		}
		m.deliver(ev)
	}
}

// Conn is one member's view of the hub.
type Conn struct {
	hub    *Hub
	id     domain.PeerID
	events chan domain.TransportEvent
	closed bool
}

func (c *Conn) deliver(ev domain.TransportEvent) {
	select {
	case c.events <- ev:
	default:
		// Slow reader; drop rather than block the sender.
	}
}

// Self returns our identifier.
func (c *Conn) Self() domain.PeerID { return c.id }

// Broadcast delivers data to every other member.
func (c *Conn) Broadcast(_ context.Context, data string) error {
	c.hub.mu.Lock()
	defer c.hub.mu.Unlock()
	if _, ok := c.hub.members[c.id]; !ok {
		return ErrNotMember
	}
	c.hub.fanout(c.id, domain.TransportEvent{Kind: domain.EventMessage, From: c.id, Data: data})
	return nil
}

// SendTo delivers data to a single member.
func (c *Conn) SendTo(_ context.Context, to domain.PeerID, data string) error {
	c.hub.mu.Lock()
	defer c.hub.mu.Unlock()
	if _, ok := c.hub.members[c.id]; !ok {
		return ErrNotMember
	}
	m, ok := c.hub.members[to]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotMember, to)
	}
	m.deliver(domain.TransportEvent{Kind: domain.EventMessage, From: c.id, Data: data})
	return nil
}

// Peers lists the other members.
func (c *Conn) Peers(context.Context) ([]domain.PeerID, error) {
	c.hub.mu.Lock()
	defer c.hub.mu.Unlock()
	out := make([]domain.PeerID, 0, len(c.hub.members))
	for id := range c.hub.members {
		if id != c.id {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// Events streams everything delivered to us.
func (c *Conn) Events() <-chan domain.TransportEvent { return c.events }

// Close leaves the hub, announcing it to the others, and closes Events.
func (c *Conn) Close() error {
	c.hub.mu.Lock()
	defer c.hub.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	delete(c.hub.members, c.id)
	c.hub.fanout(c.id, domain.TransportEvent{Kind: domain.EventLeave, From: c.id})
	close(c.events)
	return nil
}

// Compile-time assertion that Conn implements domain.Transport.
var _ domain.Transport = (*Conn)(nil)
