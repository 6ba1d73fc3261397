package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"wut/internal/domain"
)

var (
	// ErrNotJoined is returned by operations that need a topic membership.
	ErrNotJoined = errors.New("relay: not joined to a topic")
	// ErrNotMember is returned when the relay does not know us or the
	// addressed peer, typically after an idle reap.
	ErrNotMember = errors.New("relay: not a member")
)

const (
	DefaultPollInterval = time.Second
	DefaultBatchSize    = 100
)

// Client joins one topic on a relay and implements domain.Transport.
type Client struct {
	Base         string
	Topic        string
	HTTP         *http.Client
	PollInterval time.Duration
	BatchSize    int

	log    zerolog.Logger
	mu     sync.RWMutex
	id     domain.PeerID
	token  string
	events chan domain.TransportEvent
	stop   chan struct{}
	done   chan struct{}
}

// NewClient returns a client for topic on the relay at base.
func NewClient(base, topic string, log zerolog.Logger) *Client {
	return &Client{
		Base:         base,
		Topic:        topic,
		HTTP:         http.DefaultClient,
		PollInterval: DefaultPollInterval,
		BatchSize:    DefaultBatchSize,
		log:          log.With().Str("component", "relay").Str("topic", topic).Logger(),
		events:       make(chan domain.TransportEvent, DefaultBatchSize),
	}
}

// Join registers us as a member of the topic.
func (c *Client) Join(ctx context.Context) error {
	var resp JoinResponse
	if err := c.do(ctx, http.MethodPost, c.topicPath("/peers"), struct{}{}, &resp); err != nil {
		return err
	}
	if resp.ID == "" || resp.Token == "" {
		return fmt.Errorf("relay join: empty peer id or token")
	}
	c.mu.Lock()
	c.id = domain.PeerID(resp.ID)
	c.token = resp.Token
	c.mu.Unlock()
	c.log.Info().Str("peer", resp.ID).Msg("joined topic")
	return nil
}

// Start polls our inbox into Events until Close is called or ctx is done.
// Events is closed when polling stops.
func (c *Client) Start(ctx context.Context) {
	c.stop = make(chan struct{})
	c.done = make(chan struct{})
	go c.pollLoop(ctx)
}

// Close stops polling and leaves the topic.
func (c *Client) Close(ctx context.Context) error {
	if c.stop != nil {
		select {
		case <-c.stop:
		default:
			close(c.stop)
		}
		<-c.done
	}
	self := c.Self()
	if self == "" {
		return nil
	}
	err := c.do(ctx, http.MethodDelete, c.topicPath("/peers/"+url.PathEscape(self.String())), nil, nil)
	if errors.Is(err, ErrNotMember) {
		return nil
	}
	return err
}

// Self returns the identifier the relay assigned on Join.
func (c *Client) Self() domain.PeerID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.id
}

// Broadcast publishes data to every other member of the topic.
func (c *Client) Broadcast(ctx context.Context, data string) error {
	return c.publish(ctx, "", data)
}

// SendTo publishes data to a single member.
func (c *Client) SendTo(ctx context.Context, to domain.PeerID, data string) error {
	if to == "" {
		return fmt.Errorf("relay send: empty recipient")
	}
	return c.publish(ctx, to, data)
}

// Peers lists the other members of the topic.
func (c *Client) Peers(ctx context.Context) ([]domain.PeerID, error) {
	var ids []string
	if err := c.do(ctx, http.MethodGet, c.topicPath("/peers"), nil, &ids); err != nil {
		return nil, err
	}
	self := c.Self()
	out := make([]domain.PeerID, 0, len(ids))
	for _, id := range ids {
		if domain.PeerID(id) != self {
			out = append(out, domain.PeerID(id))
		}
	}
	return out, nil
}

// Events streams inbox events in arrival order. After the relay forgets us
// and we rejoin under a new id, a join event whose From is our new Self is
// delivered so that the owner can announce itself again.
func (c *Client) Events() <-chan domain.TransportEvent { return c.events }

// FetchEvents returns up to limit queued events without removing them.
func (c *Client) FetchEvents(ctx context.Context, limit int) ([]Event, error) {
	self := c.Self()
	if self == "" {
		return nil, ErrNotJoined
	}
	p := c.topicPath("/peers/" + url.PathEscape(self.String()) + "/inbox")
	if limit > 0 {
		p += "?limit=" + strconv.Itoa(limit)
	}
	var out []Event
	if err := c.do(ctx, http.MethodGet, p, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AckEvents drops every queued event up to and including sequence upTo.
func (c *Client) AckEvents(ctx context.Context, upTo uint64) error {
	self := c.Self()
	if self == "" {
		return ErrNotJoined
	}
	p := c.topicPath("/peers/" + url.PathEscape(self.String()) + "/inbox/ack")
	return c.do(ctx, http.MethodPost, p, AckRequest{UpTo: upTo}, nil)
}

func (c *Client) publish(ctx context.Context, to domain.PeerID, data string) error {
	self := c.Self()
	if self == "" {
		return ErrNotJoined
	}
	return c.do(ctx, http.MethodPost, c.topicPath("/messages"), PostMessage{
		From: self.String(),
		To:   to.String(),
		Data: data,
	}, nil)
}

func (c *Client) pollLoop(ctx context.Context) {
	defer close(c.done)
	defer close(c.events)

	t := time.NewTicker(c.PollInterval)
	defer t.Stop()
	for {
		if err := c.pollOnce(ctx); err != nil {
			if errors.Is(err, ErrNotMember) {
				c.log.Warn().Msg("relay forgot us; rejoining")
				if err := c.Join(ctx); err != nil {
					c.log.Error().Err(err).Msg("rejoin failed")
				} else if !c.deliver(ctx, domain.TransportEvent{Kind: domain.EventJoin, From: c.Self()}) {
					return
				}
			} else if ctx.Err() == nil {
				c.log.Warn().Err(err).Msg("poll failed")
			}
		}
		select {
		case <-ctx.Done():
			return
		case <-c.stop:
			return
		case <-t.C:
		}
	}
}

func (c *Client) pollOnce(ctx context.Context) error {
	evs, err := c.FetchEvents(ctx, c.BatchSize)
	if err != nil {
		return err
	}
	var last uint64
	for _, ev := range evs {
		te, ok := toTransportEvent(ev)
		if !ok {
			c.log.Warn().Str("kind", ev.Kind).Msg("skipping unknown event kind")
			last = ev.Seq
			continue
		}
		if !c.deliver(ctx, te) {
			break
		}
		last = ev.Seq
	}
	if last == 0 {
		return nil
	}
	return c.AckEvents(context.WithoutCancel(ctx), last)
}

// deliver hands ev to Events. It reports false when polling is stopping.
func (c *Client) deliver(ctx context.Context, ev domain.TransportEvent) bool {
	select {
	case c.events <- ev:
		return true
	case <-ctx.Done():
		return false
	case <-c.stop:
		return false
	}
}

func toTransportEvent(ev Event) (domain.TransportEvent, bool) {
	var kind domain.EventKind
	switch ev.Kind {
	case KindMessage:
		kind = domain.EventMessage
	case KindJoin:
		kind = domain.EventJoin
	case KindLeave:
		kind = domain.EventLeave
	default:
		return domain.TransportEvent{}, false
	}
	return domain.TransportEvent{Kind: kind, From: domain.PeerID(ev.From), Data: ev.Data}, true
}

func (c *Client) topicPath(suffix string) string {
	return "/topics/" + url.PathEscape(c.Topic) + suffix
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body *bytes.Buffer
	if in != nil {
		body = new(bytes.Buffer)
		if err := json.NewEncoder(body).Encode(in); err != nil {
			return err
		}
	}
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequestWithContext(ctx, method, c.Base+path, body)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, c.Base+path, nil)
	}
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.mu.RLock()
	token := c.token
	c.mu.RUnlock()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: relay %s %s: %s", ErrNotMember, method, path, resp.Status)
	}
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("relay %s %s: %s", method, path, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

// Compile-time assertion that Client implements domain.Transport.
var _ domain.Transport = (*Client)(nil)
