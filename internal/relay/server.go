package relay

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const (
	// DefaultPeerTTL is how long a member may go without polling before it
	// is reaped.
	DefaultPeerTTL = 30 * time.Second
	// DefaultInboxCap bounds each member's queue; the oldest events are
	// dropped first.
	DefaultInboxCap = 1024

	maxBodySize = 64 * 1024
)

// ServerConfig tunes a Server. Zero fields take the defaults.
type ServerConfig struct {
	PeerTTL  time.Duration
	InboxCap int
}

type member struct {
	token    string
	inbox    []Event
	nextSeq  uint64
	lastSeen time.Time
}

// Server is an in-memory topic relay.
type Server struct {
	mu       sync.Mutex
	topics   map[string]map[string]*member
	ttl      time.Duration
	inboxCap int
	now      func() time.Time
	log      zerolog.Logger
}

// NewServer returns an empty relay.
func NewServer(cfg ServerConfig, log zerolog.Logger) *Server {
	if cfg.PeerTTL <= 0 {
		cfg.PeerTTL = DefaultPeerTTL
	}
	if cfg.InboxCap <= 0 {
		cfg.InboxCap = DefaultInboxCap
	}
	return &Server{
		topics:   make(map[string]map[string]*member),
		ttl:      cfg.PeerTTL,
		inboxCap: cfg.InboxCap,
		now:      time.Now,
		log:      log,
	}
}

// Handler returns the HTTP API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/topics/{topic}", func(r chi.Router) {
		r.Post("/peers", s.join)
		r.Get("/peers", s.peers)
		r.Delete("/peers/{id}", s.leave)
		r.Get("/peers/{id}/inbox", s.inbox)
		r.Post("/peers/{id}/inbox/ack", s.ack)
		r.Post("/messages", s.publish)
	})
	return r
}

// Run reaps idle members every interval until ctx is done.
func (s *Server) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := s.Reap(); n > 0 {
				s.log.Info().Int("reaped", n).Msg("reaped idle members")
			}
		}
	}
}

// Reap removes members that have not polled within the peer TTL, telling
// the rest of their topic that they left. It returns the number removed.
func (s *Server) Reap() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.ttl)
	n := 0
	for name, members := range s.topics {
		for id, m := range members {
			if m.lastSeen.Before(cutoff) {
				s.removeLocked(name, id)
				leavesTotal.WithLabelValues("reaped").Inc()
				n++
			}
		}
	}
	return n
}

func (s *Server) join(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "topic")
	id, token := uuid.NewString(), uuid.NewString()

	s.mu.Lock()
	members, ok := s.topics[name]
	if !ok {
		members = make(map[string]*member)
		s.topics[name] = members
	}
	s.fanoutLocked(members, id, Event{Kind: KindJoin, From: id})
	members[id] = &member{token: token, lastSeen: s.now()}
	s.mu.Unlock()

	joinsTotal.Inc()
	membersGauge.Inc()
	s.log.Debug().Str("topic", name).Str("peer", id).Msg("joined")
	writeJSON(w, http.StatusCreated, JoinResponse{ID: id, Token: token})
}

func (s *Server) leave(w http.ResponseWriter, r *http.Request) {
	name, id := chi.URLParam(r, "topic"), chi.URLParam(r, "id")
	token, ok := bearerToken(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	s.mu.Lock()
	_, status := s.authorizeLocked(name, id, token)
	if status == 0 {
		s.removeLocked(name, id)
	}
	s.mu.Unlock()

	if status != 0 {
		writeError(w, status, http.StatusText(status))
		return
	}
	leavesTotal.WithLabelValues("left").Inc()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) peers(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "topic")

	s.mu.Lock()
	out := make([]string, 0, len(s.topics[name]))
	for id := range s.topics[name] {
		out = append(out, id)
	}
	s.mu.Unlock()

	sort.Strings(out)
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) publish(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "topic")
	token, ok := bearerToken(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	var req PostMessage
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	from, status := s.authorizeLocked(name, req.From, token)
	switch status {
	case 0:
	case http.StatusNotFound:
		writeError(w, status, "sender is not a member")
		return
	default:
		writeError(w, status, "token does not belong to sender")
		return
	}
	from.lastSeen = s.now()

	members := s.topics[name]

	ev := Event{Kind: KindMessage, From: req.From, Data: req.Data}
	if req.To == "" {
		s.fanoutLocked(members, req.From, ev)
		messagesTotal.WithLabelValues("topic").Inc()
	} else {
		to, ok := members[req.To]
		if !ok {
			writeError(w, http.StatusNotFound, "recipient is not a member")
			return
		}
		s.enqueueLocked(to, ev)
		messagesTotal.WithLabelValues("addressed").Inc()
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) inbox(w http.ResponseWriter, r *http.Request) {
	name, id := chi.URLParam(r, "topic"), chi.URLParam(r, "id")
	token, ok := bearerToken(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	s.mu.Lock()
	m, status := s.authorizeLocked(name, id, token)
	var out []Event
	if status == 0 {
		m.lastSeen = s.now()
		out = m.inbox
		if limit > 0 && limit < len(out) {
			out = out[:limit]
		}
		out = append([]Event(nil), out...)
	}
	s.mu.Unlock()

	if status != 0 {
		writeError(w, status, http.StatusText(status))
		return
	}
	if out == nil {
		out = []Event{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) ack(w http.ResponseWriter, r *http.Request) {
	name, id := chi.URLParam(r, "topic"), chi.URLParam(r, "id")
	token, ok := bearerToken(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	var req AckRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid ack")
		return
	}

	s.mu.Lock()
	m, status := s.authorizeLocked(name, id, token)
	if status == 0 {
		m.lastSeen = s.now()
		// Sequence numbers only grow, so acked events form a prefix.
		n := 0
		for n < len(m.inbox) && m.inbox[n].Seq <= req.UpTo {
			n++
		}
		m.inbox = append([]Event(nil), m.inbox[n:]...)
	}
	s.mu.Unlock()

	if status != 0 {
		writeError(w, status, http.StatusText(status))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// authorizeLocked returns member id of topic name when token is its join
// token. Otherwise it returns the HTTP status to reject with: 404 for an
// unknown member, 403 for a token that belongs to someone else. Must be
// called with s.mu held.
func (s *Server) authorizeLocked(name, id, token string) (*member, int) {
	m, ok := s.topics[name][id]
	if !ok {
		return nil, http.StatusNotFound
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(m.token)) != 1 {
		return nil, http.StatusForbidden
	}
	return m, 0
}

// bearerToken extracts the token from an "Authorization: Bearer" header.
func bearerToken(r *http.Request) (string, bool) {
	const prefix = "Bearer "
	h := r.Header.Get("Authorization")
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(h[len(prefix):])
	return token, token != ""
}

// removeLocked must be called with s.mu held.
func (s *Server) removeLocked(name, id string) {
	members := s.topics[name]
	delete(members, id)
	membersGauge.Dec()
	s.fanoutLocked(members, id, Event{Kind: KindLeave, From: id})
	if len(members) == 0 {
		delete(s.topics, name)
	}
	s.log.Debug().Str("topic", name).Str("peer", id).Msg("left")
}

// fanoutLocked must be called with s.mu held.
func (s *Server) fanoutLocked(members map[string]*member, from string, ev Event) {
	for id, m := range members {
		if id == from {
			continue
		}
		s.enqueueLocked(m, ev)
	}
}

func (s *Server) enqueueLocked(m *member, ev Event) {
	m.nextSeq++
	ev.Seq = m.nextSeq
	ev.Timestamp = s.now().UnixMilli()
	if len(m.inbox) >= s.inboxCap {
		m.inbox = m.inbox[1:]
		droppedTotal.Inc()
	}
	m.inbox = append(m.inbox, ev)
}

// requestLogger logs one line per request and counts it by route pattern.
func requestLogger(logger zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				route := r.URL.Path
				if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
					route = rc.RoutePattern()
				}
				httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(ww.Status())).Inc()
				logger.Debug().
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Int("status", ww.Status()).
					Dur("latency", time.Since(start)).
					Str("request_id", middleware.GetReqID(r.Context())).
					Str("remote_addr", r.RemoteAddr).
					Msg("request completed")
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
