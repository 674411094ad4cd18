package notify

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

const (
	defaultBuffer       = 16
	defaultWriteTimeout = 5 * time.Second
)

// Hub is a Channel that pushes notifications to websocket subscribers.
// A learner may have several connections open; each gets every notification.
type Hub struct {
	mu           sync.Mutex
	subscribers  map[string]map[*subscriber]struct{}
	buffer       int
	writeTimeout time.Duration
	origins      []string
}

type subscriber struct {
	msgs      chan Notification
	closeSlow func()
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithBuffer sets how many notifications may queue for a subscriber
// before it is disconnected as too slow.
func WithBuffer(n int) HubOption {
	return func(h *Hub) {
		if n > 0 {
			h.buffer = n
		}
	}
}

// WithOriginPatterns allows cross-origin websocket clients matching the patterns.
func WithOriginPatterns(patterns ...string) HubOption {
	return func(h *Hub) {
		h.origins = patterns
	}
}

// NewHub creates an empty hub.
func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		subscribers:  make(map[string]map[*subscriber]struct{}),
		buffer:       defaultBuffer,
		writeTimeout: defaultWriteTimeout,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Send queues n for every connection of identityID. It never blocks:
// a subscriber whose queue is full is disconnected.
func (h *Hub) Send(_ context.Context, identityID string, n Notification) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for s := range h.subscribers[identityID] {
		select {
		case s.msgs <- n:
		default:
			go s.closeSlow()
		}
	}
	return nil
}

// Subscribers returns the number of open connections for identityID.
func (h *Hub) Subscribers(identityID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers[identityID])
}

// Serve upgrades the request to a websocket and streams notifications for
// identityID until the client goes away or ctx ends. Messages from the
// client are ignored.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, identityID string) error {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: h.origins})
	if err != nil {
		return err
	}
	defer conn.CloseNow()

	s := &subscriber{
		msgs: make(chan Notification, h.buffer),
		closeSlow: func() {
			conn.Close(websocket.StatusPolicyViolation, "connection too slow to keep up with notifications")
		},
	}
	h.add(identityID, s)
	defer h.remove(identityID, s)

	slog.Debug("notification subscriber connected", "identity", identityID)

	ctx := conn.CloseRead(r.Context())
	for {
		select {
		case n := <-s.msgs:
			if err := h.write(ctx, conn, n); err != nil {
				return err
			}
		case <-ctx.Done():
			err := ctx.Err()
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
	}
}

func (h *Hub) write(ctx context.Context, conn *websocket.Conn, n Notification) error {
	ctx, cancel := context.WithTimeout(ctx, h.writeTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, n)
}

func (h *Hub) add(identityID string, s *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.subscribers[identityID]
	if !ok {
		subs = make(map[*subscriber]struct{})
		h.subscribers[identityID] = subs
	}
	subs[s] = struct{}{}
}

func (h *Hub) remove(identityID string, s *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs := h.subscribers[identityID]
	delete(subs, s)
	if len(subs) == 0 {
		delete(h.subscribers, identityID)
	}
}
