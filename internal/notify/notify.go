// Package notify pushes quest notifications (plan ready, mission completed,
// level up, badge earned) to a learner's connected clients.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Kind identifies a notification.
type Kind string

const (
	KindPlanReady        Kind = "plan_ready"
	KindMissionCompleted Kind = "mission_completed"
	KindLevelUp          Kind = "level_up"
	KindBadgeEarned      Kind = "badge_earned"
)

// Notification is one message pushed to a learner.
type Notification struct {
	Kind Kind      `json:"kind"`
	Data any       `json:"data,omitempty"`
	At   time.Time `json:"at"`
}

// Channel delivers notifications over one transport.
type Channel interface {
	Send(ctx context.Context, identityID string, n Notification) error
}

// Gateway fans notifications out to every registered channel.
type Gateway struct {
	channels map[string]Channel
	mu       sync.RWMutex
	now      func() time.Time
}

// NewGateway creates a gateway with no channels.
func NewGateway() *Gateway {
	return &Gateway{
		channels: make(map[string]Channel),
		now:      time.Now,
	}
}

// Register adds a channel under name, replacing any channel with that name.
func (g *Gateway) Register(name string, ch Channel) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.channels[name] = ch
	slog.Info("notification channel registered", "channel", name)
}

// HasChannel returns true if the named channel is registered.
func (g *Gateway) HasChannel(name string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.channels[name]
	return ok
}

// Notify sends n to every channel. A zero At is stamped with the current time.
// Every channel is attempted; failures are joined.
func (g *Gateway) Notify(ctx context.Context, identityID string, n Notification) error {
	if n.At.IsZero() {
		n.At = g.now()
	}

	g.mu.RLock()
	channels := make(map[string]Channel, len(g.channels))
	for name, ch := range g.channels {
		channels[name] = ch
	}
	g.mu.RUnlock()

	var errs []error
	for name, ch := range channels {
		if err := ch.Send(ctx, identityID, n); err != nil {
			slog.Warn("notification not delivered",
				"channel", name,
				"kind", n.Kind,
				"error", err,
			)
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// Sent is one notification recorded by a MemoryChannel.
type Sent struct {
	IdentityID   string
	Notification Notification
}

// MemoryChannel records notifications for tests.
type MemoryChannel struct {
	mu   sync.Mutex
	sent []Sent
	Err  error
}

func (m *MemoryChannel) Send(_ context.Context, identityID string, n Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.sent = append(m.sent, Sent{IdentityID: identityID, Notification: n})
	return nil
}

// Sent returns everything recorded so far.
func (m *MemoryChannel) Sent() []Sent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Sent(nil), m.sent...)
}

// Kinds returns the kinds recorded so far, in order.
func (m *MemoryChannel) Kinds() []Kind {
	m.mu.Lock()
	defer m.mu.Unlock()
	kinds := make([]Kind, len(m.sent))
	for i, s := range m.sent {
		kinds[i] = s.Notification.Kind
	}
	return kinds
}
