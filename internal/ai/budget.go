package ai

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// BudgetChecker checks and records token usage per learner.
type BudgetChecker interface {
	// Check returns true if the user has budget remaining.
	Check(ctx context.Context, userID string) (bool, error)
	// Record adds token usage for a user.
	Record(ctx context.Context, userID string, tokens int) error
	// Usage returns current usage and limit for a user. A zero limit is unlimited.
	Usage(ctx context.Context, userID string) (used int64, limit int64, err error)
}

// InMemoryBudget is a process-local budget tracker for development and tests.
type InMemoryBudget struct {
	mu           sync.RWMutex
	defaultLimit int64
	limits       map[string]int64
	usage        map[string]int64
}

// NewInMemoryBudget creates a tracker where every user gets defaultLimit
// tokens. Zero means unlimited.
func NewInMemoryBudget(defaultLimit int64) *InMemoryBudget {
	return &InMemoryBudget{
		defaultLimit: defaultLimit,
		limits:       make(map[string]int64),
		usage:        make(map[string]int64),
	}
}

// SetLimit overrides the limit for one user.
func (b *InMemoryBudget) SetLimit(userID string, tokens int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.limits[userID] = tokens
}

func (b *InMemoryBudget) limit(userID string) int64 {
	if l, ok := b.limits[userID]; ok {
		return l
	}
	return b.defaultLimit
}

func (b *InMemoryBudget) Check(_ context.Context, userID string) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	limit := b.limit(userID)
	if limit <= 0 {
		return true, nil
	}
	return b.usage[userID] < limit, nil
}

func (b *InMemoryBudget) Record(_ context.Context, userID string, tokens int) error {
	if tokens < 0 {
		return fmt.Errorf("tokens must be non-negative, got %d", tokens)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.usage[userID] += int64(tokens)
	return nil
}

func (b *InMemoryBudget) Usage(_ context.Context, userID string) (int64, int64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.usage[userID], b.limit(userID), nil
}

// RedisBudget tracks usage in Redis/Dragonfly so limits hold across
// instances. Counters reset each window.
type RedisBudget struct {
	client redis.Cmdable
	limit  int64
	window time.Duration
	prefix string
	now    func() time.Time
}

// NewRedisBudget creates a shared tracker with limit tokens per window.
func NewRedisBudget(client redis.Cmdable, limit int64, window time.Duration) *RedisBudget {
	if window <= 0 {
		window = 24 * time.Hour
	}
	return &RedisBudget{
		client: client,
		limit:  limit,
		window: window,
		prefix: "quest:budget:",
		now:    time.Now,
	}
}

func (b *RedisBudget) key(userID string) string {
	bucket := b.now().UTC().Truncate(b.window).Unix()
	return fmt.Sprintf("%s%s:%d", b.prefix, userID, bucket)
}

func (b *RedisBudget) Check(ctx context.Context, userID string) (bool, error) {
	if b.limit <= 0 {
		return true, nil
	}
	used, _, err := b.Usage(ctx, userID)
	if err != nil {
		return false, err
	}
	return used < b.limit, nil
}

func (b *RedisBudget) Record(ctx context.Context, userID string, tokens int) error {
	if tokens < 0 {
		return fmt.Errorf("tokens must be non-negative, got %d", tokens)
	}
	key := b.key(userID)

	pipe := b.client.TxPipeline()
	pipe.IncrBy(ctx, key, int64(tokens))
	pipe.Expire(ctx, key, b.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("recording token usage: %w", err)
	}
	return nil
}

func (b *RedisBudget) Usage(ctx context.Context, userID string) (int64, int64, error) {
	used, err := b.client.Get(ctx, b.key(userID)).Int64()
	if err == redis.Nil {
		return 0, b.limit, nil
	}
	if err != nil {
		return 0, b.limit, fmt.Errorf("reading token usage: %w", err)
	}
	return used, b.limit, nil
}
