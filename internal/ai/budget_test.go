package ai

import (
	"context"
	"testing"
	"time"
)

func TestInMemoryBudget_Unlimited(t *testing.T) {
	b := NewInMemoryBudget(0)

	if err := b.Record(context.Background(), "user1", 1_000_000); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	ok, err := b.Check(context.Background(), "user1")
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if !ok {
		t.Error("Check() = false, want true (zero limit means unlimited)")
	}
}

func TestInMemoryBudget_WithinBudget(t *testing.T) {
	b := NewInMemoryBudget(1000)

	if err := b.Record(context.Background(), "user1", 500); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	ok, err := b.Check(context.Background(), "user1")
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if !ok {
		t.Error("Check() = false, want true (500 < 1000)")
	}
}

func TestInMemoryBudget_OverBudget(t *testing.T) {
	b := NewInMemoryBudget(1000)
	b.SetLimit("user1", 100)

	if err := b.Record(context.Background(), "user1", 150); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	ok, _ := b.Check(context.Background(), "user1")
	if ok {
		t.Error("Check() = true, want false (150 >= 100)")
	}

	// Other users keep the default limit.
	ok, _ = b.Check(context.Background(), "user2")
	if !ok {
		t.Error("Check(user2) = false, want true")
	}
}

func TestInMemoryBudget_NegativeTokens(t *testing.T) {
	b := NewInMemoryBudget(10)
	if err := b.Record(context.Background(), "user1", -1); err == nil {
		t.Error("Record() should reject negative tokens")
	}
}

func TestInMemoryBudget_Usage(t *testing.T) {
	b := NewInMemoryBudget(5000)
	b.Record(context.Background(), "user1", 1200)
	b.Record(context.Background(), "user1", 300)

	used, limit, err := b.Usage(context.Background(), "user1")
	if err != nil {
		t.Fatalf("Usage() error = %v", err)
	}
	if used != 1500 {
		t.Errorf("used = %d, want 1500", used)
	}
	if limit != 5000 {
		t.Errorf("limit = %d, want 5000", limit)
	}
}

func TestRedisBudget_KeyRotatesPerWindow(t *testing.T) {
	b := NewRedisBudget(nil, 100, time.Hour)
	b.now = func() time.Time { return time.Date(2026, 1, 1, 10, 15, 0, 0, time.UTC) }
	k1 := b.key("u")
	b.now = func() time.Time { return time.Date(2026, 1, 1, 10, 59, 0, 0, time.UTC) }
	k2 := b.key("u")
	b.now = func() time.Time { return time.Date(2026, 1, 1, 11, 0, 0, 0, time.UTC) }
	k3 := b.key("u")

	if k1 != k2 {
		t.Errorf("keys within one window differ: %q vs %q", k1, k2)
	}
	if k2 == k3 {
		t.Errorf("key did not rotate at the window boundary: %q", k3)
	}
}

func TestRedisBudget_UnlimitedSkipsRedis(t *testing.T) {
	b := NewRedisBudget(nil, 0, 0)
	ok, err := b.Check(context.Background(), "u")
	if err != nil || !ok {
		t.Errorf("Check() = %v, %v; want true, nil", ok, err)
	}
	if b.window != 24*time.Hour {
		t.Errorf("window = %v, want 24h default", b.window)
	}
}
