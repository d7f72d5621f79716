package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"
)

type failingStats struct{ err error }

func (f failingStats) Record(context.Context, StatsEvent) error { return f.err }

func TestMemoryStats(t *testing.T) {
	s := NewMemoryStats(WithTrackKeys(true))
	ctx := context.Background()
	_ = s.Record(ctx, StatsEvent{Key: "a", Allowed: true, Method: "POST", Path: "/api/game/start"})
	_ = s.Record(ctx, StatsEvent{Key: "a", Allowed: false, Method: "POST", Path: "/api/game/start"})
	_ = s.Record(ctx, StatsEvent{Key: "b", Allowed: true, Method: "POST", Path: "/api/game/x/submit"})

	if got := s.Total(); got.Allowed != 2 || got.Denied != 1 {
		t.Fatalf("total = %+v", got)
	}
	if got := s.ByRoute()["POST /api/game/start"]; got.Allowed != 1 || got.Denied != 1 {
		t.Fatalf("route = %+v", got)
	}
	if got := s.ByKey()["a"]; got.Allowed != 1 || got.Denied != 1 {
		t.Fatalf("key = %+v", got)
	}
}

func TestMemoryStatsWithoutKeyTracking(t *testing.T) {
	s := NewMemoryStats()
	_ = s.Record(context.Background(), StatsEvent{Key: "a", Allowed: true})
	if len(s.ByKey()) != 0 {
		t.Fatal("keys should not be tracked by default")
	}
}

func TestTeeRecordsEverywhere(t *testing.T) {
	boom := errors.New("boom")
	mem := NewMemoryStats()
	err := Tee{failingStats{err: boom}, mem}.Record(context.Background(), StatsEvent{Allowed: true})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if mem.Total().Allowed != 1 {
		t.Fatal("expected the memory store to record despite the failure")
	}
}

func TestRedisStatsNilClientIsNoop(t *testing.T) {
	s := NewRedisStats(nil)
	if err := s.Record(context.Background(), StatsEvent{Allowed: true}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func TestRedisStatsMinuteKey(t *testing.T) {
	s := NewRedisStats(nil, WithStatsPrefix(":game:rl:"))
	at := time.Date(2024, 3, 9, 14, 5, 59, 0, time.UTC)
	if got := s.MinuteKey(at); got != "game:rl:minute:202403091405" {
		t.Fatalf("MinuteKey = %q", got)
	}
}
