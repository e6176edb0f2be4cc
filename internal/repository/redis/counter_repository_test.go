package repository

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/vogiaan1904/ticketbottle-booking/pkg/logger"
)

func newCounterFixture(t *testing.T) (CounterRepository, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	cli := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { cli.Close() })

	return NewRedisCounterRepository(cli, logger.InitializeTestZapLogger()), mr
}

func TestIncrementWithCapStaysWithinBound(t *testing.T) {
	repo, _ := newCounterFixture(t)
	ctx := context.Background()

	held, current, err := repo.IncrementWithCap(ctx, "evt-1", 4, 10)
	if err != nil {
		t.Fatalf("IncrementWithCap: %v", err)
	}
	if !held || current != 4 {
		t.Fatalf("expected hold at 4, got held=%v current=%d", held, current)
	}

	// 4 + 7 would cross the bound of 10.
	held, current, err = repo.IncrementWithCap(ctx, "evt-1", 7, 10)
	if err != nil {
		t.Fatalf("IncrementWithCap: %v", err)
	}
	if held {
		t.Fatal("hold crossing the bound must be refused")
	}
	if current != 4 {
		t.Fatalf("refusal must not mutate the counter, got %d", current)
	}

	got, err := repo.Get(ctx, "evt-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != 4 {
		t.Fatalf("counter after refusal: want 4, got %d", got)
	}

	// Filling exactly to the bound is allowed.
	held, current, err = repo.IncrementWithCap(ctx, "evt-1", 6, 10)
	if err != nil {
		t.Fatalf("IncrementWithCap: %v", err)
	}
	if !held || current != 10 {
		t.Fatalf("expected counter to reach the bound, got held=%v current=%d", held, current)
	}
}

func TestDecrementByFloorsAtZero(t *testing.T) {
	repo, _ := newCounterFixture(t)
	ctx := context.Background()

	if _, _, err := repo.IncrementWithCap(ctx, "evt-1", 3, 10); err != nil {
		t.Fatalf("IncrementWithCap: %v", err)
	}

	// A duplicate compensation releases more than is held.
	val, err := repo.DecrementBy(ctx, "evt-1", 5)
	if err != nil {
		t.Fatalf("DecrementBy: %v", err)
	}
	if val != 0 {
		t.Fatalf("counter must floor at zero, got %d", val)
	}

	got, err := repo.Get(ctx, "evt-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != 0 {
		t.Fatalf("counter after floored release: want 0, got %d", got)
	}
}

func TestGetMissingCounterIsZero(t *testing.T) {
	repo, _ := newCounterFixture(t)

	got, err := repo.Get(context.Background(), "evt-unknown")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != 0 {
		t.Fatalf("untouched counter: want 0, got %d", got)
	}
}
