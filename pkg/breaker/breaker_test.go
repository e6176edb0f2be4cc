package breaker

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errDownstream = errors.New("downstream failed")

func failingOp(calls *int) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		*calls++
		return errDownstream
	}
}

func TestBreakerOpensAfterThreshold(t *testing.T) {
	b := New("test", 3, time.Minute)
	ctx := context.Background()

	calls := 0
	for i := 0; i < 3; i++ {
		if err := b.Call(ctx, failingOp(&calls)); !errors.Is(err, errDownstream) {
			t.Fatalf("call %d: got %v, want downstream error", i, err)
		}
	}
	if calls != 3 {
		t.Fatalf("op invoked %d times, want 3", calls)
	}
	if got := b.State(); got != StateOpen {
		t.Fatalf("state = %v, want open", got)
	}

	err := b.Call(ctx, failingOp(&calls))
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("got %v, want ErrCircuitOpen", err)
	}
	if calls != 3 {
		t.Fatalf("open breaker invoked op, calls = %d", calls)
	}
}

func TestBreakerSuccessResetsFailures(t *testing.T) {
	b := New("test", 3, time.Minute)
	ctx := context.Background()

	calls := 0
	b.Call(ctx, failingOp(&calls))
	b.Call(ctx, failingOp(&calls))
	if err := b.Call(ctx, func(ctx context.Context) error { return nil }); err != nil {
		t.Fatalf("success call: %v", err)
	}

	// Two more failures should not trip a threshold of three.
	b.Call(ctx, failingOp(&calls))
	b.Call(ctx, failingOp(&calls))
	if got := b.State(); got != StateClosed {
		t.Fatalf("state = %v, want closed", got)
	}
}

func TestBreakerRecoversViaHalfOpen(t *testing.T) {
	now := time.Unix(1000, 0)
	b := New("test", 1, 30*time.Second)
	b.now = func() time.Time { return now }
	ctx := context.Background()

	calls := 0
	b.Call(ctx, failingOp(&calls))
	if got := b.State(); got != StateOpen {
		t.Fatalf("state = %v, want open", got)
	}

	// Before the recovery timeout the breaker fails fast.
	now = now.Add(10 * time.Second)
	if err := b.Call(ctx, failingOp(&calls)); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("got %v, want ErrCircuitOpen", err)
	}
	if calls != 1 {
		t.Fatalf("op invoked while open, calls = %d", calls)
	}

	// After the timeout exactly one probe runs; success closes the breaker.
	now = now.Add(30 * time.Second)
	if err := b.Call(ctx, func(ctx context.Context) error { return nil }); err != nil {
		t.Fatalf("probe call: %v", err)
	}
	if got := b.State(); got != StateClosed {
		t.Fatalf("state = %v, want closed", got)
	}
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	now := time.Unix(1000, 0)
	b := New("test", 1, 30*time.Second)
	b.now = func() time.Time { return now }
	ctx := context.Background()

	calls := 0
	b.Call(ctx, failingOp(&calls))
	now = now.Add(time.Minute)

	if err := b.Call(ctx, failingOp(&calls)); !errors.Is(err, errDownstream) {
		t.Fatalf("probe: got %v, want downstream error", err)
	}
	if got := b.State(); got != StateOpen {
		t.Fatalf("state = %v, want open after failed probe", got)
	}

	// The failure clock restarts from the failed probe.
	now = now.Add(10 * time.Second)
	if err := b.Call(ctx, failingOp(&calls)); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("got %v, want ErrCircuitOpen", err)
	}
}

func TestBreakerHalfOpenAllowsSingleProbe(t *testing.T) {
	now := time.Unix(1000, 0)
	b := New("test", 1, 30*time.Second)
	b.now = func() time.Time { return now }
	ctx := context.Background()

	b.Call(ctx, func(ctx context.Context) error { return errDownstream })
	now = now.Add(time.Minute)

	var concurrent error
	err := b.Call(ctx, func(ctx context.Context) error {
		// A second call arriving while the probe is in flight must fail fast.
		concurrent = b.Call(ctx, func(ctx context.Context) error { return nil })
		return nil
	})
	if err != nil {
		t.Fatalf("probe call: %v", err)
	}
	if !errors.Is(concurrent, ErrCircuitOpen) {
		t.Fatalf("concurrent call during probe: got %v, want ErrCircuitOpen", concurrent)
	}
}
