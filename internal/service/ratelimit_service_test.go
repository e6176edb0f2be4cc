package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vogiaan1904/ticketbottle-booking/pkg/logger"
)

type mockRateLimitRepo struct {
	isAllowedFn func(ctx context.Context, action, identity string, limit int, window time.Duration) (bool, int, error)
}

func (m *mockRateLimitRepo) IsAllowed(ctx context.Context, action, identity string, limit int, window time.Duration) (bool, int, error) {
	return m.isAllowedFn(ctx, action, identity, limit, window)
}

func testRules() map[string]RateLimitRule {
	return map[string]RateLimitRule{
		ActionBook: {Limit: 5, Window: 300 * time.Second},
	}
}

func TestRateLimitCheckAllowed(t *testing.T) {
	repo := &mockRateLimitRepo{
		isAllowedFn: func(ctx context.Context, action, identity string, limit int, window time.Duration) (bool, int, error) {
			if action != ActionBook || identity != "user-1" {
				t.Errorf("unexpected key %s/%s", action, identity)
			}
			if limit != 5 || window != 300*time.Second {
				t.Errorf("unexpected rule limit=%d window=%v", limit, window)
			}
			return true, 4, nil
		},
	}
	svc := NewRateLimitService(repo, testRules(), logger.InitializeTestZapLogger())

	d := svc.Check(context.Background(), ActionBook, "user-1")
	if !d.Allowed {
		t.Fatal("expected admission")
	}
	if d.Remaining != 4 || d.Limit != 5 {
		t.Errorf("decision = %+v", d)
	}
}

func TestRateLimitCheckRejected(t *testing.T) {
	repo := &mockRateLimitRepo{
		isAllowedFn: func(ctx context.Context, action, identity string, limit int, window time.Duration) (bool, int, error) {
			return false, 0, nil
		},
	}
	svc := NewRateLimitService(repo, testRules(), logger.InitializeTestZapLogger())

	d := svc.Check(context.Background(), ActionBook, "user-1")
	if d.Allowed {
		t.Fatal("expected rejection")
	}
	if d.RetryAfter != 300*time.Second {
		t.Errorf("retry_after = %v, want window", d.RetryAfter)
	}
}

func TestRateLimitFailsOpenOnStoreError(t *testing.T) {
	repo := &mockRateLimitRepo{
		isAllowedFn: func(ctx context.Context, action, identity string, limit int, window time.Duration) (bool, int, error) {
			return false, 0, errors.New("redis down")
		},
	}
	svc := NewRateLimitService(repo, testRules(), logger.InitializeTestZapLogger())

	if d := svc.Check(context.Background(), ActionBook, "user-1"); !d.Allowed {
		t.Fatal("store failure must admit the request")
	}
}

func TestRateLimitUnknownActionAllowed(t *testing.T) {
	repo := &mockRateLimitRepo{
		isAllowedFn: func(ctx context.Context, action, identity string, limit int, window time.Duration) (bool, int, error) {
			t.Fatal("store consulted for unconfigured action")
			return false, 0, nil
		},
	}
	svc := NewRateLimitService(repo, testRules(), logger.InitializeTestZapLogger())

	if d := svc.Check(context.Background(), "unknown", "user-1"); !d.Allowed {
		t.Fatal("unconfigured action must be admitted")
	}
}
