package service

import (
	"context"
	"time"

	redisrepo "github.com/vogiaan1904/ticketbottle-booking/internal/repository/redis"
	"github.com/vogiaan1904/ticketbottle-booking/pkg/logger"
)

const (
	ActionBook = "book"
	ActionRead = "read"
)

type RateLimitRule struct {
	Limit  int
	Window time.Duration
}

type implRateLimitService struct {
	l     logger.Logger
	repo  redisrepo.RateLimitRepository
	rules map[string]RateLimitRule
}

func NewRateLimitService(repo redisrepo.RateLimitRepository, rules map[string]RateLimitRule, l logger.Logger) RateLimitService {
	return &implRateLimitService{
		l:     l,
		repo:  repo,
		rules: rules,
	}
}

// Check admits or rejects a request under the action's sliding window. A
// failing backing store fails open: the request is admitted and the failure
// logged, trading strict enforcement for availability.
func (s *implRateLimitService) Check(ctx context.Context, action, identity string) RateLimitDecision {
	rule, ok := s.rules[action]
	if !ok {
		return RateLimitDecision{Allowed: true}
	}

	allowed, remaining, err := s.repo.IsAllowed(ctx, action, identity, rule.Limit, rule.Window)
	if err != nil {
		s.l.Errorf(ctx, "service.ratelimit.Check: failing open for %s/%s: %v", action, identity, err)
		return RateLimitDecision{
			Allowed: true,
			Limit:   rule.Limit,
			Window:  rule.Window,
		}
	}

	decision := RateLimitDecision{
		Allowed:   allowed,
		Limit:     rule.Limit,
		Window:    rule.Window,
		Remaining: remaining,
	}
	if !allowed {
		decision.RetryAfter = rule.Window
	}

	return decision
}
