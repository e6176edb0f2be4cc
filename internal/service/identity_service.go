package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/vogiaan1904/ticketbottle-booking/internal/client/auth"
	"github.com/vogiaan1904/ticketbottle-booking/pkg/breaker"
	"github.com/vogiaan1904/ticketbottle-booking/pkg/logger"
	"github.com/vogiaan1904/ticketbottle-booking/pkg/retry"
)

type implIdentityService struct {
	l       logger.Logger
	authCli auth.Client
	brk     *breaker.Breaker
	retrier *retry.Retrier
}

func NewIdentityService(authCli auth.Client, brk *breaker.Breaker, retrier *retry.Retrier, l logger.Logger) IdentityService {
	return &implIdentityService{
		l:       l,
		authCli: authCli,
		brk:     brk,
		retrier: retrier,
	}
}

// Verify resolves a bearer token to a user id, retrying transient auth
// service failures. A rejected credential and an open breaker are both
// terminal; only network-level failures are retried.
func (s *implIdentityService) Verify(ctx context.Context, token string) (string, error) {
	var userID string

	err := s.retrier.Do(ctx, func(ctx context.Context) error {
		err := s.brk.Call(ctx, func(ctx context.Context) error {
			id, err := s.authCli.VerifyToken(ctx, token)
			if err != nil {
				return err
			}
			userID = id
			return nil
		})
		if err == nil {
			return nil
		}
		if errors.Is(err, auth.ErrInvalidCredential) || errors.Is(err, breaker.ErrCircuitOpen) {
			return retry.Permanent(err)
		}
		return err
	})
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredential) {
			return "", ErrUnauthorized
		}
		if errors.Is(err, breaker.ErrCircuitOpen) {
			return "", err
		}
		s.l.Errorf(ctx, "service.identity.Verify: %v", err)
		return "", fmt.Errorf("%w: %v", ErrDownstreamUnavailable, err)
	}

	return userID, nil
}
