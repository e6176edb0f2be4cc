// Package auth verifies bearer credentials against the authentication
// service.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/vogiaan1904/ticketbottle-booking/pkg/logger"
)

var ErrInvalidCredential = errors.New("invalid credential")

type Client interface {
	// VerifyToken validates a bearer token and returns the subject's user id.
	VerifyToken(ctx context.Context, token string) (string, error)
}

type Config struct {
	BaseURL   string
	Timeout   time.Duration
	JWTSecret string
}

type implClient struct {
	cfg  Config
	http *http.Client
	l    logger.Logger
}

func NewClient(cfg Config, l logger.Logger) Client {
	return &implClient{
		cfg:  cfg,
		http: &http.Client{},
		l:    l,
	}
}

type verifyResponse struct {
	UserID string `json:"user_id"`
}

// VerifyToken checks the token signature locally before asking the auth
// service whether the subject is still active. Garbage tokens never reach
// the network.
func (c *implClient) VerifyToken(ctx context.Context, token string) (string, error) {
	if _, err := c.parseToken(token); err != nil {
		return "", ErrInvalidCredential
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	url := fmt.Sprintf("%s/internal/v1/auth/verify", c.cfg.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return "", fmt.Errorf("auth.VerifyToken: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		c.l.Errorf(ctx, "auth.VerifyToken: %v", err)
		return "", fmt.Errorf("auth.VerifyToken: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return "", ErrInvalidCredential
	default:
		c.l.Errorf(ctx, "auth.VerifyToken: unexpected status %d", resp.StatusCode)
		return "", fmt.Errorf("auth.VerifyToken: unexpected status %d", resp.StatusCode)
	}

	var body verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("auth.VerifyToken: decode response: %w", err)
	}
	if body.UserID == "" {
		return "", ErrInvalidCredential
	}

	return body.UserID, nil
}

func (c *implClient) parseToken(token string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(c.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}
	return claims, nil
}
