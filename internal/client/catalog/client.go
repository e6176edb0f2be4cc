// Package catalog talks to the catalog service, the authoritative source
// of event capacity.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/vogiaan1904/ticketbottle-booking/pkg/logger"
)

var ErrCommitRejected = errors.New("capacity commit rejected")

type Client interface {
	// GetCapacity returns the remaining authoritative capacity for an event.
	GetCapacity(ctx context.Context, eventID string) (int64, error)
	// CommitSeats decrements authoritative capacity by seats.
	CommitSeats(ctx context.Context, eventID string, seats int) error
}

type Config struct {
	BaseURL         string
	CapacityTimeout time.Duration
	CommitTimeout   time.Duration
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

type capacityResponse struct {
	EventID  string `json:"event_id"`
	Capacity int64  `json:"capacity"`
}

type commitRequest struct {
	Seats int `json:"seats"`
}

func (c *implClient) GetCapacity(ctx context.Context, eventID string) (int64, error) {
	// Bounded separately from the commit call; a slow read must not eat
	// the whole request budget.
	ctx, cancel := context.WithTimeout(ctx, c.cfg.CapacityTimeout)
	defer cancel()

	url := fmt.Sprintf("%s/internal/v1/events/%s/capacity", c.cfg.BaseURL, eventID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("catalog.GetCapacity: build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.l.Errorf(ctx, "catalog.GetCapacity: %v", err)
		return 0, fmt.Errorf("catalog.GetCapacity: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.l.Errorf(ctx, "catalog.GetCapacity: unexpected status %d", resp.StatusCode)
		return 0, fmt.Errorf("catalog.GetCapacity: unexpected status %d", resp.StatusCode)
	}

	var body capacityResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("catalog.GetCapacity: decode response: %w", err)
	}

	return body.Capacity, nil
}

func (c *implClient) CommitSeats(ctx context.Context, eventID string, seats int) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.CommitTimeout)
	defer cancel()

	payload, err := json.Marshal(commitRequest{Seats: seats})
	if err != nil {
		return fmt.Errorf("catalog.CommitSeats: marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/internal/v1/events/%s/capacity/commit", c.cfg.BaseURL, eventID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("catalog.CommitSeats: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.l.Errorf(ctx, "catalog.CommitSeats: %v", err)
		return fmt.Errorf("catalog.CommitSeats: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		return nil
	case http.StatusConflict:
		return ErrCommitRejected
	default:
		c.l.Errorf(ctx, "catalog.CommitSeats: unexpected status %d", resp.StatusCode)
		return fmt.Errorf("catalog.CommitSeats: unexpected status %d", resp.StatusCode)
	}
}
