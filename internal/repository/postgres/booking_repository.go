package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vogiaan1904/ticketbottle-booking/internal/models"
	"github.com/vogiaan1904/ticketbottle-booking/pkg/logger"
)

var ErrBookingNotFound = errors.New("booking not found")

type BookingRepository interface {
	Create(ctx context.Context, bk *models.Booking) error
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	ListByUser(ctx context.Context, userID string) ([]models.Booking, error)
	UpdateStatus(ctx context.Context, id string, status models.BookingStatus) error
}

type postgresBookingRepository struct {
	pool *pgxpool.Pool
	l    logger.Logger
}

func NewPostgresBookingRepository(pool *pgxpool.Pool, l logger.Logger) BookingRepository {
	return &postgresBookingRepository{
		pool: pool,
		l:    l,
	}
}

func (r *postgresBookingRepository) Create(ctx context.Context, bk *models.Booking) error {
	query := `
		INSERT INTO bookings (id, user_id, event_id, seats, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.pool.Exec(ctx, query,
		bk.ID,
		bk.UserID,
		bk.EventID,
		bk.Seats,
		string(bk.Status),
		bk.CreatedAt,
		bk.UpdatedAt,
	)
	if err != nil {
		r.l.Errorf(ctx, "postgresBookingRepository.Create: %v", err)
		return fmt.Errorf("failed to create booking: %w", err)
	}

	return nil
}

func (r *postgresBookingRepository) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	query := `
		SELECT id, user_id, event_id, seats, status, created_at, updated_at
		FROM bookings
		WHERE id = $1
	`

	bk, err := scanBooking(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		r.l.Errorf(ctx, "postgresBookingRepository.GetByID: %v", err)
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}

	return bk, nil
}

func (r *postgresBookingRepository) ListByUser(ctx context.Context, userID string) ([]models.Booking, error) {
	query := `
		SELECT id, user_id, event_id, seats, status, created_at, updated_at
		FROM bookings
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		r.l.Errorf(ctx, "postgresBookingRepository.ListByUser: %v", err)
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	bookings := make([]models.Booking, 0)
	for rows.Next() {
		bk, err := scanBooking(rows)
		if err != nil {
			r.l.Errorf(ctx, "postgresBookingRepository.ListByUser: %v", err)
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, *bk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}

	return bookings, nil
}

func (r *postgresBookingRepository) UpdateStatus(ctx context.Context, id string, status models.BookingStatus) error {
	query := `
		UPDATE bookings
		SET status = $2, updated_at = $3
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, id, string(status), time.Now().UTC())
	if err != nil {
		r.l.Errorf(ctx, "postgresBookingRepository.UpdateStatus: %v", err)
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrBookingNotFound
	}

	return nil
}

func scanBooking(row pgx.Row) (*models.Booking, error) {
	var bk models.Booking
	var status string

	if err := row.Scan(
		&bk.ID,
		&bk.UserID,
		&bk.EventID,
		&bk.Seats,
		&status,
		&bk.CreatedAt,
		&bk.UpdatedAt,
	); err != nil {
		return nil, err
	}

	bk.Status = models.BookingStatus(status)
	return &bk, nil
}
