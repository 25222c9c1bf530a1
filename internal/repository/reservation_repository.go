package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"hotel-booking/internal/apperror"
	"hotel-booking/internal/database"
	"hotel-booking/internal/models"
	"hotel-booking/internal/pricing"

	"github.com/google/uuid"
)

const reservationColumns = `id, user_id, hotel_id, hotel_name, check_in, check_out, guests_adults, guests_children, rooms,
		       total_nights, price_per_night, subtotal, taxes, total_amount, price_breakdown, status,
		       guest_name, guest_email, guest_phone, special_requests, created_at, updated_at, cancelled_at`

// ReservationRepository хранит бронирования в PostgreSQL
type ReservationRepository struct {
	db *database.DB
}

// NewReservationRepository создает репозиторий бронирований
func NewReservationRepository(db *database.DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

// Create сохраняет бронирование вместе с детализацией цены
func (r *ReservationRepository) Create(ctx context.Context, res *models.Reservation) error {
	breakdown, err := encodeBreakdown(res.Breakdown)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO reservations (id, user_id, hotel_id, hotel_name, check_in, check_out, guests_adults, guests_children, rooms,
		                          total_nights, price_per_night, subtotal, taxes, total_amount, price_breakdown, status,
		                          guest_name, guest_email, guest_phone, special_requests, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
	`
	_, err = r.db.ExecContext(ctx, query, res.ID, res.UserID, res.HotelID, res.HotelName, res.CheckIn, res.CheckOut,
		res.GuestsAdults, res.GuestsChildren, res.Rooms, res.TotalNights, res.PricePerNight, res.Subtotal, res.Taxes,
		res.TotalAmount, breakdown, res.Status, res.GuestName, res.GuestEmail, res.GuestPhone, res.SpecialRequests,
		res.CreatedAt, res.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create reservation: %w", err)
	}
	return nil
}

// GetByID возвращает бронирование по ID
func (r *ReservationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1`

	res, err := scanReservation(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("reservation not found", err)
		}
		return nil, fmt.Errorf("failed to get reservation: %w", err)
	}
	return res, nil
}

// List возвращает бронирования по фильтру, новые первыми
func (r *ReservationRepository) List(ctx context.Context, filter models.ReservationFilter) ([]*models.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE 1=1`
	args := []interface{}{}
	argIndex := 1

	if filter.UserID != "" {
		query += fmt.Sprintf(" AND user_id = $%d", argIndex)
		args = append(args, filter.UserID)
		argIndex++
	}
	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argIndex)
		args = append(args, *filter.Status)
		argIndex++
	}
	if filter.HotelID != nil {
		query += fmt.Sprintf(" AND hotel_id = $%d", argIndex)
		args = append(args, *filter.HotelID)
		argIndex++
	}

	query += " ORDER BY created_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, filter.Limit)
		argIndex++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIndex)
		args = append(args, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list reservations: %w", err)
	}
	defer rows.Close()

	reservations := []*models.Reservation{}
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reservation: %w", err)
		}
		reservations = append(reservations, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reservations: %w", err)
	}
	return reservations, nil
}

// UpdateStatus переводит бронирование из статуса from в статус to.
// Если статус успел измениться, возвращается Conflict.
func (r *ReservationRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.ReservationStatus, at time.Time) error {
	var cancelledAt *time.Time
	if to == models.ReservationStatusCancelled {
		cancelledAt = &at
	}

	query := `
		UPDATE reservations
		SET status = $1, updated_at = $2, cancelled_at = COALESCE($3, cancelled_at)
		WHERE id = $4 AND status = $5
	`
	result, err := r.db.ExecContext(ctx, query, to, at, cancelledAt, id, from)
	if err != nil {
		return fmt.Errorf("failed to update reservation status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.Conflict("reservation status was changed concurrently", nil)
	}
	return nil
}

// Stats считает показатели бронирований, созданных в интервале [From, To)
func (r *ReservationRepository) Stats(ctx context.Context, filter models.StatsFilter) (*models.ReservationStats, error) {
	stats := &models.ReservationStats{From: filter.From, To: filter.To, TopHotels: []models.HotelRevenue{}}

	summaryQuery := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = $3),
		       COALESCE(SUM(total_amount) FILTER (WHERE status <> $3), 0),
		       COALESCE(SUM(total_nights) FILTER (WHERE status <> $3), 0),
		       COALESCE(SUM(subtotal) FILTER (WHERE status <> $3), 0)
		FROM reservations
		WHERE created_at >= $1 AND created_at < $2
	`
	var subtotal float64
	err := r.db.QueryRowContext(ctx, summaryQuery, filter.From, filter.To, models.ReservationStatusCancelled).Scan(
		&stats.ReservationsCount, &stats.CancelledCount, &stats.Revenue, &stats.TotalNights, &subtotal)
	if err != nil {
		return nil, fmt.Errorf("failed to get reservation stats: %w", err)
	}
	if stats.TotalNights > 0 {
		stats.AverageNightlyRate = pricing.Round2(subtotal / float64(stats.TotalNights))
	}
	stats.Revenue = pricing.Round2(stats.Revenue)

	if filter.TopHotelLimit <= 0 {
		return stats, nil
	}

	topQuery := `
		SELECT hotel_id, hotel_name, COUNT(*), COALESCE(SUM(total_amount), 0) AS revenue
		FROM reservations
		WHERE created_at >= $1 AND created_at < $2 AND status <> $3
		GROUP BY hotel_id, hotel_name
		ORDER BY revenue DESC
		LIMIT $4
	`
	rows, err := r.db.QueryContext(ctx, topQuery, filter.From, filter.To, models.ReservationStatusCancelled, filter.TopHotelLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to get top hotels: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.HotelRevenue
		if err := rows.Scan(&item.HotelID, &item.HotelName, &item.Reservations, &item.Revenue); err != nil {
			return nil, fmt.Errorf("failed to scan top hotel: %w", err)
		}
		item.Revenue = pricing.Round2(item.Revenue)
		stats.TopHotels = append(stats.TopHotels, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate top hotels: %w", err)
	}

	return stats, nil
}

func scanReservation(row rowScanner) (*models.Reservation, error) {
	res := &models.Reservation{}
	var breakdown []byte
	err := row.Scan(&res.ID, &res.UserID, &res.HotelID, &res.HotelName, &res.CheckIn, &res.CheckOut,
		&res.GuestsAdults, &res.GuestsChildren, &res.Rooms, &res.TotalNights, &res.PricePerNight, &res.Subtotal,
		&res.Taxes, &res.TotalAmount, &breakdown, &res.Status, &res.GuestName, &res.GuestEmail, &res.GuestPhone,
		&res.SpecialRequests, &res.CreatedAt, &res.UpdatedAt, &res.CancelledAt)
	if err != nil {
		return nil, err
	}
	if len(breakdown) > 0 {
		res.Breakdown = &pricing.Breakdown{}
		if err := json.Unmarshal(breakdown, res.Breakdown); err != nil {
			return nil, fmt.Errorf("failed to decode price breakdown: %w", err)
		}
	}
	return res, nil
}

// encodeBreakdown готовит JSONB параметр. lib/pq передаёт []byte как bytea, поэтому строка.
func encodeBreakdown(b *pricing.Breakdown) (interface{}, error) {
	if b == nil {
		return nil, nil
	}
	data, err := json.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("failed to encode price breakdown: %w", err)
	}
	return string(data), nil
}
