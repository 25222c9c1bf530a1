package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"hotel-booking/internal/apperror"
	"hotel-booking/internal/database"
	"hotel-booking/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const hotelColumns = `id, name, description, city, country, address, star_rating, base_price,
		       max_guests_per_room, amenities, image_url, active, created_at, updated_at`

// HotelRepository хранит каталог отелей в PostgreSQL
type HotelRepository struct {
	db *database.DB
}

// NewHotelRepository создает репозиторий отелей
func NewHotelRepository(db *database.DB) *HotelRepository {
	return &HotelRepository{db: db}
}

// Create сохраняет новый отель
func (r *HotelRepository) Create(ctx context.Context, hotel *models.Hotel) error {
	query := `
		INSERT INTO hotels (id, name, description, city, country, address, star_rating, base_price,
		                    max_guests_per_room, amenities, image_url, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := r.db.ExecContext(ctx, query, hotel.ID, hotel.Name, hotel.Description, hotel.City, hotel.Country,
		hotel.Address, hotel.StarRating, hotel.BasePrice, hotel.MaxGuestsPerRoom, pq.Array(amenitiesOrEmpty(hotel.Amenities)),
		hotel.ImageURL, hotel.Active, hotel.CreatedAt, hotel.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create hotel: %w", err)
	}
	return nil
}

// GetByID возвращает отель, в том числе неактивный
func (r *HotelRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Hotel, error) {
	query := `SELECT ` + hotelColumns + ` FROM hotels WHERE id = $1`

	hotel, err := scanHotel(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("hotel not found", err)
		}
		return nil, fmt.Errorf("failed to get hotel: %w", err)
	}
	return hotel, nil
}

// Update перезаписывает изменяемые поля отеля
func (r *HotelRepository) Update(ctx context.Context, hotel *models.Hotel) error {
	query := `
		UPDATE hotels
		SET name = $1, description = $2, city = $3, country = $4, address = $5, star_rating = $6,
		    base_price = $7, max_guests_per_room = $8, amenities = $9, image_url = $10, active = $11, updated_at = $12
		WHERE id = $13
	`
	result, err := r.db.ExecContext(ctx, query, hotel.Name, hotel.Description, hotel.City, hotel.Country,
		hotel.Address, hotel.StarRating, hotel.BasePrice, hotel.MaxGuestsPerRoom, pq.Array(amenitiesOrEmpty(hotel.Amenities)),
		hotel.ImageURL, hotel.Active, hotel.UpdatedAt, hotel.ID)
	if err != nil {
		return fmt.Errorf("failed to update hotel: %w", err)
	}
	return requireAffected(result, "hotel not found")
}

// Deactivate снимает отель с продажи. Строка остаётся, на неё ссылаются бронирования.
func (r *HotelRepository) Deactivate(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `UPDATE hotels SET active = FALSE, updated_at = $1 WHERE id = $2 AND active`
	result, err := r.db.ExecContext(ctx, query, at, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate hotel: %w", err)
	}
	return requireAffected(result, "hotel not found")
}

// Search ищет отели по фильтру, сортируя по базовой цене
func (r *HotelRepository) Search(ctx context.Context, filter models.HotelFilter) ([]*models.Hotel, error) {
	query := `SELECT ` + hotelColumns + ` FROM hotels WHERE 1=1`
	args := []interface{}{}
	argIndex := 1

	if filter.OnlyActive {
		query += " AND active"
	}
	if city := strings.TrimSpace(filter.City); city != "" {
		query += fmt.Sprintf(" AND lower(city) = lower($%d)", argIndex)
		args = append(args, city)
		argIndex++
	}
	if filter.MinPrice != nil {
		query += fmt.Sprintf(" AND base_price >= $%d", argIndex)
		args = append(args, *filter.MinPrice)
		argIndex++
	}
	if filter.MaxPrice != nil {
		query += fmt.Sprintf(" AND base_price <= $%d", argIndex)
		args = append(args, *filter.MaxPrice)
		argIndex++
	}
	if filter.MinStars > 0 {
		query += fmt.Sprintf(" AND star_rating >= $%d", argIndex)
		args = append(args, filter.MinStars)
		argIndex++
	}
	if filter.Guests > 0 {
		query += fmt.Sprintf(" AND max_guests_per_room >= $%d", argIndex)
		args = append(args, filter.Guests)
		argIndex++
	}

	query += " ORDER BY base_price ASC, name ASC"

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
		return nil, fmt.Errorf("failed to search hotels: %w", err)
	}
	defer rows.Close()

	hotels := []*models.Hotel{}
	for rows.Next() {
		hotel, err := scanHotel(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan hotel: %w", err)
		}
		hotels = append(hotels, hotel)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate hotels: %w", err)
	}
	return hotels, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanHotel(row rowScanner) (*models.Hotel, error) {
	hotel := &models.Hotel{}
	var amenities pq.StringArray
	err := row.Scan(&hotel.ID, &hotel.Name, &hotel.Description, &hotel.City, &hotel.Country, &hotel.Address,
		&hotel.StarRating, &hotel.BasePrice, &hotel.MaxGuestsPerRoom, &amenities, &hotel.ImageURL,
		&hotel.Active, &hotel.CreatedAt, &hotel.UpdatedAt)
	if err != nil {
		return nil, err
	}
	hotel.Amenities = amenitiesOrEmpty(amenities)
	return hotel, nil
}

func amenitiesOrEmpty(a []string) []string {
	if a == nil {
		return []string{}
	}
	return a
}

func requireAffected(result sql.Result, notFoundMsg string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound(notFoundMsg, nil)
	}
	return nil
}
