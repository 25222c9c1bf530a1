package services

import (
	"context"
	"time"

	"hotel-booking/internal/models"

	"github.com/google/uuid"
)

// HotelStore описывает хранилище каталога отелей (PostgreSQL или память)
type HotelStore interface {
	Create(ctx context.Context, hotel *models.Hotel) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Hotel, error)
	Update(ctx context.Context, hotel *models.Hotel) error
	Deactivate(ctx context.Context, id uuid.UUID, at time.Time) error
	Search(ctx context.Context, filter models.HotelFilter) ([]*models.Hotel, error)
}

// ReservationStore описывает хранилище бронирований
type ReservationStore interface {
	Create(ctx context.Context, res *models.Reservation) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Reservation, error)
	List(ctx context.Context, filter models.ReservationFilter) ([]*models.Reservation, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.ReservationStatus, at time.Time) error
	Stats(ctx context.Context, filter models.StatsFilter) (*models.ReservationStats, error)
}

// HotelCache описывает кеш карточек отелей
type HotelCache interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Hotel, bool)
	Set(ctx context.Context, hotel *models.Hotel)
	Invalidate(ctx context.Context, id uuid.UUID)
}

// HotelEvents публикует изменения каталога
type HotelEvents interface {
	PublishHotelUpdated(hotel *models.Hotel) error
	PublishHotelDeleted(hotelID uuid.UUID) error
}

// ReservationEvents публикует изменения бронирований
type ReservationEvents interface {
	PublishReservationCreated(reservation *models.Reservation) error
	PublishReservationStatusChanged(reservationID, hotelID uuid.UUID, oldStatus, newStatus models.ReservationStatus) error
}

// CacheStore описывает JSON кеш в Redis
type CacheStore interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	DeleteByPrefix(ctx context.Context, prefix string) error
}

type hotelReader interface {
	GetHotel(ctx context.Context, id uuid.UUID) (*models.Hotel, error)
}
