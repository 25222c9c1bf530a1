package handlers

import (
	"context"

	"hotel-booking/internal/auth"
	"hotel-booking/internal/models"
	"hotel-booking/internal/services"

	"github.com/google/uuid"
)

// ----- Hotels -----

type HotelService interface {
	CreateHotel(ctx context.Context, req *models.CreateHotelRequest) (*models.Hotel, error)
	GetHotel(ctx context.Context, id uuid.UUID) (*models.Hotel, error)
	UpdateHotel(ctx context.Context, id uuid.UUID, req *models.UpdateHotelRequest) (*models.Hotel, error)
	DeleteHotel(ctx context.Context, id uuid.UUID) error
	SearchHotels(ctx context.Context, filter models.HotelFilter) ([]*models.Hotel, error)
}

// ----- Quotes -----

type QuoteService interface {
	Quote(stay models.StayRequest, basePrice float64) (*models.Quote, error)
	QuoteForHotel(ctx context.Context, hotelID uuid.UUID, stay models.StayRequest) (*models.Quote, error)
}

// ----- Reservations -----

type ReservationService interface {
	CreateReservation(ctx context.Context, userID string, req *models.CreateReservationRequest) (*models.Reservation, error)
	GetReservation(ctx context.Context, id uuid.UUID, principal *auth.Claims) (*models.Reservation, error)
	ListUserReservations(ctx context.Context, userID string, limit, offset int) ([]*models.Reservation, error)
	ListReservations(ctx context.Context, filter models.ReservationFilter) ([]*models.Reservation, error)
	CancelReservation(ctx context.Context, id uuid.UUID, principal *auth.Claims) (*models.Reservation, error)
	UpdateReservationStatus(ctx context.Context, id uuid.UUID, req *models.UpdateReservationStatusRequest) (*models.Reservation, error)
	ReservationPricing(ctx context.Context, id uuid.UUID, principal *auth.Claims) (*models.ReservationPricing, error)
}

// ----- Stats -----

type StatsProvider interface {
	GetStats(ctx context.Context, filter models.StatsFilter) (*models.ReservationStats, error)
}

// ----- Auth -----

type TokenParser interface {
	Parse(token string) (*auth.Claims, error)
}

// ----- Rate limit -----

// MiddlewareLimiter описывает контракт для rate limiter.
type MiddlewareLimiter interface {
	Allow(ctx context.Context, client string) (services.RateDecision, error)
	Enabled() bool
	Limit() int64
}

// RateLimitStatusProvider расширяет интерфейс для эндпоинта статуса.
type RateLimitStatusProvider interface {
	MiddlewareLimiter
	Usage(ctx context.Context, client string) (services.RateDecision, error)
}

// ----- Health -----

type DBHealth interface {
	Health() error
}

type RedisHealth interface {
	Health(ctx context.Context) error
}
