package models

import (
	"time"

	"hotel-booking/internal/pricing"

	"github.com/google/uuid"
)

// ReservationStatus представляет статус бронирования
type ReservationStatus string

const (
	ReservationStatusPending   ReservationStatus = "pending"
	ReservationStatusConfirmed ReservationStatus = "confirmed"
	ReservationStatusCompleted ReservationStatus = "completed"
	ReservationStatusCancelled ReservationStatus = "cancelled"
)

// Valid сообщает, известен ли статус.
func (s ReservationStatus) Valid() bool {
	switch s {
	case ReservationStatusPending, ReservationStatusConfirmed, ReservationStatusCompleted, ReservationStatusCancelled:
		return true
	default:
		return false
	}
}

// Reservation представляет бронирование
type Reservation struct {
	ID              uuid.UUID          `json:"id" db:"id"`
	UserID          string             `json:"user_id" db:"user_id"`
	HotelID         uuid.UUID          `json:"hotel_id" db:"hotel_id"`
	HotelName       string             `json:"hotel_name" db:"hotel_name"`
	CheckIn         time.Time          `json:"check_in" db:"check_in"`
	CheckOut        time.Time          `json:"check_out" db:"check_out"`
	GuestsAdults    int                `json:"guests_adults" db:"guests_adults"`
	GuestsChildren  int                `json:"guests_children" db:"guests_children"`
	Rooms           int                `json:"rooms" db:"rooms"`
	TotalNights     int                `json:"total_nights" db:"total_nights"`
	PricePerNight   float64            `json:"price_per_night" db:"price_per_night"`
	Subtotal        float64            `json:"subtotal" db:"subtotal"`
	Taxes           float64            `json:"taxes" db:"taxes"`
	TotalAmount     float64            `json:"total_amount" db:"total_amount"`
	Breakdown       *pricing.Breakdown `json:"breakdown,omitempty" db:"price_breakdown"`
	Status          ReservationStatus  `json:"status" db:"status"`
	GuestName       string             `json:"guest_name" db:"guest_name"`
	GuestEmail      string             `json:"guest_email" db:"guest_email"`
	GuestPhone      string             `json:"guest_phone" db:"guest_phone"`
	SpecialRequests *string            `json:"special_requests,omitempty" db:"special_requests"`
	CreatedAt       time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at" db:"updated_at"`
	CancelledAt     *time.Time         `json:"cancelled_at,omitempty" db:"cancelled_at"`
}

// CreateReservationRequest представляет запрос на бронирование.
// QuotedTotal содержит итог, который клиент показал пользователю; если он не совпадает
// с пересчитанным, бронирование отклоняется.
type CreateReservationRequest struct {
	HotelID         uuid.UUID   `json:"hotel_id"`
	Stay            StayRequest `json:"stay"`
	GuestName       string      `json:"guest_name"`
	GuestEmail      string      `json:"guest_email"`
	GuestPhone      string      `json:"guest_phone"`
	SpecialRequests *string     `json:"special_requests,omitempty"`
	QuotedTotal     *float64    `json:"quoted_total,omitempty"`
}

// UpdateReservationStatusRequest представляет запрос на смену статуса бронирования
type UpdateReservationStatusRequest struct {
	Status ReservationStatus `json:"status"`
}

// ReservationFilter задаёт выборку бронирований для администратора
type ReservationFilter struct {
	Status  *ReservationStatus
	HotelID *uuid.UUID
	UserID  string
	Limit   int
	Offset  int
}

// PricingSource показывает, откуда взята детализация цены бронирования.
type PricingSource string

const (
	// PricingSourceStored: детализация сохранена в момент бронирования.
	PricingSourceStored PricingSource = "stored"
	// PricingSourceReconstructed: детализация восстановлена по итоговой сумме и
	// годится только для отображения.
	PricingSourceReconstructed PricingSource = "reconstructed"
)

// ReservationPricing представляет детализацию цены прошлого бронирования.
type ReservationPricing struct {
	ReservationID uuid.UUID      `json:"reservation_id"`
	Source        PricingSource  `json:"source"`
	TotalAmount   float64        `json:"total_amount"`
	Pricing       pricing.Result `json:"pricing"`
}
