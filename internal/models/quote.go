package models

import (
	"hotel-booking/internal/pricing"

	"github.com/google/uuid"
)

// Quote представляет предварительный расчёт цены проживания.
type Quote struct {
	HotelID  *uuid.UUID     `json:"hotel_id,omitempty"`
	Stay     StayRequest    `json:"stay"`
	Currency string         `json:"currency"`
	Pricing  pricing.Result `json:"pricing"`
}

// QuoteRequest представляет запрос расчёта цены с явной базовой ставкой.
type QuoteRequest struct {
	StayRequest
	BasePrice float64 `json:"base_price"`
}
