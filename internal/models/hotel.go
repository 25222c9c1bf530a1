package models

import (
	"time"

	"github.com/google/uuid"
)

// Hotel представляет отель в каталоге
type Hotel struct {
	ID               uuid.UUID `json:"id" db:"id"`
	Name             string    `json:"name" db:"name"`
	Description      string    `json:"description" db:"description"`
	City             string    `json:"city" db:"city"`
	Country          string    `json:"country" db:"country"`
	Address          string    `json:"address" db:"address"`
	StarRating       int       `json:"star_rating" db:"star_rating"`
	BasePrice        float64   `json:"base_price" db:"base_price"`
	MaxGuestsPerRoom int       `json:"max_guests_per_room" db:"max_guests_per_room"`
	Amenities        []string  `json:"amenities" db:"amenities"`
	ImageURL         string    `json:"image_url,omitempty" db:"image_url"`
	Active           bool      `json:"active" db:"active"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}

// CreateHotelRequest представляет запрос на создание отеля
type CreateHotelRequest struct {
	Name             string   `json:"name"`
	Description      string   `json:"description"`
	City             string   `json:"city"`
	Country          string   `json:"country"`
	Address          string   `json:"address"`
	StarRating       int      `json:"star_rating"`
	BasePrice        float64  `json:"base_price"`
	MaxGuestsPerRoom int      `json:"max_guests_per_room"`
	Amenities        []string `json:"amenities,omitempty"`
	ImageURL         string   `json:"image_url,omitempty"`
}

// UpdateHotelRequest представляет запрос на обновление отеля.
// Пустые поля не меняются.
type UpdateHotelRequest struct {
	Name             *string   `json:"name,omitempty"`
	Description      *string   `json:"description,omitempty"`
	City             *string   `json:"city,omitempty"`
	Country          *string   `json:"country,omitempty"`
	Address          *string   `json:"address,omitempty"`
	StarRating       *int      `json:"star_rating,omitempty"`
	BasePrice        *float64  `json:"base_price,omitempty"`
	MaxGuestsPerRoom *int      `json:"max_guests_per_room,omitempty"`
	Amenities        *[]string `json:"amenities,omitempty"`
	ImageURL         *string   `json:"image_url,omitempty"`
	Active           *bool     `json:"active,omitempty"`
}

// HotelFilter задаёт параметры поиска отелей
type HotelFilter struct {
	City       string
	MinPrice   *float64
	MaxPrice   *float64
	MinStars   int
	Guests     int
	OnlyActive bool
	Limit      int
	Offset     int
}
