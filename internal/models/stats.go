package models

import (
	"time"

	"github.com/google/uuid"
)

// StatsFilter задаёт временной интервал статистики.
type StatsFilter struct {
	From          time.Time
	To            time.Time
	TopHotelLimit int
}

// ReservationStats описывает показатели бронирований за период.
type ReservationStats struct {
	From               time.Time      `json:"from"`
	To                 time.Time      `json:"to"`
	ReservationsCount  int            `json:"reservations_count"`
	CancelledCount     int            `json:"cancelled_count"`
	Revenue            float64        `json:"revenue"`
	TotalNights        int            `json:"total_nights"`
	AverageNightlyRate float64        `json:"average_nightly_rate"`
	TopHotels          []HotelRevenue `json:"top_hotels"`
	GeneratedAt        time.Time      `json:"generated_at"`
}

// HotelRevenue описывает выручку отеля за период.
type HotelRevenue struct {
	HotelID      uuid.UUID `json:"hotel_id"`
	HotelName    string    `json:"hotel_name"`
	Reservations int       `json:"reservations"`
	Revenue      float64   `json:"revenue"`
}
