package models

import (
	"time"

	"github.com/google/uuid"
)

// EventType представляет тип события
type EventType string

const (
	EventTypeReservationCreated       EventType = "reservation.created"
	EventTypeReservationStatusChanged EventType = "reservation.status_changed"
	EventTypeHotelUpdated             EventType = "hotel.updated"
	EventTypeHotelDeleted             EventType = "hotel.deleted"
)

// Event представляет событие в системе
type Event struct {
	ID        uuid.UUID              `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}
