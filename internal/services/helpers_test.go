package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"hotel-booking/internal/config"
	"hotel-booking/internal/logger"
	"hotel-booking/internal/models"
	"hotel-booking/internal/redis"
	"hotel-booking/internal/repository"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
)

var fixedNow = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func newTestLogger() *logger.Logger {
	return logger.New(&config.LoggerConfig{Level: "error", Format: "json"})
}

func newTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client, err := redis.Connect(&config.RedisConfig{Host: mr.Host(), Port: mr.Port()}, newTestLogger())
	if err != nil {
		t.Fatalf("failed to connect to miniredis: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

type recordingEvents struct {
	mu             sync.Mutex
	created        []uuid.UUID
	statusChanges  []models.ReservationStatus
	hotelsUpdated  []uuid.UUID
	hotelsDeleted  []uuid.UUID
	publishFailure error
}

func (e *recordingEvents) PublishReservationCreated(r *models.Reservation) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.created = append(e.created, r.ID)
	return e.publishFailure
}

func (e *recordingEvents) PublishReservationStatusChanged(id, hotelID uuid.UUID, from, to models.ReservationStatus) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.statusChanges = append(e.statusChanges, to)
	return e.publishFailure
}

func (e *recordingEvents) PublishHotelUpdated(h *models.Hotel) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.hotelsUpdated = append(e.hotelsUpdated, h.ID)
	return e.publishFailure
}

func (e *recordingEvents) PublishHotelDeleted(id uuid.UUID) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.hotelsDeleted = append(e.hotelsDeleted, id)
	return e.publishFailure
}

// mapHotelCache простой кеш для проверки чтения через кеш
type mapHotelCache struct {
	items       map[uuid.UUID]*models.Hotel
	invalidated []uuid.UUID
}

func newMapHotelCache() *mapHotelCache {
	return &mapHotelCache{items: make(map[uuid.UUID]*models.Hotel)}
}

func (c *mapHotelCache) Get(_ context.Context, id uuid.UUID) (*models.Hotel, bool) {
	h, ok := c.items[id]
	return h, ok
}

func (c *mapHotelCache) Set(_ context.Context, h *models.Hotel) { c.items[h.ID] = h }

func (c *mapHotelCache) Invalidate(_ context.Context, id uuid.UUID) {
	delete(c.items, id)
	c.invalidated = append(c.invalidated, id)
}

type bookingFixture struct {
	hotels       *HotelService
	quotes       *QuoteService
	reservations *ReservationService
	store        *repository.MemoryReservationStore
	events       *recordingEvents
	hotel        *models.Hotel
}

func newBookingFixture(t *testing.T, cache CacheStore) *bookingFixture {
	t.Helper()
	log := newTestLogger()
	events := &recordingEvents{}

	hotels := NewHotelService(repository.NewMemoryHotelStore(), newMapHotelCache(), events, log)
	hotels.now = func() time.Time { return fixedNow }
	hotel, err := hotels.CreateHotel(context.Background(), &models.CreateHotelRequest{
		Name: "Sea View", City: "Valencia", StarRating: 4, BasePrice: 199, MaxGuestsPerRoom: 3,
	})
	if err != nil {
		t.Fatalf("failed to create hotel: %v", err)
	}

	quotes := NewQuoteService(nil, hotels, &config.PricingConfig{DefaultBasePrice: 199, Currency: "EUR"})
	store := repository.NewMemoryReservationStore()
	reservations := NewReservationService(store, hotels, quotes, events, cache, log, &config.CacheConfig{ReservationTTLMinutes: 5})
	reservations.now = func() time.Time { return fixedNow }

	return &bookingFixture{
		hotels:       hotels,
		quotes:       quotes,
		reservations: reservations,
		store:        store,
		events:       events,
		hotel:        hotel,
	}
}

func mustDate(t *testing.T, s string) models.Date {
	t.Helper()
	d, err := models.ParseDate(s)
	if err != nil {
		t.Fatalf("bad date %q: %v", s, err)
	}
	return d
}

func stay(t *testing.T, checkIn, checkOut string, adults, children, rooms int) models.StayRequest {
	t.Helper()
	return models.StayRequest{
		CheckIn:  mustDate(t, checkIn),
		CheckOut: mustDate(t, checkOut),
		Adults:   adults,
		Children: children,
		Rooms:    rooms,
	}
}
