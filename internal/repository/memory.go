package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"hotel-booking/internal/apperror"
	"hotel-booking/internal/models"
	"hotel-booking/internal/pricing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MemoryHotelStore хранит отели в памяти процесса (STORAGE_DRIVER=memory)
type MemoryHotelStore struct {
	mu     sync.RWMutex
	hotels map[uuid.UUID]models.Hotel
}

// NewMemoryHotelStore создает пустое хранилище отелей
func NewMemoryHotelStore() *MemoryHotelStore {
	return &MemoryHotelStore{hotels: make(map[uuid.UUID]models.Hotel)}
}

// Create сохраняет копию отеля
func (s *MemoryHotelStore) Create(_ context.Context, hotel *models.Hotel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.hotels[hotel.ID]; exists {
		return apperror.Conflict("hotel already exists", nil)
	}
	s.hotels[hotel.ID] = copyHotel(hotel)
	return nil
}

// GetByID возвращает копию отеля
func (s *MemoryHotelStore) GetByID(_ context.Context, id uuid.UUID) (*models.Hotel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	hotel, ok := s.hotels[id]
	if !ok {
		return nil, apperror.NotFound("hotel not found", nil)
	}
	h := copyHotel(&hotel)
	return &h, nil
}

// Update перезаписывает отель
func (s *MemoryHotelStore) Update(_ context.Context, hotel *models.Hotel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.hotels[hotel.ID]
	if !ok {
		return apperror.NotFound("hotel not found", nil)
	}
	updated := copyHotel(hotel)
	updated.CreatedAt = existing.CreatedAt
	s.hotels[hotel.ID] = updated
	return nil
}

// Deactivate снимает отель с продажи
func (s *MemoryHotelStore) Deactivate(_ context.Context, id uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	hotel, ok := s.hotels[id]
	if !ok || !hotel.Active {
		return apperror.NotFound("hotel not found", nil)
	}
	hotel.Active = false
	hotel.UpdatedAt = at
	s.hotels[id] = hotel
	return nil
}

// Search ищет отели по фильтру с той же сортировкой, что и PostgreSQL
func (s *MemoryHotelStore) Search(_ context.Context, filter models.HotelFilter) ([]*models.Hotel, error) {
	s.mu.RLock()
	matched := make([]*models.Hotel, 0, len(s.hotels))
	city := strings.TrimSpace(filter.City)
	for _, hotel := range s.hotels {
		if filter.OnlyActive && !hotel.Active {
			continue
		}
		if city != "" && !strings.EqualFold(hotel.City, city) {
			continue
		}
		if filter.MinPrice != nil && hotel.BasePrice < *filter.MinPrice {
			continue
		}
		if filter.MaxPrice != nil && hotel.BasePrice > *filter.MaxPrice {
			continue
		}
		if filter.MinStars > 0 && hotel.StarRating < filter.MinStars {
			continue
		}
		if filter.Guests > 0 && hotel.MaxGuestsPerRoom < filter.Guests {
			continue
		}
		h := copyHotel(&hotel)
		matched = append(matched, &h)
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].BasePrice != matched[j].BasePrice {
			return matched[i].BasePrice < matched[j].BasePrice
		}
		return matched[i].Name < matched[j].Name
	})

	return paginate(matched, filter.Limit, filter.Offset), nil
}

func copyHotel(h *models.Hotel) models.Hotel {
	c := *h
	c.Amenities = append([]string{}, h.Amenities...)
	return c
}

// MemoryReservationStore хранит бронирования в памяти процесса
type MemoryReservationStore struct {
	mu           sync.RWMutex
	reservations map[uuid.UUID]models.Reservation
}

// NewMemoryReservationStore создает пустое хранилище бронирований
func NewMemoryReservationStore() *MemoryReservationStore {
	return &MemoryReservationStore{reservations: make(map[uuid.UUID]models.Reservation)}
}

// Create сохраняет копию бронирования
func (s *MemoryReservationStore) Create(_ context.Context, res *models.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.reservations[res.ID]; exists {
		return apperror.Conflict("reservation already exists", nil)
	}
	s.reservations[res.ID] = copyReservation(res)
	return nil
}

// GetByID возвращает копию бронирования
func (s *MemoryReservationStore) GetByID(_ context.Context, id uuid.UUID) (*models.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res, ok := s.reservations[id]
	if !ok {
		return nil, apperror.NotFound("reservation not found", nil)
	}
	r := copyReservation(&res)
	return &r, nil
}

// List возвращает бронирования по фильтру, новые первыми
func (s *MemoryReservationStore) List(_ context.Context, filter models.ReservationFilter) ([]*models.Reservation, error) {
	s.mu.RLock()
	matched := make([]*models.Reservation, 0)
	for _, res := range s.reservations {
		if filter.UserID != "" && res.UserID != filter.UserID {
			continue
		}
		if filter.Status != nil && res.Status != *filter.Status {
			continue
		}
		if filter.HotelID != nil && res.HotelID != *filter.HotelID {
			continue
		}
		r := copyReservation(&res)
		matched = append(matched, &r)
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	return paginate(matched, filter.Limit, filter.Offset), nil
}

// UpdateStatus переводит бронирование из статуса from в статус to
func (s *MemoryReservationStore) UpdateStatus(_ context.Context, id uuid.UUID, from, to models.ReservationStatus, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, ok := s.reservations[id]
	if !ok || res.Status != from {
		return apperror.Conflict("reservation status was changed concurrently", nil)
	}
	res.Status = to
	res.UpdatedAt = at
	if to == models.ReservationStatusCancelled {
		cancelledAt := at
		res.CancelledAt = &cancelledAt
	}
	s.reservations[id] = res
	return nil
}

// Stats считает показатели бронирований, созданных в интервале [From, To)
func (s *MemoryReservationStore) Stats(_ context.Context, filter models.StatsFilter) (*models.ReservationStats, error) {
	stats := &models.ReservationStats{From: filter.From, To: filter.To, TopHotels: []models.HotelRevenue{}}
	byHotel := make(map[uuid.UUID]*models.HotelRevenue)
	hotelRevenue := make(map[uuid.UUID]decimal.Decimal)
	revenue, subtotal := decimal.Zero, decimal.Zero

	s.mu.RLock()
	for _, res := range s.reservations {
		if res.CreatedAt.Before(filter.From) || !res.CreatedAt.Before(filter.To) {
			continue
		}
		stats.ReservationsCount++
		if res.Status == models.ReservationStatusCancelled {
			stats.CancelledCount++
			continue
		}
		revenue = revenue.Add(decimal.NewFromFloat(res.TotalAmount))
		stats.TotalNights += res.TotalNights
		subtotal = subtotal.Add(decimal.NewFromFloat(res.Subtotal))

		item, ok := byHotel[res.HotelID]
		if !ok {
			item = &models.HotelRevenue{HotelID: res.HotelID, HotelName: res.HotelName}
			byHotel[res.HotelID] = item
		}
		item.Reservations++
		hotelRevenue[res.HotelID] = hotelRevenue[res.HotelID].Add(decimal.NewFromFloat(res.TotalAmount))
	}
	s.mu.RUnlock()

	// суммы копятся в decimal без накопления ошибки float64
	stats.Revenue = pricing.Round2(revenue.InexactFloat64())
	if stats.TotalNights > 0 {
		stats.AverageNightlyRate = pricing.Round2(subtotal.Div(decimal.NewFromInt(int64(stats.TotalNights))).InexactFloat64())
	}

	if filter.TopHotelLimit <= 0 {
		return stats, nil
	}
	for id, item := range byHotel {
		item.Revenue = pricing.Round2(hotelRevenue[id].InexactFloat64())
		stats.TopHotels = append(stats.TopHotels, *item)
	}
	sort.Slice(stats.TopHotels, func(i, j int) bool {
		return stats.TopHotels[i].Revenue > stats.TopHotels[j].Revenue
	})
	if len(stats.TopHotels) > filter.TopHotelLimit {
		stats.TopHotels = stats.TopHotels[:filter.TopHotelLimit]
	}
	return stats, nil
}

func copyReservation(r *models.Reservation) models.Reservation {
	c := *r
	if r.Breakdown != nil {
		b := *r.Breakdown
		c.Breakdown = &b
	}
	if r.SpecialRequests != nil {
		v := *r.SpecialRequests
		c.SpecialRequests = &v
	}
	if r.CancelledAt != nil {
		v := *r.CancelledAt
		c.CancelledAt = &v
	}
	return c
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return items[:0]
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
