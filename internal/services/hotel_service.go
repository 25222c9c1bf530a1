package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"hotel-booking/internal/apperror"
	"hotel-booking/internal/logger"
	"hotel-booking/internal/models"

	"github.com/google/uuid"
)

const (
	defaultMaxGuestsPerRoom = 2
	maxGuestsPerRoomLimit   = 16
	maxStarRating           = 5

	DefaultHotelSearchLimit = 20
	MaxHotelSearchLimit     = 100
)

// HotelService управляет каталогом отелей
type HotelService struct {
	store  HotelStore
	cache  HotelCache
	events HotelEvents
	log    *logger.Logger
	now    func() time.Time
}

// NewHotelService создает сервис каталога. cache и events могут быть nil.
func NewHotelService(store HotelStore, cache HotelCache, events HotelEvents, log *logger.Logger) *HotelService {
	return &HotelService{
		store:  store,
		cache:  cache,
		events: events,
		log:    log,
		now:    time.Now,
	}
}

// CreateHotel добавляет отель в каталог
func (s *HotelService) CreateHotel(ctx context.Context, req *models.CreateHotelRequest) (*models.Hotel, error) {
	if req == nil {
		return nil, apperror.Validation("request body is required", nil)
	}

	now := s.now().UTC()
	hotel := &models.Hotel{
		ID:               uuid.New(),
		Name:             strings.TrimSpace(req.Name),
		Description:      strings.TrimSpace(req.Description),
		City:             strings.TrimSpace(req.City),
		Country:          strings.TrimSpace(req.Country),
		Address:          strings.TrimSpace(req.Address),
		StarRating:       req.StarRating,
		BasePrice:        req.BasePrice,
		MaxGuestsPerRoom: req.MaxGuestsPerRoom,
		Amenities:        normalizeAmenities(req.Amenities),
		ImageURL:         strings.TrimSpace(req.ImageURL),
		Active:           true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if hotel.MaxGuestsPerRoom == 0 {
		hotel.MaxGuestsPerRoom = defaultMaxGuestsPerRoom
	}
	if err := validateHotel(hotel); err != nil {
		return nil, err
	}

	if err := s.store.Create(ctx, hotel); err != nil {
		return nil, err
	}

	s.publishUpdated(hotel)
	s.log.WithFields(map[string]interface{}{
		"hotel_id":   hotel.ID,
		"name":       hotel.Name,
		"base_price": hotel.BasePrice,
	}).Info("Hotel created")

	return hotel, nil
}

// GetHotel возвращает активный отель, сначала из кеша
func (s *HotelService) GetHotel(ctx context.Context, id uuid.UUID) (*models.Hotel, error) {
	if s.cache != nil {
		if hotel, ok := s.cache.Get(ctx, id); ok {
			if !hotel.Active {
				return nil, apperror.NotFound("hotel not found", nil)
			}
			return hotel, nil
		}
	}

	hotel, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Set(ctx, hotel)
	}
	if !hotel.Active {
		return nil, apperror.NotFound("hotel not found", nil)
	}
	return hotel, nil
}

// UpdateHotel меняет переданные поля отеля
func (s *HotelService) UpdateHotel(ctx context.Context, id uuid.UUID, req *models.UpdateHotelRequest) (*models.Hotel, error) {
	if req == nil {
		return nil, apperror.Validation("request body is required", nil)
	}

	hotel, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	applyHotelUpdate(hotel, req)
	hotel.UpdatedAt = s.now().UTC()
	if err := validateHotel(hotel); err != nil {
		return nil, err
	}

	if err := s.store.Update(ctx, hotel); err != nil {
		return nil, err
	}

	s.invalidate(ctx, id)
	s.publishUpdated(hotel)
	s.log.WithField("hotel_id", id).Info("Hotel updated")

	return hotel, nil
}

// DeleteHotel снимает отель с продажи. История бронирований сохраняется.
func (s *HotelService) DeleteHotel(ctx context.Context, id uuid.UUID) error {
	if err := s.store.Deactivate(ctx, id, s.now().UTC()); err != nil {
		return err
	}

	s.invalidate(ctx, id)
	if s.events != nil {
		if err := s.events.PublishHotelDeleted(id); err != nil {
			s.log.WithError(err).WithField("hotel_id", id).Warn("Failed to publish hotel deleted event")
		}
	}
	s.log.WithField("hotel_id", id).Info("Hotel deactivated")

	return nil
}

// SearchHotels ищет активные отели
func (s *HotelService) SearchHotels(ctx context.Context, filter models.HotelFilter) ([]*models.Hotel, error) {
	if filter.MinPrice != nil && filter.MaxPrice != nil && *filter.MinPrice > *filter.MaxPrice {
		return nil, apperror.Validation("min_price must not exceed max_price", nil)
	}
	if filter.MinStars < 0 || filter.MinStars > maxStarRating {
		return nil, apperror.Validation(fmt.Sprintf("min_stars must be between 0 and %d", maxStarRating), nil)
	}
	if filter.Limit <= 0 {
		filter.Limit = DefaultHotelSearchLimit
	}
	if filter.Limit > MaxHotelSearchLimit {
		filter.Limit = MaxHotelSearchLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	filter.OnlyActive = true

	return s.store.Search(ctx, filter)
}

func (s *HotelService) invalidate(ctx context.Context, id uuid.UUID) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, id)
	}
}

func (s *HotelService) publishUpdated(hotel *models.Hotel) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishHotelUpdated(hotel); err != nil {
		s.log.WithError(err).WithField("hotel_id", hotel.ID).Warn("Failed to publish hotel updated event")
	}
}

func applyHotelUpdate(hotel *models.Hotel, req *models.UpdateHotelRequest) {
	if req.Name != nil {
		hotel.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		hotel.Description = strings.TrimSpace(*req.Description)
	}
	if req.City != nil {
		hotel.City = strings.TrimSpace(*req.City)
	}
	if req.Country != nil {
		hotel.Country = strings.TrimSpace(*req.Country)
	}
	if req.Address != nil {
		hotel.Address = strings.TrimSpace(*req.Address)
	}
	if req.StarRating != nil {
		hotel.StarRating = *req.StarRating
	}
	if req.BasePrice != nil {
		hotel.BasePrice = *req.BasePrice
	}
	if req.MaxGuestsPerRoom != nil {
		hotel.MaxGuestsPerRoom = *req.MaxGuestsPerRoom
	}
	if req.Amenities != nil {
		hotel.Amenities = normalizeAmenities(*req.Amenities)
	}
	if req.ImageURL != nil {
		hotel.ImageURL = strings.TrimSpace(*req.ImageURL)
	}
	if req.Active != nil {
		hotel.Active = *req.Active
	}
}

func validateHotel(hotel *models.Hotel) error {
	switch {
	case hotel.Name == "":
		return apperror.Validation("name is required", nil)
	case hotel.City == "":
		return apperror.Validation("city is required", nil)
	case hotel.BasePrice <= 0:
		return apperror.Validation("base_price must be positive", nil)
	case hotel.StarRating < 0 || hotel.StarRating > maxStarRating:
		return apperror.Validation(fmt.Sprintf("star_rating must be between 0 and %d", maxStarRating), nil)
	case hotel.MaxGuestsPerRoom < 1 || hotel.MaxGuestsPerRoom > maxGuestsPerRoomLimit:
		return apperror.Validation(fmt.Sprintf("max_guests_per_room must be between 1 and %d", maxGuestsPerRoomLimit), nil)
	}
	return nil
}

func normalizeAmenities(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, a := range in {
		a = strings.ToLower(strings.TrimSpace(a))
		if a == "" {
			continue
		}
		if _, dup := seen[a]; dup {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return out
}
