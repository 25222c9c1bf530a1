package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/mail"
	"strings"
	"time"

	"hotel-booking/internal/apperror"
	"hotel-booking/internal/auth"
	"hotel-booking/internal/config"
	"hotel-booking/internal/logger"
	"hotel-booking/internal/models"
	"hotel-booking/internal/pricing"
	"hotel-booking/internal/redis"

	"github.com/google/uuid"
)

const (
	// quoteTolerance задаёт допустимое расхождение итога клиента и пересчитанного итога
	quoteTolerance = 0.005

	DefaultReservationLimit = 20
	MaxReservationLimit     = 100

	defaultReservationCacheTTL = 15 * time.Minute
	maxSpecialRequestsLength   = 1000
)

// ReservationService управляет бронированиями
type ReservationService struct {
	store    ReservationStore
	hotels   hotelReader
	quotes   *QuoteService
	events   ReservationEvents
	cache    CacheStore
	log      *logger.Logger
	cacheTTL time.Duration
	now      func() time.Time
}

// NewReservationService создает сервис бронирований. events и cache могут быть nil.
func NewReservationService(store ReservationStore, hotels hotelReader, quotes *QuoteService, events ReservationEvents,
	cache CacheStore, log *logger.Logger, cfg *config.CacheConfig) *ReservationService {
	ttl := defaultReservationCacheTTL
	if cfg != nil && cfg.ReservationTTLMinutes > 0 {
		ttl = time.Duration(cfg.ReservationTTLMinutes) * time.Minute
	}
	return &ReservationService{
		store:    store,
		hotels:   hotels,
		quotes:   quotes,
		events:   events,
		cache:    cache,
		log:      log,
		cacheTTL: ttl,
		now:      time.Now,
	}
}

// CreateReservation пересчитывает цену и сохраняет бронирование вместе с детализацией
func (s *ReservationService) CreateReservation(ctx context.Context, userID string, req *models.CreateReservationRequest) (*models.Reservation, error) {
	if userID == "" {
		return nil, apperror.Unauthorized("authentication required", nil)
	}
	if req == nil {
		return nil, apperror.Validation("request body is required", nil)
	}
	if req.HotelID == uuid.Nil {
		return nil, apperror.Validation("hotel_id is required", nil)
	}

	stay := req.Stay
	if err := stay.Normalize(); err != nil {
		return nil, err
	}
	if stay.CheckIn.Before(s.today()) {
		return nil, apperror.Validation("check_in must not be in the past", nil)
	}

	guestName, guestEmail, guestPhone, err := validateGuest(req)
	if err != nil {
		return nil, err
	}

	hotel, err := s.hotels.GetHotel(ctx, req.HotelID)
	if err != nil {
		return nil, err
	}
	if err := checkCapacity(hotel, stay); err != nil {
		return nil, err
	}

	quote, err := s.quotes.Quote(stay, hotel.BasePrice)
	if err != nil {
		return nil, err
	}
	if req.QuotedTotal != nil && math.Abs(*req.QuotedTotal-quote.Pricing.Total) > quoteTolerance {
		return nil, apperror.Conflict(fmt.Sprintf("price has changed: current total is %.2f", quote.Pricing.Total), nil)
	}

	now := s.now().UTC()
	breakdown := quote.Pricing.Breakdown
	reservation := &models.Reservation{
		ID:              uuid.New(),
		UserID:          userID,
		HotelID:         hotel.ID,
		HotelName:       hotel.Name,
		CheckIn:         stay.CheckIn.Time,
		CheckOut:        stay.CheckOut.Time,
		GuestsAdults:    stay.Adults,
		GuestsChildren:  stay.Children,
		Rooms:           stay.Rooms,
		TotalNights:     quote.Pricing.TotalNights,
		PricePerNight:   quote.Pricing.PricePerNight,
		Subtotal:        quote.Pricing.Subtotal,
		Taxes:           quote.Pricing.Taxes,
		TotalAmount:     quote.Pricing.Total,
		Breakdown:       &breakdown,
		Status:          models.ReservationStatusPending,
		GuestName:       guestName,
		GuestEmail:      guestEmail,
		GuestPhone:      guestPhone,
		SpecialRequests: trimOptional(req.SpecialRequests),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.store.Create(ctx, reservation); err != nil {
		return nil, err
	}

	s.cacheReservation(ctx, reservation)
	if s.events != nil {
		if err := s.events.PublishReservationCreated(reservation); err != nil {
			s.log.WithError(err).WithField("reservation_id", reservation.ID).Warn("Failed to publish reservation created event")
		}
	}

	s.log.WithFields(map[string]interface{}{
		"reservation_id": reservation.ID,
		"hotel_id":       reservation.HotelID,
		"user_id":        userID,
		"total_amount":   reservation.TotalAmount,
	}).Info("Reservation created")

	return reservation, nil
}

// GetReservation возвращает бронирование владельцу или администратору.
// Для чужого бронирования возвращается NotFound, чтобы не раскрывать существование.
func (s *ReservationService) GetReservation(ctx context.Context, id uuid.UUID, principal *auth.Claims) (*models.Reservation, error) {
	if principal == nil {
		return nil, apperror.Unauthorized("authentication required", nil)
	}

	reservation, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !principal.IsAdmin() && reservation.UserID != principal.UserID {
		return nil, apperror.NotFound("reservation not found", nil)
	}
	return reservation, nil
}

// ListUserReservations возвращает историю бронирований пользователя
func (s *ReservationService) ListUserReservations(ctx context.Context, userID string, limit, offset int) ([]*models.Reservation, error) {
	if userID == "" {
		return nil, apperror.Unauthorized("authentication required", nil)
	}
	return s.ListReservations(ctx, models.ReservationFilter{UserID: userID, Limit: limit, Offset: offset})
}

// ListReservations возвращает бронирования по фильтру (для администратора)
func (s *ReservationService) ListReservations(ctx context.Context, filter models.ReservationFilter) ([]*models.Reservation, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, apperror.Validation("unknown reservation status", nil)
	}
	if filter.Limit <= 0 {
		filter.Limit = DefaultReservationLimit
	}
	if filter.Limit > MaxReservationLimit {
		filter.Limit = MaxReservationLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.store.List(ctx, filter)
}

// CancelReservation отменяет бронирование по запросу гостя до даты заезда
func (s *ReservationService) CancelReservation(ctx context.Context, id uuid.UUID, principal *auth.Claims) (*models.Reservation, error) {
	reservation, err := s.GetReservation(ctx, id, principal)
	if err != nil {
		return nil, err
	}

	switch reservation.Status {
	case models.ReservationStatusPending, models.ReservationStatusConfirmed:
	case models.ReservationStatusCancelled:
		return nil, apperror.Conflict("reservation is already cancelled", nil)
	default:
		return nil, apperror.Conflict(fmt.Sprintf("reservation in status %s cannot be cancelled", reservation.Status), nil)
	}
	if !s.today().Before(models.NewDate(reservation.CheckIn).Time) {
		return nil, apperror.Conflict("reservation can no longer be cancelled after check-in", nil)
	}

	return s.changeStatus(ctx, reservation, models.ReservationStatusCancelled)
}

// UpdateReservationStatus меняет статус бронирования (для администратора)
func (s *ReservationService) UpdateReservationStatus(ctx context.Context, id uuid.UUID, req *models.UpdateReservationStatusRequest) (*models.Reservation, error) {
	if req == nil || req.Status == "" {
		return nil, apperror.Validation("status is required", nil)
	}
	if !req.Status.Valid() {
		return nil, apperror.Validation("unknown reservation status", nil)
	}

	reservation, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if reservation.Status == req.Status {
		return reservation, nil
	}
	if !isValidReservationStatusTransition(reservation.Status, req.Status) {
		return nil, apperror.Conflict(fmt.Sprintf("invalid reservation status transition %s -> %s", reservation.Status, req.Status), nil)
	}

	return s.changeStatus(ctx, reservation, req.Status)
}

// ReservationPricing возвращает детализацию цены прошлого бронирования.
// Для записей без сохранённой детализации цена восстанавливается по итоговой
// сумме и годится только для отображения.
func (s *ReservationService) ReservationPricing(ctx context.Context, id uuid.UUID, principal *auth.Claims) (*models.ReservationPricing, error) {
	reservation, err := s.GetReservation(ctx, id, principal)
	if err != nil {
		return nil, err
	}

	if reservation.Breakdown != nil {
		return &models.ReservationPricing{
			ReservationID: reservation.ID,
			Source:        models.PricingSourceStored,
			TotalAmount:   reservation.TotalAmount,
			Pricing: pricing.Result{
				PricePerNight: reservation.PricePerNight,
				TotalNights:   reservation.TotalNights,
				Subtotal:      reservation.Subtotal,
				Taxes:         reservation.Taxes,
				Total:         reservation.TotalAmount,
				Breakdown:     *reservation.Breakdown,
			},
		}, nil
	}

	return &models.ReservationPricing{
		ReservationID: reservation.ID,
		Source:        models.PricingSourceReconstructed,
		TotalAmount:   reservation.TotalAmount,
		Pricing:       s.reconstruct(reservation),
	}, nil
}

// reconstruct повторно прогоняет движок с базовой ставкой total_amount / total_nights
func (s *ReservationService) reconstruct(r *models.Reservation) pricing.Result {
	nights := r.TotalNights
	if nights <= 0 {
		nights = pricing.Nights(r.CheckIn, r.CheckOut)
	}
	if nights <= 0 {
		nights = 1
	}
	// нулевая ставка для движка означает цену по умолчанию
	if r.TotalAmount <= 0 {
		return pricing.Result{TotalNights: nights}
	}

	return s.quotes.engine.Calculate(pricing.Request{
		CheckIn:   r.CheckIn,
		CheckOut:  r.CheckOut,
		Adults:    r.GuestsAdults,
		Children:  r.GuestsChildren,
		Rooms:     r.Rooms,
		BasePrice: r.TotalAmount / float64(nights),
	})
}

func (s *ReservationService) changeStatus(ctx context.Context, reservation *models.Reservation, to models.ReservationStatus) (*models.Reservation, error) {
	from := reservation.Status
	now := s.now().UTC()

	if err := s.store.UpdateStatus(ctx, reservation.ID, from, to, now); err != nil {
		s.dropCached(ctx, reservation.ID)
		return nil, err
	}

	reservation.Status = to
	reservation.UpdatedAt = now
	if to == models.ReservationStatusCancelled {
		reservation.CancelledAt = &now
	}

	s.dropCached(ctx, reservation.ID)
	if s.events != nil {
		if err := s.events.PublishReservationStatusChanged(reservation.ID, reservation.HotelID, from, to); err != nil {
			s.log.WithError(err).WithField("reservation_id", reservation.ID).Warn("Failed to publish reservation status event")
		}
	}

	s.log.WithFields(map[string]interface{}{
		"reservation_id": reservation.ID,
		"old_status":     from,
		"new_status":     to,
	}).Info("Reservation status updated")

	return reservation, nil
}

func (s *ReservationService) load(ctx context.Context, id uuid.UUID) (*models.Reservation, error) {
	key := reservationKey(id)
	if s.cache != nil {
		var cached models.Reservation
		err := s.cache.Get(ctx, key, &cached)
		if err == nil {
			return &cached, nil
		}
		if !errors.Is(err, redis.ErrCacheMiss) {
			s.log.WithError(err).WithField("key", key).Warn("Failed to read reservation from cache")
		}
	}

	reservation, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cacheReservation(ctx, reservation)
	return reservation, nil
}

func (s *ReservationService) cacheReservation(ctx context.Context, reservation *models.Reservation) {
	if s.cache == nil {
		return
	}
	key := reservationKey(reservation.ID)
	if err := s.cache.Set(ctx, key, reservation, s.cacheTTL); err != nil {
		s.log.WithError(err).WithField("key", key).Warn("Failed to cache reservation")
	}
}

func (s *ReservationService) dropCached(ctx context.Context, id uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, reservationKey(id)); err != nil {
		s.log.WithError(err).WithField("reservation_id", id).Warn("Failed to invalidate reservation cache")
	}
}

// today возвращает текущую календарную дату в UTC
func (s *ReservationService) today() time.Time {
	return models.NewDate(s.now().UTC()).Time
}

func reservationKey(id uuid.UUID) string {
	return redis.GenerateKey(redis.KeyPrefixReservation, id.String())
}

func validateGuest(req *models.CreateReservationRequest) (name, email, phone string, err error) {
	name = strings.TrimSpace(req.GuestName)
	email = strings.TrimSpace(req.GuestEmail)
	phone = strings.TrimSpace(req.GuestPhone)

	if name == "" {
		return "", "", "", apperror.Validation("guest_name is required", nil)
	}
	if email == "" {
		return "", "", "", apperror.Validation("guest_email is required", nil)
	}
	if addr, parseErr := mail.ParseAddress(email); parseErr != nil || addr.Address != email {
		return "", "", "", apperror.Validation("guest_email is not a valid email address", parseErr)
	}
	if req.SpecialRequests != nil && len(*req.SpecialRequests) > maxSpecialRequestsLength {
		return "", "", "", apperror.Validation(fmt.Sprintf("special_requests must not exceed %d characters", maxSpecialRequestsLength), nil)
	}
	return name, email, phone, nil
}

func trimOptional(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func isValidReservationStatusTransition(from, to models.ReservationStatus) bool {
	switch from {
	case models.ReservationStatusPending:
		return to == models.ReservationStatusConfirmed || to == models.ReservationStatusCancelled
	case models.ReservationStatusConfirmed:
		return to == models.ReservationStatusCompleted || to == models.ReservationStatusCancelled
	case models.ReservationStatusCompleted, models.ReservationStatusCancelled:
		return false
	default:
		return false
	}
}
