package services

import (
	"context"
	"fmt"

	"hotel-booking/internal/apperror"
	"hotel-booking/internal/config"
	"hotel-booking/internal/models"
	"hotel-booking/internal/pricing"

	"github.com/google/uuid"
)

// QuoteService считает предварительную цену проживания
type QuoteService struct {
	engine           *pricing.Engine
	hotels           hotelReader
	defaultBasePrice float64
	currency         string
}

// NewQuoteService создает сервис расчёта цен
func NewQuoteService(engine *pricing.Engine, hotels hotelReader, cfg *config.PricingConfig) *QuoteService {
	if engine == nil {
		engine = pricing.New(pricing.DefaultTariffs())
	}
	s := &QuoteService{
		engine:           engine,
		hotels:           hotels,
		defaultBasePrice: pricing.DefaultBasePrice,
		currency:         "EUR",
	}
	if cfg != nil {
		if cfg.DefaultBasePrice > 0 {
			s.defaultBasePrice = cfg.DefaultBasePrice
		}
		if cfg.Currency != "" {
			s.currency = cfg.Currency
		}
	}
	return s
}

// Quote считает цену для произвольной базовой ставки (страница бронирования по параметрам URL).
// Неположительная ставка заменяется ставкой по умолчанию.
func (s *QuoteService) Quote(stay models.StayRequest, basePrice float64) (*models.Quote, error) {
	if err := stay.Normalize(); err != nil {
		return nil, err
	}
	if basePrice <= 0 {
		basePrice = s.defaultBasePrice
	}

	return &models.Quote{
		Stay:     stay,
		Currency: s.currency,
		Pricing:  s.engine.Calculate(stay.PricingRequest(basePrice)),
	}, nil
}

// QuoteForHotel считает цену по базовой ставке отеля (живой расчёт на странице отеля)
func (s *QuoteService) QuoteForHotel(ctx context.Context, hotelID uuid.UUID, stay models.StayRequest) (*models.Quote, error) {
	if err := stay.Normalize(); err != nil {
		return nil, err
	}

	hotel, err := s.hotels.GetHotel(ctx, hotelID)
	if err != nil {
		return nil, err
	}
	if err := checkCapacity(hotel, stay); err != nil {
		return nil, err
	}

	quote, err := s.Quote(stay, hotel.BasePrice)
	if err != nil {
		return nil, err
	}
	quote.HotelID = &hotel.ID
	return quote, nil
}

// checkCapacity проверяет, что гости помещаются в запрошенные номера
func checkCapacity(hotel *models.Hotel, stay models.StayRequest) error {
	perRoom := hotel.MaxGuestsPerRoom
	if perRoom <= 0 {
		perRoom = defaultMaxGuestsPerRoom
	}
	if stay.Guests() > stay.Rooms*perRoom {
		return apperror.Validation(fmt.Sprintf("%d guests do not fit into %d room(s): at most %d per room",
			stay.Guests(), stay.Rooms, perRoom), nil)
	}
	return nil
}
