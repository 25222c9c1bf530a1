package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"hotel-booking/internal/apperror"
	"hotel-booking/internal/models"
	"hotel-booking/internal/pricing"

	"github.com/google/uuid"
)

type stubHotelService struct {
	hotel      *models.Hotel
	hotels     []*models.Hotel
	err        error
	lastFilter models.HotelFilter
	lastUpdate *models.UpdateHotelRequest
	deleted    uuid.UUID
}

func (s *stubHotelService) CreateHotel(ctx context.Context, req *models.CreateHotelRequest) (*models.Hotel, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.Hotel{ID: uuid.New(), Name: req.Name, City: req.City, BasePrice: req.BasePrice}, nil
}
func (s *stubHotelService) GetHotel(ctx context.Context, id uuid.UUID) (*models.Hotel, error) {
	return s.hotel, s.err
}
func (s *stubHotelService) UpdateHotel(ctx context.Context, id uuid.UUID, req *models.UpdateHotelRequest) (*models.Hotel, error) {
	s.lastUpdate = req
	return s.hotel, s.err
}
func (s *stubHotelService) DeleteHotel(ctx context.Context, id uuid.UUID) error {
	s.deleted = id
	return s.err
}
func (s *stubHotelService) SearchHotels(ctx context.Context, filter models.HotelFilter) ([]*models.Hotel, error) {
	s.lastFilter = filter
	return s.hotels, s.err
}

type stubQuoteService struct {
	err       error
	lastStay  models.StayRequest
	lastBase  float64
	lastHotel uuid.UUID
}

func (s *stubQuoteService) Quote(stay models.StayRequest, basePrice float64) (*models.Quote, error) {
	s.lastStay, s.lastBase = stay, basePrice
	if s.err != nil {
		return nil, s.err
	}
	return &models.Quote{Stay: stay, Currency: "EUR", Pricing: pricing.Calculate(stay.PricingRequest(basePrice))}, nil
}
func (s *stubQuoteService) QuoteForHotel(ctx context.Context, hotelID uuid.UUID, stay models.StayRequest) (*models.Quote, error) {
	s.lastHotel = hotelID
	q, err := s.Quote(stay, 199)
	if err != nil {
		return nil, err
	}
	q.HotelID = &hotelID
	return q, nil
}

func sampleHotel() *models.Hotel {
	return &models.Hotel{
		ID:               uuid.New(),
		Name:             "Sea View",
		City:             "Nice",
		StarRating:       4,
		BasePrice:        199,
		MaxGuestsPerRoom: 3,
		Active:           true,
		CreatedAt:        time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestHotelHandler_SearchParsesFilter(t *testing.T) {
	svc := &stubHotelService{hotels: []*models.Hotel{sampleHotel()}}
	h := NewHotelHandler(svc, newTestLogger())

	rr := httptest.NewRecorder()
	h.SearchHotels(rr, httptest.NewRequest(http.MethodGet, "/api/hotels?city=Nice&min_price=100&max_price=300&min_stars=3&guests=2&limit=10&offset=5", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	f := svc.lastFilter
	if f.City != "Nice" || f.MinPrice == nil || *f.MinPrice != 100 || f.MaxPrice == nil || *f.MaxPrice != 300 ||
		f.MinStars != 3 || f.Guests != 2 || f.Limit != 10 || f.Offset != 5 {
		t.Fatalf("unexpected filter: %+v", f)
	}

	var body struct {
		Hotels []models.Hotel `json:"hotels"`
		Count  int            `json:"count"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil || body.Count != 1 || body.Hotels[0].Name != "Sea View" {
		t.Fatalf("unexpected body: %s", rr.Body.String())
	}
}

func TestHotelHandler_SearchBadParam(t *testing.T) {
	h := NewHotelHandler(&stubHotelService{}, newTestLogger())
	rr := httptest.NewRecorder()
	h.SearchHotels(rr, httptest.NewRequest(http.MethodGet, "/api/hotels?min_price=cheap", nil))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestHotelHandler_GetHotel(t *testing.T) {
	hotel := sampleHotel()
	h := NewHotelHandler(&stubHotelService{hotel: hotel}, newTestLogger())

	rr := httptest.NewRecorder()
	h.GetHotel(rr, httptest.NewRequest(http.MethodGet, "/api/hotels/"+hotel.ID.String(), nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.GetHotel(rr, httptest.NewRequest(http.MethodGet, "/api/hotels/not-a-uuid", nil))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}

	missing := NewHotelHandler(&stubHotelService{err: apperror.NotFound("hotel not found", nil)}, newTestLogger())
	rr = httptest.NewRecorder()
	missing.GetHotel(rr, httptest.NewRequest(http.MethodGet, "/api/hotels/"+uuid.NewString(), nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestHotelHandler_CreateUpdateDelete(t *testing.T) {
	svc := &stubHotelService{hotel: sampleHotel()}
	h := NewHotelHandler(svc, newTestLogger())

	rr := httptest.NewRecorder()
	h.CreateHotel(rr, jsonRequest(http.MethodPost, "/api/hotels", `{"name":"Alps","city":"Zermatt","base_price":250,"star_rating":5}`))
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	h.CreateHotel(rr, jsonRequest(http.MethodPost, "/api/hotels", `{"name":"Alps","rating":5}`))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown field, got %d", rr.Code)
	}

	id := svc.hotel.ID.String()
	rr = httptest.NewRecorder()
	h.UpdateHotel(rr, jsonRequest(http.MethodPut, "/api/hotels/"+id, `{"base_price":210}`))
	if rr.Code != http.StatusOK || svc.lastUpdate == nil || svc.lastUpdate.BasePrice == nil || *svc.lastUpdate.BasePrice != 210 {
		t.Fatalf("unexpected update result: code=%d req=%+v", rr.Code, svc.lastUpdate)
	}
	if svc.lastUpdate.Name != nil {
		t.Fatalf("omitted fields must stay nil")
	}

	rr = httptest.NewRecorder()
	h.DeleteHotel(rr, httptest.NewRequest(http.MethodDelete, "/api/hotels/"+id, nil))
	if rr.Code != http.StatusNoContent || svc.deleted != svc.hotel.ID {
		t.Fatalf("expected 204 and delete call, got %d", rr.Code)
	}
}

func TestHotelHandler_CreateValidationError(t *testing.T) {
	h := NewHotelHandler(&stubHotelService{err: apperror.Validation("name is required", nil)}, newTestLogger())
	rr := httptest.NewRecorder()
	h.CreateHotel(rr, jsonRequest(http.MethodPost, "/api/hotels", `{"city":"Nice"}`))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestHotelHandler_MethodNotAllowed(t *testing.T) {
	h := NewHotelHandler(&stubHotelService{}, newTestLogger())
	rr := httptest.NewRecorder()
	h.DeleteHotel(rr, httptest.NewRequest(http.MethodGet, "/api/hotels/"+uuid.NewString(), nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}
}
