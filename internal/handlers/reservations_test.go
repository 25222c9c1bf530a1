package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"hotel-booking/internal/apperror"
	"hotel-booking/internal/auth"
	"hotel-booking/internal/models"

	"github.com/google/uuid"
)

type stubReservationService struct {
	reservation   *models.Reservation
	reservations  []*models.Reservation
	pricing       *models.ReservationPricing
	err           error
	lastUser      string
	lastPrincipal *auth.Claims
	lastCreate    *models.CreateReservationRequest
	lastFilter    models.ReservationFilter
	lastStatus    models.ReservationStatus
	limit, offset int
}

func (s *stubReservationService) CreateReservation(ctx context.Context, userID string, req *models.CreateReservationRequest) (*models.Reservation, error) {
	s.lastUser, s.lastCreate = userID, req
	return s.reservation, s.err
}
func (s *stubReservationService) GetReservation(ctx context.Context, id uuid.UUID, principal *auth.Claims) (*models.Reservation, error) {
	s.lastPrincipal = principal
	return s.reservation, s.err
}
func (s *stubReservationService) ListUserReservations(ctx context.Context, userID string, limit, offset int) ([]*models.Reservation, error) {
	s.lastUser, s.limit, s.offset = userID, limit, offset
	return s.reservations, s.err
}
func (s *stubReservationService) ListReservations(ctx context.Context, filter models.ReservationFilter) ([]*models.Reservation, error) {
	s.lastFilter = filter
	return s.reservations, s.err
}
func (s *stubReservationService) CancelReservation(ctx context.Context, id uuid.UUID, principal *auth.Claims) (*models.Reservation, error) {
	s.lastPrincipal = principal
	return s.reservation, s.err
}
func (s *stubReservationService) UpdateReservationStatus(ctx context.Context, id uuid.UUID, req *models.UpdateReservationStatusRequest) (*models.Reservation, error) {
	s.lastStatus = req.Status
	return s.reservation, s.err
}
func (s *stubReservationService) ReservationPricing(ctx context.Context, id uuid.UUID, principal *auth.Claims) (*models.ReservationPricing, error) {
	s.lastPrincipal = principal
	return s.pricing, s.err
}

func sampleReservation() *models.Reservation {
	return &models.Reservation{
		ID:          uuid.New(),
		UserID:      "u1",
		HotelID:     uuid.New(),
		Status:      models.ReservationStatusPending,
		TotalAmount: 1807.92,
	}
}

const createReservationBody = `{
	"hotel_id": "123e4567-e89b-12d3-a456-426614174000",
	"stay": {"check_in": "2025-03-10", "check_out": "2025-03-17", "adults": 2},
	"guest_name": "Jane Doe",
	"guest_email": "jane@example.com",
	"quoted_total": 1807.92
}`

func TestReservationHandler_Create(t *testing.T) {
	svc := &stubReservationService{reservation: sampleReservation()}
	h := NewReservationHandler(svc, newTestLogger())

	rr := httptest.NewRecorder()
	h.CreateReservation(rr, withClaims(jsonRequest(http.MethodPost, "/api/reservations", createReservationBody), "u1", auth.RoleGuest))
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if svc.lastUser != "u1" || svc.lastCreate.QuotedTotal == nil || *svc.lastCreate.QuotedTotal != 1807.92 {
		t.Fatalf("unexpected create call: user=%s req=%+v", svc.lastUser, svc.lastCreate)
	}
	if svc.lastCreate.Stay.Nights() != 7 || svc.lastCreate.HotelID.String() != "123e4567-e89b-12d3-a456-426614174000" {
		t.Fatalf("request decoded incorrectly: %+v", svc.lastCreate)
	}
}

func TestReservationHandler_CreateLogsOnlyFailures(t *testing.T) {
	log, buf := newBufferedLogger()
	h := NewReservationHandler(&stubReservationService{reservation: sampleReservation()}, log)

	rr := httptest.NewRecorder()
	h.CreateReservation(rr, withClaims(jsonRequest(http.MethodPost, "/api/reservations", createReservationBody), "u1", auth.RoleGuest))
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rr.Code)
	}
	if strings.Contains(buf.String(), "Reservation created") {
		t.Fatalf("successful creation is logged by the service, handler wrote: %s", buf.String())
	}

	cancelled := sampleReservation()
	cancelled.Status = models.ReservationStatusCancelled
	h = NewReservationHandler(&stubReservationService{reservation: cancelled}, log)
	rr = httptest.NewRecorder()
	target := "/api/reservations/" + cancelled.ID.String() + "/cancel"
	h.CancelReservation(rr, withClaims(httptest.NewRequest(http.MethodPost, target, nil), "u1", auth.RoleGuest))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if buf.Len() != 0 {
		t.Fatalf("expected no handler log entries, got: %s", buf.String())
	}
}

func TestReservationHandler_CreateErrors(t *testing.T) {
	h := NewReservationHandler(&stubReservationService{}, newTestLogger())

	rr := httptest.NewRecorder()
	h.CreateReservation(rr, jsonRequest(http.MethodPost, "/api/reservations", createReservationBody))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without claims, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.CreateReservation(rr, withClaims(jsonRequest(http.MethodPost, "/api/reservations", `{"hotel_id":`), "u1", ""))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for broken json, got %d", rr.Code)
	}

	conflict := NewReservationHandler(&stubReservationService{err: apperror.Conflict("price has changed", nil)}, newTestLogger())
	rr = httptest.NewRecorder()
	conflict.CreateReservation(rr, withClaims(jsonRequest(http.MethodPost, "/api/reservations", createReservationBody), "u1", ""))
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409 on price change, got %d", rr.Code)
	}
}

func TestReservationHandler_ListMine(t *testing.T) {
	svc := &stubReservationService{reservations: []*models.Reservation{sampleReservation()}}
	h := NewReservationHandler(svc, newTestLogger())

	rr := httptest.NewRecorder()
	h.ListMyReservations(rr, withClaims(httptest.NewRequest(http.MethodGet, "/api/reservations?limit=5&offset=10", nil), "u7", ""))
	if rr.Code != http.StatusOK || svc.lastUser != "u7" || svc.limit != 5 || svc.offset != 10 {
		t.Fatalf("unexpected list call: code=%d user=%s limit=%d offset=%d", rr.Code, svc.lastUser, svc.limit, svc.offset)
	}

	var body struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil || body.Count != 1 {
		t.Fatalf("unexpected body: %s", rr.Body.String())
	}
}

func TestReservationHandler_GetPassesPrincipal(t *testing.T) {
	res := sampleReservation()
	svc := &stubReservationService{reservation: res}
	h := NewReservationHandler(svc, newTestLogger())

	rr := httptest.NewRecorder()
	h.GetReservation(rr, withClaims(httptest.NewRequest(http.MethodGet, "/api/reservations/"+res.ID.String(), nil), "u1", auth.RoleAdmin))
	if rr.Code != http.StatusOK || svc.lastPrincipal == nil || !svc.lastPrincipal.IsAdmin() {
		t.Fatalf("expected principal forwarded, code=%d principal=%+v", rr.Code, svc.lastPrincipal)
	}

	hidden := NewReservationHandler(&stubReservationService{err: apperror.NotFound("reservation not found", nil)}, newTestLogger())
	rr = httptest.NewRecorder()
	hidden.GetReservation(rr, withClaims(httptest.NewRequest(http.MethodGet, "/api/reservations/"+res.ID.String(), nil), "intruder", ""))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for foreign reservation, got %d", rr.Code)
	}
}

func TestReservationHandler_Cancel(t *testing.T) {
	res := sampleReservation()
	res.Status = models.ReservationStatusCancelled
	h := NewReservationHandler(&stubReservationService{reservation: res}, newTestLogger())

	rr := httptest.NewRecorder()
	h.CancelReservation(rr, withClaims(httptest.NewRequest(http.MethodPost, "/api/reservations/"+res.ID.String()+"/cancel", nil), "u1", ""))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	late := NewReservationHandler(&stubReservationService{err: apperror.Conflict("reservation can no longer be cancelled", nil)}, newTestLogger())
	rr = httptest.NewRecorder()
	late.CancelReservation(rr, withClaims(httptest.NewRequest(http.MethodPost, "/api/reservations/"+res.ID.String()+"/cancel", nil), "u1", ""))
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}
}

func TestReservationHandler_Pricing(t *testing.T) {
	res := sampleReservation()
	details := &models.ReservationPricing{ReservationID: res.ID, Source: models.PricingSourceStored, TotalAmount: res.TotalAmount}
	h := NewReservationHandler(&stubReservationService{pricing: details}, newTestLogger())

	rr := httptest.NewRecorder()
	h.GetReservationPricing(rr, withClaims(httptest.NewRequest(http.MethodGet, "/api/reservations/"+res.ID.String()+"/pricing", nil), "u1", ""))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var got models.ReservationPricing
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil || got.Source != models.PricingSourceStored {
		t.Fatalf("unexpected body: %s", rr.Body.String())
	}
}

func TestReservationHandler_AdminList(t *testing.T) {
	svc := &stubReservationService{}
	h := NewReservationHandler(svc, newTestLogger())
	hotelID := uuid.New()

	rr := httptest.NewRecorder()
	h.ListReservations(rr, httptest.NewRequest(http.MethodGet, "/api/admin/reservations?status=confirmed&hotel_id="+hotelID.String()+"&user_id=u1&limit=50", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	f := svc.lastFilter
	if f.Status == nil || *f.Status != models.ReservationStatusConfirmed || f.HotelID == nil || *f.HotelID != hotelID || f.UserID != "u1" || f.Limit != 50 {
		t.Fatalf("unexpected filter: %+v", f)
	}

	for _, query := range []string{"status=lost", "hotel_id=abc", "limit=-5"} {
		rr = httptest.NewRecorder()
		h.ListReservations(rr, httptest.NewRequest(http.MethodGet, "/api/admin/reservations?"+query, nil))
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for %q, got %d", query, rr.Code)
		}
	}
}

func TestReservationHandler_UpdateStatus(t *testing.T) {
	res := sampleReservation()
	res.Status = models.ReservationStatusConfirmed
	svc := &stubReservationService{reservation: res}
	h := NewReservationHandler(svc, newTestLogger())

	rr := httptest.NewRecorder()
	h.UpdateReservationStatus(rr, jsonRequest(http.MethodPut, "/api/admin/reservations/"+res.ID.String()+"/status", `{"status":"confirmed"}`))
	if rr.Code != http.StatusOK || svc.lastStatus != models.ReservationStatusConfirmed {
		t.Fatalf("unexpected status update: code=%d status=%s", rr.Code, svc.lastStatus)
	}

	bad := NewReservationHandler(&stubReservationService{err: apperror.Conflict("invalid status transition", nil)}, newTestLogger())
	rr = httptest.NewRecorder()
	bad.UpdateReservationStatus(rr, jsonRequest(http.MethodPut, "/api/admin/reservations/"+res.ID.String()+"/status", `{"status":"pending"}`))
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.UpdateReservationStatus(rr, jsonRequest(http.MethodPut, "/api/admin/reservations/oops/status", `{"status":"confirmed"}`))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad id, got %d", rr.Code)
	}
}
