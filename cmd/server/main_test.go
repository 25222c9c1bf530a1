package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"hotel-booking/internal/auth"
	"hotel-booking/internal/config"
	"hotel-booking/internal/database"
	"hotel-booking/internal/kafka"
	"hotel-booking/internal/logger"
	"hotel-booking/internal/models"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
)

func newTestApp(t *testing.T) (*application, *auth.TokenManager) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	cfg := config.Load()
	cfg.Storage.Driver = config.StorageDriverMemory
	cfg.Redis = config.RedisConfig{Host: mr.Host(), Port: mr.Port()}
	cfg.Kafka.Brokers = nil
	cfg.Logger = config.LoggerConfig{Level: "error", Format: "json"}
	cfg.Auth = config.AuthConfig{JWTSecret: "main-test-secret", Issuer: "hotel-booking-test", TokenTTLHours: 1}
	cfg.RateLimit = config.RateLimitConfig{Enabled: true, Requests: 1000, WindowSeconds: 60, KeyPrefix: "test"}

	prevLoad := loadConfig
	loadConfig = func() *config.Config { return cfg }
	t.Cleanup(func() { loadConfig = prevLoad })

	app, err := buildApplication()
	if err != nil {
		t.Fatalf("build application: %v", err)
	}
	t.Cleanup(app.close)
	return app, auth.NewTokenManager(&cfg.Auth)
}

func do(t *testing.T, app *application, method, target, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	app.mux.ServeHTTP(rr, req)
	return rr
}

func issue(t *testing.T, tokens *auth.TokenManager, userID, role string) string {
	t.Helper()
	token, err := tokens.Issue(userID, userID+"@example.com", role)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}

func TestBookingFlow(t *testing.T) {
	app, tokens := newTestApp(t)
	adminToken := issue(t, tokens, "admin-1", auth.RoleAdmin)
	guestToken := issue(t, tokens, "guest-1", auth.RoleGuest)

	hotelBody := `{"name":"Sea View","city":"Nice","country":"FR","star_rating":4,"base_price":199,"max_guests_per_room":3,"amenities":["WiFi","pool"]}`
	if rr := do(t, app, http.MethodPost, "/api/hotels", "", hotelBody); rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for anonymous create, got %d", rr.Code)
	}
	if rr := do(t, app, http.MethodPost, "/api/hotels", guestToken, hotelBody); rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for guest create, got %d", rr.Code)
	}

	rr := do(t, app, http.MethodPost, "/api/hotels", adminToken, hotelBody)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var hotel models.Hotel
	if err := json.Unmarshal(rr.Body.Bytes(), &hotel); err != nil {
		t.Fatalf("decode hotel: %v", err)
	}
	if rr.Header().Get("X-RateLimit-Limit") != "1000" {
		t.Fatalf("expected rate limit headers, got %v", rr.Header())
	}

	rr = do(t, app, http.MethodGet, "/api/hotels?city=nice", "", "")
	var search struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &search); err != nil || rr.Code != http.StatusOK || search.Count != 1 {
		t.Fatalf("unexpected search result: %d %s", rr.Code, rr.Body.String())
	}

	checkIn := models.NewDate(time.Now().UTC().AddDate(0, 0, 30))
	checkOut := models.NewDate(checkIn.AddDate(0, 0, 3))
	rr = do(t, app, http.MethodGet, fmt.Sprintf("/api/hotels/%s/quote?check_in=%s&check_out=%s", hotel.ID, checkIn, checkOut), "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected quote 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var quote models.Quote
	if err := json.Unmarshal(rr.Body.Bytes(), &quote); err != nil {
		t.Fatalf("decode quote: %v", err)
	}
	if quote.Pricing.TotalNights != 3 || quote.Pricing.Total <= 0 {
		t.Fatalf("unexpected quote: %+v", quote.Pricing)
	}

	reservationBody := fmt.Sprintf(`{"hotel_id":"%s","stay":{"check_in":"%s","check_out":"%s"},"guest_name":"Jane Doe","guest_email":"jane@example.com","quoted_total":%v}`,
		hotel.ID, checkIn, checkOut, quote.Pricing.Total)
	if rr := do(t, app, http.MethodPost, "/api/reservations", "", reservationBody); rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for anonymous booking, got %d", rr.Code)
	}
	rr = do(t, app, http.MethodPost, "/api/reservations", guestToken, reservationBody)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var reservation models.Reservation
	if err := json.Unmarshal(rr.Body.Bytes(), &reservation); err != nil {
		t.Fatalf("decode reservation: %v", err)
	}
	if reservation.TotalAmount != quote.Pricing.Total || reservation.Status != models.ReservationStatusPending {
		t.Fatalf("unexpected reservation: %+v", reservation)
	}

	rr = do(t, app, http.MethodGet, "/api/reservations/"+reservation.ID.String()+"/pricing", guestToken, "")
	var details models.ReservationPricing
	if err := json.Unmarshal(rr.Body.Bytes(), &details); err != nil || details.Source != models.PricingSourceStored {
		t.Fatalf("unexpected pricing details: %d %s", rr.Code, rr.Body.String())
	}

	otherToken := issue(t, tokens, "guest-2", auth.RoleGuest)
	if rr := do(t, app, http.MethodGet, "/api/reservations/"+reservation.ID.String(), otherToken, ""); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for foreign reservation, got %d", rr.Code)
	}

	if rr := do(t, app, http.MethodGet, "/api/admin/stats", guestToken, ""); rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for guest stats, got %d", rr.Code)
	}
	rr = do(t, app, http.MethodGet, "/api/admin/stats", adminToken, "")
	var stats models.ReservationStats
	if err := json.Unmarshal(rr.Body.Bytes(), &stats); err != nil || rr.Code != http.StatusOK || stats.ReservationsCount != 1 {
		t.Fatalf("unexpected stats: %d %s", rr.Code, rr.Body.String())
	}

	rr = do(t, app, http.MethodPost, "/api/reservations/"+reservation.ID.String()+"/cancel", guestToken, "")
	if err := json.Unmarshal(rr.Body.Bytes(), &reservation); err != nil || reservation.Status != models.ReservationStatusCancelled {
		t.Fatalf("unexpected cancel result: %d %s", rr.Code, rr.Body.String())
	}
	if rr := do(t, app, http.MethodPost, "/api/reservations/"+reservation.ID.String()+"/cancel", guestToken, ""); rr.Code != http.StatusConflict {
		t.Fatalf("expected 409 for repeated cancel, got %d", rr.Code)
	}

	if rr := do(t, app, http.MethodDelete, "/api/hotels/"+hotel.ID.String(), adminToken, ""); rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204 on delete, got %d", rr.Code)
	}
	if rr := do(t, app, http.MethodGet, "/api/hotels/"+hotel.ID.String(), "", ""); rr.Code != http.StatusNotFound {
		t.Fatalf("expected deactivated hotel to be hidden, got %d", rr.Code)
	}
}

func TestRoutes_PublicQuoteCORSAndHealth(t *testing.T) {
	app, _ := newTestApp(t)

	rr := do(t, app, http.MethodPost, "/api/pricing/quote", "", `{"check_in":"2031-07-04","check_out":"2031-07-05","base_price":100}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = do(t, app, http.MethodOptions, "/api/hotels", "", "")
	if rr.Code != http.StatusOK || rr.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("expected CORS preflight, got %d", rr.Code)
	}

	rr = do(t, app, http.MethodGet, "/health", "", "")
	var health struct {
		Status   string            `json:"status"`
		Services map[string]string `json:"services"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &health); err != nil || rr.Code != http.StatusOK {
		t.Fatalf("unexpected health: %d %s", rr.Code, rr.Body.String())
	}
	if health.Services["database"] != "disabled" || health.Services["kafka"] != "disabled" || health.Services["redis"] != "healthy" {
		t.Fatalf("unexpected components: %+v", health.Services)
	}

	if rr := do(t, app, http.MethodGet, "/api/admin/reservations/"+uuid.NewString(), issueAdmin(t, app), ""); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown admin route, got %d", rr.Code)
	}
}

func issueAdmin(t *testing.T, app *application) string {
	return issue(t, auth.NewTokenManager(&app.cfg.Auth), "admin-2", auth.RoleAdmin)
}

func TestBuildApplication_Failures(t *testing.T) {
	prevLoad, prevConnect := loadConfig, dbConnect
	t.Cleanup(func() { loadConfig, dbConnect = prevLoad, prevConnect })

	cfg := config.Load()
	cfg.Logger = config.LoggerConfig{Level: "error", Format: "json"}
	cfg.Auth.JWTSecret = "prod-secret"
	loadConfig = func() *config.Config { return cfg }

	cfg.Storage.Driver = "sqlite"
	if _, err := buildApplication(); err == nil {
		t.Fatalf("expected error for unknown storage driver")
	}

	cfg.Storage.Driver = config.StorageDriverPostgres
	dbConnect = func(*config.DatabaseConfig, *logger.Logger) (*database.DB, error) {
		return nil, errors.New("connection refused")
	}
	if _, err := buildApplication(); err == nil {
		t.Fatalf("expected error when postgres is unavailable")
	}
}

func TestBuildApplication_DefaultJWTSecret(t *testing.T) {
	prevLoad, prevConnect, prevLogger := loadConfig, dbConnect, newLogger
	t.Cleanup(func() { loadConfig, dbConnect, newLogger = prevLoad, prevConnect, prevLogger })

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	cfg := config.Load()
	cfg.Auth.JWTSecret = config.DefaultJWTSecret
	cfg.Redis = config.RedisConfig{Host: mr.Host(), Port: mr.Port()}
	cfg.Kafka.Brokers = nil
	loadConfig = func() *config.Config { return cfg }

	var logs bytes.Buffer
	newLogger = func(*config.LoggerConfig) *logger.Logger {
		log := logger.New(&config.LoggerConfig{Level: "warn", Format: "json"})
		log.SetOutput(&logs)
		return log
	}

	connected := false
	dbConnect = func(*config.DatabaseConfig, *logger.Logger) (*database.DB, error) {
		connected = true
		return nil, errors.New("unexpected connect")
	}

	cfg.Storage.Driver = config.StorageDriverPostgres
	_, err = buildApplication()
	if err == nil || !strings.Contains(err.Error(), "JWT_SECRET") {
		t.Fatalf("expected JWT_SECRET error, got %v", err)
	}
	if connected {
		t.Fatalf("expected startup to stop before connecting to postgres")
	}

	cfg.Storage.Driver = config.StorageDriverMemory
	app, err := buildApplication()
	if err != nil {
		t.Fatalf("memory storage should start with development secret: %v", err)
	}
	app.close()
	if !strings.Contains(logs.String(), "JWT_SECRET is not set") {
		t.Fatalf("expected warning about development secret, got: %s", logs.String())
	}
}

type fakeRegistrar struct {
	handlers map[models.EventType]kafka.EventHandler
}

func (f *fakeRegistrar) RegisterHandler(eventType models.EventType, handler kafka.EventHandler) {
	f.handlers[eventType] = handler
}

type fakeLocalCache struct{ dropped []uuid.UUID }

func (f *fakeLocalCache) InvalidateLocal(id uuid.UUID) { f.dropped = append(f.dropped, id) }

type fakeStats struct{ calls int }

func (f *fakeStats) InvalidateCache(context.Context) error {
	f.calls++
	return nil
}

func TestRegisterEventHandlers(t *testing.T) {
	reg := &fakeRegistrar{handlers: map[models.EventType]kafka.EventHandler{}}
	hotels := &fakeLocalCache{}
	stats := &fakeStats{}
	registerEventHandlers(reg, hotels, stats, logger.New(&config.LoggerConfig{Level: "error", Format: "json"}))

	if len(reg.handlers) != 4 {
		t.Fatalf("expected 4 handlers, got %d", len(reg.handlers))
	}

	ctx := context.Background()
	id := uuid.New()
	if err := reg.handlers[models.EventTypeHotelUpdated](ctx, &models.Event{Data: map[string]interface{}{"hotel_id": id.String()}}); err != nil {
		t.Fatalf("hotel updated handler failed: %v", err)
	}
	if len(hotels.dropped) != 1 || hotels.dropped[0] != id {
		t.Fatalf("expected local cache drop for %s, got %v", id, hotels.dropped)
	}
	if err := reg.handlers[models.EventTypeHotelDeleted](ctx, &models.Event{Data: map[string]interface{}{"hotel_id": 42}}); err == nil {
		t.Fatalf("expected error for malformed hotel_id")
	}

	if err := reg.handlers[models.EventTypeReservationCreated](ctx, &models.Event{ID: uuid.New()}); err != nil {
		t.Fatalf("reservation handler failed: %v", err)
	}
	if err := reg.handlers[models.EventTypeReservationStatusChanged](ctx, &models.Event{ID: uuid.New()}); err != nil {
		t.Fatalf("status handler failed: %v", err)
	}
	if stats.calls != 2 {
		t.Fatalf("expected 2 stats invalidations, got %d", stats.calls)
	}
}
