package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"hotel-booking/internal/auth"
	"hotel-booking/internal/config"
	"hotel-booking/internal/logger"
)

func newTestLogger() *logger.Logger {
	return logger.New(&config.LoggerConfig{Level: "error", Format: "json"})
}

// newBufferedLogger пишет info-логи в буфер для проверки записей
func newBufferedLogger() (*logger.Logger, *bytes.Buffer) {
	log := logger.New(&config.LoggerConfig{Level: "info", Format: "json"})
	buf := &bytes.Buffer{}
	log.SetOutput(buf)
	return log, buf
}

func newTestTokens() *auth.TokenManager {
	return auth.NewTokenManager(&config.AuthConfig{JWTSecret: "test-secret", Issuer: "hotel-booking-test", TokenTTLHours: 1})
}

func mustIssue(t *testing.T, tokens *auth.TokenManager, userID, role string) string {
	t.Helper()
	token, err := tokens.Issue(userID, userID+"@example.com", role)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}

// withClaims имитирует запрос, уже прошедший проверку токена
func withClaims(r *http.Request, userID, role string) *http.Request {
	return r.WithContext(auth.WithClaims(r.Context(), &auth.Claims{UserID: userID, Role: role}))
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}
