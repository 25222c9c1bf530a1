package handlers

import (
	"net/http"

	"hotel-booking/internal/auth"
	"hotel-booking/internal/logger"
)

// AuthMiddleware проверяет Bearer токены и кладёт claims в контекст запроса
type AuthMiddleware struct {
	tokens TokenParser
	log    *logger.Logger
}

// NewAuthMiddleware создает middleware аутентификации
func NewAuthMiddleware(tokens TokenParser, log *logger.Logger) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, log: log}
}

// Optional разбирает токен, если он передан. Запрос без токена проходит анонимно,
// с неверным токеном отклоняется.
func (m *AuthMiddleware) Optional(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			next(w, r)
			return
		}

		claims, ok := m.authenticate(w, header)
		if !ok {
			return
		}
		next(w, r.WithContext(auth.WithClaims(r.Context(), claims)))
	}
}

// RequireAuth пропускает только запросы с валидным токеном
func (m *AuthMiddleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := auth.ClaimsFromContext(r.Context()); ok {
			next(w, r)
			return
		}

		header := r.Header.Get("Authorization")
		if header == "" {
			writeErrorResponse(w, http.StatusUnauthorized, "Authorization header required")
			return
		}

		claims, ok := m.authenticate(w, header)
		if !ok {
			return
		}
		next(w, r.WithContext(auth.WithClaims(r.Context(), claims)))
	}
}

// RequireAdmin пропускает только администраторов
func (m *AuthMiddleware) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return m.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		claims, _ := auth.ClaimsFromContext(r.Context())
		if !claims.IsAdmin() {
			writeErrorResponse(w, http.StatusForbidden, "Admin role required")
			return
		}
		next(w, r)
	})
}

func (m *AuthMiddleware) authenticate(w http.ResponseWriter, header string) (*auth.Claims, bool) {
	token, ok := auth.BearerToken(header)
	if !ok {
		writeErrorResponse(w, http.StatusUnauthorized, "Bearer token required")
		return nil, false
	}

	claims, err := m.tokens.Parse(token)
	if err != nil {
		if m.log != nil {
			m.log.WithError(err).Debug("Rejected access token")
		}
		writeErrorResponse(w, http.StatusUnauthorized, "Invalid or expired token")
		return nil, false
	}
	return claims, true
}
