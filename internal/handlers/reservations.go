package handlers

import (
	"net/http"
	"strings"

	"hotel-booking/internal/auth"
	"hotel-booking/internal/logger"
	"hotel-booking/internal/models"

	"github.com/google/uuid"
)

const (
	reservationsPathPrefix      = "/api/reservations/"
	adminReservationsPathPrefix = "/api/admin/reservations/"
)

// ReservationHandler представляет обработчик бронирований
type ReservationHandler struct {
	reservations ReservationService
	log          *logger.Logger
}

// NewReservationHandler создает новый обработчик бронирований
func NewReservationHandler(reservations ReservationService, log *logger.Logger) *ReservationHandler {
	return &ReservationHandler{reservations: reservations, log: log}
}

// CreateReservation бронирует номер от имени текущего пользователя
func (h *ReservationHandler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeErrorResponse(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req models.CreateReservationRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	reservation, err := h.reservations.CreateReservation(r.Context(), claims.UserID, &req)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to create reservation")
		return
	}

	writeJSONResponse(w, http.StatusCreated, reservation)
}

// ListMyReservations возвращает бронирования текущего пользователя
func (h *ReservationHandler) ListMyReservations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeErrorResponse(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	limit, offset, err := parsePagination(r.URL.Query())
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	reservations, err := h.reservations.ListUserReservations(r.Context(), claims.UserID, limit, offset)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to list reservations")
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"reservations": reservations,
		"count":        len(reservations),
	})
}

// GetReservation возвращает бронирование владельцу или администратору
func (h *ReservationHandler) GetReservation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	reservationID, err := extractUUIDFromPath(r.URL.Path, reservationsPathPrefix)
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid reservation ID")
		return
	}

	claims, _ := auth.ClaimsFromContext(r.Context())
	reservation, err := h.reservations.GetReservation(r.Context(), reservationID, claims)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to get reservation")
		return
	}

	writeJSONResponse(w, http.StatusOK, reservation)
}

// CancelReservation отменяет бронирование до даты заезда
func (h *ReservationHandler) CancelReservation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	reservationID, err := extractUUIDFromPath(r.URL.Path, reservationsPathPrefix)
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid reservation ID")
		return
	}

	claims, _ := auth.ClaimsFromContext(r.Context())
	reservation, err := h.reservations.CancelReservation(r.Context(), reservationID, claims)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to cancel reservation")
		return
	}

	writeJSONResponse(w, http.StatusOK, reservation)
}

// GetReservationPricing возвращает детализацию цены бронирования
func (h *ReservationHandler) GetReservationPricing(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	reservationID, err := extractUUIDFromPath(r.URL.Path, reservationsPathPrefix)
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid reservation ID")
		return
	}

	claims, _ := auth.ClaimsFromContext(r.Context())
	details, err := h.reservations.ReservationPricing(r.Context(), reservationID, claims)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to get reservation pricing")
		return
	}

	writeJSONResponse(w, http.StatusOK, details)
}

// ListReservations возвращает бронирования с фильтрами для администратора
func (h *ReservationHandler) ListReservations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	filter, err := parseReservationFilter(r)
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	reservations, err := h.reservations.ListReservations(r.Context(), filter)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to list reservations")
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"reservations": reservations,
		"count":        len(reservations),
		"limit":        filter.Limit,
		"offset":       filter.Offset,
	})
}

// UpdateReservationStatus меняет статус бронирования (подтверждение, завершение, отмена)
func (h *ReservationHandler) UpdateReservationStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	reservationID, err := extractUUIDFromPath(r.URL.Path, adminReservationsPathPrefix)
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid reservation ID")
		return
	}

	var req models.UpdateReservationStatusRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	reservation, err := h.reservations.UpdateReservationStatus(r.Context(), reservationID, &req)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to update reservation status")
		return
	}

	writeJSONResponse(w, http.StatusOK, reservation)
}

func parseReservationFilter(r *http.Request) (models.ReservationFilter, error) {
	q := r.URL.Query()
	var filter models.ReservationFilter

	if raw := strings.TrimSpace(q.Get("status")); raw != "" {
		status := models.ReservationStatus(raw)
		if !status.Valid() {
			return filter, errInvalidParam("status")
		}
		filter.Status = &status
	}
	if raw := strings.TrimSpace(q.Get("hotel_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filter, errInvalidParam("hotel_id")
		}
		filter.HotelID = &id
	}
	filter.UserID = strings.TrimSpace(q.Get("user_id"))

	var err error
	if filter.Limit, filter.Offset, err = parsePagination(q); err != nil {
		return filter, err
	}
	return filter, nil
}
