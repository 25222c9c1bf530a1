package handlers

import (
	"net/http"

	"hotel-booking/internal/logger"
	"hotel-booking/internal/models"
)

// QuoteHandler рассчитывает цену проживания без бронирования
type QuoteHandler struct {
	quotes QuoteService
	log    *logger.Logger
}

// NewQuoteHandler создает обработчик расчёта цены
func NewQuoteHandler(quotes QuoteService, log *logger.Logger) *QuoteHandler {
	return &QuoteHandler{quotes: quotes, log: log}
}

// HotelQuote считает цену проживания в конкретном отеле по его базовой ставке
func (h *QuoteHandler) HotelQuote(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	hotelID, err := extractUUIDFromPath(r.URL.Path, hotelsPathPrefix)
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid hotel ID")
		return
	}

	stay, err := models.ParseStayQuery(r.URL.Query())
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to parse stay")
		return
	}

	quote, err := h.quotes.QuoteForHotel(r.Context(), hotelID, stay)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to calculate quote")
		return
	}

	writeJSONResponse(w, http.StatusOK, quote)
}

// Quote считает цену по переданной базовой ставке
func (h *QuoteHandler) Quote(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req models.QuoteRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.BasePrice < 0 {
		writeErrorResponse(w, http.StatusBadRequest, "base_price must not be negative")
		return
	}

	quote, err := h.quotes.Quote(req.StayRequest, req.BasePrice)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to calculate quote")
		return
	}

	writeJSONResponse(w, http.StatusOK, quote)
}
