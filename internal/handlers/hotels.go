package handlers

import (
	"net/http"
	"strings"

	"hotel-booking/internal/logger"
	"hotel-booking/internal/models"
)

const hotelsPathPrefix = "/api/hotels/"

// HotelHandler представляет обработчик каталога отелей
type HotelHandler struct {
	hotels HotelService
	log    *logger.Logger
}

// NewHotelHandler создает новый обработчик отелей
func NewHotelHandler(hotels HotelService, log *logger.Logger) *HotelHandler {
	return &HotelHandler{hotels: hotels, log: log}
}

// SearchHotels ищет активные отели по городу, цене, звёздам и вместимости
func (h *HotelHandler) SearchHotels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	filter, err := parseHotelFilter(r)
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	hotels, err := h.hotels.SearchHotels(r.Context(), filter)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to search hotels")
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"hotels": hotels,
		"count":  len(hotels),
		"limit":  filter.Limit,
		"offset": filter.Offset,
	})
}

// GetHotel возвращает карточку отеля
func (h *HotelHandler) GetHotel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	hotelID, err := extractUUIDFromPath(r.URL.Path, hotelsPathPrefix)
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid hotel ID")
		return
	}

	hotel, err := h.hotels.GetHotel(r.Context(), hotelID)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to get hotel")
		return
	}

	writeJSONResponse(w, http.StatusOK, hotel)
}

// CreateHotel добавляет отель в каталог
func (h *HotelHandler) CreateHotel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req models.CreateHotelRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	hotel, err := h.hotels.CreateHotel(r.Context(), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to create hotel")
		return
	}

	writeJSONResponse(w, http.StatusCreated, hotel)
}

// UpdateHotel частично обновляет отель
func (h *HotelHandler) UpdateHotel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	hotelID, err := extractUUIDFromPath(r.URL.Path, hotelsPathPrefix)
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid hotel ID")
		return
	}

	var req models.UpdateHotelRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	hotel, err := h.hotels.UpdateHotel(r.Context(), hotelID, &req)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to update hotel")
		return
	}

	writeJSONResponse(w, http.StatusOK, hotel)
}

// DeleteHotel снимает отель с продажи
func (h *HotelHandler) DeleteHotel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	hotelID, err := extractUUIDFromPath(r.URL.Path, hotelsPathPrefix)
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid hotel ID")
		return
	}

	if err := h.hotels.DeleteHotel(r.Context(), hotelID); err != nil {
		writeServiceError(w, h.log, err, "Failed to delete hotel")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func parseHotelFilter(r *http.Request) (models.HotelFilter, error) {
	q := r.URL.Query()
	filter := models.HotelFilter{City: strings.TrimSpace(q.Get("city"))}

	var err error
	if filter.MinPrice, err = queryFloat(q, "min_price"); err != nil {
		return filter, err
	}
	if filter.MaxPrice, err = queryFloat(q, "max_price"); err != nil {
		return filter, err
	}
	if filter.MinStars, err = queryInt(q, "min_stars"); err != nil {
		return filter, err
	}
	if filter.Guests, err = queryInt(q, "guests"); err != nil {
		return filter, err
	}
	if filter.Limit, filter.Offset, err = parsePagination(q); err != nil {
		return filter, err
	}
	return filter, nil
}
