package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"hotel-booking/internal/config"
	"hotel-booking/internal/logger"
	"hotel-booking/internal/models"
)

const defaultStatsTimeout = 5 * time.Second

// StatsHandler обрабатывает эндпоинт статистики бронирований
type StatsHandler struct {
	stats   StatsProvider
	log     *logger.Logger
	timeout time.Duration
}

// NewStatsHandler создает новый обработчик статистики
func NewStatsHandler(stats StatsProvider, log *logger.Logger, cfg *config.StatsConfig) *StatsHandler {
	timeout := defaultStatsTimeout
	if cfg != nil && cfg.RequestTimeoutSeconds > 0 {
		timeout = time.Duration(cfg.RequestTimeoutSeconds) * time.Second
	}
	return &StatsHandler{stats: stats, log: log, timeout: timeout}
}

// GetStats возвращает выручку, число ночей и топ отелей за период.
// Параметр to включает указанный день.
func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	filter, err := parseStatsFilter(r)
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	stats, err := h.stats.GetStats(ctx, filter)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to load stats")
		return
	}

	writeJSONResponse(w, http.StatusOK, stats)
}

func parseStatsFilter(r *http.Request) (models.StatsFilter, error) {
	q := r.URL.Query()
	var filter models.StatsFilter

	if raw := strings.TrimSpace(q.Get("from")); raw != "" {
		from, err := models.ParseDate(raw)
		if err != nil {
			return filter, fmt.Errorf("invalid 'from' date, expected YYYY-MM-DD")
		}
		filter.From = from.Time
	}
	if raw := strings.TrimSpace(q.Get("to")); raw != "" {
		to, err := models.ParseDate(raw)
		if err != nil {
			return filter, fmt.Errorf("invalid 'to' date, expected YYYY-MM-DD")
		}
		filter.To = to.AddDate(0, 0, 1)
	}
	if !filter.From.IsZero() && !filter.To.IsZero() && !filter.From.Before(filter.To) {
		return filter, fmt.Errorf("'from' date must not be after 'to' date")
	}

	top, err := queryInt(q, "top")
	if err != nil {
		return filter, err
	}
	filter.TopHotelLimit = top
	return filter, nil
}
