package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/IBM/sarama"
)

const (
	statusHealthy   = "healthy"
	statusUnhealthy = "unhealthy"
	statusDisabled  = "disabled"
)

// KafkaHealthCheck проверяет доступность брокеров
type KafkaHealthCheck func(brokers []string) error

// HealthHandler представляет обработчик для проверки здоровья системы.
// Отсутствующие зависимости (nil) отмечаются как disabled и не влияют на статус.
type HealthHandler struct {
	db           DBHealth
	redis        RedisHealth
	kafkaBrokers []string
	kafkaCheck   KafkaHealthCheck
}

// NewHealthHandler создает новый обработчик здоровья
func NewHealthHandler(db DBHealth, redis RedisHealth, kafkaBrokers []string, kafkaCheck KafkaHealthCheck) *HealthHandler {
	return &HealthHandler{
		db:           db,
		redis:        redis,
		kafkaBrokers: kafkaBrokers,
		kafkaCheck:   kafkaCheck,
	}
}

// HealthResponse представляет ответ проверки здоровья
type HealthResponse struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services"`
	Version  string            `json:"version"`
	Uptime   string            `json:"uptime"`
}

var startTime = time.Now()

// Health проверяет состояние всех компонентов системы
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	results := h.check(ctx)
	overallStatus := statusHealthy
	services := make(map[string]string, len(results))
	for name, err := range results {
		switch {
		case errors.Is(err, errDisabled):
			services[name] = statusDisabled
		case err != nil:
			services[name] = statusUnhealthy + ": " + err.Error()
			overallStatus = statusUnhealthy
		default:
			services[name] = statusHealthy
		}
	}

	statusCode := http.StatusOK
	if overallStatus == statusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}

	writeJSONResponse(w, statusCode, HealthResponse{
		Status:   overallStatus,
		Services: services,
		Version:  "1.0.0",
		Uptime:   time.Since(startTime).String(),
	})
}

// Readiness проверяет готовность приложения к обработке запросов
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	for _, name := range []string{"database", "redis", "kafka"} {
		if err := h.checkOne(ctx, name); err != nil && !errors.Is(err, errDisabled) {
			writeErrorResponse(w, http.StatusServiceUnavailable, fmt.Sprintf("%s not ready", name))
			return
		}
	}

	writeJSONResponse(w, http.StatusOK, map[string]string{"status": "ready"})
}

// Liveness проверяет, что приложение живо
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]string{
		"status": "alive",
		"uptime": time.Since(startTime).String(),
	})
}

var errDisabled = errors.New("disabled")

func (h *HealthHandler) check(ctx context.Context) map[string]error {
	return map[string]error{
		"database": h.checkOne(ctx, "database"),
		"redis":    h.checkOne(ctx, "redis"),
		"kafka":    h.checkOne(ctx, "kafka"),
	}
}

func (h *HealthHandler) checkOne(ctx context.Context, name string) error {
	switch name {
	case "database":
		if h.db == nil {
			return errDisabled
		}
		return h.db.Health()
	case "redis":
		if h.redis == nil {
			return errDisabled
		}
		return h.redis.Health(ctx)
	case "kafka":
		if h.kafkaCheck == nil || len(h.kafkaBrokers) == 0 {
			return errDisabled
		}
		return h.kafkaCheck(h.kafkaBrokers)
	}
	return fmt.Errorf("unknown component %s", name)
}

// CheckKafkaHealth проверяет доступность Kafka брокеров
func CheckKafkaHealth(brokers []string) error {
	return checkKafkaHealth(brokers)
}

func checkKafkaHealth(brokers []string) error {
	if len(brokers) == 0 {
		return fmt.Errorf("no brokers configured")
	}

	cfg := sarama.NewConfig()
	cfg.Net.DialTimeout = 3 * time.Second
	cfg.Net.ReadTimeout = 5 * time.Second
	cfg.Net.WriteTimeout = 5 * time.Second
	cfg.Metadata.Retry.Max = 1
	cfg.Metadata.Retry.Backoff = 500 * time.Millisecond

	client, err := sarama.NewClient(brokers, cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	return nil
}
