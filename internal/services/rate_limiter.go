package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"hotel-booking/internal/auth"
	"hotel-booking/internal/config"
	"hotel-booking/internal/logger"
	"hotel-booking/internal/redis"
)

// RateCounter описывает счётчики фиксированного окна в Redis
type RateCounter interface {
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
	TTL(ctx context.Context, key string) (time.Duration, error)
	GetInt(ctx context.Context, key string) (int64, error)
}

// RateDecision представляет результат проверки лимита для одного запроса
type RateDecision struct {
	Allowed   bool      `json:"allowed"`
	Limit     int64     `json:"limit"`
	Used      int64     `json:"used"`
	Remaining int64     `json:"remaining"`
	ResetAt   time.Time `json:"reset_at,omitempty"`
}

// RateLimiter ограничивает число запросов клиента в фиксированном окне.
// Клиентом считается пользователь из токена, иначе IP.
type RateLimiter struct {
	counter RateCounter
	log     *logger.Logger
	enabled bool
	limit   int64
	window  time.Duration
	prefix  string
	now     func() time.Time
}

// NewRateLimiter создаёт rate limiter. Без Redis или с выключенным конфигом пропускает всё.
func NewRateLimiter(counter RateCounter, log *logger.Logger, cfg *config.RateLimitConfig) *RateLimiter {
	if counter == nil || cfg == nil || !cfg.Enabled || cfg.Requests <= 0 || cfg.WindowSeconds <= 0 {
		return &RateLimiter{enabled: false, now: time.Now}
	}

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "ratelimit"
	}

	return &RateLimiter{
		counter: counter,
		log:     log,
		enabled: true,
		limit:   int64(cfg.Requests),
		window:  time.Duration(cfg.WindowSeconds) * time.Second,
		prefix:  prefix,
		now:     time.Now,
	}
}

// Allow учитывает запрос клиента и сообщает, укладывается ли он в лимит
func (r *RateLimiter) Allow(ctx context.Context, client string) (RateDecision, error) {
	if !r.enabled {
		return RateDecision{Allowed: true, Limit: r.limit, Remaining: r.limit}, nil
	}

	key := r.makeKey(client)
	count, err := r.counter.Incr(ctx, key)
	if err != nil {
		return RateDecision{}, fmt.Errorf("rate limiter incr failed: %w", err)
	}

	// окно открывается первым запросом
	if count == 1 {
		if err := r.counter.Expire(ctx, key, r.window); err != nil {
			r.log.WithError(err).WithField("key", key).Warn("Failed to set rate limit ttl")
		}
	}

	return RateDecision{
		Allowed:   count <= r.limit,
		Limit:     r.limit,
		Used:      count,
		Remaining: r.remaining(count),
		ResetAt:   r.resetAt(ctx, key),
	}, nil
}

// Usage возвращает состояние окна клиента, не учитывая запрос
func (r *RateLimiter) Usage(ctx context.Context, client string) (RateDecision, error) {
	if !r.enabled {
		return RateDecision{Allowed: true, Limit: r.limit, Remaining: r.limit}, nil
	}

	key := r.makeKey(client)
	count, err := r.counter.GetInt(ctx, key)
	if err != nil {
		if errors.Is(err, redis.ErrCacheMiss) {
			return RateDecision{Allowed: true, Limit: r.limit, Remaining: r.limit}, nil
		}
		return RateDecision{}, fmt.Errorf("rate limiter usage failed: %w", err)
	}

	return RateDecision{
		Allowed:   count < r.limit,
		Limit:     r.limit,
		Used:      count,
		Remaining: r.remaining(count),
		ResetAt:   r.resetAt(ctx, key),
	}, nil
}

// Limit возвращает лимит для окна
func (r *RateLimiter) Limit() int64 {
	return r.limit
}

// Enabled сообщает, включён ли rate limiting
func (r *RateLimiter) Enabled() bool {
	return r.enabled
}

func (r *RateLimiter) remaining(count int64) int64 {
	if count >= r.limit {
		return 0
	}
	return r.limit - count
}

func (r *RateLimiter) resetAt(ctx context.Context, key string) time.Time {
	ttl, err := r.counter.TTL(ctx, key)
	if err != nil || ttl <= 0 {
		if err != nil {
			r.log.WithError(err).WithField("key", key).Warn("Failed to get rate limit ttl")
		}
		ttl = r.window
	}
	return r.now().Add(ttl)
}

func (r *RateLimiter) makeKey(client string) string {
	return fmt.Sprintf("%s:%s", r.prefix, strings.ReplaceAll(client, ":", "_"))
}

// ClientKey определяет, чей лимит расходует запрос
func ClientKey(req *http.Request) string {
	if claims, ok := auth.ClaimsFromContext(req.Context()); ok {
		return "user_" + claims.UserID
	}
	return "ip_" + ExtractClientIP(req)
}

// ExtractClientIP получает IP из заголовков прокси или RemoteAddr
func ExtractClientIP(r *http.Request) string {
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		if first := strings.TrimSpace(strings.Split(forwarded, ",")[0]); first != "" {
			return first
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
