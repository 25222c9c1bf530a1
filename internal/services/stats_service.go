package services

import (
	"context"
	"fmt"
	"time"

	"hotel-booking/internal/apperror"
	"hotel-booking/internal/config"
	"hotel-booking/internal/logger"
	"hotel-booking/internal/models"
	"hotel-booking/internal/redis"
)

const (
	DefaultTopHotelsLimit = 5
	MaxTopHotelsLimit     = 50
	defaultStatsRange     = 30 * 24 * time.Hour
	defaultStatsCacheTTL  = 10 * time.Minute
	defaultStatsMaxDays   = 366
)

type statsSource interface {
	Stats(ctx context.Context, filter models.StatsFilter) (*models.ReservationStats, error)
}

// StatsService агрегирует показатели бронирований для админ-панели и кеширует их в Redis
type StatsService struct {
	source     statsSource
	cache      CacheStore
	log        *logger.Logger
	cacheTTL   time.Duration
	maxRange   time.Duration
	defaultTop int
	now        func() time.Time
}

// NewStatsService создает сервис статистики. cache может быть nil.
func NewStatsService(source statsSource, cache CacheStore, log *logger.Logger, cfg *config.StatsConfig) *StatsService {
	s := &StatsService{
		source:     source,
		cache:      cache,
		log:        log,
		cacheTTL:   defaultStatsCacheTTL,
		maxRange:   defaultStatsMaxDays * 24 * time.Hour,
		defaultTop: DefaultTopHotelsLimit,
		now:        time.Now,
	}
	if cfg != nil {
		if cfg.CacheTTLMinutes > 0 {
			s.cacheTTL = time.Duration(cfg.CacheTTLMinutes) * time.Minute
		}
		if cfg.MaxRangeDays > 0 {
			s.maxRange = time.Duration(cfg.MaxRangeDays) * 24 * time.Hour
		}
		if cfg.DefaultTopHotels > 0 {
			s.defaultTop = cfg.DefaultTopHotels
		}
	}
	return s
}

// GetStats возвращает показатели за интервал [From, To).
// Без границ берутся последние 30 дней.
func (s *StatsService) GetStats(ctx context.Context, filter models.StatsFilter) (*models.ReservationStats, error) {
	filter, err := s.normalizeFilter(filter)
	if err != nil {
		return nil, err
	}

	cacheKey := s.buildCacheKey(filter)
	if s.cache != nil {
		var cached models.ReservationStats
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	stats, err := s.source.Stats(ctx, filter)
	if err != nil {
		return nil, err
	}
	stats.GeneratedAt = s.now().UTC()

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, stats, s.cacheTTL); err != nil {
			s.log.WithError(err).WithField("key", cacheKey).Warn("Failed to cache reservation stats")
		}
	}
	return stats, nil
}

// InvalidateCache сбрасывает закешированную статистику
func (s *StatsService) InvalidateCache(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.DeleteByPrefix(ctx, redis.KeyPrefixStats+":")
}

func (s *StatsService) normalizeFilter(filter models.StatsFilter) (models.StatsFilter, error) {
	if filter.To.IsZero() {
		filter.To = models.NewDate(s.now().UTC()).AddDate(0, 0, 1)
	}
	if filter.From.IsZero() {
		filter.From = filter.To.Add(-defaultStatsRange)
	}
	filter.From = filter.From.UTC()
	filter.To = filter.To.UTC()

	if !filter.From.Before(filter.To) {
		return filter, apperror.Validation("from must be before to", nil)
	}
	if filter.To.Sub(filter.From) > s.maxRange {
		return filter, apperror.Validation(fmt.Sprintf("stats range must not exceed %d days", int(s.maxRange.Hours()/24)), nil)
	}

	if filter.TopHotelLimit <= 0 {
		filter.TopHotelLimit = s.defaultTop
	}
	if filter.TopHotelLimit > MaxTopHotelsLimit {
		filter.TopHotelLimit = MaxTopHotelsLimit
	}
	return filter, nil
}

func (s *StatsService) buildCacheKey(filter models.StatsFilter) string {
	return redis.GenerateKey(redis.KeyPrefixStats, fmt.Sprintf("reservations:%d:%d:%d",
		filter.From.Unix(), filter.To.Unix(), filter.TopHotelLimit))
}
