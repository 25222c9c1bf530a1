package cache

import (
	"context"
	"errors"
	"time"

	"hotel-booking/internal/config"
	"hotel-booking/internal/logger"
	"hotel-booking/internal/models"
	"hotel-booking/internal/redis"

	"github.com/google/uuid"
	"github.com/karlseguin/ccache/v3"
)

// RemoteCache представляет общий кеш между инстансами (Redis)
type RemoteCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// HotelCache представляет двухуровневый кеш отелей: локальный ccache и Redis.
// Redis может отсутствовать, тогда работает только локальный уровень.
type HotelCache struct {
	local     *ccache.Cache[*models.Hotel]
	remote    RemoteCache
	log       *logger.Logger
	localTTL  time.Duration
	remoteTTL time.Duration
}

// NewHotelCache создает кеш отелей
func NewHotelCache(cfg *config.CacheConfig, remote RemoteCache, log *logger.Logger) *HotelCache {
	maxSize := int64(cfg.LocalMaxSize)
	if maxSize <= 0 {
		maxSize = 1000
	}
	localTTL := time.Duration(cfg.LocalTTLSeconds) * time.Second
	if localTTL <= 0 {
		localTTL = time.Minute
	}
	remoteTTL := time.Duration(cfg.HotelTTLMinutes) * time.Minute
	if remoteTTL <= 0 {
		remoteTTL = 15 * time.Minute
	}

	return &HotelCache{
		local:     ccache.New(ccache.Configure[*models.Hotel]().MaxSize(maxSize)),
		remote:    remote,
		log:       log,
		localTTL:  localTTL,
		remoteTTL: remoteTTL,
	}
}

// Get ищет отель сначала локально, затем в Redis
func (c *HotelCache) Get(ctx context.Context, id uuid.UUID) (*models.Hotel, bool) {
	key := hotelKey(id)

	if item := c.local.Get(key); item != nil && !item.Expired() {
		return item.Value(), true
	}

	if c.remote == nil {
		return nil, false
	}

	var hotel models.Hotel
	if err := c.remote.Get(ctx, key, &hotel); err != nil {
		if !errors.Is(err, redis.ErrCacheMiss) {
			c.log.WithError(err).WithField("key", key).Warn("Failed to read hotel from Redis")
		}
		return nil, false
	}

	c.local.Set(key, &hotel, c.localTTL)
	return &hotel, true
}

// Set сохраняет отель на обоих уровнях
func (c *HotelCache) Set(ctx context.Context, hotel *models.Hotel) {
	key := hotelKey(hotel.ID)
	c.local.Set(key, hotel, c.localTTL)

	if c.remote == nil {
		return
	}
	if err := c.remote.Set(ctx, key, hotel, c.remoteTTL); err != nil {
		c.log.WithError(err).WithField("key", key).Warn("Failed to cache hotel in Redis")
	}
}

// Invalidate удаляет отель с обоих уровней
func (c *HotelCache) Invalidate(ctx context.Context, id uuid.UUID) {
	key := hotelKey(id)
	c.local.Delete(key)

	if c.remote == nil {
		return
	}
	if err := c.remote.Delete(ctx, key); err != nil {
		c.log.WithError(err).WithField("key", key).Warn("Failed to invalidate hotel in Redis")
	}
}

// InvalidateLocal удаляет отель только из локального уровня.
// Вызывается по событиям из Kafka, Redis к этому моменту уже очищен автором изменения.
func (c *HotelCache) InvalidateLocal(id uuid.UUID) {
	c.local.Delete(hotelKey(id))
}

// Stop останавливает фоновые горутины ccache
func (c *HotelCache) Stop() {
	c.local.Stop()
}

func hotelKey(id uuid.UUID) string {
	return redis.GenerateKey(redis.KeyPrefixHotel, id.String())
}
