package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Драйверы хранилища
const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

// DefaultJWTSecret используется, если JWT_SECRET не задан. Годится только для разработки.
const DefaultJWTSecret = "dev-secret-change-me"

// Config представляет конфигурацию приложения
type Config struct {
	Server    ServerConfig    `json:"server"`
	Storage   StorageConfig   `json:"storage"`
	Database  DatabaseConfig  `json:"database"`
	Redis     RedisConfig     `json:"redis"`
	Kafka     KafkaConfig     `json:"kafka"`
	Logger    LoggerConfig    `json:"logger"`
	Pricing   PricingConfig   `json:"pricing"`
	Cache     CacheConfig     `json:"cache"`
	Stats     StatsConfig     `json:"stats"`
	RateLimit RateLimitConfig `json:"rate_limit"`
	Auth      AuthConfig      `json:"auth"`
}

// ServerConfig представляет конфигурацию HTTP сервера
type ServerConfig struct {
	Port            string `json:"port"`
	Host            string `json:"host"`
	ReadTimeout     int    `json:"read_timeout"`
	WriteTimeout    int    `json:"write_timeout"`
	ShutdownTimeout int    `json:"shutdown_timeout"`
}

// StorageConfig выбирает хранилище отелей и бронирований
type StorageConfig struct {
	Driver string `json:"driver"` // postgres | memory
}

// DatabaseConfig представляет конфигурацию базы данных
type DatabaseConfig struct {
	Host         string `json:"host"`
	Port         string `json:"port"`
	User         string `json:"user"`
	Password     string `json:"password"`
	DBName       string `json:"db_name"`
	SSLMode      string `json:"ssl_mode"`
	MaxOpenConns int    `json:"max_open_conns"`
	MaxIdleConns int    `json:"max_idle_conns"`
	AutoMigrate  bool   `json:"auto_migrate"`
}

// RedisConfig представляет конфигурацию Redis
type RedisConfig struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

// KafkaConfig представляет конфигурацию Kafka
type KafkaConfig struct {
	Brokers []string `json:"brokers"`
	GroupID string   `json:"group_id"`
	Topics  Topics   `json:"topics"`
}

// Topics представляет список топиков Kafka
type Topics struct {
	Reservations string `json:"reservations"`
	Hotels       string `json:"hotels"`
}

// LoggerConfig представляет конфигурацию логгера
type LoggerConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
	File   string `json:"file"`
}

// PricingConfig хранит параметры расчёта цены
type PricingConfig struct {
	DefaultBasePrice float64 `json:"default_base_price"`
	Currency         string  `json:"currency"`
}

// CacheConfig описывает кеширование каталога отелей
type CacheConfig struct {
	HotelTTLMinutes       int `json:"hotel_ttl_minutes"`
	LocalMaxSize          int `json:"local_max_size"`
	LocalTTLSeconds       int `json:"local_ttl_seconds"`
	ReservationTTLMinutes int `json:"reservation_ttl_minutes"`
}

// StatsConfig хранит настройки статистики для админ-панели
type StatsConfig struct {
	CacheTTLMinutes       int `json:"cache_ttl_minutes"`
	MaxRangeDays          int `json:"max_range_days"`
	DefaultTopHotels      int `json:"default_top_hotels"`
	RequestTimeoutSeconds int `json:"request_timeout_seconds"`
}

// RateLimitConfig описывает настройки rate limiting
type RateLimitConfig struct {
	Enabled       bool   `json:"enabled"`
	Requests      int    `json:"requests"`
	WindowSeconds int    `json:"window_seconds"`
	KeyPrefix     string `json:"key_prefix"`
}

// AuthConfig описывает проверку JWT токенов
type AuthConfig struct {
	JWTSecret     string `json:"-"`
	Issuer        string `json:"issuer"`
	TokenTTLHours int    `json:"token_ttl_hours"`
}

// InsecureSecret сообщает, что токены подписываются общеизвестным или пустым ключом
func (c *AuthConfig) InsecureSecret() bool {
	return c.JWTSecret == "" || c.JWTSecret == DefaultJWTSecret
}

// LoadEnvFile подгружает переменные из .env файла, не перетирая уже заданные.
// Отсутствие файла ошибкой не считается.
func LoadEnvFile(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	return nil
}

// Load загружает конфигурацию из переменных окружения
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			ReadTimeout:     getEnvAsInt("SERVER_READ_TIMEOUT", 10),
			WriteTimeout:    getEnvAsInt("SERVER_WRITE_TIMEOUT", 10),
			ShutdownTimeout: getEnvAsInt("SERVER_SHUTDOWN_TIMEOUT", 30),
		},
		Storage: StorageConfig{
			Driver: strings.ToLower(getEnv("STORAGE_DRIVER", StorageDriverPostgres)),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "booking_user"),
			Password:     getEnv("DB_PASSWORD", "booking_pass"),
			DBName:       getEnv("DB_NAME", "hotel_booking"),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			AutoMigrate:  getEnvAsBool("DB_AUTO_MIGRATE", true),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers: strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
			GroupID: getEnv("KAFKA_GROUP_ID", "hotel-booking"),
			Topics: Topics{
				Reservations: getEnv("KAFKA_TOPIC_RESERVATIONS", "reservations"),
				Hotels:       getEnv("KAFKA_TOPIC_HOTELS", "hotels"),
			},
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
			File:   getEnv("LOG_FILE", ""),
		},
		Pricing: PricingConfig{
			DefaultBasePrice: getEnvAsFloat("PRICING_DEFAULT_BASE_PRICE", 199.0),
			Currency:         getEnv("PRICING_CURRENCY", "EUR"),
		},
		Cache: CacheConfig{
			HotelTTLMinutes:       getEnvAsInt("CACHE_HOTEL_TTL_MINUTES", 15),
			LocalMaxSize:          getEnvAsInt("CACHE_LOCAL_MAX_SIZE", 1000),
			LocalTTLSeconds:       getEnvAsInt("CACHE_LOCAL_TTL_SECONDS", 60),
			ReservationTTLMinutes: getEnvAsInt("CACHE_RESERVATION_TTL_MINUTES", 15),
		},
		Stats: StatsConfig{
			CacheTTLMinutes:       getEnvAsInt("STATS_CACHE_TTL_MINUTES", 10),
			MaxRangeDays:          getEnvAsInt("STATS_MAX_RANGE_DAYS", 366),
			DefaultTopHotels:      getEnvAsInt("STATS_DEFAULT_TOP_HOTELS", 5),
			RequestTimeoutSeconds: getEnvAsInt("STATS_REQUEST_TIMEOUT_SECONDS", 5),
		},
		RateLimit: RateLimitConfig{
			Enabled:       getEnvAsBool("RATE_LIMIT_ENABLED", false),
			Requests:      getEnvAsInt("RATE_LIMIT_REQUESTS", 100),
			WindowSeconds: getEnvAsInt("RATE_LIMIT_WINDOW_SECONDS", 60),
			KeyPrefix:     getEnv("RATE_LIMIT_KEY_PREFIX", "ratelimit"),
		},
		Auth: AuthConfig{
			JWTSecret:     getEnv("JWT_SECRET", DefaultJWTSecret),
			Issuer:        getEnv("JWT_ISSUER", "hotel-booking"),
			TokenTTLHours: getEnvAsInt("JWT_TOKEN_TTL_HOURS", 24),
		},
	}
}

// getEnv получает значение переменной окружения с значением по умолчанию
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt получает значение переменной окружения как int с значением по умолчанию
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsFloat получает значение переменной окружения как float64 с значением по умолчанию
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool получает значение переменной окружения как bool с значением по умолчанию
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := strings.ToLower(getEnv(key, ""))
	if valueStr == "true" || valueStr == "1" || valueStr == "yes" {
		return true
	}
	if valueStr == "false" || valueStr == "0" || valueStr == "no" {
		return false
	}
	return defaultValue
}
