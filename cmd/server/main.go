package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"hotel-booking/internal/auth"
	"hotel-booking/internal/cache"
	"hotel-booking/internal/config"
	"hotel-booking/internal/database"
	"hotel-booking/internal/handlers"
	"hotel-booking/internal/kafka"
	"hotel-booking/internal/logger"
	"hotel-booking/internal/models"
	"hotel-booking/internal/redis"
	"hotel-booking/internal/repository"
	"hotel-booking/internal/services"

	"github.com/google/uuid"
)

// Фабричные функции для подключения внешних сервисов (подменяемые в тестах).
var (
	dbConnect        = database.Connect
	redisConnect     = redis.Connect
	newKafkaProducer = kafka.NewProducer
	newKafkaConsumer = kafka.NewConsumer
	kafkaHealthCheck = handlers.CheckKafkaHealth
	loadConfig       = config.Load
	newLogger        = logger.New
)

// application агрегирует собранные зависимости.
type application struct {
	cfg        *config.Config
	log        *logger.Logger
	db         *database.DB
	redis      *redis.Client
	producer   *kafka.Producer
	consumer   *kafka.Consumer
	hotelCache *cache.HotelCache
	mux        *http.ServeMux
	server     *http.Server
}

// httpHandlers собирает обработчики для маршрутов
type httpHandlers struct {
	hotels       *handlers.HotelHandler
	quotes       *handlers.QuoteHandler
	reservations *handlers.ReservationHandler
	stats        *handlers.StatsHandler
	health       *handlers.HealthHandler
	rateLimit    *handlers.RateLimitHandler
}

func main() {
	if err := config.LoadEnvFile(os.Getenv("ENV_FILE")); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load env file: %v\n", err)
		os.Exit(1)
	}

	app, err := buildApplication()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build app: %v\n", err)
		os.Exit(1)
	}
	app.log.Info("Starting hotel booking server...")

	go func() {
		app.log.WithField("address", app.server.Addr).Info("HTTP server starting")
		if err := app.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.log.WithError(err).Fatal("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	app.log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(app.cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()
	if err := app.server.Shutdown(ctx); err != nil {
		app.log.WithError(err).Error("Server forced to shutdown")
	}
	app.close()
	app.log.Info("Server exited")
}

// close освобождает ресурсы; безопасен для частично собранного приложения
func (a *application) close() {
	_ = a.consumer.Stop()
	_ = a.producer.Close()
	if a.hotelCache != nil {
		a.hotelCache.Stop()
	}
	_ = a.redis.Close()
	_ = a.db.Close()
}

// checkAuthSecret не даёт поднять postgres-инсталляцию с ключом подписи по умолчанию
func checkAuthSecret(cfg *config.Config, log *logger.Logger) error {
	if !cfg.Auth.InsecureSecret() {
		return nil
	}
	if cfg.Storage.Driver == config.StorageDriverMemory {
		log.Warn("JWT_SECRET is not set, using development secret")
		return nil
	}
	return fmt.Errorf("JWT_SECRET must be set for storage driver %q", cfg.Storage.Driver)
}

// buildApplication создает все зависимости (подменяемые в тестах).
// PostgreSQL обязателен только для драйвера postgres; Redis и Kafka опциональны.
func buildApplication() (*application, error) {
	cfg := loadConfig()
	log := newLogger(&cfg.Logger)
	app := &application{cfg: cfg, log: log}

	if err := checkAuthSecret(cfg, log); err != nil {
		return nil, err
	}

	hotelStore, reservationStore, err := app.openStorage()
	if err != nil {
		return nil, err
	}

	redisClient, err := redisConnect(&cfg.Redis, log)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, caching and rate limiting disabled")
		redisClient = nil
	}
	app.redis = redisClient

	// интерфейсы заполняются только живыми клиентами
	var (
		remoteCache cache.RemoteCache
		cacheStore  services.CacheStore
		rateCounter services.RateCounter
		redisHealth handlers.RedisHealth
	)
	if redisClient != nil {
		remoteCache, cacheStore, rateCounter, redisHealth = redisClient, redisClient, redisClient, redisClient
	}

	var (
		hotelEvents       services.HotelEvents
		reservationEvents services.ReservationEvents
		kafkaBrokers      []string
	)
	if hasBrokers(cfg.Kafka.Brokers) {
		producer, err := newKafkaProducer(&cfg.Kafka, log)
		if err != nil {
			log.WithError(err).Warn("Kafka producer unavailable, events disabled")
		} else {
			app.producer = producer
			hotelEvents, reservationEvents = producer, producer
			kafkaBrokers = cfg.Kafka.Brokers
		}
	}

	app.hotelCache = cache.NewHotelCache(&cfg.Cache, remoteCache, log)
	tokens := auth.NewTokenManager(&cfg.Auth)

	hotelService := services.NewHotelService(hotelStore, app.hotelCache, hotelEvents, log)
	quoteService := services.NewQuoteService(nil, hotelService, &cfg.Pricing)
	reservationService := services.NewReservationService(reservationStore, hotelService, quoteService, reservationEvents, cacheStore, log, &cfg.Cache)
	statsService := services.NewStatsService(reservationStore, cacheStore, log, &cfg.Stats)
	rateLimiter := services.NewRateLimiter(rateCounter, log, &cfg.RateLimit)

	var dbHealth handlers.DBHealth
	if app.db != nil {
		dbHealth = app.db
	}

	h := httpHandlers{
		hotels:       handlers.NewHotelHandler(hotelService, log),
		quotes:       handlers.NewQuoteHandler(quoteService, log),
		reservations: handlers.NewReservationHandler(reservationService, log),
		stats:        handlers.NewStatsHandler(statsService, log, &cfg.Stats),
		health:       handlers.NewHealthHandler(dbHealth, redisHealth, kafkaBrokers, kafkaHealthCheck),
		rateLimit:    handlers.NewRateLimitHandler(rateLimiter, log, &cfg.RateLimit),
	}

	if app.producer != nil {
		app.startConsumer(statsService)
	}

	app.mux = setupRoutes(h, handlers.NewAuthMiddleware(tokens, log), rateLimiter, log)
	app.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      app.mux,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	return app, nil
}

// openStorage выбирает хранилище отелей и бронирований
func (a *application) openStorage() (services.HotelStore, services.ReservationStore, error) {
	switch a.cfg.Storage.Driver {
	case config.StorageDriverMemory:
		a.log.Warn("Using in-memory storage, data is lost on restart")
		return repository.NewMemoryHotelStore(), repository.NewMemoryReservationStore(), nil
	case config.StorageDriverPostgres, "":
		db, err := dbConnect(&a.cfg.Database, a.log)
		if err != nil {
			return nil, nil, fmt.Errorf("db connect: %w", err)
		}
		if a.cfg.Database.AutoMigrate {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := db.Migrate(ctx); err != nil {
				_ = db.Close()
				return nil, nil, fmt.Errorf("db migrate: %w", err)
			}
		}
		a.db = db
		return repository.NewHotelRepository(db), repository.NewReservationRepository(db), nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", a.cfg.Storage.Driver)
	}
}

// startConsumer подписывает экземпляр на события каталога и бронирований.
// Группа уникальна для экземпляра: каждый сервер должен сбросить свой локальный кеш.
func (a *application) startConsumer(stats *services.StatsService) {
	kafkaCfg := a.cfg.Kafka
	kafkaCfg.GroupID = fmt.Sprintf("%s-%s", kafkaCfg.GroupID, instanceID())

	consumer, err := newKafkaConsumer(&kafkaCfg, a.log)
	if err != nil {
		a.log.WithError(err).Warn("Kafka consumer unavailable, cross-instance cache invalidation disabled")
		return
	}

	registerEventHandlers(consumer, a.hotelCache, stats, a.log)
	if err := consumer.Start(); err != nil {
		a.log.WithError(err).Warn("Kafka consumer failed to start")
		_ = consumer.Stop()
		return
	}
	a.consumer = consumer
}

func instanceID() string {
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return uuid.NewString()
}

func hasBrokers(brokers []string) bool {
	for _, b := range brokers {
		if strings.TrimSpace(b) != "" {
			return true
		}
	}
	return false
}

// localHotelCache сбрасывает локальный кеш по событиям других экземпляров
type localHotelCache interface {
	InvalidateLocal(id uuid.UUID)
}

type statsInvalidator interface {
	InvalidateCache(ctx context.Context) error
}

type eventRegistrar interface {
	RegisterHandler(eventType models.EventType, handler kafka.EventHandler)
}

// registerEventHandlers регистрирует обработчики событий Kafka
func registerEventHandlers(consumer eventRegistrar, hotels localHotelCache, stats statsInvalidator, log *logger.Logger) {
	dropHotel := func(ctx context.Context, event *models.Event) error {
		raw, _ := event.Data["hotel_id"].(string)
		id, err := uuid.Parse(raw)
		if err != nil {
			return fmt.Errorf("event %s: invalid hotel_id %q", event.ID, raw)
		}
		hotels.InvalidateLocal(id)
		log.WithField("hotel_id", id).Debug("Local hotel cache invalidated")
		return nil
	}
	consumer.RegisterHandler(models.EventTypeHotelUpdated, dropHotel)
	consumer.RegisterHandler(models.EventTypeHotelDeleted, dropHotel)

	dropStats := func(ctx context.Context, event *models.Event) error {
		log.WithField("event_id", event.ID).WithField("event_type", event.Type).Debug("Reservation event received")
		return stats.InvalidateCache(ctx)
	}
	consumer.RegisterHandler(models.EventTypeReservationCreated, dropStats)
	consumer.RegisterHandler(models.EventTypeReservationStatusChanged, dropStats)
}

// setupRoutes настраивает маршруты HTTP сервера
func setupRoutes(h httpHandlers, authMW *handlers.AuthMiddleware, rateLimiter *services.RateLimiter, log *logger.Logger) *http.ServeMux {
	mux := http.NewServeMux()

	// токен разбирается до лимитера, чтобы лимит считался по пользователю
	applyAPI := func(next http.HandlerFunc) http.HandlerFunc {
		return corsMiddleware(authMW.Optional(handlers.RateLimitMiddleware(rateLimiter, log, next)))
	}
	authed := func(next http.HandlerFunc) http.HandlerFunc { return applyAPI(authMW.RequireAuth(next)) }
	admin := func(next http.HandlerFunc) http.HandlerFunc { return applyAPI(authMW.RequireAdmin(next)) }

	// Health check endpoints
	mux.HandleFunc("/health", corsMiddleware(h.health.Health))
	mux.HandleFunc("/health/readiness", corsMiddleware(h.health.Readiness))
	mux.HandleFunc("/health/liveness", corsMiddleware(h.health.Liveness))

	// Hotel endpoints
	mux.HandleFunc("/api/hotels", applyAPI(handleHotelsRoute(h.hotels, authMW)))
	mux.HandleFunc("/api/hotels/", applyAPI(handleHotelRoute(h.hotels, h.quotes, authMW)))

	// Pricing endpoints
	mux.HandleFunc("/api/pricing/quote", applyAPI(h.quotes.Quote))

	// Reservation endpoints
	mux.HandleFunc("/api/reservations", authed(handleReservationsRoute(h.reservations)))
	mux.HandleFunc("/api/reservations/", authed(handleReservationRoute(h.reservations)))

	// Admin endpoints
	mux.HandleFunc("/api/admin/reservations", admin(h.reservations.ListReservations))
	mux.HandleFunc("/api/admin/reservations/", admin(handleAdminReservationRoute(h.reservations)))
	mux.HandleFunc("/api/admin/stats", admin(h.stats.GetStats))

	// Rate limit status
	mux.HandleFunc("/api/rate-limit/status", applyAPI(h.rateLimit.Status))

	return mux
}

// handleHotelsRoute обрабатывает маршруты для коллекции отелей
func handleHotelsRoute(handler *handlers.HotelHandler, authMW *handlers.AuthMiddleware) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handler.SearchHotels(w, r)
		case http.MethodPost:
			authMW.RequireAdmin(handler.CreateHotel)(w, r)
		default:
			writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	}
}

// handleHotelRoute обрабатывает маршруты для отдельного отеля
func handleHotelRoute(handler *handlers.HotelHandler, quotes *handlers.QuoteHandler, authMW *handlers.AuthMiddleware) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/quote") {
			// Расчёт цены проживания
			if r.Method == http.MethodGet {
				quotes.HotelQuote(w, r)
			} else {
				writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
			}
			return
		}

		switch r.Method {
		case http.MethodGet:
			handler.GetHotel(w, r)
		case http.MethodPut:
			authMW.RequireAdmin(handler.UpdateHotel)(w, r)
		case http.MethodDelete:
			authMW.RequireAdmin(handler.DeleteHotel)(w, r)
		default:
			writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	}
}

// handleReservationsRoute обрабатывает маршруты для коллекции бронирований
func handleReservationsRoute(handler *handlers.ReservationHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handler.ListMyReservations(w, r)
		case http.MethodPost:
			handler.CreateReservation(w, r)
		default:
			writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	}
}

// handleReservationRoute обрабатывает маршруты для отдельного бронирования
func handleReservationRoute(handler *handlers.ReservationHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/cancel"):
			handler.CancelReservation(w, r)
		case strings.HasSuffix(r.URL.Path, "/pricing"):
			handler.GetReservationPricing(w, r)
		default:
			handler.GetReservation(w, r)
		}
	}
}

// handleAdminReservationRoute обрабатывает административные операции с бронированием
func handleAdminReservationRoute(handler *handlers.ReservationHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/status") {
			handler.UpdateReservationStatus(w, r)
			return
		}
		writeErrorResponse(w, http.StatusNotFound, "Not found")
	}
}

// corsMiddleware и другие helper функции
func corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

func writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	type errorResponse struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	})
}
