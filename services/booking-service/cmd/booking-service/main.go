package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rmedina-dev/salonbook/libs/auth"
	"github.com/rmedina-dev/salonbook/libs/config"
	"github.com/rmedina-dev/salonbook/libs/db"
	"github.com/rmedina-dev/salonbook/libs/httpx"
	"github.com/rmedina-dev/salonbook/libs/kafkax"
	otelx "github.com/rmedina-dev/salonbook/libs/otel"
	"github.com/rmedina-dev/salonbook/libs/runtime"
	"github.com/rmedina-dev/salonbook/services/booking-service/internal/availability"
	"github.com/rmedina-dev/salonbook/services/booking-service/internal/handlers"
	"github.com/rmedina-dev/salonbook/services/booking-service/internal/outbox"
	"github.com/rmedina-dev/salonbook/services/booking-service/internal/storage"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	service := config.String("SERVICE_NAME", "booking-service")
	port, err := config.Port("PORT", "8082")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}
	pool, err := db.Open(ctx, dbURL, db.Options{
		MaxConns: int32(config.Int("DB_MAX_CONNS", 10)),
		MinConns: int32(config.Int("DB_MIN_CONNS", 1)),
	})
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	jwtSecret, err := config.RequiredString("JWT_SECRET")
	if err != nil {
		panic(err)
	}

	loc, err := config.Location("SALON_TIMEZONE", "America/New_York")
	if err != nil {
		logger.Error("invalid salon timezone", "err", err)
		panic(err)
	}
	grid := availability.Grid{
		Open:        config.String("SALON_OPEN", availability.DefaultOpen),
		Close:       config.String("SALON_CLOSE", availability.DefaultClose),
		StepMinutes: config.Int("SALON_SLOT_STEP_MINUTES", availability.DefaultStepMinutes),
	}
	// Fail fast on a malformed grid rather than serving empty availability.
	if _, err := grid.Slots(time.Now().In(loc)); err != nil {
		logger.Error("invalid salon hours config", "err", err)
		panic(err)
	}

	kafkaBrokers := config.String("KAFKA_BROKERS", "")
	readyChecks := []runtime.ReadyCheck{
		{Name: "db", Check: db.ReadyCheck(pool)},
		{Name: "kafka", Check: kafkax.ReadyCheck(kafkaBrokers)},
	}

	var rdb *redis.Client
	if addr := strings.TrimSpace(config.String("REDIS_ADDR", "")); addr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: addr})
		defer rdb.Close()
		readyChecks = append(readyChecks, runtime.ReadyCheck{Name: "redis", Check: httpx.RedisReadyCheck(rdb)})
	}

	apptRepo := storage.NewAppointmentRepository(pool)
	catalogRepo := storage.NewCatalogRepository(pool)
	outboxRepo := outbox.NewRepository(pool)

	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   kafkaBrokers,
		PollEvery: config.Duration("OUTBOX_POLL_INTERVAL", 2*time.Second),
		BatchSize: config.Int("OUTBOX_BATCH_SIZE", 50),
	})
	go outboxPublisher.Run(ctx)

	bookingHandler := handlers.NewBookingHandler(apptRepo, catalogRepo, outboxRepo, logger, grid, loc)
	catalogHandler := handlers.NewCatalogHandler(catalogRepo, logger)

	requireAuth := auth.RequireAuth(jwtSecret)
	mux := runtime.NewBaseMuxWithReady(readyChecks...)
	mux.HandleFunc("/api/v1/services", catalogHandler.Services)
	mux.Handle("/api/v1/stylists", requireAuth(http.HandlerFunc(catalogHandler.Stylists)))
	mux.Handle("/api/v1/appointments/availability", requireAuth(http.HandlerFunc(bookingHandler.Availability)))
	mux.Handle("/api/v1/appointments", requireAuth(http.HandlerFunc(bookingHandler.Collection)))
	mux.Handle("/api/v1/appointments/", requireAuth(http.HandlerFunc(bookingHandler.Item)))

	middlewares := []httpx.Middleware{
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithBodyLimit(1 << 20),
		httpx.WithTimeout(15 * time.Second),
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins:   strings.Split(config.String("CORS_ALLOWED_ORIGINS", ""), ","),
			AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Authorization", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           10 * time.Minute,
		}),
	}
	if rdb != nil {
		limiter := httpx.NewRedisRateLimiter(rdb,
			config.Int("RATE_LIMIT_PER_MINUTE", 120), time.Minute, "booking")
		middlewares = append(middlewares, limiter.Middleware(logger, true))
	} else {
		limiter := httpx.NewRateLimiter(config.Int("RATE_LIMIT_PER_MINUTE", 120), time.Minute)
		middlewares = append(middlewares, limiter.Middleware())
	}

	handler := httpx.Chain(mux, middlewares...)
	handler = otelhttp.NewHandler(handler, "booking")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}
