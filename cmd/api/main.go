package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/selimbh/craftmarket/internal/auth"
	"github.com/selimbh/craftmarket/internal/domain"
	"github.com/selimbh/craftmarket/internal/listings"
	"github.com/selimbh/craftmarket/internal/messaging"
	"github.com/selimbh/craftmarket/internal/orders"
	"github.com/selimbh/craftmarket/internal/telemetry"
	"github.com/selimbh/craftmarket/internal/users"
)

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, "api", "0.1.0")
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(ctx) }()

	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider("api", "0.1.0")
	if err != nil {
		logger.Error("failed to initialize meter", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownMeter(ctx) }()

	if err := telemetry.InitRuntimeMetrics(); err != nil {
		logger.Error("failed to start runtime metrics", "error", err)
		os.Exit(1)
	}

	postgresURL := os.Getenv("POSTGRES_URL")
	if postgresURL == "" {
		logger.Error("POSTGRES_URL environment variable is required")
		os.Exit(1)
	}

	db, err := telemetry.OpenDB("postgres", postgresURL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		logger.Error("REDIS_ADDR environment variable is required")
		os.Exit(1)
	}

	redisClient := redis.NewClient(&redis.Options{Addr: redisAddr})
	defer func() { _ = redisClient.Close() }()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Error("JWT_SECRET environment variable is required")
		os.Exit(1)
	}

	accessTTL := durationEnv("ACCESS_TOKEN_TTL", 30*time.Minute, logger)
	refreshTTL := durationEnv("REFRESH_TOKEN_TTL", 30*24*time.Hour, logger)

	var publisher orders.Publisher
	kafkaBrokers := os.Getenv("KAFKA_BROKERS")
	if kafkaBrokers != "" {
		producer := messaging.NewProducer(strings.Split(kafkaBrokers, ","), "order.events")
		defer func() { _ = producer.Close() }()
		publisher = producer
	}

	refreshStore := auth.NewRedisRefreshStore(redisClient)
	issuer := auth.NewIssuer([]byte(jwtSecret), accessTTL, refreshTTL, refreshStore)
	mw := auth.NewMiddleware(issuer)

	userRepo := users.NewRepository(db)
	listingRepo := listings.NewRepository(db)
	orderRepo := orders.NewRepository(db)

	orderService := orders.NewService(orderRepo, listingRepo, publisher, logger)

	authHandler := auth.NewHandler(userRepo, issuer, logger)
	listingHandler := listings.NewHandler(listingRepo, logger)
	orderHandler := orders.NewHandler(orderService, logger)

	mux := http.NewServeMux()
	route := func(pattern string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, telemetry.WithHTTPRoute(h))
	}

	route("POST /v1/auth/register", authHandler.HandleRegister)
	route("POST /v1/auth/login", authHandler.HandleLogin)
	route("POST /v1/auth/refresh", authHandler.HandleRefresh)
	route("POST /v1/auth/logout", mw.Require(authHandler.HandleLogout))

	route("GET /v1/listings", listingHandler.HandleList)
	route("GET /v1/listings/{listingId}", listingHandler.HandleGet)
	route("POST /v1/listings", mw.RequireRole(listingHandler.HandleCreate, domain.RoleArtisan, domain.RoleAdmin))

	route("POST /v1/orders", mw.Require(orderHandler.HandleCreate))
	route("GET /v1/orders", mw.Require(orderHandler.HandleList))
	route("GET /v1/orders/{orderId}", mw.Require(orderHandler.HandleGet))
	route("PUT /v1/orders/{orderId}", mw.Require(orderHandler.HandleUpdate))
	route("DELETE /v1/orders/{orderId}", mw.Require(orderHandler.HandleDelete))

	mux.Handle("GET /metrics", metricsHandler)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	server := &http.Server{
		Addr: ":" + port,
		Handler: otelhttp.NewHandler(mux, "api",
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				if r.Pattern != "" {
					return r.Pattern
				}
				return r.Method + " " + r.URL.Path
			}),
		),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting api service", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}

func durationEnv(name string, def time.Duration, logger *slog.Logger) time.Duration {
	raw := os.Getenv(name)
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		logger.Error("invalid duration", "name", name, "value", raw, "error", err)
		os.Exit(1)
	}
	return d
}
