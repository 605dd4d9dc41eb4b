package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"attache/internal/authz"
	casehandler "attache/internal/casefile/handler"
	casemetrics "attache/internal/casefile/metrics"
	caseservice "attache/internal/casefile/service"
	casestore "attache/internal/casefile/store"
	"attache/internal/docstore"
	"attache/internal/jwtauth"
	"attache/internal/payments"
	"attache/internal/platform/config"
	"attache/internal/platform/httpserver"
	"attache/internal/platform/logger"
	"attache/internal/platform/metrics"
	"attache/internal/platform/middleware"
	"attache/internal/platform/postgres"
	"attache/internal/platform/redis"
	"attache/internal/profile"
	schedcache "attache/internal/scheduling/cache"
	schedhandler "attache/internal/scheduling/handler"
	schedmetrics "attache/internal/scheduling/metrics"
	schedservice "attache/internal/scheduling/service"
	schedstore "attache/internal/scheduling/store"
	"attache/pkg/platform/events"
)

const (
	requestTimeout  = 30 * time.Second
	eventBufferSize = 256
	tokenIssuer     = "attache"
	paymentIssuer   = "attache-payments"
)

// main wires stores, collaborators, services, and the HTTP edge. Business
// logic lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	// Stores: postgres when configured, in-memory otherwise.
	db, err := postgres.Open(cfg.Postgres)
	if err != nil {
		return err
	}
	var (
		caseStore  casestore.Store
		schedStore schedstore.Store
	)
	if db != nil {
		defer db.Close()
		caseStore = casestore.NewPostgres(db)
		schedStore = schedstore.NewPostgres(db)
		log.Info("using postgres stores")
	} else {
		caseStore = casestore.NewInMemory()
		schedStore = schedstore.NewInMemory()
		log.Info("using in-memory stores")
	}

	// Availability cache: optional.
	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		return err
	}
	var availability *schedcache.AvailabilityCache
	if redisClient != nil {
		defer redisClient.Close()
		availability = schedcache.New(redisClient.Client)
		log.Info("availability cache enabled")
	}

	// Notification events: kafka when configured, in-process otherwise.
	var sink events.Sink = events.NewMemorySink()
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaSink, err := events.NewKafkaSink(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			return err
		}
		defer kafkaSink.Close()
		sink = kafkaSink
		log.Info("kafka event sink enabled", "topic", cfg.Kafka.Topic)
	}
	publisher := events.NewPublisher(sink, events.WithAsyncBuffer(eventBufferSize))
	defer publisher.Close()

	// Scheduling module.
	allocator := schedservice.NewAllocator(schedStore,
		schedservice.WithCache(availability),
		schedservice.WithEvents(publisher),
		schedservice.WithMetrics(schedmetrics.New()),
		schedservice.WithLogger(log),
	)

	// Case module with its collaborators.
	registry := profile.NewRegistry(profile.DefaultCatalog()...)
	caseService := caseservice.New(
		caseStore,
		registry,
		authz.New(),
		docstore.NewInMemory(),
		payments.NewVerifier(cfg.Auth.PaymentTokenKey, paymentIssuer),
		allocator,
		caseservice.WithEvents(publisher),
		caseservice.WithMetrics(casemetrics.New()),
		caseservice.WithLogger(log),
	)

	jwtService := jwtauth.NewJWTService(cfg.Auth.JWTSigningKey, tokenIssuer)
	httpMetrics := metrics.NewHTTP()

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recovery(log))
	router.Use(middleware.Logger(log))
	router.Use(httpMetrics.Middleware)
	router.Use(middleware.Timeout(requestTimeout))
	router.Use(middleware.ContentTypeJSON)

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	router.Handle("/metrics", promhttp.Handler())

	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(jwtService, log))
		casehandler.New(caseService, log).Register(r)
		schedhandler.New(allocator, log).Register(r)
	})

	srv := httpserver.New(cfg.Server.Addr, router)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting attache server", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
