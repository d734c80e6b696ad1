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
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"fatepack/pkg/civil"
	"fatepack/pkg/platform/audit"
	"fatepack/pkg/platform/audit/publisher"
	auditmemory "fatepack/pkg/platform/audit/store/memory"
	auditpostgres "fatepack/pkg/platform/audit/store/postgres"
	auditworker "fatepack/pkg/platform/audit/worker"

	authhandler "fatepack/internal/auth/handler"
	authservice "fatepack/internal/auth/service"
	sessionstore "fatepack/internal/auth/store/session"
	deliveryhandler "fatepack/internal/delivery/handler"
	deliveryservice "fatepack/internal/delivery/service"
	deliverystore "fatepack/internal/delivery/store"
	"fatepack/internal/jwttoken"
	"fatepack/internal/notification/fanout"
	notificationhandler "fatepack/internal/notification/handler"
	notificationservice "fatepack/internal/notification/service"
	notificationstore "fatepack/internal/notification/store"
	"fatepack/internal/notification/transport"
	"fatepack/internal/platform/config"
	"fatepack/internal/platform/httpserver"
	"fatepack/internal/platform/logger"
	"fatepack/internal/platform/metrics"
	"fatepack/internal/platform/middleware"
	"fatepack/internal/platform/postgres"
	"fatepack/internal/platform/redis"
	"fatepack/internal/platform/tracing"
	residencyhandler "fatepack/internal/residency/handler"
	residencyservice "fatepack/internal/residency/service"
	residencystore "fatepack/internal/residency/store"
	residenthandler "fatepack/internal/resident/handler"
	residentservice "fatepack/internal/resident/service"
	residentstore "fatepack/internal/resident/store"
	"fatepack/internal/transport/http/shared"
	"fatepack/internal/visibility"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.FromEnv()
	log := logger.New(cfg.Environment)
	slog.SetDefault(log)
	shared.SetExposeDetail(cfg.IsDevelopment())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, log, cfg.OTLPEndpoint, cfg.Environment)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(shutdownCtx)
	}()

	clock, err := civil.NewClock(cfg.CivilTimezone)
	if err != nil {
		return err
	}

	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	if db != nil {
		defer func() { _ = db.Close() }()
	} else {
		log.Warn("DATABASE_URL not set, using in-memory stores")
	}

	redisClient, err := redis.New(cfg.RedisURL)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}

	m := metrics.New()

	// Audit trail: a channel-fed worker keeps writes off the request path;
	// Kafka mirrors the trail when brokers are configured.
	auditInbox := make(chan audit.Event, 256)
	var auditStore audit.Store
	if db != nil {
		auditStore = auditpostgres.New(db)
	} else {
		auditStore = auditmemory.New()
	}
	go func() {
		if err := auditworker.NewWorker(auditStore, auditInbox, log).Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("audit worker stopped", "error", err)
		}
	}()
	var auditor audit.Publisher = auditworker.NewChannelPublisher(auditInbox, log)
	if len(cfg.KafkaBrokers) > 0 {
		kafka, err := publisher.NewKafka(ctx, cfg.KafkaBrokers, cfg.AuditTopic, log)
		if err != nil {
			return err
		}
		defer kafka.Close()
		auditor = publisher.Multi{auditor, kafka}
	}

	// Stores.
	var (
		residents residentservice.Store
		ledger    residencyservice.Store
		registry  deliveryservice.Store
		endpoints notificationservice.Store
		sessions  authservice.SessionStore
	)
	if db != nil {
		residents = residentstore.NewPostgres(db)
		ledger = residencystore.NewPostgres(db)
		registry = deliverystore.NewPostgres(db)
		endpoints = notificationstore.NewPostgres(db)
	} else {
		residents = residentstore.NewInMemory()
		ledger = residencystore.NewInMemory()
		registry = deliverystore.NewInMemory()
		endpoints = notificationstore.NewInMemory()
	}
	if redisClient != nil {
		sessions = sessionstore.NewRedis(redisClient.Client)
	} else {
		log.Warn("REDIS_URL not set, using in-memory sessions")
		sessions = sessionstore.NewInMemory()
	}

	// Services.
	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, "fatepack", "fatepack-api")
	residentSvc := residentservice.New(residents, auditor, m)
	authSvc := authservice.New(residentSvc, sessions, jwtService, cfg.SessionTTL)
	residencySvc := residencyservice.New(ledger, auditor, m)

	dispatcher := fanout.New(transport.NewHTTP(cfg.PushTimeout))
	recipientSource, ok := residents.(notificationservice.RecipientSource)
	if !ok {
		return errors.New("resident store does not list recipient ids")
	}
	notificationSvc := notificationservice.New(endpoints, dispatcher, recipientSource, cfg.BroadcastDelay, auditor, m, log)

	visibilitySvc := visibility.NewService(residencySvc, deliveryservice.NewRecordSource(registry), log)
	deliverySvc := deliveryservice.New(registry, residencySvc, notificationSvc, visibilitySvc, clock, auditor, m, log)

	// Router.
	requireAuth := middleware.RequireAuth(jwttoken.NewMiddlewareAdapter(jwtService), authSvc, log)
	staffOnly := middleware.RequireStaff(log)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime(clock))
	r.Use(middleware.Recovery(log))
	r.Use(middleware.Logger(log))
	r.Use(middleware.Latency(m))
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.ContentTypeJSON)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			if err := db.PingContext(r.Context()); err != nil {
				shared.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
				return
			}
		}
		if redisClient != nil {
			if err := redisClient.Health(r.Context()); err != nil {
				shared.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
				return
			}
		}
		shared.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	authHandler := authhandler.New(residentSvc, authSvc, log)
	r.Group(authHandler.RegisterPublic)
	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		authHandler.RegisterAuthenticated(r)
		residenthandler.New(residentSvc, log, staffOnly).Register(r)
		residencyhandler.New(residencySvc, log, staffOnly).Register(r)
		deliveryhandler.New(deliverySvc, log, staffOnly).Register(r)
		notificationhandler.New(notificationSvc, log, staffOnly).Register(r)
	})

	server := httpserver.New(cfg.Addr, otelhttp.NewHandler(r, "fatepack"))

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.Addr, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
