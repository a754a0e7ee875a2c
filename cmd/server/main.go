package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/splitsettle/internal/auth"
	"github.com/mmynk/splitsettle/internal/config"
	"github.com/mmynk/splitsettle/internal/gateway"
	"github.com/mmynk/splitsettle/internal/idempotency"
	"github.com/mmynk/splitsettle/internal/metrics"
	"github.com/mmynk/splitsettle/internal/middleware"
	"github.com/mmynk/splitsettle/internal/service"
	"github.com/mmynk/splitsettle/internal/settlement"
	"github.com/mmynk/splitsettle/internal/storage"
	"github.com/mmynk/splitsettle/internal/storage/postgres"
	"github.com/mmynk/splitsettle/internal/storage/sqlite"
	"github.com/mmynk/splitsettle/pkg/api/splitv1/splitv1connect"
	"github.com/mmynk/splitsettle/pkg/logging"
)

const (
	tokenDuration   = 24 * time.Hour
	shutdownTimeout = 10 * time.Second
)

func main() {
	if err := run(); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := logging.Setup(cfg.LogLevel, cfg.LogFormat); err != nil {
		return err
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	guard, closeGuard, err := openGuard(cfg)
	if err != nil {
		return err
	}
	defer closeGuard()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	tracker := settlement.NewTracker(store, guard, m)
	splitService := service.NewSplitService(store, tracker,
		service.WithMetrics(m),
		service.WithRetryLimit(cfg.PaymentRetryLimit),
	)

	secret := cfg.JWTSecret
	if secret == "" {
		secret = uuid.NewString()
		slog.Warn("JWT_SECRET not set, using a random secret; tokens will not survive a restart")
	}
	jwtManager := auth.NewJWTManager(secret, tokenDuration)

	if cfg.PaymentServerKey == "" {
		slog.Warn("PAYMENT_SERVER_KEY not set, webhook signatures are not verified")
	}
	webhook := service.NewPaymentWebhook(gateway.NewPaymentNotifier(cfg.PaymentServerKey), tracker, cfg.PaymentRetryLimit)

	splitPath, splitHandler := splitv1connect.NewSplitServiceHandler(splitService,
		connect.WithInterceptors(
			middleware.LoggingInterceptor(),
			middleware.Authenticate(jwtManager, splitv1connect.PublicProcedures),
		),
	)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLogger)
	r.Use(corsMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", metrics.Handler(reg))
	r.Mount("/webhooks", webhook.Routes())
	r.Mount(splitPath, splitHandler)

	// h2c for HTTP/2 without TLS, needed by gRPC clients
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           h2c.NewHandler(r, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Connect server starting",
			"address", srv.Addr,
			"url", fmt.Sprintf("http://localhost%s", srv.Addr),
			"db_driver", cfg.DBDriver,
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openStore(cfg *config.Config) (storage.Store, error) {
	switch cfg.DBDriver {
	case "postgres":
		store, err := postgres.New(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize postgres storage: %w", err)
		}
		slog.Info("Storage initialized", "driver", "postgres")
		return store, nil
	default:
		store, err := sqlite.New(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize sqlite storage: %w", err)
		}
		slog.Info("Storage initialized", "driver", "sqlite", "database", cfg.DBPath)
		return store, nil
	}
}

// openGuard prefers the shared redis guard and falls back to an in-process one.
func openGuard(cfg *config.Config) (idempotency.Guard, func(), error) {
	if cfg.RedisURL == "" {
		return idempotency.NewMemoryGuard(cfg.EventTTL), func() {}, nil
	}
	guard, err := idempotency.NewRedisGuard(cfg.RedisURL, cfg.EventTTL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	slog.Info("Idempotency guard initialized", "backend", "redis")
	return guard, func() { guard.Close() }, nil
}

// corsMiddleware adds CORS headers for browser access
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, Connect-Protocol-Version, Connect-Timeout-Ms")
		w.Header().Set("Access-Control-Expose-Headers", "Connect-Protocol-Version, Connect-Timeout-Ms")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
