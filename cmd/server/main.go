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
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"

	"github.com/mmynk/amencash/internal/auth"
	"github.com/mmynk/amencash/internal/config"
	"github.com/mmynk/amencash/internal/events"
	"github.com/mmynk/amencash/internal/ledger"
	"github.com/mmynk/amencash/internal/metrics"
	"github.com/mmynk/amencash/internal/middleware"
	"github.com/mmynk/amencash/internal/service"
	"github.com/mmynk/amencash/internal/storage"
	"github.com/mmynk/amencash/internal/storage/memory"
	"github.com/mmynk/amencash/internal/storage/sqlite"
	"github.com/mmynk/amencash/pkg/logging"
)

const shutdownTimeout = 10 * time.Second

// demoPassword is shared by the seeded demo accounts.
const demoPassword = "password123"

var demoUsers = []struct {
	email, username, displayName string
}{
	{"alice@example.com", "alice", "Alice Johnson"},
	{"bob@example.com", "bob", "Bob Smith"},
}

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	config.LoadDotEnv()

	cfg := config.Load()
	logging.SetupWithLevel(logging.ParseLevel(cfg.LogLevel))

	if err := cfg.Validate(); err != nil {
		slog.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	publisher, err := openPublisher(cfg)
	if err != nil {
		return err
	}
	if closer, ok := publisher.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	m := metrics.New()
	engine := ledger.New(store,
		ledger.WithPublisher(publisher),
		ledger.WithMetrics(m),
		ledger.WithMembershipCheck(cfg.EnforceMembership),
	)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenDuration)
	authenticator := auth.NewPasswordAuthenticator(store)

	if cfg.SeedDemoUsers {
		seedDemoUsers(ctx, authenticator)
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newHandler(cfg, store, engine, authenticator, jwtManager, m),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("Connect server starting", "address", server.Addr, "url", fmt.Sprintf("http://localhost:%s", cfg.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func openStore(cfg *config.Config) (storage.Store, error) {
	switch cfg.DataBackend {
	case "memory":
		slog.Warn("Using in-memory storage; data is lost on restart")
		return memory.New(), nil
	default:
		store, err := sqlite.New(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		slog.Info("Storage initialized", "database", cfg.DBPath)
		return store, nil
	}
}

func openPublisher(cfg *config.Config) (events.Publisher, error) {
	if cfg.AMQPURL == "" {
		slog.Info("Event publishing disabled - no AMQP_URL provided")
		return events.NopPublisher{}, nil
	}
	publisher, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize AMQP publisher: %w", err)
	}
	slog.Info("Publishing ledger events", "exchange", cfg.AMQPExchange)
	return publisher, nil
}

// seedDemoUsers registers the demo accounts that do not exist yet.
func seedDemoUsers(ctx context.Context, authenticator auth.Authenticator) {
	for _, u := range demoUsers {
		_, err := authenticator.Register(ctx, u.email, u.username, u.displayName, demoPassword)
		switch {
		case err == nil:
			slog.Info("Demo user seeded", "email", u.email)
		case errors.Is(err, auth.ErrUserExists):
		default:
			slog.Error("Failed to seed demo user", "email", u.email, "error", err)
		}
	}
}

func newHandler(cfg *config.Config, users storage.UserStore, engine *ledger.Engine, authenticator auth.Authenticator, jwtManager *auth.JWTManager, m *metrics.Metrics) http.Handler {
	mux := http.NewServeMux()

	// Register Connect services
	opts := connect.WithInterceptors(middleware.MetricsInterceptor(m))
	mux.Handle(service.NewAuthServiceHandler(
		service.NewAuthService(authenticator, jwtManager, users, slog.Default()), jwtManager, opts))
	mux.Handle(service.NewGroupServiceHandler(service.NewGroupService(engine), jwtManager, opts))
	mux.Handle(service.NewExpenseServiceHandler(service.NewExpenseService(engine), jwtManager, opts))

	mux.Handle("GET "+cfg.MetricsPath, m.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})

	// Add logging and CORS middleware
	loggedHandler := loggingMiddleware(corsMiddleware(mux))

	// Wrap with h2c for HTTP/2 without TLS (required for Connect)
	return h2c.NewHandler(loggedHandler, &http2.Server{})
}

// loggingMiddleware logs all incoming requests
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		next.ServeHTTP(w, r)

		slog.Debug("Request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// corsMiddleware adds CORS headers for browser access
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Connect-Protocol-Version, Connect-Timeout-Ms")
		w.Header().Set("Access-Control-Expose-Headers", "Connect-Protocol-Version, Connect-Timeout-Ms")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
