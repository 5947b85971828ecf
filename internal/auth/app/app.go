package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	httpapi "github.com/aussiebroadwan/tabauth/internal/auth/http"
	"github.com/aussiebroadwan/tabauth/internal/auth/service"
	"github.com/aussiebroadwan/tabauth/internal/auth/store"
	"github.com/aussiebroadwan/tabauth/internal/auth/store/drivers/postgres"
	"github.com/aussiebroadwan/tabauth/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/tabauth/pkg/cryptox"
	"github.com/aussiebroadwan/tabauth/pkg/httpx"
	"github.com/aussiebroadwan/tabauth/pkg/jwtx"
	"github.com/aussiebroadwan/tabauth/pkg/metricsx"
	"github.com/aussiebroadwan/tabauth/pkg/slogx"
	"github.com/aussiebroadwan/tabauth/pkg/workerx"
)

// hashQueueDepth bounds requests waiting for an argon2 worker.
const hashQueueDepth = 64

// BuildVersion is overridden at build time via ldflags.
var BuildVersion = "dev"

// Application encapsulates the auth service application with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db       store.Store
	hasher   *cryptox.HashService
	hashOpts []cryptox.Option
	tokens   *jwtx.TokenService
	pool     *workerx.Pool
	metrics  *metricsx.Metrics

	authService *service.AuthService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(ctx context.Context, cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "tabauth",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initCrypto(); err != nil {
		return nil, err
	}

	if err := app.initDatabase(ctx); err != nil {
		return nil, err
	}

	if err := app.db.ApplyMigrations(); err != nil {
		_ = app.db.Close()
		return nil, fmt.Errorf("failed to apply database migrations: %w", err)
	}
	app.logger.Info("database migrations applied successfully", "driver", cfg.DBDriver)

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Handler exposes the fully wrapped HTTP handler.
func (app *Application) Handler() http.Handler { return app.server.Handler }

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.logger.Info("auth service starting", "addr", app.cfg.Addr(), "version", BuildVersion)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	// Block until we receive a shutdown signal or server error
	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.closeBackends()
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown stops accepting requests, drains in-flight ones, then stops the
// hashing pool and closes the store.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if err := app.closeBackends(); err != nil {
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

func (app *Application) closeBackends() error {
	if err := app.pool.Close(); err != nil {
		app.logger.Error("error stopping hash pool", "error", err)
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}
	return nil
}

func (app *Application) initCrypto() error {
	var opts []cryptox.Option
	if app.cfg.PepperFile != "" {
		raw, err := os.ReadFile(app.cfg.PepperFile)
		if err != nil {
			return fmt.Errorf("failed to read pepper file: %w", err)
		}
		opts = append(opts, cryptox.WithPepper(strings.TrimSpace(string(raw))))
	}

	hasher, err := cryptox.NewHashService(opts...)
	if err != nil {
		return fmt.Errorf("failed to initialize hash service: %w", err)
	}
	app.hasher = hasher
	app.hashOpts = opts

	tokens, err := jwtx.NewTokenService([]byte(app.cfg.JWTSecret), app.cfg.JWTKID, jwtx.WithTTL(app.cfg.TokenTTL))
	if err != nil {
		return fmt.Errorf("failed to initialize token service: %w", err)
	}
	app.tokens = tokens
	app.logger.Info("token service ready", "kid", tokens.KID(), "ttl", tokens.TTL().String())
	return nil
}

// newHasher returns a hasher with its own salt for each stored password.
func (app *Application) newHasher() (service.PasswordHasher, error) {
	h, err := cryptox.NewHashService(app.hashOpts...)
	if err != nil {
		return nil, err
	}
	return h, nil
}

// initDatabase opens the configured driver.
func (app *Application) initDatabase(ctx context.Context) error {
	db, err := OpenStore(ctx, app.cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db
	return nil
}

// OpenStore opens the store named by cfg.DBDriver without migrating it.
func OpenStore(ctx context.Context, cfg Config) (store.Store, error) {
	switch cfg.DBDriver {
	case DriverPostgres:
		return postgres.NewStore(ctx, cfg.DatabaseURL, postgres.PoolConfig{
			MaxConns:       int32(cfg.DBMaxOpen),
			AcquireTimeout: cfg.DBPoolTimeout,
		})
	default:
		return sqlite.NewStore(cfg.SQLiteDSN(), sqlite.PoolConfig{
			MaxOpen: cfg.DBMaxOpen,
			MaxIdle: cfg.DBMaxIdle,
		})
	}
}

// initServices initializes all business logic services
func (app *Application) initServices() {
	app.metrics = metricsx.New()
	app.pool = workerx.New(app.cfg.HashWorkers, hashQueueDepth,
		workerx.WithObserver(app.metrics),
		workerx.WithLogger(app.logger),
	)

	app.authService = &service.AuthService{
		Store:     app.db,
		Hasher:    app.hasher,
		NewHasher: app.newHasher,
		Tokens:    app.tokens,
		Pool:      app.pool,
		Metrics:   app.metrics,
	}
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	var metrics *metricsx.Metrics
	if app.cfg.MetricsEnabled {
		metrics = app.metrics
	}

	router := httpapi.NewRouter(
		httpx.NewFilters(app.cfg.Realm, app.cfg.BearerScheme),
		BuildVersion,
		app.db,
		app.pool,
		metrics,
		app.logger,
	)
	router.AuthService = app.authService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              app.cfg.Addr(),
		Handler:           otelhttp.NewHandler(router, "tabauth"),
		ReadHeaderTimeout: 3 * time.Second,
	}
}
