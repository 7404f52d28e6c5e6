package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	httpapi "github.com/aussiebroadwan/m2mgate/internal/gateway/http"
	"github.com/aussiebroadwan/m2mgate/internal/gateway/registry"
	"github.com/aussiebroadwan/m2mgate/internal/gateway/service"
	"github.com/aussiebroadwan/m2mgate/internal/gateway/store"
	"github.com/aussiebroadwan/m2mgate/internal/gateway/store/drivers/sqlite"
	"github.com/aussiebroadwan/m2mgate/pkg/httpx"
	"github.com/aussiebroadwan/m2mgate/pkg/jwtx"
	"github.com/aussiebroadwan/m2mgate/pkg/ratelimit"
	"github.com/aussiebroadwan/m2mgate/pkg/slogx"
)

// BuildVersion is overridden at build time via ldflags.
var BuildVersion = "v0.1.0"

// Application wires the gateway's dependencies and owns their lifecycle.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db       store.Store
	registry *registry.Registry
	signer   jwtx.Signer
	verifier jwtx.Verifier
	limiter  interface {
		ratelimit.Limiter
		ratelimit.Sweeper
	}

	tokenService        *service.TokenService
	userContexts        *service.UserContextService
	customerService     *service.CustomerService
	housekeepingService *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New creates an Application with all dependencies initialized. cfg is
// validated again so hand-built configs get the same startup checks.
func New(cfg Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "m2m-gateway",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	reg, err := registry.Load(cfg.RegistrySources())
	if err != nil {
		return nil, fmt.Errorf("failed to load client registry: %w", err)
	}
	if reg.Len() == 0 {
		app.logger.Warn("no oauth2 clients configured; every token request will fail")
	}
	app.registry = reg

	if cfg.JWTSecret == "" {
		app.logger.Warn("JWT_SECRET is not set; token issuance will return server_error", "env", cfg.Env)
	}
	app.signer = jwtx.NewSignerHS256(cfg.JWTSecret)
	app.verifier = jwtx.NewVerifierHS256(cfg.JWTSecret, cfg.Issuer)

	limiter, err := ratelimit.New(cfg.RateLimitAlgorithm, ratelimit.SystemClock{})
	if err != nil {
		return nil, err
	}
	app.limiter = limiter

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run serves until SIGINT or SIGTERM, then shuts down gracefully.
func (app *Application) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return app.RunContext(ctx)
}

// RunContext serves until ctx is cancelled or a member fails.
func (app *Application) RunContext(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		app.logger.Info("m2m gateway starting",
			"port", app.cfg.Port,
			"version", BuildVersion,
			"clients", app.registry.IDs(),
		)
		if err := app.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		app.logger.Info("shutting down m2m gateway...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
		defer cancel()

		if err := app.server.Shutdown(shutdownCtx); err != nil {
			app.logger.Error("graceful server shutdown failed", "error", err)
			if err := app.server.Close(); err != nil {
				app.logger.Error("error closing server", "error", err)
			}
		}
		return nil
	})

	g.Go(func() error {
		return app.housekeepingService.Run(gctx)
	})

	err := g.Wait()

	if cerr := app.db.Close(); cerr != nil {
		app.logger.Error("error closing database", "error", cerr)
		err = errors.Join(err, cerr)
	}

	app.logger.Info("m2m gateway stopped")
	return err
}

// Handler exposes the configured router.
func (app *Application) Handler() http.Handler { return app.router }

func (app *Application) initDatabase() error {
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)",
		app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(dsn)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

func (app *Application) initServices() {
	app.tokenService = &service.TokenService{
		Clients:   app.registry,
		Signer:    app.signer,
		Issuer:    app.cfg.Issuer,
		AccessTTL: app.cfg.TokenTTL,
	}

	app.userContexts = &service.UserContextService{
		Profiles: app.db.Profiles(),
		Timeout:  app.cfg.UserContextTimeout,
	}

	app.customerService = &service.CustomerService{
		Store: app.db,
		Audit: &service.AuditService{Logs: app.db.AuditLogs()},
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.limiter,
		app.logger,
		app.cfg.RateLimitSweepInterval,
	)
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(httpapi.Options{
		Version:  BuildVersion,
		Logger:   app.logger,
		Store:    app.db,
		Registry: app.registry,
		Signer:   app.signer,
		Verifier: app.verifier,
		Limiter:  app.limiter,
		Policies: httpapi.Policies{
			Read:  app.cfg.ReadPolicy(),
			Write: app.cfg.WritePolicy(),
			Token: app.cfg.TokenPolicy(),
		},
		IPAllow: httpx.IPAllowConfig{
			Allowlist:  app.cfg.AllowedIPs,
			Permissive: app.cfg.IPPermissive,
		},
		AutoProvision: app.cfg.AutoProvision,
	})

	router.TokenService = app.tokenService
	router.UserContexts = app.userContexts
	router.CustomerService = app.customerService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
