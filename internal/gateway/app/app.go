package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/docbrief/docbrief/internal/gateway/http"
	"github.com/docbrief/docbrief/internal/gateway/service"
	"github.com/docbrief/docbrief/internal/gateway/store"
	"github.com/docbrief/docbrief/internal/gateway/store/drivers/sqlite"
	"github.com/docbrief/docbrief/pkg/oidc"
	"github.com/docbrief/docbrief/pkg/ollama"
	"github.com/docbrief/docbrief/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the gateway application with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db       store.Store
	keys     *oidc.KeyCache // nil in introspection mode
	verifier oidc.TokenVerifier
	llm      *ollama.Client

	// Services
	summarizeService *service.SummarizeService
	usageService     *service.UsageService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "docbrief-gateway",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	app.initVerifier()
	app.llm = ollama.NewClient(cfg.OllamaURL, cfg.OllamaDefaultModel, cfg.OllamaTimeout)

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.logger.Info("gateway starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"realm", app.cfg.KeycloakRealm,
		"introspection", app.cfg.UseIntrospection,
	)

	// Warm the key cache so the first request doesn't pay the JWKS fetch.
	// A cold provider is not fatal: the cache retries on demand.
	if app.keys != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if _, err := app.keys.Keys(ctx); err != nil {
			app.logger.Warn("initial JWKS fetch failed, will retry on demand", "error", err)
		}
		cancel()
	}

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a shutdown signal or server error
	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		// Perform graceful shutdown
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down gateway...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	// Shutdown the HTTP server
	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	// Close database connection
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("gateway stopped")
	return nil
}

// initDatabase initializes the database and applies migrations
func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host)
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

// initVerifier picks the token verification strategy. The default validates
// tokens locally against the realm's published key set. Introspection asks
// the provider about every token instead, which picks up revocation at the
// cost of a network round trip per request.
func (app *Application) initVerifier() {
	provider := oidc.Provider{
		ServerURL:    app.cfg.KeycloakServerURL,
		Realm:        app.cfg.KeycloakRealm,
		ClientID:     app.cfg.KeycloakClientID,
		ClientSecret: app.cfg.KeycloakClientSecret,
	}

	if app.cfg.UseIntrospection {
		app.verifier = oidc.NewIntrospector(provider, nil)
		app.logger.Info("token verification via introspection endpoint")
		return
	}

	app.keys = oidc.NewKeyCache(provider, app.cfg.JWKSTTL, nil)
	app.verifier = oidc.NewValidator(provider, app.keys, app.cfg.VerifyAudience, app.cfg.VerifyIssuer)
	app.logger.Info("token verification via local JWKS validation",
		"jwks_ttl", app.cfg.JWKSTTL,
		"verify_audience", app.cfg.VerifyAudience,
		"verify_issuer", app.cfg.VerifyIssuer,
	)
}

// initServices initializes all business logic services
func (app *Application) initServices() {
	app.summarizeService = &service.SummarizeService{LLM: app.llm}
	app.usageService = &service.UsageService{Store: app.db}
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.verifier,
		app.keys,
		app.cfg.KeycloakClientID,
		BuildVersion,
		app.db,
		app.llm,
		app.logger,
	)

	// Wire services to router
	router.SummarizeService = app.summarizeService
	router.UsageService = app.usageService
	router.Extractor = service.PlainTextExtractor{}
	router.ApplyRoutes()

	app.router = router

	// Initialize HTTP server
	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
