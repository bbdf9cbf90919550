package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	httpapi "github.com/aussiebroadwan/tokend/internal/auth/http"
	"github.com/aussiebroadwan/tokend/internal/auth/service"
	"github.com/aussiebroadwan/tokend/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/tokend/pkg/cryptox"
	"github.com/aussiebroadwan/tokend/pkg/dpopx"
	"github.com/aussiebroadwan/tokend/pkg/jwtx"
	"github.com/aussiebroadwan/tokend/pkg/slogx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
)

// BuildVersion is overridden at build time with -ldflags.
var BuildVersion = "v0.1.0"

// NewLogger builds the service logger from cfg.
func NewLogger(cfg Config) *slog.Logger {
	return slogx.New(slogx.Config{
		Service: "tokend",
		Version: BuildVersion,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})
}

// Application encapsulates the token service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db         *sqlite.Store
	tokens     TokenBackend
	keyManager *jwtx.KeyManager
	registry   *prometheus.Registry

	dpop         *dpopx.Verifier
	clientAuth   *service.ClientAuthenticator
	tokenManager *service.TokenManager
	provider     *service.Provider
	housekeeping *service.HousekeepingService

	server *http.Server
}

// New creates an Application with every dependency initialized.
func New(ctx context.Context, cfg Config) (*Application, error) {
	app := &Application{
		cfg:      cfg,
		logger:   NewLogger(cfg),
		registry: prometheus.NewRegistry(),
	}

	cryptox.SetPepperPath(cfg.PepperFile)
	if _, err := cryptox.LoadPepper(); err != nil {
		return nil, err
	}

	db, err := OpenDatabase(cfg, app.logger)
	if err != nil {
		return nil, err
	}
	app.db = db

	if app.tokens, err = OpenTokenStore(ctx, cfg, db, app.logger); err != nil {
		_ = db.Close()
		return nil, err
	}

	if app.keyManager, err = InitAuthKeys(ctx, cfg, db, app.logger); err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("failed to initialize JWT keys: %w", err)
	}

	if err := app.initServices(); err != nil {
		_ = app.Close()
		return nil, err
	}

	return app, nil
}

// Handler returns the HTTP handler. Useful for tests.
func (app *Application) Handler() http.Handler {
	return app.server.Handler
}

func (app *Application) initServices() error {
	cfg := app.cfg
	tokenEndpoint := strings.TrimRight(cfg.Issuer, "/") + "/v1/oauth2/token"

	mode, err := service.ParseAccessTokenMode(cfg.AccessTokenMode)
	if err != nil {
		return err
	}

	app.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	app.dpop = dpopx.NewVerifier(dpopx.Options{MaxAge: cfg.DPoPMaxAge})
	app.clientAuth = service.NewClientAuthenticator(app.db.Clients(), cfg.Issuer, tokenEndpoint)

	app.tokenManager = &service.TokenManager{
		Tokens:    app.tokens.Tokens,
		Signer:    service.NewKeySigner(app.keyManager, cfg.Issuer),
		Clients:   app.clientAuth,
		Lifetimes: cfg.Lifetimes(),
		Mode:      mode,
		Metrics:   service.NewMetrics(app.registry),
	}

	app.provider = &service.Provider{
		Store:              app.db,
		Tokens:             app.tokenManager,
		Clients:            app.clientAuth,
		DPoP:               app.dpop,
		Issuer:             cfg.Issuer,
		TokenEndpoint:      tokenEndpoint,
		PasswordGrant:      cfg.EnablePasswordGrant,
		IntrospectionFloor: cfg.IntrospectionFloor,
	}

	app.housekeeping = service.NewHousekeepingService(
		app.db,
		app.tokens.Tokens,
		app.logger,
		cfg.HousekeepingInterval,
		cfg.Lifetimes(),
	)

	// Ephemeral key managers still rotate at runtime, in memory only.
	rotation := &service.KeyRotationService{
		KeyManager:  app.keyManager,
		Algorithm:   cfg.Algorithm,
		RSABits:     cfg.RSABits,
		GracePeriod: cfg.KeyGracePeriod,
	}
	if cfg.KeyStorageMode == KeyStoragePersistent {
		rotation.Store = app.db
	}

	router := httpapi.NewRouter(app.keyManager, cfg.Issuer, BuildVersion, app.db, app.logger)
	router.Provider = app.provider
	router.Tokens = app.tokenManager
	router.ClientAuth = app.clientAuth
	router.AuthorizeService = &service.AuthorizeService{
		Store:   app.db,
		Issuer:  cfg.Issuer,
		CodeTTL: cfg.CodeTTL,
	}
	router.ClientService = &service.ClientService{Store: app.db}
	router.KeyRotationService = rotation
	router.DPoP = app.dpop
	router.Gatherer = app.registry
	router.PasswordGrant = cfg.EnablePasswordGrant
	if app.tokens.Redis != nil {
		router.TokenStore = app.tokens.Redis
	}
	router.ApplyRoutes()

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
	return nil
}

// Run serves HTTP and runs housekeeping until ctx is cancelled or either
// fails, then shuts down gracefully.
func (app *Application) Run(ctx context.Context) error {
	defer func() {
		if err := app.Close(); err != nil {
			app.logger.Error("error closing stores", "err", err)
		}
	}()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		app.dpop.Start()
		return nil
	})
	g.Go(func() error {
		app.clientAuth.Start()
		return nil
	})
	g.Go(func() error {
		return app.housekeeping.Run(gctx)
	})
	g.Go(func() error {
		app.logger.Info("tokend starting", "port", app.cfg.Port, "version", BuildVersion, "issuer", app.cfg.Issuer)
		if err := app.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		return app.shutdown()
	})

	return g.Wait()
}

func (app *Application) shutdown() error {
	app.logger.Info("shutting down tokend...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	var err error
	if err = app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "err", err)
		if cerr := app.server.Close(); cerr != nil {
			app.logger.Error("error closing server", "err", cerr)
		}
	}

	app.dpop.Stop()
	app.clientAuth.Stop()

	app.logger.Info("tokend stopped")
	return err
}

// Close releases the stores. Run calls it on return.
func (app *Application) Close() error {
	return errors.Join(app.tokens.Close(), app.db.Close())
}
