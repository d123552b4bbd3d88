package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/mail"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	httpapi "github.com/smartplant/auth/internal/auth/http"
	authmail "github.com/smartplant/auth/internal/auth/mail"
	"github.com/smartplant/auth/internal/auth/service"
	"github.com/smartplant/auth/internal/auth/store"
	"github.com/smartplant/auth/internal/auth/store/drivers/postgres"
	"github.com/smartplant/auth/internal/auth/store/drivers/sqlite"
	"github.com/smartplant/auth/pkg/cryptox"
	"github.com/smartplant/auth/pkg/httpx"
	"github.com/smartplant/auth/pkg/jwtx"
	"github.com/smartplant/auth/pkg/slogx"
)

// BuildVersion is overridden at build time via -ldflags "-X".
var BuildVersion = "v0.1.0"

// Application encapsulates the auth service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db    store.Store
	redis *redis.Client // nil without REDIS_URL

	tokens              *service.TokenIssuer
	sessionService      *service.SessionService
	userService         *service.UserService
	bootstrapService    *service.BootstrapService
	gate                *service.Gate
	housekeepingService *service.HousekeepingService
	dispatcher          *authmail.Dispatcher

	server *http.Server
	router *httpapi.Router
}

// New validates cfg and wires every dependency. Nothing is started until Run.
func New(cfg Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "smartplant-auth",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	cryptox.SetPepperPath(app.cfg.PepperFile)

	if err := app.initDatabase(); err != nil {
		return nil, err
	}
	if err := app.initRedis(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	tokens, err := InitTokenIssuer(app.cfg, app.logger)
	if err != nil {
		app.closeBackends()
		return nil, err
	}
	app.tokens = tokens

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts background workers and the HTTP server, then blocks until a
// shutdown signal or a server error.
func (app *Application) Run() error {
	app.dispatcher.Start()
	app.housekeepingService.Start()

	app.logger.Info("auth service starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"db_driver", app.cfg.DBDriver,
		"mail_driver", app.cfg.MailDriver,
		"shared_rate_limits", app.redis != nil,
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.stopWorkers()
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

// Shutdown drains in-flight requests, stops the workers and closes the
// database and Redis connections.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.stopWorkers()

	if err := app.closeBackends(); err != nil {
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

func (app *Application) stopWorkers() {
	app.dispatcher.Stop()
	app.housekeepingService.Stop()
}

func (app *Application) closeBackends() error {
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("error closing redis", "error", err)
		}
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}
	return nil
}

// initDatabase opens the configured store and applies migrations.
func (app *Application) initDatabase() error {
	var (
		db  store.Store
		err error
	)
	switch app.cfg.DBDriver {
	case DriverPostgres:
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		db, err = postgres.NewStore(ctx, app.cfg.DatabaseURL)
	default:
		db, err = sqlite.NewStore(sqlite.DSN(app.cfg.DatabaseFile))
	}
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully", "driver", app.cfg.DBDriver)
	return nil
}

// initRedis connects the shared rate limit backend when REDIS_URL is set.
// An unreachable Redis at startup is logged, not fatal: the limiter fails
// open and readiness reports degraded until it comes back.
func (app *Application) initRedis() error {
	if app.cfg.RedisURL == "" {
		app.logger.Info("REDIS_URL not set, rate limits are per process")
		return nil
	}

	opts, err := redis.ParseURL(app.cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	app.redis = redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := app.redis.Ping(ctx).Err(); err != nil {
		app.logger.Warn("redis unreachable at startup", "error", err)
	}
	return nil
}

func (app *Application) newMailSender() authmail.Sender {
	if app.cfg.MailDriver == MailDriverLog {
		app.logger.Warn("mail driver is log, verification codes are written to the log")
		return &authmail.LogSender{Logger: app.logger}
	}
	return &authmail.SMTPSender{
		Host:     app.cfg.SMTPHost,
		Port:     app.cfg.SMTPPort,
		Username: app.cfg.SMTPUsername,
		Password: app.cfg.SMTPPassword,
		From:     mail.Address{Name: app.cfg.MailFromName, Address: app.cfg.MailFrom},
	}
}

// initServices builds the business services on top of the store.
func (app *Application) initServices() {
	app.dispatcher = authmail.NewDispatcher(app.db, app.newMailSender(), app.logger, service.CodeTTL)
	app.dispatcher.PollInterval = app.cfg.MailPollInterval
	app.dispatcher.MaxAttempts = app.cfg.MailMaxAttempts

	refresh := &service.RefreshLedger{TTL: jwtx.DefaultRefreshTokenTTL}
	blacklist := &service.Blacklist{Store: app.db}

	app.sessionService = &service.SessionService{
		Store:         app.db,
		Tokens:        app.tokens,
		Codes:         &service.CodeLedger{},
		RefreshTokens: refresh,
		Blacklist:     blacklist,
		Mail:          app.dispatcher,
	}
	app.gate = &service.Gate{
		Store:     app.db,
		Tokens:    app.tokens,
		Blacklist: blacklist,
	}
	app.userService = &service.UserService{Store: app.db, RefreshTokens: refresh}
	app.bootstrapService = &service.BootstrapService{
		Store: app.db,
		Token: app.cfg.BootstrapToken,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

// initHTTP builds the router and server.
func (app *Application) initHTTP() {
	var rdb redis.UniversalClient
	if app.redis != nil {
		rdb = app.redis
	}
	router := httpapi.NewRouter(BuildVersion, app.db, rdb, app.logger)

	router.Sessions = app.sessionService
	router.UserService = app.userService
	router.BootstrapService = app.bootstrapService
	router.Gate = app.gate
	router.Cookies = httpapi.Cookies{
		Secure:     app.cfg.CookieSecure,
		RefreshTTL: jwtx.DefaultRefreshTokenTTL,
	}
	router.ServiceAPIKey = app.cfg.ServiceAPIKey
	if proxies, _ := httpx.ParseTrustedProxies(app.cfg.TrustedProxies); len(proxies) > 0 {
		router.ClientIP = proxies.ClientIP
		app.logger.Info("forwarding headers trusted", slog.String("proxies", app.cfg.TrustedProxies))
	}
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
