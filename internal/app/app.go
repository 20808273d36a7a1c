package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"bookcatalog/internal/api"
	"bookcatalog/internal/bot"
	"bookcatalog/internal/catalog"
	"bookcatalog/internal/config"
	"bookcatalog/internal/storage"
)

const shutdownTimeout = 5 * time.Second

// App represents the application
type App struct {
	config *config.Config
	logger *zap.Logger
	store  *catalog.Store
	db     storage.Storage
	snaps  *snapshotter
	bot    *bot.Bot
	server *http.Server
	ready  atomic.Bool
}

// New loads .env and the environment, then builds the application
func New() (*App, error) {
	// Load .env file if it exists
	envErr := godotenv.Load()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := NewLogger(cfg.IsProduction(), cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	if envErr != nil {
		logger.Debug("No .env file found, using system environment variables")
	}

	return NewWithConfig(context.Background(), cfg, logger)
}

// NewWithConfig builds the application from an explicit configuration
func NewWithConfig(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	app := &App{
		config: cfg,
		logger: logger,
		store:  catalog.NewStore(cfg.CatalogName, catalog.WithLogger(logger)),
	}

	logger.Info("Starting book catalog", zap.String("env", cfg.Env), zap.String("storage", cfg.StorageBackend))

	if err := app.initStorage(ctx); err != nil {
		return nil, err
	}

	if cfg.BotEnabled() {
		if err := app.initBot(); err != nil {
			app.db.Close()
			return nil, err
		}
	} else {
		logger.Info("TELEGRAM_BOT_TOKEN not set, Telegram bot disabled")
	}

	app.initHTTPServer()
	app.ready.Store(true)
	return app, nil
}

// initStorage opens the backend and loads the catalog from it
func (a *App) initStorage(ctx context.Context) error {
	db, err := openStorage(ctx, a.config, a.logger)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}

	if err := db.Initialize(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	restored, err := loadCatalog(ctx, a.config, db, a.store, a.logger)
	if err != nil {
		db.Close()
		return err
	}

	a.db = db
	a.snaps = newSnapshotter(db, a.store)
	if restored {
		a.snaps.markSaved()
	}
	return nil
}

// initBot initializes the Telegram bot
func (a *App) initBot() error {
	telegramBot, err := bot.NewBot(a.config.TelegramToken, a.store, a.config.AllowedUserIDs, a.logger)
	if err != nil {
		return fmt.Errorf("failed to create Telegram bot: %w", err)
	}
	a.logger.Info("Bot created successfully", zap.Int64s("allowed_users", a.config.AllowedUserIDs))

	a.bot = telegramBot
	return nil
}

// Handler returns the HTTP handler serving the API, health checks and the bot webhook
func (a *App) Handler() http.Handler {
	return a.server.Handler
}

// initHTTPServer builds the router and server without starting it
func (a *App) initHTTPServer() {
	if a.config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := api.NewRouter(a.store, api.Config{
		AllowedOrigins: a.config.AllowedOrigins,
		RateLimitRPS:   a.config.RateLimitRPS,
		RateLimitBurst: a.config.RateLimitBurst,
		Ready:          a.ready.Load,
	}, a.logger)

	if a.bot != nil && a.config.WebhookMode {
		router.POST(bot.WebhookPath, a.bot.WebhookHandler())
	}

	a.server = &http.Server{
		Addr:         ":" + a.config.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}

// Run starts the application and blocks until SIGINT or SIGTERM
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext starts the server, the bot and periodic snapshots, and shuts down when ctx ends
func (a *App) RunContext(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	serverErr := make(chan error, 1)

	go func() {
		a.logger.Info("Starting HTTP server", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	if a.bot != nil {
		if a.config.WebhookMode {
			a.logger.Info("Starting bot in WEBHOOK mode", zap.String("url", a.config.WebhookURL))
			if err := a.bot.StartWebhook(a.config.WebhookURL); err != nil {
				a.Shutdown()
				return fmt.Errorf("failed to setup webhook: %w", err)
			}
		} else {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := a.bot.Start(ctx); err != nil {
					a.logger.Error("Bot polling failed", zap.Error(err))
				}
			}()
		}
	}

	if a.config.SnapshotInterval > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runSnapshots(ctx, a.config.SnapshotInterval, a.snaps, a.logger)
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("Shutting down...")
	case runErr = <-serverErr:
		a.logger.Error("HTTP server error", zap.Error(runErr))
	}

	cancel()
	wg.Wait()

	if err := a.Shutdown(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

// Shutdown stops the HTTP server, saves the catalog a last time and closes storage
func (a *App) Shutdown() error {
	a.ready.Store(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn("HTTP server shutdown error", zap.Error(err))
	}

	var errs []error
	if saved, err := a.snaps.saveIfChanged(shutdownCtx); err != nil {
		a.logger.Error("Final snapshot failed", zap.Error(err))
		errs = append(errs, err)
	} else if saved {
		a.logger.Info("Catalog saved", zap.Int("books", a.store.Len()))
	} else {
		a.logger.Info("Catalog unchanged since last save")
	}

	if err := a.db.Close(); err != nil {
		a.logger.Error("Error closing storage", zap.Error(err))
		errs = append(errs, err)
	}

	a.logger.Info("Shutdown complete")
	_ = a.logger.Sync()
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Store exposes the catalog, mainly for tests and embedding
func (a *App) Store() *catalog.Store {
	return a.store
}
