package app

import (
	"context"
	"fmt"
	"log/slog"

	"DiscountScanner/internal/config"
	"DiscountScanner/internal/infrastructure/browser"
	"DiscountScanner/internal/infrastructure/extract"
	"DiscountScanner/internal/infrastructure/httpapi"
	"DiscountScanner/internal/infrastructure/llm"
	"DiscountScanner/internal/infrastructure/scheduler"
	"DiscountScanner/internal/infrastructure/storage"
	"DiscountScanner/internal/infrastructure/telegram"
	"DiscountScanner/internal/logging"
	"DiscountScanner/internal/ports"
	"DiscountScanner/internal/scrape"
	"DiscountScanner/internal/usecase"
)

// Application wires configuration to adapters, the pipeline, the polling
// scheduler and the HTTP surface, and owns their lifecycle.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	store     *storage.Store
	scheduler *usecase.ScrapeScheduler
	server    *httpapi.Server
}

// New builds the full application graph. Optional adapters (Telegram,
// ChatGPT) stay nil when unconfigured; the pipeline tolerates that.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	store, err := storage.Open(cfg.Database.DSN, baseLogger.With("component", "storage"))
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	registry := scrape.NewRegistry()
	registry.Register(extract.NewAhExtractor(baseLogger.With("component", "extract.ah")))
	registry.Register(extract.NewDirkExtractor(baseLogger.With("component", "extract.dirk")))
	registry.Register(extract.NewPlusExtractor(baseLogger.With("component", "extract.plus")))

	sessions := browser.NewFactory(cfg.Browser, baseLogger.With("component", "browser"))

	var notifier ports.Notifier
	if cfg.Notifications.Telegram.BotToken != "" {
		tg, err := telegram.NewNotifier(cfg.Notifications.Telegram)
		if err != nil {
			return nil, fmt.Errorf("telegram notifier: %w", err)
		}
		notifier = tg
	}

	var chatClient ports.ChatClient
	if cfg.ChatGPT.APIKey != "" {
		chatClient = llm.NewChatGPTClient(cfg.ChatGPT)
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Sessions:       sessions,
		Registry:       registry,
		Reconciler:     store,
		Journal:        store,
		Notifier:       notifier,
		ChatClient:     chatClient,
		Retailers:      cfg.Retailers,
		OverlayTimeout: cfg.Browser.OverlayTimeout(),
		Logger:         baseLogger.With("component", "pipeline"),
	})

	scrapeScheduler := usecase.NewScrapeScheduler(
		scheduler.NewTickScheduler(cfg.Scheduler.PollInterval()),
		store,
		pipeline,
		baseLogger.With("component", "scheduler"),
	)

	server := httpapi.NewServer(cfg.API.Addr, pipeline, store, baseLogger.With("component", "api"))

	return &Application{
		cfg:       cfg,
		logger:    baseLogger,
		store:     store,
		scheduler: scrapeScheduler,
		server:    server,
	}, nil
}

// Run creates the schema if needed, starts the scheduler and serves HTTP
// until ctx is cancelled.
func (a *Application) Run(ctx context.Context) error {
	if err := a.store.InitSchema(ctx); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}

	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("api listening", "addr", a.cfg.API.Addr)
		errCh <- a.server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			a.shutdown(context.Background())
			return fmt.Errorf("http server: %w", err)
		}
	}

	a.shutdown(context.Background())
	return nil
}

func (a *Application) shutdown(ctx context.Context) {
	if err := a.scheduler.Stop(ctx); err != nil {
		a.logger.Error("stop scheduler", "error", err)
	}
	if err := a.server.Shutdown(ctx); err != nil {
		a.logger.Error("shutdown api", "error", err)
	}
	if err := a.store.Close(); err != nil {
		a.logger.Error("close storage", "error", err)
	}
}
