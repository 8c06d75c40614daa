package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"feedfilter/internal/adapter/fetcher"
	"feedfilter/internal/adapter/parser"
	"feedfilter/internal/adapter/render"
	"feedfilter/internal/cache"
	"feedfilter/internal/config"
	"feedfilter/internal/domain"
	"feedfilter/internal/filter"
	"feedfilter/internal/migrations"
	server "feedfilter/internal/transport/http"
	"feedfilter/internal/usecase"
	"feedfilter/internal/worker"
	"feedfilter/storage"

	"github.com/jackc/pgx/v5/pgxpool"
)

// App представляет фильтрующий прокси для Atom-ленты.
// Координирует HTTP-сервер, кэш, воркер прогрева и журнал прогонов.
type App struct {
	config   *config.Config
	logger   *slog.Logger
	feeds    *usecase.FeedService
	journal  storage.Journal
	server   *http.Server
	worker   *worker.Worker
	stopChan chan os.Signal
	wg       sync.WaitGroup
}

// New собирает приложение из проверенной конфигурации.
// Возвращает ошибку, если не удалось открыть журнал прогонов.
func New(ctx context.Context, cfg *config.Config, appLogger *slog.Logger) (*App, error) {
	journal, err := openJournal(ctx, cfg, appLogger)
	if err != nil {
		return nil, err
	}

	feedCfg := domain.FeedConfig{
		URL:         cfg.Feed.URL,
		FilterWord:  cfg.Feed.FilterWord,
		Title:       cfg.Feed.Title,
		Description: cfg.Description(),
	}
	httpFetcher := fetcher.NewHTTPFetcher(appLogger, cfg.Feed.UserAgent, cfg.FetchTimeout())
	atomParser := parser.NewAtomParser(appLogger)
	renderers := []usecase.FeedRenderer{
		render.NewAtomRenderer(time.Now),
		render.NewRSSRenderer(time.Now),
	}
	pipeline := usecase.NewFeedPipeline(
		httpFetcher,
		atomParser,
		filter.NewKeyword(cfg.Feed.FilterWord),
		renderers,
		journal,
		feedCfg,
		appLogger,
	)
	gate := cache.New(cfg.CacheValidity(),
		cache.WithCoalescing(cfg.Cache.Coalesce),
		cache.WithLogger(appLogger),
	)
	feeds := usecase.NewFeedService(pipeline, gate, appLogger)

	refreshGetter := usecase.NewRefreshGetterUseCase(journal)
	handler := server.NewHandler(appLogger, feeds, refreshGetter)
	router := server.NewServer(appLogger, handler)

	var warmer *worker.Worker
	if interval := cfg.WarmInterval(); interval > 0 {
		warmer = worker.New(feeds, domain.Kinds, interval, cfg.FetchTimeout(), appLogger)
	}

	return &App{
		config:  cfg,
		logger:  appLogger,
		feeds:   feeds,
		journal: journal,
		server: &http.Server{
			Addr:              cfg.Server.Address(),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		worker:   warmer,
		stopChan: make(chan os.Signal, 1),
	}, nil
}

func openJournal(ctx context.Context, cfg *config.Config, log *slog.Logger) (storage.Journal, error) {
	log = log.With(slog.String("component", "storage"))
	switch cfg.Storage.Driver {
	case config.StorageSQLite:
		j, err := storage.NewSQLiteJournal(cfg.Storage.Path, log)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite journal: %w", err)
		}
		return j, nil
	case config.StoragePostgres:
		dbPool, err := pgxpool.New(ctx, cfg.Storage.DSN())
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := dbPool.Ping(ctx); err != nil {
			dbPool.Close()
			return nil, fmt.Errorf("database ping failed: %w", err)
		}
		if err := migrations.Apply(ctx, log, dbPool); err != nil {
			dbPool.Close()
			return nil, fmt.Errorf("migrations failed: %w", err)
		}
		return storage.NewPostgresJournal(dbPool, log), nil
	default:
		return storage.NewMemoryJournal(cfg.Storage.MemoryCapacity, log), nil
	}
}

// Handler возвращает корневой HTTP-обработчик приложения.
func (a *App) Handler() http.Handler { return a.server.Handler }

// ServeOnce строит один документ формата kind, пишет его в out и завершает работу.
func (a *App) ServeOnce(ctx context.Context, kind domain.Kind, out io.Writer) error {
	defer a.journal.Close()
	doc, _, err := a.feeds.GetFeed(ctx, kind, true)
	if err != nil {
		return err
	}
	if _, err := out.Write(doc.Body); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}
	return nil
}

// Run запускает HTTP-сервер и воркер прогрева и блокируется до сигнала завершения
// или отказа сервера.
func (a *App) Run() error {
	a.logger.Info("Starting Atom Feed Filter",
		slog.String("component", "app"),
		slog.String("url", a.config.Feed.URL),
		slog.String("filter_word", a.config.Feed.FilterWord),
		slog.Duration("cache_validity", a.config.CacheValidity()),
	)
	listener, err := net.Listen("tcp", a.server.Addr)
	if err != nil {
		a.journal.Close()
		return fmt.Errorf("failed to create listener: %w", err)
	}
	a.logger.Info("HTTP server ready",
		slog.String("component", "server"),
		slog.String("address", listener.Addr().String()),
	)
	if a.worker != nil {
		a.worker.Start()
	}
	serveErr := make(chan error, 1)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("HTTP server failed", slog.String("component", "server"), slog.Any("error", err))
			serveErr <- err
		}
	}()
	signal.Notify(a.stopChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(a.stopChan)

	var runErr error
	select {
	case sig := <-a.stopChan:
		a.logger.Info("Shutdown signal received",
			slog.String("component", "app"),
			slog.String("signal", sig.String()),
		)
	case runErr = <-serveErr:
	}
	if err := a.Shutdown(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

// Shutdown останавливает воркер, завершает HTTP-сервер, закрывает журнал
// и ожидает завершения всех горутин.
func (a *App) Shutdown() error {
	a.logger.Info("Starting graceful shutdown", slog.String("component", "app"))
	if a.worker != nil {
		a.worker.Stop()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.ShutdownTimeout())
	defer cancel()
	var err error
	if err = a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("HTTP server shutdown failed", slog.String("component", "server"), slog.Any("error", err))
	}
	a.wg.Wait()
	a.journal.Close()
	a.logger.Info("Application stopped gracefully", slog.String("component", "app"))
	return err
}
