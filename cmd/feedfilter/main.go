package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"feedfilter/internal/app"
	"feedfilter/internal/config"
	"feedfilter/internal/domain"
	"feedfilter/internal/logger"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type cliFlags struct {
	configPath   string
	envFile      string
	serveOnce    bool
	port         int
	cacheSeconds int
	url          string
	filterWord   string
	format       string
	coalesce     bool
	warmInterval string
	logLevel     string
	storage      string
}

// run разбирает аргументы, собирает конфигурацию и запускает сервер
// либо однократную генерацию. Возвращает код завершения процесса.
func run(args []string, stdout, stderr io.Writer) int {
	fs, f := newFlagSet(stderr)
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	cfg, err := buildConfig(fs, f)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		fmt.Fprintf(stderr, "Error: could not setup logger: %v\n", err)
		return 1
	}
	slog.SetDefault(appLogger)

	ctx := context.Background()
	a, err := app.New(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Error("Application init failed", slog.String("component", "app"), slog.Any("error", err))
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if f.serveOnce {
		kind, _ := domain.ParseKind(cfg.Format)
		if err := a.ServeOnce(ctx, kind, stdout); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	if err := a.Run(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newFlagSet(stderr io.Writer) (*flag.FlagSet, *cliFlags) {
	fs := flag.NewFlagSet("feedfilter", flag.ContinueOnError)
	fs.SetOutput(stderr)
	defaults := config.New()
	f := &cliFlags{}
	fs.StringVar(&f.configPath, "config", "", "path to a .json, .yaml or .toml config file")
	fs.StringVar(&f.envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	fs.BoolVar(&f.serveOnce, "serve-once", false, "print one rendered document to stdout and exit")
	fs.IntVar(&f.port, "port", defaults.Server.Port, "HTTP listen port")
	fs.IntVar(&f.cacheSeconds, "cache-seconds", defaults.Cache.Seconds, "cache validity window in seconds")
	fs.StringVar(&f.url, "url", "", "upstream Atom feed URL (overrides "+config.EnvFeedURL+")")
	fs.StringVar(&f.filterWord, "filter-word", defaults.Feed.FilterWord, "keyword entries must contain")
	fs.StringVar(&f.format, "format", defaults.Format, "document printed by --serve-once: atom or rss")
	fs.BoolVar(&f.coalesce, "coalesce", false, "share one upstream fetch between concurrent cache misses")
	fs.StringVar(&f.warmInterval, "warm-interval", "", "refresh the cache in the background at this interval (e.g. 4m)")
	fs.StringVar(&f.logLevel, "log-level", defaults.Logger.Level, "log level: debug, info, warn, error")
	fs.StringVar(&f.storage, "storage", defaults.Storage.Driver, "refresh journal driver: memory, sqlite, postgres")
	return fs, f
}

// buildConfig применяет источники по возрастанию приоритета:
// умолчания, файл конфигурации, .env, окружение, явно заданные флаги.
func buildConfig(fs *flag.FlagSet, f *cliFlags) (*config.Config, error) {
	cfg := config.New()
	if f.configPath != "" {
		loaded, err := config.Load(f.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if err := config.LoadDotEnv(f.envFile); err != nil {
		return nil, err
	}
	cfg.ApplyEnv()

	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "port":
			cfg.Server.Port = f.port
		case "cache-seconds":
			cfg.Cache.Seconds = f.cacheSeconds
		case "url":
			cfg.Feed.URL = f.url
		case "filter-word":
			cfg.Feed.FilterWord = f.filterWord
		case "format":
			cfg.Format = f.format
		case "coalesce":
			cfg.Cache.Coalesce = f.coalesce
		case "warm-interval":
			cfg.Cache.WarmInterval = f.warmInterval
		case "log-level":
			cfg.Logger.Level = f.logLevel
		case "storage":
			cfg.Storage.Driver = f.storage
		}
	})
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
