package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"feedfilter/internal/config"

	"gopkg.in/natefinch/lumberjack.v2"
)

// New создает и настраивает логгер приложения на основе конфигурации.
// По умолчанию пишет в stderr: stdout занят выводом документа в режиме однократного запуска.
// Если заданы файлы, обычные сообщения и ошибки пишутся в них с ротацией по размеру.
func New(cfg config.LoggerConfig) (*slog.Logger, error) {
	logWriter, err := openWriter(cfg.File, cfg)
	if err != nil {
		return nil, err
	}
	errorWriter := logWriter
	if cfg.ErrorFile != "" {
		if errorWriter, err = openWriter(cfg.ErrorFile, cfg); err != nil {
			return nil, err
		}
	}
	handler := NewLevelDispatcherHandler(logWriter, errorWriter, &slog.HandlerOptions{
		AddSource: cfg.AddSource,
		Level:     ParseLevel(cfg.Level),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.SourceKey {
				if source, ok := a.Value.Any().(*slog.Source); ok {
					source.File = filepath.Base(source.File)
				}
			}
			return a
		},
	})
	return slog.New(handler), nil
}

func openWriter(path string, cfg config.LoggerConfig) (io.Writer, error) {
	if path == "" {
		return os.Stderr, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory for %s: %w", path, err)
	}
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
	}, nil
}

// ParseLevel преобразует строковое представление уровня логирования в тип slog.Level.
// Поддерживает уровни: debug, info, warn, error. Неизвестные значения дают info.
func ParseLevel(levelStr string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LevelDispatcherHandler реализует slog.Handler с маршрутизацией сообщений по уровням.
// Сообщения уровня ERROR и выше направляются в errorHandlers, остальные - в defaultHandler.
type LevelDispatcherHandler struct {
	defaultHandler slog.Handler
	errorHandlers  slog.Handler
}

// NewLevelDispatcherHandler создает новый обработчик логов с маршрутизацией по уровням.
// Сообщения с уровнем ERROR и выше направляются в errorOut, остальные - в defaultOut.
// Если defaultOut и errorOut совпадают, запись в них сериализуется одним мьютексом.
func NewLevelDispatcherHandler(defaultOut, errorOut io.Writer, opts *slog.HandlerOptions) *LevelDispatcherHandler {
	defaultHandler := NewReadableHandler(defaultOut, opts)
	errorHandler := NewReadableHandler(errorOut, opts)
	if defaultOut == errorOut {
		errorHandler.mu = defaultHandler.mu
	}
	return &LevelDispatcherHandler{
		defaultHandler: defaultHandler,
		errorHandlers:  errorHandler,
	}
}

// Enabled определяет, обрабатывается ли указанный уровень логирования.
func (h *LevelDispatcherHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.defaultHandler.Enabled(ctx, level)
}

// Handle направляет запись в соответствующий обработчик.
func (h *LevelDispatcherHandler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelError {
		return h.errorHandlers.Handle(ctx, r)
	}
	return h.defaultHandler.Handle(ctx, r)
}

func (h *LevelDispatcherHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &LevelDispatcherHandler{
		defaultHandler: h.defaultHandler.WithAttrs(attrs),
		errorHandlers:  h.errorHandlers.WithAttrs(attrs),
	}
}

func (h *LevelDispatcherHandler) WithGroup(name string) slog.Handler {
	return &LevelDispatcherHandler{
		defaultHandler: h.defaultHandler.WithGroup(name),
		errorHandlers:  h.errorHandlers.WithGroup(name),
	}
}

// ReadableHandler реализует slog.Handler с удобочитаемым форматированием логов:
// [15:04:05.000] LEVEL [component] (op) <file:line>: message | k=v, ...
type ReadableHandler struct {
	w      io.Writer
	mu     *sync.Mutex
	opts   *slog.HandlerOptions
	attrs  []slog.Attr
	prefix string
}

// NewReadableHandler создает новый обработчик с читаемым форматированием.
// Если opts равен nil, используются настройки по умолчанию.
func NewReadableHandler(w io.Writer, opts *slog.HandlerOptions) *ReadableHandler {
	if opts == nil {
		opts = &slog.HandlerOptions{}
	}
	return &ReadableHandler{w: w, mu: &sync.Mutex{}, opts: opts}
}

func (h *ReadableHandler) Enabled(ctx context.Context, level slog.Level) bool {
	minLevel := slog.LevelInfo
	if h.opts.Level != nil {
		minLevel = h.opts.Level.Level()
	}
	return level >= minLevel
}

// Handle форматирует и записывает запись лога.
// Атрибуты, добавленные через With, выводятся перед атрибутами самой записи.
func (h *ReadableHandler) Handle(ctx context.Context, r slog.Record) error {
	timeStr := r.Time.Format("15:04:05.000")
	levelStr := h.formatLevel(r.Level)
	var component, operation, source string
	var attrs []slog.Attr
	collect := func(a slog.Attr, prefix string) {
		switch a.Key {
		case "component":
			component = a.Value.String()
		case "op":
			operation = a.Value.String()
		default:
			if prefix != "" {
				a.Key = prefix + a.Key
			}
			attrs = append(attrs, a)
		}
	}
	for _, a := range h.attrs {
		collect(a, "")
	}
	r.Attrs(func(a slog.Attr) bool {
		collect(a, h.prefix)
		return true
	})
	if h.opts.AddSource && r.PC != 0 {
		src := r.Source()
		if src != nil && src.File != "" {
			source = fmt.Sprintf("%s:%d", filepath.Base(src.File), src.Line)
		}
	}

	var prefix strings.Builder
	prefix.WriteString(fmt.Sprintf("[%s] %s", timeStr, levelStr))
	if component != "" {
		prefix.WriteString(fmt.Sprintf(" [%s]", component))
	}
	if operation != "" {
		prefix.WriteString(fmt.Sprintf(" (%s)", operation))
	}
	if source != "" {
		prefix.WriteString(fmt.Sprintf(" <%s>", source))
	}
	message := r.Message
	var attrParts []string
	for _, attr := range attrs {
		attrParts = append(attrParts, h.formatAttr(attr))
	}
	if len(attrParts) > 0 {
		message += " | " + strings.Join(attrParts, ", ")
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := fmt.Fprintf(h.w, "%s: %s\n", prefix.String(), message)
	return err
}

func (h *ReadableHandler) formatLevel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}

// formatAttr форматирует атрибут лога в зависимости от его типа и ключа.
// Специальное форматирование для ошибок, URL и длительностей.
func (h *ReadableHandler) formatAttr(attr slog.Attr) string {
	switch {
	case attr.Key == "error" || strings.HasSuffix(attr.Key, ".error"):
		return fmt.Sprintf("%s=%q", attr.Key, attr.Value.String())
	case attr.Key == "url":
		return fmt.Sprintf("url=%s", h.shortenURL(attr.Value.String()))
	case attr.Value.Kind() == slog.KindDuration:
		return fmt.Sprintf("%s=%s", attr.Key, attr.Value.Duration().Round(time.Millisecond))
	default:
		return fmt.Sprintf("%s=%s", attr.Key, attr.Value.String())
	}
}

// shortenURL сокращает длинные URL для удобства чтения в логах.
// URL длиннее 50 символов сокращается до схемы и домена.
func (h *ReadableHandler) shortenURL(url string) string {
	if len(url) > 50 {
		parts := strings.Split(url, "/")
		if len(parts) >= 3 {
			return fmt.Sprintf("%s//%s/...", parts[0], parts[2])
		}
	}
	return url
}

func (h *ReadableHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	clone := *h
	clone.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	clone.attrs = append(clone.attrs, h.attrs...)
	for _, a := range attrs {
		if h.prefix != "" && a.Key != "component" && a.Key != "op" {
			a.Key = h.prefix + a.Key
		}
		clone.attrs = append(clone.attrs, a)
	}
	return &clone
}

func (h *ReadableHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.prefix = h.prefix + name + "."
	return &clone
}
