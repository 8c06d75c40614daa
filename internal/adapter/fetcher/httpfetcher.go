package fetcher

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"feedfilter/internal/domain"
)

const (
	DefaultUserAgent = "Atom Feed Filter Bot 1.0"
	DefaultTimeout   = 30 * time.Second
)

// HTTPFetcher загружает исходную Atom-ленту по HTTP.
// Выполняет ровно один GET-запрос без повторов: политика повторов - забота вызывающего.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
	log       *slog.Logger
}

// NewHTTPFetcher создает загрузчик с ограничением времени запроса timeout.
// Пустой userAgent заменяется на DefaultUserAgent, нулевой timeout - на DefaultTimeout.
func NewHTTPFetcher(log *slog.Logger, userAgent string, timeout time.Duration) *HTTPFetcher {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPFetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
		log:       log.With(slog.String("component", "fetcher")),
	}
}

// Fetch выполняет GET-запрос и возвращает тело ответа целиком.
// Сетевые сбои возвращаются как *domain.TransportError,
// статус вне диапазона 2xx - как *domain.UpstreamStatusError.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	log := f.log.With(slog.String("url", url))
	log.Debug("Fetching URL")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		log.Error("Failed to create HTTP request", slog.Any("error", err))
		return nil, &domain.TransportError{URL: url, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/atom+xml, application/xml;q=0.9, */*;q=0.8")

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		log.Error("HTTP request failed", slog.Any("error", err))
		return nil, &domain.TransportError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Error("Unexpected status code", slog.Int("status_code", resp.StatusCode))
		return nil, &domain.UpstreamStatusError{URL: url, StatusCode: resp.StatusCode}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Error("Failed to read response body", slog.Any("error", err))
		return nil, &domain.TransportError{URL: url, Err: fmt.Errorf("failed to read body: %w", err)}
	}
	log.Info("Successfully fetched URL",
		slog.Int("bytes", len(body)),
		slog.Duration("duration", time.Since(start)),
	)
	return body, nil
}
