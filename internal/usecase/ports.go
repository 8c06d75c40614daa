package usecase

import (
	"context"

	"feedfilter/internal/domain"
)

// FeedFetcher загружает тело исходной ленты.
type FeedFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// FeedParser разбирает тело ленты в доменную модель.
type FeedParser interface {
	Parse(ctx context.Context, data []byte) (*domain.Feed, error)
}

// EntryFilter отбирает записи, сохраняя их порядок.
type EntryFilter interface {
	Apply(entries []domain.Entry) []domain.Entry
}

// FeedRenderer строит выходной документ одного формата.
type FeedRenderer interface {
	Kind() domain.Kind
	Render(src *domain.Feed, entries []domain.Entry, cfg domain.FeedConfig) (*domain.Document, error)
}

// RefreshRecorder сохраняет запись журнала о прогоне конвейера.
type RefreshRecorder interface {
	RecordRefresh(ctx context.Context, r *domain.Refresh) error
}
