package usecase

import (
	"context"
	"log/slog"

	"feedfilter/internal/cache"
	"feedfilter/internal/domain"
)

// FeedService отдает выходные ленты через кэш, запуская конвейер при промахе.
type FeedService struct {
	pipeline *FeedPipeline
	gate     *cache.Gate
	log      *slog.Logger
}

func NewFeedService(pipeline *FeedPipeline, gate *cache.Gate, log *slog.Logger) *FeedService {
	return &FeedService{
		pipeline: pipeline,
		gate:     gate,
		log:      log.With(slog.String("component", "feed-service")),
	}
}

// GetFeed возвращает документ формата kind и признак попадания в кэш.
// forceRefresh перестраивает документ независимо от его возраста.
func (s *FeedService) GetFeed(ctx context.Context, kind domain.Kind, forceRefresh bool) (*domain.Document, bool, error) {
	doc, cached, err := s.gate.Get(ctx, kind, forceRefresh, func(ctx context.Context) (*domain.Document, error) {
		return s.pipeline.Run(ctx, kind, forceRefresh)
	})
	if err != nil {
		return nil, false, err
	}
	if cached {
		s.log.Info("Serving cached feed", slog.String("kind", string(kind)))
	}
	return doc, cached, nil
}

// RefreshFeed принудительно перестраивает документ. Используется фоновым прогревом.
func (s *FeedService) RefreshFeed(ctx context.Context, kind domain.Kind) error {
	_, _, err := s.GetFeed(ctx, kind, true)
	return err
}

// Config возвращает параметры выдачи.
func (s *FeedService) Config() domain.FeedConfig { return s.pipeline.Config() }
