package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"feedfilter/internal/domain"
)

const journalTimeout = 5 * time.Second

// FeedPipeline выполняет один прогон: загрузка, разбор, фильтрация, построение документа.
// Этапы идут строго последовательно, первая ошибка прерывает прогон.
type FeedPipeline struct {
	fetcher   FeedFetcher
	parser    FeedParser
	filter    EntryFilter
	renderers map[domain.Kind]FeedRenderer
	journal   RefreshRecorder
	cfg       domain.FeedConfig
	log       *slog.Logger
}

// NewFeedPipeline создает конвейер. journal может быть nil.
func NewFeedPipeline(
	fetcher FeedFetcher,
	parser FeedParser,
	filter EntryFilter,
	renderers []FeedRenderer,
	journal RefreshRecorder,
	cfg domain.FeedConfig,
	log *slog.Logger,
) *FeedPipeline {
	byKind := make(map[domain.Kind]FeedRenderer, len(renderers))
	for _, r := range renderers {
		byKind[r.Kind()] = r
	}
	return &FeedPipeline{
		fetcher:   fetcher,
		parser:    parser,
		filter:    filter,
		renderers: byKind,
		journal:   journal,
		cfg:       cfg,
		log:       log,
	}
}

// Config возвращает параметры выдачи.
func (p *FeedPipeline) Config() domain.FeedConfig { return p.cfg }

// Run строит документ формата kind. forced только помечает запись журнала.
func (p *FeedPipeline) Run(ctx context.Context, kind domain.Kind, forced bool) (*domain.Document, error) {
	start := time.Now()
	log := p.log.With(
		slog.String("component", "pipeline"),
		slog.String("kind", string(kind)),
		slog.String("url", p.cfg.URL),
	)
	refresh := &domain.Refresh{
		Kind:      kind,
		SourceURL: p.cfg.URL,
		Forced:    forced,
		StartedAt: start,
	}
	doc, err := p.run(ctx, log, kind, refresh)
	refresh.Duration = time.Since(start)
	if err != nil {
		refresh.Error = err.Error()
	}
	p.record(ctx, log, refresh)
	if err != nil {
		return nil, err
	}
	log.Info("Feed pipeline completed successfully",
		slog.Int("items_found", refresh.EntriesTotal),
		slog.Int("items_matched", refresh.EntriesMatched),
		slog.Duration("duration", refresh.Duration),
	)
	return doc, nil
}

func (p *FeedPipeline) run(ctx context.Context, log *slog.Logger, kind domain.Kind, refresh *domain.Refresh) (*domain.Document, error) {
	renderer, ok := p.renderers[kind]
	if !ok {
		return nil, fmt.Errorf("no renderer registered for %q", kind)
	}

	log.Info("Fetching upstream feed")
	data, err := p.fetcher.Fetch(ctx, p.cfg.URL)
	if err != nil {
		log.Error("Feed fetch failed",
			slog.String("stage", "fetch"),
			slog.Any("error", err),
		)
		return nil, fmt.Errorf("fetch failed: %w", err)
	}

	feed, err := p.parser.Parse(ctx, data)
	if err != nil {
		log.Error("Feed parsing failed",
			slog.String("stage", "parse"),
			slog.Any("error", err),
		)
		return nil, fmt.Errorf("parse failed: %w", err)
	}
	refresh.EntriesTotal = len(feed.Entries)
	log.Debug("Feed parsed successfully",
		slog.String("stage", "parse"),
		slog.Int("items_parsed", len(feed.Entries)),
	)

	matched := p.filter.Apply(feed.Entries)
	refresh.EntriesMatched = len(matched)
	log.Debug("Entries filtered",
		slog.String("stage", "filter"),
		slog.String("filter_word", p.cfg.FilterWord),
		slog.Int("items_matched", len(matched)),
	)

	doc, err := renderer.Render(feed, matched, p.cfg)
	if err != nil {
		log.Error("Feed rendering failed",
			slog.String("stage", "render"),
			slog.Any("error", err),
		)
		return nil, fmt.Errorf("render failed: %w", err)
	}
	return doc, nil
}

// record пишет журнал, не влияя на результат прогона.
func (p *FeedPipeline) record(ctx context.Context, log *slog.Logger, r *domain.Refresh) {
	if p.journal == nil {
		return
	}
	jctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), journalTimeout)
	defer cancel()
	if err := p.journal.RecordRefresh(jctx, r); err != nil {
		log.Warn("Failed to record refresh", slog.Any("error", err))
	}
}
