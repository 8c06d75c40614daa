// Package cache хранит последнюю построенную ленту для каждого формата выдачи
// и решает, отдать её или построить заново.
package cache

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"feedfilter/internal/domain"

	"golang.org/x/sync/singleflight"
)

// ComputeFunc выполняет полный прогон конвейера для одного формата.
type ComputeFunc func(ctx context.Context) (*domain.Document, error)

type slot struct {
	doc      *domain.Document
	storedAt time.Time
}

// Gate - кэш с ограниченным сроком годности, по одному слоту на формат.
// Слот либо пуст, либо содержит документ одного завершенного прогона;
// новый документ публикуется заменой указателя под блокировкой записи,
// поэтому читатели видят либо старый, либо новый документ целиком.
// Построение документа выполняется без блокировки.
type Gate struct {
	mu       sync.RWMutex
	slots    map[domain.Kind]slot
	validity time.Duration
	now      func() time.Time
	coalesce bool
	group    singleflight.Group
	log      *slog.Logger
}

type Option func(*Gate)

// WithClock подменяет источник времени.
func WithClock(now func() time.Time) Option {
	return func(g *Gate) { g.now = now }
}

// WithCoalescing включает объединение одновременных промахов одного формата в один прогон.
func WithCoalescing(enabled bool) Option {
	return func(g *Gate) { g.coalesce = enabled }
}

func WithLogger(log *slog.Logger) Option {
	return func(g *Gate) { g.log = log }
}

// New создает пустой кэш со сроком годности validity.
func New(validity time.Duration, opts ...Option) *Gate {
	g := &Gate{
		slots:    make(map[domain.Kind]slot),
		validity: validity,
		now:      time.Now,
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.log = g.log.With(slog.String("component", "cache"))
	return g
}

// Validity возвращает срок годности документа.
func (g *Gate) Validity() time.Duration { return g.validity }

// Fresh возвращает документ, если он есть и его возраст меньше срока годности.
func (g *Gate) Fresh(kind domain.Kind) (*domain.Document, bool) {
	g.mu.RLock()
	s, ok := g.slots[kind]
	g.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if g.now().Sub(s.storedAt) >= g.validity {
		return nil, false
	}
	return s.doc, true
}

// Current возвращает последний опубликованный документ независимо от возраста.
func (g *Gate) Current(kind domain.Kind) (*domain.Document, time.Time, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	s, ok := g.slots[kind]
	return s.doc, s.storedAt, ok
}

// Publish заменяет документ в слоте его формата. Побеждает последний писатель.
func (g *Gate) Publish(doc *domain.Document) {
	now := g.now()
	g.mu.Lock()
	g.slots[doc.Kind] = slot{doc: doc, storedAt: now}
	g.mu.Unlock()
}

// Get отдает свежий документ из кэша либо строит новый через compute и публикует его.
// force пропускает проверку возраста. Ошибка compute возвращается вызывающему,
// слот при этом не меняется. Второе значение сообщает, был ли документ взят из кэша.
func (g *Gate) Get(ctx context.Context, kind domain.Kind, force bool, compute ComputeFunc) (*domain.Document, bool, error) {
	if !force {
		if doc, ok := g.Fresh(kind); ok {
			g.log.Debug("Serving cached document", slog.String("kind", string(kind)))
			return doc, true, nil
		}
	}
	if g.coalesce && !force {
		v, err, shared := g.group.Do(string(kind), func() (any, error) {
			return g.refresh(context.WithoutCancel(ctx), kind, compute)
		})
		if err != nil {
			return nil, false, err
		}
		if shared {
			g.log.Debug("Joined in-flight refresh", slog.String("kind", string(kind)))
		}
		return v.(*domain.Document), false, nil
	}
	doc, err := g.refresh(ctx, kind, compute)
	if err != nil {
		return nil, false, err
	}
	return doc, false, nil
}

func (g *Gate) refresh(ctx context.Context, kind domain.Kind, compute ComputeFunc) (*domain.Document, error) {
	doc, err := compute(ctx)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("refresh of %s produced no document", kind)
	}
	if doc.Kind != kind {
		return nil, fmt.Errorf("refresh of %s produced a %s document", kind, doc.Kind)
	}
	g.Publish(doc)
	g.log.Info("Cache slot replaced",
		slog.String("kind", string(kind)),
		slog.Int("entries", doc.Entries),
		slog.Int("bytes", len(doc.Body)),
	)
	return doc, nil
}
