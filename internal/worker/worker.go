package worker

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"feedfilter/internal/domain"
)

// FeedRefresher перестраивает выходной документ одного формата.
type FeedRefresher interface {
	RefreshFeed(ctx context.Context, kind domain.Kind) error
}

// Worker периодически прогревает кэш выходных лент,
// чтобы читатели реже попадали на промах.
type Worker struct {
	refresher FeedRefresher
	kinds     []domain.Kind
	interval  time.Duration
	timeout   time.Duration
	log       *slog.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
}

// New создает воркер прогрева. timeout ограничивает один прогон каждого формата.
func New(refresher FeedRefresher, kinds []domain.Kind, interval, timeout time.Duration, log *slog.Logger) *Worker {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Worker{
		refresher: refresher,
		kinds:     kinds,
		interval:  interval,
		timeout:   timeout,
		log:       log.With(slog.String("component", "worker")),
	}
}

// Start запускает воркер в отдельной горутине. Первый прогрев выполняется сразу.
func (w *Worker) Start() {
	w.ctx, w.cancel = context.WithCancel(context.Background())
	w.done = make(chan struct{})
	go w.run()
}

// Stop останавливает воркер и дожидается завершения текущего цикла.
func (w *Worker) Stop() {
	if w.cancel == nil {
		return
	}
	w.cancel()
	<-w.done
}

func (w *Worker) run() {
	defer close(w.done)
	w.log.Info("Cache warm-up worker started",
		slog.Duration("interval", w.interval),
		slog.Int("kinds", len(w.kinds)),
	)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	w.refreshAll()
	for {
		select {
		case <-ticker.C:
			w.refreshAll()
		case <-w.ctx.Done():
			w.log.Info("Worker stopping")
			return
		}
	}
}

// refreshAll прогревает все форматы параллельно и считает успешные и неудачные прогоны.
func (w *Worker) refreshAll() {
	start := time.Now()
	var wg sync.WaitGroup
	var successCount, errorCount atomic.Int64
	for _, kind := range w.kinds {
		wg.Add(1)
		go func(k domain.Kind) {
			defer wg.Done()
			if w.ctx.Err() != nil {
				return
			}
			opCtx, opCancel := context.WithTimeout(w.ctx, w.timeout)
			defer opCancel()
			if err := w.refresher.RefreshFeed(opCtx, k); err != nil {
				errorCount.Add(1)
				w.log.Error("Cache warm-up failed",
					slog.String("kind", string(k)),
					slog.Any("error", err),
				)
				return
			}
			successCount.Add(1)
		}(kind)
	}
	wg.Wait()
	w.log.Info("Cache warm-up cycle completed",
		slog.Int64("successful", successCount.Load()),
		slog.Int64("errors", errorCount.Load()),
		slog.Duration("duration", time.Since(start)),
	)
}

// Interval возвращает период прогрева.
func (w *Worker) Interval() time.Duration { return w.interval }
