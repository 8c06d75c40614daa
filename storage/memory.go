package storage

import (
	"context"
	"log/slog"
	"sync"

	"feedfilter/internal/domain"
)

// DefaultMemoryCapacity - сколько последних прогонов хранит журнал в памяти.
const DefaultMemoryCapacity = 100

// MemoryJournal хранит последние прогоны в кольцевом буфере.
type MemoryJournal struct {
	mu      sync.Mutex
	records []domain.Refresh
	next    int
	size    int
	lastID  int64
	log     *slog.Logger
}

func NewMemoryJournal(capacity int, log *slog.Logger) *MemoryJournal {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	log.Info("Initializing in-memory refresh journal", slog.Int("capacity", capacity))
	return &MemoryJournal{
		records: make([]domain.Refresh, capacity),
		log:     log,
	}
}

func (j *MemoryJournal) RecordRefresh(ctx context.Context, r *domain.Refresh) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.lastID++
	r.ID = j.lastID
	j.records[j.next] = *r
	j.next = (j.next + 1) % len(j.records)
	if j.size < len(j.records) {
		j.size++
	}
	return nil
}

// ListRefreshes возвращает до limit записей, новые первыми.
func (j *MemoryJournal) ListRefreshes(ctx context.Context, limit int) ([]domain.Refresh, error) {
	limit = normalizeLimit(limit)
	j.mu.Lock()
	defer j.mu.Unlock()
	n := min(limit, j.size)
	out := make([]domain.Refresh, 0, n)
	for i := 1; i <= n; i++ {
		idx := (j.next - i + len(j.records)) % len(j.records)
		out = append(out, j.records[idx])
	}
	return out, nil
}

func (j *MemoryJournal) Close() {
	j.log.Info("Closing in-memory refresh journal")
}
