package storage

import (
	"context"
	"errors"

	"feedfilter/internal/domain"
)

// DefaultListLimit используется, когда запрошен неположительный лимит.
const DefaultListLimit = 20

// ErrJournalNotMigrated возвращается, если таблица журнала еще не создана.
var ErrJournalNotMigrated = errors.New("refresh journal table does not exist")

// Journal определяет общий интерфейс журнала прогонов конвейера.
// Журнал хранит историю для диагностики и никогда не используется для восстановления кэша.
type Journal interface {
	RecordRefresh(ctx context.Context, r *domain.Refresh) error
	ListRefreshes(ctx context.Context, limit int) ([]domain.Refresh, error)
	Close()
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}
