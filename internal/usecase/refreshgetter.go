package usecase

import (
	"context"

	"feedfilter/internal/domain"
)

// RefreshStorage определяет интерфейс чтения журнала прогонов.
type RefreshStorage interface {
	ListRefreshes(ctx context.Context, limit int) ([]domain.Refresh, error)
}

// RefreshGetterUseCase предоставляет журнал прогонов для API.
type RefreshGetterUseCase struct {
	storage RefreshStorage
}

func NewRefreshGetterUseCase(s RefreshStorage) *RefreshGetterUseCase {
	return &RefreshGetterUseCase{storage: s}
}

// GetRefreshes возвращает последние записи журнала, новые первыми.
func (uc *RefreshGetterUseCase) GetRefreshes(ctx context.Context, limit int) ([]domain.Refresh, error) {
	return uc.storage.ListRefreshes(ctx, limit)
}
