package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"feedfilter/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleRefresh(i int) *domain.Refresh {
	return &domain.Refresh{
		Kind:           domain.KindAtom,
		SourceURL:      fmt.Sprintf("https://example.com/%d", i),
		StartedAt:      time.Date(2024, 3, 2, 12, 0, i, 0, time.UTC),
		Duration:       time.Duration(i) * time.Millisecond,
		EntriesTotal:   3,
		EntriesMatched: 2,
	}
}

func TestMemoryJournal_NewestFirst(t *testing.T) {
	j := NewMemoryJournal(10, discardLogger())
	ctx := context.Background()
	for i := 1; i <= 3; i++ {
		r := sampleRefresh(i)
		require.NoError(t, j.RecordRefresh(ctx, r))
		assert.EqualValues(t, i, r.ID)
	}

	got, err := j.ListRefreshes(ctx, 2)

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.EqualValues(t, 3, got[0].ID)
	assert.EqualValues(t, 2, got[1].ID)
}

func TestMemoryJournal_RingDropsOldest(t *testing.T) {
	j := NewMemoryJournal(3, discardLogger())
	ctx := context.Background()
	for i := 1; i <= 5; i++ {
		require.NoError(t, j.RecordRefresh(ctx, sampleRefresh(i)))
	}

	got, err := j.ListRefreshes(ctx, 10)

	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.EqualValues(t, []int64{5, 4, 3}, []int64{got[0].ID, got[1].ID, got[2].ID})
}

func TestMemoryJournal_EmptyAndDefaultLimit(t *testing.T) {
	j := NewMemoryJournal(0, discardLogger())
	ctx := context.Background()

	got, err := j.ListRefreshes(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)

	for i := 0; i < DefaultListLimit+5; i++ {
		require.NoError(t, j.RecordRefresh(ctx, sampleRefresh(i)))
	}
	got, err = j.ListRefreshes(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, got, DefaultListLimit)
}
