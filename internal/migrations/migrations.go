package migrations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Migration struct {
	ID    string
	UpSQL string
}

var allMigrations = []Migration{
	{
		ID: "20240301120000_create_feed_refreshes_table",
		UpSQL: `
		CREATE TABLE feed_refreshes(
		id bigserial PRIMARY KEY,
		kind TEXT NOT NULL,
		source_url TEXT NOT NULL,
		forced BOOLEAN NOT NULL DEFAULT false,
		started_at TIMESTAMPTZ NOT NULL,
		duration_ms BIGINT NOT NULL,
		entries_total INTEGER NOT NULL DEFAULT 0,
		entries_matched INTEGER NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT ''
		);`,
	},
	{
		ID: "20240301120100_index_feed_refreshes_started_at",
		UpSQL: `
		CREATE INDEX IF NOT EXISTS idx_feed_refreshes_started_at
		ON feed_refreshes (started_at DESC);`,
	},
}

// Apply применяет все необходимые миграции к базе данных.
// Все миграции выполняются в одной транзакции. Если таблица уже существует
// (например, создана вручную), миграция помечается как примененная.
func Apply(ctx context.Context, log *slog.Logger, pool *pgxpool.Pool) error {
	log = log.With(slog.String("component", "migrations"))
	log.Info("Starting database migrations check...")
	_, err := pool.Exec(ctx, `
	CREATE TABLE IF NOT EXISTS schema_migrations (
	id TEXT PRIMARY KEY
	);
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}
	rows, err := pool.Query(ctx, "SELECT id FROM schema_migrations")
	if err != nil {
		return fmt.Errorf("failed to query applied migrations: %w", err)
	}
	applied, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return fmt.Errorf("failed to scan migration ids: %w", err)
	}
	appliedMigrations := make(map[string]bool, len(applied))
	for _, id := range applied {
		appliedMigrations[id] = true
	}

	pending := make([]Migration, 0, len(allMigrations))
	for _, m := range allMigrations {
		if !appliedMigrations[m.ID] {
			pending = append(pending, m)
		}
	}
	if len(pending) == 0 {
		log.Info("Database is up to date, no new migrations found.")
		return nil
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].ID < pending[j].ID
	})

	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)
	for _, m := range pending {
		log.Info("Applying migration", slog.String("id", m.ID))
		if err := applyOne(ctx, tx, m); err != nil {
			var pgErr *pgconn.PgError
			if !errors.As(err, &pgErr) || pgErr.Code != pgerrcode.DuplicateTable {
				return fmt.Errorf("failed to apply migration %s: %w", m.ID, err)
			}
			log.Warn("Table already exists, marking migration as applied", slog.String("id", m.ID))
		}
		if _, err := tx.Exec(ctx, "INSERT INTO schema_migrations (id) VALUES ($1)", m.ID); err != nil {
			return fmt.Errorf("failed to record migration %s: %w", m.ID, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit migrations transaction: %w", err)
	}
	log.Info("Database migrations applied successfully", slog.Int("count", len(pending)))
	return nil
}

// applyOne выполняет миграцию в точке сохранения, чтобы ошибка не обрывала всю транзакцию.
func applyOne(ctx context.Context, tx pgx.Tx, m Migration) error {
	sp, err := tx.Begin(ctx)
	if err != nil {
		return err
	}
	if _, err := sp.Exec(ctx, m.UpSQL); err != nil {
		_ = sp.Rollback(ctx)
		return err
	}
	return sp.Commit(ctx)
}
