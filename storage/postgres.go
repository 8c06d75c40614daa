package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"feedfilter/internal/domain"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresJournal struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewPostgresJournal(pool *pgxpool.Pool, log *slog.Logger) *PostgresJournal {
	log.Info("Initializing Postgres refresh journal")
	return &PostgresJournal{
		pool: pool,
		log:  log,
	}
}

func (db *PostgresJournal) Close() {
	db.log.Info("Closing database connection pool")
	db.pool.Close()
}

// RecordRefresh сохраняет запись о прогоне и заполняет ее ID.
func (db *PostgresJournal) RecordRefresh(ctx context.Context, r *domain.Refresh) error {
	const op = "storage.postgres.RecordRefresh"
	query := `
	INSERT INTO feed_refreshes (kind, source_url, forced, started_at, duration_ms, entries_total, entries_matched, error)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	RETURNING id;
	`
	err := db.pool.QueryRow(ctx, query,
		string(r.Kind),
		r.SourceURL,
		r.Forced,
		r.StartedAt,
		r.Duration.Milliseconds(),
		r.EntriesTotal,
		r.EntriesMatched,
		r.Error,
	).Scan(&r.ID)
	if err != nil {
		db.log.Error("Failed to insert refresh", slog.String("op", op), slog.Any("error", err))
		return fmt.Errorf("%s: %w", op, classify(err))
	}
	return nil
}

func (db *PostgresJournal) ListRefreshes(ctx context.Context, limit int) ([]domain.Refresh, error) {
	limit = normalizeLimit(limit)
	log := db.log.With(slog.Int("limit", limit))
	const op = "storage.postgres.ListRefreshes"
	log = log.With(slog.String("op", op))
	query := `
	SELECT id, kind, source_url, forced, started_at, duration_ms, entries_total, entries_matched, error
	FROM feed_refreshes
	ORDER BY id DESC
	LIMIT $1;
	`
	rows, err := db.pool.Query(ctx, query, limit)
	if err != nil {
		log.Error("Database query failed", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to execute query: %w", op, classify(err))
	}
	defer rows.Close()
	refreshes, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Refresh, error) {
		var (
			r          domain.Refresh
			kind       string
			durationMS int64
		)
		err := row.Scan(
			&r.ID,
			&kind,
			&r.SourceURL,
			&r.Forced,
			&r.StartedAt,
			&durationMS,
			&r.EntriesTotal,
			&r.EntriesMatched,
			&r.Error,
		)
		r.Kind = domain.Kind(kind)
		r.Duration = time.Duration(durationMS) * time.Millisecond
		return r, err
	})
	if err != nil {
		log.Error("Failed to collect rows", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to scan row: %w", op, classify(err))
	}
	log.Info("Successfully retrieved refreshes", slog.Int("count", len(refreshes)))
	return refreshes, nil
}

func classify(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UndefinedTable {
		return fmt.Errorf("%w: %s", ErrJournalNotMigrated, pgErr.Message)
	}
	return err
}
