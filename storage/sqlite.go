package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"feedfilter/internal/domain"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var sqliteSchema string

// SQLiteJournal хранит журнал прогонов в файле SQLite.
type SQLiteJournal struct {
	db  *sql.DB
	log *slog.Logger
}

// NewSQLiteJournal открывает (или создает) базу по пути path и применяет схему.
func NewSQLiteJournal(path string, log *slog.Logger) (*SQLiteJournal, error) {
	log = log.With(slog.String("path", path))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite journal: %w", err)
	}
	// modernc/sqlite не допускает параллельной записи через несколько соединений.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize journal schema: %w", err)
	}
	log.Info("Initializing SQLite refresh journal")
	return &SQLiteJournal{db: db, log: log}, nil
}

func (j *SQLiteJournal) RecordRefresh(ctx context.Context, r *domain.Refresh) error {
	const op = "storage.sqlite.RecordRefresh"
	res, err := j.db.ExecContext(ctx, `
	INSERT INTO feed_refreshes (kind, source_url, forced, started_at, duration_ns, entries_total, entries_matched, error)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		string(r.Kind),
		r.SourceURL,
		r.Forced,
		r.StartedAt.UnixNano(),
		int64(r.Duration),
		r.EntriesTotal,
		r.EntriesMatched,
		r.Error,
	)
	if err != nil {
		j.log.Error("Failed to insert refresh", slog.String("op", op), slog.Any("error", err))
		return fmt.Errorf("%s: failed to insert refresh: %w", op, err)
	}
	if id, err := res.LastInsertId(); err == nil {
		r.ID = id
	}
	return nil
}

func (j *SQLiteJournal) ListRefreshes(ctx context.Context, limit int) ([]domain.Refresh, error) {
	const op = "storage.sqlite.ListRefreshes"
	limit = normalizeLimit(limit)
	log := j.log.With(slog.String("op", op), slog.Int("limit", limit))
	rows, err := j.db.QueryContext(ctx, `
	SELECT id, kind, source_url, forced, started_at, duration_ns, entries_total, entries_matched, error
	FROM feed_refreshes
	ORDER BY id DESC
	LIMIT ?`, limit)
	if err != nil {
		log.Error("Database query failed", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to execute query: %w", op, err)
	}
	defer rows.Close()

	refreshes := make([]domain.Refresh, 0, limit)
	for rows.Next() {
		var (
			r         domain.Refresh
			kind      string
			startedAt int64
			duration  int64
		)
		if err := rows.Scan(&r.ID, &kind, &r.SourceURL, &r.Forced, &startedAt, &duration,
			&r.EntriesTotal, &r.EntriesMatched, &r.Error); err != nil {
			log.Error("Failed to scan row", slog.Any("error", err))
			return nil, fmt.Errorf("%s: failed to scan row: %w", op, err)
		}
		r.Kind = domain.Kind(kind)
		r.StartedAt = time.Unix(0, startedAt).UTC()
		r.Duration = time.Duration(duration)
		refreshes = append(refreshes, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: failed to iterate rows: %w", op, err)
	}
	log.Debug("Retrieved refreshes", slog.Int("count", len(refreshes)))
	return refreshes, nil
}

func (j *SQLiteJournal) Close() {
	j.log.Info("Closing SQLite refresh journal")
	if err := j.db.Close(); err != nil {
		j.log.Error("Failed to close sqlite journal", slog.Any("error", err))
	}
}
