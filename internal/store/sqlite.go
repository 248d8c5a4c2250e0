package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/rxindex/medinfo-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	query       TEXT NOT NULL,
	kind        TEXT NOT NULL,
	status      TEXT NOT NULL DEFAULT 'running',
	rxcui       TEXT,
	set_id      TEXT,
	error       TEXT,
	urls        TEXT,
	duration_ms INTEGER,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS dataset_syncs (
	id          TEXT PRIMARY KEY,
	dataset     TEXT NOT NULL,
	status      TEXT NOT NULL DEFAULT 'running',
	note        TEXT,
	error       TEXT,
	started_at  DATETIME NOT NULL,
	finished_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
CREATE INDEX IF NOT EXISTS idx_dataset_syncs_dataset ON dataset_syncs(dataset);
CREATE INDEX IF NOT EXISTS idx_dataset_syncs_status ON dataset_syncs(status);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateRun(ctx context.Context, query string, kind model.InputKind) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, query, kind, status, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, query, string(kind), string(model.RunStatusRunning), now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	return &model.Run{
		ID:        id,
		Query:     query,
		Kind:      kind,
		Status:    model.RunStatusRunning,
		CreatedAt: now,
	}, nil
}

func (s *SQLiteStore) CompleteRun(ctx context.Context, runID string, result model.RunResult) error {
	urlsJSON, err := json.Marshal(result.URLs)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal urls")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, rxcui = ?, set_id = ?, urls = ?, duration_ms = ? WHERE id = ?`,
		string(model.RunStatusComplete), result.RxCUI, result.SetID, string(urlsJSON), result.DurationMS, runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) FailRun(ctx context.Context, runID string, cause string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, error = ? WHERE id = ?`,
		string(model.RunStatusFailed), cause, runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: fail run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, query, kind, status, rxcui, set_id, error, urls, duration_ms, created_at
	          FROM runs WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

func (s *SQLiteStore) StartSync(ctx context.Context, dataset string) (*model.DatasetSync, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO dataset_syncs (id, dataset, status, started_at) VALUES (?, ?, ?, ?)`,
		id, dataset, string(model.SyncStatusRunning), now,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: insert sync for %s", dataset)
	}

	return &model.DatasetSync{
		ID:        id,
		Dataset:   dataset,
		Status:    model.SyncStatusRunning,
		StartedAt: now,
	}, nil
}

func (s *SQLiteStore) CompleteSync(ctx context.Context, syncID string, note string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE dataset_syncs SET status = ?, note = ?, finished_at = ? WHERE id = ?`,
		string(model.SyncStatusComplete), note, time.Now().UTC(), syncID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete sync %s", syncID)
	}
	return checkRowsAffected(res, "sync", syncID)
}

func (s *SQLiteStore) FailSync(ctx context.Context, syncID string, cause string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE dataset_syncs SET status = ?, error = ?, finished_at = ? WHERE id = ?`,
		string(model.SyncStatusFailed), cause, time.Now().UTC(), syncID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: fail sync %s", syncID)
	}
	return checkRowsAffected(res, "sync", syncID)
}

func (s *SQLiteStore) LastSuccessfulSync(ctx context.Context, dataset string) (*model.DatasetSync, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, dataset, status, note, error, started_at, finished_at FROM dataset_syncs
		 WHERE dataset = ? AND status = ?
		 ORDER BY finished_at DESC LIMIT 1`,
		dataset, string(model.SyncStatusComplete),
	)

	ds, err := scanSync(row)
	if eris.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: last successful sync for %s", dataset)
	}
	return ds, nil
}

func (s *SQLiteStore) ListSyncs(ctx context.Context, limit int) ([]model.DatasetSync, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, dataset, status, note, error, started_at, finished_at FROM dataset_syncs
		 ORDER BY started_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list syncs")
	}
	defer rows.Close()

	var syncs []model.DatasetSync
	for rows.Next() {
		ds, err := scanSync(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan sync")
		}
		syncs = append(syncs, *ds)
	}
	return syncs, eris.Wrap(rows.Err(), "sqlite: list syncs iterate")
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*model.Run, error) {
	var (
		r          model.Run
		rxcui      sql.NullString
		setID      sql.NullString
		errMsg     sql.NullString
		urlsJSON   sql.NullString
		durationMS sql.NullInt64
	)

	err := row.Scan(&r.ID, &r.Query, &r.Kind, &r.Status, &rxcui, &setID, &errMsg, &urlsJSON, &durationMS, &r.CreatedAt)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan run")
	}

	r.RxCUI = rxcui.String
	r.SetID = setID.String
	r.Error = errMsg.String
	r.DurationMS = durationMS.Int64
	if urlsJSON.Valid && urlsJSON.String != "" {
		if err := json.Unmarshal([]byte(urlsJSON.String), &r.URLs); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal urls")
		}
	}
	return &r, nil
}

func scanSync(row scannable) (*model.DatasetSync, error) {
	var (
		ds         model.DatasetSync
		note       sql.NullString
		errMsg     sql.NullString
		finishedAt sql.NullTime
	)

	err := row.Scan(&ds.ID, &ds.Dataset, &ds.Status, &note, &errMsg, &ds.StartedAt, &finishedAt)
	if err != nil {
		return nil, err
	}

	ds.Note = note.String
	ds.Error = errMsg.String
	if finishedAt.Valid {
		t := finishedAt.Time
		ds.FinishedAt = &t
	}
	return &ds, nil
}
