package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/bizmatch/match-cli/internal/model"
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
CREATE TABLE IF NOT EXISTS candidates (
	id           TEXT PRIMARY KEY,
	title        TEXT NOT NULL DEFAULT '',
	business_key TEXT,
	content_hash TEXT,
	status       TEXT NOT NULL DEFAULT 'active',
	data         TEXT NOT NULL,
	created_at   DATETIME NOT NULL,
	updated_at   DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_candidates_status ON candidates(status);
CREATE INDEX IF NOT EXISTS idx_candidates_content_hash ON candidates(content_hash);
CREATE INDEX IF NOT EXISTS idx_candidates_business_key ON candidates(business_key);

CREATE TABLE IF NOT EXISTS programs (
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL DEFAULT '',
	status     TEXT NOT NULL DEFAULT 'active',
	deadline   DATETIME,
	data       TEXT NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_programs_status ON programs(status);
CREATE INDEX IF NOT EXISTS idx_programs_deadline ON programs(deadline);

CREATE TABLE IF NOT EXISTS organizations (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL DEFAULT '',
	data       TEXT NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS match_runs (
	id              TEXT PRIMARY KEY,
	organization_id TEXT NOT NULL,
	results         TEXT NOT NULL,
	result_count    INTEGER NOT NULL DEFAULT 0,
	created_at      DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_match_runs_org ON match_runs(organization_id, created_at DESC);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) UpsertCandidates(ctx context.Context, records []model.Candidate) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin upsert candidates")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO candidates (id, title, business_key, content_hash, status, data, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		   title = excluded.title, business_key = excluded.business_key,
		   content_hash = excluded.content_hash, status = excluded.status,
		   data = excluded.data, updated_at = excluded.updated_at`)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare upsert candidates")
	}
	defer stmt.Close()

	var n int64
	for _, r := range records {
		data, err := json.Marshal(r)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: marshal candidate %s", r.ID)
		}
		if _, err := stmt.ExecContext(ctx,
			r.ID, r.Title, r.BusinessKey, r.ContentHash, string(r.Status), string(data), r.CreatedAt, r.UpdatedAt,
		); err != nil {
			return 0, eris.Wrapf(err, "sqlite: upsert candidate %s", r.ID)
		}
		n++
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit upsert candidates")
	}
	return n, nil
}

func (s *SQLiteStore) ListCandidates(ctx context.Context, filter CandidateFilter) ([]model.Candidate, error) {
	query := `SELECT data FROM candidates WHERE 1=1`
	args := []any{}

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

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list candidates")
	}
	defer rows.Close()

	var out []model.Candidate
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan candidate")
		}
		var c model.Candidate
		if err := json.Unmarshal([]byte(data), &c); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal candidate")
		}
		out = append(out, c)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list candidates iterate")
}

func (s *SQLiteStore) MarkDuplicates(ctx context.Context, keepID string, duplicateIDs []string) (int64, error) {
	if len(duplicateIDs) == 0 {
		return 0, nil
	}

	query := `UPDATE candidates SET status = ?, updated_at = ? WHERE id <> ? AND id IN (`
	args := []any{string(model.CandidateStatusDuplicate), time.Now().UTC(), keepID}
	for i, id := range duplicateIDs {
		if i > 0 {
			query += ", "
		}
		query += "?"
		args = append(args, id)
	}
	query += ")"

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: mark duplicates of %s", keepID)
	}
	n, err := res.RowsAffected()
	return n, eris.Wrap(err, "sqlite: mark duplicates rows affected")
}

func (s *SQLiteStore) UpsertPrograms(ctx context.Context, programs []model.Program) (int64, error) {
	if len(programs) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin upsert programs")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO programs (id, title, status, deadline, data, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		   title = excluded.title, status = excluded.status,
		   deadline = excluded.deadline, data = excluded.data, updated_at = excluded.updated_at`)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare upsert programs")
	}
	defer stmt.Close()

	now := time.Now().UTC()
	var n int64
	for _, p := range programs {
		data, err := json.Marshal(p)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: marshal program %s", p.ID)
		}
		var deadline any
		if p.Deadline != nil {
			deadline = *p.Deadline
		}
		if _, err := stmt.ExecContext(ctx, p.ID, p.Title, string(p.Status), deadline, string(data), now); err != nil {
			return 0, eris.Wrapf(err, "sqlite: upsert program %s", p.ID)
		}
		n++
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit upsert programs")
	}
	return n, nil
}

func (s *SQLiteStore) GetProgram(ctx context.Context, id string) (*model.Program, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM programs WHERE id = ?`, id).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "sqlite: get program %s", id)
	}
	var p model.Program
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal program")
	}
	return &p, nil
}

func (s *SQLiteStore) ListPrograms(ctx context.Context, filter ProgramFilter) ([]model.Program, error) {
	query := `SELECT data FROM programs WHERE 1=1`
	args := []any{}

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY deadline IS NULL, deadline ASC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list programs")
	}
	defer rows.Close()

	var out []model.Program
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan program")
		}
		var p model.Program
		if err := json.Unmarshal([]byte(data), &p); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal program")
		}
		out = append(out, p)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list programs iterate")
}

func (s *SQLiteStore) SaveOrganization(ctx context.Context, org model.Organization) error {
	data, err := json.Marshal(org)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal organization")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO organizations (id, name, data, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET name = excluded.name, data = excluded.data, updated_at = excluded.updated_at`,
		org.ID, org.Name, string(data), time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: save organization %s", org.ID)
}

func (s *SQLiteStore) GetOrganization(ctx context.Context, id string) (*model.Organization, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM organizations WHERE id = ?`, id).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "sqlite: get organization %s", id)
	}
	var org model.Organization
	if err := json.Unmarshal([]byte(data), &org); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal organization")
	}
	return &org, nil
}

func (s *SQLiteStore) SaveMatchRun(ctx context.Context, orgID string, results []model.MatchResult) (*MatchRun, error) {
	run := MatchRun{
		ID:             uuid.New().String(),
		OrganizationID: orgID,
		Results:        results,
		ResultCount:    len(results),
		CreatedAt:      time.Now().UTC(),
	}

	resultsJSON, err := json.Marshal(results)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal match results")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO match_runs (id, organization_id, results, result_count, created_at) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.OrganizationID, string(resultsJSON), run.ResultCount, run.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: insert match run for %s", orgID)
	}
	return &run, nil
}

func (s *SQLiteStore) GetMatchRun(ctx context.Context, runID string) (*MatchRun, error) {
	var run MatchRun
	var resultsJSON string

	err := s.db.QueryRowContext(ctx,
		`SELECT id, organization_id, results, result_count, created_at FROM match_runs WHERE id = ?`,
		runID,
	).Scan(&run.ID, &run.OrganizationID, &resultsJSON, &run.ResultCount, &run.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "sqlite: get match run %s", runID)
	}
	if err := json.Unmarshal([]byte(resultsJSON), &run.Results); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal match results")
	}
	return &run, nil
}

func (s *SQLiteStore) ListMatchRuns(ctx context.Context, orgID string, limit int) ([]MatchRun, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT id, organization_id, results, result_count, created_at FROM match_runs`
	args := []any{}
	if orgID != "" {
		query += ` WHERE organization_id = ?`
		args = append(args, orgID)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list match runs")
	}
	defer rows.Close()

	var runs []MatchRun
	for rows.Next() {
		var run MatchRun
		var resultsJSON string
		if err := rows.Scan(&run.ID, &run.OrganizationID, &resultsJSON, &run.ResultCount, &run.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan match run")
		}
		if err := json.Unmarshal([]byte(resultsJSON), &run.Results); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal match results")
		}
		runs = append(runs, run)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list match runs iterate")
}

// interface conformance
var (
	_ Store = (*PostgresStore)(nil)
	_ Store = (*SQLiteStore)(nil)
)
