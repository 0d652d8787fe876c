package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/bizmatch/match-cli/internal/db"
	"github.com/bizmatch/match-cli/internal/model"
)

// PostgresStore implements Store using pgxpool. Entity truth lives in the
// data JSONB column; the scalar columns exist for indexing and filtering.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"get_program":      `SELECT data FROM programs WHERE id = $1`,
	"get_organization": `SELECT data FROM organizations WHERE id = $1`,
	"save_organization": `INSERT INTO organizations (id, name, data, updated_at) VALUES ($1, $2, $3, $4)
	                      ON CONFLICT (id) DO UPDATE SET name = $2, data = $3, updated_at = $4`,
	"insert_match_run": `INSERT INTO match_runs (id, organization_id, results, result_count, created_at) VALUES ($1, $2, $3, $4, $5)`,
	"get_match_run":    `SELECT id, organization_id, results, result_count, created_at FROM match_runs WHERE id = $1`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool; used by tests with pgxmock.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, closeFn: pool.Close}
}

// Pool returns the underlying database pool for subsystems that need
// direct query access.
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS candidates (
	id           TEXT PRIMARY KEY,
	title        TEXT NOT NULL DEFAULT '',
	business_key TEXT,
	content_hash TEXT,
	status       TEXT NOT NULL DEFAULT 'active',
	data         JSONB NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_candidates_status ON candidates(status);
CREATE INDEX IF NOT EXISTS idx_candidates_content_hash ON candidates(content_hash);
CREATE INDEX IF NOT EXISTS idx_candidates_business_key ON candidates(business_key);

CREATE TABLE IF NOT EXISTS programs (
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL DEFAULT '',
	status     TEXT NOT NULL DEFAULT 'active',
	deadline   TIMESTAMPTZ,
	data       JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_programs_status ON programs(status);
CREATE INDEX IF NOT EXISTS idx_programs_deadline ON programs(deadline);

CREATE TABLE IF NOT EXISTS organizations (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL DEFAULT '',
	data       JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS match_runs (
	id              TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	organization_id TEXT NOT NULL,
	results         JSONB NOT NULL,
	result_count    INTEGER NOT NULL DEFAULT 0,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_match_runs_org ON match_runs(organization_id, created_at DESC);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

var candidateColumns = []string{"id", "title", "business_key", "content_hash", "status", "data", "created_at", "updated_at"}

func (s *PostgresStore) UpsertCandidates(ctx context.Context, records []model.Candidate) (int64, error) {
	rows := make([][]any, 0, len(records))
	for _, r := range records {
		data, err := json.Marshal(r)
		if err != nil {
			return 0, eris.Wrapf(err, "postgres: marshal candidate %s", r.ID)
		}
		rows = append(rows, []any{r.ID, r.Title, r.BusinessKey, r.ContentHash, string(r.Status), data, r.CreatedAt, r.UpdatedAt})
	}

	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "candidates",
		Columns:      candidateColumns,
		ConflictKeys: []string{"id"},
	}, rows)
	return n, eris.Wrap(err, "postgres: upsert candidates")
}

func (s *PostgresStore) ListCandidates(ctx context.Context, filter CandidateFilter) ([]model.Candidate, error) {
	query := `SELECT data FROM candidates WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list candidates")
	}
	defer rows.Close()

	var out []model.Candidate
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "postgres: scan candidate")
		}
		var c model.Candidate
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal candidate")
		}
		out = append(out, c)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list candidates iterate")
}

func (s *PostgresStore) MarkDuplicates(ctx context.Context, keepID string, duplicateIDs []string) (int64, error) {
	if len(duplicateIDs) == 0 {
		return 0, nil
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE candidates SET status = $1, updated_at = now() WHERE id = ANY($2) AND id <> $3`,
		string(model.CandidateStatusDuplicate), duplicateIDs, keepID,
	)
	if err != nil {
		return 0, eris.Wrapf(err, "postgres: mark duplicates of %s", keepID)
	}
	return tag.RowsAffected(), nil
}

var programColumns = []string{"id", "title", "status", "deadline", "data", "updated_at"}

func (s *PostgresStore) UpsertPrograms(ctx context.Context, programs []model.Program) (int64, error) {
	now := time.Now().UTC()
	rows := make([][]any, 0, len(programs))
	for _, p := range programs {
		data, err := json.Marshal(p)
		if err != nil {
			return 0, eris.Wrapf(err, "postgres: marshal program %s", p.ID)
		}
		rows = append(rows, []any{p.ID, p.Title, string(p.Status), p.Deadline, data, now})
	}

	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "programs",
		Columns:      programColumns,
		ConflictKeys: []string{"id"},
	}, rows)
	return n, eris.Wrap(err, "postgres: upsert programs")
}

func (s *PostgresStore) GetProgram(ctx context.Context, id string) (*model.Program, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM programs WHERE id = $1`, id).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get program %s", id)
	}
	var p model.Program
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal program")
	}
	return &p, nil
}

func (s *PostgresStore) ListPrograms(ctx context.Context, filter ProgramFilter) ([]model.Program, error) {
	query := `SELECT data FROM programs WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	query += ` ORDER BY deadline ASC NULLS LAST`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list programs")
	}
	defer rows.Close()

	var out []model.Program
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "postgres: scan program")
		}
		var p model.Program
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal program")
		}
		out = append(out, p)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list programs iterate")
}

func (s *PostgresStore) SaveOrganization(ctx context.Context, org model.Organization) error {
	data, err := json.Marshal(org)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal organization")
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO organizations (id, name, data, updated_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE SET name = $2, data = $3, updated_at = $4`,
		org.ID, org.Name, data, time.Now().UTC(),
	)
	return eris.Wrapf(err, "postgres: save organization %s", org.ID)
}

func (s *PostgresStore) GetOrganization(ctx context.Context, id string) (*model.Organization, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM organizations WHERE id = $1`, id).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get organization %s", id)
	}
	var org model.Organization
	if err := json.Unmarshal(data, &org); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal organization")
	}
	return &org, nil
}

func (s *PostgresStore) SaveMatchRun(ctx context.Context, orgID string, results []model.MatchResult) (*MatchRun, error) {
	run := MatchRun{
		ID:             uuid.New().String(),
		OrganizationID: orgID,
		Results:        results,
		ResultCount:    len(results),
		CreatedAt:      time.Now().UTC(),
	}

	resultsJSON, err := json.Marshal(results)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal match results")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO match_runs (id, organization_id, results, result_count, created_at) VALUES ($1, $2, $3, $4, $5)`,
		run.ID, run.OrganizationID, resultsJSON, run.ResultCount, run.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: insert match run for %s", orgID)
	}
	return &run, nil
}

func (s *PostgresStore) GetMatchRun(ctx context.Context, runID string) (*MatchRun, error) {
	var run MatchRun
	var resultsJSON []byte

	err := s.pool.QueryRow(ctx,
		`SELECT id, organization_id, results, result_count, created_at FROM match_runs WHERE id = $1`,
		runID,
	).Scan(&run.ID, &run.OrganizationID, &resultsJSON, &run.ResultCount, &run.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get match run %s", runID)
	}
	if err := json.Unmarshal(resultsJSON, &run.Results); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal match results")
	}
	return &run, nil
}

func (s *PostgresStore) ListMatchRuns(ctx context.Context, orgID string, limit int) ([]MatchRun, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT id, organization_id, results, result_count, created_at FROM match_runs`
	args := []any{}
	if orgID != "" {
		query += ` WHERE organization_id = $1`
		args = append(args, orgID)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d`, len(args)+1)
	args = append(args, limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list match runs")
	}
	defer rows.Close()

	var runs []MatchRun
	for rows.Next() {
		var run MatchRun
		var resultsJSON []byte
		if err := rows.Scan(&run.ID, &run.OrganizationID, &resultsJSON, &run.ResultCount, &run.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan match run")
		}
		if err := json.Unmarshal(resultsJSON, &run.Results); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal match results")
		}
		runs = append(runs, run)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list match runs iterate")
}
