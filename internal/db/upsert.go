package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// UpsertConfig describes one staged-copy upsert: which table to land rows
// in, which columns the rows carry, and which columns decide a conflict.
type UpsertConfig struct {
	Table        string   // target table, optionally schema-qualified
	Columns      []string // column order of the incoming rows
	ConflictKeys []string // unique constraint columns
	UpdateCols   []string // columns rewritten on conflict; nil means every non-key column
}

func (c UpsertConfig) validate() error {
	if len(c.Columns) == 0 {
		return eris.New("db: upsert: no columns specified")
	}
	if len(c.ConflictKeys) == 0 {
		return eris.New("db: upsert: no conflict keys specified")
	}
	return nil
}

// stagingName derives the session-local staging table name. Dots are
// flattened so a schema-qualified target still yields a plain identifier.
func (c UpsertConfig) stagingName() string {
	return "_stage_" + strings.ReplaceAll(c.Table, ".", "_")
}

// assignments builds the DO UPDATE SET list. With no explicit UpdateCols,
// every column outside the conflict keys is rewritten from EXCLUDED.
func (c UpsertConfig) assignments() []string {
	cols := c.UpdateCols
	if cols == nil {
		keys := make(map[string]bool, len(c.ConflictKeys))
		for _, k := range c.ConflictKeys {
			keys[k] = true
		}
		for _, col := range c.Columns {
			if !keys[col] {
				cols = append(cols, col)
			}
		}
	}
	set := make([]string, len(cols))
	for i, col := range cols {
		q := pgx.Identifier{col}.Sanitize()
		set[i] = fmt.Sprintf("%s = EXCLUDED.%s", q, q)
	}
	return set
}

// BulkUpsert lands rows in cfg.Table in a single transaction. Rows are
// copied into a staging table cloned from the target, then merged with
// INSERT ... ON CONFLICT so existing rows are overwritten in place. The
// staging table is ON COMMIT DROP, so nothing survives the transaction.
// Returns the number of rows the merge touched.
func BulkUpsert(ctx context.Context, pool Pool, cfg UpsertConfig, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if err := cfg.validate(); err != nil {
		return 0, err
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "db: upsert: begin tx")
	}
	defer tx.Rollback(ctx)

	staging := cfg.stagingName()
	createSQL := fmt.Sprintf(
		"CREATE TEMP TABLE %s (LIKE %s INCLUDING DEFAULTS) ON COMMIT DROP",
		pgx.Identifier{staging}.Sanitize(),
		quoteTable(cfg.Table),
	)
	if _, err := tx.Exec(ctx, createSQL); err != nil {
		return 0, eris.Wrapf(err, "db: upsert: create staging table for %s", cfg.Table)
	}

	if _, err := tx.CopyFrom(ctx, pgx.Identifier{staging}, cfg.Columns, pgx.CopyFromRows(rows)); err != nil {
		return 0, eris.Wrapf(err, "db: upsert: COPY into staging table for %s", cfg.Table)
	}

	colList := quoteColumns(cfg.Columns)
	mergeSQL := fmt.Sprintf(
		"INSERT INTO %s (%s) SELECT %s FROM %s ON CONFLICT (%s) DO UPDATE SET %s",
		quoteTable(cfg.Table),
		colList,
		colList,
		pgx.Identifier{staging}.Sanitize(),
		quoteColumns(cfg.ConflictKeys),
		strings.Join(cfg.assignments(), ", "),
	)

	tag, err := tx.Exec(ctx, mergeSQL)
	if err != nil {
		return 0, eris.Wrapf(err, "db: upsert: merge into %s", cfg.Table)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrap(err, "db: upsert: commit tx")
	}
	return tag.RowsAffected(), nil
}

// quoteTable quotes a table name, splitting on the first dot so
// "match.programs" becomes "match"."programs".
func quoteTable(table string) string {
	if schema, name, ok := strings.Cut(table, "."); ok {
		return pgx.Identifier{schema, name}.Sanitize()
	}
	return pgx.Identifier{table}.Sanitize()
}

func quoteColumns(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = pgx.Identifier{c}.Sanitize()
	}
	return strings.Join(quoted, ", ")
}
