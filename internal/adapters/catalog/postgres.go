package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	"github.com/ghalamif/catalink/internal/domain"
	"github.com/ghalamif/catalink/internal/ports"
)

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)

// PostgresCatalog records every extract in a table so runs can be queried
// after the fact. Re-recording the same (channel, rule, cycle, format) is a
// no-op.
type PostgresCatalog struct {
	db        *sql.DB
	tableName string
}

func NewPostgresCatalog(db *sql.DB, table string) (*PostgresCatalog, error) {
	if table == "" {
		table = "extracts"
	}
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("catalog: invalid table name %q", table)
	}
	return &PostgresCatalog{db: db, tableName: table}, nil
}

func (c *PostgresCatalog) Name() string { return "postgres" }

func (c *PostgresCatalog) Record(ctx context.Context, rec domain.ExtractRecord) error {
	q := "INSERT INTO " + c.tableName +
		" (channel, rule, cycle, sim_time, path, format, written_at) VALUES ($1,$2,$3,$4,$5,$6,$7)" +
		" ON CONFLICT (channel, rule, cycle, format) DO NOTHING"

	_, err := c.db.ExecContext(ctx, q,
		rec.Channel,
		rec.Rule,
		rec.Cycle,
		rec.Time,
		rec.Path,
		rec.Format,
		rec.WrittenAt,
	)
	if err != nil {
		return fmt.Errorf("record extract %s@%d: %w", rec.Channel, rec.Cycle, err)
	}
	return nil
}

// EnsureSchema creates the catalog table if it is missing.
func (c *PostgresCatalog) EnsureSchema(ctx context.Context) error {
	_, err := c.db.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS "+c.tableName+` (
	channel    TEXT NOT NULL,
	rule       TEXT NOT NULL,
	cycle      BIGINT NOT NULL,
	sim_time   DOUBLE PRECISION NOT NULL,
	path       TEXT NOT NULL,
	format     TEXT NOT NULL,
	written_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (channel, rule, cycle, format)
)`)
	return err
}

var _ ports.Catalog = (*PostgresCatalog)(nil)
