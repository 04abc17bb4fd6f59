package recorder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// SQLRecorder persists lookup history to SQLite or Postgres.
type SQLRecorder struct {
	db     *sqlx.DB
	driver string
}

// NewSQLRecorder opens (or creates) the database and runs migrations.
// driver is "sqlite" or "postgres".
func NewSQLRecorder(ctx context.Context, driver, dsn string) (*SQLRecorder, error) {
	if driver == "sqlite" {
		sqlx.BindDriver("sqlite", sqlx.QUESTION)
		if dir := filepath.Dir(dsn); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create db dir: %w", err)
			}
		}
	}
	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	if driver == "sqlite" {
		// One writer at a time; WAL lets readers proceed alongside it.
		db.SetMaxOpenConns(1)
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("set WAL mode: %w", err)
		}
	}

	r, err := NewSQLRecorderWithDB(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	log.Info().Str("driver", driver).Msg("lookup recorder opened")
	return r, nil
}

// NewSQLRecorderWithDB wraps an open connection and runs migrations. The
// dialect follows db.DriverName().
func NewSQLRecorderWithDB(ctx context.Context, db *sqlx.DB) (*SQLRecorder, error) {
	r := &SQLRecorder{db: db, driver: db.DriverName()}
	if err := r.migrate(ctx); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return r, nil
}

func (r *SQLRecorder) migrate(ctx context.Context) error {
	idColumn := "id INTEGER PRIMARY KEY AUTOINCREMENT"
	if r.driver == "postgres" {
		idColumn = "id BIGSERIAL PRIMARY KEY"
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS lookups (
			` + idColumn + `,
			timestamp           BIGINT NOT NULL,
			ticker              TEXT NOT NULL,
			provider            TEXT,
			requested_date      TEXT,
			resolved_date       TEXT,
			reference_price     DOUBLE PRECISION,
			latest_price        DOUBLE PRECISION,
			price_change_pct    DOUBLE PRECISION,
			next_day_change_pct DOUBLE PRECISION,
			outcome             TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_lookups_ts ON lookups(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_lookups_ticker ON lookups(ticker)`,
	}
	for _, s := range stmts {
		if _, err := r.db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLRecorder) RecordLookup(ctx context.Context, evt *LookupEvent) error {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}
	evt.Unix = evt.Timestamp.Unix()
	_, err := r.db.NamedExecContext(ctx, `INSERT INTO lookups
		(timestamp, ticker, provider, requested_date, resolved_date,
		 reference_price, latest_price, price_change_pct, next_day_change_pct, outcome)
		VALUES (:timestamp, :ticker, :provider, :requested_date, :resolved_date,
		 :reference_price, :latest_price, :price_change_pct, :next_day_change_pct, :outcome)`, evt)
	return err
}

func (r *SQLRecorder) RecentLookups(ctx context.Context, limit int) ([]LookupEvent, error) {
	events := []LookupEvent{}
	q := r.db.Rebind(`SELECT id, timestamp, ticker, provider, requested_date, resolved_date,
		reference_price, latest_price, price_change_pct, next_day_change_pct, outcome
		FROM lookups ORDER BY timestamp DESC, id DESC LIMIT ?`)
	if err := r.db.SelectContext(ctx, &events, q, limit); err != nil {
		return nil, fmt.Errorf("select lookups: %w", err)
	}
	for i := range events {
		events[i].Timestamp = time.Unix(events[i].Unix, 0).UTC()
	}
	return events, nil
}

func (r *SQLRecorder) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM lookups WHERE timestamp < ?`), cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("prune lookups: %w", err)
	}
	return res.RowsAffected()
}

func (r *SQLRecorder) Close() error {
	log.Info().Msg("closing lookup recorder")
	return r.db.Close()
}
