package recorder

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists historical data to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	// WAL so external readers can query while the tracker writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS refresh_cycles (
			id          TEXT PRIMARY KEY,
			started_at  INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL,
			symbols     INTEGER,
			ok          INTEGER,
			failed      INTEGER,
			no_data     INTEGER,
			trigger     TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cycles_started ON refresh_cycles(started_at)`,

		`CREATE TABLE IF NOT EXISTS quotes (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			cycle_id       TEXT,
			symbol         TEXT NOT NULL,
			price          REAL,
			change         REAL,
			change_percent REAL,
			volume         REAL,
			fetched_at     INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_quotes_symbol_ts ON quotes(symbol, fetched_at)`,

		`CREATE TABLE IF NOT EXISTS fetch_failures (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			cycle_id    TEXT,
			symbol      TEXT NOT NULL,
			error       TEXT,
			consecutive INTEGER,
			failed_at   INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_failures_symbol_ts ON fetch_failures(symbol, failed_at)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordCycle(c *CycleRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO refresh_cycles
		(id, started_at, duration_ms, symbols, ok, failed, no_data, trigger)
		VALUES (?,?,?,?,?,?,?,?)`,
		c.ID, c.StartedAt.Unix(), c.Duration.Milliseconds(),
		c.Symbols, c.OK, c.Failed, c.NoData, c.Trigger,
	)
	return err
}

func (r *SQLiteRecorder) RecordQuote(q *Quote) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO quotes
		(cycle_id, symbol, price, change, change_percent, volume, fetched_at)
		VALUES (?,?,?,?,?,?,?)`,
		q.CycleID, q.Symbol, q.Price, q.Change, q.ChangePercent, q.Volume, q.FetchedAt.Unix(),
	)
	return err
}

func (r *SQLiteRecorder) RecordFailure(f *FetchFailure) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO fetch_failures
		(cycle_id, symbol, error, consecutive, failed_at)
		VALUES (?,?,?,?,?)`,
		f.CycleID, f.Symbol, f.Error, f.Consecutive, f.FailedAt.Unix(),
	)
	return err
}

// LatestQuotes returns up to limit most recent quotes for symbol, newest first.
func (r *SQLiteRecorder) LatestQuotes(symbol string, limit int) ([]Quote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT cycle_id, symbol, price, change, change_percent, volume, fetched_at
		FROM quotes WHERE symbol = ? ORDER BY fetched_at DESC, id DESC LIMIT ?`, symbol, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Quote
	for rows.Next() {
		var q Quote
		var ts int64
		if err := rows.Scan(&q.CycleID, &q.Symbol, &q.Price, &q.Change, &q.ChangePercent, &q.Volume, &ts); err != nil {
			return nil, err
		}
		q.FetchedAt = time.Unix(ts, 0)
		out = append(out, q)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
