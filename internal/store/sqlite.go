package store

import (
	"context"
	"database/sql"
	"time"

	"altair/internal/cerebro"
	"altair/internal/domain"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Compile-time interface check.
var _ RunStore = (*SQLiteStore)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	strategy     TEXT    NOT NULL,
	created_at   INTEGER NOT NULL,
	start_cash   REAL    NOT NULL,
	end_cash     REAL    NOT NULL,
	end_value    REAL    NOT NULL,
	pnl          REAL    NOT NULL,
	pnl_pct      REAL    NOT NULL,
	total_bars   INTEGER NOT NULL,
	total_trades INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS trades (
	run_id      INTEGER NOT NULL REFERENCES runs(id),
	ref         INTEGER NOT NULL,
	data        TEXT    NOT NULL,
	is_long     INTEGER NOT NULL,
	size        REAL    NOT NULL,
	price_open  REAL    NOT NULL,
	price_close REAL    NOT NULL,
	bar_open    INTEGER NOT NULL,
	bar_close   INTEGER NOT NULL,
	commission  REAL    NOT NULL,
	pnl         REAL    NOT NULL,
	pnl_comm    REAL    NOT NULL
);

CREATE TABLE IF NOT EXISTS analysis (
	run_id INTEGER NOT NULL REFERENCES runs(id),
	name   TEXT    NOT NULL,
	value  REAL    NOT NULL,
	PRIMARY KEY (run_id, name)
);`

// SQLiteStore implements RunStore backed by a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath, runs the
// schema, and returns a ready-to-use SQLiteStore.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveRun implements RunStore.
func (s *SQLiteStore) SaveRun(ctx context.Context, strategy string, res *cerebro.RunResult) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}

	r, err := tx.ExecContext(ctx,
		`INSERT INTO runs
		 (strategy, created_at, start_cash, end_cash, end_value, pnl, pnl_pct, total_bars, total_trades)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		strategy, time.Now().UnixMilli(),
		res.StartCash, res.EndCash, res.EndValue, res.PnL, res.PnLPct,
		res.TotalBars, res.TotalTrades)
	if err != nil {
		tx.Rollback()
		return 0, err
	}
	runID, err := r.LastInsertId()
	if err != nil {
		tx.Rollback()
		return 0, err
	}

	for _, t := range res.Trades {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO trades
			 (run_id, ref, data, is_long, size, price_open, price_close, bar_open, bar_close, commission, pnl, pnl_comm)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, t.Ref, t.Data, boolToInt(t.IsLong), t.Size,
			t.PriceOpen, t.PriceClose, t.BarOpen, t.BarClose,
			t.Commission, t.PnL, t.PnLComm); err != nil {
			tx.Rollback()
			return 0, err
		}
	}

	for analyzerName, values := range res.Analysis {
		for metric, value := range values {
			if _, err := tx.ExecContext(ctx,
				`INSERT OR REPLACE INTO analysis (run_id, name, value) VALUES (?, ?, ?)`,
				runID, analyzerName+"."+metric, value); err != nil {
				tx.Rollback()
				return 0, err
			}
		}
	}

	return runID, tx.Commit()
}

// GetRun implements RunStore.
func (s *SQLiteStore) GetRun(ctx context.Context, id int64) (*RunRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, strategy, created_at, start_cash, end_cash, end_value, pnl, pnl_pct, total_bars, total_trades
		 FROM runs WHERE id = ?`, id)
	return scanRun(row)
}

// ListRuns implements RunStore.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, strategy, created_at, start_cash, end_cash, end_value, pnl, pnl_pct, total_bars, total_trades
		 FROM runs ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// ListTrades implements RunStore.
func (s *SQLiteStore) ListTrades(ctx context.Context, runID int64) ([]domain.Trade, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT ref, data, is_long, size, price_open, price_close, bar_open, bar_close, commission, pnl, pnl_comm
		 FROM trades WHERE run_id = ? ORDER BY ref ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trades []domain.Trade
	for rows.Next() {
		var t domain.Trade
		var isLong int
		if err := rows.Scan(&t.Ref, &t.Data, &isLong, &t.Size,
			&t.PriceOpen, &t.PriceClose, &t.BarOpen, &t.BarClose,
			&t.Commission, &t.PnL, &t.PnLComm); err != nil {
			return nil, err
		}
		t.IsLong = isLong != 0
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// GetAnalysis implements RunStore.
func (s *SQLiteStore) GetAnalysis(ctx context.Context, runID int64) (map[string]float64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, value FROM analysis WHERE run_id = ?`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	analysis := make(map[string]float64)
	for rows.Next() {
		var name string
		var value float64
		if err := rows.Scan(&name, &value); err != nil {
			return nil, err
		}
		analysis[name] = value
	}
	return analysis, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*RunRecord, error) {
	var rec RunRecord
	var createdAt int64
	if err := row.Scan(&rec.ID, &rec.Strategy, &createdAt,
		&rec.StartCash, &rec.EndCash, &rec.EndValue, &rec.PnL, &rec.PnLPct,
		&rec.TotalBars, &rec.TotalTrades); err != nil {
		return nil, err
	}
	rec.CreatedAt = time.UnixMilli(createdAt).UTC()
	return &rec, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
