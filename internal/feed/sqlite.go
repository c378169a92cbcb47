package feed

import (
	"database/sql"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// barsSchema creates the bar table used by SQLite-backed feeds.
const barsSchema = `
CREATE TABLE IF NOT EXISTS bars (
	symbol        TEXT    NOT NULL,
	ts            INTEGER NOT NULL,
	open          REAL    NOT NULL,
	high          REAL    NOT NULL,
	low           REAL    NOT NULL,
	close         REAL    NOT NULL,
	volume        REAL    NOT NULL DEFAULT 0,
	open_interest REAL    NOT NULL DEFAULT 0,
	PRIMARY KEY (symbol, ts)
);`

// NewSQLiteFeed creates a feed that loads bars for symbol from the bars
// table of the SQLite database at dbPath. Timestamps are stored as Unix
// milliseconds.
func NewSQLiteFeed(symbol, dbPath string) *Series {
	return NewSeries(symbol, func() ([]Bar, error) {
		db, err := sql.Open("sqlite", dbPath)
		if err != nil {
			return nil, err
		}
		defer db.Close()

		rows, err := db.Query(
			`SELECT ts, open, high, low, close, volume, open_interest
			 FROM bars WHERE symbol = ? ORDER BY ts ASC`, symbol)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		var bars []Bar
		for rows.Next() {
			var ts int64
			var b Bar
			if err := rows.Scan(&ts, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume, &b.OpenInterest); err != nil {
				// Skip the offending row and continue.
				continue
			}
			b.Timestamp = time.UnixMilli(ts).UTC()
			bars = append(bars, b)
		}
		return bars, rows.Err()
	})
}

// WriteSQLiteBars inserts bars for symbol into the bars table at dbPath,
// creating the table when missing. Existing rows for the same (symbol, ts)
// are replaced.
func WriteSQLiteBars(dbPath, symbol string, bars []Bar) error {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.Exec(barsSchema); err != nil {
		return err
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(
		`INSERT OR REPLACE INTO bars
		 (symbol, ts, open, high, low, close, volume, open_interest)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, b := range bars {
		if _, err := stmt.Exec(symbol, b.Timestamp.UnixMilli(),
			b.Open, b.High, b.Low, b.Close, b.Volume, b.OpenInterest); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}
