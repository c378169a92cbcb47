package feed

import (
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"
)

// BarRecord is the on-disk Parquet schema for bar data.
type BarRecord struct {
	Symbol       string  `parquet:"symbol"`
	Timestamp    int64   `parquet:"timestamp,timestamp(millisecond)"` // Unix ms
	Open         float64 `parquet:"open"`
	High         float64 `parquet:"high"`
	Low          float64 `parquet:"low"`
	Close        float64 `parquet:"close"`
	Volume       float64 `parquet:"volume"`
	OpenInterest float64 `parquet:"open_interest"`
}

// NewParquetFeed creates a feed that loads bars from a Parquet file of
// BarRecord rows. Rows for other symbols are ignored; rows are sorted by
// timestamp before insertion.
func NewParquetFeed(name, path string) *Series {
	return NewSeries(name, func() ([]Bar, error) {
		records, err := parquet.ReadFile[BarRecord](path)
		if err != nil {
			return nil, err
		}
		bars := make([]Bar, 0, len(records))
		for _, r := range records {
			if r.Symbol != "" && r.Symbol != name {
				continue
			}
			bars = append(bars, Bar{
				Timestamp:    time.UnixMilli(r.Timestamp).UTC(),
				Open:         r.Open,
				High:         r.High,
				Low:          r.Low,
				Close:        r.Close,
				Volume:       r.Volume,
				OpenInterest: r.OpenInterest,
			})
		}
		sortBars(bars)
		return bars, nil
	})
}

// WriteParquetBars writes bars for symbol to a Parquet file, creating the
// file anew. Useful for materializing fixtures and for exporting data
// pulled from other stores.
func WriteParquetBars(path, symbol string, bars []Bar) error {
	records := make([]BarRecord, len(bars))
	for i, b := range bars {
		records[i] = BarRecord{
			Symbol:       symbol,
			Timestamp:    b.Timestamp.UnixMilli(),
			Open:         b.Open,
			High:         b.High,
			Low:          b.Low,
			Close:        b.Close,
			Volume:       b.Volume,
			OpenInterest: b.OpenInterest,
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return parquet.WriteFile(path, records)
}
