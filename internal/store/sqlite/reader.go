package sqlite

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"odte-scanner/internal/markethours"
	"odte-scanner/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

// Reader provides read-only access to the bar cache.
type Reader struct {
	db *sql.DB
}

// NewReader opens a SQLite connection for reading.
func NewReader(dbPath string, log *slog.Logger) (*Reader, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open reader: %w", err)
	}
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(2)

	if log == nil {
		log = slog.Default()
	}
	log.Info("sqlite reader opened", "path", dbPath)
	return &Reader{db: db}, nil
}

// ReadBars returns cached bars for a ticker in (afterTS, untilTS], ordered by
// timestamp ascending. Timestamps come back exchange-local; previous-day
// columns are left unattached so callers can enrich once after merging
// sources.
func (r *Reader) ReadBars(ticker string, afterTS, untilTS int64) ([]model.Bar, error) {
	rows, err := r.db.Query(`
		SELECT ts, open, high, low, close, volume
		FROM bars_5m
		WHERE ticker = ? AND ts > ? AND ts <= ?
		ORDER BY ts ASC
	`, ticker, afterTS, untilTS)
	if err != nil {
		return nil, fmt.Errorf("sqlite query bars: %w", err)
	}
	defer rows.Close()

	var bars []model.Bar
	for rows.Next() {
		var (
			tsUnix     int64
			o, h, l, c float64
			v          int64
		)
		if err := rows.Scan(&tsUnix, &o, &h, &l, &c, &v); err != nil {
			return nil, fmt.Errorf("sqlite scan bar: %w", err)
		}
		ts := time.Unix(tsUnix, 0).In(markethours.NY)
		bars = append(bars, model.NewBar(ts, o, h, l, c, v))
	}
	return bars, rows.Err()
}

// Close closes the reader.
func (r *Reader) Close() error {
	return r.db.Close()
}
