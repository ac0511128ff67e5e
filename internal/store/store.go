// Package store keeps daily bars in SQLite so the dashboard can run against
// an offline data source. Only the import path writes; the dashboard reads.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"QuantLab/internal/model"
)

// BarStore persists daily bars keyed by (symbol, date).
type BarStore struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens (or creates) the SQLite database and runs migrations.
func Open(dbPath string) (*BarStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	s := &BarStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	slog.Info("bar store opened", slog.String("path", dbPath))
	return s, nil
}

func (s *BarStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS daily_bars (
			symbol    TEXT NOT NULL,
			date      TEXT NOT NULL,
			open      REAL NOT NULL,
			high      REAL NOT NULL,
			low       REAL NOT NULL,
			close     REAL NOT NULL,
			adj_close REAL NOT NULL,
			volume    REAL NOT NULL DEFAULT 0,
			PRIMARY KEY (symbol, date)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_daily_bars_date ON daily_bars(date)`,
	}

	for _, st := range stmts {
		if _, err := s.db.Exec(st); err != nil {
			return fmt.Errorf("exec %q: %w", st[:40], err)
		}
	}
	return nil
}

// Bars returns the bars of symbol with start <= date <= end, ascending.
func (s *BarStore) Bars(ctx context.Context, symbol string, start, end time.Time) ([]model.PriceBar, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT date, open, high, low, close, adj_close, volume
		FROM daily_bars
		WHERE symbol = ? AND date >= ? AND date <= ?
		ORDER BY date ASC
	`, normalize(symbol), start.Format(model.DateLayout), end.Format(model.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("query daily_bars: %w", err)
	}
	defer rows.Close()

	var bars []model.PriceBar
	for rows.Next() {
		var b model.PriceBar
		var date string
		if err := rows.Scan(&date, &b.Open, &b.High, &b.Low, &b.Close, &b.AdjClose, &b.Volume); err != nil {
			return nil, fmt.Errorf("scan daily_bars: %w", err)
		}
		b.Date, err = time.Parse(model.DateLayout, date)
		if err != nil {
			return nil, fmt.Errorf("parse date %q: %w", date, err)
		}
		bars = append(bars, b)
	}
	return bars, rows.Err()
}

// UpsertBars writes bars for symbol in one transaction, replacing any bar
// already stored for the same date. It returns the number of rows written.
func (s *BarStore) UpsertBars(ctx context.Context, symbol string, bars []model.PriceBar) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO daily_bars
		(symbol, date, open, high, low, close, adj_close, volume)
		VALUES (?,?,?,?,?,?,?,?)
		ON CONFLICT(symbol, date) DO UPDATE SET
			open=excluded.open, high=excluded.high, low=excluded.low,
			close=excluded.close, adj_close=excluded.adj_close, volume=excluded.volume`)
	if err != nil {
		return 0, fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	sym := normalize(symbol)
	for _, b := range bars {
		if _, err := stmt.ExecContext(ctx, sym, b.Date.Format(model.DateLayout),
			b.Open, b.High, b.Low, b.Close, b.AdjClose, b.Volume); err != nil {
			return 0, fmt.Errorf("upsert %s %s: %w", sym, b.Date.Format(model.DateLayout), err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return len(bars), nil
}

// Symbols lists the distinct symbols in the store.
func (s *BarStore) Symbols(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT symbol FROM daily_bars ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("query symbols: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var sym string
		if err := rows.Scan(&sym); err != nil {
			return nil, fmt.Errorf("scan symbol: %w", err)
		}
		out = append(out, sym)
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *BarStore) Close() error {
	slog.Info("closing bar store")
	return s.db.Close()
}

func normalize(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
