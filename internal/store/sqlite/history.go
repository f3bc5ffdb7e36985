// Package sqlite persists finished scan reports so past runs can be
// listed and reloaded after a restart.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"signalscan/internal/model"
	"signalscan/internal/scanner"
)

// Config configures the history store.
type Config struct {
	DBPath string // e.g. "data/scans.db"
}

// Store is a single-writer SQLite store for scan history.
type Store struct {
	db *sql.DB
}

// DB returns the underlying sql.DB for health checks.
func (s *Store) DB() *sql.DB { return s.db }

// Open opens the database in WAL mode and creates the schema.
func Open(cfg Config) (*Store, error) {
	db, err := sql.Open("sqlite3", cfg.DBPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := createSchema(db); err != nil {
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	log.Printf("[sqlite] opened database at %s", cfg.DBPath)
	return &Store{db: db}, nil
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS scan_runs (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			generated_at  INTEGER NOT NULL,
			total_symbols INTEGER NOT NULL,
			processed     INTEGER NOT NULL,
			skipped       TEXT    NOT NULL
		);

		CREATE TABLE IF NOT EXISTS scan_results (
			run_id        INTEGER NOT NULL REFERENCES scan_runs(id),
			symbol        TEXT    NOT NULL,
			name          TEXT    NOT NULL,
			cross_kind    TEXT    NOT NULL,
			cross_date    INTEGER NOT NULL,
			cross_price   REAL    NOT NULL,
			current_price REAL    NOT NULL,
			change_pct    REAL    NOT NULL,
			rsi           REAL    NOT NULL,
			pe_ratio      REAL,
			roi_pct       REAL    NOT NULL,
			divergence    TEXT    NOT NULL,
			action        TEXT    NOT NULL,
			reason        TEXT    NOT NULL,
			PRIMARY KEY (run_id, symbol)
		);
	`)
	return err
}

// SaveReport stores one report and its rows in a single transaction,
// returning the run id.
func (s *Store) SaveReport(ctx context.Context, rep *scanner.Report) (int64, error) {
	skipped, err := json.Marshal(rep.Skipped)
	if err != nil {
		return 0, fmt.Errorf("sqlite: marshal skips: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite: begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO scan_runs (generated_at, total_symbols, processed, skipped) VALUES (?, ?, ?, ?)`,
		rep.GeneratedAt.Unix(), rep.TotalSymbols, rep.Processed, string(skipped))
	if err != nil {
		return 0, fmt.Errorf("sqlite: insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("sqlite: run id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO scan_results
			(run_id, symbol, name, cross_kind, cross_date, cross_price,
			 current_price, change_pct, rsi, pe_ratio, roi_pct,
			 divergence, action, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("sqlite: prepare: %w", err)
	}
	defer stmt.Close()

	for _, row := range rep.Rows {
		var pe sql.NullFloat64
		if row.PERatio != nil {
			pe = sql.NullFloat64{Float64: *row.PERatio, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx,
			runID, row.Symbol, row.Name, string(row.CrossKind), row.CrossDate.Unix(),
			row.CrossPrice, row.CurrentPrice, row.ChangePct, row.RSI, pe,
			row.ROIPct, string(row.Divergence),
			string(row.Recommendation.Action), row.Recommendation.Reason,
		); err != nil {
			return 0, fmt.Errorf("sqlite: insert %s: %w", row.Symbol, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("sqlite: commit: %w", err)
	}
	return runID, nil
}

// RunSummary is one row of the scan-history listing.
type RunSummary struct {
	ID           int64     `json:"id"`
	GeneratedAt  time.Time `json:"generated_at"`
	TotalSymbols int       `json:"total_symbols"`
	Processed    int       `json:"processed"`
	Matches      int       `json:"matches"`
}

// RecentRuns lists the latest n runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, n int) ([]RunSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.generated_at, r.total_symbols, r.processed,
		       (SELECT COUNT(*) FROM scan_results sr WHERE sr.run_id = r.id)
		FROM scan_runs r
		ORDER BY r.id DESC
		LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var rs RunSummary
		var ts int64
		if err := rows.Scan(&rs.ID, &ts, &rs.TotalSymbols, &rs.Processed, &rs.Matches); err != nil {
			return nil, fmt.Errorf("sqlite: scan run row: %w", err)
		}
		rs.GeneratedAt = time.Unix(ts, 0).UTC()
		out = append(out, rs)
	}
	return out, rows.Err()
}

// LoadRun reconstructs the report stored under runID.
func (s *Store) LoadRun(ctx context.Context, runID int64) (*scanner.Report, error) {
	rep := &scanner.Report{}
	var ts int64
	var skipped string
	err := s.db.QueryRowContext(ctx,
		`SELECT generated_at, total_symbols, processed, skipped FROM scan_runs WHERE id = ?`, runID).
		Scan(&ts, &rep.TotalSymbols, &rep.Processed, &skipped)
	if err != nil {
		return nil, fmt.Errorf("sqlite: load run %d: %w", runID, err)
	}
	rep.GeneratedAt = time.Unix(ts, 0).UTC()
	if err := json.Unmarshal([]byte(skipped), &rep.Skipped); err != nil {
		return nil, fmt.Errorf("sqlite: unmarshal skips: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT symbol, name, cross_kind, cross_date, cross_price,
		       current_price, change_pct, rsi, pe_ratio, roi_pct,
		       divergence, action, reason
		FROM scan_results
		WHERE run_id = ?
		ORDER BY change_pct DESC`, runID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: load results %d: %w", runID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var row model.ScanRow
		var crossTS int64
		var pe sql.NullFloat64
		var kind, div, action string
		if err := rows.Scan(&row.Symbol, &row.Name, &kind, &crossTS, &row.CrossPrice,
			&row.CurrentPrice, &row.ChangePct, &row.RSI, &pe, &row.ROIPct,
			&div, &action, &row.Recommendation.Reason); err != nil {
			return nil, fmt.Errorf("sqlite: scan result row: %w", err)
		}
		row.CrossKind = model.CrossKind(kind)
		row.CrossDate = time.Unix(crossTS, 0).UTC()
		row.Divergence = model.Divergence(div)
		row.Recommendation.Action = model.Action(action)
		if pe.Valid {
			v := pe.Float64
			row.PERatio = &v
		}
		rep.Rows = append(rep.Rows, row)
	}
	return rep, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }
