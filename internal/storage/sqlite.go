package storage

import (
	"context"
	"database/sql"
	"strings"

	_ "modernc.org/sqlite"

	"parkdur/internal/model"
)

type sqliteStore struct {
	baseStore
}

func NewSQLite(dsn string) (Store, error) {
	if strings.TrimSpace(dsn) == "" {
		dsn = "file:parkdur.db?_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	return &sqliteStore{baseStore{db: db}}, nil
}

func (s *sqliteStore) Init(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS intervals (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			created_at TEXT NOT NULL,
			plate TEXT NOT NULL,
			entry_time TEXT NOT NULL,
			exit_time TEXT NOT NULL,
			duration_minutes REAL NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_intervals_plate ON intervals(plate)`,
		`CREATE TABLE IF NOT EXISTS monthly_totals (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			created_at TEXT NOT NULL,
			plate TEXT NOT NULL,
			month TEXT NOT NULL,
			visits INTEGER NOT NULL,
			total_minutes REAL NOT NULL,
			total_hours REAL NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_monthly_plate_month ON monthly_totals(plate, month)`,
		`CREATE TABLE IF NOT EXISTS issues (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			created_at TEXT NOT NULL,
			plate TEXT NOT NULL,
			kind TEXT NOT NULL,
			ts TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_issues_plate ON issues(plate)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *sqliteStore) SaveIntervals(ctx context.Context, intervals []model.Interval) error {
	if s.db == nil || len(intervals) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO intervals (created_at, plate, entry_time, exit_time, duration_minutes)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()
	created := nowUTC()
	for _, iv := range intervals {
		if _, err := stmt.ExecContext(ctx,
			created,
			iv.Plate,
			iv.EntryTime.UTC(),
			iv.ExitTime.UTC(),
			iv.DurationMinutes,
		); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (s *sqliteStore) SaveSummaries(ctx context.Context, summaries []model.MonthlySummary) error {
	if s.db == nil || len(summaries) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO monthly_totals (created_at, plate, month, visits, total_minutes, total_hours)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()
	created := nowUTC()
	for _, m := range summaries {
		if _, err := stmt.ExecContext(ctx,
			created,
			m.Plate,
			m.Month,
			m.Visits,
			m.TotalMinutes,
			m.TotalHours,
		); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (s *sqliteStore) SaveAnomalies(ctx context.Context, anomalies []model.Anomaly) error {
	if s.db == nil || len(anomalies) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO issues (created_at, plate, kind, ts) VALUES (?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()
	created := nowUTC()
	for _, a := range anomalies {
		if _, err := stmt.ExecContext(ctx,
			created,
			a.Plate,
			string(a.Kind),
			a.Timestamp.UTC(),
		); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}
