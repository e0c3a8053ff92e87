package storage

import (
	"context"
	"database/sql"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"

	"parkdur/internal/model"
)

type postgresStore struct {
	baseStore
}

func NewPostgres(dsn string) (Store, error) {
	if strings.TrimSpace(dsn) == "" {
		dsn = "postgres://localhost:5432/parkdur?sslmode=disable"
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	return &postgresStore{baseStore{db: db}}, nil
}

func (s *postgresStore) Init(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS intervals (
			id BIGSERIAL PRIMARY KEY,
			created_at TIMESTAMPTZ NOT NULL,
			plate TEXT NOT NULL,
			entry_time TIMESTAMPTZ NOT NULL,
			exit_time TIMESTAMPTZ NOT NULL,
			duration_minutes DOUBLE PRECISION NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_intervals_plate ON intervals(plate)`,
		`CREATE TABLE IF NOT EXISTS monthly_totals (
			id BIGSERIAL PRIMARY KEY,
			created_at TIMESTAMPTZ NOT NULL,
			plate TEXT NOT NULL,
			month TEXT NOT NULL,
			visits INTEGER NOT NULL,
			total_minutes DOUBLE PRECISION NOT NULL,
			total_hours DOUBLE PRECISION NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_monthly_plate_month ON monthly_totals(plate, month)`,
		`CREATE TABLE IF NOT EXISTS issues (
			id BIGSERIAL PRIMARY KEY,
			created_at TIMESTAMPTZ NOT NULL,
			plate TEXT NOT NULL,
			kind TEXT NOT NULL,
			ts TIMESTAMPTZ NOT NULL
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

func (s *postgresStore) SaveIntervals(ctx context.Context, intervals []model.Interval) error {
	if s.db == nil || len(intervals) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO intervals (created_at, plate, entry_time, exit_time, duration_minutes)
		VALUES ($1, $2, $3, $4, $5)`)
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

func (s *postgresStore) SaveSummaries(ctx context.Context, summaries []model.MonthlySummary) error {
	if s.db == nil || len(summaries) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO monthly_totals (created_at, plate, month, visits, total_minutes, total_hours)
		VALUES ($1, $2, $3, $4, $5, $6)`)
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

func (s *postgresStore) SaveAnomalies(ctx context.Context, anomalies []model.Anomaly) error {
	if s.db == nil || len(anomalies) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO issues (created_at, plate, kind, ts) VALUES ($1, $2, $3, $4)`)
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
