package storage

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"parkdur/internal/config"
	"parkdur/internal/model"
)

// Store persists the result tables of a run. Reconciliation state itself
// is never stored; every run starts from the raw files.
type Store interface {
	Init(ctx context.Context) error
	Close() error
	SaveIntervals(ctx context.Context, intervals []model.Interval) error
	SaveSummaries(ctx context.Context, summaries []model.MonthlySummary) error
	SaveAnomalies(ctx context.Context, anomalies []model.Anomaly) error
}

func NewStore(cfg config.StorageConfig) (Store, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	switch strings.ToLower(cfg.Driver) {
	case "sqlite":
		return NewSQLite(cfg.DSN)
	case "postgres", "postgresql":
		return NewPostgres(cfg.DSN)
	default:
		return nil, errors.New("unsupported storage driver")
	}
}

type baseStore struct {
	db *sql.DB
}

func (b *baseStore) Close() error {
	if b.db != nil {
		return b.db.Close()
	}
	return nil
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
