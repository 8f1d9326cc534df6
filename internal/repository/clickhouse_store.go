package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"StockCast/internal/domain/models"
	"StockCast/internal/domain/repository"
	pkgch "StockCast/pkg/clickhouse"
)

// SchemaStatements returns the DDL for the durable run and version
// logs, qualified with the target database so bootstrap does not
// depend on the connection's default database.
func SchemaStatements(database string) []string {
	return []string{
		fmt.Sprintf(`CREATE DATABASE IF NOT EXISTS %s`, database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.training_runs (
        id String,
        architecture LowCardinality(String),
        ticker LowCardinality(String),
        started_at DateTime64(3),
        completed_at DateTime64(3),
        outcome LowCardinality(String),
        error String,
        version_id String,
        promoted UInt8,
        payload String
    ) ENGINE = MergeTree() ORDER BY (architecture, started_at)`, database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.model_versions (
        id String,
        architecture LowCardinality(String),
        ticker LowCardinality(String),
        run_id String,
        artifact_ref String,
        state LowCardinality(String),
        promoted UInt8,
        created_at DateTime64(3),
        updated_at DateTime64(3),
        payload String
    ) ENGINE = ReplacingMergeTree(updated_at) ORDER BY (architecture, id)`, database),
	}
}

// ClickHouseRunStore persists the append-only TrainingRun log. The
// full run is carried as JSON alongside the indexed columns so the
// schema survives model additions.
type ClickHouseRunStore struct {
	db *sql.DB
}

func NewClickHouseRunStore(ch *pkgch.Client) *ClickHouseRunStore {
	return &ClickHouseRunStore{db: ch.DB()}
}

func (s *ClickHouseRunStore) Append(ctx context.Context, run *models.TrainingRun) error {
	payload, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("marshal run: %w", err)
	}
	const q = `INSERT INTO training_runs
        (id, architecture, ticker, started_at, completed_at, outcome, error, version_id, promoted, payload)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	promoted := uint8(0)
	if run.Promoted {
		promoted = 1
	}
	if _, err := s.db.ExecContext(ctx, q,
		run.ID,
		run.Architecture,
		run.Ticker,
		run.StartedAt,
		run.CompletedAt,
		string(run.Outcome),
		run.Error,
		run.VersionID,
		promoted,
		string(payload),
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

func (s *ClickHouseRunStore) List(ctx context.Context, architecture string) ([]*models.TrainingRun, error) {
	const q = `SELECT payload FROM training_runs WHERE architecture = ? ORDER BY started_at ASC`
	rows, err := s.db.QueryContext(ctx, q, architecture)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []*models.TrainingRun
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		var run models.TrainingRun
		if err := json.Unmarshal([]byte(payload), &run); err != nil {
			return nil, fmt.Errorf("unmarshal run: %w", err)
		}
		out = append(out, &run)
	}
	return out, rows.Err()
}

func (s *ClickHouseRunStore) Close() error { return nil } // connection owned by pkg client

// ClickHouseVersionStore persists ModelVersions. Updates are new rows
// with a later updated_at; the ReplacingMergeTree collapses them and
// List keeps only the latest per id.
type ClickHouseVersionStore struct {
	db *sql.DB
}

func NewClickHouseVersionStore(ch *pkgch.Client) *ClickHouseVersionStore {
	return &ClickHouseVersionStore{db: ch.DB()}
}

func (s *ClickHouseVersionStore) Save(ctx context.Context, v *models.ModelVersion) error {
	return s.insert(ctx, v)
}

func (s *ClickHouseVersionStore) Update(ctx context.Context, v *models.ModelVersion) error {
	return s.insert(ctx, v)
}

func (s *ClickHouseVersionStore) insert(ctx context.Context, v *models.ModelVersion) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal version: %w", err)
	}
	const q = `INSERT INTO model_versions
        (id, architecture, ticker, run_id, artifact_ref, state, promoted, created_at, updated_at, payload)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	promoted := uint8(0)
	if v.Promoted {
		promoted = 1
	}
	if _, err := s.db.ExecContext(ctx, q,
		v.ID,
		v.Architecture,
		v.Ticker,
		v.RunID,
		v.ArtifactRef,
		string(v.State),
		promoted,
		v.CreatedAt,
		time.Now().UTC(),
		string(payload),
	); err != nil {
		return fmt.Errorf("insert version: %w", err)
	}
	return nil
}

func (s *ClickHouseVersionStore) List(ctx context.Context, architecture string) ([]*models.ModelVersion, error) {
	const q = `SELECT payload FROM model_versions FINAL WHERE architecture = ? ORDER BY created_at ASC`
	rows, err := s.db.QueryContext(ctx, q, architecture)
	if err != nil {
		return nil, fmt.Errorf("query versions: %w", err)
	}
	defer rows.Close()

	var out []*models.ModelVersion
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan version: %w", err)
		}
		var v models.ModelVersion
		if err := json.Unmarshal([]byte(payload), &v); err != nil {
			return nil, fmt.Errorf("unmarshal version: %w", err)
		}
		out = append(out, &v)
	}
	return out, rows.Err()
}

func (s *ClickHouseVersionStore) Close() error { return nil }

var (
	_ repository.RunStore     = (*ClickHouseRunStore)(nil)
	_ repository.VersionStore = (*ClickHouseVersionStore)(nil)
)
