// Copyright 2025 Esteban Alvarez. All Rights Reserved.
//
// Created: October 2025
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"spsatune/pkg/spsa"
)

// Postgres schema (reference):
//
// CREATE TABLE IF NOT EXISTS spsatune_runs (
//   run_id     TEXT PRIMARY KEY,
//   version    BIGINT NOT NULL,
//   snapshot   JSONB NOT NULL,
//   updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
// );
//
// Every Save is a single versioned UPDATE (or seeding INSERT for version 0):
// the whole snapshot column is replaced in one statement, matching the
// atomic-swap contract in spec.md §6 rather than an incremental delta.

// PostgresPersister applies the version-gated whole-object swap against a
// caller-provided *sql.DB. No driver is imported here; the caller wires
// whichever database/sql driver it needs, same as the teacher's adapters.
type PostgresPersister struct {
	db             *sql.DB
	defaultTimeout time.Duration
}

// NewPostgresPersister returns a persister backed by db.
func NewPostgresPersister(db *sql.DB) *PostgresPersister {
	return &PostgresPersister{db: db, defaultTimeout: 10 * time.Second}
}

func (p *PostgresPersister) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Deadline(); ok || p.defaultTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, p.defaultTimeout)
}

func (p *PostgresPersister) Save(ctx context.Context, runID string, expectedVersion uint64, snap spsa.RunSnapshot) (uint64, error) {
	payload, err := json.Marshal(snap)
	if err != nil {
		return 0, fmt.Errorf("marshal snapshot for %s: %w", runID, err)
	}

	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	tx, err := p.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	newVersion := expectedVersion + 1

	if expectedVersion == 0 {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO spsatune_runs(run_id, version, snapshot, updated_at) VALUES ($1, $2, $3, now())
			 ON CONFLICT (run_id) DO NOTHING`,
			runID, newVersion, payload)
		if err != nil {
			return 0, fmt.Errorf("insert spsatune_runs(%s): %w", runID, err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return 0, err
		} else if n == 0 {
			return 0, ErrVersionConflict
		}
	} else {
		res, err := tx.ExecContext(ctx,
			`UPDATE spsatune_runs SET version = $3, snapshot = $4, updated_at = now()
			 WHERE run_id = $1 AND version = $2`,
			runID, expectedVersion, newVersion, payload)
		if err != nil {
			return 0, fmt.Errorf("update spsatune_runs(%s): %w", runID, err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return 0, err
		} else if n == 0 {
			return 0, ErrVersionConflict
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return newVersion, nil
}

func (p *PostgresPersister) Load(ctx context.Context, runID string) (spsa.RunSnapshot, uint64, error) {
	var snap spsa.RunSnapshot

	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	var version uint64
	var payload []byte
	row := p.db.QueryRowContext(ctx,
		`SELECT version, snapshot FROM spsatune_runs WHERE run_id = $1`, runID)
	if err := row.Scan(&version, &payload); err != nil {
		if err == sql.ErrNoRows {
			return snap, 0, ErrNotFound
		}
		return snap, 0, fmt.Errorf("select spsatune_runs(%s): %w", runID, err)
	}
	if err := json.Unmarshal(payload, &snap); err != nil {
		return snap, 0, fmt.Errorf("unmarshal snapshot for %s: %w", runID, err)
	}
	return snap, version, nil
}
