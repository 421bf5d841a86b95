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

// Package persistence provides adapters that persist a run's state as a
// single atomic swap of the top-level state object, per spec.md §6 — in
// contrast to an idempotent delta-commit log, there is no per-field commit
// to replay: each Save overwrites the entire snapshot for a run in one
// operation, guarded by an expected-version token so two checkpoints racing
// on the same run detect each other instead of silently clobbering state.
package persistence

import (
	"context"
	"errors"

	"spsatune/pkg/spsa"
)

// ErrVersionConflict is returned by Save when the caller's expectedVersion
// no longer matches the backend's stored version: someone else won the
// race to persist this run first, and the caller should reload and retry.
var ErrVersionConflict = errors.New("persistence: version conflict")

// ErrNotFound is returned by Load when no snapshot has ever been saved for
// the given run ID.
var ErrNotFound = errors.New("persistence: run not found")

// Persister is the storage-backend-agnostic contract every adapter in this
// package implements.
type Persister interface {
	// Save overwrites the stored snapshot for runID in one atomic swap,
	// but only if the backend's current version equals expectedVersion
	// (0 means "does not exist yet"). On success it returns the new
	// version the caller must present on the next Save.
	Save(ctx context.Context, runID string, expectedVersion uint64, snap spsa.RunSnapshot) (newVersion uint64, err error)

	// Load returns the most recently saved snapshot for runID and the
	// version it was saved under, or ErrNotFound if none exists.
	Load(ctx context.Context, runID string) (snap spsa.RunSnapshot, version uint64, err error)
}
