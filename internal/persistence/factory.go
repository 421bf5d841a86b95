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
	"fmt"

	"spsatune/pkg/spsa"
)

// Options configures the adapters BuildPersister can construct.
type Options struct {
	// RedisAddr selects a real Redis client; empty uses a logging stand-in.
	RedisAddr string
	// DB is required for the "postgres" adapter; callers inject whichever
	// database/sql driver they've registered.
	DB *sql.DB
}

// BuildPersister constructs a Persister from a string selector, the way
// the teacher's own persistence.BuildPersister lets a demo binary pick an
// adapter without wiring real infrastructure. Supported adapters:
//   - "", "null": discards every Save, returns ErrNotFound from every Load
//   - "redis": version-gated Lua swap (real client if RedisAddr is set,
//     otherwise a logging stand-in)
//   - "postgres": versioned UPDATE against opts.DB
//
// There is no "kafka" option: a run's persisted state is a single object a
// worker can read back, not an append-only event log, so an event-stream
// adapter has nothing to attach to here.
func BuildPersister(adapter string, opts Options) (Persister, error) {
	switch adapter {
	case "", "null":
		return nullPersister{}, nil
	case "redis":
		var evaler RedisEvaler
		if opts.RedisAddr != "" {
			evaler = NewGoRedisEvaler(opts.RedisAddr)
		} else {
			evaler = LoggingRedisEvaler{}
		}
		return NewRedisPersister(evaler), nil
	case "postgres":
		if opts.DB == nil {
			return nil, fmt.Errorf("postgres adapter requires a non-nil Options.DB")
		}
		return NewPostgresPersister(opts.DB), nil
	default:
		return nil, fmt.Errorf("unknown persistence adapter: %s", adapter)
	}
}

// nullPersister discards every write and reports every run as never saved.
// It's the zero-configuration default for the benchmark harness, the same
// role the teacher's mock persister plays for the rate limiter demo.
type nullPersister struct{}

func (nullPersister) Save(ctx context.Context, runID string, expectedVersion uint64, snap spsa.RunSnapshot) (uint64, error) {
	return expectedVersion + 1, nil
}

func (nullPersister) Load(ctx context.Context, runID string) (spsa.RunSnapshot, uint64, error) {
	return spsa.RunSnapshot{}, 0, ErrNotFound
}
