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

// Package config loads the coordinator's TOML configuration file: the
// registry's checkpoint/eviction cadence and the default optimizer
// hyperparameters new runs inherit when a caller doesn't override them.
package config

import (
	"time"

	"github.com/BurntSushi/toml"

	"spsatune/pkg/spsa"
)

// RegistryConfig controls the background Worker's checkpoint and eviction
// cadence, the [registry] TOML table.
type RegistryConfig struct {
	CheckpointInterval time.Duration `toml:"checkpoint_interval"`
	EvictionAge        time.Duration `toml:"eviction_age"`
	EvictionInterval   time.Duration `toml:"eviction_interval"`
	Synchronous        bool          `toml:"synchronous"`
}

// ScheduleDefaults holds the default schedule/optimizer hyperparameters a
// new run is created with absent an explicit override, the [schedule_defaults]
// TOML table.
type ScheduleDefaults struct {
	A       float64 `toml:"a"`
	Alpha   float64 `toml:"alpha"`
	Gamma   float64 `toml:"gamma"`
	Variant string  `toml:"variant"`

	SFLR    float64 `toml:"sf_lr"`
	SFBeta1 float64 `toml:"sf_beta1"`
	SFBeta2 float64 `toml:"sf_beta2"`
	SFEps   float64 `toml:"sf_eps"`
}

// PersistenceConfig selects and addresses the persistence adapter, mirroring
// internal/persistence.Options minus the caller-injected *sql.DB (a benchmark
// or server binary wires that in separately after loading this file).
type PersistenceConfig struct {
	Adapter   string `toml:"adapter"`
	RedisAddr string `toml:"redis_addr"`
}

// Config is the coordinator's top-level configuration document.
type Config struct {
	Registry         RegistryConfig    `toml:"registry"`
	ScheduleDefaults ScheduleDefaults  `toml:"schedule_defaults"`
	Persistence      PersistenceConfig `toml:"persistence"`
}

// DefaultConfig returns the configuration a benchmark/demo binary runs with
// when no TOML file is supplied, mirroring cmd/ratelimiter-api/main.go's
// flag-default pattern: every knob has a sane out-of-the-box value.
func DefaultConfig() Config {
	return Config{
		Registry: RegistryConfig{
			CheckpointInterval: 100 * time.Millisecond,
			EvictionAge:        time.Hour,
			EvictionInterval:   10 * time.Minute,
			Synchronous:        false,
		},
		ScheduleDefaults: ScheduleDefaults{
			A:       10,
			Alpha:   0.602,
			Gamma:   0.101,
			Variant: "classic",

			SFLR:    1.0,
			SFBeta1: 0.9,
			SFBeta2: 0.999,
			SFEps:   1e-8,
		},
		Persistence: PersistenceConfig{
			Adapter: "null",
		},
	}
}

// Load reads and parses a TOML configuration file at path, starting from
// DefaultConfig so a file only needs to specify the fields it overrides.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// VariantFromString parses the [schedule_defaults] variant string into a
// spsa.Variant, defaulting to spsa.Classic for an empty or unrecognized
// value rather than erroring, since "classic" is always a safe fallback.
func VariantFromString(s string) spsa.Variant {
	switch s {
	case "sf-sgd":
		return spsa.SFSGD
	case "sf-adam":
		return spsa.SFAdam
	default:
		return spsa.Classic
	}
}

// RunConfig builds an spsa.RunConfig from the schedule defaults, the shape
// every new run in the registry is seeded with absent a per-run override.
func (d ScheduleDefaults) RunConfig(numIter uint64) spsa.RunConfig {
	return spsa.RunConfig{
		NumIter: numIter,
		A:       d.A,
		Alpha:   d.Alpha,
		Gamma:   d.Gamma,
		Variant: VariantFromString(d.Variant),
		SFLR:    d.SFLR,
		SFBeta1: d.SFBeta1,
		SFBeta2: d.SFBeta2,
		SFEps:   d.SFEps,
	}
}
