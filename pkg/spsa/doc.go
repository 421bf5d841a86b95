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

// Package spsa implements the numerical core of a distributed SPSA
// (Simultaneous Perturbation Stochastic Approximation) tuning coordinator.
//
// A Run holds the canonical parameter vector for one tuning job. Workers
// call Dispatch to receive a symmetric probe pair (theta ± c·flip) and,
// once they've played the resulting games, call Arrive to report the
// aggregate result. Arrive advances the optimizer by one step using the
// run's configured variant: classic SPSA, schedule-free SGD, or
// schedule-free AdamW.
//
// The package has no knowledge of HTTP, persistence, or run lifecycle —
// those are the concern of internal/runregistry and internal/persistence.
// A Run is a plain in-memory value; callers decide when to create, persist,
// or evict one.
package spsa
