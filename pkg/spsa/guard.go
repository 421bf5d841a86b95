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

// This file implements the concurrency guard (C7): an asymmetric lock
// that allows many concurrent dispatches but serializes arrivals for a
// given run, per spec.md §4.7/§5.
package spsa

import "sync"

// runGuard is a thin wrapper around sync.RWMutex naming the two access
// patterns the spec requires: dispatchRead (many concurrent readers, no
// mutation of S.iter) and arriveWrite (one writer at a time, mutating
// everything). Cross-run operations use independent guards, one per Run.
type runGuard struct {
	mu sync.RWMutex
}

// dispatchRead acquires the read side of the guard. Many dispatches may
// hold this concurrently; they only read S.iter and the parameter
// snapshot, never mutate them.
func (g *runGuard) dispatchRead() func() {
	g.mu.RLock()
	return g.mu.RUnlock
}

// arriveWrite acquires the write side of the guard. Only one arrival may
// hold this at a time for a given run; it serializes the full read-modify-
// write of S.iter, S.sf_weight_sum, S.history, and every P[i].
func (g *runGuard) arriveWrite() func() {
	g.mu.Lock()
	return g.mu.Unlock
}
