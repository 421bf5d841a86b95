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

// Package runregistry manages the collection of in-memory runs a single
// coordinator process hosts: one sync.Map keyed by run ID, a dirty flag per
// run for checkpointing, and a background Worker that checkpoints and
// evicts, the same split of concerns as a rate limiter's Store/Worker pair
// but generalized from "one scalar per key" to "one spsa.Run per run ID."
package runregistry

import (
	"sync"
	"sync/atomic"
	"time"

	"spsatune/pkg/spsa"
)

// managedRun wraps a *spsa.Run with the bookkeeping the registry and
// worker need: when it was last touched, whether it has unpersisted
// changes, and the version token the persistence layer last accepted.
type managedRun struct {
	run              *spsa.Run
	lastAccessed     int64 // UnixNano, atomic
	dirty            atomic.Bool
	persistedVersion uint64 // only mutated by the worker's checkpoint goroutine
}

// Registry holds every run a coordinator process is currently serving.
// It is safe for concurrent use: many goroutines may dispatch/report
// against different runs (or the same run, which spsa.Run itself guards)
// while the registry's own map operations stay lock-free on the hot path.
type Registry struct {
	runs sync.Map // string -> *managedRun
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry { return &Registry{} }

// GetOrCreate returns the run for id, creating it from cfg/specs on first
// use. The fast path (run already exists) never allocates: only a cache
// miss pays for spsa.NewRun and the managedRun wrapper.
func (r *Registry) GetOrCreate(id string, cfg spsa.RunConfig, specs []spsa.ParamSpec) (*spsa.Run, error) {
	if actual, ok := r.runs.Load(id); ok {
		m := actual.(*managedRun)
		atomic.StoreInt64(&m.lastAccessed, time.Now().UnixNano())
		return m.run, nil
	}

	run, err := spsa.NewRun(cfg, specs)
	if err != nil {
		return nil, err
	}
	newManaged := &managedRun{run: run, lastAccessed: time.Now().UnixNano()}

	if actual, loaded := r.runs.LoadOrStore(id, newManaged); loaded {
		m := actual.(*managedRun)
		atomic.StoreInt64(&m.lastAccessed, time.Now().UnixNano())
		return m.run, nil
	}
	return newManaged.run, nil
}

// Get returns the run for id without creating one, and whether it exists.
func (r *Registry) Get(id string) (*spsa.Run, bool) {
	actual, ok := r.runs.Load(id)
	if !ok {
		return nil, false
	}
	return actual.(*managedRun).run, true
}

// MarkDirty flags id's run as having unpersisted changes. Callers invoke
// this after a successful spsa.Run.Arrive; it is a no-op for unknown IDs.
func (r *Registry) MarkDirty(id string) {
	if actual, ok := r.runs.Load(id); ok {
		actual.(*managedRun).dirty.Store(true)
	}
}

// ForEach iterates every managed run currently in the registry.
func (r *Registry) ForEach(f func(id string, run *spsa.Run)) {
	r.runs.Range(func(key, value interface{}) bool {
		f(key.(string), value.(*managedRun).run)
		return true
	})
}

// Delete removes id from the registry. Callers should checkpoint first if
// the run might be dirty; Delete itself does not persist anything.
func (r *Registry) Delete(id string) {
	r.runs.Delete(id)
}

// Len reports how many runs are currently registered.
func (r *Registry) Len() int {
	n := 0
	r.runs.Range(func(_, _ interface{}) bool { n++; return true })
	return n
}
