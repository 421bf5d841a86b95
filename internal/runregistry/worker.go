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

package runregistry

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"spsatune/internal/persistence"
)

// Worker checkpoints dirty runs to a Persister and evicts idle ones, the
// background half of the registry — mirroring the teacher's commit/evict
// split, but checkpointing means "swap the whole snapshot," not "apply an
// accumulated delta past a threshold": there is no hysteresis watermark
// here because there is nothing analogous to batch up.
type Worker struct {
	registry         *Registry
	persister        persistence.Persister
	checkpointPeriod time.Duration
	evictionAge      time.Duration
	evictionInterval time.Duration
	synchronous      bool

	stopChan chan struct{}
	wg       sync.WaitGroup
	stopped  uint32
}

// NewWorker configures a Worker. When synchronous is true, Checkpoint
// persists immediately on the caller's goroutine instead of waiting for
// the next checkpoint tick; when false (the default a benchmark harness
// should use), Checkpoint only flags the run and the background
// checkpointLoop batches the actual persistence call, trading a small
// staleness window for not blocking the reporting goroutine on network
// I/O. In both modes the write happens after Arrive has returned and
// released the run's lock, never while that lock is held.
func NewWorker(registry *Registry, persister persistence.Persister, checkpointPeriod, evictionAge, evictionInterval time.Duration, synchronous bool) *Worker {
	return &Worker{
		registry:         registry,
		persister:        persister,
		checkpointPeriod: checkpointPeriod,
		evictionAge:      evictionAge,
		evictionInterval: evictionInterval,
		synchronous:      synchronous,
		stopChan:         make(chan struct{}),
	}
}

// Start launches the background checkpoint and eviction loops.
func (w *Worker) Start() {
	w.wg.Add(2)
	go func() {
		defer w.wg.Done()
		w.checkpointLoop()
	}()
	go func() {
		defer w.wg.Done()
		w.evictionLoop()
	}()
}

// Stop signals both loops to exit, waits for them, and performs one final
// checkpoint sweep so no dirty run is lost on shutdown.
func (w *Worker) Stop() {
	if !atomic.CompareAndSwapUint32(&w.stopped, 0, 1) {
		return
	}
	close(w.stopChan)
	w.wg.Wait()
	w.runCheckpointCycle()
}

// Checkpoint flags id as dirty and, in synchronous mode, persists it
// immediately. Callers should invoke this after every accepted report.
func (w *Worker) Checkpoint(id string) error {
	w.registry.MarkDirty(id)
	if !w.synchronous {
		return nil
	}
	return w.checkpointOne(id)
}

func (w *Worker) checkpointLoop() {
	ticker := time.NewTicker(w.checkpointPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			w.runCheckpointCycle()
		case <-w.stopChan:
			return
		}
	}
}

func (w *Worker) runCheckpointCycle() {
	var ids []string
	w.registry.runs.Range(func(key, value interface{}) bool {
		m := value.(*managedRun)
		if m.dirty.Load() {
			ids = append(ids, key.(string))
		}
		return true
	})
	for _, id := range ids {
		if err := w.checkpointOne(id); err != nil {
			fmt.Printf("runregistry: checkpoint %s failed: %v\n", id, err)
		}
	}
}

// checkpointOne persists the current snapshot of one run if it is still
// present and dirty, clearing the dirty flag only on success.
func (w *Worker) checkpointOne(id string) error {
	actual, ok := w.registry.runs.Load(id)
	if !ok {
		return nil
	}
	m := actual.(*managedRun)
	if !m.dirty.Load() {
		return nil
	}

	snap := m.run.Snapshot()
	newVersion, err := w.persister.Save(context.Background(), id, m.persistedVersion, snap)
	if err != nil {
		return err
	}
	m.persistedVersion = newVersion
	m.dirty.Store(false)
	return nil
}

func (w *Worker) evictionLoop() {
	ticker := time.NewTicker(w.evictionInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			w.runEvictionCycle()
		case <-w.stopChan:
			return
		}
	}
}

func (w *Worker) runEvictionCycle() {
	now := time.Now()
	var stale []string
	w.registry.runs.Range(func(key, value interface{}) bool {
		m := value.(*managedRun)
		last := atomic.LoadInt64(&m.lastAccessed)
		if now.Sub(time.Unix(0, last)) > w.evictionAge {
			stale = append(stale, key.(string))
		}
		return true
	})

	for _, id := range stale {
		if err := w.checkpointOne(id); err != nil {
			fmt.Printf("runregistry: final checkpoint before eviction of %s failed: %v\n", id, err)
			continue
		}
		w.registry.Delete(id)
	}
}
