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

// This file implements the dispatch engine (C4): on a worker request,
// snapshot the global pair counter, draw flips, emit probe vectors, and
// stamp a task record with (k0, packed_flips), per spec.md §4.4.
package spsa

import (
	"math/rand"
	"sync"
)

// FlipSource draws a single Rademacher value, independently across axes.
// Implementations must be safe for concurrent use (§5: "Flip randomness
// uses a thread-safe source").
type FlipSource interface {
	Flip() int8
}

// randFlipSource wraps a *rand.Rand behind a mutex: math/rand.Rand is not
// itself safe for concurrent use, and dispatch may be called concurrently
// by many workers sharing one Run.
type randFlipSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewFlipSource returns a thread-safe FlipSource seeded with seed. Callers
// that want process-wide entropy should seed from crypto/rand or the
// current time; NewFlipSource itself does not reseed automatically so
// that tests can construct deterministic sources.
func NewFlipSource(seed int64) FlipSource {
	return &randFlipSource{rng: rand.New(rand.NewSource(seed))}
}

func (s *randFlipSource) Flip() int8 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rng.Intn(2) == 0 {
		return -1
	}
	return 1
}

// Task is the dispatch engine's task record T (§3): created by Dispatch,
// immutable until consumed by Arrive, and discarded after consumption or
// expiry (expiry itself is the surrounding task manager's concern, out of
// scope here per spec.md §5).
type Task struct {
	K0          uint64
	PackedFlips []byte
	Signature   uint64
	NumGames    uint32
}

// DispatchResult is the server-to-worker response (§6): the two probe
// parameter vectors and the task record the worker must echo back in its
// report.
type DispatchResult struct {
	ThetaWhite []float64
	ThetaBlack []float64
	Task       Task
}

// Dispatch produces one probe game-pair batch for nReq pairs (§4.4).
// It takes the guard's read side: many concurrent dispatches may run at
// once and may all observe the same k0, since K only advances on arrival.
func (r *Run) Dispatch(nReq uint32, flips FlipSource) DispatchResult {
	unlock := r.guard.dispatchRead()
	defer unlock()

	k0 := r.Iter
	iterLocal := k0 + 1
	d := len(r.Params)

	flipVec := make([]int8, d)
	white := make([]float64, d)
	black := make([]float64, d)

	for i := range r.Params {
		p := &r.Params[i]
		f := flips.Flip()
		flipVec[i] = f
		c := cAt(p.C, r.Config.Gamma, iterLocal)
		white[i] = p.clamp(p.Theta + c*float64(f))
		black[i] = p.clamp(p.Theta - c*float64(f))
	}

	dispatchesTotal.Inc()
	return DispatchResult{
		ThetaWhite: white,
		ThetaBlack: black,
		Task: Task{
			K0:          k0,
			PackedFlips: PackFlips(flipVec),
			Signature:   r.Signature,
			NumGames:    2 * nReq,
		},
	}
}
