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

package spsa

import (
	"hash/fnv"
	"math"
)

// HistoryRecord is one sampled trajectory point (§3, §4.6): the parameter
// vector at the time of sampling, the per-axis classic-form rate R = a/c^2,
// and the per-axis c, all at the run's iter after the triggering update.
type HistoryRecord struct {
	Iter  uint64
	Theta []float64
	R     []float64
	C     []float64
}

// Run is the run-level optimizer state S (§3). It owns its own guard
// (C7), so a *Run is safe to share across goroutines: many concurrent
// Dispatch calls, one at a time Arrive.
type Run struct {
	Config RunConfig

	Iter        uint64
	SFWeightSum float64
	Params      []ParamRecord
	Signature   uint64
	History     []HistoryRecord

	guard runGuard
}

// NewRun constructs a Run from a configuration and the ordered list of
// parameter specs. It returns ErrBoundsViolation (refusing to start the
// run) if any spec has Min > Max, per spec.md §7.
func NewRun(cfg RunConfig, specs []ParamSpec) (*Run, error) {
	for _, s := range specs {
		if s.Min > s.Max {
			return nil, ErrBoundsViolation
		}
	}
	params := make([]ParamRecord, len(specs))
	for i, s := range specs {
		params[i] = newParamRecord(s, cfg)
	}
	r := &Run{
		Config: cfg,
		Params: params,
	}
	r.Signature = computeSignature(params)
	return r, nil
}

// computeSignature derives the integrity tag binding a task record to the
// parameter-list identity at dispatch time (§3, §6). It is a pure
// function of each parameter's name, bounds, CEnd and REnd, in order —
// changing the parameter list (adding/removing/reordering/rebounding a
// parameter, or changing its CEnd/REnd) changes the signature, which is exactly the property §4.5's pre-check
// relies on to reject stale reports.
func computeSignature(params []ParamRecord) uint64 {
	h := fnv.New64a()
	var buf [8]byte
	writeFloat := func(f float64) {
		bits := math.Float64bits(f)
		for i := 0; i < 8; i++ {
			buf[i] = byte(bits >> (8 * uint(i)))
		}
		_, _ = h.Write(buf[:])
	}
	for _, p := range params {
		_, _ = h.Write([]byte(p.Name))
		_, _ = h.Write([]byte{0})
		writeFloat(p.Min)
		writeFloat(p.Max)
		writeFloat(p.CEnd)
		writeFloat(p.REnd)
	}
	return h.Sum64()
}

// Snapshot returns an immutable, deep-copied view of the run's state
// (the C3 "snapshot()" contract), safe to read or serialize without
// holding the run's guard afterward.
func (r *Run) Snapshot() RunSnapshot {
	unlock := r.guard.dispatchRead()
	defer unlock()

	params := make([]ParamRecord, len(r.Params))
	for i, p := range r.Params {
		params[i] = p
		if p.Z != nil {
			z := *p.Z
			params[i].Z = &z
		}
		if p.V != nil {
			v := *p.V
			params[i].V = &v
		}
	}
	hist := make([]HistoryRecord, len(r.History))
	copy(hist, r.History)

	return RunSnapshot{
		Config:      r.Config,
		Iter:        r.Iter,
		SFWeightSum: r.SFWeightSum,
		Params:      params,
		Signature:   r.Signature,
		History:     hist,
	}
}

// RunSnapshot is the persisted-state shape of a Run (§6): an object per
// run containing the fields of S plus the parameter list. It is the
// serialization boundary between pkg/spsa and internal/persistence.
type RunSnapshot struct {
	Config      RunConfig
	Iter        uint64
	SFWeightSum float64
	Params      []ParamRecord
	Signature   uint64
	History     []HistoryRecord
}
