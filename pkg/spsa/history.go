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

// This file implements the history sampler (C6): down-sampling parameter
// trajectories at a run-wide cadence, per spec.md §4.6.
package spsa

// historySamples returns the target number of history records for a run
// with d tuned parameters (§4.6).
func historySamples(d int) int {
	switch {
	case d < 100:
		return 100
	case d < 1000:
		return 10000 / d
	default:
		return 1
	}
}

// historyPeriod returns the sampling period in pairs (§4.6). The spec
// states this cadence in terms of num_games (the full run budget), not
// num_iter; RunConfig.NumIter is itself defined as num_games/2 (§3), so
// the two are the same quantity here — this is intentional, not a
// shortcut, and must not be changed to use some other iter count (see
// DESIGN.md's Open Question decisions).
func historyPeriod(numIter uint64, d int) uint64 {
	samples := historySamples(d)
	if samples <= 0 {
		samples = 1
	}
	period := numIter / uint64(samples)
	if period == 0 {
		period = 1
	}
	return period
}

// maybeSampleHistory appends a history record if the run's sampling
// cadence triggers at the current (post-update) iter, per §4.6's
// condition: |history| + 1 > S.iter / period. values is the per-parameter
// vector already decided by Arrive (x_new where sf_beta1 > 0, else
// theta_new). Returns the appended record, or nil if the cadence did not
// trigger.
func (r *Run) maybeSampleHistory(values []float64) *HistoryRecord {
	period := historyPeriod(r.Config.NumIter, len(r.Params))
	if uint64(len(r.History)+1) <= r.Iter/period {
		return nil
	}

	rec := HistoryRecord{
		Iter:  r.Iter,
		Theta: append([]float64(nil), values...),
		R:     make([]float64, len(r.Params)),
		C:     make([]float64, len(r.Params)),
	}
	for i := range r.Params {
		c, a, rr := evaluateClassic(r.Params[i], r.Config, r.Iter)
		rec.C[i] = c
		rec.R[i] = rr
		_ = a
	}
	r.History = append(r.History, rec)
	return &rec
}
