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

// This file implements the update engine (C5), the numerical core of the
// coordinator: validating a report, reconstructing c(k0) and the flip
// vector, applying the selected variant's closed-form N-pair update, and
// advancing the run's counters. See spec.md §4.5 for the full derivation;
// the closed forms here (the sf-sgd triangular factor and the sf-adam
// v-EMA/damping) are exact simplifications of N identical micro-steps and
// must not be replaced by an explicit per-micro-step loop (§9).
package spsa

import "math"

// Report is the worker-to-server arrival (§6): the echoed task identity
// plus the aggregate outcome of the N probe pairs the task covered.
type Report struct {
	K0          uint64
	PackedFlips []byte
	Signature   uint64
	Wins        int64
	Losses      int64
	Draws       int64
	NumGames    uint32
}

// Arrive validates and applies one report, advancing the run by one SPSA
// step (§4.5). On any error the run is left byte-for-byte unchanged; on
// success it returns the history record appended, or nil if the sampling
// cadence (§4.6) did not trigger this time.
func (r *Run) Arrive(rep Report) (*HistoryRecord, error) {
	// Pre-checks (§4.5 "Pre-checks"): none of these touch mutable state,
	// so they run before the write lock is taken.
	if rep.Signature != r.Signature {
		observeOutcome(ErrSignatureMismatch)
		return nil, ErrSignatureMismatch
	}
	n := int64(rep.NumGames) / 2
	if n <= 0 {
		observeOutcome(ErrEmptyReport)
		return nil, ErrEmptyReport
	}
	flips, err := UnpackFlips(rep.PackedFlips, len(r.Params))
	if err != nil {
		observeOutcome(err)
		return nil, err
	}

	unlock := r.guard.arriveWrite()
	defer unlock()

	N := float64(n)
	result := float64(rep.Wins - rep.Losses)
	iterLocal := rep.K0 + 1

	wPrev := r.SFWeightSum
	reportWeight := r.Config.SFLR * N
	wCurr := wPrev + reportWeight
	microSteps := r.Iter + uint64(n)

	values := make([]float64, len(r.Params))
	for i := range r.Params {
		p := &r.Params[i]
		c := cAt(p.C, r.Config.Gamma, iterLocal)
		flip := float64(flips[i])

		switch {
		case !p.hasZ():
			values[i] = applyClassic(p, r.Config, c, iterLocal, result, flip)
		case r.Config.Variant == SFSGD:
			values[i] = applySFSGD(p, r.Config, c, result, flip, N, wPrev, reportWeight, wCurr)
		case r.Config.Variant == SFAdam:
			values[i] = applySFAdam(p, r.Config, c, result, flip, N, microSteps, reportWeight, wCurr)
		default:
			values[i] = applyClassic(p, r.Config, c, iterLocal, result, flip)
		}
	}

	r.Iter += uint64(n)
	if r.Config.Variant == SFSGD || r.Config.Variant == SFAdam {
		r.SFWeightSum = wCurr
	}

	observeOutcome(nil)
	rec := r.maybeSampleHistory(values)
	if rec != nil {
		historySamplesTotal.Inc()
	}
	return rec, nil
}

// applyClassic performs the classic SPSA update (§4.5.1) for one
// parameter and returns the new theta, which is also the legacy-fallback
// history value (§4.5.4).
func applyClassic(p *ParamRecord, cfg RunConfig, c float64, iterLocal uint64, result, flip float64) float64 {
	a := aAt(p.A, cfg.A, cfg.Alpha, iterLocal)
	step := (a / c) * result * flip
	newTheta := p.clamp(p.Theta + step)
	p.Theta = newTheta
	return newTheta
}

// applySFSGD performs the schedule-free SGD update (§4.5.2) for one
// parameter, committing Z and Theta, and returns the history value (x_new
// if sf_beta1 > 0, else theta_new).
func applySFSGD(p *ParamRecord, cfg RunConfig, c, result, flip, N, wPrev, reportWeight, wCurr float64) float64 {
	delta := cfg.SFLR * c * result * flip
	zNew := *p.Z + delta

	if cfg.SFBeta1 <= 0 {
		thetaNew := p.clamp(zNew)
		*p.Z = zNew
		p.Theta = thetaNew
		return thetaNew
	}

	xPrev := p.clamp((p.Theta - (1-cfg.SFBeta1)**p.Z) / cfg.SFBeta1)
	tri := (N + 1) / 2
	xNew := p.clamp((wPrev*xPrev + reportWeight**p.Z + cfg.SFLR*delta*tri) / wCurr)
	thetaNew := p.clamp((1-cfg.SFBeta1)*zNew + cfg.SFBeta1*xNew)

	*p.Z = zNew
	p.Theta = thetaNew
	return xNew
}

// applySFAdam performs the schedule-free AdamW update (§4.5.3) for one
// parameter, committing V, Z, and Theta, and returns the history value.
func applySFAdam(p *ParamRecord, cfg RunConfig, c, result, flip, N float64, microSteps uint64, reportWeight, wCurr float64) float64 {
	gMean := result / N

	beta2N := math.Pow(cfg.SFBeta2, N)
	vNew := beta2N**p.V + (1-beta2N)*gMean*gMean
	biasCorr := 1 - math.Pow(cfg.SFBeta2, float64(microSteps))
	vHat := vNew / biasCorr
	denom := math.Sqrt(vHat) + cfg.SFEps

	k := sfAdamDamping(N, cfg.SFBeta2)

	stepPhi := (cfg.SFLR * result * flip / denom) * k
	zNew := *p.Z + stepPhi*c

	var thetaNew, historyValue float64
	if cfg.SFBeta1 <= 0 {
		thetaNew = p.clamp(zNew)
		historyValue = thetaNew
	} else {
		xPrev := p.clamp((p.Theta - (1-cfg.SFBeta1)**p.Z) / cfg.SFBeta1)
		aK := reportWeight / wCurr
		xNew := p.clamp((1-aK)*xPrev + aK*zNew)
		thetaNew = p.clamp((1-cfg.SFBeta1)*zNew + cfg.SFBeta1*xNew)
		historyValue = xNew
	}

	*p.V = vNew
	*p.Z = zNew
	p.Theta = thetaNew
	return historyValue
}

// sfAdamDamping computes k(N, beta2), the micro-batch damping factor for
// the sf-adam update (§4.5.3). Near beta2 -> 1 the exact closed form loses
// precision because 1-sqrt(beta2) underflows toward zero; spec.md §9
// mandates a stable series expansion below that threshold.
func sfAdamDamping(N, beta2 float64) float64 {
	if !(N > 1 && beta2 > 0 && beta2 < 1) {
		return 1
	}
	oneMinusSqrt := 1 - math.Sqrt(beta2)
	const stabilityThreshold = 1e-6
	var k float64
	if oneMinusSqrt < stabilityThreshold {
		k = 1 - ((N-1)/4)*(1-beta2)
	} else {
		k = (1 - math.Pow(beta2, N/2)) / (N * oneMinusSqrt)
	}
	if k <= 0 {
		return 1e-300 // strictly positive, per spec's "(0,1]" clip
	}
	if k > 1 {
		return 1
	}
	return k
}
