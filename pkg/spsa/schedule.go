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

// This file implements the schedule evaluator (C2): per-axis c(k) and
// a(k) for the classic schedule, and the c(k)-only evaluation used by the
// schedule-free variants.
package spsa

import "math"

// powf computes x^p via exp(p*log(x)), as spec.md §4.2 mandates, rather
// than math.Pow directly. k is always >= 1 here so x is always positive.
func powf(x, p float64) float64 {
	return math.Exp(p * math.Log(x))
}

// cAt returns c_i(k) = P[i].C / k^gamma for pair counter k (k >= 1).
func cAt(c, gamma float64, k uint64) float64 {
	return c / powf(float64(k), gamma)
}

// aAt returns a_i(k) = P[i].A / (A + k)^alpha for pair counter k (k >= 1).
// The exponent is applied to (A+k) as a single unit, matching the
// open-question note in spec.md §9 that this must be preserved bit-for-bit.
func aAt(a, A, alpha float64, k uint64) float64 {
	return a / powf(A+float64(k), alpha)
}

// rAt returns R_i(k) = a_i(k) / c_i(k)^2, the classic-form map used by
// the history sampler regardless of which variant a run actually uses.
func rAt(a, c float64) float64 {
	return a / (c * c)
}

// evaluateClassic computes (c, a, R) for parameter p at pair counter k
// under the run's classic schedule coefficients.
func evaluateClassic(p ParamRecord, cfg RunConfig, k uint64) (c, a, r float64) {
	c = cAt(p.C, cfg.Gamma, k)
	a = aAt(p.A, cfg.A, cfg.Alpha, k)
	r = rAt(a, c)
	return
}

// baseC computes the per-parameter base c = CEnd * numIter^gamma (§3).
func baseC(cEnd float64, gamma float64, numIter uint64) float64 {
	return cEnd * powf(float64(numIter), gamma)
}

// baseA computes the per-parameter base a = REnd * CEnd^2 * (A+numIter)^alpha (§3).
func baseA(rEnd, cEnd, runA, alpha float64, numIter uint64) float64 {
	return rEnd * cEnd * cEnd * powf(runA+float64(numIter), alpha)
}
