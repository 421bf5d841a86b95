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

// This file implements the parameter store (C3): typed per-parameter
// records with bounds, and the clamping helper used throughout dispatch
// and update.
package spsa

// Variant selects one of the three optimizer families a Run can use.
// Modeled as a tagged sum per spec.md §9 rather than dynamic dispatch:
// each variant carries exactly the RunConfig/ParamRecord fields it needs,
// and Arrive switches on Variant once per parameter.
type Variant int

const (
	// Classic is the original two-sided SPSA update (§4.5.1).
	Classic Variant = iota
	// SFSGD is the schedule-free SGD variant (§4.5.2).
	SFSGD
	// SFAdam is the schedule-free AdamW variant (§4.5.3).
	SFAdam
)

func (v Variant) String() string {
	switch v {
	case Classic:
		return "classic"
	case SFSGD:
		return "sf-sgd"
	case SFAdam:
		return "sf-adam"
	default:
		return "unknown"
	}
}

// ParamSpec is the user-supplied input for one tuned parameter, as given
// at run creation time (§3, P[i] "User inputs" row).
type ParamSpec struct {
	Name string
	Min  float64
	Max  float64
	CEnd float64
	REnd float64
}

// ParamRecord is the per-parameter state P[i] (§3). Z and V are pointers
// so that their presence encodes whether this parameter participates in
// the schedule-free fast-iterate/second-moment state; a nil Z models a
// legacy record that always falls back to the classic update (§3, §4.5.4).
type ParamRecord struct {
	Name string
	Min  float64
	Max  float64
	CEnd float64
	REnd float64

	// C and A are the base schedule coefficients, fixed at run creation:
	// C = CEnd * numIter^gamma, A = REnd * CEnd^2 * (runA+numIter)^alpha.
	C float64
	A float64

	// Theta is the clamped exported value, always present.
	Theta float64

	// Z is the unclamped fast iterate (theta-space), sf-* only.
	Z *float64
	// V is the second-moment EMA (phi-space), sf-adam only.
	V *float64
}

// hasZ reports whether this parameter carries schedule-free fast-iterate
// state. Per §3/§4.5.4, a parameter lacking Z always uses the classic
// update regardless of the run's configured Variant.
func (p *ParamRecord) hasZ() bool { return p.Z != nil }

// hasV reports whether this parameter carries sf-adam second-moment state.
func (p *ParamRecord) hasV() bool { return p.V != nil }

// clamp returns x clamped into [p.Min, p.Max] (§4.3's clamp_i).
func (p *ParamRecord) clamp(x float64) float64 {
	if x < p.Min {
		return p.Min
	}
	if x > p.Max {
		return p.Max
	}
	return x
}

// RunConfig holds the immutable, run-level optimizer configuration (the
// non-params fields of S in §3).
type RunConfig struct {
	NumIter uint64
	A       float64
	Alpha   float64
	Gamma   float64
	Variant Variant

	SFLR    float64
	SFBeta1 float64
	SFBeta2 float64
	SFEps   float64
}

// newParamRecord builds a ParamRecord from a user spec, computing the base
// C and A coefficients and seeding Z/V for schedule-free variants.
func newParamRecord(spec ParamSpec, cfg RunConfig) ParamRecord {
	p := ParamRecord{
		Name:  spec.Name,
		Min:   spec.Min,
		Max:   spec.Max,
		CEnd:  spec.CEnd,
		REnd:  spec.REnd,
		C:     baseC(spec.CEnd, cfg.Gamma, cfg.NumIter),
		Theta: 0,
	}
	// A is computed for every parameter, not just classic-variant runs:
	// a schedule-free run can still contain legacy records (no Z), which
	// always fall back to the classic update and need it (§3, §4.5.4).
	p.A = baseA(spec.REnd, spec.CEnd, cfg.A, cfg.Alpha, cfg.NumIter)
	if cfg.Variant == SFSGD || cfg.Variant == SFAdam {
		z := 0.0
		p.Z = &z
		if cfg.Variant == SFAdam {
			v := 0.0
			p.V = &v
		}
	}
	return p
}
