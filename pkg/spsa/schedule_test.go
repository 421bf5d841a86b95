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

import "testing"

const epsilon = 1e-9

func approxEqual(a, b, eps float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= eps
}

func TestCAt_GammaZero_IsConstant(t *testing.T) {
	for k := uint64(1); k < 50; k++ {
		got := cAt(2.5, 0, k)
		if !approxEqual(got, 2.5, epsilon) {
			t.Fatalf("k=%d: cAt = %v, want 2.5", k, got)
		}
	}
}

func TestCAt_DecaysWithK(t *testing.T) {
	c1 := cAt(1.0, 0.101, 1)
	c2 := cAt(1.0, 0.101, 1000)
	if c2 >= c1 {
		t.Fatalf("expected c to shrink as k grows: c(1)=%v c(1000)=%v", c1, c2)
	}
}

func TestAAt_DecaysWithK(t *testing.T) {
	a1 := aAt(1.0, 0, 0.602, 1)
	a2 := aAt(1.0, 0, 0.602, 1000)
	if a2 >= a1 {
		t.Fatalf("expected a to shrink as k grows: a(1)=%v a(1000)=%v", a1, a2)
	}
}

func TestRAt_ClassicForm(t *testing.T) {
	a, c := 4.0, 2.0
	got := rAt(a, c)
	want := 1.0 // 4 / 2^2
	if !approxEqual(got, want, epsilon) {
		t.Fatalf("rAt(%v,%v) = %v, want %v", a, c, got, want)
	}
}

func TestBaseC_GammaZero(t *testing.T) {
	got := baseC(0.5, 0, 1000)
	if !approxEqual(got, 0.5, epsilon) {
		t.Fatalf("baseC = %v, want 0.5", got)
	}
}

func TestBaseA_MatchesExplicitExponentAfterAddition(t *testing.T) {
	rEnd, cEnd, runA, alpha := 0.002, 0.05, 100.0, 0.602
	numIter := uint64(40000)
	got := baseA(rEnd, cEnd, runA, alpha, numIter)
	want := rEnd * cEnd * cEnd * powf(runA+float64(numIter), alpha)
	if !approxEqual(got, want, epsilon) {
		t.Fatalf("baseA = %v, want %v", got, want)
	}
}

func TestEvaluateClassic_ComposesCAndA(t *testing.T) {
	cfg := RunConfig{A: 10, Alpha: 0.602, Gamma: 0.101}
	p := ParamRecord{C: 1.0, A: 1.0}
	c, a, r := evaluateClassic(p, cfg, 5)
	wantC := cAt(p.C, cfg.Gamma, 5)
	wantA := aAt(p.A, cfg.A, cfg.Alpha, 5)
	wantR := rAt(wantA, wantC)
	if !approxEqual(c, wantC, epsilon) || !approxEqual(a, wantA, epsilon) || !approxEqual(r, wantR, epsilon) {
		t.Fatalf("evaluateClassic = (%v,%v,%v), want (%v,%v,%v)", c, a, r, wantC, wantA, wantR)
	}
}
