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

func TestHistorySamples_Bands(t *testing.T) {
	cases := []struct {
		d    int
		want int
	}{
		{1, 100}, {99, 100}, {100, 100}, {500, 20}, {999, 10000 / 999}, {1000, 1}, {5000, 1},
	}
	for _, c := range cases {
		if got := historySamples(c.d); got != c.want {
			t.Errorf("historySamples(%d) = %d, want %d", c.d, got, c.want)
		}
	}
}

func TestHistoryPeriod_NeverZero(t *testing.T) {
	for _, numIter := range []uint64{0, 1, 10, 1000, 1000000} {
		for _, d := range []int{1, 50, 500, 5000} {
			if p := historyPeriod(numIter, d); p == 0 {
				t.Fatalf("historyPeriod(%d, %d) = 0, must never be zero", numIter, d)
			}
		}
	}
}

// TestMaybeSampleHistory_TriggersAtExpectedCadence checks a small run
// accumulates roughly one history record per period, never more than the
// configured sample budget by a wide margin.
func TestMaybeSampleHistory_TriggersAtExpectedCadence(t *testing.T) {
	cfg := classicConfig(100)
	specs := []ParamSpec{{Name: "p", Min: -1000, Max: 1000, CEnd: 0.05, REnd: 0.002}}
	r, _ := NewRun(cfg, specs)

	for i := 0; i < 100; i++ {
		k0 := r.Iter
		rep := Report{K0: k0, PackedFlips: PackFlips([]int8{1}), Signature: r.Signature, Wins: 1, NumGames: 2}
		if _, err := r.Arrive(rep); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if len(r.History) == 0 {
		t.Fatalf("expected at least one sampled history record over 100 iters")
	}
	if len(r.History) > 100 {
		t.Fatalf("expected at most one history record per iter, got %d over 100 iters", len(r.History))
	}
}

func TestMaybeSampleHistory_RecordsCAndRAlongsideTheta(t *testing.T) {
	cfg := classicConfig(10)
	specs := []ParamSpec{{Name: "p", Min: -1000, Max: 1000, CEnd: 0.05, REnd: 0.002}}
	r, _ := NewRun(cfg, specs)

	var rec *HistoryRecord
	for i := 0; i < 10; i++ {
		k0 := r.Iter
		rep := Report{K0: k0, PackedFlips: PackFlips([]int8{1}), Signature: r.Signature, Wins: 1, NumGames: 2}
		got, err := r.Arrive(rep)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != nil {
			rec = got
		}
	}
	if rec == nil {
		t.Fatalf("expected at least one sampled record")
	}
	if len(rec.Theta) != 1 || len(rec.C) != 1 || len(rec.R) != 1 {
		t.Fatalf("expected per-parameter Theta/C/R vectors of length 1")
	}
}
