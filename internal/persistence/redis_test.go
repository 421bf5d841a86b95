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

package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"spsatune/pkg/spsa"
)

// fakeRedisEvaler is an in-process stand-in for a real Redis server: it
// interprets the two scripts this package issues well enough to exercise
// RedisPersister without a broker.
type fakeRedisEvaler struct {
	version uint64
	payload string
	saved   bool
	calls   int
	err     error
}

func (f *fakeRedisEvaler) Eval(ctx context.Context, script string, keys []string, args ...interface{}) (interface{}, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.calls++
	switch script {
	case redisSaveScript:
		expected := args[0].(uint64)
		if !f.saved {
			if expected != 0 {
				return []interface{}{int64(0), int64(0)}, nil
			}
		} else if expected != f.version {
			return []interface{}{int64(0), int64(f.version)}, nil
		}
		f.version++
		f.payload = string(args[1].([]byte))
		f.saved = true
		return []interface{}{int64(1), int64(f.version)}, nil
	case redisLoadScript:
		if !f.saved {
			return []interface{}{int64(0)}, nil
		}
		return []interface{}{int64(1), int64(f.version), f.payload}, nil
	default:
		return nil, errors.New("unknown script")
	}
}

func TestRedisPersister_SaveThenLoad_RoundTrips(t *testing.T) {
	fake := &fakeRedisEvaler{}
	p := NewRedisPersister(fake)

	snap := spsa.RunSnapshot{Iter: 7, Signature: 42, Params: []spsa.ParamRecord{{Name: "p", Theta: 1.5}}}
	v1, err := p.Save(context.Background(), "run-1", 0, snap)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v1 != 1 {
		t.Fatalf("expected version 1, got %d", v1)
	}

	got, v, err := p.Load(context.Background(), "run-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != v1 {
		t.Fatalf("version mismatch: got %d want %d", v, v1)
	}
	if got.Iter != 7 || got.Signature != 42 || got.Params[0].Theta != 1.5 {
		t.Fatalf("round-tripped snapshot mismatch: %+v", got)
	}
}

func TestRedisPersister_Save_StaleVersionConflicts(t *testing.T) {
	fake := &fakeRedisEvaler{}
	p := NewRedisPersister(fake)
	snap := spsa.RunSnapshot{Iter: 1}

	if _, err := p.Save(context.Background(), "run-1", 0, snap); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := p.Save(context.Background(), "run-1", 0, snap); !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}
}

func TestRedisPersister_Load_NotFound(t *testing.T) {
	fake := &fakeRedisEvaler{}
	p := NewRedisPersister(fake)
	_, _, err := p.Load(context.Background(), "never-saved")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRedisPersister_Save_ClientErrorPropagates(t *testing.T) {
	fake := &fakeRedisEvaler{err: errors.New("boom")}
	p := NewRedisPersister(fake)
	_, err := p.Save(context.Background(), "run-1", 0, spsa.RunSnapshot{})
	if err == nil {
		t.Fatalf("expected error to propagate")
	}
}

func TestRunKey_Namespaced(t *testing.T) {
	if got, want := runKey("abc"), "spsatune:run:abc"; got != want {
		t.Fatalf("runKey = %q, want %q", got, want)
	}
}

func TestToInt64_AcceptsCommonShapes(t *testing.T) {
	cases := []interface{}{int64(5), "5", []byte("5")}
	for _, c := range cases {
		got, err := toInt64(c)
		if err != nil {
			t.Fatalf("toInt64(%#v): unexpected error: %v", c, err)
		}
		if got != 5 {
			t.Fatalf("toInt64(%#v) = %d, want 5", c, got)
		}
	}
}

func TestSnapshotRoundTripsThroughJSON(t *testing.T) {
	z := 1.5
	snap := spsa.RunSnapshot{Params: []spsa.ParamRecord{{Name: "p", Z: &z}}}
	b, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got spsa.RunSnapshot
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Params[0].Z == nil || *got.Params[0].Z != 1.5 {
		t.Fatalf("Z did not round-trip: %+v", got.Params[0])
	}
}
