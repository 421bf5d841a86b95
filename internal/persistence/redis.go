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
	"fmt"
	"strconv"

	"spsatune/pkg/spsa"
)

// RedisPersister persists each run as a single Redis hash (version +
// JSON-encoded snapshot), swapped atomically via a Lua script so the
// compare-and-set of the version token and the snapshot write happen as
// one operation (§6's "atomic swap," not an incremental delta commit).
type RedisPersister struct {
	client RedisEvaler
}

// NewRedisPersister returns a persister backed by client.
func NewRedisPersister(client RedisEvaler) *RedisPersister {
	return &RedisPersister{client: client}
}

// redisSaveScript performs the version-gated swap. Returns {1, newVersion}
// on success, or {0, currentVersion} if expectedVersion was stale.
const redisSaveScript = `
local key = KEYS[1]
local expected = tonumber(ARGV[1])
local payload = ARGV[2]
local current = redis.call('HGET', key, 'version')
if current == false then
  current = 0
else
  current = tonumber(current)
end
if current ~= expected then
  return {0, current}
end
local newVersion = current + 1
redis.call('HSET', key, 'version', newVersion, 'snapshot', payload)
return {1, newVersion}
`

// redisLoadScript returns {0} if the run has never been saved, or
// {1, version, payload} otherwise.
const redisLoadScript = `
local key = KEYS[1]
local version = redis.call('HGET', key, 'version')
if version == false then
  return {0}
end
local payload = redis.call('HGET', key, 'snapshot')
return {1, version, payload}
`

func runKey(runID string) string { return fmt.Sprintf("spsatune:run:%s", runID) }

func (r *RedisPersister) Save(ctx context.Context, runID string, expectedVersion uint64, snap spsa.RunSnapshot) (uint64, error) {
	payload, err := json.Marshal(snap)
	if err != nil {
		return 0, fmt.Errorf("marshal snapshot for %s: %w", runID, err)
	}

	res, err := r.client.Eval(ctx, redisSaveScript, []string{runKey(runID)}, expectedVersion, payload)
	if err != nil {
		return 0, fmt.Errorf("redis eval save run=%s: %w", runID, err)
	}

	applied, current, err := parseVersionedReply(res)
	if err != nil {
		return 0, fmt.Errorf("parse redis reply run=%s: %w", runID, err)
	}
	if !applied {
		return 0, ErrVersionConflict
	}
	return current, nil
}

func (r *RedisPersister) Load(ctx context.Context, runID string) (spsa.RunSnapshot, uint64, error) {
	var snap spsa.RunSnapshot

	res, err := r.client.Eval(ctx, redisLoadScript, []string{runKey(runID)})
	if err != nil {
		return snap, 0, fmt.Errorf("redis eval load run=%s: %w", runID, err)
	}

	items, ok := res.([]interface{})
	if !ok || len(items) == 0 {
		return snap, 0, fmt.Errorf("unexpected redis reply shape for run=%s", runID)
	}
	found, err := toInt64(items[0])
	if err != nil {
		return snap, 0, err
	}
	if found == 0 {
		return snap, 0, ErrNotFound
	}
	if len(items) < 3 {
		return snap, 0, fmt.Errorf("truncated redis reply for run=%s", runID)
	}

	version, err := toInt64(items[1])
	if err != nil {
		return snap, 0, err
	}
	payload, ok := items[2].(string)
	if !ok {
		return snap, 0, fmt.Errorf("unexpected snapshot payload type for run=%s", runID)
	}
	if err := json.Unmarshal([]byte(payload), &snap); err != nil {
		return snap, 0, fmt.Errorf("unmarshal snapshot for run=%s: %w", runID, err)
	}
	return snap, uint64(version), nil
}

// parseVersionedReply decodes the {applied, version} shape shared by the
// save script's success and conflict replies.
func parseVersionedReply(res interface{}) (applied bool, version uint64, err error) {
	items, ok := res.([]interface{})
	if !ok || len(items) < 2 {
		return false, 0, fmt.Errorf("unexpected reply shape: %#v", res)
	}
	a, err := toInt64(items[0])
	if err != nil {
		return false, 0, err
	}
	v, err := toInt64(items[1])
	if err != nil {
		return false, 0, err
	}
	return a == 1, uint64(v), nil
}

// toInt64 normalizes the handful of shapes a Lua number can arrive as
// across redis client implementations (int64, string, []byte).
func toInt64(v interface{}) (int64, error) {
	switch t := v.(type) {
	case int64:
		return t, nil
	case string:
		return strconv.ParseInt(t, 10, 64)
	case []byte:
		return strconv.ParseInt(string(t), 10, 64)
	default:
		return 0, fmt.Errorf("cannot convert %T to int64", v)
	}
}
