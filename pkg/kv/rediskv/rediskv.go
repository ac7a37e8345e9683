// Package rediskv is a kv.Engine on Redis.
//
// Redis has no ordered key space, so the engine keeps two structures per
// namespace:
//
//	{prefix}:keys    sorted set; every member has score 0 and is an encoded key
//	{prefix}:values  hash from encoded key to value
//
// With equal scores a sorted set orders members bytewise, so range scans map
// onto ZRANGEBYLEX and ZREVRANGEBYLEX. Set and Delete update both structures
// in one MULTI/EXEC transaction; Scan reads both inside one Lua script, so a
// page never sees a key without its value.
package rediskv

import (
	"context"
	"errors"
	"fmt"

	"github.com/dyluth/easel/pkg/kv"
	"github.com/redis/go-redis/v9"
)

// Engine stores ordered keys in Redis.
// The engine is thread-safe and can be used concurrently from multiple goroutines.
type Engine struct {
	rdb       *redis.Client
	keysKey   string
	valuesKey string
}

var _ kv.Engine = (*Engine)(nil)

// New creates an engine whose Redis keys are namespaced under prefix.
//
// Parameters:
//   - redisOpts: Redis connection options (address, password, DB, etc.)
//   - prefix: namespace for the two Redis keys (must not be empty)
//
// Returns an error if prefix is empty.
func New(redisOpts *redis.Options, prefix string) (*Engine, error) {
	if prefix == "" {
		return nil, fmt.Errorf("key prefix cannot be empty")
	}
	return &Engine{
		rdb:       redis.NewClient(redisOpts),
		keysKey:   KeysKey(prefix),
		valuesKey: ValuesKey(prefix),
	}, nil
}

// KeysKey returns the Redis key of the ordered key index.
// Pattern: {prefix}:keys
func KeysKey(prefix string) string {
	return prefix + ":keys"
}

// ValuesKey returns the Redis key of the value hash.
// Pattern: {prefix}:values
func ValuesKey(prefix string) string {
	return prefix + ":values"
}

// Set implements kv.Engine.
func (e *Engine) Set(ctx context.Context, key, value []byte) error {
	member := string(key)
	_, err := e.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, e.keysKey, redis.Z{Score: 0, Member: member})
		pipe.HSet(ctx, e.valuesKey, member, value)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write key to Redis: %w", err)
	}
	return nil
}

// Get implements kv.Engine.
func (e *Engine) Get(ctx context.Context, key []byte) ([]byte, error) {
	value, err := e.rdb.HGet(ctx, e.valuesKey, string(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, kv.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read key from Redis: %w", err)
	}
	return value, nil
}

// Delete implements kv.Engine.
func (e *Engine) Delete(ctx context.Context, key []byte) error {
	member := string(key)
	_, err := e.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRem(ctx, e.keysKey, member)
		pipe.HDel(ctx, e.valuesKey, member)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete key from Redis: %w", err)
	}
	return nil
}

// scanScript ranges the index and reads the values atomically. Index
// members without a value are skipped, and the range is continued past them
// until limit live entries are found or the span is exhausted, so a short
// result always means the end of the span.
//
// KEYS: index, values. ARGV: min, max, limit (0 = all), reverse ("1").
var scanScript = redis.NewScript(`
local index, hash = KEYS[1], KEYS[2]
local min, max = ARGV[1], ARGV[2]
local limit = tonumber(ARGV[3])
local reverse = ARGV[4] == "1"
local out = {}
local found = 0
while true do
  local want = limit - found
  local members
  if reverse then
    if limit > 0 then
      members = redis.call("ZREVRANGEBYLEX", index, max, min, "LIMIT", "0", tostring(want))
    else
      members = redis.call("ZREVRANGEBYLEX", index, max, min)
    end
  else
    if limit > 0 then
      members = redis.call("ZRANGEBYLEX", index, min, max, "LIMIT", "0", tostring(want))
    else
      members = redis.call("ZRANGEBYLEX", index, min, max)
    end
  end
  if #members == 0 then
    break
  end
  for i = 1, #members, 1000 do
    local values = redis.call("HMGET", hash, unpack(members, i, math.min(i + 999, #members)))
    for j = 1, #values do
      if values[j] then
        out[#out + 1] = members[i + j - 1]
        out[#out + 1] = values[j]
        found = found + 1
      end
    end
  end
  if limit <= 0 or found >= limit or #members < want then
    break
  end
  if reverse then
    max = "(" .. members[#members]
  else
    min = "(" .. members[#members]
  end
end
return out
`)

// Scan implements kv.Engine.
func (e *Engine) Scan(ctx context.Context, span kv.Span, limit int, reverse bool) ([]kv.RawEntry, error) {
	if limit < 0 {
		limit = 0
	}
	direction := "0"
	if reverse {
		direction = "1"
	}

	res, err := scanScript.Run(ctx, e.rdb, []string{e.keysKey, e.valuesKey},
		lexMin(span.Start), lexMax(span.End), limit, direction).Slice()
	if err != nil {
		return nil, fmt.Errorf("failed to scan keys in Redis: %w", err)
	}
	if len(res)%2 != 0 {
		return nil, fmt.Errorf("malformed scan reply: %d elements", len(res))
	}

	entries := make([]kv.RawEntry, 0, len(res)/2)
	for i := 0; i < len(res); i += 2 {
		key, kok := res[i].(string)
		value, vok := res[i+1].(string)
		if !kok || !vok {
			return nil, fmt.Errorf("malformed scan reply at %d: %T, %T", i, res[i], res[i+1])
		}
		entries = append(entries, kv.RawEntry{Key: []byte(key), Value: []byte(value)})
	}
	return entries, nil
}

// Ping verifies Redis connectivity.
func (e *Engine) Ping(ctx context.Context) error {
	return e.rdb.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (e *Engine) Close() error {
	return e.rdb.Close()
}

func lexMin(start []byte) string {
	if len(start) == 0 {
		return "-"
	}
	return "[" + string(start)
}

func lexMax(end []byte) string {
	if end == nil {
		return "+"
	}
	return "(" + string(end)
}
