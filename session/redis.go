package session

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultRedisPrefix = "gs"
	minSessionTTL      = time.Millisecond
)

const sessionLuaHelpers = `
local function read_be64(s, i)
  local b1, b2, b3, b4, b5, b6, b7, b8 = string.byte(s, i, i + 7)
  if not b8 then
    return nil
  end
  return ((((((((b1 * 256) + b2) * 256 + b3) * 256 + b4) * 256 + b5) * 256 + b6) * 256 + b7) * 256 + b8)
end

local function parse_session(data)
  if string.byte(data, 1) ~= 1 then
    return nil
  end
  local user_len = string.byte(data, 2)
  if not user_len or #data < 2 + user_len + 8 then
    return nil
  end
  return {
    user_id = string.sub(data, 3, 2 + user_len),
    expires_at = read_be64(data, #data - 7)
  }
end
`

// KEYS[1] = session key
// ARGV[1] = session id
// ARGV[2] = user index prefix
//
// Returns 1 when a row was removed.
var deleteSessionLua = redis.NewScript(sessionLuaHelpers + `
local data = redis.call("GET", KEYS[1])
if not data then
  return 0
end
local parsed = parse_session(data)
if parsed then
  redis.call("SREM", ARGV[2] .. parsed.user_id, ARGV[1])
end
return redis.call("DEL", KEYS[1])
`)

// KEYS[1] = session key
// ARGV[1] = new expiry as 8 big-endian bytes
// ARGV[2] = new expiry, unix ms
// ARGV[3] = ttl ms for the new expiry
// ARGV[4] = user index prefix
//
// Returns the expiry in effect afterwards, or -1 when the row is missing.
var extendSessionLua = redis.NewScript(sessionLuaHelpers + `
local data = redis.call("GET", KEYS[1])
if not data then
  return -1
end
local parsed = parse_session(data)
if not parsed or not parsed.expires_at then
  return {err="corrupt session"}
end
local next_exp = tonumber(ARGV[2])
if parsed.expires_at >= next_exp then
  return parsed.expires_at
end
local ttl = tonumber(ARGV[3])
redis.call("SET", KEYS[1], string.sub(data, 1, #data - 8) .. ARGV[1], "PX", ttl)
local user_key = ARGV[4] .. parsed.user_id
if redis.call("PTTL", user_key) < ttl then
  redis.call("PEXPIRE", user_key, ttl)
end
return next_exp
`)

// KEYS[1] = session key
// ARGV[1] = session id
// ARGV[2] = now, unix ms
// ARGV[3] = user index prefix
var deleteIfExpiredLua = redis.NewScript(sessionLuaHelpers + `
local data = redis.call("GET", KEYS[1])
if not data then
  return 0
end
local parsed = parse_session(data)
if parsed and parsed.expires_at and parsed.expires_at > tonumber(ARGV[2]) then
  return 0
end
if parsed then
  redis.call("SREM", ARGV[3] .. parsed.user_id, ARGV[1])
end
return redis.call("DEL", KEYS[1])
`)

// RedisStore is a Redis-backed [Store]. Each session is one key with a TTL
// matching its expiry; a per-user set indexes ids for bulk revocation.
type RedisStore struct {
	redis     redis.UniversalClient
	prefix    string
	scanCount int64
}

// NewRedisStore returns a [RedisStore]. An empty prefix uses "gs".
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisStore{redis: client, prefix: prefix, scanCount: 256}
}

func (s *RedisStore) key(id string) string {
	return s.prefix + ":" + id
}

func (s *RedisStore) userPrefix() string {
	return s.prefix + "u:"
}

func (s *RedisStore) userKey(userID string) string {
	return s.userPrefix() + userID
}

func ttlUntil(expiresAt, now time.Time) time.Duration {
	ttl := expiresAt.Sub(now)
	if ttl < minSessionTTL {
		return minSessionTTL
	}
	return ttl
}

// Save writes the session and indexes it under its user.
//
//	Performance: one MULTI/EXEC with SET, SADD, PEXPIRE.
func (s *RedisStore) Save(ctx context.Context, sess *Session, now time.Time) error {
	data, err := Encode(sess)
	if err != nil {
		return err
	}
	ttl := ttlUntil(sess.ExpiresAt, now)
	userKey := s.userKey(sess.UserID)

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(sess.ID), data, ttl)
		pipe.SAdd(ctx, userKey, sess.ID)
		pipe.PExpire(ctx, userKey, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Get loads a session by id.
//
//	Performance: 1 Redis GET.
func (s *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	data, err := s.redis.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	sess, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrUnavailable, id, err)
	}
	sess.ID = id
	return sess, nil
}

// Extend implements [Store] with a single Lua call.
func (s *RedisStore) Extend(ctx context.Context, id string, expiresAt, now time.Time) (time.Time, error) {
	var packed [8]byte
	binary.BigEndian.PutUint64(packed[:], uint64(expiresAt.UnixMilli()))

	res, err := extendSessionLua.Run(ctx, s.redis,
		[]string{s.key(id)},
		string(packed[:]),
		expiresAt.UnixMilli(),
		ttlUntil(expiresAt, now).Milliseconds(),
		s.userPrefix(),
	).Int64()
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if res < 0 {
		return time.Time{}, ErrNotFound
	}
	return time.UnixMilli(res).UTC(), nil
}

// Delete removes one session and its index entry.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := deleteSessionLua.Run(ctx, s.redis, []string{s.key(id)}, id, s.userPrefix()).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// DeleteAllForUser removes every session indexed under userID.
//
// The index is read and then deleted in a second round trip; a session saved
// between the two survives. Callers that need a hard cut-off (password reset)
// change credentials first so no new session can be created with the old ones.
func (s *RedisStore) DeleteAllForUser(ctx context.Context, userID string) (int, error) {
	userKey := s.userKey(userID)

	ids, err := s.redis.SMembers(ctx, userKey).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	cmds := make([]*redis.IntCmd, 0, len(ids))
	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range ids {
			cmds = append(cmds, pipe.Del(ctx, s.key(id)))
		}
		pipe.SRem(ctx, userKey, toAny(ids)...)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	removed := 0
	for _, cmd := range cmds {
		removed += int(cmd.Val())
	}
	return removed, nil
}

// DeleteExpired scans the session keyspace and removes rows whose expiry is
// at or before now.
func (s *RedisStore) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	var (
		cursor  uint64
		deleted int
		match   = s.prefix + ":*"
		nowMS   = now.UnixMilli()
	)
	for {
		keys, next, err := s.redis.Scan(ctx, cursor, match, s.scanCount).Result()
		if err != nil {
			return deleted, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		for _, key := range keys {
			id := key[len(s.prefix)+1:]
			n, err := deleteIfExpiredLua.Run(ctx, s.redis, []string{key}, id, nowMS, s.userPrefix()).Int()
			if err != nil {
				return deleted, fmt.Errorf("%w: %v", ErrUnavailable, err)
			}
			deleted += n
		}
		cursor = next
		if cursor == 0 {
			return deleted, nil
		}
	}
}

func toAny(in []string) []interface{} {
	out := make([]interface{}, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}
