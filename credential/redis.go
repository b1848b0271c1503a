package credential

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/goSession/secret"
)

const defaultRedisPrefix = "gc"

const minRecordTTL = time.Millisecond

// Shared Lua helper. Offsets are 1-based and mirror record.go.
const readExpiresLua = `
local function read_be64(s, i)
  local b1, b2, b3, b4, b5, b6, b7, b8 = string.byte(s, i, i + 7)
  if not b8 then
    return nil
  end
  return ((((((((b1 * 256) + b2) * 256 + b3) * 256 + b4) * 256 + b5) * 256 + b6) * 256 + b7) * 256 + b8)
end

local function expires_at(data)
  if string.byte(data, 1) ~= 1 then
    return nil
  end
  return read_be64(data, 11)
end
`

// consumeCredentialLua looks up a live record and deletes it only when the
// stored digest equals the provided one.
// KEYS[1] = record key
// ARGV[1] = candidate digest
// ARGV[2] = now, unix ms
//
// Returns {0} absent or expired, {1} mismatch, {2, data} consumed.
var consumeCredentialLua = redis.NewScript(readExpiresLua + `
local data = redis.call('GET', KEYS[1])
if not data then
  return {0}
end

local exp = expires_at(data)
if not exp then
  redis.call('DEL', KEYS[1])
  return {0}
end
if exp <= tonumber(ARGV[2]) then
  redis.call('DEL', KEYS[1])
  return {0}
end

local hash_len = string.byte(data, 19)
if not hash_len then
  return {0}
end
local stored = string.sub(data, 20, 19 + hash_len)
if stored ~= ARGV[1] then
  return {1}
end

redis.call('DEL', KEYS[1])
return {2, data}
`)

// deleteIfExpiredLua removes KEYS[1] when its record expired at or before ARGV[1].
var deleteIfExpiredLua = redis.NewScript(readExpiresLua + `
local data = redis.call('GET', KEYS[1])
if not data then
  return 0
end
local exp = expires_at(data)
if exp and exp > tonumber(ARGV[1]) then
  return 0
end
return redis.call('DEL', KEYS[1])
`)

const (
	consumeAbsent   int64 = 0
	consumeMismatch int64 = 1
	consumeOK       int64 = 2
)

// RedisStore keeps one key per (purpose, subject). Keys carry a TTL equal to
// the record lifetime so Redis evicts them on its own; DeleteExpired covers
// clock skew between the application and Redis.
type RedisStore struct {
	redis     redis.UniversalClient
	prefix    string
	scanCount int64
}

// NewRedisStore returns a Redis-backed [Store]. An empty prefix uses "gc".
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisStore{redis: client, prefix: prefix, scanCount: 256}
}

func (s *RedisStore) key(purpose Purpose, subjectKey string) string {
	return s.prefix + ":" + strconv.Itoa(int(purpose)) + ":" + subjectKey
}

func (s *RedisStore) pattern(purpose Purpose) string {
	if purpose == AnyPurpose {
		return s.prefix + ":*"
	}
	return s.prefix + ":" + strconv.Itoa(int(purpose)) + ":*"
}

// Replace overwrites the record for (rec.SubjectKey, rec.Purpose) with one SET.
func (s *RedisStore) Replace(ctx context.Context, rec *Record, now time.Time) error {
	data, err := encodeRecord(rec)
	if err != nil {
		return err
	}

	ttl := rec.ExpiresAt.Sub(now)
	if ttl < minRecordTTL {
		ttl = minRecordTTL
	}

	if err := s.redis.Set(ctx, s.key(rec.Purpose, rec.SubjectKey), data, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Consume implements [Store].
func (s *RedisStore) Consume(ctx context.Context, subjectKey string, purpose Purpose, candidate string, now time.Time) (bool, error) {
	res, err := consumeCredentialLua.Run(ctx, s.redis,
		[]string{s.key(purpose, subjectKey)},
		secret.HashSecret(candidate),
		now.UnixMilli(),
	).Slice()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(res) == 0 {
		return false, fmt.Errorf("%w: empty lua result", ErrUnavailable)
	}

	status, ok := res[0].(int64)
	if !ok {
		return false, fmt.Errorf("%w: unexpected lua result type", ErrUnavailable)
	}

	switch status {
	case consumeAbsent, consumeMismatch:
		return false, nil
	case consumeOK:
	default:
		return false, fmt.Errorf("%w: unexpected lua status %d", ErrUnavailable, status)
	}

	if len(res) < 2 {
		return false, fmt.Errorf("%w: missing record in lua result", ErrUnavailable)
	}
	data, ok := res[1].(string)
	if !ok {
		return false, fmt.Errorf("%w: unexpected lua record type", ErrUnavailable)
	}
	rec, err := decodeRecord([]byte(data))
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	// Lua string equality is not constant-time; recheck in Go.
	return secret.VerifySecret(rec.Hash, candidate), nil
}

// DeleteExpired scans the purpose's keyspace and removes records that expired
// at or before now.
func (s *RedisStore) DeleteExpired(ctx context.Context, purpose Purpose, now time.Time) (int, error) {
	var (
		cursor  uint64
		deleted int
		nowMS   = now.UnixMilli()
	)
	for {
		keys, next, err := s.redis.Scan(ctx, cursor, s.pattern(purpose), s.scanCount).Result()
		if err != nil {
			return deleted, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		for _, key := range keys {
			n, err := deleteIfExpiredLua.Run(ctx, s.redis, []string{key}, nowMS).Int()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					continue
				}
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
