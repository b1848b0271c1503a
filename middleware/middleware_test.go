package middleware

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/internal/memusers"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type testEnv struct {
	engine *goSession.Engine
	users  *memusers.Store
	clock  *testClock
	userID string
	// stopRedis takes the backing server down for failure tests.
	stopRedis func()
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})

	users := memusers.New()
	u, err := users.Create("erin@example.com", "")
	require.NoError(t, err)

	cfg := goSession.DefaultConfig()
	cfg.Cookie.Name = "sid"
	clock := &testClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}

	engine, err := goSession.New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithUserProvider(users).
		WithClock(clock).
		Build()
	require.NoError(t, err)

	var once sync.Once
	env := &testEnv{
		engine:    engine,
		users:     users,
		clock:     clock,
		userID:    u.ID,
		stopRedis: func() { once.Do(mr.Close) },
	}
	t.Cleanup(func() {
		engine.Close()
		_ = rdb.Close()
		env.stopRedis()
	})
	return env
}

func (e *testEnv) signIn(t *testing.T) string {
	t.Helper()
	token, _, err := e.engine.CreateSession(context.Background(), e.userID, goSession.SessionMetadata{})
	require.NoError(t, err)
	return token
}

// mapJar is a CookieJar without any HTTP machinery.
type mapJar struct {
	values map[string]string
	attrs  map[string]CookieAttributes
}

func newMapJar() *mapJar {
	return &mapJar{values: map[string]string{}, attrs: map[string]CookieAttributes{}}
}

func (j *mapJar) Get(name string) (string, bool) {
	v, ok := j.values[name]
	return v, ok && v != ""
}

func (j *mapJar) Set(name, value string, attrs CookieAttributes) {
	j.values[name] = value
	j.attrs[name] = attrs
}
