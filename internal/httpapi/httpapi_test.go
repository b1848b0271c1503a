package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/internal/memusers"
	"github.com/MrEthical07/goSession/mail"
)

type outbox struct {
	mu   sync.Mutex
	sent []mail.Message
}

func (o *outbox) Send(_ context.Context, msg mail.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, msg)
	return nil
}

func (o *outbox) last(t *testing.T) mail.Message {
	t.Helper()
	o.mu.Lock()
	defer o.mu.Unlock()
	require.NotEmpty(t, o.sent)
	return o.sent[len(o.sent)-1]
}

type apiEnv struct {
	handler http.Handler
	engine  *goSession.Engine
	users   *memusers.Store
	outbox  *outbox
}

func newAPIEnv(t *testing.T, ready func(*http.Request) error) *apiEnv {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := goSession.DefaultConfig()
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Cookie.Name = "sid"

	env := &apiEnv{users: memusers.New(), outbox: &outbox{}}
	engine, err := goSession.New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithUserProvider(env.users).
		WithMailer(env.outbox).
		WithMailTemplates(map[mail.Kind]string{
			mail.KindSignInCode:        "{{.Code}}",
			mail.KindEmailVerification: "{{.Code}}",
			mail.KindPasswordReset:     "{{.Code}}",
		}).
		Build()
	require.NoError(t, err)
	t.Cleanup(engine.Close)

	env.engine = engine
	env.handler = NewRouter(engine, Options{
		Logger: zerolog.Nop(),
		Metrics: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("metrics"))
		}),
		Ready: ready,
	})
	return env
}

func (e *apiEnv) do(method, path, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("Origin", "http://example.com")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == "sid" {
			return c
		}
	}
	t.Fatalf("no session cookie in response")
	return nil
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

func TestCodeSignInFlow(t *testing.T) {
	env := newAPIEnv(t, nil)
	_, err := env.users.Create("dana@example.com", "")
	require.NoError(t, err)

	rec := env.do(http.MethodPost, "/v1/sign-in/code/request", `{"email":"dana@example.com"}`, nil)
	require.Equal(t, http.StatusAccepted, rec.Code)
	code := strings.TrimSpace(env.outbox.last(t).Body)

	rec = env.do(http.MethodPost, "/v1/sign-in/code", `{"email":"dana@example.com","code":"`+code+`"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	cookie := sessionCookie(t, rec)
	assert.True(t, cookie.HttpOnly)
	assert.NotContains(t, rec.Body.String(), cookie.Value, "token only travels in the cookie")

	rec = env.do(http.MethodGet, "/v1/session", "", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	var body authBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "dana@example.com", body.User.Email)
	assert.True(t, body.User.EmailVerified)

	rec = env.do(http.MethodPost, "/v1/sign-out", "", cookie)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(http.MethodGet, "/v1/session", "", cookie)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWrongCodeIsBadRequest(t *testing.T) {
	env := newAPIEnv(t, nil)
	_, err := env.users.Create("dana@example.com", "")
	require.NoError(t, err)

	rec := env.do(http.MethodPost, "/v1/sign-in/code", `{"email":"dana@example.com","code":"000000"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_code", errorCode(t, rec))
}

func TestPasswordSignInAndSignOutEverywhere(t *testing.T) {
	env := newAPIEnv(t, nil)
	hash, err := env.engine.HashPassword("correct horse battery")
	require.NoError(t, err)
	_, err = env.users.Create("erin@example.com", hash)
	require.NoError(t, err)

	rec := env.do(http.MethodPost, "/v1/sign-in/password", `{"email":"erin@example.com","password":"wrong password here"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid_credentials", errorCode(t, rec))

	rec = env.do(http.MethodPost, "/v1/sign-in/password", `{"email":"erin@example.com","password":"correct horse battery"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	first := sessionCookie(t, rec)

	rec = env.do(http.MethodPost, "/v1/sign-in/password", `{"email":"erin@example.com","password":"correct horse battery"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	second := sessionCookie(t, rec)

	rec = env.do(http.MethodPost, "/v1/sign-out/everywhere", "", first)
	require.Equal(t, http.StatusOK, rec.Code)
	var body countBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Invalidated)

	rec = env.do(http.MethodGet, "/v1/session", "", second)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPasswordResetFlow(t *testing.T) {
	env := newAPIEnv(t, nil)
	_, err := env.users.Create("fay@example.com", "")
	require.NoError(t, err)

	rec := env.do(http.MethodPost, "/v1/password-reset/request", `{"email":"fay@example.com"}`, nil)
	require.Equal(t, http.StatusAccepted, rec.Code)
	token := strings.TrimSpace(env.outbox.last(t).Body)

	rec = env.do(http.MethodPost, "/v1/password-reset", `{"email":"fay@example.com","token":"`+token+`","password":"short"}`, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "password_policy", errorCode(t, rec))

	rec = env.do(http.MethodPost, "/v1/password-reset", `{"email":"fay@example.com","token":"`+token+`","password":"a much longer password"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	sessionCookie(t, rec)

	rec = env.do(http.MethodPost, "/v1/sign-in/password", `{"email":"fay@example.com","password":"a much longer password"}`, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestEmailVerificationRequiresSession(t *testing.T) {
	env := newAPIEnv(t, nil)
	u, err := env.users.Create("gus@example.com", "")
	require.NoError(t, err)

	rec := env.do(http.MethodPost, "/v1/email-verification/request", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, _, err := env.engine.CreateSession(context.Background(), u.ID, goSession.SessionMetadata{})
	require.NoError(t, err)
	cookie := &http.Cookie{Name: "sid", Value: token}

	rec = env.do(http.MethodPost, "/v1/email-verification/request", "", cookie)
	require.Equal(t, http.StatusAccepted, rec.Code)
	code := strings.TrimSpace(env.outbox.last(t).Body)

	rec = env.do(http.MethodPost, "/v1/email-verification", `{"code":"`+code+`"}`, cookie)
	require.Equal(t, http.StatusNoContent, rec.Code)

	got, err := env.users.GetUser(context.Background(), goSession.LookupByID{ID: u.ID})
	require.NoError(t, err)
	assert.True(t, got.EmailVerified)
}

func TestCrossOriginPostRejected(t *testing.T) {
	env := newAPIEnv(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/sign-in/code/request", strings.NewReader(`{"email":"a@example.com"}`))
	req.Header.Set("Origin", "https://evil.example")
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.Empty(t, env.outbox.sent)
}

func TestMalformedBody(t *testing.T) {
	env := newAPIEnv(t, nil)

	rec := env.do(http.MethodPost, "/v1/sign-in/code/request", `{"email":`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "malformed_request", errorCode(t, rec))

	rec = env.do(http.MethodPost, "/v1/sign-in/code/request", `{"email":"a@example.com","extra":1}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOperationalEndpoints(t *testing.T) {
	env := newAPIEnv(t, func(*http.Request) error { return errors.New("down") })

	assert.Equal(t, http.StatusNoContent, env.do(http.MethodGet, "/healthz", "", nil).Code)
	assert.Equal(t, http.StatusServiceUnavailable, env.do(http.MethodGet, "/readyz", "", nil).Code)

	rec := env.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "metrics", rec.Body.String())
}

func TestWriteErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{goSession.ErrRateLimited, http.StatusTooManyRequests, "rate_limited"},
		{goSession.ErrDeliveryFailed, http.StatusBadGateway, "delivery_failed"},
		{errors.Join(errors.New("dial"), goSession.ErrStorageUnavailable), http.StatusServiceUnavailable, "unavailable"},
		{errors.New("surprise"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeError(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, errorCode(t, rec))
		})
	}
}
