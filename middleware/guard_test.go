package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	goSession "github.com/MrEthical07/goSession"
)

func guarded(env *testEnv, seen *string) http.Handler {
	return RequireSession(env.engine)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth, ok := AuthResultFromContext(r.Context())
		if ok {
			*seen = auth.User.ID
		}
		w.WriteHeader(http.StatusOK)
	}))
}

func TestRequireSessionWithoutCookie(t *testing.T) {
	env := newTestEnv(t)
	var seen string

	w := httptest.NewRecorder()
	guarded(env, &seen).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, seen)
}

func TestRequireSessionAttachesUser(t *testing.T) {
	env := newTestEnv(t)
	token := env.signIn(t)
	var seen string

	r := httptest.NewRequest(http.MethodGet, "/me", nil)
	r.AddCookie(&http.Cookie{Name: "sid", Value: token})
	w := httptest.NewRecorder()
	guarded(env, &seen).ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, env.userID, seen)
}

func TestRequireSessionExpiredClearsCookie(t *testing.T) {
	env := newTestEnv(t)
	token := env.signIn(t)
	env.clock.Advance(31 * 24 * time.Hour)
	var seen string

	r := httptest.NewRequest(http.MethodGet, "/me", nil)
	r.AddCookie(&http.Cookie{Name: "sid", Value: token})
	w := httptest.NewRecorder()
	guarded(env, &seen).ServeHTTP(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Less(t, cookies[0].MaxAge, 0)
}

func TestRequireSessionStorageFailureIs500(t *testing.T) {
	env := newTestEnv(t)
	token := env.signIn(t)
	env.stopRedis()
	var seen string

	r := httptest.NewRequest(http.MethodGet, "/me", nil)
	r.AddCookie(&http.Cookie{Name: "sid", Value: token})
	w := httptest.NewRecorder()
	guarded(env, &seen).ServeHTTP(w, r)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Empty(t, seen)
}

func TestValidateRequestRenewalRewritesCookie(t *testing.T) {
	env := newTestEnv(t)
	token := env.signIn(t)
	jar := newMapJar()
	jar.values["sid"] = token

	res, err := ValidateRequest(context.Background(), env.engine, jar)
	require.NoError(t, err)
	require.IsType(t, goSession.Authenticated{}, res)
	_, written := jar.attrs["sid"]
	assert.False(t, written, "fresh session does not touch the cookie")

	env.clock.Advance(20 * 24 * time.Hour)
	res, err = ValidateRequest(context.Background(), env.engine, jar)
	require.NoError(t, err)
	auth, ok := res.(goSession.Authenticated)
	require.True(t, ok)
	assert.True(t, auth.Renewed)
	assert.Equal(t, token, jar.values["sid"])
	assert.Equal(t, int((30 * 24 * time.Hour).Seconds()), jar.attrs["sid"].MaxAge)
	assert.True(t, jar.attrs["sid"].HTTPOnly)
}

func TestValidateRequestUnknownTokenClearsCookie(t *testing.T) {
	env := newTestEnv(t)
	jar := newMapJar()
	jar.values["sid"] = "not-a-session"

	res, err := ValidateRequest(context.Background(), env.engine, jar)
	require.NoError(t, err)
	assert.IsType(t, goSession.Unauthenticated{}, res)
	assert.Equal(t, "", jar.values["sid"])
	assert.Equal(t, -1, jar.attrs["sid"].MaxAge)
}
