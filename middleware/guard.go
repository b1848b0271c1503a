package middleware

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	goSession "github.com/MrEthical07/goSession"
)

type authContextKey struct{}

// AuthResultFromContext returns the session attached by [RequireSession].
func AuthResultFromContext(ctx context.Context) (goSession.Authenticated, bool) {
	res, ok := ctx.Value(authContextKey{}).(goSession.Authenticated)
	return res, ok
}

// ValidateRequest resolves the session cookie held by jar. It clears the
// cookie when the session is gone and refreshes it when the session was
// renewed. Errors are storage failures and never come with Authenticated.
func ValidateRequest(ctx context.Context, engine *goSession.Engine, jar CookieJar) (goSession.AuthResult, error) {
	cookie := NewSessionCookie(engine)

	token, ok := cookie.Read(jar)
	if !ok {
		return goSession.Unauthenticated{}, nil
	}

	res, err := engine.ValidateSessionToken(ctx, token)
	if err != nil {
		return goSession.Unauthenticated{}, err
	}

	switch r := res.(type) {
	case goSession.Authenticated:
		if r.Renewed {
			cookie.Write(jar, token)
		}
	case goSession.Unauthenticated:
		cookie.Clear(jar)
	}
	return res, nil
}

// RequireSession answers 401 unless the request carries a live session, and
// 500 when the session store cannot be reached.
func RequireSession(engine *goSession.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			res, err := ValidateRequest(r.Context(), engine, NewHTTPCookieJar(w, r))
			if err != nil {
				zerolog.Ctx(r.Context()).Error().Err(err).Msg("session validation failed")
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}

			auth, ok := res.(goSession.Authenticated)
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), authContextKey{}, auth)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
