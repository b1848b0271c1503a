package middleware

import (
	"net"
	"net/http"
	"net/url"

	"github.com/rs/zerolog"

	goSession "github.com/MrEthical07/goSession"
)

// IsSafeMethod reports whether method cannot change server state.
func IsSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	}
	return false
}

// SameOrigin reports whether r may proceed under the origin rule. Safe
// methods always pass. Any other method needs both an Origin and a Host,
// an Origin that parses as a URL, and an exact host match.
func SameOrigin(r *http.Request) bool {
	if IsSafeMethod(r.Method) {
		return true
	}

	origin := r.Header.Get("Origin")
	host := r.Host
	if origin == "" || host == "" {
		return false
	}

	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	return u.Host == host
}

// Protect is the global filter: it rejects cross-origin mutating requests
// with a bare 403, refreshes the session cookie on GET and HEAD, and records
// the client address and user agent on the request context.
func Protect(engine *goSession.Engine) func(http.Handler) http.Handler {
	cookie := NewSessionCookie(engine)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !SameOrigin(r) {
				zerolog.Ctx(r.Context()).Debug().
					Str("method", r.Method).
					Str("origin", r.Header.Get("Origin")).
					Str("host", r.Host).
					Msg("cross-origin request rejected")
				w.WriteHeader(http.StatusForbidden)
				return
			}

			if r.Method == http.MethodGet || r.Method == http.MethodHead {
				jar := NewHTTPCookieJar(w, r)
				if token, ok := cookie.Read(jar); ok {
					cookie.Write(jar, token)
				}
			}

			ctx := goSession.WithClientIP(r.Context(), clientIP(r))
			ctx = goSession.WithUserAgent(ctx, r.UserAgent())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
