// Package httpapi exposes the engine's flows as a small JSON API for
// cmd/sessiond.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/middleware"
)

// Options configures the router.
type Options struct {
	Logger zerolog.Logger
	// Metrics, when set, is mounted at GET /metrics.
	Metrics http.Handler
	// Ready reports backing store health for GET /readyz. Nil always passes.
	Ready func(*http.Request) error
}

type api struct {
	engine *goSession.Engine
	cookie middleware.SessionCookie
	ready  func(*http.Request) error
}

// NewRouter returns the HTTP handler for engine.
func NewRouter(engine *goSession.Engine, opts Options) http.Handler {
	a := &api{
		engine: engine,
		cookie: middleware.NewSessionCookie(engine),
		ready:  opts.Ready,
	}

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(hlog.NewHandler(opts.Logger))
	r.Use(hlog.RequestIDHandler("req_id", "X-Request-Id"))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request")
	}))
	r.Use(chimw.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Get("/readyz", a.readyz)
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.Protect(engine))

		r.Post("/sign-in/code/request", a.requestSignInCode)
		r.Post("/sign-in/code", a.signInWithCode)
		r.Post("/sign-in/password", a.signInWithPassword)
		r.Post("/password-reset/request", a.requestPasswordReset)
		r.Post("/password-reset", a.resetPassword)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireSession(engine))
			r.Get("/session", a.currentSession)
			r.Post("/sign-out", a.signOut)
			r.Post("/sign-out/everywhere", a.signOutEverywhere)
			r.Post("/email-verification/request", a.requestEmailVerification)
			r.Post("/email-verification", a.verifyEmail)
		})
	})
	return r
}

func (a *api) readyz(w http.ResponseWriter, r *http.Request) {
	if a.ready != nil {
		if err := a.ready(r); err != nil {
			hlog.FromRequest(r).Warn().Err(err).Msg("not ready")
			writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "unavailable"})
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}
