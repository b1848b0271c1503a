package httpapi

import (
	"net/http"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/middleware"
)

type emailRequest struct {
	Email string `json:"email"`
}

type codeSignInRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type passwordSignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type resetRequest struct {
	Email    string `json:"email"`
	Token    string `json:"token"`
	Password string `json:"password"`
}

type codeRequest struct {
	Code string `json:"code"`
}

type userBody struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
}

type sessionBody struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

type authBody struct {
	User    userBody    `json:"user"`
	Session sessionBody `json:"session"`
}

type countBody struct {
	Invalidated int `json:"invalidated"`
}

func newAuthBody(s *goSession.Session, u goSession.User) authBody {
	return authBody{
		User: userBody{ID: u.ID, Email: u.Email, EmailVerified: u.EmailVerified},
		Session: sessionBody{
			ID:        s.ID,
			CreatedAt: s.CreatedAt,
			ExpiresAt: s.ExpiresAt,
		},
	}
}

// signedIn writes the session cookie and the session summary. The token
// itself only travels in the cookie.
func (a *api) signedIn(w http.ResponseWriter, r *http.Request, res goSession.SignInResult) {
	a.cookie.Write(middleware.NewHTTPCookieJar(w, r), res.Token)
	writeJSON(w, http.StatusOK, newAuthBody(res.Session, res.User))
}

func (a *api) requestSignInCode(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if !decode(w, r, &req) {
		return
	}
	if err := a.engine.RequestSignInCode(r.Context(), req.Email); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (a *api) signInWithCode(w http.ResponseWriter, r *http.Request) {
	var req codeSignInRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := a.engine.SignInWithCode(r.Context(), req.Email, req.Code, goSession.SessionMetadata{})
	if err != nil {
		writeError(w, r, err)
		return
	}
	a.signedIn(w, r, res)
}

func (a *api) signInWithPassword(w http.ResponseWriter, r *http.Request) {
	var req passwordSignInRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := a.engine.SignInWithPassword(r.Context(), req.Email, req.Password, goSession.SessionMetadata{})
	if err != nil {
		writeError(w, r, err)
		return
	}
	a.signedIn(w, r, res)
}

func (a *api) requestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if !decode(w, r, &req) {
		return
	}
	if err := a.engine.RequestPasswordReset(r.Context(), req.Email); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (a *api) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := a.engine.ResetPassword(r.Context(), req.Email, req.Token, req.Password, goSession.SessionMetadata{})
	if err != nil {
		writeError(w, r, err)
		return
	}
	a.signedIn(w, r, res)
}

func (a *api) currentSession(w http.ResponseWriter, r *http.Request) {
	auth, _ := middleware.AuthResultFromContext(r.Context())
	writeJSON(w, http.StatusOK, newAuthBody(auth.Session, auth.User))
}

func (a *api) signOut(w http.ResponseWriter, r *http.Request) {
	auth, _ := middleware.AuthResultFromContext(r.Context())
	if err := a.engine.InvalidateSession(r.Context(), auth.Session.ID); err != nil {
		writeError(w, r, err)
		return
	}
	a.cookie.Clear(middleware.NewHTTPCookieJar(w, r))
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) signOutEverywhere(w http.ResponseWriter, r *http.Request) {
	auth, _ := middleware.AuthResultFromContext(r.Context())
	n, err := a.engine.SignOutEverywhere(r.Context(), auth.User.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	a.cookie.Clear(middleware.NewHTTPCookieJar(w, r))
	writeJSON(w, http.StatusOK, countBody{Invalidated: n})
}

func (a *api) requestEmailVerification(w http.ResponseWriter, r *http.Request) {
	auth, _ := middleware.AuthResultFromContext(r.Context())
	if err := a.engine.RequestEmailVerification(r.Context(), auth.User.ID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (a *api) verifyEmail(w http.ResponseWriter, r *http.Request) {
	auth, _ := middleware.AuthResultFromContext(r.Context())
	var req codeRequest
	if !decode(w, r, &req) {
		return
	}
	if err := a.engine.VerifyEmail(r.Context(), auth.User.ID, req.Code); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
