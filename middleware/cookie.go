package middleware

import (
	"net/http"
	"time"

	goSession "github.com/MrEthical07/goSession"
)

// CookieAttributes are the attributes written with a cookie. MaxAge is in
// seconds; a negative value deletes the cookie.
type CookieAttributes struct {
	Domain   string
	Path     string
	MaxAge   int
	Secure   bool
	HTTPOnly bool
	SameSite http.SameSite
}

// CookieJar is per-request cookie access.
type CookieJar interface {
	Get(name string) (string, bool)
	Set(name, value string, attrs CookieAttributes)
}

type httpCookieJar struct {
	w   http.ResponseWriter
	r   *http.Request
	now func() time.Time
}

// NewHTTPCookieJar reads cookies from r and writes Set-Cookie headers to w.
func NewHTTPCookieJar(w http.ResponseWriter, r *http.Request) CookieJar {
	return &httpCookieJar{w: w, r: r, now: time.Now}
}

func (j *httpCookieJar) Get(name string) (string, bool) {
	c, err := j.r.Cookie(name)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

func (j *httpCookieJar) Set(name, value string, attrs CookieAttributes) {
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Domain:   attrs.Domain,
		Path:     attrs.Path,
		MaxAge:   attrs.MaxAge,
		Secure:   attrs.Secure,
		HttpOnly: attrs.HTTPOnly,
		SameSite: attrs.SameSite,
	}
	switch {
	case attrs.MaxAge > 0:
		c.Expires = j.now().Add(time.Duration(attrs.MaxAge) * time.Second).UTC()
	case attrs.MaxAge < 0:
		c.Expires = time.Unix(0, 0)
	}
	http.SetCookie(j.w, c)
}

// SessionCookie reads and writes the session cookie described by an
// engine's cookie configuration. Max-Age always equals the session lifetime.
type SessionCookie struct {
	cfg      goSession.CookieConfig
	lifetime time.Duration
}

// NewSessionCookie returns the session cookie for engine.
func NewSessionCookie(engine *goSession.Engine) SessionCookie {
	return SessionCookie{cfg: engine.CookieConfig(), lifetime: engine.SessionLifetime()}
}

// Name is the cookie name.
func (c SessionCookie) Name() string {
	return c.cfg.Name
}

// Read returns the session token held by jar.
func (c SessionCookie) Read(jar CookieJar) (string, bool) {
	return jar.Get(c.cfg.Name)
}

// Write stores token with a fresh max-age.
func (c SessionCookie) Write(jar CookieJar, token string) {
	jar.Set(c.cfg.Name, token, c.attributes(int(c.lifetime/time.Second)))
}

// Clear deletes the cookie.
func (c SessionCookie) Clear(jar CookieJar) {
	jar.Set(c.cfg.Name, "", c.attributes(-1))
}

func (c SessionCookie) attributes(maxAge int) CookieAttributes {
	return CookieAttributes{
		Domain:   c.cfg.Domain,
		Path:     c.cfg.Path,
		MaxAge:   maxAge,
		Secure:   c.cfg.Secure,
		HTTPOnly: true,
		SameSite: c.cfg.SameSite,
	}
}
