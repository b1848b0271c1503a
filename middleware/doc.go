// Package middleware adapts a goSession.Engine to net/http.
//
// # Filters
//
//   - [Protect] runs on every request. Mutating requests must carry an Origin
//     whose host equals the request Host or they are rejected with a bare 403
//     before any handler runs. Safe requests that carry a session cookie get
//     its max-age refreshed.
//   - [RequireSession] guards routes that need a signed-in user and answers
//     401 when the cookie does not resolve to a live session.
//
// Cookie access goes through the narrow [CookieJar] interface, so
// [ValidateRequest] and [SessionCookie] work with any HTTP framework.
//
// This package makes no authentication decisions of its own; everything is
// delegated to the engine.
package middleware
