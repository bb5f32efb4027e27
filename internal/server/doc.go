// Package server provides HTTP routing, middleware, and the web application
// handlers for the playlist builder.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
// [RequestLogger] and [Recoverer] are the stock middleware.
//
// # OAuth Handling
//
// Two callback paths exist for the two entry points:
//
// [OAuthHandler] serves the CLI's one-shot flow: a temporary server on
// localhost handles a single callback, validates the state parameter,
// exchanges the code, and delivers the token over a channel before the
// server shuts down.
//
// [AppHandler] serves the web flow: /login records a state token mapped to
// the requesting username and redirects to the consent page, /callback
// exchanges the code and persists the session row for that username.
//
// # Build Endpoint
//
// POST /build runs the full prompt-to-playlist pipeline synchronously and
// returns the build result as JSON. Each user gets at most one concurrent
// build; overlapping requests receive 409 Conflict. Pipeline errors map to
// status codes via their sentinel identity: generation failures are 502,
// an unresolvable suggestion set is 422, expired credentials are 401.
package server
