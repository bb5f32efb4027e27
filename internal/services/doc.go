// Package services implements the clients for both external systems: the
// Gemini suggestion generator and the Spotify catalog.
//
// # Interfaces
//
// The build pipeline depends on three small interfaces rather than concrete
// clients, so tests can substitute fakes:
//   - [SuggestionGenerator] : free-text prompt in, (artist, title) pairs out
//   - [Catalog] : track search and batched playlist writes
//   - [TokenRefresher] : access token rotation via the stored refresh token
//
// # Spotify Implementation
//
// [SpotifyService] uses OAuth2 for authentication, refreshes expired tokens
// ahead of each call, and reports rotated tokens through [SpotifyService.OnToken]
// so the session store stays current.
//
// # Gemini Implementation
//
// [GeminiService] calls the generateContent REST endpoint and parses the
// plain-text response with [ParseSuggestions]. The model is asked for one
// "Artist - Title" line per suggestion; decorated or malformed lines are
// dropped rather than guessed at.
//
// # Error Handling
//
// Services use typed errors from the shared package:
//   - [shared.ErrGenerationFailed] : the AI endpoint failed or timed out
//   - [shared.ErrEmptySuggestions] : the response parsed to zero suggestions
//   - [shared.ErrAuthExpired] : the catalog rejected the access token
//   - [shared.ErrNotFound] : a catalog search returned no results
//   - [shared.ErrRateLimited] : the catalog asked the client to back off
package services
