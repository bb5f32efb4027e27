// Package repositories implements SQLite persistence for the session store.
//
// Sessions are the only state this application keeps: one row per username
// holding that user's access and refresh tokens. Playlists, tracks, and
// suggestions are never cached locally; the remote service owns them.
//
// Key Implementations:
//   - [SessionRepository] : token persistence keyed by username, where
//     re-authentication replaces the existing row
package repositories
