// package services defines the interfaces for the two external dependencies:
// the suggestion generator (Gemini) and the music catalog (Spotify)
package services

import (
	"context"

	"golang.org/x/oauth2"
	"moodlist/internal/models"
)

// SuggestionGenerator produces track suggestions from a free-text mood prompt.
type SuggestionGenerator interface {
	// Generate asks the model for up to maxItems suggestions matching the prompt.
	// Returns [shared.ErrGenerationFailed] when the endpoint cannot be reached
	// or answers with an error, and [shared.ErrEmptySuggestions] when the
	// response parses to zero usable lines.
	Generate(ctx context.Context, prompt string, maxItems int) ([]models.Suggestion, error)
}

// Catalog is the music service a build resolves suggestions against and
// writes playlists to.
type Catalog interface {
	// Search looks a suggested track up in the catalog and returns candidate
	// hits in the catalog's relevance order. Returns [shared.ErrNotFound]
	// when the catalog has no results at all.
	Search(ctx context.Context, title, artist string) ([]models.CatalogHit, error)

	// MutatePlaylist creates the target playlist if requested and appends the
	// given track ids in a single batched operation.
	MutatePlaylist(ctx context.Context, target models.PlaylistTarget, trackIDs []string) (*models.Playlist, error)

	// UserPlaylists retrieves the authenticated user's playlists.
	UserPlaylists(ctx context.Context) ([]models.Playlist, error)

	// Profile retrieves the authenticated user's profile.
	Profile(ctx context.Context) (*models.UserProfile, error)
}

// TasteSource reports the user's listening habits. Optional extension of
// [Catalog]; surfaces that want stats check for it with a type assertion.
type TasteSource interface {
	// TopArtists retrieves the user's most listened artists.
	TopArtists(ctx context.Context, limit int) ([]SpotifyArtist, error)

	// TopTracks retrieves the user's most listened tracks.
	TopTracks(ctx context.Context, limit int) ([]SpotifyTrack, error)
}

// TokenRefresher rotates an expired access token using its refresh token.
// A catalog client that also refreshes implements both interfaces.
type TokenRefresher interface {
	// Refresh exchanges the refresh token for a new access token and returns
	// the rotated token. Returns [shared.ErrRefreshFailed] when the grant is
	// revoked or the exchange fails.
	Refresh(ctx context.Context) (*oauth2.Token, error)
}

// OAuthService is implemented by catalog clients that authenticate users via
// an OAuth authorization-code flow.
type OAuthService interface {
	// GetAuthURL returns the consent page URL carrying the given state token.
	GetAuthURL(state string) string

	// GetOAuthConfig exposes the underlying OAuth configuration for callback
	// handling.
	GetOAuthConfig() *oauth2.Config

	// Authenticate installs a token on the client for subsequent API calls.
	Authenticate(ctx context.Context, token *oauth2.Token) error
}
