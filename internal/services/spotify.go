// Spotify API implementation of [Catalog]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"moodlist/internal/models"
	"moodlist/internal/shared"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"
)

// addTrackBatchSize is the Spotify API's maximum number of URIs per add call.
const addTrackBatchSize = 100

// maxDescriptionLength is the Spotify API's playlist description limit.
const maxDescriptionLength = 300

// maxPlaylistNameLength keeps generated names readable in the Spotify UI.
const maxPlaylistNameLength = 90

type externalURLs struct {
	Spotify string `json:"spotify"`
}

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID           string       `json:"id"`
	DisplayName  string       `json:"display_name"`
	Email        string       `json:"email"`
	Country      string       `json:"country"`
	ExternalURLs externalURLs `json:"external_urls"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Genres []string `json:"genres"`
	URI    string   `json:"uri"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ReleaseDate string `json:"release_date"`
	URI         string `json:"uri"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []SpotifyArtist `json:"artists"`
	Album      SpotifyAlbum    `json:"album"`
	DurationMS int             `json:"duration_ms"`
	Popularity int             `json:"popularity"`
	URI        string          `json:"uri"`
}

type playlistTracksRef struct {
	Total int `json:"total"`
}

// SpotifyPlaylist represents a Spotify playlist.
type SpotifyPlaylist struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Description  string            `json:"description"`
	Public       bool              `json:"public"`
	Tracks       playlistTracksRef `json:"tracks"`
	ExternalURLs externalURLs      `json:"external_urls"`
	URI          string            `json:"uri"`
}

// SpotifyPaginatedPlaylists represents a paginated response of playlists.
type SpotifyPaginatedPlaylists struct {
	Items  []SpotifyPlaylist `json:"items"`
	Total  int               `json:"total"`
	Limit  int               `json:"limit"`
	Offset int               `json:"offset"`
	Next   *string           `json:"next"`
}

type searchResponse struct {
	Tracks struct {
		Items []SpotifyTrack `json:"items"`
		Total int            `json:"total"`
	} `json:"tracks"`
}

// SpotifyService implements [Catalog], [TokenRefresher], and [OAuthService]
// against the Spotify Web API. Uses [oauth2] for authentication.
type SpotifyService struct {
	config      *oauth2.Config
	token       *oauth2.Token
	httpClient  *http.Client
	credentials map[string]string
	baseURL     string
	searchLimit int
	onToken     func(*oauth2.Token) error
}

// NewSpotifyService creates a new Spotify service with the given OAuth2 credentials.
func NewSpotifyService(credentials map[string]string) (*SpotifyService, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("%w: client_id", shared.ErrMissingCredentials)
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, fmt.Errorf("%w: client_secret", shared.ErrMissingCredentials)
	}

	redirectURI, ok := credentials["redirect_uri"]
	if !ok || redirectURI == "" {
		redirectURI = "http://127.0.0.1:3000/callback"
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes: []string{
			"user-read-private",
			"user-read-email",
			"user-top-read",
			"playlist-read-private",
			"playlist-modify-public",
			"playlist-modify-private",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	return &SpotifyService{
		config:      config,
		httpClient:  http.DefaultClient,
		credentials: credentials,
		baseURL:     spotifyBaseURL,
		searchLimit: 5,
	}, nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// GetAuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyService) GetAuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// GetOAuthConfig exposes the OAuth2 configuration for callback handling.
func (s *SpotifyService) GetOAuthConfig() *oauth2.Config {
	return s.config
}

// Authenticate installs a previously obtained token on the client.
func (s *SpotifyService) Authenticate(ctx context.Context, token *oauth2.Token) error {
	if token == nil || token.AccessToken == "" {
		return fmt.Errorf("%w: empty token", shared.ErrAuthFailed)
	}
	s.token = token
	return nil
}

// SetSearchLimit overrides the number of candidate hits a search requests.
func (s *SpotifyService) SetSearchLimit(limit int) {
	if limit > 0 {
		s.searchLimit = limit
	}
}

// OnToken registers a callback invoked with every rotated token, so the
// caller can persist it.
func (s *SpotifyService) OnToken(fn func(*oauth2.Token) error) {
	s.onToken = fn
}

// Refresh exchanges the current refresh token for a new access token.
func (s *SpotifyService) Refresh(ctx context.Context) (*oauth2.Token, error) {
	if s.token == nil {
		return nil, shared.ErrNotAuthenticated
	}
	if s.token.RefreshToken == "" {
		return nil, shared.ErrNoRefreshToken
	}

	source := s.config.TokenSource(ctx, &oauth2.Token{RefreshToken: s.token.RefreshToken})
	token, err := source.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}

	// Spotify omits the refresh token from rotation responses; keep the old one.
	if token.RefreshToken == "" {
		token.RefreshToken = s.token.RefreshToken
	}
	s.token = token

	if s.onToken != nil {
		if err := s.onToken(token); err != nil {
			return nil, fmt.Errorf("failed to persist rotated token: %w", err)
		}
	}

	return token, nil
}

// ensureFresh refreshes the token ahead of a call when it is already expired.
func (s *SpotifyService) ensureFresh(ctx context.Context) error {
	if s.token == nil {
		return shared.ErrNotAuthenticated
	}
	if s.token.Valid() || s.token.RefreshToken == "" {
		return nil
	}
	_, err := s.Refresh(ctx)
	return err
}

// doRequest performs an authenticated HTTP request to the Spotify API.
func (s *SpotifyService) doRequest(ctx context.Context, method, endpoint string, body interface{}, result interface{}) error {
	if s.token == nil {
		return fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)
	}

	apiURL := s.baseURL + endpoint

	var reqBody *bytes.Buffer
	if body != nil {
		reqBody = &bytes.Buffer{}
		if err := json.NewEncoder(reqBody).Encode(body); err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	var req *http.Request
	var err error
	if reqBody != nil {
		req, err = http.NewRequestWithContext(ctx, method, apiURL, reqBody)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, apiURL, nil)
	}
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.token.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: status %d", shared.ErrAuthExpired, resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", shared.ErrNotFound, endpoint)
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: retry-after %s", shared.ErrRateLimited, resp.Header.Get("Retry-After"))
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("%w: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// Search looks up a track by title and artist and returns candidate hits in
// Spotify's relevance order.
func (s *SpotifyService) Search(ctx context.Context, title, artist string) ([]models.CatalogHit, error) {
	if err := s.ensureFresh(ctx); err != nil {
		return nil, err
	}

	query := fmt.Sprintf("track:%q artist:%q", title, artist)
	endpoint := fmt.Sprintf("/search?q=%s&type=track&limit=%d", url.QueryEscape(query), s.searchLimit)

	var response searchResponse
	if err := s.doRequest(ctx, "GET", endpoint, nil, &response); err != nil {
		return nil, err
	}

	if len(response.Tracks.Items) == 0 {
		return nil, fmt.Errorf("%w: no results for %s - %s", shared.ErrNotFound, artist, title)
	}

	hits := make([]models.CatalogHit, 0, len(response.Tracks.Items))
	for _, item := range response.Tracks.Items {
		hit := models.CatalogHit{
			ID:         item.ID,
			URI:        item.URI,
			Title:      item.Name,
			Album:      item.Album.Name,
			Popularity: item.Popularity,
		}
		if len(item.Artists) > 0 {
			hit.Artist = item.Artists[0].Name
		}
		hits = append(hits, hit)
	}

	return hits, nil
}

// Profile retrieves the current authenticated user's profile.
func (s *SpotifyService) Profile(ctx context.Context) (*models.UserProfile, error) {
	if err := s.ensureFresh(ctx); err != nil {
		return nil, err
	}

	var user SpotifyUser
	if err := s.doRequest(ctx, "GET", "/me", nil, &user); err != nil {
		return nil, err
	}

	return &models.UserProfile{
		ID:          user.ID,
		DisplayName: user.DisplayName,
		URL:         user.ExternalURLs.Spotify,
	}, nil
}

// UserPlaylists retrieves all playlists for the authenticated user.
func (s *SpotifyService) UserPlaylists(ctx context.Context) ([]models.Playlist, error) {
	if err := s.ensureFresh(ctx); err != nil {
		return nil, err
	}

	var allPlaylists []models.Playlist
	limit := 50
	offset := 0

	for {
		endpoint := fmt.Sprintf("/me/playlists?limit=%d&offset=%d", limit, offset)

		var response SpotifyPaginatedPlaylists
		if err := s.doRequest(ctx, "GET", endpoint, nil, &response); err != nil {
			return nil, err
		}

		for _, sp := range response.Items {
			allPlaylists = append(allPlaylists, models.Playlist{
				ID:          sp.ID,
				Name:        sp.Name,
				Description: sp.Description,
				URL:         sp.ExternalURLs.Spotify,
				TrackCount:  sp.Tracks.Total,
				Public:      sp.Public,
			})
		}

		if response.Next == nil {
			break
		}
		offset += limit
	}

	return allPlaylists, nil
}

// TopArtists retrieves the user's most listened artists.
func (s *SpotifyService) TopArtists(ctx context.Context, limit int) ([]SpotifyArtist, error) {
	if err := s.ensureFresh(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 50 {
		limit = 20
	}

	var response struct {
		Items []SpotifyArtist `json:"items"`
	}
	endpoint := fmt.Sprintf("/me/top/artists?limit=%d", limit)
	if err := s.doRequest(ctx, "GET", endpoint, nil, &response); err != nil {
		return nil, err
	}

	return response.Items, nil
}

// TopTracks retrieves the user's most listened tracks.
func (s *SpotifyService) TopTracks(ctx context.Context, limit int) ([]SpotifyTrack, error) {
	if err := s.ensureFresh(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 50 {
		limit = 20
	}

	var response struct {
		Items []SpotifyTrack `json:"items"`
	}
	endpoint := fmt.Sprintf("/me/top/tracks?limit=%d", limit)
	if err := s.doRequest(ctx, "GET", endpoint, nil, &response); err != nil {
		return nil, err
	}

	return response.Items, nil
}

// Playlist retrieves a playlist by ID.
func (s *SpotifyService) Playlist(ctx context.Context, playlistID string) (*models.Playlist, error) {
	if err := s.ensureFresh(ctx); err != nil {
		return nil, err
	}

	var sp SpotifyPlaylist
	endpoint := fmt.Sprintf("/playlists/%s", playlistID)
	if err := s.doRequest(ctx, "GET", endpoint, nil, &sp); err != nil {
		return nil, err
	}

	return &models.Playlist{
		ID:          sp.ID,
		Name:        sp.Name,
		Description: sp.Description,
		URL:         sp.ExternalURLs.Spotify,
		TrackCount:  sp.Tracks.Total,
		Public:      sp.Public,
	}, nil
}

// CreatePlaylist creates a new private playlist for the authenticated user.
func (s *SpotifyService) CreatePlaylist(ctx context.Context, name, description string) (*models.Playlist, error) {
	if err := s.ensureFresh(ctx); err != nil {
		return nil, err
	}

	var user SpotifyUser
	if err := s.doRequest(ctx, "GET", "/me", nil, &user); err != nil {
		return nil, err
	}

	body := map[string]interface{}{
		"name":        CleanPlaylistName(name),
		"description": TruncateDescription(description),
		"public":      false,
	}

	var sp SpotifyPlaylist
	endpoint := fmt.Sprintf("/users/%s/playlists", url.PathEscape(user.ID))
	if err := s.doRequest(ctx, "POST", endpoint, body, &sp); err != nil {
		return nil, err
	}

	return &models.Playlist{
		ID:          sp.ID,
		Name:        sp.Name,
		Description: sp.Description,
		URL:         sp.ExternalURLs.Spotify,
		Public:      sp.Public,
	}, nil
}

// AddTracks appends track URIs to a playlist in batches of at most 100.
func (s *SpotifyService) AddTracks(ctx context.Context, playlistID string, uris []string) error {
	if err := s.ensureFresh(ctx); err != nil {
		return err
	}

	endpoint := fmt.Sprintf("/playlists/%s/tracks", playlistID)
	for start := 0; start < len(uris); start += addTrackBatchSize {
		end := start + addTrackBatchSize
		if end > len(uris) {
			end = len(uris)
		}

		body := map[string]interface{}{"uris": uris[start:end]}
		if err := s.doRequest(ctx, "POST", endpoint, body, nil); err != nil {
			return err
		}
	}

	return nil
}

// MutatePlaylist creates the target playlist if requested and appends the
// given track ids as one batched write.
func (s *SpotifyService) MutatePlaylist(ctx context.Context, target models.PlaylistTarget, trackIDs []string) (*models.Playlist, error) {
	var playlist *models.Playlist
	var err error

	if target.IsNew() {
		name := target.Name
		if strings.TrimSpace(name) == "" {
			name = fmt.Sprintf("Moodlist %s", time.Now().Format("2006-01-02"))
		}
		playlist, err = s.CreatePlaylist(ctx, name, target.Description)
	} else {
		playlist, err = s.Playlist(ctx, target.PlaylistID)
	}
	if err != nil {
		return nil, err
	}

	uris := make([]string, 0, len(trackIDs))
	for _, id := range trackIDs {
		uris = append(uris, "spotify:track:"+id)
	}

	if err := s.AddTracks(ctx, playlist.ID, uris); err != nil {
		return nil, err
	}

	playlist.TrackCount += len(trackIDs)
	return playlist, nil
}

// CleanPlaylistName strips characters Spotify rejects or renders badly and
// caps the name length. Falls back to a dated name when nothing survives.
func CleanPlaylistName(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '<', '>', ':', '"', '/', '\\', '|', '?', '*':
			return -1
		}
		return r
	}, name)

	cleaned = strings.Join(strings.Fields(cleaned), " ")

	if cleaned == "" {
		return fmt.Sprintf("Moodlist %s", time.Now().Format("2006-01-02"))
	}

	runes := []rune(cleaned)
	if len(runes) > maxPlaylistNameLength {
		cleaned = strings.TrimSpace(string(runes[:maxPlaylistNameLength]))
	}

	return cleaned
}

// TruncateDescription caps a playlist description at the API limit.
func TruncateDescription(description string) string {
	runes := []rune(description)
	if len(runes) <= maxDescriptionLength {
		return description
	}
	return string(runes[:maxDescriptionLength])
}
