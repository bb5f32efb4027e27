package models

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// Confidence describes how well a suggestion matched a catalog hit.
type Confidence int

const (
	ConfidenceUnresolved Confidence = iota
	ConfidenceFuzzy
	ConfidenceExact
)

func (c Confidence) String() string {
	switch c {
	case ConfidenceExact:
		return "exact"
	case ConfidenceFuzzy:
		return "fuzzy"
	default:
		return "unresolved"
	}
}

// Suggestion is a single (artist, title) candidate produced by the suggestion generator.
// Ephemeral; never persisted.
type Suggestion struct {
	Artist string `json:"artist"`
	Title  string `json:"title"`
}

func (s Suggestion) String() string {
	return fmt.Sprintf("%s - %s", s.Artist, s.Title)
}

// CatalogHit is a single track returned by a catalog search, in the catalog's
// own relevance order.
type CatalogHit struct {
	ID         string `json:"id"`
	URI        string `json:"uri"`
	Title      string `json:"title"`
	Artist     string `json:"artist"`
	Album      string `json:"album,omitempty"`
	Popularity int    `json:"popularity,omitempty"`
}

// ResolvedTrack is the outcome of matching one Suggestion against catalog
// search results. Suggestions that cannot be matched stay unresolved and are
// dropped from the playlist write, never fabricated.
type ResolvedTrack struct {
	Suggestion Suggestion `json:"suggestion"`
	CatalogID  string     `json:"catalog_id,omitempty"`
	URI        string     `json:"uri,omitempty"`
	Title      string     `json:"title,omitempty"`
	Artist     string     `json:"artist,omitempty"`
	Confidence Confidence `json:"confidence"`
}

// Resolved reports whether the suggestion matched a catalog track.
func (t ResolvedTrack) Resolved() bool {
	return t.Confidence != ConfidenceUnresolved && t.CatalogID != ""
}

// NewPlaylist is the sentinel playlist id requesting creation of a new playlist.
const NewPlaylist = "new"

// PlaylistTarget names the destination of a build: an existing playlist to
// append to, or a request to create one. Name and Description apply only when
// creating.
type PlaylistTarget struct {
	PlaylistID  string `json:"playlist_id"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
}

// IsNew reports whether the target requests playlist creation.
func (t PlaylistTarget) IsNew() bool {
	return t.PlaylistID == "" || t.PlaylistID == NewPlaylist
}

// Playlist represents a playlist owned by the remote catalog service.
// This system holds only a reference.
type Playlist struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`
	TrackCount  int    `json:"track_count"`
	Public      bool   `json:"public"`
}

// BuildResult is the user-facing outcome of one prompt-to-playlist run.
type BuildResult struct {
	PlaylistID  string          `json:"playlist_id"`
	PlaylistURL string          `json:"playlist_url,omitempty"`
	Added       int             `json:"added"`
	Skipped     int             `json:"skipped"`
	Tracks      []ResolvedTrack `json:"tracks,omitempty"`
}

// UserProfile is the catalog service's view of the authenticated user.
type UserProfile struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	URL         string `json:"url,omitempty"`
}

// Session is one user's credential pair for the catalog service.
// Created at OAuth callback, refreshed on expiry, deleted at logout.
type Session struct {
	Username     string    `json:"username"`
	AccessToken  string    `json:"-"`
	RefreshToken string    `json:"-"`
	TokenType    string    `json:"-"`
	Expiry       time.Time `json:"expiry"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewSession builds a Session from an OAuth token exchange result.
func NewSession(username string, token *oauth2.Token) *Session {
	now := time.Now()
	return &Session{
		Username:     username,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    token.TokenType,
		Expiry:       token.Expiry,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Token converts the session back into an [oauth2.Token].
func (s *Session) Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		TokenType:    s.TokenType,
		Expiry:       s.Expiry,
	}
}

// Expired reports whether the access token is past (or within a minute of) its expiry.
func (s *Session) Expired() bool {
	if s.Expiry.IsZero() {
		return false
	}
	return time.Now().After(s.Expiry.Add(-time.Minute))
}

// Validate checks the session's required fields.
func (s *Session) Validate() error {
	if strings.TrimSpace(s.Username) == "" {
		return fmt.Errorf("session username is required")
	}
	if s.AccessToken == "" {
		return fmt.Errorf("session access token is required")
	}
	return nil
}
