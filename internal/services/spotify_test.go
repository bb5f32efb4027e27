package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/oauth2"
	"moodlist/internal/models"
	"moodlist/internal/shared"
)

func testCredentials() map[string]string {
	return map[string]string{
		"client_id":     "test_client_id",
		"client_secret": "test_client_secret",
		"redirect_uri":  "http://127.0.0.1:3000/callback",
	}
}

func testService(t *testing.T, handler http.Handler) (*SpotifyService, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	srv, err := NewSpotifyService(testCredentials())
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	srv.baseURL = server.URL

	token := &oauth2.Token{AccessToken: "test_access_token", Expiry: time.Now().Add(time.Hour)}
	if err := srv.Authenticate(context.Background(), token); err != nil {
		t.Fatalf("failed to authenticate: %v", err)
	}

	return srv, server
}

func TestSpotifyService(t *testing.T) {
	t.Run("NewSpotifyService", func(t *testing.T) {
		t.Run("With Valid Credentials", func(t *testing.T) {
			srv, err := NewSpotifyService(testCredentials())
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if srv.Name() != "Spotify" {
				t.Errorf("expected service name 'Spotify', got %s", srv.Name())
			}
		})

		t.Run("Missing Client ID", func(t *testing.T) {
			_, err := NewSpotifyService(map[string]string{"client_secret": "secret"})
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})

		t.Run("Missing Client Secret", func(t *testing.T) {
			_, err := NewSpotifyService(map[string]string{"client_id": "id"})
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})

		t.Run("Default Redirect URI", func(t *testing.T) {
			srv, err := NewSpotifyService(map[string]string{
				"client_id":     "id",
				"client_secret": "secret",
			})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if srv.config.RedirectURL != "http://127.0.0.1:3000/callback" {
				t.Errorf("expected default redirect URI, got %s", srv.config.RedirectURL)
			}
		})
	})

	t.Run("Get AuthURL", func(t *testing.T) {
		srv, err := NewSpotifyService(testCredentials())
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}

		authURL := srv.GetAuthURL("test_state")
		if !strings.Contains(authURL, "accounts.spotify.com") {
			t.Error("auth URL should contain Spotify domain")
		}
		if !strings.Contains(authURL, "test_state") {
			t.Error("auth URL should contain state")
		}
		if !strings.Contains(authURL, "playlist-modify-private") {
			t.Error("auth URL should request the playlist write scope")
		}
	})

	t.Run("Requires Authentication", func(t *testing.T) {
		srv, err := NewSpotifyService(testCredentials())
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}

		_, err = srv.Search(context.Background(), "Karma Police", "Radiohead")
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("Search", func(t *testing.T) {
		t.Run("Returns Hits In Order", func(t *testing.T) {
			srv, _ := testService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/search" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				if got := r.URL.Query().Get("type"); got != "track" {
					t.Errorf("expected type=track, got %s", got)
				}
				if got := r.URL.Query().Get("q"); !strings.Contains(got, "Radiohead") {
					t.Errorf("expected query to carry artist, got %s", got)
				}

				json.NewEncoder(w).Encode(map[string]any{
					"tracks": map[string]any{
						"items": []map[string]any{
							{
								"id":      "track1",
								"uri":     "spotify:track:track1",
								"name":    "Karma Police",
								"artists": []map[string]any{{"name": "Radiohead"}},
								"album":   map[string]any{"name": "OK Computer"},
							},
							{
								"id":      "track2",
								"uri":     "spotify:track:track2",
								"name":    "Karma Police - Live",
								"artists": []map[string]any{{"name": "Radiohead"}},
							},
						},
						"total": 2,
					},
				})
			}))

			hits, err := srv.Search(context.Background(), "Karma Police", "Radiohead")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if len(hits) != 2 {
				t.Fatalf("expected 2 hits, got %d", len(hits))
			}
			if hits[0].ID != "track1" || hits[0].Artist != "Radiohead" {
				t.Errorf("unexpected first hit %+v", hits[0])
			}
			if hits[0].Album != "OK Computer" {
				t.Errorf("expected album on first hit, got %s", hits[0].Album)
			}
		})

		t.Run("No Results", func(t *testing.T) {
			srv, _ := testService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string]any{
					"tracks": map[string]any{"items": []any{}, "total": 0},
				})
			}))

			_, err := srv.Search(context.Background(), "Nonexistent", "Nobody")
			if !errors.Is(err, shared.ErrNotFound) {
				t.Errorf("expected ErrNotFound, got %v", err)
			}
		})

		t.Run("Expired Token", func(t *testing.T) {
			srv, _ := testService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			}))

			_, err := srv.Search(context.Background(), "Karma Police", "Radiohead")
			if !errors.Is(err, shared.ErrAuthExpired) {
				t.Errorf("expected ErrAuthExpired, got %v", err)
			}
		})

		t.Run("Rate Limited", func(t *testing.T) {
			srv, _ := testService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Retry-After", "3")
				w.WriteHeader(http.StatusTooManyRequests)
			}))

			_, err := srv.Search(context.Background(), "Karma Police", "Radiohead")
			if !errors.Is(err, shared.ErrRateLimited) {
				t.Errorf("expected ErrRateLimited, got %v", err)
			}
		})
	})

	t.Run("Profile", func(t *testing.T) {
		srv, _ := testService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{
				"id":            "spotify_user",
				"display_name":  "Test User",
				"external_urls": map[string]string{"spotify": "https://open.spotify.com/user/spotify_user"},
			})
		}))

		profile, err := srv.Profile(context.Background())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if profile.ID != "spotify_user" || profile.DisplayName != "Test User" {
			t.Errorf("unexpected profile %+v", profile)
		}
	})

	t.Run("TopItems", func(t *testing.T) {
		srv, _ := testService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch {
			case strings.HasPrefix(r.URL.Path, "/me/top/artists"):
				if got := r.URL.Query().Get("limit"); got != "5" {
					t.Errorf("expected limit 5, got %s", got)
				}
				json.NewEncoder(w).Encode(map[string]any{
					"items": []map[string]any{{"id": "a1", "name": "Radiohead"}},
				})
			case strings.HasPrefix(r.URL.Path, "/me/top/tracks"):
				json.NewEncoder(w).Encode(map[string]any{
					"items": []map[string]any{{"id": "t1", "name": "Karma Police"}},
				})
			default:
				t.Errorf("unexpected path %s", r.URL.Path)
			}
		}))

		artists, err := srv.TopArtists(context.Background(), 5)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(artists) != 1 || artists[0].Name != "Radiohead" {
			t.Errorf("unexpected artists %+v", artists)
		}

		tracks, err := srv.TopTracks(context.Background(), 5)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(tracks) != 1 || tracks[0].Name != "Karma Police" {
			t.Errorf("unexpected tracks %+v", tracks)
		}
	})

	t.Run("MutatePlaylist", func(t *testing.T) {
		t.Run("Creates New Playlist", func(t *testing.T) {
			var createdName string
			var addedURIs []string

			srv, _ := testService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				switch {
				case r.URL.Path == "/me":
					json.NewEncoder(w).Encode(map[string]any{"id": "spotify_user"})
				case r.URL.Path == "/users/spotify_user/playlists":
					var body struct {
						Name   string `json:"name"`
						Public bool   `json:"public"`
					}
					json.NewDecoder(r.Body).Decode(&body)
					createdName = body.Name
					if body.Public {
						t.Error("created playlist should be private")
					}
					json.NewEncoder(w).Encode(map[string]any{"id": "new_playlist", "name": body.Name})
				case r.URL.Path == "/playlists/new_playlist/tracks":
					var body struct {
						URIs []string `json:"uris"`
					}
					json.NewDecoder(r.Body).Decode(&body)
					addedURIs = append(addedURIs, body.URIs...)
					json.NewEncoder(w).Encode(map[string]any{"snapshot_id": "snap"})
				default:
					t.Errorf("unexpected path %s", r.URL.Path)
					w.WriteHeader(http.StatusNotFound)
				}
			}))

			target := models.PlaylistTarget{PlaylistID: models.NewPlaylist, Name: "Rainy Day"}
			playlist, err := srv.MutatePlaylist(context.Background(), target, []string{"t1", "t2"})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if createdName != "Rainy Day" {
				t.Errorf("expected playlist name 'Rainy Day', got %s", createdName)
			}
			if len(addedURIs) != 2 || addedURIs[0] != "spotify:track:t1" {
				t.Errorf("unexpected added URIs %v", addedURIs)
			}
			if playlist.TrackCount != 2 {
				t.Errorf("expected track count 2, got %d", playlist.TrackCount)
			}
		})

		t.Run("Appends To Existing Playlist", func(t *testing.T) {
			var addCalls int

			srv, _ := testService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				switch {
				case r.URL.Path == "/playlists/existing" && r.Method == http.MethodGet:
					json.NewEncoder(w).Encode(map[string]any{
						"id":     "existing",
						"name":   "Old Favorites",
						"tracks": map[string]any{"total": 10},
					})
				case r.URL.Path == "/playlists/existing/tracks" && r.Method == http.MethodPost:
					addCalls++
					json.NewEncoder(w).Encode(map[string]any{"snapshot_id": "snap"})
				default:
					t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
				}
			}))

			target := models.PlaylistTarget{PlaylistID: "existing"}
			playlist, err := srv.MutatePlaylist(context.Background(), target, []string{"t1"})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if addCalls != 1 {
				t.Errorf("expected a single batched add call, got %d", addCalls)
			}
			if playlist.TrackCount != 11 {
				t.Errorf("expected track count 11, got %d", playlist.TrackCount)
			}
		})

		t.Run("Batches Large Track Lists", func(t *testing.T) {
			var batchSizes []int

			srv, _ := testService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				switch {
				case r.URL.Path == "/playlists/big" && r.Method == http.MethodGet:
					json.NewEncoder(w).Encode(map[string]any{"id": "big", "name": "Big"})
				case r.URL.Path == "/playlists/big/tracks":
					var body struct {
						URIs []string `json:"uris"`
					}
					json.NewDecoder(r.Body).Decode(&body)
					batchSizes = append(batchSizes, len(body.URIs))
					json.NewEncoder(w).Encode(map[string]any{"snapshot_id": "snap"})
				}
			}))

			ids := make([]string, 150)
			for i := range ids {
				ids[i] = fmt.Sprintf("t%d", i)
			}

			if _, err := srv.MutatePlaylist(context.Background(), models.PlaylistTarget{PlaylistID: "big"}, ids); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if len(batchSizes) != 2 || batchSizes[0] != 100 || batchSizes[1] != 50 {
				t.Errorf("expected batches [100 50], got %v", batchSizes)
			}
		})
	})

	t.Run("UserPlaylists Paginates", func(t *testing.T) {
		srv, _ := testService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			offset := r.URL.Query().Get("offset")
			if offset == "0" || offset == "" {
				json.NewEncoder(w).Encode(map[string]any{
					"items": []map[string]any{{"id": "p1", "name": "First"}},
					"next":  "http://" + r.Host + "/me/playlists?limit=50&offset=50",
				})
				return
			}
			json.NewEncoder(w).Encode(map[string]any{
				"items": []map[string]any{{"id": "p2", "name": "Second"}},
				"next":  nil,
			})
		}))

		playlists, err := srv.UserPlaylists(context.Background())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if len(playlists) != 2 || playlists[0].ID != "p1" || playlists[1].ID != "p2" {
			t.Errorf("unexpected playlists %+v", playlists)
		}
	})

	t.Run("Refresh", func(t *testing.T) {
		t.Run("Rotates And Persists Token", func(t *testing.T) {
			tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(map[string]any{
					"access_token": "rotated_access",
					"token_type":   "Bearer",
					"expires_in":   3600,
				})
			}))
			defer tokenServer.Close()

			srv, err := NewSpotifyService(testCredentials())
			if err != nil {
				t.Fatalf("failed to create service: %v", err)
			}
			srv.config.Endpoint = oauth2.Endpoint{TokenURL: tokenServer.URL}
			srv.token = &oauth2.Token{AccessToken: "stale", RefreshToken: "refresh_token"}

			var persisted *oauth2.Token
			srv.OnToken(func(tok *oauth2.Token) error {
				persisted = tok
				return nil
			})

			token, err := srv.Refresh(context.Background())
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if token.AccessToken != "rotated_access" {
				t.Errorf("expected rotated access token, got %s", token.AccessToken)
			}
			if token.RefreshToken != "refresh_token" {
				t.Error("expected refresh token to carry over when rotation omits it")
			}
			if persisted == nil || persisted.AccessToken != "rotated_access" {
				t.Error("expected rotated token to be persisted via callback")
			}
		})

		t.Run("Missing Refresh Token", func(t *testing.T) {
			srv, err := NewSpotifyService(testCredentials())
			if err != nil {
				t.Fatalf("failed to create service: %v", err)
			}
			srv.token = &oauth2.Token{AccessToken: "stale"}

			_, err = srv.Refresh(context.Background())
			if !errors.Is(err, shared.ErrNoRefreshToken) {
				t.Errorf("expected ErrNoRefreshToken, got %v", err)
			}
		})

		t.Run("Revoked Grant", func(t *testing.T) {
			tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				json.NewEncoder(w).Encode(map[string]string{"error": "invalid_grant"})
			}))
			defer tokenServer.Close()

			srv, err := NewSpotifyService(testCredentials())
			if err != nil {
				t.Fatalf("failed to create service: %v", err)
			}
			srv.config.Endpoint = oauth2.Endpoint{TokenURL: tokenServer.URL}
			srv.token = &oauth2.Token{AccessToken: "stale", RefreshToken: "revoked"}

			_, err = srv.Refresh(context.Background())
			if !errors.Is(err, shared.ErrRefreshFailed) {
				t.Errorf("expected ErrRefreshFailed, got %v", err)
			}
		})
	})
}

func TestCleanPlaylistName(t *testing.T) {
	tc := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "already clean",
			input: "Rainy Day Jazz",
			want:  "Rainy Day Jazz",
		},
		{
			name:  "strips forbidden characters",
			input: `Mood: "late/night" <vibes>?`,
			want:  "Mood latenight vibes",
		},
		{
			name:  "collapses whitespace",
			input: "  too   many   spaces  ",
			want:  "too many spaces",
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got := CleanPlaylistName(tt.input)
			if got != tt.want {
				t.Errorf("CleanPlaylistName() = %q, want %q", got, tt.want)
			}
		})
	}

	t.Run("caps long names", func(t *testing.T) {
		long := strings.Repeat("a", 200)
		got := CleanPlaylistName(long)
		if len([]rune(got)) != 90 {
			t.Errorf("expected 90 runes, got %d", len([]rune(got)))
		}
	})

	t.Run("empty input falls back to dated name", func(t *testing.T) {
		got := CleanPlaylistName("???")
		if !strings.HasPrefix(got, "Moodlist ") {
			t.Errorf("expected dated fallback, got %q", got)
		}
	})
}

func TestTruncateDescription(t *testing.T) {
	short := "a mellow evening mix"
	if got := TruncateDescription(short); got != short {
		t.Errorf("expected short description unchanged, got %q", got)
	}

	long := strings.Repeat("x", 400)
	if got := TruncateDescription(long); len([]rune(got)) != 300 {
		t.Errorf("expected 300 runes, got %d", len([]rune(got)))
	}
}
