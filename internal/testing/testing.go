// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"net/http"
	"os"
	"testing"

	"moodlist/internal/models"
	"moodlist/internal/tasks"
)

// MockGenerator is a test double for [services.SuggestionGenerator]
type MockGenerator struct {
	Suggestions []models.Suggestion
	Err         error
}

func (m *MockGenerator) Generate(ctx context.Context, prompt string, maxItems int) ([]models.Suggestion, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if len(m.Suggestions) > maxItems {
		return m.Suggestions[:maxItems], nil
	}
	return m.Suggestions, nil
}

// MockCatalog is a test double for [services.Catalog]
type MockCatalog struct {
	Hits      map[string][]models.CatalogHit // keyed "title|artist"
	Playlists []models.Playlist
	User      *models.UserProfile
	Err       error
}

func (m *MockCatalog) Search(ctx context.Context, title, artist string) ([]models.CatalogHit, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if hits, ok := m.Hits[title+"|"+artist]; ok {
		return hits, nil
	}
	return nil, errors.New("not found")
}

func (m *MockCatalog) MutatePlaylist(ctx context.Context, target models.PlaylistTarget, trackIDs []string) (*models.Playlist, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return &models.Playlist{ID: "mock_playlist", TrackCount: len(trackIDs)}, nil
}

func (m *MockCatalog) UserPlaylists(ctx context.Context) ([]models.Playlist, error) {
	return m.Playlists, m.Err
}

func (m *MockCatalog) Profile(ctx context.Context) (*models.UserProfile, error) {
	return m.User, m.Err
}

// MockBuilder is a test double for [tasks.Builder]
type MockBuilder struct {
	Result *models.BuildResult
	Err    error
}

func (m *MockBuilder) Build(ctx context.Context, progress chan<- tasks.ProgressUpdate, prompt string, target models.PlaylistTarget) (*models.BuildResult, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Result, nil
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
