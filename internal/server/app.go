package server

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"moodlist/internal/models"
	"moodlist/internal/repositories"
	"moodlist/internal/services"
	"moodlist/internal/shared"
	"moodlist/internal/tasks"
)

//go:embed templates/*.html
var templateFiles embed.FS

// BuilderFactory constructs a build pipeline bound to one user's session.
// The factory indirection lets handler tests substitute a fake builder.
type BuilderFactory func(session *models.Session) (tasks.Builder, error)

// CatalogFactory constructs a catalog client bound to one user's session,
// used for the read-only playlist and profile endpoints.
type CatalogFactory func(session *models.Session) (services.Catalog, error)

// AppHandler serves the web application: login, OAuth callback, the prompt
// form, and the build endpoint. Implements [Handler].
type AppHandler struct {
	logger   *log.Logger
	sessions *repositories.SessionRepository
	oauth    services.OAuthService
	builders BuilderFactory
	catalogs CatalogFactory

	templates *template.Template

	mu       sync.Mutex
	states   map[string]string // state token -> username
	inflight map[string]bool   // usernames with a build running
}

// NewAppHandler creates the web application handler.
func NewAppHandler(logger *log.Logger, sessions *repositories.SessionRepository, oauth services.OAuthService, builders BuilderFactory, catalogs CatalogFactory) (*AppHandler, error) {
	tmpl, err := template.ParseFS(templateFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	return &AppHandler{
		logger:    logger,
		sessions:  sessions,
		oauth:     oauth,
		builders:  builders,
		catalogs:  catalogs,
		templates: tmpl,
		states:    make(map[string]string),
		inflight:  make(map[string]bool),
	}, nil
}

// Routes returns the HTTP routes this handler serves.
func (h *AppHandler) Routes() []string {
	return []string{"/", "/login", "/callback", "/logout", "/build", "/playlists", "/profile"}
}

// ServeHTTP dispatches requests to the route handlers.
func (h *AppHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/":
		h.handleIndex(w, r)
	case "/login":
		h.handleLogin(w, r)
	case "/callback":
		h.handleCallback(w, r)
	case "/logout":
		h.handleLogout(w, r)
	case "/build":
		h.handleBuild(w, r)
	case "/playlists":
		h.handlePlaylists(w, r)
	case "/profile":
		h.handleProfile(w, r)
	default:
		http.NotFound(w, r)
	}
}

type indexData struct {
	User          string
	Authenticated bool
}

// handleIndex renders the prompt form. The user query parameter, when
// present and backed by a stored session, unlocks the build form.
func (h *AppHandler) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	data := indexData{User: r.URL.Query().Get("user")}
	if data.User != "" {
		if _, err := h.sessions.Get(data.User); err == nil {
			data.Authenticated = true
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		h.logger.Error("failed to render index", "error", err)
	}
}

// handleLogin starts the OAuth flow for a named user by redirecting to the
// provider's consent page.
func (h *AppHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	username := strings.TrimSpace(r.URL.Query().Get("user"))
	if username == "" {
		h.writeError(w, http.StatusBadRequest, fmt.Errorf("%w: user parameter is required", shared.ErrMissingArgument))
		return
	}

	state, err := shared.GenerateState()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err)
		return
	}

	h.mu.Lock()
	h.states[state] = username
	h.mu.Unlock()

	http.Redirect(w, r, h.oauth.GetAuthURL(state), http.StatusFound)
}

// handleCallback completes the OAuth flow: validates state, exchanges the
// code, and stores the session for the user who initiated the login.
func (h *AppHandler) handleCallback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	state := r.URL.Query().Get("state")

	h.mu.Lock()
	username, ok := h.states[state]
	delete(h.states, state)
	h.mu.Unlock()

	if !ok {
		h.writeError(w, http.StatusBadRequest, fmt.Errorf("%w: unknown state parameter", shared.ErrAuthFailed))
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		errParam := r.URL.Query().Get("error")
		h.writeError(w, http.StatusBadRequest, fmt.Errorf("%w: %s", shared.ErrAuthFailed, errParam))
		return
	}

	token, err := h.oauth.GetOAuthConfig().Exchange(r.Context(), code)
	if err != nil {
		h.writeError(w, http.StatusBadGateway, fmt.Errorf("%w: token exchange: %v", shared.ErrAuthFailed, err))
		return
	}

	if err := h.sessions.Save(models.NewSession(username, token)); err != nil {
		h.writeError(w, http.StatusInternalServerError, err)
		return
	}

	h.logger.Info("user authenticated", "user", username)
	http.Redirect(w, r, "/?user="+url.QueryEscape(username), http.StatusFound)
}

// handleLogout deletes the user's stored session and returns to the login form.
func (h *AppHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseForm(); err != nil {
		h.writeError(w, http.StatusBadRequest, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err))
		return
	}

	username := strings.TrimSpace(r.PostFormValue("user"))
	if username == "" {
		h.writeError(w, http.StatusBadRequest, fmt.Errorf("%w: user is required", shared.ErrMissingArgument))
		return
	}

	if err := h.sessions.Delete(username); err != nil {
		if errors.Is(err, shared.ErrSessionNotFound) {
			h.writeError(w, http.StatusNotFound, err)
			return
		}
		h.writeError(w, http.StatusInternalServerError, err)
		return
	}

	h.logger.Info("user logged out", "user", username)
	http.Redirect(w, r, "/", http.StatusFound)
}

type buildRequest struct {
	User        string `json:"user"`
	Prompt      string `json:"prompt"`
	PlaylistID  string `json:"playlist_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// handleBuild runs the prompt-to-playlist pipeline for one user.
//
// A user can only run one build at a time; concurrent requests get a 409.
func (h *AppHandler) handleBuild(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	req, err := parseBuildRequest(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	session, err := h.sessions.Get(req.User)
	if err != nil {
		h.writeError(w, http.StatusUnauthorized, err)
		return
	}

	if !h.tryAcquire(req.User) {
		h.writeError(w, http.StatusConflict, fmt.Errorf("%w: a build is already running for %s", shared.ErrSessionBusy, req.User))
		return
	}
	defer h.release(req.User)

	builder, err := h.builders(session)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err)
		return
	}

	target := models.PlaylistTarget{
		PlaylistID:  req.PlaylistID,
		Name:        req.Name,
		Description: req.Description,
	}

	result, err := builder.Build(r.Context(), nil, req.Prompt, target)
	if err != nil {
		h.logger.Error("build failed", "user", req.User, "error", err)
		h.writeError(w, buildStatus(err), err)
		return
	}

	h.logger.Info("build finished", "user", req.User, "playlist", result.PlaylistID, "added", result.Added, "skipped", result.Skipped)
	h.writeJSON(w, http.StatusOK, result)
}

// handlePlaylists lists the user's playlists from the catalog.
func (h *AppHandler) handlePlaylists(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	catalog, session, ok := h.userCatalog(w, r)
	if !ok {
		return
	}

	playlists, err := catalog.UserPlaylists(r.Context())
	if err != nil {
		h.writeError(w, buildStatus(err), err)
		return
	}

	h.logger.Debug("listed playlists", "user", session.Username, "count", len(playlists))
	h.writeJSON(w, http.StatusOK, playlists)
}

// handleProfile returns the user's catalog profile.
func (h *AppHandler) handleProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	catalog, _, ok := h.userCatalog(w, r)
	if !ok {
		return
	}

	profile, err := catalog.Profile(r.Context())
	if err != nil {
		h.writeError(w, buildStatus(err), err)
		return
	}

	if taste, ok := catalog.(services.TasteSource); ok {
		data := profileData{UserProfile: profile}
		if data.TopArtists, err = taste.TopArtists(r.Context(), topItemsLimit); err != nil {
			h.logger.Warn("failed to load top artists", "error", err)
		}
		if data.TopTracks, err = taste.TopTracks(r.Context(), topItemsLimit); err != nil {
			h.logger.Warn("failed to load top tracks", "error", err)
		}
		h.writeJSON(w, http.StatusOK, data)
		return
	}

	h.writeJSON(w, http.StatusOK, profile)
}

// topItemsLimit caps the listening stats attached to the profile response.
const topItemsLimit = 10

// profileData is the profile response when the catalog can report listening
// habits.
type profileData struct {
	*models.UserProfile
	TopArtists []services.SpotifyArtist `json:"top_artists,omitempty"`
	TopTracks  []services.SpotifyTrack  `json:"top_tracks,omitempty"`
}

// userCatalog resolves the user query parameter to a session-bound catalog
// client, writing the error response itself when that fails.
func (h *AppHandler) userCatalog(w http.ResponseWriter, r *http.Request) (services.Catalog, *models.Session, bool) {
	username := strings.TrimSpace(r.URL.Query().Get("user"))
	if username == "" {
		h.writeError(w, http.StatusBadRequest, fmt.Errorf("%w: user parameter is required", shared.ErrMissingArgument))
		return nil, nil, false
	}

	session, err := h.sessions.Get(username)
	if err != nil {
		h.writeError(w, http.StatusUnauthorized, err)
		return nil, nil, false
	}

	catalog, err := h.catalogs(session)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err)
		return nil, nil, false
	}

	return catalog, session, true
}

func parseBuildRequest(r *http.Request) (*buildRequest, error) {
	var req buildRequest

	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
		}
	} else {
		if err := r.ParseForm(); err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
		}
		req.User = r.PostFormValue("user")
		req.Prompt = r.PostFormValue("prompt")
		req.PlaylistID = r.PostFormValue("playlist_id")
		req.Name = r.PostFormValue("name")
		req.Description = r.PostFormValue("description")
	}

	req.User = strings.TrimSpace(req.User)
	if req.User == "" {
		return nil, fmt.Errorf("%w: user is required", shared.ErrMissingArgument)
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, fmt.Errorf("%w: prompt is required", shared.ErrMissingArgument)
	}

	return &req, nil
}

// buildStatus maps pipeline errors to HTTP status codes.
func buildStatus(err error) int {
	switch {
	case errors.Is(err, shared.ErrInvalidInput), errors.Is(err, shared.ErrMissingArgument):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrSessionNotFound), errors.Is(err, shared.ErrAuthExpired),
		errors.Is(err, shared.ErrRefreshFailed), errors.Is(err, shared.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, shared.ErrNoResolvableTracks):
		return http.StatusUnprocessableEntity
	case errors.Is(err, shared.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, shared.ErrGenerationFailed), errors.Is(err, shared.ErrEmptySuggestions),
		errors.Is(err, shared.ErrServiceUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, shared.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (h *AppHandler) tryAcquire(username string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.inflight[username] {
		return false
	}
	h.inflight[username] = true
	return true
}

func (h *AppHandler) release(username string) {
	h.mu.Lock()
	delete(h.inflight, username)
	h.mu.Unlock()
}

func (h *AppHandler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *AppHandler) writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

// Serve runs an HTTP server for the handler until ctx is cancelled, then
// shuts down gracefully.
func Serve(ctx context.Context, logger *log.Logger, addr string, handler http.Handler) error {
	srv := &http.Server{Addr: addr, Handler: handler}

	errChan := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
