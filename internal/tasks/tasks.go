// package tasks implements the prompt-to-playlist build pipeline.
//
// The core abstraction is BuildEngine, which orchestrates suggestion
// generation, catalog resolution, and the playlist write.
// Operations emit progress updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"moodlist/internal/models"
	"moodlist/internal/services"
	"moodlist/internal/shared"
)

// Builder defines the build operation, abstracted for handler tests.
type Builder interface {
	// Build runs the full pipeline: generate suggestions for the prompt,
	// resolve them against the catalog, and write the target playlist.
	Build(ctx context.Context, progress chan<- ProgressUpdate, prompt string, target models.PlaylistTarget) (*models.BuildResult, error)
}

// BuildEngine implements [Builder] over a suggestion generator and a catalog.
type BuildEngine struct {
	generator services.SuggestionGenerator
	catalog   services.Catalog
	refresher services.TokenRefresher
	limiter   *rate.Limiter

	maxItems         int
	generatorTimeout time.Duration
	catalogTimeout   time.Duration
}

// EngineOpts configures a [BuildEngine]. Generator and Catalog are required;
// everything else has defaults.
type EngineOpts struct {
	Generator services.SuggestionGenerator
	Catalog   services.Catalog

	// Refresher enables one token refresh-and-retry per build when the
	// catalog reports an expired token. Optional.
	Refresher services.TokenRefresher

	// MaxItems caps the suggestion count requested from the generator.
	MaxItems int

	// GeneratorTimeout and CatalogTimeout bound each external call.
	GeneratorTimeout time.Duration
	CatalogTimeout   time.Duration

	// SearchesPerSecond paces catalog searches.
	SearchesPerSecond float64
}

// NewBuildEngine creates a BuildEngine with the provided services.
func NewBuildEngine(opts EngineOpts) *BuildEngine {
	if opts.MaxItems <= 0 {
		opts.MaxItems = 15
	}
	if opts.GeneratorTimeout <= 0 {
		opts.GeneratorTimeout = 30 * time.Second
	}
	if opts.CatalogTimeout <= 0 {
		opts.CatalogTimeout = 15 * time.Second
	}
	if opts.SearchesPerSecond <= 0 {
		opts.SearchesPerSecond = 5
	}

	return &BuildEngine{
		generator:        opts.Generator,
		catalog:          opts.Catalog,
		refresher:        opts.Refresher,
		limiter:          rate.NewLimiter(rate.Limit(opts.SearchesPerSecond), 1),
		maxItems:         opts.MaxItems,
		generatorTimeout: opts.GeneratorTimeout,
		catalogTimeout:   opts.CatalogTimeout,
	}
}

// Build runs the full pipeline for one prompt.
//
// A generator failure aborts the run before any playlist mutation.
// Unresolvable suggestions are skipped, never fabricated, and duplicate
// resolutions collapse to a single track. The playlist write happens as one
// batched mutation at the end; when nothing resolves the catalog is not
// touched at all and [shared.ErrNoResolvableTracks] is returned.
func (e *BuildEngine) Build(ctx context.Context, progress chan<- ProgressUpdate, prompt string, target models.PlaylistTarget) (*models.BuildResult, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, fmt.Errorf("%w: empty prompt", shared.ErrInvalidInput)
	}

	refreshed := false

	sendUpdate(progress, generatingUpdate(prompt))

	suggestions, err := e.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	sendUpdate(progress, generatedUpdate(len(suggestions)))

	tracks := make([]models.ResolvedTrack, 0, len(suggestions))
	for i, suggestion := range suggestions {
		sendUpdate(progress, resolvingUpdate(i+1, len(suggestions), suggestion))

		track, err := e.resolve(ctx, &refreshed, suggestion)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, track)

		sendUpdate(progress, resolvedUpdate(i+1, len(suggestions), track))
	}

	trackIDs, skipped := collectTrackIDs(tracks)
	if len(trackIDs) == 0 {
		return nil, fmt.Errorf("%w: %d suggestions, none matched the catalog", shared.ErrNoResolvableTracks, len(suggestions))
	}

	sendUpdate(progress, writingUpdate(len(trackIDs)))

	var playlist *models.Playlist
	err = e.withAuthRetry(ctx, &refreshed, func(callCtx context.Context) error {
		var mutateErr error
		playlist, mutateErr = e.catalog.MutatePlaylist(callCtx, target, trackIDs)
		return mutateErr
	})
	if err != nil {
		return nil, err
	}

	sendUpdate(progress, writtenUpdate(playlist))

	return &models.BuildResult{
		PlaylistID:  playlist.ID,
		PlaylistURL: playlist.URL,
		Added:       len(trackIDs),
		Skipped:     skipped,
		Tracks:      tracks,
	}, nil
}

func (e *BuildEngine) generate(ctx context.Context, prompt string) ([]models.Suggestion, error) {
	genCtx, cancel := context.WithTimeout(ctx, e.generatorTimeout)
	defer cancel()

	return e.generator.Generate(genCtx, prompt, e.maxItems)
}

// resolve searches the catalog for one suggestion and picks the best hit.
//
// A search miss leaves the suggestion unresolved; any other catalog failure
// aborts the build.
func (e *BuildEngine) resolve(ctx context.Context, refreshed *bool, suggestion models.Suggestion) (models.ResolvedTrack, error) {
	track := models.ResolvedTrack{Suggestion: suggestion, Confidence: models.ConfidenceUnresolved}

	if err := e.limiter.Wait(ctx); err != nil {
		return track, err
	}

	var hits []models.CatalogHit
	err := e.withAuthRetry(ctx, refreshed, func(callCtx context.Context) error {
		var searchErr error
		hits, searchErr = e.catalog.Search(callCtx, suggestion.Title, suggestion.Artist)
		return searchErr
	})
	if errors.Is(err, shared.ErrNotFound) {
		return track, nil
	}
	if err != nil {
		return track, err
	}

	if hit, confidence, ok := pickHit(suggestion, hits); ok {
		track.CatalogID = hit.ID
		track.URI = hit.URI
		track.Title = hit.Title
		track.Artist = hit.Artist
		track.Confidence = confidence
	}

	return track, nil
}

// pickHit scans hits in the catalog's relevance order, preferring the first
// exact match and falling back to the first fuzzy one.
func pickHit(suggestion models.Suggestion, hits []models.CatalogHit) (models.CatalogHit, models.Confidence, bool) {
	var fuzzyHit *models.CatalogHit

	for i, hit := range hits {
		switch shared.MatchTrack(suggestion.Title, suggestion.Artist, hit.Title, hit.Artist) {
		case models.ConfidenceExact:
			return hit, models.ConfidenceExact, true
		case models.ConfidenceFuzzy:
			if fuzzyHit == nil {
				fuzzyHit = &hits[i]
			}
		}
	}

	if fuzzyHit != nil {
		return *fuzzyHit, models.ConfidenceFuzzy, true
	}

	return models.CatalogHit{}, models.ConfidenceUnresolved, false
}

// collectTrackIDs dedupes resolved catalog ids preserving first-seen order
// and counts the suggestions that stayed unresolved.
func collectTrackIDs(tracks []models.ResolvedTrack) (ids []string, skipped int) {
	seen := make(map[string]bool, len(tracks))

	for _, track := range tracks {
		if !track.Resolved() {
			skipped++
			continue
		}
		if seen[track.CatalogID] {
			continue
		}
		seen[track.CatalogID] = true
		ids = append(ids, track.CatalogID)
	}

	return ids, skipped
}

// withAuthRetry runs a catalog call under the catalog timeout and, on an
// expired token, refreshes and retries at most once per build.
func (e *BuildEngine) withAuthRetry(ctx context.Context, refreshed *bool, fn func(context.Context) error) error {
	call := func() error {
		callCtx, cancel := context.WithTimeout(ctx, e.catalogTimeout)
		defer cancel()
		return fn(callCtx)
	}

	err := call()
	if !errors.Is(err, shared.ErrAuthExpired) {
		return err
	}

	if e.refresher == nil || *refreshed {
		return err
	}
	*refreshed = true

	if _, refreshErr := e.refresher.Refresh(ctx); refreshErr != nil {
		return refreshErr
	}

	return call()
}

func sendUpdate(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress != nil {
		progress <- update
	}
}
