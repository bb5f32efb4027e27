package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
	"moodlist/internal/formatter"
	"moodlist/internal/shared"
)

// Playlists lists the authenticated user's playlists with optional limit.
func (r *Runner) Playlists(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	username := cmd.String("user")
	limit := cmd.Int("limit")
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	config := r.config
	if config == nil {
		config = r.loadConfig(configPath)
	}

	db, sessions, err := r.openSessions(config)
	if err != nil {
		return err
	}
	defer db.Close()

	spotify, err := r.catalogForUser(ctx, config, sessions, username)
	if err != nil {
		return err
	}

	r.logger.Infof("listing playlists for %v with limit %v", username, limit)

	playlists, err := spotify.UserPlaylists(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if limit > 0 && limit < len(playlists) {
		playlists = playlists[:limit]
	}

	if useJSON {
		return r.writeJSON(playlists, pretty)
	}

	return r.writePlain("%s", formatter.PlaylistsToText(playlists))
}

// Profile shows the authenticated user's catalog profile.
func (r *Runner) Profile(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	username := cmd.String("user")
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	config := r.config
	if config == nil {
		config = r.loadConfig(configPath)
	}

	db, sessions, err := r.openSessions(config)
	if err != nil {
		return err
	}
	defer db.Close()

	spotify, err := r.catalogForUser(ctx, config, sessions, username)
	if err != nil {
		return err
	}

	profile, err := spotify.Profile(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	artists, err := spotify.TopArtists(ctx, 10)
	if err != nil {
		r.logger.Warn("failed to load top artists", "error", err)
	}
	tracks, err := spotify.TopTracks(ctx, 10)
	if err != nil {
		r.logger.Warn("failed to load top tracks", "error", err)
	}

	if useJSON {
		return r.writeJSON(map[string]any{
			"profile":     profile,
			"top_artists": artists,
			"top_tracks":  tracks,
		}, pretty)
	}

	r.writePlain("ID: %s\n", profile.ID)
	r.writePlain("Display name: %s\n", profile.DisplayName)
	if profile.URL != "" {
		r.writePlain("Profile: %s\n", profile.URL)
	}

	if len(artists) > 0 {
		r.writePlainln("Top artists:")
		for i, artist := range artists {
			r.writePlain("%2d. %s\n", i+1, artist.Name)
		}
	}
	if len(tracks) > 0 {
		r.writePlainln("Top tracks:")
		for i, track := range tracks {
			name := track.Name
			if len(track.Artists) > 0 {
				name = fmt.Sprintf("%s - %s", track.Artists[0].Name, track.Name)
			}
			r.writePlain("%2d. %s\n", i+1, name)
		}
	}
	return nil
}
