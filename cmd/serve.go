package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
	"moodlist/internal/models"
	"moodlist/internal/repositories"
	"moodlist/internal/server"
	"moodlist/internal/services"
	"moodlist/internal/shared"
	"moodlist/internal/tasks"
)

// Serve runs the web interface until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	config := r.config
	if config == nil {
		config = r.loadConfig(configPath)
	}

	addr := cmd.String("addr")
	if addr == "" {
		addr = config.Server.Addr()
	}

	if config.Credentials.Spotify.ClientID == "" || config.Credentials.Spotify.ClientSecret == "" {
		return fmt.Errorf("%w: Spotify client_id and client_secret must be set in config.toml", shared.ErrMissingCredentials)
	}
	if r.generator == nil {
		return fmt.Errorf("%w: Gemini api_key must be set in config.toml", shared.ErrMissingCredentials)
	}

	oauthSrv, err := services.NewSpotifyService(config.Credentials.Spotify.Map())
	if err != nil {
		return fmt.Errorf("failed to create Spotify service: %w", err)
	}

	db, sessions, err := r.openSessions(config)
	if err != nil {
		return err
	}
	defer db.Close()

	catalogs := func(session *models.Session) (services.Catalog, error) {
		return r.sessionCatalog(config, sessions, session)
	}

	builders := func(session *models.Session) (tasks.Builder, error) {
		spotify, err := r.sessionCatalog(config, sessions, session)
		if err != nil {
			return nil, err
		}
		return tasks.NewBuildEngine(tasks.EngineOpts{
			Generator:         r.generator,
			Catalog:           spotify,
			Refresher:         spotify,
			MaxItems:          config.Generator.MaxItems,
			GeneratorTimeout:  config.Generator.Timeout(),
			CatalogTimeout:    config.Catalog.Timeout(),
			SearchesPerSecond: config.Catalog.SearchesPerSecond,
		}), nil
	}

	app, err := server.NewAppHandler(r.logger, sessions, oauthSrv, builders, catalogs)
	if err != nil {
		return fmt.Errorf("failed to create app handler: %w", err)
	}

	router := server.NewBasicRouter()
	router.Use(server.RequestLogger(r.logger), server.Recoverer(r.logger))
	router.Handler(app)

	serveCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return server.Serve(serveCtx, r.logger, addr, router)
}

// sessionCatalog builds an authenticated catalog client for a web session,
// persisting rotated tokens back to the session store.
func (r *Runner) sessionCatalog(config *shared.Config, sessions *repositories.SessionRepository, session *models.Session) (*services.SpotifyService, error) {
	spotify, err := services.NewSpotifyService(config.Credentials.Spotify.Map())
	if err != nil {
		return nil, err
	}

	if err := spotify.Authenticate(context.Background(), session.Token()); err != nil {
		return nil, err
	}

	spotify.SetSearchLimit(config.Catalog.SearchLimit)
	username := session.Username
	spotify.OnToken(func(token *oauth2.Token) error {
		return sessions.Save(models.NewSession(username, token))
	})

	return spotify, nil
}
