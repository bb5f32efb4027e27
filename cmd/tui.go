package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"
	"moodlist/internal/models"
	"moodlist/internal/shared"
	"moodlist/internal/tasks"
	"moodlist/internal/ui"
)

// TUI launches the interactive terminal UI for building playlists.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	username := cmd.String("user")

	target := models.PlaylistTarget{
		PlaylistID: cmd.String("playlist"),
		Name:       cmd.String("name"),
	}

	config := r.config
	if config == nil {
		config = r.loadConfig(configPath)
	}

	if r.generator == nil {
		return fmt.Errorf("%w: Gemini api_key must be set in config.toml", shared.ErrMissingCredentials)
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

	engine := tasks.NewBuildEngine(tasks.EngineOpts{
		Generator:         r.generator,
		Catalog:           spotify,
		Refresher:         spotify,
		MaxItems:          config.Generator.MaxItems,
		GeneratorTimeout:  config.Generator.Timeout(),
		CatalogTimeout:    config.Catalog.Timeout(),
		SearchesPerSecond: config.Catalog.SearchesPerSecond,
	})

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/moodlist-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	model := ui.NewModel(ctx, engine, target)
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
