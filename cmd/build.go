package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"moodlist/internal/formatter"
	"moodlist/internal/models"
	"moodlist/internal/shared"
	"moodlist/internal/tasks"
)

// Build runs the prompt-to-playlist pipeline once and prints the result.
func (r *Runner) Build(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	username := cmd.String("user")
	prompt := cmd.String("prompt")
	outputPath := cmd.String("output")
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	target := models.PlaylistTarget{
		PlaylistID:  cmd.String("playlist"),
		Name:        cmd.String("name"),
		Description: cmd.String("description"),
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

	progress := make(chan tasks.ProgressUpdate, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			r.logger.Info(update.Message, "phase", update.Phase.String())
		}
	}()

	result, err := engine.Build(ctx, progress, prompt, target)
	close(progress)
	<-done

	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}

	if outputPath != "" {
		if err := writeResultFile(outputPath, result); err != nil {
			return err
		}
		r.writePlain("✓ Result written to %s\n", outputPath)
	}

	if useJSON {
		return r.writeJSON(result, pretty)
	}

	return r.writePlain("%s", formatter.ResultToText(result))
}

// writeResultFile renders the result as CSV or Markdown by file extension.
func writeResultFile(path string, result *models.BuildResult) error {
	var data []byte
	var err error

	if filepath.Ext(path) == ".csv" {
		data, err = formatter.ResultToCSV(result)
		if err != nil {
			return fmt.Errorf("failed to render CSV: %w", err)
		}
	} else {
		data = formatter.ResultToMarkdown(result)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write result file: %w", err)
	}
	return nil
}
