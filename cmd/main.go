package main

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"
	"moodlist/internal/services"
	"moodlist/internal/shared"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}

	var generator services.SuggestionGenerator
	if config.Credentials.Gemini.APIKey != "" {
		if svc, err := services.NewGeminiService(config.Credentials.Gemini.APIKey, config.Credentials.Gemini.Model); err == nil {
			generator = svc
		}
	}

	runner := NewRunner(RunnerOpts{
		Config:    config,
		Generator: generator,
		Logger:    logger,
	})

	app := &cli.Command{
		Name:     "moodlist",
		Usage:    "Build Spotify playlists from a mood prompt",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Fatalf("application error: %v", err)
	}
}
