package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"moodlist/internal/models"
	"moodlist/internal/shared"
	tu "moodlist/internal/testing"
)

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			generator := &tu.MockGenerator{}

			runner := NewRunner(RunnerOpts{
				Config:    config,
				Generator: generator,
				Logger:    logger,
				Output:    output,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.generator != generator {
				t.Error("expected generator to be set")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})
	})

	t.Run("register returns all commands", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		want := []string{"setup", "auth", "build", "playlists", "profile", "serve", "tui"}
		if len(commands) != len(want) {
			t.Fatalf("expected %d commands, got %d", len(want), len(commands))
		}
		for i, name := range want {
			if commands[i].Name != name {
				t.Errorf("expected command %d to be %s, got %s", i, name, commands[i].Name)
			}
		}
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("compact", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]int{"added": 3}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if got := output.String(); got != "{\"added\":3}\n" {
				t.Errorf("unexpected output %q", got)
			}
		})

		t.Run("pretty", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]int{"added": 3}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !strings.Contains(output.String(), "  \"added\": 3") {
				t.Errorf("expected indented output, got %q", output.String())
			}
		})
	})

	t.Run("writePlain formats to output", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output})

		if err := runner.writePlain("added %d tracks\n", 5); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if output.String() != "added 5 tracks\n" {
			t.Errorf("unexpected output %q", output.String())
		}
	})

	t.Run("loadConfig falls back to defaults for missing file", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		config := runner.loadConfig(filepath.Join(t.TempDir(), "missing.toml"))

		if config == nil {
			t.Fatal("expected a config")
		}
		if config.Database.Path != shared.DefaultConfig().Database.Path {
			t.Errorf("expected default database path, got %s", config.Database.Path)
		}
	})
}

func TestWriteResultFile(t *testing.T) {
	result := &models.BuildResult{
		PlaylistID: "p1",
		Added:      1,
		Tracks: []models.ResolvedTrack{
			{
				Suggestion: models.Suggestion{Artist: "Radiohead", Title: "Karma Police"},
				CatalogID:  "t1",
				Title:      "Karma Police",
				Artist:     "Radiohead",
				Confidence: models.ConfidenceExact,
			},
		},
	}

	t.Run("csv extension writes CSV", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "result.csv")
		if err := writeResultFile(path, result); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		content := tu.MustReadFile(t, path)
		if !strings.HasPrefix(content, "Artist,Title,CatalogID,Confidence") {
			t.Errorf("expected CSV header, got %q", content)
		}
	})

	t.Run("other extensions write Markdown", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "result.md")
		if err := writeResultFile(path, result); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		content := tu.MustReadFile(t, path)
		if !strings.Contains(content, "# Playlist p1") {
			t.Errorf("expected Markdown heading, got %q", content)
		}
	})
}
