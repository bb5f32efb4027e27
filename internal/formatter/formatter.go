// package formatter renders build results for terminal and file output (plain text, Markdown, CSV)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"moodlist/internal/models"
)

// ResultToText converts a BuildResult to plain text for terminal output.
func ResultToText(result *models.BuildResult) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Playlist: %s\n", result.PlaylistID))
	if result.PlaylistURL != "" {
		buf.WriteString(fmt.Sprintf("URL: %s\n", result.PlaylistURL))
	}
	buf.WriteString(fmt.Sprintf("Added: %d\n", result.Added))
	buf.WriteString(fmt.Sprintf("Skipped: %d\n\n", result.Skipped))

	for i, track := range result.Tracks {
		mark := "✓"
		if !track.Resolved() {
			mark = "✗"
		}
		buf.WriteString(fmt.Sprintf("%d. %s %s - %s", i+1, mark, track.Suggestion.Artist, track.Suggestion.Title))
		if track.Resolved() && track.Confidence != models.ConfidenceExact {
			buf.WriteString(fmt.Sprintf(" (matched: %s - %s)", track.Artist, track.Title))
		}
		buf.WriteString("\n")
	}

	return buf.Bytes()
}

// ResultToMarkdown converts a BuildResult to Markdown.
func ResultToMarkdown(result *models.BuildResult) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# Playlist %s\n\n", result.PlaylistID))
	if result.PlaylistURL != "" {
		buf.WriteString(fmt.Sprintf("[Open in Spotify](%s)\n\n", result.PlaylistURL))
	}
	buf.WriteString(fmt.Sprintf("**Added**: %d\n", result.Added))
	buf.WriteString(fmt.Sprintf("**Skipped**: %d\n\n", result.Skipped))

	buf.WriteString("## Tracks\n\n")
	for i, track := range result.Tracks {
		status := track.Confidence.String()
		buf.WriteString(fmt.Sprintf("%d. %s - %s `%s`\n", i+1, track.Suggestion.Artist, track.Suggestion.Title, status))
	}

	return buf.Bytes()
}

// ResultToCSV converts a BuildResult to CSV with columns: Artist, Title, CatalogID, Confidence
func ResultToCSV(result *models.BuildResult) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Artist", "Title", "CatalogID", "Confidence"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range result.Tracks {
		record := []string{
			track.Suggestion.Artist,
			track.Suggestion.Title,
			track.CatalogID,
			track.Confidence.String(),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// PlaylistsToText renders a playlist listing for terminal output.
func PlaylistsToText(playlists []models.Playlist) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Playlists: %d\n\n", len(playlists)))
	for i, pl := range playlists {
		buf.WriteString(fmt.Sprintf("%d. %s (%d tracks) [%s]\n", i+1, pl.Name, pl.TrackCount, pl.ID))
	}

	return buf.Bytes()
}
