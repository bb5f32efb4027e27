package services

import (
	"strings"

	"moodlist/internal/models"
)

// separators orders the dash variants a model is likely to emit. The plain
// hyphen goes last so en and em dashes win when both appear on a line.
var separators = []string{" — ", " – ", " - "}

// ParseSuggestions extracts "Artist - Title" pairs from raw model output.
//
// Models decorate their answers despite instructions, so each line is
// stripped of list numbering and bullet markers before splitting on the
// first dash separator. Lines without a separator, or with an empty artist
// or title, are dropped.
func ParseSuggestions(text string) []models.Suggestion {
	var suggestions []models.Suggestion

	for _, line := range strings.Split(text, "\n") {
		line = stripListMarker(strings.TrimSpace(line))
		if line == "" {
			continue
		}

		artist, title, ok := splitSuggestion(line)
		if !ok {
			continue
		}

		suggestions = append(suggestions, models.Suggestion{Artist: artist, Title: title})
	}

	return suggestions
}

// stripListMarker removes leading "1." / "1)" numbering and bullet characters.
func stripListMarker(line string) string {
	line = strings.TrimLeft(line, "-*• \t")

	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i > 0 && i < len(line) && (line[i] == '.' || line[i] == ')') {
		line = line[i+1:]
	}

	return strings.TrimSpace(line)
}

func splitSuggestion(line string) (artist, title string, ok bool) {
	for _, sep := range separators {
		if idx := strings.Index(line, sep); idx >= 0 {
			artist = strings.TrimSpace(line[:idx])
			title = strings.TrimSpace(line[idx+len(sep):])
			if artist != "" && title != "" {
				return artist, title, true
			}
			return "", "", false
		}
	}
	return "", "", false
}
