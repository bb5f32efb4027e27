package shared

import (
	"strings"

	"github.com/sahilm/fuzzy"
	"moodlist/internal/models"
)

// minFuzzyScore is the acceptance threshold for fuzzy matches.
//
// Scores from [fuzzy.Find] reward consecutive matched runs and penalize
// scattered matches, so a zero floor rejects accidental subsequences
// ("a" matching inside an unrelated title) while keeping common catalog
// decorations ("Song Title - Remastered 2011") above the bar.
const minFuzzyScore = 0

// NormalizeTrackKey produces a canonical "title|artist" key for track comparison.
//
// Lowercases and collapses runs of whitespace so formatting differences
// between the AI's output and catalog metadata don't break matching.
func NormalizeTrackKey(title, artist string) string {
	return normalizeField(title) + "|" + normalizeField(artist)
}

func normalizeField(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// MatchTrack compares a suggested (title, artist) pair against a catalog hit
// and reports the confidence of the match.
//
// Equal normalized keys are an exact match. Otherwise the shorter key must
// appear as a scored subsequence of the longer one, which tolerates catalog
// suffixes like "(Deluxe Edition)" or featured-artist credits on either side.
func MatchTrack(wantTitle, wantArtist, gotTitle, gotArtist string) models.Confidence {
	want := NormalizeTrackKey(wantTitle, wantArtist)
	got := NormalizeTrackKey(gotTitle, gotArtist)

	if want == got {
		return models.ConfidenceExact
	}

	shorter, longer := want, got
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}

	matches := fuzzy.Find(shorter, []string{longer})
	if len(matches) > 0 && matches[0].Score >= minFuzzyScore {
		return models.ConfidenceFuzzy
	}

	return models.ConfidenceUnresolved
}
