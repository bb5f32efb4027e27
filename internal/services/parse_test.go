package services

import (
	"testing"

	"moodlist/internal/models"
)

func TestParseSuggestions(t *testing.T) {
	tc := []struct {
		name string
		text string
		want []models.Suggestion
	}{
		{
			name: "plain lines",
			text: "Radiohead - Karma Police\nPortishead - Roads",
			want: []models.Suggestion{
				{Artist: "Radiohead", Title: "Karma Police"},
				{Artist: "Portishead", Title: "Roads"},
			},
		},
		{
			name: "numbered list",
			text: "1. Radiohead - Karma Police\n2) Portishead - Roads",
			want: []models.Suggestion{
				{Artist: "Radiohead", Title: "Karma Police"},
				{Artist: "Portishead", Title: "Roads"},
			},
		},
		{
			name: "bulleted list",
			text: "- Radiohead - Karma Police\n* Portishead - Roads\n• Mazzy Star - Fade Into You",
			want: []models.Suggestion{
				{Artist: "Radiohead", Title: "Karma Police"},
				{Artist: "Portishead", Title: "Roads"},
				{Artist: "Mazzy Star", Title: "Fade Into You"},
			},
		},
		{
			name: "en and em dashes",
			text: "Radiohead – Karma Police\nPortishead — Roads",
			want: []models.Suggestion{
				{Artist: "Radiohead", Title: "Karma Police"},
				{Artist: "Portishead", Title: "Roads"},
			},
		},
		{
			name: "splits on first separator only",
			text: "Earth, Wind & Fire - September - Single Version",
			want: []models.Suggestion{
				{Artist: "Earth, Wind & Fire", Title: "September - Single Version"},
			},
		},
		{
			name: "numeric artist name keeps its digits",
			text: "50 Cent - In Da Club",
			want: []models.Suggestion{
				{Artist: "50 Cent", Title: "In Da Club"},
			},
		},
		{
			name: "drops malformed lines",
			text: "Here are some songs:\nRadiohead - Karma Police\n\n - \nNo separator line",
			want: []models.Suggestion{
				{Artist: "Radiohead", Title: "Karma Police"},
			},
		},
		{
			name: "empty input",
			text: "",
			want: nil,
		},
		{
			name: "commentary only",
			text: "I'm sorry, I cannot suggest songs for that.",
			want: nil,
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseSuggestions(tt.text)

			if len(got) != len(tt.want) {
				t.Fatalf("ParseSuggestions() returned %d suggestions, want %d: %+v", len(got), len(tt.want), got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("suggestion %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func FuzzParseSuggestions(f *testing.F) {
	f.Add("Radiohead - Karma Police")
	f.Add("1. 50 Cent - In Da Club")
	f.Add("- • * 2) - ")
	f.Add("no separator at all")

	f.Fuzz(func(t *testing.T, text string) {
		for _, s := range ParseSuggestions(text) {
			if s.Artist == "" || s.Title == "" {
				t.Errorf("parsed suggestion with empty field: %+v", s)
			}
		}
	})
}
