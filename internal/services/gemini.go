// Gemini API implementation of [SuggestionGenerator]
//
// Calls the generateContent endpoint documented at
// https://ai.google.dev/api/generate-content
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"moodlist/internal/models"
	"moodlist/internal/shared"
)

const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

const defaultGeminiModel = "gemini-1.5-flash"

// suggestionPrompt frames the mood prompt so the response parses as one
// suggestion per line. The line format matters more than the phrasing; see
// [ParseSuggestions].
const suggestionPrompt = `You are a music expert building a playlist.

Suggest exactly %d real, existing songs matching this mood or theme: %q

Respond with one song per line in the exact format:
Artist - Title

No numbering, no commentary, no markdown. Only suggest songs you are confident actually exist.`

// GeminiService implements [SuggestionGenerator] against the Gemini REST API.
type GeminiService struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewGeminiService creates a Gemini-backed suggestion generator.
func NewGeminiService(apiKey, model string) (*GeminiService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: api_key", shared.ErrMissingCredentials)
	}
	if model == "" {
		model = defaultGeminiModel
	}

	return &GeminiService{
		apiKey:     apiKey,
		model:      model,
		baseURL:    geminiBaseURL,
		httpClient: http.DefaultClient,
	}, nil
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
	Config   geminiGenConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenConfig struct {
	MaxOutputTokens int `json:"maxOutputTokens"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Generate asks the model for track suggestions matching the prompt.
//
// Any transport or API failure surfaces as [shared.ErrGenerationFailed] so
// the caller can abort the whole build rather than continue with a partial
// suggestion list.
func (g *GeminiService) Generate(ctx context.Context, prompt string, maxItems int) ([]models.Suggestion, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, fmt.Errorf("%w: empty prompt", shared.ErrInvalidInput)
	}
	if maxItems <= 0 {
		return nil, fmt.Errorf("%w: max items must be positive", shared.ErrInvalidInput)
	}

	payload := geminiRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: fmt.Sprintf(suggestionPrompt, maxItems, prompt)}}},
		},
		Config: geminiGenConfig{MaxOutputTokens: 2048},
	}

	buf, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrGenerationFailed, err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.baseURL, g.model, url.QueryEscape(g.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrGenerationFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrGenerationFailed, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d - %s", shared.ErrGenerationFailed, resp.StatusCode, string(body))
	}

	var data geminiResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrGenerationFailed, err)
	}

	text := ""
	if len(data.Candidates) > 0 && len(data.Candidates[0].Content.Parts) > 0 {
		text = data.Candidates[0].Content.Parts[0].Text
	}

	suggestions := ParseSuggestions(text)
	if len(suggestions) == 0 {
		return nil, fmt.Errorf("%w: response had no parseable lines", shared.ErrEmptySuggestions)
	}

	if len(suggestions) > maxItems {
		suggestions = suggestions[:maxItems]
	}

	return suggestions, nil
}
