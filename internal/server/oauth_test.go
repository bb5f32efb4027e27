package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/oauth2"
)

func oauthTestConfig(tokenURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURL:  "http://127.0.0.1:3000/callback",
		Endpoint:     oauth2.Endpoint{AuthURL: "https://auth.example/authorize", TokenURL: tokenURL},
	}
}

func TestOAuthHandler(t *testing.T) {
	t.Run("Exchanges Code And Delivers Token", func(t *testing.T) {
		tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{
				"access_token":  "cli_token",
				"refresh_token": "cli_refresh",
				"token_type":    "Bearer",
				"expires_in":    3600,
			})
		}))
		defer tokenServer.Close()

		handler := NewOAuthHandler(oauthTestConfig(tokenServer.URL), "expected_state")

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=expected_state&code=authcode", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		result := <-handler.Result()
		if result.Error() != nil {
			t.Fatalf("expected no error, got %v", result.Error())
		}
		if result.Token.AccessToken != "cli_token" {
			t.Errorf("unexpected token %s", result.Token.AccessToken)
		}
	})

	t.Run("Invalid State Rejected", func(t *testing.T) {
		handler := NewOAuthHandler(oauthTestConfig("https://auth.example/token"), "expected_state")

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=wrong&code=authcode", nil))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}

		result := <-handler.Result()
		if result.Error() == nil {
			t.Error("expected error result for invalid state")
		}
	})

	t.Run("Denied Authorization Reported", func(t *testing.T) {
		handler := NewOAuthHandler(oauthTestConfig("https://auth.example/token"), "expected_state")

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=expected_state&error=access_denied", nil))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}

		result := <-handler.Result()
		if result.Error() == nil {
			t.Error("expected error result for denied authorization")
		}
	})

	t.Run("Second Callback Rejected", func(t *testing.T) {
		tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{"access_token": "tok", "token_type": "Bearer"})
		}))
		defer tokenServer.Close()

		handler := NewOAuthHandler(oauthTestConfig(tokenServer.URL), "expected_state")

		first := httptest.NewRecorder()
		handler.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/callback?state=expected_state&code=authcode", nil))
		if first.Code != http.StatusOK {
			t.Fatalf("expected first callback to succeed, got %d", first.Code)
		}

		second := httptest.NewRecorder()
		handler.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/callback?state=expected_state&code=authcode", nil))
		if second.Code != http.StatusBadRequest {
			t.Errorf("expected replayed callback rejected, got %d", second.Code)
		}
	})
}
