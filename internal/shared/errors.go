package shared

import "fmt"

var (
	// Pipeline errors
	ErrGenerationFailed   = fmt.Errorf("suggestion generation failed")
	ErrEmptySuggestions   = fmt.Errorf("no usable suggestions in response")
	ErrNoResolvableTracks = fmt.Errorf("no suggestions resolved to catalog tracks")

	// Catalog and service errors
	ErrAuthExpired        = fmt.Errorf("access token expired")
	ErrRateLimited        = fmt.Errorf("rate limited")
	ErrNotFound           = fmt.Errorf("not found")
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrRefreshFailed    = fmt.Errorf("token refresh failed")
	ErrNoRefreshToken   = fmt.Errorf("no refresh token available")
	ErrSessionNotFound  = fmt.Errorf("session not found")
	ErrSessionBusy      = fmt.Errorf("another build is already running for this user")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
