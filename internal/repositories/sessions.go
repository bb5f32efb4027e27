package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"moodlist/internal/models"
	"moodlist/internal/shared"
)

// SessionRepository persists per-user OAuth sessions keyed by username.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new [SessionRepository] with the given database connection
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Save inserts or replaces the session for its username.
//
// Re-authentication overwrites the previous token pair, so a user always has
// at most one row.
func (r *SessionRepository) Save(session *models.Session) error {
	if err := session.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now

	query := `
		INSERT OR REPLACE INTO sessions (username, access_token, refresh_token, token_type, expiry, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query, session.Username, session.AccessToken, session.RefreshToken,
		session.TokenType, session.Expiry, session.CreatedAt, session.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	return nil
}

// Get retrieves the session for a username.
//
// Returns [shared.ErrSessionNotFound] when the user has never authenticated
// or has logged out.
func (r *SessionRepository) Get(username string) (*models.Session, error) {
	query := `
		SELECT username, access_token, refresh_token, token_type, expiry, created_at, updated_at
		FROM sessions
		WHERE username = ?
	`

	var session models.Session
	err := r.db.QueryRow(query, username).Scan(
		&session.Username, &session.AccessToken, &session.RefreshToken,
		&session.TokenType, &session.Expiry, &session.CreatedAt, &session.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", shared.ErrSessionNotFound, username)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}

	return &session, nil
}

// Delete removes the session for a username.
func (r *SessionRepository) Delete(username string) error {
	result, err := r.db.Exec("DELETE FROM sessions WHERE username = ?", username)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrSessionNotFound, username)
	}

	return nil
}

// List retrieves all stored sessions ordered by username.
func (r *SessionRepository) List() ([]*models.Session, error) {
	query := `
		SELECT username, access_token, refresh_token, token_type, expiry, created_at, updated_at
		FROM sessions
		ORDER BY username ASC
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*models.Session
	for rows.Next() {
		var session models.Session
		err := rows.Scan(
			&session.Username, &session.AccessToken, &session.RefreshToken,
			&session.TokenType, &session.Expiry, &session.CreatedAt, &session.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, &session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return sessions, nil
}
