package repositories

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"moodlist/internal/models"
	"moodlist/internal/shared"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func testSession(username string) *models.Session {
	return &models.Session{
		Username:     username,
		AccessToken:  "access-" + username,
		RefreshToken: "refresh-" + username,
		TokenType:    "Bearer",
		Expiry:       time.Now().Add(time.Hour),
	}
}

func TestSessionRepository(t *testing.T) {
	t.Run("Save And Get", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))

		session := testSession("alice")
		if err := repo.Save(session); err != nil {
			t.Fatalf("failed to save session: %v", err)
		}

		got, err := repo.Get("alice")
		if err != nil {
			t.Fatalf("failed to get session: %v", err)
		}

		if got.AccessToken != session.AccessToken {
			t.Errorf("expected access token %s, got %s", session.AccessToken, got.AccessToken)
		}
		if got.RefreshToken != session.RefreshToken {
			t.Errorf("expected refresh token %s, got %s", session.RefreshToken, got.RefreshToken)
		}
		if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
			t.Error("expected timestamps to be set on save")
		}
	})

	t.Run("Save Replaces Existing Session", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))

		if err := repo.Save(testSession("alice")); err != nil {
			t.Fatalf("failed to save session: %v", err)
		}

		updated := testSession("alice")
		updated.AccessToken = "rotated-token"
		if err := repo.Save(updated); err != nil {
			t.Fatalf("failed to replace session: %v", err)
		}

		got, err := repo.Get("alice")
		if err != nil {
			t.Fatalf("failed to get session: %v", err)
		}
		if got.AccessToken != "rotated-token" {
			t.Errorf("expected replaced access token, got %s", got.AccessToken)
		}

		sessions, err := repo.List()
		if err != nil {
			t.Fatalf("failed to list sessions: %v", err)
		}
		if len(sessions) != 1 {
			t.Errorf("expected one row per username, got %d", len(sessions))
		}
	})

	t.Run("Get Missing Session", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))

		_, err := repo.Get("nobody")
		if !errors.Is(err, shared.ErrSessionNotFound) {
			t.Errorf("expected ErrSessionNotFound, got %v", err)
		}
	})

	t.Run("Save Validation", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))

		if err := repo.Save(&models.Session{Username: ""}); err == nil {
			t.Error("expected validation error for empty username")
		}
		if err := repo.Save(&models.Session{Username: "alice"}); err == nil {
			t.Error("expected validation error for missing access token")
		}
	})

	t.Run("Delete", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))

		if err := repo.Save(testSession("alice")); err != nil {
			t.Fatalf("failed to save session: %v", err)
		}

		if err := repo.Delete("alice"); err != nil {
			t.Fatalf("failed to delete session: %v", err)
		}

		_, err := repo.Get("alice")
		if !errors.Is(err, shared.ErrSessionNotFound) {
			t.Errorf("expected ErrSessionNotFound after delete, got %v", err)
		}

		if err := repo.Delete("alice"); !errors.Is(err, shared.ErrSessionNotFound) {
			t.Errorf("expected ErrSessionNotFound for double delete, got %v", err)
		}
	})

	t.Run("List", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))

		for _, name := range []string{"carol", "alice", "bob"} {
			if err := repo.Save(testSession(name)); err != nil {
				t.Fatalf("failed to save session for %s: %v", name, err)
			}
		}

		sessions, err := repo.List()
		if err != nil {
			t.Fatalf("failed to list sessions: %v", err)
		}

		if len(sessions) != 3 {
			t.Fatalf("expected 3 sessions, got %d", len(sessions))
		}
		if sessions[0].Username != "alice" || sessions[2].Username != "carol" {
			t.Errorf("expected username ordering, got %s..%s", sessions[0].Username, sessions[2].Username)
		}
	})
}
