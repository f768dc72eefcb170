package collectors

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/yair/whats-on/pkg/domain"
)

func setupTestDB(t *testing.T) (*sql.DB, func()) {
	tempFile, err := os.CreateTemp("", "test-*.db")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}

	db, err := NewSQLiteDB(tempFile.Name())
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}

	cleanup := func() {
		db.Close()
		os.Remove(tempFile.Name())
	}

	return db, cleanup
}

func signedToken(t *testing.T, exp time.Time) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": 7,
		"exp":     exp.Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func TestNewSessionRepository(t *testing.T) {
	t.Run("successful creation", func(t *testing.T) {
		db, cleanup := setupTestDB(t)
		defer cleanup()

		repo, err := NewSessionRepository(db)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if repo == nil {
			t.Fatal("expected repository, got nil")
		}
	})

	t.Run("nil database", func(t *testing.T) {
		if _, err := NewSessionRepository(nil); err == nil {
			t.Fatal("expected error for nil database")
		}
	})
}

func TestSessionRepository_RoundTrip(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo, err := NewSessionRepository(db)
	if err != nil {
		t.Fatalf("failed to create repository: %v", err)
	}
	ctx := context.Background()

	t.Run("empty store is anonymous", func(t *testing.T) {
		session, err := repo.Load(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if session.HasToken() || session.User != nil {
			t.Errorf("expected anonymous session, got %+v", session)
		}
	})

	t.Run("save and load", func(t *testing.T) {
		token := signedToken(t, time.Now().Add(time.Hour))
		err := repo.Save(ctx, domain.Session{
			Token: token,
			User:  &domain.User{ID: 7, FirstName: "Alice", Email: "alice@example.com"},
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		session, err := repo.Load(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if session.Token != token {
			t.Errorf("expected stored token, got %q", session.Token)
		}
		if session.DisplayName() != "Alice" || session.User.ID != 7 {
			t.Errorf("unexpected user %+v", session.User)
		}
	})

	t.Run("saving without a user removes it", func(t *testing.T) {
		if err := repo.Save(ctx, domain.Session{Token: "opaque"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		session, _ := repo.Load(ctx)
		if session.User != nil {
			t.Errorf("expected user to be removed, got %+v", session.User)
		}
		if session.Token != "opaque" {
			t.Errorf("expected non-JWT token to be kept, got %q", session.Token)
		}
	})

	t.Run("clear", func(t *testing.T) {
		if err := repo.Clear(ctx); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		session, _ := repo.Load(ctx)
		if session.HasToken() {
			t.Error("expected token to be cleared")
		}
	})
}

func TestSessionRepository_ExpiredToken(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo, _ := NewSessionRepository(db)
	ctx := context.Background()

	err := repo.Save(ctx, domain.Session{
		Token: signedToken(t, time.Now().Add(-time.Hour)),
		User:  &domain.User{ID: 7, FirstName: "Alice"},
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	session, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if session.HasToken() {
		t.Error("expected expired token to count as absent")
	}
	if session.User == nil {
		t.Error("expected user to survive an expired token")
	}
}

func TestSessionRepository_CorruptUser(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo, _ := NewSessionRepository(db)
	ctx := context.Background()

	_, err := db.Exec(`INSERT INTO local_storage (key, value, updated_at) VALUES (?, ?, ?)`,
		"user", "{not json", time.Now())
	if err != nil {
		t.Fatalf("failed to seed store: %v", err)
	}

	session, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if session.User != nil {
		t.Errorf("expected unreadable user to be dropped, got %+v", session.User)
	}
}
