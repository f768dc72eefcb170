package collectors

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/yair/whats-on/pkg/domain"
)

const (
	keyAccessToken = "accessToken"
	keyUser        = "user"
)

// SessionRepository keeps the viewer's token and user record in a key/value
// table laid out like browser local storage.
type SessionRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSessionRepository(db *sql.DB) (*SessionRepository, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	repo := &SessionRepository{db: db, now: time.Now}
	if err := repo.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return repo, nil
}

func (r *SessionRepository) createTables() error {
	query := `
	CREATE TABLE IF NOT EXISTS local_storage (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);
	`

	_, err := r.db.Exec(query)
	return err
}

// Load reads the stored session. Unreadable user data and expired tokens are
// dropped rather than reported, so a damaged store degrades to anonymous.
func (r *SessionRepository) Load(ctx context.Context) (domain.Session, error) {
	var session domain.Session

	token, err := r.get(ctx, keyAccessToken)
	if err != nil {
		return session, err
	}
	if token != "" && r.expired(token) {
		log.Printf("Ignoring expired access token from local storage")
		token = ""
	}
	session.Token = token

	userData, err := r.get(ctx, keyUser)
	if err != nil {
		return session, err
	}
	if userData != "" {
		var user domain.User
		if err := json.Unmarshal([]byte(userData), &user); err != nil {
			log.Printf("Error parsing user data from local storage: %v", err)
		} else {
			session.User = &user
		}
	}

	return session, nil
}

// Save replaces both keys. An empty token or nil user removes that key.
func (r *SessionRepository) Save(ctx context.Context, session domain.Session) error {
	var userData string
	if session.User != nil {
		data, err := json.Marshal(session.User)
		if err != nil {
			return fmt.Errorf("failed to encode user: %w", err)
		}
		userData = string(data)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := r.put(ctx, tx, keyAccessToken, session.Token); err != nil {
		return err
	}
	if err := r.put(ctx, tx, keyUser, userData); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *SessionRepository) Clear(ctx context.Context) error {
	query := `DELETE FROM local_storage WHERE key IN (?, ?)`

	if _, err := r.db.ExecContext(ctx, query, keyAccessToken, keyUser); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

func (r *SessionRepository) get(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM local_storage WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", key, err)
	}
	return value, nil
}

func (r *SessionRepository) put(ctx context.Context, tx *sql.Tx, key, value string) error {
	if value == "" {
		if _, err := tx.ExecContext(ctx, `DELETE FROM local_storage WHERE key = ?`, key); err != nil {
			return fmt.Errorf("failed to remove %s: %w", key, err)
		}
		return nil
	}

	query := `
	INSERT OR REPLACE INTO local_storage (key, value, updated_at)
	VALUES (?, ?, ?)
	`
	if _, err := tx.ExecContext(ctx, query, key, value, r.now()); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// expired reports whether token is a JWT whose exp claim has passed. The
// signature is not checked here; the backend verifies it on every request.
// Tokens that are not JWTs are kept as-is.
func (r *SessionRepository) expired(token string) bool {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return false
	}

	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(r.now())
}
