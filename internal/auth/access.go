package auth

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	tokenPrefix = "cdk_"
	tokenBytes  = 32
	timeLayout  = "2006-01-02T15:04:05.000000000Z"
)

// ErrTokenNotFound is returned when revoking an unknown or already revoked token.
var ErrTokenNotFound = errors.New("access token not found")

// AccessToken describes an issued token. The plaintext is never stored.
type AccessToken struct {
	ID        string     `json:"id"`
	Label     string     `json:"label"`
	CreatedAt time.Time  `json:"createdAt"`
	RevokedAt *time.Time `json:"revokedAt,omitempty"`
}

// HashToken returns the bcrypt hash stored for a plaintext token.
func HashToken(plaintext string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), cost)
	if err != nil {
		return "", fmt.Errorf("hash access token: %w", err)
	}
	return string(hash), nil
}

// TokenStore keeps revocable access tokens in the access_tokens table.
type TokenStore struct {
	db   *sql.DB
	cost int
	now  func() time.Time
}

// NewTokenStore returns a TokenStore backed by db.
func NewTokenStore(db *sql.DB) *TokenStore {
	return &TokenStore{db: db, cost: bcrypt.DefaultCost, now: time.Now}
}

// Issue creates a token and returns its plaintext. The plaintext cannot be recovered later.
func (s *TokenStore) Issue(ctx context.Context, label string) (AccessToken, string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return AccessToken{}, "", fmt.Errorf("generate access token: %w", err)
	}
	plaintext := tokenPrefix + base64.RawURLEncoding.EncodeToString(buf)

	tok, err := s.insert(ctx, strings.TrimSpace(label), plaintext)
	if err != nil {
		return AccessToken{}, "", err
	}
	return tok, plaintext, nil
}

func (s *TokenStore) insert(ctx context.Context, label, plaintext string) (AccessToken, error) {
	hash, err := HashToken(plaintext, s.cost)
	if err != nil {
		return AccessToken{}, err
	}

	tok := AccessToken{ID: uuid.NewString(), Label: label, CreatedAt: s.now().UTC()}
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO access_tokens (id, label, token_hash, created_at)
		VALUES (?, ?, ?, ?)
	`, tok.ID, tok.Label, hash, tok.CreatedAt.Format(timeLayout)); err != nil {
		return AccessToken{}, fmt.Errorf("insert access token: %w", err)
	}
	return tok, nil
}

// Revoke marks a token as revoked. Revoked tokens no longer verify.
func (s *TokenStore) Revoke(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE access_tokens SET revoked_at = ?
		WHERE id = ? AND revoked_at IS NULL
	`, s.now().UTC().Format(timeLayout), id)
	if err != nil {
		return fmt.Errorf("revoke access token: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("read revoke result: %w", err)
	}
	if affected == 0 {
		return ErrTokenNotFound
	}
	return nil
}

// Verify returns the active token matching plaintext.
func (s *TokenStore) Verify(ctx context.Context, plaintext string) (AccessToken, error) {
	plaintext = strings.TrimSpace(plaintext)
	if plaintext == "" {
		return AccessToken{}, ErrInvalidToken
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, label, token_hash, created_at
		FROM access_tokens
		WHERE revoked_at IS NULL
	`)
	if err != nil {
		return AccessToken{}, fmt.Errorf("query access tokens: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			tok       AccessToken
			hash      string
			createdAt string
		)
		if err := rows.Scan(&tok.ID, &tok.Label, &hash, &createdAt); err != nil {
			return AccessToken{}, fmt.Errorf("scan access token: %w", err)
		}
		if bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) != nil {
			continue
		}
		tok.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		return tok, nil
	}
	if err := rows.Err(); err != nil {
		return AccessToken{}, fmt.Errorf("iterate access tokens: %w", err)
	}
	return AccessToken{}, ErrInvalidToken
}

// Active reports whether the token with id exists and is not revoked.
func (s *TokenStore) Active(ctx context.Context, id string) (bool, error) {
	var active bool
	if err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM access_tokens WHERE id = ? AND revoked_at IS NULL)
	`, id).Scan(&active); err != nil {
		return false, fmt.Errorf("check access token: %w", err)
	}
	return active, nil
}

// List returns all tokens, newest first.
func (s *TokenStore) List(ctx context.Context) ([]AccessToken, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, label, created_at, revoked_at
		FROM access_tokens
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query access tokens: %w", err)
	}
	defer rows.Close()

	out := []AccessToken{}
	for rows.Next() {
		var (
			tok       AccessToken
			createdAt string
			revokedAt sql.NullString
		)
		if err := rows.Scan(&tok.ID, &tok.Label, &createdAt, &revokedAt); err != nil {
			return nil, fmt.Errorf("scan access token: %w", err)
		}
		tok.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		if revokedAt.Valid {
			if t, err := time.Parse(time.RFC3339Nano, revokedAt.String); err == nil {
				tok.RevokedAt = &t
			}
		}
		out = append(out, tok)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate access tokens: %w", err)
	}
	return out, nil
}
