// Package session keeps server-side session state. A session exists from a
// successful login until logout or expiry; a token is only honoured while its
// session is still present.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
)

// ErrNotFound is returned for unknown, expired or deleted sessions.
var ErrNotFound = errors.New("session not found")

// Session binds a principal to a login
type Session struct {
	ID          string    `json:"id"`
	PrincipalID int64     `json:"principal_id"`
	Kind        string    `json:"kind"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Store persists sessions until they expire
type Store interface {
	Save(ctx context.Context, s *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
}

// New builds a session with a fresh ULID, valid for ttl from now
func New(principalID int64, kind string, now time.Time, ttl time.Duration) *Session {
	return &Session{
		ID:          ulid.Make().String(),
		PrincipalID: principalID,
		Kind:        kind,
		CreatedAt:   now,
		ExpiresAt:   now.Add(ttl),
	}
}
