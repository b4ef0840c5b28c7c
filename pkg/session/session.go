// Package session persists per-document browsing state between runs.
//
// A [Session] remembers which nodes of a document were collapsed and which
// node was selected, keyed by the document's content hash. The browse
// command restores it on the next run over the same bytes, so editing the
// document starts a fresh session.
//
//	store, err := session.NewFileStore("") // $XDG_CONFIG_HOME/jsonviz/sessions
//	sess, err := store.Get(ctx, cache.Hash(data))
//	if sess == nil {
//	    sess = session.New(cache.Hash(data), "data.json", session.DefaultTTL)
//	}
//	sess.Collapsed = set.IDs()
//	err = store.Set(ctx, sess)
package session

import (
	"context"
	"time"

	"github.com/jsonviz/jsonviz/pkg/errors"
)

// DefaultTTL is how long an untouched session is kept.
const DefaultTTL = 30 * 24 * time.Hour

// maxIDLength bounds session IDs, which double as file names.
const maxIDLength = 128

// Session is the saved view state of one document.
type Session struct {
	ID        string    `json:"id"`
	Source    string    `json:"source,omitempty"`
	Collapsed []string  `json:"collapsed,omitempty"`
	Selected  string    `json:"selected,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// New creates a session for the document with the given content hash.
func New(id, source string, ttl time.Duration) *Session {
	now := time.Now()
	return &Session{
		ID:        id,
		Source:    source,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// IsExpired reports whether the session has outlived its TTL.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Touch records an update and extends the expiry by ttl.
func (s *Session) Touch(ttl time.Duration) {
	s.UpdatedAt = time.Now()
	s.ExpiresAt = s.UpdatedAt.Add(ttl)
}

// Store is the interface for session storage backends.
type Store interface {
	// Get returns the session with the given ID, or nil when it does not
	// exist or has expired.
	Get(ctx context.Context, id string) (*Session, error)

	// Set stores a session, replacing any previous one with the same ID.
	Set(ctx context.Context, s *Session) error

	// Delete removes a session. Deleting a missing session is not an error.
	Delete(ctx context.Context, id string) error

	// Cleanup removes expired sessions.
	Cleanup(ctx context.Context) error
}

// ValidateID checks that id is usable as a session key: non-empty, at most
// 128 characters, and made of ASCII letters, digits, '-' and '_' only.
func ValidateID(id string) error {
	if id == "" {
		return errors.New(errors.ErrCodeInvalidInput, "session id cannot be empty")
	}
	if len(id) > maxIDLength {
		return errors.New(errors.ErrCodeInvalidInput, "session id too long (max %d characters)", maxIDLength)
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return errors.New(errors.ErrCodeInvalidInput, "session id %q contains %q", id, r)
		}
	}
	return nil
}
