// Package session persists the logged-in identity on the device: the bearer
// token, the last-known profile snapshot, and the optional expiry. The three
// values are always written and cleared together so a restart can never see
// a token without a user or vice versa.
package session

import (
	"context"
	"fmt"

	"github.com/adiwinata/fittrack/internal/client/models"
)

// Store is the durable session persistence contract.
//
// All operations are idempotent: clearing an empty store succeeds, saving
// identical data twice is harmless. I/O failures are reported as
// *StorageError and are never fatal to the caller; a failed save after a
// successful login keeps the in-memory session usable for the current
// process lifetime, it just will not survive a restart.
type Store interface {
	// Load returns the persisted session, or nil when no complete session
	// exists. A partial record (token without user or the reverse) is
	// treated as absent.
	Load(ctx context.Context) (*models.Session, error)

	// Save writes token, user and expiry together.
	Save(ctx context.Context, s *models.Session) error

	// Clear removes the session. The installation id survives.
	Clear(ctx context.Context) error
}

// StorageError wraps a local persistence failure.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("session store %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
