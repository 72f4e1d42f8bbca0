// Package api implements the REST client for the FitTrack backend.
//
// The client is pure transport: it keeps no state between calls and never
// touches local persistence. Every operation is a single request/response
// round trip; errors are folded into the taxonomy of errors.go so callers
// can match with errors.Is / errors.As without knowing HTTP details.
package api

import (
	"context"
	"time"

	"github.com/adiwinata/fittrack/internal/client/models"
)

// LoginResult is the outcome of a successful login: the issued bearer token,
// the hydrated profile, and the token expiry when known.
type LoginResult struct {
	Token     string
	User      *models.Profile
	ExpiresAt *time.Time
}

// RegisterRequest carries the full field set the backend expects at account
// creation. Registration never yields a token; the account must be verified
// by email before the first login.
type RegisterRequest struct {
	Name       string `json:"name"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	BirthPlace string `json:"birth_place"`
	BirthDate  string `json:"birth_date"`
	WorkUnitID int64  `json:"work_unit_id"`
	Password   string `json:"password"`
}

// RegisterResult echoes the backend's confirmation message together with the
// email address the verification code was sent to.
type RegisterResult struct {
	Message string
	Email   string
}

// WorkUnit is a reference-data record used by the registration screen.
type WorkUnit struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	ParentID *int64 `json:"parent_id,omitempty"`
}

// Client is the operation surface of the backend as seen by this app.
//
// Error contract: Login fails with ErrInvalidCredentials, *NetworkError or
// *ServerError; Register and the password operations with *ValidationError,
// *NetworkError or *ServerError. The work-unit lookups and FetchProfile are
// idempotent and may be retried internally on transient network failures;
// mutating calls never are.
type Client interface {
	Login(ctx context.Context, username, password string) (*LoginResult, error)
	Register(ctx context.Context, req RegisterRequest) (*RegisterResult, error)
	RegenerateOTP(ctx context.Context, email string) (string, error)
	ForgotPassword(ctx context.Context, email string) (string, error)
	ChangePassword(ctx context.Context, token, current, newPassword string) (string, error)
	FetchProfile(ctx context.Context, token string) (*models.Profile, error)
	UpdateProfile(ctx context.Context, token string, upd models.ProfileUpdate) (*models.Profile, error)
	WorkUnitParents(ctx context.Context) ([]WorkUnit, error)
	WorkUnitChildren(ctx context.Context, parentID int64) ([]WorkUnit, error)
	Logout(ctx context.Context, token string) error
	Close() error
}
