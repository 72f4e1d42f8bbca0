package models

import "time"

// Session is the persisted unit of truth across process restarts:
// the bearer token, the last-known profile snapshot, and an optional expiry.
//
// Invariant: User is present iff Token is present. A record that violates
// this (for example a token left behind by a crashed save) is treated as
// absent by the store.
type Session struct {
	Token     string     `json:"token"`
	User      *Profile   `json:"user"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// Valid reports whether s holds a complete token+user pair.
func (s *Session) Valid() bool {
	return s != nil && s.Token != "" && s.User != nil
}

// Expired reports whether the session has a known expiry in the past.
// A session without a known expiry never expires on the client side.
func (s *Session) Expired(now time.Time) bool {
	return s != nil && s.ExpiresAt != nil && !s.ExpiresAt.After(now)
}

// Clone returns a deep copy of s so the copy can be handed to the
// persistence queue without racing later in-memory mutations.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := Session{Token: s.Token, User: s.User.Clone()}
	if s.ExpiresAt != nil {
		t := *s.ExpiresAt
		c.ExpiresAt = &t
	}
	return &c
}
