// Package auth holds the client-side authentication state machine: a closed
// set of events, a pure transition function, and a Manager that owns the
// single live state, dispatches API calls, and keeps the session store in
// sync with credential changes.
package auth

import "github.com/adiwinata/fittrack/internal/client/models"

// Status enumerates the machine's states.
type Status int

const (
	StatusUnauthenticated Status = iota
	StatusAuthenticating
	StatusAuthenticated
	StatusPendingVerification
)

func (s Status) String() string {
	switch s {
	case StatusUnauthenticated:
		return "unauthenticated"
	case StatusAuthenticating:
		return "authenticating"
	case StatusAuthenticated:
		return "authenticated"
	case StatusPendingVerification:
		return "pending-verification"
	default:
		return "unknown"
	}
}

// State is one immutable snapshot of the machine.
//
// Err is an annotation on the state that was returned to after a failure,
// not a state of its own: a failed login leaves Status at Unauthenticated
// with Err set. Invariant: Session is valid iff Status is Authenticated.
type State struct {
	Status                   Status
	Session                  models.Session
	Err                      string
	PendingVerificationEmail string
}

// Event is the closed set of inputs the transition function accepts.
type Event interface{ isEvent() }

// SubmitStarted marks the dispatch of a login or register attempt.
type SubmitStarted struct{}

// SubmitAbandoned resolves an in-flight attempt whose caller navigated away.
// The eventual network response is discarded by the generation check.
type SubmitAbandoned struct{}

// LoginSucceeded carries the freshly issued session.
type LoginSucceeded struct{ Session models.Session }

// LoginFailed resolves an attempt back to Unauthenticated with a message.
type LoginFailed struct{ Message string }

// RegisterSucceeded moves the machine to PendingVerification; registration
// never yields a token.
type RegisterSucceeded struct{ Email string }

// RegisterFailed resolves an attempt back to Unauthenticated with a message.
type RegisterFailed struct{ Message string }

// VerificationResolved reports that the (external) email verification step
// finished; the user can now log in.
type VerificationResolved struct{}

// ProfileMerged applies a partial profile update to the authenticated user.
type ProfileMerged struct{ Update models.ProfileUpdate }

// LoggedOut drops the session.
type LoggedOut struct{}

// SessionRestored is the synthetic bootstrap event carrying a session read
// back from the store.
type SessionRestored struct{ Session models.Session }

// ErrorDismissed clears the error annotation.
type ErrorDismissed struct{}

func (SubmitStarted) isEvent()        {}
func (SubmitAbandoned) isEvent()      {}
func (LoginSucceeded) isEvent()       {}
func (LoginFailed) isEvent()          {}
func (RegisterSucceeded) isEvent()    {}
func (RegisterFailed) isEvent()       {}
func (VerificationResolved) isEvent() {}
func (ProfileMerged) isEvent()        {}
func (LoggedOut) isEvent()            {}
func (SessionRestored) isEvent()      {}
func (ErrorDismissed) isEvent()       {}

// reduce is the pure transition function. Events that do not apply to the
// current status leave the state unchanged; the Manager is responsible for
// rejecting them up front where the contract demands it.
func reduce(st State, ev Event) State {
	switch e := ev.(type) {
	case SubmitStarted:
		if st.Status == StatusUnauthenticated || st.Status == StatusPendingVerification {
			st.Status = StatusAuthenticating
			st.Err = ""
			st.PendingVerificationEmail = ""
		}

	case SubmitAbandoned:
		if st.Status == StatusAuthenticating {
			st.Status = StatusUnauthenticated
		}

	case LoginSucceeded:
		if st.Status == StatusAuthenticating {
			st.Status = StatusAuthenticated
			st.Session = e.Session
			st.Err = ""
		}

	case LoginFailed:
		if st.Status == StatusAuthenticating {
			st.Status = StatusUnauthenticated
			st.Err = e.Message
		}

	case RegisterSucceeded:
		if st.Status == StatusAuthenticating {
			st.Status = StatusPendingVerification
			st.PendingVerificationEmail = e.Email
			st.Err = ""
		}

	case RegisterFailed:
		if st.Status == StatusAuthenticating {
			st.Status = StatusUnauthenticated
			st.Err = e.Message
		}

	case VerificationResolved:
		if st.Status == StatusPendingVerification {
			st.Status = StatusUnauthenticated
			st.PendingVerificationEmail = ""
		}

	case ProfileMerged:
		if st.Status == StatusAuthenticated && st.Session.User != nil {
			user := st.Session.User.Clone()
			user.Merge(e.Update)
			st.Session.User = user
		}

	case LoggedOut:
		st.Status = StatusUnauthenticated
		st.Session = models.Session{}
		st.PendingVerificationEmail = ""
		st.Err = ""

	case SessionRestored:
		st.Status = StatusAuthenticated
		st.Session = e.Session
		st.Err = ""
		st.PendingVerificationEmail = ""

	case ErrorDismissed:
		st.Err = ""
	}
	return st
}
