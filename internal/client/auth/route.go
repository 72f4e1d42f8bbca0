package auth

import "github.com/adiwinata/fittrack/internal/client/models"

// Flow is the top-level navigation decision derived from auth state.
type Flow int

const (
	// FlowAuth shows the login/register screens.
	FlowAuth Flow = iota
	// FlowOnboarding collects the remaining profile fields.
	FlowOnboarding
	// FlowMain is the gated main application.
	FlowMain
)

func (f Flow) String() string {
	switch f {
	case FlowAuth:
		return "auth"
	case FlowOnboarding:
		return "onboarding"
	case FlowMain:
		return "main"
	default:
		return "unknown"
	}
}

// RouteFor is a pure function of the latest state snapshot: anything other
// than Authenticated routes to the auth flow, an authenticated user who has
// not finished onboarding routes to onboarding, everyone else to main.
//
// Safe to call with a nil profile; an absent onboardingCompleted flag is
// treated as false.
func RouteFor(status Status, profile *models.Profile) Flow {
	if status != StatusAuthenticated {
		return FlowAuth
	}
	if profile == nil || !profile.OnboardingCompleted {
		return FlowOnboarding
	}
	return FlowMain
}
