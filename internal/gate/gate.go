// Package gate decides which top-level screen a request may reach.
//
// The decision is a pure function of the authentication, location and
// onboarding state; nothing about previous decisions is remembered.
package gate

// State is the outcome of the access gate.
type State int

const (
	AuthLoading State = iota
	NoLocation
	AdminBypass
	LocationGateLoading
	OnboardingIncomplete
	AppShell
)

var stateNames = [...]string{
	AuthLoading:          "auth_loading",
	NoLocation:           "no_location",
	AdminBypass:          "admin_bypass",
	LocationGateLoading:  "location_gate_loading",
	OnboardingIncomplete: "onboarding",
	AppShell:             "app",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Allowed reports whether the main shell may be rendered.
func (s State) Allowed() bool {
	return s == AdminBypass || s == AppShell
}

type AuthState struct {
	Loading       bool
	Authenticated bool
	IsAdmin       bool
}

type LocationState struct {
	ID string
}

func (l LocationState) Present() bool { return l.ID != "" }

// OnboardingState describes the location's onboarding. Loading is true
// until steps and progress have both been fetched.
type OnboardingState struct {
	Loading  bool
	Complete bool
}

// ComputeGateState sequences auth, admin bypass, location presence and
// onboarding completion.
func ComputeGateState(a AuthState, l LocationState, o OnboardingState) State {
	switch {
	case a.Loading:
		return AuthLoading
	case a.IsAdmin:
		return AdminBypass
	case !l.Present():
		return NoLocation
	case o.Loading:
		return LocationGateLoading
	case !o.Complete:
		return OnboardingIncomplete
	default:
		return AppShell
	}
}
