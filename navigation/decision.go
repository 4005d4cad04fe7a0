package navigation

import (
	"errors"
	"fmt"
)

var (
	// ErrRouteNotFound reports a destination missing from the route table.
	ErrRouteNotFound = errors.New("route not found")
	// ErrRouteForbidden reports a destination outside the user's authorization.
	ErrRouteForbidden = errors.New("route forbidden")
	// ErrNotAuthenticated reports a protected destination requested without a session.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrRedirectLoop reports a redirect chain that did not settle.
	ErrRedirectLoop = errors.New("navigation redirect loop")
)

// State is a step of a navigation check.
type State int

const (
	StateStart State = iota
	StateHydrating
	StateAuthorizationCheck
	StateAllowed
	StateDenied
	StateRedirected
)

var stateNames = [...]string{
	StateStart:              "start",
	StateHydrating:          "hydrating",
	StateAuthorizationCheck: "authorization_check",
	StateAllowed:            "allowed",
	StateDenied:             "denied",
	StateRedirected:         "redirected",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// Kind is what the host router must do.
type Kind int

const (
	// Proceed continues to the destination.
	Proceed Kind = iota
	// Redirect replaces the destination with Target.
	Redirect
	// Cancel stays on the current page.
	Cancel
)

func (k Kind) String() string {
	switch k {
	case Proceed:
		return "proceed"
	case Redirect:
		return "redirect"
	case Cancel:
		return "cancel"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Decision is the outcome of a navigation check.
type Decision struct {
	Kind  Kind
	State State

	// Target is the redirect destination, or the resolved destination on Proceed.
	Target string

	// Replace asks the router to replace the history entry.
	Replace bool

	// Err explains denials and redirects caused by missing authorization.
	Err error
}

func proceed(target string) Decision {
	return Decision{Kind: Proceed, State: StateAllowed, Target: target}
}

func redirect(target string, err error) Decision {
	return Decision{Kind: Redirect, State: StateRedirected, Target: target, Replace: true, Err: err}
}

func cancel(state State, err error) Decision {
	return Decision{Kind: Cancel, State: state, Err: err}
}
