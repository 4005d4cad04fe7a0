package goSession

import (
	"errors"

	"github.com/MrEthical07/goSession/interceptor"
	"github.com/MrEthical07/goSession/navigation"
	"github.com/MrEthical07/goSession/refresh"
)

var (
	// ErrTransientNetwork reports a renewal or probe that failed without proving the
	// credential dead. The session is kept.
	ErrTransientNetwork = refresh.ErrTransientNetwork
	// ErrInvalidCredential reports a renewal the server rejected. The session has
	// been logged out.
	ErrInvalidCredential = refresh.ErrInvalidCredential
	// ErrAuthorizationDenied reports that a call could not be authorized even after
	// renewal. The session has been logged out.
	ErrAuthorizationDenied = interceptor.ErrAuthorizationDenied
	// ErrRouteNotFound is returned for navigations to unknown routes.
	ErrRouteNotFound = navigation.ErrRouteNotFound
	// ErrRouteForbidden is returned for navigations the menu tree does not grant.
	ErrRouteForbidden = navigation.ErrRouteForbidden
	// ErrNotAuthenticated is returned for protected navigations without a session.
	ErrNotAuthenticated = navigation.ErrNotAuthenticated
	// ErrRedirectLoop is returned when a navigation keeps redirecting.
	ErrRedirectLoop = navigation.ErrRedirectLoop

	// ErrLoginRejected is returned when the server refuses the submitted credentials.
	ErrLoginRejected = errors.New("login rejected")
	// ErrLoginIncomplete is returned when a login response carries no access token.
	ErrLoginIncomplete = errors.New("login response carried no access token")
	// ErrEngineNotReady is returned by methods of a nil or closed Engine.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrBuilderUsed is returned by a second call to Builder.Build.
	ErrBuilderUsed = errors.New("builder already used")
)
