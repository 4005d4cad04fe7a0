package refresh

import (
	"errors"
	"slices"
)

var (
	// ErrTransientNetwork reports a renewal or probe that failed for reasons other
	// than credential rejection. The store is left untouched.
	ErrTransientNetwork = errors.New("transient network failure")
	// ErrInvalidCredential reports a renewal the server rejected. The store has been
	// logged out.
	ErrInvalidCredential = errors.New("credential rejected")

	errMissingToken = errors.New("renewal response carried no access token")
)

// statusCoder is implemented by transport errors that carry an HTTP status.
type statusCoder interface {
	HTTPStatus() int
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var sc statusCoder
	if errors.As(err, &sc) {
		return sc.HTTPStatus()
	}
	return 0
}

func classify(err error, forceLogout []int) error {
	if errors.Is(err, ErrInvalidCredential) || errors.Is(err, ErrTransientNetwork) {
		return err
	}
	if status := StatusOf(err); status != 0 && slices.Contains(forceLogout, status) {
		return errors.Join(ErrInvalidCredential, err)
	}
	return errors.Join(ErrTransientNetwork, err)
}
