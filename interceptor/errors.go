package interceptor

import (
	"errors"
	"fmt"

	"github.com/MrEthical07/goSession/transport"
)

// ErrAuthorizationDenied reports that the session is gone: the renewal was rejected or
// a renewed credential was refused again. The store has been logged out.
var ErrAuthorizationDenied = errors.New("authorization denied")

// ErrNoResponse is returned when the transport reported neither a response nor an
// error.
var ErrNoResponse = errors.New("transport returned no response")

// Marker keys of the application error envelope.
const (
	ErrorMessageKey = "__errmsg__"
	ErrorArgsKey    = "msgargs"
)

// ApplicationError is an error the backend reported inside a response body.
type ApplicationError struct {
	Key        string
	Args       []any
	StatusCode int
}

func (e *ApplicationError) Error() string {
	if len(e.Args) == 0 {
		return fmt.Sprintf("application error: %s", e.Key)
	}
	return fmt.Sprintf("application error: %s %v", e.Key, e.Args)
}

// applicationError extracts the error marker from a decoded body. ok is false when
// the body carries no marker.
func applicationError(data any, status int) (*ApplicationError, bool) {
	m, isMap := data.(map[string]any)
	if !isMap {
		return nil, false
	}
	key := markerString(m[ErrorMessageKey])
	if key == "" {
		return nil, false
	}
	return &ApplicationError{Key: key, Args: markerArgs(m[ErrorArgsKey]), StatusCode: status}, true
}

func markerString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case bool:
		if !s {
			return ""
		}
	}
	return fmt.Sprint(v)
}

func markerArgs(v any) []any {
	switch a := v.(type) {
	case nil:
		return nil
	case []any:
		return a
	default:
		return []any{a}
	}
}

// ApplicationErrorOf returns the application error carried by resp, if any. Calls
// that bypass the pipeline checks, such as login, use it to read the marker.
func ApplicationErrorOf(resp *transport.Response) (*ApplicationError, bool) {
	if resp == nil {
		return nil, false
	}
	return applicationError(resp.Data, resp.StatusCode)
}
