// Package notify delivers user-facing alerts and confirmations. Hosts plug in their
// own UI; the package ships a no-op, a zap-backed and a terminal implementation.
package notify

import (
	"context"
	"fmt"
	"strings"
)

// Common titles.
const (
	TitleError   = "Error"
	TitleWarning = "Warning"
	TitleConfirm = "Confirm"
)

// Message keys issued by goSession itself.
const (
	KeyGenericError      = "error"
	KeyRouteNotFound     = "route.notFound"
	KeyRouteForbidden    = "route.forbidden"
	KeySessionExpired    = "session.expired"
	KeyNetworkError      = "network.error"
	KeyConfirmLeave      = "confirm.leave"
	KeyAuthorizationLost = "session.authorizationDenied"
)

// Message is a localizable message: a key plus substitution args. Text, when set, is
// shown verbatim instead of the key.
type Message struct {
	Key  string
	Args []any
	Text string
}

// String renders the message without localization.
func (m Message) String() string {
	if m.Text != "" {
		return m.Text
	}
	if len(m.Args) == 0 {
		return m.Key
	}
	args := make([]string, 0, len(m.Args))
	for _, a := range m.Args {
		args = append(args, fmt.Sprint(a))
	}
	return m.Key + " [" + strings.Join(args, ", ") + "]"
}

// Notifier shows messages to the user.
type Notifier interface {
	// Alert shows msg and returns once it has been delivered.
	Alert(ctx context.Context, msg Message, title string) error
	// Confirm asks a yes/no question.
	Confirm(ctx context.Context, msg Message, title string) (bool, error)
}

// Nop discards alerts and confirms everything.
type Nop struct{}

// Alert implements Notifier.
func (Nop) Alert(context.Context, Message, string) error { return nil }

// Confirm implements Notifier.
func (Nop) Confirm(context.Context, Message, string) (bool, error) { return true, nil }

func prefixed(msg Message, title string) string {
	if title == "" {
		return msg.String()
	}
	return "[" + title + "] " + msg.String()
}
