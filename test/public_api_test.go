package test

import (
	"context"
	"testing"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/navigation"
	"github.com/MrEthical07/goSession/notify"
	"github.com/MrEthical07/goSession/session"
	"github.com/MrEthical07/goSession/transport"
)

// Guards the public API shape host applications compile against.
func TestPublicAPISurfaceCompile(t *testing.T) {
	_ = goSession.New
	_ = goSession.DefaultConfig
	_ = goSession.LoadConfigFromEnv

	var _ *goSession.Engine
	var _ goSession.Config
	var _ goSession.AuditSink
	var _ goSession.AuditEvent
	var _ goSession.AuditSink = goSession.NewZapSink(nil)
	var _ goSession.AuditSink = goSession.NewMultiSink()
	var _ goSession.AuditStats
	var _ goSession.Decision
	var _ goSession.Credential
	var _ goSession.Identity

	var _ session.Storage = session.NewMemoryStorage()
	var _ session.Storage = (*session.RedisStorage)(nil)
	var _ session.Storage = (*session.BoltStorage)(nil)
	var _ notify.Notifier = notify.Nop{}
	var _ notify.Notifier = (*notify.Recorder)(nil)
	var _ navigation.Redirector = navigation.RedirectorFunc(nil)
	var _ transport.Doer = (*transport.HTTPClient)(nil)
	var _ transport.Doer = (*transport.FastHTTPClient)(nil)

	var _ error = goSession.ErrTransientNetwork
	var _ error = goSession.ErrInvalidCredential
	var _ error = goSession.ErrAuthorizationDenied
	var _ error = goSession.ErrRouteNotFound
	var _ error = goSession.ErrRouteForbidden
	var _ error = goSession.ErrNotAuthenticated
	var _ error = goSession.ErrLoginRejected

	var _ func(*goSession.Engine, context.Context, string, string) (session.Identity, error) = (*goSession.Engine).Login
	var _ func(*goSession.Engine, context.Context) error = (*goSession.Engine).Logout
	var _ func(*goSession.Engine, context.Context) (session.Credential, error) = (*goSession.Engine).EnsureFreshCredential
	var _ func(*goSession.Engine, context.Context, *transport.Request) (*transport.Response, error) = (*goSession.Engine).Do
	var _ func(*goSession.Engine, context.Context, string, string) (navigation.Decision, error) = (*goSession.Engine).Navigate
	var _ func(*goSession.Engine, context.Context, string, string) navigation.Decision = (*goSession.Engine).Check
	var _ func(*goSession.Engine) goSession.AuditStats = (*goSession.Engine).AuditStats
}
