package goSession

import (
	"github.com/MrEthical07/goSession/navigation"
	"github.com/MrEthical07/goSession/session"
	"github.com/MrEthical07/goSession/transport"
)

// Re-exported collaborator types so hosts can drive an Engine without importing
// every sub-package.
type (
	Request    = transport.Request
	Response   = transport.Response
	Query      = transport.Query
	Values     = transport.Values
	Credential = session.Credential
	Identity   = session.Identity
	Snapshot   = session.Snapshot
	MenuNode   = session.MenuNode
	Route      = navigation.Route
	Decision   = navigation.Decision
)
