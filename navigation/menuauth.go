package navigation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/MrEthical07/goSession/transport"
)

// DefaultMenuAuthPath is the legacy server-side authorization endpoint.
const DefaultMenuAuthPath = "/main/main/isMenuAuthExists.do"

// MenuAuthChecker asks the server whether a route is authorized.
type MenuAuthChecker interface {
	MenuAuthExists(ctx context.Context, routeName string) (bool, error)
}

// LegacyMenuAuth queries the legacy endpoint with ?url=<routeName>.
type LegacyMenuAuth struct {
	doer transport.Doer
	path string
}

// NewLegacyMenuAuth returns a checker sending through doer. An empty path uses
// [DefaultMenuAuthPath].
func NewLegacyMenuAuth(doer transport.Doer, path string) *LegacyMenuAuth {
	if path == "" {
		path = DefaultMenuAuthPath
	}
	return &LegacyMenuAuth{doer: doer, path: path}
}

// MenuAuthExists implements MenuAuthChecker.
func (l *LegacyMenuAuth) MenuAuthExists(ctx context.Context, routeName string) (bool, error) {
	resp, err := l.doer.Do(ctx, &transport.Request{
		Method: http.MethodGet,
		Path:   l.path,
		Params: transport.Values(url.Values{"url": {routeName}}),
	})
	if err != nil {
		return false, err
	}
	return truthy(resp.Data), nil
}

// truthy accepts a bare boolean, "true"/"Y", or an object whose result, exists or
// data member is truthy.
func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		switch strings.ToUpper(strings.TrimSpace(t)) {
		case "TRUE", "Y", "1":
			return true
		}
		return false
	case json.Number:
		return t.String() != "0"
	case float64:
		return t != 0
	case map[string]any:
		for _, k := range []string{"result", "exists", "data"} {
			if inner, ok := t[k]; ok {
				return truthy(inner)
			}
		}
	}
	return false
}
