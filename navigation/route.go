package navigation

import "strings"

// Route is one entry of the host router's table.
type Route struct {
	Path      string
	Name      string
	Component string
}

// RouteTable resolves destinations by path or by name. Earlier routes win.
type RouteTable struct {
	routes []Route
	byPath map[string]int
	byName map[string]int
}

// NewRouteTable indexes routes in order.
func NewRouteTable(routes ...Route) *RouteTable {
	t := &RouteTable{
		routes: append([]Route(nil), routes...),
		byPath: make(map[string]int, len(routes)),
		byName: make(map[string]int, len(routes)),
	}
	for i, r := range t.routes {
		if r.Path != "" {
			if _, dup := t.byPath[r.Path]; !dup {
				t.byPath[r.Path] = i
			}
		}
		if r.Name != "" {
			if _, dup := t.byName[r.Name]; !dup {
				t.byName[r.Name] = i
			}
		}
	}
	return t
}

// Resolve finds the route for a path (query and fragment ignored) or a route name.
func (t *RouteTable) Resolve(target string) (Route, bool) {
	if t == nil {
		return Route{}, false
	}
	p := stripLocation(target)
	if i, ok := t.byPath[p]; ok {
		return t.routes[i], true
	}
	if len(p) > 1 {
		if i, ok := t.byPath[strings.TrimRight(p, "/")]; ok {
			return t.routes[i], true
		}
	}
	if i, ok := t.byName[target]; ok {
		return t.routes[i], true
	}
	return Route{}, false
}

// Routes returns the table in order.
func (t *RouteTable) Routes() []Route {
	if t == nil {
		return nil
	}
	return append([]Route(nil), t.routes...)
}

// Len returns the number of routes.
func (t *RouteTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.routes)
}

func stripLocation(target string) string {
	if i := strings.IndexAny(target, "?#"); i >= 0 {
		return target[:i]
	}
	return target
}
