package session

// Route identifies one screen of the client.
type Route string

const (
	RouteLogin     Route = "login"
	RouteDashboard Route = "dashboard"
	RouteSubmit    Route = "submit"
	RouteDetail    Route = "detail"
	RouteQueue     Route = "queue"
	RouteSettings  Route = "settings"
)

// Public reports whether the route is reachable without a credential.
func (r Route) Public() bool {
	return r == RouteLogin
}

// Guard resolves navigation requests against the session's current state.
type Guard struct {
	session *Session
	entry   Route
	home    Route
}

// NewGuard builds a guard with the login screen as the public entry and the
// dashboard as the default protected route.
func NewGuard(s *Session) *Guard {
	return &Guard{session: s, entry: RouteLogin, home: RouteDashboard}
}

// Resolve maps a requested route to the one that should render. The second
// return value is true when the guard redirected.
//
// An authenticated request for the entry route goes to home; home itself
// resolves to home, so the post-login redirect happens once. An
// unauthenticated request for the entry route renders it without
// redirecting to itself.
func (g *Guard) Resolve(requested Route) (Route, bool) {
	authed := g.session.Authenticated()
	switch {
	case requested == g.entry && authed:
		return g.home, true
	case requested == g.entry:
		return g.entry, false
	case !requested.Public() && !authed:
		return g.entry, true
	default:
		return requested, false
	}
}

// Protect returns either the requested route or the public entry route.
func (g *Guard) Protect(requested Route) Route {
	if !requested.Public() && !g.session.Authenticated() {
		return g.entry
	}
	return requested
}

// Entry returns the public entry route.
func (g *Guard) Entry() Route { return g.entry }

// Home returns the default protected route.
func (g *Guard) Home() Route { return g.home }
