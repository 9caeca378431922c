package session

import (
	"errors"
	"testing"

	"github.com/golang-jwt/jwt/v5"
)

func TestProtectHasExactlyTwoOutcomes(t *testing.T) {
	sess := New()
	guard := NewGuard(sess)
	protected := []Route{RouteDashboard, RouteSubmit, RouteDetail, RouteQueue, RouteSettings}
	for _, route := range protected {
		if got := guard.Protect(route); got != RouteLogin {
			t.Fatalf("unauthenticated Protect(%s) = %s, want login", route, got)
		}
	}
	if err := sess.Login("opaque-token"); err != nil {
		t.Fatalf("login: %v", err)
	}
	for _, route := range protected {
		if got := guard.Protect(route); got != route {
			t.Fatalf("authenticated Protect(%s) = %s", route, got)
		}
	}
}

func TestLoginRedirectsFromEntryExactlyOnce(t *testing.T) {
	sess := New()
	guard := NewGuard(sess)
	if route, redirected := guard.Resolve(RouteLogin); route != RouteLogin || redirected {
		t.Fatalf("entry must not redirect to itself when logged out: %s %v", route, redirected)
	}
	if err := sess.Login("token"); err != nil {
		t.Fatalf("login: %v", err)
	}
	redirects := 0
	current := RouteLogin
	for i := 0; i < 5; i++ {
		next, redirected := guard.Resolve(current)
		if redirected {
			redirects++
		}
		current = next
	}
	if redirects != 1 {
		t.Fatalf("redirects = %d, want 1", redirects)
	}
	if current != RouteDashboard {
		t.Fatalf("settled on %s, want dashboard", current)
	}
}

func TestSignalIsNotCachedAcrossLoginAndLogout(t *testing.T) {
	sess := New()
	guard := NewGuard(sess)
	if _, redirected := guard.Resolve(RouteQueue); !redirected {
		t.Fatalf("expected redirect before login")
	}
	if err := sess.Login("token"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if route, redirected := guard.Resolve(RouteQueue); route != RouteQueue || redirected {
		t.Fatalf("guard kept stale unauthenticated state: %s %v", route, redirected)
	}
	sess.Logout()
	if sess.Authenticated() {
		t.Fatalf("logout must clear the signal")
	}
	if route, _ := guard.Resolve(RouteQueue); route != RouteLogin {
		t.Fatalf("after logout queue resolved to %s", route)
	}
}

func TestLoginRejectsEmptyToken(t *testing.T) {
	sess := New()
	if err := sess.Login("   "); !errors.Is(err, ErrEmptyToken) {
		t.Fatalf("expected ErrEmptyToken, got %v", err)
	}
	if sess.Authenticated() {
		t.Fatalf("empty token must not authenticate")
	}
}

func TestClaimsDecodeJWTAndTolerateOpaqueTokens(t *testing.T) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   "1",
		"email": "writer@example.com",
	}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	sess := New()
	if err := sess.Login(signed); err != nil {
		t.Fatalf("login: %v", err)
	}
	claims := sess.Claims()
	if claims.Subject != "1" || claims.Email != "writer@example.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.Label() != "writer@example.com" {
		t.Fatalf("label = %q", claims.Label())
	}
	if err := sess.Login("not-a-jwt"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if got := sess.Claims(); got != (Claims{}) {
		t.Fatalf("opaque token should yield empty claims, got %+v", got)
	}
	if !sess.Authenticated() {
		t.Fatalf("opaque token is still a credential")
	}
}
