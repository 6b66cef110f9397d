package apiclient

import (
	"context"
	"net/url"

	"github.com/mailworks/mailadmin/pkg/tokens"
)

// Decision is the outcome of a guard evaluation: allow the navigation or
// redirect it elsewhere. Guards never cancel requests already in flight.
type Decision struct {
	Allow       bool
	RedirectURL string
	Reason      string
}

func allow() Decision { return Decision{Allow: true} }

func redirect(target, reason string) Decision {
	return Decision{RedirectURL: target, Reason: reason}
}

const defaultLanding = "/Dashboard"

// roleLanding maps a role to its default landing page. Redirect targets are
// role-dependent, never the originally requested path.
func roleLanding(role string) string {
	switch tokens.Normalize(role) {
	case tokens.RoleAdmin:
		return "/Admin/Dashboard"
	case tokens.RoleUser:
		return "/User/Dashboard"
	default:
		return defaultLanding
	}
}

func loginRedirect(loginPath, target string) Decision {
	u := loginPath
	if target != "" {
		u += "?returnUrl=" + url.QueryEscape(target)
	}
	return redirect(u, "unauthenticated")
}

// AuthGuard gates navigation on an authenticated session. Unexpected
// evaluation errors fail closed to the login redirect.
type AuthGuard struct {
	Auth      *Authenticator
	LoginPath string
}

func (g *AuthGuard) loginPath() string {
	if g.LoginPath != "" {
		return g.LoginPath
	}
	return "/Login"
}

func (g *AuthGuard) Evaluate(ctx context.Context, target string) (d Decision) {
	defer func() {
		if r := recover(); r != nil {
			d = loginRedirect(g.loginPath(), target)
		}
	}()

	if !g.Auth.IsAuthenticated(ctx) {
		return loginRedirect(g.loginPath(), target)
	}
	return allow()
}

// RoleGuard additionally requires the cached role to be in the route's
// allowed set and the account to be approved. The client-side check is a UX
// convenience; the server re-validates independently.
type RoleGuard struct {
	Auth      *Authenticator
	Notifier  Notifier
	LoginPath string
}

func (g *RoleGuard) loginPath() string {
	if g.LoginPath != "" {
		return g.LoginPath
	}
	return "/Login"
}

func (g *RoleGuard) Evaluate(ctx context.Context, target string, allowedRoles ...string) (d Decision) {
	defer func() {
		if r := recover(); r != nil {
			d = loginRedirect(g.loginPath(), target)
		}
	}()

	if !g.Auth.IsAuthenticated(ctx) {
		return loginRedirect(g.loginPath(), target)
	}

	role := g.Auth.Role()
	matched := false
	for _, allowed := range allowedRoles {
		if tokens.Normalize(allowed) == role {
			matched = true
			break
		}
	}
	if !matched {
		return redirect(roleLanding(role), "role not allowed")
	}

	if !g.Auth.Approved() {
		if g.Notifier != nil {
			g.Notifier.Warn("Access restricted: your account is pending approval.")
		}
		return redirect(defaultLanding, "account not approved")
	}

	return allow()
}
