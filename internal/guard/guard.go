// Package guard decides, for every navigation into a protected route,
// whether the current session may proceed. The decision is re-evaluated
// on each request and never cached: an expired token must be caught on
// the very next navigation. Failures always resolve to a redirect, never
// to an error the shell has to handle.
package guard

import (
	"context"
	"net/http"
	"time"

	"pressdesk.org/internal/session"
	"pressdesk.org/internal/token"
)

// Redirect targets for denied evaluations.
const (
	LoginPath     = "/login"
	DashboardPath = "/dashboard"
)

// Decision is the outcome of one route evaluation.
type Decision int

const (
	// Authorized lets the screen render.
	Authorized Decision = iota
	// RedirectLogin covers absent, undecodable and expired sessions.
	RedirectLogin
	// RedirectDashboard is the soft deny for an authenticated operator
	// whose roles do not intersect the route's requirement.
	RedirectDashboard
)

// Verdict couples a decision with the claims that produced it. Claims
// are only populated for Authorized and RedirectDashboard.
type Verdict struct {
	Decision Decision
	Claims   token.Claims
}

// Guard evaluates session state against per-route role requirements.
type Guard struct {
	sessions session.Store
	now      func() time.Time
}

// Option configures Guard behavior.
type Option func(*Guard)

// WithClock overrides the time source. Test use.
func WithClock(fn func() time.Time) Option {
	return func(g *Guard) {
		if fn != nil {
			g.now = fn
		}
	}
}

// New builds a guard over the given session store.
func New(store session.Store, opts ...Option) *Guard {
	g := &Guard{sessions: store, now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Evaluate runs the authorization state machine:
//
//	no token            -> RedirectLogin
//	undecodable token   -> clear token, RedirectLogin
//	expired token       -> clear token, RedirectLogin
//	disjoint role sets  -> RedirectDashboard
//	otherwise           -> Authorized
//
// Clearing a dead token is the only mutation the guard performs.
func (g *Guard) Evaluate(ctx context.Context, sid string, required []string) Verdict {
	rec, err := g.sessions.Get(ctx, sid)
	if err != nil || rec.Token == "" {
		return Verdict{Decision: RedirectLogin}
	}
	claims, err := token.Decode(rec.Token)
	if err != nil {
		// Corrupt token: clean it up so the next evaluation takes the
		// cheap no-token path.
		_ = g.sessions.ClearToken(ctx, sid)
		return Verdict{Decision: RedirectLogin}
	}
	if claims.Expired(g.now()) {
		_ = g.sessions.ClearToken(ctx, sid)
		return Verdict{Decision: RedirectLogin}
	}
	if !claims.HasAnyRole(required) {
		return Verdict{Decision: RedirectDashboard, Claims: claims}
	}
	return Verdict{Decision: Authorized, Claims: claims}
}

// Middleware wraps a guarded route. The session id is read through sid
// so the web layer keeps ownership of cookie handling. Authorized
// requests proceed with the decoded claims attached to the context.
func (g *Guard) Middleware(sid func(*http.Request) string, required ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			verdict := g.Evaluate(r.Context(), sid(r), required)
			switch verdict.Decision {
			case RedirectLogin:
				http.Redirect(w, r, LoginPath, http.StatusSeeOther)
			case RedirectDashboard:
				http.Redirect(w, r, DashboardPath, http.StatusSeeOther)
			default:
				ctx := ContextWithClaims(r.Context(), verdict.Claims)
				next.ServeHTTP(w, r.WithContext(ctx))
			}
		})
	}
}

type claimsContextKey struct{}

// ContextWithClaims attaches decoded claims to the context.
func ContextWithClaims(ctx context.Context, claims token.Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey{}, claims)
}

// ClaimsFromContext extracts the claims the guard attached, if any.
func ClaimsFromContext(ctx context.Context) (token.Claims, bool) {
	if ctx == nil {
		return token.Claims{}, false
	}
	v, ok := ctx.Value(claimsContextKey{}).(token.Claims)
	return v, ok
}
