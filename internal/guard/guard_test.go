package guard

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"pressdesk.org/internal/session"
)

func mint(t *testing.T, sub string, roles []string, exp time.Time) string {
	t.Helper()
	claims := jwt.MapClaims{"sub": sub, "roles": roles, "exp": exp.Unix()}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func storeWithToken(t *testing.T, tok string) session.Store {
	t.Helper()
	store := session.NewMemoryStore()
	if tok != "" {
		if err := store.SetToken(context.Background(), "sid", tok); err != nil {
			t.Fatalf("SetToken: %v", err)
		}
	}
	return store
}

func TestEvaluateNoToken(t *testing.T) {
	g := New(storeWithToken(t, ""))
	verdict := g.Evaluate(context.Background(), "sid", nil)
	if verdict.Decision != RedirectLogin {
		t.Fatalf("expected RedirectLogin, got %v", verdict.Decision)
	}
}

func TestEvaluateCorruptTokenClearsStore(t *testing.T) {
	store := storeWithToken(t, "garbage.token")
	g := New(store)

	verdict := g.Evaluate(context.Background(), "sid", nil)
	if verdict.Decision != RedirectLogin {
		t.Fatalf("expected RedirectLogin, got %v", verdict.Decision)
	}
	rec, _ := store.Get(context.Background(), "sid")
	if rec.Token != "" {
		t.Fatalf("corrupt token not cleared: %q", rec.Token)
	}
}

func TestEvaluateExpiredTokenClearsStore(t *testing.T) {
	tok := mint(t, "user-3", []string{"admin"}, time.Now().Add(-10*time.Second))
	store := storeWithToken(t, tok)
	g := New(store)

	verdict := g.Evaluate(context.Background(), "sid", nil)
	if verdict.Decision != RedirectLogin {
		t.Fatalf("expected RedirectLogin for expired token, got %v", verdict.Decision)
	}
	rec, _ := store.Get(context.Background(), "sid")
	if rec.Token != "" {
		t.Fatalf("expired token not cleared")
	}

	// Second evaluation with no token is idempotent: same redirect, no error.
	verdict = g.Evaluate(context.Background(), "sid", nil)
	if verdict.Decision != RedirectLogin {
		t.Fatalf("second evaluation: expected RedirectLogin, got %v", verdict.Decision)
	}
}

func TestEvaluateAuthorized(t *testing.T) {
	tok := mint(t, "user-1", []string{"admin"}, time.Now().Add(time.Hour))
	g := New(storeWithToken(t, tok))

	verdict := g.Evaluate(context.Background(), "sid", []string{"admin"})
	if verdict.Decision != Authorized {
		t.Fatalf("expected Authorized, got %v", verdict.Decision)
	}
	if verdict.Claims.UserID != "user-1" {
		t.Fatalf("claims not carried: %+v", verdict.Claims)
	}
}

func TestEvaluateWrongRoleSoftDenies(t *testing.T) {
	tok := mint(t, "user-2", []string{"user"}, time.Now().Add(time.Hour))
	store := storeWithToken(t, tok)
	g := New(store)

	verdict := g.Evaluate(context.Background(), "sid", []string{"admin"})
	if verdict.Decision != RedirectDashboard {
		t.Fatalf("wrong role must go to dashboard, got %v", verdict.Decision)
	}
	// Soft deny keeps the session intact.
	rec, _ := store.Get(context.Background(), "sid")
	if rec.Token == "" {
		t.Fatalf("soft deny must not clear the token")
	}
}

func TestEvaluateRoleIntersection(t *testing.T) {
	tok := mint(t, "user-4", []string{"hr"}, time.Now().Add(time.Hour))
	g := New(storeWithToken(t, tok))

	if v := g.Evaluate(context.Background(), "sid", []string{"admin", "hr"}); v.Decision != Authorized {
		t.Fatalf("intersecting role sets must authorize, got %v", v.Decision)
	}
}

func TestEvaluateWithClock(t *testing.T) {
	exp := time.Now().Add(time.Hour)
	tok := mint(t, "user-5", []string{"admin"}, exp)
	g := New(storeWithToken(t, tok), WithClock(func() time.Time { return exp.Add(time.Minute) }))

	if v := g.Evaluate(context.Background(), "sid", nil); v.Decision != RedirectLogin {
		t.Fatalf("expected expiry under advanced clock, got %v", v.Decision)
	}
}

func TestMiddlewareRedirects(t *testing.T) {
	sid := func(*http.Request) string { return "sid" }
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := ClaimsFromContext(r.Context()); !ok {
			t.Errorf("claims missing from context")
		}
		w.WriteHeader(http.StatusOK)
	})

	cases := []struct {
		name     string
		token    string
		required []string
		wantCode int
		wantLoc  string
	}{
		{"no session", "", nil, http.StatusSeeOther, LoginPath},
		{"expired", mint(t, "u", []string{"admin"}, time.Now().Add(-time.Minute)), nil, http.StatusSeeOther, LoginPath},
		{"wrong role", mint(t, "u", []string{"user"}, time.Now().Add(time.Hour)), []string{"admin"}, http.StatusSeeOther, DashboardPath},
		{"authorized", mint(t, "u", []string{"admin"}, time.Now().Add(time.Hour)), []string{"admin"}, http.StatusOK, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := New(storeWithToken(t, tc.token))
			handler := g.Middleware(sid, tc.required...)(next)

			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/all-categories", nil))

			if rr.Code != tc.wantCode {
				t.Fatalf("expected %d, got %d", tc.wantCode, rr.Code)
			}
			if tc.wantLoc != "" && rr.Header().Get("Location") != tc.wantLoc {
				t.Fatalf("expected redirect to %s, got %s", tc.wantLoc, rr.Header().Get("Location"))
			}
		})
	}
}
