// Package web is the router/layout shell: it composes the access guard
// with the descriptor-driven CRUD screens and the public site. It holds
// no entity state of its own — every screen re-fetches on entry.
package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"pressdesk.org/internal/cms"
	"pressdesk.org/internal/config"
	"pressdesk.org/internal/crud"
	"pressdesk.org/internal/gateway"
	"pressdesk.org/internal/guard"
	"pressdesk.org/internal/obs"
	"pressdesk.org/internal/session"
)

const maxBodyBytes = 32 << 20 // bounded by media uploads

// Server wires routes, guard and session handling together.
type Server struct {
	cfg      config.Config
	api      *gateway.Client
	sessions *session.Watched
	guard    *guard.Guard
	flashes  *flashStore
	router   *mux.Router
}

// NewServer builds the console server over an upstream gateway client
// and a session store.
func NewServer(cfg config.Config, api *gateway.Client, sessions *session.Watched) *Server {
	s := &Server{
		cfg:      cfg,
		api:      api,
		sessions: sessions,
		flashes:  newFlashStore(),
	}
	s.guard = guard.New(sessions)
	s.sessions.Watch(func(sid string) {
		_ = obs.LogEvent(context.Background(), "session.token_changed", map[string]any{"sid": sid})
	})
	s.routes()
	return s
}

// Handler returns the fully wrapped handler for the HTTP server.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.router
	h = MaxBodyBytes(h, maxBodyBytes)
	h = SecurityHeaders(h)
	h = Recover(h)
	h = LoggingJSON(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

func (s *Server) routes() {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	r.Handle("/metrics", obs.Handler()).Methods(http.MethodGet)

	// Public site
	r.HandleFunc("/", s.handleHome).Methods(http.MethodGet)
	r.HandleFunc("/info", s.handleInfo).Methods(http.MethodGet)

	// Session lifecycle
	r.HandleFunc("/login", s.handleLoginPage).Methods(http.MethodGet)
	r.Handle("/login", RateLimit(http.HandlerFunc(s.handleLogin), 5, 1)).Methods(http.MethodPost)
	r.HandleFunc("/sign-up", s.handleSignUpPage).Methods(http.MethodGet)
	r.HandleFunc("/sign-up", s.handleSignUp).Methods(http.MethodPost)
	r.HandleFunc("/forgot-password", s.handleForgotPage).Methods(http.MethodGet)
	r.HandleFunc("/forgot-password", s.handleForgot).Methods(http.MethodPost)
	r.HandleFunc("/reset-password/{token}", s.handleResetPage).Methods(http.MethodGet)
	r.HandleFunc("/reset-password/{token}", s.handleReset).Methods(http.MethodPost)
	r.HandleFunc("/logout", s.handleLogout).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/language", s.handleLanguage).Methods(http.MethodPost)

	// Guarded admin surface. Every entry re-evaluates the guard; no
	// verdict is cached between navigations.
	authed := s.guard.Middleware(s.sessionID)
	r.Handle("/dashboard", authed(http.HandlerFunc(s.handleDashboard))).Methods(http.MethodGet)
	r.Handle("/change-password", authed(http.HandlerFunc(s.handleChangePasswordPage))).Methods(http.MethodGet)
	r.Handle("/change-password", authed(http.HandlerFunc(s.handleChangePassword))).Methods(http.MethodPost)

	for _, desc := range cms.Registry() {
		gated := s.guard.Middleware(s.sessionID, desc.RequiredRoles...)
		r.Handle("/all-"+desc.Plural, gated(s.listHandler(desc))).Methods(http.MethodGet)
		if desc.ListOnly {
			continue
		}
		r.Handle("/add-"+desc.Name, gated(s.formHandler(desc))).Methods(http.MethodGet, http.MethodPost)
		r.Handle("/edit-"+desc.Name+"/{id}", gated(s.formHandler(desc))).Methods(http.MethodGet, http.MethodPost)
		r.Handle("/delete-"+desc.Name+"/{id}", gated(s.deleteHandler(desc))).Methods(http.MethodGet, http.MethodPost)
	}

	s.router = r
}

// sessionID reads the browser session id cookie, empty when absent.
func (s *Server) sessionID(r *http.Request) string {
	c, err := r.Cookie(s.cfg.SessionCookie)
	if err != nil {
		return ""
	}
	return c.Value
}

// ensureSession returns the session id, minting the cookie on first use.
func (s *Server) ensureSession(w http.ResponseWriter, r *http.Request) string {
	if sid := s.sessionID(r); sid != "" {
		return sid
	}
	sid := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.SessionCookie,
		Value:    sid,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sid
}

func (s *Server) notifier(sid string) crud.Notifier {
	return sessionNotifier{flashes: s.flashes, sid: sid}
}

// viewFor assembles the fields every page shares: drained flashes,
// guard claims when present, the session language.
func (s *Server) viewFor(r *http.Request, title string) *viewData {
	sid := s.sessionID(r)
	rec, _ := s.sessions.Get(r.Context(), sid)
	data := &viewData{
		Title:     title,
		Flashes:   s.flashes.drain(sid),
		Lang:      rec.Lang(),
		Languages: s.cfg.Languages,
		Nav:       cms.Registry(),
	}
	if claims, ok := guard.ClaimsFromContext(r.Context()); ok {
		data.Claims = &claims
	}
	return data
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data *viewData) {
	var buf bytes.Buffer
	if err := pageTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		_ = obs.LogEvent(r.Context(), "web.render_failed", map[string]any{
			"template": name,
			"error":    err.Error(),
		})
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "pressdesk-console",
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// apiMessage extracts the upstream error message for flash display.
func apiMessage(err error, fallback string) string {
	var apiErr *gateway.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
