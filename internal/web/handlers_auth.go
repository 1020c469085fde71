package web

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"pressdesk.org/internal/cms"
	"pressdesk.org/internal/gateway"
	"pressdesk.org/internal/obs"
	"pressdesk.org/internal/session"
)

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "login", s.viewFor(r, "Log in"))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	sid := s.ensureSession(w, r)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	if email == "" || password == "" {
		s.flashes.push(sid, "warning", "email and password are required")
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	raw, err := s.api.Post(r.Context(), cms.LoginPath,
		gateway.WithJSONBody(map[string]string{"email": email, "password": password}))
	if err != nil {
		s.flashes.push(sid, "error", apiMessage(err, "login failed"))
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	var envelope struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil || envelope.Token == "" {
		s.flashes.push(sid, "error", "login failed")
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	if err := s.sessions.SetToken(r.Context(), sid, envelope.Token); err != nil {
		s.flashes.push(sid, "error", "could not store session")
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (s *Server) handleSignUpPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "signup", s.viewFor(r, "Sign up"))
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	sid := s.ensureSession(w, r)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	confirm := r.FormValue("password_confirmation")
	switch {
	case email == "" || password == "" || confirm == "":
		s.flashes.push(sid, "warning", "all fields are required")
		http.Redirect(w, r, "/sign-up", http.StatusSeeOther)
		return
	case password != confirm:
		s.flashes.push(sid, "warning", "passwords do not match")
		http.Redirect(w, r, "/sign-up", http.StatusSeeOther)
		return
	}

	_, err := s.api.Post(r.Context(), cms.SignUpPath,
		gateway.WithJSONBody(map[string]string{"email": email, "password": password}))
	if err != nil {
		s.flashes.push(sid, "error", apiMessage(err, "sign up failed"))
		http.Redirect(w, r, "/sign-up", http.StatusSeeOther)
		return
	}
	s.flashes.push(sid, "success", "account created, please log in")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Server) handleForgotPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "forgot", s.viewFor(r, "Forgot password"))
}

func (s *Server) handleForgot(w http.ResponseWriter, r *http.Request) {
	sid := s.ensureSession(w, r)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	email := strings.TrimSpace(r.FormValue("email"))
	if email == "" {
		s.flashes.push(sid, "warning", "email is required")
		http.Redirect(w, r, "/forgot-password", http.StatusSeeOther)
		return
	}
	_, err := s.api.Post(r.Context(), cms.ResetPasswordPath,
		gateway.WithJSONBody(map[string]string{"email": email}))
	if err != nil {
		s.flashes.push(sid, "error", apiMessage(err, "request failed"))
		http.Redirect(w, r, "/forgot-password", http.StatusSeeOther)
		return
	}
	s.flashes.push(sid, "success", "reset link sent if the address exists")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Server) handleResetPage(w http.ResponseWriter, r *http.Request) {
	sid := s.ensureSession(w, r)
	resetToken := mux.Vars(r)["token"]
	_, err := s.api.Post(r.Context(), cms.VerifyResetTokenPath,
		gateway.WithJSONBody(map[string]string{"token": resetToken}))
	if err != nil {
		s.flashes.push(sid, "error", apiMessage(err, "reset link is invalid or expired"))
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	data := s.viewFor(r, "Reset password")
	data.Token = resetToken
	s.render(w, r, "reset", data)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sid := s.ensureSession(w, r)
	resetToken := mux.Vars(r)["token"]
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	password := r.FormValue("password")
	confirm := r.FormValue("password_confirmation")
	switch {
	case password == "" || confirm == "":
		s.flashes.push(sid, "warning", "both password fields are required")
		http.Redirect(w, r, "/reset-password/"+resetToken, http.StatusSeeOther)
		return
	case password != confirm:
		s.flashes.push(sid, "warning", "passwords do not match")
		http.Redirect(w, r, "/reset-password/"+resetToken, http.StatusSeeOther)
		return
	}
	_, err := s.api.Post(r.Context(), cms.ResetPasswordPath,
		gateway.WithJSONBody(map[string]string{"token": resetToken, "password": password}))
	if err != nil {
		s.flashes.push(sid, "error", apiMessage(err, "reset failed"))
		http.Redirect(w, r, "/reset-password/"+resetToken, http.StatusSeeOther)
		return
	}
	s.flashes.push(sid, "success", "password updated, please log in")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Server) handleChangePasswordPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "change-password", s.viewFor(r, "Change password"))
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	sid := s.sessionID(r)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	current := r.FormValue("current_password")
	next := r.FormValue("password")
	if current == "" || next == "" {
		s.flashes.push(sid, "warning", "both password fields are required")
		http.Redirect(w, r, "/change-password", http.StatusSeeOther)
		return
	}
	rec, _ := s.sessions.Get(r.Context(), sid)
	_, err := s.api.Post(r.Context(), cms.ChangePasswordPath,
		gateway.WithBearer(rec.Token),
		gateway.WithJSONBody(map[string]string{"current_password": current, "password": next}))
	if err != nil {
		s.flashes.push(sid, "error", apiMessage(err, "change failed"))
		http.Redirect(w, r, "/change-password", http.StatusSeeOther)
		return
	}
	s.flashes.push(sid, "success", "password changed")
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if sid := s.sessionID(r); sid != "" {
		if err := s.sessions.ClearToken(r.Context(), sid); err != nil {
			_ = obs.LogEvent(r.Context(), "web.logout_failed", map[string]any{"error": err.Error()})
		}
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Server) handleLanguage(w http.ResponseWriter, r *http.Request) {
	sid := s.ensureSession(w, r)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	lang, err := session.NormalizeLanguage(r.FormValue("language"), s.cfg.Languages)
	if err != nil {
		s.flashes.push(sid, "warning", "unsupported language")
	} else if err := s.sessions.SetLanguage(r.Context(), sid, lang); err != nil {
		s.flashes.push(sid, "error", "could not store language preference")
	}
	target := r.Referer()
	if target == "" {
		target = "/dashboard"
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "dashboard", s.viewFor(r, "Dashboard"))
}
