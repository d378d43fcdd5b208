package web

import (
	"net/http"

	"finview/internal/core"
	"finview/internal/finance"
	"finview/internal/log"
)

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "login.html", s.newBasePage())
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.notices.SetError("Invalid form submission.")
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	creds := core.Credentials{
		Username: sanitizeInput(r.Form.Get("username")),
		Password: r.Form.Get("password"),
	}
	if err := creds.Validate(); err != nil {
		s.notices.SetError(err.Error())
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	ctx := r.Context()
	pair, err := s.auth.Login(ctx, creds)
	if err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Login failed",
			log.FieldOperation, log.OpLogin, log.FieldError, err)
		s.notices.SetError(loginFailureMessage(err))
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	if err := s.sessions.Login(ctx, pair.Access, pair.Refresh); err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "Session persist failed",
			log.FieldOperation, log.OpLogin, log.FieldError, err)
		s.notices.SetError("Could not start a session. Please try again.")
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	s.invalidateSnapshot()
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleRegisterPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "register.html", s.newBasePage())
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.notices.SetError("Invalid form submission.")
		http.Redirect(w, r, "/register", http.StatusSeeOther)
		return
	}

	reg := core.Registration{
		Username:        sanitizeInput(r.Form.Get("username")),
		Password:        r.Form.Get("password"),
		ConfirmPassword: r.Form.Get("confirm_password"),
	}
	if err := reg.Validate(); err != nil {
		s.notices.SetError(err.Error())
		http.Redirect(w, r, "/register", http.StatusSeeOther)
		return
	}

	ctx := r.Context()
	user, err := s.auth.Register(ctx, reg)
	if err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Registration failed",
			log.FieldOperation, log.OpRegister, log.FieldError, err)
		s.fail(w, r, err, "/register")
		return
	}

	log.FromContext(ctx).InfoContext(ctx, "User registered",
		log.FieldOperation, log.OpRegister, "username", user.Username)
	s.notices.SetSuccess("Account created. Please log in.")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := s.sessions.Logout(ctx); err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "Logout failed",
			log.FieldOperation, log.OpLogout, log.FieldError, err)
	}
	s.invalidateSnapshot()
	s.notices.Clear()
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// loginFailureMessage keeps the 401-on-login case user friendly; a 401
// here means bad credentials, not a stale session.
func loginFailureMessage(err error) string {
	if finance.IsAuth(err) {
		return "Login failed. Please check your username and password."
	}
	return finance.UserMessage(err)
}
