package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/example/omnidine/internal/api"
	"github.com/example/omnidine/internal/auth"
)

type loginPage struct {
	Email string
}

type signupPage struct {
	Form   auth.SignupForm
	Errors auth.FieldErrors
}

func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "templates/login.html", tmplData{Title: "Log in", Page: loginPage{}})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")

	ident, err := s.Auth.Login(r.Context(), w, r, email, password)
	if err != nil {
		msg := "Invalid email or password."
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			s.Logger.Error("login failed", "error", err)
			msg = "Could not log in right now. Please try again."
		}
		s.render(w, r, http.StatusUnauthorized, "templates/login.html", tmplData{
			Title: "Log in", Flash: msg, FlashKind: "error", Page: loginPage{Email: email},
		})
		return
	}
	s.redirect(w, r, homeFor(ident), "success", "Welcome back, "+ident.Name+".")
}

func homeFor(ident auth.Identity) string {
	switch ident.Role {
	case api.RoleAdmin:
		return "/admin/dashboard"
	case api.RoleStaff:
		return "/staff/orders"
	default:
		return "/"
	}
}

func (s *Server) handleSignupForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "templates/signup.html", tmplData{Title: "Sign up", Page: signupPage{}})
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	f := auth.SignupForm{
		Name:     r.FormValue("name"),
		Email:    r.FormValue("email"),
		Phone:    r.FormValue("phone"),
		Password: r.FormValue("password"),
		Confirm:  r.FormValue("confirm"),
	}
	ident, err := s.Auth.Signup(r.Context(), w, r, f)
	if err != nil {
		page := signupPage{Form: f}
		page.Form.Password, page.Form.Confirm = "", ""
		data := tmplData{Title: "Sign up", Page: &page}

		var fe auth.FieldErrors
		switch {
		case errors.As(err, &fe):
			page.Errors = fe
		case errors.Is(err, auth.ErrEmailTaken):
			page.Errors = auth.FieldErrors{"email": "This email is already registered."}
		default:
			s.Logger.Error("signup failed", "error", err)
			data.Flash, data.FlashKind = "Could not create your account right now. Please try again.", "error"
		}
		s.render(w, r, http.StatusUnprocessableEntity, "templates/signup.html", data)
		return
	}
	s.redirect(w, r, "/", "success", "Welcome to OmniDine, "+ident.Name+".")
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if id := s.Auth.Logout(r.Context(), w, r); id != "" {
		s.flows.discard(id)
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
