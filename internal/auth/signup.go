package auth

import (
	"context"
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"github.com/example/omnidine/internal/api"
)

const MinPasswordLen = 8

type SignupForm struct {
	Name     string
	Email    string
	Phone    string
	Password string
	Confirm  string
}

// FieldErrors maps a form field to its message.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	parts := make([]string, 0, len(fe))
	for _, k := range []string{"name", "email", "phone", "password", "confirm"} {
		if m, ok := fe[k]; ok {
			parts = append(parts, k+": "+m)
		}
	}
	return "signup: " + strings.Join(parts, "; ")
}

func (f SignupForm) Validate() FieldErrors {
	fe := FieldErrors{}
	if strings.TrimSpace(f.Name) == "" {
		fe["name"] = "Name is required."
	}
	if a, err := mail.ParseAddress(strings.TrimSpace(f.Email)); err != nil || a.Address != strings.TrimSpace(f.Email) {
		fe["email"] = "Enter a valid email address."
	}
	if d := digits(f.Phone); len(d) < 9 || len(d) > 10 || len(d) != len(strings.TrimSpace(f.Phone)) {
		fe["phone"] = "Phone number must be 9 or 10 digits."
	}
	if len(f.Password) < MinPasswordLen {
		fe["password"] = "Password must be at least 8 characters."
	}
	if f.Confirm != f.Password {
		fe["confirm"] = "Passwords do not match."
	}
	if len(fe) == 0 {
		return nil
	}
	return fe
}

// Request is the trimmed API payload. Confirm is not sent.
func (f SignupForm) Request() api.SignupRequest {
	return api.SignupRequest{
		Name:     strings.TrimSpace(f.Name),
		Email:    strings.TrimSpace(f.Email),
		Phone:    strings.TrimSpace(f.Phone),
		Password: f.Password,
	}
}

func digits(s string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(s) {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

var ErrEmailTaken = errors.New("email already registered")

// Signup registers the account and logs it in.
func (s *Store) Signup(ctx context.Context, w http.ResponseWriter, r *http.Request, f SignupForm) (Identity, error) {
	if fe := f.Validate(); fe != nil {
		return Identity{}, fe
	}
	req := f.Request()
	if _, err := s.authn.Signup(ctx, req); err != nil {
		if errors.Is(err, api.ErrConflict) {
			return Identity{}, ErrEmailTaken
		}
		return Identity{}, err
	}
	return s.Login(ctx, w, r, req.Email, req.Password)
}
