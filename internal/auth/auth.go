package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"

	"github.com/example/omnidine/internal/api"
	"github.com/example/omnidine/internal/crypto"
	"github.com/example/omnidine/internal/db"
	"github.com/example/omnidine/internal/logging"
)

var (
	ErrNoSession          = errors.New("no session")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Identity is the authenticated caller. It is passed explicitly to anything
// that talks to the API on the user's behalf.
type Identity struct {
	SessionID   string
	UserID      int64
	Name        string
	Email       string
	Role        api.Role
	AccessToken string
}

func (i Identity) HasRole(roles ...api.Role) bool {
	for _, r := range roles {
		if i.Role == r {
			return true
		}
	}
	return false
}

// Authenticator is the part of the API client used for credentials.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (api.LoginResult, error)
	Signup(ctx context.Context, req api.SignupRequest) (api.User, error)
}

type Store struct {
	sc     *securecookie.SecureCookie
	repo   Repo
	sealer *crypto.Sealer
	authn  Authenticator
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

type ctxKey string

const identityKey ctxKey = "identity"

const cookieName = "omnidine_session"

func NewStore(repo Repo, sealer *crypto.Sealer, authn Authenticator, hashKey, blockKey []byte, ttl time.Duration, logger *slog.Logger) *Store {
	if logger == nil {
		logger = logging.Discard()
	}
	sc := securecookie.New(hashKey, blockKey)
	sc.MaxAge(int(ttl.Seconds()))
	return &Store{
		sc:     sc,
		repo:   repo,
		sealer: sealer,
		authn:  authn,
		ttl:    ttl,
		now:    time.Now,
		logger: logger,
	}
}

// Login checks the credentials against the API and opens a session.
func (s *Store) Login(ctx context.Context, w http.ResponseWriter, r *http.Request, email, password string) (Identity, error) {
	res, err := s.authn.Login(ctx, email, password)
	if err != nil {
		if errors.Is(err, api.ErrUnauthorized) || errors.Is(err, api.ErrRejected) || errors.Is(err, api.ErrNotFound) {
			return Identity{}, ErrInvalidCredentials
		}
		return Identity{}, err
	}
	if res.AccessToken == "" {
		return Identity{}, fmt.Errorf("login: %w: empty access token", api.ErrMalformed)
	}
	return s.open(ctx, w, r, res)
}

func (s *Store) open(ctx context.Context, w http.ResponseWriter, r *http.Request, res api.LoginResult) (Identity, error) {
	sealed, err := s.sealer.SealString(res.AccessToken)
	if err != nil {
		return Identity{}, fmt.Errorf("seal token: %w", err)
	}
	now := s.now()
	rec := Record{
		ID:          uuid.NewString(),
		UserID:      res.User.ID,
		Name:        res.User.Name,
		Email:       res.User.Email,
		Role:        res.User.Role,
		SealedToken: sealed,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.ttl),
	}
	if rec.Role == "" {
		rec.Role = api.RoleCustomer
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		return Identity{}, fmt.Errorf("create session: %w", err)
	}

	encoded, err := s.sc.Encode(cookieName, rec.ID)
	if err != nil {
		return Identity{}, err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    encoded,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
		MaxAge:   int(s.ttl.Seconds()),
	})
	s.logger.Info("session opened", "user_id", rec.UserID, "role", rec.Role)
	return rec.identity(res.AccessToken), nil
}

// Logout removes the session row and clears the cookie. It returns the id of
// the session that was closed, if any.
func (s *Store) Logout(ctx context.Context, w http.ResponseWriter, r *http.Request) string {
	s.clearCookie(w)
	id, ok := s.sessionID(r)
	if !ok {
		return ""
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Warn("delete session failed", "error", err)
	}
	return id
}

func (s *Store) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

func (s *Store) sessionID(r *http.Request) (string, bool) {
	c, err := r.Cookie(cookieName)
	if err != nil {
		return "", false
	}
	var id string
	if err := s.sc.Decode(cookieName, c.Value, &id); err != nil || id == "" {
		return "", false
	}
	return id, true
}

// Current resolves the request's session into an Identity.
func (s *Store) Current(r *http.Request) (Identity, error) {
	id, ok := s.sessionID(r)
	if !ok {
		return Identity{}, ErrNoSession
	}
	rec, err := s.repo.Get(r.Context(), id)
	if err != nil {
		if db.IsNotFound(err) {
			return Identity{}, ErrNoSession
		}
		return Identity{}, err
	}
	if !s.now().Before(rec.ExpiresAt) {
		if err := s.repo.Delete(r.Context(), id); err != nil {
			s.logger.Warn("delete expired session failed", "error", err)
		}
		return Identity{}, ErrNoSession
	}
	token, err := s.sealer.OpenString(rec.SealedToken)
	if err != nil {
		return Identity{}, fmt.Errorf("open token: %w", err)
	}
	return rec.identity(token), nil
}

func (s *Store) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ident, err := s.Current(r)
		if err != nil {
			if !errors.Is(err, ErrNoSession) {
				s.logger.Error("resolve session failed", "error", err)
			}
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), ident)))
	})
}

// RequireRole must run after RequireAuth.
func RequireRole(roles ...api.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ident, ok := IdentityFromContext(r.Context())
			if !ok {
				http.Redirect(w, r, "/login", http.StatusFound)
				return
			}
			if !ident.HasRole(roles...) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func WithIdentity(ctx context.Context, ident Identity) context.Context {
	return context.WithValue(ctx, identityKey, ident)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	ident, ok := ctx.Value(identityKey).(Identity)
	return ident, ok
}

// PurgeExpired is run by the janitor.
func (s *Store) PurgeExpired(ctx context.Context) (int64, error) {
	return s.repo.PurgeExpired(ctx, s.now())
}
