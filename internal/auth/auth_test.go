package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/omnidine/internal/api"
	"github.com/example/omnidine/internal/crypto"
	"github.com/example/omnidine/internal/db"
)

type memRepo struct {
	mu   sync.Mutex
	rows map[string]Record
}

func newMemRepo() *memRepo { return &memRepo{rows: map[string]Record{}} }

func (m *memRepo) Create(_ context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[rec.ID] = rec
	return nil
}

func (m *memRepo) Get(_ context.Context, id string) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.rows[id]
	if !ok {
		return Record{}, db.ErrNotFound
	}
	return rec, nil
}

func (m *memRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, id)
	return nil
}

func (m *memRepo) PurgeExpired(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, rec := range m.rows {
		if !rec.ExpiresAt.After(now) {
			delete(m.rows, id)
			n++
		}
	}
	return n, nil
}

type fakeAuthn struct {
	loginErr  error
	signupErr error
	signups   []api.SignupRequest
}

func (f *fakeAuthn) Login(_ context.Context, email, password string) (api.LoginResult, error) {
	if f.loginErr != nil {
		return api.LoginResult{}, f.loginErr
	}
	return api.LoginResult{
		AccessToken: "token-for-" + email,
		User:        api.User{ID: 42, Name: "Ploy", Email: email, Role: api.RoleStaff},
	}, nil
}

func (f *fakeAuthn) Signup(_ context.Context, req api.SignupRequest) (api.User, error) {
	f.signups = append(f.signups, req)
	if f.signupErr != nil {
		return api.User{}, f.signupErr
	}
	return api.User{ID: 43, Name: req.Name, Email: req.Email, Role: api.RoleCustomer}, nil
}

func newTestStore(t *testing.T, authn Authenticator) (*Store, *memRepo) {
	t.Helper()
	sealer, err := crypto.New(securecookie.GenerateRandomKey(32))
	require.NoError(t, err)
	repo := newMemRepo()
	s := NewStore(repo, sealer, authn, securecookie.GenerateRandomKey(32), securecookie.GenerateRandomKey(32), time.Hour, nil)
	return s, repo
}

func login(t *testing.T, s *Store) (Identity, *http.Cookie) {
	t.Helper()
	rec := httptest.NewRecorder()
	ident, err := s.Login(context.Background(), rec, httptest.NewRequest(http.MethodPost, "/login", nil), "ploy@example.com", "secret123")
	require.NoError(t, err)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	return ident, cookies[0]
}

func TestStore_LoginAndCurrent(t *testing.T) {
	s, repo := newTestStore(t, &fakeAuthn{})
	ident, cookie := login(t, s)

	assert.Equal(t, int64(42), ident.UserID)
	assert.Equal(t, api.RoleStaff, ident.Role)
	assert.Equal(t, "token-for-ploy@example.com", ident.AccessToken)
	assert.Equal(t, cookieName, cookie.Name)
	assert.True(t, cookie.HttpOnly)

	row, err := repo.Get(context.Background(), ident.SessionID)
	require.NoError(t, err)
	assert.NotContains(t, row.SealedToken, "token-for")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	got, err := s.Current(req)
	require.NoError(t, err)
	assert.Equal(t, ident, got)
}

func TestStore_LoginInvalidCredentials(t *testing.T) {
	s, repo := newTestStore(t, &fakeAuthn{loginErr: &api.Error{StatusCode: http.StatusUnauthorized}})
	rec := httptest.NewRecorder()

	_, err := s.Login(context.Background(), rec, httptest.NewRequest(http.MethodPost, "/login", nil), "x@example.com", "nope")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Empty(t, repo.rows)
	assert.Empty(t, rec.Result().Cookies())
}

func TestStore_CurrentRejectsTamperedCookie(t *testing.T) {
	s, _ := newTestStore(t, &fakeAuthn{})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: cookieName, Value: "garbage"})

	_, err := s.Current(req)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestStore_ExpiredSession(t *testing.T) {
	s, repo := newTestStore(t, &fakeAuthn{})
	ident, cookie := login(t, s)

	s.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)

	_, err := s.Current(req)
	assert.ErrorIs(t, err, ErrNoSession)
	_, err = repo.Get(context.Background(), ident.SessionID)
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestStore_Logout(t *testing.T) {
	s, repo := newTestStore(t, &fakeAuthn{})
	ident, cookie := login(t, s)

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()

	assert.Equal(t, ident.SessionID, s.Logout(context.Background(), rec, req))
	assert.Empty(t, repo.rows)

	cleared := rec.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Equal(t, -1, cleared[0].MaxAge)
}

func TestStore_PurgeExpired(t *testing.T) {
	s, repo := newTestStore(t, &fakeAuthn{})
	login(t, s)
	login(t, s)

	n, err := s.PurgeExpired(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)

	s.now = func() time.Time { return time.Now().Add(time.Hour + time.Minute) }
	n, err = s.PurgeExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Empty(t, repo.rows)
}

func TestRequireAuth(t *testing.T) {
	s, _ := newTestStore(t, &fakeAuthn{})
	var seen Identity
	h := s.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = IdentityFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders", nil))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	ident, cookie := login(t, s)
	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, ident, seen)
}

func TestRequireRole(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	h := RequireRole(api.RoleAdmin)(ok)

	tests := []struct {
		name string
		role api.Role
		want int
	}{
		{name: "admin", role: api.RoleAdmin, want: http.StatusOK},
		{name: "staff", role: api.RoleStaff, want: http.StatusForbidden},
		{name: "customer", role: api.RoleCustomer, want: http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
			req = req.WithContext(WithIdentity(req.Context(), Identity{UserID: 1, Role: tt.role}))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
