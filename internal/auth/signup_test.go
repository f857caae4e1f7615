package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/omnidine/internal/api"
)

func validForm() SignupForm {
	return SignupForm{
		Name:     "Ploy",
		Email:    "ploy@example.com",
		Phone:    "0812345678",
		Password: "longenough",
		Confirm:  "longenough",
	}
}

func TestSignupForm_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*SignupForm)
		field  string
	}{
		{name: "missing name", mutate: func(f *SignupForm) { f.Name = "  " }, field: "name"},
		{name: "bad email", mutate: func(f *SignupForm) { f.Email = "ploy.example.com" }, field: "email"},
		{name: "display name email", mutate: func(f *SignupForm) { f.Email = "Ploy <ploy@example.com>" }, field: "email"},
		{name: "short phone", mutate: func(f *SignupForm) { f.Phone = "12345" }, field: "phone"},
		{name: "phone with letters", mutate: func(f *SignupForm) { f.Phone = "08123x5678" }, field: "phone"},
		{name: "short password", mutate: func(f *SignupForm) { f.Password, f.Confirm = "short", "short" }, field: "password"},
		{name: "mismatch", mutate: func(f *SignupForm) { f.Confirm = "different!" }, field: "confirm"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validForm()
			tt.mutate(&f)
			fe := f.Validate()
			require.NotNil(t, fe)
			assert.Contains(t, fe, tt.field)
			assert.Len(t, fe, 1)
		})
	}

	assert.Nil(t, validForm().Validate())
	nine := validForm()
	nine.Phone = "021234567"
	assert.Nil(t, nine.Validate())
}

func TestStore_Signup(t *testing.T) {
	authn := &fakeAuthn{}
	s, repo := newTestStore(t, authn)
	rec := httptest.NewRecorder()

	f := validForm()
	f.Email = " ploy@example.com "
	ident, err := s.Signup(context.Background(), rec, httptest.NewRequest(http.MethodPost, "/signup", nil), f)
	require.NoError(t, err)
	require.Len(t, authn.signups, 1)
	assert.Equal(t, "ploy@example.com", authn.signups[0].Email)
	assert.Equal(t, "token-for-ploy@example.com", ident.AccessToken)
	assert.Len(t, repo.rows, 1)
}

func TestStore_SignupValidationSkipsAPI(t *testing.T) {
	authn := &fakeAuthn{}
	s, _ := newTestStore(t, authn)

	f := validForm()
	f.Confirm = "nope"
	_, err := s.Signup(context.Background(), httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/signup", nil), f)

	var fe FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe, "confirm")
	assert.Empty(t, authn.signups)
}

func TestStore_SignupEmailTaken(t *testing.T) {
	s, _ := newTestStore(t, &fakeAuthn{signupErr: &api.Error{StatusCode: http.StatusConflict}})

	_, err := s.Signup(context.Background(), httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/signup", nil), validForm())
	assert.ErrorIs(t, err, ErrEmailTaken)
}
