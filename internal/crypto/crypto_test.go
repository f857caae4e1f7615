package crypto

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey() []byte { return bytes.Repeat([]byte{7}, 32) }

func TestSealer_RoundTrip(t *testing.T) {
	s, err := New(testKey())
	require.NoError(t, err)

	sealed, err := s.SealString("eyJhbGciOiJIUzI1NiJ9.token")
	require.NoError(t, err)
	assert.NotContains(t, sealed, "token")

	plain, err := s.OpenString(sealed)
	require.NoError(t, err)
	assert.Equal(t, "eyJhbGciOiJIUzI1NiJ9.token", plain)
}

func TestSealer_NonceVaries(t *testing.T) {
	s, err := New(testKey())
	require.NoError(t, err)

	a, _ := s.SealString("same")
	b, _ := s.SealString("same")
	assert.NotEqual(t, a, b)
}

func TestSealer_RejectsBadInput(t *testing.T) {
	s, err := New(testKey())
	require.NoError(t, err)

	_, err = s.OpenString("c2hvcnQ")
	assert.ErrorIs(t, err, ErrCiphertext)

	other, err := New(bytes.Repeat([]byte{9}, 32))
	require.NoError(t, err)
	sealed, _ := other.SealString("secret")
	_, err = s.OpenString(sealed)
	assert.Error(t, err)
}

func TestNew_KeySize(t *testing.T) {
	_, err := New([]byte("short"))
	assert.Error(t, err)
}
