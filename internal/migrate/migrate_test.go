package migrate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFiles_Ordered(t *testing.T) {
	files, err := Files()
	require.NoError(t, err)
	assert.Equal(t, []string{"001_sessions.sql", "002_carts.sql"}, files)
}

func TestFiles_CreateExpectedTables(t *testing.T) {
	sessions, err := fs.ReadFile("001_sessions.sql")
	require.NoError(t, err)
	assert.Contains(t, string(sessions), "CREATE TABLE IF NOT EXISTS sessions")
	assert.Contains(t, string(sessions), "sealed_token")

	carts, err := fs.ReadFile("002_carts.sql")
	require.NoError(t, err)
	assert.Contains(t, string(carts), "CREATE TABLE IF NOT EXISTS carts")
}
