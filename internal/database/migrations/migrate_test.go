package migrations

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNames_Ordered(t *testing.T) {
	names, err := Names()
	require.NoError(t, err)

	assert.Equal(t, []string{"001_init.sql", "002_seed_flights.sql"}, names)
}

func TestMigrations_NotEmpty(t *testing.T) {
	names, err := Names()
	require.NoError(t, err)

	for _, name := range names {
		sql, err := migrationFiles.ReadFile(name)
		require.NoError(t, err)
		assert.NotEmpty(t, strings.TrimSpace(string(sql)), name)
	}

	initSQL, err := migrationFiles.ReadFile("001_init.sql")
	require.NoError(t, err)
	for _, table := range []string{"flights", "seats", "bookings"} {
		assert.Contains(t, string(initSQL), "CREATE TABLE IF NOT EXISTS "+table)
	}
}
