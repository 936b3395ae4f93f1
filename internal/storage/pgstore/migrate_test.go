package pgstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrate_EmbeddedMigrations(t *testing.T) {
	entries, err := migrationsFS.ReadDir("migrations")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "000001_create_user_data.down.sql", entries[0].Name())
	assert.Equal(t, "000001_create_user_data.up.sql", entries[1].Name())
}

func TestMigrate_UnreachableDatabase(t *testing.T) {
	err := Migrate("postgres://postgres@127.0.0.1:1/fitness_tracker?sslmode=disable&connect_timeout=1")
	require.Error(t, err)
	assert.ErrorContains(t, err, "new migrate")
}
