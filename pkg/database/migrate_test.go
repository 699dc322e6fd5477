package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationNames_Ordered(t *testing.T) {
	names, err := MigrationNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"001_schema.sql", "002_email_logs.sql"}, names)
}

func TestMigrations_CascadeFromEvents(t *testing.T) {
	sql, err := migrationsFS.ReadFile("migrations/001_schema.sql")
	require.NoError(t, err)
	assert.Contains(t, string(sql), "event_id   BIGINT NOT NULL REFERENCES events(id) ON DELETE CASCADE")
	assert.Contains(t, string(sql), "username      VARCHAR(150) NOT NULL UNIQUE")
}
