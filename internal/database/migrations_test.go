package database

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/chatgate/internal/models"
)

func TestAutoMigrateCreatesServerSettings(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, AutoMigrate(db))
	require.True(t, db.Migrator().HasTable(&models.ServerSettings{}))
	require.True(t, db.Migrator().HasColumn(&models.ServerSettings{}, "server_url"))
	require.True(t, db.Migrator().HasIndex(&models.ServerSettings{}, "idx_server_settings_server_url"))

	// idempotent
	require.NoError(t, AutoMigrate(db))
}

func TestAutoMigrateNilDB(t *testing.T) {
	require.ErrorIs(t, AutoMigrate(nil), errNilDB)
}
