package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chachabrian/sendit-backend/internal/config"
	"github.com/chachabrian/sendit-backend/internal/logger"
	"github.com/chachabrian/sendit-backend/internal/models"
)

func TestInitDBSQLiteAndMigrate(t *testing.T) {
	db, err := InitDB(&config.DatabaseConfig{Driver: "sqlite", Name: ":memory:"}, logger.Discard())
	require.NoError(t, err)
	defer Close(db)

	require.NoError(t, RunMigrations(db))
	// migrations are re-runnable
	require.NoError(t, RunMigrations(db))

	for _, table := range []interface{}{&models.User{}, &models.Admin{}, &models.Destination{}, &models.Parcel{}} {
		assert.True(t, db.Migrator().HasTable(table))
	}
	assert.True(t, db.Migrator().HasIndex(&models.Parcel{}, "idx_parcels_user_id_id"))
	assert.NoError(t, HealthCheck(context.Background(), db))
}

func TestInitDBUnknownDriver(t *testing.T) {
	_, err := InitDB(&config.DatabaseConfig{Driver: "oracle"}, logger.Discard())
	assert.Error(t, err)
}
