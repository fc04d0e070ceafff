package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chachabrian/sendit-backend/internal/config"
	"github.com/chachabrian/sendit-backend/internal/logger"
)

func TestMigrate(t *testing.T) {
	name := filepath.Join(t.TempDir(), "sendit.db")
	assert.NoError(t, migrate(&config.DatabaseConfig{Driver: "sqlite", Name: name}, logger.Discard()))
	// applying twice is a no-op
	assert.NoError(t, migrate(&config.DatabaseConfig{Driver: "sqlite", Name: name}, logger.Discard()))

	assert.Error(t, migrate(&config.DatabaseConfig{Driver: "oracle"}, logger.Discard()))
}
