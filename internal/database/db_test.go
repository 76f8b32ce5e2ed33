package database

import (
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KuperOK/Translate-AI-helper/internal/models"
)

func TestSetupAppliesPoolDefaults(t *testing.T) {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	// only type and DSN set, pool settings left zero
	cfg := &Config{
		Type: "sqlite",
		DSN:  filepath.Join(t.TempDir(), "pool.db"),
	}
	require.NoError(t, Setup(cfg, log))
	t.Cleanup(func() {
		require.NoError(t, Close())
		DB = nil
	})

	sqlDB, err := DB.DB()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().MaxOpenConns, sqlDB.Stats().MaxOpenConnections)

	assert.True(t, DB.Migrator().HasTable(&models.TranslationJob{}))
}

func TestSetupRejectsUnknownType(t *testing.T) {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	err := Setup(&Config{Type: "postgres", DSN: "ignored"}, log)
	assert.Error(t, err)
}
