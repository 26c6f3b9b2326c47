package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManagerDefaults(t *testing.T) {
	m, err := NewManager()
	require.NoError(t, err)

	cfg := m.GetConfig()
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "data/lirical.db", cfg.Resources.DatabasePath)
	assert.False(t, cfg.Resources.IncludeOrphanet)
	assert.Equal(t, 4, cfg.Analysis.Workers)
	assert.Equal(t, 8192, cfg.Analysis.GraphCache)
	assert.Equal(t, 20, cfg.Analysis.DefaultTopK)
	assert.Equal(t, "info", cfg.Logging.Level)

	assert.NoError(t, m.Validate())
}

func TestValidate(t *testing.T) {
	m, err := NewManager()
	require.NoError(t, err)

	t.Run("Invalid_Port", func(t *testing.T) {
		cfg := *m.GetConfig()
		cfg.Server.Port = -1
		bad := &Manager{config: &cfg}
		assert.Error(t, bad.Validate())
	})

	t.Run("Missing_Database_Path", func(t *testing.T) {
		cfg := *m.GetConfig()
		cfg.Resources.DatabasePath = ""
		bad := &Manager{config: &cfg}
		assert.Error(t, bad.Validate())
	})

	t.Run("Zero_Workers", func(t *testing.T) {
		cfg := *m.GetConfig()
		cfg.Analysis.Workers = 0
		bad := &Manager{config: &cfg}
		assert.Error(t, bad.Validate())
	})

	t.Run("Bad_Log_Level", func(t *testing.T) {
		cfg := *m.GetConfig()
		cfg.Logging.Level = "loud"
		bad := &Manager{config: &cfg}
		assert.Error(t, bad.Validate())
	})
}
