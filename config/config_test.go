package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/errors"
)

func TestLoad(t *testing.T) {
	noEnvFile := filepath.Join(t.TempDir(), "missing.env")

	t.Run("defaults", func(t *testing.T) {
		cfg, err := Load(noEnvFile)
		require.NoError(t, err)
		assert.Equal(t, "fern", cfg.AppName)
		assert.Equal(t, 3010, cfg.Port)
		assert.Equal(t, "sqlite", cfg.DatabaseDriver)
		assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
		assert.Equal(t, 100*time.Millisecond, cfg.KafkaBatchTimeout)
		assert.Equal(t, 1, cfg.Workers)
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("FERN_PORT", "8088")
		t.Setenv("FERN_WORKERS", "4")
		t.Setenv("FERN_DB_DRIVER", "postgres")
		cfg, err := Load(noEnvFile)
		require.NoError(t, err)
		assert.Equal(t, 8088, cfg.Port)
		assert.Equal(t, 4, cfg.Workers)
		assert.Equal(t, "postgres", cfg.DatabaseDriver)
	})

	t.Run("env file", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "test.env")
		require.NoError(t, os.WriteFile(file, []byte("FERN_MATCH_PROFILE=profiles/strict.yaml\n"), 0o600))
		t.Cleanup(func() { os.Unsetenv("FERN_MATCH_PROFILE") })
		cfg, err := Load(file)
		require.NoError(t, err)
		assert.Equal(t, "profiles/strict.yaml", cfg.MatchProfilePath)
	})

	t.Run("invalid driver", func(t *testing.T) {
		t.Setenv("FERN_DB_DRIVER", "oracle")
		_, err := Load(noEnvFile)
		assert.True(t, errors.IsConfigurationError(err))
	})

	t.Run("invalid workers", func(t *testing.T) {
		t.Setenv("FERN_WORKERS", "0")
		_, err := Load(noEnvFile)
		assert.True(t, errors.IsConfigurationError(err))
	})
}
