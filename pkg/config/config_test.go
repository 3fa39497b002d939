package config

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg, loader := Loader()
	require.NoError(t, loader.Load())

	assert.Equal(t, "dest4590/CollapseLoader", cfg.Repo)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "CollapseLoader", cfg.Updater.Prefix)
	assert.Equal(t, "release.yml", cfg.Pipeline.Workflow)

	require.NoError(t, cfg.Validate())
	assert.Equal(t, zerolog.InfoLevel, cfg.LogLevel())
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("COLLAPSE_REPO", "dest4590/CollapseLoader-beta")
	t.Setenv("COLLAPSE_LOG_LEVEL", "debug")

	cfg, loader := Loader()
	require.NoError(t, loader.Load())

	assert.Equal(t, "dest4590/CollapseLoader-beta", cfg.Repo)
	assert.Equal(t, zerolog.DebugLevel, cfg.LogLevel())
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg, loader := Loader()
	require.NoError(t, loader.Load())

	cfg.Log.Level = "chatty"
	assert.Error(t, cfg.Validate())

	cfg.Log.Level = "info"
	cfg.Repo = "not-a-repo"
	assert.Error(t, cfg.Validate())

	cfg.Repo = "owner/name"
	cfg.Pipeline.Workspace = "/definitely/not/a/real/path"
	assert.Error(t, cfg.Validate())
}
