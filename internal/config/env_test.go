package config

import (
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnv_Defaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("AGENTSYNC_HOME_DIR", home)

	env, err := LoadEnv()
	require.NoError(t, err)
	assert.Equal(t, "local", env.Env)
	assert.True(t, env.IsLocal())
	assert.Equal(t, "claude", env.AppName)
	assert.Equal(t, home, env.HomeDir)
	assert.True(t, filepath.IsAbs(env.WorkDir))
	assert.Equal(t, "local", env.StorageEnv.Type)
	assert.Equal(t, "127.0.0.1:3200", env.Addr())
	assert.Equal(t, slog.LevelInfo, env.SlogLevel())
	assert.Empty(t, env.IgnorePatterns)
}

func TestLoadEnv_Overrides(t *testing.T) {
	work := t.TempDir()
	t.Setenv("AGENTSYNC_HOME_DIR", t.TempDir())
	t.Setenv("AGENTSYNC_WORK_DIR", work)
	t.Setenv("AGENTSYNC_LOG_LEVEL", "debug")
	t.Setenv("AGENTSYNC_APP_NAME", "cursor")
	t.Setenv("AGENTSYNC_IGNORE_PATTERNS", "draft-*.md,agents/wip/**")
	t.Setenv("AGENTSYNC_HTTP_PORT", "9999")

	env, err := LoadEnv()
	require.NoError(t, err)
	assert.Equal(t, work, env.WorkDir)
	assert.Equal(t, slog.LevelDebug, env.SlogLevel())
	assert.Equal(t, "cursor", env.AppName)
	assert.Equal(t, []string{"draft-*.md", "agents/wip/**"}, env.IgnorePatterns)
	assert.Equal(t, "127.0.0.1:9999", env.Addr())
}

func TestLoadEnv_Storage(t *testing.T) {
	t.Setenv("AGENTSYNC_HOME_DIR", t.TempDir())

	t.Setenv("AGENTSYNC_STORAGE_TYPE", "s3")
	_, err := LoadEnv()
	assert.ErrorContains(t, err, "S3_BUCKET")

	t.Setenv("AGENTSYNC_S3_BUCKET", "agents")
	env, err := LoadEnv()
	require.NoError(t, err)
	assert.Equal(t, "agentsync/", env.S3Prefix)

	t.Setenv("AGENTSYNC_STORAGE_TYPE", "ftp")
	_, err = LoadEnv()
	assert.Error(t, err)
}

func TestSlogLevel_Invalid(t *testing.T) {
	env := &BaseEnv{LogLevel: "loud"}
	assert.Equal(t, slog.LevelInfo, env.SlogLevel())
	assert.Equal(t, slog.LevelInfo, (*BaseEnv)(nil).SlogLevel())
}
