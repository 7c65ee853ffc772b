package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// isolate points every lookup at a temp dir so a developer's .env does not leak in.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("CLINIC_ENV_FILE", filepath.Join(dir, "missing.env"))
	for _, k := range []string{"CLINIC_BACKEND", "CLINIC_DATA_DIR", "CLINIC_SQLITE_PATH", "CLINIC_CHAIR_POLICY", "CLINIC_SESSION_TTL", "CLINIC_REDIS_DB", "CLINIC_DEV"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	dir := isolate(t)

	c, err := Load(nil, nil)
	require.NoError(t, err)
	require.Equal(t, BackendFile, c.Backend)
	require.Equal(t, filepath.Join(dir, "clinic"), c.DataDir)
	require.Equal(t, filepath.Join(dir, "clinic", "clinic.db"), c.SQLitePath)
	require.Equal(t, PolicyBestEffort, c.ChairPolicy)
	require.Equal(t, 12*time.Hour, c.SessionTTL)
	require.False(t, c.Dev)
}

func TestLoad_EnvThenFlags(t *testing.T) {
	isolate(t)
	t.Setenv("CLINIC_BACKEND", "sqlite")
	t.Setenv("CLINIC_CHAIR_POLICY", "strict")
	t.Setenv("CLINIC_SESSION_TTL", "30m")
	t.Setenv("CLINIC_REDIS_DB", "3")

	c, err := Load(flag.NewFlagSet("t", flag.ContinueOnError), []string{"-backend", "memory"})
	require.NoError(t, err)
	require.Equal(t, BackendMemory, c.Backend, "flag overrides env")
	require.Equal(t, PolicyStrict, c.ChairPolicy)
	require.Equal(t, 30*time.Minute, c.SessionTTL)
	require.Equal(t, 3, c.RedisDB)
}

func TestLoad_DotEnvFile(t *testing.T) {
	dir := isolate(t)
	envFile := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("CLINIC_BACKEND=redis\nCLINIC_REDIS_PREFIX=x:\n"), 0o600))
	t.Setenv("CLINIC_ENV_FILE", envFile)
	t.Cleanup(func() {
		os.Unsetenv("CLINIC_BACKEND")
		os.Unsetenv("CLINIC_REDIS_PREFIX")
	})

	c, err := Load(nil, nil)
	require.NoError(t, err)
	require.Equal(t, BackendRedis, c.Backend)
	require.Equal(t, "x:", c.RedisPrefix)
}

func TestValidate_Rejects(t *testing.T) {
	isolate(t)

	_, err := Load(nil, []string{"-backend", "floppy"})
	require.Error(t, err)

	_, err = Load(nil, []string{"-chair-policy", "yolo"})
	require.Error(t, err)

	_, err = Load(nil, []string{"-session-ttl", "0s"})
	require.Error(t, err)
}

func TestLogger_Modes(t *testing.T) {
	for _, dev := range []bool{false, true} {
		c := &Config{Dev: dev}
		l, err := c.Logger()
		require.NoError(t, err)
		require.NotNil(t, l)
	}
}
