package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-app-ranking/internal/config"
)

func write(t *testing.T, body string) string {
	t.Helper()
	f := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(f, []byte(body), 0o644))
	return f
}

func TestLoad_Defaults(t *testing.T) {
	c, err := config.Load(write(t, "APPS:\n  - name: A\n    url: https://x/a\n"))
	require.NoError(t, err)
	assert.Equal(t, []config.App{{Name: "A", URL: "https://x/a"}}, c.Apps)
	assert.Equal(t, config.DefaultSnapshotDir, c.SnapshotDir)
	assert.Equal(t, config.DefaultLogDir, c.LogDir)
	assert.Equal(t, "sqlite", c.Database.Type)
	assert.Equal(t, config.DefaultSQLiteDSN, c.Database.DSN)
	assert.Equal(t, 25*time.Second, c.Fetch.Timeout)
	assert.Equal(t, "pretty", c.LogFormat)
	assert.Equal(t, "zh-CN", c.LogLocale)
	assert.Equal(t, "auto", c.LogColor)
}

func TestLoad_ExpandsEnvAndNormalizesPostgres(t *testing.T) {
	t.Setenv("ASR_TEST_DSN", "postgres://u:p@localhost/app_store")
	c, err := config.Load(write(t, "DATABASE:\n  type: PostgreSQL\n  dsn: ${ASR_TEST_DSN}\nFETCH:\n  timeout: 5s\n"))
	require.NoError(t, err)
	assert.Equal(t, "postgres", c.Database.Type)
	assert.Equal(t, "postgres://u:p@localhost/app_store", c.Database.DSN)
	assert.Equal(t, 5*time.Second, c.Fetch.Timeout)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"app without url":  "APPS:\n  - name: A\n",
		"app without name": "APPS:\n  - url: https://x\n",
		"postgres no dsn":  "DATABASE:\n  type: postgres\n",
		"unknown db":       "DATABASE:\n  type: mysql\n",
		"negative timeout": "FETCH:\n  timeout: -1s\n",
		"malformed yaml":   "APPS: [\n",
	}
	for name, body := range cases {
		_, err := config.Load(write(t, body))
		assert.Error(t, err, name)
	}
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_ExampleFile(t *testing.T) {
	c, err := config.Load(filepath.Join("..", "..", "settings.example.yaml"))
	require.NoError(t, err)
	require.Len(t, c.Apps, 4)
	assert.Equal(t, "MAX", c.Apps[0].Name)
	assert.Contains(t, c.Apps[3].URL, "id1327268470")
	assert.Equal(t, "appstore", c.Theme)
}

func TestLoad_DotEnv(t *testing.T) {
	cfg := write(t, "LOG_LEVEL: ${ASR_TEST_LEVEL}\n")

	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("ASR_TEST_LEVEL", "")
	require.NoError(t, os.Unsetenv("ASR_TEST_LEVEL"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("ASR_TEST_LEVEL=debug\n"), 0o644))
	c, err := config.Load(cfg)
	require.NoError(t, err)
	assert.Equal(t, "debug", c.LogLevel)

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("ASR_TEST_BROKEN=\"unterminated\n"), 0o644))
	_, err = config.Load(cfg)
	assert.ErrorContains(t, err, ".env")
}
