package thoughtflowconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadOrInitCreatesDefaults(t *testing.T) {
	t.Parallel()

	home := t.TempDir()
	cfg, err := LoadOrInit(home)
	require.NoError(t, err)

	require.Equal(t, DefaultServerURL, cfg.ServerURL)
	require.NotEmpty(t, cfg.Backend.SQLitePath)
	require.NotEmpty(t, cfg.Backend.DataDir)
	require.Equal(t, DefaultOutput, cfg.CLI.Output)
	require.Equal(t, DefaultOperator, cfg.CLI.Operator)
	require.Equal(t, filepath.Join(home, ".config", "thoughtflow", "config.yaml"), ConfigPath(home))

	_, err = os.Stat(ConfigPath(home))
	require.NoError(t, err)
}

func TestLoadOrInitMergesMissingFields(t *testing.T) {
	t.Parallel()

	home := t.TempDir()
	path := ConfigPath(home)

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(`
server_url: http://seed:8080
backend:
  sqlite_path: /seed/projection.db
cli:
  output: JSON
`), 0o644))

	cfg, err := LoadOrInit(home)
	require.NoError(t, err)

	require.Equal(t, "http://seed:8080", cfg.ServerURL)
	require.Equal(t, "/seed/projection.db", cfg.Backend.SQLitePath)
	require.NotEmpty(t, cfg.Backend.DataDir)
	require.Equal(t, "json", cfg.CLI.Output)
	require.Equal(t, DefaultOperator, cfg.CLI.Operator)

	roundTrip, err := LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, cfg, roundTrip)
}

func TestLoadFileRejectsInvalidYAML(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server_url: [unterminated"), 0o644))

	_, err := LoadFile(path)
	require.Error(t, err)
}

func TestApplyEnvOverridesFileValues(t *testing.T) {
	t.Parallel()

	base := Default("/home/test")
	env := map[string]string{
		EnvServerURL: " http://env:9000 ",
		EnvOperator:  "bob",
		EnvDataDir:   "/data",
	}
	cfg := ApplyEnv(base, func(key string) string { return env[key] })

	require.Equal(t, "http://env:9000", cfg.ServerURL)
	require.Equal(t, "bob", cfg.CLI.Operator)
	require.Equal(t, "/data", cfg.Backend.DataDir)
	require.Equal(t, base.Backend.SQLitePath, cfg.Backend.SQLitePath)
	require.Equal(t, DefaultOutput, cfg.CLI.Output)
}

func TestListenAddr(t *testing.T) {
	t.Parallel()

	require.Equal(t, "127.0.0.1:9010", ListenAddr("http://127.0.0.1:9010"))
	require.Equal(t, "127.0.0.1:9010", ListenAddr(" http://127.0.0.1:9010/base "))
	require.Equal(t, "example.com:443", ListenAddr("https://example.com"))
	require.Equal(t, "example.com:80", ListenAddr("http://example.com"))
	require.Equal(t, "[::1]:80", ListenAddr("http://[::1]"))
	require.Equal(t, DefaultListenAddr, ListenAddr("ftp://example.com"))
	require.Equal(t, DefaultListenAddr, ListenAddr("not-a-url"))
	require.Equal(t, DefaultListenAddr, ListenAddr(""))
}
