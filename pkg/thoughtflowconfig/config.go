// Package thoughtflowconfig reads and writes the YAML config shared by the
// thoughtflow CLI and server.
package thoughtflowconfig

import (
	"errors"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultListenAddr = "127.0.0.1:8080"
	DefaultServerURL  = "http://" + DefaultListenAddr
	DefaultOutput     = "text"
	DefaultOperator   = "anonymous"
)

const (
	EnvServerURL  = "THOUGHTFLOW_SERVER_URL"
	EnvOutput     = "THOUGHTFLOW_OUTPUT"
	EnvOperator   = "THOUGHTFLOW_OPERATOR"
	EnvDataDir    = "THOUGHTFLOW_DATA_DIR"
	EnvSQLitePath = "THOUGHTFLOW_SQLITE_PATH"
)

type Config struct {
	ServerURL string        `yaml:"server_url"`
	Backend   BackendConfig `yaml:"backend"`
	CLI       CLIConfig     `yaml:"cli"`
}

type BackendConfig struct {
	SQLitePath string `yaml:"sqlite_path"`
	DataDir    string `yaml:"data_dir"`
}

type CLIConfig struct {
	Output   string `yaml:"output"`
	Operator string `yaml:"operator"`
}

func Default(home string) Config {
	stateDir := filepath.Join(home, ".local", "state", "thoughtflow")

	return Config{
		ServerURL: DefaultServerURL,
		Backend: BackendConfig{
			SQLitePath: filepath.Join(stateDir, "projection.db"),
			DataDir:    stateDir,
		},
		CLI: CLIConfig{
			Output:   DefaultOutput,
			Operator: DefaultOperator,
		},
	}
}

func ConfigPath(home string) string {
	return filepath.Join(home, ".config", "thoughtflow", "config.yaml")
}

// LoadOrInit loads the config under home, writing defaults for the file or
// any field it is missing.
func LoadOrInit(home string) (Config, error) {
	path := ConfigPath(home)
	defaults := Default(home)

	cfg, err := LoadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if err := SaveFile(path, defaults); err != nil {
				return Config{}, err
			}
			return defaults, nil
		}
		return Config{}, err
	}

	merged := Merge(defaults, cfg)
	if merged != cfg {
		if err := SaveFile(path, merged); err != nil {
			return Config{}, err
		}
	}

	return merged, nil
}

func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}

	return normalize(cfg), nil
}

func SaveFile(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	data, err := yaml.Marshal(normalize(cfg))
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}

func Merge(defaults Config, user Config) Config {
	out := normalize(defaults)
	in := normalize(user)

	if in.ServerURL != "" {
		out.ServerURL = in.ServerURL
	}

	if in.Backend.SQLitePath != "" {
		out.Backend.SQLitePath = in.Backend.SQLitePath
	}
	if in.Backend.DataDir != "" {
		out.Backend.DataDir = in.Backend.DataDir
	}

	if in.CLI.Output != "" {
		out.CLI.Output = in.CLI.Output
	}
	if in.CLI.Operator != "" {
		out.CLI.Operator = in.CLI.Operator
	}

	return out
}

// ApplyEnv overlays THOUGHTFLOW_* variables. The result is never written
// back to disk.
func ApplyEnv(cfg Config, getenv func(string) string) Config {
	if getenv == nil {
		getenv = os.Getenv
	}
	return Merge(cfg, Config{
		ServerURL: getenv(EnvServerURL),
		Backend: BackendConfig{
			SQLitePath: getenv(EnvSQLitePath),
			DataDir:    getenv(EnvDataDir),
		},
		CLI: CLIConfig{
			Output:   getenv(EnvOutput),
			Operator: getenv(EnvOperator),
		},
	})
}

// ListenAddr derives the address a server should bind from the URL clients
// use to reach it. A URL without a port binds the scheme's default port.
func ListenAddr(serverURL string) string {
	u, err := url.Parse(strings.TrimSpace(serverURL))
	if err != nil || u.Host == "" {
		return DefaultListenAddr
	}
	if u.Port() != "" {
		return u.Host
	}
	switch u.Scheme {
	case "https":
		return net.JoinHostPort(u.Hostname(), "443")
	case "http":
		return net.JoinHostPort(u.Hostname(), "80")
	default:
		return DefaultListenAddr
	}
}

func normalize(cfg Config) Config {
	cfg.ServerURL = strings.TrimSpace(cfg.ServerURL)
	cfg.Backend.SQLitePath = strings.TrimSpace(cfg.Backend.SQLitePath)
	cfg.Backend.DataDir = strings.TrimSpace(cfg.Backend.DataDir)
	cfg.CLI.Output = strings.ToLower(strings.TrimSpace(cfg.CLI.Output))
	cfg.CLI.Operator = strings.TrimSpace(cfg.CLI.Operator)
	return cfg
}
