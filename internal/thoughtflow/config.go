package thoughtflow

import (
	"strings"

	"github.com/simonjohansson/thoughtflow/pkg/thoughtflowconfig"
)

type Config struct {
	ServerURL  string `yaml:"server_url"`
	Output     Output `yaml:"output"`
	Operator   string `yaml:"operator"`
	DataDir    string `yaml:"data_dir"`
	SQLitePath string `yaml:"sqlite_path"`
}

func DefaultConfig(home string) Config {
	return mapSharedToCLI(thoughtflowconfig.Default(home))
}

// ParseEnvConfig reads THOUGHTFLOW_* entries from an os.Environ style slice.
func ParseEnvConfig(env []string) Config {
	values := make(map[string]string, len(env))
	for _, kv := range env {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, "THOUGHTFLOW_") {
			continue
		}
		values[key] = value
	}

	shared := thoughtflowconfig.ApplyEnv(thoughtflowconfig.Config{}, func(key string) string {
		return values[key]
	})
	return mapSharedToCLI(shared)
}

func MergeConfig(defaults, fileCfg, envCfg, flagCfg Config) Config {
	out := defaults
	applyConfig(&out, fileCfg)
	applyConfig(&out, envCfg)
	applyConfig(&out, flagCfg)
	return out
}

func applyConfig(dst *Config, src Config) {
	if value := strings.TrimSpace(src.ServerURL); value != "" {
		dst.ServerURL = value
	}
	if src.Output != "" {
		dst.Output = src.Output
	}
	if value := strings.TrimSpace(src.Operator); value != "" {
		dst.Operator = value
	}
	if value := strings.TrimSpace(src.DataDir); value != "" {
		dst.DataDir = value
	}
	if value := strings.TrimSpace(src.SQLitePath); value != "" {
		dst.SQLitePath = value
	}
}

func LoadOrInitConfig(home string) (Config, error) {
	shared, err := thoughtflowconfig.LoadOrInit(home)
	if err != nil {
		return Config{}, err
	}
	return mapSharedToCLI(shared), nil
}

func ConfigPath(home string) string {
	return thoughtflowconfig.ConfigPath(home)
}

func LoadConfigFile(path string) (Config, error) {
	shared, err := thoughtflowconfig.LoadFile(path)
	if err != nil {
		return Config{}, err
	}
	return mapSharedToCLI(shared), nil
}

func SaveConfigFile(path string, cfg Config) error {
	shared, err := thoughtflowconfig.LoadFile(path)
	if err != nil {
		shared = thoughtflowconfig.Config{}
	}
	shared.ServerURL = strings.TrimSpace(cfg.ServerURL)
	shared.CLI.Output = strings.TrimSpace(string(cfg.Output))
	shared.CLI.Operator = strings.TrimSpace(cfg.Operator)
	shared.Backend.DataDir = strings.TrimSpace(cfg.DataDir)
	shared.Backend.SQLitePath = strings.TrimSpace(cfg.SQLitePath)
	return thoughtflowconfig.SaveFile(path, shared)
}

func mapSharedToCLI(shared thoughtflowconfig.Config) Config {
	cfg := Config{
		ServerURL:  strings.TrimSpace(shared.ServerURL),
		Output:     Output(strings.TrimSpace(shared.CLI.Output)),
		Operator:   strings.TrimSpace(shared.CLI.Operator),
		DataDir:    strings.TrimSpace(shared.Backend.DataDir),
		SQLitePath: strings.TrimSpace(shared.Backend.SQLitePath),
	}
	if cfg.Output != "" && !isValidOutput(string(cfg.Output)) {
		cfg.Output = ""
	}
	return cfg
}
