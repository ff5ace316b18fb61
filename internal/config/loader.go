package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rileyhilliard/sysinsight/internal/errors"
	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the default config file name.
	ConfigFileName = ".sysinsight.yaml"
	// GlobalConfigDir is the directory for global config.
	GlobalConfigDir = ".config/sysinsight"
	// GlobalConfigFile is the global config file name.
	GlobalConfigFile = "config.yaml"
	// DefaultEnvFile is the dotenv file read from the working directory.
	DefaultEnvFile = ".env"
	// EnvPrefix is prepended to every config key when read from the environment.
	EnvPrefix = "SYSINSIGHT"
)

// envAliases are well-known variable names accepted in addition to the
// SYSINSIGHT_ form of a key.
var envAliases = map[string][]string{
	"assistant.api_key":      {"OPENAI_API_KEY"},
	"assistant.organization": {"OPENAI_API_ORG_ID", "OPENAI_ORG_ID"},
	"assistant.base_url":     {"OPENAI_BASE_URL"},
}

// LoadOptions selects the sources merged by Load.
type LoadOptions struct {
	// ConfigPath is an explicit config file (from --config). Empty searches the defaults.
	ConfigPath string

	// EnvFile is a dotenv file. Empty uses .env in the working directory if present.
	EnvFile string

	// Getenv reads the process environment. Nil uses os.Getenv.
	Getenv func(string) string
}

// Load builds the configuration once, in increasing precedence:
// defaults, YAML config file, dotenv file, process environment.
// Command-line flags are applied on top by the caller.
func Load(opts LoadOptions) (*Config, error) {
	getenv := opts.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	v := viper.New()
	setDefaults(v)

	path, err := Find(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to read config file "+path,
				"Check the file exists and is valid YAML")
		}
	}

	dotenv, err := readEnvFile(opts.EnvFile)
	if err != nil {
		return nil, err
	}

	// Process environment wins over the dotenv file, matching how dotenv
	// loaders leave already-exported variables alone.
	for _, key := range v.AllKeys() {
		if val, ok := lookupEnv(envNames(key), getenv, dotenv); ok {
			v.Set(key, val)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		source := "configuration"
		if path != "" {
			source = path
		}
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Invalid config format",
			"Check the values in "+source)
	}
	cfg.Assistant.BaseURL = strings.TrimRight(cfg.Assistant.BaseURL, "/")

	return cfg, nil
}

// Find locates the config file using the search order:
// 1. Explicit path (from --config flag)
// 2. .sysinsight.yaml in current directory
// 3. ~/.config/sysinsight/config.yaml (global defaults)
//
// Returns the path to the config file, or empty string if not found.
func Find(explicit string) (string, error) {
	if explicit != "" {
		explicit = ExpandTilde(explicit)
		if _, err := os.Stat(explicit); err != nil {
			if os.IsNotExist(err) {
				return "", errors.WrapWithCode(err, errors.ErrConfig,
					"Specified config file not found: "+explicit,
					"Check the path is correct, or run 'sysinsight config init' to create one")
			}
			return "", errors.WrapWithCode(err, errors.ErrConfig,
				"Cannot access config file: "+explicit,
				"Check file permissions")
		}
		return explicit, nil
	}

	cwd, err := os.Getwd()
	if err == nil {
		local := filepath.Join(cwd, ConfigFileName)
		if _, err := os.Stat(local); err == nil {
			return local, nil
		}
	}

	if global := GlobalConfigPath(); global != "" {
		if _, err := os.Stat(global); err == nil {
			return global, nil
		}
	}

	return "", nil
}

// GlobalConfigPath returns ~/.config/sysinsight/config.yaml, or empty if the
// home directory is unknown.
func GlobalConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ""
	}
	return filepath.Join(home, GlobalConfigDir, GlobalConfigFile)
}

// readEnvFile parses a dotenv file through viper's env codec. A missing
// default .env is fine; a missing explicit file is a configuration error.
func readEnvFile(path string) (map[string]string, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultEnvFile
	}
	path = ExpandTilde(path)

	if _, err := os.Stat(path); err != nil {
		if !explicit && os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot read env file "+path,
			"Check the path passed to --env-file")
	}

	ev := viper.New()
	ev.SetConfigFile(path)
	ev.SetConfigType("env")
	if err := ev.ReadInConfig(); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to parse env file "+path,
			"Each line should look like KEY=value")
	}

	values := make(map[string]string)
	for _, key := range ev.AllKeys() {
		values[strings.ToUpper(key)] = ev.GetString(key)
	}
	return values, nil
}

// envNames returns the environment variable names consulted for a config key,
// highest priority first.
func envNames(key string) []string {
	names := []string{EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}
	return append(names, envAliases[key]...)
}

// lookupEnv returns the first non-empty value among names, checking the
// whole process environment before the dotenv file.
func lookupEnv(names []string, getenv func(string) string, dotenv map[string]string) (string, bool) {
	for _, name := range names {
		if val := getenv(name); val != "" {
			return val, true
		}
	}
	for _, name := range names {
		if val := dotenv[name]; val != "" {
			return val, true
		}
	}
	return "", false
}

// setDefaults registers every key so viper knows the full key set.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("version", d.Version)

	v.SetDefault("collectors.enabled", d.Collectors.Enabled)
	v.SetDefault("collectors.disk_path", d.Collectors.DiskPath)
	v.SetDefault("collectors.cpu_sample", d.Collectors.CPUSample)
	v.SetDefault("collectors.gpu_timeout", d.Collectors.GPUTimeout)
	v.SetDefault("collectors.top_processes", d.Collectors.TopProcesses)

	v.SetDefault("thresholds.cpu_percent", d.Thresholds.CPUPercent)
	v.SetDefault("thresholds.memory_free_percent", d.Thresholds.MemoryFreePercent)
	v.SetDefault("thresholds.swap_percent", d.Thresholds.SwapPercent)
	v.SetDefault("thresholds.disk_percent", d.Thresholds.DiskPercent)
	v.SetDefault("thresholds.load_per_core", d.Thresholds.LoadPerCore)
	v.SetDefault("thresholds.temperature_celsius", d.Thresholds.TemperatureCelsius)
	v.SetDefault("thresholds.gpu_temperature_celsius", d.Thresholds.GPUTemperatureCelsius)

	v.SetDefault("scan.timeout", d.Scan.Timeout)
	v.SetDefault("scan.concurrency", d.Scan.Concurrency)
	v.SetDefault("scan.ports", d.Scan.Ports)
	v.SetDefault("scan.max_hosts", d.Scan.MaxHosts)
	v.SetDefault("scan.resolve_mac", d.Scan.ResolveMAC)

	v.SetDefault("assistant.api_key", d.Assistant.APIKey)
	v.SetDefault("assistant.organization", d.Assistant.Organization)
	v.SetDefault("assistant.base_url", d.Assistant.BaseURL)
	v.SetDefault("assistant.model", d.Assistant.Model)
	v.SetDefault("assistant.max_tokens", d.Assistant.MaxTokens)
	v.SetDefault("assistant.timeout", d.Assistant.Timeout)
	v.SetDefault("assistant.max_prompt_bytes", d.Assistant.MaxPromptBytes)
	v.SetDefault("assistant.system_prompt", d.Assistant.SystemPrompt)
	v.SetDefault("assistant.stream", d.Assistant.Stream)

	v.SetDefault("output.color", d.Output.Color)
	v.SetDefault("output.width", d.Output.Width)
}
