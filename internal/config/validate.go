package config

import (
	"fmt"
	"net/url"

	"github.com/rileyhilliard/sysinsight/internal/errors"
)

// MinPromptBytes is the smallest prompt budget that still fits the
// instructions, a summary header, and a short question.
const MinPromptBytes = 512

// Validate checks the config for errors and returns structured error messages.
func Validate(cfg *Config) error {
	if cfg.Version > CurrentConfigVersion {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("This config is from the future (version %d, but sysinsight only knows up to %d)", cfg.Version, CurrentConfigVersion),
			"Upgrade sysinsight or lower the version field.")
	}

	if err := validateCollectors(cfg.Collectors); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check the 'collectors' section of your config.")
	}
	if err := validateThresholds(cfg.Thresholds); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check the 'thresholds' section of your config.")
	}
	if err := ValidateScan(cfg.Scan); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check the 'scan' section of your config or the --scan-* flags.")
	}
	if err := validateAssistant(cfg.Assistant); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check the 'assistant' section of your config.")
	}
	if err := validateOutput(cfg.Output); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check the 'output' section of your config.")
	}

	return nil
}

// RequireCredentials fails when the assistant has no API key to send.
func RequireCredentials(cfg AssistantConfig) error {
	if cfg.APIKey == "" {
		return errors.New(errors.ErrConfig,
			"No language model API key configured",
			"Set OPENAI_API_KEY in your environment or a .env file.")
	}
	return nil
}

func validateCollectors(c CollectorConfig) error {
	for _, name := range c.Enabled {
		known := false
		for _, cat := range AllCategories {
			if name == cat {
				known = true
				break
			}
		}
		if !known {
			return fmt.Errorf("unknown collector %q (known: %v)", name, AllCategories)
		}
	}
	if c.DiskPath == "" {
		return fmt.Errorf("collectors.disk_path can't be empty")
	}
	if c.CPUSample < 0 {
		return fmt.Errorf("collectors.cpu_sample can't be negative")
	}
	if c.GPUTimeout <= 0 {
		return fmt.Errorf("collectors.gpu_timeout must be positive")
	}
	if c.TopProcesses < 0 {
		return fmt.Errorf("collectors.top_processes can't be negative")
	}
	return nil
}

func validateThresholds(t Thresholds) error {
	percents := []struct {
		name  string
		value float64
	}{
		{"cpu_percent", t.CPUPercent},
		{"memory_free_percent", t.MemoryFreePercent},
		{"swap_percent", t.SwapPercent},
		{"disk_percent", t.DiskPercent},
	}
	for _, p := range percents {
		if p.value < 0 || p.value > 100 {
			return fmt.Errorf("thresholds.%s must be between 0 and 100, got %g", p.name, p.value)
		}
	}
	if t.LoadPerCore <= 0 {
		return fmt.Errorf("thresholds.load_per_core must be positive, got %g", t.LoadPerCore)
	}
	if t.TemperatureCelsius <= 0 || t.GPUTemperatureCelsius <= 0 {
		return fmt.Errorf("temperature thresholds must be positive")
	}
	return nil
}

// ValidateScan checks scanner settings. Exported so flag overrides can be
// re-checked after they are applied.
func ValidateScan(s ScanConfig) error {
	if s.Timeout <= 0 {
		return fmt.Errorf("scan.timeout must be positive, got %s", s.Timeout)
	}
	if s.Concurrency < 1 || s.Concurrency > 4096 {
		return fmt.Errorf("scan.concurrency must be between 1 and 4096, got %d", s.Concurrency)
	}
	if len(s.Ports) == 0 {
		return fmt.Errorf("scan.ports needs at least one port")
	}
	for _, p := range s.Ports {
		if p < 1 || p > 65535 {
			return fmt.Errorf("scan.ports contains invalid port %d", p)
		}
	}
	if s.MaxHosts < 1 {
		return fmt.Errorf("scan.max_hosts must be at least 1, got %d", s.MaxHosts)
	}
	return nil
}

func validateAssistant(a AssistantConfig) error {
	u, err := url.Parse(a.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("assistant.base_url %q is not an http(s) URL", a.BaseURL)
	}
	if a.Model == "" {
		return fmt.Errorf("assistant.model can't be empty")
	}
	if a.MaxTokens < 1 {
		return fmt.Errorf("assistant.max_tokens must be positive, got %d", a.MaxTokens)
	}
	if a.Timeout <= 0 {
		return fmt.Errorf("assistant.timeout must be positive, got %s", a.Timeout)
	}
	if a.MaxPromptBytes < MinPromptBytes {
		return fmt.Errorf("assistant.max_prompt_bytes must be at least %d, got %d", MinPromptBytes, a.MaxPromptBytes)
	}
	return nil
}

func validateOutput(o OutputConfig) error {
	switch o.Color {
	case "auto", "always", "never":
	default:
		return fmt.Errorf("output.color must be auto, always, or never, got %q", o.Color)
	}
	if o.Width < 0 {
		return fmt.Errorf("output.width can't be negative")
	}
	return nil
}
