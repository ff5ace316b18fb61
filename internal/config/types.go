package config

import "time"

// CurrentConfigVersion is the schema version for the config file.
// Increment when making breaking changes to the config structure.
const CurrentConfigVersion = 1

// Metric categories, in the order they are collected and reported.
const (
	CategoryCPU     = "cpu"
	CategoryMemory  = "memory"
	CategoryDisk    = "disk"
	CategoryNetwork = "network"
	CategorySensors = "sensors"
	CategoryGPU     = "gpu"
	CategoryHost    = "host"
)

// AllCategories lists every metric category sysinsight knows how to collect.
var AllCategories = []string{
	CategoryCPU,
	CategoryMemory,
	CategoryDisk,
	CategoryNetwork,
	CategorySensors,
	CategoryGPU,
	CategoryHost,
}

// Config represents the complete sysinsight configuration: defaults, the
// optional YAML file, a dotenv file, and environment variables merged once
// at startup.
type Config struct {
	Version    int             `yaml:"version" mapstructure:"version"`
	Collectors CollectorConfig `yaml:"collectors" mapstructure:"collectors"`
	Thresholds Thresholds      `yaml:"thresholds" mapstructure:"thresholds"`
	Scan       ScanConfig      `yaml:"scan" mapstructure:"scan"`
	Assistant  AssistantConfig `yaml:"assistant" mapstructure:"assistant"`
	Output     OutputConfig    `yaml:"output" mapstructure:"output"`
}

// CollectorConfig controls which metric categories are gathered and how.
type CollectorConfig struct {
	// Enabled lists the categories to collect. Empty means all of them.
	Enabled []string `yaml:"enabled" mapstructure:"enabled"`

	// DiskPath is the mount point whose usage is reported.
	DiskPath string `yaml:"disk_path" mapstructure:"disk_path"`

	// CPUSample is the window over which CPU utilisation is measured.
	CPUSample time.Duration `yaml:"cpu_sample" mapstructure:"cpu_sample"`

	// GPUTimeout bounds the nvidia-smi invocation.
	GPUTimeout time.Duration `yaml:"gpu_timeout" mapstructure:"gpu_timeout"`

	// TopProcesses is how many processes the host record lists, busiest
	// first. Zero turns the list off.
	TopProcesses int `yaml:"top_processes" mapstructure:"top_processes"`
}

// Thresholds are the limits the insight generator compares the snapshot against.
type Thresholds struct {
	CPUPercent            float64 `yaml:"cpu_percent" mapstructure:"cpu_percent"`
	MemoryFreePercent     float64 `yaml:"memory_free_percent" mapstructure:"memory_free_percent"`
	SwapPercent           float64 `yaml:"swap_percent" mapstructure:"swap_percent"`
	DiskPercent           float64 `yaml:"disk_percent" mapstructure:"disk_percent"`
	LoadPerCore           float64 `yaml:"load_per_core" mapstructure:"load_per_core"`
	TemperatureCelsius    float64 `yaml:"temperature_celsius" mapstructure:"temperature_celsius"`
	GPUTemperatureCelsius float64 `yaml:"gpu_temperature_celsius" mapstructure:"gpu_temperature_celsius"`
}

// ScanConfig controls the subnet probe sweep.
type ScanConfig struct {
	// Timeout is the per-probe deadline.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// Concurrency is the maximum number of probes in flight.
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`

	// Ports are tried in order; the first that connects or refuses marks the host alive.
	Ports []int `yaml:"ports" mapstructure:"ports"`

	// MaxHosts rejects ranges larger than this before probing starts.
	MaxHosts int `yaml:"max_hosts" mapstructure:"max_hosts"`

	// ResolveMAC looks up responding hosts in the kernel neighbour table.
	ResolveMAC bool `yaml:"resolve_mac" mapstructure:"resolve_mac"`
}

// AssistantConfig holds the language-model endpoint and credentials.
type AssistantConfig struct {
	APIKey         string        `yaml:"api_key" mapstructure:"api_key"`
	Organization   string        `yaml:"organization" mapstructure:"organization"`
	BaseURL        string        `yaml:"base_url" mapstructure:"base_url"`
	Model          string        `yaml:"model" mapstructure:"model"`
	MaxTokens      int           `yaml:"max_tokens" mapstructure:"max_tokens"`
	Timeout        time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxPromptBytes int           `yaml:"max_prompt_bytes" mapstructure:"max_prompt_bytes"`
	SystemPrompt   string        `yaml:"system_prompt" mapstructure:"system_prompt"`
	Stream         bool          `yaml:"stream" mapstructure:"stream"`
}

// OutputConfig controls terminal rendering.
type OutputConfig struct {
	// Color: auto, always, never
	Color string `yaml:"color" mapstructure:"color"`

	// Width overrides terminal width detection when non-zero.
	Width int `yaml:"width" mapstructure:"width"`
}

// DefaultSystemPrompt instructs the model how to answer.
const DefaultSystemPrompt = "You are an expert systems monitor. Provide useful overall insights about the system " +
	"and answer any questions the user has. Be brief and concise, only elaborate when asked."

// DefaultConfig returns a Config with all default values.
func DefaultConfig() *Config {
	return &Config{
		Version: CurrentConfigVersion,
		Collectors: CollectorConfig{
			Enabled:      []string{},
			DiskPath:     "/",
			CPUSample:    500 * time.Millisecond,
			GPUTimeout:   2 * time.Second,
			TopProcesses: 10,
		},
		Thresholds: Thresholds{
			CPUPercent:            90,
			MemoryFreePercent:     10,
			SwapPercent:           80,
			DiskPercent:           90,
			LoadPerCore:           2.0,
			TemperatureCelsius:    85,
			GPUTemperatureCelsius: 85,
		},
		Scan: ScanConfig{
			Timeout:     500 * time.Millisecond,
			Concurrency: 64,
			Ports:       []int{22, 80, 443, 445},
			MaxHosts:    4096,
			ResolveMAC:  true,
		},
		Assistant: AssistantConfig{
			BaseURL:        "https://api.openai.com/v1",
			Model:          "gpt-4o",
			MaxTokens:      4096,
			Timeout:        60 * time.Second,
			MaxPromptBytes: 8000,
			SystemPrompt:   DefaultSystemPrompt,
			Stream:         true,
		},
		Output: OutputConfig{
			Color: "auto",
		},
	}
}

// CategoryEnabled reports whether the named category should be collected.
func (c *Config) CategoryEnabled(name string) bool {
	if len(c.Collectors.Enabled) == 0 {
		return true
	}
	for _, e := range c.Collectors.Enabled {
		if e == name {
			return true
		}
	}
	return false
}
