package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

// FallbackCategory is assigned when no category rule matches an article's
// keywords. It is region-agnostic.
const FallbackCategory = "Other"

type Config struct {
	DefaultRegion string        `yaml:"default_region"`
	Collect       Collect       `yaml:"collect"`
	Regions       []Region      `yaml:"regions"`
	Summarization Summarization `yaml:"summarization"`
	Server        Server        `yaml:"server"`
	Output        Output        `yaml:"output"`
	Logging       Logging       `yaml:"logging"`
}

type Collect struct {
	IntervalMinutes int `yaml:"interval_minutes"`
	ExcerptLimit    int `yaml:"excerpt_limit"`
	TimeoutSeconds  int `yaml:"timeout_seconds"`
}

// Region bundles everything that varies per market bucket: its sources,
// its keyword list, and its ordered category rules.
type Region struct {
	Name       string         `yaml:"name"`
	Sources    []Source       `yaml:"sources"`
	Keywords   []string       `yaml:"keywords"`
	Categories []CategoryRule `yaml:"categories"`
}

type Source struct {
	Name     string `yaml:"name"`
	URL      string `yaml:"url"`
	RSS      string `yaml:"rss"`
	Encoding string `yaml:"encoding"`
}

// CategoryRule maps a set of trigger substrings to a category label.
// Rule order within a region is a priority order: the first rule whose
// triggers intersect an article's matched keywords wins.
type CategoryRule struct {
	Name     string   `yaml:"name"`
	Triggers []string `yaml:"triggers"`
}

type Summarization struct {
	Provider    string `yaml:"provider"`
	Model       string `yaml:"model"`
	OllamaURL   string `yaml:"ollama_url"`
	OpenAIModel string `yaml:"openai_model"`
	APIKeyEnv   string `yaml:"api_key_env"`
	MaxTokens   int    `yaml:"max_tokens"`
}

type Output struct {
	DataDir string `yaml:"data_dir"`
}

type Server struct {
	Port int `yaml:"port"`
}

type Logging struct {
	Level string `yaml:"level"`
}

// ConfigDir returns the XDG config directory for econwatch.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "econwatch")
}

// DataDir returns the XDG data directory for econwatch.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "econwatch")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/econwatch/config.yaml > ./config.yaml.
// If none exists, an empty path is returned and the embedded defaults apply.
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", nil
}

// Load reads and parses a config YAML file. An empty path loads the
// embedded default configuration.
func Load(path string) (*Config, error) {
	if path == "" {
		return parse(DefaultConfigYAML)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		DefaultRegion: "vietnam",
		Collect: Collect{
			IntervalMinutes: 60,
			ExcerptLimit:    500,
			TimeoutSeconds:  15,
		},
		Summarization: Summarization{
			Provider:    "ollama",
			Model:       "qwen2.5:7b",
			OllamaURL:   "http://localhost:11434",
			OpenAIModel: "gpt-4o-mini",
			APIKeyEnv:   "OPENAI_API_KEY",
			MaxTokens:   512,
		},
		Server:  Server{Port: 8000},
		Logging: Logging{Level: "INFO"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	seen := make(map[string]bool, len(c.Regions))
	for _, r := range c.Regions {
		if r.Name == "" {
			return fmt.Errorf("region with empty name")
		}
		if seen[r.Name] {
			return fmt.Errorf("duplicate region %q", r.Name)
		}
		seen[r.Name] = true
	}
	if len(c.Regions) > 0 && !seen[c.DefaultRegion] {
		return fmt.Errorf("default_region %q is not a configured region", c.DefaultRegion)
	}
	return nil
}

// Region returns the configuration for a region by name, or nil.
func (c *Config) Region(name string) *Region {
	for i := range c.Regions {
		if c.Regions[i].Name == name {
			return &c.Regions[i]
		}
	}
	return nil
}

// RegionNames returns the configured region names in declaration order.
func (c *Config) RegionNames() []string {
	names := make([]string, 0, len(c.Regions))
	for _, r := range c.Regions {
		names = append(names, r.Name)
	}
	return names
}

// CollectInterval returns the scheduler cadence as a duration.
func (c *Config) CollectInterval() time.Duration {
	return time.Duration(c.Collect.IntervalMinutes) * time.Minute
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
