package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Products   []Product  `yaml:"products"`
	Steam      Steam      `yaml:"steam"`
	Analysis   Analysis   `yaml:"analysis"`
	Classifier Classifier `yaml:"classifier"`
	Output     Output     `yaml:"output"`
	Server     Server     `yaml:"server"`
	Logging    Logging    `yaml:"logging"`
}

// Product is one catalog entry to track reviews for.
type Product struct {
	Name  string `yaml:"name"`
	AppID int64  `yaml:"app_id"`
}

type Steam struct {
	// Language is the review language filter sent to the API. Steam's filter
	// is advisory only; the gate re-checks every text before scoring.
	Language          string `yaml:"language"`
	Filter            string `yaml:"filter"`
	PageSize          int    `yaml:"page_size"`
	ReviewsPerProduct int    `yaml:"reviews_per_product"`
	RequestDelayMs    int    `yaml:"request_delay_ms"`
}

type Analysis struct {
	TargetLanguage   string             `yaml:"target_language"`
	ShortTextLimit   int                `yaml:"short_text_limit"`
	Version          string             `yaml:"version"`
	LexiconOverrides map[string]float64 `yaml:"lexicon_overrides"`
}

type Classifier struct {
	ModelPath string `yaml:"model_path"`
	VocabPath string `yaml:"vocab_path"`
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

// ConfigDir returns the XDG config directory for steamsent.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "steamsent")
}

// DataDir returns the XDG data directory for steamsent.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "steamsent")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/steamsent/config.yaml > ./config.yaml
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

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'steamsent init' to create a default config",
		xdgConfig,
	)
}

// Load reads, parses, and validates a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg, err := parse(data)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Steam: Steam{
			Language:          "english",
			Filter:            "recent",
			PageSize:          100,
			ReviewsPerProduct: 500,
			RequestDelayMs:    500,
		},
		Analysis: Analysis{
			TargetLanguage: "en",
			ShortTextLimit: 20,
			Version:        "hybrid_v2",
		},
		Classifier: Classifier{
			ModelPath: "models/sentiment.onnx",
			VocabPath: "models/vocab.txt",
		},
		Server:  Server{Port: 8000},
		Logging: Logging{Level: "INFO"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Validate checks invariants that would otherwise surface as confusing
// per-record failures mid-run. Called once at startup.
func (c *Config) Validate() error {
	if len(c.Products) == 0 {
		return fmt.Errorf("no products configured")
	}
	for i, p := range c.Products {
		if p.Name == "" {
			return fmt.Errorf("product %d: missing name", i)
		}
		if p.AppID <= 0 {
			return fmt.Errorf("product %q: missing or invalid app_id", p.Name)
		}
	}
	if c.Steam.PageSize < 1 || c.Steam.PageSize > 100 {
		return fmt.Errorf("steam.page_size must be 1-100, got %d", c.Steam.PageSize)
	}
	if c.Steam.ReviewsPerProduct < 1 {
		return fmt.Errorf("steam.reviews_per_product must be positive, got %d", c.Steam.ReviewsPerProduct)
	}
	if c.Analysis.TargetLanguage == "" {
		return fmt.Errorf("analysis.target_language must be set")
	}
	if c.Analysis.ShortTextLimit < 1 {
		return fmt.Errorf("analysis.short_text_limit must be positive, got %d", c.Analysis.ShortTextLimit)
	}
	if c.Analysis.Version == "" {
		return fmt.Errorf("analysis.version must be set")
	}
	return nil
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
