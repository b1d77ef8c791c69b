package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/TobiSchelling/CollectionsReport/internal/activity"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Input          Input          `yaml:"input"`
	Classification Classification `yaml:"classification"`
	Summarize      Summarize      `yaml:"summarize"`
	Output         Output         `yaml:"output"`
	Server         Server         `yaml:"server"`
	Logging        Logging        `yaml:"logging"`
}

type Input struct {
	AccountsFile string `yaml:"accounts_file"`
	EventsFile   string `yaml:"events_file"`
	DateLayout   string `yaml:"date_layout"`
}

type Classification struct {
	DialerActor    string `yaml:"dialer_actor"`
	PromiseOutcome string `yaml:"promise_outcome"`
}

type Summarize struct {
	Workers int `yaml:"workers"`
}

type Output struct {
	DataDir      string `yaml:"data_dir"`
	ExportDir    string `yaml:"export_dir"`
	Format       string `yaml:"format"`
	MissingValue string `yaml:"missing_value"`
}

type Server struct {
	Port int `yaml:"port"`
}

type Logging struct {
	Level string `yaml:"level"`
}

// ConfigDir returns the XDG config directory for collections.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "collections")
}

// DataDir returns the XDG data directory for collections.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "collections")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/collections/config.yaml > ./config.yaml
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
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'collections init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file. Relative input and export paths
// are resolved against the config file's directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg, err := parse(data)
	if err != nil {
		return nil, err
	}
	cfg.resolvePaths(filepath.Dir(path))
	return cfg, nil
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Input: Input{
			AccountsFile: "accounts.csv",
			EventsFile:   "contact_events.csv",
			DateLayout:   "02/01/2006",
		},
		Classification: Classification{
			DialerActor:    "AUTO_DIALER",
			PromiseOutcome: "PAYMENT_PROMISE",
		},
		Output: Output{
			ExportDir:    "reports",
			Format:       "csv",
			MissingValue: "NO REGISTRA",
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
	switch c.Output.Format {
	case "csv", "json":
	default:
		return fmt.Errorf("invalid output.format %q: expected csv or json", c.Output.Format)
	}
	if c.Summarize.Workers < 0 {
		return fmt.Errorf("invalid summarize.workers %d", c.Summarize.Workers)
	}
	if !activity.FixedWidthLayout(c.Input.DateLayout) {
		return fmt.Errorf("invalid input.date_layout %q: must be fixed-width (zero-padded, e.g. 02/01/2006)", c.Input.DateLayout)
	}
	return nil
}

func (c *Config) resolvePaths(base string) {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(base, p)
	}
	c.Input.AccountsFile = abs(c.Input.AccountsFile)
	c.Input.EventsFile = abs(c.Input.EventsFile)
	c.Output.ExportDir = abs(c.Output.ExportDir)
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

// Debug reports whether per-row diagnostics should be logged.
func (c *Config) Debug() bool {
	return strings.EqualFold(c.Logging.Level, "DEBUG")
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
