package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/smc-benchmark/smcbench/internal/benchmark"
	"github.com/smc-benchmark/smcbench/internal/extract"
)

const (
	defaultPort           = "8080"
	defaultRateLimitRPS   = 25.0
	defaultRateLimitBurst = 50
)

// Config aggregates runtime configuration resolved from multiple sources.
// Precedence: CLI flags > YAML config > Environment variables > Defaults
type Config struct {
	Port                 string                  `yaml:"port"`
	DataRoot             string                  `yaml:"data_root"`
	Institutions         []benchmark.Institution `yaml:"-"`
	Material             string                  `yaml:"material"`
	Specification        string                  `yaml:"specification"`
	KeepErroneous        bool                    `yaml:"keep_erroneous"`
	ShutdownGracePeriod  time.Duration           `yaml:"shutdown_grace_period"`
	ReadHeaderTimeout    time.Duration           `yaml:"read_header_timeout"`
	WriteTimeout         time.Duration           `yaml:"write_timeout"`
	IdleTimeout          time.Duration           `yaml:"idle_timeout"`
	EnableRequestLogging bool                    `yaml:"enable_request_logging"`
	RateLimitRPS         float64                 `yaml:"-"`
	RateLimitBurst       int                     `yaml:"-"`
	Extract              ExtractConfig           `yaml:"-"`
}

// ExtractConfig holds the defaults for characteristic value extraction.
type ExtractConfig struct {
	Gaps         []float64
	SecantWidth  float64
	FilterWindow int
}

// yamlConfig represents the YAML configuration file structure.
type yamlConfig struct {
	Port                 string        `yaml:"port"`
	DataRoot             string        `yaml:"data_root"`
	Institutions         []string      `yaml:"institutions"`
	Material             string        `yaml:"material"`
	Specification        string        `yaml:"specification"`
	KeepErroneous        bool          `yaml:"keep_erroneous"`
	ShutdownGracePeriod  string        `yaml:"shutdown_grace_period"`
	ReadHeaderTimeout    string        `yaml:"read_header_timeout"`
	WriteTimeout         string        `yaml:"write_timeout"`
	IdleTimeout          string        `yaml:"idle_timeout"`
	EnableRequestLogging *bool         `yaml:"enable_request_logging"`
	RateLimit            yamlRateLimit `yaml:"rate_limit"`
	Extract              yamlExtract   `yaml:"extract"`
}

// yamlRateLimit represents the rate limit section in YAML.
type yamlRateLimit struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// yamlExtract represents the extraction section in YAML.
type yamlExtract struct {
	Gaps         []float64 `yaml:"gaps"`
	SecantWidth  float64   `yaml:"secant_width"`
	FilterWindow int       `yaml:"filter_window"`
}

// CLIOverrides holds command-line flag overrides.
type CLIOverrides struct {
	ConfigFile      string
	Port            *string
	DataRoot        *string
	InstitutionsStr *string
	RateLimitRPS    *float64
	RateLimitBurst  *int
}

// Load extracts configuration from multiple sources with precedence:
// CLI flags > YAML config > Environment variables > Defaults
func Load(overrides *CLIOverrides) (Config, error) {
	cfg := defaultConfig()

	// Load from YAML file if specified
	if overrides != nil && overrides.ConfigFile != "" {
		yamlCfg, err := loadFromFile(overrides.ConfigFile)
		if err != nil {
			return Config{}, fmt.Errorf("load YAML config: %w", err)
		}
		if err := applyYAMLConfig(&cfg, yamlCfg); err != nil {
			return Config{}, err
		}
	}

	// Apply environment variables (override YAML)
	if err := applyEnvConfig(&cfg); err != nil {
		return Config{}, err
	}

	// Apply CLI overrides (highest precedence)
	if overrides != nil {
		if err := applyCLIOverrides(&cfg, overrides); err != nil {
			return Config{}, err
		}
	}

	// Validate final configuration
	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// defaultConfig returns a Config with default values.
func defaultConfig() Config {
	return Config{
		Port:                 defaultPort,
		Institutions:         benchmark.Institutions(),
		ShutdownGracePeriod:  10 * time.Second,
		ReadHeaderTimeout:    5 * time.Second,
		WriteTimeout:         15 * time.Second,
		IdleTimeout:          60 * time.Second,
		EnableRequestLogging: true,
		RateLimitRPS:         defaultRateLimitRPS,
		RateLimitBurst:       defaultRateLimitBurst,
		Extract: ExtractConfig{
			Gaps:        extract.DefaultGaps(),
			SecantWidth: extract.DefaultSecantWidth,
		},
	}
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(path string) (*yamlConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	return &yamlCfg, nil
}

// applyYAMLConfig applies YAML configuration to the Config struct.
func applyYAMLConfig(cfg *Config, yamlCfg *yamlConfig) error {
	if yamlCfg.Port != "" {
		cfg.Port = yamlCfg.Port
	}

	if yamlCfg.DataRoot != "" {
		cfg.DataRoot = yamlCfg.DataRoot
	}

	if len(yamlCfg.Institutions) > 0 {
		insts, err := ParseInstitutions(strings.Join(yamlCfg.Institutions, ","))
		if err != nil {
			return fmt.Errorf("config institutions: %w", err)
		}
		cfg.Institutions = insts
	}

	if yamlCfg.Material != "" {
		cfg.Material = yamlCfg.Material
	}

	if yamlCfg.Specification != "" {
		cfg.Specification = yamlCfg.Specification
	}

	cfg.KeepErroneous = yamlCfg.KeepErroneous

	if yamlCfg.ShutdownGracePeriod != "" {
		if d, err := time.ParseDuration(yamlCfg.ShutdownGracePeriod); err == nil {
			cfg.ShutdownGracePeriod = d
		}
	}

	if yamlCfg.ReadHeaderTimeout != "" {
		if d, err := time.ParseDuration(yamlCfg.ReadHeaderTimeout); err == nil {
			cfg.ReadHeaderTimeout = d
		}
	}

	if yamlCfg.WriteTimeout != "" {
		if d, err := time.ParseDuration(yamlCfg.WriteTimeout); err == nil {
			cfg.WriteTimeout = d
		}
	}

	if yamlCfg.IdleTimeout != "" {
		if d, err := time.ParseDuration(yamlCfg.IdleTimeout); err == nil {
			cfg.IdleTimeout = d
		}
	}

	if yamlCfg.EnableRequestLogging != nil {
		cfg.EnableRequestLogging = *yamlCfg.EnableRequestLogging
	}

	if yamlCfg.RateLimit.RPS >= 0 {
		cfg.RateLimitRPS = yamlCfg.RateLimit.RPS
	}

	if yamlCfg.RateLimit.Burst >= 0 {
		cfg.RateLimitBurst = yamlCfg.RateLimit.Burst
	}

	if len(yamlCfg.Extract.Gaps) > 0 {
		cfg.Extract.Gaps = yamlCfg.Extract.Gaps
	}

	if yamlCfg.Extract.SecantWidth > 0 {
		cfg.Extract.SecantWidth = yamlCfg.Extract.SecantWidth
	}

	if yamlCfg.Extract.FilterWindow > 0 {
		cfg.Extract.FilterWindow = yamlCfg.Extract.FilterWindow
	}

	return nil
}

// applyEnvConfig applies environment variable configuration.
func applyEnvConfig(cfg *Config) error {
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		cfg.Port = port
	}

	if root := strings.TrimSpace(os.Getenv("SMC_DATA_ROOT")); root != "" {
		cfg.DataRoot = root
	}

	if raw := strings.TrimSpace(os.Getenv("SMC_INSTITUTIONS")); raw != "" {
		insts, err := ParseInstitutions(raw)
		if err != nil {
			return fmt.Errorf("SMC_INSTITUTIONS: %w", err)
		}
		cfg.Institutions = insts
	}

	if rps := strings.TrimSpace(os.Getenv("RATE_LIMIT_RPS")); rps != "" {
		if value, err := strconv.ParseFloat(rps, 64); err == nil && value >= 0 {
			cfg.RateLimitRPS = value
		}
	}

	if burst := strings.TrimSpace(os.Getenv("RATE_LIMIT_BURST")); burst != "" {
		if value, err := strconv.Atoi(burst); err == nil && value >= 0 {
			cfg.RateLimitBurst = value
		}
	}

	return nil
}

// applyCLIOverrides applies command-line flag overrides.
func applyCLIOverrides(cfg *Config, overrides *CLIOverrides) error {
	if overrides.Port != nil && *overrides.Port != "" {
		cfg.Port = *overrides.Port
	}

	if overrides.DataRoot != nil && *overrides.DataRoot != "" {
		cfg.DataRoot = *overrides.DataRoot
	}

	if overrides.InstitutionsStr != nil && *overrides.InstitutionsStr != "" {
		insts, err := ParseInstitutions(*overrides.InstitutionsStr)
		if err != nil {
			return fmt.Errorf("parse institutions: %w", err)
		}
		cfg.Institutions = insts
	}

	if overrides.RateLimitRPS != nil && *overrides.RateLimitRPS >= 0 {
		cfg.RateLimitRPS = *overrides.RateLimitRPS
	}

	if overrides.RateLimitBurst != nil && *overrides.RateLimitBurst >= 0 {
		cfg.RateLimitBurst = *overrides.RateLimitBurst
	}

	return nil
}

// validateConfig validates the final configuration.
func validateConfig(cfg Config) error {
	if cfg.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be >= 0")
	}
	if cfg.RateLimitBurst < 0 {
		return fmt.Errorf("RATE_LIMIT_BURST must be >= 0")
	}
	if len(cfg.Institutions) == 0 {
		return fmt.Errorf("institutions cannot be empty")
	}
	if cfg.Extract.SecantWidth <= 0 {
		return fmt.Errorf("extract secant width must be > 0")
	}
	for _, g := range cfg.Extract.Gaps {
		if g <= 0 {
			return fmt.Errorf("extract gap must be positive, got %v", g)
		}
	}
	if cfg.Extract.FilterWindow < 0 {
		return fmt.Errorf("extract filter window must be >= 0")
	}
	return nil
}

// ParseInstitutions parses a comma-separated list of institution codes.
// Blank entries are skipped; an unknown code or an empty result is an error.
func ParseInstitutions(raw string) ([]benchmark.Institution, error) {
	parts := strings.Split(raw, ",")
	insts := make([]benchmark.Institution, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		inst, err := benchmark.ParseInstitution(part)
		if err != nil {
			return nil, err
		}
		insts = append(insts, inst)
	}
	if len(insts) == 0 {
		return nil, fmt.Errorf("no institutions provided")
	}
	return insts, nil
}
