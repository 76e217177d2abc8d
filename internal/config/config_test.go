package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/smc-benchmark/smcbench/internal/benchmark"
)

func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv("PORT", "")
	t.Setenv("SMC_DATA_ROOT", "")
	t.Setenv("SMC_INSTITUTIONS", "")
	t.Setenv("RATE_LIMIT_RPS", "")
	t.Setenv("RATE_LIMIT_BURST", "")
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Port != defaultPort {
		t.Fatalf("expected default port %s, got %s", defaultPort, cfg.Port)
	}
	if len(cfg.Institutions) != len(benchmark.Institutions()) {
		t.Fatalf("expected all institutions by default, got %v", cfg.Institutions)
	}
	if cfg.ShutdownGracePeriod != 10*time.Second {
		t.Fatalf("unexpected shutdown grace period: %s", cfg.ShutdownGracePeriod)
	}
	if cfg.RateLimitRPS != defaultRateLimitRPS || cfg.RateLimitBurst != defaultRateLimitBurst {
		t.Fatalf("unexpected rate limit defaults: %v/%d", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
	if !cfg.EnableRequestLogging {
		t.Fatalf("expected request logging enabled by default")
	}
	if len(cfg.Extract.Gaps) != 2 || cfg.Extract.Gaps[0] != 4 || cfg.Extract.Gaps[1] != 7 {
		t.Fatalf("unexpected default gaps: %v", cfg.Extract.Gaps)
	}
	if cfg.Extract.SecantWidth != 0.5 {
		t.Fatalf("unexpected default secant width: %v", cfg.Extract.SecantWidth)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("SMC_DATA_ROOT", "/data/benchmark")
	t.Setenv("SMC_INSTITUTIONS", "kit, utw")
	t.Setenv("RATE_LIMIT_RPS", "5.5")
	t.Setenv("RATE_LIMIT_BURST", "9")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Port != "9000" {
		t.Fatalf("expected overridden port, got %s", cfg.Port)
	}
	if cfg.DataRoot != "/data/benchmark" {
		t.Fatalf("expected overridden data root, got %s", cfg.DataRoot)
	}
	if len(cfg.Institutions) != 2 || cfg.Institutions[0] != benchmark.KIT || cfg.Institutions[1] != benchmark.UTW {
		t.Fatalf("unexpected institutions: %v", cfg.Institutions)
	}
	if cfg.RateLimitRPS != 5.5 || cfg.RateLimitBurst != 9 {
		t.Fatalf("unexpected rate limit: %v/%d", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	clearEnv(t)

	raw := `
port: "7070"
data_root: /srv/smc
institutions:
  - kit
  - jku
material: CF5050K
specification: 3mm 100x100
keep_erroneous: true
shutdown_grace_period: 5s
enable_request_logging: false
rate_limit:
  rps: 10
  burst: 20
extract:
  gaps: [3, 5]
  secant_width: 1.0
  filter_window: 9
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := Load(&CLIOverrides{ConfigFile: path})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Port != "7070" {
		t.Fatalf("expected YAML port, got %s", cfg.Port)
	}
	if cfg.DataRoot != "/srv/smc" {
		t.Fatalf("expected YAML data root, got %s", cfg.DataRoot)
	}
	if len(cfg.Institutions) != 2 || cfg.Institutions[0] != benchmark.KIT || cfg.Institutions[1] != benchmark.JKU {
		t.Fatalf("unexpected institutions: %v", cfg.Institutions)
	}
	if cfg.Material != "CF5050K" || cfg.Specification != "3mm 100x100" {
		t.Fatalf("unexpected filters: %q %q", cfg.Material, cfg.Specification)
	}
	if !cfg.KeepErroneous {
		t.Fatalf("expected keep_erroneous to be set")
	}
	if cfg.ShutdownGracePeriod != 5*time.Second {
		t.Fatalf("unexpected shutdown grace period: %s", cfg.ShutdownGracePeriod)
	}
	if cfg.EnableRequestLogging {
		t.Fatalf("expected request logging disabled via YAML")
	}
	if cfg.RateLimitRPS != 10 || cfg.RateLimitBurst != 20 {
		t.Fatalf("unexpected rate limit: %v/%d", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
	if len(cfg.Extract.Gaps) != 2 || cfg.Extract.Gaps[0] != 3 || cfg.Extract.Gaps[1] != 5 {
		t.Fatalf("unexpected gaps: %v", cfg.Extract.Gaps)
	}
	if cfg.Extract.SecantWidth != 1.0 || cfg.Extract.FilterWindow != 9 {
		t.Fatalf("unexpected extract settings: %+v", cfg.Extract)
	}
}

func TestLoadPrecedence(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")

	raw := "port: \"7070\"\n"
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cliPort := "6060"
	cliInsts := "ecn"
	cfg, err := Load(&CLIOverrides{
		ConfigFile:      path,
		Port:            &cliPort,
		InstitutionsStr: &cliInsts,
	})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Port != "6060" {
		t.Fatalf("expected CLI flag to win, got %s", cfg.Port)
	}
	if len(cfg.Institutions) != 1 || cfg.Institutions[0] != benchmark.ECN {
		t.Fatalf("expected CLI institutions to win, got %v", cfg.Institutions)
	}
}

func TestLoadRejectsUnknownInstitution(t *testing.T) {
	clearEnv(t)
	t.Setenv("SMC_INSTITUTIONS", "kit,mit")

	if _, err := Load(nil); err == nil {
		t.Fatalf("expected error for unknown institution")
	}
}

func TestLoadMissingConfigFile(t *testing.T) {
	clearEnv(t)

	if _, err := Load(&CLIOverrides{ConfigFile: filepath.Join(t.TempDir(), "missing.yaml")}); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}

func TestParseInstitutions(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		got, err := ParseInstitutions("kit, jku ,rise")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []benchmark.Institution{benchmark.KIT, benchmark.JKU, benchmark.RISE}
		if len(got) != len(want) {
			t.Fatalf("unexpected institutions: %v", got)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("expected %s at position %d, got %s", want[i], i, got[i])
			}
		}
	})

	t.Run("invalid", func(t *testing.T) {
		if _, err := ParseInstitutions(" , "); err == nil {
			t.Fatalf("expected error for empty string")
		}
		if _, err := ParseInstitutions("kit,mit"); err == nil {
			t.Fatalf("expected error for unknown code")
		}
	})
}

func TestValidateConfig(t *testing.T) {
	base := defaultConfig()

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"NoInstitutions", func(c *Config) { c.Institutions = nil }},
		{"ZeroSecantWidth", func(c *Config) { c.Extract.SecantWidth = 0 }},
		{"NegativeGap", func(c *Config) { c.Extract.Gaps = []float64{-2} }},
		{"NegativeFilterWindow", func(c *Config) { c.Extract.FilterWindow = -1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base
			tc.mutate(&cfg)
			if err := validateConfig(cfg); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}

	if err := validateConfig(base); err != nil {
		t.Fatalf("expected default config to validate, got %v", err)
	}
}
