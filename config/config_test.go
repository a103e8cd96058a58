package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestParse_MinimalConfig(t *testing.T) {
	yaml := `
project_ids: ["1000107", "1100214"]
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	// check defaults applied
	if cfg.Output != DefaultOutput {
		t.Errorf("Output = %q, want %q", cfg.Output, DefaultOutput)
	}
	if cfg.PollInterval.Duration() != DefaultPollInterval {
		t.Errorf("PollInterval = %v, want %v", cfg.PollInterval.Duration(), DefaultPollInterval)
	}
	if cfg.MaxAttempts != DefaultMaxAttempts {
		t.Errorf("MaxAttempts = %d, want %d", cfg.MaxAttempts, DefaultMaxAttempts)
	}
	if cfg.Endpoints.Base != DefaultBaseURL {
		t.Errorf("Endpoints.Base = %q, want %q", cfg.Endpoints.Base, DefaultBaseURL)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}
}

func TestParse_FullConfig(t *testing.T) {
	yaml := `
project_ids: ["1000107"]
output: out/report.json
poll_interval: 5s
max_attempts: 12
request_timeout: 15s
endpoints:
  base: https://example.com/api
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Output != "out/report.json" {
		t.Errorf("Output = %q, want out/report.json", cfg.Output)
	}
	if cfg.PollInterval.Duration() != 5*time.Second {
		t.Errorf("PollInterval = %v, want 5s", cfg.PollInterval.Duration())
	}
	if cfg.MaxAttempts != 12 {
		t.Errorf("MaxAttempts = %d, want 12", cfg.MaxAttempts)
	}
	if cfg.RequestTimeout.Duration() != 15*time.Second {
		t.Errorf("RequestTimeout = %v, want 15s", cfg.RequestTimeout.Duration())
	}
	if got := cfg.TriggerURL(); got != "https://example.com/api/trigger-report" {
		t.Errorf("TriggerURL() = %q", got)
	}
	if got := cfg.StatusURL(); got != "https://example.com/api/report-status" {
		t.Errorf("StatusURL() = %q", got)
	}
	if got := cfg.ProposalsURL(); got != "https://example.com/api/report-proposals" {
		t.Errorf("ProposalsURL() = %q", got)
	}
}

func TestParse_ExplicitEndpointsWinOverBase(t *testing.T) {
	yaml := `
project_ids: ["1"]
endpoints:
  base: https://example.com/api
  trigger: https://other.example.com/start
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if got := cfg.TriggerURL(); got != "https://other.example.com/start" {
		t.Errorf("TriggerURL() = %q, want explicit value", got)
	}
	if got := cfg.StatusURL(); got != "https://example.com/api/report-status" {
		t.Errorf("StatusURL() = %q, want derived value", got)
	}
}

func TestParse_InlineResultsDisablesProposals(t *testing.T) {
	yaml := `
project_ids: ["1"]
endpoints:
  base: https://example.com/api
  inline_results: true
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if got := cfg.ProposalsURL(); got != "" {
		t.Errorf("ProposalsURL() = %q, want empty for inline results", got)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}
}

func TestParse_EnvExpansion(t *testing.T) {
	t.Setenv("TEST_REPORT_BASE", "https://env.example.com")

	yaml := `
project_ids: ["1"]
endpoints:
  base: ${TEST_REPORT_BASE}/fns
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Endpoints.Base != "https://env.example.com/fns" {
		t.Errorf("Endpoints.Base = %q, env var not expanded", cfg.Endpoints.Base)
	}
}

func TestParse_EnvExpansionDefault(t *testing.T) {
	yaml := `
project_ids: ["1"]
endpoints:
  base: ${TEST_REPORT_UNSET_VAR:-https://fallback.example.com}
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Endpoints.Base != "https://fallback.example.com" {
		t.Errorf("Endpoints.Base = %q, want fallback default", cfg.Endpoints.Base)
	}
}

func TestParse_EnvExpansionMissingVar(t *testing.T) {
	yaml := `
project_ids: ["1"]
endpoints:
  base: ${TEST_REPORT_UNSET_VAR}
`
	_, err := Parse([]byte(yaml))
	if err == nil {
		t.Fatal("Parse() error = nil, want error for unset variable")
	}
	if !strings.Contains(err.Error(), "TEST_REPORT_UNSET_VAR") {
		t.Errorf("error %q does not name the missing variable", err)
	}
}

func TestParse_InvalidDuration(t *testing.T) {
	yaml := `
project_ids: ["1"]
poll_interval: ten seconds
`
	_, err := Parse([]byte(yaml))
	if err == nil {
		t.Fatal("Parse() error = nil, want error for invalid duration")
	}
}

func TestApplyEnv_Overrides(t *testing.T) {
	t.Setenv("PROJECT_IDS", " 1000107, 1100214 ,")
	t.Setenv("REPORT_OUTPUT", "env/report.json")
	t.Setenv("MILESTONES_BASE_URL", "https://env.example.com/fns")

	cfg := Default()
	cfg.ApplyEnv()

	want := []string{"1000107", "1100214"}
	if !reflect.DeepEqual(cfg.ProjectIDs, want) {
		t.Errorf("ProjectIDs = %v, want %v", cfg.ProjectIDs, want)
	}
	if cfg.Output != "env/report.json" {
		t.Errorf("Output = %q, want env/report.json", cfg.Output)
	}
	if got := cfg.StatusURL(); got != "https://env.example.com/fns/report-status" {
		t.Errorf("StatusURL() = %q", got)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}
}

func TestApplyEnv_NoEnvLeavesConfigUntouched(t *testing.T) {
	// ensure none of the override vars leak in from the test environment
	for _, key := range []string{"PROJECT_IDS", "REPORT_OUTPUT", "MILESTONES_BASE_URL"} {
		if v := os.Getenv(key); v != "" {
			t.Setenv(key, "")
		}
	}

	cfg := Default()
	cfg.ProjectIDs = []string{"42"}
	cfg.ApplyEnv()

	if !reflect.DeepEqual(cfg.ProjectIDs, []string{"42"}) {
		t.Errorf("ProjectIDs = %v, want [42]", cfg.ProjectIDs)
	}
	if cfg.Output != DefaultOutput {
		t.Errorf("Output = %q, want default", cfg.Output)
	}
}

func TestSplitProjectIDs(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"simple", "a,b,c", []string{"a", "b", "c"}},
		{"whitespace trimmed", " a , b ", []string{"a", "b"}},
		{"empty elements dropped", "a,,b,", []string{"a", "b"}},
		{"single", "1000107", []string{"1000107"}},
		{"duplicates preserved", "a,a", []string{"a", "a"}},
		{"order preserved", "z,a,m", []string{"z", "a", "m"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitProjectIDs(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitProjectIDs(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			"missing project IDs",
			func(c *Config) { c.ProjectIDs = nil },
			"no project IDs",
		},
		{
			"empty output",
			func(c *Config) { c.Output = "" },
			"output path",
		},
		{
			"interval too small",
			func(c *Config) { c.PollInterval = Duration(100 * time.Millisecond) },
			"poll_interval",
		},
		{
			"zero attempts",
			func(c *Config) { c.MaxAttempts = -1 },
			"max_attempts",
		},
		{
			"bad endpoint scheme",
			func(c *Config) { c.Endpoints = Endpoints{Base: "ftp://example.com"} },
			"scheme",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.ProjectIDs = []string{"1"}
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() error = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %q, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err == nil {
		t.Fatal("Load() error = nil, want error for missing file")
	}
}

func TestLoad_ValidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.yaml")
	content := `
project_ids: ["1000107"]
poll_interval: 2s
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.PollInterval.Duration() != 2*time.Second {
		t.Errorf("PollInterval = %v, want 2s", cfg.PollInterval.Duration())
	}
}
