// Package config provides YAML and environment configuration for the
// milestone-report tool.
//
// Configuration can come from three places, in increasing precedence:
// built-in defaults, a YAML file, and environment variables. The
// environment layer exists so the tool can run as a CI step with no
// config file at all:
//
//	PROJECT_IDS=1000107,1100214 REPORT_OUTPUT=data/report.json milestone-report run
//
// Example configuration file:
//
//	project_ids: [1000107, 1100214]
//	output: data/milestones-report.json
//	poll_interval: 10s
//	max_attempts: 30
//	endpoints:
//	  base: https://milestones.projectcatalyst.io/.netlify/functions
package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied by Parse and Default.
const (
	DefaultBaseURL      = "https://milestones.projectcatalyst.io/.netlify/functions"
	DefaultOutput       = "data/milestones-report.json"
	DefaultPollInterval = 10 * time.Second
	DefaultMaxAttempts  = 30

	defaultRequestTimeout = 30 * time.Second

	triggerPath   = "/trigger-report"
	statusPath    = "/report-status"
	proposalsPath = "/report-proposals"
)

// minPollInterval is the minimum allowed polling interval.
// This prevents accidental DoS of the report service.
const minPollInterval = 1 * time.Second

// Config is the root configuration for a report run.
//
// It maps directly to the YAML configuration file structure. Use [Load],
// [Parse], or [Default] to create one, then [Config.ApplyEnv] to layer
// environment overrides on top.
type Config struct {
	// ProjectIDs are the project identifiers the remote job is asked to
	// report on. Order is preserved; duplicates are not rejected.
	ProjectIDs []string `yaml:"project_ids"`

	// Output is the file path the report document is written to.
	// Parent directories are created as needed. Defaults to
	// "data/milestones-report.json".
	Output string `yaml:"output"`

	// PollInterval is the fixed delay between status checks.
	// Accepts duration strings like "10s", "1m", "500ms". Defaults to 10s.
	PollInterval Duration `yaml:"poll_interval"`

	// MaxAttempts caps the number of status checks before the run is
	// declared timed out. Defaults to 30.
	MaxAttempts int `yaml:"max_attempts"`

	// RequestTimeout is the per-HTTP-request timeout. Defaults to 30s.
	RequestTimeout Duration `yaml:"request_timeout"`

	// Endpoints configures the remote service URLs.
	Endpoints Endpoints `yaml:"endpoints"`
}

// Endpoints holds the remote service URLs.
//
// Normally only Base is set and the three endpoint URLs are derived from
// it. Any endpoint set explicitly wins over the derived form. URL values
// support environment variable substitution: ${VAR} or ${VAR:-default}.
type Endpoints struct {
	// Base is the common URL prefix for the derived endpoints.
	Base string `yaml:"base"`

	// Trigger is the endpoint that starts the report job (POST).
	Trigger string `yaml:"trigger"`

	// Status is the endpoint polled for job progress (GET).
	Status string `yaml:"status"`

	// Proposals is the endpoint that serves the full result set once the
	// status endpoint signals data availability (GET). Ignored when
	// InlineResults is set.
	Proposals string `yaml:"proposals"`

	// InlineResults selects the single-endpoint protocol variant: the
	// status response carries the result set inline under "results" and
	// no proposals fetch is made.
	InlineResults bool `yaml:"inline_results"`
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Default returns a Config with all defaults applied and no project IDs.
//
// The result is not yet valid: project IDs must come from the environment
// ([Config.ApplyEnv]) or flags before [Config.Validate] passes.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads and parses a YAML configuration file.
//
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data and applies defaults.
//
// Environment variables are expanded in endpoint URL values.
// Parse does not validate: callers typically layer [Config.ApplyEnv] and
// flag overrides on top before calling [Config.Validate].
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg.applyDefaults()

	for _, field := range []*string{&cfg.Endpoints.Base, &cfg.Endpoints.Trigger, &cfg.Endpoints.Status, &cfg.Endpoints.Proposals} {
		expanded, err := expandEnvVars(*field)
		if err != nil {
			return nil, fmt.Errorf("endpoints: %w", err)
		}
		*field = expanded
	}

	return &cfg, nil
}

// applyDefaults fills zero-valued fields with the package defaults.
func (c *Config) applyDefaults() {
	if c.Output == "" {
		c.Output = DefaultOutput
	}
	if c.PollInterval == 0 {
		c.PollInterval = Duration(DefaultPollInterval)
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = Duration(defaultRequestTimeout)
	}
	if c.Endpoints.Base == "" && c.Endpoints.Trigger == "" && c.Endpoints.Status == "" {
		c.Endpoints.Base = DefaultBaseURL
	}
}

// ApplyEnv layers environment variable overrides onto the config:
//
//	PROJECT_IDS         comma-separated project identifiers
//	REPORT_OUTPUT       output file path
//	MILESTONES_BASE_URL endpoint base URL (clears any derived endpoints)
func (c *Config) ApplyEnv() {
	if ids := os.Getenv("PROJECT_IDS"); ids != "" {
		c.ProjectIDs = SplitProjectIDs(ids)
	}
	if out := os.Getenv("REPORT_OUTPUT"); out != "" {
		c.Output = out
	}
	if base := os.Getenv("MILESTONES_BASE_URL"); base != "" {
		c.Endpoints = Endpoints{Base: base, InlineResults: c.Endpoints.InlineResults}
	}
}

// SplitProjectIDs splits a comma-separated identifier list, trimming
// whitespace and dropping empty elements. Order is preserved.
func SplitProjectIDs(s string) []string {
	parts := strings.Split(s, ",")
	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			ids = append(ids, trimmed)
		}
	}
	return ids
}

// TriggerURL returns the effective trigger endpoint URL.
func (c *Config) TriggerURL() string {
	if c.Endpoints.Trigger != "" {
		return c.Endpoints.Trigger
	}
	return strings.TrimRight(c.Endpoints.Base, "/") + triggerPath
}

// StatusURL returns the effective status endpoint URL.
func (c *Config) StatusURL() string {
	if c.Endpoints.Status != "" {
		return c.Endpoints.Status
	}
	return strings.TrimRight(c.Endpoints.Base, "/") + statusPath
}

// ProposalsURL returns the effective proposals endpoint URL, or the empty
// string when the inline-results variant is selected.
func (c *Config) ProposalsURL() string {
	if c.Endpoints.InlineResults {
		return ""
	}
	if c.Endpoints.Proposals != "" {
		return c.Endpoints.Proposals
	}
	return strings.TrimRight(c.Endpoints.Base, "/") + proposalsPath
}

// Validate checks the fully-layered config and reports the first problem.
func (c *Config) Validate() error {
	if len(c.ProjectIDs) == 0 {
		return fmt.Errorf("no project IDs configured (set project_ids, PROJECT_IDS, or --project-ids)")
	}
	for i, id := range c.ProjectIDs {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("project_ids[%d] is empty", i)
		}
	}

	if c.Output == "" {
		return fmt.Errorf("output path is required")
	}

	if c.PollInterval.Duration() < minPollInterval {
		return fmt.Errorf("poll_interval must be at least %s, got %s", minPollInterval, c.PollInterval.Duration())
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be at least 1, got %d", c.MaxAttempts)
	}
	if c.RequestTimeout.Duration() <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %s", c.RequestTimeout.Duration())
	}

	urls := map[string]string{
		"trigger": c.TriggerURL(),
		"status":  c.StatusURL(),
	}
	if !c.Endpoints.InlineResults {
		urls["proposals"] = c.ProposalsURL()
	}
	for name, raw := range urls {
		parsed, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("endpoints: invalid %s url: %w", name, err)
		}
		if parsed.Scheme != "http" && parsed.Scheme != "https" {
			return fmt.Errorf("endpoints: %s url must have an http or https scheme, got %q", name, raw)
		}
	}

	return nil
}
