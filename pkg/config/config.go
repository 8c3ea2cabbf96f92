// Package config holds the run configuration for sitescan.
//
// Precedence, lowest to highest: built-in defaults, optional YAML file,
// environment variables, command-line flags. The merged Config is immutable
// for the duration of a run.
package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/gobwas/glob"
	"gopkg.in/yaml.v3"
)

// Environment variables consulted by ApplyEnv.
const (
	EnvAPIKey  = "OPENAI_API_KEY"
	EnvBaseURL = "OPENAI_BASE_URL"
	EnvModel   = "SITESCAN_MODEL"
)

// Duration is a time.Duration that YAML-decodes from either a Go duration
// string ("30s") or a bare number of seconds.
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// String implements fmt.Stringer.
func (d Duration) String() string {
	return time.Duration(d).String()
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err == nil {
		parsed, perr := time.ParseDuration(s)
		if perr != nil {
			return fmt.Errorf("invalid duration %q: %w", s, perr)
		}
		*d = Duration(parsed)
		return nil
	}

	var seconds float64
	if err := node.Decode(&seconds); err == nil {
		*d = Duration(time.Duration(seconds * float64(time.Second)))
		return nil
	}

	return fmt.Errorf("invalid duration value %q", node.Value)
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

// Config is the full configuration for one sitescan run.
type Config struct {
	// TargetURL is the page to analyze. Required; set from the positional
	// command-line argument, never from file or environment.
	TargetURL string `yaml:"-"`

	// LLM settings
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`

	// OutputFile is where the run report is written.
	OutputFile string `yaml:"output_file"`

	// SearchQuery is the literal query used for the search-form test.
	SearchQuery string `yaml:"search_query"`

	// HTMLWindow is the number of leading characters of cleaned page HTML
	// included in the analysis prompt.
	HTMLWindow int `yaml:"html_window"`

	// Headless controls whether the browser runs without a visible window.
	Headless bool `yaml:"headless"`

	// NavigationTimeout bounds page navigations and load-state waits.
	NavigationTimeout Duration `yaml:"navigation_timeout"`

	// SettleDelay is the fixed pause after the results page reports loaded,
	// allowing late dynamic content to render.
	SettleDelay Duration `yaml:"settle_delay"`

	// RetryDelay is the pause before the single content-read retry.
	RetryDelay Duration `yaml:"retry_delay"`

	// AllowedHosts are glob patterns the target URL's host must match.
	AllowedHosts []string `yaml:"allowed_hosts"`
}

// Default returns a Config populated with built-in defaults.
func Default() *Config {
	return &Config{
		Model:             "gpt-4o",
		OutputFile:        "results.json",
		SearchQuery:       "test",
		HTMLWindow:        8000,
		Headless:          true,
		NavigationTimeout: Duration(30 * time.Second),
		SettleDelay:       Duration(2 * time.Second),
		RetryDelay:        Duration(2 * time.Second),
		AllowedHosts:      []string{"*"},
	}
}

// LoadFile merges settings from a YAML file into c. Unset fields in the file
// leave the existing values untouched.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// ApplyEnv overlays environment variables onto c.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvAPIKey); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv(EnvBaseURL); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv(EnvModel); v != "" {
		c.Model = v
	}
}

// Validate checks that the configuration describes a runnable scan.
func (c *Config) Validate() error {
	if c.TargetURL == "" {
		return fmt.Errorf("target URL is required")
	}

	parsed, err := url.Parse(c.TargetURL)
	if err != nil {
		return fmt.Errorf("invalid target URL %q: %w", c.TargetURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("target URL %q must use http or https", c.TargetURL)
	}
	if parsed.Host == "" {
		return fmt.Errorf("target URL %q has no host", c.TargetURL)
	}

	if c.OutputFile == "" {
		return fmt.Errorf("output file is required")
	}
	if c.HTMLWindow <= 0 {
		return fmt.Errorf("html_window must be positive")
	}
	if c.NavigationTimeout <= 0 {
		return fmt.Errorf("navigation_timeout must be positive")
	}
	if c.SettleDelay < 0 || c.RetryDelay < 0 {
		return fmt.Errorf("delays cannot be negative")
	}

	if err := c.checkAllowedHost(parsed.Hostname()); err != nil {
		return err
	}

	return nil
}

// checkAllowedHost matches host against the configured glob patterns.
func (c *Config) checkAllowedHost(host string) error {
	if len(c.AllowedHosts) == 0 {
		return nil
	}

	for _, pattern := range c.AllowedHosts {
		g, err := glob.Compile(pattern)
		if err != nil {
			return fmt.Errorf("invalid allowed_hosts pattern %q: %w", pattern, err)
		}
		if g.Match(host) {
			return nil
		}
	}

	return fmt.Errorf("host %q does not match any allowed_hosts pattern", host)
}
