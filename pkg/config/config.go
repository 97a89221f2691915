// Package config loads sourcedeps configuration.
//
// Settings come from three layers, later layers winning:
//
//  1. built-in defaults ([Default])
//  2. an optional TOML file ([Load]); unknown keys are rejected
//  3. SOURCEDEPS_* environment variables ([Config.ApplyEnv])
//
// A minimal file:
//
//	[fetch]
//	timeout = "10s"
//	max_redirects = 3
//
//	[locator]
//	cdn_hosts = ["https://unpkg.com"]
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	apperr "github.com/matzehuels/sourcedeps/pkg/errors"
	"github.com/matzehuels/sourcedeps/pkg/fetch"
	"github.com/matzehuels/sourcedeps/pkg/locator"
	"github.com/matzehuels/sourcedeps/pkg/scan"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SOURCEDEPS_"

// DefaultOutputDir is the artifact directory, relative to the scan root.
const DefaultOutputDir = "external-dependencies"

// DefaultMemoSize bounds the per-run outcome memo.
const DefaultMemoSize = 4096

// Config is the complete sourcedeps configuration.
type Config struct {
	Scan    ScanConfig    `toml:"scan"`
	Locator LocatorConfig `toml:"locator"`
	Fetch   FetchConfig   `toml:"fetch"`
	Output  OutputConfig  `toml:"output"`
}

// ScanConfig configures manifest discovery.
type ScanConfig struct {
	Patterns    []string `toml:"patterns"`
	Keywords    []string `toml:"keywords"`
	IgnoreDirs  []string `toml:"ignore_dirs"`
	PrefixBytes int      `toml:"prefix_bytes"`
}

// LocatorConfig configures candidate URL generation.
type LocatorConfig struct {
	FallbackHost string   `toml:"fallback_host"`
	CDNHosts     []string `toml:"cdn_hosts"`
}

// FetchConfig configures downloads.
type FetchConfig struct {
	Timeout       Duration `toml:"timeout"`
	MaxRedirects  int      `toml:"max_redirects"`
	ValidateBytes int      `toml:"validate_bytes"`
	UserAgent     string   `toml:"user_agent"`
}

// OutputConfig configures where artifacts go.
type OutputConfig struct {
	Dir       string `toml:"dir"`
	Overwrite bool   `toml:"overwrite"`
	MemoSize  int    `toml:"memo_size"`
}

// Duration is a time.Duration written as a Go duration string ("5s").
type Duration time.Duration

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Scan: ScanConfig{
			Patterns:    append([]string(nil), scan.DefaultPatterns...),
			Keywords:    append([]string(nil), scan.DefaultKeywords...),
			IgnoreDirs:  append([]string(nil), scan.DefaultIgnoreDirs...),
			PrefixBytes: scan.DefaultPrefixBytes,
		},
		Locator: LocatorConfig{
			FallbackHost: locator.DefaultFallbackHost,
			CDNHosts:     append([]string(nil), locator.DefaultCDNHosts...),
		},
		Fetch: FetchConfig{
			Timeout:       Duration(fetch.DefaultTimeout),
			MaxRedirects:  fetch.DefaultMaxRedirects,
			ValidateBytes: fetch.DefaultValidateBytes,
		},
		Output: OutputConfig{
			Dir:      DefaultOutputDir,
			MemoSize: DefaultMemoSize,
		},
	}
}

// Load reads the TOML file at path over the defaults. An empty path returns
// the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperr.Wrap(apperr.ErrCodeInvalidConfig, err, "config file %s not found", path)
		}
		return nil, apperr.Wrap(apperr.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, apperr.New(apperr.ErrCodeInvalidConfig, "%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return cfg, nil
}

// ApplyEnv overrides settings from SOURCEDEPS_* environment variables.
func (c *Config) ApplyEnv() error {
	return c.applyEnv(os.LookupEnv)
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	get := func(name string) (string, bool) {
		v, ok := lookup(EnvPrefix + name)
		return strings.TrimSpace(v), ok && strings.TrimSpace(v) != ""
	}
	atoi := func(name string, dst *int) error {
		v, ok := get(name)
		if !ok {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return apperr.Wrap(apperr.ErrCodeInvalidConfig, err, "%s%s", EnvPrefix, name)
		}
		*dst = n
		return nil
	}

	if v, ok := get("TIMEOUT"); ok {
		var d Duration
		if err := d.UnmarshalText([]byte(v)); err != nil {
			return apperr.Wrap(apperr.ErrCodeInvalidConfig, err, "%sTIMEOUT", EnvPrefix)
		}
		c.Fetch.Timeout = d
	}
	if err := atoi("MAX_REDIRECTS", &c.Fetch.MaxRedirects); err != nil {
		return err
	}
	if err := atoi("PREFIX_BYTES", &c.Scan.PrefixBytes); err != nil {
		return err
	}
	if v, ok := get("USER_AGENT"); ok {
		c.Fetch.UserAgent = v
	}
	if v, ok := get("FALLBACK_HOST"); ok {
		c.Locator.FallbackHost = v
	}
	if v, ok := get("CDN_HOSTS"); ok {
		c.Locator.CDNHosts = splitList(v)
	}
	if v, ok := get("OUTPUT_DIR"); ok {
		c.Output.Dir = v
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate checks that the configuration can drive a run.
func (c *Config) Validate() error {
	switch {
	case c.Scan.PrefixBytes <= 0 || c.Scan.PrefixBytes > 1<<20:
		return apperr.New(apperr.ErrCodeInvalidConfig, "scan.prefix_bytes must be between 1 and %d", 1<<20)
	case c.Fetch.Timeout <= 0:
		return apperr.New(apperr.ErrCodeInvalidConfig, "fetch.timeout must be positive")
	case c.Fetch.MaxRedirects < 0:
		return apperr.New(apperr.ErrCodeInvalidConfig, "fetch.max_redirects must not be negative")
	case c.Fetch.ValidateBytes <= 0:
		return apperr.New(apperr.ErrCodeInvalidConfig, "fetch.validate_bytes must be positive")
	case c.Output.Dir == "" || !filepath.IsLocal(c.Output.Dir):
		return apperr.New(apperr.ErrCodeInvalidConfig, "output.dir %q must be a relative path inside the root", c.Output.Dir)
	case len(c.Locator.CDNHosts) == 0:
		return apperr.New(apperr.ErrCodeInvalidConfig, "locator.cdn_hosts must not be empty")
	}
	if _, err := scan.New(c.ScanOptions(nil)); err != nil {
		return err
	}
	if _, err := locator.New(c.LocatorOptions()); err != nil {
		return err
	}
	return nil
}

// Encode writes c as TOML.
func (c *Config) Encode(w io.Writer) error {
	if err := toml.NewEncoder(w).Encode(c); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return nil
}

// ScanOptions converts the scan section.
func (c *Config) ScanOptions(logger *log.Logger) scan.Options {
	return scan.Options{
		Patterns:    c.Scan.Patterns,
		Keywords:    c.Scan.Keywords,
		IgnoreDirs:  c.Scan.IgnoreDirs,
		PrefixBytes: c.Scan.PrefixBytes,
		Logger:      logger,
	}
}

// LocatorOptions converts the locator section.
func (c *Config) LocatorOptions() locator.Options {
	return locator.Options{
		FallbackHost: c.Locator.FallbackHost,
		CDNHosts:     c.Locator.CDNHosts,
	}
}

// FetchOptions converts the fetch section.
func (c *Config) FetchOptions(logger *log.Logger) fetch.Options {
	opts := fetch.Options{
		Timeout:       time.Duration(c.Fetch.Timeout),
		MaxRedirects:  c.Fetch.MaxRedirects,
		ValidateBytes: c.Fetch.ValidateBytes,
		UserAgent:     c.Fetch.UserAgent,
		Logger:        logger,
	}
	if c.Fetch.MaxRedirects == 0 {
		opts.MaxRedirects = -1
	}
	return opts
}
