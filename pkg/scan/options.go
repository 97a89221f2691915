package scan

import (
	"io"

	"github.com/charmbracelet/log"
)

// DefaultPrefixBytes is how much of a file the content check inspects.
const DefaultPrefixBytes = 1024

// DefaultPatterns are the case-insensitive manifest name patterns, in
// priority order. They are also applied to the content prefix.
var DefaultPatterns = []string{
	`^package\.json$`,
	`^bower\.json$`,
	`^component\.json$`,
	`^importmap\.json$`,
	`^manifest[\w.-]*\.json$`,
	`[\w-]+-manifest\.(js|json)$`,
	`\.deps\.json$`,
	`^deps?\.(js|json|ya?ml)$`,
	`^dependencies[\w.-]*\.(js|json|ya?ml)$`,
	`^dep[-_.]?versions?[\w.-]*\.(js|json)$`,
	`^versions?\.(js|json)$`,
	`^webpack\.config\.(js|cjs|mjs|ts)$`,
	`^rollup\.config\.(js|cjs|mjs|ts)$`,
}

// DefaultKeywords are the generic declaration keywords searched for in the
// content prefix in addition to [DefaultPatterns].
var DefaultKeywords = []string{
	`\bimport\s+[\w{*'"]`,
	`\brequire\s*\(`,
	`["']?\bdependencies["']?\s*[:=]`,
	`["']?\bdevDependencies["']?\s*[:=]`,
	`\bdepVersions\b`,
	`\bdefine\s*\(\s*\[`,
}

// DefaultIgnoreDirs are doublestar patterns for directories that are never
// descended into. Patterns match either the directory base name or its
// slash-separated path relative to the scan root.
var DefaultIgnoreDirs = []string{
	".git",
	".svn",
	".hg",
	"node_modules",
	"bower_components",
	"jspm_packages",
	"vendor",
	"dist",
	"build",
	"out",
	"coverage",
	".cache",
	".next",
	"__pycache__",
	"external-dependencies",
}

// Options configures a [Scanner].
type Options struct {
	Patterns    []string    // Manifest name patterns (regexp, default: DefaultPatterns)
	Keywords    []string    // Extra content keywords (regexp, default: DefaultKeywords)
	IgnoreDirs  []string    // Denylisted directories (doublestar, default: DefaultIgnoreDirs)
	PrefixBytes int         // Content prefix size (default: 1024)
	Logger      *log.Logger // Debug logging (default: discard)
}

// WithDefaults returns a copy of Options with zero values replaced by defaults.
func (o Options) WithDefaults() Options {
	opts := o
	if len(opts.Patterns) == 0 {
		opts.Patterns = DefaultPatterns
	}
	if opts.Keywords == nil {
		opts.Keywords = DefaultKeywords
	}
	if opts.IgnoreDirs == nil {
		opts.IgnoreDirs = DefaultIgnoreDirs
	}
	if opts.PrefixBytes <= 0 {
		opts.PrefixBytes = DefaultPrefixBytes
	}
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return opts
}
