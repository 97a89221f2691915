// Package locator synthesizes candidate download URLs for a dependency.
//
// Locations are never declared directly in recovered manifests, so the
// generator combines the record's optional base URL and path prefix with
// common distribution layouts and a set of public package CDNs. The result
// is finite, deterministic and ordered from most to least specific:
//
//  1. {BaseURL}{PathPrefix}/bundles/{name}.js, for embedded records that
//     carry both fields
//  2. {base}/dist/{name}.js, {base}/{name}.js and
//     {base}/{PathPrefix|name}/{name}.js, where base is the record's base
//     URL or the configured fallback host
//  3. for every CDN host, {host}/{name}@{version} followed by
//     /dist/{file}.min.js, /dist/{file}.js, /{file}.js and /dist/bundle.js
//
// {file} is the last segment of a scoped name (@scope/pkg gives pkg).
package locator

import (
	"net/url"
	"path"
	"strings"

	"github.com/matzehuels/sourcedeps/pkg/deps"
	apperr "github.com/matzehuels/sourcedeps/pkg/errors"
)

// DefaultFallbackHost stands in for a missing base URL.
const DefaultFallbackHost = "https://cdn.example.com"

// DefaultCDNHosts are the public CDNs tried for every dependency.
var DefaultCDNHosts = []string{
	"https://unpkg.com",
	"https://cdn.jsdelivr.net/npm",
	"https://esm.sh",
}

// cdnSuffixes are applied to {host}/{name}@{version}; %s is the file stem.
var cdnSuffixes = []string{
	"dist/%s.min.js",
	"dist/%s.js",
	"%s.js",
	"dist/bundle.js",
}

// Options configures a Generator.
type Options struct {
	FallbackHost string   // Base used when a record has no BaseURL (default: https://cdn.example.com)
	CDNHosts     []string // Public CDN roots (default: unpkg, jsDelivr, esm.sh)
}

// WithDefaults returns a copy of Options with zero values replaced by defaults.
func (o Options) WithDefaults() Options {
	opts := o
	if opts.FallbackHost == "" {
		opts.FallbackHost = DefaultFallbackHost
	}
	if opts.CDNHosts == nil {
		opts.CDNHosts = append([]string(nil), DefaultCDNHosts...)
	}
	return opts
}

// Generator produces candidate URLs.
type Generator struct {
	opts Options
}

// New validates opts and returns a Generator. Hosts must be absolute
// http(s) URLs or protocol-relative.
func New(opts Options) (*Generator, error) {
	opts = opts.WithDefaults()
	for _, h := range append([]string{opts.FallbackHost}, opts.CDNHosts...) {
		if err := validateHost(h); err != nil {
			return nil, err
		}
	}
	return &Generator{opts: opts}, nil
}

func validateHost(h string) error {
	u, err := url.Parse(h)
	if err != nil {
		return apperr.Wrap(apperr.ErrCodeInvalidConfig, err, "invalid host %q", h)
	}
	if u.Host == "" || (u.Scheme != "" && u.Scheme != "http" && u.Scheme != "https") {
		return apperr.New(apperr.ErrCodeInvalidConfig, "invalid host %q: want http(s)://host[/path]", h)
	}
	return nil
}

// Count returns how many candidates Candidates yields for dep.
func (g *Generator) Count(dep deps.Dependency) int {
	n := 3 + len(g.opts.CDNHosts)*len(cdnSuffixes)
	if dep.Embedded() {
		n++
	}
	return n
}

// Candidates returns the ordered candidate URLs for dep. Calling it twice
// with the same record yields the same sequence.
func (g *Generator) Candidates(dep deps.Dependency) []string {
	out := make([]string, 0, g.Count(dep))

	if dep.Embedded() {
		out = append(out, join(dep.BaseURL, dep.PathPrefix, "bundles", dep.Name+".js"))
	}

	base := dep.BaseURL
	if base == "" {
		base = g.opts.FallbackHost
	}
	dir := dep.PathPrefix
	if dir == "" {
		dir = dep.Name
	}
	out = append(out,
		join(base, "dist", dep.Name+".js"),
		join(base, dep.Name+".js"),
		join(base, dir, dep.Name+".js"),
	)

	file := path.Base(dep.Name)
	for _, host := range g.opts.CDNHosts {
		root := join(host, dep.Name+"@"+dep.Version)
		for _, suffix := range cdnSuffixes {
			out = append(out, join(root, strings.ReplaceAll(suffix, "%s", file)))
		}
	}
	return out
}

// join concatenates URL parts with exactly one slash between them. Leading
// slashes on base (as in //host) are kept.
func join(base string, parts ...string) string {
	var b strings.Builder
	b.WriteString(strings.TrimRight(base, "/"))
	for _, p := range parts {
		p = strings.Trim(p, "/")
		if p == "" {
			continue
		}
		b.WriteByte('/')
		b.WriteString(p)
	}
	return b.String()
}
