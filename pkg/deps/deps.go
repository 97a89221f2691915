package deps

import (
	"errors"
	"strings"
)

// Strategy names the parsing strategy that produced a record.
type Strategy string

// Parsing strategies in precedence order.
const (
	StrategyEmbedded Strategy = "embedded-eval"
	StrategyJSON     Strategy = "structured-json"
	StrategyYAML     Strategy = "structured-yaml"
	StrategyRegex    Strategy = "textual-regex"
)

// Strategies lists every strategy in the order the parser tries them.
var Strategies = []Strategy{StrategyEmbedded, StrategyJSON, StrategyYAML, StrategyRegex}

// ErrNoRecords is the cause of a PARSE_EXHAUSTED error.
var ErrNoRecords = errors.New("no strategy produced records")

// Dependency is one declared (name, version) pair plus the provenance needed
// to guess where its artifact lives. Records are values; nothing mutates
// them after the parser returns.
type Dependency struct {
	Name       string   `json:"name"`
	Version    string   `json:"version"`
	PathPrefix string   `json:"path_prefix,omitempty"`
	BaseURL    string   `json:"base_url,omitempty"`
	Strategy   Strategy `json:"strategy"`
}

// String returns name@version.
func (d Dependency) String() string { return d.Name + "@" + d.Version }

// FileName returns the artifact file name for d: the name with path
// separators replaced by underscores, followed by @version.js.
func (d Dependency) FileName() string {
	return strings.ReplaceAll(d.Name, "/", "_") + "@" + d.Version + ".js"
}

// Embedded reports whether d came from an embedded configuration object
// that carried both a base URL and a path prefix.
func (d Dependency) Embedded() bool {
	return d.Strategy == StrategyEmbedded && d.BaseURL != "" && d.PathPrefix != ""
}
