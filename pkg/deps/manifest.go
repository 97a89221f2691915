package deps

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"

	apperr "github.com/matzehuels/sourcedeps/pkg/errors"
	"github.com/matzehuels/sourcedeps/pkg/scan"
)

// DefaultMaxBytes caps how much of a manifest is read.
const DefaultMaxBytes = 8 << 20

// Options configures a Parser.
type Options struct {
	MaxBytes int64       // Maximum bytes read per manifest (default: 8 MiB)
	Logger   *log.Logger // Debug logging (default: discard)
}

// WithDefaults returns a copy of Options with zero values replaced by defaults.
func (o Options) WithDefaults() Options {
	opts := o
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxBytes
	}
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return opts
}

type extractor func(text []byte) []Dependency

type strategy struct {
	name    Strategy
	extract extractor
}

// Parser turns manifest text into dependency records by trying each
// strategy in a fixed order and keeping the first non-empty result.
type Parser struct {
	strategies []strategy
	opts       Options
}

// NewParser returns a Parser with the four built-in strategies.
func NewParser(opts Options) *Parser {
	return &Parser{
		strategies: []strategy{
			{StrategyEmbedded, extractEmbedded},
			{StrategyJSON, extractJSON},
			{StrategyYAML, extractYAML},
			{StrategyRegex, extractRegex},
		},
		opts: opts.WithDefaults(),
	}
}

// Parse reads the candidate's file and extracts its records. It returns a
// SCAN_READ error when the file cannot be read and a PARSE_EXHAUSTED error
// wrapping ErrNoRecords when no strategy produced anything.
func (p *Parser) Parse(c scan.Candidate) ([]Dependency, Strategy, error) {
	data, err := p.read(c.Path)
	if err != nil {
		return nil, "", apperr.Wrap(apperr.ErrCodeScanRead, err, "read %s", c.Path)
	}
	records, name := p.ParseBytes(data)
	if len(records) == 0 {
		return nil, "", apperr.Wrap(apperr.ErrCodeParseExhausted, ErrNoRecords, "%s", c.Path)
	}
	p.opts.Logger.Debug("parsed manifest", "path", c.Path, "strategy", name, "records", len(records))
	return records, name, nil
}

// ParseBytes runs the strategies over data. The returned records all carry
// the winning strategy; an empty result means every strategy came up empty.
func (p *Parser) ParseBytes(data []byte) ([]Dependency, Strategy) {
	for _, s := range p.strategies {
		records, err := s.run(data)
		if err != nil {
			p.opts.Logger.Debug("strategy failed", "strategy", s.name, "error", err)
			continue
		}
		if records = normalize(records, s.name); len(records) > 0 {
			return records, s.name
		}
	}
	return nil, ""
}

func (p *Parser) read(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, p.opts.MaxBytes))
}

func (s strategy) run(data []byte) (records []Dependency, err error) {
	defer func() {
		if r := recover(); r != nil {
			records, err = nil, fmt.Errorf("%s: panic: %v", s.name, r)
		}
	}()
	return s.extract(data), nil
}

// normalize trims fields, drops records without a valid name and version,
// removes duplicate names (first wins) and stamps the strategy.
func normalize(records []Dependency, name Strategy) []Dependency {
	out := records[:0:0]
	seen := make(map[string]bool, len(records))
	for _, r := range records {
		r.Name = strings.TrimSpace(r.Name)
		r.Version = strings.TrimSpace(r.Version)
		r.PathPrefix = strings.TrimSpace(r.PathPrefix)
		r.BaseURL = strings.TrimSpace(r.BaseURL)
		if apperr.ValidateDependencyName(r.Name) != nil || apperr.ValidateVersion(r.Version) != nil {
			continue
		}
		if seen[r.Name] {
			continue
		}
		seen[r.Name] = true
		r.Strategy = name
		out = append(out, r)
	}
	return out
}
