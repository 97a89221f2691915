package scan

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"

	apperr "github.com/matzehuels/sourcedeps/pkg/errors"
	"github.com/matzehuels/sourcedeps/pkg/observability"
)

// Reason records which check classified a file as a manifest candidate.
type Reason string

const (
	ReasonFilename Reason = "filename-match"
	ReasonContent  Reason = "content-match"
)

// Candidate is a file suspected of declaring dependency metadata.
type Candidate struct {
	Path   string `json:"path"`
	Reason Reason `json:"reason"`
}

// Scanner classifies files under a root directory. A Scanner is immutable
// after New and safe for concurrent use.
type Scanner struct {
	patterns []*regexp.Regexp
	keywords []*regexp.Regexp
	ignore   []string
	prefix   int
	logger   *log.Logger
}

// New compiles the patterns in opts. Invalid regular expressions or
// doublestar patterns are reported as INVALID_CONFIG errors.
func New(opts Options) (*Scanner, error) {
	opts = opts.WithDefaults()

	patterns, err := compileAll(opts.Patterns)
	if err != nil {
		return nil, err
	}
	keywords, err := compileAll(opts.Keywords)
	if err != nil {
		return nil, err
	}
	for _, p := range opts.IgnoreDirs {
		if !doublestar.ValidatePattern(p) {
			return nil, apperr.New(apperr.ErrCodeInvalidConfig, "invalid ignore pattern %q", p)
		}
	}

	return &Scanner{
		patterns: patterns,
		keywords: keywords,
		ignore:   opts.IgnoreDirs,
		prefix:   opts.PrefixBytes,
		logger:   opts.Logger,
	}, nil
}

func compileAll(exprs []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(exprs))
	for _, expr := range exprs {
		re, err := regexp.Compile("(?i)" + expr)
		if err != nil {
			return nil, apperr.Wrap(apperr.ErrCodeInvalidConfig, err, "invalid manifest pattern %q", expr)
		}
		out = append(out, re)
	}
	return out, nil
}

// Scan walks root and returns every manifest candidate.
func (s *Scanner) Scan(ctx context.Context, root string) ([]Candidate, error) {
	var out []Candidate
	err := s.Walk(ctx, root, func(c Candidate) error {
		out = append(out, c)
		return nil
	})
	return out, err
}

// Walk calls fn for every manifest candidate under root, in traversal order.
// Returning an error from fn stops the walk and returns that error.
func (s *Scanner) Walk(ctx context.Context, root string, fn func(Candidate) error) error {
	info, err := os.Stat(root)
	if err != nil {
		return apperr.Wrap(apperr.ErrCodeInvalidPath, err, "scan root %s", root)
	}
	if !info.IsDir() {
		return apperr.New(apperr.ErrCodeInvalidPath, "scan root %s is not a directory", root)
	}
	return s.walkDir(ctx, root, "", fn)
}

func (s *Scanner) walkDir(ctx context.Context, dir, rel string, fn func(Candidate) error) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		s.skip(ctx, dir, err)
		return nil
	}

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}

		name := e.Name()
		full := filepath.Join(dir, name)
		relPath := path.Join(rel, name)

		switch {
		case e.IsDir():
			if s.ignored(name, relPath) {
				s.logger.Debug("skipping directory", "path", relPath)
				continue
			}
			if err := s.walkDir(ctx, full, relPath, fn); err != nil {
				return err
			}
		case e.Type().IsRegular():
			reason, ok, err := s.Classify(full)
			if err != nil {
				s.skip(ctx, full, err)
				continue
			}
			if !ok {
				continue
			}
			if err := fn(Candidate{Path: full, Reason: reason}); err != nil {
				return err
			}
		}
	}
	return nil
}

// Classify reports whether the file at p is a manifest candidate and why.
// The filename check runs first; the content prefix is only read when the
// name does not match.
func (s *Scanner) Classify(p string) (Reason, bool, error) {
	if s.matchAny(s.patterns, filepath.Base(p)) {
		return ReasonFilename, true, nil
	}

	prefix, err := ReadPrefix(p, s.prefix)
	if err != nil {
		return "", false, apperr.Wrap(apperr.ErrCodeScanRead, err, "read %s", p)
	}
	if s.matchAny(s.patterns, prefix) || s.matchAny(s.keywords, prefix) {
		return ReasonContent, true, nil
	}
	return "", false, nil
}

func (s *Scanner) matchAny(res []*regexp.Regexp, text string) bool {
	for _, re := range res {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

func (s *Scanner) ignored(name, rel string) bool {
	for _, pat := range s.ignore {
		if ok, err := doublestar.Match(pat, name); err == nil && ok {
			return true
		}
		if ok, err := doublestar.Match(pat, rel); err == nil && ok {
			return true
		}
	}
	return false
}

func (s *Scanner) skip(ctx context.Context, p string, err error) {
	s.logger.Debug("skipping unreadable path", "path", p, "err", err)
	observability.Pipeline().OnScanSkip(ctx, p, err)
}

// String implements fmt.Stringer for log output.
func (c Candidate) String() string {
	return fmt.Sprintf("%s (%s)", c.Path, c.Reason)
}
