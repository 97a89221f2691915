package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/sourcedeps/pkg/deps"
	apperr "github.com/matzehuels/sourcedeps/pkg/errors"
	"github.com/matzehuels/sourcedeps/pkg/fetch"
	"github.com/matzehuels/sourcedeps/pkg/locator"
	"github.com/matzehuels/sourcedeps/pkg/observability"
	"github.com/matzehuels/sourcedeps/pkg/scan"
)

// Runner executes pipeline runs.
//
// The Runner is stateless except for its logger. It does not keep results
// between runs, so separate goroutines may call Execute with different
// options.
type Runner struct {
	Logger *log.Logger
}

// NewRunner creates a runner. If logger is nil, log.Default() is used.
func NewRunner(logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Logger: logger}
}

// run holds the collaborators of a single Execute call.
type run struct {
	opts    Options
	logger  *log.Logger
	parser  *deps.Parser
	fetcher *fetch.Fetcher
	memo    *memo
	outDir  string
	result  *Result
}

// Execute scans opts.Root, parses every candidate and resolves every record.
// The returned error is non-nil only for unusable input or cancellation;
// in the latter case the partial result is returned alongside ctx.Err().
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	if err := checkRoot(opts.Root); err != nil {
		return nil, err
	}
	scanner, err := scan.New(opts.Scan)
	if err != nil {
		return nil, err
	}
	gen, err := locator.New(opts.Locator)
	if err != nil {
		return nil, err
	}

	rn := &run{
		opts:    opts,
		logger:  opts.Logger,
		parser:  deps.NewParser(deps.Options{Logger: opts.Logger}),
		fetcher: fetch.New(gen, opts.Fetch),
		memo:    newMemo(opts.MemoSize),
		outDir:  opts.OutputPath(),
		result:  &Result{Root: opts.Root, OutputDir: opts.OutputPath()},
	}
	if !opts.DryRun {
		if err := os.MkdirAll(rn.outDir, 0o755); err != nil {
			return nil, apperr.Wrap(apperr.ErrCodeInvalidPath, err, "create output directory")
		}
	}

	// Stage 1: Scan
	scanStart := time.Now()
	candidates, err := scanner.Scan(ctx, opts.Root)
	rn.result.Stats.ScanTime = time.Since(scanStart)
	observability.Pipeline().OnScanComplete(ctx, opts.Root, len(candidates), rn.result.Stats.ScanTime, err)
	if err != nil {
		return rn.result, err
	}
	rn.result.Stats.Candidates = len(candidates)
	rn.logger.Info("scanned source tree",
		"root", opts.Root,
		"candidates", len(candidates),
		"duration", rn.result.Stats.ScanTime)

	// Stages 2 and 3: Parse and resolve, one manifest at a time
	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return rn.result, err
		}
		report := rn.manifest(ctx, c)
		rn.result.Manifests = append(rn.result.Manifests, report)
		if err := ctx.Err(); err != nil {
			return rn.result, err
		}
	}

	s := rn.result.Stats
	rn.logger.Info("resolved dependencies",
		"manifests", s.Manifests,
		"dependencies", s.Dependencies,
		"downloaded", s.Downloaded,
		"failed", s.Failed,
		"duration", s.ResolveTime)
	return rn.result, nil
}

// manifest parses one candidate and resolves its records.
func (rn *run) manifest(ctx context.Context, c scan.Candidate) ManifestReport {
	report := ManifestReport{Path: c.Path, Reason: c.Reason}

	records, strategy, err := rn.parser.Parse(c)
	observability.Pipeline().OnParseComplete(ctx, c.Path, string(strategy), len(records), err)
	if err != nil {
		report.Err = err
		rn.logger.Debug("no dependencies", "path", c.Path, "reason", c.Reason, "error", err)
		return report
	}

	report.Strategy = strategy
	rn.result.Stats.Manifests++
	rn.result.Stats.Dependencies += len(records)
	rn.logger.Info("manifest",
		"path", c.Path,
		"reason", c.Reason,
		"strategy", strategy,
		"dependencies", len(records))

	for _, dep := range records {
		if ctx.Err() != nil {
			break
		}
		report.Dependencies = append(report.Dependencies, rn.resolve(ctx, dep))
	}
	return report
}

// resolve produces the artifact for one record, consulting the memo and
// any artifact already on disk first.
func (rn *run) resolve(ctx context.Context, dep deps.Dependency) DependencyReport {
	file := dep.FileName()
	dest := filepath.Join(rn.outDir, file)
	report := DependencyReport{Name: dep.Name, Version: dep.Version, Path: dest}

	if rn.opts.DryRun {
		report.Status = StatusPlanned
		return report
	}

	stats := &rn.result.Stats
	if o, ok := rn.memo.get(ctx, file); ok {
		report.Status, report.Path, report.Err = StatusReused, o.path, o.err
		stats.Skipped++
		if o.err != nil {
			stats.Failed++
		} else {
			stats.Downloaded++
		}
		return report
	}

	if !rn.opts.Overwrite {
		if ok, _ := fetch.ValidFile(dest, rn.validateBytes()); ok {
			rn.logger.Debug("artifact exists", "dependency", dep, "path", dest)
			rn.memo.add(file, outcome{path: dest})
			report.Status = StatusExisting
			stats.Skipped++
			stats.Downloaded++
			return report
		}
	}

	observability.Pipeline().OnResolveStart(ctx, dep.Name, dep.Version)
	start := time.Now()
	res := rn.fetcher.Resolve(ctx, dep, dest)
	elapsed := time.Since(start)
	stats.ResolveTime += elapsed
	observability.Pipeline().OnResolveComplete(ctx, dep.Name, dep.Version, len(res.Attempts), elapsed, res.Err)

	report.Attempts = res.Attempts
	if res.OK() {
		rn.logger.Info("downloaded", "dependency", dep, "attempts", len(res.Attempts))
		rn.memo.add(file, outcome{path: dest})
		report.Status = StatusDownloaded
		stats.Downloaded++
		return report
	}

	report.Status, report.Path, report.Err = StatusFailed, "", res.Err
	if errors.Is(res.Err, context.Canceled) || errors.Is(res.Err, context.DeadlineExceeded) {
		return report
	}
	rn.logger.Warn("unresolved", "dependency", dep, "attempts", len(res.Attempts), "error", apperr.UserMessage(res.Err))
	rn.memo.add(file, outcome{err: res.Err})
	stats.Failed++
	return report
}

func (rn *run) validateBytes() int {
	if n := rn.opts.Fetch.ValidateBytes; n > 0 {
		return n
	}
	return fetch.DefaultValidateBytes
}

// checkRoot reports INVALID_PATH unless root is an existing directory.
func checkRoot(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return apperr.Wrap(apperr.ErrCodeInvalidPath, err, "scan root %s", root)
	}
	if !info.IsDir() {
		return apperr.New(apperr.ErrCodeInvalidPath, "scan root %s is not a directory", root)
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
