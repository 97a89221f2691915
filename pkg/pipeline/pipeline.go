// Package pipeline runs the scan → parse → resolve sequence for a source tree.
//
// # Architecture
//
// The pipeline consists of three stages, run strictly in sequence:
//
//  1. Scan: find manifest candidates under the root ([scan])
//  2. Parse: extract dependency records from each candidate ([deps])
//  3. Resolve: download and validate an artifact for every record
//     ([locator], [fetch]) into <root>/external-dependencies
//
// A failure in one manifest or dependency never stops the others; it is
// recorded in the [Result]. Only unusable input (a missing root or an
// output directory that cannot be created) is returned as an error.
//
// # Usage
//
//	runner := pipeline.NewRunner(logger)
//	result, err := runner.Execute(ctx, pipeline.Options{Root: "./recovered"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Stats.Downloaded, "of", result.Stats.Dependencies)
//
// [scan]: github.com/matzehuels/sourcedeps/pkg/scan
// [deps]: github.com/matzehuels/sourcedeps/pkg/deps
// [locator]: github.com/matzehuels/sourcedeps/pkg/locator
// [fetch]: github.com/matzehuels/sourcedeps/pkg/fetch
package pipeline

import (
	"encoding/json"
	"io"
	"path/filepath"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/sourcedeps/pkg/deps"
	apperr "github.com/matzehuels/sourcedeps/pkg/errors"
	"github.com/matzehuels/sourcedeps/pkg/fetch"
	"github.com/matzehuels/sourcedeps/pkg/locator"
	"github.com/matzehuels/sourcedeps/pkg/scan"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultRoot is scanned when Options.Root is empty.
	DefaultRoot = "."

	// DefaultOutputDir is where artifacts are written, relative to the root.
	DefaultOutputDir = "external-dependencies"

	// DefaultMemoSize bounds the number of artifact outcomes remembered
	// within one run.
	DefaultMemoSize = 4096
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for one pipeline run.
type Options struct {
	Root      string `json:"root"`
	OutputDir string `json:"output_dir,omitempty"` // Relative to Root
	Overwrite bool   `json:"overwrite,omitempty"`  // Re-download artifacts that already exist and validate
	DryRun    bool   `json:"dry_run,omitempty"`    // Scan and parse only; no network or file writes
	MemoSize  int    `json:"memo_size,omitempty"`

	// Stage options
	Scan    scan.Options    `json:"-"`
	Locator locator.Options `json:"-"`
	Fetch   fetch.Options   `json:"-"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// ValidateAndSetDefaults checks fields and applies defaults. It is
// idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Root == "" {
		o.Root = DefaultRoot
	}
	if o.OutputDir == "" {
		o.OutputDir = DefaultOutputDir
	}
	if !filepath.IsLocal(o.OutputDir) {
		return apperr.New(apperr.ErrCodeInvalidConfig, "output directory %q must be inside the root", o.OutputDir)
	}
	if o.MemoSize <= 0 {
		o.MemoSize = DefaultMemoSize
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	// Never scan our own output.
	ignore := o.Scan.IgnoreDirs
	if ignore == nil {
		ignore = scan.DefaultIgnoreDirs
	}
	out := filepath.ToSlash(filepath.Clean(o.OutputDir))
	if !slices.Contains(ignore, out) {
		ignore = append(slices.Clone(ignore), out)
	}
	o.Scan.IgnoreDirs = ignore

	for _, l := range []**log.Logger{&o.Scan.Logger, &o.Fetch.Logger} {
		if *l == nil {
			*l = o.Logger
		}
	}
	o.validated = true
	return nil
}

// OutputPath returns the absolute-or-relative directory artifacts go to.
func (o *Options) OutputPath() string {
	return filepath.Join(o.Root, o.OutputDir)
}

// =============================================================================
// Results
// =============================================================================

// Status is the terminal state of one dependency in a run.
type Status string

// Dependency statuses.
const (
	StatusDownloaded Status = "downloaded" // Fetched and validated in this run
	StatusExisting   Status = "existing"   // A valid artifact was already on disk
	StatusReused     Status = "reused"     // Same artifact already handled earlier in the run
	StatusFailed     Status = "failed"     // Every candidate failed
	StatusPlanned    Status = "planned"    // Dry run; nothing requested
)

// Result contains the outcome of a pipeline run.
type Result struct {
	Root      string           `json:"root"`
	OutputDir string           `json:"output_dir"`
	Manifests []ManifestReport `json:"manifests"`
	Stats     Stats            `json:"stats"`
}

// ManifestReport describes one manifest candidate.
type ManifestReport struct {
	Path         string             `json:"path"`
	Reason       scan.Reason        `json:"reason"`
	Strategy     deps.Strategy      `json:"strategy,omitempty"`
	Dependencies []DependencyReport `json:"dependencies,omitempty"`
	Err          error              `json:"-"`
}

// DependencyReport describes the resolution of one dependency record.
type DependencyReport struct {
	Name     string          `json:"name"`
	Version  string          `json:"version"`
	Status   Status          `json:"status"`
	Path     string          `json:"path,omitempty"`
	Attempts []fetch.Attempt `json:"attempts,omitempty"`
	Err      error           `json:"-"`
}

// Stats contains run counters and timings.
type Stats struct {
	Candidates   int           `json:"candidates"`   // Files classified as manifest candidates
	Manifests    int           `json:"manifests"`    // Candidates that yielded records
	Dependencies int           `json:"dependencies"` // Records across all manifests
	Downloaded   int           `json:"downloaded"`   // Records with a valid artifact on disk
	Failed       int           `json:"failed"`       // Records whose resolution was exhausted
	Skipped      int           `json:"skipped"`      // Records served without a new download
	ScanTime     time.Duration `json:"scan_time"`
	ResolveTime  time.Duration `json:"resolve_time"`
}

// OK reports whether the dependency ended with an artifact on disk.
func (r DependencyReport) OK() bool {
	return r.Status == StatusDownloaded || r.Status == StatusExisting || (r.Status == StatusReused && r.Err == nil)
}

// MarshalJSON renders Err as a string.
func (r DependencyReport) MarshalJSON() ([]byte, error) {
	type report DependencyReport
	return json.Marshal(struct {
		report
		Error string `json:"error,omitempty"`
	}{report(r), errString(r.Err)})
}

// MarshalJSON renders Err as a string.
func (m ManifestReport) MarshalJSON() ([]byte, error) {
	type report ManifestReport
	return json.Marshal(struct {
		report
		Error string `json:"error,omitempty"`
	}{report(m), errString(m.Err)})
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
