package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matzehuels/sourcedeps/pkg/deps"
	apperr "github.com/matzehuels/sourcedeps/pkg/errors"
	"github.com/matzehuels/sourcedeps/pkg/fetch"
	"github.com/matzehuels/sourcedeps/pkg/locator"
	"github.com/matzehuels/sourcedeps/pkg/observability"
)

const leftPad = "module.exports = leftPad;\nfunction leftPad(str, len, ch) { return String(str); }\n"

// cdn serves left-pad@1.3.0 from /npm and 404s everything else.
type cdn struct {
	*httptest.Server
	hits atomic.Int32
}

func newCDN(t *testing.T) *cdn {
	t.Helper()
	c := &cdn{}
	c.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.hits.Add(1)
		if r.URL.Path == "/npm/left-pad@1.3.0/left-pad.js" {
			_, _ = w.Write([]byte(leftPad))
			return
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(c.Close)
	return c
}

func (c *cdn) options(root string) Options {
	return Options{
		Root:    root,
		Locator: locator.Options{FallbackHost: c.URL + "/origin", CDNHosts: []string{c.URL + "/npm"}},
		Fetch:   fetch.Options{HTTPClient: c.Client(), Timeout: 2 * time.Second},
	}
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestExecute_EndToEnd(t *testing.T) {
	srv := newCDN(t)
	root := t.TempDir()
	writeFile(t, root, "package.json", `{"dependencies": {"left-pad": "1.3.0"}}`)

	result, err := NewRunner(nil).Execute(context.Background(), srv.options(root))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	artifact := filepath.Join(root, "external-dependencies", "left-pad@1.3.0.js")
	data, err := os.ReadFile(artifact)
	if err != nil {
		t.Fatalf("artifact missing: %v", err)
	}
	if string(data) != leftPad {
		t.Errorf("artifact content = %q", data)
	}

	s := result.Stats
	if s.Candidates != 1 || s.Manifests != 1 || s.Dependencies != 1 || s.Downloaded != 1 || s.Failed != 0 {
		t.Errorf("stats = %+v", s)
	}
	m := result.Manifests[0]
	if m.Strategy != deps.StrategyJSON || len(m.Dependencies) != 1 {
		t.Fatalf("manifest report = %+v", m)
	}
	d := m.Dependencies[0]
	if d.Status != StatusDownloaded || d.Path != artifact || !d.OK() {
		t.Errorf("dependency report = %+v", d)
	}
	// 3 generic candidates on the fallback host, then the flat CDN path
	if len(d.Attempts) != 6 {
		t.Errorf("attempts = %d, want 6", len(d.Attempts))
	}
}

func TestExecute_FailuresDoNotAbortSiblings(t *testing.T) {
	srv := newCDN(t)
	root := t.TempDir()
	writeFile(t, root, "a/package.json", `{"dependencies": {"missing-lib": "0.0.1"}}`)
	writeFile(t, root, "b/notes.js", `const x = require("y");`)
	writeFile(t, root, "c/bower.json", `{"dependencies": {"left-pad": "1.3.0"}}`)

	result, err := NewRunner(nil).Execute(context.Background(), srv.options(root))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	s := result.Stats
	if s.Candidates != 3 || s.Manifests != 2 || s.Dependencies != 2 || s.Downloaded != 1 || s.Failed != 1 {
		t.Errorf("stats = %+v", s)
	}

	byPath := map[string]ManifestReport{}
	for _, m := range result.Manifests {
		byPath[filepath.Base(filepath.Dir(m.Path))] = m
	}
	failed := byPath["a"].Dependencies[0]
	if failed.Status != StatusFailed || !apperr.Is(failed.Err, apperr.ErrCodeResolutionExhausted) {
		t.Errorf("missing-lib report = %+v", failed)
	}
	if len(failed.Attempts) != 7 {
		t.Errorf("missing-lib attempts = %d, want 7", len(failed.Attempts))
	}
	if !apperr.Is(byPath["b"].Err, apperr.ErrCodeParseExhausted) {
		t.Errorf("notes.js error = %v, want PARSE_EXHAUSTED", byPath["b"].Err)
	}
	if got := byPath["c"].Dependencies[0].Status; got != StatusDownloaded {
		t.Errorf("left-pad status = %s", got)
	}
}

func TestExecute_MemoizesArtifacts(t *testing.T) {
	srv := newCDN(t)
	root := t.TempDir()
	writeFile(t, root, "a/package.json", `{"dependencies": {"left-pad": "1.3.0", "gone": "1.0.0"}}`)
	writeFile(t, root, "b/package.json", `{"dependencies": {"left-pad": "1.3.0", "gone": "1.0.0"}}`)

	result, err := NewRunner(nil).Execute(context.Background(), srv.options(root))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	// a: 6 requests for left-pad + 7 for gone; b: served from the memo
	if got := srv.hits.Load(); got != 13 {
		t.Errorf("requests = %d, want 13", got)
	}
	second := result.Manifests[1].Dependencies
	if second[0].Status != StatusReused || !second[0].OK() {
		t.Errorf("left-pad in b = %+v", second[0])
	}
	if second[1].Status != StatusReused || second[1].Err == nil || second[1].OK() {
		t.Errorf("gone in b = %+v", second[1])
	}
	s := result.Stats
	if s.Downloaded != 2 || s.Failed != 2 || s.Skipped != 2 {
		t.Errorf("stats = %+v", s)
	}
}

func TestExecute_ExistingArtifact(t *testing.T) {
	srv := newCDN(t)
	root := t.TempDir()
	writeFile(t, root, "package.json", `{"dependencies": {"left-pad": "1.3.0"}}`)
	writeFile(t, root, "external-dependencies/left-pad@1.3.0.js", "function cached() {}\n")
	// manifests inside the output directory are never scanned
	writeFile(t, root, "external-dependencies/package.json", `{"dependencies": {"other": "1.0.0"}}`)

	result, err := NewRunner(nil).Execute(context.Background(), srv.options(root))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if srv.hits.Load() != 0 {
		t.Errorf("requests = %d, want 0", srv.hits.Load())
	}
	if result.Stats.Candidates != 1 {
		t.Errorf("candidates = %d, want 1", result.Stats.Candidates)
	}
	if d := result.Manifests[0].Dependencies[0]; d.Status != StatusExisting {
		t.Errorf("status = %s, want existing", d.Status)
	}

	opts := srv.options(root)
	opts.Overwrite = true
	if _, err := NewRunner(nil).Execute(context.Background(), opts); err != nil {
		t.Fatalf("Execute(overwrite): %v", err)
	}
	data, _ := os.ReadFile(filepath.Join(root, "external-dependencies", "left-pad@1.3.0.js"))
	if string(data) != leftPad {
		t.Errorf("overwrite kept old content %q", data)
	}
}

func TestExecute_DryRun(t *testing.T) {
	srv := newCDN(t)
	root := t.TempDir()
	writeFile(t, root, "package.json", `{"dependencies": {"left-pad": "1.3.0"}}`)

	opts := srv.options(root)
	opts.DryRun = true
	result, err := NewRunner(nil).Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if srv.hits.Load() != 0 {
		t.Errorf("dry run made %d requests", srv.hits.Load())
	}
	if _, err := os.Stat(filepath.Join(root, "external-dependencies")); !os.IsNotExist(err) {
		t.Errorf("dry run created output directory: %v", err)
	}
	if d := result.Manifests[0].Dependencies[0]; d.Status != StatusPlanned {
		t.Errorf("status = %s, want planned", d.Status)
	}
}

func TestExecute_StableRecords(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "package.json", `{"dependencies": {"a": "1.0.0", "b": "2.0.0"}}`)
	writeFile(t, root, "src/config.js", `window.cfg = { dependencies: { depVersions: { react: "18.2.0" } } };`)
	writeFile(t, root, "deps.yml", "dependencies:\n  http: ^1.1.0\n")

	records := func() []string {
		result, err := NewRunner(nil).Execute(context.Background(), Options{Root: root, DryRun: true})
		if err != nil {
			t.Fatalf("Execute: %v", err)
		}
		var out []string
		for _, m := range result.Manifests {
			for _, d := range m.Dependencies {
				out = append(out, string(m.Strategy)+" "+d.Name+"@"+d.Version)
			}
		}
		sort.Strings(out)
		return out
	}

	first, second := records(), records()
	if strings.Join(first, "\n") != strings.Join(second, "\n") {
		t.Errorf("record sets differ:\n%v\n%v", first, second)
	}
	want := []string{
		"embedded-eval react@18.2.0",
		"structured-json a@1.0.0",
		"structured-json b@2.0.0",
		"structured-yaml http@^1.1.0",
	}
	if strings.Join(first, "\n") != strings.Join(want, "\n") {
		t.Errorf("records = %v, want %v", first, want)
	}
}

func TestExecute_InvalidRoot(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	missing := filepath.Join(t.TempDir(), "missing")
	for _, root := range []string{missing, file} {
		_, err := NewRunner(nil).Execute(context.Background(), Options{Root: root})
		if !apperr.Is(err, apperr.ErrCodeInvalidPath) || !apperr.IsFatal(err) {
			t.Errorf("Execute(%s) error = %v, want fatal INVALID_PATH", root, err)
		}
	}
	if _, err := os.Stat(missing); !os.IsNotExist(err) {
		t.Error("missing root was created")
	}
}

func TestExecute_Cancelled(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "package.json", `{"dependencies": {"left-pad": "1.3.0"}}`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result, err := NewRunner(nil).Execute(ctx, Options{Root: root, DryRun: true})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Execute error = %v, want context.Canceled", err)
	}
	if result == nil {
		t.Error("partial result missing")
	}
}

type recordingHooks struct {
	observability.NoopPipelineHooks
	parsed   atomic.Int32
	resolved atomic.Int32
}

func (h *recordingHooks) OnParseComplete(context.Context, string, string, int, error) {
	h.parsed.Add(1)
}

func (h *recordingHooks) OnResolveComplete(context.Context, string, string, int, time.Duration, error) {
	h.resolved.Add(1)
}

func TestExecute_Hooks(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetPipelineHooks(hooks)
	defer observability.Reset()

	srv := newCDN(t)
	root := t.TempDir()
	writeFile(t, root, "package.json", `{"dependencies": {"left-pad": "1.3.0"}}`)

	if _, err := NewRunner(nil).Execute(context.Background(), srv.options(root)); err != nil {
		t.Fatal(err)
	}
	if hooks.parsed.Load() != 1 || hooks.resolved.Load() != 1 {
		t.Errorf("parsed = %d, resolved = %d, want 1 and 1", hooks.parsed.Load(), hooks.resolved.Load())
	}
}

func TestOptions_ValidateAndSetDefaults(t *testing.T) {
	opts := Options{}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if opts.Root != "." || opts.OutputDir != DefaultOutputDir || opts.MemoSize != DefaultMemoSize || opts.Logger == nil {
		t.Errorf("defaults = %+v", opts)
	}
	n := 0
	for _, d := range opts.Scan.IgnoreDirs {
		if d == DefaultOutputDir {
			n++
		}
	}
	if n != 1 {
		t.Errorf("output dir appears %d times in ignore list", n)
	}

	custom := Options{OutputDir: "vendor/js"}
	if err := custom.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if last := custom.Scan.IgnoreDirs[len(custom.Scan.IgnoreDirs)-1]; last != "vendor/js" {
		t.Errorf("custom output dir not ignored: %v", custom.Scan.IgnoreDirs)
	}

	bad := Options{OutputDir: "../elsewhere"}
	if err := bad.ValidateAndSetDefaults(); !apperr.Is(err, apperr.ErrCodeInvalidConfig) {
		t.Errorf("error = %v, want INVALID_CONFIG", err)
	}
}

func TestResult_JSON(t *testing.T) {
	result := &Result{
		Manifests: []ManifestReport{{
			Path:   "package.json",
			Reason: "filename-match",
			Dependencies: []DependencyReport{{
				Name: "x", Version: "1", Status: StatusFailed,
				Err: apperr.New(apperr.ErrCodeResolutionExhausted, "no valid location found"),
			}},
		}},
	}
	data, err := json.Marshal(result)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"error":"RESOLUTION_EXHAUSTED: no valid location found"`) {
		t.Errorf("JSON missing error: %s", data)
	}
}
