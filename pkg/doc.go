// Package pkg provides the core libraries for sourcedeps.
//
// # Overview
//
// Sourcedeps finds the dependency manifests in a source tree, extracts the
// declared (name, version) pairs and downloads one script artifact per pair
// into <root>/external-dependencies/. Nothing in a manifest is ever executed.
//
// # Architecture
//
// The data flow through one run:
//
//	Source tree
//	     ↓
//	[scan] (filename and bounded content checks)
//	     ↓
//	[deps] (embedded-eval → structured-json → structured-yaml → textual-regex)
//	     ↓
//	[locator] (ordered candidate URLs)
//	     ↓
//	[fetch] (bounded redirects, content check, atomic write)
//	     ↓
//	external-dependencies/{name}@{version}.js
//
// [pipeline] drives the stages and reports per-manifest and per-dependency
// outcomes. Failures are local: a bad file, manifest, candidate or
// dependency never stops the run.
//
// # Quick Start
//
//	res, err := pipeline.NewRunner(logger).Execute(ctx, pipeline.Options{Root: "."})
//	if err != nil {
//	    return err // unusable root, invalid options or cancellation
//	}
//	fmt.Printf("%d of %d dependencies available\n", res.Stats.Downloaded, res.Stats.Dependencies)
//
// # Main Packages
//
// [scan] - Recursive manifest discovery with a doublestar directory denylist.
//
// [deps] - Dependency records and the strategy-chain parser.
// [deps/objlit] parses object literals without evaluating anything.
//
// [locator] - Deterministic candidate URL generation.
//
// [fetch] - The HTTP fetcher and the script content check.
//
// [pipeline] - Orchestration, the per-run outcome memo and result types.
//
// [config] - TOML configuration with SOURCEDEPS_* environment overrides.
//
// [errors] - Coded errors shared by every package.
//
// [observability] - Hook interfaces for pipeline and HTTP events.
//
// [scan]: https://pkg.go.dev/github.com/matzehuels/sourcedeps/pkg/scan
// [deps]: https://pkg.go.dev/github.com/matzehuels/sourcedeps/pkg/deps
// [deps/objlit]: https://pkg.go.dev/github.com/matzehuels/sourcedeps/pkg/deps/objlit
// [locator]: https://pkg.go.dev/github.com/matzehuels/sourcedeps/pkg/locator
// [fetch]: https://pkg.go.dev/github.com/matzehuels/sourcedeps/pkg/fetch
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/sourcedeps/pkg/pipeline
// [config]: https://pkg.go.dev/github.com/matzehuels/sourcedeps/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/sourcedeps/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/sourcedeps/pkg/observability
package pkg
