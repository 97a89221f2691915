// Package deps extracts dependency records from manifest candidates.
//
// # Overview
//
// Manifests found in recovered source trees have no fixed schema. A file
// may be a package.json, a YAML manifest, a bundled script carrying a
// configuration object, or something that only loosely resembles any of
// those. [Parser] copes by trying four strategies in a fixed order and
// keeping the first one that yields records:
//
//  1. [StrategyEmbedded]: a non-executing parse of `dependencies` object
//     literals (see package [objlit]) that carry a version map under
//     depVersions, versions or dependencyVersions, plus optional path
//     prefixes and a static base URL
//  2. [StrategyJSON]: the top-level `dependencies` mapping of a JSON or
//     JSONC document, in document order
//  3. [StrategyYAML]: the same mapping in a YAML document, attempted only
//     when the text looks like YAML
//  4. [StrategyRegex]: `"name": "version"` pairs found by regular
//     expressions, preferring pairs inside dependency blocks
//
// Later strategies are never consulted once one succeeds, so every record
// from a manifest carries the same [Strategy]. A strategy that panics is
// treated as having found nothing.
//
// # Records
//
// Every [Dependency] has a non-empty, trimmed name and version. Names are
// validated so they are safe to use as file names after [Dependency.FileName]
// replaces path separators. Duplicate names keep their first occurrence.
//
// # Usage
//
//	p := deps.NewParser(deps.Options{Logger: logger})
//	records, strategy, err := p.Parse(candidate)
//	if errors.Is(err, errors.ErrCodeParseExhausted) {
//	    // nothing recognisable; move on
//	}
//
// [objlit]: github.com/matzehuels/sourcedeps/pkg/deps/objlit
package deps
