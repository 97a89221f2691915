// Package scan locates files that plausibly declare third-party dependency
// metadata inside a tree of recovered sources.
//
// # Overview
//
// A [Scanner] walks a root directory, skipping noise directories (version
// control metadata, dependency caches, build output) before descending into
// them, and classifies every regular file as a manifest [Candidate] when
// either:
//
//   - its base name matches one of the manifest patterns ([ReasonFilename]), or
//   - a bounded prefix of its content matches a manifest pattern or one of
//     the generic import/require/dependency keywords ([ReasonContent]).
//
// Unreadable files and directories are skipped; a scan only fails when the
// root itself is unusable or the context is cancelled.
//
// # Usage
//
//	s, err := scan.New(scan.Options{})
//	if err != nil {
//	    return err
//	}
//	candidates, err := s.Scan(ctx, "./recovered")
//	for _, c := range candidates {
//	    fmt.Println(c.Path, c.Reason)
//	}
//
// Candidates are produced in directory traversal order. Callers must not
// depend on that order.
package scan
