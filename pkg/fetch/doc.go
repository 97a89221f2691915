// Package fetch downloads and validates dependency artifacts.
//
// A [Fetcher] walks the candidate URLs produced by package locator strictly
// in order. Each candidate is requested with a per-request timeout. Redirects
// are followed by an explicit loop with a bounded number of hops; the HTTP
// client itself never follows them. A 200 response is streamed into a
// uniquely named partial file next to the destination, and the first bytes
// of the written file are checked against a script-content heuristic. The
// partial file is renamed onto the destination on success and removed
// otherwise.
//
// Every request, redirect and rejection is recorded as an [Attempt] so
// callers can report exactly what happened. Failures never escape as
// panics or abort sibling work: exhausting all candidates yields a
// RESOLUTION_EXHAUSTED error in [Result.Err].
package fetch
