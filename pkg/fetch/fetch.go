package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/sourcedeps/pkg/buildinfo"
	"github.com/matzehuels/sourcedeps/pkg/deps"
	apperr "github.com/matzehuels/sourcedeps/pkg/errors"
	"github.com/matzehuels/sourcedeps/pkg/locator"
	"github.com/matzehuels/sourcedeps/pkg/observability"
)

const (
	DefaultTimeout       = 5 * time.Second // Per request, including the body
	DefaultMaxRedirects  = 5               // Redirect hops followed per candidate
	DefaultValidateBytes = 100             // Prefix of the written file that is inspected
)

var (
	// ErrTooManyRedirects is returned when a redirect chain exceeds the bound.
	ErrTooManyRedirects = errors.New("too many redirects")

	// ErrInvalidContent is returned when a body does not look like script source.
	ErrInvalidContent = errors.New("content does not look like script source")

	// ErrUnsupportedScheme is returned for URLs that are not http(s).
	ErrUnsupportedScheme = errors.New("unsupported URL scheme")
)

// Outcome classifies a single HTTP attempt.
type Outcome string

// Attempt outcomes.
const (
	OutcomeRedirected      Outcome = "redirected"
	OutcomeSuccess         Outcome = "validated-success"
	OutcomeRejectedStatus  Outcome = "rejected-status"
	OutcomeRejectedContent Outcome = "rejected-content"
	OutcomeNetworkError    Outcome = "network-error"
)

// Attempt records one request. Every redirect hop is its own attempt.
type Attempt struct {
	URL     string
	Outcome Outcome
	Status  int
	Err     error
}

// MarshalJSON renders Err as a string.
func (a Attempt) MarshalJSON() ([]byte, error) {
	type attempt struct {
		URL     string  `json:"url"`
		Outcome Outcome `json:"outcome"`
		Status  int     `json:"status,omitempty"`
		Err     string  `json:"error,omitempty"`
	}
	out := attempt{URL: a.URL, Outcome: a.Outcome, Status: a.Status}
	if a.Err != nil {
		out.Err = a.Err.Error()
	}
	return json.Marshal(out)
}

// Result is the outcome of resolving one dependency.
type Result struct {
	Path     string    // Destination written on success
	Attempts []Attempt // Every request made, in order
	Err      error     // Nil on success
}

// OK reports whether a candidate was validated and persisted.
func (r Result) OK() bool { return r.Err == nil && r.Path != "" }

// Options configures a Fetcher.
type Options struct {
	Timeout       time.Duration // Per-request timeout (default: 5s)
	MaxRedirects  int           // Redirect hops per candidate (default: 5, negative disables redirects)
	ValidateBytes int           // Bytes inspected by the content check (default: 100)
	UserAgent     string        // User-Agent header (default: sourcedeps/<version>)
	HTTPClient    *http.Client  // Base client; its redirect policy is replaced
	Logger        *log.Logger   // Debug logging (default: discard)
}

// WithDefaults returns a copy of Options with zero values replaced by defaults.
func (o Options) WithDefaults() Options {
	opts := o
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxRedirects == 0 {
		opts.MaxRedirects = DefaultMaxRedirects
	} else if opts.MaxRedirects < 0 {
		opts.MaxRedirects = 0
	}
	if opts.ValidateBytes <= 0 {
		opts.ValidateBytes = DefaultValidateBytes
	}
	if opts.UserAgent == "" {
		opts.UserAgent = buildinfo.UserAgent()
	}
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return opts
}

// Fetcher downloads the first valid candidate for a dependency.
type Fetcher struct {
	gen    *locator.Generator
	client *http.Client
	opts   Options
}

// New returns a Fetcher that draws candidates from gen.
func New(gen *locator.Generator, opts Options) *Fetcher {
	opts = opts.WithDefaults()

	client := &http.Client{}
	if opts.HTTPClient != nil {
		c := *opts.HTTPClient
		client = &c
	}
	client.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return &Fetcher{gen: gen, client: client, opts: opts}
}

// Resolve tries every candidate URL for dep and writes the first valid
// artifact to dest.
func (f *Fetcher) Resolve(ctx context.Context, dep deps.Dependency, dest string) Result {
	return f.Fetch(ctx, f.gen.Candidates(dep), dest)
}

// Fetch tries urls strictly in order and writes the first valid artifact to
// dest. It stops early only when ctx is done.
func (f *Fetcher) Fetch(ctx context.Context, urls []string, dest string) Result {
	var res Result
	for _, u := range urls {
		if err := ctx.Err(); err != nil {
			res.Err = err
			return res
		}
		attempts, err := f.try(ctx, u, dest)
		res.Attempts = append(res.Attempts, attempts...)
		if err == nil {
			res.Path = dest
			return res
		}
		f.opts.Logger.Debug("candidate rejected", "url", u, "error", err)
	}
	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}
	res.Err = apperr.New(apperr.ErrCodeResolutionExhausted, "no valid location found (%d attempts)", len(res.Attempts))
	return res
}

// try follows one candidate through its redirect chain.
func (f *Fetcher) try(ctx context.Context, target, dest string) ([]Attempt, error) {
	current, err := normalizeURL(nil, target)
	if err != nil {
		return []Attempt{{URL: target, Outcome: OutcomeNetworkError, Err: err}}, err
	}

	var attempts []Attempt
	for remaining := f.opts.MaxRedirects; ; remaining-- {
		a, location := f.get(ctx, current, dest)
		attempts = append(attempts, a)
		f.opts.Logger.Debug("attempt", "url", a.URL, "outcome", a.Outcome, "status", a.Status)

		if a.Outcome != OutcomeRedirected {
			return attempts, a.Err
		}
		if remaining <= 0 {
			err := apperr.Wrap(apperr.ErrCodeTooManyRedirects, ErrTooManyRedirects, "%s", target)
			attempts[len(attempts)-1].Err = err
			return attempts, err
		}
		next, err := normalizeURL(current, location)
		if err != nil {
			attempts = append(attempts, Attempt{URL: location, Outcome: OutcomeNetworkError, Err: err})
			return attempts, err
		}
		current = next
	}
}

// get performs one GET. For redirects it returns the Location header.
func (f *Fetcher) get(ctx context.Context, u *url.URL, dest string) (Attempt, string) {
	a := Attempt{URL: u.String()}

	reqCtx, cancel := context.WithTimeout(ctx, f.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, a.URL, nil)
	if err != nil {
		a.Outcome, a.Err = OutcomeNetworkError, apperr.Wrap(apperr.ErrCodeNetwork, err, "GET %s", a.URL)
		return a, ""
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)

	hooks := observability.HTTP()
	hooks.OnRequest(ctx, req.Method, u.Host, u.Path)
	start := time.Now()

	resp, err := f.client.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, u.Host, u.Path, err)
		a.Outcome, a.Err = OutcomeNetworkError, networkError(err, a.URL)
		return a, ""
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, req.Method, u.Host, u.Path, resp.StatusCode, time.Since(start))
	a.Status = resp.StatusCode

	if location := resp.Header.Get("Location"); isRedirect(resp.StatusCode) && location != "" {
		a.Outcome = OutcomeRedirected
		return a, location
	}
	if resp.StatusCode != http.StatusOK {
		a.Outcome = OutcomeRejectedStatus
		a.Err = apperr.New(apperr.ErrCodeUnexpectedStatus, "GET %s: status %d", a.URL, resp.StatusCode)
		return a, ""
	}

	if err := f.persist(resp.Body, dest); err != nil {
		a.Err = err
		a.Outcome = OutcomeNetworkError
		if errors.Is(err, ErrInvalidContent) {
			a.Outcome = OutcomeRejectedContent
		}
		return a, ""
	}
	a.Outcome = OutcomeSuccess
	return a, ""
}

// persist streams body into a partial file beside dest, validates the
// written prefix and renames it into place. The partial file never
// survives a failure.
func (f *Fetcher) persist(body io.Reader, dest string) (err error) {
	part := filepath.Join(filepath.Dir(dest), "."+filepath.Base(dest)+"."+uuid.NewString()+".part")
	out, err := os.OpenFile(part, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return apperr.Wrap(apperr.ErrCodeInternal, err, "create partial file")
	}
	defer func() {
		if err != nil {
			_ = os.Remove(part)
		}
	}()

	_, copyErr := io.Copy(out, body)
	if closeErr := out.Close(); copyErr == nil {
		copyErr = closeErr
	}
	if copyErr != nil {
		return networkError(copyErr, dest)
	}

	ok, err := ValidFile(part, f.opts.ValidateBytes)
	if err != nil {
		return apperr.Wrap(apperr.ErrCodeInternal, err, "read partial file")
	}
	if !ok {
		return apperr.Wrap(apperr.ErrCodeInvalidContent, ErrInvalidContent, "%s", filepath.Base(dest))
	}
	if err := os.Rename(part, dest); err != nil {
		return apperr.Wrap(apperr.ErrCodeInternal, err, "rename partial file")
	}
	return nil
}

func isRedirect(code int) bool {
	switch code {
	case http.StatusMovedPermanently, http.StatusFound,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	}
	return false
}

// normalizeURL resolves ref against base (when non-nil), maps
// protocol-relative references to https and rejects other schemes.
func normalizeURL(base *url.URL, ref string) (*url.URL, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrCodeNetwork, err, "invalid URL %q", ref)
	}
	if u.Scheme == "" && u.Host != "" {
		u.Scheme = "https"
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, apperr.Wrap(apperr.ErrCodeNetwork, ErrUnsupportedScheme, "%q", ref)
	}
	if u.Host == "" {
		return nil, apperr.New(apperr.ErrCodeNetwork, "URL %q has no host", ref)
	}
	return u, nil
}

func networkError(err error, target string) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperr.Wrap(apperr.ErrCodeTimeout, err, "GET %s", target)
	}
	return apperr.Wrap(apperr.ErrCodeNetwork, err, "GET %s", target)
}

// String summarises the attempt for logs.
func (a Attempt) String() string {
	if a.Status != 0 {
		return fmt.Sprintf("%s %s (%d)", a.Outcome, a.URL, a.Status)
	}
	return fmt.Sprintf("%s %s", a.Outcome, a.URL)
}
