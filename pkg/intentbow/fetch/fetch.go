// Package fetch keeps local copies of remote JSON resources fresh, with at
// most one download per calendar day.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/cognicore/intentbow/pkg/intentbow/internalerr"
)

// Outcome is what Update did with a resource.
type Outcome int

const (
	Created  Outcome = iota + 1 // first download
	Updated                     // refreshed an outdated copy
	UpToDate                    // already fetched today, no request made
	Stale                       // refresh failed, outdated copy kept
)

func (o Outcome) String() string {
	switch o {
	case Created:
		return "created"
	case Updated:
		return "updated"
	case UpToDate:
		return "up to date"
	case Stale:
		return "stale"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Result reports where a resource lives and how it got there.
// Err holds the refresh failure for Stale results.
type Result struct {
	Name    string
	Path    string
	Outcome Outcome
	Err     error
}

// Fetcher maps a resource name to <dir>/<name>.json, downloaded from
// <baseURL>/<name>.
type Fetcher struct {
	baseURL string
	dir     string
	client  *resty.Client
	now     func() time.Time
	logger  *log.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithClient replaces the HTTP client.
func WithClient(c *resty.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

// WithTimeout sets the per-request timeout. Zero means none.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) { f.client.SetTimeout(d) }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(f *Fetcher) { f.now = now }
}

// WithLogger enables status messages.
func WithLogger(l *log.Logger) Option {
	return func(f *Fetcher) { f.logger = l }
}

// New creates a fetcher. Redirects are followed.
func New(baseURL, dir string, opts ...Option) *Fetcher {
	f := &Fetcher{
		baseURL: strings.TrimRight(baseURL, "/"),
		dir:     dir,
		client:  resty.New().SetRedirectPolicy(resty.FlexibleRedirectPolicy(10)),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Path returns the local file for a resource name.
func (f *Fetcher) Path(name string) string {
	return filepath.Join(f.dir, name+".json")
}

// URL returns the remote address of a resource name.
func (f *Fetcher) URL(name string) string {
	return f.baseURL + "/" + name
}

// Update makes sure the local copy of name reflects today's remote content.
//
// Without a local copy a failed download returns an error wrapping
// internalerr.ErrNoCache. With an outdated copy a failed download is not an
// error: the copy is kept and the result is Stale.
func (f *Fetcher) Update(ctx context.Context, name string) (Result, error) {
	if err := validateName(name); err != nil {
		return Result{Name: name}, err
	}
	res := Result{Name: name, Path: f.Path(name)}

	info, err := os.Stat(res.Path)
	if errors.Is(err, fs.ErrNotExist) {
		body, err := f.download(ctx, name)
		if err != nil {
			f.logf("File doesn't exist and is not downloadable")
			return res, fmt.Errorf("%w: %w", internalerr.ErrNoCache, err)
		}
		if err := f.store(res.Path, body); err != nil {
			return res, err
		}
		f.logf("File created %s", res.Path)
		res.Outcome = Created
		return res, nil
	}
	if err != nil {
		return res, fmt.Errorf("stat %s: %w", res.Path, err)
	}

	if sameDay(info.ModTime(), f.now()) {
		f.logf("Up To Date")
		res.Outcome = UpToDate
		return res, nil
	}

	body, err := f.download(ctx, name)
	if err != nil {
		f.logf("Using stored file because website doesn't exist anymore.")
		res.Outcome = Stale
		res.Err = err
		return res, nil
	}
	if err := f.store(res.Path, body); err != nil {
		return res, err
	}
	f.logf("File Updated %s", res.Path)
	res.Outcome = Updated
	return res, nil
}

// UpdateAll updates names one after another and stops at the first error.
func (f *Fetcher) UpdateAll(ctx context.Context, names []string) ([]Result, error) {
	results := make([]Result, 0, len(names))
	for _, name := range names {
		res, err := f.Update(ctx, name)
		if err != nil {
			return results, fmt.Errorf("update %s: %w", name, err)
		}
		results = append(results, res)
	}
	return results, nil
}

func (f *Fetcher) download(ctx context.Context, name string) ([]byte, error) {
	url := f.URL(name)
	resp, err := f.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, &FetchError{Name: name, URL: url, Err: err}
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, &FetchError{
			Name:       name,
			URL:        url,
			StatusCode: resp.StatusCode(),
			Title:      pageTitle(resp.Body()),
		}
	}
	f.logf("Web site exists")
	return resp.Body(), nil
}

// store replaces path with body through a temp file in the same directory
// and stamps it with the fetcher's clock.
func (f *Fetcher) store(path string, body []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	now := f.now()
	if err := os.Chtimes(tmp.Name(), now, now); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

func (f *Fetcher) logf(format string, args ...any) {
	if f.logger != nil {
		f.logger.Printf(format, args...)
	}
}

func sameDay(modified, now time.Time) bool {
	const day = "2006-01-02"
	return modified.In(now.Location()).Format(day) == now.Format(day)
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: empty resource name", internalerr.ErrInvalidInput)
	}
	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return fmt.Errorf("%w: resource name %q must not contain path elements", internalerr.ErrInvalidInput, name)
	}
	return nil
}
