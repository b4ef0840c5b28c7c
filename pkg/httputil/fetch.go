package httputil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/jsonviz/jsonviz/pkg/document"
	"github.com/jsonviz/jsonviz/pkg/errors"
)

const (
	// DefaultTimeout bounds a single request.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxBytes caps the size of a downloaded document.
	DefaultMaxBytes = 64 << 20

	userAgent = "jsonviz"
)

// Document is a downloaded document.
type Document struct {
	Data   []byte
	Format document.Format
	// Name is the last path segment of the URL, used to name outputs.
	Name string
}

// Fetcher downloads documents over HTTP.
type Fetcher struct {
	client   *http.Client
	maxBytes int64
	attempts int
	delay    time.Duration
}

// Option configures a [Fetcher].
type Option func(*Fetcher)

// WithMaxBytes caps the response body size.
func WithMaxBytes(n int64) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxBytes = n
		}
	}
}

// WithRetry sets the number of attempts and the initial backoff delay.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(f *Fetcher) {
		f.attempts = attempts
		f.delay = delay
	}
}

// NewFetcher creates a Fetcher. A nil client uses one with [DefaultTimeout].
func NewFetcher(client *http.Client, opts ...Option) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	f := &Fetcher{
		client:   client,
		maxBytes: DefaultMaxBytes,
		attempts: 3,
		delay:    time.Second,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// IsURL reports whether s is an http or https URL.
func IsURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// Fetch downloads the document at rawURL.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Document, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "invalid document URL %q", rawURL)
	}

	var doc *Document
	err = Retry(ctx, f.attempts, f.delay, func() error {
		d, err := f.get(ctx, u)
		if err != nil {
			return err
		}
		doc = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (f *Fetcher) get(ctx context.Context, u *url.URL) (*Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json, application/yaml, application/toml, text/plain;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &RetryableError{Err: fmt.Errorf("fetch %s: %w", u.Redacted(), err)}
	}
	defer resp.Body.Close()

	if err := checkStatus(u, resp.StatusCode); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, &RetryableError{Err: fmt.Errorf("read %s: %w", u.Redacted(), err)}
	}
	if int64(len(data)) > f.maxBytes {
		return nil, errors.New(errors.ErrCodeInvalidInput, "document at %s exceeds %d bytes", u.Redacted(), f.maxBytes)
	}

	name := path.Base(u.Path)
	if name == "." || name == "/" {
		name = u.Hostname()
	}
	format := document.FormatFromContentType(resp.Header.Get("Content-Type"))
	if format == "" {
		format = document.DetectFormat(name)
	}
	return &Document{Data: data, Format: format, Name: name}, nil
}

func checkStatus(u *url.URL, code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound:
		return errors.New(errors.ErrCodeFileNotFound, "no document at %s", u.Redacted())
	case code == http.StatusTooManyRequests || code >= 500:
		return &RetryableError{Err: errors.New(errors.ErrCodeInternal, "fetch %s: status %d", u.Redacted(), code)}
	default:
		return errors.New(errors.ErrCodeInvalidInput, "fetch %s: status %d", u.Redacted(), code)
	}
}
