package request

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"poppybuddy/pkg/logging"
	"poppybuddy/pkg/version"
)

// ErrNotFound is returned when the server answers 404 or 410.
var ErrNotFound = errors.New("resource not found")

var defaultUserAgent = fmt.Sprintf("PoppyBuddy/%s", version.Version)

// Cacher is the subset of the store used to cache GET bodies.
type Cacher interface {
	GetCache(ctx context.Context, key string) ([]byte, bool)
	SetCache(ctx context.Context, key string, val []byte) error
}

// StatusError is returned for non-retryable HTTP status codes.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http error: status %d for %s", e.Code, e.URL)
}

// Is lets errors.Is match ErrNotFound for 404 and 410.
func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && (e.Code == http.StatusNotFound || e.Code == http.StatusGone)
}

// Options tunes the client. Zero values fall back to defaults.
type Options struct {
	Timeout    time.Duration
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	UserAgent  string

	// WorkersPerHost bounds the requests in flight to one host. Default 1.
	WorkersPerHost int
}

// Meta is what a HEAD request reports about a remote file.
type Meta struct {
	Status        int
	ContentLength int64
	ContentType   string
	LastModified  string
}

// Client handles HTTP requests with per-host queuing, retries and optional caching.
// Requests to one host run on a fixed pool of workers.
type Client struct {
	httpClient *http.Client
	cache      Cacher
	backoff    *ProviderBackoff
	opts       Options

	queues map[string]chan job
	mu     sync.Mutex
}

type job struct {
	req     *http.Request
	consume func(*http.Response) error
	done    chan error
}

// New creates a new Client. c may be nil to disable caching.
func New(c Cacher, opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Minute
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = 500 * time.Millisecond
	}
	if opts.MaxDelay <= 0 {
		opts.MaxDelay = 30 * time.Second
	}
	if opts.WorkersPerHost <= 0 {
		opts.WorkersPerHost = 1
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	return &Client{
		httpClient: &http.Client{Timeout: opts.Timeout},
		cache:      c,
		backoff:    NewProviderBackoff(opts.BaseDelay, opts.MaxDelay),
		opts:       opts,
		queues:     make(map[string]chan job),
	}
}

// Get fetches u and returns the body. A non-empty cacheKey enables the cache.
func (c *Client) Get(ctx context.Context, u, cacheKey string) ([]byte, error) {
	if cacheKey != "" && c.cache != nil {
		if val, hit := c.cache.GetCache(ctx, cacheKey); hit {
			slog.Debug("Cache Hit", "key", cacheKey)
			return val, nil
		}
	}

	var body []byte
	err := c.do(ctx, http.MethodGet, u, func(resp *http.Response) error {
		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read error: %w", err)
		}
		body = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	if cacheKey != "" && c.cache != nil {
		if err := c.cache.SetCache(ctx, cacheKey, body); err != nil {
			slog.Error("Failed to cache response", "url", u, "error", err)
		}
	}
	return body, nil
}

// Head checks that u exists and reports its metadata.
func (c *Client) Head(ctx context.Context, u string) (*Meta, error) {
	var meta *Meta
	err := c.do(ctx, http.MethodHead, u, func(resp *http.Response) error {
		meta = &Meta{
			Status:        resp.StatusCode,
			ContentLength: resp.ContentLength,
			ContentType:   resp.Header.Get("Content-Type"),
			LastModified:  resp.Header.Get("Last-Modified"),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return meta, nil
}

// Download streams u into dest. The file is written to a temporary name first
// so a partial download never shows up at dest.
func (c *Client) Download(ctx context.Context, u, dest string) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return 0, fmt.Errorf("failed to create download dir: %w", err)
	}

	var written int64
	err := c.do(ctx, http.MethodGet, u, func(resp *http.Response) error {
		tmp, err := os.CreateTemp(filepath.Dir(dest), filepath.Base(dest)+".*.part")
		if err != nil {
			return fmt.Errorf("failed to create temp file: %w", err)
		}
		n, copyErr := io.Copy(tmp, resp.Body)
		closeErr := tmp.Close()
		if copyErr != nil || closeErr != nil {
			os.Remove(tmp.Name())
			return fmt.Errorf("failed to write download: %w", errors.Join(copyErr, closeErr))
		}
		if resp.ContentLength >= 0 && n != resp.ContentLength {
			os.Remove(tmp.Name())
			return fmt.Errorf("short download: got %d of %d bytes", n, resp.ContentLength)
		}
		if err := os.Rename(tmp.Name(), dest); err != nil {
			os.Remove(tmp.Name())
			return fmt.Errorf("failed to move download: %w", err)
		}
		written = n
		return nil
	})
	if err != nil {
		return 0, err
	}
	slog.Debug("Downloaded", "url", u, "dest", dest, "bytes", written)
	return written, nil
}

func (c *Client) do(ctx context.Context, method, u string, consume func(*http.Response) error) error {
	parsedURL, err := url.Parse(u)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)

	j := job{req: req, consume: consume, done: make(chan error, 1)}
	c.dispatch(parsedURL.Host, j)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-j.done:
		return err
	}
}

// dispatch sends the job to the host's queue, creating the queue and workers if needed.
func (c *Client) dispatch(host string, j job) {
	c.mu.Lock()
	q, ok := c.queues[host]
	if !ok {
		q = make(chan job, 100)
		c.queues[host] = q
		for i := 0; i < c.opts.WorkersPerHost; i++ {
			go c.worker(host, q)
		}
	}
	c.mu.Unlock()

	// Blocks while the queue is full, throttling the caller.
	select {
	case q <- j:
	case <-j.req.Context().Done():
		j.done <- j.req.Context().Err()
	}
}

// worker processes requests for one host; each host has opts.WorkersPerHost of them.
func (c *Client) worker(host string, q <-chan job) {
	for j := range q {
		if j.req.Context().Err() != nil {
			slog.Warn("Job dropped from queue (context expired)", "host", host, "error", j.req.Context().Err())
			j.done <- j.req.Context().Err()
			continue
		}

		if err := c.backoff.Wait(j.req.Context(), host); err != nil {
			j.done <- err
			continue
		}
		err := c.executeWithBackoff(j.req, j.consume)
		switch {
		case err == nil, errors.Is(err, ErrNotFound):
			c.backoff.RecordSuccess(host)
		case j.req.Context().Err() == nil:
			c.backoff.RecordFailure(host)
		}
		j.done <- err
	}
}

// executeWithBackoff attempts the request with exponential backoff on retryable errors.
func (c *Client) executeWithBackoff(req *http.Request, consume func(*http.Response) error) error {
	var lastErr error
	for attempt := 0; attempt < c.opts.MaxRetries; attempt++ {
		if req.Context().Err() != nil {
			return req.Context().Err()
		}

		logging.TraceDefault("Network Request", "method", req.Method, "host", req.URL.Host, "path", req.URL.Path, "attempt", attempt+1)
		resp, err := c.httpClient.Do(req)
		if err != nil {
			if req.Context().Err() != nil {
				return req.Context().Err()
			}
			slog.Warn("Request failed, retrying", "url", req.URL, "attempt", attempt+1, "error", err)
			lastErr = err
			if err := c.sleep(req.Context(), attempt); err != nil {
				return err
			}
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || (resp.StatusCode >= 500 && resp.StatusCode < 600) {
			resp.Body.Close()
			slog.Warn("Server Backoff", "status", resp.StatusCode, "url", req.URL, "attempt", attempt+1)
			lastErr = &StatusError{URL: req.URL.String(), Code: resp.StatusCode}
			if err := c.sleep(req.Context(), attempt); err != nil {
				return err
			}
			continue
		}

		if resp.StatusCode >= 400 {
			resp.Body.Close()
			return &StatusError{URL: req.URL.String(), Code: resp.StatusCode}
		}

		err = consume(resp)
		resp.Body.Close()
		return err
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (c *Client) sleep(ctx context.Context, attempt int) error {
	d := time.Duration(math.Pow(2, float64(attempt))) * c.opts.BaseDelay
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
