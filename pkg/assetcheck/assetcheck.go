// Package assetcheck verifies that every audio file a build links to exists on
// the content host.
package assetcheck

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"poppybuddy/pkg/assets"
	"poppybuddy/pkg/catalog"
	"poppybuddy/pkg/request"
	"poppybuddy/pkg/routes"
	"poppybuddy/pkg/store"
)

// Header is the request client subset used for checks.
type Header interface {
	Head(ctx context.Context, u string) (*request.Meta, error)
}

// Result is the outcome for one distinct audio URL.
type Result struct {
	URL           string   `json:"url"`
	Routes        []string `json:"routes"`
	Status        int      `json:"status,omitempty"`
	ContentLength int64    `json:"content_length,omitempty"`
	Cached        bool     `json:"cached"`
	Error         string   `json:"error,omitempty"`
}

// OK reports a successful check.
func (r Result) OK() bool {
	return r.Error == "" && r.Status >= 200 && r.Status < 300
}

// Missing reports a definitive 404 or 410.
func (r Result) Missing() bool {
	return r.Status == http.StatusNotFound || r.Status == http.StatusGone
}

// Report summarizes a run. Results are sorted by URL.
type Report struct {
	Checked   int      `json:"checked"`
	Missing   int      `json:"missing"`
	Failed    int      `json:"failed"`
	FromCache int      `json:"from_cache"`
	Results   []Result `json:"results"`
}

// Checker runs HEAD requests against the content host, remembering answers for TTL.
type Checker struct {
	client      Header
	store       store.AssetStore
	ttl         time.Duration
	concurrency int
}

// New creates a Checker. st may be nil to disable the result cache.
func New(client Header, st store.AssetStore, ttl time.Duration, concurrency int) *Checker {
	if concurrency <= 0 {
		concurrency = 4
	}
	return &Checker{client: client, store: st, ttl: ttl, concurrency: concurrency}
}

// Run checks the audio of every complete route once per distinct URL.
func (c *Checker) Run(ctx context.Context, cat *catalog.Catalog, linker assets.Linker, params []routes.RouteParam) (*Report, error) {
	byURL := make(map[string][]string)
	for _, r := range params {
		res, _ := routes.Resolve(cat, r.StoryName, r.Primary, r.Secondary)
		if !res.Complete() {
			continue
		}
		u := linker.AudioURL(r.StoryName, res.Primary.ShortName, res.Secondary.ShortName)
		byURL[u] = append(byURL[u], r.Path())
	}

	urls := make([]string, 0, len(byURL))
	for u := range byURL {
		urls = append(urls, u)
	}
	sort.Strings(urls)

	results := make([]Result, len(urls))
	var mu sync.Mutex
	done := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, u := range urls {
		g.Go(func() error {
			res, err := c.check(gctx, u)
			if err != nil {
				return err
			}
			res.Routes = byURL[u]
			results[i] = res

			mu.Lock()
			done++
			if done%50 == 0 {
				slog.Info("Asset check progress", "done", done, "total", len(urls))
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &Report{Checked: len(results), Results: results}
	for _, r := range results {
		switch {
		case r.Missing():
			report.Missing++
			slog.Warn("Audio missing", "url", r.URL, "routes", len(r.Routes))
		case !r.OK():
			report.Failed++
			slog.Warn("Audio check failed", "url", r.URL, "status", r.Status, "error", r.Error)
		}
		if r.Cached {
			report.FromCache++
		}
	}
	return report, nil
}

// check returns an error only when ctx is done; request failures are recorded in the Result.
func (c *Checker) check(ctx context.Context, u string) (Result, error) {
	if c.store != nil && c.ttl > 0 {
		if prev, ok := c.store.GetAssetCheck(ctx, u); ok && time.Since(prev.CheckedAt) < c.ttl {
			return Result{URL: u, Status: prev.Status, ContentLength: prev.ContentLength, Cached: true}, nil
		}
	}

	res := Result{URL: u}
	meta, err := c.client.Head(ctx, u)
	var statusErr *request.StatusError
	switch {
	case err == nil:
		res.Status = meta.Status
		res.ContentLength = meta.ContentLength
	case errors.As(err, &statusErr) && statusErr.Code < 500 && statusErr.Code != http.StatusTooManyRequests:
		res.Status = statusErr.Code
	default:
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		res.Error = err.Error()
		return res, nil
	}

	if c.store != nil {
		rec := &store.AssetCheck{URL: u, Status: res.Status, ContentLength: res.ContentLength, CheckedAt: time.Now()}
		if err := c.store.SaveAssetCheck(ctx, rec); err != nil {
			slog.Warn("Failed to cache asset check", "url", u, "error", err)
		}
	}
	return res, nil
}
