package extract

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	common "bank_etl/internal/app/common/exception_handler"
	"bank_etl/internal/app/common/logger"
	"bank_etl/internal/app/metrics"

	"github.com/sirupsen/logrus"
)

// PageCache stores fetched documents between runs.
type PageCache interface {
	GetPage(ctx context.Context, ref string) (string, bool, error)
	SetPage(ctx context.Context, ref, page string, ttl time.Duration) error
}

// Fetcher retrieves a document by URL or by local path.
type Fetcher struct {
	client    *http.Client
	userAgent string
	cache     PageCache
	cacheTTL  time.Duration
	logger    *logrus.Logger
}

func NewFetcher(timeout time.Duration, userAgent string) *Fetcher {
	return &Fetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
		logger:    logger.GetLogger(),
	}
}

// WithCache enables the page cache for remote documents.
func (f *Fetcher) WithCache(cache PageCache, ttl time.Duration) *Fetcher {
	f.cache = cache
	f.cacheTTL = ttl
	return f
}

func (f *Fetcher) Fetch(ctx context.Context, ref string) (string, error) {
	if !isRemote(ref) {
		return f.readFile(ref)
	}

	if f.cache != nil {
		page, ok, err := f.cache.GetPage(ctx, ref)
		switch {
		case err != nil:
			f.logger.WithError(err).Warn("Page cache lookup failed")
			metrics.PageCacheLookups.WithLabelValues("error").Inc()
		case ok:
			f.logger.WithField("ref", ref).Debug("Page cache hit")
			metrics.PageCacheLookups.WithLabelValues("hit").Inc()
			return page, nil
		default:
			metrics.PageCacheLookups.WithLabelValues("miss").Inc()
		}
	}

	page, err := f.get(ctx, ref)
	if err != nil {
		return "", err
	}

	if f.cache != nil {
		if err := f.cache.SetPage(ctx, ref, page, f.cacheTTL); err != nil {
			f.logger.WithError(err).Warn("Page cache store failed")
		}
	}
	return page, nil
}

func (f *Fetcher) get(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", common.NewCustomError(common.ErrFetch, "Invalid source URL "+url, err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", common.NewCustomError(common.ErrFetch, "Failed to fetch "+url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", common.NewCustomError(common.ErrFetch, fmt.Sprintf("Unexpected status %d from %s", resp.StatusCode, url), nil)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", common.NewCustomError(common.ErrFetch, "Failed to read body from "+url, err)
	}
	return string(body), nil
}

func (f *Fetcher) readFile(ref string) (string, error) {
	path := strings.TrimPrefix(ref, "file://")
	body, err := os.ReadFile(path)
	if err != nil {
		return "", common.NewCustomError(common.ErrFetch, "Failed to read cached page "+path, err)
	}
	return string(body), nil
}

func isRemote(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}
