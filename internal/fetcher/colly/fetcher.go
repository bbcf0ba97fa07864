// Package collyfetcher implements citation.Fetcher using gocolly.
package collyfetcher

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/JakeFAU/citesync/internal/citation"
	"github.com/JakeFAU/citesync/internal/metrics"
)

// DefaultTimeout caps a single document download.
const DefaultTimeout = 30 * time.Second

// ErrBodyTooLarge reports a response larger than Config.MaxBodyBytes.
var ErrBodyTooLarge = errors.New("body exceeds max_body_bytes")

// Config controls collector behavior.
type Config struct {
	UserAgent string
	Timeout   time.Duration
	// MaxBodyBytes limits the downloaded size; zero means unlimited.
	MaxBodyBytes int
}

// Fetcher downloads documents with a Colly collector. Revisits are allowed because every row
// downloads its document once for metadata and once for page counting.
type Fetcher struct {
	cfg           Config
	baseCollector *colly.Collector
	logger        *zap.Logger
}

type collectorHooks interface {
	OnResponse(colly.ResponseCallback)
	OnError(colly.ErrorCallback)
}

// New builds a Fetcher.
func New(cfg Config, logger *zap.Logger) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	c := colly.NewCollector(
		colly.Async(false),
		colly.AllowURLRevisit(),
		colly.IgnoreRobotsTxt(),
	)
	c.WithTransport(newHTTPTransport())
	metrics.Init()
	return &Fetcher{
		cfg:           cfg,
		baseCollector: c,
		logger:        logger,
	}
}

// Fetch executes a single HTTP GET and returns the body. Failures, timeouts, and non-2xx
// responses wrap citation.ErrFetch.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	var (
		body     []byte
		status   int
		fetchErr error
	)
	start := time.Now()
	collector := f.buildCollector()
	f.configureCollectorHooks(collector, &body, &status, &fetchErr)

	if err := f.runCollector(ctx, collector, url, &fetchErr); err != nil {
		metrics.ObserveStage(metrics.StageDownload, metrics.OutcomeFailed, time.Since(start))
		return nil, fmt.Errorf("%w: %s: %w", citation.ErrFetch, url, err)
	}
	if status < 200 || status > 299 {
		metrics.ObserveStage(metrics.StageDownload, metrics.OutcomeFailed, time.Since(start))
		return nil, fmt.Errorf("%w: %s: unexpected status %d", citation.ErrFetch, url, status)
	}
	metrics.ObserveStage(metrics.StageDownload, metrics.OutcomeOK, time.Since(start))
	metrics.ObserveDownload(url, len(body))
	f.logger.Debug("document fetched", zap.String("url", url), zap.Int("bytes", len(body)))
	return body, nil
}

func (f *Fetcher) buildCollector() *colly.Collector {
	collector := f.baseCollector.Clone()
	if f.cfg.UserAgent != "" {
		collector.UserAgent = f.cfg.UserAgent
	}
	// One byte over the limit lets an oversized body be told apart from one that fits exactly.
	if f.cfg.MaxBodyBytes > 0 {
		collector.MaxBodySize = f.cfg.MaxBodyBytes + 1
	} else {
		collector.MaxBodySize = 0
	}
	collector.SetRequestTimeout(f.cfg.Timeout)
	return collector
}

func (f *Fetcher) configureCollectorHooks(hooks collectorHooks, body *[]byte, status *int, fetchErr *error) {
	hooks.OnResponse(func(r *colly.Response) {
		*status = r.StatusCode
		if f.exceedsLimit(r) {
			*fetchErr = fmt.Errorf("%w (limit %d)", ErrBodyTooLarge, f.cfg.MaxBodyBytes)
			return
		}
		*body = append([]byte(nil), r.Body...)
	})

	hooks.OnError(func(r *colly.Response, err error) {
		if r != nil {
			*status = r.StatusCode
		}
		*fetchErr = err
	})
}

func (f *Fetcher) exceedsLimit(r *colly.Response) bool {
	limit := f.cfg.MaxBodyBytes
	if limit <= 0 {
		return false
	}
	if len(r.Body) > limit {
		return true
	}
	if r.Headers == nil {
		return false
	}
	n, err := strconv.ParseInt(r.Headers.Get("Content-Length"), 10, 64)
	return err == nil && n > int64(limit)
}

func (f *Fetcher) runCollector(ctx context.Context, collector *colly.Collector, url string, fetchErr *error) error {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("colly fetch canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("colly visit failed: %w", err)
		}
		if *fetchErr != nil {
			return fmt.Errorf("colly response failed: %w", *fetchErr)
		}
		return nil
	}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
