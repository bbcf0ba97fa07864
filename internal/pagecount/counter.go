// Package pagecount counts PDF pages, reading from memory with pdfcpu and falling back to
// ledongthuc/pdf over a temporary file.
package pagecount

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"go.uber.org/zap"

	"github.com/JakeFAU/citesync/internal/citation"
	"github.com/JakeFAU/citesync/internal/metrics"
)

// Config controls the counter.
type Config struct {
	// StagingDir holds temporary files for the fallback reader. Empty means os.TempDir.
	StagingDir string
}

// Counter implements citation.PageCounter.
type Counter struct {
	cfg    Config
	logger *zap.Logger
}

// New builds a Counter.
func New(cfg Config, logger *zap.Logger) *Counter {
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics.Init()
	return &Counter{cfg: cfg, logger: logger}
}

// Count returns the number of pages in data. Failures wrap citation.ErrPDFRead and come with
// citation.UnknownPageCount. Any staged file is removed before Count returns.
func (c *Counter) Count(ctx context.Context, data []byte) (citation.PageCount, error) {
	start := time.Now()
	n, err := c.count(ctx, data)
	if err != nil {
		metrics.ObserveStage(metrics.StagePageCount, metrics.OutcomeFailed, time.Since(start))
		return citation.UnknownPageCount, err
	}
	metrics.ObserveStage(metrics.StagePageCount, metrics.OutcomeOK, time.Since(start))
	return citation.Pages(n), nil
}

func (c *Counter) count(ctx context.Context, data []byte) (int, error) {
	if len(data) == 0 {
		return 0, fmt.Errorf("%w: empty document", citation.ErrPDFRead)
	}
	n, primaryErr := countInMemory(data)
	if primaryErr == nil {
		return n, nil
	}
	c.logger.Debug("pdfcpu could not count pages, trying staged fallback", zap.Error(primaryErr))
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("%w: %v", citation.ErrPDFRead, err)
	}
	n, fallbackErr := c.countStaged(data)
	if fallbackErr == nil {
		return n, nil
	}
	return 0, fmt.Errorf("%w: %v", citation.ErrPDFRead, errors.Join(primaryErr, fallbackErr))
}

func countInMemory(data []byte) (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			n, err = 0, fmt.Errorf("pdfcpu panic: %v", r)
		}
	}()
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	pdfCtx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return 0, fmt.Errorf("pdfcpu read context: %w", err)
	}
	if err := pdfCtx.EnsurePageCount(); err != nil {
		return 0, fmt.Errorf("pdfcpu page count: %w", err)
	}
	if pdfCtx.PageCount <= 0 {
		return 0, fmt.Errorf("pdfcpu found no pages")
	}
	return pdfCtx.PageCount, nil
}

// countStaged writes data to a temporary file scoped to this call and reads it with ledongthuc/pdf.
func (c *Counter) countStaged(data []byte) (n int, err error) {
	tmp, err := os.CreateTemp(c.cfg.StagingDir, "citesync-*.pdf")
	if err != nil {
		return 0, fmt.Errorf("create staging file: %w", err)
	}
	path := tmp.Name()
	defer func() {
		if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			c.logger.Warn("remove staging file", zap.String("path", path), zap.Error(rmErr))
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return 0, fmt.Errorf("write staging file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("close staging file: %w", err)
	}
	return countFile(path)
}

func countFile(path string) (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			n, err = 0, fmt.Errorf("ledongthuc panic: %v", r)
		}
	}()
	f, r, err := pdf.Open(path)
	if err != nil {
		return 0, fmt.Errorf("ledongthuc open: %w", err)
	}
	defer f.Close() //nolint:errcheck // read-only file
	n = r.NumPage()
	if n <= 0 {
		return 0, fmt.Errorf("ledongthuc found no pages")
	}
	return n, nil
}
