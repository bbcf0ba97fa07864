package batch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/citesync/internal/citation"
	"github.com/JakeFAU/citesync/internal/clock/system"
	"github.com/JakeFAU/citesync/internal/metrics"
	"github.com/JakeFAU/citesync/internal/progress"
	"github.com/JakeFAU/citesync/internal/selector"
	"github.com/JakeFAU/citesync/internal/sheets"
)

// Config controls Runner behavior.
type Config struct {
	Layout sheets.Layout
	// RunID tags every progress event of this invocation.
	RunID string
}

// Deps are the collaborators a Runner drives. Hasher, Clock, and Emitter are optional.
type Deps struct {
	Store     citation.SheetStore
	Fetcher   citation.Fetcher
	Extractor citation.MetadataExtractor
	Counter   citation.PageCounter
	Hasher    citation.Hasher
	Clock     citation.Clock
	Emitter   progress.Emitter
}

// Runner executes the per-page sync loop.
type Runner struct {
	store     citation.SheetStore
	fetcher   citation.Fetcher
	extractor citation.MetadataExtractor
	counter   citation.PageCounter
	hasher    citation.Hasher
	clock     citation.Clock
	emitter   progress.Emitter
	cfg       Config
	logger    *zap.Logger
}

// New constructs a Runner.
func New(deps Deps, cfg Config, logger *zap.Logger) (*Runner, error) {
	switch {
	case deps.Store == nil:
		return nil, errors.New("batch: sheet store is required")
	case deps.Fetcher == nil:
		return nil, errors.New("batch: fetcher is required")
	case deps.Extractor == nil:
		return nil, errors.New("batch: metadata extractor is required")
	case deps.Counter == nil:
		return nil, errors.New("batch: page counter is required")
	}
	if err := cfg.Layout.Validate(); err != nil {
		return nil, fmt.Errorf("batch: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Clock == nil {
		deps.Clock = system.New()
	}
	if deps.Emitter == nil {
		deps.Emitter = progress.Discard{}
	}
	metrics.Init()
	return &Runner{
		store:     deps.Store,
		fetcher:   deps.Fetcher,
		extractor: deps.Extractor,
		counter:   deps.Counter,
		hasher:    deps.Hasher,
		clock:     deps.Clock,
		emitter:   deps.Emitter,
		cfg:       cfg,
		logger:    logger.Named("batch"),
	}, nil
}

// Run processes pages in order. A page whose columns cannot be read is logged
// and the next page runs. Run stops early only when ctx is done.
func (r *Runner) Run(ctx context.Context, pages []string) Summary {
	r.emit(ctx, progress.Event{Stage: progress.StageRunStart})
	start := r.clock.Now()

	var total Summary
	for _, page := range pages {
		if ctx.Err() != nil {
			r.logger.Warn("run canceled", zap.String("page", page), zap.Error(ctx.Err()))
			break
		}
		sum, err := r.RunPage(ctx, page)
		total.Add(sum)
		if err != nil {
			total.PagesFailed++
			r.logger.Error("sheet page failed", zap.String("page", page), zap.Error(err))
		}
	}

	finished := r.clock.Now()
	metrics.MarkRunFinished(finished)
	r.emit(ctx, progress.Event{Stage: progress.StageRunDone, Dur: nonNegative(finished.Sub(start)), Note: total.String()})
	r.logger.Info("run finished", total.Fields()...)
	return total
}

// RunPage syncs one sheet page. The returned error reports only that the page's
// source columns could not be read; row-level failures are reflected in Summary.
func (r *Runner) RunPage(ctx context.Context, page string) (Summary, error) {
	sum := Summary{Pages: 1}
	logger := r.logger.With(zap.String("page", page))
	r.emit(ctx, progress.Event{Stage: progress.StagePageStart, Page: page})

	urls, statuses, err := r.readColumns(ctx, page)
	if err != nil {
		metrics.ObserveSheetPage(metrics.OutcomeFailed)
		r.emit(ctx, progress.Event{Stage: progress.StagePageError, Page: page, Note: err.Error()})
		return sum, err
	}
	metrics.ObserveSheetPage(metrics.OutcomeOK)

	rows := selector.Select(statuses)
	sum.Selected = len(rows)
	logger.Info("processing sheet page", zap.Int("selected_rows", len(rows)), zap.Int("data_rows", len(statuses)))

	for _, row := range rows {
		if ctx.Err() != nil {
			logger.Warn("page canceled", zap.Int("row", row), zap.Error(ctx.Err()))
			break
		}
		if row < r.cfg.Layout.FirstOutputRow {
			logger.Debug("row above first output row", zap.Int("row", row))
			r.skip(ctx, &sum, page, row, "row above first output row")
			continue
		}
		url, err := lookupURL(urls, row)
		if err != nil {
			logger.Warn("row skipped", zap.Int("row", row), zap.Error(err))
			r.skip(ctx, &sum, page, row, err.Error())
			continue
		}
		r.handleRow(ctx, &sum, citation.SourceItem{Row: row, URL: url, Status: statuses[row-citation.FirstDataRow]}, page)
	}

	logger.Info("sheet page finished", sum.Fields()...)
	r.emit(ctx, progress.Event{Stage: progress.StagePageDone, Page: page, Note: sum.String()})
	return sum, nil
}

func (r *Runner) readColumns(ctx context.Context, page string) (urls, statuses []string, err error) {
	layout := r.cfg.Layout
	urls, err = r.store.ReadColumn(ctx, page, layout.URLColumn, citation.FirstDataRow)
	if err != nil {
		return nil, nil, fmt.Errorf("read url column: %w", err)
	}
	statuses, err = r.store.ReadColumn(ctx, page, layout.StatusColumn, citation.FirstDataRow)
	if err != nil {
		return nil, nil, fmt.Errorf("read status column: %w", err)
	}
	return urls, statuses, nil
}

// lookupURL resolves the URL for a selected row. A row past the end of the URL
// column or with a blank URL is an alignment error.
func lookupURL(urls []string, row int) (string, error) {
	idx := row - citation.FirstDataRow
	if idx < 0 || idx >= len(urls) {
		return "", fmt.Errorf("%w: row %d has a status but the url column ends at row %d",
			citation.ErrAlignment, row, len(urls)+citation.HeaderRows)
	}
	url := strings.TrimSpace(urls[idx])
	if url == "" {
		return "", fmt.Errorf("%w: row %d has a blank url", citation.ErrAlignment, row)
	}
	return url, nil
}

func (r *Runner) handleRow(ctx context.Context, sum *Summary, item citation.SourceItem, page string) {
	start := r.clock.Now()
	logger := r.logger.With(zap.String("page", page), zap.Int("row", item.Row), zap.String("url", item.URL))

	metadata, digest := r.extractMetadata(ctx, sum, item.URL, logger)
	pageCount := r.countPages(ctx, sum, item.URL, logger)
	record := citation.Record{Metadata: metadata, PageCount: pageCount}

	target := r.cfg.Layout.TargetFor(page, item.Row)
	evt := progress.Event{
		Page:         page,
		Row:          item.Row,
		URL:          item.URL,
		Record:       &record,
		DocumentHash: digest,
	}
	if err := r.store.WriteRow(ctx, target, record.Values()); err != nil {
		sum.WriteFailed++
		metrics.ObserveSheetWrite(metrics.OutcomeFailed)
		metrics.ObserveRow(page, metrics.OutcomeWriteFailed)
		logger.Error("sheet write failed; record lost", zap.String("range", target.A1()), zap.Error(err))
		evt.Stage = progress.StageWriteFailed
		evt.Note = err.Error()
		evt.Dur = nonNegative(r.clock.Now().Sub(start))
		r.emit(ctx, evt)
		return
	}

	sum.Written++
	metrics.ObserveSheetWrite(metrics.OutcomeOK)
	metrics.ObserveRow(page, metrics.OutcomeWritten)
	evt.Stage = progress.StageRowWritten
	evt.Dur = nonNegative(r.clock.Now().Sub(start))
	r.emit(ctx, evt)
}

// extractMetadata downloads the document and derives its metadata. Any failure
// yields all-"N/A" metadata.
func (r *Runner) extractMetadata(ctx context.Context, sum *Summary, url string, logger *zap.Logger) (citation.Metadata, string) {
	body, err := r.fetcher.Fetch(ctx, url)
	if err != nil {
		sum.FetchFailed++
		logger.Warn("download for metadata failed", zap.Error(err))
		return citation.UnknownMetadata(), ""
	}
	digest := r.fingerprint(body, logger)

	metadata, err := r.extractor.Extract(ctx, body)
	if err != nil {
		sum.ExtractFailed++
		logger.Warn("metadata extraction failed", zap.Error(err))
		return citation.UnknownMetadata(), digest
	}
	return metadata.Normalize(), digest
}

// countPages downloads the document a second time and counts its pages.
func (r *Runner) countPages(ctx context.Context, sum *Summary, url string, logger *zap.Logger) citation.PageCount {
	body, err := r.fetcher.Fetch(ctx, url)
	if err != nil {
		sum.FetchFailed++
		logger.Warn("download for page count failed", zap.Error(err))
		return citation.UnknownPageCount
	}
	count, err := r.counter.Count(ctx, body)
	if err != nil {
		sum.PageCountFailed++
		logger.Warn("page count failed", zap.Error(err))
		return citation.UnknownPageCount
	}
	return count
}

func (r *Runner) fingerprint(body []byte, logger *zap.Logger) string {
	if r.hasher == nil {
		return ""
	}
	digest, err := r.hasher.Hash(body)
	if err != nil {
		logger.Debug("hash document failed", zap.Error(err))
		return ""
	}
	return digest
}

func (r *Runner) skip(ctx context.Context, sum *Summary, page string, row int, reason string) {
	sum.Skipped++
	metrics.ObserveRow(page, metrics.OutcomeSkipped)
	r.emit(ctx, progress.Event{Stage: progress.StageRowSkipped, Page: page, Row: row, Note: reason})
}

func (r *Runner) emit(ctx context.Context, evt progress.Event) {
	evt.RunID = r.cfg.RunID
	evt.TS = r.clock.Now()
	r.emitter.Emit(ctx, evt)
}

func nonNegative(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}
