// Package app builds the long-lived collaborators of a sync run from configuration,
// acting as a dependency injection container.
package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/JakeFAU/citesync/internal/batch"
	"github.com/JakeFAU/citesync/internal/citation"
	"github.com/JakeFAU/citesync/internal/clock/system"
	"github.com/JakeFAU/citesync/internal/config"
	collyfetcher "github.com/JakeFAU/citesync/internal/fetcher/colly"
	"github.com/JakeFAU/citesync/internal/grobid"
	"github.com/JakeFAU/citesync/internal/hash/sha256"
	"github.com/JakeFAU/citesync/internal/id/uuid"
	"github.com/JakeFAU/citesync/internal/logging"
	"github.com/JakeFAU/citesync/internal/metrics"
	"github.com/JakeFAU/citesync/internal/pagecount"
	"github.com/JakeFAU/citesync/internal/progress"
	"github.com/JakeFAU/citesync/internal/progress/sinks"
	"github.com/JakeFAU/citesync/internal/publisher/pubsub"
	googlesheets "github.com/JakeFAU/citesync/internal/sheets/google"
	"github.com/JakeFAU/citesync/internal/sheets/memory"
	xlsxsheets "github.com/JakeFAU/citesync/internal/sheets/xlsx"
)

// Option customizes how New builds the container.
type Option func(*options)

type options struct {
	store         citation.SheetStore
	publisher     citation.Publisher
	googleOptions []option.ClientOption
	ids           citation.IDGenerator
}

// WithStore replaces the configured sheet backend.
func WithStore(store citation.SheetStore) Option {
	return func(o *options) { o.store = store }
}

// WithPublisher replaces the Pub/Sub publisher used when publishing is enabled.
func WithPublisher(p citation.Publisher) Option {
	return func(o *options) { o.publisher = p }
}

// WithGoogleOptions appends client options to the Sheets and Pub/Sub clients.
func WithGoogleOptions(opts ...option.ClientOption) Option {
	return func(o *options) { o.googleOptions = append(o.googleOptions, opts...) }
}

// WithIDGenerator replaces the run ID generator.
func WithIDGenerator(ids citation.IDGenerator) Option {
	return func(o *options) { o.ids = ids }
}

// App holds the services shared by one process invocation.
type App struct {
	cfg     config.Config
	logger  *zap.Logger
	runID   string
	store   citation.SheetStore
	runner  *batch.Runner
	hub     *progress.Hub
	metrics *metrics.Server
	closers []func() error
}

// New creates every collaborator once. It fails fast when a backend cannot be
// initialized; nothing is started that is not also released by Close.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger, opts ...Option) (_ *App, err error) {
	o := options{ids: uuid.New()}
	for _, opt := range opts {
		opt(&o)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	runID, err := o.ids.NewID()
	if err != nil {
		return nil, fmt.Errorf("run id: %w", err)
	}
	a := &App{cfg: cfg, runID: runID, logger: logging.ForRun(logger, runID)}
	defer func() {
		if err != nil {
			_ = a.Close(context.Background())
		}
	}()

	a.store = o.store
	if a.store == nil {
		if a.store, err = a.openStore(ctx, o.googleOptions); err != nil {
			return nil, err
		}
	}

	extractor, err := grobid.New(grobid.Config{
		Endpoint: grobid.EndpointFor(cfg.Grobid.Scheme, cfg.Grobid.Host, cfg.Grobid.Port),
		Timeout:  cfg.GrobidTimeout(),
	}, nil, a.logger.Named("grobid"))
	if err != nil {
		return nil, fmt.Errorf("grobid client: %w", err)
	}
	fetcher := collyfetcher.New(collyfetcher.Config{
		UserAgent:    cfg.HTTP.UserAgent,
		Timeout:      cfg.DownloadTimeout(),
		MaxBodyBytes: cfg.HTTP.MaxBodyBytes,
	}, a.logger.Named("fetcher"))
	counter := pagecount.New(pagecount.Config{StagingDir: cfg.PageCount.StagingDir}, a.logger.Named("pagecount"))

	progressSinks, err := a.buildSinks(ctx, o)
	if err != nil {
		return nil, err
	}
	a.hub = progress.NewHub(progress.Config{Logger: a.logger.Named("progress")}, progressSinks...)

	a.runner, err = batch.New(batch.Deps{
		Store:     a.store,
		Fetcher:   fetcher,
		Extractor: extractor,
		Counter:   counter,
		Hasher:    sha256.New(),
		Clock:     system.New(),
		Emitter:   a.hub,
	}, batch.Config{Layout: cfg.Layout(), RunID: runID}, a.logger)
	if err != nil {
		return nil, err
	}

	if cfg.Metrics.ListenAddr != "" {
		a.metrics = metrics.NewServer(cfg.Metrics.ListenAddr, a.logger.Named("metrics"))
		a.metrics.Start()
	}

	a.logger.Info("application services initialized",
		zap.String("backend", cfg.Sheet.Backend),
		zap.Strings("pages", cfg.Sheet.Pages),
		zap.Bool("publish", cfg.PublishEnabled()),
	)
	return a, nil
}

func (a *App) openStore(ctx context.Context, googleOptions []option.ClientOption) (citation.SheetStore, error) {
	switch a.cfg.Sheet.Backend {
	case config.BackendGoogle:
		gcfg := googlesheets.Config{
			SpreadsheetID:   a.cfg.Sheet.SpreadsheetID,
			CredentialsFile: a.cfg.Sheet.CredentialsFile,
		}
		svc, err := googlesheets.NewService(ctx, gcfg, googleOptions...)
		if err != nil {
			return nil, err
		}
		store, err := googlesheets.New(svc, gcfg)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.BackendXLSX:
		store, err := xlsxsheets.Open(a.cfg.Sheet.WorkbookPath)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, store.Close)
		return store, nil
	case config.BackendMemory:
		a.logger.Warn("using in-memory sheet backend; nothing will be persisted")
		return memory.NewStore(), nil
	default:
		return nil, fmt.Errorf("unknown sheet backend %q", a.cfg.Sheet.Backend)
	}
}

func (a *App) buildSinks(ctx context.Context, o options) ([]progress.Sink, error) {
	out := []progress.Sink{sinks.NewLogSink(a.logger.Named("progress"), a.cfg.Progress.DisplayWidth)}
	if !a.cfg.PublishEnabled() {
		return out, nil
	}
	pub := o.publisher
	if pub == nil {
		p, err := pubsub.Dial(ctx, pubsub.Config{
			ProjectID: a.cfg.PubSub.ProjectID,
			TopicID:   a.cfg.PubSub.TopicName,
		}, o.googleOptions...)
		if err != nil {
			return nil, err
		}
		pub = p
	}
	sink, err := sinks.NewPublishSink(pub, a.cfg.PubSub.TopicName)
	if err != nil {
		return nil, err
	}
	return append(out, sink), nil
}

// RunID identifies this invocation in logs and progress events.
func (a *App) RunID() string {
	return a.runID
}

// Store exposes the sheet backend.
func (a *App) Store() citation.SheetStore {
	return a.store
}

// Run syncs every configured page and, when configured, pushes the final
// metrics. Per-row and per-page failures are reflected only in the Summary.
func (a *App) Run(ctx context.Context) batch.Summary {
	sum := a.runner.Run(ctx, a.cfg.Sheet.Pages)
	if url := a.cfg.Metrics.PushgatewayURL; url != "" {
		if err := metrics.Push(ctx, url, a.cfg.Metrics.JobName); err != nil {
			a.logger.Warn("metrics push failed", zap.String("gateway", url), zap.Error(err))
		}
	}
	return sum
}

// Close releases everything New started. It is safe to call more than once.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.hub != nil {
		if err := a.hub.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close progress hub: %w", err))
		}
	}
	if a.metrics != nil {
		if err := a.metrics.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
		a.metrics = nil
	}
	for _, c := range a.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
