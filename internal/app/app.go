// Package app builds the long-lived services of a run and exposes each
// pipeline step over them.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/forum-corpus/internal/clock/system"
	"github.com/JakeFAU/forum-corpus/internal/collector"
	"github.com/JakeFAU/forum-corpus/internal/config"
	"github.com/JakeFAU/forum-corpus/internal/corpus"
	"github.com/JakeFAU/forum-corpus/internal/dataset"
	"github.com/JakeFAU/forum-corpus/internal/hash/sha256"
	"github.com/JakeFAU/forum-corpus/internal/id/uuid"
	"github.com/JakeFAU/forum-corpus/internal/ledger"
	"github.com/JakeFAU/forum-corpus/internal/logging"
	"github.com/JakeFAU/forum-corpus/internal/metrics"
	"github.com/JakeFAU/forum-corpus/internal/publisher"
	pubsubpublisher "github.com/JakeFAU/forum-corpus/internal/publisher/pubsub"
	"github.com/JakeFAU/forum-corpus/internal/reddit"
	"github.com/JakeFAU/forum-corpus/internal/storage"
	"github.com/JakeFAU/forum-corpus/internal/storage/gcs"
	"github.com/JakeFAU/forum-corpus/internal/storage/local"
)

const metricsPushTimeout = 10 * time.Second

// Deps are the services an App runs on. Nil Recorder, Blobs and Publisher
// disable the ledger, archival and notifications.
type Deps struct {
	Logger    *zap.Logger
	Metrics   *metrics.Metrics
	Source    collector.Source
	Recorder  collector.BatchRecorder
	Blobs     storage.BlobStore
	Publisher publisher.Publisher
	Clock     collector.Clock
	RunID     string
}

// App holds the shared services for one run.
type App struct {
	cfg       config.Config
	logger    *zap.Logger
	metrics   *metrics.Metrics
	source    collector.Source
	recorder  collector.BatchRecorder
	blobs     storage.BlobStore
	publisher publisher.Publisher
	clock     collector.Clock
	hasher    *sha256.Hasher
	runID     string
	closers   []func() error
}

// New creates every service the configuration asks for. It fails fast when a
// configured backend cannot be reached.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	logger, err := logging.New(logging.Options{
		Development: cfg.Logging.Development,
		Level:       cfg.Logging.Level,
		File:        cfg.Logging.File,
	})
	if err != nil {
		return nil, err
	}
	runID, err := uuid.NewGenerator().NewRunID()
	if err != nil {
		return nil, err
	}
	logger = logger.With(zap.String("run_id", runID))
	logger.Info("initializing services")

	deps := Deps{
		Logger:  logger,
		Metrics: metrics.New(),
		Clock:   system.New(),
		RunID:   runID,
	}
	var closers []func() error
	fail := func(err error) (*App, error) {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i]()
		}
		return nil, err
	}

	client, err := reddit.New(ctx, reddit.Config{
		ClientID:     cfg.Reddit.ClientID,
		ClientSecret: cfg.Reddit.ClientSecret,
		UserAgent:    cfg.Reddit.UserAgent,
		BaseURL:      cfg.Reddit.BaseURL,
		TokenURL:     cfg.Reddit.TokenURL,
		Timeout:      cfg.RequestTimeout(),
		PageSize:     cfg.Reddit.PageSize,
		OnPage: func(_ string, sort reddit.Sort) {
			deps.Metrics.ObservePage(string(sort))
		},
	}, logger.Named("reddit"))
	if err != nil {
		return fail(fmt.Errorf("init reddit client: %w", err))
	}
	deps.Source = client

	if cfg.Ledger.DSN != "" {
		store, err := ledger.New(ctx, ledger.Config{DSN: cfg.Ledger.DSN})
		if err != nil {
			return fail(fmt.Errorf("init ledger: %w", err))
		}
		logger.Info("recording batches in postgres ledger")
		deps.Recorder = store
		closers = append(closers, func() error { store.Close(); return nil })
	}

	switch cfg.Storage.Provider {
	case config.StorageLocal:
		store, err := local.New(local.Config{BaseDir: cfg.Storage.BaseDir})
		if err != nil {
			return fail(fmt.Errorf("init local storage: %w", err))
		}
		logger.Info("archiving corpus locally", zap.String("base_dir", cfg.Storage.BaseDir))
		deps.Blobs = store
	case config.StorageGCS:
		store, err := gcs.Open(ctx, gcs.Config{
			Bucket:   cfg.Storage.GCSBucket,
			Metadata: map[string]string{"run_id": runID},
		})
		if err != nil {
			return fail(fmt.Errorf("init gcs storage: %w", err))
		}
		logger.Info("archiving corpus in gcs", zap.String("bucket", cfg.Storage.GCSBucket))
		deps.Blobs = store
		closers = append(closers, store.Close)
	}

	if cfg.PubSub.TopicName != "" {
		pub, err := pubsubpublisher.Open(ctx, cfg.PubSub.ProjectID, cfg.PubSub.TopicName)
		if err != nil {
			return fail(fmt.Errorf("init pubsub: %w", err))
		}
		logger.Info("announcing corpora on pubsub", zap.String("topic", cfg.PubSub.TopicName))
		deps.Publisher = pub
		closers = append(closers, pub.Close)
	}

	a, err := NewWithDeps(cfg, deps)
	if err != nil {
		return fail(err)
	}
	a.closers = closers
	return a, nil
}

// NewWithDeps assembles an App from prebuilt services.
func NewWithDeps(cfg config.Config, deps Deps) (*App, error) {
	if deps.Source == nil {
		return nil, fmt.Errorf("source is required")
	}
	if deps.Clock == nil {
		deps.Clock = system.New()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.RunID == "" {
		id, err := uuid.NewGenerator().NewRunID()
		if err != nil {
			return nil, err
		}
		deps.RunID = id
	}
	return &App{
		cfg:       cfg,
		logger:    deps.Logger,
		metrics:   deps.Metrics,
		source:    deps.Source,
		recorder:  deps.Recorder,
		blobs:     deps.Blobs,
		publisher: deps.Publisher,
		clock:     deps.Clock,
		hasher:    sha256.New(),
		runID:     deps.RunID,
	}, nil
}

// Logger returns the shared logger.
func (a *App) Logger() *zap.Logger { return a.logger }

// RunID identifies this run in metrics, the ledger and archive paths.
func (a *App) RunID() string { return a.runID }

// Collect appends every not yet collected subreddit to the raw dataset.
func (a *App) Collect(ctx context.Context) (collector.Summary, error) {
	data, err := dataset.New(a.cfg.Paths.RawData, a.cfg.ColumnNames)
	if err != nil {
		return collector.Summary{}, err
	}
	c, err := collector.New(a.source, data, a.recorder, a.metrics, a.clock, collector.Config{
		RunID:        a.runID,
		Subreddits:   a.cfg.SubredditNames(),
		MinLength:    a.cfg.MinLength,
		ListingLimit: a.cfg.ListingLimit,
	}, a.logger.Named("collector"))
	if err != nil {
		return collector.Summary{}, err
	}

	a.logger.Info("Starting collecting data")
	sum, err := c.Run(ctx)
	if err != nil {
		return sum, fmt.Errorf("collect: %w", err)
	}
	a.logger.Info(fmt.Sprintf("Data were successfully collected and stored in %s file", a.cfg.Paths.RawData),
		zap.Int("collected", sum.Collected),
		zap.Int("total", sum.Total),
	)
	return sum, nil
}

// Preprocess rebuilds the corpus from the raw dataset.
func (a *App) Preprocess(ctx context.Context) (corpus.Result, error) {
	if err := ctx.Err(); err != nil {
		return corpus.Result{}, err
	}
	a.logger.Info("Starting preprocessing collected data")
	res, err := corpus.Build(corpus.Options{
		RawPath:   a.cfg.Paths.RawData,
		OutPath:   a.cfg.Paths.PreprocessedData,
		MinLength: a.cfg.MinLength,
		Topics:    a.cfg.Topics(),
	}, a.logger.Named("corpus"))
	if err != nil {
		return res, fmt.Errorf("preprocess: %w", err)
	}
	a.metrics.SetCorpusDocuments(res.After)
	return res, nil
}

// Publish archives the corpus and announces it. ok is false when neither
// archival nor notifications are configured.
func (a *App) Publish(ctx context.Context) (ready publisher.CorpusReady, ok bool, err error) {
	if a.blobs == nil && a.publisher == nil {
		a.logger.Debug("corpus publishing is not configured")
		return publisher.CorpusReady{}, false, nil
	}
	path := a.cfg.Paths.PreprocessedData
	digest, _, err := a.hasher.HashFile(path)
	if err != nil {
		return ready, false, fmt.Errorf("digest corpus: %w", err)
	}
	table, err := dataset.ReadTable(path)
	if err != nil {
		return ready, false, fmt.Errorf("count corpus: %w", err)
	}

	uri, err := fileURI(path)
	if err != nil {
		return ready, false, err
	}
	if a.blobs != nil {
		if uri, err = a.archive(ctx, path); err != nil {
			return ready, false, err
		}
		a.logger.Info("corpus archived", zap.String("uri", uri))
	}

	ready = publisher.CorpusReady{
		RunID:     a.runID,
		URI:       uri,
		SHA256:    digest,
		Documents: len(table.Rows),
		CreatedAt: a.clock.Now(),
	}
	if a.publisher != nil {
		id, err := a.publisher.Publish(ctx, a.cfg.PubSub.TopicName, ready)
		if err != nil {
			return ready, false, fmt.Errorf("announce corpus: %w", err)
		}
		a.logger.Info("corpus announced", zap.String("message_id", id), zap.String("topic", a.cfg.PubSub.TopicName))
	}
	return ready, true, nil
}

func (a *App) archive(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open corpus: %w", err)
	}
	defer f.Close()
	key := storage.ObjectPath(a.cfg.Storage.Prefix, a.runID, path)
	uri, err := a.blobs.PutObject(ctx, key, storage.ContentTypeCSV, f)
	if err != nil {
		return "", fmt.Errorf("archive corpus: %w", err)
	}
	return uri, nil
}

func fileURI(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve corpus path: %w", err)
	}
	return "file://" + filepath.ToSlash(abs), nil
}

// Close pushes metrics and shuts down every service the App opened.
func (a *App) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), metricsPushTimeout)
	defer cancel()
	if err := a.metrics.Push(ctx, a.cfg.Metrics.PushgatewayURL, a.runID); err != nil {
		a.logger.Warn("failed to push metrics", zap.Error(err))
	}

	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	if err := errors.Join(errs...); err != nil {
		a.logger.Warn("error closing services", zap.Error(err))
	}
	_ = a.logger.Sync()
}
