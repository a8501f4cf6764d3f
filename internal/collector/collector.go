// Package collector implements the resumable collection loop that walks every
// listing view of each configured subreddit and appends deduplicated batches to
// the raw dataset.
package collector

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"slices"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/JakeFAU/forum-corpus/internal/dataset"
	"github.com/JakeFAU/forum-corpus/internal/metrics"
	"github.com/JakeFAU/forum-corpus/internal/record"
	"github.com/JakeFAU/forum-corpus/internal/reddit"
)

// ErrUnknownForum is returned when the existing dataset ends with a subreddit
// that is not in the configured list, so the resume point cannot be found.
var ErrUnknownForum = errors.New("collector: last collected subreddit is not configured")

// Source yields the items of one listing view.
type Source interface {
	Items(ctx context.Context, subreddit string, sort reddit.Sort, limit int) iter.Seq2[reddit.Item, error]
}

// Dataset is the append-only destination of collected records.
type Dataset interface {
	Exists() (bool, error)
	Init() error
	Append(records []record.Record) error
	Scan() (dataset.Summary, error)
}

// BatchRecorder stores the outcome of each forum batch.
type BatchRecorder interface {
	RecordBatch(ctx context.Context, batch Batch) error
}

// Clock supplies timestamps for batch records.
type Clock interface {
	Now() time.Time
}

// Batch is the result of collecting one subreddit.
type Batch struct {
	RunID     string
	Subreddit string
	// Collected is the number of records appended to the dataset.
	Collected  int
	Duplicates int
	Short      int
	// Forbidden is set when the subreddit refused access part way through.
	Forbidden  bool
	FinishedAt time.Time
}

// Summary describes a whole run.
type Summary struct {
	RunID string
	// Resumed is set when the run continued an existing dataset.
	Resumed bool
	// Subreddits lists the subreddits processed by this run, in order.
	Subreddits []string
	Batches    []Batch
	// Collected counts the rows appended by this run.
	Collected int
	// Total counts every row in the dataset, including earlier runs.
	Total int
}

// Config controls a run.
type Config struct {
	RunID string
	// Subreddits is the ordered list to collect. Order drives resumption.
	Subreddits []string
	// MinLength drops records whose text has this many runes or fewer.
	MinLength int
	// ListingLimit caps every listing view; it is clamped to
	// reddit.MaxListingLimit.
	ListingLimit int
}

// Collector runs the collection loop.
type Collector struct {
	source   Source
	data     Dataset
	recorder BatchRecorder
	metrics  *metrics.Metrics
	clock    Clock
	cfg      Config
	logger   *zap.Logger
}

// New constructs a Collector. recorder, m and logger may be nil.
func New(
	source Source,
	data Dataset,
	recorder BatchRecorder,
	m *metrics.Metrics,
	clock Clock,
	cfg Config,
	logger *zap.Logger,
) (*Collector, error) {
	if source == nil {
		return nil, fmt.Errorf("source is required")
	}
	if data == nil {
		return nil, fmt.Errorf("dataset is required")
	}
	if clock == nil {
		return nil, fmt.Errorf("clock is required")
	}
	if cfg.ListingLimit <= 0 || cfg.ListingLimit > reddit.MaxListingLimit {
		cfg.ListingLimit = reddit.MaxListingLimit
	}
	if cfg.MinLength < 0 {
		cfg.MinLength = 0
	}
	if recorder == nil {
		recorder = NopRecorder{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.Subreddits = slices.Clone(cfg.Subreddits)
	return &Collector{
		source:   source,
		data:     data,
		recorder: recorder,
		metrics:  m,
		clock:    clock,
		cfg:      cfg,
		logger:   logger,
	}, nil
}

// Run collects every subreddit that the dataset does not already contain.
// Subreddits are processed in configured order after the last one found in an
// existing dataset; a fresh dataset starts with a header row.
func (c *Collector) Run(ctx context.Context) (Summary, error) {
	sum := Summary{RunID: c.cfg.RunID}
	pending, total, err := c.resume()
	if err != nil {
		return sum, err
	}
	sum.Total = total
	sum.Resumed = len(pending) < len(c.cfg.Subreddits)

	if len(pending) == 0 {
		c.logger.Info("every configured subreddit is already collected", zap.Int("total", total))
		return sum, nil
	}
	if sum.Resumed {
		c.logger.Info("dataset exists, continuing collection",
			zap.String("subreddit", pending[0]),
			zap.Int("existing_rows", total),
		)
	}

	for _, name := range pending {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		batch, err := c.CollectForum(ctx, name)
		sum.Subreddits = append(sum.Subreddits, name)
		sum.Batches = append(sum.Batches, batch)
		sum.Collected += batch.Collected
		sum.Total += batch.Collected
		c.logger.Info(fmt.Sprintf("Total number of collected submissions: %d", sum.Total))
		if err != nil {
			return sum, err
		}
	}
	return sum, nil
}

// resume returns the subreddits still to collect and the rows already present.
func (c *Collector) resume() ([]string, int, error) {
	exists, err := c.data.Exists()
	if err != nil {
		return nil, 0, err
	}
	if !exists {
		if err := c.data.Init(); err != nil {
			return nil, 0, fmt.Errorf("initialize dataset: %w", err)
		}
		return c.cfg.Subreddits, 0, nil
	}

	scan, err := c.data.Scan()
	if err != nil {
		return nil, 0, fmt.Errorf("scan dataset: %w", err)
	}
	if scan.LastForum == "" {
		return c.cfg.Subreddits, scan.Rows, nil
	}
	idx := slices.Index(c.cfg.Subreddits, scan.LastForum)
	if idx < 0 {
		return nil, 0, fmt.Errorf("%w: %q", ErrUnknownForum, scan.LastForum)
	}
	return c.cfg.Subreddits[idx+1:], scan.Rows, nil
}

// CollectForum walks every listing view of subreddit and appends the batch of
// new records. A forbidden subreddit ends its batch early without error. Records
// gathered before any failure are appended before the error is returned.
func (c *Collector) CollectForum(ctx context.Context, subreddit string) (Batch, error) {
	batch := Batch{RunID: c.cfg.RunID, Subreddit: subreddit}
	logger := c.logger.With(zap.String("subreddit", subreddit))

	var records []record.Record
	seen := make(map[string]struct{})
	fetchErr := c.walk(ctx, subreddit, func(rec record.Record) {
		if utf8.RuneCountInString(rec.Text) <= c.cfg.MinLength {
			batch.Short++
			return
		}
		if _, dup := seen[rec.Text]; dup {
			batch.Duplicates++
			return
		}
		seen[rec.Text] = struct{}{}
		records = append(records, rec)
	})

	if fetchErr != nil && errors.Is(fetchErr, reddit.ErrForbidden) {
		logger.Warn("subreddit refused access, keeping records gathered so far", zap.Error(fetchErr))
		batch.Forbidden = true
		c.metrics.ObserveForbidden(subreddit)
		fetchErr = nil
	}

	var appendErr error
	if len(records) > 0 {
		if appendErr = c.data.Append(records); appendErr == nil {
			batch.Collected = len(records)
		} else {
			appendErr = fmt.Errorf("append %s batch: %w", subreddit, appendErr)
		}
	}
	batch.FinishedAt = c.clock.Now()
	c.metrics.ObserveBatch(subreddit, batch.Collected, batch.Duplicates, batch.Short)
	logger.Info(fmt.Sprintf("From %s collected %d new submissions", subreddit, batch.Collected),
		zap.Int("duplicates", batch.Duplicates),
		zap.Int("short", batch.Short),
		zap.Bool("forbidden", batch.Forbidden),
	)

	if err := errors.Join(fetchErr, appendErr); err != nil {
		return batch, err
	}
	if err := c.recorder.RecordBatch(ctx, batch); err != nil {
		return batch, fmt.Errorf("record %s batch: %w", subreddit, err)
	}
	return batch, nil
}

// walk feeds every extracted record of every view to fn and returns the first
// fetch error.
func (c *Collector) walk(ctx context.Context, subreddit string, fn func(record.Record)) error {
	for _, sort := range reddit.Sorts {
		for item, err := range c.source.Items(ctx, subreddit, sort, c.cfg.ListingLimit) {
			if err != nil {
				return err
			}
			rec, ok := record.Extract(item)
			if !ok {
				continue
			}
			fn(rec)
		}
	}
	return nil
}

// NopRecorder discards batch records.
type NopRecorder struct{}

// RecordBatch does nothing.
func (NopRecorder) RecordBatch(context.Context, Batch) error { return nil }
