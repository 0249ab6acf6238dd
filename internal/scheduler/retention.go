// Package scheduler runs background maintenance jobs on a cron schedule.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"newsdesk/internal/events"
	"newsdesk/internal/metrics"
	"newsdesk/internal/model"
)

// PurgeStore is the slice of article persistence the sweeper needs.
type PurgeStore interface {
	ListPurgeable(ctx context.Context, cutoff time.Time, limit int) ([]model.Article, error)
	HardDelete(ctx context.Context, id string) error
}

// RetentionConfig controls the sweep.
type RetentionConfig struct {
	Schedule  string
	Window    time.Duration
	BatchSize int
}

// SweepResult summarises one sweep.
type SweepResult struct {
	Purged int
	Failed int
}

// RetentionSweeper permanently removes articles soft deleted longer than the
// retention window.
type RetentionSweeper struct {
	store     PurgeStore
	publisher events.Publisher
	metrics   *metrics.Metrics
	logger    *zap.Logger
	cfg       RetentionConfig
	cron      *cron.Cron
	now       func() time.Time
}

// NewRetentionSweeper creates a sweeper. publisher and m may be nil.
func NewRetentionSweeper(store PurgeStore, publisher events.Publisher, m *metrics.Metrics, logger *zap.Logger, cfg RetentionConfig) *RetentionSweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	return &RetentionSweeper{
		store:     store,
		publisher: publisher,
		metrics:   m,
		logger:    logger.Named("retention"),
		cfg:       cfg,
		cron:      cron.New(),
		now:       time.Now,
	}
}

// Start registers the sweep on the configured schedule and starts the cron runner.
func (s *RetentionSweeper) Start() error {
	_, err := s.cron.AddFunc(s.cfg.Schedule, func() {
		s.RunOnce(context.Background())
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("retention sweeper started",
		zap.String("schedule", s.cfg.Schedule),
		zap.Duration("window", s.cfg.Window),
		zap.Int("batch_size", s.cfg.BatchSize),
	)
	return nil
}

// Stop waits for a running sweep to finish.
func (s *RetentionSweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("retention sweeper stopped")
}

// RunOnce purges every article past the retention window. Failures are logged
// per article and never abort the sweep.
func (s *RetentionSweeper) RunOnce(ctx context.Context) SweepResult {
	started := s.now()
	cutoff := started.Add(-s.cfg.Window)
	var res SweepResult

	if s.metrics != nil {
		s.metrics.SweepRuns.Inc()
	}

	for {
		batch, err := s.store.ListPurgeable(ctx, cutoff, s.cfg.BatchSize)
		if err != nil {
			s.logger.Error("list purgeable articles", zap.Error(err))
			break
		}
		if len(batch) == 0 {
			break
		}

		purged := 0
		for _, article := range batch {
			if ctx.Err() != nil {
				s.logger.Warn("sweep cancelled", zap.Int("purged", res.Purged))
				return res
			}
			if err := s.store.HardDelete(ctx, article.ID); err != nil {
				res.Failed++
				if s.metrics != nil {
					s.metrics.PurgeFailures.Inc()
				}
				s.logger.Error("purge article",
					zap.String("article_id", article.ID),
					zap.String("slug", article.Slug),
					zap.Error(err),
				)
				continue
			}

			purged++
			if s.metrics != nil {
				s.metrics.ArticlesPurged.Inc()
			}
			evt := events.Event{Type: events.ArticlePurged, ArticleID: article.ID, Slug: article.Slug, OccurredAt: s.now().UTC()}
			if err := s.publisher.Publish(ctx, evt); err != nil {
				s.logger.Warn("event dropped", zap.String("type", evt.Type), zap.Error(err))
			}
		}
		res.Purged += purged

		// Failed rows stay purgeable, so a page with no progress would repeat forever.
		if purged == 0 || len(batch) < s.cfg.BatchSize {
			break
		}
	}

	s.logger.Info("retention sweep finished",
		zap.Int("purged", res.Purged),
		zap.Int("failed", res.Failed),
		zap.Duration("elapsed", s.now().Sub(started)),
	)
	return res
}
