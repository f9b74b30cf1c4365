// Package scheduler runs the periodic batch recompute.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/ougirez/restorank/internal/domain"
	"github.com/ougirez/restorank/internal/pkg/logger"
	"github.com/ougirez/restorank/internal/service/ranking"
	"github.com/robfig/cron/v3"
)

type RegionLister interface {
	ListRegions(ctx context.Context) ([]*domain.Region, error)
}

type Ranker interface {
	ComputeRankings(ctx context.Context, regionCode string) (*ranking.Report, error)
}

// Analyzer catches up on reviews imported since the last run.
type Analyzer interface {
	AnalyzePending(ctx context.Context, limit uint64) (int, error)
}

type Scheduler struct {
	cron     *cron.Cron
	regions  RegionLister
	ranker   Ranker
	analyzer Analyzer

	ctx    context.Context
	cancel context.CancelFunc
}

// New schedules a full recompute on the given cron spec (standard five
// fields or descriptors such as "@hourly"). An empty timezone means UTC.
// analyzer may be nil.
func New(spec, timezone string, regions RegionLister, ranker Ranker, analyzer Analyzer) (*Scheduler, error) {
	loc := time.UTC
	if timezone != "" {
		var err error
		if loc, err = time.LoadLocation(timezone); err != nil {
			return nil, fmt.Errorf("time.LoadLocation: %w", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		regions:  regions,
		ranker:   ranker,
		analyzer: analyzer,
		ctx:      logger.WithFields(ctx, "component", "scheduler"),
		cancel:   cancel,
	}

	cl := cronLogger{ctx: s.ctx}
	s.cron = cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		cancel()
		return nil, fmt.Errorf("cron.AddFunc %q: %w", spec, err)
	}

	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops scheduling and waits for a running job, at most until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) error {
	stopped := s.cron.Stop()
	s.cancel()

	select {
	case <-stopped.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) run() {
	if _, err := s.RecomputeAll(s.ctx); err != nil {
		logger.Errorf(s.ctx, "scheduled recompute: %s", err.Error())
	}
}

// RecomputeAll analyses pending reviews, then recomputes every region in
// turn. A failing region is logged and the next one still runs; the error of
// the first failure is returned.
func (s *Scheduler) RecomputeAll(ctx context.Context) ([]*ranking.Report, error) {
	if s.analyzer != nil {
		if _, err := s.analyzer.AnalyzePending(ctx, 0); err != nil {
			logger.Errorf(ctx, "analyze pending reviews: %s", err.Error())
		}
	}

	regions, err := s.regions.ListRegions(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListRegions: %w", err)
	}

	var (
		reports  = make([]*ranking.Report, 0, len(regions))
		firstErr error
	)
	for _, region := range regions {
		if err = ctx.Err(); err != nil {
			return reports, err
		}

		report, err := s.ranker.ComputeRankings(ctx, region.Code)
		if err != nil {
			logger.Errorf(ctx, "compute region %s: %s", region.Code, err.Error())
			if firstErr == nil {
				firstErr = fmt.Errorf("region-%s: %w", region.Code, err)
			}
			continue
		}
		reports = append(reports, report)
	}

	return reports, firstErr
}

// cronLogger routes cron's own messages to the service logger.
type cronLogger struct {
	ctx context.Context
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.Debug(logger.WithFields(l.ctx, keysAndValues...), "cron: "+msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.Error(logger.WithFields(l.ctx, keysAndValues...), fmt.Sprintf("cron: %s: %v", msg, err))
}
