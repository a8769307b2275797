// Package app orchestrates the refresh pipeline: repository fetch,
// normalization, ranking, snapshot persistence and the cooldown policy.
package app

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/okian/runboard/internal/adapters/filecache"
	"github.com/okian/runboard/internal/domain/model"
	"github.com/okian/runboard/pkg/logger"
	"github.com/okian/runboard/pkg/metrics"
)

// defaultCooldown throttles on-demand refreshes.
const defaultCooldown = 7200 * time.Second

// RunSource yields the current verified run set.
type RunSource interface {
	FetchVerified(ctx context.Context) ([]model.Run, error)
}

// Processor turns raw runs into ranked normalized rows.
type Processor interface {
	Process(ctx context.Context, runs []model.Run) ([]model.Row, error)
}

// Result is the outcome of one Refresh or Load call.
type Result struct {
	// Rows is the normalized, ranked table.
	Rows []model.Row

	// Refreshed reports whether the pipeline actually ran, as opposed
	// to serving the existing snapshot.
	Refreshed bool

	// Added is the number of run ids not present in the previous
	// snapshot. Only meaningful when Refreshed is true.
	Added int

	// CooldownRemaining is how long until the next refresh is allowed,
	// when a forced refresh was declined.
	CooldownRemaining time.Duration
}

// Service drives the pipeline.
type Service struct {
	source    RunSource
	processor Processor
	clock     *filecache.Clock
	snapshot  string
	cooldown  time.Duration
	now       func() time.Time
	log       logger.Logger
}

// New constructs a Service over a run source and processor. The clock
// persists the last refresh time; snapshotPath holds the processed CSV.
func New(source RunSource, processor Processor, clock *filecache.Clock, snapshotPath string, opts ...Option) *Service {
	s := &Service{
		source:    source,
		processor: processor,
		clock:     clock,
		snapshot:  snapshotPath,
		cooldown:  defaultCooldown,
		now:       time.Now,
		log:       logger.Nop(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Load returns the processed table, refreshing only when no snapshot
// exists yet.
func (s *Service) Load(ctx context.Context) (Result, error) {
	return s.Refresh(ctx, false)
}

// Refresh returns the processed table. When force is set it reruns the
// whole pipeline unless the cooldown since the last successful refresh
// has not elapsed; without force the pipeline runs only when there is
// no snapshot to serve.
func (s *Service) Refresh(ctx context.Context, force bool) (Result, error) {
	now := s.now()

	var remaining time.Duration
	if last, ok := s.clock.Last(); ok {
		elapsed := now.Sub(time.Unix(0, int64(last*float64(time.Second))))
		remaining = s.cooldown - elapsed
	} else {
		remaining = 0
	}

	// Respect the cooldown when a refresh is requested, but let a
	// first-time fetch through if no snapshot exists yet.
	if force && remaining > 0 && s.snapshotExists() {
		rows, err := readSnapshot(s.snapshot)
		if err == nil {
			s.log.Info(ctx, "refresh inside cooldown, serving snapshot",
				logger.Float64("cooldown_remaining_seconds", remaining.Seconds()),
			)
			metrics.RecordRefresh("cooldown")
			return Result{Rows: rows, CooldownRemaining: remaining}, nil
		}
		s.log.Warn(ctx, "failed to read snapshot, refreshing instead", logger.Error(err))
	}

	if force || !s.snapshotExists() {
		return s.run(ctx, now)
	}

	rows, err := readSnapshot(s.snapshot)
	if err != nil {
		s.log.Warn(ctx, "failed to read snapshot, refreshing instead", logger.Error(err))
		return s.run(ctx, now)
	}
	return Result{Rows: rows}, nil
}

// run executes the full pipeline once.
func (s *Service) run(ctx context.Context, now time.Time) (Result, error) {
	refreshID := uuid.NewString()
	start := s.now()

	s.log.Info(ctx, "starting refresh", logger.String("refresh_id", refreshID))

	// Remember the previous snapshot's ids to report how much is new.
	oldIDs := map[string]struct{}{}
	if prev, err := readSnapshot(s.snapshot); err == nil {
		for _, row := range prev {
			oldIDs[row.ID] = struct{}{}
		}
	}

	runs, err := s.source.FetchVerified(ctx)
	if err != nil {
		metrics.RecordRefresh("failed")
		return Result{}, err
	}

	rows, err := s.processor.Process(ctx, runs)
	if err != nil {
		metrics.RecordRefresh("failed")
		return Result{}, err
	}

	// The snapshot is derived data; failing to persist it must not
	// fail the refresh.
	if err := writeSnapshot(s.snapshot, rows); err != nil {
		s.log.Warn(ctx, "failed to write snapshot",
			logger.String("snapshot", s.snapshot),
			logger.Error(err),
		)
	}
	if err := s.clock.Set(float64(now.UnixNano()) / float64(time.Second)); err != nil {
		s.log.Warn(ctx, "failed to persist last refresh timestamp", logger.Error(err))
	}

	added := 0
	for _, row := range rows {
		if _, ok := oldIDs[row.ID]; !ok {
			added++
		}
	}

	elapsed := s.now().Sub(start)
	metrics.RecordRefresh("refreshed")
	metrics.ObservePipelineDuration(elapsed.Seconds())
	s.log.Info(ctx, "refresh complete",
		logger.String("refresh_id", refreshID),
		logger.Int("rows", len(rows)),
		logger.Int("added", added),
		logger.Float64("duration_seconds", elapsed.Seconds()),
	)

	return Result{Rows: rows, Refreshed: true, Added: added}, nil
}

func (s *Service) snapshotExists() bool {
	_, err := os.Stat(s.snapshot)
	return err == nil
}
