// Package fanout executes query plans against several sources concurrently
// and merges the per-source outcomes. One unit of work runs per target
// source, bounded by a per-unit timeout; a slow or failed source degrades to
// a failure entry and never cancels its siblings. Assembly order is fixed by
// the plan (catalog) order, not completion order, so responses are
// deterministic for a fixed request.
package fanout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/crossquery/crossquery-engine/pkg/adapters/datasource"
	"github.com/crossquery/crossquery-engine/pkg/logging"
	"github.com/crossquery/crossquery-engine/pkg/models"
)

// Executor is the slice of the adapter surface the coordinator needs.
type Executor interface {
	QueryWithParams(ctx context.Context, sqlQuery string, params []any, limit int) (*datasource.QueryResult, error)
}

// Coordinator fans query plans out across sources.
type Coordinator struct {
	executors map[string]Executor
	timeout   time.Duration
	logger    *zap.Logger
}

// NewCoordinator builds a coordinator over per-source executors with the
// given per-unit timeout.
func NewCoordinator(executors map[string]Executor, timeout time.Duration, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		executors: executors,
		timeout:   timeout,
		logger:    logger.Named("fanout"),
	}
}

// FanOut executes each plan concurrently and returns one PartialResult per
// plan, in plan order. One-shot semantics: nothing is retried here; retries,
// if desired, are the caller's responsibility.
func (c *Coordinator) FanOut(ctx context.Context, plans []models.SourceQueryPlan) []models.PartialResult {
	results := make([]models.PartialResult, len(plans))
	if len(plans) == 0 {
		return results
	}

	fanoutID := uuid.NewString()
	c.logger.Debug("fan-out started",
		zap.String("fanout_id", fanoutID),
		zap.Int("sources", len(plans)))

	var wg sync.WaitGroup
	for i, plan := range plans {
		wg.Add(1)
		go func(i int, plan models.SourceQueryPlan) {
			defer wg.Done()
			results[i] = c.runUnit(ctx, fanoutID, plan)
		}(i, plan)
	}
	wg.Wait()

	c.logger.Debug("fan-out finished", zap.String("fanout_id", fanoutID))
	return results
}

type unitOutcome struct {
	res *datasource.QueryResult
	err error
}

// runUnit executes one plan under the per-unit timeout. The executor call
// runs in its own goroutine so a driver that ignores cancellation still
// cannot hold the fan-out past its bound.
func (c *Coordinator) runUnit(ctx context.Context, fanoutID string, plan models.SourceQueryPlan) models.PartialResult {
	exec, ok := c.executors[plan.Source]
	if !ok {
		return failure(plan.Source, 0, fmt.Errorf("no executor for source %q", plan.Source))
	}

	c.logger.Debug("fan-out unit started",
		zap.String("fanout_id", fanoutID),
		zap.String("source", plan.Source),
		zap.String("query", logging.SanitizeQuery(plan.SQL)))

	start := time.Now()
	unitCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	outcome := make(chan unitOutcome, 1)
	go func() {
		res, err := exec.QueryWithParams(unitCtx, plan.SQL, plan.Params, plan.RowCap)
		outcome <- unitOutcome{res: res, err: err}
	}()

	select {
	case o := <-outcome:
		elapsed := time.Since(start)
		if o.err != nil {
			if errors.Is(o.err, context.DeadlineExceeded) {
				o.err = fmt.Errorf("timed out after %s", c.timeout)
			}
			c.logger.Warn("fan-out unit failed",
				zap.String("fanout_id", fanoutID),
				zap.String("source", plan.Source),
				zap.Error(o.err))
			return failure(plan.Source, elapsed, o.err)
		}
		return models.PartialResult{
			Source:    plan.Source,
			Success:   true,
			Rows:      o.res.Rows,
			RowCount:  o.res.RowCount,
			ElapsedMS: elapsed.Milliseconds(),
		}
	case <-unitCtx.Done():
		elapsed := time.Since(start)
		err := unitCtx.Err()
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("timed out after %s", c.timeout)
		}
		c.logger.Warn("fan-out unit timed out",
			zap.String("fanout_id", fanoutID),
			zap.String("source", plan.Source),
			zap.Duration("elapsed", elapsed))
		return failure(plan.Source, elapsed, err)
	}
}

func failure(source string, elapsed time.Duration, err error) models.PartialResult {
	return models.PartialResult{
		Source:    source,
		Success:   false,
		Error:     err.Error(),
		ElapsedMS: elapsed.Milliseconds(),
	}
}
