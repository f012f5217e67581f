// Package service runs a batch of geocoding lookups over a table and checkpoints the result.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/UnknownOlympus/geobatch/internal/geocoding"
	"github.com/UnknownOlympus/geobatch/internal/metrics"
	"github.com/UnknownOlympus/geobatch/internal/models"
	"github.com/UnknownOlympus/geobatch/internal/repository"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// ErrRunInProgress is returned when Run is called while a run is dispatching.
var ErrRunInProgress = errors.New("dispatcher is already running")

// Paths names the files a run writes to.
type Paths struct {
	Input  string // Input receives the remaining rows when a run aborts.
	Output string // Output receives the geocoded rows.
}

// AbortError reports a run stopped by a fatal outcome at row Index.
// Rows before Index were written to the output path, the rest over the input path.
type AbortError struct {
	Index int
	Err   error
}

func (e *AbortError) Error() string {
	return fmt.Sprintf("geocoding aborted at row %d: %v", e.Index, e.Err)
}

func (e *AbortError) Unwrap() error {
	return e.Err
}

// ProgressFunc receives the running summary after every classified row.
type ProgressFunc func(summary models.Summary)

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithProgress registers fn to be called after every classified row.
// fn runs on the collecting goroutine and must not block.
func WithProgress(fn ProgressFunc) Option {
	return func(d *Dispatcher) {
		d.progress = fn
	}
}

// Dispatcher geocodes every row of a table with a bounded worker pool.
type Dispatcher struct {
	log          *slog.Logger         // Logger for logging dispatcher activities
	repo         repository.Interface // Spreadsheet storage for results and checkpoints
	geocoder     geocoding.Provider   // Performs one lookup per row
	providerName string               // Name of the provider for metrics labeling
	metrics      *metrics.Metrics     // Metrics for tracking run performance
	numWorkers   int                  // Number of concurrent workers
	delay        time.Duration        // Minimum gap between two submissions
	progress     ProgressFunc

	state atomic.Int32
}

// NewDispatcher creates a Dispatcher. numWorkers below one is raised to one;
// a non-positive delay disables the throttle.
func NewDispatcher(
	log *slog.Logger,
	repo repository.Interface,
	geocoder geocoding.Provider,
	providerName string,
	metrics *metrics.Metrics,
	numWorkers int,
	delay time.Duration,
	opts ...Option,
) *Dispatcher {
	if numWorkers < 1 {
		numWorkers = 1
	}

	d := &Dispatcher{
		log:          log,
		repo:         repo,
		geocoder:     geocoder,
		providerName: providerName,
		metrics:      metrics,
		numWorkers:   numWorkers,
		delay:        delay,
	}
	for _, opt := range opts {
		opt(d)
	}

	return d
}

// State returns the current state of the dispatcher.
func (d *Dispatcher) State() State {
	return State(d.state.Load())
}

type task struct {
	index   int
	address string
}

type result struct {
	index   int
	outcome models.Outcome
}

// Run geocodes every row of table, writing coordinates in place.
//
// Rows are classified strictly in index order. When row i yields a fatal outcome,
// submission stops, rows below i still in flight are awaited, every other lookup
// is cancelled, rows [0,i) are saved to paths.Output and rows [i,n) without
// coordinates over paths.Input. The returned error is then an *AbortError.
// Otherwise the full table is saved to paths.Output.
func (d *Dispatcher) Run(ctx context.Context, table *models.Table, paths Paths) (*models.Summary, error) {
	current := d.state.Load()
	if State(current) == StateDispatching || !d.state.CompareAndSwap(current, int32(StateDispatching)) {
		return nil, ErrRunInProgress
	}

	total := table.Len()
	summary := &models.Summary{Total: total}

	// Every run geocodes from scratch.
	for i := range table.Rows {
		table.Rows[i].Coordinates = nil
	}

	d.log.InfoContext(ctx, "Starting geocoding run",
		"rows", total,
		"num_workers", d.numWorkers,
		"provider", d.providerName,
	)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	tasks := make(chan task)
	results := make(chan result, d.numWorkers)
	stop := make(chan struct{})
	var stopOnce sync.Once

	grp, grpCtx := errgroup.WithContext(runCtx)
	grp.Go(func() error {
		d.produce(grpCtx, table, tasks, stop)
		return nil
	})
	for i := 1; i <= d.numWorkers; i++ {
		grp.Go(func() error {
			d.worker(grpCtx, i, tasks, results)
			return nil
		})
	}
	go func() {
		_ = grp.Wait()
		close(results)
	}()

	pending := make(map[int]models.Outcome)
	next, abortAt := 0, -1
	var abortErr error

	for next < total && next != abortAt {
		res, ok := <-results
		if !ok {
			break
		}
		if abortAt >= 0 && res.index > abortAt {
			continue
		}
		if res.outcome.IsFatal() {
			abortAt, abortErr = res.index, res.outcome.Err
			stopOnce.Do(func() { close(stop) })
		}

		pending[res.index] = res.outcome
		for next != abortAt {
			outcome, found := pending[next]
			if !found {
				break
			}
			delete(pending, next)
			d.apply(ctx, table, summary, next, outcome)
			next++
		}
	}

	// Abandon whatever is still in flight and let the workers exit.
	cancel()
	for range results {
	}

	if next < total && (abortAt < 0 || next < abortAt) {
		abortAt, abortErr = next, ctx.Err()
		if abortErr == nil {
			abortErr = fmt.Errorf("row %d: no result received", next)
		}
	}

	if abortAt >= 0 {
		return summary, d.abort(ctx, table, summary, paths, abortAt, abortErr)
	}

	if err := d.repo.SaveResults(paths.Output, table); err != nil {
		d.state.Store(int32(StateAborted))
		d.log.ErrorContext(ctx, "Failed to save results", "path", paths.Output, "error", err)
		return summary, fmt.Errorf("failed to save results: %w", err)
	}

	d.state.Store(int32(StateCompleted))
	d.log.InfoContext(ctx, "Geocoding run finished",
		"processed", summary.Processed,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
	)

	return summary, nil
}

// produce feeds row indices in order, one per throttle token, until every row
// is submitted, stop is closed or ctx is cancelled.
func (d *Dispatcher) produce(ctx context.Context, table *models.Table, tasks chan<- task, stop <-chan struct{}) {
	defer close(tasks)

	limiter := rate.NewLimiter(rate.Inf, 1)
	if d.delay > 0 {
		limiter = rate.NewLimiter(rate.Every(d.delay), 1)
	}

	for i, row := range table.Rows {
		select {
		case <-stop:
			return
		default:
		}

		if err := limiter.Wait(ctx); err != nil {
			return
		}

		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case tasks <- task{index: i, address: row.Address}:
		}
	}
}

// worker performs lookups from tasks until the channel closes or ctx is cancelled.
func (d *Dispatcher) worker(ctx context.Context, idx int, tasks <-chan task, results chan<- result) {
	for t := range tasks {
		d.metrics.ActiveWorkers.Inc()
		d.log.DebugContext(ctx, "Processing row", "worker", idx, "row", t.index)

		startTime := time.Now()
		outcome := d.geocoder.Geocode(ctx, t.address)
		if outcome.Kind != models.OutcomeSkippedEmptyAddress {
			duration := time.Since(startTime).Seconds()
			d.metrics.RequestSeconds.WithLabelValues(d.providerName).Observe(duration)
		}

		d.metrics.ActiveWorkers.Dec()

		select {
		case results <- result{index: t.index, outcome: outcome}:
		case <-ctx.Done():
			return
		}
	}
}

// apply writes a non-fatal outcome into row idx and updates the counters.
func (d *Dispatcher) apply(ctx context.Context, table *models.Table, summary *models.Summary, idx int, outcome models.Outcome) {
	row := &table.Rows[idx]

	switch outcome.Kind {
	case models.OutcomeSuccess:
		coords := outcome.Coordinates
		row.Coordinates = &coords
	case models.OutcomeSkippedEmptyAddress:
		row.Coordinates = nil
		d.log.WarnContext(ctx, "Skipping row without address", "row", row.Index)
	case models.OutcomeNotFound:
		row.Coordinates = nil
		d.log.WarnContext(ctx, "Address not found", "row", row.Index, "address", row.Address)
	case models.OutcomeTransientAPIError:
		row.Coordinates = nil
		d.metrics.APIErrors.Inc()
		d.log.WarnContext(ctx, "Failed to geocode", "row", row.Index, "address", row.Address, "error", outcome.Err)
	case models.OutcomeFatalError:
		return
	}

	summary.Record(outcome.Kind)
	d.metrics.RowsProcessed.WithLabelValues(outcome.Kind.String()).Inc()

	if d.progress != nil {
		d.progress(*summary)
	}
}

// abort persists the completed and remaining partitions and returns the run error.
func (d *Dispatcher) abort(
	ctx context.Context,
	table *models.Table,
	summary *models.Summary,
	paths Paths,
	index int,
	cause error,
) error {
	d.state.Store(int32(StateAborted))
	summary.Aborted = true
	summary.AbortIndex = index
	d.metrics.RowsProcessed.WithLabelValues(models.OutcomeFatalError.String()).Inc()

	d.log.ErrorContext(ctx, "Fatal error, aborting run",
		"row", index,
		"completed", index,
		"remaining", table.Len()-index,
		"error", cause,
	)

	abortErr := &AbortError{Index: index, Err: cause}

	var saveErrs []error
	if err := d.repo.SaveResults(paths.Output, table.Slice(0, index)); err != nil {
		d.log.ErrorContext(ctx, "Failed to save completed rows", "path", paths.Output, "error", err)
		saveErrs = append(saveErrs, fmt.Errorf("failed to save completed rows: %w", err))
	}
	if err := d.repo.SaveRemaining(paths.Input, table.Slice(index, table.Len()).Unresolved()); err != nil {
		d.log.ErrorContext(ctx, "Failed to save remaining rows", "path", paths.Input, "error", err)
		saveErrs = append(saveErrs, fmt.Errorf("failed to save remaining rows: %w", err))
	}

	if len(saveErrs) == 0 {
		return abortErr
	}

	return errors.Join(append([]error{abortErr}, saveErrs...)...)
}
