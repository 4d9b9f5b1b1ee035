// Package export writes computed feature tables to the configured sinks
// with a bounded worker pool, verifies them and reports per-job results.
package export

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrAborted is returned when the error handler stops a run early
var ErrAborted = errors.New("export aborted")

// Exporter runs one job per sink and dataset
type Exporter struct {
	sinks    []Sink
	handler  *ErrorHandler
	verifier *Verifier
	workers  int
	verify   bool
	clock    clockwork.Clock
	logger   *zap.Logger
}

// Option configures an Exporter
type Option func(*Exporter)

// WithWorkers bounds the number of concurrent jobs
func WithWorkers(n int) Option {
	return func(e *Exporter) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithClock sets the clock used for job timings
func WithClock(clock clockwork.Clock) Option {
	return func(e *Exporter) {
		e.clock = clock
	}
}

// WithVerification toggles the row count check after each write
func WithVerification(on bool) Option {
	return func(e *Exporter) {
		e.verify = on
	}
}

// NewExporter creates an exporter over sinks
func NewExporter(sinks []Sink, logger *zap.Logger, opts ...Option) *Exporter {
	logger = logger.Named("exporter")
	e := &Exporter{
		sinks:    sinks,
		handler:  NewErrorHandler(logger),
		verifier: NewVerifier(logger),
		workers:  2,
		verify:   true,
		clock:    clockwork.NewRealClock(),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Errors returns the handler that collected the run's errors
func (e *Exporter) Errors() *ErrorHandler {
	return e.handler
}

// Export writes every dataset to every sink. A failed job does not stop the
// others unless the error handler decides to abort, in which case the
// remaining jobs are cancelled and ErrAborted is returned with the summary.
func (e *Exporter) Export(ctx context.Context, datasets []Dataset) (*Summary, error) {
	runID := uuid.New().String()
	metrics := NewMetrics(runID, e.clock, e.logger)

	jobs := make([]Job, 0, len(e.sinks)*len(datasets))
	for _, s := range e.sinks {
		for _, ds := range datasets {
			jobs = append(jobs, NewJob(runID, s.Name(), ds, e.clock.Now()))
		}
	}

	e.logger.Info("Starting export",
		zap.String("runID", runID),
		zap.Int("sinks", len(e.sinks)),
		zap.Int("datasets", len(datasets)),
		zap.Int("jobs", len(jobs)),
		zap.Int("workers", e.workers))

	sinks := make(map[string]Sink, len(e.sinks))
	for _, s := range e.sinks {
		sinks[s.Name()] = s
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for _, job := range jobs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			result := e.run(gctx, sinks[job.Sink], job)
			metrics.RecordResult(*result)
			if !result.Success && e.handler.ShouldAbort() {
				return fmt.Errorf("%w after %s failed", ErrAborted, job.FullName())
			}
			return nil
		})
	}

	err := g.Wait()
	metrics.Complete()
	summary := metrics.Summary()
	summary.ErrorSamples = e.handler.GetErrorSamples()

	if err != nil {
		e.logger.Error("Export aborted",
			zap.String("runID", runID),
			zap.Error(err))
		return summary, err
	}
	return summary, nil
}

// run executes one job and never returns a nil result
func (e *Exporter) run(ctx context.Context, sink Sink, job Job) *Result {
	result := NewResult(job, e.clock.Now())
	logger := e.logger.With(
		zap.String("jobID", job.ID),
		zap.String("sink", job.Sink),
		zap.String("table", result.Table))

	fail := func(err error) *Result {
		record := NewErrorRecord(err, e.handler.CategorizeError(err), e.clock.Now()).
			WithTable(job.Sink, result.Table)
		e.handler.RecordError(record)
		result.AddError(record)
		result.Complete(false, e.clock.Now())
		return result
	}

	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	logger.Debug("Writing table", zap.Int64("rows", result.RowsRead))
	written, err := sink.Write(ctx, job.Dataset)
	result.RowsWritten = written
	if err != nil {
		return fail(err)
	}

	if e.verify {
		v, err := e.verifier.VerifyRowCount(ctx, sink, result.Table, written)
		switch {
		case err != nil:
			result.AddWarning(err.Error())
		case !v.Matches:
			result.AddWarning(fmt.Sprintf("sink holds %d rows, wrote %d", v.ActualCount, v.ExpectedCount))
		default:
			result.Verified = true
		}
	}

	result.Complete(true, e.clock.Now())
	logger.Info("Table exported",
		zap.Int64("rows", written),
		zap.Bool("verified", result.Verified),
		zap.Duration("duration", result.Duration))
	return result
}
