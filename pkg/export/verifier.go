package export

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Verification compares what a sink reports holding against what was written
type Verification struct {
	Sink          string
	Table         string
	ExpectedCount int64
	ActualCount   int64
	Matches       bool
	Duration      time.Duration
}

// Verifier checks sinks after a write
type Verifier struct {
	logger  *zap.Logger
	timeout time.Duration
}

// NewVerifier creates a new verifier
func NewVerifier(logger *zap.Logger) *Verifier {
	return &Verifier{
		logger:  logger.Named("verifier"),
		timeout: time.Minute * 5,
	}
}

// WithTimeout sets a custom timeout for verification queries
func (v *Verifier) WithTimeout(timeout time.Duration) *Verifier {
	v.timeout = timeout
	return v
}

// VerifyRowCount asks the sink for its row count of table and compares it
// with expected
func (v *Verifier) VerifyRowCount(ctx context.Context, sink Sink, table string, expected int64) (*Verification, error) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	actual, err := sink.Count(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("failed to count %s in %s: %w", table, sink.Name(), err)
	}

	res := &Verification{
		Sink:          sink.Name(),
		Table:         table,
		ExpectedCount: expected,
		ActualCount:   actual,
		Matches:       actual == expected,
		Duration:      time.Since(start),
	}

	if res.Matches {
		v.logger.Info("Row count verification successful",
			zap.String("sink", res.Sink),
			zap.String("table", table),
			zap.Int64("count", actual))
	} else {
		v.logger.Warn("Row count mismatch",
			zap.String("sink", res.Sink),
			zap.String("table", table),
			zap.Int64("expectedCount", expected),
			zap.Int64("actualCount", actual),
			zap.Int64("difference", expected-actual))
	}

	return res, nil
}
