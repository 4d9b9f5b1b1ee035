package export

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/olekukonko/tablewriter"
	"go.uber.org/zap"
)

// Metrics tracks one export run
type Metrics struct {
	mu               sync.Mutex
	clock            clockwork.Clock
	logger           *zap.Logger
	RunID            string
	StartTime        time.Time
	EndTime          time.Time
	SuccessfulJobs   int
	FailedJobs       int
	TotalRowsRead    int64
	TotalRowsWritten int64
	ErrorCounts      map[ErrorCategory]int
	SinkRows         map[string]int64
	results          []Result
}

// NewMetrics starts tracking a run
func NewMetrics(runID string, clock clockwork.Clock, logger *zap.Logger) *Metrics {
	return &Metrics{
		clock:       clock,
		logger:      logger,
		RunID:       runID,
		StartTime:   clock.Now(),
		ErrorCounts: make(map[ErrorCategory]int),
		SinkRows:    make(map[string]int64),
	}
}

// RecordResult records metrics for a finished job
func (m *Metrics) RecordResult(result Result) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.TotalRowsRead += result.RowsRead
	m.TotalRowsWritten += result.RowsWritten
	m.SinkRows[result.Sink] += result.RowsWritten

	if result.Success {
		m.SuccessfulJobs++
	} else {
		m.FailedJobs++
		for _, err := range result.Errors {
			m.ErrorCounts[err.Category]++
		}
	}
	m.results = append(m.results, result)

	if m.logger != nil {
		m.logger.Info("Export job completed",
			zap.String("runID", m.RunID),
			zap.String("sink", result.Sink),
			zap.String("table", result.Table),
			zap.Bool("success", result.Success),
			zap.Bool("verified", result.Verified),
			zap.Int64("rowsWritten", result.RowsWritten),
			zap.Duration("duration", result.Duration))
	}
}

// Complete marks the run as complete
func (m *Metrics) Complete() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.EndTime = m.clock.Now()

	if m.logger != nil {
		m.logger.Info("Export run completed",
			zap.String("runID", m.RunID),
			zap.Duration("totalDuration", m.duration()),
			zap.Int("successfulJobs", m.SuccessfulJobs),
			zap.Int("failedJobs", m.FailedJobs),
			zap.Int64("totalRowsWritten", m.TotalRowsWritten),
			zap.Float64("throughput", m.throughput()))
	}
}

// Duration returns the run duration so far
func (m *Metrics) Duration() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.duration()
}

func (m *Metrics) duration() time.Duration {
	if m.EndTime.IsZero() {
		return m.clock.Since(m.StartTime)
	}
	return m.EndTime.Sub(m.StartTime)
}

func (m *Metrics) throughput() float64 {
	d := m.duration().Seconds()
	if d <= 0 {
		return 0
	}
	return float64(m.TotalRowsWritten) / d
}

// Summary builds the run summary. Results are ordered by sink, then table.
func (m *Metrics) Summary() *Summary {
	m.mu.Lock()
	defer m.mu.Unlock()

	results := append([]Result(nil), m.results...)
	sort.Slice(results, func(i, j int) bool {
		if results[i].Sink != results[j].Sink {
			return results[i].Sink < results[j].Sink
		}
		return results[i].Table < results[j].Table
	})

	errs := make(map[ErrorCategory]int, len(m.ErrorCounts))
	for c, n := range m.ErrorCounts {
		errs[c] = n
	}

	end := m.EndTime
	if end.IsZero() {
		end = m.clock.Now()
	}

	return &Summary{
		RunID:           m.RunID,
		Jobs:            m.SuccessfulJobs + m.FailedJobs,
		SuccessfulJobs:  m.SuccessfulJobs,
		FailedJobs:      m.FailedJobs,
		TotalRows:       m.TotalRowsWritten,
		ErrorCategories: errs,
		Results:         results,
		StartTime:       m.StartTime,
		EndTime:         end,
		Duration:        m.duration(),
		Throughput:      m.throughput(),
	}
}

// WriteReport renders the summary as a table of jobs followed by totals
func (s *Summary) WriteReport(w io.Writer) {
	tw := tablewriter.NewWriter(w)
	tw.SetHeader([]string{"Sink", "Table", "Rows", "Verified", "Status", "Duration"})
	for _, r := range s.Results {
		status := "ok"
		if !r.Success {
			status = "failed"
			if len(r.Errors) > 0 {
				status = r.Errors[0].Category.String()
			}
		}
		tw.Append([]string{
			r.Sink,
			r.Table,
			fmt.Sprintf("%d", r.RowsWritten),
			fmt.Sprintf("%t", r.Verified),
			status,
			formatDuration(r.Duration),
		})
	}
	tw.Render()

	fmt.Fprintf(w, "Run %s: %d/%d jobs succeeded (%.1f%%), %d rows in %s, %.2f rows/sec\n",
		s.RunID, s.SuccessfulJobs, s.Jobs, s.SuccessRate(), s.TotalRows,
		formatDuration(s.Duration), s.Throughput)

	categories := make([]ErrorCategory, 0, len(s.ErrorCategories))
	for c := range s.ErrorCategories {
		categories = append(categories, c)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i] < categories[j] })
	for _, c := range categories {
		fmt.Fprintf(w, "- %s: %d\n", c, s.ErrorCategories[c])
		for _, r := range s.ErrorSamples[c] {
			fmt.Fprintf(w, "    %s\n", r.String())
		}
	}
}

// formatDuration formats a duration to a human-readable string
func formatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	} else if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}
