package export

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/David-Botos/olist-features/pkg/table"
)

// Dataset is a computed table to export, with the columns identifying a row
// in key-value sinks
type Dataset struct {
	Table *table.Table
	Key   []string
}

// Job writes one dataset to one sink
type Job struct {
	ID        string    // Unique job identifier
	RunID     string    // Export run the job belongs to
	Sink      string    // Sink name
	Dataset   Dataset   // Table to write
	CreatedAt time.Time // Job creation timestamp
}

// NewJob creates a job for a dataset and sink
func NewJob(runID, sink string, ds Dataset, at time.Time) Job {
	return Job{
		ID:        uuid.New().String(),
		RunID:     runID,
		Sink:      sink,
		Dataset:   ds,
		CreatedAt: at,
	}
}

// FullName returns sink/table
func (j Job) FullName() string {
	return fmt.Sprintf("%s/%s", j.Sink, j.Dataset.Table.Name())
}

// Result is the outcome of one job
type Result struct {
	JobID       string
	Sink        string
	Table       string
	Success     bool
	RowsRead    int64
	RowsWritten int64
	Verified    bool
	Errors      []ErrorRecord
	Warnings    []string
	StartTime   time.Time
	EndTime     time.Time
	Duration    time.Duration
}

// NewResult initializes a result for a job
func NewResult(job Job, start time.Time) *Result {
	return &Result{
		JobID:     job.ID,
		Sink:      job.Sink,
		Table:     job.Dataset.Table.Name(),
		RowsRead:  int64(job.Dataset.Table.Len()),
		StartTime: start,
		Errors:    make([]ErrorRecord, 0),
		Warnings:  make([]string, 0),
	}
}

// Complete marks the job as complete and calculates duration
func (r *Result) Complete(success bool, end time.Time) {
	r.EndTime = end
	r.Duration = r.EndTime.Sub(r.StartTime)
	r.Success = success && !r.HasErrors()
}

// AddError adds an error to the result
func (r *Result) AddError(err ErrorRecord) {
	r.Errors = append(r.Errors, err)
	r.Success = false
}

// AddWarning adds a warning to the result
func (r *Result) AddWarning(warning string) {
	r.Warnings = append(r.Warnings, warning)
}

// HasErrors checks if any errors occurred
func (r *Result) HasErrors() bool {
	return len(r.Errors) > 0
}

// Summary is the final report of an export run
type Summary struct {
	RunID           string
	Jobs            int
	SuccessfulJobs  int
	FailedJobs      int
	TotalRows       int64
	ErrorCategories map[ErrorCategory]int
	ErrorSamples    map[ErrorCategory][]ErrorRecord
	Results         []Result
	StartTime       time.Time
	EndTime         time.Time
	Duration        time.Duration
	Throughput      float64 // rows/second
}

// SuccessRate returns the percentage of jobs that succeeded
func (s *Summary) SuccessRate() float64 {
	if s.Jobs == 0 {
		return 0
	}
	return float64(s.SuccessfulJobs) / float64(s.Jobs) * 100
}
