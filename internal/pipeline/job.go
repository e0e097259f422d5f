package pipeline

import (
	"time"

	"github.com/google/uuid"
)

// Queue names for the two pipeline stages.
const (
	QueuePDFParsing     = "pdf-parsing"
	QueueFileProcessing = "file-processing"
)

// Job name suffixes, kept for operator traceability only.
const (
	suffixParser = "__PDFParser"
	suffixEmbed  = "__PDFEmbed"
)

const (
	BackoffExponential = "exponential"
	BackoffFixed       = "fixed"
)

// Backoff describes the delay policy between retry attempts.
type Backoff struct {
	Type  string
	Delay time.Duration
}

// NextDelay returns the delay to apply after the given (1-based) failed
// attempt. Exponential backoff doubles per attempt from the base delay.
func (b Backoff) NextDelay(attempt int) time.Duration {
	delay := b.Delay
	if delay <= 0 {
		delay = time.Second
	}
	if b.Type == BackoffFixed {
		return delay
	}
	if attempt < 1 {
		attempt = 1
	}
	return delay << (attempt - 1)
}

// JobOptions are the operator-facing queue defaults.
type JobOptions struct {
	Attempts         int
	Backoff          Backoff
	RemoveOnComplete bool
	// RetainFailedFor bounds how long terminally failed jobs stay parked for
	// inspection; zero keeps them until process exit.
	RetainFailedFor time.Duration
}

// Job is one unit of queued work. A job belongs to exactly one stage queue
// at a time; stage handoff creates a new job with explicitly copied fields.
type Job struct {
	ID          string
	Name        string
	Data        any
	Attempts    int
	MaxAttempts int
	Backoff     Backoff
	EnqueuedAt  time.Time
}

func newJob(name string, data any, opts JobOptions) *Job {
	attempts := opts.Attempts
	if attempts <= 0 {
		attempts = 1
	}
	return &Job{
		ID:          uuid.NewString(),
		Name:        name,
		Data:        data,
		MaxAttempts: attempts,
		Backoff:     opts.Backoff,
		EnqueuedAt:  time.Now(),
	}
}

// FailedJob is a terminally failed job retained for operator inspection.
type FailedJob struct {
	Job      *Job
	Err      error
	FailedAt time.Time
}
