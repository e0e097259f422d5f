package pipeline

import (
	"context"
	"sync"
	"time"
)

// queue is one bounded stage queue with a park list for terminal failures.
// Completed jobs are not retained; failed jobs are, pruned by age.
type queue struct {
	name string
	jobs chan *Job
	opts JobOptions

	mu     sync.Mutex
	failed []FailedJob
}

func newQueue(name string, opts JobOptions) *queue {
	return &queue{
		name: name,
		jobs: make(chan *Job, 64),
		opts: opts,
	}
}

func (q *queue) enqueue(ctx context.Context, j *Job) error {
	select {
	case q.jobs <- j:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// park retains a terminally failed job, dropping entries older than the
// configured retention age.
func (q *queue) park(j *Job, err error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := time.Now()
	if age := q.opts.RetainFailedFor; age > 0 {
		kept := q.failed[:0]
		for _, f := range q.failed {
			if now.Sub(f.FailedAt) <= age {
				kept = append(kept, f)
			}
		}
		q.failed = kept
	}
	q.failed = append(q.failed, FailedJob{Job: j, Err: err, FailedAt: now})
}

// FailedJobs returns a snapshot of the retained terminal failures.
func (q *queue) FailedJobs() []FailedJob {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]FailedJob, len(q.failed))
	copy(out, q.failed)
	return out
}
