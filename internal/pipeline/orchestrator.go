package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/querygenie/querygenie/internal/core"
	"github.com/querygenie/querygenie/internal/core/errs"
	"github.com/querygenie/querygenie/internal/models"
)

// Handler runs one job attempt and returns the stage output or an error.
// The orchestrator interprets the result: enqueue the successor stage,
// schedule a retry, or fail terminally.
type Handler func(ctx context.Context, job *Job) (any, error)

// Config carries the operator-tunable retry and retention policy, applied
// uniformly to both queues.
type Config struct {
	Attempts     int
	BackoffDelay time.Duration
	RetainFailed time.Duration
}

func (c Config) jobOptions() JobOptions {
	attempts := c.Attempts
	if attempts <= 0 {
		attempts = 3
	}
	delay := c.BackoffDelay
	if delay <= 0 {
		delay = time.Second
	}
	return JobOptions{
		Attempts:         attempts,
		Backoff:          Backoff{Type: BackoffExponential, Delay: delay},
		RemoveOnComplete: true,
		RetainFailedFor:  c.RetainFailed,
	}
}

// Orchestrator owns the two-stage queue topology: a pdf-parsing queue and a
// file-processing queue, one worker each. Lifecycle is explicit: construct,
// Start, Stop. Completed parsing jobs hand off to the processing queue
// through a typed transition; terminal processing failures mark the owning
// project Failed.
type Orchestrator struct {
	opts       JobOptions
	parsing    *queue
	processing *queue
	parse      Handler
	embed      Handler
	db         core.DbClient

	runCtx context.Context
	cancel context.CancelFunc
	g      *errgroup.Group

	// inflight counts jobs from enqueue to terminal state, including the
	// gap while a retry timer is pending.
	inflight sync.WaitGroup
}

func NewOrchestrator(db core.DbClient, parse, embed Handler, cfg Config) *Orchestrator {
	opts := cfg.jobOptions()
	return &Orchestrator{
		opts:       opts,
		parsing:    newQueue(QueuePDFParsing, opts),
		processing: newQueue(QueueFileProcessing, opts),
		parse:      parse,
		embed:      embed,
		db:         db,
	}
}

// Start launches one worker per queue. It returns immediately; workers run
// until Stop or ctx cancellation.
func (o *Orchestrator) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	o.runCtx = runCtx
	o.cancel = cancel

	g, gctx := errgroup.WithContext(runCtx)
	o.g = g
	g.Go(func() error { return o.runWorker(gctx, o.parsing, o.parse) })
	g.Go(func() error { return o.runWorker(gctx, o.processing, o.embed) })
	log.Printf("pipeline: orchestrator started (attempts=%d, backoff=%s)", o.opts.Attempts, o.opts.Backoff.Delay)
}

// Stop cancels the workers and waits for them to exit. Jobs already picked
// up finish their current attempt.
func (o *Orchestrator) Stop() error {
	if o.cancel == nil {
		return nil
	}
	o.cancel()
	err := o.g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Drain blocks until every enqueued job has reached a terminal state.
func (o *Orchestrator) Drain() {
	o.inflight.Wait()
}

// EnqueueExtraction schedules a new pdf-parsing job and returns its id.
func (o *Orchestrator) EnqueueExtraction(ctx context.Context, name string, in ExtractionInput) (string, error) {
	job := newJob(name+suffixParser, in, o.opts)
	o.inflight.Add(1)
	if err := o.parsing.enqueue(ctx, job); err != nil {
		o.inflight.Done()
		return "", fmt.Errorf("enqueue %s: %w", job.Name, err)
	}
	log.Printf("pipeline: enqueued job %s (%s)", job.ID, job.Name)
	return job.ID, nil
}

// FailedJobs exposes the retained terminal failures of the named queue.
func (o *Orchestrator) FailedJobs(queueName string) []FailedJob {
	switch queueName {
	case QueuePDFParsing:
		return o.parsing.FailedJobs()
	case QueueFileProcessing:
		return o.processing.FailedJobs()
	default:
		return nil
	}
}

func (o *Orchestrator) runWorker(ctx context.Context, q *queue, handle Handler) error {
	for {
		select {
		case <-ctx.Done():
			log.Printf("pipeline: %s worker shutting down", q.name)
			return ctx.Err()
		case job := <-q.jobs:
			o.runJob(ctx, q, handle, job)
		}
	}
}

// runJob executes one attempt and settles the job: complete, retry later,
// or park terminally. Exactly one of those paths releases the inflight slot.
func (o *Orchestrator) runJob(ctx context.Context, q *queue, handle Handler, job *Job) {
	job.Attempts++
	out, err := handle(ctx, job)
	if err == nil {
		o.completeJob(ctx, q, job, out)
		o.inflight.Done()
		return
	}

	log.Printf("pipeline: %s job %s (%s) attempt %d/%d failed: %v", q.name, job.ID, job.Name, job.Attempts, job.MaxAttempts, err)

	if terminalError(err) || job.Attempts >= job.MaxAttempts {
		o.failJob(q, job, err)
		o.inflight.Done()
		return
	}

	delay := job.Backoff.NextDelay(job.Attempts)
	time.AfterFunc(delay, func() {
		if err := q.enqueue(o.runCtx, job); err != nil {
			o.failJob(q, job, fmt.Errorf("re-enqueue after backoff: %w", err))
			o.inflight.Done()
		}
	})
}

func (o *Orchestrator) completeJob(ctx context.Context, q *queue, job *Job, out any) {
	log.Printf("pipeline: %s job %s (%s) completed", q.name, job.ID, job.Name)
	if q != o.parsing {
		return
	}

	parsed, ok := out.(ExtractionOutput)
	if !ok {
		// Programming error in the parse handler; nothing to hand off.
		log.Printf("pipeline: parse job %s returned %T, expected ExtractionOutput", job.ID, out)
		return
	}

	next := nextIndexingJob(job, parsed, o.opts)
	o.inflight.Add(1)
	if err := o.processing.enqueue(ctx, next); err != nil {
		o.inflight.Done()
		log.Printf("pipeline: handoff of job %s failed: %v", job.ID, err)
		return
	}
	log.Printf("pipeline: job %s handed off to %s as %s", job.ID, QueueFileProcessing, next.ID)
}

// failJob parks the job for inspection and, for the file-processing queue,
// flips the owning project to Failed when a project id is resolvable. This
// is the single place performing the failure side effect.
func (o *Orchestrator) failJob(q *queue, job *Job, jobErr error) {
	q.park(job, jobErr)
	log.Printf("pipeline: %s job %s (%s) failed terminally after %d attempts: %v", q.name, job.ID, job.Name, job.Attempts, jobErr)

	if q != o.processing {
		return
	}

	projectID := resolveProjectID(job)
	if projectID == 0 {
		log.Printf("pipeline: no project id resolvable from failed job %s, skipping status update", job.ID)
		return
	}

	// Detach from the worker context so a shutdown still records the failure.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := o.db.UpdateProjectStage(ctx, projectID, models.StageFailed); err != nil {
		log.Printf("pipeline: marking project %d failed: %v", projectID, err)
	}
}

// terminalError reports errors that no retry can heal.
func terminalError(err error) bool {
	return errors.Is(err, errs.ErrMissingData) || errors.Is(err, errs.ErrInvalidArgument)
}
