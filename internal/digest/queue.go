package digest

import (
	"context"
	"sync"
	"time"

	"github.com/goalmates-app/goalmates-backend/pkg/config"
	pkgerrors "github.com/goalmates-app/goalmates-backend/pkg/errors"
	"github.com/goalmates-app/goalmates-backend/pkg/logger"
	"github.com/goalmates-app/goalmates-backend/pkg/metrics"
	"github.com/google/uuid"
)

// Processor consumes one digest job, a batch of saved notification ids.
type Processor func(ctx context.Context, notificationIDs []uuid.UUID) error

// Queue is the in-process email digest queue. Jobs are held in memory only:
// delivery is at most once and a restart drops whatever is waiting. At most
// one drain loop runs at a time; enqueues during a drain are picked up by
// the running loop instead of starting another.
type Queue struct {
	mu        sync.Mutex
	jobs      [][]uuid.UUID
	draining  bool
	processor Processor

	log        *logger.Logger
	metrics    *metrics.RealtimeMetrics
	jobTimeout time.Duration

	wg sync.WaitGroup
}

// NewQueue builds an empty queue. Jobs wait until a processor is registered.
func NewQueue(log *logger.Logger, m *metrics.RealtimeMetrics, cfg config.DigestConfig) (*Queue, error) {
	if log == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	return &Queue{
		log:        log,
		metrics:    m,
		jobTimeout: cfg.JobTimeout,
	}, nil
}

// RegisterProcessor binds the single job consumer and drains any jobs that
// were enqueued before startup finished. A second registration is a wiring
// bug and fails hard.
func (q *Queue) RegisterProcessor(p Processor) error {
	if p == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "digest processor required")
	}

	q.mu.Lock()
	if q.processor != nil {
		q.mu.Unlock()
		return pkgerrors.New(pkgerrors.CodeConflict, "digest processor already registered")
	}
	q.processor = p
	q.kickLocked()
	q.mu.Unlock()
	return nil
}

// Enqueue appends one job and schedules a drain. Safe to call before a
// processor is registered; the job waits in memory.
func (q *Queue) Enqueue(notificationIDs []uuid.UUID) {
	if len(notificationIDs) == 0 {
		return
	}
	job := append([]uuid.UUID(nil), notificationIDs...)

	q.mu.Lock()
	q.jobs = append(q.jobs, job)
	depth := len(q.jobs)
	q.kickLocked()
	q.mu.Unlock()

	q.metrics.SetQueueDepth(depth)
}

// Depth reports how many jobs are waiting.
func (q *Queue) Depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

// Wait blocks until the current drain loop, if any, has finished.
func (q *Queue) Wait() {
	q.wg.Wait()
}

func (q *Queue) kickLocked() {
	if q.draining || q.processor == nil || len(q.jobs) == 0 {
		return
	}
	q.draining = true
	q.wg.Add(1)
	go q.drain()
}

func (q *Queue) drain() {
	defer q.wg.Done()

	for {
		q.mu.Lock()
		if len(q.jobs) == 0 {
			q.draining = false
			q.mu.Unlock()
			return
		}
		job := q.jobs[0]
		q.jobs = q.jobs[1:]
		depth := len(q.jobs)
		proc := q.processor
		q.mu.Unlock()

		q.metrics.SetQueueDepth(depth)
		q.runJob(proc, job)
	}
}

// runJob isolates one job: a failing job is logged and counted, never fatal
// to the drain loop.
func (q *Queue) runJob(proc Processor, job []uuid.UUID) {
	ctx := context.Background()
	if q.jobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.jobTimeout)
		defer cancel()
	}

	if err := proc(ctx, job); err != nil {
		q.log.Error(q.log.WithField(ctx, "job_size", len(job)), "digest job failed", err)
		q.metrics.IncJob("error")
		return
	}
	q.metrics.IncJob("ok")
}
