package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/aptaudit/internal/metrics"
)

// ActivityRecorder persists activity log entries.
type ActivityRecorder interface {
	RecordActivity(ctx context.Context, action, entityType, entityID, actor string, detail map[string]any) error
}

// ActivityEnqueuer accepts activity jobs without blocking the caller.
type ActivityEnqueuer interface {
	Enqueue(job *ActivityJob)
}

// ActivityJob represents a single activity entry to be recorded.
type ActivityJob struct {
	Action     string
	EntityType string
	EntityID   string
	Actor      string
	Detail     map[string]any
}

// ActivityWorker buffers activity entries and writes them via a single worker goroutine.
type ActivityWorker struct {
	recorder ActivityRecorder
	log      *logrus.Logger
	jobs     chan *ActivityJob
}

// NewActivityWorker creates an ActivityWorker with the given queue capacity.
func NewActivityWorker(recorder ActivityRecorder, log *logrus.Logger, queueSize int) *ActivityWorker {
	if queueSize <= 0 {
		queueSize = 1000
	}

	return &ActivityWorker{
		recorder: recorder,
		log:      log,
		jobs:     make(chan *ActivityJob, queueSize),
	}
}

// Enqueue adds an activity job. Non-blocking; drops the job if the queue is full.
func (w *ActivityWorker) Enqueue(job *ActivityJob) {
	select {
	case w.jobs <- job:
		metrics.ActivityQueueDepth.Set(float64(len(w.jobs)))
	default:
		w.log.WithField("action", job.Action).Warn("activity queue full, dropping entry")
	}
}

// Run processes activity jobs until the context is cancelled, then drains remaining jobs.
func (w *ActivityWorker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.drain()
			return
		case job := <-w.jobs:
			w.process(job)
		}
	}
}

func (w *ActivityWorker) drain() {
	for {
		select {
		case job := <-w.jobs:
			w.process(job)
		default:
			return
		}
	}
}

func (w *ActivityWorker) process(job *ActivityJob) {
	metrics.ActivityQueueDepth.Set(float64(len(w.jobs)))

	if err := w.recorder.RecordActivity(
		context.Background(), job.Action, job.EntityType, job.EntityID, job.Actor, job.Detail,
	); err != nil {
		w.log.WithError(err).Warn("activity record failed")
	}
}

// recordActivity enqueues a job if an enqueuer is configured.
func recordActivity(q ActivityEnqueuer, action, entityType, entityID, actor string, detail map[string]any) {
	if q == nil {
		return
	}

	q.Enqueue(&ActivityJob{
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Actor:      actor,
		Detail:     detail,
	})
}
