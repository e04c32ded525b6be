package workflow

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"medbank/internal/repository"
)

// Worker runs jobs on a bounded goroutine pool. Jobs are enqueued by
// ID; each runs through Runner.Run to a terminal state. On start the
// worker re-enqueues every non-terminal job so that jobs interrupted by
// a crash resume from their persisted checkpoint.
type Worker struct {
	runner *Runner
	jobs   repository.JobRepo
	log    *logrus.Logger

	queue chan string
	wg    sync.WaitGroup
}

// NewWorker creates a worker pool of the given size.
func NewWorker(runner *Runner, jobs repository.JobRepo, size int, log *logrus.Logger) *Worker {
	if size <= 0 {
		size = 1
	}
	w := &Worker{
		runner: runner,
		jobs:   jobs,
		log:    log,
		queue:  make(chan string, size*16),
	}
	for i := 0; i < size; i++ {
		w.wg.Add(1)
		go w.loop()
	}
	return w
}

// Start recovers jobs left unfinished by a previous process. Steps are
// at-least-once and idempotent, so re-running a half-done job is safe.
func (w *Worker) Start(ctx context.Context) error {
	ids, err := w.jobs.ListUnfinished(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		w.log.WithField("jobId", id).Info("resuming unfinished job")
		w.Enqueue(id)
	}
	return nil
}

// Enqueue schedules a job for execution. Never blocks the caller: when
// the queue is full the job is run on its own goroutine instead.
func (w *Worker) Enqueue(jobID string) {
	select {
	case w.queue <- jobID:
	default:
		go w.runner.Run(context.Background(), jobID)
	}
}

// Stop drains the pool. Queued jobs still run; in-flight steps finish
// and persist their checkpoints, so nothing is lost across a restart.
func (w *Worker) Stop() {
	close(w.queue)
	w.wg.Wait()
}

func (w *Worker) loop() {
	defer w.wg.Done()
	for jobID := range w.queue {
		w.runner.Run(context.Background(), jobID)
	}
}
