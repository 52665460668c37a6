package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/sjperalta/techlog-api/pkg/logger"
)

// Job represents a background task
type Job func(ctx context.Context) error

type namedJob struct {
	name string
	run  Job
}

// Worker runs queued jobs on a fixed pool, fire-and-forget jobs on bounded goroutines,
// and recurring jobs on tickers
type Worker struct {
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
	queue         chan namedJob
	asyncSem      chan struct{}
	maxConcurrent int

	mu        sync.RWMutex
	closed    bool
	stats     WorkerStats
	scheduled []string
}

// WorkerStats holds statistics about the worker. CompletedJobs counts every finished job,
// failed ones included.
type WorkerStats struct {
	ActiveJobs    int      `json:"active_jobs"`
	CompletedJobs int64    `json:"completed_jobs"`
	FailedJobs    int64    `json:"failed_jobs"`
	QueueLength   int      `json:"queue_length"`
	MaxConcurrent int      `json:"max_concurrent"`
	Scheduled     []string `json:"scheduled"`
}

// NewWorker creates a worker with N queue processors
func NewWorker(numWorkers int) *Worker {
	if numWorkers < 1 {
		numWorkers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	asyncLimit := numWorkers * 2
	if asyncLimit < 10 {
		asyncLimit = 10
	}

	w := &Worker{
		ctx:           ctx,
		cancel:        cancel,
		queue:         make(chan namedJob, 100),
		asyncSem:      make(chan struct{}, asyncLimit),
		maxConcurrent: asyncLimit,
	}

	for i := 0; i < numWorkers; i++ {
		w.wg.Add(1)
		go w.process(i)
	}

	return w
}

// Enqueue adds a job to the pool queue. When the queue is full the job runs on the caller.
func (w *Worker) Enqueue(name string, job Job) {
	w.mu.RLock()
	if w.closed {
		w.mu.RUnlock()
		logger.Warn("Worker stopped, dropping job", "job", name)
		return
	}

	select {
	case w.queue <- namedJob{name: name, run: job}:
		w.mu.RUnlock()
	default:
		w.mu.RUnlock()
		logger.Warn("Worker queue full, running job synchronously", "job", name)
		w.run("sync", namedJob{name: name, run: job})
	}
}

// EnqueueAsync runs a job on its own goroutine, bounded by a semaphore
func (w *Worker) EnqueueAsync(name string, job Job) {
	w.mu.RLock()
	if w.closed {
		w.mu.RUnlock()
		logger.Warn("Worker stopped, dropping async job", "job", name)
		return
	}
	w.wg.Add(1)
	w.mu.RUnlock()

	go func() {
		defer w.wg.Done()
		w.asyncSem <- struct{}{}
		defer func() { <-w.asyncSem }()
		w.run("async", namedJob{name: name, run: job})
	}()
}

// ScheduleEvery runs a job at fixed intervals. The first run happens after one interval.
func (w *Worker) ScheduleEvery(name string, interval time.Duration, job Job) {
	w.mu.Lock()
	w.scheduled = append(w.scheduled, name)
	w.mu.Unlock()

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-w.ctx.Done():
				return
			case <-ticker.C:
				w.run("scheduler", namedJob{name: name, run: job})
			}
		}
	}()
}

func (w *Worker) process(workerID int) {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case job, ok := <-w.queue:
			if !ok {
				return
			}
			w.run("pool", job)
		}
	}
}

// run executes one job, recovering panics and tracking stats
func (w *Worker) run(runner string, job namedJob) {
	w.track(func(s *WorkerStats) { s.ActiveJobs++ })
	start := time.Now()
	failed := false

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panic", "runner", runner, "job", job.name, "panic", r)
			failed = true
		}
		w.track(func(s *WorkerStats) {
			s.ActiveJobs--
			s.CompletedJobs++
			if failed {
				s.FailedJobs++
			}
		})
	}()

	if err := job.run(w.ctx); err != nil {
		failed = true
		logger.Error("Job failed", "runner", runner, "job", job.name, "error", err)
		return
	}
	logger.Debug("Job completed", "runner", runner, "job", job.name, "duration", time.Since(start))
}

func (w *Worker) track(update func(s *WorkerStats)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	update(&w.stats)
}

// Shutdown stops accepting jobs, cancels the worker context and waits for running jobs
func (w *Worker) Shutdown() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	w.mu.Unlock()

	w.cancel()
	w.wg.Wait()
}

// GetStats returns the current worker statistics
func (w *Worker) GetStats() WorkerStats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	stats := w.stats
	stats.QueueLength = len(w.queue)
	stats.MaxConcurrent = w.maxConcurrent
	stats.Scheduled = append([]string(nil), w.scheduled...)
	return stats
}
