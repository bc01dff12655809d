package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lysyi3m/card-preview/app/database"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

const (
	queueSize       = 300
	taskTimeout     = 5 * time.Minute
	maxRetryDelay   = 30 * time.Second
	defaultBatch    = 20
	defaultRetryGap = time.Second
)

type Options struct {
	Interval    time.Duration
	WorkerCount int
	BatchSize   int
	// RetryDelay is the backoff base; the n-th retry waits RetryDelay * 2^(n-1).
	RetryDelay time.Duration
}

type Scheduler struct {
	websiteRepo database.WebsiteRepository
	extractor   Extractor
	interval    time.Duration
	workerCount int
	batchSize   int
	retryDelay  time.Duration
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	taskQueue   chan TaskInterface
}

func NewScheduler(websiteRepo database.WebsiteRepository, extractor Extractor, opts Options) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatch
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = defaultRetryGap
	}

	return &Scheduler{
		websiteRepo: websiteRepo,
		extractor:   extractor,
		interval:    opts.Interval,
		workerCount: opts.WorkerCount,
		batchSize:   opts.BatchSize,
		retryDelay:  opts.RetryDelay,
		ctx:         ctx,
		cancel:      cancel,
		taskQueue:   make(chan TaskInterface, queueSize),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueueStartupTasks()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueTasks()
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	close(s.taskQueue)
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

// enqueueStartupTasks requeues websites a previous run left in processing.
func (s *Scheduler) enqueueStartupTasks() {
	n, err := s.websiteRepo.ResetProcessingWebsites()
	if err != nil {
		slog.Warn("Failed to reset interrupted websites", "error", err)
	} else if n > 0 {
		slog.Info("Requeued interrupted websites", "count", n)
	}

	s.enqueueTasks()
}

func (s *Scheduler) enqueueTasks() {
	free := cap(s.taskQueue) - len(s.taskQueue)
	limit := min(s.batchSize, free)
	if limit <= 0 {
		slog.Debug("Task queue is full, skipping tick")
		return
	}

	websites, err := s.websiteRepo.ClaimPendingWebsites(limit)
	if err != nil {
		slog.Warn("Failed to claim pending websites", "error", err)
		return
	}
	if len(websites) == 0 {
		return
	}

	slog.Debug("Claimed pending websites", "count", len(websites))

	for _, w := range websites {
		task := NewExtractWebsiteTask(w, s.extractor, s.websiteRepo)
		if err := s.EnqueueTask(task); err != nil {
			slog.Warn("Failed to enqueue ExtractWebsiteTask", "website", w.ID, "error", err)
			s.release(w.ID)
		}
	}
}

func (s *Scheduler) release(websiteID string) {
	if err := s.websiteRepo.ReleaseWebsite(websiteID); err != nil {
		slog.Error("Failed to release website", "website", websiteID, "error", err)
	}
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task, ok := <-s.taskQueue:
			if !ok {
				return
			}
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, taskTimeout)
	defer cancel()

	err := task.Execute(taskCtx)
	if err == nil {
		return
	}

	if errors.Is(err, ErrRetryRequested) {
		slog.Debug("Task requested retry", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount())
	} else {
		slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)
	}

	if !task.CanRetry() {
		slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		return
	}

	task.IncrementRetryCount()
	retryDelay := s.retryDelay * time.Duration(1<<uint(task.GetRetryCount()-1))
	if retryDelay > maxRetryDelay {
		retryDelay = maxRetryDelay
	}

	slog.Debug("Task retry scheduled", "type", string(task.GetType()), "website", task.GetWebsiteID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		select {
		case <-s.ctx.Done():
			slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
			s.release(task.GetWebsiteID())
			return
		case <-time.After(retryDelay):
		}

		if retryErr := s.EnqueueTask(task); retryErr != nil {
			slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
			s.release(task.GetWebsiteID())
		}
	}()
}
