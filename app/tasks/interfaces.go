package tasks

import (
	"context"

	"github.com/lysyi3m/card-preview/app/extraction"
)

// TaskSchedulerInterface defines the interface for task scheduling operations.
// Used by the main application to manage background website extraction.
// Example usage:
//
//	scheduler := NewScheduler(websiteRepo, orchestrator, Options{Interval: 5 * time.Second, WorkerCount: 3})
//	scheduler.Start()
//	defer scheduler.Stop()
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}

// Extractor runs a single extraction attempt.
type Extractor interface {
	Run(ctx context.Context, req extraction.Request) (extraction.Result, error)
}
