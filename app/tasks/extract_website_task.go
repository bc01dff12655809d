package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/card-preview/app/database"
	"github.com/lysyi3m/card-preview/app/extraction"
)

// ErrRetryRequested is returned when the attempt produced nothing and the
// next attempt index should be tried.
var ErrRetryRequested = errors.New("extraction requested another attempt")

type ExtractWebsiteTask struct {
	Task
	URL          string
	SnapshotHTML string
	extractor    Extractor
	websiteRepo  database.WebsiteRepository
}

// NewExtractWebsiteTask resumes from the attempts already recorded for the website.
func NewExtractWebsiteTask(w database.WebsiteForExtraction, extractor Extractor, websiteRepo database.WebsiteRepository) *ExtractWebsiteTask {
	task := NewTask(TaskTypeExtractWebsite, w.ID)
	task.RetryCount = min(w.Attempts, task.MaxRetries)

	return &ExtractWebsiteTask{
		Task:         task,
		URL:          w.URL,
		SnapshotHTML: w.SnapshotHTML,
		extractor:    extractor,
		websiteRepo:  websiteRepo,
	}
}

// Execute runs the attempt matching the task's retry count.
func (t *ExtractWebsiteTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	attempt := t.RetryCount

	res, err := t.extractor.Run(ctx, extraction.Request{
		URL:     t.URL,
		HTML:    t.SnapshotHTML,
		Attempt: attempt,
	})
	if err != nil {
		return t.fail(attempt, err)
	}

	switch res.Status {
	case extraction.StatusRetry:
		return t.fail(attempt, fmt.Errorf("attempt %d: %w", attempt, ErrRetryRequested))
	case extraction.StatusEmpty:
		if err := t.websiteRepo.SaveExtraction(t.WebsiteID, attempt+1, database.ExtractionResult{
			Status:   database.StatusEmpty,
			Source:   string(res.Source),
			Strategy: res.Strategy.String(),
		}); err != nil {
			return fmt.Errorf("failed to save empty extraction: %w", err)
		}
	default:
		if err := t.websiteRepo.SaveExtraction(t.WebsiteID, attempt+1, toExtractionResult(res)); err != nil {
			return fmt.Errorf("failed to save extraction: %w", err)
		}
	}

	slog.Info("Task completed",
		"type", t.GetType(),
		"website", t.WebsiteID,
		"url", t.URL,
		"attempt", attempt,
		"status", res.Status.String(),
		"source", string(res.Source),
		"duration", t.GetDuration())

	return nil
}

// fail records the attempt and hands err back to the scheduler. On the last
// attempt the website is marked failed.
func (t *ExtractWebsiteTask) fail(attempt int, err error) error {
	if t.CanRetry() {
		if uerr := t.websiteRepo.UpdateAttempts(t.WebsiteID, attempt+1); uerr != nil {
			slog.Warn("Failed to record extraction attempt", "website", t.WebsiteID, "error", uerr)
		}
		return err
	}

	if merr := t.websiteRepo.MarkFailed(t.WebsiteID, attempt+1, err.Error()); merr != nil {
		slog.Error("Failed to mark website failed", "website", t.WebsiteID, "error", merr)
	}
	return err
}

func toExtractionResult(res extraction.Result) database.ExtractionResult {
	r := database.ExtractionResult{
		Status:   database.StatusDone,
		Source:   string(res.Source),
		Strategy: res.Strategy.String(),
	}
	if w := res.Website; w != nil {
		r.RawHTML = w.RawHTML
		r.ScreenshotPath = w.ScreenshotPath
		r.Title = w.Title
		r.Author = w.Author
		r.Excerpt = w.Excerpt
		r.HTML = w.HTML
		r.Image = w.Image
		r.Text = w.Text
		r.Markdown = w.Markdown
	}
	return r
}
