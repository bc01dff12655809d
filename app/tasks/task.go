package tasks

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/lysyi3m/card-preview/app/extraction"
)

type TaskType string

const (
	TaskTypeExtractWebsite TaskType = "extract_website"
)

// DefaultMaxRetries lets a task run attempts 0 through the document service attempt.
const DefaultMaxRetries = extraction.DocumentServiceAttempt

type TaskInterface interface {
	Execute(ctx context.Context) error
	GetID() string
	GetType() TaskType
	GetWebsiteID() string
	GetRetryCount() int
	GetMaxRetries() int
	IncrementRetryCount()
	CanRetry() bool
	Start()
	GetDuration() time.Duration
}

type Task struct {
	ID         string
	Type       TaskType
	WebsiteID  string
	RetryCount int
	MaxRetries int
	StartedAt  *time.Time
}

func (t *Task) GetID() string {
	return t.ID
}

func (t *Task) GetType() TaskType {
	return t.Type
}

func (t *Task) GetWebsiteID() string {
	return t.WebsiteID
}

func (t *Task) GetRetryCount() int {
	return t.RetryCount
}

func (t *Task) GetMaxRetries() int {
	return t.MaxRetries
}

func (t *Task) IncrementRetryCount() {
	t.RetryCount++
}

func (t *Task) CanRetry() bool {
	return t.RetryCount < t.MaxRetries
}

func (t *Task) Start() {
	now := time.Now()
	t.StartedAt = &now
}

func (t *Task) GetDuration() time.Duration {
	if t.StartedAt == nil {
		return 0
	}
	return time.Since(*t.StartedAt)
}

func NewTask(taskType TaskType, websiteID string) Task {
	uniqueID := fmt.Sprintf("%d-%d", time.Now().UnixNano(), rand.Intn(10000))

	return Task{
		ID:         uniqueID,
		Type:       taskType,
		WebsiteID:  websiteID,
		RetryCount: 0,
		MaxRetries: DefaultMaxRetries,
	}
}
