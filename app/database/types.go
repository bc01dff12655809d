package database

import (
	"time"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusDone       Status = "done"
	StatusEmpty      Status = "empty" // nothing extractable and no URL to fall back on
	StatusFailed     Status = "failed"
)

type Website struct {
	ID             string
	URL            string
	Status         Status
	Attempts       int
	Source         string // fetch path that produced the stored fields
	Strategy       string
	SnapshotHTML   string // HTML submitted by the client, if any
	RawHTML        string // HTML the stored fields were parsed from
	ScreenshotPath string
	Title          string
	Author         string
	Excerpt        string
	HTML           string
	Image          string
	Text           string
	Markdown       string
	LastError      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	ExtractedAt    *time.Time
}

type WebsiteForExtraction struct {
	ID           string
	URL          string
	SnapshotHTML string
	Attempts     int
}

type ExtractionResult struct {
	Status         Status
	Source         string
	Strategy       string
	RawHTML        string
	ScreenshotPath string
	Title          string
	Author         string
	Excerpt        string
	HTML           string
	Image          string
	Text           string
	Markdown       string
}
