package api

import (
	"context"
	"time"

	"github.com/lysyi3m/card-preview/app/authwall"
	"github.com/lysyi3m/card-preview/app/database"
)

type AuthWallChecker interface {
	IsAuthWalled(ctx context.Context, url, snapshotHTML string) bool
}

var _ AuthWallChecker = (*authwall.Detector)(nil)

type Handler struct {
	websiteRepo database.WebsiteRepository
	authWall    AuthWallChecker
	version     string
}

type createWebsiteRequest struct {
	URL  string `json:"url" binding:"omitempty,url"`
	HTML string `json:"html"`
}

type authWallRequest struct {
	URL  string `json:"url" binding:"required,url"`
	HTML string `json:"html" binding:"required"`
}

type websiteResponse struct {
	ID             string     `json:"id"`
	URL            string     `json:"url"`
	Status         string     `json:"status"`
	Attempts       int        `json:"attempts"`
	Source         string     `json:"source,omitempty"`
	Strategy       string     `json:"strategy,omitempty"`
	ScreenshotPath string     `json:"screenshot_path,omitempty"`
	Title          string     `json:"title,omitempty"`
	Author         string     `json:"author,omitempty"`
	Excerpt        string     `json:"excerpt,omitempty"`
	HTML           string     `json:"html,omitempty"`
	Image          string     `json:"image,omitempty"`
	Text           string     `json:"text,omitempty"`
	Markdown       string     `json:"markdown,omitempty"`
	Error          string     `json:"error,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	ExtractedAt    *time.Time `json:"extracted_at,omitempty"`
}

func newWebsiteResponse(w *database.Website) websiteResponse {
	return websiteResponse{
		ID:             w.ID,
		URL:            w.URL,
		Status:         string(w.Status),
		Attempts:       w.Attempts,
		Source:         w.Source,
		Strategy:       w.Strategy,
		ScreenshotPath: w.ScreenshotPath,
		Title:          w.Title,
		Author:         w.Author,
		Excerpt:        w.Excerpt,
		HTML:           w.HTML,
		Image:          w.Image,
		Text:           w.Text,
		Markdown:       w.Markdown,
		Error:          w.LastError,
		CreatedAt:      w.CreatedAt,
		UpdatedAt:      w.UpdatedAt,
		ExtractedAt:    w.ExtractedAt,
	}
}
