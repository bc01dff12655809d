package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var _ WebsiteRepository = (*WebsiteRepo)(nil)

// WebsiteRepo handles database operations for websites
type WebsiteRepo struct {
	db *DB
}

func NewWebsiteRepository(db *DB) *WebsiteRepo {
	return &WebsiteRepo{db: db}
}

// CreateWebsite stores a new website in pending state
func (r *WebsiteRepo) CreateWebsite(url, snapshotHTML string) (*Website, error) {
	now := time.Now().UTC()
	w := &Website{
		ID:           uuid.NewString(),
		URL:          url,
		Status:       StatusPending,
		SnapshotHTML: snapshotHTML,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err := r.db.Exec(`
		INSERT INTO websites (id, url, status, snapshot_html, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, w.ID, w.URL, string(w.Status), w.SnapshotHTML, w.CreatedAt, w.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create website: %w", err)
	}

	return w, nil
}

// GetWebsite returns nil when no website has the given ID
func (r *WebsiteRepo) GetWebsite(id string) (*Website, error) {
	var (
		w           Website
		status      string
		extractedAt sql.NullTime
	)
	err := r.db.QueryRow(`
		SELECT id, url, status, attempts, source, strategy, snapshot_html, raw_html, screenshot_path,
		       title, author, excerpt, html, image, text, markdown, last_error,
		       created_at, updated_at, extracted_at
		FROM websites
		WHERE id = ?
	`, id).Scan(
		&w.ID, &w.URL, &status, &w.Attempts, &w.Source, &w.Strategy, &w.SnapshotHTML, &w.RawHTML, &w.ScreenshotPath,
		&w.Title, &w.Author, &w.Excerpt, &w.HTML, &w.Image, &w.Text, &w.Markdown, &w.LastError,
		&w.CreatedAt, &w.UpdatedAt, &extractedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get website: %w", err)
	}

	w.Status = Status(status)
	if extractedAt.Valid {
		t := extractedAt.Time
		w.ExtractedAt = &t
	}

	return &w, nil
}

func (r *WebsiteRepo) GetWebsiteCount() (int, error) {
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM websites`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count websites: %w", err)
	}
	return count, nil
}

// ClaimPendingWebsites moves up to limit pending websites, oldest first, to
// processing and returns them.
func (r *WebsiteRepo) ClaimPendingWebsites(limit int) ([]WebsiteForExtraction, error) {
	rows, err := r.db.Query(`
		UPDATE websites
		SET status = ?, updated_at = ?
		WHERE id IN (
			SELECT id FROM websites
			WHERE status = ?
			ORDER BY created_at
			LIMIT ?
		)
		RETURNING id, url, snapshot_html, attempts
	`, string(StatusProcessing), time.Now().UTC(), string(StatusPending), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to claim pending websites: %w", err)
	}
	defer rows.Close()

	var websites []WebsiteForExtraction
	for rows.Next() {
		var w WebsiteForExtraction
		if err := rows.Scan(&w.ID, &w.URL, &w.SnapshotHTML, &w.Attempts); err != nil {
			return nil, fmt.Errorf("failed to scan website row: %w", err)
		}
		websites = append(websites, w)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating website rows: %w", err)
	}

	return websites, nil
}

// ResetProcessingWebsites returns websites left in processing by a previous
// run to pending.
func (r *WebsiteRepo) ResetProcessingWebsites() (int, error) {
	res, err := r.db.Exec(`
		UPDATE websites SET status = ?, updated_at = ? WHERE status = ?
	`, string(StatusPending), time.Now().UTC(), string(StatusProcessing))
	if err != nil {
		return 0, fmt.Errorf("failed to reset processing websites: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return int(n), nil
}

// ReleaseWebsite returns a claimed website to pending so a later tick picks it up again.
func (r *WebsiteRepo) ReleaseWebsite(id string) error {
	_, err := r.db.Exec(`
		UPDATE websites SET status = ?, updated_at = ? WHERE id = ? AND status = ?
	`, string(StatusPending), time.Now().UTC(), id, string(StatusProcessing))
	if err != nil {
		return fmt.Errorf("failed to release website: %w", err)
	}
	return nil
}

func (r *WebsiteRepo) UpdateAttempts(id string, attempts int) error {
	_, err := r.db.Exec(`
		UPDATE websites SET attempts = ?, updated_at = ? WHERE id = ?
	`, attempts, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update attempts: %w", err)
	}
	return nil
}

// SaveExtraction stores a terminal extraction result. Parsed fields are
// replaced, not merged.
func (r *WebsiteRepo) SaveExtraction(id string, attempts int, result ExtractionResult) error {
	now := time.Now().UTC()
	_, err := r.db.Exec(`
		UPDATE websites
		SET status = ?, attempts = ?, source = ?, strategy = ?, raw_html = ?, screenshot_path = ?,
		    title = ?, author = ?, excerpt = ?, html = ?, image = ?, text = ?, markdown = ?,
		    last_error = '', updated_at = ?, extracted_at = ?
		WHERE id = ?
	`, string(result.Status), attempts, result.Source, result.Strategy, result.RawHTML, result.ScreenshotPath,
		result.Title, result.Author, result.Excerpt, result.HTML, result.Image, result.Text, result.Markdown,
		now, now, id)
	if err != nil {
		return fmt.Errorf("failed to save extraction: %w", err)
	}
	return nil
}

func (r *WebsiteRepo) MarkFailed(id string, attempts int, errMsg string) error {
	_, err := r.db.Exec(`
		UPDATE websites SET status = ?, attempts = ?, last_error = ?, updated_at = ? WHERE id = ?
	`, string(StatusFailed), attempts, errMsg, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to mark website failed: %w", err)
	}
	return nil
}
