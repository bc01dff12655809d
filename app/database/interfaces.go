package database

type WebsiteRepository interface {
	CreateWebsite(url, snapshotHTML string) (*Website, error)
	GetWebsite(id string) (*Website, error)
	GetWebsiteCount() (int, error)

	ClaimPendingWebsites(limit int) ([]WebsiteForExtraction, error)
	ResetProcessingWebsites() (int, error)
	ReleaseWebsite(id string) error

	UpdateAttempts(id string, attempts int) error
	SaveExtraction(id string, attempts int, result ExtractionResult) error
	MarkFailed(id string, attempts int, errMsg string) error
}
