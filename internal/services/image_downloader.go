package services

import (
	"context"

	"github.com/masteraset/cardfetch/internal/models"
)

// ImageFetcher returns the raw bytes behind an image URL.
type ImageFetcher interface {
	FetchImage(ctx context.Context, imageURL string) ([]byte, error)
}

// ImageDownloader defines the interface for executing a single download task
type ImageDownloader interface {
	// Download writes the task's image to its path, or skips it when a complete
	// file is already there. Failures are reported in the Outcome, never returned.
	Download(ctx context.Context, task models.DownloadTask) models.Outcome
}
