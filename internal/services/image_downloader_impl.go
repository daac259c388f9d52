package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/masteraset/cardfetch/internal/config"
	"github.com/masteraset/cardfetch/internal/models"
)

// DefaultMinFileSize is the size above which an existing file counts as downloaded.
const DefaultMinFileSize int64 = 10_000

// FileImageDownloader implements ImageDownloader on the local filesystem
type FileImageDownloader struct {
	fetcher     ImageFetcher
	minFileSize int64
}

// NewImageDownloader creates a downloader that skips existing files larger than
// minFileSize bytes. A non-positive minFileSize uses DefaultMinFileSize.
func NewImageDownloader(fetcher ImageFetcher, minFileSize int64) ImageDownloader {
	if minFileSize <= 0 {
		minFileSize = DefaultMinFileSize
	}
	return &FileImageDownloader{
		fetcher:     fetcher,
		minFileSize: minFileSize,
	}
}

// Download implements ImageDownloader.
// The skip check trusts file size only; a truncated file above the threshold is kept.
func (d *FileImageDownloader) Download(ctx context.Context, task models.DownloadTask) models.Outcome {
	logger := config.GetLogger()

	if d.alreadyDownloaded(task.Path) {
		logger.Debug().Str("path", task.Path).Msg("Image already present, skipping")
		return models.Outcome{Status: models.OutcomeSkip, Task: task}
	}

	if err := ctx.Err(); err != nil {
		return fail(task, err)
	}

	if err := os.MkdirAll(filepath.Dir(task.Path), 0o755); err != nil {
		return fail(task, fmt.Errorf("create directory: %w", err))
	}

	body, err := d.fetcher.FetchImage(ctx, task.URL)
	if err != nil {
		return fail(task, err)
	}

	if err := os.WriteFile(task.Path, body, 0o644); err != nil {
		return fail(task, fmt.Errorf("write file: %w", err))
	}

	logger.Debug().
		Str("set", task.SetID).
		Str("card", task.CardID).
		Str("path", task.Path).
		Int("bytes", len(body)).
		Msg("Image downloaded")

	return models.Outcome{Status: models.OutcomeOK, Task: task}
}

func (d *FileImageDownloader) alreadyDownloaded(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular() && info.Size() > d.minFileSize
}

func fail(task models.DownloadTask, err error) models.Outcome {
	return models.Outcome{Status: models.OutcomeFail, Task: task, Err: err}
}
