// Package orchestrator enumerates the configured sets, turns their cards into
// download tasks and runs those tasks on a fixed pool of workers.
package orchestrator

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/masteraset/cardfetch/internal/apperrors"
	"github.com/masteraset/cardfetch/internal/config"
	"github.com/masteraset/cardfetch/internal/models"
	"github.com/masteraset/cardfetch/internal/naming"
	"github.com/masteraset/cardfetch/internal/report"
	"github.com/masteraset/cardfetch/internal/services"
)

const (
	defaultWorkers   = 8
	defaultImageSize = "small"
)

// Catalog lists sets and their cards.
type Catalog interface {
	ListCards(ctx context.Context, setID string) ([]models.Card, error)
	ListSets(ctx context.Context) ([]models.Set, error)
}

// Orchestrator runs one complete download pass.
type Orchestrator struct {
	apiKey     string
	outputRoot string
	setIDs     []string
	imageSize  string
	workers    int

	catalog    Catalog
	downloader services.ImageDownloader
	reporter   report.Reporter
}

// New creates an orchestrator from an explicit configuration.
func New(cfg *config.Config, catalog Catalog, downloader services.ImageDownloader, reporter report.Reporter) *Orchestrator {
	imageSize := strings.TrimSpace(cfg.ImageSize)
	if imageSize == "" {
		imageSize = defaultImageSize
	}
	workers := cfg.Workers
	if workers < 1 {
		workers = defaultWorkers
	}

	var setIDs []string
	for _, id := range cfg.SetIDs {
		if id = strings.TrimSpace(id); id != "" {
			setIDs = append(setIDs, id)
		}
	}

	return &Orchestrator{
		apiKey:     strings.TrimSpace(cfg.APIKey),
		outputRoot: cfg.OutputRoot,
		setIDs:     setIDs,
		imageSize:  imageSize,
		workers:    workers,
		catalog:    catalog,
		downloader: downloader,
		reporter:   reporter,
	}
}

// Run enumerates every set, then downloads every queued image.
// Set and task failures are reported and tallied, never returned. Run returns an error
// only when it cannot start (missing API key, set listing failed) or ctx is canceled;
// the summary is still returned on cancellation.
func (o *Orchestrator) Run(ctx context.Context) (*models.Summary, error) {
	if o.apiKey == "" {
		return nil, apperrors.NewMissingCredentialError(config.APIKeyEnv)
	}

	started := time.Now()
	logger := config.GetLogger().With().Str("run_id", uuid.NewString()).Logger()
	summary := &models.Summary{OutputRoot: o.outputRoot}

	setIDs, err := o.resolveSets(ctx, logger)
	if err != nil {
		return nil, err
	}
	o.reporter.Start(setIDs, o.imageSize)

	tasks := o.buildTasks(ctx, logger, setIDs, summary)
	summary.TasksQueued = len(tasks)
	o.reporter.Queued(len(tasks))

	if ctx.Err() == nil {
		o.dispatch(ctx, tasks, summary)
	}

	summary.Duration = time.Since(started)
	o.reporter.Finish(summary)

	if err := ctx.Err(); err != nil {
		return summary, fmt.Errorf("run interrupted: %w", err)
	}
	return summary, nil
}

// resolveSets returns the configured set ids, or every catalog set when none are configured.
func (o *Orchestrator) resolveSets(ctx context.Context, logger zerolog.Logger) ([]string, error) {
	if len(o.setIDs) > 0 {
		return o.setIDs, nil
	}

	logger.Info().Msg("No set ids configured, listing every set in the catalog")
	sets, err := o.catalog.ListSets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sets: %w", err)
	}

	ids := make([]string, 0, len(sets))
	for _, s := range sets {
		if s.ID != "" {
			ids = append(ids, s.ID)
		}
	}
	return ids, nil
}

// buildTasks enumerates sets one at a time. A set whose enumeration fails is reported and skipped.
func (o *Orchestrator) buildTasks(ctx context.Context, logger zerolog.Logger, setIDs []string, summary *models.Summary) []models.DownloadTask {
	var tasks []models.DownloadTask
	seen := make(map[string]struct{})

	for _, setID := range setIDs {
		if ctx.Err() != nil {
			break
		}

		cards, err := o.catalog.ListCards(ctx, setID)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			summary.SetsFailed++
			o.reporter.SetFailed(setID, err)
			continue
		}

		summary.SetsProcessed++
		summary.CardsFound += len(cards)
		o.reporter.SetListed(setID, len(cards))

		for _, card := range cards {
			imageURL, ok := SelectImageURL(card.Images, o.imageSize)
			if !ok {
				logger.Debug().Str("set", setID).Str("card", card.ID).Msg("Card has no image, skipping")
				continue
			}

			path := naming.DestinationPath(o.outputRoot, setID, o.imageSize, card, imageURL)
			if _, dup := seen[path]; dup {
				logger.Warn().Str("set", setID).Str("card", card.ID).Str("path", path).Msg("Duplicate destination path, skipping card")
				continue
			}
			seen[path] = struct{}{}

			tasks = append(tasks, models.DownloadTask{
				URL:    imageURL,
				Path:   path,
				SetID:  setID,
				CardID: card.ID,
			})
		}
	}

	return tasks
}

// dispatch feeds tasks through a bounded queue to o.workers goroutines and tallies
// outcomes in completion order. Tasks still queued when ctx is canceled are dropped.
func (o *Orchestrator) dispatch(ctx context.Context, tasks []models.DownloadTask, summary *models.Summary) {
	queue := make(chan models.DownloadTask, o.workers)
	results := make(chan models.Outcome, o.workers)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(queue)
		for _, task := range tasks {
			select {
			case queue <- task:
			case <-gctx.Done():
				return nil
			}
		}
		return nil
	})

	for i := 0; i < o.workers; i++ {
		g.Go(func() error {
			for task := range queue {
				if gctx.Err() != nil {
					continue
				}
				results <- o.downloader.Download(gctx, task)
			}
			return nil
		})
	}

	go func() {
		_ = g.Wait()
		close(results)
	}()

	for outcome := range results {
		summary.Add(outcome)
		o.reporter.Outcome(outcome)
	}
}

// SelectImageURL picks the URL for preferred, then "small", then "large", then the
// first other label in sorted order. Empty URLs are ignored.
func SelectImageURL(images map[string]string, preferred string) (string, bool) {
	for _, label := range []string{preferred, "small", "large"} {
		if u := strings.TrimSpace(images[label]); u != "" {
			return u, true
		}
	}

	labels := make([]string, 0, len(images))
	for label := range images {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	for _, label := range labels {
		if u := strings.TrimSpace(images[label]); u != "" {
			return u, true
		}
	}
	return "", false
}
