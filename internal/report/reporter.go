// Package report turns run events into log lines, stdout text, metrics and
// optional Sentry events.
package report

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog"

	"github.com/masteraset/cardfetch/internal/config"
	"github.com/masteraset/cardfetch/internal/metrics"
	"github.com/masteraset/cardfetch/internal/models"
)

// Reporter receives progress and outcome events from a run.
// Outcome may be called from any goroutine.
type Reporter interface {
	Start(setIDs []string, imageSize string)
	SetListed(setID string, cards int)
	SetFailed(setID string, err error)
	Queued(tasks int)
	Outcome(o models.Outcome)
	Finish(summary *models.Summary)
}

// ErrorCapturer sends errors to an external tracker. *sentry.Hub satisfies it.
type ErrorCapturer interface {
	CaptureException(exception error) *sentry.EventID
}

// ConsoleReporter logs progress with zerolog and prints FAIL lines and the final
// tally to a writer.
type ConsoleReporter struct {
	out      io.Writer
	logger   zerolog.Logger
	capturer ErrorCapturer // nil disables capture

	mu sync.Mutex // serializes writes to out
}

// Option configures a ConsoleReporter.
type Option func(*ConsoleReporter)

// WithWriter sets where FAIL lines and the summary are printed. Defaults to stdout.
func WithWriter(w io.Writer) Option {
	return func(r *ConsoleReporter) { r.out = w }
}

// WithLogger overrides the logger used for progress markers.
func WithLogger(logger zerolog.Logger) Option {
	return func(r *ConsoleReporter) { r.logger = logger }
}

// WithErrorCapturer forwards set and task failures to c.
func WithErrorCapturer(c ErrorCapturer) Option {
	return func(r *ConsoleReporter) { r.capturer = c }
}

// NewConsoleReporter creates a reporter writing to stdout by default.
func NewConsoleReporter(opts ...Option) *ConsoleReporter {
	r := &ConsoleReporter{
		out:    os.Stdout,
		logger: config.GetLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *ConsoleReporter) Start(setIDs []string, imageSize string) {
	r.logger.Info().
		Int("sets", len(setIDs)).
		Str("set_ids", strings.Join(setIDs, ",")).
		Str("image_size", imageSize).
		Msg("Sets to process")
}

func (r *ConsoleReporter) SetListed(setID string, cards int) {
	r.logger.Info().Str("set", setID).Int("cards", cards).Msg("Cards found")
}

func (r *ConsoleReporter) SetFailed(setID string, err error) {
	metrics.SetEnumerationFailuresTotal.Inc()
	r.logger.Error().Err(err).Str("set", setID).Msg("Failed to enumerate set, skipping")
	r.capture(fmt.Errorf("enumerate set %s: %w", setID, err))
}

func (r *ConsoleReporter) Queued(tasks int) {
	r.logger.Info().Int("tasks", tasks).Msg("Images queued")
}

func (r *ConsoleReporter) Outcome(o models.Outcome) {
	metrics.ImageDownloadsTotal.WithLabelValues(string(o.Status)).Inc()
	if o.Status != models.OutcomeFail {
		return
	}

	r.mu.Lock()
	fmt.Fprintf(r.out, "FAIL: %s\n", o.Detail())
	r.mu.Unlock()

	r.capture(fmt.Errorf("download %s: %w", o.Task.URL, o.Err))
}

func (r *ConsoleReporter) Finish(s *models.Summary) {
	r.logger.Info().
		Int("downloaded", s.Downloaded).
		Int("skipped", s.Skipped).
		Int("failed", s.Failed).
		Int("sets_failed", s.SetsFailed).
		Dur("duration", s.Duration).
		Msg("Run finished")

	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, "Done.")
	fmt.Fprintf(r.out, "Downloaded: %d\n", s.Downloaded)
	fmt.Fprintf(r.out, "Skipped: %d\n", s.Skipped)
	fmt.Fprintf(r.out, "Failed: %d\n", s.Failed)
	fmt.Fprintf(r.out, "Output folder: %s\n", s.OutputRoot)
}

func (r *ConsoleReporter) capture(err error) {
	if r.capturer == nil || err == nil {
		return
	}
	r.capturer.CaptureException(err)
}
