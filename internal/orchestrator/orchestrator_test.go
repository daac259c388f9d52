package orchestrator

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/masteraset/cardfetch/internal/apperrors"
	"github.com/masteraset/cardfetch/internal/client"
	"github.com/masteraset/cardfetch/internal/config"
	"github.com/masteraset/cardfetch/internal/models"
	"github.com/masteraset/cardfetch/internal/services"
	"github.com/masteraset/cardfetch/internal/testutil"
)

type recordingReporter struct {
	mu         sync.Mutex
	started    []string
	listed     map[string]int
	failedSets []string
	queued     int
	outcomes   []models.Outcome
	finished   *models.Summary
}

func newRecordingReporter() *recordingReporter {
	return &recordingReporter{listed: make(map[string]int)}
}

func (r *recordingReporter) Start(setIDs []string, imageSize string) { r.started = setIDs }
func (r *recordingReporter) SetListed(setID string, cards int)       { r.listed[setID] = cards }
func (r *recordingReporter) SetFailed(setID string, err error) {
	r.failedSets = append(r.failedSets, setID)
}
func (r *recordingReporter) Queued(tasks int) { r.queued = tasks }
func (r *recordingReporter) Outcome(o models.Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, o)
}
func (r *recordingReporter) Finish(s *models.Summary) { r.finished = s }

type harness struct {
	server   *testutil.CatalogServer
	cfg      *config.Config
	reporter *recordingReporter
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	server := testutil.NewCatalogServer(t)
	server.RequireAPIKey("test-key")

	cfg := &config.Config{
		APIBaseURL:    server.URL,
		APIKey:        "test-key",
		ClientTimeout: "10s",
		OutputRoot:    t.TempDir(),
		SetIDs:        []string{"base1"},
		ImageSize:     "small",
		Workers:       4,
		PageSize:      100,
		PageDelay:     "1ms",
		MinFileSize:   10_000,
	}
	cfg.Retry.MaxAttempts = 2
	cfg.Retry.BaseDelay = "1ms"
	cfg.Retry.MaxDelay = "2ms"
	cfg.Retry.JitterStep = "1ms"

	return &harness{server: server, cfg: cfg, reporter: newRecordingReporter()}
}

func (h *harness) run(t *testing.T, ctx context.Context) (*models.Summary, error) {
	t.Helper()
	c := client.NewClient(h.cfg)
	t.Cleanup(func() { _ = c.Close() })

	h.reporter = newRecordingReporter()
	o := New(h.cfg, c, services.NewImageDownloader(c, h.cfg.MinFileSize), h.reporter)
	return o.Run(ctx)
}

func TestRun_DownloadsEverySetImage(t *testing.T) {
	h := newHarness(t)
	h.server.AddSet("base1", 12)

	summary, err := h.run(t, context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if summary.Downloaded != 12 || summary.Skipped != 0 || summary.Failed != 0 {
		t.Errorf("Unexpected tally: %+v", summary)
	}
	if summary.TasksQueued != 12 || summary.CardsFound != 12 || summary.SetsProcessed != 1 {
		t.Errorf("Unexpected counts: %+v", summary)
	}

	path := filepath.Join(h.cfg.OutputRoot, "base1", "small", "001_card_1_base1-1.png")
	if _, err := os.Stat(path); err != nil {
		t.Errorf("Expected %s to exist: %v", path, err)
	}
	if h.reporter.finished != summary {
		t.Error("Expected the reporter to receive the final summary")
	}
	if len(h.reporter.outcomes) != 12 {
		t.Errorf("Expected 12 reported outcomes, got %d", len(h.reporter.outcomes))
	}
}

func TestRun_RerunSkipsButStillEnumerates(t *testing.T) {
	h := newHarness(t)
	h.server.AddSet("base1", 5)

	if _, err := h.run(t, context.Background()); err != nil {
		t.Fatalf("First run failed: %v", err)
	}
	cardRequests := h.server.CardRequests()
	imageRequests := h.server.ImageRequests()

	summary, err := h.run(t, context.Background())
	if err != nil {
		t.Fatalf("Second run failed: %v", err)
	}

	if summary.Skipped != 5 || summary.Downloaded != 0 || summary.Failed != 0 {
		t.Errorf("Expected every task to be skipped, got %+v", summary)
	}
	if h.server.ImageRequests() != imageRequests {
		t.Errorf("Expected no image requests on rerun, got %d new", h.server.ImageRequests()-imageRequests)
	}
	if h.server.CardRequests() <= cardRequests {
		t.Error("Expected the rerun to enumerate the catalog again")
	}
}

func TestRun_FailedSetIsSkipped(t *testing.T) {
	h := newHarness(t)
	h.server.AddSet("broken", 3)
	h.server.FailCards("broken", http.StatusNotFound)
	h.server.AddSet("base1", 4)
	h.cfg.SetIDs = []string{"broken", "base1"}

	summary, err := h.run(t, context.Background())
	if err != nil {
		t.Fatalf("Expected the run to continue past a failed set, got: %v", err)
	}

	if summary.SetsFailed != 1 || summary.SetsProcessed != 1 {
		t.Errorf("Expected 1 failed and 1 processed set, got %+v", summary)
	}
	if summary.Downloaded != 4 {
		t.Errorf("Expected 4 downloads from the healthy set, got %d", summary.Downloaded)
	}
	if len(h.reporter.failedSets) != 1 || h.reporter.failedSets[0] != "broken" {
		t.Errorf("Expected broken to be reported, got %v", h.reporter.failedSets)
	}
}

func TestRun_FallbackSizeKeepsConfiguredLabel(t *testing.T) {
	h := newHarness(t)
	largeURL := h.server.AddImage("/images/base1/72_hires.png", testutil.PNGBody)
	h.server.SetCards("base1", []models.Card{{
		ID:     "base1-72",
		Name:   "Devolution Spray",
		Number: "72",
		Images: map[string]string{"large": largeURL},
	}})

	summary, err := h.run(t, context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if summary.Downloaded != 1 {
		t.Fatalf("Expected 1 download, got %+v", summary)
	}

	outcome := h.reporter.outcomes[0]
	if outcome.Task.URL != largeURL {
		t.Errorf("Expected the large URL, got %q", outcome.Task.URL)
	}
	expected := filepath.Join(h.cfg.OutputRoot, "base1", "small", "072_devolution_spray_base1-72.png")
	if outcome.Task.Path != expected {
		t.Errorf("Expected %q, got %q", expected, outcome.Task.Path)
	}
}

func TestRun_CardWithoutImagesIsNotQueued(t *testing.T) {
	h := newHarness(t)
	smallURL := h.server.AddImage("/images/base1/1.png", testutil.PNGBody)
	h.server.SetCards("base1", []models.Card{
		{ID: "base1-1", Name: "Alakazam", Number: "1", Images: map[string]string{"small": smallURL}},
		{ID: "base1-2", Name: "Blastoise", Number: "2"},
		{ID: "base1-3", Name: "Chansey", Number: "3", Images: map[string]string{"small": ""}},
	})

	summary, err := h.run(t, context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if summary.CardsFound != 3 || summary.TasksQueued != 1 {
		t.Errorf("Expected 3 cards and 1 task, got %+v", summary)
	}
	if h.reporter.queued != 1 {
		t.Errorf("Expected 1 queued task reported, got %d", h.reporter.queued)
	}
}

func TestRun_ImageFailureIsTallied(t *testing.T) {
	h := newHarness(t)
	h.server.AddSet("base1", 3)
	h.server.FailImage("/images/base1/2.png", http.StatusForbidden)

	summary, err := h.run(t, context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if summary.Downloaded != 2 || summary.Failed != 1 {
		t.Errorf("Expected 2 ok and 1 fail, got %+v", summary)
	}

	for _, o := range h.reporter.outcomes {
		if o.Status == models.OutcomeFail && !errors.Is(o.Err, &apperrors.ErrUnexpectedStatus{}) {
			t.Errorf("Expected a status error, got %v", o.Err)
		}
	}
}

func TestRun_MissingAPIKey(t *testing.T) {
	h := newHarness(t)
	h.server.AddSet("base1", 3)
	h.cfg.APIKey = "   "

	summary, err := h.run(t, context.Background())
	if !errors.Is(err, &apperrors.ErrMissingCredential{}) {
		t.Fatalf("Expected ErrMissingCredential, got %v", err)
	}
	if summary != nil {
		t.Error("Expected no summary")
	}
	if h.server.CardRequests()+h.server.SetRequests()+h.server.ImageRequests() != 0 {
		t.Error("Expected no requests before the credential check")
	}
}

func TestRun_EmptySetListUsesCatalogSets(t *testing.T) {
	h := newHarness(t)
	h.server.AddSet("base1", 2)
	h.server.AddSet("jungle", 3)
	h.cfg.SetIDs = nil

	summary, err := h.run(t, context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if h.server.SetRequests() != 1 {
		t.Errorf("Expected 1 sets request, got %d", h.server.SetRequests())
	}
	if summary.SetsProcessed != 2 || summary.Downloaded != 5 {
		t.Errorf("Unexpected summary: %+v", summary)
	}
	if len(h.reporter.started) != 2 {
		t.Errorf("Expected both sets to be reported, got %v", h.reporter.started)
	}
}

func TestRun_SetListingFailureIsFatal(t *testing.T) {
	h := newHarness(t)
	h.cfg.SetIDs = nil
	h.cfg.APIKey = "wrong-key"

	_, err := h.run(t, context.Background())
	if err == nil {
		t.Fatal("Expected an error when the set list cannot be fetched")
	}
}

func TestRun_CanceledContext(t *testing.T) {
	h := newHarness(t)
	h.server.AddSet("base1", 5)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := h.run(t, ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if summary == nil {
		t.Fatal("Expected a partial summary")
	}
	if summary.Downloaded != 0 || h.server.ImageRequests() != 0 {
		t.Errorf("Expected nothing to be downloaded, got %+v", summary)
	}
}

func TestNew_Defaults(t *testing.T) {
	o := New(&config.Config{SetIDs: []string{" base1 ", ""}}, nil, nil, nil)

	if o.workers != defaultWorkers {
		t.Errorf("Expected %d workers, got %d", defaultWorkers, o.workers)
	}
	if o.imageSize != defaultImageSize {
		t.Errorf("Expected image size %q, got %q", defaultImageSize, o.imageSize)
	}
	if len(o.setIDs) != 1 || o.setIDs[0] != "base1" {
		t.Errorf("Expected trimmed set ids, got %v", o.setIDs)
	}
}

func TestSelectImageURL(t *testing.T) {
	tests := []struct {
		name      string
		images    map[string]string
		preferred string
		want      string
		wantOK    bool
	}{
		{name: "preferred", images: map[string]string{"small": "s", "large": "l"}, preferred: "large", want: "l", wantOK: true},
		{name: "small fallback", images: map[string]string{"small": "s", "large": "l"}, preferred: "hires", want: "s", wantOK: true},
		{name: "large fallback", images: map[string]string{"large": "l"}, preferred: "small", want: "l", wantOK: true},
		{name: "other label sorted", images: map[string]string{"zoom": "z", "art": "a"}, preferred: "small", want: "a", wantOK: true},
		{name: "blank urls ignored", images: map[string]string{"small": " ", "art": "a"}, preferred: "small", want: "a", wantOK: true},
		{name: "nil map", images: nil, preferred: "small", wantOK: false},
		{name: "all empty", images: map[string]string{"small": ""}, preferred: "small", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SelectImageURL(tt.images, tt.preferred)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("SelectImageURL() = (%q, %v), want (%q, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
