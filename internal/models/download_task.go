package models

import (
	"fmt"
	"time"
)

// DownloadTask pairs an image URL with the local path it is written to.
type DownloadTask struct {
	URL    string
	Path   string
	SetID  string // Originating set, for logging only
	CardID string // Originating card, for logging only
}

// OutcomeStatus is the result class of a single download task.
type OutcomeStatus string

const (
	OutcomeOK   OutcomeStatus = "ok"
	OutcomeSkip OutcomeStatus = "skip"
	OutcomeFail OutcomeStatus = "fail"
)

// Outcome is produced once per executed DownloadTask.
type Outcome struct {
	Status OutcomeStatus
	Task   DownloadTask
	Err    error // Set only when Status is OutcomeFail
}

// Detail returns the path for successful outcomes and "<path> :: <error>" for failures.
func (o Outcome) Detail() string {
	if o.Status == OutcomeFail && o.Err != nil {
		return fmt.Sprintf("%s :: %v", o.Task.Path, o.Err)
	}
	return o.Task.Path
}

// Summary tallies a complete run.
type Summary struct {
	SetsProcessed int
	SetsFailed    int
	CardsFound    int
	TasksQueued   int
	Downloaded    int
	Skipped       int
	Failed        int
	OutputRoot    string
	Duration      time.Duration
}

// Add records a single outcome in the tally.
func (s *Summary) Add(o Outcome) {
	switch o.Status {
	case OutcomeOK:
		s.Downloaded++
	case OutcomeSkip:
		s.Skipped++
	default:
		s.Failed++
	}
}
