package models

import "time"

type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// Run is the transient context of one pipeline execution. Paths are empty
// until the stage that produces them has finished.
type Run struct {
	ID             string
	Character      string
	ImageURL       string
	SearchProvider string
	InputImagePath string
	Prompt         string
	PromptSource   string
	ImagePath      string
	VideoPath      string
	VideoEndpoint  string
	Status         RunStatus
	Error          string
	StartedAt      time.Time
	FinishedAt     time.Time
}

// NewRun creates a run in the running state.
func NewRun(id string) *Run {
	return &Run{
		ID:        id,
		Status:    RunRunning,
		StartedAt: time.Now().UTC(),
	}
}
