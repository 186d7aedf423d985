package store

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/roach88/cfeval/internal/harness"
	"github.com/roach88/cfeval/internal/ir"
)

// ErrRunNotFound is returned when a run ID is unknown.
var ErrRunNotFound = errors.New("run not found")

// RunStatus is the lifecycle state of a run.
type RunStatus string

// Run statuses.
const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// RunInfo describes a run when it begins.
type RunInfo struct {
	Batch     string
	Algorithm string
}

// Run is one recorded evaluation.
type Run struct {
	ID         string     `json:"id"`
	Batch      string     `json:"batch"`
	Algorithm  string     `json:"algorithm"`
	Status     RunStatus  `json:"status"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Results    int        `json:"results"`
	Failures   int        `json:"failures"`
}

// StoredExplanation is an explanation read back with its rank and fingerprint.
type StoredExplanation struct {
	Rank        int            `json:"rank"`
	Fingerprint string         `json:"fingerprint"`
	Explanation ir.Explanation `json:"explanation"`
}

// StoredResult is one recorded test case result.
type StoredResult struct {
	Seq          int                  `json:"seq"`
	Key          harness.Key          `json:"key"`
	Description  string               `json:"description,omitempty"`
	TestCase     string               `json:"test_case"`
	Attributes   map[string]string    `json:"attributes,omitempty"`
	Checkpoints  []harness.Checkpoint `json:"checkpoints"`
	Explanations []StoredExplanation  `json:"explanations"`
}

// StoredReport is one recorded analyzer report.
type StoredReport struct {
	Analyzer string          `json:"analyzer"`
	Text     string          `json:"text"`
	Data     json.RawMessage `json:"data,omitempty"`
}
