// Package report records what a pipeline run did, for later inspection.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
)

// Report summarizes one pipeline run. Each stage that ran contributes
// its duration and counters.
type Report struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Stages     []Stage   `json:"stages"`
}

// Stage is one pipeline stage inside a report.
type Stage struct {
	Name            string         `json:"name"`
	DurationSeconds float64        `json:"duration_seconds"`
	Counters        map[string]int `json:"counters,omitempty"`
}

// New starts a report for a fresh run.
func New() *Report {
	return &Report{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}
}

// AddStage appends a completed stage. started is when the stage began.
func (r *Report) AddStage(name string, started time.Time, counters map[string]int) {
	r.Stages = append(r.Stages, Stage{
		Name:            name,
		DurationSeconds: time.Since(started).Seconds(),
		Counters:        counters,
	})
}

// Write stamps the finish time and writes the report as indented JSON.
func (r *Report) Write(path string) error {
	r.FinishedAt = time.Now().UTC()

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}
