package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestReportRoundTrip(t *testing.T) {
	r := New()
	if r.RunID == "" {
		t.Fatal("empty run ID")
	}

	r.AddStage("prepare", time.Now().Add(-2*time.Second), map[string]int{
		"documents": 10,
		"articles":  8,
	})
	r.AddStage("match", time.Now(), nil)

	path := filepath.Join(t.TempDir(), "report.json")
	if err := r.Write(path); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var got Report
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}

	if got.RunID != r.RunID {
		t.Errorf("RunID = %q, want %q", got.RunID, r.RunID)
	}
	if len(got.Stages) != 2 {
		t.Fatalf("got %d stages, want 2", len(got.Stages))
	}
	if got.Stages[0].Name != "prepare" || got.Stages[0].Counters["documents"] != 10 {
		t.Errorf("stage 0 = %+v", got.Stages[0])
	}
	if got.Stages[0].DurationSeconds < 1 {
		t.Errorf("stage 0 duration = %f, want >= 2s elapsed", got.Stages[0].DurationSeconds)
	}
	if got.FinishedAt.Before(got.StartedAt) {
		t.Error("finished before started")
	}
}

func TestRunIDsAreUnique(t *testing.T) {
	if New().RunID == New().RunID {
		t.Error("two reports share a run ID")
	}
}
