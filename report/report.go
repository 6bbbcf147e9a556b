// Package report renders figures and run summaries for fitted or
// simulated survival models: posterior state-probability trajectories,
// avoidance learning curves, and an HTML study summary. All output goes
// to files under a timestamped run directory; there is no server.
package report

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/banshee-data/survival.report/recapture"
	"github.com/google/uuid"
)

// Run collects everything one reporting pass writes. A Run is created
// with NewRun, populated by the Plot/Write methods, and left on disk.
type Run struct {
	// RunID uniquely identifies the generated artifacts; it is embedded
	// in the HTML summary so figures can be traced back to a run.
	RunID string

	// Dir is the timestamped output directory all artifacts land in.
	Dir string

	Params    recapture.Params
	Histories []recapture.History
	LogLik    float64
}

// NewRun creates the timestamped output directory under baseDir and
// returns the run handle.
func NewRun(baseDir string, params recapture.Params, histories []recapture.History, logLik float64) (*Run, error) {
	dir := filepath.Join(baseDir, "run_"+FormatTimestamp(time.Now()))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}
	r := &Run{
		RunID:     uuid.NewString(),
		Dir:       dir,
		Params:    params,
		Histories: histories,
		LogLik:    logLik,
	}
	log.Printf("report: run %s writing to %s (%d subjects)", r.RunID, dir, len(histories))
	return r, nil
}

// DetectionCounts tallies, per capture occasion, how many subjects were
// seen at site A and at site B.
func (r *Run) DetectionCounts() (seenA, seenB []int) {
	if len(r.Histories) == 0 {
		return nil, nil
	}
	n := len(r.Histories[0])
	seenA = make([]int, n)
	seenB = make([]int, n)
	for _, h := range r.Histories {
		for t, s := range h {
			switch s {
			case recapture.SeenA:
				seenA[t]++
			case recapture.SeenB:
				seenB[t]++
			}
		}
	}
	return seenA, seenB
}

// FormatTimestamp generates a timestamp string for directory naming.
func FormatTimestamp(t time.Time) string {
	return t.Format("20060102_150405")
}
