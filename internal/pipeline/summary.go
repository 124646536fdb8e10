package pipeline

import (
	"time"

	"salespipe/internal/cleaning"
)

// SourceRows records how many rows one source contributed to the merge.
type SourceRows struct {
	Source string `json:"source"`
	Rows   int    `json:"rows"`
}

// Summary is the document describing one run: identity, per-stage state,
// and the row accounting carried over from the cleaning report. All five
// stages are registered up front, so a summary of a failed run still
// shows which stages never started.
type Summary struct {
	RunID     string        `json:"run_id"`
	Status    StageStatus   `json:"status"`
	StartTime time.Time     `json:"start_time"`
	EndTime   *time.Time    `json:"end_time,omitempty"`
	Stages    []*StageState `json:"stages"`

	Sources    []SourceRows     `json:"sources,omitempty"`
	MergedRows int              `json:"merged_rows"`
	Cleaning   *cleaning.Report `json:"cleaning,omitempty"`
	FailedKPIs []string         `json:"failed_kpis,omitempty"`
	Outputs    []string         `json:"outputs,omitempty"`
}

var stageDefinitions = []struct {
	id   string
	name string
}{
	{StageIDLoad, StageNameLoad},
	{StageIDMerge, StageNameMerge},
	{StageIDClean, StageNameClean},
	{StageIDAggregate, StageNameAggregate},
	{StageIDExport, StageNameExport},
}

func newSummary(runID string) *Summary {
	s := &Summary{
		RunID:     runID,
		Status:    StageRunning,
		StartTime: time.Now(),
		Stages:    make([]*StageState, 0, len(stageDefinitions)),
	}
	for _, def := range stageDefinitions {
		s.Stages = append(s.Stages, newStageState(def.id, def.name))
	}
	return s
}

// Stage returns the state for the given stage ID, or nil when the ID is
// not part of the pipeline.
func (s *Summary) Stage(id string) *StageState {
	for _, stage := range s.Stages {
		if stage.ID == id {
			return stage
		}
	}
	return nil
}

func (s *Summary) complete() {
	now := time.Now()
	s.EndTime = &now
	s.Status = StageCompleted
}

func (s *Summary) fail() {
	now := time.Now()
	s.EndTime = &now
	s.Status = StageFailed
}

// Duration returns the wall time of the run, or the time elapsed so far
// for a run still in flight.
func (s *Summary) Duration() time.Duration {
	if s.EndTime != nil {
		return s.EndTime.Sub(s.StartTime)
	}
	return time.Since(s.StartTime)
}
