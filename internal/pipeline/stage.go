package pipeline

import (
	"time"
)

// Stage identifiers, in execution order
const (
	StageIDLoad      = "load"
	StageIDMerge     = "merge"
	StageIDClean     = "clean"
	StageIDAggregate = "aggregate"
	StageIDExport    = "export"
)

// Human-readable stage names for summaries and logs
const (
	StageNameLoad      = "Source Load"
	StageNameMerge     = "Table Merge"
	StageNameClean     = "Data Cleaning"
	StageNameAggregate = "KPI Aggregation"
	StageNameExport    = "Artifact Export"
)

// StageStatus represents the lifecycle of one stage within a run
type StageStatus string

const (
	StagePending   StageStatus = "pending"
	StageRunning   StageStatus = "running"
	StageCompleted StageStatus = "completed"
	StageFailed    StageStatus = "failed"
)

// StageState is the runtime record of one stage. Stages run sequentially
// on a single goroutine, so the state carries no lock.
type StageState struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Status    StageStatus `json:"status"`
	StartTime *time.Time  `json:"start_time,omitempty"`
	EndTime   *time.Time  `json:"end_time,omitempty"`
	Error     string      `json:"error,omitempty"`

	// RowsIn and RowsOut count the records entering and leaving the
	// stage; they feed the span attributes and the run summary.
	RowsIn  int `json:"rows_in"`
	RowsOut int `json:"rows_out"`
}

func newStageState(id, name string) *StageState {
	return &StageState{
		ID:     id,
		Name:   name,
		Status: StagePending,
	}
}

func (s *StageState) start() {
	now := time.Now()
	s.StartTime = &now
	s.Status = StageRunning
}

func (s *StageState) complete() {
	now := time.Now()
	s.EndTime = &now
	s.Status = StageCompleted
}

func (s *StageState) fail(err error) {
	now := time.Now()
	s.EndTime = &now
	s.Status = StageFailed
	if err != nil {
		s.Error = err.Error()
	}
}

// Duration returns how long the stage ran, or has been running
func (s *StageState) Duration() time.Duration {
	if s.StartTime == nil {
		return 0
	}
	if s.EndTime != nil {
		return s.EndTime.Sub(*s.StartTime)
	}
	return time.Since(*s.StartTime)
}
