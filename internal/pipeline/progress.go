package pipeline

import "time"

// Stage names a pipeline step.
type Stage string

const (
	StageFetching   Stage = "fetching"
	StageAnnotating Stage = "annotating"
	StageAnalyzing  Stage = "analyzing"
	StageComplete   Stage = "complete"
	StageFailed     Stage = "failed"
)

// Progress is one status update of a run. Percent never decreases within a
// run; a StageFailed event carries the percent of the stage that failed.
type Progress struct {
	RunID   string    `json:"run_id"`
	Company string    `json:"company"`
	Stage   Stage     `json:"stage"`
	Percent int       `json:"percent"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// Done reports whether the run has finished, successfully or not.
func (p Progress) Done() bool {
	return p.Stage == StageComplete || p.Stage == StageFailed
}

// ProgressFunc receives progress updates. It is called synchronously from
// the run, possibly from several goroutines, and must not block.
type ProgressFunc func(Progress)

func (p *Pipeline) emitter(runID, company string, extra ProgressFunc) func(Stage, int, string) {
	p.mu.RLock()
	listeners := append([]ProgressFunc(nil), p.listeners...)
	p.mu.RUnlock()
	if extra != nil {
		listeners = append(listeners, extra)
	}
	return func(stage Stage, percent int, msg string) {
		ev := Progress{
			RunID:   runID,
			Company: company,
			Stage:   stage,
			Percent: percent,
			Message: msg,
			Time:    time.Now(),
		}
		for _, fn := range listeners {
			fn(ev)
		}
	}
}
