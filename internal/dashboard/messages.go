package dashboard

import "github.com/seenimoa/newspulse/internal/pipeline"

// ProgressMsg carries one pipeline progress event.
type ProgressMsg struct {
	Event pipeline.Progress
}

// ResultMsg is sent when a run finishes.
type ResultMsg struct {
	Result *pipeline.Result
	Err    error
}
