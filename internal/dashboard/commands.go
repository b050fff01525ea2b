package dashboard

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/seenimoa/newspulse/internal/pipeline"
)

// startRun launches the pipeline in the background. Progress is relayed
// through events, which the caller listens on with waitForProgress.
func startRun(ctx context.Context, r Runner, company string, articles int, events chan pipeline.Progress) tea.Cmd {
	return func() tea.Msg {
		res, err := r.RunDetailed(ctx, pipeline.Request{
			Company:  company,
			Articles: articles,
			OnProgress: func(ev pipeline.Progress) {
				select {
				case events <- ev:
				default:
				}
			},
		})
		return ResultMsg{Result: res, Err: err}
	}
}

// waitForProgress blocks until the next progress event.
func waitForProgress(events <-chan pipeline.Progress) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return ProgressMsg{Event: ev}
	}
}
