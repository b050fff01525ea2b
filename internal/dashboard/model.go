// Package dashboard is the interactive terminal front end: enter a company,
// choose how many articles to analyse, watch progress and read the report.
package dashboard

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/seenimoa/newspulse/internal/pipeline"
)

// Article count bounds of the selector.
const (
	MinArticles     = 2
	MaxArticles     = 20
	DefaultArticles = 3
)

// Runner runs one analysis.
type Runner interface {
	RunDetailed(ctx context.Context, req pipeline.Request) (*pipeline.Result, error)
}

// State is the dashboard's state machine.
type State string

const (
	StateInput    State = "input"
	StateRunning  State = "running"
	StateComplete State = "complete"
	StateError    State = "error"
)

// Model is the bubbletea model.
type Model struct {
	ctx    context.Context
	runner Runner

	State    State
	Company  string
	Articles int

	Percent int
	Stage   pipeline.Stage
	Message string
	events  chan pipeline.Progress

	Result *pipeline.Result
	Err    error

	// Scroll is the first article shown in the result view.
	Scroll int
	width  int
}

// NewModel creates a dashboard, optionally pre-filled with a company.
func NewModel(ctx context.Context, r Runner, company string, articles int) Model {
	if articles < MinArticles || articles > MaxArticles {
		articles = DefaultArticles
	}
	return Model{
		ctx:      ctx,
		runner:   r,
		State:    StateInput,
		Company:  company,
		Articles: articles,
		width:    100,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Run starts the full-screen program and blocks until the user quits.
func Run(ctx context.Context, r Runner, company string, articles int) error {
	p := tea.NewProgram(NewModel(ctx, r, company, articles), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
