package dashboard

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/seenimoa/newspulse/internal/pipeline"
)

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	case ProgressMsg:
		return m.handleProgress(msg)
	case ResultMsg:
		return m.handleResult(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}

	switch m.State {
	case StateInput:
		return m.handleInputKey(msg)
	case StateRunning:
		if msg.String() == "q" {
			return m, tea.Quit
		}
	case StateComplete, StateError:
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "n", "enter", "esc":
			m.State = StateInput
			m.Result, m.Err = nil, nil
			m.Scroll = 0
		case "down", "j":
			if m.Result != nil && m.Scroll < len(m.Result.Report.Articles)-1 {
				m.Scroll++
			}
		case "up", "k":
			if m.Scroll > 0 {
				m.Scroll--
			}
		}
	}
	return m, nil
}

func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		company := strings.TrimSpace(m.Company)
		if company == "" {
			return m, nil
		}
		m.State = StateRunning
		m.Percent, m.Stage, m.Message = 0, pipeline.StageFetching, "Starting analysis..."
		m.events = make(chan pipeline.Progress, 64)
		return m, tea.Batch(
			startRun(m.ctx, m.runner, company, m.Articles, m.events),
			waitForProgress(m.events),
		)
	case tea.KeyEsc:
		return m, tea.Quit
	case tea.KeyBackspace:
		if r := []rune(m.Company); len(r) > 0 {
			m.Company = string(r[:len(r)-1])
		}
	case tea.KeyLeft, tea.KeyDown:
		m.Articles = max(MinArticles, m.Articles-1)
	case tea.KeyRight, tea.KeyUp:
		m.Articles = min(MaxArticles, m.Articles+1)
	case tea.KeySpace:
		m.Company += " "
	case tea.KeyRunes:
		m.Company += string(msg.Runes)
	}
	return m, nil
}

func (m Model) handleProgress(msg ProgressMsg) (tea.Model, tea.Cmd) {
	if m.State != StateRunning {
		return m, nil
	}
	ev := msg.Event
	if ev.Percent >= m.Percent {
		m.Percent = ev.Percent
	}
	m.Stage = ev.Stage
	m.Message = ev.Message
	if ev.Done() {
		return m, nil
	}
	return m, waitForProgress(m.events)
}

func (m Model) handleResult(msg ResultMsg) (tea.Model, tea.Cmd) {
	m.Result, m.Err = msg.Result, msg.Err
	if msg.Err != nil {
		m.State = StateError
		return m, nil
	}
	m.State = StateComplete
	m.Percent = 100
	m.Scroll = 0
	return m, nil
}
