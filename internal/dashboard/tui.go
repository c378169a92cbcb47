package dashboard

import (
	"fmt"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"altair/internal/cerebro"
)

// optResultMsg carries one finished optimization run into the model.
type optResultMsg cerebro.OptResult

// optDoneMsg signals that the sweep finished.
type optDoneMsg struct{}

// OptModel is a bubbletea model that tails optimization progress: a
// counter line plus a viewport holding the current standings sorted by
// PnL%.
type OptModel struct {
	total    int
	done     int
	finished bool

	results  []cerebro.OptResult
	ch       <-chan cerebro.OptResult
	viewport viewport.Model
	ready    bool
}

// NewOptModel creates a progress model reading results from ch; total is
// the grid cardinality.
func NewOptModel(total int, ch <-chan cerebro.OptResult) OptModel {
	return OptModel{total: total, ch: ch}
}

func (m OptModel) waitForResult() tea.Cmd {
	return func() tea.Msg {
		r, ok := <-m.ch
		if !ok {
			return optDoneMsg{}
		}
		return optResultMsg(r)
	}
}

// Init implements tea.Model.
func (m OptModel) Init() tea.Cmd {
	return m.waitForResult()
}

// Update implements tea.Model.
func (m OptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-3)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 3
		}
		m.viewport.SetContent(m.renderContent())
		return m, nil

	case optResultMsg:
		m.done++
		m.results = append(m.results, cerebro.OptResult(msg))
		cerebro.SortOptResults(m.results, cerebro.ByPnLPct, true)
		if m.ready {
			m.viewport.SetContent(m.renderContent())
		}
		return m, m.waitForResult()

	case optDoneMsg:
		m.finished = true
		if m.ready {
			m.viewport.SetContent(m.renderContent())
		}
		return m, nil
	}
	return m, nil
}

// View implements tea.Model.
func (m OptModel) View() string {
	status := fmt.Sprintf("optimizing %d/%d", m.done, m.total)
	if m.finished {
		status = fmt.Sprintf("done %d/%d - press q to quit", m.done, m.total)
	}
	if !m.ready {
		return status + "\n"
	}
	return titleStyle.Render(status) + "\n\n" + m.viewport.View()
}

func (m OptModel) renderContent() string {
	if len(m.results) == 0 {
		return "waiting for results..."
	}
	return RenderOptTable(m.results, len(m.results))
}

// Results returns the accumulated results (sorted best-first).
func (m OptModel) Results() []cerebro.OptResult { return m.results }
