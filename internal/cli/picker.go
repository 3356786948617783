package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mkessel/flowscribe/pkg/source"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// FlowListModel - Interactive flow selection
// =============================================================================

// FlowListModel is the bubbletea model for interactive flow selection when
// export is invoked without a document argument.
type FlowListModel struct {
	Flows    []source.FlowInfo
	Cursor   int
	Selected *source.FlowInfo
	Height   int
	Offset   int
}

// NewFlowListModel creates a new flow list model.
func NewFlowListModel(flows []source.FlowInfo) FlowListModel {
	return FlowListModel{
		Flows:  flows,
		Cursor: 0,
		Height: 15,
		Offset: 0,
	}
}

func (m FlowListModel) Init() tea.Cmd {
	return nil
}

func (m FlowListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Flows)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			flow := m.Flows[m.Cursor]
			m.Selected = &flow
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 6
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m FlowListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Flow"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	end := m.Offset + m.Height
	if end > len(m.Flows) {
		end = len(m.Flows)
	}

	for i := m.Offset; i < end; i++ {
		f := m.Flows[i]

		cursor := "  "
		style := listNormalStyle
		if i == m.Cursor {
			cursor = "▸ "
			style = listSelectedStyle
		}

		line := f.ID
		if f.Title != "" && f.Title != f.ID {
			line += "  " + listDimStyle.Render(f.Title)
		}
		b.WriteString(cursor + style.Render(line) + "\n")
	}

	if len(m.Flows) > m.Height {
		b.WriteString("\n")
		b.WriteString(listDimStyle.Render(
			fmt.Sprintf("%d/%d", m.Cursor+1, len(m.Flows))))
	}

	return b.String()
}

// pickFlow runs the interactive flow picker and returns the selection, or
// nil when the user quit without choosing.
func pickFlow(flows []source.FlowInfo) (*source.FlowInfo, error) {
	if len(flows) == 0 {
		return nil, fmt.Errorf("no flows available")
	}

	p := tea.NewProgram(NewFlowListModel(flows))
	final, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("run flow picker: %w", err)
	}

	model, ok := final.(FlowListModel)
	if !ok {
		return nil, fmt.Errorf("unexpected picker model type %T", final)
	}
	return model.Selected, nil
}
