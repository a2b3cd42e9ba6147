// Package tui implements the interactive report viewer: a scrollable
// pager for a generated markdown report.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tidewell/autopsy/internal/tui/styles"
	"github.com/tidewell/autopsy/internal/util"
)

// headerHeight and footerHeight are the rows reserved around the
// viewport.
const (
	headerHeight = 2
	footerHeight = 2
)

// Model is the viewer's bubbletea model.
type Model struct {
	title    string
	content  string
	viewport viewport.Model
	ready    bool
}

// NewModel creates a viewer for the given report content.
func NewModel(title, content string) Model {
	return Model{
		title:   title,
		content: content,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "g":
			m.viewport.GotoTop()
		case "G":
			m.viewport.GotoBottom()
		}

	case tea.WindowSizeMsg:
		width, height := msg.Width, msg.Height-headerHeight-footerHeight
		if !m.ready {
			m.viewport = viewport.New(width, height)
			m.viewport.SetContent(m.content)
			m.ready = true
		} else {
			m.viewport.Width = width
			m.viewport.Height = height
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading report..."
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.headerView(),
		m.viewport.View(),
		m.footerView(),
	)
}

func (m Model) headerView() string {
	title := util.TruncateANSI(m.title, m.viewport.Width)
	return styles.Header.Width(m.viewport.Width).Render(title)
}

func (m Model) footerView() string {
	scroll := fmt.Sprintf("%3.0f%%", m.viewport.ScrollPercent()*100)
	help := strings.Join([]string{
		styles.HelpKey.Render("↑/↓") + styles.Muted.Render(" scroll"),
		styles.HelpKey.Render("g/G") + styles.Muted.Render(" top/bottom"),
		styles.HelpKey.Render("q") + styles.Muted.Render(" quit"),
	}, "  ")
	bar := styles.StatusBar.Render(scroll)
	return lipgloss.JoinHorizontal(lipgloss.Center, bar, "  ", help)
}

// Run opens the viewer in the terminal's alternate screen and blocks
// until the user quits.
func Run(title, content string) error {
	p := tea.NewProgram(NewModel(title, content), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
