package term

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"forgeterm.dev/forgeterm/internal/runtime"
)

// commandMsg is sent when a submitted line has been interpreted
type commandMsg struct {
	outcome outcome
}

type termStyles struct {
	title  lipgloss.Style
	prompt lipgloss.Style
	stderr lipgloss.Style
	dim    lipgloss.Style
}

func newTermStyles() termStyles {
	// Without color support every style collapses to plain text.
	if termenv.EnvColorProfile() == termenv.Ascii {
		plain := lipgloss.NewStyle()
		return termStyles{title: plain, prompt: plain, stderr: plain, dim: plain}
	}
	return termStyles{
		title:  lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true),
		prompt: lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),
		stderr: lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		dim:    lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
	}
}

// termModel is the bubbletea model for the interactive terminal: a
// viewport of scrollback above a single prompt line.
type termModel struct {
	ctx      context.Context
	session  *runtime.Session
	title    string
	input    textinput.Model
	view     viewport.Model
	history  *history
	lines    []string
	ready    bool
	lastCode int
	quitting bool
	styles   termStyles
}

func newTermModel(ctx context.Context, session *runtime.Session) termModel {
	styles := newTermStyles()

	ti := textinput.New()
	ti.Placeholder = "git <command>"
	ti.Prompt = "$ "
	ti.PromptStyle = styles.prompt
	ti.Focus()
	ti.CharLimit = 500

	title := "forgeterm"
	if session != nil && !session.Repo.RID.IsZero() {
		title = "forgeterm " + session.Repo.String()
	}

	return termModel{
		ctx:     ctx,
		session: session,
		title:   title,
		input:   ti,
		history: newHistory(),
		styles:  styles,
	}
}

func (m termModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m termModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlD:
			if m.input.Value() == "" {
				m.quitting = true
				return m, tea.Quit
			}

		case tea.KeyCtrlC:
			m.append(m.echoLine(m.input.Value()) + m.styles.dim.Render("^C"))
			m.input.SetValue("")
			return m, nil

		case tea.KeyEnter:
			line := m.input.Value()
			m.input.SetValue("")
			m.append(m.echoLine(line))
			m.history.Add(line)
			return m, m.runLine(line)

		case tea.KeyUp:
			if recalled, ok := m.history.Prev(m.input.Value()); ok {
				m.input.SetValue(recalled)
				m.input.CursorEnd()
			}
			return m, nil

		case tea.KeyDown:
			if recalled, ok := m.history.Next(); ok {
				m.input.SetValue(recalled)
				m.input.CursorEnd()
			}
			return m, nil

		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.view, cmd = m.view.Update(msg)
			return m, cmd
		}

	case tea.WindowSizeMsg:
		// One line of title above, the prompt below, rest is scrollback.
		height := msg.Height - 2
		if height < 1 {
			height = 1
		}
		if !m.ready {
			m.view = viewport.New(msg.Width, height)
			m.ready = true
		} else {
			m.view.Width = msg.Width
			m.view.Height = height
		}
		m.input.Width = msg.Width - len(m.input.Prompt) - 1
		m.refresh()
		return m, nil

	case commandMsg:
		return m.applyOutcome(msg.outcome)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m termModel) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return m.styles.title.Render(m.title) + "\n"
	}
	return fmt.Sprintf("%s\n%s\n%s", m.styles.title.Render(m.title), m.view.View(), m.input.View())
}

// runLine interprets one submitted line off the update loop.
func (m termModel) runLine(line string) tea.Cmd {
	ctx, session := m.ctx, m.session
	return func() tea.Msg {
		return commandMsg{outcome: eval(ctx, session, line)}
	}
}

func (m termModel) applyOutcome(out outcome) (tea.Model, tea.Cmd) {
	switch {
	case out.quit:
		m.quitting = true
		return m, tea.Quit
	case out.clear:
		m.lines = nil
		m.refresh()
		return m, nil
	case out.skip:
		return m, nil
	}

	if out.result.Stdout != "" {
		m.append(strings.Split(strings.TrimSuffix(out.result.Stdout, "\n"), "\n")...)
	}
	if out.result.Stderr != "" {
		for _, line := range strings.Split(out.result.Stderr, "\n") {
			m.append(m.styles.stderr.Render(line))
		}
	}
	m.lastCode = out.result.Code
	return m, nil
}

func (m termModel) echoLine(line string) string {
	return m.styles.prompt.Render("$ ") + line
}

// append adds rendered lines to the scrollback and keeps the view pinned
// to the bottom.
func (m *termModel) append(lines ...string) {
	m.lines = append(m.lines, lines...)
	m.refresh()
}

func (m *termModel) refresh() {
	if !m.ready {
		return
	}
	m.view.SetContent(strings.Join(m.lines, "\n"))
	m.view.GotoBottom()
}

// runUI drives the full-screen terminal and reports the last exit code.
func runUI(ctx context.Context, session *runtime.Session) (int, error) {
	p := tea.NewProgram(newTermModel(ctx, session), tea.WithAltScreen())
	model, err := p.Run()
	if err != nil {
		return 1, fmt.Errorf("failed to run terminal: %w", err)
	}

	if finalModel, ok := model.(termModel); ok {
		return finalModel.lastCode, nil
	}
	return 0, nil
}
