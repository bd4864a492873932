package components

import (
	"ocrdrop/internal/tui/styles"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// StatusBar shows one line of status, with a spinner while loading.
type StatusBar struct {
	text     string
	isError  bool
	style    lipgloss.Style
	errStyle lipgloss.Style
	spinner  spinner.Model
	loading  bool
}

func NewStatusBar(theme styles.Theme) *StatusBar {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(theme.Primary)

	return &StatusBar{
		style:    theme.Help,
		errStyle: theme.ErrorText,
		spinner:  s,
	}
}

// SetLoading starts or stops the spinner. Starting returns the tick command.
func (s *StatusBar) SetLoading(loading bool) tea.Cmd {
	s.loading = loading
	if loading {
		return s.spinner.Tick
	}
	return nil
}

func (s *StatusBar) Loading() bool { return s.loading }

func (s *StatusBar) SetText(text string) {
	s.text = text
	s.isError = false
}

func (s *StatusBar) SetError(text string) {
	s.text = text
	s.isError = true
}

func (s *StatusBar) Text() string { return s.text }

func (s *StatusBar) Update(msg tea.Msg) tea.Cmd {
	if s.loading {
		var cmd tea.Cmd
		s.spinner, cmd = s.spinner.Update(msg)
		return cmd
	}
	return nil
}

func (s *StatusBar) View() string {
	if s.text == "" && !s.loading {
		return ""
	}
	style := s.style
	if s.isError {
		style = s.errStyle
	}
	if s.loading {
		return s.spinner.View() + " " + style.Render(s.text)
	}
	return style.Render(s.text)
}
