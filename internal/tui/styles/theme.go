package styles

import (
	"ocrdrop/internal/config"
	"ocrdrop/pkg/types"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/lipgloss"
)

// Theme holds the styles of the terminal widget, derived from the
// configured colour theme.
type Theme struct {
	Primary lipgloss.Color
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
	Info    lipgloss.Color
	Border  lipgloss.Color

	App      lipgloss.Style
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Help     lipgloss.Style
	Muted    lipgloss.Style

	DropZone        lipgloss.Style
	DropZoneFocused lipgloss.Style
	DropZoneActive  lipgloss.Style

	Card         lipgloss.Style
	CardSelected lipgloss.Style
	FileName     lipgloss.Style
	ErrorText    lipgloss.Style
	SuccessText  lipgloss.Style
	PageLabel    lipgloss.Style
	Placeholder  lipgloss.Style

	SearchBox        lipgloss.Style
	SearchBoxFocused lipgloss.Style
	ResultSource     lipgloss.Style
}

// New builds the styles for a configuration's theme.
func New(cfg *config.Config) Theme {
	t := Theme{
		Primary: lipgloss.Color(cfg.Theme.Primary),
		Success: lipgloss.Color(cfg.Theme.Success),
		Warning: lipgloss.Color(cfg.Theme.Warning),
		Error:   lipgloss.Color(cfg.Theme.Error),
		Info:    lipgloss.Color(cfg.Theme.Info),
		Border:  lipgloss.Color(cfg.Theme.Border),
	}
	muted := lipgloss.Color("245")

	t.App = lipgloss.NewStyle().Padding(0, 1)
	t.Title = lipgloss.NewStyle().Bold(true).Foreground(t.Primary)
	t.Subtitle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(cfg.Theme.Emphasis))
	t.Help = lipgloss.NewStyle().Foreground(muted)
	t.Muted = lipgloss.NewStyle().Foreground(muted)

	box := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	t.DropZone = box.BorderForeground(muted).Align(lipgloss.Center)
	t.DropZoneFocused = t.DropZone.BorderForeground(t.Border)
	t.DropZoneActive = t.DropZone.Border(lipgloss.DoubleBorder()).BorderForeground(t.Info).Foreground(t.Info)

	t.Card = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(muted).PaddingLeft(1)
	t.CardSelected = t.Card.BorderForeground(t.Primary)
	t.FileName = lipgloss.NewStyle().Bold(true)
	t.ErrorText = lipgloss.NewStyle().Foreground(t.Error)
	t.SuccessText = lipgloss.NewStyle().Foreground(t.Success)
	t.PageLabel = lipgloss.NewStyle().Underline(true)
	t.Placeholder = lipgloss.NewStyle().Foreground(t.Error).Italic(true)

	t.SearchBox = box.BorderForeground(muted)
	t.SearchBoxFocused = t.SearchBox.BorderForeground(t.Border)
	t.ResultSource = lipgloss.NewStyle().Bold(true).Foreground(t.Info)
	return t
}

// Default is the theme of the default configuration.
func Default() Theme {
	return New(config.New())
}

// StatusColor is the colour used for badges and bars of a status.
func (t Theme) StatusColor(s types.Status) lipgloss.Color {
	switch s {
	case types.StatusSuccess:
		return t.Success
	case types.StatusError:
		return t.Error
	case types.StatusUploading:
		return t.Info
	}
	return t.Warning
}

// Badge renders a status badge.
func (t Theme) Badge(s types.Status) string {
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("0")).
		Background(t.StatusColor(s)).
		Padding(0, 1).
		Render(string(s))
}

// Picker returns file picker styles matching the theme.
func (t Theme) Picker() filepicker.Styles {
	s := filepicker.DefaultStyles()
	s.Cursor = lipgloss.NewStyle().Foreground(t.Primary)
	s.Selected = lipgloss.NewStyle().Foreground(t.Primary).Bold(true)
	s.Directory = lipgloss.NewStyle().Foreground(t.Info).Bold(true)
	s.DisabledFile = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	s.Symlink = lipgloss.NewStyle().Foreground(t.Warning).Italic(true)
	return s
}
