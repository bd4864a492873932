package components

import (
	"strings"

	"ocrdrop/internal/intake"
	"ocrdrop/internal/tui/styles"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// DropZone is the terminal rendition of the drop target. Terminals deliver
// a dragged file as pasted path text, so the zone is a path input: typing
// or pasting marks a drag over it, submitting drops the paths.
type DropZone struct {
	zone    *intake.DropZone
	input   textinput.Model
	theme   styles.Theme
	focused bool
}

func NewDropZone(zone *intake.DropZone, theme styles.Theme) *DropZone {
	ti := textinput.New()
	ti.Placeholder = "paste or type file paths"
	ti.Prompt = "› "
	ti.CharLimit = 4096
	return &DropZone{zone: zone, input: ti, theme: theme}
}

func (d *DropZone) Focus() tea.Cmd {
	d.focused = true
	return d.input.Focus()
}

func (d *DropZone) Blur() {
	d.focused = false
	d.input.Blur()
	d.zone.Leave()
}

func (d *DropZone) Focused() bool { return d.focused }

func (d *DropZone) Active() bool { return d.zone.Active() }

func (d *DropZone) Empty() bool { return strings.TrimSpace(d.input.Value()) == "" }

// Cancel abandons the pending paths.
func (d *DropZone) Cancel() {
	d.input.Reset()
	d.zone.Leave()
}

// Drop hands the pending paths to the zone and returns how many were offered.
func (d *DropZone) Drop() int {
	paths := intake.SplitDropped(d.input.Value())
	d.input.Reset()
	d.zone.Drop(paths)
	return len(paths)
}

// DropText drops pasted text directly.
func (d *DropZone) DropText(text string) int {
	paths := intake.SplitDropped(text)
	d.zone.Enter()
	d.zone.Drop(paths)
	return len(paths)
}

// Update feeds a key to the path input.
func (d *DropZone) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	d.input, cmd = d.input.Update(msg)
	if d.Empty() {
		d.zone.Leave()
	} else {
		if !d.zone.Active() {
			d.zone.Enter()
		}
		d.zone.Over()
	}
	return cmd
}

func (d *DropZone) View(width int) string {
	style := d.theme.DropZone
	switch {
	case d.zone.Active():
		style = d.theme.DropZoneActive
	case d.focused:
		style = d.theme.DropZoneFocused
	}
	if width > 4 {
		style = style.Width(width - 2)
	}

	title := "Drag & drop files here, or press enter to browse"
	if d.zone.Active() {
		title = "Release to drop: press enter"
	}
	hint := d.theme.Muted.Render("PDF, JPEG, PNG, GIF, WebP")
	return style.Render(title + "\n" + hint + "\n" + d.input.View())
}
