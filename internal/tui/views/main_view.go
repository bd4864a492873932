// Package views lays out the terminal screen.
package views

import (
	"strings"

	"ocrdrop/internal/tui/common"
)

// RenderMainView stacks header, scrollable body and footer.
func RenderMainView(m common.ModelReader) string {
	var sb strings.Builder
	sb.WriteString(RenderHeader(m))
	sb.WriteString(m.EntriesView())
	sb.WriteString("\n")
	sb.WriteString(RenderFooter(m))
	return m.Theme().App.Render(sb.String())
}

// RenderHeader is the title, the drop zone (or file picker while browsing)
// and the search box.
func RenderHeader(m common.ModelReader) string {
	var sb strings.Builder
	sb.WriteString(m.Title())
	sb.WriteString("\n\n")
	if m.Picking() {
		sb.WriteString(m.PickerView())
	} else {
		sb.WriteString(m.DropZoneView())
	}
	sb.WriteString("\n")
	sb.WriteString(m.SearchView())
	sb.WriteString("\n")
	return sb.String()
}

// RenderFooter is the status line and key help.
func RenderFooter(m common.ModelReader) string {
	return m.StatusView() + "\n" + m.Theme().Help.Render(m.HelpView())
}
