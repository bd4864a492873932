package components

import (
	"fmt"
	"strings"
	"time"

	"ocrdrop/internal/format"
	"ocrdrop/internal/tui/styles"
	"ocrdrop/pkg/types"

	"github.com/charmbracelet/bubbles/progress"
)

const barWidth = 30

// EntryList renders the tracked files as cards.
type EntryList struct {
	theme styles.Theme
	bars  map[types.Status]progress.Model
}

func NewEntryList(theme styles.Theme) *EntryList {
	bars := make(map[types.Status]progress.Model)
	for _, s := range []types.Status{types.StatusPending, types.StatusUploading, types.StatusSuccess, types.StatusError} {
		bars[s] = progress.New(
			progress.WithSolidFill(string(theme.StatusColor(s))),
			progress.WithWidth(barWidth),
			progress.WithoutPercentage(),
		)
	}
	return &EntryList{theme: theme, bars: bars}
}

// Icon returns the glyph shown for a file type.
func Icon(h types.FileHandle) string {
	if h.IsPDF() {
		return "📄"
	}
	return "🖼"
}

// Render draws every entry and returns the line each card starts on.
func (l *EntryList) Render(entries []types.FileEntry, cursor int, focused bool, now time.Time) (string, []int) {
	if len(entries) == 0 {
		return l.theme.Muted.Render("No files yet. Drop files above or press enter to browse."), nil
	}

	var sb strings.Builder
	starts := make([]int, len(entries))
	line := 0
	for i, e := range entries {
		starts[i] = line
		card := l.Card(e, focused && i == cursor, now)
		sb.WriteString(card)
		sb.WriteString("\n")
		line += strings.Count(card, "\n") + 1
	}
	return strings.TrimRight(sb.String(), "\n"), starts
}

// Card renders a single entry.
func (l *EntryList) Card(e types.FileEntry, selected bool, now time.Time) string {
	t := l.theme
	var lines []string

	meta := format.FileSize(e.File.Size)
	if added := format.Added(e.AddedAt, now); added != "" {
		meta += " · added " + added
	}
	lines = append(lines, fmt.Sprintf("%s %s  %s  %s",
		Icon(e.File), t.FileName.Render(e.File.Name), t.Muted.Render(meta), t.Badge(e.Status)))

	lines = append(lines, fmt.Sprintf("%s %3.0f%%", l.bars[e.Status].ViewAs(e.Progress/100), e.Progress))

	switch {
	case e.Status == types.StatusError:
		lines = append(lines, t.ErrorText.Render(e.Error)+t.Muted.Render("  (r to retry)"))
	case e.Status == types.StatusSuccess && e.OCRResult != nil:
		lines = append(lines, t.SuccessText.Render(fmt.Sprintf("OCR: %d page(s)", len(e.OCRResult))))
		lines = append(lines, l.Pages(e.OCRResult, "  ")...)
	case e.Status == types.StatusSuccess:
		lines = append(lines, t.Muted.Render("Processing OCR..."))
	}

	style := t.Card
	if selected {
		style = t.CardSelected
	}
	return style.Render(strings.Join(lines, "\n"))
}

// Pages renders OCR pages as a label followed by their lines.
func (l *EntryList) Pages(pages []types.PageResult, indent string) []string {
	var out []string
	for _, p := range pages {
		out = append(out, indent+l.theme.PageLabel.Render("Page: "+p.Label))
		for _, line := range p.Lines {
			if p.Placeholder {
				out = append(out, indent+"  "+l.theme.Placeholder.Render(line))
				continue
			}
			out = append(out, indent+"  "+line)
		}
	}
	return out
}
