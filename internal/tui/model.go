// Package tui is the terminal front-end of the upload widget.
package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ocrdrop/internal/config"
	"ocrdrop/internal/errors"
	"ocrdrop/internal/log"
	"ocrdrop/internal/tui/common"
	"ocrdrop/internal/tui/components"
	"ocrdrop/internal/tui/messages"
	"ocrdrop/internal/tui/styles"
	"ocrdrop/internal/tui/views"
	"ocrdrop/internal/widget"
	"ocrdrop/pkg/types"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// clockMsg refreshes relative times.
type clockMsg time.Time

type Model struct {
	widget *widget.Widget
	keys   types.KeyMap
	theme  styles.Theme

	// Core state
	focus    common.Focus
	entries  []types.FileEntry
	cursor   int
	search   types.SearchState
	showHelp bool
	picking  bool
	width    int
	height   int
	now      func() time.Time

	// Components
	dropZone    *components.DropZone
	entryList   *components.EntryList
	searchInput textinput.Model
	picker      filepicker.Model
	statusBar   *components.StatusBar
	help        help.Model
	viewport    viewport.Model
	cardStarts  []int

	changes     <-chan struct{}
	unsubscribe func()
}

// New creates the terminal model for w.
func New(w *widget.Widget, cfg *config.Config) *Model {
	theme := styles.New(cfg)

	si := textinput.New()
	si.Placeholder = "Enter file name to search"
	si.Prompt = "🔍 "
	si.CharLimit = 256

	fp := filepicker.New()
	fp.AllowedTypes = w.Filter().Extensions()
	fp.Styles = theme.Picker()
	fp.ShowPermissions = false
	fp.AutoHeight = false
	fp.Height = 10
	if wd, err := os.Getwd(); err == nil {
		fp.CurrentDirectory = wd
	}

	changes, unsubscribe := w.Subscribe()

	m := &Model{
		widget:      w,
		keys:        types.DefaultKeyMap(),
		theme:       theme,
		focus:       common.FocusDropZone,
		now:         time.Now,
		dropZone:    components.NewDropZone(w.DropZone(), theme),
		entryList:   components.NewEntryList(theme),
		searchInput: si,
		picker:      fp,
		statusBar:   components.NewStatusBar(theme),
		help:        help.New(),
		viewport:    viewport.New(80, 10),
		changes:     changes,
		unsubscribe: unsubscribe,
	}
	m.entries = w.Entries()
	m.search = w.SearchState()
	m.syncViewport()
	return m
}

// Init implements tea.Model
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.dropZone.Focus(), m.waitForChange(), m.clock())
}

// View implements tea.Model
func (m *Model) View() string {
	return views.RenderMainView(m)
}

// Close stops listening for widget changes.
func (m *Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

// Update implements tea.Model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.searchInput.Width = max(msg.Width-12, 10)
		m.syncViewport()
		return m, nil

	case messages.EntriesChangedMsg:
		m.refresh()
		return m, m.waitForChange()

	case messages.SearchDoneMsg:
		m.search = msg.State
		m.statusBar.SetLoading(false)
		m.statusBar.SetText("")
		m.syncViewport()
		return m, nil

	case messages.FilesAddedMsg:
		m.statusBar.SetText(fmt.Sprintf("Added %d of %d file(s)", msg.Accepted, msg.Offered))
		m.refresh()
		return m, nil

	case messages.ErrorMsg:
		m.statusBar.SetError(msg.Err.Error())
		return m, nil

	case clockMsg:
		m.syncViewport()
		return m, m.clock()

	case spinner.TickMsg:
		return m, m.statusBar.Update(msg)

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	return m, m.forward(msg)
}

// forward routes internal messages (picker reads, cursor blinks) to the
// component that owns them.
func (m *Model) forward(msg tea.Msg) tea.Cmd {
	if m.picking {
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)
		return cmd
	}
	switch m.focus {
	case common.FocusDropZone:
		return m.dropZone.Update(msg)
	case common.FocusSearch:
		var cmd tea.Cmd
		m.searchInput, cmd = m.searchInput.Update(msg)
		return cmd
	}
	return nil
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}
	if m.picking {
		return m.handlePickerKeys(msg)
	}

	switch {
	case key.Matches(msg, m.keys.NextFocus):
		return m, m.setFocus(m.focus.Next())
	case key.Matches(msg, m.keys.PrevFocus):
		return m, m.setFocus(m.focus.Prev())
	}

	switch m.focus {
	case common.FocusDropZone:
		return m.handleDropZoneKeys(msg)
	case common.FocusSearch:
		return m.handleSearchKeys(msg)
	default:
		return m.handleEntryKeys(msg)
	}
}

func (m *Model) handleDropZoneKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Paste {
		return m, m.added(m.dropZone.DropText(string(msg.Runes)))
	}

	if m.dropZone.Empty() {
		switch {
		case key.Matches(msg, m.keys.Browse):
			return m, m.openPicker()
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.showHelp = !m.showHelp
			m.syncViewport()
			return m, nil
		case key.Matches(msg, m.keys.Search):
			return m, m.setFocus(common.FocusSearch)
		case key.Matches(msg, m.keys.Down):
			if msg.Type != tea.KeyRunes {
				return m, m.setFocus(common.FocusEntries)
			}
		}
	}

	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.dropZone.Cancel()
		return m, nil
	case key.Matches(msg, m.keys.Submit):
		return m, m.added(m.dropZone.Drop())
	}
	return m, m.dropZone.Update(msg)
}

func (m *Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		return m, m.setFocus(common.FocusEntries)
	case key.Matches(msg, m.keys.Submit):
		return m, m.runSearch(m.searchInput.Value())
	}
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

func (m *Model) handleEntryKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
	case key.Matches(msg, m.keys.Search):
		return m, m.setFocus(common.FocusSearch)
	case key.Matches(msg, m.keys.Cancel):
		return m, m.setFocus(common.FocusDropZone)
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.entries)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return m, nil
	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return m, nil
	case key.Matches(msg, m.keys.Retry):
		if e, ok := m.selected(); ok {
			if err := m.widget.Retry(e.ID); err != nil {
				m.statusBar.SetError(describe(err, e))
			} else {
				m.statusBar.SetText("Retrying " + e.File.Name)
			}
			m.refresh()
		}
	case key.Matches(msg, m.keys.Remove):
		if e, ok := m.selected(); ok {
			if err := m.widget.Remove(e.ID); err != nil {
				log.LogWithError(err).Warn("Remove failed")
			}
			m.statusBar.SetText("Removed " + e.File.Name)
			m.refresh()
		}
	case key.Matches(msg, m.keys.ClearAll):
		if n := m.widget.ClearAll(); n > 0 {
			m.statusBar.SetText(fmt.Sprintf("Cleared %d file(s)", n))
		}
		m.refresh()
	case key.Matches(msg, m.keys.Browse):
		return m, m.openPicker()
	}
	m.syncViewport()
	return m, nil
}

func (m *Model) handlePickerKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Cancel) || msg.String() == "q" {
		m.picking = false
		m.syncViewport()
		return m, nil
	}

	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)

	if ok, path := m.picker.DidSelectFile(msg); ok {
		m.picking = false
		m.picker.CurrentDirectory = filepath.Dir(path)
		added := m.widget.AddPaths([]string{path})
		m.syncViewport()
		return m, tea.Batch(cmd, func() tea.Msg {
			return messages.FilesAddedMsg{Offered: 1, Accepted: len(added)}
		})
	}
	if ok, path := m.picker.DidSelectDisabledFile(msg); ok {
		err := errors.NewFileError("not an accepted file type", filepath.Base(path), errors.UnsupportedType, nil)
		m.statusBar.SetError(err.Error())
	}
	return m, cmd
}

func (m *Model) openPicker() tea.Cmd {
	m.picking = true
	m.statusBar.SetText("Choose a file: enter selects, esc closes")
	m.syncViewport()
	return m.picker.Init()
}

func (m *Model) setFocus(f common.Focus) tea.Cmd {
	if m.focus == common.FocusDropZone && f != common.FocusDropZone {
		m.dropZone.Blur()
	}
	if m.focus == common.FocusSearch && f != common.FocusSearch {
		m.searchInput.Blur()
	}
	m.focus = f
	m.syncViewport()

	switch f {
	case common.FocusDropZone:
		return m.dropZone.Focus()
	case common.FocusSearch:
		return m.searchInput.Focus()
	}
	return nil
}

// added reports the outcome of a drop once the widget took the files.
func (m *Model) added(offered int) tea.Cmd {
	if offered == 0 {
		return nil
	}
	before := len(m.entries)
	m.refresh()
	accepted := len(m.entries) - before
	return func() tea.Msg {
		return messages.FilesAddedMsg{Offered: offered, Accepted: max(accepted, 0)}
	}
}

func (m *Model) runSearch(query string) tea.Cmd {
	w := m.widget
	spin := m.statusBar.SetLoading(true)
	m.statusBar.SetText("Searching...")
	return tea.Batch(spin, func() tea.Msg {
		return messages.SearchDoneMsg{State: w.Search(context.Background(), query)}
	})
}

func (m *Model) waitForChange() tea.Cmd {
	ch := m.changes
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return messages.EntriesChangedMsg{}
	}
}

func (m *Model) clock() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return clockMsg(t) })
}

func (m *Model) refresh() {
	m.entries = m.widget.Entries()
	if m.cursor >= len(m.entries) {
		m.cursor = max(len(m.entries)-1, 0)
	}
	m.syncViewport()
}

func (m *Model) selected() (types.FileEntry, bool) {
	if m.cursor < 0 || m.cursor >= len(m.entries) {
		return types.FileEntry{}, false
	}
	return m.entries[m.cursor], true
}

// syncViewport re-renders the scrollable body and keeps the selected card
// in view.
func (m *Model) syncViewport() {
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.viewport.Width = width - 2

	header := lipgloss.Height(views.RenderHeader(m))
	footer := lipgloss.Height(views.RenderFooter(m))
	if m.height > 0 {
		m.viewport.Height = max(m.height-header-footer, 3)
	}

	cards, starts := m.entryList.Render(m.entries, m.cursor, m.focus == common.FocusEntries, m.now())
	body := m.theme.Subtitle.Render(fmt.Sprintf("Uploaded files (%d)", len(m.entries))) + "\n" + cards
	offset := 1
	if results := components.RenderSearchResults(m.search, m.theme, m.entryList); results != "" {
		body += "\n\n" + m.theme.Subtitle.Render("Search results") + "\n" + results
	}
	m.viewport.SetContent(body)

	m.cardStarts = starts
	if m.focus != common.FocusEntries || m.cursor >= len(starts) {
		return
	}
	top := starts[m.cursor] + offset
	bottom := lipgloss.Height(body)
	if m.cursor+1 < len(starts) {
		bottom = starts[m.cursor+1] + offset
	}
	if top < m.viewport.YOffset {
		m.viewport.SetYOffset(top)
	} else if bottom > m.viewport.YOffset+m.viewport.Height {
		m.viewport.SetYOffset(bottom - m.viewport.Height)
	}
}

func describe(err error, e types.FileEntry) string {
	if errors.IsNotRetryable(err) {
		return fmt.Sprintf("Only failed files can be retried (%s is %s)", e.File.Name, e.Status)
	}
	return err.Error()
}

// ModelReader implementation

func (m *Model) Focus() common.Focus { return m.focus }
func (m *Model) Picking() bool       { return m.picking }
func (m *Model) ShowHelp() bool      { return m.showHelp }
func (m *Model) Theme() styles.Theme { return m.theme }
func (m *Model) Entries() []types.FileEntry {
	return m.entries
}
func (m *Model) Cursor() int { return m.cursor }

func (m *Model) DropZoneView() string { return m.dropZone.View(m.width) }
func (m *Model) PickerView() string {
	return m.theme.Title.Render("Browse: "+m.picker.CurrentDirectory) + "\n" + m.picker.View()
}
func (m *Model) EntriesView() string { return m.viewport.View() }
func (m *Model) StatusView() string  { return m.statusBar.View() }
func (m *Model) Width() int          { return m.width }

func (m *Model) SearchView() string {
	style := m.theme.SearchBox
	if m.focus == common.FocusSearch {
		style = m.theme.SearchBoxFocused
	}
	if m.width > 4 {
		style = style.Width(m.width - 2)
	}
	return style.Render(m.searchInput.View())
}

func (m *Model) HelpView() string {
	if m.showHelp {
		return m.help.FullHelpView(m.keys.FullHelp())
	}
	return m.help.ShortHelpView(m.keys.ShortHelp())
}

// Title renders the header line with a per-status summary.
func (m *Model) Title() string {
	s := m.widget.Summary()
	counts := fmt.Sprintf("%d uploading · %d done · %d failed", s.Uploading+s.Pending, s.Success, s.Error)
	return m.theme.Title.Render("ocrdrop") + "  " + m.theme.Muted.Render(counts) +
		"  " + m.theme.Muted.Render("["+m.focus.String()+"]")
}

// SearchQuery is the text currently in the search box.
func (m *Model) SearchQuery() string { return strings.TrimSpace(m.searchInput.Value()) }
