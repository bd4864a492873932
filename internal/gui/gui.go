//go:build !nogui
// +build !nogui

package gui

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"ocrdrop/internal/config"
	"ocrdrop/internal/errors"
	"ocrdrop/internal/format"
	"ocrdrop/internal/log"
	"ocrdrop/internal/watch"
	dropwidget "ocrdrop/internal/widget"
	"ocrdrop/pkg/types"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

// App is the GUI application
type App struct {
	fyneApp fyne.App
	window  fyne.Window
	cfg     *config.Config
	widget  *dropwidget.Widget
	daemon  *watch.Daemon

	mu           sync.Mutex
	entriesBox   *fyne.Container
	resultsBox   *fyne.Container
	summary      *widget.Label
	status       *widget.Label
	searchEntry  *widget.Entry
	searchButton *widget.Button

	statusUpdater func() // Refreshes the system tray menu
	stop          chan struct{}
	stopOnce      sync.Once
}

// Option configures an App.
type Option func(*App)

// WithFyneApp runs the window on an existing fyne application, such as the
// one from fyne's test package.
func WithFyneApp(fa fyne.App) Option {
	return func(a *App) { a.fyneApp = fa }
}

// Create returns a new GUI instance
func (f *Factory) Create() (Interface, error) {
	return NewApp(f.config, f.widget), nil
}

// IsGUIAvailable returns whether the GUI is available in this build
func IsGUIAvailable() bool {
	return true
}

// NewApp creates a new GUI application
func NewApp(cfg *config.Config, w *dropwidget.Widget, opts ...Option) *App {
	a := &App{cfg: cfg, widget: w, stop: make(chan struct{})}
	for _, opt := range opts {
		opt(a)
	}
	if a.fyneApp == nil {
		a.fyneApp = app.NewWithID("io.github.ocrdrop")
	}

	a.window = a.fyneApp.NewWindow("ocrdrop")
	a.setupMainWindow()
	a.setupSystemTray()
	a.listen()
	a.refresh()
	return a
}

// GetMainWindow returns the main window for testing purposes
func (a *App) GetMainWindow() fyne.Window {
	return a.window
}

// Run shows the window and blocks until the application quits.
func (a *App) Run() {
	a.window.ShowAndRun()
	a.Close()
}

// Close stops the drop folder and the change listener.
func (a *App) Close() {
	a.stopOnce.Do(func() { close(a.stop) })
	a.stopWatchMode()
}

func (a *App) setupMainWindow() {
	exts := a.widget.Filter().Extensions()

	title := widget.NewLabelWithStyle("ocrdrop", fyne.TextAlignCenter, fyne.TextStyle{Bold: true})
	dropLabel := widget.NewLabelWithStyle("Drag and drop files here", fyne.TextAlignCenter, fyne.TextStyle{Bold: true})
	hint := widget.NewLabelWithStyle("Accepted: "+strings.Join(exts, " "), fyne.TextAlignCenter, fyne.TextStyle{Italic: true})
	browse := widget.NewButtonWithIcon("Browse...", theme.FolderOpenIcon(), a.browse)
	clearAll := widget.NewButtonWithIcon("Clear all", theme.DeleteIcon(), a.clearAll)
	dropCard := widget.NewCard("", "", container.NewVBox(
		dropLabel,
		hint,
		container.NewHBox(layout.NewSpacer(), browse, clearAll, layout.NewSpacer()),
	))

	a.entriesBox = container.NewVBox()
	a.resultsBox = container.NewVBox()

	a.searchEntry = widget.NewEntry()
	a.searchEntry.SetPlaceHolder("Enter file name to search")
	a.searchEntry.OnSubmitted = func(string) { a.search() }
	a.searchButton = widget.NewButtonWithIcon("Search", theme.SearchIcon(), a.search)
	searchPane := container.NewBorder(
		container.NewBorder(nil, nil, nil, a.searchButton, a.searchEntry),
		nil, nil, nil,
		container.NewVScroll(a.resultsBox),
	)

	split := container.NewVSplit(container.NewVScroll(a.entriesBox), searchPane)
	split.Offset = 0.6

	a.summary = widget.NewLabel("")
	a.status = widget.NewLabel("")
	a.status.Truncation = fyne.TextTruncateEllipsis
	statusBar := container.NewBorder(nil, nil, a.summary, nil, a.status)

	a.window.SetContent(container.NewBorder(
		container.NewVBox(title, dropCard),
		statusBar,
		nil, nil,
		split,
	))
	a.window.Resize(fyne.NewSize(900, 700))
	a.window.SetOnDropped(a.dropped)

	a.window.SetCloseIntercept(func() {
		if a.watching() {
			a.window.Hide()
			return
		}
		a.fyneApp.Quit()
	})
}

// setupSystemTray sets up the system tray icon and menu
func (a *App) setupSystemTray() {
	deskApp, ok := a.fyneApp.(desktop.App)
	if !ok {
		return
	}
	var menuItems func() []*fyne.MenuItem
	menuItems = func() []*fyne.MenuItem {
		items := []*fyne.MenuItem{
			fyne.NewMenuItem("Show ocrdrop", a.window.Show),
			fyne.NewMenuItemSeparator(),
		}
		if a.watching() {
			items = append(items, fyne.NewMenuItem("Stop Drop Folder", a.stopWatchMode))
		} else {
			items = append(items, fyne.NewMenuItem("Start Drop Folder", a.startWatchMode))
		}
		return append(items, fyne.NewMenuItemSeparator(), fyne.NewMenuItem("Exit", func() {
			a.Close()
			a.fyneApp.Quit()
		}))
	}
	deskApp.SetSystemTrayMenu(fyne.NewMenu("ocrdrop", menuItems()...))
	a.statusUpdater = func() {
		deskApp.SetSystemTrayMenu(fyne.NewMenu("ocrdrop", menuItems()...))
	}
}

// listen redraws the file list whenever the widget's entries change.
func (a *App) listen() {
	changes, unsubscribe := a.widget.Subscribe()
	go func() {
		defer unsubscribe()
		for {
			select {
			case <-a.stop:
				return
			case <-changes:
				a.refresh()
			}
		}
	}()
}

func (a *App) refresh() {
	entries := a.widget.Entries()
	cards := make([]fyne.CanvasObject, 0, len(entries))
	for _, e := range entries {
		cards = append(cards, a.card(e))
	}
	if len(cards) == 0 {
		cards = append(cards, widget.NewLabelWithStyle("No files yet", fyne.TextAlignCenter, fyne.TextStyle{Italic: true}))
	}

	s := a.widget.Summary()
	a.mu.Lock()
	a.entriesBox.Objects = cards
	a.entriesBox.Refresh()
	a.summary.SetText(fmt.Sprintf("%d file(s) · %d uploading · %d done · %d failed",
		s.Total, s.Pending+s.Uploading, s.Success, s.Error))
	a.mu.Unlock()
}

func (a *App) card(e types.FileEntry) *widget.Card {
	icon := "🖼"
	if e.File.IsPDF() {
		icon = "📄"
	}
	subtitle := fmt.Sprintf("%s · added %s", format.FileSize(e.File.Size), format.Added(e.AddedAt, time.Now()))

	bar := widget.NewProgressBar()
	bar.SetValue(e.Progress / 100)
	rows := container.NewVBox(bar, widget.NewLabel(statusText(e.Status)))

	switch {
	case e.Error != "":
		msg := widget.NewLabelWithStyle(e.Error, fyne.TextAlignLeading, fyne.TextStyle{Italic: true})
		msg.Importance = widget.DangerImportance
		msg.Wrapping = fyne.TextWrapWord
		rows.Add(msg)
		if e.Status == types.StatusError {
			id := e.ID
			rows.Add(widget.NewButtonWithIcon("Retry", theme.ViewRefreshIcon(), func() { a.retry(id) }))
		}
	case e.OCRResult != nil:
		rows.Add(widget.NewLabelWithStyle(fmt.Sprintf("OCR: %d page(s)", len(e.OCRResult)), fyne.TextAlignLeading, fyne.TextStyle{Bold: true}))
		for _, p := range e.OCRResult {
			rows.Add(pageView(p))
		}
	case e.Status == types.StatusSuccess:
		rows.Add(widget.NewLabelWithStyle("Processing OCR...", fyne.TextAlignLeading, fyne.TextStyle{Italic: true}))
	}

	id := e.ID
	remove := widget.NewButtonWithIcon("", theme.ContentRemoveIcon(), func() { a.remove(id) })
	return widget.NewCard(icon+" "+e.File.Name, subtitle, container.NewBorder(nil, nil, nil, container.NewVBox(remove), rows))
}

func pageView(p types.PageResult) fyne.CanvasObject {
	label := widget.NewLabelWithStyle(p.Label, fyne.TextAlignLeading, fyne.TextStyle{Bold: true})
	text := widget.NewLabelWithStyle(strings.Join(p.Lines, "\n"), fyne.TextAlignLeading, fyne.TextStyle{Italic: p.Placeholder})
	text.Wrapping = fyne.TextWrapWord
	return container.NewVBox(label, text)
}

func statusText(s types.Status) string {
	switch s {
	case types.StatusPending:
		return "Waiting"
	case types.StatusUploading:
		return "Uploading..."
	case types.StatusSuccess:
		return "Uploaded"
	case types.StatusError:
		return "Failed"
	}
	return string(s)
}

// dropped receives files dragged onto the window.
func (a *App) dropped(_ fyne.Position, uris []fyne.URI) {
	paths := make([]string, 0, len(uris))
	for _, u := range uris {
		if u.Scheme() != "file" {
			log.LogWithFields(log.F("uri", u.String())).Debug("Ignoring non-file drop")
			continue
		}
		paths = append(paths, u.Path())
	}
	a.addPaths(len(uris), func() { a.widget.DropZone().Drop(paths) })
}

func (a *App) browse() {
	d := dialog.NewFileOpen(func(r fyne.URIReadCloser, err error) {
		if err != nil {
			a.ShowError("Cannot open file", err)
			return
		}
		if r == nil {
			return
		}
		path := r.URI().Path()
		_ = r.Close()
		a.addPaths(1, func() { a.widget.AddPaths([]string{path}) })
	}, a.window)
	d.SetFilter(storage.NewExtensionFileFilter(a.widget.Filter().Extensions()))
	d.Show()
}

func (a *App) addPaths(offered int, add func()) {
	if offered == 0 {
		return
	}
	before := a.widget.Summary().Total
	add()
	accepted := a.widget.Summary().Total - before
	a.setStatus(fmt.Sprintf("Added %d of %d file(s)", max(accepted, 0), offered))
	a.refresh()
}

func (a *App) retry(id string) {
	if err := a.widget.Retry(id); err != nil {
		a.setStatus(err.Error())
		return
	}
	a.refresh()
}

func (a *App) remove(id string) {
	if err := a.widget.Remove(id); err != nil && !errors.IsEntryNotFound(err) {
		a.ShowError("Cannot remove file", err)
	}
	a.refresh()
}

func (a *App) clearAll() {
	if n := a.widget.ClearAll(); n > 0 {
		a.setStatus(fmt.Sprintf("Cleared %d file(s)", n))
	}
	a.refresh()
}

func (a *App) search() {
	query := a.searchEntry.Text
	a.searchButton.Disable()
	a.setStatus("Searching...")
	go func() {
		a.widget.Search(context.Background(), query)
		a.showSearch()
		a.searchButton.Enable()
		a.setStatus("")
	}()
}

// showSearch renders the widget's current search panel. The widget keeps
// only the latest search, so an older request finishing late shows the
// newer state.
func (a *App) showSearch() {
	st := a.widget.SearchState()
	var objs []fyne.CanvasObject
	switch {
	case st.Error != "":
		msg := widget.NewLabel(st.Error)
		msg.Importance = widget.DangerImportance
		objs = append(objs, msg)
	case st.Results == nil:
	case len(st.Results) == 0:
		objs = append(objs, widget.NewLabel("No results for "+st.Query))
	default:
		for _, r := range st.Results {
			src := widget.NewLabelWithStyle(r.Source, fyne.TextAlignLeading, fyne.TextStyle{Bold: true})
			objs = append(objs, container.NewVBox(src, pageView(r.PageResult)))
		}
	}

	a.mu.Lock()
	a.resultsBox.Objects = objs
	a.resultsBox.Refresh()
	a.mu.Unlock()
}

func (a *App) watching() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.daemon != nil && a.daemon.Status().Running
}

// startWatchMode feeds the configured drop folder into the widget.
func (a *App) startWatchMode() {
	if a.watching() {
		return
	}
	d, err := watch.NewDaemon(a.cfg, a.widget.DropZone())
	if err == nil {
		err = d.Start()
	}
	if err != nil {
		a.ShowError("Failed to start drop folder", err)
		return
	}
	a.mu.Lock()
	a.daemon = d
	a.mu.Unlock()
	a.setStatus("Watching " + d.Status().Directory)
	if a.statusUpdater != nil {
		a.statusUpdater()
	}
}

// stopWatchMode stops the drop folder if it runs.
func (a *App) stopWatchMode() {
	a.mu.Lock()
	d := a.daemon
	a.daemon = nil
	a.mu.Unlock()
	if d == nil {
		return
	}
	d.Stop()
	a.setStatus("Drop folder stopped")
	if a.statusUpdater != nil {
		a.statusUpdater()
	}
}

func (a *App) setStatus(text string) {
	a.mu.Lock()
	a.status.SetText(text)
	a.mu.Unlock()
}

func (a *App) currentStatus() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status.Text
}

// ShowError displays an error dialog
func (a *App) ShowError(title string, err error) {
	if err == nil {
		return
	}
	log.LogWithError(err).Warn(title)
	a.setStatus(title + ": " + err.Error())
	dialog.ShowError(err, a.window)
}

// ShowInfo displays an information dialog
func (a *App) ShowInfo(message string) {
	dialog.ShowInformation("Information", message, a.window)
}
