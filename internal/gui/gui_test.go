//go:build !nogui
// +build !nogui

package gui

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ocrdrop/internal/config"
	"ocrdrop/internal/ocr"
	"ocrdrop/internal/testutil"
	"ocrdrop/internal/upload"
	dropwidget "ocrdrop/internal/widget"
	"ocrdrop/pkg/types"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/test"
	"fyne.io/fyne/v2/widget"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type guiFixture struct {
	app   *App
	w     *dropwidget.Widget
	cfg   *config.Config
	fake  *testutil.FakeOCR
	files map[string]string
}

func newGUIFixture(t *testing.T, strategy upload.Strategy) *guiFixture {
	t.Helper()
	fake := testutil.NewFakeOCR(t)
	cfg := config.NewTestConfig(fake.URL())
	client, err := ocr.NewClient(cfg)
	require.NoError(t, err)

	w := dropwidget.New(cfg, client, dropwidget.WithStrategy(strategy))
	t.Cleanup(w.Close)

	a := NewApp(cfg, w, WithFyneApp(test.NewApp()))
	t.Cleanup(a.Close)
	return &guiFixture{app: a, w: w, cfg: cfg, fake: fake, files: testutil.WriteSamples(t, t.TempDir())}
}

func (f *guiFixture) settle(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, f.w.Wait(ctx))
	f.app.refresh()
}

func (f *guiFixture) cards(t *testing.T) []*widget.Card {
	t.Helper()
	f.app.mu.Lock()
	defer f.app.mu.Unlock()
	var cards []*widget.Card
	for _, obj := range f.app.entriesBox.Objects {
		if c, ok := obj.(*widget.Card); ok {
			cards = append(cards, c)
		}
	}
	return cards
}

// labels collects the text of every label below obj.
func labels(obj fyne.CanvasObject) []string {
	switch o := obj.(type) {
	case *widget.Label:
		return []string{o.Text}
	case *widget.Card:
		return labels(o.Content)
	case *fyne.Container:
		var out []string
		for _, c := range o.Objects {
			out = append(out, labels(c)...)
		}
		return out
	}
	return nil
}

func TestNewApp(t *testing.T) {
	f := newGUIFixture(t, upload.InstantStrategy{})

	require.NotNil(t, f.app.GetMainWindow())
	assert.Empty(t, f.cards(t))
	assert.True(t, IsGUIAvailable())

	var gi Interface = f.app
	assert.NotNil(t, gi)
}

func TestDropAddsCards(t *testing.T) {
	f := newGUIFixture(t, upload.InstantStrategy{})

	f.app.dropped(fyne.NewPos(0, 0), []fyne.URI{
		storage.NewFileURI(f.files["scan.pdf"]),
		storage.NewFileURI(f.files["notes.txt"]),
	})
	assert.Equal(t, "Added 1 of 2 file(s)", f.app.currentStatus())

	f.settle(t)
	cards := f.cards(t)
	require.Len(t, cards, 1)
	assert.Contains(t, cards[0].Title, "scan.pdf")

	text := strings.Join(labels(cards[0]), "\n")
	assert.Contains(t, text, "Uploaded")
	assert.Contains(t, text, "OCR: 2 page(s)")
	assert.Contains(t, text, "page_1.png")
	assert.Contains(t, text, "Invoice 42")
	assert.Contains(t, text, "Page 2")
}

func TestDropIgnoresRemoteURIs(t *testing.T) {
	f := newGUIFixture(t, upload.InstantStrategy{})

	u, err := storage.ParseURI("https://example.com/scan.pdf")
	require.NoError(t, err)
	f.app.dropped(fyne.NewPos(0, 0), []fyne.URI{u})

	assert.Empty(t, f.w.Entries())
	assert.Equal(t, "Added 0 of 1 file(s)", f.app.currentStatus())
}

func TestFailedCardRetries(t *testing.T) {
	f := newGUIFixture(t, upload.NewScriptedStrategy(nil, false, true))
	added := f.w.AddPaths([]string{f.files["photo.png"]})
	require.Len(t, added, 1)
	f.settle(t)

	text := strings.Join(labels(f.cards(t)[0]), "\n")
	assert.Contains(t, text, "Failed")
	assert.Contains(t, text, upload.FailureMessage)

	f.app.retry(added[0].ID)
	f.settle(t)
	e, ok := f.w.Entry(added[0].ID)
	require.True(t, ok)
	assert.Equal(t, types.StatusSuccess, e.Status)

	f.app.retry(added[0].ID)
	assert.Contains(t, f.app.currentStatus(), "cannot retry")
}

func TestRemoveAndClear(t *testing.T) {
	f := newGUIFixture(t, upload.InstantStrategy{})
	added := f.w.AddPaths([]string{f.files["scan.pdf"], f.files["anim.gif"], f.files["pic.webp"]})
	require.Len(t, added, 3)
	f.settle(t)

	f.app.remove(added[1].ID)
	assert.Len(t, f.cards(t), 2)
	f.app.remove(added[1].ID)

	f.app.clearAll()
	assert.Empty(t, f.cards(t))
	assert.Equal(t, "Cleared 2 file(s)", f.app.currentStatus())
}

func TestSearchShowsResults(t *testing.T) {
	f := newGUIFixture(t, upload.InstantStrategy{})
	f.fake.SetSearch(200, testutil.SearchOK)

	f.app.searchEntry.SetText("a.pdf")
	test.Tap(f.app.searchButton)

	require.Eventually(t, func() bool {
		f.app.mu.Lock()
		defer f.app.mu.Unlock()
		return len(f.app.resultsBox.Objects) == 1
	}, 5*time.Second, 10*time.Millisecond)

	f.app.mu.Lock()
	text := strings.Join(labels(f.app.resultsBox), "\n")
	f.app.mu.Unlock()
	assert.Contains(t, text, "a.pdf")
	assert.Contains(t, text, "x\ny")
	assert.Equal(t, []string{"a.pdf"}, f.fake.Queries())
}

func TestSearchShowsError(t *testing.T) {
	f := newGUIFixture(t, upload.InstantStrategy{})

	f.app.searchEntry.SetText("   ")
	test.Tap(f.app.searchButton)

	require.Eventually(t, func() bool {
		f.app.mu.Lock()
		defer f.app.mu.Unlock()
		return strings.Contains(strings.Join(labels(f.app.resultsBox), "\n"), dropwidget.MsgSearchEmpty)
	}, 5*time.Second, 10*time.Millisecond)
	assert.Empty(t, f.fake.Queries())
}

func TestDropFolder(t *testing.T) {
	f := newGUIFixture(t, upload.InstantStrategy{})

	f.app.startWatchMode()
	assert.False(t, f.app.watching(), "no folder configured")
	assert.Contains(t, f.app.currentStatus(), "Failed to start drop folder")

	dir := t.TempDir()
	f.cfg.Watch.Directory = dir
	f.app.startWatchMode()
	require.True(t, f.app.watching())

	testutil.WriteFile(t, dir, "dropped.pdf", testutil.PDFContent)
	require.Eventually(t, func() bool { return len(f.w.Entries()) == 1 }, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, filepath.Join(dir, "dropped.pdf"), f.w.Entries()[0].File.Path)

	f.app.stopWatchMode()
	assert.False(t, f.app.watching())
}
