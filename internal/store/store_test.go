package store_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"ocrdrop/internal/store"
	"ocrdrop/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func handle(name string) types.FileHandle {
	return types.FileHandle{Name: name, Path: "/tmp/" + name, Size: 10, MIMEType: "application/pdf"}
}

func TestCreate(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s := store.New(store.WithClock(func() time.Time { return at }))

	e := s.Create(handle("a.pdf"))
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, types.StatusPending, e.Status)
	assert.Zero(t, e.Progress)
	assert.Zero(t, e.Attempt)
	assert.Equal(t, at, e.AddedAt)
	assert.Equal(t, 1, s.Len())
}

func TestCreateUniqueIDs(t *testing.T) {
	s := store.New()
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		e := s.Create(handle(fmt.Sprintf("%d.pdf", i)))
		require.False(t, seen[e.ID], "duplicate id %s", e.ID)
		seen[e.ID] = true
	}
	assert.Equal(t, 100, s.Len())
}

func TestPatch(t *testing.T) {
	s := store.New()
	a := s.Create(handle("a.pdf"))
	b := s.Create(handle("b.pdf"))

	got, ok := s.Patch(a.ID, func(e *types.FileEntry) {
		e.Status = types.StatusUploading
		e.Progress = 40
	})
	require.True(t, ok)
	assert.Equal(t, 40.0, got.Progress)

	other, _ := s.Get(b.ID)
	assert.Equal(t, types.StatusPending, other.Status, "patch touches only its entry")

	_, ok = s.Patch("missing", func(e *types.FileEntry) { t.Fatal("called for missing id") })
	assert.False(t, ok)

	s.Patch(a.ID, func(e *types.FileEntry) { e.ID = "hijacked" })
	_, ok = s.Get(a.ID)
	assert.True(t, ok, "ids cannot be changed through Patch")
}

func TestPatchAttempt(t *testing.T) {
	s := store.New()
	e := s.Create(handle("a.pdf"))
	s.Patch(e.ID, func(e *types.FileEntry) { e.Attempt = 2 })

	_, ok := s.PatchAttempt(e.ID, 1, func(e *types.FileEntry) { e.Progress = 100 })
	assert.False(t, ok, "stale attempt is dropped")

	got, ok := s.PatchAttempt(e.ID, 2, func(e *types.FileEntry) { e.Progress = 100 })
	require.True(t, ok)
	assert.Equal(t, 100.0, got.Progress)
}

func TestRemove(t *testing.T) {
	s := store.New()
	a := s.Create(handle("a.pdf"))
	b := s.Create(handle("b.pdf"))
	c := s.Create(handle("c.pdf"))

	assert.True(t, s.Remove(b.ID))
	assert.False(t, s.Remove(b.ID))

	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, a.ID, list[0].ID)
	assert.Equal(t, c.ID, list[1].ID)

	_, ok := s.Patch(b.ID, func(e *types.FileEntry) { e.Progress = 50 })
	assert.False(t, ok, "removed entries cannot be patched")
	assert.Len(t, s.List(), 2)
}

func TestClear(t *testing.T) {
	s := store.New()
	a := s.Create(handle("a.pdf"))
	b := s.Create(handle("b.pdf"))

	assert.ElementsMatch(t, []string{a.ID, b.ID}, s.Clear())
	assert.Zero(t, s.Len())
	assert.Empty(t, s.Clear())
}

func TestReadersGetCopies(t *testing.T) {
	s := store.New()
	e := s.Create(handle("a.pdf"))
	s.Patch(e.ID, func(e *types.FileEntry) {
		e.OCRResult = []types.PageResult{{Label: "Page 1", Lines: []string{"x"}}}
	})

	list := s.List()
	list[0].Progress = 99
	list[0].OCRResult[0].Lines[0] = "changed"

	got, _ := s.Get(e.ID)
	assert.Zero(t, got.Progress)
	assert.Equal(t, "x", got.OCRResult[0].Lines[0])
}

func TestSubscribe(t *testing.T) {
	s := store.New()
	ch, cancel := s.Subscribe()

	e := s.Create(handle("a.pdf"))
	for i := 0; i < 5; i++ {
		s.Patch(e.ID, func(e *types.FileEntry) { e.Progress++ })
	}

	select {
	case <-ch:
	default:
		t.Fatal("expected a pending signal")
	}
	select {
	case <-ch:
		t.Fatal("signals should be coalesced")
	default:
	}

	cancel()
	cancel()
	s.Remove(e.ID)
	select {
	case <-ch:
		t.Fatal("unsubscribed channel received a signal")
	default:
	}
}

func TestConcurrentPatches(t *testing.T) {
	s := store.New()
	ids := make([]string, 10)
	for i := range ids {
		ids[i] = s.Create(handle(fmt.Sprintf("%d.pdf", i))).ID
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		for j := 0; j < 20; j++ {
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				s.Patch(id, func(e *types.FileEntry) { e.Progress++ })
			}(id)
		}
	}
	wg.Wait()

	for _, e := range s.List() {
		assert.Equal(t, 20.0, e.Progress, e.File.Name)
	}
}
