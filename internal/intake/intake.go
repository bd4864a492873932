// Package intake turns dropped or picked paths into file handles and keeps
// only the types the widget accepts.
package intake

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"ocrdrop/internal/errors"
	"ocrdrop/internal/log"
	"ocrdrop/pkg/types"

	"github.com/gabriel-vasile/mimetype"
)

// Filter decides which files are kept from a batch.
type Filter struct {
	accepted map[string]bool
}

// NewFilter builds a filter accepting the given MIME types.
func NewFilter(acceptedTypes []string) *Filter {
	f := &Filter{accepted: make(map[string]bool, len(acceptedTypes))}
	for _, t := range acceptedTypes {
		f.accepted[strings.ToLower(strings.TrimSpace(t))] = true
	}
	return f
}

// Accepts reports whether the MIME type (parameters ignored) is accepted.
func (f *Filter) Accepts(mimeType string) bool {
	base, _, _ := strings.Cut(mimeType, ";")
	return f.accepted[strings.ToLower(strings.TrimSpace(base))]
}

// Extensions lists file extensions for the accepted types, for pickers that
// filter by name.
func (f *Filter) Extensions() []string {
	var exts []string
	seen := make(map[string]bool)
	for t := range f.accepted {
		m := mimetype.Lookup(t)
		if m == nil {
			continue
		}
		for _, ext := range extensionsFor(m) {
			if !seen[ext] {
				seen[ext] = true
				exts = append(exts, ext)
			}
		}
	}
	sort.Strings(exts)
	return exts
}

func extensionsFor(m *mimetype.MIME) []string {
	exts := []string{m.Extension()}
	if m.Is("image/jpeg") {
		exts = append(exts, ".jpeg")
	}
	return exts
}

// Detect stats path and sniffs its MIME type from content.
func Detect(path string) (types.FileHandle, error) {
	info, err := os.Stat(path)
	if err != nil {
		kind := errors.FileAccessDenied
		if os.IsNotExist(err) {
			kind = errors.FileNotFound
		}
		return types.FileHandle{}, errors.NewFileError("cannot stat file", path, kind, err)
	}
	if info.IsDir() {
		return types.FileHandle{}, errors.NewFileError("is a directory", path, errors.InvalidPath, nil)
	}

	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return types.FileHandle{}, errors.NewFileError("cannot read file", path, errors.FileAccessDenied, err)
	}
	base, _, _ := strings.Cut(mt.String(), ";")

	return types.FileHandle{
		Name:     filepath.Base(path),
		Path:     path,
		Size:     info.Size(),
		MIMEType: base,
	}, nil
}

// Acquire detects every path and returns the accepted handles in input order.
// Unreadable paths and rejected types are dropped from the batch; they are
// logged, never returned as errors.
func (f *Filter) Acquire(paths []string) []types.FileHandle {
	handles := make([]types.FileHandle, 0, len(paths))
	for _, p := range paths {
		h, err := Detect(p)
		if err != nil {
			log.LogWithError(err).Warn("Skipping file")
			continue
		}
		if !f.Accepts(h.MIMEType) {
			log.LogWithFields(log.F("path", p), log.F("type", h.MIMEType)).Debug("Rejected file type")
			continue
		}
		handles = append(handles, h)
	}
	return handles
}

// Keep filters handles that already carry a MIME type.
func (f *Filter) Keep(handles []types.FileHandle) []types.FileHandle {
	kept := make([]types.FileHandle, 0, len(handles))
	for _, h := range handles {
		if f.Accepts(h.MIMEType) {
			kept = append(kept, h)
		}
	}
	return kept
}

// DropZone tracks the drag-active indicator of the input surface and hands
// dropped paths to its sink.
type DropZone struct {
	mu     sync.Mutex
	active bool
	sink   func(paths []string)
}

// NewDropZone creates a drop zone delivering drops to sink.
func NewDropZone(sink func(paths []string)) *DropZone {
	return &DropZone{sink: sink}
}

// Enter marks a drag entering the zone.
func (d *DropZone) Enter() { d.setActive(true) }

// Over marks a drag moving over the zone.
func (d *DropZone) Over() { d.setActive(true) }

// Leave marks a drag leaving the zone.
func (d *DropZone) Leave() { d.setActive(false) }

// Drop clears the active indicator and, when paths are present, delivers them.
func (d *DropZone) Drop(paths []string) {
	d.setActive(false)
	if len(paths) == 0 || d.sink == nil {
		return
	}
	d.sink(paths)
}

// Active reports whether a drag is over the zone.
func (d *DropZone) Active() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active
}

func (d *DropZone) setActive(v bool) {
	d.mu.Lock()
	d.active = v
	d.mu.Unlock()
}

// SplitDropped splits text dropped or pasted into a terminal into paths.
// Terminals deliver dragged files as space separated, optionally quoted or
// backslash escaped paths.
func SplitDropped(text string) []string {
	var (
		paths   []string
		cur     strings.Builder
		quote   rune
		escaped bool
	)
	flush := func() {
		if cur.Len() > 0 {
			paths = append(paths, strings.TrimPrefix(cur.String(), "file://"))
			cur.Reset()
		}
	}
	for _, r := range text {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == '\\' && quote != '\'':
			escaped = true
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				cur.WriteRune(r)
			}
		case r == '\'' || r == '"':
			quote = r
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return paths
}
