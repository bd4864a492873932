package common

import "ocrdrop/internal/tui/styles"

// Focus is the pane receiving key input.
type Focus int

const (
	FocusDropZone Focus = iota
	FocusEntries
	FocusSearch
)

func (f Focus) String() string {
	switch f {
	case FocusDropZone:
		return "drop zone"
	case FocusEntries:
		return "files"
	case FocusSearch:
		return "search"
	}
	return "unknown"
}

// Next cycles forward through the panes.
func (f Focus) Next() Focus { return (f + 1) % 3 }

// Prev cycles backward through the panes.
func (f Focus) Prev() Focus { return (f + 2) % 3 }

// ModelReader defines what views read from the model
type ModelReader interface {
	Focus() Focus
	Picking() bool
	ShowHelp() bool
	Theme() styles.Theme

	Title() string
	DropZoneView() string
	PickerView() string
	EntriesView() string
	SearchView() string
	StatusView() string
	HelpView() string
}
