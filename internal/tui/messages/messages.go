package messages

import "ocrdrop/pkg/types"

// ErrorMsg reports a failure to show in the status bar.
type ErrorMsg struct {
	Err error
}

// EntriesChangedMsg signals that the widget's entries changed.
type EntriesChangedMsg struct{}

// SearchDoneMsg carries the search panel after a search finished.
type SearchDoneMsg struct {
	State types.SearchState
}

// FilesAddedMsg reports how many dropped or picked files were accepted.
type FilesAddedMsg struct {
	Offered  int
	Accepted int
}
