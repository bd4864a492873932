package types

import "fmt"

// NoTextPlaceholder is shown in place of the lines of a page whose text
// was missing from the OCR response.
const NoTextPlaceholder = "No text available"

// PageResult is one page of OCR output.
type PageResult struct {
	Label string   `json:"page num"`
	Lines []string `json:"text"`
	// Placeholder marks Lines as the NoTextPlaceholder fallback.
	Placeholder bool `json:"-"`
}

// PositionalLabel is the label used for the page at index i when the
// service did not send one.
func PositionalLabel(i int) string {
	return fmt.Sprintf("Page %d", i+1)
}

// Clone returns a deep copy of the page.
func (p PageResult) Clone() PageResult {
	p.Lines = append([]string(nil), p.Lines...)
	return p
}

// SearchResult is a page of a previously processed document.
type SearchResult struct {
	Source string `json:"pdf"`
	PageResult
}

// SearchState is the search panel: the last query and either its results
// or an error. It is replaced as a whole on every search.
type SearchState struct {
	Query   string         `json:"query"`
	Results []SearchResult `json:"results"`
	Error   string         `json:"error,omitempty"`
}
