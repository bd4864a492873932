package components

import (
	"strings"

	"ocrdrop/internal/tui/styles"
	"ocrdrop/pkg/types"
)

// RenderSearchResults draws the search panel below the input: the error
// when there is one, otherwise the results grouped by page.
func RenderSearchResults(st types.SearchState, theme styles.Theme, pages *EntryList) string {
	if st.Error != "" {
		return theme.ErrorText.Render(st.Error)
	}
	if st.Results == nil {
		return ""
	}
	if len(st.Results) == 0 {
		return theme.Muted.Render("No results for " + st.Query)
	}

	var lines []string
	for _, r := range st.Results {
		lines = append(lines, theme.ResultSource.Render(r.Source))
		lines = append(lines, pages.Pages([]types.PageResult{r.PageResult}, "  ")...)
	}
	return strings.Join(lines, "\n")
}
