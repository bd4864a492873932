package ocr

import (
	"testing"

	"ocrdrop/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePages(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []types.PageResult
	}{
		{
			name: "labels and lines",
			body: `{"flag":"True","output":[{"page num":"page_1.jpg","text":["a","b"]}]}`,
			want: []types.PageResult{{Label: "page_1.jpg", Lines: []string{"a", "b"}}},
		},
		{
			name: "underscore key and numeric label",
			body: `{"flag":"True","output":[{"page_num":"p1","text":[]},{"page num":2,"text":["x"]}]}`,
			want: []types.PageResult{
				{Label: "p1", Lines: []string{}},
				{Label: "2", Lines: []string{"x"}},
			},
		},
		{
			name: "positional label fallback",
			body: `{"flag":"True","output":[{"text":["a"]},{"page num":"","text":["b"]}]}`,
			want: []types.PageResult{
				{Label: "Page 1", Lines: []string{"a"}},
				{Label: "Page 2", Lines: []string{"b"}},
			},
		},
		{
			name: "placeholder when text is missing or not a list of strings",
			body: `{"flag":"True","output":[{"page num":"a"},{"page num":"b","text":"flat"},{"page num":"c","text":[1,2]},{"page num":"d","text":null}]}`,
			want: []types.PageResult{
				{Label: "a", Lines: []string{types.NoTextPlaceholder}, Placeholder: true},
				{Label: "b", Lines: []string{types.NoTextPlaceholder}, Placeholder: true},
				{Label: "c", Lines: []string{types.NoTextPlaceholder}, Placeholder: true},
				{Label: "d", Lines: []string{types.NoTextPlaceholder}, Placeholder: true},
			},
		},
		{
			name: "empty output",
			body: `{"flag":"True","output":[]}`,
			want: []types.PageResult{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePages([]byte(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseMalformed(t *testing.T) {
	bodies := map[string]string{
		"flag false":        `{"flag":"False"}`,
		"flag false reason": `{"flag":"False","output":[],"error":"boom"}`,
		"flag boolean":      `{"flag":true,"output":[]}`,
		"flag lowercase":    `{"flag":"true","output":[]}`,
		"no flag":           `{"output":[]}`,
		"no output":         `{"flag":"True"}`,
		"null output":       `{"flag":"True","output":null}`,
		"object output":     `{"flag":"True","output":{}}`,
		"scalar records":    `{"flag":"True","output":[1]}`,
		"null record":       `{"flag":"True","output":[null]}`,
		"not json":          `<html>502</html>`,
		"array body":        `[]`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			_, err := ParsePages([]byte(body))
			assert.Error(t, err)
			_, err = ParseSearch([]byte(body))
			assert.Error(t, err)
		})
	}

	_, err := ParsePages([]byte(`{"flag":"False","error":"disk full"}`))
	assert.Contains(t, err.Error(), "disk full")
}

func TestParseSearch(t *testing.T) {
	got, err := ParseSearch([]byte(`{"flag":"True","output":[{"pdf":"a.pdf","text":["x","y"]}]}`))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a.pdf", got[0].Source)
	assert.Equal(t, "Page 1", got[0].Label)
	assert.Equal(t, []string{"x", "y"}, got[0].Lines)

	got, err = ParseSearch([]byte(`{"flag":"True","output":[{"pdf":"a.pdf","page num":"p3","text":["x"]},{"pdf":7}]}`))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "p3", got[0].Label)
	assert.Equal(t, "", got[1].Source)
	assert.Equal(t, "Page 2", got[1].Label)
	assert.True(t, got[1].Placeholder)
}
