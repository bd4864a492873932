package ocr

import (
	"bytes"
	"encoding/json"
	"strconv"

	"ocrdrop/internal/errors"
	"ocrdrop/pkg/types"
)

// FlagOK is the success marker the service puts in "flag".
const FlagOK = "True"

// record is one element of "output", kept raw so each field can be checked
// on its own.
type record map[string]json.RawMessage

// decodeOutput validates the response envelope and returns its records.
func decodeOutput(body []byte) ([]record, error) {
	var env map[string]json.RawMessage
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, errors.Wrap(err, "response is not a JSON object")
	}

	var flag string
	if err := json.Unmarshal(env["flag"], &flag); err != nil || flag != FlagOK {
		msg := "flag is not " + strconv.Quote(FlagOK)
		if remote, ok := stringField(env["error"]); ok && remote != "" {
			msg += ": " + remote
		}
		return nil, errors.New(msg)
	}

	raw := bytes.TrimSpace(env["output"])
	if len(raw) == 0 || raw[0] != '[' {
		return nil, errors.New("output is not an array")
	}
	var out []record
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, errors.Wrap(err, "output is not an array of objects")
	}
	for i, r := range out {
		if r == nil {
			return nil, errors.Newf("output[%d] is not an object", i)
		}
	}
	return out, nil
}

// ParsePages validates a /receiver response.
func ParsePages(body []byte) ([]types.PageResult, error) {
	recs, err := decodeOutput(body)
	if err != nil {
		return nil, err
	}
	pages := make([]types.PageResult, len(recs))
	for i, r := range recs {
		pages[i] = r.page(i)
	}
	return pages, nil
}

// ParseSearch validates a /search_pdf response.
func ParseSearch(body []byte) ([]types.SearchResult, error) {
	recs, err := decodeOutput(body)
	if err != nil {
		return nil, err
	}
	results := make([]types.SearchResult, len(recs))
	for i, r := range recs {
		source, _ := stringField(r["pdf"])
		results[i] = types.SearchResult{Source: source, PageResult: r.page(i)}
	}
	return results, nil
}

func (r record) page(i int) types.PageResult {
	p := types.PageResult{Label: r.label()}
	if p.Label == "" {
		p.Label = types.PositionalLabel(i)
	}
	var lines []string
	if !isArray(r["text"]) || json.Unmarshal(r["text"], &lines) != nil {
		p.Lines = []string{types.NoTextPlaceholder}
		p.Placeholder = true
		return p
	}
	p.Lines = lines
	return p
}

// label accepts "page num" or "page_num", as a string or a number.
func (r record) label() string {
	for _, key := range []string{"page num", "page_num"} {
		raw, ok := r[key]
		if !ok {
			continue
		}
		if s, ok := stringField(raw); ok && s != "" {
			return s
		}
		var n json.Number
		if err := json.Unmarshal(raw, &n); err == nil {
			return n.String()
		}
	}
	return ""
}

func stringField(raw json.RawMessage) (string, bool) {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return "", false
	}
	return s, true
}

func isArray(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '['
}
