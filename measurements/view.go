package measurements

import (
	"bytes"
	"encoding/json"
)

// Table is an array of JSON objects laid out for display. Columns are the
// union of object keys in first-seen order.
type Table struct {
	Columns []string
	Rows    [][]string
}

// View is what the dashboard renders for a measurements document. Exactly
// one of Table or Raw is set unless the document is an empty array.
type View struct {
	Count int
	Table *Table
	Raw   string
}

func (v View) Empty() bool {
	return v.Count == 0 && v.Table == nil && v.Raw == ""
}

// NewView lays out doc. Arrays whose elements are all objects become a
// Table; anything else is shown as indented JSON.
func NewView(doc json.RawMessage) View {
	trimmed := bytes.TrimSpace(doc)
	if len(trimmed) == 0 {
		return View{}
	}

	if trimmed[0] == '[' {
		objects, ok := decodeObjectArray(trimmed)
		if ok {
			if len(objects) == 0 {
				return View{}
			}
			return View{Count: len(objects), Table: buildTable(objects)}
		}
	}

	var out bytes.Buffer
	if err := json.Indent(&out, trimmed, "", "  "); err != nil {
		return View{Raw: string(trimmed)}
	}
	count := 1
	var items []json.RawMessage
	if json.Unmarshal(trimmed, &items) == nil {
		count = len(items)
	}
	return View{Count: count, Raw: out.String()}
}

type field struct {
	key   string
	value json.RawMessage
}

// decodeObjectArray walks the array token by token so object keys keep
// their document order.
func decodeObjectArray(doc []byte) ([][]field, bool) {
	dec := json.NewDecoder(bytes.NewReader(doc))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('[') {
		return nil, false
	}

	var objects [][]field
	for dec.More() {
		tok, err := dec.Token()
		if err != nil || tok != json.Delim('{') {
			return nil, false
		}
		var obj []field
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, false
			}
			key, ok := keyTok.(string)
			if !ok {
				return nil, false
			}
			var value json.RawMessage
			if err := dec.Decode(&value); err != nil {
				return nil, false
			}
			obj = append(obj, field{key: key, value: value})
		}
		if tok, err := dec.Token(); err != nil || tok != json.Delim('}') {
			return nil, false
		}
		objects = append(objects, obj)
	}
	return objects, true
}

func buildTable(objects [][]field) *Table {
	t := &Table{}
	index := map[string]int{}
	for _, obj := range objects {
		for _, f := range obj {
			if _, seen := index[f.key]; !seen {
				index[f.key] = len(t.Columns)
				t.Columns = append(t.Columns, f.key)
			}
		}
	}

	for _, obj := range objects {
		row := make([]string, len(t.Columns))
		for _, f := range obj {
			row[index[f.key]] = cellText(f.value)
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func cellText(value json.RawMessage) string {
	if bytes.Equal(value, []byte("null")) {
		return ""
	}
	var s string
	if json.Unmarshal(value, &s) == nil {
		return s
	}
	var out bytes.Buffer
	if err := json.Compact(&out, value); err != nil {
		return string(value)
	}
	return out.String()
}
