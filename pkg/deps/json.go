package deps

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/tidwall/jsonc"
)

// extractJSON reads the top-level "dependencies" mapping of a JSON (or
// JSONC) document, keeping document order.
func extractJSON(text []byte) []Dependency {
	dec := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(text)))
	dec.UseNumber()

	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return nil
	}
	var out []Dependency
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil
		}
		if tok == "dependencies" {
			out = append(out, jsonDependencies(raw)...)
		}
	}
	if _, err := dec.Token(); err != nil {
		return nil
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil
	}
	return out
}

func jsonDependencies(raw json.RawMessage) []Dependency {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return nil
	}
	var out []Dependency
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return out
		}
		name, _ := tok.(string)
		var v any
		if err := dec.Decode(&v); err != nil {
			return out
		}
		if version, ok := jsonVersion(v); ok {
			out = append(out, Dependency{Name: name, Version: version})
		}
	}
	return out
}

// jsonVersion accepts a plain string or number, or a lockfile-style entry
// with a "version" field.
func jsonVersion(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case map[string]any:
		s, ok := t["version"].(string)
		return s, ok
	default:
		return "", false
	}
}
