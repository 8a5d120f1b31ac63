package client

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// AttributeMap maps attribute names to values, remembering the order in which
// names first appeared. A nil value means the API sent null.
// The zero value is an empty map ready to use.
type AttributeMap struct {
	names  []string
	values map[string]*string
}

// Set records name → value. A repeated name overwrites the value but keeps
// its original position.
func (m *AttributeMap) Set(name string, value *string) {
	if m.values == nil {
		m.values = make(map[string]*string)
	}
	if _, ok := m.values[name]; !ok {
		m.names = append(m.names, name)
	}
	m.values[name] = value
}

// Get returns the value for name and whether the name is present.
func (m AttributeMap) Get(name string) (*string, bool) {
	v, ok := m.values[name]
	return v, ok
}

// Value returns the value for name as a cell string; absent and null are "".
func (m AttributeMap) Value(name string) string {
	if v := m.values[name]; v != nil {
		return *v
	}
	return ""
}

// Names returns attribute names in first-seen order.
func (m AttributeMap) Names() []string {
	out := make([]string, len(m.names))
	copy(out, m.names)
	return out
}

// Len returns the number of distinct attribute names.
func (m AttributeMap) Len() int {
	return len(m.names)
}

// attributeListField is the response field carrying the name/value entries.
const attributeListField = "deviceTextStructured"

type attributeEntry struct {
	PairLine *struct {
		Name  json.RawMessage `json:"name"`
		Value json.RawMessage `json:"value"`
	} `json:"pairLine"`
}

// ParseAttributes extracts the attribute map from a lookup response body:
//
//	{"deviceTextStructured": [{"pairLine": {"name": "Model", "value": "X100"}}, ...]}
//
// Entries without a pairLine object carrying a string name are skipped.
// Invalid JSON returns a decode error. Valid JSON that is not an object, or
// lacks the attribute list, returns an empty map and ErrMalformedPayload.
func ParseAttributes(body []byte) (AttributeMap, error) {
	var attrs AttributeMap

	var root map[string]json.RawMessage
	if err := json.Unmarshal(body, &root); err != nil {
		if json.Valid(body) {
			return attrs, fmt.Errorf("%w: body is not a JSON object", ErrMalformedPayload)
		}
		return attrs, fmt.Errorf("decode lookup response: %w", err)
	}

	rawList, ok := root[attributeListField]
	if !ok || isNull(rawList) {
		return attrs, fmt.Errorf("%w: %s missing", ErrMalformedPayload, attributeListField)
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(rawList, &entries); err != nil {
		return attrs, fmt.Errorf("%w: %s is not a list", ErrMalformedPayload, attributeListField)
	}

	for _, raw := range entries {
		var entry attributeEntry
		if err := json.Unmarshal(raw, &entry); err != nil || entry.PairLine == nil {
			continue
		}

		var name string
		if err := json.Unmarshal(entry.PairLine.Name, &name); err != nil {
			continue
		}

		attrs.Set(name, scalarValue(entry.PairLine.Value))
	}

	return attrs, nil
}

// scalarValue converts a JSON value to a cell value: strings unquoted, null
// or missing as nil, anything else as its literal JSON text.
func scalarValue(raw json.RawMessage) *string {
	if len(raw) == 0 || isNull(raw) {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return &s
	}
	text := string(bytes.TrimSpace(raw))
	return &text
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
