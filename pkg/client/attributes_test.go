package client

import (
	"errors"
	"reflect"
	"testing"
)

func strPtr(s string) *string { return &s }

func TestAttributeMap_SetKeepsFirstSeenOrder(t *testing.T) {
	var m AttributeMap
	m.Set("Model", strPtr("X100"))
	m.Set("Size", strPtr("DN50"))
	m.Set("Model", strPtr("X200"))

	if got, want := m.Names(), []string{"Model", "Size"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
	if got := m.Value("Model"); got != "X200" {
		t.Errorf("Value(Model) = %q, want X200 (last write wins)", got)
	}
	if m.Len() != 2 {
		t.Errorf("Len() = %d, want 2", m.Len())
	}
}

func TestAttributeMap_ZeroValue(t *testing.T) {
	var m AttributeMap

	if m.Len() != 0 {
		t.Errorf("Len() = %d, want 0", m.Len())
	}
	if _, ok := m.Get("x"); ok {
		t.Error("Get on zero map should report absent")
	}
	if m.Value("x") != "" {
		t.Error("Value on zero map should be empty")
	}
	if names := m.Names(); len(names) != 0 {
		t.Errorf("Names() = %v, want empty", names)
	}
}

func TestAttributeMap_NamesIsCopy(t *testing.T) {
	var m AttributeMap
	m.Set("a", nil)

	names := m.Names()
	names[0] = "mutated"

	if m.Names()[0] != "a" {
		t.Error("Names() must return a copy")
	}
}

func TestParseAttributes(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantNames  []string
		wantValues map[string]*string
	}{
		{
			name:       "single pair",
			body:       `{"deviceTextStructured":[{"pairLine":{"name":"Model","value":"X100"}}]}`,
			wantNames:  []string{"Model"},
			wantValues: map[string]*string{"Model": strPtr("X100")},
		},
		{
			name: "entries without pairLine are skipped",
			body: `{"deviceTextStructured":[
				{"header":"General"},
				{"pairLine":{"name":"Model","value":"X100"}},
				{"pairLine":null},
				"loose string",
				{"pairLine":{"value":"no name"}},
				{"pairLine":{"name":42,"value":"numeric name"}},
				{"pairLine":{"name":"Size","value":"DN50"}}
			]}`,
			wantNames:  []string{"Model", "Size"},
			wantValues: map[string]*string{"Model": strPtr("X100"), "Size": strPtr("DN50")},
		},
		{
			name:       "null and missing values",
			body:       `{"deviceTextStructured":[{"pairLine":{"name":"A","value":null}},{"pairLine":{"name":"B"}}]}`,
			wantNames:  []string{"A", "B"},
			wantValues: map[string]*string{"A": nil, "B": nil},
		},
		{
			name:       "non-string scalars keep literal text",
			body:       `{"deviceTextStructured":[{"pairLine":{"name":"Pressure","value":16}},{"pairLine":{"name":"Ex","value":true}}]}`,
			wantNames:  []string{"Pressure", "Ex"},
			wantValues: map[string]*string{"Pressure": strPtr("16"), "Ex": strPtr("true")},
		},
		{
			name:       "empty list",
			body:       `{"deviceTextStructured":[]}`,
			wantNames:  []string{},
			wantValues: map[string]*string{},
		},
		{
			name:       "other fields ignored",
			body:       `{"serial":"A1","deviceTextStructured":[{"pairLine":{"name":"Model","value":"X100"}}]}`,
			wantNames:  []string{"Model"},
			wantValues: map[string]*string{"Model": strPtr("X100")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attrs, err := ParseAttributes([]byte(tt.body))
			if err != nil {
				t.Fatalf("ParseAttributes() error = %v", err)
			}

			if got := attrs.Names(); !reflect.DeepEqual(got, tt.wantNames) {
				t.Errorf("Names() = %v, want %v", got, tt.wantNames)
			}
			for name, want := range tt.wantValues {
				got, ok := attrs.Get(name)
				if !ok {
					t.Errorf("attribute %q missing", name)
					continue
				}
				switch {
				case want == nil && got != nil:
					t.Errorf("%q = %q, want null", name, *got)
				case want != nil && (got == nil || *got != *want):
					t.Errorf("%q = %v, want %q", name, got, *want)
				}
			}
		})
	}
}

func TestParseAttributes_Malformed(t *testing.T) {
	tests := []struct {
		name          string
		body          string
		wantMalformed bool
	}{
		{name: "array root", body: `[1,2,3]`, wantMalformed: true},
		{name: "string root", body: `"hello"`, wantMalformed: true},
		{name: "null root", body: `null`, wantMalformed: true},
		{name: "list missing", body: `{"other":1}`, wantMalformed: true},
		{name: "list null", body: `{"deviceTextStructured":null}`, wantMalformed: true},
		{name: "list is object", body: `{"deviceTextStructured":{"a":1}}`, wantMalformed: true},
		{name: "invalid json", body: `{"deviceTextStructured":[`, wantMalformed: false},
		{name: "html error page", body: `<html>oops</html>`, wantMalformed: false},
		{name: "empty body", body: ``, wantMalformed: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attrs, err := ParseAttributes([]byte(tt.body))
			if err == nil {
				t.Fatal("expected an error")
			}
			if got := errors.Is(err, ErrMalformedPayload); got != tt.wantMalformed {
				t.Errorf("errors.Is(err, ErrMalformedPayload) = %v, want %v (err=%v)", got, tt.wantMalformed, err)
			}
			if attrs.Len() != 0 {
				t.Errorf("Len() = %d, want 0", attrs.Len())
			}
		})
	}
}
