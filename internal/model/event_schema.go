package model

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// FieldType is the decoded representation of a field.
type FieldType string

const (
	FieldAddress FieldType = "address"
	// FieldUint covers uint8..uint256 and bool, which is carried as 0/1.
	FieldUint FieldType = "uint"
)

var uintTypePattern = regexp.MustCompile(`^uint(\d{0,3})$`)

// FieldSpec describes one event input in ABI declaration order.
type FieldSpec struct {
	Name    string `json:"name" yaml:"name"`
	Type    string `json:"type" yaml:"type"`
	Indexed bool   `json:"indexed" yaml:"indexed"`
}

// CanonicalType returns the ABI type name used in signatures.
func (f FieldSpec) CanonicalType() string {
	if f.Type == "uint" {
		return "uint256"
	}
	return f.Type
}

// Kind maps the ABI type onto the decoded representation.
func (f FieldSpec) Kind() (FieldType, error) {
	switch f.Type {
	case "address":
		return FieldAddress, nil
	case "bool":
		return FieldUint, nil
	}

	m := uintTypePattern.FindStringSubmatch(f.Type)
	if m == nil {
		return "", fmt.Errorf("field %s: unsupported type %q", f.Name, f.Type)
	}
	if m[1] == "" {
		return FieldUint, nil
	}
	bits, err := strconv.Atoi(m[1])
	if err != nil || m[1][0] == '0' || bits > 256 || bits%8 != 0 {
		return "", fmt.Errorf("field %s: unsupported type %q", f.Name, f.Type)
	}
	return FieldUint, nil
}

// ByteWidth is the declared width of the value inside its 32-byte word.
func (f FieldSpec) ByteWidth() int {
	switch f.Type {
	case "address":
		return 20
	case "bool":
		return 1
	}
	m := uintTypePattern.FindStringSubmatch(f.Type)
	if m == nil {
		return 0
	}
	if m[1] == "" {
		return 32
	}
	bits, _ := strconv.Atoi(m[1])
	return bits / 8
}

// EventSchema is the layout of one event kind.
type EventSchema struct {
	Name   string      `json:"name" yaml:"name"`
	Inputs []FieldSpec `json:"inputs" yaml:"inputs"`
	// AllowTrailingData accepts data longer than the declared data fields.
	AllowTrailingData bool `json:"allow_trailing_data,omitempty" yaml:"allow_trailing_data"`
}

// MaxIndexedFields is the number of topics available after the signature.
const MaxIndexedFields = 3

// Signature returns the canonical "Name(type1,type2,...)" text.
func (s EventSchema) Signature() string {
	types := make([]string, 0, len(s.Inputs))
	for _, in := range s.Inputs {
		types = append(types, in.CanonicalType())
	}
	return s.Name + "(" + strings.Join(types, ",") + ")"
}

// IndexedFields returns the topic-backed inputs in declaration order.
func (s EventSchema) IndexedFields() []FieldSpec {
	out := make([]FieldSpec, 0, len(s.Inputs))
	for _, in := range s.Inputs {
		if in.Indexed {
			out = append(out, in)
		}
	}
	return out
}

// DataFields returns the data-backed inputs in declaration order.
func (s EventSchema) DataFields() []FieldSpec {
	out := make([]FieldSpec, 0, len(s.Inputs))
	for _, in := range s.Inputs {
		if !in.Indexed {
			out = append(out, in)
		}
	}
	return out
}

// Field looks up an input by name.
func (s EventSchema) Field(name string) (FieldSpec, bool) {
	for _, in := range s.Inputs {
		if in.Name == name {
			return in, true
		}
	}
	return FieldSpec{}, false
}

// Columns is the tabular layout of decoded records: event, blockNumber,
// indexed fields, then data fields.
func (s EventSchema) Columns() []string {
	cols := make([]string, 0, len(s.Inputs)+2)
	cols = append(cols, "event", "blockNumber")
	for _, f := range s.IndexedFields() {
		cols = append(cols, f.Name)
	}
	for _, f := range s.DataFields() {
		cols = append(cols, f.Name)
	}
	return cols
}

// Validate checks names, types and the indexed topic limit.
func (s EventSchema) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("event name is required")
	}
	seen := make(map[string]struct{}, len(s.Inputs))
	for _, in := range s.Inputs {
		if in.Name == "" {
			return fmt.Errorf("event %s: input name is required", s.Name)
		}
		if in.Name == "event" || in.Name == "blockNumber" {
			return fmt.Errorf("event %s: input name %q is reserved", s.Name, in.Name)
		}
		if _, ok := seen[in.Name]; ok {
			return fmt.Errorf("event %s: duplicate input %q", s.Name, in.Name)
		}
		seen[in.Name] = struct{}{}
		if _, err := in.Kind(); err != nil {
			return fmt.Errorf("event %s: %w", s.Name, err)
		}
	}
	if n := len(s.IndexedFields()); n > MaxIndexedFields {
		return fmt.Errorf("event %s: %d indexed inputs, at most %d allowed", s.Name, n, MaxIndexedFields)
	}
	return nil
}
