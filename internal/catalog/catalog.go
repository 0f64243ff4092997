package catalog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"gopkg.in/yaml.v3"

	"lendingScope/internal/model"
)

// Catalog is the set of event schemas a decode run knows about, plus the
// participant address fields per kind.
type Catalog struct {
	Schemas          []model.EventSchema `yaml:"events"`
	ActiveUserFields map[string][]string `yaml:"active_user_fields"`
}

// Kinds returns the event kind names in catalog order.
func (c *Catalog) Kinds() []string {
	kinds := make([]string, 0, len(c.Schemas))
	for _, s := range c.Schemas {
		kinds = append(kinds, s.Name)
	}
	return kinds
}

// Schema looks up a kind by name.
func (c *Catalog) Schema(kind string) (model.EventSchema, bool) {
	for _, s := range c.Schemas {
		if s.Name == kind {
			return s, true
		}
	}
	return model.EventSchema{}, false
}

// Validate checks every schema and the active user field map.
func (c *Catalog) Validate() error {
	if len(c.Schemas) == 0 {
		return fmt.Errorf("catalog has no events")
	}
	seen := make(map[string]struct{}, len(c.Schemas))
	for _, s := range c.Schemas {
		if err := s.Validate(); err != nil {
			return err
		}
		if _, ok := seen[s.Name]; ok {
			return fmt.Errorf("duplicate event kind %s", s.Name)
		}
		seen[s.Name] = struct{}{}
	}
	return ValidateAddressFields(c.Schemas, c.ActiveUserFields)
}

// ResolveFieldMap maps kind names onto the catalog's spelling, ignoring
// case. Config loaders may hand back lowercased keys.
func (c *Catalog) ResolveFieldMap(fields map[string][]string) (map[string][]string, error) {
	if len(fields) == 0 {
		return nil, nil
	}
	out := make(map[string][]string, len(fields))
	for kind, names := range fields {
		resolved := ""
		for _, s := range c.Schemas {
			if strings.EqualFold(s.Name, kind) {
				resolved = s.Name
				break
			}
		}
		if resolved == "" {
			return nil, fmt.Errorf("active user fields: unknown event kind %s", kind)
		}
		if len(names) == 0 {
			return nil, fmt.Errorf("active user fields: %s has no fields", kind)
		}
		out[resolved] = append(out[resolved], names...)
	}
	return out, nil
}

// ValidateAddressFields checks that every mapped field exists on its kind and
// decodes to an address. Kinds missing from the schemas are rejected too.
func ValidateAddressFields(schemas []model.EventSchema, fields map[string][]string) error {
	byName := make(map[string]model.EventSchema, len(schemas))
	for _, s := range schemas {
		byName[s.Name] = s
	}

	kinds := make([]string, 0, len(fields))
	for kind := range fields {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)

	for _, kind := range kinds {
		schema, ok := byName[kind]
		if !ok {
			return fmt.Errorf("active user fields: unknown event kind %s", kind)
		}
		for _, name := range fields[kind] {
			field, ok := schema.Field(name)
			if !ok {
				return fmt.Errorf("active user fields: %s has no field %s", kind, name)
			}
			typ, err := field.Kind()
			if err != nil {
				return fmt.Errorf("active user fields: %w", err)
			}
			if typ != model.FieldAddress {
				return fmt.Errorf("active user fields: %s.%s is %s, not an address", kind, name, field.Type)
			}
		}
	}
	return nil
}

// FromABI builds a catalog from a contract ABI JSON document. When names are
// given only those events are kept and each must exist. Active user fields
// default to the Aave V3 ones for the kinds present.
func FromABI(r io.Reader, names ...string) (*Catalog, error) {
	parsed, err := abi.JSON(r)
	if err != nil {
		return nil, fmt.Errorf("parse abi: %w", err)
	}
	cat, err := fromABI(parsed)
	if err != nil {
		return nil, err
	}

	if len(names) > 0 {
		selected := make([]model.EventSchema, 0, len(names))
		for _, name := range names {
			schema, ok := cat.Schema(name)
			if !ok {
				return nil, fmt.Errorf("abi has no event %s", name)
			}
			selected = append(selected, schema)
		}
		cat.Schemas = selected
	}
	cat.ActiveUserFields = defaultFieldsFor(cat.Schemas)
	return cat, nil
}

// defaultFieldsFor keeps the Aave V3 participant fields of every kind that is
// present in schemas with those fields declared as addresses.
func defaultFieldsFor(schemas []model.EventSchema) map[string][]string {
	out := make(map[string][]string)
	for kind, fields := range DefaultActiveUserFields() {
		if ValidateAddressFields(schemas, map[string][]string{kind: fields}) == nil {
			out[kind] = fields
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func fromABI(parsed abi.ABI) (*Catalog, error) {
	events := make([]abi.Event, 0, len(parsed.Events))
	for _, ev := range parsed.Events {
		if ev.Anonymous {
			continue
		}
		events = append(events, ev)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].Name < events[j].Name })

	cat := &Catalog{Schemas: make([]model.EventSchema, 0, len(events))}
	for _, ev := range events {
		if ev.Name != ev.RawName {
			return nil, fmt.Errorf("overloaded event %s is not supported", ev.RawName)
		}
		schema := model.EventSchema{Name: ev.RawName, Inputs: make([]model.FieldSpec, 0, len(ev.Inputs))}
		for _, arg := range ev.Inputs {
			schema.Inputs = append(schema.Inputs, model.FieldSpec{
				Name:    arg.Name,
				Type:    arg.Type.String(),
				Indexed: arg.Indexed,
			})
		}
		if err := schema.Validate(); err != nil {
			return nil, err
		}
		cat.Schemas = append(cat.Schemas, schema)
	}
	return cat, nil
}

// FromYAML reads a catalog document:
//
//	events:
//	  - name: Supply
//	    inputs:
//	      - {name: reserve, type: address, indexed: true}
//	active_user_fields:
//	  Supply: [onBehalfOf, user]
func FromYAML(r io.Reader) (*Catalog, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var cat Catalog
	if err := dec.Decode(&cat); err != nil {
		return nil, fmt.Errorf("parse catalog yaml: %w", err)
	}
	if err := cat.Validate(); err != nil {
		return nil, err
	}
	return &cat, nil
}

// LoadFile loads a catalog by extension: .json is an ABI, .yaml/.yml a
// catalog document. An empty path selects the embedded Aave V3 Pool catalog.
func LoadFile(path string) (*Catalog, error) {
	if path == "" {
		return AaveV3Pool()
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer file.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".abi":
		return FromABI(file)
	case ".yaml", ".yml":
		return FromYAML(file)
	default:
		return nil, fmt.Errorf("unsupported catalog format %q", filepath.Ext(path))
	}
}
