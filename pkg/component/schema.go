package component

import (
	"fmt"
	"reflect"
	"strings"
)

// Field describes one input parameter as seen through a parameters struct.
type Field struct {
	Name        string `json:"name"`
	GoName      string `json:"go_name"`
	Type        string `json:"type"`
	Required    bool   `json:"required"`
	Description string `json:"description,omitempty"`
	Default     any    `json:"default,omitempty"`
}

// Schema is the runtime input-schema descriptor of a component.
// Field order follows the struct declaration. The entry point's parameters
// are matched to fields by json name.
type Schema struct {
	Fields []Field `json:"fields"`
}

// SchemaOf builds a descriptor from a parameters struct value. Optional
// fields take their current value in v as default. Descriptions are looked
// up by each field's desc tag; a field whose key is absent gets none.
func SchemaOf(v any, descriptions map[string]string) (*Schema, error) {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, fmt.Errorf("parameter schema is a nil pointer")
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return nil, fmt.Errorf("parameter schema is nil")
	}
	if rv.Kind() != reflect.Struct {
		return nil, fmt.Errorf("parameter schema must be a struct, got %s", rv.Kind())
	}

	rt := rv.Type()
	schema := &Schema{}
	seen := make(map[string]bool)
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if sf.PkgPath != "" {
			continue
		}
		name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
		if name == "-" {
			continue
		}
		if name == "" {
			return nil, fmt.Errorf("field %s has no json name", sf.Name)
		}
		if seen[name] {
			return nil, fmt.Errorf("duplicate parameter %q", name)
		}
		seen[name] = true

		tag, err := TypeTag(sf.Type)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", sf.Name, err)
		}

		f := Field{
			Name:     name,
			GoName:   sf.Name,
			Type:     tag,
			Required: sf.Tag.Get(RequiredTag) == "true",
		}
		if key := sf.Tag.Get(DescriptionKeyTag); key != "" {
			f.Description = descriptions[key]
		}
		if !f.Required {
			f.Default = rv.Field(i).Interface()
		}
		schema.Fields = append(schema.Fields, f)
	}
	return schema, nil
}

// TypeTag maps a Go type onto the parameter type vocabulary.
func TypeTag(t reflect.Type) (string, error) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return "string", nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer", nil
	case reflect.Float32, reflect.Float64:
		return "number", nil
	case reflect.Bool:
		return "boolean", nil
	case reflect.Slice, reflect.Array:
		return "array", nil
	case reflect.Map, reflect.Struct, reflect.Interface:
		return "object", nil
	}
	return "", fmt.Errorf("unsupported parameter type %s", t)
}

// Field returns the named field.
func (s *Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Required lists required parameter names in declaration order.
func (s *Schema) Required() []string {
	var out []string
	for _, f := range s.Fields {
		if f.Required {
			out = append(out, f.Name)
		}
	}
	return out
}

// JSONSchema renders the descriptor as a JSON-Schema object.
func (s *Schema) JSONSchema() map[string]any {
	props := make(map[string]any, len(s.Fields))
	for _, f := range s.Fields {
		p := map[string]any{"type": f.Type}
		if f.Description != "" {
			p["description"] = f.Description
		}
		if !f.Required {
			p["default"] = f.Default
		}
		props[f.Name] = p
	}
	out := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if req := s.Required(); len(req) > 0 {
		out["required"] = req
	}
	return out
}
