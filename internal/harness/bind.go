package harness

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"strings"

	"github.com/go-viper/mapstructure/v2"

	"componentforge/pkg/component"
)

// bind matches args to the entry point's parameters by name and converts
// each value to the parameter's type. Absent optional arguments take the
// instance's ParameterSchema value. params are the declared parameter names
// of the entry point; when they are unknown the schema's field order is used.
func bind(fnType reflect.Type, params []string, schema *component.Schema, defaults reflect.Value, args map[string]any) ([]reflect.Value, error) {
	if schema == nil {
		if fnType.NumIn() != 0 {
			return nil, fmt.Errorf("%s takes %d parameters but the component declares no %s",
				component.EntryPoint, fnType.NumIn(), component.FieldSchema)
		}
		if len(args) > 0 {
			return nil, fmt.Errorf("unknown arguments: %s (the component accepts none)", strings.Join(sortedKeys(args), ", "))
		}
		return nil, nil
	}

	var unknown []string
	for _, name := range sortedKeys(args) {
		if _, ok := schema.Field(name); !ok {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		accepted := make([]string, 0, len(schema.Fields))
		for _, f := range schema.Fields {
			accepted = append(accepted, f.Name)
		}
		return nil, fmt.Errorf("unknown arguments: %s (accepted: %s)",
			strings.Join(unknown, ", "), strings.Join(accepted, ", "))
	}

	if fnType.NumIn() != len(schema.Fields) {
		return nil, fmt.Errorf("%s takes %d parameters but the schema declares %d",
			component.EntryPoint, fnType.NumIn(), len(schema.Fields))
	}

	fields, err := orderFields(params, schema)
	if err != nil {
		return nil, err
	}

	var missing []string
	in := make([]reflect.Value, len(fields))
	for i, f := range fields {
		target := fnType.In(i)
		raw, ok := args[f.Name]
		if !ok {
			if f.Required {
				missing = append(missing, f.Name)
				continue
			}
			def := reflect.Indirect(defaults).FieldByName(f.GoName)
			if !def.IsValid() {
				in[i] = reflect.Zero(target)
				continue
			}
			raw = def.Interface()
		}
		v, err := convert(raw, target)
		if err != nil {
			return nil, fmt.Errorf("argument %q: %w", f.Name, err)
		}
		in[i] = v
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required arguments: %s", strings.Join(missing, ", "))
	}
	return in, nil
}

// orderFields lines the schema fields up with the entry point's parameters.
func orderFields(params []string, schema *component.Schema) ([]component.Field, error) {
	if params == nil {
		return schema.Fields, nil
	}
	fields := make([]component.Field, len(params))
	for i, name := range params {
		f, ok := schema.Field(name)
		if !ok {
			return nil, fmt.Errorf("%s parameter %q has no field in %s", component.EntryPoint, name, component.FieldSchema)
		}
		fields[i] = f
	}
	return fields, nil
}

// convert coerces a decoded JSON/YAML value into t.
func convert(raw any, t reflect.Type) (reflect.Value, error) {
	if raw == nil {
		return reflect.Zero(t), nil
	}
	rv := reflect.ValueOf(raw)
	if rv.Type().AssignableTo(t) {
		return rv, nil
	}

	if isInt(t.Kind()) && (rv.Kind() == reflect.Float32 || rv.Kind() == reflect.Float64) {
		if f := rv.Float(); f != math.Trunc(f) {
			return reflect.Value{}, fmt.Errorf("%v is not an integer", f)
		}
	}

	out := reflect.New(t)
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out.Interface(),
		WeaklyTypedInput: true,
	})
	if err != nil {
		return reflect.Value{}, err
	}
	if err := dec.Decode(raw); err != nil {
		return reflect.Value{}, fmt.Errorf("cannot convert %T to %s: %w", raw, t, err)
	}
	return out.Elem(), nil
}

func isInt(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
