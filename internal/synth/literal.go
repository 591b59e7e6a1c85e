package synth

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// defaultLiteral renders the Go expression for an optional parameter's
// default, checking it against the declared type tag.
func defaultLiteral(typ string, v any) (string, error) {
	if v == nil {
		return zeroLiterals[typ], nil
	}
	rv := reflect.ValueOf(v)
	switch typ {
	case "string":
		if s, ok := v.(string); ok {
			return strconv.Quote(s), nil
		}
	case "integer":
		if n, ok := integral(rv); ok {
			return strconv.FormatInt(n, 10), nil
		}
	case "number":
		if f, ok := numeric(rv); ok {
			return floatLiteral(f)
		}
	case "boolean":
		if b, ok := v.(bool); ok {
			return strconv.FormatBool(b), nil
		}
	case "array":
		if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
			return anyLiteral(v)
		}
	case "object":
		if rv.Kind() == reflect.Map {
			return anyLiteral(v)
		}
	}
	return "", fmt.Errorf("default %v (%T) is not a valid %s", v, v, typ)
}

func integral(rv reflect.Value) (int64, bool) {
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return 0, false
		}
		return int64(u), true
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if f == math.Trunc(f) && math.Abs(f) <= math.MaxInt64 {
			return int64(f), true
		}
	}
	return 0, false
}

func numeric(rv reflect.Value) (float64, bool) {
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	if n, ok := integral(rv); ok {
		return float64(n), true
	}
	return 0, false
}

func floatLiteral(f float64) (string, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", fmt.Errorf("default %v has no Go literal", f)
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s, nil
}

// anyLiteral renders a decoded JSON/YAML value as a Go expression whose
// type is what the interpreter will hand back for an `any` slot.
func anyLiteral(v any) (string, error) {
	if v == nil {
		return "nil", nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return strconv.Quote(rv.String()), nil
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, ok := integral(rv)
		if !ok {
			return "", fmt.Errorf("integer %v overflows int64", v)
		}
		return strconv.FormatInt(n, 10), nil
	case reflect.Float32, reflect.Float64:
		return floatLiteral(rv.Float())
	case reflect.Slice, reflect.Array:
		elems := make([]string, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			e, err := anyLiteral(rv.Index(i).Interface())
			if err != nil {
				return "", err
			}
			elems = append(elems, e)
		}
		return "[]any{" + strings.Join(elems, ", ") + "}", nil
	case reflect.Map:
		keys := make([]string, 0, rv.Len())
		vals := make(map[string]reflect.Value, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			k := fmt.Sprint(iter.Key().Interface())
			keys = append(keys, k)
			vals[k] = iter.Value()
		}
		sort.Strings(keys)
		entries := make([]string, 0, len(keys))
		for _, k := range keys {
			e, err := anyLiteral(vals[k].Interface())
			if err != nil {
				return "", err
			}
			entries = append(entries, strconv.Quote(k)+": "+e)
		}
		return "map[string]any{" + strings.Join(entries, ", ") + "}", nil
	}
	return "", fmt.Errorf("unsupported default value %v (%T)", v, v)
}
