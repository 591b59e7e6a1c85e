package loader

import (
	"context"
	"fmt"
	"reflect"
)

// Instance is a component value held by the interpreter under a variable,
// so its methods are resolved (and later run) by the interpreter itself.
type Instance struct {
	module *Module
	ref    string
	// Value is the host view of the instance pointer.
	Value reflect.Value
	// Constructor is the func used to build it, empty for a bare literal.
	Constructor string
}

// Instantiate builds class through New<class>() when declared with no
// parameters, otherwise as &class{}.
func (m *Module) Instantiate(ctx context.Context, class string) (*Instance, error) {
	ctor, ok := m.Constructor(class)
	expr := "&" + m.Qualify(class) + "{}"
	if ok {
		expr = m.Qualify(ctor) + "()"
	}

	m.mu.Lock()
	m.nextVar++
	ref := fmt.Sprintf("forgeInstance%d", m.nextVar)
	m.mu.Unlock()

	if _, err := m.Eval(ctx, fmt.Sprintf("var %s = %s", ref, expr)); err != nil {
		return nil, fmt.Errorf("constructing %s: %w", class, err)
	}
	v, err := m.Eval(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("reading %s instance: %w", class, err)
	}
	if !v.IsValid() || (v.Kind() == reflect.Pointer && v.IsNil()) {
		return nil, fmt.Errorf("constructing %s returned nil", class)
	}
	return &Instance{module: m, ref: ref, Value: v, Constructor: ctor}, nil
}

// Method resolves a method value bound to the instance.
func (in *Instance) Method(ctx context.Context, name string) (reflect.Value, error) {
	v, err := in.module.Eval(ctx, in.ref+"."+name)
	if err != nil {
		return reflect.Value{}, err
	}
	if v.Kind() != reflect.Func {
		return reflect.Value{}, fmt.Errorf("%s is a %s, not a method", name, v.Kind())
	}
	return v, nil
}

// Field returns an exported field of the instance.
func (in *Instance) Field(name string) (reflect.Value, bool) {
	v := reflect.Indirect(in.Value)
	if v.Kind() != reflect.Struct {
		return reflect.Value{}, false
	}
	f := v.FieldByName(name)
	if !f.IsValid() || !f.CanInterface() {
		return reflect.Value{}, false
	}
	return f, true
}

// StringField returns a string field, reporting false when it is absent or
// not a string.
func (in *Instance) StringField(name string) (string, bool) {
	f, ok := in.Field(name)
	if !ok || f.Kind() != reflect.String {
		return "", false
	}
	return f.String(), true
}

// Embeds reports whether a struct value has a top-level field of type t.
// Interpreted structs do not always flag embedded fields as anonymous, so
// only the type is compared.
func Embeds(v reflect.Value, t reflect.Type) bool {
	v = reflect.Indirect(v)
	if v.Kind() != reflect.Struct {
		return false
	}
	rt := v.Type()
	for i := 0; i < rt.NumField(); i++ {
		if rt.Field(i).Type == t {
			return true
		}
	}
	return false
}
