// Package harness executes a component's entry point from its artifact,
// binding a name -> value argument map onto the entry point's parameters.
package harness

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"componentforge/internal/loader"
	"componentforge/internal/logging"
	"componentforge/pkg/component"
)

// Outcome is the result of one execution. Value is meaningful when OK is
// true, Failure otherwise.
type Outcome struct {
	OK      bool   `json:"ok"`
	Value   any    `json:"value,omitempty"`
	Failure string `json:"failure,omitempty"`
	// Output is whatever the interpreted code printed.
	Output string `json:"output,omitempty"`
	LoadID string `json:"load_id,omitempty"`
}

// Harness resolves, loads and runs artifacts.
type Harness struct {
	// SearchDirs are tried, in order, for relative artifact paths after the
	// path as given and the working directory.
	SearchDirs []string
	// Timeout bounds a single execution. Zero means no bound beyond ctx.
	Timeout time.Duration
}

// New creates a harness. searchDirs usually starts with the artifact base
// directory.
func New(timeout time.Duration, searchDirs ...string) *Harness {
	return &Harness{SearchDirs: searchDirs, Timeout: timeout}
}

// Execute runs class's entry point from the artifact at path. Every
// failure, including a panic inside the component, is reported in the
// Outcome. When ctx ends first the harness stops waiting; the interpreted
// call itself cannot be preempted and finishes in the background.
func (h *Harness) Execute(ctx context.Context, path, class string, args map[string]any) Outcome {
	timer := logging.StartTimer(logging.CategoryHarness, "Execute "+class)
	defer timer.Stop()

	if h.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.Timeout)
		defer cancel()
	}

	fail := func(resolved string, format string, a ...any) Outcome {
		msg := failureMessage(resolved, class, args, fmt.Sprintf(format, a...))
		logging.Get(logging.CategoryHarness).Warn("%s", msg)
		return Outcome{Failure: msg}
	}

	resolved, tried, ok := h.Resolve(path)
	if !ok {
		return fail(path, "artifact not found, tried: %s", strings.Join(tried, ", "))
	}

	mod, err := loader.Load(ctx, resolved)
	if err != nil {
		return fail(resolved, "%v", err)
	}
	withLoad := func(o Outcome) Outcome {
		o.LoadID = mod.ID()
		o.Output = mod.Output()
		return o
	}

	if !mod.HasType(class) {
		return withLoad(fail(resolved, "class %s not found in package %s", class, mod.Package()))
	}
	inst, err := mod.Instantiate(ctx, class)
	if err != nil {
		return withLoad(fail(resolved, "%v", err))
	}
	run, err := inst.Method(ctx, component.EntryPoint)
	if err != nil {
		return withLoad(fail(resolved, "entry point %s not available: %v", component.EntryPoint, err))
	}

	var schema *component.Schema
	defaults, hasSchema := inst.Field(component.FieldSchema)
	if hasSchema {
		schema, err = component.SchemaOf(defaults.Interface(), mod.Descriptions(ctx))
		if err != nil {
			return withLoad(fail(resolved, "input schema: %v", err))
		}
	}

	params, _ := mod.ParamNames(class, component.EntryPoint)
	in, err := bind(run.Type(), params, schema, defaults, args)
	if err != nil {
		return withLoad(fail(resolved, "%v", err))
	}

	logging.HarnessDebug("Invoking %s.%s from %s (load %s) with %d arguments",
		class, component.EntryPoint, resolved, mod.ID(), len(in))

	value, err := invoke(ctx, run, in)
	if err != nil {
		return withLoad(fail(resolved, "%v", err))
	}

	logging.Harness("Executed %s from %s", class, resolved)
	return withLoad(Outcome{OK: true, Value: value})
}

// Resolve finds the artifact. Absolute paths are used as given; relative
// ones are tried as given, then under the working directory and each
// search dir.
func (h *Harness) Resolve(path string) (string, []string, bool) {
	var candidates []string
	seen := make(map[string]bool)
	add := func(p string) {
		p = filepath.Clean(p)
		if !seen[p] {
			seen[p] = true
			candidates = append(candidates, p)
		}
	}

	add(path)
	if !filepath.IsAbs(path) {
		if wd, err := os.Getwd(); err == nil {
			add(filepath.Join(wd, path))
		}
		for _, dir := range h.SearchDirs {
			add(filepath.Join(dir, path))
		}
	}

	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && info.Mode().IsRegular() {
			return c, candidates, true
		}
	}
	return "", candidates, false
}

type callResult struct {
	out      []reflect.Value
	panicked any
}

func invoke(ctx context.Context, fn reflect.Value, in []reflect.Value) (any, error) {
	done := make(chan callResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- callResult{panicked: r}
			}
		}()
		done <- callResult{out: fn.Call(in)}
	}()

	select {
	case res := <-done:
		if res.panicked != nil {
			return nil, fmt.Errorf("entry point panicked: %v", res.panicked)
		}
		return interpret(res.out)
	case <-ctx.Done():
		return nil, fmt.Errorf("execution abandoned: %w", ctx.Err())
	}
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// interpret splits entry-point results into a value and an error: the last
// error-typed result is the error, the first other result is the value.
func interpret(out []reflect.Value) (any, error) {
	var value any
	valueSet := false
	for i, v := range out {
		if v.Type().Implements(errorType) && i == len(out)-1 {
			if !v.IsNil() {
				return nil, fmt.Errorf("entry point returned an error: %v", v.Interface())
			}
			continue
		}
		if !valueSet {
			value = v.Interface()
			valueSet = true
		}
	}
	return value, nil
}

func failureMessage(path, class string, args map[string]any, cause string) string {
	argText := "{}"
	if len(args) > 0 {
		if data, err := json.Marshal(args); err == nil {
			argText = string(data)
		} else {
			argText = fmt.Sprintf("%v", args)
		}
	}
	return fmt.Sprintf("execution of %s failed\n  artifact: %s\n  arguments: %s\n  cause: %s",
		class, path, argText, cause)
}
