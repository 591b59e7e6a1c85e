// Package loader evaluates component artifacts in an embedded Go
// interpreter. Every load gets a fresh interpreter and a UUID, so a file
// regenerated under the same name is never served from a stale module.
package loader

import (
	"bytes"
	"context"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"reflect"
	"sync"

	"github.com/google/uuid"
	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"componentforge/internal/logging"
	"componentforge/pkg/component"
)

// Module is one interpreter load of an artifact.
type Module struct {
	id      string
	path    string
	pkg     string
	file    *ast.File
	interp  *interp.Interpreter
	output  *lockedBuffer
	mu      sync.Mutex // serializes Eval calls
	nextVar int
}

// Load reads, parses and evaluates the artifact at path.
func Load(ctx context.Context, path string) (*Module, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}
	return LoadSource(ctx, path, string(src))
}

// LoadSource evaluates src as if it had been read from path.
func LoadSource(ctx context.Context, path, src string) (*Module, error) {
	timer := logging.StartTimer(logging.CategoryLoader, "Load "+path)
	defer timer.Stop()

	file, err := parser.ParseFile(token.NewFileSet(), path, src, parser.SkipObjectResolution)
	if err != nil {
		return nil, fmt.Errorf("failed to parse artifact: %w", err)
	}

	out := &lockedBuffer{}
	i := interp.New(interp.Options{Stdout: out, Stderr: out})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("failed to load stdlib: %w", err)
	}
	if err := i.Use(component.Symbols); err != nil {
		return nil, fmt.Errorf("failed to load component symbols: %w", err)
	}

	m := &Module{
		id:     uuid.NewString(),
		path:   path,
		pkg:    file.Name.Name,
		file:   file,
		interp: i,
		output: out,
	}

	if _, err := m.eval(ctx, src); err != nil {
		logging.Get(logging.CategoryLoader).Warn("Load %s failed: %v", path, err)
		return nil, fmt.Errorf("artifact evaluation failed: %w", err)
	}

	logging.Loader("Loaded %s as package %s (load %s)", path, m.pkg, m.id)
	return m, nil
}

// ID is the unique identity of this load.
func (m *Module) ID() string { return m.id }

// Path is the artifact path the module was loaded from.
func (m *Module) Path() string { return m.path }

// Package is the artifact's package name.
func (m *Module) Package() string { return m.pkg }

// Output returns everything the interpreted code printed so far.
func (m *Module) Output() string { return m.output.String() }

// Eval evaluates a Go expression or statement in the module's interpreter.
// Panics raised by interpreted code come back as errors.
func (m *Module) Eval(ctx context.Context, src string) (reflect.Value, error) {
	return m.eval(ctx, src)
}

func (m *Module) eval(ctx context.Context, src string) (v reflect.Value, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during evaluation: %v", r)
		}
	}()
	return m.interp.EvalWithContext(ctx, src)
}

// Qualify prefixes a package-level name with the artifact's package.
func (m *Module) Qualify(name string) string {
	return m.pkg + "." + name
}

// HasType reports whether the artifact declares a type with this name.
func (m *Module) HasType(name string) bool {
	for _, d := range m.file.Decls {
		gd, ok := d.(*ast.GenDecl)
		if !ok || gd.Tok != token.TYPE {
			continue
		}
		for _, s := range gd.Specs {
			if ts, ok := s.(*ast.TypeSpec); ok && ts.Name.Name == name {
				return true
			}
		}
	}
	return false
}

// Constructor returns the name of New<class> when the artifact declares it
// as a plain func taking no parameters.
func (m *Module) Constructor(class string) (string, bool) {
	name := component.ConstructorPrefix + class
	for _, d := range m.file.Decls {
		fn, ok := d.(*ast.FuncDecl)
		if !ok || fn.Recv != nil || fn.Name.Name != name {
			continue
		}
		if fn.Type.Params.NumFields() == 0 && fn.Type.Results.NumFields() == 1 {
			return name, true
		}
	}
	return "", false
}

// ParamNames returns the parameter names of class's method as declared in
// the artifact. ok is false when the method is not declared there or a
// parameter is unnamed or blank.
func (m *Module) ParamNames(class, method string) (names []string, ok bool) {
	for _, d := range m.file.Decls {
		fn, isFn := d.(*ast.FuncDecl)
		if !isFn || fn.Recv == nil || len(fn.Recv.List) == 0 || fn.Name.Name != method {
			continue
		}
		typ := fn.Recv.List[0].Type
		if star, isStar := typ.(*ast.StarExpr); isStar {
			typ = star.X
		}
		if id, isIdent := typ.(*ast.Ident); !isIdent || id.Name != class {
			continue
		}
		names = []string{}
		for _, field := range fn.Type.Params.List {
			if len(field.Names) == 0 {
				return nil, false
			}
			for _, n := range field.Names {
				if n.Name == "_" {
					return nil, false
				}
				names = append(names, n.Name)
			}
		}
		return names, true
	}
	return nil, false
}

// Zero evaluates the composite literal class{}.
func (m *Module) Zero(ctx context.Context, class string) (reflect.Value, error) {
	return m.Eval(ctx, m.Qualify(class)+"{}")
}

// EntryPoint resolves the entry-point method on a zero instance.
func (m *Module) EntryPoint(ctx context.Context, class string) (reflect.Value, error) {
	v, err := m.Eval(ctx, fmt.Sprintf("(&%s{}).%s", m.Qualify(class), component.EntryPoint))
	if err != nil {
		return reflect.Value{}, err
	}
	if v.Kind() != reflect.Func {
		return reflect.Value{}, fmt.Errorf("%s.%s is a %s, not a method", class, component.EntryPoint, v.Kind())
	}
	return v, nil
}

// Descriptions returns the artifact's description registry, or nil when it
// does not declare one.
func (m *Module) Descriptions(ctx context.Context) map[string]string {
	v, err := m.Eval(ctx, m.Qualify(component.DescriptionsVar))
	if err != nil || !v.IsValid() || !v.CanInterface() {
		return nil
	}
	descs, _ := v.Interface().(map[string]string)
	return descs
}

// lockedBuffer collects interpreter output; the interpreted entry point may
// still be writing after the caller stopped waiting for it.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
