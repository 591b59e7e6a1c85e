// Package verify checks a component artifact in stages, from existence and
// static parsing through a dynamic load to instance introspection, and
// reports every finding as data.
package verify

import (
	"context"
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/scanner"
	"go/token"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"componentforge/internal/diag"
	"componentforge/internal/loader"
	"componentforge/internal/logging"
	"componentforge/pkg/component"
)

const parseContextRadius = 2

// Verifier runs the staged verification pipeline.
type Verifier struct {
	// LoadTimeout bounds each dynamic load and evaluation. Zero means none.
	LoadTimeout time.Duration
	// Workers bounds VerifyAll concurrency. Zero or less means 4.
	Workers int
}

// New creates a verifier with the given load timeout.
func New(loadTimeout time.Duration) *Verifier {
	return &Verifier{LoadTimeout: loadTimeout, Workers: 4}
}

// Verify checks the artifact at path. It never fails; every problem ends up
// as a diagnostic in the report.
func (v *Verifier) Verify(ctx context.Context, path string) *diag.Report {
	start := time.Now()
	report := diag.NewReport(path)

	v.run(ctx, path, report)

	report.Duration = time.Since(start)
	logging.Verify("Verified %s: success=%v fatals=%d warnings=%d in %v",
		path, report.Success, len(report.Fatals()), len(report.Warnings()), report.Duration)
	return report
}

func (v *Verifier) run(ctx context.Context, path string, r *diag.Report) {
	// Stage 1: existence
	src, ok := checkExistence(path, r)
	if !ok {
		return
	}

	// Stage 2: static parse
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, src, parser.ParseComments|parser.SkipObjectResolution)
	if err != nil {
		r.Add(parseDiagnostic(src, err))
		return
	}
	r.Info(diag.ComponentGeneralSyntax, "source parses as Go")

	// Stage 3: structural walk
	class, ok := checkStructure(file, r)
	if !ok {
		return
	}
	r.DetectedClassName = class

	// Stage 4: dynamic load
	if v.LoadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.LoadTimeout)
		defer cancel()
	}
	mod, err := loader.LoadSource(ctx, path, string(src))
	if err != nil {
		r.Add(diag.Diagnostic{
			Severity:   diag.SeverityFatal,
			Component:  diag.ComponentGeneralSyntax,
			Message:    fmt.Sprintf("artifact does not load: %v", err),
			Suggestion: "Check for undefined names, type mismatches and imports outside the standard library.",
		})
		return
	}
	r.LoadID = mod.ID()
	r.Info(diag.ComponentGeneralSyntax, fmt.Sprintf("artifact loaded (load %s)", mod.ID()))

	// Stage 5: reflective discovery
	if !checkDiscovery(ctx, mod, class, r) {
		return
	}

	// Stage 6: instantiation
	inst, err := mod.Instantiate(ctx, class)
	if err != nil {
		r.Warn(diag.ComponentClassAttributes,
			fmt.Sprintf("%s could not be instantiated, instance checks skipped: %v", class, err))
		return
	}
	how := "&" + class + "{}"
	if inst.Constructor != "" {
		how = inst.Constructor + "()"
	}
	r.Info(diag.ComponentClassAttributes, fmt.Sprintf("instantiated through %s", how))

	// Stage 7: instance introspection
	checkInstance(ctx, mod, inst, class, r)
}

func checkExistence(path string, r *diag.Report) ([]byte, bool) {
	info, err := os.Stat(path)
	switch {
	case os.IsNotExist(err):
		r.Fatal(diag.ComponentGeneralSyntax, fmt.Sprintf("artifact not found: %s", path))
		return nil, false
	case err != nil:
		r.Fatal(diag.ComponentGeneralSyntax, fmt.Sprintf("artifact not accessible: %v", err))
		return nil, false
	case !info.Mode().IsRegular():
		r.Fatal(diag.ComponentGeneralSyntax, fmt.Sprintf("artifact is not a regular file: %s", path))
		return nil, false
	case filepath.Ext(path) != ".go":
		r.Fatal(diag.ComponentGeneralSyntax, fmt.Sprintf("artifact must be a .go file, got %q", filepath.Ext(path)))
		return nil, false
	}

	src, err := os.ReadFile(path)
	if err != nil {
		r.Fatal(diag.ComponentGeneralSyntax, fmt.Sprintf("artifact not readable: %v", err))
		return nil, false
	}
	r.Info(diag.ComponentGeneralSyntax, "artifact exists")
	return src, true
}

// parseDiagnostic turns the first parser error into a positioned fatal.
func parseDiagnostic(src []byte, err error) diag.Diagnostic {
	d := diag.Diagnostic{
		Severity:  diag.SeverityFatal,
		Component: diag.ComponentGeneralSyntax,
		Message:   fmt.Sprintf("syntax error: %v", err),
	}
	var list scanner.ErrorList
	if !errors.As(err, &list) || len(list) == 0 {
		return d
	}
	first := list[0]
	lines := strings.Split(string(src), "\n")
	line, _ := diag.AttributeLine(lines, first.Pos.Line, first.Pos.Column, first.Msg)
	if line > len(lines) {
		line = len(lines)
	}

	d.Message = "syntax error: " + first.Msg
	d.Line = line
	d.Component = Attribute(lines, line)
	d.Context = diag.Snippet(lines, line, 0, parseContextRadius)
	d.Suggestion = diag.Suggest(first.Msg).Suggestion
	return d
}

// checkStructure finds the component type and its entry point statically.
func checkStructure(file *ast.File, r *diag.Report) (string, bool) {
	spec, st := findComponentStruct(file)
	if spec == nil {
		r.Add(diag.Diagnostic{
			Severity:   diag.SeverityFatal,
			Component:  diag.ComponentInheritance,
			Message:    fmt.Sprintf("no struct type named *%s found", component.ClassSuffix),
			Suggestion: fmt.Sprintf("Declare `type <Name>%s struct { component.Base ... }`.", component.ClassSuffix),
		})
		return "", false
	}
	class := spec.Name.Name
	r.Info(diag.ComponentInheritance, fmt.Sprintf("component type %s found", class))

	if embedsBase(file, st) {
		r.Info(diag.ComponentInheritance, fmt.Sprintf("%s embeds component.Base", class))
	} else {
		r.Add(diag.Diagnostic{
			Severity:   diag.SeverityWarning,
			Component:  diag.ComponentInheritance,
			Message:    fmt.Sprintf("%s does not visibly embed component.Base", class),
			Suggestion: fmt.Sprintf("Import %q and embed component.Base as the first field.", component.ImportPath),
		})
	}

	if !hasMethod(file, class, component.EntryPoint) {
		r.Add(diag.Diagnostic{
			Severity:   diag.SeverityFatal,
			Component:  diag.ComponentEntryPoint,
			Message:    fmt.Sprintf("%s has no %s method", class, component.EntryPoint),
			Suggestion: fmt.Sprintf("Add `func (c *%s) %s(...) (any, error)`.", class, component.EntryPoint),
		})
		return "", false
	}
	r.Info(diag.ComponentEntryPoint, fmt.Sprintf("%s.%s declared", class, component.EntryPoint))

	var missing []string
	for _, f := range []string{component.FieldName, component.FieldDescription} {
		if !hasField(st, f) {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		r.Warn(diag.ComponentClassAttributes,
			fmt.Sprintf("%s does not declare %s statically", class, strings.Join(missing, ", ")))
	} else {
		r.Info(diag.ComponentClassAttributes, "identity fields declared")
	}
	if hasField(st, component.FieldSchema) {
		r.Info(diag.ComponentInputSchema, "parameter schema field declared")
	}
	return class, true
}

// findComponentStruct returns the *Component struct that declares the entry
// point, or the first *Component struct when none does.
func findComponentStruct(file *ast.File) (*ast.TypeSpec, *ast.StructType) {
	var firstSpec *ast.TypeSpec
	var firstStruct *ast.StructType
	for _, d := range file.Decls {
		gd, ok := d.(*ast.GenDecl)
		if !ok || gd.Tok != token.TYPE {
			continue
		}
		for _, s := range gd.Specs {
			ts, ok := s.(*ast.TypeSpec)
			if !ok || !strings.HasSuffix(ts.Name.Name, component.ClassSuffix) {
				continue
			}
			st, ok := ts.Type.(*ast.StructType)
			if !ok {
				continue
			}
			if hasMethod(file, ts.Name.Name, component.EntryPoint) {
				return ts, st
			}
			if firstSpec == nil {
				firstSpec, firstStruct = ts, st
			}
		}
	}
	return firstSpec, firstStruct
}

// componentImportName is the local name under which the contract package
// is imported, or "" when it is not.
func componentImportName(file *ast.File) string {
	for _, imp := range file.Imports {
		path, err := strconv.Unquote(imp.Path.Value)
		if err != nil || path != component.ImportPath {
			continue
		}
		if imp.Name != nil {
			return imp.Name.Name
		}
		return "component"
	}
	return ""
}

func embedsBase(file *ast.File, st *ast.StructType) bool {
	local := componentImportName(file)
	if local == "" {
		return false
	}
	for _, f := range st.Fields.List {
		if len(f.Names) != 0 {
			continue
		}
		typ := f.Type
		if star, ok := typ.(*ast.StarExpr); ok {
			typ = star.X
		}
		sel, ok := typ.(*ast.SelectorExpr)
		if !ok || sel.Sel.Name != "Base" {
			continue
		}
		if x, ok := sel.X.(*ast.Ident); ok && x.Name == local {
			return true
		}
	}
	return false
}

func hasField(st *ast.StructType, name string) bool {
	for _, f := range st.Fields.List {
		for _, n := range f.Names {
			if n.Name == name {
				return true
			}
		}
	}
	return false
}

func hasMethod(file *ast.File, class, name string) bool {
	for _, d := range file.Decls {
		fn, ok := d.(*ast.FuncDecl)
		if !ok || fn.Recv == nil || len(fn.Recv.List) == 0 || fn.Name.Name != name {
			continue
		}
		typ := fn.Recv.List[0].Type
		if star, ok := typ.(*ast.StarExpr); ok {
			typ = star.X
		}
		if id, ok := typ.(*ast.Ident); ok && id.Name == class {
			return true
		}
	}
	return false
}

func checkDiscovery(ctx context.Context, mod *loader.Module, class string, r *diag.Report) bool {
	zero, err := mod.Zero(ctx, class)
	if err != nil {
		r.Fatal(diag.ComponentInheritance, fmt.Sprintf("%s cannot be resolved in the loaded artifact: %v", class, err))
		return false
	}
	if !loader.Embeds(zero, reflect.TypeOf(component.Base{})) {
		r.Add(diag.Diagnostic{
			Severity:   diag.SeverityFatal,
			Component:  diag.ComponentInheritance,
			Message:    fmt.Sprintf("%s does not embed component.Base", class),
			Suggestion: "Embed component.Base so the host recognizes the type as a component.",
		})
		return false
	}
	r.Info(diag.ComponentInheritance, fmt.Sprintf("%s is a component", class))

	if _, err := mod.EntryPoint(ctx, class); err != nil {
		r.Fatal(diag.ComponentEntryPoint, fmt.Sprintf("%s.%s is not callable: %v", class, component.EntryPoint, err))
		return false
	}
	r.Info(diag.ComponentEntryPoint, fmt.Sprintf("%s.%s is callable", class, component.EntryPoint))
	return true
}

func checkInstance(ctx context.Context, mod *loader.Module, inst *loader.Instance, class string, r *diag.Report) {
	for _, field := range []string{component.FieldName, component.FieldDescription} {
		val, ok := inst.StringField(field)
		if !ok {
			r.Add(diag.Diagnostic{
				Severity:   diag.SeverityFatal,
				Component:  diag.ComponentClassAttributes,
				Message:    fmt.Sprintf("instance has no string field %s", field),
				Suggestion: fmt.Sprintf("Add `%s string` to %s and set it in the constructor.", field, class),
			})
			continue
		}
		r.Info(diag.ComponentClassAttributes, fmt.Sprintf("%s = %q", field, val))
	}

	run, err := inst.Method(ctx, component.EntryPoint)
	arity := -1
	if err == nil {
		arity = run.Type().NumIn()
	}

	schemaField, ok := inst.Field(component.FieldSchema)
	if !ok {
		if arity > 0 {
			r.Warn(diag.ComponentEntryPoint,
				fmt.Sprintf("%s takes %d parameters but the component has no %s", component.EntryPoint, arity, component.FieldSchema))
		}
		return
	}

	schema, err := component.SchemaOf(schemaField.Interface(), mod.Descriptions(ctx))
	if err != nil {
		r.Add(diag.Diagnostic{
			Severity:   diag.SeverityFatal,
			Component:  diag.ComponentInputSchema,
			Message:    fmt.Sprintf("input schema cannot be described: %v", err),
			Suggestion: "Give every parameter field a json tag and a supported type.",
		})
		return
	}
	r.Info(diag.ComponentInputSchema, fmt.Sprintf("input schema: %d parameters, required: %s",
		len(schema.Fields), strings.Join(schema.Required(), ", ")))

	if arity >= 0 && arity != len(schema.Fields) {
		r.Warn(diag.ComponentEntryPoint, fmt.Sprintf("%s takes %d parameters but the schema declares %d",
			component.EntryPoint, arity, len(schema.Fields)))
	}

	params, ok := mod.ParamNames(class, component.EntryPoint)
	if !ok {
		return
	}
	var unmatched []string
	for _, name := range params {
		if _, found := schema.Field(name); !found {
			unmatched = append(unmatched, name)
		}
	}
	if len(unmatched) > 0 {
		r.Add(diag.Diagnostic{
			Severity:  diag.SeverityFatal,
			Component: diag.ComponentInputSchema,
			Message: fmt.Sprintf("%s parameters %s have no field in %s",
				component.EntryPoint, strings.Join(unmatched, ", "), component.FieldSchema),
			Suggestion: "Name each Run parameter after the json tag of its parameters field.",
		})
	}
}
