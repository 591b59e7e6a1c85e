// Package synth turns a component specification into a Go source artifact
// that satisfies the component contract. Fragments are parsed in isolation
// before assembly, and nothing is written unless the whole file formats.
package synth

import (
	"bytes"
	"errors"
	"fmt"
	"go/ast"
	"go/format"
	"go/scanner"
	"os"
	"path/filepath"
	"strings"

	"componentforge/internal/diag"
	"componentforge/internal/logging"
	"componentforge/pkg/component"
)

// Artifact is a synthesized component on disk.
type Artifact struct {
	Path      string `json:"path"`
	ClassName string `json:"class_name"`
	Package   string `json:"package"`
	Source    string `json:"-"`
}

// Engine synthesizes artifacts under BaseDir.
type Engine struct {
	BaseDir string
}

// NewEngine creates an engine writing below baseDir.
func NewEngine(baseDir string) *Engine {
	return &Engine{BaseDir: baseDir}
}

// ArtifactPath is where a component with the given display name lives.
func (e *Engine) ArtifactPath(name string) string {
	norm := NormalizeName(name)
	return filepath.Join(e.BaseDir, norm, norm+"_component.go")
}

// Synthesize renders spec and writes it to ArtifactPath(spec.Name),
// replacing any previous artifact of the same normalized name.
// Every abort is a *Error and leaves the filesystem untouched.
func (e *Engine) Synthesize(spec *Specification) (*Artifact, error) {
	timer := logging.StartTimer(logging.CategorySynthesis, "Synthesize")
	defer timer.Stop()

	art, err := e.Render(spec)
	if err != nil {
		logging.Get(logging.CategorySynthesis).Warn("Synthesis of %q aborted: %v", spec.Name, err)
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(art.Path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create component directory: %w", err)
	}
	if err := os.WriteFile(art.Path, []byte(art.Source), 0644); err != nil {
		return nil, fmt.Errorf("failed to write component: %w", err)
	}

	logging.Synthesis("Wrote %s (%s, %d bytes)", art.Path, art.ClassName, len(art.Source))
	return art, nil
}

// Render builds the artifact source without touching the filesystem.
func (e *Engine) Render(spec *Specification) (*Artifact, error) {
	if spec == nil {
		return nil, invalidSpec("specification is nil")
	}
	if err := validate(spec); err != nil {
		return nil, err
	}

	imports, err := parseImports(spec.Imports)
	if err != nil {
		return nil, err
	}

	aux := make([]*auxMethod, len(spec.AuxiliaryMethods))
	for i, src := range spec.AuxiliaryMethods {
		aux[i] = parseAux(i, src)
	}

	entry, entryErr := parseEntryPoint(spec.EntryPoint)
	if err := checkStubs(entry, aux); err != nil {
		return nil, err
	}
	if entryErr != nil {
		return nil, entryErr
	}
	if err := checkAux(aux); err != nil {
		return nil, err
	}

	norm := NormalizeName(spec.Name)
	pkg := PackageName(norm)
	ir, err := buildIR(spec, pkg, imports, aux)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := fileTemplate.Execute(&buf, ir); err != nil {
		return nil, &Error{Kind: KindInternal, Message: "template execution failed", Err: err}
	}
	src, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, formatError(buf.String(), err)
	}

	logging.SynthesisDebug("Rendered %s: %d imports, %d parameters, %d auxiliary methods",
		ir.Component.TypeName, len(imports), len(spec.Parameters), len(aux))

	return &Artifact{
		Path:      e.ArtifactPath(spec.Name),
		ClassName: ir.Component.TypeName,
		Package:   pkg,
		Source:    string(src),
	}, nil
}

func validate(spec *Specification) error {
	if strings.TrimSpace(spec.Name) == "" {
		return invalidSpec("component name is empty")
	}
	if BaseName(spec.Name) == "" {
		return invalidSpec("component name %q has no identifier characters", spec.Name)
	}
	if spec.Kind != "" && !spec.Kind.Valid() {
		return invalidSpec("unknown component kind %q", spec.Kind)
	}
	if strings.TrimSpace(spec.EntryPoint) == "" {
		return invalidSpec("entry point is empty")
	}

	names := make(map[string]bool, len(spec.Parameters))
	fields := make(map[string]string, len(spec.Parameters))
	for _, p := range spec.Parameters {
		if !validParamName(p.Name) {
			return invalidSpec("parameter name %q is not a usable Go identifier", p.Name)
		}
		if names[p.Name] {
			return invalidSpec("duplicate parameter %q", p.Name)
		}
		names[p.Name] = true

		field := FieldName(p.Name)
		if other, ok := fields[field]; ok {
			return invalidSpec("parameters %q and %q map to the same field %s", other, p.Name, field)
		}
		fields[field] = p.Name

		if _, ok := goTypes[p.Type]; !ok {
			return invalidSpec("parameter %q has unknown type %q", p.Name, p.Type)
		}
		if !p.Required {
			if _, err := defaultLiteral(p.Type, p.Default); err != nil {
				return invalidSpec("parameter %q: %v", p.Name, err)
			}
		}
	}
	return nil
}

// reservedMethods cannot be declared by auxiliary methods: Run is the entry
// point and the rest collide with the component's fields.
var reservedMethods = map[string]bool{
	component.EntryPoint:       true,
	component.FieldName:        true,
	component.FieldDescription: true,
	component.FieldSchema:      true,
	"Base":                     true,
}

// checkStubs rejects a no-op entry point and every parseable auxiliary
// method whose body is a no-op. entry is nil when the entry point did not
// parse; unparseable fragments are reported afterwards.
func checkStubs(entry *ast.BlockStmt, aux []*auxMethod) error {
	var stubs []string
	if entry != nil && isNoOp(entry) {
		stubs = append(stubs, component.EntryPoint)
	}
	for _, m := range aux {
		if m.decl != nil && isNoOp(m.decl.Body) {
			stubs = append(stubs, m.name())
		}
	}
	if len(stubs) == 0 {
		return nil
	}
	return &Error{
		Kind:    KindNoOpMethods,
		Message: fmt.Sprintf("methods must be implemented, found no-op stubs: %s", strings.Join(stubs, ", ")),
		Methods: stubs,
	}
}

func checkAux(aux []*auxMethod) error {
	seen := make(map[string]bool, len(aux))
	for _, m := range aux {
		if m.err != nil {
			var synthErr *Error
			if errors.As(m.err, &synthErr) {
				return synthErr
			}
			return fragmentError(m.name(), m.source, m.err, strings.Count(declPrefix, "\n"))
		}
		name := m.name()
		if reservedMethods[name] {
			return invalidSpec("auxiliary method %s collides with a reserved component member", name)
		}
		if seen[name] {
			return invalidSpec("auxiliary method %s is declared twice", name)
		}
		seen[name] = true
	}
	return nil
}

func formatError(src string, err error) *Error {
	e := &Error{Kind: KindInternal, Message: "assembled source does not format", Err: err}
	var list scanner.ErrorList
	if errors.As(err, &list) && len(list) > 0 {
		lines := strings.Split(src, "\n")
		e.Line = list[0].Pos.Line
		e.Column = list[0].Pos.Column
		e.Fragment = "assembled file"
		e.Context = diag.Snippet(lines, e.Line, e.Column, fragmentContextRadius)
		e.Hint = diag.Suggest(list[0].Msg).Suggestion
	}
	return e
}
