package synth

import (
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/scanner"
	"go/token"
	"strconv"
	"strings"

	"componentforge/internal/diag"
	"componentforge/pkg/component"
)

const (
	entryPrefix = "package p\n\nfunc _() {\n"
	entrySuffix = "\n}\n"
	declPrefix  = "package p\n\n"

	fragmentContextRadius = 3
	entryFragmentName     = "entry point"
)

// auxMethod is a parsed auxiliary method fragment.
type auxMethod struct {
	index  int
	source string
	decl   *ast.FuncDecl
	fset   *token.FileSet
	// wrapped is declPrefix+source; positions in decl index into it.
	wrapped string
	err     error
}

func (m *auxMethod) name() string {
	if m.decl != nil {
		return m.decl.Name.Name
	}
	return fmt.Sprintf("auxiliary method #%d", m.index+1)
}

// parseAux parses one auxiliary method in isolation. A parse failure is
// stored on the result so that stub detection can skip it.
func parseAux(index int, src string) *auxMethod {
	m := &auxMethod{index: index, source: src, wrapped: declPrefix + src, fset: token.NewFileSet()}
	file, err := parser.ParseFile(m.fset, "aux.go", m.wrapped, parser.ParseComments)
	if err != nil {
		m.err = err
		return m
	}
	if len(file.Decls) != 1 {
		m.err = invalidSpec("auxiliary method #%d must hold exactly one func declaration, found %d declarations", index+1, len(file.Decls))
		return m
	}
	fn, ok := file.Decls[0].(*ast.FuncDecl)
	if !ok {
		m.err = invalidSpec("auxiliary method #%d is not a func declaration", index+1)
		return m
	}
	m.decl = fn
	return m
}

// isNoOp reports whether a method body does nothing: no body, an empty
// body, or a body made of a lone empty statement, empty block or bare return.
func isNoOp(body *ast.BlockStmt) bool {
	if body == nil {
		return true
	}
	return noOpList(body.List)
}

func noOpList(list []ast.Stmt) bool {
	switch len(list) {
	case 0:
		return true
	case 1:
	default:
		return false
	}
	switch s := list[0].(type) {
	case *ast.EmptyStmt:
		return true
	case *ast.BlockStmt:
		return noOpList(s.List)
	case *ast.ReturnStmt:
		return len(s.Results) == 0
	}
	return false
}

// render rewrites the receiver onto the component type. Text before the
// func keyword (doc comments) and everything from the method name on is
// kept verbatim.
func (m *auxMethod) render(className string) string {
	tf := m.fset.File(m.decl.Pos())
	funcOff := tf.Offset(m.decl.Type.Func)
	nameOff := tf.Offset(m.decl.Name.Pos())

	recv := receiverName
	if m.decl.Recv != nil && len(m.decl.Recv.List) > 0 && len(m.decl.Recv.List[0].Names) > 0 {
		if n := m.decl.Recv.List[0].Names[0].Name; n != "_" {
			recv = n
		}
	}

	var sb strings.Builder
	sb.WriteString(strings.TrimSpace(m.wrapped[len(declPrefix):funcOff]))
	if sb.Len() > 0 {
		sb.WriteByte('\n')
	}
	fmt.Fprintf(&sb, "func (%s *%s) ", recv, className)
	sb.WriteString(strings.TrimRight(m.wrapped[nameOff:], " \t\n"))
	return sb.String()
}

// parseEntryPoint parses the entry-point body inside a throwaway func and
// returns that func's body. The body must stay inside the func: a fragment
// that closes it and declares more top-level code is rejected.
func parseEntryPoint(body string) (*ast.BlockStmt, *Error) {
	fset := token.NewFileSet()
	wrapped := entryPrefix + body + entrySuffix
	file, err := parser.ParseFile(fset, "entry.go", wrapped, 0)
	if err != nil {
		return nil, fragmentError(entryFragmentName, body, err, strings.Count(entryPrefix, "\n"))
	}

	fn, _ := file.Decls[0].(*ast.FuncDecl)
	closing := len(entryPrefix) + len(body) + strings.Index(entrySuffix, "}")
	if len(file.Decls) == 1 && fn != nil && fn.Body != nil && fset.File(fn.Pos()).Offset(fn.Body.Rbrace) == closing {
		return fn.Body, nil
	}

	e := &Error{
		Kind:     KindFragmentSyntax,
		Fragment: entryFragmentName,
		Message:  "entry point closes the Run body early and declares code outside it",
		Hint:     "Remove the unmatched '}' and move extra functions into auxiliary methods.",
	}
	if fn != nil && fn.Body != nil {
		lines := strings.Split(body, "\n")
		pos := fset.Position(fn.Body.Rbrace)
		e.Line = pos.Line - strings.Count(entryPrefix, "\n")
		e.Column = pos.Column
		if e.Line >= 1 && e.Line <= len(lines) {
			e.Context = diag.Snippet(lines, e.Line, e.Column, fragmentContextRadius)
		}
	}
	return nil, e
}

// fragmentError converts a parser error into a KindFragmentSyntax error
// positioned inside the fragment.
func fragmentError(fragment, src string, err error, lineOffset int) *Error {
	var list scanner.ErrorList
	if !errors.As(err, &list) || len(list) == 0 {
		return &Error{Kind: KindFragmentSyntax, Fragment: fragment, Message: "fragment does not parse", Err: err}
	}
	first := list[0]
	lines := strings.Split(src, "\n")

	line := first.Pos.Line - lineOffset
	col := first.Pos.Column
	if line > len(lines) {
		line = len(lines) + 1
	}
	line, col = diag.AttributeLine(lines, line, col, first.Msg)
	if line > len(lines) {
		line = len(lines)
	}
	if line < 1 {
		line, col = 1, 1
	}

	return &Error{
		Kind:     KindFragmentSyntax,
		Message:  first.Msg,
		Fragment: fragment,
		Line:     line,
		Column:   col,
		Context:  diag.Snippet(lines, line, col, fragmentContextRadius),
		Hint:     diag.Suggest(first.Msg).Suggestion,
		Err:      err,
	}
}

// importSpec is one caller-supplied import.
type importSpec struct {
	Name string
	Path string
}

// parseImports accepts `"path"`, `alias "path"`, `import "path"` and
// parenthesized import blocks, de-duplicating by path in first-seen order.
// The framework import is always present and comes first.
func parseImports(entries []string) ([]importSpec, error) {
	out := []importSpec{{Path: component.ImportPath}}
	seen := map[string]bool{component.ImportPath: true}

	for _, entry := range entries {
		src := strings.TrimSpace(entry)
		if src == "" {
			continue
		}
		if !strings.HasPrefix(src, "import") {
			src = "import " + src
		}
		fset := token.NewFileSet()
		file, err := parser.ParseFile(fset, "imports.go", declPrefix+src, parser.ImportsOnly)
		if err != nil {
			return nil, invalidSpec("unparseable import %q: %v", entry, err)
		}
		if len(file.Imports) == 0 {
			return nil, invalidSpec("import %q names no package", entry)
		}
		for _, imp := range file.Imports {
			path, err := strconv.Unquote(imp.Path.Value)
			if err != nil {
				return nil, invalidSpec("bad import path in %q", entry)
			}
			if seen[path] {
				continue
			}
			seen[path] = true
			spec := importSpec{Path: path}
			if imp.Name != nil {
				spec.Name = imp.Name.Name
			}
			out = append(out, spec)
		}
	}
	return out, nil
}
