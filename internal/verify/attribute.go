package verify

import (
	"regexp"
	"strings"

	"componentforge/internal/diag"
	"componentforge/pkg/component"
)

var (
	methodHeader = regexp.MustCompile(`^func\s*\([^)]*\)\s*([A-Za-z_][A-Za-z0-9_]*)`)
	funcHeader   = regexp.MustCompile(`^func\s+([A-Za-z_][A-Za-z0-9_]*)`)
	typeHeader   = regexp.MustCompile(`^type\s+([A-Za-z_][A-Za-z0-9_]*)`)
)

// Attribute maps a 1-based source line to the structural component it most
// likely belongs to. It walks upward to the nearest top-level declaration
// and classifies that declaration:
//
//	import block                        imports
//	<X>Component header line            inheritance
//	<X>Component body                   inheritance for the Base line, else class-attributes
//	<X>Parameters, Default<X>()         input-schema
//	Run method                          entry-point
//	other methods and helper funcs      auxiliary-methods
//	New<X>(), Descriptions, describe    class-attributes
//	anything else                       general-syntax
func Attribute(lines []string, line int) diag.Component {
	if line < 1 || line > len(lines) {
		return diag.ComponentGeneralSyntax
	}
	target := lines[line-1]

	for n := line; n >= 1; n-- {
		raw := lines[n-1]
		if strings.TrimSpace(raw) == "" || raw[0] == ' ' || raw[0] == '\t' {
			continue
		}
		if strings.HasPrefix(raw, "//") {
			continue
		}
		if raw[0] == '}' || raw[0] == ')' {
			if n == line {
				// a closing line belongs to the declaration it closes
				continue
			}
			return diag.ComponentGeneralSyntax
		}
		return classifyDecl(raw, target, n == line)
	}
	return diag.ComponentGeneralSyntax
}

func classifyDecl(header, target string, onHeader bool) diag.Component {
	switch {
	case strings.HasPrefix(header, "import"):
		return diag.ComponentImports

	case strings.HasPrefix(header, "type"):
		m := typeHeader.FindStringSubmatch(header)
		if m == nil {
			return diag.ComponentGeneralSyntax
		}
		switch {
		case strings.HasSuffix(m[1], component.ParametersSuffix):
			return diag.ComponentInputSchema
		case strings.HasSuffix(m[1], component.ClassSuffix):
			if onHeader || strings.Contains(target, ".Base") {
				return diag.ComponentInheritance
			}
			if strings.Contains(target, component.FieldSchema) {
				return diag.ComponentInputSchema
			}
			return diag.ComponentClassAttributes
		}
		return diag.ComponentGeneralSyntax

	case strings.HasPrefix(header, "func"):
		if m := methodHeader.FindStringSubmatch(header); m != nil {
			if m[1] == component.EntryPoint {
				return diag.ComponentEntryPoint
			}
			return diag.ComponentAuxiliaryMethods
		}
		if m := funcHeader.FindStringSubmatch(header); m != nil {
			switch {
			case strings.HasPrefix(m[1], component.DefaultsPrefix):
				return diag.ComponentInputSchema
			case strings.HasPrefix(m[1], component.ConstructorPrefix), m[1] == "describe":
				return diag.ComponentClassAttributes
			}
			return diag.ComponentAuxiliaryMethods
		}
		return diag.ComponentGeneralSyntax

	case strings.HasPrefix(header, "var"), strings.HasPrefix(header, "const"):
		if strings.Contains(header, component.DescriptionsVar) {
			return diag.ComponentClassAttributes
		}
	}
	return diag.ComponentGeneralSyntax
}
