package synth

import (
	"fmt"
	"strconv"
	"strings"

	"componentforge/pkg/component"
)

// The engine never concatenates artifact text directly. It builds this
// intermediate representation, prints it through the file template and
// hands the result to go/format.

type fileIR struct {
	Package      string
	DisplayName  string
	Imports      []importSpec
	Descriptions []descIR
	Params       *paramsIR
	Component    componentIR
}

type descIR struct {
	Key  string // quoted
	Text string // quoted
}

type paramsIR struct {
	TypeName     string
	DefaultsFunc string
	Fields       []fieldIR
}

type fieldIR struct {
	GoName   string
	GoType   string
	Tag      string // including backquotes
	Default  string
	Required bool
}

type componentIR struct {
	TypeName    string
	Constructor string
	Doc         string
	Kind        string // quoted
	DisplayName string // quoted
	DescKey     string // quoted
	Methods     []string
	RunParams   string
	RunBody     string
}

// buildIR lowers a validated specification. Auxiliary methods arrive
// already parsed and stub-checked.
func buildIR(spec *Specification, pkg string, imports []importSpec, aux []*auxMethod) (*fileIR, error) {
	base := BaseName(spec.Name)
	className := base + component.ClassSuffix
	paramsName := base + component.ParametersSuffix
	selfKey := className + "." + component.DescriptionKeySelf

	kind := spec.EffectiveKind()

	ir := &fileIR{
		Package:     pkg,
		DisplayName: spec.Name,
		Imports:     imports,
		Descriptions: []descIR{{
			Key:  strconv.Quote(selfKey),
			Text: strconv.Quote(spec.Description),
		}},
		Component: componentIR{
			TypeName:    className,
			Constructor: component.ConstructorPrefix + className,
			Doc:         docLine(className, spec.Description),
			Kind:        strconv.Quote(string(kind)),
			DisplayName: strconv.Quote(spec.Name),
			DescKey:     strconv.Quote(selfKey),
			RunBody:     strings.Trim(spec.EntryPoint, "\n"),
		},
	}

	if len(spec.Parameters) > 0 {
		params := &paramsIR{
			TypeName:     paramsName,
			DefaultsFunc: component.DefaultsPrefix + paramsName,
		}
		runParams := make([]string, 0, len(spec.Parameters))
		for _, p := range spec.Parameters {
			goType := goTypes[p.Type]
			key := paramsName + "." + p.Name
			ir.Descriptions = append(ir.Descriptions, descIR{
				Key:  strconv.Quote(key),
				Text: strconv.Quote(p.Description),
			})

			tag := fmt.Sprintf("`json:%q", p.Name)
			if p.Required {
				tag += fmt.Sprintf(" %s:\"true\"", component.RequiredTag)
			}
			tag += fmt.Sprintf(" %s:%q`", component.DescriptionKeyTag, key)

			f := fieldIR{GoName: FieldName(p.Name), GoType: goType, Tag: tag, Required: p.Required}
			if !p.Required {
				lit, err := defaultLiteral(p.Type, p.Default)
				if err != nil {
					return nil, invalidSpec("parameter %q: %v", p.Name, err)
				}
				f.Default = lit
			}
			params.Fields = append(params.Fields, f)
			runParams = append(runParams, p.Name+" "+goType)
		}
		ir.Params = params
		ir.Component.RunParams = strings.Join(runParams, ", ")
	}

	for _, m := range aux {
		ir.Component.Methods = append(ir.Component.Methods, m.render(className))
	}
	return ir, nil
}

// docLine builds the type doc comment from the first line of a description.
func docLine(ident, description string) string {
	first, _, _ := strings.Cut(strings.TrimSpace(description), "\n")
	first = strings.TrimSpace(first)
	if first == "" {
		return ident + " is a synthesized component."
	}
	return ident + ": " + first
}
