package synth

import "text/template"

var fileTemplate = template.Must(template.New("component").Parse(`// Package {{.Package}} holds the {{printf "%q" .DisplayName}} component synthesized by componentforge.
package {{.Package}}

import (
{{- range .Imports}}
	{{if .Name}}{{.Name}} {{end}}{{printf "%q" .Path}}
{{- end}}
)

// Descriptions keeps long-form text out of the type declarations.
var Descriptions = map[string]string{
{{- range .Descriptions}}
	{{.Key}}: {{.Text}},
{{- end}}
}

func describe(key string) string {
	if text, ok := Descriptions[key]; ok && text != "" {
		return text
	}
	return "no description for " + key
}
{{with .Params}}
// {{.TypeName}} is the input schema of the component.
type {{.TypeName}} struct {
{{- range .Fields}}
	{{.GoName}} {{.GoType}} {{.Tag}}
{{- end}}
}

// {{.DefaultsFunc}} returns the schema with optional fields at their defaults.
func {{.DefaultsFunc}}() {{.TypeName}} {
	return {{.TypeName}}{
{{- range .Fields}}{{if not .Required}}
		{{.GoName}}: {{.Default}},
{{- end}}{{end}}
	}
}
{{end}}
{{- with .Component}}
// {{.Doc}}
type {{.TypeName}} struct {
	component.Base
	Name        string
	Description string
{{- if $.Params}}
	ParameterSchema {{$.Params.TypeName}}
{{- end}}
}

// {{.Constructor}} returns a ready-to-run component.
func {{.Constructor}}() *{{.TypeName}} {
	return &{{.TypeName}}{
		Base:        component.Base{Kind: {{.Kind}}},
		Name:        {{.DisplayName}},
		Description: describe({{.DescKey}}),
{{- if $.Params}}
		ParameterSchema: {{$.Params.DefaultsFunc}}(),
{{- end}}
	}
}
{{range .Methods}}
{{.}}
{{end}}
// Run is the entry point of the component.
func (c *{{.TypeName}}) Run({{.RunParams}}) (any, error) {
{{.RunBody}}
}
{{- end}}
`))
