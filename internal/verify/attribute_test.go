package verify

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"componentforge/internal/diag"
)

const attributionFixture = `package loganalyzer

import (
	"componentforge/pkg/component"
	"strings"
)

var Descriptions = map[string]string{
	"LogAnalyzerComponent.description": "scans logs",
}

type LogAnalyzerParameters struct {
	Path string ` + "`json:\"path\" required:\"true\"`" + `
}

func DefaultLogAnalyzerParameters() LogAnalyzerParameters {
	return LogAnalyzerParameters{}
}

type LogAnalyzerComponent struct {
	component.Base
	Name            string
	Description     string
	ParameterSchema LogAnalyzerParameters
}

func NewLogAnalyzerComponent() *LogAnalyzerComponent {
	return &LogAnalyzerComponent{Name: "LogAnalyzer"}
}

func (c *LogAnalyzerComponent) process(path string) (any, error) {
	return strings.TrimSpace(path), nil
}

// Run is the entry point of the component.
func (c *LogAnalyzerComponent) Run(path string) (any, error) {
	return c.process(path)
}

func helper() int {
	return 1
}
`

func lineOf(t *testing.T, lines []string, needle string) int {
	t.Helper()
	for i, l := range lines {
		if strings.Contains(l, needle) {
			return i + 1
		}
	}
	t.Fatalf("fixture has no line containing %q", needle)
	return 0
}

func TestAttribute(t *testing.T) {
	lines := strings.Split(attributionFixture, "\n")

	tests := []struct {
		needle string
		want   diag.Component
	}{
		{"package loganalyzer", diag.ComponentGeneralSyntax},
		{`"strings"`, diag.ComponentImports},
		{`"LogAnalyzerComponent.description": "scans logs"`, diag.ComponentClassAttributes},
		{"Path string", diag.ComponentInputSchema},
		{"return LogAnalyzerParameters{}", diag.ComponentInputSchema},
		{"type LogAnalyzerComponent struct", diag.ComponentInheritance},
		{"\tcomponent.Base", diag.ComponentInheritance},
		{"Description     string", diag.ComponentClassAttributes},
		{"ParameterSchema LogAnalyzerParameters", diag.ComponentInputSchema},
		{`Name: "LogAnalyzer"`, diag.ComponentClassAttributes},
		{"strings.TrimSpace(path)", diag.ComponentAuxiliaryMethods},
		{"func (c *LogAnalyzerComponent) Run", diag.ComponentEntryPoint},
		{"return c.process(path)", diag.ComponentEntryPoint},
		{"return 1", diag.ComponentAuxiliaryMethods},
	}

	for _, tt := range tests {
		t.Run(tt.needle, func(t *testing.T) {
			assert.Equal(t, tt.want, Attribute(lines, lineOf(t, lines, tt.needle)))
		})
	}
}

func TestAttribute_ClosingBraceAndBounds(t *testing.T) {
	lines := strings.Split(attributionFixture, "\n")

	runLine := lineOf(t, lines, "return c.process(path)")
	assert.Equal(t, diag.ComponentEntryPoint, Attribute(lines, runLine+1), "closing brace of Run")

	assert.Equal(t, diag.ComponentGeneralSyntax, Attribute(lines, 0))
	assert.Equal(t, diag.ComponentGeneralSyntax, Attribute(lines, len(lines)+5))

	blankAfterRun := runLine + 2
	assert.Equal(t, "", lines[blankAfterRun-1])
	assert.Equal(t, diag.ComponentGeneralSyntax, Attribute(lines, blankAfterRun))
}
