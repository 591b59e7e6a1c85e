package verify

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"componentforge/internal/diag"
	"componentforge/internal/synth"
)

// =============================================================================
// FIXTURES
// =============================================================================

func logAnalyzerSpec() *synth.Specification {
	return &synth.Specification{
		Name:        "LogAnalyzer",
		Description: "Scans a log file and reports findings.",
		Parameters: []synth.Parameter{
			{Name: "path", Type: "string", Description: "log file to scan", Required: true},
			{Name: "verbose", Type: "boolean", Description: "emit details"},
			{Name: "tags", Type: "array", Description: "labels"},
		},
		EntryPoint:       "return c.process(path)",
		AuxiliaryMethods: []string{"func process(path string) (any, error) {\n\treturn \"ok\", nil\n}"},
	}
}

func synthesize(t *testing.T) *synth.Artifact {
	t.Helper()
	art, err := synth.NewEngine(t.TempDir()).Synthesize(logAnalyzerSpec())
	require.NoError(t, err)
	return art
}

func writeFile(t *testing.T, name, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(src), 0644))
	return path
}

// corrupt rewrites the first occurrence of old in the artifact and returns
// the 1-based line it was on.
func corrupt(t *testing.T, path, old, replacement string) int {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	src := string(data)
	idx := strings.Index(src, old)
	require.GreaterOrEqual(t, idx, 0, "artifact has no %q", old)
	line := strings.Count(src[:idx], "\n") + 1
	src = src[:idx] + replacement + src[idx+len(old):]
	require.NoError(t, os.WriteFile(path, []byte(src), 0644))
	return line
}

func verifier() *Verifier {
	return New(30 * time.Second)
}

// =============================================================================
// HAPPY PATH
// =============================================================================

func TestVerify_SynthesizedArtifact(t *testing.T) {
	art := synthesize(t)

	report := verifier().Verify(context.Background(), art.Path)

	require.True(t, report.Success, report.Format())
	assert.Equal(t, "LogAnalyzerComponent", report.DetectedClassName)
	assert.Equal(t, art.Path, report.ArtifactPath)
	assert.NotEmpty(t, report.LoadID)
	assert.Empty(t, report.Fatals())
	assert.Empty(t, report.Warnings(), report.Format())
	assert.NotEmpty(t, report.Infos())
	for _, d := range report.Diagnostics {
		assert.Equal(t, diag.SeverityInfo, d.Severity)
	}
}

func TestVerify_LoadIdentityChangesPerRun(t *testing.T) {
	art := synthesize(t)
	v := verifier()

	first := v.Verify(context.Background(), art.Path)
	second := v.Verify(context.Background(), art.Path)

	require.True(t, first.Success)
	require.True(t, second.Success)
	assert.NotEqual(t, first.LoadID, second.LoadID)
}

// =============================================================================
// STAGE 1-2
// =============================================================================

func TestVerify_Existence(t *testing.T) {
	dir := t.TempDir()
	txt := writeFile(t, "notes.txt", "package x")

	tests := []struct {
		name string
		path string
	}{
		{"missing", filepath.Join(dir, "missing_component.go")},
		{"directory", dir},
		{"wrong extension", txt},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := verifier().Verify(context.Background(), tt.path)
			assert.False(t, report.Success)
			require.Len(t, report.Fatals(), 1)
			assert.Equal(t, diag.ComponentGeneralSyntax, report.Fatals()[0].Component)
			assert.Empty(t, report.LoadID)
		})
	}
}

func TestVerify_EntryPointSyntaxError(t *testing.T) {
	art := synthesize(t)
	line := corrupt(t, art.Path, "return c.process(path)", "return c.process(path")

	report := verifier().Verify(context.Background(), art.Path)

	assert.False(t, report.Success)
	fatals := report.Fatals()
	require.Len(t, fatals, 1)
	assert.Equal(t, diag.ComponentEntryPoint, fatals[0].Component)
	assert.Equal(t, line, fatals[0].Line)
	assert.Contains(t, fatals[0].Context, "return c.process(path")
	assert.NotEmpty(t, fatals[0].Suggestion)
	assert.Empty(t, report.LoadID, "parse failures stop before the load")
}

func TestVerify_BrokenClassHeader(t *testing.T) {
	art := synthesize(t)
	header := "type LogAnalyzerComponent struct {"
	line := corrupt(t, art.Path, header, "type LogAnalyzerComponent struct")

	report := verifier().Verify(context.Background(), art.Path)

	fatals := report.Fatals()
	require.Len(t, fatals, 1)
	assert.Equal(t, line, fatals[0].Line)
	assert.Equal(t, diag.ComponentInheritance, fatals[0].Component)
	assert.Contains(t, fatals[0].Context, "type LogAnalyzerComponent struct")
	assert.Equal(t, diag.Suggest("expected '{'").Suggestion, fatals[0].Suggestion)
}

// =============================================================================
// STAGE 3-7
// =============================================================================

const baseImport = "package fx\n\nimport \"componentforge/pkg/component\"\n\n"

func TestVerify_StructuralFailures(t *testing.T) {
	tests := []struct {
		name      string
		src       string
		component diag.Component
	}{
		{
			name:      "no component type",
			src:       "package fx\n\ntype Helper struct{}\n",
			component: diag.ComponentInheritance,
		},
		{
			name: "no entry point",
			src: baseImport + `type FxComponent struct {
	component.Base
	Name        string
	Description string
}
`,
			component: diag.ComponentEntryPoint,
		},
		{
			name: "does not load",
			src: baseImport + `type FxComponent struct {
	component.Base
	Name        string
	Description string
}

func (c *FxComponent) Run() (any, error) { return undefinedHelper(), nil }
`,
			component: diag.ComponentGeneralSyntax,
		},
		{
			name: "missing base",
			src: `package fx

type FxComponent struct {
	Name        string
	Description string
}

func (c *FxComponent) Run() (any, error) { return "x", nil }
`,
			component: diag.ComponentInheritance,
		},
		{
			name: "missing identity field",
			src: baseImport + `type FxComponent struct {
	component.Base
	Name string
}

func (c *FxComponent) Run() (any, error) { return "x", nil }
`,
			component: diag.ComponentClassAttributes,
		},
		{
			name: "schema without json names",
			src: baseImport + `type FxParameters struct {
	Path string
}

type FxComponent struct {
	component.Base
	Name            string
	Description     string
	ParameterSchema FxParameters
}

func (c *FxComponent) Run(path string) (any, error) { return path, nil }
`,
			component: diag.ComponentInputSchema,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "fx_component.go", tt.src)

			report := verifier().Verify(context.Background(), path)

			assert.False(t, report.Success, report.Format())
			fatals := report.Fatals()
			require.Len(t, fatals, 1, report.Format())
			assert.Equal(t, tt.component, fatals[0].Component)
		})
	}
}

func TestVerify_MissingBaseWarnsStatically(t *testing.T) {
	src := `package fx

type FxComponent struct {
	Name        string
	Description string
}

func (c *FxComponent) Run() (any, error) { return "x", nil }
`
	report := verifier().Verify(context.Background(), writeFile(t, "fx_component.go", src))

	require.Len(t, report.Warnings(), 1)
	assert.Equal(t, diag.ComponentInheritance, report.Warnings()[0].Component)
	assert.Equal(t, "FxComponent", report.DetectedClassName)
}

func TestVerify_ConstructorPanicIsWarning(t *testing.T) {
	src := baseImport + `type FxComponent struct {
	component.Base
	Name        string
	Description string
}

func NewFxComponent() *FxComponent { panic("not today") }

func (c *FxComponent) Run() (any, error) { return "x", nil }
`
	report := verifier().Verify(context.Background(), writeFile(t, "fx_component.go", src))

	assert.True(t, report.Success, report.Format())
	require.Len(t, report.Warnings(), 1)
	assert.Equal(t, diag.ComponentClassAttributes, report.Warnings()[0].Component)
}

func TestVerify_ArityMismatchWarns(t *testing.T) {
	src := baseImport + `type FxComponent struct {
	component.Base
	Name        string
	Description string
}

func (c *FxComponent) Run(path string) (any, error) { return path, nil }
`
	report := verifier().Verify(context.Background(), writeFile(t, "fx_component.go", src))

	assert.True(t, report.Success)
	require.Len(t, report.Warnings(), 1)
	assert.Equal(t, diag.ComponentEntryPoint, report.Warnings()[0].Component)
}

const reorderedSrc = baseImport + `type OrdParameters struct {
	A string ` + "`json:\"a\" required:\"true\"`" + `
	B int    ` + "`json:\"b\" required:\"true\"`" + `
}

type OrdComponent struct {
	component.Base
	Name            string
	Description     string
	ParameterSchema OrdParameters
}

func (c *OrdComponent) Run(b int, a string) (any, error) { return a, nil }
`

func TestVerify_ParametersMatchedByName(t *testing.T) {
	report := verifier().Verify(context.Background(), writeFile(t, "ord_component.go", reorderedSrc))

	assert.True(t, report.Success, report.Format())
	assert.Empty(t, report.Warnings())
}

func TestVerify_UnknownParameterNameIsFatal(t *testing.T) {
	src := strings.Replace(reorderedSrc, "Run(b int, a string)", "Run(b int, x string)", 1)
	report := verifier().Verify(context.Background(), writeFile(t, "ord_component.go", src))

	assert.False(t, report.Success)
	require.Len(t, report.Fatals(), 1)
	assert.Equal(t, diag.ComponentInputSchema, report.Fatals()[0].Component)
	assert.Contains(t, report.Fatals()[0].Message, "x")
}

func TestVerify_PicksComponentWithEntryPoint(t *testing.T) {
	src := baseImport + `type SubComponent struct {
	Label string
}

type FxComponent struct {
	component.Base
	Name        string
	Description string
	Sub         SubComponent
}

func (c *FxComponent) Run() (any, error) { return c.Sub.Label, nil }
`
	report := verifier().Verify(context.Background(), writeFile(t, "fx_component.go", src))

	assert.True(t, report.Success, report.Format())
	assert.Equal(t, "FxComponent", report.DetectedClassName)
}

// =============================================================================
// VERIFY ALL
// =============================================================================

func TestVerifyAll(t *testing.T) {
	good := synthesize(t).Path
	missing := filepath.Join(t.TempDir(), "gone_component.go")
	other := synthesize(t).Path

	v := verifier()
	v.Workers = 2
	reports := v.VerifyAll(context.Background(), []string{good, missing, other})

	require.Len(t, reports, 3)
	assert.Equal(t, good, reports[0].ArtifactPath)
	assert.True(t, reports[0].Success)
	assert.False(t, reports[1].Success)
	assert.True(t, reports[2].Success)
	assert.NotEqual(t, reports[0].LoadID, reports[2].LoadID)
}
