package loader

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"componentforge/pkg/component"
)

const greeterSource = `package greeter

import (
	"fmt"

	"componentforge/pkg/component"
)

type GreeterComponent struct {
	component.Base
	Name        string
	Description string
}

func NewGreeterComponent() *GreeterComponent {
	return &GreeterComponent{
		Base:        component.Base{Kind: "tool"},
		Name:        "Greeter",
		Description: "says hello",
	}
}

func (c *GreeterComponent) Run() (any, error) {
	fmt.Println("greeting")
	return "hello from " + c.Name, nil
}
`

func writeArtifact(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "greeter_component.go")
	require.NoError(t, os.WriteFile(path, []byte(src), 0644))
	return path
}

func TestLoad(t *testing.T) {
	ctx := context.Background()
	path := writeArtifact(t, greeterSource)

	m, err := Load(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "greeter", m.Package())
	assert.Equal(t, path, m.Path())
	assert.NotEmpty(t, m.ID())
	assert.True(t, m.HasType("GreeterComponent"))
	assert.False(t, m.HasType("Missing"))

	again, err := Load(ctx, path)
	require.NoError(t, err)
	assert.NotEqual(t, m.ID(), again.ID(), "every load has its own identity")
}

func TestLoad_Failures(t *testing.T) {
	ctx := context.Background()

	_, err := Load(ctx, filepath.Join(t.TempDir(), "absent.go"))
	assert.Error(t, err)

	_, err = LoadSource(ctx, "broken.go", "package broken\n\nfunc f() int { return undefinedThing }\n")
	assert.Error(t, err)

	_, err = LoadSource(ctx, "syntax.go", "package syntax\n\nfunc f( {\n")
	assert.Error(t, err)
}

func TestModuleReflection(t *testing.T) {
	ctx := context.Background()
	m, err := LoadSource(ctx, "greeter_component.go", greeterSource)
	require.NoError(t, err)

	zero, err := m.Zero(ctx, "GreeterComponent")
	require.NoError(t, err)
	assert.True(t, Embeds(zero, reflect.TypeOf(component.Base{})))

	run, err := m.EntryPoint(ctx, "GreeterComponent")
	require.NoError(t, err)
	assert.Equal(t, reflect.Func, run.Kind())

	_, err = m.Zero(ctx, "NopeComponent")
	assert.Error(t, err)

	ctor, ok := m.Constructor("GreeterComponent")
	assert.True(t, ok)
	assert.Equal(t, "NewGreeterComponent", ctor)
}

func TestInstantiateAndRun(t *testing.T) {
	ctx := context.Background()
	m, err := LoadSource(ctx, "greeter_component.go", greeterSource)
	require.NoError(t, err)

	inst, err := m.Instantiate(ctx, "GreeterComponent")
	require.NoError(t, err)
	assert.Equal(t, "NewGreeterComponent", inst.Constructor)

	name, ok := inst.StringField("Name")
	assert.True(t, ok)
	assert.Equal(t, "Greeter", name)

	_, ok = inst.StringField("Missing")
	assert.False(t, ok)

	run, err := inst.Method(ctx, "Run")
	require.NoError(t, err)
	out := run.Call(nil)
	require.Len(t, out, 2)
	assert.Equal(t, "hello from Greeter", out[0].Interface())
	assert.True(t, out[1].IsNil())
	assert.Contains(t, m.Output(), "greeting")
}

func TestInstantiate_LiteralFallbackAndPanic(t *testing.T) {
	ctx := context.Background()
	src := `package odd

import "componentforge/pkg/component"

type OddComponent struct {
	component.Base
	Name        string
	Description string
}

func NewOddComponent(name string) *OddComponent { return &OddComponent{Name: name} }

type BoomComponent struct {
	component.Base
}

func NewBoomComponent() *BoomComponent { panic("boom") }
`
	m, err := LoadSource(ctx, "odd_component.go", src)
	require.NoError(t, err)

	_, ok := m.Constructor("OddComponent")
	assert.False(t, ok, "constructors with parameters are not used")

	inst, err := m.Instantiate(ctx, "OddComponent")
	require.NoError(t, err)
	assert.Empty(t, inst.Constructor)

	_, err = m.Instantiate(ctx, "BoomComponent")
	assert.Error(t, err)
}

func TestDescriptions(t *testing.T) {
	ctx := context.Background()
	src := "package d\n\nvar Descriptions = map[string]string{\"DComponent.description\": \"text\"}\n"
	m, err := LoadSource(ctx, "d_component.go", src)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"DComponent.description": "text"}, m.Descriptions(ctx))

	bare, err := LoadSource(ctx, "greeter_component.go", greeterSource)
	require.NoError(t, err)
	assert.Nil(t, bare.Descriptions(ctx))
}

func TestParamNames(t *testing.T) {
	src := `package pn

type PnComponent struct{}

func (c *PnComponent) Run(b int, a, z string) (any, error) { return nil, nil }

func (PnComponent) Blank(_ int) {}

func (c *PnComponent) Unnamed(int) {}
`
	m, err := LoadSource(context.Background(), "pn_component.go", src)
	require.NoError(t, err)

	names, ok := m.ParamNames("PnComponent", "Run")
	require.True(t, ok)
	assert.Equal(t, []string{"b", "a", "z"}, names)

	for _, method := range []string{"Blank", "Unnamed", "Missing"} {
		_, ok := m.ParamNames("PnComponent", method)
		assert.False(t, ok, method)
	}
	_, ok = m.ParamNames("OtherComponent", "Run")
	assert.False(t, ok)
}
