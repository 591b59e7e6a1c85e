package forge

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"componentforge/internal/catalog"
	"componentforge/internal/config"
	"componentforge/internal/diag"
	"componentforge/internal/synth"
)

func testForge(t *testing.T, store *catalog.Store) *Forge {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Synthesis.ArtifactDir = t.TempDir()
	cfg.Harness.ExecTimeout = "20s"
	return New(cfg, store)
}

func greeterSpec() *synth.Specification {
	return &synth.Specification{
		Name:        "Greeter",
		Description: "Greets someone.",
		Kind:        "tool",
		Imports:     []string{`"fmt"`},
		Parameters: []synth.Parameter{
			{Name: "who", Type: "string", Description: "person to greet", Required: true},
			{Name: "times", Type: "integer", Required: true},
			{Name: "loud", Type: "boolean"},
		},
		EntryPoint: `return fmt.Sprintf("hello %s x%d", who, times), nil`,
	}
}

func TestPlaceboArgs(t *testing.T) {
	spec := &synth.Specification{Parameters: []synth.Parameter{
		{Name: "name", Type: "string", Required: true},
		{Name: "count", Type: "integer", Required: true},
		{Name: "ratio", Type: "number", Required: true},
		{Name: "flag", Type: "boolean", Required: true},
		{Name: "items", Type: "array", Required: true},
		{Name: "meta", Type: "object", Required: true},
		{Name: "optional", Type: "string"},
	}}

	want := map[string]any{
		"name":  "sample_name",
		"count": 42,
		"ratio": 4.2,
		"flag":  true,
		"items": []any{"item1", "item2"},
		"meta":  map[string]any{"key": "value"},
	}
	if diff := cmp.Diff(want, PlaceboArgs(spec)); diff != "" {
		t.Errorf("PlaceboArgs mismatch (-want +got):\n%s", diff)
	}
}

func TestCreate_HappyPath(t *testing.T) {
	f := testForge(t, nil)

	res, err := f.Create(context.Background(), greeterSpec())
	require.NoError(t, err)

	assert.True(t, res.Report.Success)
	require.NotNil(t, res.Smoke)
	require.True(t, res.Smoke.OK, res.Smoke.Failure)
	assert.Equal(t, "hello sample_who x42", res.Smoke.Value)

	summary := res.Summary()
	assert.Contains(t, summary, "# Component created: Greeter")
	assert.Contains(t, summary, "| who | string | yes | person to greet |")
	assert.Contains(t, summary, "Passed with 0 warnings.")
	assert.Contains(t, summary, "hello sample_who x42")
}

func TestCreate_SmokeFailureIsData(t *testing.T) {
	f := testForge(t, nil)
	spec := greeterSpec()
	spec.EntryPoint = `return nil, fmt.Errorf("no such user: %s", who)`

	res, err := f.Create(context.Background(), spec)
	require.NoError(t, err)

	assert.True(t, res.Report.Success)
	require.NotNil(t, res.Smoke)
	assert.False(t, res.Smoke.OK)
	assert.Contains(t, res.Smoke.Failure, "no such user: sample_who")
	assert.Contains(t, res.Summary(), "may be expected")
}

func TestCreate_SynthesisAbortIsError(t *testing.T) {
	f := testForge(t, nil)
	spec := greeterSpec()
	spec.EntryPoint = "return"

	_, err := f.Create(context.Background(), spec)
	var serr *synth.Error
	require.True(t, errors.As(err, &serr), "got %v", err)
	assert.Equal(t, synth.KindNoOpMethods, serr.Kind)
}

func TestCreate_RecordsInCatalog(t *testing.T) {
	store, err := catalog.Open(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	defer store.Close()

	f := testForge(t, store)
	res, err := f.Create(context.Background(), greeterSpec())
	require.NoError(t, err)

	entry, err := store.Get(context.Background(), res.Artifact.Path)
	require.NoError(t, err)
	assert.Equal(t, "Greeter", entry.Name)
	assert.Equal(t, res.Artifact.ClassName, entry.ClassName)
	assert.Equal(t, "tool", entry.Kind)
	assert.True(t, entry.Success)
	assert.Equal(t, res.Report.LoadID, entry.LoadID)
}

func TestCreate_DefaultKindRecorded(t *testing.T) {
	store, err := catalog.Open(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	defer store.Close()

	spec := greeterSpec()
	spec.Kind = ""
	res, err := testForge(t, store).Create(context.Background(), spec)
	require.NoError(t, err)

	entry, err := store.Get(context.Background(), res.Artifact.Path)
	require.NoError(t, err)
	assert.Equal(t, "tool", entry.Kind)
	assert.Contains(t, res.Artifact.Source, `Kind: "tool"`)
	assert.Contains(t, res.Summary(), "**Kind:** tool")
}

func TestSummary_FailedVerification(t *testing.T) {
	report := diag.NewReport("/tmp/x/x_component.go")
	report.Fatal(diag.ComponentEntryPoint, "no Run method")
	res := &Result{
		Artifact: &synth.Artifact{Path: "/tmp/x/x_component.go", ClassName: "XComponent"},
		Report:   report,
		Duration: time.Millisecond,
	}

	summary := res.Summary()
	assert.Contains(t, summary, "# Component created: XComponent")
	assert.Contains(t, summary, "Failed with 1 fatal findings.")
	assert.Contains(t, summary, "no Run method")
	assert.Contains(t, summary, "Skipped: the component did not pass verification.")
}
