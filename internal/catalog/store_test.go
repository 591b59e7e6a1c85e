package catalog

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"componentforge/internal/diag"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordGetList(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	a := Entry{Name: "LogAnalyzer", ClassName: "LogAnalyzerComponent", Path: "/c/loganalyzer/loganalyzer_component.go",
		Kind: "tool", Success: true, LoadID: "load-1", VerifiedAt: at}
	b := Entry{Name: "Clock", ClassName: "ClockComponent", Path: "/c/clock/clock_component.go",
		Kind: "tool", Success: false, Fatals: 2, Warnings: 1, VerifiedAt: at}

	require.NoError(t, s.Record(ctx, a))
	require.NoError(t, s.Record(ctx, b))

	got, err := s.Get(ctx, a.Path)
	require.NoError(t, err)
	if diff := cmp.Diff(a, *got); diff != "" {
		t.Errorf("Get() mismatch (-want +got):\n%s", diff)
	}

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Clock", list[0].Name)
	assert.Equal(t, "LogAnalyzer", list[1].Name)
}

func TestRecordReplacesByPath(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	e := Entry{Name: "X", ClassName: "XComponent", Path: "/x.go", Kind: "tool", Success: false, Fatals: 1}
	require.NoError(t, s.Record(ctx, e))
	e.Success, e.Fatals, e.LoadID = true, 0, "load-2"
	require.NoError(t, s.Record(ctx, e))

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].Success)
	assert.Equal(t, "load-2", list[0].LoadID)
	assert.False(t, list[0].VerifiedAt.IsZero())
}

func TestGetMissingAndDelete(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	_, err := s.Get(ctx, "/none.go")
	assert.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, s.Record(ctx, Entry{Name: "Y", ClassName: "YComponent", Path: "/y.go", Kind: "agent"}))
	require.NoError(t, s.Delete(ctx, "/y.go"))
	_, err = s.Get(ctx, "/y.go")
	assert.True(t, errors.Is(err, ErrNotFound))

	assert.Error(t, s.Record(ctx, Entry{Name: "no path"}))
}

func TestEntryFromReport(t *testing.T) {
	r := diag.NewReport("/z.go")
	r.DetectedClassName = "ZComponent"
	r.LoadID = "abc"
	r.Warn(diag.ComponentInheritance, "w")
	r.Fatal(diag.ComponentEntryPoint, "f")

	e := EntryFromReport("Z", "task", r)
	assert.Equal(t, "/z.go", e.Path)
	assert.Equal(t, "ZComponent", e.ClassName)
	assert.False(t, e.Success)
	assert.Equal(t, 1, e.Fatals)
	assert.Equal(t, 1, e.Warnings)
	assert.Equal(t, "task", e.Kind)
}

func TestReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "catalog.db")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Record(ctx, Entry{Name: "P", ClassName: "PComponent", Path: "/p.go", Kind: "tool", Success: true}))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Get(ctx, "/p.go")
	require.NoError(t, err)
	assert.True(t, got.Success)
}
