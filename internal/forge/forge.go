// Package forge runs the full component creation pipeline: synthesize the
// artifact, verify it, smoke-run it with placebo arguments and record the
// outcome in the catalog.
package forge

import (
	"context"
	"fmt"
	"time"

	"componentforge/internal/catalog"
	"componentforge/internal/config"
	"componentforge/internal/diag"
	"componentforge/internal/harness"
	"componentforge/internal/logging"
	"componentforge/internal/synth"
	"componentforge/internal/verify"
)

// Result is everything Create learned about a new component.
type Result struct {
	Spec     *synth.Specification `json:"-"`
	Artifact *synth.Artifact      `json:"artifact"`
	Report   *diag.Report         `json:"report"`
	// Smoke is nil when verification failed and nothing was executed.
	Smoke     *harness.Outcome `json:"smoke,omitempty"`
	SmokeArgs map[string]any   `json:"smoke_args,omitempty"`
	Duration  time.Duration    `json:"duration"`
}

// Forge wires the pipeline stages together.
type Forge struct {
	Engine   *synth.Engine
	Verifier *verify.Verifier
	Harness  *harness.Harness
	// Catalog is optional.
	Catalog *catalog.Store
}

// New builds a forge from configuration. store may be nil.
func New(cfg *config.Config, store *catalog.Store) *Forge {
	v := verify.New(cfg.GetLoadTimeout())
	v.Workers = cfg.Verify.Workers
	dirs := append([]string{cfg.Synthesis.ArtifactDir}, cfg.Harness.SearchDirs...)
	return &Forge{
		Engine:   synth.NewEngine(cfg.Synthesis.ArtifactDir),
		Verifier: v,
		Harness:  harness.New(cfg.GetExecTimeout(), dirs...),
		Catalog:  store,
	}
}

// Create synthesizes spec and checks the result. Only synthesis aborts are
// returned as errors; verification and smoke failures are part of the
// Result.
func (f *Forge) Create(ctx context.Context, spec *synth.Specification) (*Result, error) {
	start := time.Now()
	log := logging.Get(logging.CategoryForge)

	art, err := f.Engine.Synthesize(spec)
	if err != nil {
		return nil, err
	}
	res := &Result{Spec: spec, Artifact: art}

	res.Report = f.Verifier.Verify(ctx, art.Path)
	if res.Report.Success {
		res.SmokeArgs = PlaceboArgs(spec)
		out := f.Harness.Execute(ctx, art.Path, art.ClassName, res.SmokeArgs)
		res.Smoke = &out
	} else {
		log.Warn("Skipping smoke run of %s: %d fatal findings", art.ClassName, len(res.Report.Fatals()))
	}

	if f.Catalog != nil {
		entry := catalog.EntryFromReport(spec.Name, string(spec.EffectiveKind()), res.Report)
		if err := f.Catalog.Record(ctx, entry); err != nil {
			// The artifact exists either way; a catalog miss is not fatal.
			log.Error("Failed to record %s in catalog: %v", art.Path, err)
		}
	}

	res.Duration = time.Since(start)
	log.Info("Created %s in %v (verified=%v)", art.ClassName, res.Duration, res.Report.Success)
	return res, nil
}

// PlaceboArgs fills every required parameter with a recognizable sample
// value of its type. Optional parameters are left to their defaults.
func PlaceboArgs(spec *synth.Specification) map[string]any {
	args := make(map[string]any)
	for _, p := range spec.Parameters {
		if !p.Required {
			continue
		}
		args[p.Name] = placebo(p)
	}
	return args
}

func placebo(p synth.Parameter) any {
	switch p.Type {
	case "integer":
		return 42
	case "number":
		return 4.2
	case "boolean":
		return true
	case "array":
		return []any{"item1", "item2"}
	case "object":
		return map[string]any{"key": "value"}
	default:
		return fmt.Sprintf("sample_%s", p.Name)
	}
}
