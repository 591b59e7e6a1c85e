package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"componentforge/internal/synth"
)

var specFile string

var synthesizeCmd = &cobra.Command{
	Use:   "synthesize",
	Short: "Write a component artifact from a specification",
	Long: `Reads a YAML or JSON specification and writes the component artifact.
Nothing is written when a fragment is a stub or does not parse.

Example:
  forge synthesize -f specs/log_analyzer.yaml`,
	RunE: runSynthesize,
}

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Synthesize, verify and smoke-run a component",
	Long: `Runs the whole pipeline: synthesis, staged verification, a smoke run
with placebo arguments and a catalog record. Prints the creation report.`,
	RunE: runCreate,
}

func init() {
	synthesizeCmd.Flags().StringVarP(&specFile, "file", "f", "", "Specification file (required)")
	_ = synthesizeCmd.MarkFlagRequired("file")
	createCmd.Flags().StringVarP(&specFile, "file", "f", "", "Specification file (required)")
	_ = createCmd.MarkFlagRequired("file")
}

func runSynthesize(cmd *cobra.Command, args []string) error {
	spec, err := synth.LoadSpecification(specFile)
	if err != nil {
		return err
	}
	art, err := synth.NewEngine(cfg.Synthesis.ArtifactDir).Synthesize(spec)
	if err != nil {
		return describeSynthError(err)
	}
	logger.Info("synthesized", zap.String("path", art.Path), zap.String("class", art.ClassName))
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (class %s)\n", art.Path, art.ClassName)
	return nil
}

func runCreate(cmd *cobra.Command, args []string) error {
	spec, err := synth.LoadSpecification(specFile)
	if err != nil {
		return err
	}
	f, closeFn, err := newForge()
	if err != nil {
		return err
	}
	defer closeFn()

	ctx, cancel := commandContext(cmd)
	defer cancel()

	res, err := f.Create(ctx, spec)
	if err != nil {
		return describeSynthError(err)
	}
	logger.Info("created",
		zap.String("path", res.Artifact.Path),
		zap.Bool("verified", res.Report.Success),
		zap.Duration("duration", res.Duration))
	fmt.Fprint(cmd.OutOrStdout(), res.Summary())
	if !res.Report.Success {
		return fmt.Errorf("%s failed verification", res.Artifact.Path)
	}
	return nil
}

// describeSynthError expands a synthesis abort into its full detail.
func describeSynthError(err error) error {
	var serr *synth.Error
	if errors.As(err, &serr) {
		return errors.New(serr.Detail())
	}
	return err
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
