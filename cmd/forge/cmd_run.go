package main

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"componentforge/internal/catalog"
	"componentforge/internal/diag"
	"componentforge/internal/harness"
	"componentforge/internal/verify"
)

var (
	verifyJSON bool
	execArgs   string
	execJSON   bool
)

var verifyCmd = &cobra.Command{
	Use:   "verify [path...]",
	Short: "Verify component artifacts",
	Long: `Runs the staged verification on each artifact and prints a report.
Exits non-zero when any artifact has a fatal finding.

Examples:
  forge verify components/log_analyzer/log_analyzer_component.go
  forge verify --json components/*/*_component.go`,
	Args: cobra.MinimumNArgs(1),
	RunE: runVerify,
}

var execCmd = &cobra.Command{
	Use:   "exec [path] [class]",
	Short: "Run a component's entry point",
	Long: `Loads the artifact, instantiates the class and calls Run with the
named arguments given as a JSON object.

Example:
  forge exec log_analyzer/log_analyzer_component.go LogAnalyzerComponent --args '{"path":"app.log"}'`,
	Args: cobra.ExactArgs(2),
	RunE: runExec,
}

func init() {
	verifyCmd.Flags().BoolVar(&verifyJSON, "json", false, "Print reports as JSON")
	execCmd.Flags().StringVar(&execArgs, "args", "{}", "Arguments as a JSON object")
	execCmd.Flags().BoolVar(&execJSON, "json", false, "Print the outcome as JSON")
}

func runVerify(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	v := verify.New(cfg.GetLoadTimeout())
	v.Workers = cfg.Verify.Workers
	paths := make([]string, len(args))
	for i, a := range args {
		abs, err := filepath.Abs(a)
		if err != nil {
			return err
		}
		paths[i] = abs
	}
	reports := v.VerifyAll(ctx, paths)

	recordReports(ctx, reports)

	if verifyJSON {
		if err := writeJSON(cmd, reports); err != nil {
			return err
		}
	} else {
		for _, r := range reports {
			fmt.Fprintln(cmd.OutOrStdout(), r.Format())
		}
	}

	failed := 0
	for _, r := range reports {
		if !r.Success {
			failed++
		}
	}
	logger.Info("verified", zap.Int("artifacts", len(reports)), zap.Int("failed", failed))
	if failed > 0 {
		return fmt.Errorf("%d of %d artifacts failed verification", failed, len(reports))
	}
	return nil
}

// recordReports updates catalog entries for artifacts it already knows.
func recordReports(ctx context.Context, reports []*diag.Report) {
	store, err := openCatalog()
	if err != nil || store == nil {
		return
	}
	defer store.Close()

	for _, r := range reports {
		prev, err := store.Get(ctx, r.ArtifactPath)
		if err != nil {
			continue
		}
		if err := store.Record(ctx, catalog.EntryFromReport(prev.Name, prev.Kind, r)); err != nil {
			logger.Warn("catalog update failed", zap.String("path", r.ArtifactPath), zap.Error(err))
		}
	}
}

func runExec(cmd *cobra.Command, args []string) error {
	var named map[string]any
	if err := json.Unmarshal([]byte(execArgs), &named); err != nil {
		return fmt.Errorf("--args must be a JSON object: %w", err)
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	dirs := append([]string{cfg.Synthesis.ArtifactDir}, cfg.Harness.SearchDirs...)
	h := harness.New(cfg.GetExecTimeout(), dirs...)
	out := h.Execute(ctx, args[0], args[1], named)

	if execJSON {
		if err := writeJSON(cmd, out); err != nil {
			return err
		}
	} else {
		if out.Output != "" {
			fmt.Fprint(cmd.OutOrStdout(), out.Output)
		}
		if out.OK {
			fmt.Fprintf(cmd.OutOrStdout(), "%v\n", out.Value)
		}
	}
	if !out.OK {
		return fmt.Errorf("%s", out.Failure)
	}
	return nil
}
