package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"componentforge/internal/diag"
	"componentforge/internal/verify"
	"componentforge/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-verify artifacts whenever they change",
	Long: `Watches the artifact directory and prints a verification report each
time a *_component.go file settles after a change. Stops on Ctrl+C.`,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	v := verify.New(cfg.GetLoadTimeout())
	out := cmd.OutOrStdout()

	w, err := watch.New(cfg.Synthesis.ArtifactDir, v, func(r *diag.Report) {
		status := "PASSED"
		if !r.Success {
			status = "FAILED"
		}
		fmt.Fprintf(out, "[%s] %s\n", status, r.ArtifactPath)
		for _, d := range r.Fatals() {
			fmt.Fprintf(out, "  - [%s] %s\n", d.Component, d.Message)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer w.Stop()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := w.Start(ctx); err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}

	fmt.Fprintf(out, "Watching %s (Ctrl+C to stop)\n", cfg.Synthesis.ArtifactDir)
	<-ctx.Done()

	stats := w.Stats()
	logger.Info("watch stopped",
		zap.Int("verifications", stats.Verifications),
		zap.Int("failures", stats.Failures))
	return nil
}
