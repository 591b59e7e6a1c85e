package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var catalogJSON bool

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List catalogued components and their last verification",
	RunE:  runCatalog,
}

func init() {
	catalogCmd.Flags().BoolVar(&catalogJSON, "json", false, "Print entries as JSON")
}

func runCatalog(cmd *cobra.Command, args []string) error {
	store, err := openCatalog()
	if err != nil {
		return err
	}
	if store == nil {
		return fmt.Errorf("catalog is disabled (catalog.database_path is empty)")
	}
	defer store.Close()

	ctx, cancel := commandContext(cmd)
	defer cancel()

	entries, err := store.List(ctx)
	if err != nil {
		return err
	}
	if catalogJSON {
		return writeJSON(cmd, entries)
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tCLASS\tKIND\tSTATUS\tFATALS\tWARNINGS\tVERIFIED")
	for _, e := range entries {
		status := "ok"
		if !e.Success {
			status = "failed"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
			e.Name, e.ClassName, e.Kind, status, e.Fatals, e.Warnings, e.VerifiedAt.Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}
