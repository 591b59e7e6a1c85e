package diag

import (
	"fmt"
	"strings"
)

// Format renders the report as a markdown summary for humans.
func (r *Report) Format() string {
	var sb strings.Builder

	status := "PASSED"
	if !r.Success {
		status = "FAILED"
	}
	fmt.Fprintf(&sb, "# Verification report: %s\n\n", r.ArtifactPath)
	fmt.Fprintf(&sb, "**Status:** %s\n", status)
	if r.DetectedClassName != "" {
		fmt.Fprintf(&sb, "**Class:** `%s`\n", r.DetectedClassName)
	}
	if r.LoadID != "" {
		fmt.Fprintf(&sb, "**Load:** %s\n", r.LoadID)
	}
	fmt.Fprintf(&sb, "**Duration:** %v\n", r.Duration)

	section := func(title string, ds []Diagnostic) {
		if len(ds) == 0 {
			return
		}
		fmt.Fprintf(&sb, "\n## %s (%d)\n\n", title, len(ds))
		for _, d := range ds {
			fmt.Fprintf(&sb, "- [%s] %s", d.Component, d.Message)
			if d.Line > 0 {
				fmt.Fprintf(&sb, " (line %d)", d.Line)
			}
			sb.WriteByte('\n')
			if d.Context != "" {
				sb.WriteString("\n```\n")
				sb.WriteString(d.Context)
				sb.WriteString("\n```\n")
			}
			if d.Suggestion != "" {
				fmt.Fprintf(&sb, "  Suggestion: %s\n", d.Suggestion)
			}
		}
	}
	section("Fatal", r.Fatals())
	section("Warnings", r.Warnings())
	section("Info", r.Infos())

	sb.WriteString("\n## Next steps\n\n")
	switch {
	case !r.Success:
		sb.WriteString("Fix the fatal findings above, then verify again before executing the component.\n")
	case len(r.Warnings()) > 0:
		sb.WriteString("The component can be executed. Review the warnings; they may surface at run time.\n")
	default:
		sb.WriteString("The component is ready to be executed.\n")
	}
	return sb.String()
}
