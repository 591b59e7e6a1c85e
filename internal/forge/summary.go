package forge

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Summary renders the creation report shown after Create.
func (r *Result) Summary() string {
	var sb strings.Builder

	name := r.Artifact.ClassName
	if r.Spec != nil && r.Spec.Name != "" {
		name = r.Spec.Name
	}
	fmt.Fprintf(&sb, "# Component created: %s\n\n", name)
	fmt.Fprintf(&sb, "**Artifact:** %s\n", r.Artifact.Path)
	fmt.Fprintf(&sb, "**Class:** `%s`\n", r.Artifact.ClassName)
	if r.Spec != nil {
		fmt.Fprintf(&sb, "**Kind:** %s\n", r.Spec.EffectiveKind())
	}
	if r.Spec != nil && r.Spec.Description != "" {
		fmt.Fprintf(&sb, "\n%s\n", r.Spec.Description)
	}

	if r.Spec != nil && len(r.Spec.Parameters) > 0 {
		sb.WriteString("\n## Parameters\n\n")
		sb.WriteString("| Name | Type | Required | Description |\n")
		sb.WriteString("|------|------|----------|-------------|\n")
		for _, p := range r.Spec.Parameters {
			req := "no"
			if p.Required {
				req = "yes"
			}
			fmt.Fprintf(&sb, "| %s | %s | %s | %s |\n", p.Name, p.Type, req, p.Description)
		}
	}

	sb.WriteString("\n## Verification\n\n")
	if r.Report.Success {
		fmt.Fprintf(&sb, "Passed with %d warnings.\n", len(r.Report.Warnings()))
	} else {
		fmt.Fprintf(&sb, "Failed with %d fatal findings.\n", len(r.Report.Fatals()))
	}
	for _, d := range r.Report.Fatals() {
		fmt.Fprintf(&sb, "- FATAL [%s] %s\n", d.Component, d.Message)
	}
	for _, d := range r.Report.Warnings() {
		fmt.Fprintf(&sb, "- WARNING [%s] %s\n", d.Component, d.Message)
	}

	sb.WriteString("\n## Smoke run\n\n")
	switch {
	case r.Smoke == nil:
		sb.WriteString("Skipped: the component did not pass verification.\n")
	case r.Smoke.OK:
		fmt.Fprintf(&sb, "Arguments: %s\n\nResult: `%v`\n", argsJSON(r.SmokeArgs), r.Smoke.Value)
	default:
		fmt.Fprintf(&sb, "Arguments: %s\n\n", argsJSON(r.SmokeArgs))
		sb.WriteString("The run failed. Placebo arguments often do not satisfy real inputs (paths, URLs, ids), so this may be expected:\n\n")
		sb.WriteString("```\n")
		sb.WriteString(r.Smoke.Failure)
		sb.WriteString("\n```\n")
	}
	if r.Smoke != nil && r.Smoke.Output != "" {
		sb.WriteString("\nOutput:\n\n```\n")
		sb.WriteString(strings.TrimRight(r.Smoke.Output, "\n"))
		sb.WriteString("\n```\n")
	}

	fmt.Fprintf(&sb, "\n_Completed in %v._\n", r.Duration)
	return sb.String()
}

// argsJSON renders args with sorted keys.
func argsJSON(args map[string]any) string {
	if len(args) == 0 {
		return "(none)"
	}
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		v, err := json.Marshal(args[k])
		if err != nil {
			v = []byte(fmt.Sprintf("%q", fmt.Sprint(args[k])))
		}
		parts = append(parts, fmt.Sprintf("%q: %s", k, v))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
