package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"componentforge/internal/crewconfig"
)

var (
	crewInput string
	crewStyle string
	crewRoot  string
)

var agentsCmd = &cobra.Command{
	Use:   "agents [crew]",
	Short: "Write a crew's agents.yaml",
	Long: `Reads agent definitions (a YAML map of name -> role/goal/backstory)
and writes them to crews/<crew>/config/agents.yaml.

Example:
  forge agents "Research Crew" -f agents.yaml --style folded`,
	Args: cobra.ExactArgs(1),
	RunE: runAgents,
}

var tasksCmd = &cobra.Command{
	Use:   "tasks [crew]",
	Short: "Write a crew's tasks.yaml",
	Long: `Reads task definitions (a YAML map of name -> description/expected_output/agent)
and writes them to crews/<crew>/config/tasks.yaml.`,
	Args: cobra.ExactArgs(1),
	RunE: runTasks,
}

func init() {
	for _, c := range []*cobra.Command{agentsCmd, tasksCmd} {
		c.Flags().StringVarP(&crewInput, "file", "f", "", "Definitions file (required)")
		c.Flags().StringVar(&crewStyle, "style", "literal", "Multi-line style: literal, block, folded, plain")
		c.Flags().StringVar(&crewRoot, "root", "", "Directory holding crews/ (default: workspace)")
		_ = c.MarkFlagRequired("file")
	}
}

func crewRootDir() (string, error) {
	if crewRoot != "" {
		return crewRoot, nil
	}
	return resolveWorkspace()
}

func readDefinitions(v any) error {
	data, err := os.ReadFile(crewInput)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", crewInput, err)
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", crewInput, err)
	}
	return nil
}

func runAgents(cmd *cobra.Command, args []string) error {
	root, err := crewRootDir()
	if err != nil {
		return err
	}
	var agents map[string]crewconfig.AgentConfig
	if err := readDefinitions(&agents); err != nil {
		return err
	}
	path, err := crewconfig.WriteAgents(root, args[0], agents, crewconfig.Style(crewStyle))
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d agents to %s\n", len(agents), path)
	return nil
}

func runTasks(cmd *cobra.Command, args []string) error {
	root, err := crewRootDir()
	if err != nil {
		return err
	}
	var tasks map[string]crewconfig.TaskConfig
	if err := readDefinitions(&tasks); err != nil {
		return err
	}
	path, err := crewconfig.WriteTasks(root, args[0], tasks, crewconfig.Style(crewStyle))
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d tasks to %s\n", len(tasks), path)
	return nil
}
