// Package crewconfig writes the agents.yaml and tasks.yaml files of a crew.
package crewconfig

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"componentforge/internal/logging"
)

// Style selects how multi-line text is written.
type Style string

const (
	StyleLiteral Style = "literal" // |
	StyleBlock   Style = "block"   // alias of literal
	StyleFolded  Style = "folded"  // >
	StylePlain   Style = "plain"   // whatever yaml.v3 picks
)

func (s Style) node() (yaml.Style, error) {
	switch s {
	case StyleLiteral, StyleBlock, "":
		return yaml.LiteralStyle, nil
	case StyleFolded:
		return yaml.FoldedStyle, nil
	case StylePlain:
		return 0, nil
	}
	return 0, fmt.Errorf("unknown multiline style %q (use literal, block, folded or plain)", s)
}

// AgentConfig is one entry of agents.yaml.
type AgentConfig struct {
	Role      string `yaml:"role"`
	Goal      string `yaml:"goal"`
	Backstory string `yaml:"backstory"`
}

// TaskConfig is one entry of tasks.yaml.
type TaskConfig struct {
	Description    string `yaml:"description"`
	ExpectedOutput string `yaml:"expected_output"`
	Agent          string `yaml:"agent,omitempty"`
}

// CrewsDir is the directory under a workspace root that holds crews.
const CrewsDir = "crews"

// FindCrewDir locates a crew under <root>/crews. Names match
// case-insensitively with spaces read as underscores, and a second pass
// ignores underscores altogether.
func FindCrewDir(root, crew string) (string, error) {
	crewsDir := filepath.Join(root, CrewsDir)
	entries, err := os.ReadDir(crewsDir)
	if err != nil {
		return "", fmt.Errorf("no crews directory at %s: %w", crewsDir, err)
	}

	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(crew)), " ", "_")
	direct := filepath.Join(crewsDir, normalized)
	if info, err := os.Stat(direct); err == nil && info.IsDir() {
		return direct, nil
	}

	loose := strings.ReplaceAll(normalized, "_", "")
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if strings.ReplaceAll(strings.ToLower(e.Name()), "_", "") == loose {
			return filepath.Join(crewsDir, e.Name()), nil
		}
	}
	return "", fmt.Errorf("crew %q not found under %s", crew, crewsDir)
}

// WriteAgents writes <crew>/config/agents.yaml and returns its path.
func WriteAgents(root, crew string, agents map[string]AgentConfig, style Style) (string, error) {
	ys, err := style.node()
	if err != nil {
		return "", err
	}
	doc := &yaml.Node{Kind: yaml.MappingNode}
	for _, name := range sortedKeys(agents) {
		a := agents[name]
		doc.Content = append(doc.Content, key(name), mapping(ys,
			"role", a.Role,
			"goal", a.Goal,
			"backstory", a.Backstory,
		))
	}
	return write(root, crew, "agents.yaml", doc)
}

// WriteTasks writes <crew>/config/tasks.yaml and returns its path.
func WriteTasks(root, crew string, tasks map[string]TaskConfig, style Style) (string, error) {
	ys, err := style.node()
	if err != nil {
		return "", err
	}
	doc := &yaml.Node{Kind: yaml.MappingNode}
	for _, name := range sortedKeys(tasks) {
		t := tasks[name]
		fields := []string{
			"description", t.Description,
			"expected_output", t.ExpectedOutput,
		}
		if t.Agent != "" {
			fields = append(fields, "agent", t.Agent)
		}
		doc.Content = append(doc.Content, key(name), mapping(ys, fields...))
	}
	return write(root, crew, "tasks.yaml", doc)
}

// ReadAgents loads an agents.yaml file.
func ReadAgents(path string) (map[string]AgentConfig, error) {
	out := make(map[string]AgentConfig)
	return out, readYAML(path, &out)
}

// ReadTasks loads a tasks.yaml file.
func ReadTasks(path string) (map[string]TaskConfig, error) {
	out := make(map[string]TaskConfig)
	return out, readYAML(path, &out)
}

func readYAML(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

func write(root, crew, file string, doc *yaml.Node) (string, error) {
	crewDir, err := FindCrewDir(root, crew)
	if err != nil {
		return "", err
	}
	configDir := filepath.Join(crewDir, "config")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return "", fmt.Errorf("failed to encode %s: %w", file, err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("failed to encode %s: %w", file, err)
	}

	path := filepath.Join(configDir, file)
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	logging.CrewConfig("Wrote %s (%d entries)", path, len(doc.Content)/2)
	return path, nil
}

func key(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

// mapping builds a mapping node from key/value pairs; values are trimmed
// and written in the requested style.
func mapping(style yaml.Style, kv ...string) *yaml.Node {
	n := &yaml.Node{Kind: yaml.MappingNode}
	for i := 0; i+1 < len(kv); i += 2 {
		n.Content = append(n.Content, key(kv[i]), &yaml.Node{
			Kind:  yaml.ScalarNode,
			Tag:   "!!str",
			Value: strings.TrimSpace(kv[i+1]),
			Style: style,
		})
	}
	return n
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
