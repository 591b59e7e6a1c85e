package synth

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"componentforge/pkg/component"
)

// Parameter describes one input of a component.
type Parameter struct {
	Name        string `json:"name" yaml:"name"`
	Type        string `json:"type" yaml:"type"` // string, integer, number, boolean, array, object
	Description string `json:"description" yaml:"description"`
	Required    bool   `json:"required" yaml:"required"`
	Default     any    `json:"default,omitempty" yaml:"default,omitempty"`
}

// Specification is the declarative request for a component.
type Specification struct {
	Name             string         `json:"name" yaml:"name"`
	Description      string         `json:"description" yaml:"description"`
	Parameters       []Parameter    `json:"parameters" yaml:"parameters"`
	EntryPoint       string         `json:"entry_point" yaml:"entry_point"`
	AuxiliaryMethods []string       `json:"auxiliary_methods,omitempty" yaml:"auxiliary_methods,omitempty"`
	Imports          []string       `json:"imports,omitempty" yaml:"imports,omitempty"`
	Kind             component.Kind `json:"kind,omitempty" yaml:"kind,omitempty"`
}

// EffectiveKind is the declared kind, or tool when none is given.
func (s *Specification) EffectiveKind() component.Kind {
	if s.Kind == "" {
		return component.KindTool
	}
	return s.Kind
}

// LoadSpecification reads a specification from a YAML or JSON file.
func LoadSpecification(path string) (*Specification, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read specification: %w", err)
	}
	var spec Specification
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("failed to parse specification %s: %w", path, err)
	}
	return &spec, nil
}

// goTypes maps parameter type tags onto Go types.
var goTypes = map[string]string{
	"string":  "string",
	"integer": "int",
	"number":  "float64",
	"boolean": "bool",
	"array":   "[]any",
	"object":  "map[string]any",
}

// zeroLiterals are the fallback defaults of optional parameters.
var zeroLiterals = map[string]string{
	"string":  `""`,
	"integer": "0",
	"number":  "0.0",
	"boolean": "false",
	"array":   "[]any{}",
	"object":  "map[string]any{}",
}
