// Package component is the contract shared by synthesized artifacts and the
// host. Every artifact embeds Base in its <Name>Component struct and imports
// this package; the interpreter resolves it through Symbols.
package component

// Kind classifies what a component stands in for at orchestration time.
type Kind string

const (
	KindTool  Kind = "tool"
	KindAgent Kind = "agent"
	KindTask  Kind = "task"
	KindCrew  Kind = "crew"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindTool, KindAgent, KindTask, KindCrew:
		return true
	}
	return false
}

// Base is the expected base type of every component.
//
// It deliberately carries no methods: interpreted structs embedding a host
// type are built with reflection, which cannot promote methods.
type Base struct {
	Kind string
}

// Well-known identifiers of the structural contract.
const (
	ImportPath         = "componentforge/pkg/component"
	ClassSuffix        = "Component"
	ParametersSuffix   = "Parameters"
	EntryPoint         = "Run"
	FieldName          = "Name"
	FieldDescription   = "Description"
	FieldSchema        = "ParameterSchema"
	DescriptionsVar    = "Descriptions"
	ConstructorPrefix  = "New"
	DefaultsPrefix     = "Default"
	RequiredTag        = "required"
	DescriptionKeyTag  = "desc"
	DescriptionKeySelf = "description"
)
