package synth

import (
	"fmt"
	"strings"
)

// ErrorKind classifies a synthesis failure.
type ErrorKind string

const (
	// KindNoOpMethods: one or more auxiliary methods are empty stubs.
	KindNoOpMethods ErrorKind = "no_op_methods"
	// KindFragmentSyntax: the entry point or an auxiliary method does not parse.
	KindFragmentSyntax ErrorKind = "fragment_syntax"
	// KindInvalidSpec: the specification itself is malformed.
	KindInvalidSpec ErrorKind = "invalid_spec"
	// KindInternal: the assembled source failed the final format pass.
	KindInternal ErrorKind = "internal"
)

// Error is returned by the engine when synthesis aborts. Nothing has been
// written to disk when it is returned.
type Error struct {
	Kind     ErrorKind
	Message  string
	Methods  []string // offending method names for KindNoOpMethods
	Fragment string   // "entry point" or the auxiliary method it concerns
	Line     int      // 1-based line within the fragment
	Column   int
	Context  string
	Hint     string
	Err      error
}

func (e *Error) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %s", e.Kind, e.Message)
	if e.Fragment != "" && e.Line > 0 {
		fmt.Fprintf(&sb, " (%s, line %d, column %d)", e.Fragment, e.Line, e.Column)
	}
	if e.Err != nil {
		fmt.Fprintf(&sb, ": %v", e.Err)
	}
	return sb.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Detail renders the error with its context block and hint, the way the
// creation report shows it.
func (e *Error) Detail() string {
	var sb strings.Builder
	sb.WriteString(e.Error())
	if e.Context != "" {
		sb.WriteString("\n\n")
		sb.WriteString(e.Context)
	}
	if e.Hint != "" {
		sb.WriteString("\n\nHint: ")
		sb.WriteString(e.Hint)
	}
	return sb.String()
}

func invalidSpec(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidSpec, Message: fmt.Sprintf(format, args...)}
}
