package diag

import (
	"fmt"
	"strings"
)

// HintKind names the family of a syntax remediation hint.
type HintKind string

const (
	HintBlockTerminator HintKind = "block-terminator"
	HintBracketGroup    HintKind = "bracket-group"
	HintLineLayout      HintKind = "line-layout"
	HintGeneric         HintKind = "generic"
)

// Hint is a remediation suggestion for a parser message.
type Hint struct {
	Kind       HintKind
	Suggestion string
}

var hintRules = []struct {
	kind     HintKind
	patterns []string
	text     string
}{
	{
		kind:     HintBlockTerminator,
		patterns: []string{"expected '{'", "expected '}'"},
		text:     "A block is not opened or closed. Check that every func, if, for, switch and struct header is followed by '{' on the same line and that each '{' has a matching '}'.",
	},
	{
		kind:     HintLineLayout,
		patterns: []string{"unexpected newline", "missing ','", "found newline"},
		text:     "A line break landed where Go does not allow one. Keep opening braces on the header line and end every line of a multi-line list with a trailing comma.",
	},
	{
		kind:     HintBracketGroup,
		patterns: []string{"expected ')'", "expected ']'", "unexpected EOF", "found 'EOF'"},
		text:     "A bracket group is left open. Check that every '(' and '[' is closed and that string literals are terminated.",
	},
}

// Suggest picks the remediation hint for a go/parser error message.
func Suggest(msg string) Hint {
	for _, rule := range hintRules {
		for _, p := range rule.patterns {
			if strings.Contains(msg, p) {
				return Hint{Kind: rule.kind, Suggestion: rule.text}
			}
		}
	}
	return Hint{
		Kind:       HintGeneric,
		Suggestion: "Check the syntax around the reported line against the Go grammar.",
	}
}

// Snippet renders lines around line (1-based) with radius lines either side.
// The target line is marked with ">>"; a positive col adds a caret under it.
func Snippet(lines []string, line, col, radius int) string {
	if line < 1 || len(lines) == 0 {
		return ""
	}
	if line > len(lines) {
		line = len(lines)
	}
	start := max(1, line-radius)
	end := min(len(lines), line+radius)

	var sb strings.Builder
	for n := start; n <= end; n++ {
		marker := "  "
		if n == line {
			marker = ">>"
		}
		prefix := fmt.Sprintf("%s %4d | ", marker, n)
		sb.WriteString(prefix)
		sb.WriteString(lines[n-1])
		sb.WriteByte('\n')
		if n == line && col > 0 {
			sb.WriteString(strings.Repeat(" ", len(prefix)+col-1))
			sb.WriteString("^\n")
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}
