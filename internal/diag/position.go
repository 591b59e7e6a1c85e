package diag

import "strings"

// AttributeLine corrects the position of a parser error. Go reports a
// missing token at the first token that follows it; when that token opens a
// line (or is EOF) the mistake belongs to the previous non-blank line, and
// the column moves to just past its end. Lines are 1-based.
func AttributeLine(lines []string, line, col int, msg string) (int, int) {
	if !missingToken(msg) {
		return line, col
	}
	if line > len(lines) {
		line, col = len(lines)+1, 1
	}
	if line >= 1 && line <= len(lines) {
		text := lines[line-1]
		indent := len(text) - len(strings.TrimLeft(text, " \t"))
		if col > indent+1 && !strings.Contains(msg, "found 'EOF'") {
			return line, col
		}
	}
	for prev := line - 1; prev >= 1; prev-- {
		if strings.TrimSpace(lines[prev-1]) != "" {
			return prev, len(strings.TrimRight(lines[prev-1], " \t")) + 1
		}
	}
	if line > len(lines) {
		return len(lines), col
	}
	return line, col
}

func missingToken(msg string) bool {
	return strings.HasPrefix(msg, "expected '") ||
		strings.HasPrefix(msg, "missing ") ||
		strings.Contains(msg, "found 'EOF'")
}
