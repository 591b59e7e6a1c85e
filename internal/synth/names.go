package synth

import (
	"go/token"
	"strings"
	"unicode"

	"componentforge/pkg/component"
)

// NormalizeName lowercases name and drops all whitespace. The result names
// the artifact directory and file.
func NormalizeName(name string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(name) {
		if !unicode.IsSpace(r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// PackageName derives a Go package name from a normalized name.
func PackageName(norm string) string {
	var sb strings.Builder
	for _, r := range norm {
		if r == '_' || (r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r))) {
			sb.WriteRune(r)
		}
	}
	pkg := sb.String()
	switch {
	case pkg == "" || pkg == "_":
		return "component"
	case unicode.IsDigit(rune(pkg[0])):
		pkg = "c" + pkg
	case token.IsKeyword(pkg):
		pkg += "pkg"
	}
	return pkg
}

// BaseName turns a display name into an exported identifier stem:
// "log analyzer" becomes "LogAnalyzer".
func BaseName(name string) string {
	var sb strings.Builder
	upper := true
	for _, r := range name {
		if !(r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)) {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		sb.WriteRune(r)
	}
	base := sb.String()
	if base != "" && unicode.IsDigit(rune(base[0])) {
		base = "C" + base
	}
	return base
}

// ClassName is the component type name for a display name.
func ClassName(name string) string {
	return BaseName(name) + component.ClassSuffix
}

// FieldName is the exported parameters-struct field for a parameter name.
func FieldName(param string) string {
	var sb strings.Builder
	for _, part := range strings.Split(param, "_") {
		if part == "" {
			continue
		}
		runes := []rune(part)
		runes[0] = unicode.ToUpper(runes[0])
		sb.WriteString(string(runes))
	}
	return sb.String()
}

// receiverName is the receiver used for Run and for auxiliary funcs that
// arrive without one.
const receiverName = "c"

func validParamName(name string) bool {
	return token.IsIdentifier(name) && name != "_" && name != receiverName
}
