// Package diag holds the diagnostic model shared by synthesis and
// verification: severities, the component taxonomy, reports and the
// remediation hints matched against parser messages.
package diag

import (
	"time"
)

// Severity ranks a diagnostic. Only fatal diagnostics fail a report.
type Severity string

const (
	SeverityFatal   Severity = "fatal"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Component is the structural part of an artifact a diagnostic is about.
type Component string

const (
	ComponentEntryPoint       Component = "entry-point"
	ComponentClassAttributes  Component = "class-attributes"
	ComponentInputSchema      Component = "input-schema"
	ComponentInheritance      Component = "inheritance"
	ComponentGeneralSyntax    Component = "general-syntax"
	ComponentImports          Component = "imports"
	ComponentAuxiliaryMethods Component = "auxiliary-methods"
)

// Diagnostic is one verification finding.
type Diagnostic struct {
	Severity   Severity  `json:"severity"`
	Component  Component `json:"component"`
	Message    string    `json:"message"`
	Line       int       `json:"line,omitempty"`
	Context    string    `json:"context,omitempty"`
	Suggestion string    `json:"suggestion,omitempty"`
}

// Report is the outcome of verifying one artifact.
type Report struct {
	Success           bool          `json:"success"`
	Diagnostics       []Diagnostic  `json:"diagnostics"`
	ArtifactPath      string        `json:"artifact_path"`
	DetectedClassName string        `json:"detected_class_name,omitempty"`
	LoadID            string        `json:"load_id,omitempty"`
	Duration          time.Duration `json:"duration"`
}

// NewReport starts a report for path. It stays successful until a fatal
// diagnostic is added.
func NewReport(path string) *Report {
	return &Report{Success: true, ArtifactPath: path, Diagnostics: []Diagnostic{}}
}

// Add appends d and keeps Success in step with it.
func (r *Report) Add(d Diagnostic) {
	r.Diagnostics = append(r.Diagnostics, d)
	if d.Severity == SeverityFatal {
		r.Success = false
	}
}

func (r *Report) Fatal(c Component, msg string) {
	r.Add(Diagnostic{Severity: SeverityFatal, Component: c, Message: msg})
}

func (r *Report) Warn(c Component, msg string) {
	r.Add(Diagnostic{Severity: SeverityWarning, Component: c, Message: msg})
}

func (r *Report) Info(c Component, msg string) {
	r.Add(Diagnostic{Severity: SeverityInfo, Component: c, Message: msg})
}

// Fatals returns the fatal diagnostics in order.
func (r *Report) Fatals() []Diagnostic { return r.filter(SeverityFatal) }

// Warnings returns the warning diagnostics in order.
func (r *Report) Warnings() []Diagnostic { return r.filter(SeverityWarning) }

// Infos returns the info diagnostics in order.
func (r *Report) Infos() []Diagnostic { return r.filter(SeverityInfo) }

func (r *Report) filter(s Severity) []Diagnostic {
	var out []Diagnostic
	for _, d := range r.Diagnostics {
		if d.Severity == s {
			out = append(out, d)
		}
	}
	return out
}
