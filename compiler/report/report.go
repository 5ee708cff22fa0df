// Package report collects compiler diagnostics.  The RAM passes never
// add to it — user-facing errors originate upstream of the mid-end —
// but the translation unit owns a Report so a driver can thread one
// sink through the whole compile.
package report

import (
	"fmt"
	"strings"
)

type Severity int

const (
	Warning Severity = iota
	Error
)

func (s Severity) String() string {
	if s == Error {
		return "error"
	}
	return "warning"
}

type Diagnostic struct {
	Severity Severity
	Message  string
	Notes    []string
}

func (d Diagnostic) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", d.Severity, d.Message)
	for _, note := range d.Notes {
		fmt.Fprintf(&b, "\n\tnote: %s", note)
	}
	return b.String()
}

// Report is an append-only list of diagnostics.
type Report struct {
	diags []Diagnostic
}

func New() *Report {
	return &Report{}
}

func (r *Report) Add(d Diagnostic) {
	r.diags = append(r.diags, d)
}

func (r *Report) Errorf(format string, args ...any) {
	r.Add(Diagnostic{Severity: Error, Message: fmt.Sprintf(format, args...)})
}

func (r *Report) Warnf(format string, args ...any) {
	r.Add(Diagnostic{Severity: Warning, Message: fmt.Sprintf(format, args...)})
}

// Diagnostics returns the collected diagnostics in insertion order.
func (r *Report) Diagnostics() []Diagnostic {
	return r.diags
}

// Errors returns the number of error-severity diagnostics.
func (r *Report) Errors() int {
	var n int
	for _, d := range r.diags {
		if d.Severity == Error {
			n++
		}
	}
	return n
}

func (r *Report) String() string {
	var b strings.Builder
	for _, d := range r.diags {
		b.WriteString(d.String())
		b.WriteByte('\n')
	}
	return b.String()
}
