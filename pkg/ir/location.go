package ir

import "fmt"

// Location is the source position an operation was derived from, used in diagnostics.
type Location struct {
	File         string
	Line, Column int
}

// UnknownLoc is the zero Location.
var UnknownLoc = Location{}

// Loc returns a Location.
func Loc(file string, line, column int) Location {
	return Location{File: file, Line: line, Column: column}
}

// IsKnown returns whether the location carries any information.
func (l Location) IsKnown() bool {
	return l != UnknownLoc
}

// String implements fmt.Stringer: "file:line:column".
func (l Location) String() string {
	if !l.IsKnown() {
		return "loc(unknown)"
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// Severity of a Diagnostic.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityRemark
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityRemark:
		return "remark"
	}
	return fmt.Sprintf("Severity(%d)", int(s))
}

// Diagnostic is a message attached to the Module.
type Diagnostic struct {
	Severity Severity
	Loc      Location
	Message  string
}

// String implements fmt.Stringer: "file:line:column: error: message".
func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s", d.Loc, d.Severity, d.Message)
}

// EmitError attaches an error diagnostic to the module.
//
// Diagnostics are not part of the graph: they are not undone by Rollback.
func (m *Module) EmitError(loc Location, format string, args ...any) {
	m.diagnostics = append(m.diagnostics, Diagnostic{
		Severity: SeverityError,
		Loc:      loc,
		Message:  fmt.Sprintf(format, args...),
	})
}

// Diagnostics returns the diagnostics attached so far.
func (m *Module) Diagnostics() []Diagnostic {
	return append([]Diagnostic(nil), m.diagnostics...)
}
