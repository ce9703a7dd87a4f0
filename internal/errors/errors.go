// Package errors renders Plush faults: compile-time and runtime failures
// that carry a source location and, optionally, a Go-side call stack for
// verbose embedder diagnostics.
package errors

import (
	"fmt"
	"strings"

	pkgerrors "github.com/pkg/errors"
)

// FaultKind classifies a PlushFault into the taxonomy named in the spec.
type FaultKind string

const (
	LexFault    FaultKind = "LexFault"
	ParseFault  FaultKind = "ParseFault"
	CompileFault FaultKind = "CompileFault"
	TypeFault   FaultKind = "TypeFault"
	DomainFault FaultKind = "DomainFault"
	ActorFault  FaultKind = "ActorFault"
	HostFault   FaultKind = "HostFault"
)

// SourceLocation pinpoints a fault in the source text.
type SourceLocation struct {
	File   string
	Line   int
	Column int
}

// PlushFault is the error type the interpreter reports: the parser,
// compiler, and VM produce one of these rather than a bare Go error, and
// the lexer's LexError is converted into one by its callers, so the CLI
// can render a uniform diagnostic.
type PlushFault struct {
	Kind     FaultKind
	Message  string
	Location SourceLocation
	Source   string // the offending source line, for the caret excerpt
	stack    error  // captured via github.com/pkg/errors at raise time
}

func (e *PlushFault) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s: %s\n", e.Kind, e.Message))
	if e.Location.File != "" || e.Location.Line != 0 {
		sb.WriteString(fmt.Sprintf("  at %s:%d:%d\n", e.Location.File, e.Location.Line, e.Location.Column))
		if e.Source != "" {
			prefix := fmt.Sprintf("  %d | ", e.Location.Line)
			sb.WriteString(fmt.Sprintf("\n%s%s\n", prefix, e.Source))
			sb.WriteString(strings.Repeat(" ", len(prefix)))
			if e.Location.Column > 0 {
				sb.WriteString(strings.Repeat(" ", e.Location.Column-1))
			}
			sb.WriteString("^\n")
		}
	}
	return sb.String()
}

// Verbose renders the fault plus the Go call stack captured when it was
// raised, for embedders that want more than the default single diagnostic.
func (e *PlushFault) Verbose() string {
	if e.stack == nil {
		return e.Error()
	}
	return e.Error() + fmt.Sprintf("\n%+v\n", e.stack)
}

func newFault(kind FaultKind, message string, loc SourceLocation) *PlushFault {
	return &PlushFault{
		Kind:     kind,
		Message:  message,
		Location: loc,
		stack:    pkgerrors.New(message),
	}
}

func NewLexFault(message, file string, line, column int) *PlushFault {
	return newFault(LexFault, message, SourceLocation{File: file, Line: line, Column: column})
}

func NewParseFault(message, file string, line, column int) *PlushFault {
	return newFault(ParseFault, message, SourceLocation{File: file, Line: line, Column: column})
}

func NewCompileFault(message, file string, line, column int) *PlushFault {
	return newFault(CompileFault, message, SourceLocation{File: file, Line: line, Column: column})
}

func NewTypeFault(message string, line, column int) *PlushFault {
	return newFault(TypeFault, message, SourceLocation{Line: line, Column: column})
}

func NewDomainFault(message string, line, column int) *PlushFault {
	return newFault(DomainFault, message, SourceLocation{Line: line, Column: column})
}

func NewActorFault(message string) *PlushFault {
	return newFault(ActorFault, message, SourceLocation{})
}

func NewHostFault(message string) *PlushFault {
	return newFault(HostFault, message, SourceLocation{})
}

// WithSource attaches the offending source line for the caret excerpt.
func (e *PlushFault) WithSource(source string) *PlushFault {
	e.Source = source
	return e
}
