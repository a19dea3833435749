package query

import "fmt"

// Error is the taxonomy of failures the query parser/planner returns.
// Syntax errors surface as InvalidArgs at the REPL layer.
type Error struct {
	Kind string
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

const ErrKindSyntax = "InvalidArgs"
