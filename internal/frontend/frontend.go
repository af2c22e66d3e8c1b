// Package frontend marks the external-collaborator boundary spec.md §1
// draws around the lexer, parser, and type checker: this module only
// specifies the checked-AST shape they hand to the core (internal/ast) and
// the error taxonomy they raise into (internal/cerr); it does not implement
// source-text parsing itself.
package frontend

import (
	"minijavac/internal/ast"
	"minijavac/internal/cerr"
)

// Parse turns MiniJava source text into a checked AST. The production
// lexer/parser/type-checker pipeline lives outside this module's scope; a
// caller wiring a real front end in front of this compiler core supplies
// its own implementation with this signature. Tests in this module build
// ast.Prg values directly rather than going through source text.
type Parse func(source string) (*ast.Prg, error)

// Unimplemented is the stand-in Parse used when the driver is run without a
// real front end wired in: it reports a ParseError rather than silently
// producing an empty program.
func Unimplemented(source string) (*ast.Prg, error) {
	return nil, cerr.New(cerr.ParseError, "no MiniJava front end is wired into this build; lexer/parser/type-checker are external collaborators (spec.md §1)")
}
