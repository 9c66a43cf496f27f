package lisp

import (
	"io"

	"github.com/45deg/kantele/parser/ast"
)

// Reader abstracts a parser implementation so that it may be implemented in a
// separate package as an optional/swappable component.
type Reader interface {
	// Read the contents of r and return the program that it contains.  The
	// name identifies the source in syntax errors.
	Read(name string, r io.Reader) (*ast.Program, error)
}
