package lisp

import (
	"bytes"
	"fmt"

	"github.com/45deg/kantele/parser/token"
)

// Condition classifies runtime errors.  Conditions are comparable with
// errors.Is against any error returned by evaluation.
type Condition string

// Error implements the error interface.
func (c Condition) Error() string {
	return string(c)
}

// Runtime error conditions.
const (
	ErrSyntax        Condition = "invalid-syntax"
	ErrUnbound       Condition = "unbound-identifier"
	ErrArity         Condition = "wrong-number-of-arguments"
	ErrInsufficient  Condition = "insufficient-arguments"
	ErrNotFunction   Condition = "calling-non-function"
	ErrType          Condition = "type-error"
	ErrStackOverflow Condition = "stack-overflow"
	ErrLoad          Condition = "load-error"
	ErrConnect       Condition = "connect-error"
	ErrUser          Condition = "error"
)

// ErrorVal is a fatal evaluation error.  The call stack at the time of the
// error is retained so that it can be reported.
type ErrorVal struct {
	Condition Condition
	Msg       string
	// Source locates the expression being evaluated when the error occurred.
	// Line and column are not tracked so only File and Pos are meaningful.
	Source *token.Location
	Stack  *CallStack
	// Err is the underlying host error, if any.
	Err error
}

// Error implements the error interface.
func (e *ErrorVal) Error() string {
	var buf bytes.Buffer
	if e.Source != nil {
		buf.WriteString(e.Source.String())
		buf.WriteString(": ")
	}
	buf.WriteString(string(e.Condition))
	if e.Msg != "" {
		buf.WriteString(": ")
		buf.WriteString(e.Msg)
	}
	return buf.String()
}

// Unwrap returns the condition of e and its underlying error.
func (e *ErrorVal) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Condition}
	}
	return []error{e.Condition, e.Err}
}

// Errorf returns an error with the given condition and a formatted message.
// The error does not capture a stack or location until it passes through an
// LEnv.
func Errorf(c Condition, format string, v ...interface{}) *ErrorVal {
	return &ErrorVal{
		Condition: c,
		Msg:       fmt.Sprintf(format, v...),
	}
}

// Errorf returns an error with the given condition and a formatted message
// that carries a copy of the current call stack.
func (env *LEnv) Errorf(c Condition, format string, v ...interface{}) *ErrorVal {
	err := Errorf(c, format, v...)
	err.Stack = env.Runtime.Stack.Copy()
	return err
}

// locate attaches the position pos to err if it is an *ErrorVal that has not
// been located yet.  A negative pos is not attached.  Errors that are not an *ErrorVal are wrapped as user
// errors so that callers always receive an *ErrorVal.
func (env *LEnv) locate(err error, pos int) error {
	lerr, ok := err.(*ErrorVal)
	if !ok {
		lerr = env.Errorf(ErrUser, "%v", err)
		lerr.Err = err
	}
	if lerr.Stack == nil {
		lerr.Stack = env.Runtime.Stack.Copy()
	}
	if lerr.Source == nil && pos >= 0 {
		lerr.Source = &token.Location{File: env.Runtime.File, Pos: pos}
	}
	return lerr
}

// Locate fills in the line and column of the error source when the error
// occurred in file, whose content is src.
func (e *ErrorVal) Locate(file string, src string) {
	if e.Source == nil || e.Source.File != file || e.Source.Line != 0 {
		return
	}
	e.Source = token.Locate(file, src, e.Source.Pos)
}
