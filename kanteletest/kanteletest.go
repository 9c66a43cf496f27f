// Package kanteletest runs tables of kantele expressions against isolated
// environments.
package kanteletest

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/45deg/kantele/lisp"
	"github.com/45deg/kantele/lisp/lisplib"
	"github.com/45deg/kantele/parser"
)

// Runner is a test runner.
type Runner struct {
	// Loader is the package loader used to initialize the test environment.
	// When Loader is nil lisplib.LoadLibrary is used.
	Loader func(*lisp.LEnv) error
	// Config is applied to each test environment after it is initialized.
	Config []lisp.Config
}

// NewEnv returns a root environment with the standard library and the
// Runner's packages loaded.  Program output is written to stdout.
func (r *Runner) NewEnv(stdout *bytes.Buffer) (*lisp.LEnv, error) {
	env := lisp.NewEnv(nil)
	config := append([]lisp.Config{
		lisp.WithReader(parser.NewReader()),
		lisp.WithStdout(stdout),
	}, r.Config...)
	err := lisp.InitializeUserEnv(env, config...)
	if err != nil {
		return nil, fmt.Errorf("Failed to initialize lisp environment: %v", err)
	}
	loader := r.Loader
	if loader == nil {
		loader = lisplib.LoadLibrary
	}
	err = loader(env)
	if err != nil {
		return nil, fmt.Errorf("Failed to load package library: %v", err)
	}
	return env, nil
}

// TestSequence is a sequence of lisp expressions which are evaluated sequentially
// by a lisp.LEnv.
type TestSequence []struct {
	Expr   string // a lisp expression
	Result string // the evaluated result
	Output string // text written to stdout during evaluation
}

// TestSuite is a set of named TestSequences
type TestSuite []struct {
	Name string
	TestSequence
}

// Result formats the outcome of an evaluation the way TestSequence results
// are written.  Errors are written as their condition and message.
func Result(v *lisp.LVal, err error) string {
	if err != nil {
		var lerr *lisp.ErrorVal
		if errors.As(err, &lerr) {
			if lerr.Msg == "" {
				return string(lerr.Condition)
			}
			return string(lerr.Condition) + ": " + lerr.Msg
		}
		return err.Error()
	}
	return v.String()
}

// RunTestSuite runs each TestSequence in tests on isolated lisp.LEnvs.
func RunTestSuite(t *testing.T, tests TestSuite) {
	r := &Runner{}
	r.RunTestSuite(t, tests)
}

// RunTestSuite runs each TestSequence in tests on isolated lisp.LEnvs.
func (r *Runner) RunTestSuite(t *testing.T, tests TestSuite) {
	for i, test := range tests {
		var stdout bytes.Buffer
		env, err := r.NewEnv(&stdout)
		if err != nil {
			t.Fatalf("test %d %q: %v", i, test.Name, err)
		}
		for j, expr := range test.TestSequence {
			stdout.Reset()
			prog, err := parser.ParseProgram("test", expr.Expr)
			if err != nil {
				t.Errorf("test %d %q: expr %d: parse error: %v", i, test.Name, j, err)
				continue
			}
			if len(prog.Forms) == 0 {
				t.Errorf("test %d %q: expr %d: no expression parsed", i, test.Name, j)
				continue
			}
			result := Result(lisp.Evaluate(prog, env))
			if result != expr.Result {
				t.Errorf("test %d %q: expr %d: expected result %s (got %s)", i, test.Name, j, expr.Result, result)
			}
			if stdout.String() != expr.Output {
				t.Errorf("test %d %q: expr %d: expected output %q (got %q)", i, test.Name, j, expr.Output, stdout.String())
			}
		}
	}
}
