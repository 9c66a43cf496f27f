// Package repl implements an interactive read-eval-print loop.
package repl

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/45deg/kantele/lisp"
	"github.com/45deg/kantele/parser"
	"github.com/chzyer/readline"
)

// Run reads programs from the terminal and evaluates them in env until the
// input is closed.  Lines are accumulated until their parentheses balance.
func Run(prompt string, env *lisp.LEnv) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return err
	}
	defer rl.Close()
	contPrompt := strings.Repeat(" ", len(prompt)) // prompt had better be ascii...

	s := NewSession(env)
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			s.Reset()
			rl.SetPrompt(prompt)
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if s.Feed(line) {
			rl.SetPrompt(contPrompt)
		} else {
			rl.SetPrompt(prompt)
		}
	}
}

// Session evaluates complete programs fed to it line by line.
type Session struct {
	env   *lisp.LEnv
	lines []string
}

// NewSession returns a Session evaluating programs in env.  Results are
// written to the runtime's stdout and errors to its stderr.
func NewSession(env *lisp.LEnv) *Session {
	return &Session{env: env}
}

// Feed adds line to the pending input and evaluates the input if it is
// complete.  Feed returns true if more lines are needed.
func (s *Session) Feed(line string) bool {
	s.lines = append(s.lines, line)
	src := strings.Join(s.lines, "\n")
	if !Complete(src) {
		return true
	}
	s.lines = nil
	if strings.TrimSpace(src) == "" {
		return false
	}
	s.eval("repl", src)
	return false
}

// Reset discards pending input.
func (s *Session) Reset() {
	s.lines = nil
}

func (s *Session) eval(name string, src string) {
	rt := s.env.Runtime
	prog, err := parser.ParseProgram(name, src)
	if err != nil {
		fmt.Fprintln(rt.Stderr, err)
		return
	}
	v, err := lisp.Evaluate(prog, s.env)
	if err != nil {
		var lerr *lisp.ErrorVal
		if errors.As(err, &lerr) {
			lerr.Locate(name, src)
		}
		fmt.Fprintln(rt.Stderr, err)
		if lerr != nil && lerr.Stack != nil && lerr.Stack.Height() > 0 {
			lerr.Stack.DebugPrint(rt.Stderr)
		}
		return
	}
	if v.Type != lisp.LNoValue {
		fmt.Fprintln(rt.Stdout, v)
	}
}
