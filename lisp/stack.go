package lisp

import (
	"fmt"
	"io"

	"github.com/45deg/kantele/parser/token"
)

// DefaultMaxHeight is the default limit on the height of a CallStack.
const DefaultMaxHeight = 10000

// CallStack is a function call stack.
type CallStack struct {
	Frames []CallFrame
	// MaxHeight limits the number of frames on the stack.  Zero means no
	// limit.
	MaxHeight int
}

// CallFrame is one frame in the CallStack
type CallFrame struct {
	Name   string
	Source *token.Location
}

// Copy creates a copy of the current stack so that it can be attach to a
// runtime error.
func (s *CallStack) Copy() *CallStack {
	if s == nil {
		return nil
	}
	frames := make([]CallFrame, len(s.Frames))
	copy(frames, s.Frames)
	return &CallStack{Frames: frames, MaxHeight: s.MaxHeight}
}

// Top returns the CallFrame at the top of the stack or nil if none exists.
func (s *CallStack) Top() *CallFrame {
	if s == nil || len(s.Frames) == 0 {
		return nil
	}
	return &s.Frames[len(s.Frames)-1]
}

// Height returns the number of frames on the stack.
func (s *CallStack) Height() int {
	return len(s.Frames)
}

// Push pushes a new stack frame onto s.  Push fails with ErrStackOverflow
// when s is already at its maximum height.
func (s *CallStack) Push(name string, src *token.Location) error {
	if s.MaxHeight > 0 && len(s.Frames) >= s.MaxHeight {
		return Errorf(ErrStackOverflow, "maximum stack height %d exceeded calling %s", s.MaxHeight, name)
	}
	s.Frames = append(s.Frames, CallFrame{Name: name, Source: src})
	return nil
}

// Pop removes the top CallFrame from the stack and returns it.
func (s *CallStack) Pop() CallFrame {
	if len(s.Frames) < 1 {
		panic("pop called on an empty stack")
	}
	f := s.Frames[len(s.Frames)-1]
	s.Frames[len(s.Frames)-1] = CallFrame{}
	s.Frames = s.Frames[:len(s.Frames)-1]
	return f
}

// DebugPrint prints s
func (s *CallStack) DebugPrint(w io.Writer) (int, error) {
	n, err := fmt.Fprintf(w, "Stack Trace [%d frames -- entrypoint last]:\n", len(s.Frames))
	if err != nil {
		return n, err
	}
	indent := "  "
	for i := len(s.Frames) - 1; i >= 0; i-- {
		f := s.Frames[i]
		name := f.Name
		if f.Source != nil {
			name = f.Source.String() + ": " + name
		}
		_n, err := fmt.Fprintf(w, "%sheight %d: %s\n", indent, i, name)
		n += _n
		if err != nil {
			return n, err
		}
	}
	return n, nil
}
