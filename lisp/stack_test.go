package lisp

import (
	"bytes"
	"testing"

	"github.com/45deg/kantele/parser/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallStack(t *testing.T) {
	s := &CallStack{MaxHeight: 2}
	assert.Nil(t, s.Top())
	require.NoError(t, s.Push("f", &token.Location{File: "a.scm", Pos: 3}))
	require.NoError(t, s.Push("g", nil))
	assert.Equal(t, 2, s.Height())
	assert.Equal(t, "g", s.Top().Name)

	err := s.Push("h", nil)
	assert.ErrorIs(t, err, ErrStackOverflow)
	assert.Equal(t, 2, s.Height())

	cp := s.Copy()
	assert.Equal(t, "g", s.Pop().Name)
	assert.Equal(t, 2, cp.Height())

	var buf bytes.Buffer
	_, err = cp.DebugPrint(&buf)
	require.NoError(t, err)
	assert.Equal(t, `Stack Trace [2 frames -- entrypoint last]:
  height 1: g
  height 0: a.scm[3]: f
`, buf.String())

	assert.Equal(t, "f", s.Pop().Name)
	assert.Panics(t, func() { s.Pop() })
}

func TestCallStackUnlimited(t *testing.T) {
	s := &CallStack{}
	for i := 0; i < 100; i++ {
		require.NoError(t, s.Push("f", nil))
	}
	assert.Equal(t, 100, s.Height())
	var nilStack *CallStack
	assert.Nil(t, nilStack.Copy())
}
