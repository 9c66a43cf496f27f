package repl

import (
	"bytes"
	"testing"

	"github.com/45deg/kantele/kanteletest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComplete(t *testing.T) {
	tests := []struct {
		src      string
		complete bool
	}{
		{"", true},
		{"1", true},
		{"(+ 1 2)", true},
		{"(+ 1", false},
		{"(define (f x)\n  (* x", false},
		{"(define (f x)\n  (* x x))", true},
		{`(display "(")`, true},
		{`(display "a`, false},
		{`(display "a\"`, false},
		{`(display "a\"b")`, true},
		{"(f ; )\n", false},
		{"(f ; )\n)", true},
		{"1)", true},
		{"'(1 2 . 3)", true},
	}
	for _, test := range tests {
		assert.Equal(t, test.complete, Complete(test.src), "%q", test.src)
	}
}

func TestSession(t *testing.T) {
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	r := &kanteletest.Runner{}
	env, err := r.NewEnv(&stdout)
	require.NoError(t, err)
	env.Runtime.Stderr = &stderr
	s := NewSession(env)

	assert.False(t, s.Feed("(define x 2)"))
	assert.Equal(t, "x\n", stdout.String())
	stdout.Reset()

	assert.True(t, s.Feed("(define (sq y)"))
	assert.True(t, s.Feed("  (* y"))
	assert.False(t, s.Feed("     y))"))
	assert.False(t, s.Feed("(sq x)"))
	assert.Equal(t, "sq\n4\n", stdout.String())
	stdout.Reset()

	assert.False(t, s.Feed(`(display "hi")`))
	assert.Equal(t, "hi", stdout.String())
	stdout.Reset()

	assert.False(t, s.Feed(""))
	assert.Empty(t, stdout.String())

	assert.False(t, s.Feed("(car 1)"))
	assert.Equal(t, `repl:1:1: type-error: car: not a pair: 1
Stack Trace [1 frames -- entrypoint last]:
  height 0: repl[0]: car
`, stderr.String())
	stderr.Reset()

	assert.False(t, s.Feed("(if)"))
	assert.Contains(t, stderr.String(), "syntax error")
	stderr.Reset()

	assert.True(t, s.Feed("(+ 1"))
	s.Reset()
	assert.False(t, s.Feed("(+ 1 2)"))
	assert.Equal(t, "3\n", stdout.String())
}
