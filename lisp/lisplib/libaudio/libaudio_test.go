package libaudio_test

import (
	"bytes"
	"testing"

	"github.com/45deg/kantele/kanteletest"
	"github.com/45deg/kantele/lisp"
	"github.com/45deg/kantele/lisp/lisplib/libaudio"
	"github.com/45deg/kantele/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func eval(t *testing.T, src string) *lisp.LVal {
	t.Helper()
	var stdout bytes.Buffer
	r := &kanteletest.Runner{}
	env, err := r.NewEnv(&stdout)
	require.NoError(t, err)
	prog, err := parser.ParseProgram("test", src)
	require.NoError(t, err)
	v, err := lisp.Evaluate(prog, env)
	require.NoError(t, err)
	return v
}

func node(t *testing.T, v *lisp.LVal) *libaudio.Node {
	t.Helper()
	require.Equal(t, lisp.LNative, v.Type, "value %v", v)
	n, ok := v.Native.(*libaudio.Node)
	require.True(t, ok, "value %v", v)
	return n
}

func TestConstructors(t *testing.T) {
	tests := kanteletest.TestSuite{
		{"nodes", kanteletest.TestSequence{
			{"(wave 'sine 1 440)", "#<oscillator 0>", ""},
			{`(sound "a.wav")`, "#<sound 1>", ""},
			{"(gain 0.5 (wave 'square 1 220))", "#<gain 3>", ""},
			{"(node? (wait 1))", "#f", ""},
			{"(node? (delay 0.1 (list (wave 'sine 1 440))))", "#t", ""},
			{"(wait 1.5)", "#<wait 1.5>", ""},
			{"(filter 'peaking 1000 1 3 (wave 'sine 1 440))", "#<filter 7>", ""},
		}},
		{"errors", kanteletest.TestSequence{
			{"(wave 'noise 1 440)", "type-error: wave: unknown type noise (expected one of sine square sawtooth triangle)", ""},
			{"(wave \"sine\" 1 440)", `type-error: wave: argument 1 is not a symbol: "sine"`, ""},
			{"(gain 0.5 1)", "type-error: gain: not an audio node or a list of them: 1", ""},
			{"(gain 0.5 (list 1))", "type-error: gain: element 1 is not an audio node: 1", ""},
			{"(compose '())", "type-error: compose: no nodes to compose", ""},
			{"(sequence (list 1))", "type-error: sequence: element 1 is not an audio node or a wait: 1", ""},
			{"(filter 'lowpass 800 (wave 'sine 1 440))", "wrong-number-of-arguments: filter: lowpass expects 4 arguments (got 3)", ""},
			{"(wait -1)", "type-error: wait: negative time: -1", ""},
			{`(sound "a.wav" 0)`, "type-error: sound: playback rate must be positive: 0", ""},
			{"(gain 1 (wave 'sine 1 440) 2)", "type-error: gain: modulator is not an audio node: 2", ""},
		}},
	}
	kanteletest.RunTestSuite(t, tests)
}

func TestGraph(t *testing.T) {
	v := eval(t, `
(define osc (wave 'sine 2 440))
(define lfo (wave 'triangle 2 5))
(filter 'lowpass 800 1 (gain 0.5 (list osc) lfo))`)
	f := node(t, v)
	assert.Equal(t, libaudio.KindFilter, f.Kind)
	assert.Equal(t, 800.0, f.Frequency)
	assert.Equal(t, 1.0, f.Q)
	require.Len(t, f.Parents, 1)
	g := f.Parents[0].(*libaudio.Node)
	assert.Equal(t, 0.5, g.Gain)
	require.NotNil(t, g.Mod)
	assert.Equal(t, "gain", g.Mod.Param)
	require.Len(t, g.Parents, 2)
	osc := g.Parents[0].(*libaudio.Node)
	lfo := g.Parents[1].(*libaudio.Node)
	assert.Equal(t, []lisp.Connector{g}, osc.Targets)
	require.Len(t, lfo.Targets, 1)
	assert.Equal(t, &libaudio.Param{Node: g, Name: "gain"}, lfo.Targets[0])

	assert.Equal(t, `graph TB
n3[lowpass 800.00Hz] --> o((OUT))
n2[gain 50.00 %] --> n3
n0>sine 440.00Hz] --> n2
n1>triangle 5.00Hz] -. gain .-> n2
`, libaudio.Diagram(f))
}

func TestCompose(t *testing.T) {
	v := eval(t, "(compose (list (wave 'sine 1 440) (wave 'sine 1 660) (wave 'sine 1 880) (wave 'sine 1 990)))")
	n := node(t, v)
	assert.Equal(t, libaudio.KindGain, n.Kind)
	assert.Equal(t, 0.25, n.Gain)
	assert.Len(t, n.Parents, 4)
}

func TestFeedback(t *testing.T) {
	v := eval(t, "(feedback fb (gain 0.5 (delay 0.25 (list (wave 'sine 1 440) fb))))")
	a := node(t, v)
	require.Len(t, a.Parents, 1)
	b := a.Parents[0].(*libaudio.Node)
	assert.Equal(t, libaudio.KindDelay, b.Kind)
	require.Len(t, b.Parents, 2)
	p, ok := b.Parents[1].(*lisp.Placeholder)
	require.True(t, ok, "parent %v", b.Parents[1])
	assert.Equal(t, "fb", p.Name)
	assert.Same(t, b, p.Target)
	assert.Same(t, a, p.Resolved)
	assert.Equal(t, []lisp.Connector{b}, a.Targets)

	diagram := libaudio.Diagram(a)
	assert.Contains(t, diagram, "n2[gain 50.00 %] --> n1\n")
	assert.Contains(t, diagram, "n1[delay 0.25s] --> n2\n")
	assert.Contains(t, diagram, "n0>sine 440.00Hz] --> n1\n")

	events := libaudio.Schedule(a)
	require.Len(t, events, 1)
	assert.Equal(t, 0.0, events[0].Start)
	assert.Equal(t, 1.0, events[0].Stop)
}

func TestFeedbackUnconnected(t *testing.T) {
	v := eval(t, "(feedback fb (wave 'sine 1 440))")
	n := node(t, v)
	assert.Empty(t, n.Targets)
	assert.Equal(t, "graph TB\nn0>sine 440.00Hz] --> o((OUT))\n", libaudio.Diagram(n))
}

func TestSchedule(t *testing.T) {
	v := eval(t, `
(define a (wave 'sine 1 440))
(define b (wave 'square 2 220))
(define c (sound "drum.wav"))
(define d (wave 'sine 0.5 880))
(compose (list
  (sequence (list a (wait 0.5) (gain 0.8 b) c d))
  (wave 'triangle 3 110)))`)
	events := libaudio.Schedule(node(t, v))
	type interval struct {
		id          int
		start, stop float64
		hasStop     bool
	}
	var got []interval
	for _, ev := range events {
		got = append(got, interval{ev.Node.ID, ev.Start, ev.Stop, ev.HasStop})
	}
	assert.Equal(t, []interval{
		{6, 0, 3, true},
		{0, 0, 1, true},
		{1, 1.5, 3.5, true},
		{2, 3.5, 0, false},
		{3, 3.5, 4, true},
	}, got)
}

func TestScheduleOffsets(t *testing.T) {
	v := eval(t, "(sequence (list (wait 1) (wave 'sine 1 440) (wait 2) (wave 'sine 1 440)))")
	seq := node(t, v)
	assert.Equal(t, libaudio.KindSequence, seq.Kind)
	events := libaudio.Schedule(seq)
	require.Len(t, events, 2)
	assert.Equal(t, 1.0, events[0].Start)
	assert.Equal(t, 2.0, events[0].Stop)
	assert.Equal(t, 4.0, events[1].Start)
	assert.Equal(t, 5.0, events[1].Stop)
}

func TestSequenceConnect(t *testing.T) {
	v := eval(t, "(gain 1 (sequence (list (wave 'sine 1 440) (wave 'sine 1 660))))")
	g := node(t, v)
	seq := g.Parents[0].(*libaudio.Node)
	for _, p := range seq.Parents {
		assert.Equal(t, []lisp.Connector{g}, p.(*libaudio.Node).Targets)
	}
}
