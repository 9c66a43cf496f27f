// Package libaudio binds the audio graph constructors.  Constructors build
// Nodes and connect their inputs immediately; the finished graph is rendered
// by Diagram and timed by Schedule.
package libaudio

import (
	"strings"

	"github.com/45deg/kantele/lisp"
	"github.com/45deg/kantele/lisp/lisplib/internal/libutil"
	"github.com/45deg/kantele/symbol"
)

// Waveforms lists the oscillator shapes accepted by wave.
var Waveforms = []string{"sine", "square", "sawtooth", "triangle"}

// Filters lists the filter types accepted by filter.
var Filters = []string{"lowpass", "highpass", "bandpass", "lowshelf", "highshelf", "peaking", "notch", "allpass"}

// LoadPackage adds the audio constructors to env.  Node and sequence
// identifiers are numbered from zero for each call.
func LoadPackage(env *lisp.LEnv) error {
	b := &builder{}
	libutil.AddBuiltins(env, []*libutil.Builtin{
		libutil.Function("wave", lisp.Formals("form", "length", "frequency", lisp.VarArgSymbol, "detune"), b.builtinWave),
		libutil.Function("sound", lisp.Formals("file", lisp.VarArgSymbol, "rate"), b.builtinSound),
		libutil.Function("gain", lisp.Formals("value", "nodes", lisp.VarArgSymbol, "modulator"), b.builtinGain),
		libutil.Function("compose", lisp.Formals("nodes"), b.builtinCompose),
		libutil.Function("delay", lisp.Formals("time", "nodes", lisp.VarArgSymbol, "modulator"), b.builtinDelay),
		libutil.Function("wait", lisp.Formals("time"), b.builtinWait),
		libutil.Function("sequence", lisp.Formals("elements"), b.builtinSequence),
		libutil.Function("filter", lisp.Formals("type", "frequency", lisp.VarArgSymbol, "args"), b.builtinFilter),
		libutil.Function("node?", lisp.Formals("value"), builtinNodeP),
	})
	return nil
}

type builder struct {
	nodeID int
	seqID  int
}

func (b *builder) node(env *lisp.LEnv, kind Kind) *Node {
	n := &Node{ID: b.nodeID, Kind: kind, Length: -1}
	b.nodeID++
	env.Runtime.Logger.Debug("audio node", "id", n.ID, "kind", string(kind))
	return n
}

// connect makes n the target of each of inputs.
func (b *builder) connect(env *lisp.LEnv, n *Node, inputs []lisp.Connector) error {
	n.Parents = append(n.Parents, inputs...)
	for _, in := range inputs {
		err := in.Connect(n)
		if err != nil {
			return err
		}
	}
	return nil
}

// modulate connects mod to the named parameter of n.
func (b *builder) modulate(env *lisp.LEnv, name string, n *Node, param string, v *lisp.LVal) error {
	mod, ok := v.Connector()
	if !ok {
		return env.Errorf(lisp.ErrType, "%s: modulator is not an audio node: %v", name, v)
	}
	err := mod.Connect(&Param{Node: n, Name: param})
	if err != nil {
		return err
	}
	n.Mod = &Modulation{Param: param, Node: mod}
	n.Parents = append(n.Parents, mod)
	return nil
}

// inputs returns the connectors of v, which is either a single node or a
// list of them.
func inputs(env *lisp.LEnv, name string, v *lisp.LVal) ([]lisp.Connector, error) {
	if c, ok := v.Connector(); ok {
		return []lisp.Connector{c}, nil
	}
	if !v.IsList() {
		return nil, env.Errorf(lisp.ErrType, "%s: not an audio node or a list of them: %v", name, v)
	}
	elems, _, _ := v.Elements()
	cs := make([]lisp.Connector, len(elems))
	for i, e := range elems {
		c, ok := e.Connector()
		if !ok {
			return nil, env.Errorf(lisp.ErrType, "%s: element %d is not an audio node: %v", name, i+1, e)
		}
		cs[i] = c
	}
	return cs, nil
}

func symbolArg(env *lisp.LEnv, name string, args []*lisp.LVal, i int, allowed []string) (string, error) {
	if args[i].Type != lisp.LSymbol {
		return "", env.Errorf(lisp.ErrType, "%s: argument %d is not a symbol: %v", name, i+1, args[i])
	}
	s := symbol.String(args[i].Str)
	for _, a := range allowed {
		if s == a {
			return s, nil
		}
	}
	return "", env.Errorf(lisp.ErrType, "%s: unknown type %s (expected one of %s)", name, s, strings.Join(allowed, " "))
}

func optional(env *lisp.LEnv, name string, args []*lisp.LVal, max int) error {
	if len(args) > max {
		return env.Errorf(lisp.ErrArity, "%s: expected at most %d arguments (got %d)", name, max, len(args))
	}
	return nil
}

// (wave form length frequency [detune])
func (b *builder) builtinWave(env *lisp.LEnv, args []*lisp.LVal) (*lisp.LVal, error) {
	if err := optional(env, "wave", args, 4); err != nil {
		return nil, err
	}
	form, err := symbolArg(env, "wave", args, 0, Waveforms)
	if err != nil {
		return nil, err
	}
	length, err := lisp.NumberArg(env, "wave", args, 1)
	if err != nil {
		return nil, err
	}
	freq, err := lisp.NumberArg(env, "wave", args, 2)
	if err != nil {
		return nil, err
	}
	var detune float64
	if len(args) == 4 {
		detune, err = lisp.NumberArg(env, "wave", args, 3)
		if err != nil {
			return nil, err
		}
	}
	n := b.node(env, KindOscillator)
	n.Waveform = form
	n.Length = length
	n.Frequency = freq
	n.Detune = detune
	return lisp.Native(n), nil
}

// (sound file [rate])
func (b *builder) builtinSound(env *lisp.LEnv, args []*lisp.LVal) (*lisp.LVal, error) {
	if err := optional(env, "sound", args, 2); err != nil {
		return nil, err
	}
	if args[0].Type != lisp.LString {
		return nil, env.Errorf(lisp.ErrType, "sound: argument 1 is not a string: %v", args[0])
	}
	rate := 1.0
	if len(args) == 2 {
		var err error
		rate, err = lisp.NumberArg(env, "sound", args, 1)
		if err != nil {
			return nil, err
		}
		if rate <= 0 {
			return nil, env.Errorf(lisp.ErrType, "sound: playback rate must be positive: %s", lisp.FormatNumber(rate))
		}
	}
	n := b.node(env, KindSound)
	n.File = args[0].Str
	n.Rate = rate
	return lisp.Native(n), nil
}

// (gain value nodes [modulator])
func (b *builder) builtinGain(env *lisp.LEnv, args []*lisp.LVal) (*lisp.LVal, error) {
	if err := optional(env, "gain", args, 3); err != nil {
		return nil, err
	}
	value, err := lisp.NumberArg(env, "gain", args, 0)
	if err != nil {
		return nil, err
	}
	ins, err := inputs(env, "gain", args[1])
	if err != nil {
		return nil, err
	}
	n, err := b.gain(env, value, ins)
	if err != nil {
		return nil, err
	}
	if len(args) == 3 {
		err = b.modulate(env, "gain", n, "gain", args[2])
		if err != nil {
			return nil, err
		}
	}
	return lisp.Native(n), nil
}

func (b *builder) gain(env *lisp.LEnv, value float64, ins []lisp.Connector) (*Node, error) {
	n := b.node(env, KindGain)
	n.Gain = value
	err := b.connect(env, n, ins)
	if err != nil {
		return nil, err
	}
	return n, nil
}

// (compose nodes) mixes nodes at equal volume.
func (b *builder) builtinCompose(env *lisp.LEnv, args []*lisp.LVal) (*lisp.LVal, error) {
	ins, err := inputs(env, "compose", args[0])
	if err != nil {
		return nil, err
	}
	if len(ins) == 0 {
		return nil, env.Errorf(lisp.ErrType, "compose: no nodes to compose")
	}
	n, err := b.gain(env, 1/float64(len(ins)), ins)
	if err != nil {
		return nil, err
	}
	return lisp.Native(n), nil
}

// (delay time nodes [modulator])
func (b *builder) builtinDelay(env *lisp.LEnv, args []*lisp.LVal) (*lisp.LVal, error) {
	if err := optional(env, "delay", args, 3); err != nil {
		return nil, err
	}
	t, err := lisp.NumberArg(env, "delay", args, 0)
	if err != nil {
		return nil, err
	}
	ins, err := inputs(env, "delay", args[1])
	if err != nil {
		return nil, err
	}
	n := b.node(env, KindDelay)
	n.DelayTime = t
	err = b.connect(env, n, ins)
	if err != nil {
		return nil, err
	}
	if len(args) == 3 {
		err = b.modulate(env, "delay", n, "delayTime", args[2])
		if err != nil {
			return nil, err
		}
	}
	return lisp.Native(n), nil
}

func (b *builder) builtinWait(env *lisp.LEnv, args []*lisp.LVal) (*lisp.LVal, error) {
	t, err := lisp.NumberArg(env, "wait", args, 0)
	if err != nil {
		return nil, err
	}
	if t < 0 {
		return nil, env.Errorf(lisp.ErrType, "wait: negative time: %s", lisp.FormatNumber(t))
	}
	return lisp.Native(&Wait{Length: t}), nil
}

// (sequence elements) plays the nodes of elements one after another.  A wait
// element delays the node following it.
func (b *builder) builtinSequence(env *lisp.LEnv, args []*lisp.LVal) (*lisp.LVal, error) {
	var elems []*lisp.LVal
	if args[0].Type == lisp.LNative {
		elems = []*lisp.LVal{args[0]}
	} else {
		if !args[0].IsList() {
			return nil, env.Errorf(lisp.ErrType, "sequence: not a list: %v", args[0])
		}
		elems, _, _ = args[0].Elements()
	}
	seq := b.seqID
	b.seqID++
	var offset float64
	var playables []lisp.Connector
	for i, e := range elems {
		if e.Type == lisp.LNative {
			if w, ok := e.Native.(*Wait); ok {
				offset = w.Length
				continue
			}
			if n, ok := e.Native.(*Node); ok {
				n.Offset = offset
				n.Slot = &Slot{Seq: seq, Index: len(playables)}
				playables = append(playables, n)
				offset = 0
				continue
			}
		}
		return nil, env.Errorf(lisp.ErrType, "sequence: element %d is not an audio node or a wait: %v", i+1, e)
	}
	n := b.node(env, KindSequence)
	n.Parents = playables
	return lisp.Native(n), nil
}

// (filter type frequency [q] [gain] nodes)  The parameters between frequency
// and nodes depend on type: pass filters and notch take q, shelf filters take
// gain, and peaking takes q and gain.
func (b *builder) builtinFilter(env *lisp.LEnv, args []*lisp.LVal) (*lisp.LVal, error) {
	typ, err := symbolArg(env, "filter", args, 0, Filters)
	if err != nil {
		return nil, err
	}
	freq, err := lisp.NumberArg(env, "filter", args, 1)
	if err != nil {
		return nil, err
	}
	var params []string
	switch {
	case strings.Contains(typ, "pass") || typ == "notch":
		params = []string{"q"}
	case strings.Contains(typ, "shelf"):
		params = []string{"gain"}
	case typ == "peaking":
		params = []string{"q", "gain"}
	}
	if len(args) != 3+len(params) {
		return nil, env.Errorf(lisp.ErrArity, "filter: %s expects %d arguments (got %d)", typ, 3+len(params), len(args))
	}
	n := b.node(env, KindFilter)
	n.Filter = typ
	n.Frequency = freq
	for i, p := range params {
		x, err := lisp.NumberArg(env, "filter", args, 2+i)
		if err != nil {
			return nil, err
		}
		switch p {
		case "q":
			n.Q = x
		case "gain":
			n.Gain = x
		}
	}
	ins, err := inputs(env, "filter", args[len(args)-1])
	if err != nil {
		return nil, err
	}
	err = b.connect(env, n, ins)
	if err != nil {
		return nil, err
	}
	return lisp.Native(n), nil
}

func builtinNodeP(env *lisp.LEnv, args []*lisp.LVal) (*lisp.LVal, error) {
	_, ok := args[0].Connector()
	return lisp.Bool(ok), nil
}
