package libaudio

import (
	"fmt"

	"github.com/45deg/kantele/lisp"
)

// Kind identifies the kind of processing a Node performs.
type Kind string

const (
	KindOscillator Kind = "oscillator"
	KindSound      Kind = "sound"
	KindGain       Kind = "gain"
	KindDelay      Kind = "delay"
	KindFilter     Kind = "filter"
	KindSequence   Kind = "sequence"
)

// Slot is the position of an element within a sequence.
type Slot struct {
	Seq   int
	Index int
}

// Modulation records a node connected to a parameter of another node rather
// than to its input.
type Modulation struct {
	Param string
	Node  lisp.Connector
}

// Node is a vertex of an audio graph.  Edges are recorded in both
// directions: Parents are the nodes feeding the receiver and Targets are the
// connectors the receiver feeds.
type Node struct {
	ID      int
	Kind    Kind
	Parents []lisp.Connector
	Targets []lisp.Connector
	Mod     *Modulation

	// Offset is the time to wait after the previous element of a sequence
	// before the node starts.
	Offset float64
	// Length is the playing time of a source, negative when unknown.
	Length float64
	// Slot is non-nil for nodes placed in a sequence.
	Slot *Slot

	Waveform  string
	Frequency float64
	Detune    float64
	File      string
	Rate      float64
	Gain      float64
	DelayTime float64
	Filter    string
	Q         float64
}

// IsSource returns true if n produces sound without any input.
func (n *Node) IsSource() bool {
	return n.Kind == KindOscillator || n.Kind == KindSound
}

// Connect implements lisp.Connector.  A sequence forwards the connection to
// each of its elements.
func (n *Node) Connect(target lisp.Connector) error {
	n.Targets = append(n.Targets, target)
	if n.Kind != KindSequence {
		return nil
	}
	for _, p := range n.Parents {
		err := p.Connect(target)
		if err != nil {
			return err
		}
	}
	return nil
}

func (n *Node) String() string {
	return fmt.Sprintf("#<%s %d>", n.Kind, n.ID)
}

// Param is an audio parameter of a node, the target of a modulating
// connection.
type Param struct {
	Node *Node
	Name string
}

// Connect implements lisp.Connector.  Parameters have no output.
func (p *Param) Connect(target lisp.Connector) error {
	return lisp.Errorf(lisp.ErrConnect, "%s of %v has no output", p.Name, p.Node)
}

func (p *Param) String() string {
	return fmt.Sprintf("#<param %s %d>", p.Name, p.Node.ID)
}

// Wait is a pause between the elements of a sequence.
type Wait struct {
	Length float64
}

func (w *Wait) String() string {
	return fmt.Sprintf("#<wait %s>", lisp.FormatNumber(w.Length))
}

// resolve returns the node standing for c in a finished graph.  Feedback
// placeholders are replaced by the value they were resolved to.
func resolve(c lisp.Connector) *Node {
	seen := make(map[*lisp.Placeholder]bool)
	for {
		switch x := c.(type) {
		case *Node:
			return x
		case *lisp.Placeholder:
			if x.Resolved == nil || seen[x] {
				return nil
			}
			seen[x] = true
			c = x.Resolved
		default:
			return nil
		}
	}
}
