package libaudio

import (
	"fmt"
	"sort"
	"strings"

	"github.com/45deg/kantele/lisp"
)

// walk visits each node reachable from root through Parents once, depth
// first, most recently added parent first.  Placeholders are replaced by the
// node they were resolved to.  Unresolved placeholders are skipped.
func walk(root lisp.Connector, visit func(n *Node)) {
	start := resolve(root)
	if start == nil {
		return
	}
	visited := make(map[*Node]bool)
	stack := []*Node{start}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[top] {
			continue
		}
		visited[top] = true
		visit(top)
		for _, p := range top.Parents {
			if n := resolve(p); n != nil {
				stack = append(stack, n)
			}
		}
	}
}

// Diagram renders the graph ending at root as a Mermaid flowchart.  The
// output of root is drawn as the node "o".
func Diagram(root lisp.Connector) string {
	var buf strings.Builder
	buf.WriteString("graph TB\n")
	n := resolve(root)
	if n == nil {
		return buf.String()
	}
	fmt.Fprintf(&buf, "%s --> o((OUT))\n", nodeRef(n))
	walk(n, func(top *Node) {
		for _, p := range top.Parents {
			parent := resolve(p)
			if parent == nil {
				continue
			}
			if top.Mod != nil && top.Mod.Node == p {
				fmt.Fprintf(&buf, "%s -. %s .-> n%d\n", nodeRef(parent), top.Mod.Param, top.ID)
				continue
			}
			fmt.Fprintf(&buf, "%s --> n%d\n", nodeRef(parent), top.ID)
		}
	})
	return buf.String()
}

func nodeRef(n *Node) string {
	return fmt.Sprintf("n%d%s", n.ID, nodeLabel(n))
}

func nodeLabel(n *Node) string {
	switch n.Kind {
	case KindSequence:
		return fmt.Sprintf(`["sequence [%d]"]`, len(n.Parents))
	case KindDelay:
		return fmt.Sprintf("[delay %.2fs]", n.DelayTime)
	case KindGain:
		return fmt.Sprintf("[gain %.2f %%]", n.Gain*100)
	case KindOscillator:
		return fmt.Sprintf(">%s %.2fHz]", n.Waveform, n.Frequency)
	case KindSound:
		return fmt.Sprintf(`>"%s"]`, n.File)
	case KindFilter:
		return fmt.Sprintf("[%s %.2fHz]", n.Filter, n.Frequency)
	default:
		return fmt.Sprintf("(%s)", n.Kind)
	}
}

// Event is the playing interval of a source node.  Stop is meaningful only
// when HasStop is true.
type Event struct {
	Node    *Node
	Start   float64
	Stop    float64
	HasStop bool
}

// Schedule computes when each source reachable from root starts and stops,
// relative to the moment root starts playing.  Sources outside of any
// sequence start at their offset.  The elements of a sequence play one after
// another, each starting its offset after the previous one ends.  Sources
// below a sequenced node share that node's slot.  A source of unknown length
// occupies no time in its sequence and has no stop time.
func Schedule(root lisp.Connector) []Event {
	type slotted struct {
		node   *Node
		slot   *Slot
		offset float64
	}
	var sources []slotted
	children := make(map[*Node][]*Node)
	walk(root, func(n *Node) {
		if n.IsSource() {
			sources = append(sources, slotted{node: n})
		}
		for _, p := range n.Parents {
			if pn := resolve(p); pn != nil {
				children[pn] = append(children[pn], n)
			}
		}
	})
	for i := range sources {
		sources[i].slot, sources[i].offset = enclosingSlot(children, sources[i].node)
	}
	sort.SliceStable(sources, func(i, j int) bool {
		a, b := sources[i], sources[j]
		ka, kb := slotKey(a.slot), slotKey(b.slot)
		if ka != kb {
			return ka[0] < kb[0] || (ka[0] == kb[0] && ka[1] < kb[1])
		}
		return a.node.ID < b.node.ID
	})

	type slotTime struct{ start, end float64 }
	slots := make(map[Slot]*slotTime)
	seqEnd := make(map[int]float64)
	events := make([]Event, 0, len(sources))
	for _, src := range sources {
		length := src.node.Length
		ev := Event{Node: src.node}
		if src.slot == nil {
			ev.Start = src.offset
		} else {
			st, ok := slots[*src.slot]
			if !ok {
				start := seqEnd[src.slot.Seq] + src.offset
				st = &slotTime{start, start}
				slots[*src.slot] = st
			}
			ev.Start = st.start
			if length >= 0 && st.start+length > st.end {
				st.end = st.start + length
			}
			seqEnd[src.slot.Seq] = st.end
		}
		if length >= 0 {
			ev.Stop = ev.Start + length
			ev.HasStop = true
		}
		events = append(events, ev)
	}
	return events
}

func slotKey(s *Slot) [2]int {
	if s == nil {
		return [2]int{-1, -1}
	}
	return [2]int{s.Seq, s.Index}
}

// enclosingSlot returns the slot of the nearest sequenced node on a path
// from src toward the root of children, along with its offset.
func enclosingSlot(children map[*Node][]*Node, src *Node) (*Slot, float64) {
	visited := map[*Node]bool{src: true}
	queue := []*Node{src}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if n.Slot != nil {
			return n.Slot, n.Offset
		}
		for _, c := range children[n] {
			if !visited[c] {
				visited[c] = true
				queue = append(queue, c)
			}
		}
	}
	return nil, src.Offset
}
