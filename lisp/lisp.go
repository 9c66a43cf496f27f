package lisp

import (
	"bytes"
	"fmt"
	"math"
	"reflect"
	"strconv"

	"github.com/45deg/kantele/parser/ast"
	"github.com/45deg/kantele/symbol"
)

// LType is the type of an LVal
type LType uint

// Possible LType values
const (
	// LNoValue is the result of a conditional form whose branches were not
	// taken.  It is distinct from every other value, including #f and ().
	LNoValue LType = iota
	LNil
	LNumber
	LBool
	LString
	LSymbol
	LPair
	LFun
	LNative
)

var ltypeStrings = []string{
	LNoValue: "no-value",
	LNil:     "null",
	LNumber:  "number",
	LBool:    "boolean",
	LString:  "string",
	LSymbol:  "symbol",
	LPair:    "pair",
	LFun:     "procedure",
	LNative:  "native",
}

func (t LType) String() string {
	if int(t) >= len(ltypeStrings) {
		return "INVALID"
	}
	return ltypeStrings[t]
}

// LBuiltin is a function implemented in Go.
type LBuiltin func(env *LEnv, args []*LVal) (*LVal, error)

// LVal is a lisp value
type LVal struct {
	Type LType

	Num  float64
	Bool bool
	// Str holds the contents of an LString and the canonical key of an
	// LSymbol.
	Str string

	// Cells holds the car and cdr of an LPair.
	Cells []*LVal

	// Variables needed for function values.  A closure has a nil Builtin.
	// Rest is empty when the function takes a fixed number of arguments.
	FunName string
	Builtin LBuiltin
	Env     *LEnv
	Formals []string
	Rest    string
	Body    *ast.Body

	// Native holds the Go value of an LNative.
	Native interface{}
}

var noValue = &LVal{Type: LNoValue}

// NoValue returns the value of a conditional that did nothing.
func NoValue() *LVal {
	return noValue
}

// Nil returns an LVal representing the empty list.
func Nil() *LVal {
	return &LVal{Type: LNil}
}

// Number returns an LVal representing the number x.
func Number(x float64) *LVal {
	return &LVal{Type: LNumber, Num: x}
}

// Bool returns an LVal representing the boolean b.
func Bool(b bool) *LVal {
	return &LVal{Type: LBool, Bool: b}
}

// String returns an LVal representing the string s.
func String(s string) *LVal {
	return &LVal{Type: LString, Str: s}
}

// Symbol returns an LVal representing the symbol with canonical key key.
func Symbol(key string) *LVal {
	return &LVal{Type: LSymbol, Str: key}
}

// Cons returns a new pair.
func Cons(car, cdr *LVal) *LVal {
	return &LVal{Type: LPair, Cells: []*LVal{car, cdr}}
}

// List returns a proper list containing vs.
func List(vs ...*LVal) *LVal {
	return ListTail(vs, Nil())
}

// ListTail returns a list containing vs which terminates in tail instead of
// the empty list.  If tail is not () or a list the result is dotted.
func ListTail(vs []*LVal, tail *LVal) *LVal {
	lis := tail
	for i := len(vs) - 1; i >= 0; i-- {
		lis = Cons(vs[i], lis)
	}
	return lis
}

// Fun returns an LVal representing a builtin function
func Fun(name string, fn LBuiltin) *LVal {
	return &LVal{
		Type:    LFun,
		FunName: name,
		Builtin: fn,
	}
}

// Lambda returns a closure over env.  The rest parameter is optional.
func Lambda(env *LEnv, formals []string, rest string, body *ast.Body) *LVal {
	return &LVal{
		Type:    LFun,
		Env:     env,
		Formals: formals,
		Rest:    rest,
		Body:    body,
	}
}

// Native returns an LVal wrapping the host value x.
func Native(x interface{}) *LVal {
	return &LVal{Type: LNative, Native: x}
}

// IsNil returns true if v is the empty list.
func (v *LVal) IsNil() bool {
	return v.Type == LNil
}

// IsTrue returns true if v counts as true in a conditional.  Only #f and the
// no-value result are false.
func (v *LVal) IsTrue() bool {
	switch v.Type {
	case LNoValue:
		return false
	case LBool:
		return v.Bool
	default:
		return true
	}
}

// Car returns the first element of a pair.
func (v *LVal) Car() *LVal {
	return v.Cells[0]
}

// Cdr returns the second element of a pair.
func (v *LVal) Cdr() *LVal {
	return v.Cells[1]
}

// Elements walks the pairs of v and returns their cars along with the value
// terminating the chain, () for a proper list.  A circular chain of pairs is
// reported with ok set to false.
func (v *LVal) Elements() (elems []*LVal, tail *LVal, ok bool) {
	slow := v
	for v.Type == LPair {
		elems = append(elems, v.Car())
		v = v.Cdr()
		if len(elems)%2 == 0 {
			slow = slow.Cdr()
			if slow == v && v.Type == LPair {
				return elems, v, false
			}
		}
	}
	return elems, v, true
}

// IsList returns true if v is a proper list.
func (v *LVal) IsList() bool {
	_, tail, ok := v.Elements()
	return ok && tail.IsNil()
}

// Connector returns the host capability held by v, if any.
func (v *LVal) Connector() (Connector, bool) {
	if v.Type != LNative {
		return nil, false
	}
	c, ok := v.Native.(Connector)
	return c, ok
}

func (v *LVal) String() string {
	return v.format(nil)
}

// format writes v.  Pairs on the path from the outermost value to v are in
// open, and a pair reached again through a car prints as #<cycle>.
func (v *LVal) format(open map[*LVal]bool) string {
	switch v.Type {
	case LNoValue:
		return "#<no-value>"
	case LNil:
		return "()"
	case LNumber:
		return FormatNumber(v.Num)
	case LBool:
		if v.Bool {
			return "#t"
		}
		return "#f"
	case LString:
		return strconv.Quote(v.Str)
	case LSymbol:
		return symbol.String(v.Str)
	case LPair:
		return pairString(v, open)
	case LFun:
		if v.FunName != "" {
			return fmt.Sprintf("#<procedure %s>", v.FunName)
		}
		return "#<procedure>"
	case LNative:
		if s, ok := v.Native.(fmt.Stringer); ok {
			return s.String()
		}
		return fmt.Sprintf("#<native %T>", v.Native)
	default:
		return fmt.Sprintf("%#v", v)
	}
}

// Display returns the representation of v written by the display builtin.
// Strings are written without quotes.
func (v *LVal) Display() string {
	if v.Type == LString {
		return v.Str
	}
	return v.String()
}

func pairString(v *LVal, open map[*LVal]bool) string {
	if open[v] {
		return "#<cycle>"
	}
	if open == nil {
		open = make(map[*LVal]bool)
	}
	elems, tail, ok := v.Elements()
	// Every pair of the chain is open while the elements are written.
	var added []*LVal
	for p, i := v, 0; i < len(elems); p, i = p.Cdr(), i+1 {
		if !open[p] {
			open[p] = true
			added = append(added, p)
		}
	}
	defer func() {
		for _, p := range added {
			delete(open, p)
		}
	}()
	var buf bytes.Buffer
	buf.WriteString("(")
	for i, e := range elems {
		if i > 0 {
			buf.WriteString(" ")
		}
		buf.WriteString(e.format(open))
	}
	if !ok {
		buf.WriteString(" ...")
	} else if !tail.IsNil() {
		buf.WriteString(" . ")
		buf.WriteString(tail.format(open))
	}
	buf.WriteString(")")
	return buf.String()
}

// FormatNumber formats x the way numbers are printed.  Integral values print
// without a fractional part.
func FormatNumber(x float64) string {
	switch {
	case math.IsInf(x, 1):
		return "+inf"
	case math.IsInf(x, -1):
		return "-inf"
	case math.IsNaN(x):
		return "+nan"
	}
	return strconv.FormatFloat(x, 'g', -1, 64)
}

// Eq reports whether a and b are the same object.  Numbers, booleans,
// strings and symbols compare by value.
func Eq(a, b *LVal) bool {
	if a == b {
		return true
	}
	if a.Type != b.Type {
		return false
	}
	switch a.Type {
	case LNoValue, LNil:
		return true
	case LNumber:
		return a.Num == b.Num
	case LBool:
		return a.Bool == b.Bool
	case LString, LSymbol:
		return a.Str == b.Str
	case LNative:
		return nativeEq(a.Native, b.Native)
	default:
		return false
	}
}

// nativeEq compares host values with ==, treating values of incomparable
// types as distinct.
func nativeEq(a, b interface{}) bool {
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	if ta != nil && !ta.Comparable() {
		return false
	}
	defer func() { recover() }()
	return a == b
}

// Equal reports whether a and b are structurally equal.  Circular
// structures compare equal when they unfold to the same infinite tree.
func Equal(a, b *LVal) bool {
	return equal(a, b, make(map[[2]*LVal]bool))
}

// equal assumes pairs already in seen are equal, so each pair of pairs is
// compared at most once.
func equal(a, b *LVal, seen map[[2]*LVal]bool) bool {
	for {
		if Eq(a, b) {
			return true
		}
		if a.Type != LPair || b.Type != LPair {
			return false
		}
		k := [2]*LVal{a, b}
		if seen[k] {
			return true
		}
		seen[k] = true
		if !equal(a.Car(), b.Car(), seen) {
			return false
		}
		a, b = a.Cdr(), b.Cdr()
	}
}
