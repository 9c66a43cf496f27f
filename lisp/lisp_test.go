package lisp

import (
	"math"
	"testing"

	"github.com/45deg/kantele/symbol"
	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	tests := []struct {
		v   *LVal
		str string
	}{
		{NoValue(), "#<no-value>"},
		{Nil(), "()"},
		{Number(3), "3"},
		{Number(-0.25), "-0.25"},
		{Number(math.Inf(1)), "+inf"},
		{Number(math.NaN()), "+nan"},
		{Bool(true), "#t"},
		{Bool(false), "#f"},
		{String("a\"b"), `"a\"b"`},
		{Symbol(symbol.Canonical("set!")), "set!"},
		{List(Number(1), List(Number(2)), String("x")), `(1 (2) "x")`},
		{Cons(Number(1), Number(2)), "(1 . 2)"},
		{ListTail([]*LVal{Number(1), Number(2)}, Number(3)), "(1 2 . 3)"},
		{Fun("car", nil), "#<procedure car>"},
		{Native(42), "#<native int>"},
	}
	for _, test := range tests {
		assert.Equal(t, test.str, test.v.String())
	}
	assert.Equal(t, `a"b`, String(`a"b`).Display())
}

func TestElements(t *testing.T) {
	elems, tail, ok := List(Number(1), Number(2)).Elements()
	assert.True(t, ok)
	assert.Len(t, elems, 2)
	assert.True(t, tail.IsNil())

	dotted := ListTail([]*LVal{Number(1)}, Number(2))
	assert.False(t, dotted.IsList())
	_, tail, ok = dotted.Elements()
	assert.True(t, ok)
	assert.Equal(t, "2", tail.String())

	cycle := List(Number(1), Number(2), Number(3))
	cycle.Cdr().Cdr().Cells[1] = cycle
	_, _, ok = cycle.Elements()
	assert.False(t, ok)
	assert.False(t, cycle.IsList())
	assert.Equal(t, "(1 2 3 1 2 3 ...)", cycle.String())
}

func TestTruth(t *testing.T) {
	assert.False(t, Bool(false).IsTrue())
	assert.False(t, NoValue().IsTrue())
	assert.True(t, Nil().IsTrue())
	assert.True(t, Number(0).IsTrue())
	assert.True(t, String("").IsTrue())
}

func TestStringCycles(t *testing.T) {
	p := List(Number(1))
	p.Cells[0] = p
	assert.Equal(t, "(#<cycle>)", p.String())

	// A car cycle behind a cdr cycle.
	q := List(Number(1), Number(2))
	q.Cells[0] = q
	q.Cdr().Cells[1] = q
	assert.Equal(t, "(#<cycle> 2 #<cycle> 2 ...)", q.String())

	deep := List(Number(1), List(Number(2)))
	deep.Cdr().Car().Cells[0] = deep
	assert.Equal(t, "(1 (#<cycle>))", deep.String())

	// Shared structure that is not circular prints in full.
	x := List(Number(1))
	assert.Equal(t, "((1) (1))", List(x, x).String())
	assert.Equal(t, "((1) 1)", Cons(x, x).String())
}

func TestEquality(t *testing.T) {
	assert.True(t, Eq(Number(1), Number(1)))
	assert.True(t, Eq(Symbol("a"), Symbol("a")))
	assert.True(t, Eq(Nil(), Nil()))
	assert.False(t, Eq(List(Number(1)), List(Number(1))))
	assert.True(t, Equal(List(Number(1), String("a")), List(Number(1), String("a"))))
	assert.False(t, Equal(List(Number(1)), ListTail([]*LVal{Number(1)}, Number(2))))
	assert.False(t, Eq(Number(1), String("1")))

	a := List(Number(1))
	a.Cells[1] = a
	b := List(Number(1))
	b.Cells[1] = b
	assert.True(t, Equal(a, b))
	c := List(Number(1), Number(1))
	c.Cdr().Cells[1] = c
	assert.True(t, Equal(a, c))
	d := List(Number(1), Number(2))
	d.Cdr().Cells[1] = d
	assert.False(t, Equal(a, d))

	e := List(Number(1))
	e.Cells[0] = e
	f := List(Number(1))
	f.Cells[0] = f
	assert.True(t, Equal(e, f))
	assert.False(t, Equal(e, a))
}

func TestEqualityNatives(t *testing.T) {
	type box struct{ v interface{} }
	s := []int{1}
	assert.False(t, Eq(Native(s), Native(s)))
	assert.False(t, Eq(Native(box{s}), Native(box{s})))
	assert.False(t, Equal(Native(map[string]int{}), Native(map[string]int{})))
	ptr := &box{}
	assert.True(t, Eq(Native(ptr), Native(ptr)))
	assert.True(t, Eq(Native(box{1}), Native(box{1})))
	assert.False(t, Eq(Native(1), Native("1")))
}
