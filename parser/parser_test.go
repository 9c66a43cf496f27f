package parser

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/45deg/kantele/parser/ast"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func pos(n int) ast.Position { return ast.Position{Offset: n} }

func id(name string) *ast.Ident { return &ast.Ident{Name: name} }

func num(x float64) *ast.Const { return &ast.Const{Kind: ast.ConstNumber, Number: x} }

// ignorePos compares trees without their source offsets.
var ignorePos = cmp.Options{cmpopts.IgnoreTypes(ast.Position{}), cmpopts.EquateEmpty()}

func mustParse(t *testing.T, src string) *ast.Program {
	t.Helper()
	prog, err := ParseProgram("test", src)
	require.NoError(t, err, "source: %s", src)
	return prog
}

func TestParseDefineFunction(t *testing.T) {
	prog := mustParse(t, "(define (make-adder n) (lambda (x) (+ x n)))")
	want := &ast.Program{
		Position: pos(0),
		Name:     "test",
		Forms: []ast.Toplevel{
			&ast.DefineFunction{
				Position: pos(0),
				Name:     &ast.Ident{Position: pos(9), Name: "make-adder"},
				Params: &ast.Params{
					Position: pos(8),
					Kind:     ast.ParamsList,
					Fixed:    []*ast.Ident{{Position: pos(20), Name: "n"}},
				},
				Body: &ast.Body{
					Position: pos(23),
					Exprs: []ast.Expr{
						&ast.Lambda{
							Position: pos(23),
							Params: &ast.Params{
								Position: pos(31),
								Kind:     ast.ParamsList,
								Fixed:    []*ast.Ident{{Position: pos(32), Name: "x"}},
							},
							Body: &ast.Body{
								Position: pos(35),
								Exprs: []ast.Expr{
									&ast.Apply{
										Position: pos(35),
										Operator: &ast.Ident{Position: pos(36), Name: "+"},
										Operands: []ast.Expr{
											&ast.Ident{Position: pos(38), Name: "x"},
											&ast.Ident{Position: pos(40), Name: "n"},
										},
									},
								},
							},
						},
					},
				},
			},
		},
	}
	if diff := cmp.Diff(want, prog, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("unexpected tree (-want +got):\n%s", diff)
	}
}

func TestParseExpressions(t *testing.T) {
	tests := []struct {
		src  string
		want ast.Toplevel
	}{
		{"42", num(42)},
		{"-1.5", num(-1.5)},
		{"+.5", num(0.5)},
		{"1e3", num(1000)},
		{"2.", num(2)},
		{"-10.", num(-10)},
		{"-", id("-")},
		{"1+", id("1+")},
		{"...", id("...")},
		{"list->vector", id("list->vector")},
		{"#t", &ast.Const{Kind: ast.ConstBool, Bool: true}},
		{"#f", &ast.Const{Kind: ast.ConstBool}},
		{"()", &ast.Const{Kind: ast.ConstEmptyList}},
		{"(  )", &ast.Const{Kind: ast.ConstEmptyList}},
		{`"a\"b\n\xA"`, &ast.Const{Kind: ast.ConstString, String: "a\"b\nxA"}},
		{"(lambdax 1)", &ast.Apply{Operator: id("lambdax"), Operands: []ast.Expr{num(1)}}},
		{"((f) 1 2)", &ast.Apply{
			Operator: &ast.Apply{Operator: id("f")},
			Operands: []ast.Expr{num(1), num(2)},
		}},
		{"(lambda args args)", &ast.Lambda{
			Params: &ast.Params{Kind: ast.ParamsSingle, Rest: id("args")},
			Body:   &ast.Body{Exprs: []ast.Expr{id("args")}},
		}},
		{"(lambda (a b . c) c)", &ast.Lambda{
			Params: &ast.Params{Kind: ast.ParamsRest, Fixed: []*ast.Ident{id("a"), id("b")}, Rest: id("c")},
			Body:   &ast.Body{Exprs: []ast.Expr{id("c")}},
		}},
		{"(lambda () (define y 1) y)", &ast.Lambda{
			Params: &ast.Params{Kind: ast.ParamsList},
			Body: &ast.Body{
				Defines: []ast.Define{&ast.DefineSimple{Name: id("y"), Value: num(1)}},
				Exprs:   []ast.Expr{id("y")},
			},
		}},
		{"(set! x 2)", &ast.Set{Name: id("x"), Value: num(2)}},
		{"(if x 1)", &ast.If{Cond: id("x"), Then: num(1)}},
		{"(if x 1 2)", &ast.If{Cond: id("x"), Then: num(1), Else: num(2)}},
		{"(let loop ((i 0)) (loop i))", &ast.Let{
			Name:     id("loop"),
			Bindings: []*ast.Binding{{Name: id("i"), Init: num(0)}},
			Body:     &ast.Body{Exprs: []ast.Expr{&ast.Apply{Operator: id("loop"), Operands: []ast.Expr{id("i")}}}},
		}},
		{"(let* ((a 1) (b a)) b)", &ast.LetStar{
			Bindings: []*ast.Binding{{Name: id("a"), Init: num(1)}, {Name: id("b"), Init: id("a")}},
			Body:     &ast.Body{Exprs: []ast.Expr{id("b")}},
		}},
		{"(letrec () 1)", &ast.Letrec{Body: &ast.Body{Exprs: []ast.Expr{num(1)}}}},
		{"(cond ((f) 1 2) (else 3))", &ast.Cond{
			Clauses: []*ast.CondClause{{Test: &ast.Apply{Operator: id("f")}, Body: []ast.Expr{num(1), num(2)}}},
			Else:    []ast.Expr{num(3)},
		}},
		{"(cond (x 1))", &ast.Cond{Clauses: []*ast.CondClause{{Test: id("x"), Body: []ast.Expr{num(1)}}}}},
		{"(and)", &ast.And{}},
		{"(or a b)", &ast.Or{Exprs: []ast.Expr{id("a"), id("b")}}},
		{"(begin 1 2)", &ast.Begin{Exprs: []ast.Expr{num(1), num(2)}}},
		{"(do ((i 0 (+ i 1)) (acc 1)) ((= i 3) acc))", &ast.Do{
			Vars: []*ast.DoVar{
				{Name: id("i"), Init: num(0), Step: &ast.Apply{Operator: id("+"), Operands: []ast.Expr{id("i"), num(1)}}},
				{Name: id("acc"), Init: num(1)},
			},
			Test:   &ast.Apply{Operator: id("="), Operands: []ast.Expr{id("i"), num(3)}},
			Result: []ast.Expr{id("acc")},
			Body:   &ast.Body{},
		}},
		{"(feedback fb (gain 0.5 fb))", &ast.Feedback{
			Name:  id("fb"),
			Value: &ast.Apply{Operator: id("gain"), Operands: []ast.Expr{num(0.5), id("fb")}},
		}},
		{`(load "lib.scm")`, &ast.Load{Path: "lib.scm"}},
		{"(define x 1)", &ast.DefineSimple{Name: id("x"), Value: num(1)}},
		{"(define (f . args) args)", &ast.DefineFunction{
			Name:   id("f"),
			Params: &ast.Params{Kind: ast.ParamsRest, Rest: id("args")},
			Body:   &ast.Body{Exprs: []ast.Expr{id("args")}},
		}},
	}
	for i, test := range tests {
		prog := mustParse(t, test.src)
		if !assert.Len(t, prog.Forms, 1, "test %d: %s", i, test.src) {
			continue
		}
		if diff := cmp.Diff(test.want, prog.Forms[0], ignorePos); diff != "" {
			t.Errorf("test %d: %s: unexpected tree (-want +got):\n%s", i, test.src, diff)
		}
	}
}

func TestParseQuote(t *testing.T) {
	tests := []struct {
		src  string
		want ast.Datum
	}{
		{"'a", &ast.Symbol{Name: "a"}},
		{"(quote lambda)", &ast.Symbol{Name: "lambda"}},
		{"'()", &ast.Const{Kind: ast.ConstEmptyList}},
		{"'(1 2 . 3)", &ast.Dotted{Elems: []ast.Datum{num(1), num(2)}, Tail: num(3)}},
		{"'(a . (b))", &ast.Dotted{Elems: []ast.Datum{&ast.Symbol{Name: "a"}}, Tail: &ast.List{Elems: []ast.Datum{&ast.Symbol{Name: "b"}}}}},
		{"'((1 . 2) 3)", &ast.List{Elems: []ast.Datum{
			&ast.Dotted{Elems: []ast.Datum{num(1)}, Tail: num(2)},
			num(3),
		}}},
		{"'(1 (a \"s\") #t)", &ast.List{Elems: []ast.Datum{
			num(1),
			&ast.List{Elems: []ast.Datum{&ast.Symbol{Name: "a"}, &ast.Const{Kind: ast.ConstString, String: "s"}}},
			&ast.Const{Kind: ast.ConstBool, Bool: true},
		}}},
	}
	for i, test := range tests {
		prog := mustParse(t, test.src)
		require.Len(t, prog.Forms, 1)
		q, ok := prog.Forms[0].(*ast.Quote)
		if !assert.True(t, ok, "test %d: %T", i, prog.Forms[0]) {
			continue
		}
		if diff := cmp.Diff(test.want, q.Datum, ignorePos); diff != "" {
			t.Errorf("test %d: %s: unexpected datum (-want +got):\n%s", i, test.src, diff)
		}
	}
}

func TestParseProgram(t *testing.T) {
	prog := mustParse(t, "; header\n(define x 1)\n\n  (+ x 2) ; trailing\n\n\t")
	require.Len(t, prog.Forms, 2)
	assert.IsType(t, &ast.DefineSimple{}, prog.Forms[0])
	assert.Equal(t, 9, prog.Forms[0].Pos())
	assert.IsType(t, &ast.Apply{}, prog.Forms[1])

	prog = mustParse(t, "   \n")
	assert.Empty(t, prog.Forms)

	r := Parse("(+ 1 2)   \n")
	require.True(t, r.OK)
	assert.Equal(t, 7, r.Pos)
}

func TestParseErrors(t *testing.T) {
	// The failure inside the if form is deeper than the failed application.
	r := Parse("(if x)")
	require.False(t, r.OK)
	assert.Equal(t, 5, r.Pos)
	assert.Contains(t, r.Expected, "expression")

	r = Parse("(+ 1 2")
	require.False(t, r.OK)
	assert.Equal(t, 6, r.Pos)
	assert.Equal(t, []string{"')'"}, r.Expected)

	r = Parse("(lambda)")
	require.False(t, r.OK)
	assert.Equal(t, 7, r.Pos)
	assert.Contains(t, r.Expected, "identifier")

	_, err := ParseProgram("test.scm", "(define x 1)\n(if x)")
	require.Error(t, err)
	var serr *SyntaxError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, 2, serr.Location.Line)
	assert.Equal(t, 6, serr.Location.Col)
	assert.Equal(t, `test.scm:2:6: syntax error: expected expression`, err.Error())

	for _, src := range []string{
		")",
		"(define)",
		"(let ((x)) x)",
		"(quote)",
		"'",
		"(1 . 2)",
		"'(. 2)",
		"'(1 . 2 3)",
		"'(1 .)",
		`"unterminated`,
		"(cond (else 1) (x 2))",
	} {
		r := Parse(src)
		assert.False(t, r.OK, "source: %s", src)
	}
}

func TestParseDeepQuote(t *testing.T) {
	const depth = 30
	src := "'" + strings.Repeat("(", depth) + "1" + strings.Repeat(")", depth)
	start := time.Now()
	prog := mustParse(t, src)
	assert.Less(t, time.Since(start), 2*time.Second)

	d := prog.Forms[0].(*ast.Quote).Datum
	for i := 0; i < depth; i++ {
		l, ok := d.(*ast.List)
		require.True(t, ok, "level %d: %T", i, d)
		require.Len(t, l.Elems, 1)
		d = l.Elems[0]
	}
	assert.Equal(t, 1.0, d.(*ast.Const).Number)
}

func TestReader(t *testing.T) {
	prog, err := NewReader().Read("r", strings.NewReader("(define x 1) x"))
	require.NoError(t, err)
	assert.Len(t, prog.Forms, 2)

	_, err = NewReader().Read("r", strings.NewReader("(x"))
	assert.Error(t, err)
}

func TestParseConcurrent(t *testing.T) {
	var srcs []string
	for i := 0; i < 32; i++ {
		srcs = append(srcs, fmt.Sprintf("(define (f%d x) (let loop ((i %d)) (if (< i x) (loop (+ i 1)) '(i . x))))", i, i))
	}
	want := make([]*ast.Program, len(srcs))
	for i, src := range srcs {
		want[i] = mustParse(t, src)
	}
	got := make([]*ast.Program, len(srcs))
	var g errgroup.Group
	for i := range srcs {
		i := i
		g.Go(func() error {
			prog, err := ParseProgram("concurrent", srcs[i])
			got[i] = prog
			return err
		})
	}
	require.NoError(t, g.Wait())
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("concurrent parse differs (-want +got):\n%s", diff)
	}
}
