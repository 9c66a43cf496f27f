/*
Package parser implements the kantele grammar on top of package comb.

	program  := toplevel* EOF
	toplevel := define | '(' 'load' string ')' | expr
	define   := '(' 'define' id expr ')'
	          | '(' 'define' '(' id id* ('.' id)? ')' body ')'
	body     := define* expr+
	expr     := const | id | '(' keyword ... ')' | "'" datum | '(' expr expr* ')'
	datum    := const | symbol | '(' datum+ '.' datum ')' | '(' datum* ')'
	params   := id | '(' id+ '.' id ')' | '(' id* ')'
	const    := number | string | '#t' | '#f' | '(' ')'

Identifiers are runs of letters, digits and the characters ! $ % & * + - . /
< = > ? @ ^ _ that do not spell a number, the lone dot or a keyword.  Comments
start with ';' and run to the end of the line.
*/
package parser

import (
	"fmt"
	"io"
	"io/ioutil"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/45deg/kantele/lisp"
	"github.com/45deg/kantele/parser/ast"
	"github.com/45deg/kantele/parser/comb"
	"github.com/45deg/kantele/parser/token"
)

// Keywords lists the reserved words of the language.  A keyword is never an
// identifier expression, though it may appear as a quoted symbol.
var Keywords = []string{
	"and",
	"begin",
	"cond",
	"define",
	"do",
	"else",
	"feedback",
	"if",
	"lambda",
	"let",
	"let*",
	"letrec",
	"load",
	"or",
	"quote",
	"set!",
}

var keywords = func() map[string]bool {
	m := make(map[string]bool, len(Keywords))
	for _, kw := range Keywords {
		m[kw] = true
	}
	return m
}()

var numberRegexp = regexp.MustCompile(`^[-+]?(?:[0-9]*\.?[0-9]+|[0-9]+\.)(?:[eE][-+]?[0-9]+)?$`)

// IsNumber returns true if s is a complete number literal.
func IsNumber(s string) bool {
	return numberRegexp.MatchString(s)
}

// IsIdentifier returns true if s may be used as an identifier expression.
func IsIdentifier(s string) bool {
	return isSymbol(s) && !keywords[s]
}

func isSymbol(s string) bool {
	return s != "." && !IsNumber(s)
}

var program = newGrammar()

// Parse parses src as a program.  Trailing whitespace is ignored.  The Value
// of a successful Result is an *ast.Program.  A failed Result reports the
// furthest position reached by any alternative and the tokens expected there.
func Parse(src string) comb.Result {
	return program(strings.TrimRightFunc(src, unicode.IsSpace), 0)
}

// ParseProgram parses src as a program.  The name is used to locate syntax
// errors, which are returned as a *SyntaxError.
func ParseProgram(name string, src string) (*ast.Program, error) {
	r := Parse(src)
	if !r.OK {
		return nil, &SyntaxError{
			Location: token.Locate(name, src, r.Pos),
			Expected: r.Expected,
		}
	}
	prog := r.Value.(*ast.Program)
	prog.Name = name
	return prog, nil
}

// SyntaxError describes a source text that does not match the grammar.
type SyntaxError struct {
	Location *token.Location
	Expected []string
}

func (e *SyntaxError) Error() string {
	if len(e.Expected) == 0 {
		return fmt.Sprintf("%v: syntax error", e.Location)
	}
	return fmt.Sprintf("%v: syntax error: expected %s", e.Location, strings.Join(e.Expected, " or "))
}

type reader struct{}

// NewReader returns a lisp.Reader that parses kantele programs.
func NewReader() lisp.Reader {
	return reader{}
}

func (reader) Read(name string, r io.Reader) (*ast.Program, error) {
	b, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return ParseProgram(name, string(b))
}

const identChars = `[0-9A-Za-z!$%&*+\-./<=>?@^_]`

type signature struct {
	name   *ast.Ident
	params *ast.Params
}

func newGrammar() comb.Parser {
	var expr, body, datum, define comb.Parser
	exprRef := comb.Lazy(func() comb.Parser { return expr })
	bodyRef := comb.Lazy(func() comb.Parser { return body })
	datumRef := comb.Lazy(func() comb.Parser { return datum })
	defineRef := comb.Lazy(func() comb.Parser { return define })

	lparen := comb.Lexeme(comb.Token("("))
	rparen := comb.Lexeme(comb.Token(")"))
	paren := func(ps ...comb.Parser) comb.Parser {
		seq := append([]comb.Parser{lparen}, ps...)
		seq = append(seq, rparen)
		return comb.Map(comb.Seq(seq...), func(v interface{}) interface{} {
			vs := v.([]interface{})
			return vs[1 : len(vs)-1]
		})
	}
	word := comb.Lexeme(comb.Regex(identChars + `+`))
	wordIs := func(pred func(string) bool) comb.Parser {
		return comb.Filter(word, func(v interface{}) bool { return pred(v.(string)) })
	}
	kw := func(name string) comb.Parser {
		return comb.Label("'"+name+"'", wordIs(func(s string) bool { return s == name }))
	}
	dot := comb.Label("'.'", wordIs(func(s string) bool { return s == "." }))

	ident := comb.Label("identifier", at(wordIs(IsIdentifier), func(pos int, v interface{}) interface{} {
		return &ast.Ident{Position: ast.Position{Offset: pos}, Name: v.(string)}
	}))
	number := comb.Tag("number", at(wordIs(IsNumber), func(pos int, v interface{}) interface{} {
		x, _ := strconv.ParseFloat(v.(string), 64)
		return &ast.Const{Position: ast.Position{Offset: pos}, Kind: ast.ConstNumber, Number: x}
	}))
	boolean := comb.Tag("bool", at(
		comb.Filter(comb.Lexeme(comb.Regex(`#`+identChars+`*`)), func(v interface{}) bool {
			return v == "#t" || v == "#f"
		}),
		func(pos int, v interface{}) interface{} {
			return &ast.Const{Position: ast.Position{Offset: pos}, Kind: ast.ConstBool, Bool: v == "#t"}
		}))
	str := comb.Tag("string", at(comb.Lexeme(comb.Regex(`"(?s:[^"\\]|\\.)*"`)), func(pos int, v interface{}) interface{} {
		return &ast.Const{Position: ast.Position{Offset: pos}, Kind: ast.ConstString, String: unquote(v.(string))}
	}))
	empty := at(comb.Seq(lparen, rparen), func(pos int, v interface{}) interface{} {
		return &ast.Const{Position: ast.Position{Offset: pos}, Kind: ast.ConstEmptyList}
	})
	constant := comb.Tag("const", comb.Or(number, boolean, str, empty))

	symbol := at(wordIs(isSymbol), func(pos int, v interface{}) interface{} {
		return &ast.Symbol{Position: ast.Position{Offset: pos}, Name: v.(string)}
	})
	// Proper and dotted lists share their leading elements, which are parsed
	// once.  A tail needs at least one element before the dot.
	list := at(paren(comb.Option(comb.Seq(comb.OneMore(datumRef), comb.Option(comb.Seq(dot, datumRef))))), func(pos int, v interface{}) interface{} {
		inner := v.([]interface{})[0]
		if inner == nil {
			return &ast.List{Position: ast.Position{Offset: pos}}
		}
		vs := inner.([]interface{})
		if vs[1] == nil {
			return &ast.List{Position: ast.Position{Offset: pos}, Elems: datums(vs[0])}
		}
		tail := vs[1].([]interface{})[1].(ast.Datum)
		return &ast.Dotted{Position: ast.Position{Offset: pos}, Elems: datums(vs[0]), Tail: tail}
	})
	datum = comb.Tag("s-exp", comb.Label("datum", comb.Or(constant, symbol, list)))

	params := comb.Tag("params", comb.Or(
		at(ident, func(pos int, v interface{}) interface{} {
			return &ast.Params{Position: ast.Position{Offset: pos}, Kind: ast.ParamsSingle, Rest: v.(*ast.Ident)}
		}),
		at(paren(comb.OneMore(ident), dot, ident), func(pos int, v interface{}) interface{} {
			vs := v.([]interface{})
			return &ast.Params{Position: ast.Position{Offset: pos}, Kind: ast.ParamsRest, Fixed: idents(vs[0]), Rest: vs[2].(*ast.Ident)}
		}),
		at(paren(comb.Many(ident)), func(pos int, v interface{}) interface{} {
			return &ast.Params{Position: ast.Position{Offset: pos}, Kind: ast.ParamsList, Fixed: idents(v.([]interface{})[0])}
		}),
	))

	sig := at(paren(ident, comb.Many(ident), comb.Option(comb.Seq(dot, ident))), func(pos int, v interface{}) interface{} {
		vs := v.([]interface{})
		p := &ast.Params{Position: ast.Position{Offset: pos}, Kind: ast.ParamsList, Fixed: idents(vs[1])}
		if vs[2] != nil {
			p.Kind = ast.ParamsRest
			p.Rest = vs[2].([]interface{})[1].(*ast.Ident)
		}
		return &signature{name: vs[0].(*ast.Ident), params: p}
	})
	define = comb.Tag("define", comb.Or(
		at(paren(kw("define"), ident, exprRef), func(pos int, v interface{}) interface{} {
			vs := v.([]interface{})
			return &ast.DefineSimple{Position: ast.Position{Offset: pos}, Name: vs[1].(*ast.Ident), Value: vs[2].(ast.Expr)}
		}),
		at(paren(kw("define"), sig, bodyRef), func(pos int, v interface{}) interface{} {
			vs := v.([]interface{})
			s := vs[1].(*signature)
			return &ast.DefineFunction{Position: ast.Position{Offset: pos}, Name: s.name, Params: s.params, Body: vs[2].(*ast.Body)}
		}),
	))

	body = comb.Tag("body", at(comb.Seq(comb.Many(defineRef), comb.OneMore(exprRef)), newBody))
	// The body of a do loop may be empty.
	doBody := comb.Tag("body", at(comb.Seq(comb.Many(defineRef), comb.Many(exprRef)), newBody))

	binding := at(paren(ident, exprRef), func(pos int, v interface{}) interface{} {
		vs := v.([]interface{})
		return &ast.Binding{Position: ast.Position{Offset: pos}, Name: vs[0].(*ast.Ident), Init: vs[1].(ast.Expr)}
	})
	bindings := comb.Tag("bindings", comb.Map(paren(comb.Many(binding)), func(v interface{}) interface{} {
		var bs []*ast.Binding
		for _, b := range v.([]interface{})[0].([]interface{}) {
			bs = append(bs, b.(*ast.Binding))
		}
		return bs
	}))

	lambda := at(paren(kw("lambda"), params, bodyRef), func(pos int, v interface{}) interface{} {
		vs := v.([]interface{})
		return &ast.Lambda{Position: ast.Position{Offset: pos}, Params: vs[1].(*ast.Params), Body: vs[2].(*ast.Body)}
	})
	quote := comb.Or(
		at(paren(kw("quote"), datumRef), func(pos int, v interface{}) interface{} {
			return &ast.Quote{Position: ast.Position{Offset: pos}, Datum: v.([]interface{})[1].(ast.Datum)}
		}),
		at(comb.Seq(comb.Lexeme(comb.Token("'")), datumRef), func(pos int, v interface{}) interface{} {
			return &ast.Quote{Position: ast.Position{Offset: pos}, Datum: v.([]interface{})[1].(ast.Datum)}
		}),
	)
	set := at(paren(kw("set!"), ident, exprRef), func(pos int, v interface{}) interface{} {
		vs := v.([]interface{})
		return &ast.Set{Position: ast.Position{Offset: pos}, Name: vs[1].(*ast.Ident), Value: vs[2].(ast.Expr)}
	})
	letStar := at(paren(kw("let*"), bindings, bodyRef), func(pos int, v interface{}) interface{} {
		vs := v.([]interface{})
		return &ast.LetStar{Position: ast.Position{Offset: pos}, Bindings: vs[1].([]*ast.Binding), Body: vs[2].(*ast.Body)}
	})
	letrec := at(paren(kw("letrec"), bindings, bodyRef), func(pos int, v interface{}) interface{} {
		vs := v.([]interface{})
		return &ast.Letrec{Position: ast.Position{Offset: pos}, Bindings: vs[1].([]*ast.Binding), Body: vs[2].(*ast.Body)}
	})
	let := at(paren(kw("let"), comb.Option(ident), bindings, bodyRef), func(pos int, v interface{}) interface{} {
		vs := v.([]interface{})
		name, _ := vs[1].(*ast.Ident)
		return &ast.Let{Position: ast.Position{Offset: pos}, Name: name, Bindings: vs[2].([]*ast.Binding), Body: vs[3].(*ast.Body)}
	})
	ifExpr := at(paren(kw("if"), exprRef, exprRef, comb.Option(exprRef)), func(pos int, v interface{}) interface{} {
		vs := v.([]interface{})
		alt, _ := vs[3].(ast.Expr)
		return &ast.If{Position: ast.Position{Offset: pos}, Cond: vs[1].(ast.Expr), Then: vs[2].(ast.Expr), Else: alt}
	})
	clause := at(paren(exprRef, comb.OneMore(exprRef)), func(pos int, v interface{}) interface{} {
		vs := v.([]interface{})
		return &ast.CondClause{Position: ast.Position{Offset: pos}, Test: vs[0].(ast.Expr), Body: exprs(vs[1])}
	})
	cond := at(paren(kw("cond"), comb.Many(clause), comb.Option(paren(kw("else"), comb.OneMore(exprRef)))), func(pos int, v interface{}) interface{} {
		vs := v.([]interface{})
		c := &ast.Cond{Position: ast.Position{Offset: pos}}
		for _, cl := range vs[1].([]interface{}) {
			c.Clauses = append(c.Clauses, cl.(*ast.CondClause))
		}
		if vs[2] != nil {
			c.Else = exprs(vs[2].([]interface{})[1])
		}
		return c
	})
	and := at(paren(kw("and"), comb.Many(exprRef)), func(pos int, v interface{}) interface{} {
		return &ast.And{Position: ast.Position{Offset: pos}, Exprs: exprs(v.([]interface{})[1])}
	})
	or := at(paren(kw("or"), comb.Many(exprRef)), func(pos int, v interface{}) interface{} {
		return &ast.Or{Position: ast.Position{Offset: pos}, Exprs: exprs(v.([]interface{})[1])}
	})
	begin := at(paren(kw("begin"), comb.Many(exprRef)), func(pos int, v interface{}) interface{} {
		return &ast.Begin{Position: ast.Position{Offset: pos}, Exprs: exprs(v.([]interface{})[1])}
	})
	doVar := at(paren(ident, exprRef, comb.Option(exprRef)), func(pos int, v interface{}) interface{} {
		vs := v.([]interface{})
		step, _ := vs[2].(ast.Expr)
		return &ast.DoVar{Position: ast.Position{Offset: pos}, Name: vs[0].(*ast.Ident), Init: vs[1].(ast.Expr), Step: step}
	})
	doExpr := at(paren(kw("do"), paren(comb.Many(doVar)), paren(exprRef, comb.Many(exprRef)), doBody), func(pos int, v interface{}) interface{} {
		vs := v.([]interface{})
		d := &ast.Do{Position: ast.Position{Offset: pos}, Body: vs[3].(*ast.Body)}
		for _, dv := range vs[1].([]interface{})[0].([]interface{}) {
			d.Vars = append(d.Vars, dv.(*ast.DoVar))
		}
		test := vs[2].([]interface{})
		d.Test = test[0].(ast.Expr)
		d.Result = exprs(test[1])
		return d
	})
	feedback := at(paren(kw("feedback"), ident, exprRef), func(pos int, v interface{}) interface{} {
		vs := v.([]interface{})
		return &ast.Feedback{Position: ast.Position{Offset: pos}, Name: vs[1].(*ast.Ident), Value: vs[2].(ast.Expr)}
	})
	apply := at(paren(exprRef, comb.Many(exprRef)), func(pos int, v interface{}) interface{} {
		vs := v.([]interface{})
		return &ast.Apply{Position: ast.Position{Offset: pos}, Operator: vs[0].(ast.Expr), Operands: exprs(vs[1])}
	})

	expr = comb.Tag("exp", comb.Label("expression", comb.Or(
		constant,
		ident,
		lambda,
		quote,
		set,
		letStar,
		letrec,
		let,
		ifExpr,
		cond,
		and,
		or,
		begin,
		doExpr,
		feedback,
		apply,
	)))

	load := at(paren(kw("load"), str), func(pos int, v interface{}) interface{} {
		return &ast.Load{Position: ast.Position{Offset: pos}, Path: v.([]interface{})[1].(*ast.Const).String}
	})
	toplevel := comb.Tag("toplevel", comb.Or(defineRef, load, exprRef))

	return comb.Tag("program", comb.Map(comb.RepeatToEOF(toplevel), func(v interface{}) interface{} {
		prog := &ast.Program{}
		for _, form := range v.([]interface{}) {
			prog.Forms = append(prog.Forms, form.(ast.Toplevel))
		}
		if len(prog.Forms) > 0 {
			prog.Offset = prog.Forms[0].Pos()
		}
		return prog
	}))
}

// at builds the value of a successful p with the offset of its first token.
func at(p comb.Parser, build func(pos int, v interface{}) interface{}) comb.Parser {
	return func(input string, pos int) comb.Result {
		r := p(input, pos)
		if r.OK {
			r.Value = build(comb.SkipSpace(input, pos), r.Value)
		}
		return r
	}
}

func newBody(pos int, v interface{}) interface{} {
	vs := v.([]interface{})
	b := &ast.Body{Position: ast.Position{Offset: pos}, Exprs: exprs(vs[1])}
	for _, d := range vs[0].([]interface{}) {
		b.Defines = append(b.Defines, d.(ast.Define))
	}
	return b
}

func idents(v interface{}) []*ast.Ident {
	var ids []*ast.Ident
	for _, x := range v.([]interface{}) {
		ids = append(ids, x.(*ast.Ident))
	}
	return ids
}

func exprs(v interface{}) []ast.Expr {
	var es []ast.Expr
	for _, x := range v.([]interface{}) {
		es = append(es, x.(ast.Expr))
	}
	return es
}

func datums(v interface{}) []ast.Datum {
	var ds []ast.Datum
	for _, x := range v.([]interface{}) {
		ds = append(ds, x.(ast.Datum))
	}
	return ds
}

// unquote returns the contents of the quoted string literal s with escape
// sequences replaced.  An escaped character without a special meaning stands
// for itself.
func unquote(s string) string {
	s = s[1 : len(s)-1]
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			b.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '0':
			b.WriteByte(0)
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'v':
			b.WriteByte('\v')
		case 'u':
			if len(s)-i > 4 {
				if x, err := strconv.ParseUint(s[i+1:i+5], 16, 32); err == nil {
					b.WriteRune(rune(x))
					i += 4
					continue
				}
			}
			b.WriteByte('u')
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
