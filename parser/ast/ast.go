// Package ast declares the syntax tree produced by the kantele grammar.
//
// The tree is a closed set of node types.  Each of the interfaces Toplevel,
// Define, Expr and Datum is implemented only by types in this package so that
// consumers can switch over them exhaustively.  Nodes are immutable once
// parsed.
package ast

// Node is implemented by every syntax tree node.
type Node interface {
	// Pos returns the byte offset of the node in its source text.
	Pos() int
}

// Toplevel is a form that may appear at the top level of a program: a
// Define, a *Load directive or an Expr.
type Toplevel interface {
	Node
	toplevel()
}

// Define is a *DefineSimple or a *DefineFunction.
type Define interface {
	Toplevel
	// DefinedName returns the identifier being defined.
	DefinedName() *Ident
	define()
}

// Expr is an evaluable expression.
type Expr interface {
	Toplevel
	expr()
}

// Datum is the quoted s-expression data of a *Quote: a *Const, *Symbol,
// *List or *Dotted.
type Datum interface {
	Node
	datum()
}

// Position is embedded in nodes to implement Node.
type Position struct {
	Offset int
}

// Pos implements Node.
func (p Position) Pos() int { return p.Offset }

// Program is a parsed source text.  Name identifies the source, typically a
// file path, and may be empty.
type Program struct {
	Position
	Name  string
	Forms []Toplevel
}

// DefineSimple binds the value of an expression: (define name value)
type DefineSimple struct {
	Position
	Name  *Ident
	Value Expr
}

// DefineFunction binds a function: (define (name param ... [. rest]) body)
type DefineFunction struct {
	Position
	Name   *Ident
	Params *Params
	Body   *Body
}

// Load is the directive (load "path").
type Load struct {
	Position
	Path string
}

// ConstKind distinguishes literal constants.
type ConstKind uint

// Possible ConstKind values
const (
	ConstNumber ConstKind = iota
	ConstBool
	ConstString
	ConstEmptyList
)

var constKindStrings = []string{
	ConstNumber:    "number",
	ConstBool:      "boolean",
	ConstString:    "string",
	ConstEmptyList: "empty-list",
}

func (k ConstKind) String() string {
	if int(k) >= len(constKindStrings) {
		return "INVALID"
	}
	return constKindStrings[k]
}

// Const is a literal.  Only the field corresponding to Kind is meaningful.
type Const struct {
	Position
	Kind   ConstKind
	Number float64
	Bool   bool
	String string
}

// Ident is an identifier as written in source.
type Ident struct {
	Position
	Name string
}

// ParamsKind is the shape of a parameter list.
type ParamsKind uint

// Possible ParamsKind values
const (
	// ParamsSingle is a lone identifier that collects all arguments.
	ParamsSingle ParamsKind = iota
	// ParamsRest is (fixed ... . rest).
	ParamsRest
	// ParamsList is (fixed ...).
	ParamsList
)

// Params is a function parameter list.  Rest is nil for ParamsList.
type Params struct {
	Position
	Kind  ParamsKind
	Fixed []*Ident
	Rest  *Ident
}

// Body is a sequence of internal definitions followed by expressions.
type Body struct {
	Position
	Defines []Define
	Exprs   []Expr
}

// Binding is a (name init) pair of a let form.
type Binding struct {
	Position
	Name *Ident
	Init Expr
}

// Lambda is (lambda params body).
type Lambda struct {
	Position
	Params *Params
	Body   *Body
}

// Quote is (quote datum) or 'datum.
type Quote struct {
	Position
	Datum Datum
}

// Set is (set! name value).
type Set struct {
	Position
	Name  *Ident
	Value Expr
}

// Let is (let [name] bindings body).  Name is nil for an unnamed let.
type Let struct {
	Position
	Name     *Ident
	Bindings []*Binding
	Body     *Body
}

// LetStar is (let* bindings body).
type LetStar struct {
	Position
	Bindings []*Binding
	Body     *Body
}

// Letrec is (letrec bindings body).
type Letrec struct {
	Position
	Bindings []*Binding
	Body     *Body
}

// If is (if cond then [else]).  Else is nil when absent.
type If struct {
	Position
	Cond Expr
	Then Expr
	Else Expr
}

// CondClause is a (test expr ...) clause of a cond form.
type CondClause struct {
	Position
	Test Expr
	Body []Expr
}

// Cond is (cond clause ... [(else expr ...)]).  Else is nil when absent.
type Cond struct {
	Position
	Clauses []*CondClause
	Else    []Expr
}

// And is (and expr ...).
type And struct {
	Position
	Exprs []Expr
}

// Or is (or expr ...).
type Or struct {
	Position
	Exprs []Expr
}

// Begin is (begin expr ...).
type Begin struct {
	Position
	Exprs []Expr
}

// DoVar is a (name init [step]) clause of a do loop.  Step is nil when
// absent.
type DoVar struct {
	Position
	Name *Ident
	Init Expr
	Step Expr
}

// Do is (do (var ...) (test result ...) body).
type Do struct {
	Position
	Vars   []*DoVar
	Test   Expr
	Result []Expr
	Body   *Body
}

// Feedback is (feedback name value).
type Feedback struct {
	Position
	Name  *Ident
	Value Expr
}

// Apply is a procedure call (operator operand ...).
type Apply struct {
	Position
	Operator Expr
	Operands []Expr
}

// Symbol is an identifier inside quoted data.
type Symbol struct {
	Position
	Name string
}

// List is a proper list datum (datum ...).
type List struct {
	Position
	Elems []Datum
}

// Dotted is an improper list datum (datum ... . tail).
type Dotted struct {
	Position
	Elems []Datum
	Tail  Datum
}

func (*DefineSimple) toplevel()   {}
func (*DefineFunction) toplevel() {}
func (*Load) toplevel()           {}
func (*Const) toplevel()          {}
func (*Ident) toplevel()          {}
func (*Lambda) toplevel()         {}
func (*Quote) toplevel()          {}
func (*Set) toplevel()            {}
func (*Let) toplevel()            {}
func (*LetStar) toplevel()        {}
func (*Letrec) toplevel()         {}
func (*If) toplevel()             {}
func (*Cond) toplevel()           {}
func (*And) toplevel()            {}
func (*Or) toplevel()             {}
func (*Begin) toplevel()          {}
func (*Do) toplevel()             {}
func (*Feedback) toplevel()       {}
func (*Apply) toplevel()          {}

func (*DefineSimple) define()   {}
func (*DefineFunction) define() {}

// DefinedName implements Define.
func (d *DefineSimple) DefinedName() *Ident { return d.Name }

// DefinedName implements Define.
func (d *DefineFunction) DefinedName() *Ident { return d.Name }

func (*Const) expr()    {}
func (*Ident) expr()    {}
func (*Lambda) expr()   {}
func (*Quote) expr()    {}
func (*Set) expr()      {}
func (*Let) expr()      {}
func (*LetStar) expr()  {}
func (*Letrec) expr()   {}
func (*If) expr()       {}
func (*Cond) expr()     {}
func (*And) expr()      {}
func (*Or) expr()       {}
func (*Begin) expr()    {}
func (*Do) expr()       {}
func (*Feedback) expr() {}
func (*Apply) expr()    {}

func (*Const) datum()  {}
func (*Symbol) datum() {}
func (*List) datum()   {}
func (*Dotted) datum() {}
