package lisp

import (
	"bytes"
	"fmt"
	"io/fs"
	"path"

	"github.com/45deg/kantele/parser/ast"
	"github.com/45deg/kantele/parser/token"
	"github.com/45deg/kantele/symbol"
)

// Evaluate evaluates each form of prog in env and returns the value of the
// last one.  The value of a definition is the symbol it defined.  An empty
// program evaluates to NoValue.
func Evaluate(prog *ast.Program, env *LEnv) (*LVal, error) {
	rt := env.Runtime
	file := rt.File
	rt.File = prog.Name
	defer func() { rt.File = file }()

	rt.Logger.Debug("evaluating program", "file", prog.Name, "forms", len(prog.Forms))
	result := NoValue()
	for _, form := range prog.Forms {
		v, err := env.EvalToplevel(form)
		if err != nil {
			return nil, err
		}
		result = v
	}
	rt.Logger.Debug("evaluated program", "file", prog.Name, "result", result)
	return result, nil
}

// EvalToplevel evaluates a single toplevel form in env.
func (env *LEnv) EvalToplevel(form ast.Toplevel) (*LVal, error) {
	switch form := form.(type) {
	case ast.Define:
		return env.evalDefine(form)
	case *ast.Load:
		return env.evalLoad(form)
	case ast.Expr:
		return env.Eval(form)
	default:
		return nil, env.locate(env.Errorf(ErrSyntax, "unexpected toplevel form %T", form), form.Pos())
	}
}

// Eval evaluates expr in env.
func (env *LEnv) Eval(expr ast.Expr) (*LVal, error) {
	switch expr := expr.(type) {
	case *ast.Const:
		return evalConst(expr), nil
	case *ast.Ident:
		v, err := env.Get(symbol.Canonical(expr.Name))
		if err != nil {
			return nil, env.locate(err, expr.Pos())
		}
		return v, nil
	case *ast.Lambda:
		return env.evalLambda(expr), nil
	case *ast.Quote:
		return Quote(expr.Datum), nil
	case *ast.Set:
		return env.evalSet(expr)
	case *ast.Let:
		return env.evalLet(expr)
	case *ast.LetStar:
		return env.evalLetStar(expr)
	case *ast.Letrec:
		return env.evalLetrec(expr)
	case *ast.If:
		return env.evalIf(expr)
	case *ast.Cond:
		return env.evalCond(expr)
	case *ast.And:
		return env.evalAnd(expr)
	case *ast.Or:
		return env.evalOr(expr)
	case *ast.Begin:
		return env.evalSequence(expr.Exprs)
	case *ast.Do:
		return env.evalDo(expr)
	case *ast.Feedback:
		return env.evalFeedback(expr)
	case *ast.Apply:
		return env.evalApply(expr)
	default:
		return nil, env.locate(env.Errorf(ErrSyntax, "unexpected expression %T", expr), expr.Pos())
	}
}

func evalConst(c *ast.Const) *LVal {
	switch c.Kind {
	case ast.ConstNumber:
		return Number(c.Number)
	case ast.ConstBool:
		return Bool(c.Bool)
	case ast.ConstString:
		return String(c.String)
	default:
		return Nil()
	}
}

// Quote returns the value of the quoted datum d.
func Quote(d ast.Datum) *LVal {
	switch d := d.(type) {
	case *ast.Const:
		return evalConst(d)
	case *ast.Symbol:
		return Symbol(symbol.Canonical(d.Name))
	case *ast.List:
		return List(quoteAll(d.Elems)...)
	case *ast.Dotted:
		return ListTail(quoteAll(d.Elems), Quote(d.Tail))
	default:
		panic(fmt.Sprintf("unknown datum: %T", d))
	}
}

func quoteAll(ds []ast.Datum) []*LVal {
	vs := make([]*LVal, len(ds))
	for i := range ds {
		vs[i] = Quote(ds[i])
	}
	return vs
}

func (env *LEnv) evalDefine(def ast.Define) (*LVal, error) {
	key := symbol.Canonical(def.DefinedName().Name)
	switch def := def.(type) {
	case *ast.DefineSimple:
		v, err := env.Eval(def.Value)
		if err != nil {
			return nil, err
		}
		env.Put(key, v)
	case *ast.DefineFunction:
		fun := env.closure(def.Params, def.Body)
		fun.FunName = def.Name.Name
		env.Put(key, fun)
	}
	return Symbol(key), nil
}

func (env *LEnv) evalLoad(load *ast.Load) (*LVal, error) {
	rt := env.Runtime
	if rt.Reader == nil {
		return nil, env.locate(env.Errorf(ErrLoad, "%s: no reader configured", load.Path), load.Pos())
	}
	if rt.FS == nil {
		return nil, env.locate(env.Errorf(ErrLoad, "%s: no file system configured", load.Path), load.Pos())
	}
	name := path.Clean(load.Path)
	src, err := fs.ReadFile(rt.FS, name)
	if err != nil {
		lerr := env.Errorf(ErrLoad, "%v", err)
		lerr.Err = err
		return nil, env.locate(lerr, load.Pos())
	}
	prog, err := rt.Reader.Read(name, bytes.NewReader(src))
	if err != nil {
		lerr := env.Errorf(ErrLoad, "%v", err)
		lerr.Err = err
		return nil, env.locate(lerr, load.Pos())
	}
	rt.Logger.Debug("load", "file", name)
	return Evaluate(prog, env.root())
}

// evalBody evaluates the definitions of body followed by its expressions in
// env.  A body without expressions evaluates to NoValue.
func (env *LEnv) evalBody(body *ast.Body) (*LVal, error) {
	for _, def := range body.Defines {
		_, err := env.evalDefine(def)
		if err != nil {
			return nil, err
		}
	}
	return env.evalSequence(body.Exprs)
}

func (env *LEnv) evalSequence(exprs []ast.Expr) (*LVal, error) {
	result := NoValue()
	for _, expr := range exprs {
		v, err := env.Eval(expr)
		if err != nil {
			return nil, err
		}
		result = v
	}
	return result, nil
}

func (env *LEnv) evalAll(exprs []ast.Expr) ([]*LVal, error) {
	vs := make([]*LVal, len(exprs))
	for i, expr := range exprs {
		v, err := env.Eval(expr)
		if err != nil {
			return nil, err
		}
		vs[i] = v
	}
	return vs, nil
}

func (env *LEnv) evalApply(app *ast.Apply) (*LVal, error) {
	fun, err := env.Eval(app.Operator)
	if err != nil {
		return nil, err
	}
	args, err := env.evalAll(app.Operands)
	if err != nil {
		return nil, err
	}
	return env.call(fun, args, app.Pos())
}

// Call invokes fun with args.
func (env *LEnv) Call(fun *LVal, args ...*LVal) (*LVal, error) {
	return env.call(fun, args, -1)
}

func (env *LEnv) call(fun *LVal, args []*LVal, pos int) (*LVal, error) {
	if fun.Type != LFun {
		return nil, env.locate(env.Errorf(ErrNotFunction, "%v", fun), pos)
	}
	var src *token.Location
	if pos >= 0 {
		src = &token.Location{File: env.Runtime.File, Pos: pos}
	}
	name := fun.FunName
	if name == "" {
		name = "lambda"
	}
	stack := env.Runtime.Stack
	if err := stack.Push(name, src); err != nil {
		return nil, env.locate(err, pos)
	}
	defer stack.Pop()

	var v *LVal
	var err error
	if fun.Builtin != nil {
		v, err = fun.Builtin(env, args)
	} else {
		v, err = fun.apply(args)
	}
	if err != nil {
		return nil, env.locate(err, pos)
	}
	return v, nil
}

// apply binds args to the formals of the closure fun in a new scope chained
// to the scope fun was created in, and evaluates the body of fun there.
func (fun *LVal) apply(args []*LVal) (*LVal, error) {
	scope := NewEnv(fun.Env)
	if fun.Rest == "" {
		if len(args) != len(fun.Formals) {
			return nil, scope.Errorf(ErrArity, "%s: expected %d arguments (got %d)", fun, len(fun.Formals), len(args))
		}
	} else if len(args) < len(fun.Formals) {
		return nil, scope.Errorf(ErrInsufficient, "%s: expected at least %d arguments (got %d)", fun, len(fun.Formals), len(args))
	}
	for i, name := range fun.Formals {
		scope.Put(name, args[i])
	}
	if fun.Rest != "" {
		scope.Put(fun.Rest, List(args[len(fun.Formals):]...))
	}
	return scope.evalBody(fun.Body)
}
