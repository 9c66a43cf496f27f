package lisp

import (
	"fmt"

	"github.com/45deg/kantele/parser/ast"
	"github.com/45deg/kantele/symbol"
)

// Connector is the only capability the evaluator relies on in host values.
// Connect records target as downstream of the receiver.
type Connector interface {
	Connect(target Connector) error
}

// Placeholder is bound to the name of a feedback form while its value
// expression is evaluated.  It records the one node connected to it so that
// the value of the feedback form can later be connected to that node in its
// place.
type Placeholder struct {
	Name string
	// Target is the node connected to the placeholder, nil if none was.
	Target Connector
	// Resolved is the value of the feedback form, which stands upstream of
	// Target once the form has been evaluated.
	Resolved Connector
}

// Connect implements Connector.  A placeholder accepts a single target.
func (p *Placeholder) Connect(target Connector) error {
	if p.Target != nil {
		return Errorf(ErrConnect, "feedback %s: already connected", p.Name)
	}
	p.Target = target
	return nil
}

func (p *Placeholder) String() string {
	return fmt.Sprintf("#<feedback %s>", p.Name)
}

func (env *LEnv) closure(params *ast.Params, body *ast.Body) *LVal {
	formals := make([]string, len(params.Fixed))
	for i, id := range params.Fixed {
		formals[i] = symbol.Canonical(id.Name)
	}
	var rest string
	if params.Rest != nil {
		rest = symbol.Canonical(params.Rest.Name)
	}
	return Lambda(env, formals, rest, body)
}

func (env *LEnv) evalLambda(lambda *ast.Lambda) *LVal {
	return env.closure(lambda.Params, lambda.Body)
}

// evalSet rebinds the name in the current scope.  Bindings in enclosing
// scopes are shadowed, not modified.
func (env *LEnv) evalSet(set *ast.Set) (*LVal, error) {
	v, err := env.Eval(set.Value)
	if err != nil {
		return nil, err
	}
	env.Put(symbol.Canonical(set.Name.Name), v)
	return NoValue(), nil
}

func (env *LEnv) evalLet(let *ast.Let) (*LVal, error) {
	scope := NewEnv(env)
	names := make([]string, len(let.Bindings))
	for i, b := range let.Bindings {
		v, err := env.Eval(b.Init)
		if err != nil {
			return nil, err
		}
		names[i] = symbol.Canonical(b.Name.Name)
		scope.Put(names[i], v)
	}
	if let.Name != nil {
		loop := Lambda(scope, names, "", let.Body)
		loop.FunName = let.Name.Name
		scope.Put(symbol.Canonical(let.Name.Name), loop)
	}
	return scope.evalBody(let.Body)
}

func (env *LEnv) evalLetStar(let *ast.LetStar) (*LVal, error) {
	scope := env
	for _, b := range let.Bindings {
		v, err := scope.Eval(b.Init)
		if err != nil {
			return nil, err
		}
		scope = NewEnv(scope)
		scope.Put(symbol.Canonical(b.Name.Name), v)
	}
	return NewEnv(scope).evalBody(let.Body)
}

func (env *LEnv) evalLetrec(let *ast.Letrec) (*LVal, error) {
	scope := NewEnv(env)
	for _, b := range let.Bindings {
		scope.Declare(symbol.Canonical(b.Name.Name))
	}
	for _, b := range let.Bindings {
		v, err := scope.Eval(b.Init)
		if err != nil {
			return nil, err
		}
		scope.Put(symbol.Canonical(b.Name.Name), v)
	}
	return scope.evalBody(let.Body)
}

func (env *LEnv) evalIf(expr *ast.If) (*LVal, error) {
	cond, err := env.Eval(expr.Cond)
	if err != nil {
		return nil, err
	}
	if cond.IsTrue() {
		return env.Eval(expr.Then)
	}
	if expr.Else == nil {
		return NoValue(), nil
	}
	return env.Eval(expr.Else)
}

func (env *LEnv) evalCond(cond *ast.Cond) (*LVal, error) {
	for _, clause := range cond.Clauses {
		test, err := env.Eval(clause.Test)
		if err != nil {
			return nil, err
		}
		if test.IsTrue() {
			return env.evalSequence(clause.Body)
		}
	}
	return env.evalSequence(cond.Else)
}

// evalAnd evaluates every operand, left to right, and returns the first
// false value or the last value if all are true.
func (env *LEnv) evalAnd(and *ast.And) (*LVal, error) {
	vs, err := env.evalAll(and.Exprs)
	if err != nil {
		return nil, err
	}
	acc := Bool(true)
	for _, v := range vs {
		if acc.IsTrue() {
			acc = v
		}
	}
	return acc, nil
}

// evalOr evaluates every operand, left to right, and returns the first true
// value or the last value if none are true.
func (env *LEnv) evalOr(or *ast.Or) (*LVal, error) {
	vs, err := env.evalAll(or.Exprs)
	if err != nil {
		return nil, err
	}
	acc := Bool(false)
	for _, v := range vs {
		if !acc.IsTrue() {
			acc = v
		}
	}
	return acc, nil
}

// evalDo runs a do loop.  Step expressions are all evaluated before any loop
// variable is rebound.  Variables without a step keep their value.
func (env *LEnv) evalDo(do *ast.Do) (*LVal, error) {
	scope := NewEnv(env)
	names := make([]string, len(do.Vars))
	for i, dv := range do.Vars {
		v, err := env.Eval(dv.Init)
		if err != nil {
			return nil, err
		}
		names[i] = symbol.Canonical(dv.Name.Name)
		scope.Put(names[i], v)
	}
	steps := make([]*LVal, len(do.Vars))
	for {
		test, err := scope.Eval(do.Test)
		if err != nil {
			return nil, err
		}
		if test.IsTrue() {
			break
		}
		_, err = scope.evalBody(do.Body)
		if err != nil {
			return nil, err
		}
		for i, dv := range do.Vars {
			steps[i] = nil
			if dv.Step == nil {
				continue
			}
			steps[i], err = scope.Eval(dv.Step)
			if err != nil {
				return nil, err
			}
		}
		for i, v := range steps {
			if v != nil {
				scope.Put(names[i], v)
			}
		}
	}
	return scope.evalSequence(do.Result)
}

// evalFeedback evaluates the value of a feedback form with the form's name
// bound to a Placeholder.  The value is then connected to whatever node was
// connected to the placeholder, closing the loop.
func (env *LEnv) evalFeedback(fb *ast.Feedback) (*LVal, error) {
	p := &Placeholder{Name: fb.Name.Name}
	scope := NewEnv(env)
	scope.Put(symbol.Canonical(fb.Name.Name), Native(p))
	v, err := scope.Eval(fb.Value)
	if err != nil {
		return nil, err
	}
	c, ok := v.Connector()
	if !ok {
		return nil, env.locate(env.Errorf(ErrConnect, "feedback %s: value is not connectable: %v", p.Name, v), fb.Pos())
	}
	if p.Target != nil {
		err = c.Connect(p.Target)
		if err != nil {
			if _, ok := err.(*ErrorVal); !ok {
				lerr := env.Errorf(ErrConnect, "feedback %s: %v", p.Name, err)
				lerr.Err = err
				err = lerr
			}
			return nil, env.locate(err, fb.Pos())
		}
	}
	p.Resolved = c
	env.Runtime.Logger.Debug("feedback resolved", "name", p.Name, "connected", p.Target != nil)
	return v, nil
}
