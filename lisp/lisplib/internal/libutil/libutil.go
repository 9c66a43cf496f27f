// Package libutil contains helpers shared by the library packages.
package libutil

import "github.com/45deg/kantele/lisp"

// Builtin is a lisp.LBuiltinDef defined by a library package.
type Builtin struct {
	name    string
	formals []string
	fun     lisp.LBuiltin
}

// Function returns a Builtin bound to name.
func Function(name string, formals []string, fn lisp.LBuiltin) *Builtin {
	return &Builtin{name, formals, fn}
}

// Name implements lisp.LBuiltinDef.
func (fun *Builtin) Name() string {
	return fun.name
}

// Formals implements lisp.LBuiltinDef.
func (fun *Builtin) Formals() []string {
	return fun.formals
}

// Eval implements lisp.LBuiltinDef.
func (fun *Builtin) Eval(env *lisp.LEnv, args []*lisp.LVal) (*lisp.LVal, error) {
	return fun.fun(env, args)
}

// AddBuiltins binds each of funs in the root of env.
func AddBuiltins(env *lisp.LEnv, funs []*Builtin) {
	defs := make([]lisp.LBuiltinDef, len(funs))
	for i := range funs {
		defs[i] = funs[i]
	}
	for env.Parent != nil {
		env = env.Parent
	}
	env.AddBuiltins(defs...)
}
