package lisp

import (
	"sync/atomic"

	"github.com/45deg/kantele/symbol"
)

var envCount uint64

func getEnvID() uint {
	return uint(atomic.AddUint64(&envCount, 1))
}

// LEnv is a lexical scope.  Scope is keyed by canonical identifiers (see
// package symbol).  A nil entry in Scope is a name declared by letrec that
// has not been initialized.
type LEnv struct {
	ID      uint
	Scope   map[string]*LVal
	Parent  *LEnv
	Runtime *Runtime
}

// NewEnv initializes and returns a new LEnv.  A root environment (one with
// a nil parent) gets a StandardRuntime.  Child environments share the runtime
// of their parent.
func NewEnv(parent *LEnv) *LEnv {
	var runtime *Runtime
	if parent != nil {
		runtime = parent.Runtime
	} else {
		runtime = StandardRuntime()
	}
	return &LEnv{
		ID:      getEnvID(),
		Scope:   make(map[string]*LVal),
		Parent:  parent,
		Runtime: runtime,
	}
}

// Lookup returns the value bound to key in the nearest enclosing scope.
// Lookup returns false if key is unbound or not yet initialized.
func (env *LEnv) Lookup(key string) (*LVal, bool) {
	for e := env; e != nil; e = e.Parent {
		v, ok := e.Scope[key]
		if ok {
			return v, v != nil
		}
	}
	return nil, false
}

// Get returns the value bound to key in the nearest enclosing scope.  Get
// returns an ErrUnbound error if key is not bound anywhere in the chain.
func (env *LEnv) Get(key string) (*LVal, error) {
	v, ok := env.Lookup(key)
	if !ok {
		if env.Has(key) {
			return nil, env.Errorf(ErrUnbound, "%s: used before initialization", symbol.String(key))
		}
		return nil, env.Errorf(ErrUnbound, "%s", symbol.String(key))
	}
	return v, nil
}

// Put binds key to v in env, replacing any existing binding in env.  Put
// never modifies the parents of env.
func (env *LEnv) Put(key string, v *LVal) {
	if v == nil {
		panic("nil value")
	}
	env.Scope[key] = v
}

// Declare adds key to env without a value.  Reading key fails until it is
// bound with Put.
func (env *LEnv) Declare(key string) {
	env.Scope[key] = nil
}

// Has returns true if key is declared in env or any of its parents.
func (env *LEnv) Has(key string) bool {
	for e := env; e != nil; e = e.Parent {
		if _, ok := e.Scope[key]; ok {
			return true
		}
	}
	return false
}

// PutEntries binds each key of entries in env.
func (env *LEnv) PutEntries(entries map[string]*LVal) {
	for k, v := range entries {
		env.Put(k, v)
	}
}

// PutGlobal binds key to v in the root environment.
func (env *LEnv) PutGlobal(key string, v *LVal) {
	env.root().Put(key, v)
}

func (env *LEnv) root() *LEnv {
	for env.Parent != nil {
		env = env.Parent
	}
	return env
}

// AddBuiltins binds each of funs to the canonical form of its name in env.
func (env *LEnv) AddBuiltins(funs ...LBuiltinDef) {
	for _, f := range funs {
		env.Put(symbol.Canonical(f.Name()), builtinFun(f))
	}
}
