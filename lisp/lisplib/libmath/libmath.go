// Package libmath binds numeric functions over the number type.
package libmath

import (
	"math"

	"github.com/45deg/kantele/lisp"
	"github.com/45deg/kantele/lisp/lisplib/internal/libutil"
)

// LoadPackage adds the math functions to env
func LoadPackage(env *lisp.LEnv) error {
	env.PutGlobal("pi", lisp.Number(math.Pi))
	env.PutGlobal("inf", lisp.Number(math.Inf(1)))
	libutil.AddBuiltins(env, builtins)
	return nil
}

var builtins = []*libutil.Builtin{
	libutil.Function("ceil", lisp.Formals("number"), unary("ceil", math.Ceil)),
	libutil.Function("floor", lisp.Formals("number"), unary("floor", math.Floor)),
	libutil.Function("round", lisp.Formals("number"), unary("round", math.RoundToEven)),
	libutil.Function("truncate", lisp.Formals("number"), unary("truncate", math.Trunc)),
	libutil.Function("abs", lisp.Formals("number"), unary("abs", math.Abs)),
	libutil.Function("sqrt", lisp.Formals("number"), unary("sqrt", math.Sqrt)),
	libutil.Function("exp", lisp.Formals("number"), unary("exp", math.Exp)),
	libutil.Function("sin", lisp.Formals("number"), unary("sin", math.Sin)),
	libutil.Function("cos", lisp.Formals("number"), unary("cos", math.Cos)),
	libutil.Function("tan", lisp.Formals("number"), unary("tan", math.Tan)),
	libutil.Function("log", lisp.Formals("number", lisp.VarArgSymbol, "base"), builtinLog),
	libutil.Function("expt", lisp.Formals("base", "power"), builtinExpt),
	libutil.Function("modulo", lisp.Formals("a", "b"), builtinModulo),
	libutil.Function("remainder", lisp.Formals("a", "b"), builtinRemainder),
	libutil.Function("min", lisp.Formals("number", lisp.VarArgSymbol, "numbers"), fold("min", math.Min)),
	libutil.Function("max", lisp.Formals("number", lisp.VarArgSymbol, "numbers"), fold("max", math.Max)),
	libutil.Function("zero?", lisp.Formals("number"), predicate("zero?", func(x float64) bool { return x == 0 })),
	libutil.Function("positive?", lisp.Formals("number"), predicate("positive?", func(x float64) bool { return x > 0 })),
	libutil.Function("negative?", lisp.Formals("number"), predicate("negative?", func(x float64) bool { return x < 0 })),
	libutil.Function("even?", lisp.Formals("number"), predicate("even?", func(x float64) bool { return math.Mod(x, 2) == 0 })),
	libutil.Function("odd?", lisp.Formals("number"), predicate("odd?", func(x float64) bool { return math.Abs(math.Mod(x, 2)) == 1 })),
}

func unary(name string, fn func(float64) float64) lisp.LBuiltin {
	return func(env *lisp.LEnv, args []*lisp.LVal) (*lisp.LVal, error) {
		x, err := lisp.NumberArg(env, name, args, 0)
		if err != nil {
			return nil, err
		}
		return lisp.Number(fn(x)), nil
	}
}

func predicate(name string, fn func(float64) bool) lisp.LBuiltin {
	return func(env *lisp.LEnv, args []*lisp.LVal) (*lisp.LVal, error) {
		x, err := lisp.NumberArg(env, name, args, 0)
		if err != nil {
			return nil, err
		}
		return lisp.Bool(fn(x)), nil
	}
}

func fold(name string, fn func(a, b float64) float64) lisp.LBuiltin {
	return func(env *lisp.LEnv, args []*lisp.LVal) (*lisp.LVal, error) {
		acc, err := lisp.NumberArg(env, name, args, 0)
		if err != nil {
			return nil, err
		}
		for i := 1; i < len(args); i++ {
			x, err := lisp.NumberArg(env, name, args, i)
			if err != nil {
				return nil, err
			}
			acc = fn(acc, x)
		}
		return lisp.Number(acc), nil
	}
}

func binary(env *lisp.LEnv, name string, args []*lisp.LVal) (a, b float64, err error) {
	a, err = lisp.NumberArg(env, name, args, 0)
	if err != nil {
		return 0, 0, err
	}
	b, err = lisp.NumberArg(env, name, args, 1)
	if err != nil {
		return 0, 0, err
	}
	return a, b, nil
}

// builtinLog computes the natural logarithm of its argument, or the logarithm
// in the given base when a second argument is supplied.
func builtinLog(env *lisp.LEnv, args []*lisp.LVal) (*lisp.LVal, error) {
	x, err := lisp.NumberArg(env, "log", args, 0)
	if err != nil {
		return nil, err
	}
	switch len(args) {
	case 1:
		return lisp.Number(math.Log(x)), nil
	case 2:
		b, err := lisp.NumberArg(env, "log", args, 1)
		if err != nil {
			return nil, err
		}
		if b == 2 {
			return lisp.Number(math.Log2(x)), nil
		}
		if b == 10 {
			return lisp.Number(math.Log10(x)), nil
		}
		return lisp.Number(math.Log(x) / math.Log(b)), nil
	default:
		return nil, env.Errorf(lisp.ErrArity, "log: expected at most 2 arguments (got %d)", len(args))
	}
}

func builtinExpt(env *lisp.LEnv, args []*lisp.LVal) (*lisp.LVal, error) {
	b, p, err := binary(env, "expt", args)
	if err != nil {
		return nil, err
	}
	return lisp.Number(math.Pow(b, p)), nil
}

// builtinModulo returns a result with the sign of the divisor.
func builtinModulo(env *lisp.LEnv, args []*lisp.LVal) (*lisp.LVal, error) {
	a, b, err := binary(env, "modulo", args)
	if err != nil {
		return nil, err
	}
	if b == 0 {
		return nil, env.Errorf(lisp.ErrType, "modulo: division by zero")
	}
	r := math.Mod(a, b)
	if r != 0 && (r < 0) != (b < 0) {
		r += b
	}
	return lisp.Number(r), nil
}

func builtinRemainder(env *lisp.LEnv, args []*lisp.LVal) (*lisp.LVal, error) {
	a, b, err := binary(env, "remainder", args)
	if err != nil {
		return nil, err
	}
	if b == 0 {
		return nil, env.Errorf(lisp.ErrType, "remainder: division by zero")
	}
	return lisp.Number(math.Mod(a, b)), nil
}
