package lisp

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/45deg/kantele/symbol"
)

// VarArgSymbol marks the final entry in a formal argument list as collecting
// any remaining arguments.
const VarArgSymbol = "&rest"

// Formals returns a formal argument list for a builtin.
func Formals(argSymbols ...string) []string {
	return argSymbols
}

// LBuiltinDef is a built-in function
type LBuiltinDef interface {
	Name() string
	Formals() []string
	Eval(env *LEnv, args []*LVal) (*LVal, error)
}

type langBuiltin struct {
	name    string
	formals []string
	fun     LBuiltin
}

func (fun *langBuiltin) Name() string {
	return fun.name
}

func (fun *langBuiltin) Formals() []string {
	return fun.formals
}

func (fun *langBuiltin) Eval(env *LEnv, args []*LVal) (*LVal, error) {
	return fun.fun(env, args)
}

// builtinFun returns a function value for f that checks the number of
// arguments against its formals before calling it.
func builtinFun(f LBuiltinDef) *LVal {
	formals := f.Formals()
	nfixed, variadic := len(formals), false
	for i, s := range formals {
		if s == VarArgSymbol {
			nfixed, variadic = i, true
			break
		}
	}
	name := f.Name()
	return Fun(name, func(env *LEnv, args []*LVal) (*LVal, error) {
		switch {
		case !variadic && len(args) != nfixed:
			return nil, env.Errorf(ErrArity, "%s: expected %d arguments (got %d)", name, nfixed, len(args))
		case len(args) < nfixed:
			return nil, env.Errorf(ErrInsufficient, "%s: expected at least %d arguments (got %d)", name, nfixed, len(args))
		}
		return f.Eval(env, args)
	})
}

var userBuiltins []*langBuiltin
var langBuiltins = []*langBuiltin{
	{"+", Formals(VarArgSymbol, "x"), builtinAdd},
	{"-", Formals("x", VarArgSymbol, "rest"), builtinSub},
	{"*", Formals(VarArgSymbol, "x"), builtinMul},
	{"/", Formals("x", VarArgSymbol, "rest"), builtinDiv},
	{"=", Formals("x", VarArgSymbol, "rest"), compareNumbers("=", func(a, b float64) bool { return a == b })},
	{"<", Formals("x", VarArgSymbol, "rest"), compareNumbers("<", func(a, b float64) bool { return a < b })},
	{"<=", Formals("x", VarArgSymbol, "rest"), compareNumbers("<=", func(a, b float64) bool { return a <= b })},
	{">", Formals("x", VarArgSymbol, "rest"), compareNumbers(">", func(a, b float64) bool { return a > b })},
	{">=", Formals("x", VarArgSymbol, "rest"), compareNumbers(">=", func(a, b float64) bool { return a >= b })},
	{"number?", Formals("obj"), typePredicate(LNumber)},
	{"null?", Formals("obj"), typePredicate(LNil)},
	{"pair?", Formals("obj"), typePredicate(LPair)},
	{"list?", Formals("obj"), builtinListP},
	{"symbol?", Formals("obj"), typePredicate(LSymbol)},
	{"boolean?", Formals("obj"), typePredicate(LBool)},
	{"string?", Formals("obj"), typePredicate(LString)},
	{"procedure?", Formals("obj"), typePredicate(LFun)},
	{"car", Formals("pair"), builtinCAR},
	{"cdr", Formals("pair"), builtinCDR},
	{"cons", Formals("head", "tail"), builtinCons},
	{"list", Formals(VarArgSymbol, "args"), builtinList},
	{"length", Formals("lis"), builtinLength},
	{"memq", Formals("obj", "lis"), builtinMemq},
	{"eq?", Formals("a", "b"), builtinEqP},
	{"neq?", Formals("a", "b"), builtinNeqP},
	{"equal?", Formals("a", "b"), builtinEqualP},
	{"last", Formals("lis"), builtinLast},
	{"append", Formals(VarArgSymbol, "lists"), builtinAppend},
	{"set-car!", Formals("pair", "obj"), builtinSetCAR},
	{"set-cdr!", Formals("pair", "obj"), builtinSetCDR},
	{"reverse", Formals("lis"), builtinReverse},
	{"not", Formals("obj"), builtinNot},
	{"string->symbol", Formals("str"), builtinStringToSymbol},
	{"symbol->string", Formals("sym"), builtinSymbolToString},
	{"string->number", Formals("str"), builtinStringToNumber},
	{"number->string", Formals("num"), builtinNumberToString},
	{"apply", Formals("fn", VarArgSymbol, "args"), builtinApply},
	{"map", Formals("fn", "lis", VarArgSymbol, "lists"), builtinMap},
	{"for-each", Formals("fn", "lis", VarArgSymbol, "lists"), builtinForEach},
	{"display", Formals("obj"), builtinDisplay},
	{"newline", Formals(), builtinNewline},
	{"error", Formals("message", VarArgSymbol, "irritants"), builtinError},
	{"debug-stack", Formals(), builtinDebugStack},
}

// RegisterDefaultBuiltin adds the given function to the list returned by
// DefaultBuiltins.
func RegisterDefaultBuiltin(name string, formals []string, fn LBuiltin) {
	userBuiltins = append(userBuiltins, &langBuiltin{name, formals, fn})
}

// DefaultBuiltins returns the default set of LBuiltinDefs bound by
// InitializeUserEnv.
func DefaultBuiltins() []LBuiltinDef {
	ops := make([]LBuiltinDef, 0, len(langBuiltins)+len(userBuiltins))
	for i := range langBuiltins {
		ops = append(ops, langBuiltins[i])
	}
	for i := range userBuiltins {
		ops = append(ops, userBuiltins[i])
	}
	return ops
}

// NumberArg returns the value of args[i] or an ErrType error if it is not a
// number.
func NumberArg(env *LEnv, name string, args []*LVal, i int) (float64, error) {
	if args[i].Type != LNumber {
		return 0, env.Errorf(ErrType, "%s: argument %d is not a number: %v", name, i+1, args[i])
	}
	return args[i].Num, nil
}

func numberArgs(env *LEnv, name string, args []*LVal) ([]float64, error) {
	xs := make([]float64, len(args))
	for i := range args {
		x, err := NumberArg(env, name, args, i)
		if err != nil {
			return nil, err
		}
		xs[i] = x
	}
	return xs, nil
}

func builtinAdd(env *LEnv, args []*LVal) (*LVal, error) {
	xs, err := numberArgs(env, "+", args)
	if err != nil {
		return nil, err
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return Number(sum), nil
}

func builtinSub(env *LEnv, args []*LVal) (*LVal, error) {
	xs, err := numberArgs(env, "-", args)
	if err != nil {
		return nil, err
	}
	if len(xs) == 1 {
		return Number(-xs[0]), nil
	}
	diff := xs[0]
	for _, x := range xs[1:] {
		diff -= x
	}
	return Number(diff), nil
}

func builtinMul(env *LEnv, args []*LVal) (*LVal, error) {
	xs, err := numberArgs(env, "*", args)
	if err != nil {
		return nil, err
	}
	prod := 1.0
	for _, x := range xs {
		prod *= x
	}
	return Number(prod), nil
}

func builtinDiv(env *LEnv, args []*LVal) (*LVal, error) {
	xs, err := numberArgs(env, "/", args)
	if err != nil {
		return nil, err
	}
	if len(xs) == 1 {
		return Number(1 / xs[0]), nil
	}
	quo := xs[0]
	for _, x := range xs[1:] {
		quo /= x
	}
	return Number(quo), nil
}

// compareNumbers returns a builtin that is true when cmp holds for every
// adjacent pair of its arguments.
func compareNumbers(name string, cmp func(a, b float64) bool) LBuiltin {
	return func(env *LEnv, args []*LVal) (*LVal, error) {
		xs, err := numberArgs(env, name, args)
		if err != nil {
			return nil, err
		}
		for i := 1; i < len(xs); i++ {
			if !cmp(xs[i-1], xs[i]) {
				return Bool(false), nil
			}
		}
		return Bool(true), nil
	}
}

func typePredicate(t LType) LBuiltin {
	return func(env *LEnv, args []*LVal) (*LVal, error) {
		return Bool(args[0].Type == t), nil
	}
}

func builtinListP(env *LEnv, args []*LVal) (*LVal, error) {
	return Bool(args[0].IsList()), nil
}

func pairArg(env *LEnv, name string, v *LVal) error {
	if v.Type != LPair {
		return env.Errorf(ErrType, "%s: not a pair: %v", name, v)
	}
	return nil
}

// listArg returns the elements of the proper list v.
func listArg(env *LEnv, name string, v *LVal) ([]*LVal, error) {
	elems, tail, ok := v.Elements()
	if !ok || !tail.IsNil() {
		return nil, env.Errorf(ErrType, "%s: not a list: %v", name, v)
	}
	return elems, nil
}

func builtinCAR(env *LEnv, args []*LVal) (*LVal, error) {
	if err := pairArg(env, "car", args[0]); err != nil {
		return nil, err
	}
	return args[0].Car(), nil
}

func builtinCDR(env *LEnv, args []*LVal) (*LVal, error) {
	if err := pairArg(env, "cdr", args[0]); err != nil {
		return nil, err
	}
	return args[0].Cdr(), nil
}

func builtinCons(env *LEnv, args []*LVal) (*LVal, error) {
	return Cons(args[0], args[1]), nil
}

func builtinList(env *LEnv, args []*LVal) (*LVal, error) {
	return List(args...), nil
}

func builtinLength(env *LEnv, args []*LVal) (*LVal, error) {
	elems, err := listArg(env, "length", args[0])
	if err != nil {
		return nil, err
	}
	return Number(float64(len(elems))), nil
}

func builtinMemq(env *LEnv, args []*LVal) (*LVal, error) {
	if _, err := listArg(env, "memq", args[1]); err != nil {
		return nil, err
	}
	for lis := args[1]; lis.Type == LPair; lis = lis.Cdr() {
		if Eq(lis.Car(), args[0]) {
			return lis, nil
		}
	}
	return Bool(false), nil
}

func builtinEqP(env *LEnv, args []*LVal) (*LVal, error) {
	return Bool(Eq(args[0], args[1])), nil
}

func builtinNeqP(env *LEnv, args []*LVal) (*LVal, error) {
	return Bool(!Eq(args[0], args[1])), nil
}

func builtinEqualP(env *LEnv, args []*LVal) (*LVal, error) {
	return Bool(Equal(args[0], args[1])), nil
}

func builtinLast(env *LEnv, args []*LVal) (*LVal, error) {
	elems, _, ok := args[0].Elements()
	if !ok || len(elems) == 0 {
		return nil, env.Errorf(ErrType, "last: not a list: %v", args[0])
	}
	return elems[len(elems)-1], nil
}

// builtinAppend copies every argument but the last, which must be lists.
// The final argument becomes the tail of the result.
func builtinAppend(env *LEnv, args []*LVal) (*LVal, error) {
	if len(args) == 0 {
		return Nil(), nil
	}
	var elems []*LVal
	for _, arg := range args[:len(args)-1] {
		es, err := listArg(env, "append", arg)
		if err != nil {
			return nil, err
		}
		elems = append(elems, es...)
	}
	return ListTail(elems, args[len(args)-1]), nil
}

func builtinSetCAR(env *LEnv, args []*LVal) (*LVal, error) {
	if err := pairArg(env, "set-car!", args[0]); err != nil {
		return nil, err
	}
	args[0].Cells[0] = args[1]
	return NoValue(), nil
}

func builtinSetCDR(env *LEnv, args []*LVal) (*LVal, error) {
	if err := pairArg(env, "set-cdr!", args[0]); err != nil {
		return nil, err
	}
	args[0].Cells[1] = args[1]
	return NoValue(), nil
}

func builtinReverse(env *LEnv, args []*LVal) (*LVal, error) {
	elems, err := listArg(env, "reverse", args[0])
	if err != nil {
		return nil, err
	}
	rev := Nil()
	for _, e := range elems {
		rev = Cons(e, rev)
	}
	return rev, nil
}

func builtinNot(env *LEnv, args []*LVal) (*LVal, error) {
	return Bool(!args[0].IsTrue()), nil
}

func builtinStringToSymbol(env *LEnv, args []*LVal) (*LVal, error) {
	if args[0].Type != LString {
		return nil, env.Errorf(ErrType, "string->symbol: not a string: %v", args[0])
	}
	return Symbol(symbol.Canonical(args[0].Str)), nil
}

func builtinSymbolToString(env *LEnv, args []*LVal) (*LVal, error) {
	if args[0].Type != LSymbol {
		return nil, env.Errorf(ErrType, "symbol->string: not a symbol: %v", args[0])
	}
	return String(symbol.String(args[0].Str)), nil
}

var numberRegexp = regexp.MustCompile(`^[-+]?(?:[0-9]*\.?[0-9]+|[0-9]+\.)(?:[eE][-+]?[0-9]+)?$`)

// builtinStringToNumber returns #f for strings that are not number literals.
func builtinStringToNumber(env *LEnv, args []*LVal) (*LVal, error) {
	if args[0].Type != LString {
		return nil, env.Errorf(ErrType, "string->number: not a string: %v", args[0])
	}
	s := strings.TrimSpace(args[0].Str)
	if !numberRegexp.MatchString(s) {
		return Bool(false), nil
	}
	x, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Bool(false), nil
	}
	return Number(x), nil
}

func builtinNumberToString(env *LEnv, args []*LVal) (*LVal, error) {
	x, err := NumberArg(env, "number->string", args, 0)
	if err != nil {
		return nil, err
	}
	return String(FormatNumber(x)), nil
}

// builtinApply calls fn with its remaining arguments, the last of which is a
// list that is spread.
func builtinApply(env *LEnv, args []*LVal) (*LVal, error) {
	fn, rest := args[0], args[1:]
	if len(rest) == 0 {
		return env.Call(fn)
	}
	spread, err := listArg(env, "apply", rest[len(rest)-1])
	if err != nil {
		return nil, err
	}
	callArgs := append(append([]*LVal{}, rest[:len(rest)-1]...), spread...)
	return env.Call(fn, callArgs...)
}

// mapLists calls fn on the i-th elements of each list for i up to the length
// of the shortest list.
func mapLists(env *LEnv, name string, fn *LVal, lists []*LVal, collect bool) (*LVal, error) {
	cols := make([][]*LVal, len(lists))
	n := -1
	for i, lis := range lists {
		elems, err := listArg(env, name, lis)
		if err != nil {
			return nil, err
		}
		cols[i] = elems
		if n < 0 || len(elems) < n {
			n = len(elems)
		}
	}
	var results []*LVal
	for i := 0; i < n; i++ {
		callArgs := make([]*LVal, len(cols))
		for j := range cols {
			callArgs[j] = cols[j][i]
		}
		v, err := env.Call(fn, callArgs...)
		if err != nil {
			return nil, err
		}
		if collect {
			results = append(results, v)
		}
	}
	if !collect {
		return NoValue(), nil
	}
	return List(results...), nil
}

func builtinMap(env *LEnv, args []*LVal) (*LVal, error) {
	return mapLists(env, "map", args[0], args[1:], true)
}

func builtinForEach(env *LEnv, args []*LVal) (*LVal, error) {
	return mapLists(env, "for-each", args[0], args[1:], false)
}

func builtinDisplay(env *LEnv, args []*LVal) (*LVal, error) {
	_, err := fmt.Fprint(env.Runtime.Stdout, args[0].Display())
	if err != nil {
		return nil, err
	}
	return NoValue(), nil
}

func builtinNewline(env *LEnv, args []*LVal) (*LVal, error) {
	_, err := fmt.Fprintln(env.Runtime.Stdout)
	if err != nil {
		return nil, err
	}
	return NoValue(), nil
}

// builtinError raises a user error.  A symbol in place of the message names
// the error and is followed by the message.
func builtinError(env *LEnv, args []*LVal) (*LVal, error) {
	var buf bytes.Buffer
	for i, arg := range args {
		if i > 0 {
			if i == 1 && args[0].Type == LSymbol {
				buf.WriteString(": ")
			} else {
				buf.WriteString(" ")
			}
		}
		buf.WriteString(arg.Display())
	}
	return nil, env.Errorf(ErrUser, "%s", buf.String())
}

func builtinDebugStack(env *LEnv, args []*LVal) (*LVal, error) {
	_, err := env.Runtime.Stack.DebugPrint(env.Runtime.Stdout)
	if err != nil {
		return nil, err
	}
	return NoValue(), nil
}
