package libstring

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/45deg/kantele/lisp"
	"github.com/45deg/kantele/lisp/lisplib/internal/libutil"
)

// LoadPackage adds the string functions to env
func LoadPackage(env *lisp.LEnv) error {
	libutil.AddBuiltins(env, builtins)
	return nil
}

var builtins = []*libutil.Builtin{
	libutil.Function("string-append", lisp.Formals(lisp.VarArgSymbol, "strings"), builtinAppend),
	libutil.Function("string-length", lisp.Formals("string"), builtinLength),
	libutil.Function("substring", lisp.Formals("string", "start", lisp.VarArgSymbol, "end"), builtinSubstring),
	libutil.Function("string=?", lisp.Formals("a", "b"), compareStrings("string=?", func(c int) bool { return c == 0 })),
	libutil.Function("string<?", lisp.Formals("a", "b"), compareStrings("string<?", func(c int) bool { return c < 0 })),
	libutil.Function("string>?", lisp.Formals("a", "b"), compareStrings("string>?", func(c int) bool { return c > 0 })),
	libutil.Function("string-upcase", lisp.Formals("string"), mapString("string-upcase", strings.ToUpper)),
	libutil.Function("string-downcase", lisp.Formals("string"), mapString("string-downcase", strings.ToLower)),
	libutil.Function("format", lisp.Formals("format-string", lisp.VarArgSymbol, "values"), builtinFormat),
}

func stringArg(env *lisp.LEnv, name string, args []*lisp.LVal, i int) (string, error) {
	if args[i].Type != lisp.LString {
		return "", env.Errorf(lisp.ErrType, "%s: argument %d is not a string: %v", name, i+1, args[i])
	}
	return args[i].Str, nil
}

func builtinAppend(env *lisp.LEnv, args []*lisp.LVal) (*lisp.LVal, error) {
	var buf strings.Builder
	for i := range args {
		s, err := stringArg(env, "string-append", args, i)
		if err != nil {
			return nil, err
		}
		buf.WriteString(s)
	}
	return lisp.String(buf.String()), nil
}

// builtinLength counts characters, not bytes.
func builtinLength(env *lisp.LEnv, args []*lisp.LVal) (*lisp.LVal, error) {
	s, err := stringArg(env, "string-length", args, 0)
	if err != nil {
		return nil, err
	}
	return lisp.Number(float64(len([]rune(s)))), nil
}

func builtinSubstring(env *lisp.LEnv, args []*lisp.LVal) (*lisp.LVal, error) {
	s, err := stringArg(env, "substring", args, 0)
	if err != nil {
		return nil, err
	}
	if len(args) > 3 {
		return nil, env.Errorf(lisp.ErrArity, "substring: expected at most 3 arguments (got %d)", len(args))
	}
	runes := []rune(s)
	start, err := lisp.NumberArg(env, "substring", args, 1)
	if err != nil {
		return nil, err
	}
	end := float64(len(runes))
	if len(args) == 3 {
		end, err = lisp.NumberArg(env, "substring", args, 2)
		if err != nil {
			return nil, err
		}
	}
	i, j := int(start), int(end)
	if float64(i) != start || float64(j) != end || i < 0 || j < i || j > len(runes) {
		return nil, env.Errorf(lisp.ErrType, "substring: invalid range [%s, %s) for string of length %d",
			lisp.FormatNumber(start), lisp.FormatNumber(end), len(runes))
	}
	return lisp.String(string(runes[i:j])), nil
}

func compareStrings(name string, ok func(c int) bool) lisp.LBuiltin {
	return func(env *lisp.LEnv, args []*lisp.LVal) (*lisp.LVal, error) {
		a, err := stringArg(env, name, args, 0)
		if err != nil {
			return nil, err
		}
		b, err := stringArg(env, name, args, 1)
		if err != nil {
			return nil, err
		}
		return lisp.Bool(ok(strings.Compare(a, b))), nil
	}
}

func mapString(name string, fn func(string) string) lisp.LBuiltin {
	return func(env *lisp.LEnv, args []*lisp.LVal) (*lisp.LVal, error) {
		s, err := stringArg(env, name, args, 0)
		if err != nil {
			return nil, err
		}
		return lisp.String(fn(s)), nil
	}
}

// builtinFormat substitutes its values for the "{}" directives of a format
// string.  Strings are substituted without quotes.  Literal braces are
// written "{{" and "}}".
func builtinFormat(env *lisp.LEnv, args []*lisp.LVal) (*lisp.LVal, error) {
	format, err := stringArg(env, "format", args, 0)
	if err != nil {
		return nil, err
	}
	fvals := args[1:]
	parts, err := parseFormatString(format)
	if err != nil {
		return nil, env.Errorf(lisp.ErrType, "format: %v", err)
	}
	var buf bytes.Buffer
	anonIndex := 0
	for _, p := range parts {
		if !p.directive {
			buf.WriteString(p.text)
			continue
		}
		if strings.TrimSpace(p.text) != "" {
			return nil, env.Errorf(lisp.ErrType, "format: formatting directives must be empty")
		}
		if anonIndex >= len(fvals) {
			return nil, env.Errorf(lisp.ErrType, "format: too many formatting directives for supplied values")
		}
		buf.WriteString(fvals[anonIndex].Display())
		anonIndex++
	}
	if anonIndex < len(fvals) {
		return nil, env.Errorf(lisp.ErrType, "format: %d values supplied for %d formatting directives", len(fvals), anonIndex)
	}
	return lisp.String(buf.String()), nil
}

type formatPart struct {
	directive bool
	text      string
}

func parseFormatString(f string) ([]formatPart, error) {
	var parts []formatPart
	tokens := tokenizeFormatString(f)
	for len(tokens) > 0 {
		tok := tokens[0]
		switch tok.typ {
		case formatText:
			parts = append(parts, formatPart{text: tok.text})
			tokens = tokens[1:]
		case formatClose:
			if len(tokens) < 2 || tokens[1].typ != formatClose {
				return nil, fmt.Errorf("unexpected closing brace '}' outside of formatting directive")
			}
			parts = append(parts, formatPart{text: "}"})
			tokens = tokens[2:]
		case formatOpen:
			if len(tokens) < 2 {
				return nil, fmt.Errorf("unclosed formatting directive")
			}
			switch tokens[1].typ {
			case formatOpen:
				parts = append(parts, formatPart{text: "{"})
				tokens = tokens[2:]
			case formatClose:
				parts = append(parts, formatPart{directive: true})
				tokens = tokens[2:]
			case formatText:
				if len(tokens) < 3 {
					return nil, fmt.Errorf("unclosed formatting directive")
				}
				if tokens[2].typ != formatClose {
					return nil, fmt.Errorf("invalid formatting directive")
				}
				parts = append(parts, formatPart{directive: true, text: tokens[1].text})
				tokens = tokens[3:]
			}
		}
	}
	return parts, nil
}

func tokenizeFormatString(f string) []formatToken {
	var tokens []formatToken
	for {
		i := strings.IndexAny(f, "{}")
		if i < 0 {
			if f != "" {
				tokens = append(tokens, formatToken{formatText, f})
			}
			return tokens
		}
		if i > 0 {
			tokens = append(tokens, formatToken{formatText, f[:i]})
			f = f[i:]
		}
		if f[0] == '{' {
			tokens = append(tokens, formatToken{formatOpen, "{"})
		} else {
			tokens = append(tokens, formatToken{formatClose, "}"})
		}
		f = f[1:]
	}
}

type formatTokenType uint

const (
	formatText formatTokenType = iota
	formatOpen
	formatClose
)

type formatToken struct {
	typ  formatTokenType
	text string
}
