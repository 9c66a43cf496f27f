/*
Package comb provides backtracking parser combinators operating on a byte
offset into an input string.

Every Parser is a pure function of its input and position.  Failures are
values: a failed Result records the deepest position reached and what was
expected there, so that alternation can report the most useful location.
*/
package comb

import (
	"regexp"
	"sync"
	"unicode"
	"unicode/utf8"
)

// Parser parses input starting at byte offset pos.
type Parser func(input string, pos int) Result

// Result is the outcome of applying a Parser.
type Result struct {
	OK    bool
	Pos   int
	Value interface{}
	// Expected describes the tokens wanted at Pos when the parse failed.  It
	// is nil for successful results.
	Expected []string
	Tag      string
}

// Success returns a successful Result ending at pos.
func Success(pos int, value interface{}, tag string) Result {
	return Result{
		OK:    true,
		Pos:   pos,
		Value: value,
		Tag:   tag,
	}
}

// Failure returns a failed Result located at pos.
func Failure(pos int, expected []string, tag string) Result {
	return Result{
		Pos:      pos,
		Expected: expected,
		Tag:      tag,
	}
}

// Token matches the literal string lit.
func Token(lit string) Parser {
	expected := []string{quoteExpected(lit)}
	return func(input string, pos int) Result {
		if len(input)-pos >= len(lit) && input[pos:pos+len(lit)] == lit {
			return Success(pos+len(lit), lit, "token")
		}
		return Failure(pos, expected, "token")
	}
}

// Regex matches pattern anchored at the current position.  The matched text
// is the value of a successful Result.
func Regex(pattern string) Parser {
	re := regexp.MustCompile(`^(?:` + pattern + `)`)
	expected := []string{"/" + pattern + "/"}
	return func(input string, pos int) Result {
		loc := re.FindStringIndex(input[pos:])
		if loc == nil {
			return Failure(pos, expected, "regex")
		}
		return Success(pos+loc[1], input[pos:pos+loc[1]], "regex")
	}
}

// Seq applies parsers in order.  Seq stops at the first failure and
// propagates its position and expectations.  The value of a successful Result
// is a []interface{} holding the value of each parser.
func Seq(parsers ...Parser) Parser {
	return func(input string, pos int) Result {
		values := make([]interface{}, 0, len(parsers))
		cur := pos
		for _, p := range parsers {
			r := p(input, cur)
			if !r.OK {
				return Failure(r.Pos, r.Expected, "sequence")
			}
			cur = r.Pos
			values = append(values, r.Value)
		}
		return Success(cur, values, "sequence")
	}
}

// Or returns the Result of the first parser that succeeds.  When every parser
// fails Or reports the failure that reached furthest into the input.
// Expectations of failures tied at that position are merged.
func Or(parsers ...Parser) Parser {
	return func(input string, pos int) Result {
		failPos := pos
		var expected []string
		for _, p := range parsers {
			r := p(input, pos)
			if r.OK {
				return r
			}
			switch {
			case r.Pos > failPos:
				failPos = r.Pos
				expected = append([]string(nil), r.Expected...)
			case r.Pos == failPos:
				expected = mergeExpected(expected, r.Expected)
			}
		}
		return Failure(failPos, expected, "choice")
	}
}

// AtLeast applies p repeatedly and succeeds if it matched at least n times.
// The value of a successful Result is a []interface{} of the matched values.
// A match that consumes no input ends the repetition.
func AtLeast(n int, p Parser) Parser {
	return func(input string, pos int) Result {
		var values []interface{}
		cur := pos
		for {
			r := p(input, cur)
			if !r.OK {
				if len(values) < n {
					return Failure(r.Pos, r.Expected, "repetition")
				}
				break
			}
			values = append(values, r.Value)
			if r.Pos == cur {
				break
			}
			cur = r.Pos
		}
		if len(values) < n {
			return Failure(cur, nil, "repetition")
		}
		return Success(cur, values, "repetition")
	}
}

// Many matches zero or more repetitions of p.
func Many(p Parser) Parser {
	return AtLeast(0, p)
}

// OneMore matches one or more repetitions of p.
func OneMore(p Parser) Parser {
	return AtLeast(1, p)
}

// Option always succeeds.  Its value is nil if p fails and the value of p
// otherwise.
func Option(p Parser) Parser {
	return func(input string, pos int) Result {
		r := p(input, pos)
		if r.OK {
			return Success(r.Pos, r.Value, "option")
		}
		return Success(pos, nil, "option")
	}
}

// Filter succeeds when p succeeds and pred accepts its value.  A rejected
// value fails at the position Filter was invoked with, not the position p
// reached.
func Filter(p Parser, pred func(interface{}) bool) Parser {
	return func(input string, pos int) Result {
		r := p(input, pos)
		if r.OK && !pred(r.Value) {
			return Failure(pos, r.Expected, r.Tag)
		}
		return r
	}
}

// Map transforms the value of a successful Result with fn.
func Map(p Parser, fn func(interface{}) interface{}) Parser {
	return func(input string, pos int) Result {
		r := p(input, pos)
		if r.OK {
			r.Value = fn(r.Value)
		}
		return r
	}
}

// Label replaces the expectations of a failure of p that did not get past
// the starting position with desc.
func Label(desc string, p Parser) Parser {
	expected := []string{desc}
	return func(input string, pos int) Result {
		r := p(input, pos)
		if !r.OK && r.Pos <= SkipSpace(input, pos) {
			r.Expected = expected
		}
		return r
	}
}

// Tag labels the Result of p with name.
func Tag(name string, p Parser) Parser {
	return func(input string, pos int) Result {
		r := p(input, pos)
		r.Tag = name
		return r
	}
}

// Lazy defers calling build until the returned parser is first used.  The
// parser returned by build is memoized.
func Lazy(build func() Parser) Parser {
	var once sync.Once
	var p Parser
	return func(input string, pos int) Result {
		once.Do(func() { p = build() })
		return p(input, pos)
	}
}

// RepeatToEOF applies p until all of input has been consumed.  Trailing
// whitespace and comments count as consumed.  The value of a successful
// Result is a []interface{} of the matched values.
func RepeatToEOF(p Parser) Parser {
	return func(input string, pos int) Result {
		var values []interface{}
		cur := pos
		for SkipSpace(input, cur) < len(input) {
			r := p(input, cur)
			if !r.OK {
				return Failure(r.Pos, r.Expected, "program")
			}
			if r.Pos == cur {
				return Failure(cur, []string{"end of input"}, "program")
			}
			values = append(values, r.Value)
			cur = r.Pos
		}
		return Success(SkipSpace(input, cur), values, "program")
	}
}

// Lexeme skips any whitespace and comments preceding p.
func Lexeme(p Parser) Parser {
	return func(input string, pos int) Result {
		return p(input, SkipSpace(input, pos))
	}
}

// SkipSpace returns the offset of the first character at or after pos that
// is neither whitespace nor part of a comment.  A comment runs from ';' to the
// end of the line.
func SkipSpace(input string, pos int) int {
	for pos < len(input) {
		if input[pos] == ';' {
			for pos < len(input) && input[pos] != '\n' {
				pos++
			}
			continue
		}
		c, n := utf8.DecodeRuneInString(input[pos:])
		if !unicode.IsSpace(c) {
			break
		}
		pos += n
	}
	return pos
}

func mergeExpected(a, b []string) []string {
	for _, x := range b {
		dup := false
		for _, y := range a {
			if x == y {
				dup = true
				break
			}
		}
		if !dup {
			a = append(a, x)
		}
	}
	return a
}

func quoteExpected(lit string) string {
	return "'" + lit + "'"
}
