package repl

import (
	parsec "github.com/prataprc/goparsec"
)

const (
	patternSpace   = `\s+`
	patternComment = `;[^\n]*`
	patternString  = `"(?s:[^"\\]|\\.)*"`
	patternQuote   = `"`
	patternOpen    = `\(`
	patternClose   = `\)`
	patternAtom    = `[^\s()";]+`
)

// Complete returns false if src ends inside a string or has more opening
// than closing parentheses.  Such input is continued on the next line.
// Input with excess closing parentheses is complete so the parser can report
// it.
func Complete(src string) bool {
	s := parsec.NewScanner([]byte(src))
	depth := 0
	for !s.Endof() {
		var tok []byte
		if tok, s = s.Match(patternSpace); tok != nil {
			continue
		}
		if tok, s = s.Match(patternComment); tok != nil {
			continue
		}
		if tok, s = s.Match(patternString); tok != nil {
			continue
		}
		if tok, s = s.Match(patternQuote); tok != nil {
			return false
		}
		if tok, s = s.Match(patternOpen); tok != nil {
			depth++
			continue
		}
		if tok, s = s.Match(patternClose); tok != nil {
			depth--
			continue
		}
		if tok, s = s.Match(patternAtom); tok != nil {
			continue
		}
		// unreachable with the patterns above
		return true
	}
	return depth <= 0
}
