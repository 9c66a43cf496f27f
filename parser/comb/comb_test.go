package comb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToken(t *testing.T) {
	p := Token("let")
	r := p("(let x)", 1)
	require.True(t, r.OK)
	assert.Equal(t, 4, r.Pos)
	assert.Equal(t, "let", r.Value)

	r = p("(lex x)", 1)
	assert.False(t, r.OK)
	assert.Equal(t, 1, r.Pos)
	assert.Equal(t, []string{"'let'"}, r.Expected)

	r = p("le", 0)
	assert.False(t, r.OK)
}

func TestRegex(t *testing.T) {
	p := Regex(`[0-9]+`)
	r := p("ab123cd", 2)
	require.True(t, r.OK)
	assert.Equal(t, 5, r.Pos)
	assert.Equal(t, "123", r.Value)

	// the match is anchored at pos
	r = p("ab123cd", 0)
	assert.False(t, r.OK)
	assert.Equal(t, 0, r.Pos)
}

func TestSeq(t *testing.T) {
	p := Seq(Token("a"), Token("b"), Token("c"))
	r := p("abc", 0)
	require.True(t, r.OK)
	assert.Equal(t, 3, r.Pos)
	assert.Equal(t, []interface{}{"a", "b", "c"}, r.Value)
	assert.Equal(t, "sequence", r.Tag)

	r = p("abx", 0)
	assert.False(t, r.OK)
	assert.Equal(t, 2, r.Pos)
	assert.Equal(t, []string{"'c'"}, r.Expected)
	assert.Equal(t, "sequence", r.Tag)
}

func TestOrLongestMatch(t *testing.T) {
	short := Seq(Token("a"), Token("x"))
	long := Seq(Token("a"), Token("b"), Token("y"))
	for _, p := range []Parser{Or(short, long), Or(long, short)} {
		r := p("abz", 0)
		assert.False(t, r.OK)
		assert.Equal(t, 2, r.Pos)
		assert.Equal(t, []string{"'y'"}, r.Expected)
	}

	r := Or(short, long)("aby", 0)
	require.True(t, r.OK)
	assert.Equal(t, 3, r.Pos)
}

func TestOrMergesTies(t *testing.T) {
	p := Or(Token("a"), Token("b"), Token("a"))
	r := p("c", 0)
	assert.False(t, r.OK)
	assert.Equal(t, 0, r.Pos)
	assert.Equal(t, []string{"'a'", "'b'"}, r.Expected)
}

func TestAtLeast(t *testing.T) {
	digits := Regex(`[0-9]`)
	r := Many(digits)("x", 0)
	require.True(t, r.OK)
	assert.Equal(t, 0, r.Pos)
	assert.Empty(t, r.Value)

	r = OneMore(digits)("x", 0)
	assert.False(t, r.OK)

	r = AtLeast(2, digits)("12x", 0)
	require.True(t, r.OK)
	assert.Equal(t, []interface{}{"1", "2"}, r.Value)

	r = AtLeast(3, digits)("12x", 0)
	assert.False(t, r.OK)
	assert.Equal(t, 2, r.Pos)

	// zero-width matches do not loop forever
	r = Many(Regex(`a*`))("bbb", 0)
	require.True(t, r.OK)
	assert.Equal(t, 0, r.Pos)
}

func TestOption(t *testing.T) {
	p := Option(Token("x"))
	r := p("xy", 0)
	require.True(t, r.OK)
	assert.Equal(t, 1, r.Pos)
	assert.Equal(t, "x", r.Value)

	r = p("yy", 0)
	require.True(t, r.OK)
	assert.Equal(t, 0, r.Pos)
	assert.Nil(t, r.Value)
}

func TestFilterFailsAtOriginalPosition(t *testing.T) {
	word := Lexeme(Regex(`[a-z]+`))
	notElse := Filter(word, func(v interface{}) bool { return v != "else" })
	r := notElse("   else", 0)
	assert.False(t, r.OK)
	assert.Equal(t, 0, r.Pos)

	r = notElse("   then", 0)
	require.True(t, r.OK)
	assert.Equal(t, 7, r.Pos)
}

func TestMap(t *testing.T) {
	p := Map(Regex(`[0-9]+`), func(v interface{}) interface{} { return len(v.(string)) })
	r := p("1234", 0)
	require.True(t, r.OK)
	assert.Equal(t, 4, r.Value)

	r = p("x", 0)
	assert.False(t, r.OK)
	assert.Nil(t, r.Value)
}

func TestLazy(t *testing.T) {
	builds := 0
	var list Parser
	listRef := Lazy(func() Parser {
		builds++
		return list
	})
	list = Or(
		Seq(Token("("), Many(listRef), Token(")")),
		Token("x"),
	)
	r := list("((x)(xx))", 0)
	require.True(t, r.OK)
	assert.Equal(t, 9, r.Pos)
	r = list("(x)", 0)
	require.True(t, r.OK)
	assert.Equal(t, 1, builds)
}

func TestRepeatToEOF(t *testing.T) {
	p := RepeatToEOF(Lexeme(Regex(`[a-z]+`)))
	r := p("ab cd  ef", 0)
	require.True(t, r.OK)
	assert.Equal(t, []interface{}{"ab", "cd", "ef"}, r.Value)

	r = p("ab 12", 0)
	assert.False(t, r.OK)
	assert.Equal(t, 3, r.Pos)

	r = p("", 0)
	require.True(t, r.OK)
	assert.Empty(t, r.Value)
}

func TestLexeme(t *testing.T) {
	p := Lexeme(Token("("))
	r := p(" \n\t(", 0)
	require.True(t, r.OK)
	assert.Equal(t, 4, r.Pos)
}

func TestLabel(t *testing.T) {
	p := Label("identifier", Lexeme(Regex(`[a-z]+`)))
	r := p("  12", 0)
	assert.False(t, r.OK)
	assert.Equal(t, []string{"identifier"}, r.Expected)

	r = Tag("ident", p)("ab", 0)
	require.True(t, r.OK)
	assert.Equal(t, "ident", r.Tag)
}

func TestSkipSpaceComments(t *testing.T) {
	assert.Equal(t, 3, SkipSpace("  \tx", 0))
	assert.Equal(t, 12, SkipSpace("; comment\n  x", 0))
	assert.Equal(t, 5, SkipSpace("a ; b", 1))

	p := RepeatToEOF(Lexeme(Regex(`[a-z]+`)))
	r := p("ab ; trailing", 0)
	require.True(t, r.OK)
	assert.Equal(t, []interface{}{"ab"}, r.Value)
	assert.Equal(t, 13, r.Pos)
}
