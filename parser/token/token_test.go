package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLocate(t *testing.T) {
	src := "(define x 1)\n(+ x\n   y)"
	loc := Locate("test", src, 0)
	assert.Equal(t, "test:1:1", loc.String())
	loc = Locate("test", src, 8)
	assert.Equal(t, 1, loc.Line)
	assert.Equal(t, 9, loc.Col)
	loc = Locate("test", src, 21)
	assert.Equal(t, 3, loc.Line)
	assert.Equal(t, 4, loc.Col)
	loc = Locate("test", src, 1000)
	assert.Equal(t, len(src), loc.Pos)
}

func TestLocationString(t *testing.T) {
	assert.Equal(t, "f[3]", (&Location{File: "f", Pos: 3}).String())
	assert.Equal(t, "f:2", (&Location{File: "f", Line: 2}).String())
	assert.Equal(t, "f:2:5", (&Location{File: "f", Line: 2, Col: 5}).String())
}
