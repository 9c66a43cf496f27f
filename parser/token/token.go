package token

import (
	"fmt"
	"unicode/utf8"
)

type Location struct {
	File string
	Pos  int
	Line int // line number (starting at 1 when tracked)
	Col  int // line column number (starting at 1 when tracked)
}

// Locate returns the Location of byte offset pos in src.  Lines and columns
// count from 1 and columns count runes.
func Locate(file string, src string, pos int) *Location {
	if pos > len(src) {
		pos = len(src)
	}
	if pos < 0 {
		pos = 0
	}
	line, col := 1, 1
	for i := 0; i < pos; {
		r, n := utf8.DecodeRuneInString(src[i:])
		i += n
		if r == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return &Location{
		File: file,
		Pos:  pos,
		Line: line,
		Col:  col,
	}
}

func (loc *Location) String() string {
	switch {
	case loc.Line == 0:
		return fmt.Sprintf("%s[%d]", loc.File, loc.Pos)
	case loc.Col == 0:
		return fmt.Sprintf("%s:%d", loc.File, loc.Line)
	default:
		return fmt.Sprintf("%s:%d:%d", loc.File, loc.Line, loc.Col)
	}
}
