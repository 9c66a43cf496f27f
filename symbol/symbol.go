// Package symbol maps surface identifiers to the canonical keys used for
// environment storage.
//
// Identifiers may contain the punctuation characters
//
//	! $ % & * + - . / < = > ? @ ^ _
//
// Canonical replaces each of them (except '_') with a '$'-prefixed
// alphanumeric code.  Because '$' is itself escaped and the codes form a
// prefix-free set, every string has exactly one canonical form and Decode
// recovers it.
package symbol

import (
	"strings"
	"unicode"
)

const escape = '$'

var codes = map[rune]string{
	'!': "bang",
	'$': "dollar",
	'%': "pct",
	'&': "amp",
	'*': "star",
	'+': "plus",
	'-': "dash",
	'.': "dot",
	'/': "slash",
	'<': "lt",
	'=': "eq",
	'>': "gt",
	'?': "qmark",
	'@': "at",
	'^': "caret",
}

var decodes = func() map[string]rune {
	m := make(map[string]rune, len(codes))
	for r, code := range codes {
		m[code] = r
	}
	return m
}()

// Punctuation lists the punctuation characters allowed in identifiers.
const Punctuation = "!$%&*+-./<=>?@^_"

// IsIdentRune returns true if r may appear in an identifier.
func IsIdentRune(r rune) bool {
	if r < 0x80 && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
		return true
	}
	return strings.ContainsRune(Punctuation, r)
}

// Valid returns true if id is a non-empty string of identifier characters.
func Valid(id string) bool {
	if id == "" {
		return false
	}
	for _, r := range id {
		if !IsIdentRune(r) {
			return false
		}
	}
	return true
}

// Canonical returns the storage key for id.
func Canonical(id string) string {
	i := strings.IndexFunc(id, needsEscape)
	if i < 0 {
		return id
	}
	var b strings.Builder
	b.Grow(len(id) + 8)
	b.WriteString(id[:i])
	for _, r := range id[i:] {
		code, ok := codes[r]
		if !ok {
			b.WriteRune(r)
			continue
		}
		b.WriteRune(escape)
		b.WriteString(code)
	}
	return b.String()
}

// Decode inverts Canonical.  Decode returns false if key is not the
// canonical form of any string.
func Decode(key string) (string, bool) {
	if strings.IndexRune(key, escape) < 0 {
		return key, true
	}
	var b strings.Builder
	for i := 0; i < len(key); {
		if key[i] != escape {
			b.WriteByte(key[i])
			i++
			continue
		}
		r, n := decodeEscape(key[i+1:])
		if n == 0 {
			return "", false
		}
		b.WriteRune(r)
		i += 1 + n
	}
	return b.String(), true
}

// String returns the surface identifier for key.  Keys that are not
// canonical are returned unchanged.
func String(key string) string {
	s, ok := Decode(key)
	if !ok {
		return key
	}
	return s
}

func decodeEscape(s string) (rune, int) {
	for code, r := range decodes {
		if strings.HasPrefix(s, code) {
			return r, len(code)
		}
	}
	return 0, 0
}

func needsEscape(r rune) bool {
	_, ok := codes[r]
	return ok
}
