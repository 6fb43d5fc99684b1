// Package util provides text helpers shared by the store drivers and the tools.
package util

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var folder = cases.Fold()

// Fold returns s without diacritics and in case-folded form, so that
// "Họp Nhóm" and "hop nhom" compare equal. The Vietnamese "đ" has no
// combining mark and is mapped to "d" explicitly.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	out = strings.NewReplacer("đ", "d", "Đ", "D").Replace(out)
	return folder.String(out)
}

// EscapeLike escapes the LIKE wildcards of s using backslash as the escape character.
func EscapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// TruncateRunes shortens s to at most n runes, appending "..." when cut.
func TruncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
