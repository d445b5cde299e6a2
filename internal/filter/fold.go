package filter

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// đ has no decomposition, so it is mapped by hand.
var foldReplacer = strings.NewReplacer("đ", "d", "Đ", "d")

// Fold lowercases s and strips diacritics, so "Thành phố Hồ Chí Minh" and
// "thanh pho ho chi minh" compare equal.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, foldReplacer.Replace(s))
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}
