// Package textnorm holds the small text transforms shared by the line
// classifier and the record finalizer: accent folding for keyword matching,
// markdown bold removal and emoji stripping for captured values.
package textnorm

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	keycapMark        = '⃣'
	variationSelector = '️'
	zeroWidthJoiner   = '‍'
)

// Fold returns s upper-cased with diacritics removed, one output rune per
// input rune. The rune alignment lets callers match a keyword against the
// folded form and cut the value out of the original at the same rune offset.
func Fold(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		b.WriteRune(foldRune(r))
	}
	return b.String()
}

func foldRune(r rune) rune {
	if r < utf8.RuneSelf {
		return unicode.ToUpper(r)
	}
	decomposed := norm.NFD.String(string(r))
	base, _ := utf8.DecodeRuneInString(decomposed)
	if base == utf8.RuneError || unicode.Is(unicode.Mn, base) {
		base = r
	}
	return unicode.ToUpper(base)
}

// StripBold removes markdown bold markers.
func StripBold(s string) string {
	s = strings.ReplaceAll(s, "**", "")
	return strings.ReplaceAll(s, "__", "")
}

// IsEmoji reports whether r falls in the decorative emoji denylist.
func IsEmoji(r rune) bool {
	switch {
	case r >= 0x1F000 && r <= 0x1FAFF:
		return true
	case r >= 0x2600 && r <= 0x27BF:
		return true
	case r >= 0x2300 && r <= 0x23FF:
		return true
	case r >= 0x2B00 && r <= 0x2BFF:
		return true
	case r >= 0xFE00 && r <= 0xFE0F:
		return true
	case r >= 0xE0020 && r <= 0xE007F:
		return true
	case r == zeroWidthJoiner, r == keycapMark:
		return true
	}
	return false
}

var emojiRemover = runes.Remove(runes.Predicate(IsEmoji))

// StripEmoji removes keycap sequences and every denylisted rune, then
// collapses the whitespace left behind.
func StripEmoji(s string) string {
	s = stripKeycaps(s)
	out, _, err := transform.String(emojiRemover, s)
	if err != nil {
		out = s
	}
	return CollapseSpace(out)
}

// Clean is the value transform applied to every captured field after a
// record is closed.
func Clean(s string) string {
	return StripEmoji(StripBold(s))
}

// CleanAll applies Clean to each element and drops the ones left empty.
func CleanAll(items []string) []string {
	var out []string
	for _, item := range items {
		if c := Clean(item); c != "" {
			out = append(out, c)
		}
	}
	return out
}

// CollapseSpace trims s and reduces internal whitespace runs to one space.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Keycap reports whether s starts with a keycap sequence ("1️⃣", "#⃣") and
// returns its base character and the byte length of the sequence.
func Keycap(s string) (base rune, size int, ok bool) {
	r, n := utf8.DecodeRuneInString(s)
	if !isKeycapBase(r) {
		return 0, 0, false
	}
	rest := s[n:]
	next, m := utf8.DecodeRuneInString(rest)
	if next == variationSelector {
		n += m
		next, m = utf8.DecodeRuneInString(s[n:])
	}
	if next != keycapMark {
		return 0, 0, false
	}
	return r, n + m, true
}

func isKeycapBase(r rune) bool {
	return (r >= '0' && r <= '9') || r == '#' || r == '*'
}

func stripKeycaps(s string) string {
	if !strings.ContainsRune(s, keycapMark) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); {
		if _, n, ok := Keycap(s[i:]); ok {
			b.WriteByte(' ')
			i += n
			continue
		}
		r, n := utf8.DecodeRuneInString(s[i:])
		b.WriteRune(r)
		i += n
	}
	return b.String()
}
