// Package lineclass assigns a structural role to each line of model output.
//
// Matching is lenient: markdown headings, block quotes, bold markers, bullets
// and leading emoji markers are skipped before a line is compared against a
// parser's vocabulary, and keywords are compared upper-cased with accents
// folded. Values are always cut from the original text so that accents and
// case survive.
package lineclass

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/conorfennell/studyparse/internal/textnorm"
)

// Kind is the structural role of a line.
type Kind int

const (
	Blank Kind = iota
	Separator
	Boundary
	Label
	Option
	Bullet
	Body
)

var kindNames = [...]string{"blank", "separator", "boundary", "label", "option", "bullet", "body"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Line is one classified input line.
type Line struct {
	Kind Kind
	Raw  string
	// Field is the vocabulary name of a Boundary or Label.
	Field string
	// Number is the ordinal captured by a boundary rule or keycap marker.
	Number int
	// Letter is the upper-case letter of an Option line.
	Letter string
	// Value is the inline text with bold markers removed.
	Value string
	// Indent is the leading indentation in columns, tabs counting as two.
	Indent int
	// Heading is the markdown heading depth, 0 for none.
	Heading  int
	Bulleted bool
	// Keycap is the digit of a leading keycap emoji marker, or -1.
	Keycap int
}

// Rule maps a folded-text pattern to a field. Patterns are anchored at the
// start of the line once markers are skipped. The first capture group, when
// present, is read as the record number.
type Rule struct {
	Kind    Kind
	Field   string
	Pattern *regexp.Regexp
}

// BoundaryRule builds a section-boundary rule. The pattern is matched
// against upper-case, accent-free text.
func BoundaryRule(field, pattern string) Rule {
	return Rule{
		Kind:    Boundary,
		Field:   field,
		Pattern: regexp.MustCompile(`^(?:` + pattern + `)`),
	}
}

// LabelRule builds a field-label rule. The keyword must be followed by a
// colon, a dash or the end of the line.
func LabelRule(field, pattern string) Rule {
	return Rule{
		Kind:    Label,
		Field:   field,
		Pattern: regexp.MustCompile(`^(?:` + pattern + `)\s*(?::|[-–—]\s|$)`),
	}
}

// Vocabulary is the set of rules one parser understands.
type Vocabulary struct {
	// Rules are tried in order; the first match wins.
	Rules []Rule
	// Options enables quiz option lines such as "B) texto".
	Options bool
	// KeycapField, when set, turns a line led by a keycap digit into a
	// boundary of that field.
	KeycapField string
}

// Classifier classifies lines against one Vocabulary. It holds no mutable
// state and is safe for concurrent use.
type Classifier struct {
	vocab Vocabulary
}

// New returns a Classifier for v.
func New(v Vocabulary) *Classifier {
	return &Classifier{vocab: v}
}

var (
	headingRe = regexp.MustCompile(`^(#{1,6})\s+`)
	bulletRe  = regexp.MustCompile(`^(?:[-*•+·▪►]|\d{1,3}[.)])\s+`)
	optionRe  = regexp.MustCompile(`^\(?([A-D])\s*[).]\s*|^([A-D])\s+[-–—]\s+`)
)

// Lines splits text into lines and classifies each one.
func (c *Classifier) Lines(text string) []Line {
	raw := strings.Split(text, "\n")
	lines := make([]Line, 0, len(raw))
	for _, r := range raw {
		lines = append(lines, c.Classify(strings.TrimRight(r, "\r")))
	}
	return lines
}

// Classify returns the structural role of a single line.
func (c *Classifier) Classify(raw string) Line {
	line := Line{Raw: raw, Indent: indentWidth(raw), Keycap: -1}

	core := strings.TrimSpace(raw)
	if core == "" {
		line.Kind = Blank
		return line
	}
	if isSeparator(core) {
		line.Kind = Separator
		return line
	}

	if m := headingRe.FindStringSubmatch(core); m != nil {
		line.Heading = len(m[1])
		core = core[len(m[0]):]
	}
	core = strings.TrimLeft(core, "> ")
	core = strings.TrimSpace(textnorm.StripBold(core))

	if loc := bulletRe.FindStringIndex(core); loc != nil {
		line.Bulleted = true
		core = core[loc[1]:]
	}

	core, line.Keycap = skipMarkers(core)
	core = strings.TrimRight(core, " ─━═")
	if core == "" {
		line.Kind = Blank
		return line
	}

	folded := textnorm.Fold(core)
	for _, rule := range c.vocab.Rules {
		m := rule.Pattern.FindStringSubmatchIndex(folded)
		if m == nil {
			continue
		}
		line.Kind = rule.Kind
		line.Field = rule.Field
		if len(m) >= 4 && m[2] >= 0 {
			line.Number, _ = strconv.Atoi(folded[m[2]:m[3]])
		}
		line.Value = trimValue(tail(core, folded, m[1]))
		return line
	}

	if c.vocab.Options {
		if m := optionRe.FindStringSubmatchIndex(folded); m != nil {
			line.Kind = Option
			if m[2] >= 0 {
				line.Letter = folded[m[2]:m[3]]
			} else {
				line.Letter = folded[m[4]:m[5]]
			}
			line.Value = strings.TrimSpace(tail(core, folded, m[1]))
			return line
		}
	}

	if c.vocab.KeycapField != "" && line.Keycap >= 0 {
		line.Kind = Boundary
		line.Field = c.vocab.KeycapField
		line.Number = line.Keycap
		line.Value = trimValue(core)
		return line
	}

	line.Value = core
	if line.Bulleted {
		line.Kind = Bullet
	} else {
		line.Kind = Body
	}
	return line
}

// tail returns the part of original that follows the first n bytes of its
// folded form. Fold keeps one rune per rune, so rune counts line up.
func tail(original, folded string, n int) string {
	runes := utf8.RuneCountInString(folded[:n])
	for i := range original {
		if runes == 0 {
			return original[i:]
		}
		runes--
	}
	return ""
}

func trimValue(s string) string {
	s = strings.TrimLeft(s, " \t:.-–—)")
	return strings.TrimSpace(s)
}

// skipMarkers drops leading emoji, keycaps and box-drawing decoration.
func skipMarkers(s string) (string, int) {
	keycap := -1
	for s != "" {
		if base, n, ok := textnorm.Keycap(s); ok {
			if base >= '0' && base <= '9' && keycap < 0 {
				keycap = int(base - '0')
			}
			s = s[n:]
			continue
		}
		r, n := utf8.DecodeRuneInString(s)
		if textnorm.IsEmoji(r) || unicode.IsSpace(r) || strings.ContainsRune("─━═>*_", r) {
			s = s[n:]
			continue
		}
		break
	}
	return s, keycap
}

func isSeparator(s string) bool {
	count := 0
	for _, r := range s {
		switch {
		case r == ' ':
		case strings.ContainsRune("─━═-_*=~·•", r):
			count++
		default:
			return false
		}
	}
	return count >= 3
}

func indentWidth(s string) int {
	width := 0
	for _, r := range s {
		switch r {
		case ' ':
			width++
		case '\t':
			width += 2
		default:
			return width
		}
	}
	return width
}
