package parser

import (
	"regexp"
	"strings"

	"github.com/conorfennell/studyparse/internal/domain"
	"github.com/conorfennell/studyparse/internal/lineclass"
	"github.com/conorfennell/studyparse/internal/textnorm"
)

const (
	quizQuestion field = iota + 1
	quizOptions
	quizAnswer
	quizExplanation
	quizDifficulty
)

var quizSchema = &schema{
	name: "quiz",
	class: lineclass.New(lineclass.Vocabulary{
		Rules: []lineclass.Rule{
			lineclass.BoundaryRule("question", `PREGUNTA\s*(?:#|N[O°º]\.?)?\s*(\d+)`),
			lineclass.LabelRule("question", `PREGUNTA`),
			lineclass.LabelRule("options", `OPCIONES|ALTERNATIVAS`),
			lineclass.LabelRule("answer", `RESPUESTA\s+CORRECTA|RESPUESTA|SOLUCION|CORRECTA`),
			lineclass.LabelRule("explanation", `EXPLICACION|JUSTIFICACION|POR\s+QUE`),
			lineclass.LabelRule("difficulty", `NIVEL\s+DE\s+DIFICULTAD|DIFICULTAD|NIVEL`),
		},
		Options: true,
	}),
	labels: map[string]field{
		"question":    quizQuestion,
		"options":     quizOptions,
		"answer":      quizAnswer,
		"explanation": quizExplanation,
		"difficulty":  quizDifficulty,
	},
	lists:    map[field]bool{quizOptions: true},
	first:    quizQuestion,
	implicit: true,
	restart:  quizQuestion,
	options:  quizOptions,
}

var (
	answerLetterRe = regexp.MustCompile(`^(LA\s+|OPCION\s+|INCISO\s+)?\(?([A-D])(?:([).:])|\s+|$)(.*)$`)
	leadingParenRe = regexp.MustCompile(`^\(([^)]*)\)\s*[:.\-–—]?\s*`)
	inlineLetterRe = regexp.MustCompile(`^\(?([A-D])[).]\s*`)
)

type quizOption struct {
	letter string
	text   string
}

type quizBuilder struct {
	question    joined
	options     []quizOption
	answer      string
	resolved    int
	explanation joined
	difficulty  domain.Difficulty
}

func (b *quizBuilder) open(l lineclass.Line) {
	b.resolved = -1
	value := l.Value
	if m := leadingParenRe.FindStringSubmatch(value); m != nil {
		if d := parseDifficulty(m[1]); d != "" {
			b.difficulty = d
			value = value[len(m[0]):]
		}
	}
	b.question.add(value)
}

func (b *quizBuilder) text(f field, s string) {
	switch f {
	case quizQuestion:
		b.question.add(s)
	case quizAnswer:
		if b.answer == "" {
			b.answer = strings.TrimSpace(s)
			b.resolve()
		}
	case quizExplanation:
		b.explanation.add(s)
	case quizDifficulty:
		if d := parseDifficulty(s); d != "" {
			b.difficulty = d
		}
	}
}

func (b *quizBuilder) item(f field, s string) {
	if f != quizOptions {
		b.text(f, s)
		return
	}
	if m := inlineLetterRe.FindStringSubmatch(textnorm.Fold(s)); m != nil {
		b.option(f, m[1], s[len(m[0]):])
		return
	}
	b.option(f, string(rune('A'+len(b.options))), s)
}

// option records a lettered option and retries a pending answer letter that
// arrived before it. Right after an empty answer label the line is the
// answer itself.
func (b *quizBuilder) option(f field, letter, s string) {
	s = strings.TrimSpace(s)
	if f == quizAnswer && b.answer == "" {
		b.answer = letter + ") " + s
		b.resolve()
		return
	}
	if s == "" || len(b.options) >= 4 {
		return
	}
	for _, o := range b.options {
		if o.letter == letter {
			return
		}
	}
	b.options = append(b.options, quizOption{letter: letter, text: s})
	if b.resolved < 0 {
		b.resolve()
	}
}

func (b *quizBuilder) has(f field) bool {
	return f == quizQuestion && b.question.filled()
}

// resolve maps the answer key onto an option index. It is a no-op until the
// referenced option has been seen. A key that spells out an option's text
// wins over a leading word that looks like a letter, as in "A veces".
func (b *quizBuilder) resolve() {
	if b.answer == "" {
		return
	}
	want := textnorm.Fold(textnorm.Clean(b.answer))
	for i, o := range b.options {
		if textnorm.Fold(textnorm.Clean(o.text)) == want {
			b.resolved = i
			return
		}
	}

	m := answerLetterRe.FindStringSubmatch(textnorm.Fold(textnorm.StripBold(b.answer)))
	if m == nil {
		return
	}
	rest := textnorm.Fold(textnorm.Clean(m[4]))
	strict := m[1] != "" || m[3] != "" || rest == ""
	for i, o := range b.options {
		if o.letter != m[2] {
			continue
		}
		if strict || textnorm.Fold(textnorm.Clean(o.text)) == rest {
			b.resolved = i
		}
		return
	}
}

func (b *quizBuilder) build() (domain.QuizQuestion, bool) {
	b.resolve()
	options := make([]string, 0, len(b.options))
	for _, o := range b.options {
		options = append(options, textnorm.Clean(o.text))
	}
	return domain.QuizQuestion{
		Question:           b.question.String(),
		Options:            options,
		CorrectAnswerIndex: b.resolved,
		Explanation:        b.explanation.String(),
		Difficulty:         b.difficulty,
	}, true
}

// parseDifficulty reads a difficulty from a label value. Traffic light
// emoji are read here, before values are stripped of emoji.
func parseDifficulty(s string) domain.Difficulty {
	switch {
	case strings.ContainsRune(s, '🟢'):
		return domain.Easy
	case strings.ContainsRune(s, '🟡'), strings.ContainsRune(s, '🟠'):
		return domain.Medium
	case strings.ContainsRune(s, '🔴'):
		return domain.Hard
	}
	folded := textnorm.Fold(s)
	switch {
	case containsAny(folded, "FACIL", "BAJA", "BASIC", "EASY", "SENCILL"):
		return domain.Easy
	case containsAny(folded, "DIFICIL", "ALTA", "AVANZAD", "HARD", "COMPLEJ"):
		return domain.Hard
	case containsAny(folded, "MEDI", "INTERMED", "MODERAD"):
		return domain.Medium
	}
	return ""
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// ParseQuiz extracts multiple choice questions, numbered or not. The correct answer
// may be given before or after the option it names.
func ParseQuiz(text string) []domain.QuizQuestion {
	return accumulate(quizSchema, text, func() builder[domain.QuizQuestion] {
		return &quizBuilder{resolved: -1}
	})
}
