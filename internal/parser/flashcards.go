package parser

import (
	"github.com/conorfennell/studyparse/internal/domain"
	"github.com/conorfennell/studyparse/internal/lineclass"
)

const (
	cardQuestion field = iota + 1
	cardAnswer
	cardTip
)

var flashcardSchema = &schema{
	name: "flashcards",
	class: lineclass.New(lineclass.Vocabulary{
		Rules: []lineclass.Rule{
			lineclass.BoundaryRule("card", `(?:TARJETA|FLASHCARD|FICHA)\s*(?:#|N[O°º]\.?)?\s*(\d+)`),
			lineclass.LabelRule("question", `PREGUNTA(?:\s*(?:#|N[O°º]\.?)?\s*\d+)?|FRENTE|ANVERSO`),
			lineclass.LabelRule("answer", `RESPUESTA|REVERSO|DORSO`),
			lineclass.LabelRule("tip", `TIP|CONSEJO|TRUCO|PISTA`),
		},
	}),
	labels: map[string]field{
		"question": cardQuestion,
		"answer":   cardAnswer,
		"tip":      cardTip,
	},
	first:    cardQuestion,
	implicit: true,
	restart:  cardQuestion,
}

type flashcardBuilder struct {
	question, answer, tip joined
}

func (b *flashcardBuilder) open(lineclass.Line) {}

func (b *flashcardBuilder) text(f field, s string) {
	switch f {
	case cardQuestion:
		b.question.add(s)
	case cardAnswer:
		b.answer.add(s)
	case cardTip:
		b.tip.add(s)
	}
}

func (b *flashcardBuilder) item(f field, s string) { b.text(f, s) }

func (b *flashcardBuilder) has(f field) bool {
	return f == cardQuestion && b.question.filled()
}

func (b *flashcardBuilder) build() (domain.Flashcard, bool) {
	return domain.Flashcard{
		Question: b.question.String(),
		Answer:   b.answer.String(),
		Tip:      b.tip.String(),
	}, true
}

// ParseFlashcards extracts "TARJETA #n" blocks with PREGUNTA, RESPUESTA and
// an optional TIP.
func ParseFlashcards(text string) []domain.Flashcard {
	return accumulate(flashcardSchema, text, func() builder[domain.Flashcard] {
		return &flashcardBuilder{}
	})
}
