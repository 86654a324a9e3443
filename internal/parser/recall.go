package parser

import (
	"github.com/conorfennell/studyparse/internal/domain"
	"github.com/conorfennell/studyparse/internal/lineclass"
)

const (
	recallQuestion field = iota + 1
	recallAnswer
	recallHint
)

var recallSchema = &schema{
	name: "active_recall",
	class: lineclass.New(lineclass.Vocabulary{
		Rules: []lineclass.Rule{
			lineclass.BoundaryRule("question", `PREGUNTA\s*(?:#|N[O°º]\.?)?\s*(\d+)`),
			lineclass.LabelRule("question", `PREGUNTA`),
			lineclass.LabelRule("answer", `RESPUESTA(?:\s+ESPERADA|\s+CORRECTA|\s+MODELO)?`),
			lineclass.LabelRule("hint", `PISTA|AYUDA|HINT`),
		},
	}),
	labels: map[string]field{
		"question": recallQuestion,
		"answer":   recallAnswer,
		"hint":     recallHint,
	},
	first:    recallQuestion,
	implicit: true,
	restart:  recallQuestion,
}

type recallBuilder struct {
	question, answer, hint joined
}

func (b *recallBuilder) open(l lineclass.Line) {
	b.question.add(l.Value)
}

func (b *recallBuilder) text(f field, s string) {
	switch f {
	case recallQuestion:
		b.question.add(s)
	case recallAnswer:
		b.answer.add(s)
	case recallHint:
		b.hint.add(s)
	}
}

func (b *recallBuilder) item(f field, s string) { b.text(f, s) }

func (b *recallBuilder) has(f field) bool {
	return f == recallQuestion && b.question.filled()
}

func (b *recallBuilder) build() (domain.RecallQuestion, bool) {
	return domain.RecallQuestion{
		Question: b.question.String(),
		Answer:   b.answer.String(),
		Hint:     b.hint.String(),
	}, true
}

// ParseActiveRecall extracts active recall questions with their expected
// answers and optional hints.
func ParseActiveRecall(text string) []domain.RecallQuestion {
	return accumulate(recallSchema, text, func() builder[domain.RecallQuestion] {
		return &recallBuilder{}
	})
}
