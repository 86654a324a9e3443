package parser

import (
	"github.com/conorfennell/studyparse/internal/domain"
	"github.com/conorfennell/studyparse/internal/lineclass"
	"github.com/conorfennell/studyparse/internal/textnorm"
)

const (
	summaryIdea field = iota + 1
	summaryPoints
	summaryExample
)

var summarySchema = &schema{
	name: "summary",
	class: lineclass.New(lineclass.Vocabulary{
		Rules: []lineclass.Rule{
			lineclass.BoundaryRule("summary", `RESUMEN\s+(?:FACIL|SENCILLO|SIMPLE)`),
			lineclass.LabelRule("idea", `IDEA\s+PRINCIPAL|EN\s+POCAS\s+PALABRAS|DEFINICION`),
			lineclass.LabelRule("points", `PUNTOS\s+CLAVES?|IDEAS\s+CLAVES?|LO\s+MAS\s+IMPORTANTE`),
			lineclass.LabelRule("example", `EJEMPLO(?:\s+SENCILLO|\s+PRACTICO|\s+COTIDIANO)?|ANALOGIA`),
		},
	}),
	labels: map[string]field{
		"idea":    summaryIdea,
		"points":  summaryPoints,
		"example": summaryExample,
	},
	lists:    map[field]bool{summaryPoints: true},
	first:    summaryIdea,
	implicit: true,
	prose:    map[field]bool{summaryIdea: true, summaryExample: true},
}

type summaryBuilder struct {
	idea    joined
	points  []string
	example joined
}

func (b *summaryBuilder) open(lineclass.Line) {}

func (b *summaryBuilder) text(f field, s string) {
	switch f {
	case summaryIdea:
		b.idea.add(s)
	case summaryExample:
		b.example.add(s)
	}
}

func (b *summaryBuilder) item(f field, s string) {
	if f == summaryPoints {
		b.points = append(b.points, s)
		return
	}
	b.text(f, s)
}

func (b *summaryBuilder) has(field) bool { return false }

func (b *summaryBuilder) build() (domain.Summary, bool) {
	return domain.Summary{
		MainIdea:  b.idea.String(),
		KeyPoints: textnorm.CleanAll(b.points),
		Example:   b.example.String(),
	}, true
}

// ParseSummary extracts an easy summary ("RESUMEN FÁCIL") with its main
// idea, key points and example.
func ParseSummary(text string) []domain.Summary {
	return accumulate(summarySchema, text, func() builder[domain.Summary] {
		return &summaryBuilder{}
	})
}
