package parser

import (
	"github.com/conorfennell/studyparse/internal/domain"
	"github.com/conorfennell/studyparse/internal/lineclass"
	"github.com/conorfennell/studyparse/internal/textnorm"
)

const (
	cornellCues field = iota + 1
	cornellNotes
	cornellSummary
)

var cornellSchema = &schema{
	name: "cornell",
	class: lineclass.New(lineclass.Vocabulary{
		Rules: []lineclass.Rule{
			lineclass.BoundaryRule("cornell", `(?:NOTAS|METODO|FORMATO|SISTEMA|APUNTES)\s+(?:DE\s+)?CORNELL|CORNELL\s*(?::|$)`),
			lineclass.LabelRule("cues", `(?:PREGUNTAS|PALABRAS|IDEAS|CONCEPTOS)\s+CLAVES?|CLAVES|PISTAS|COLUMNA\s+(?:DE\s+)?(?:CLAVES|PREGUNTAS|PISTAS)|PREGUNTAS`),
			lineclass.LabelRule("notes", `NOTAS\s+(?:PRINCIPALES|DE\s+CLASE)|NOTAS|APUNTES|COLUMNA\s+(?:DE\s+)?NOTAS|DESARROLLO`),
			lineclass.LabelRule("summary", `RESUMEN`),
		},
	}),
	labels: map[string]field{
		"cues":    cornellCues,
		"notes":   cornellNotes,
		"summary": cornellSummary,
	},
	lists:    map[field]bool{cornellCues: true, cornellNotes: true},
	first:    cornellNotes,
	implicit: true,
	prose:    map[field]bool{cornellSummary: true},
}

type cornellBuilder struct {
	cues, notes []string
	summary     joined
}

func (b *cornellBuilder) open(lineclass.Line) {}

func (b *cornellBuilder) text(f field, s string) {
	if f == cornellSummary {
		b.summary.add(s)
	}
}

func (b *cornellBuilder) item(f field, s string) {
	switch f {
	case cornellCues:
		b.cues = append(b.cues, s)
	case cornellNotes:
		b.notes = append(b.notes, s)
	default:
		b.text(f, s)
	}
}

func (b *cornellBuilder) has(field) bool { return false }

func (b *cornellBuilder) build() (domain.CornellNote, bool) {
	return domain.CornellNote{
		Cues:    textnorm.CleanAll(b.cues),
		Notes:   textnorm.CleanAll(b.notes),
		Summary: b.summary.String(),
	}, true
}

// ParseCornell extracts Cornell notes: a cue column, a notes column and a
// summary. A document usually holds one note.
func ParseCornell(text string) []domain.CornellNote {
	return accumulate(cornellSchema, text, func() builder[domain.CornellNote] {
		return &cornellBuilder{}
	})
}
