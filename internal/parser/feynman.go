package parser

import (
	"strconv"

	"github.com/conorfennell/studyparse/internal/domain"
	"github.com/conorfennell/studyparse/internal/lineclass"
	"github.com/conorfennell/studyparse/internal/textnorm"
)

const (
	feynmanTitle field = iota + 1
	feynmanContent
)

var feynmanSchema = &schema{
	name: "feynman",
	class: lineclass.New(lineclass.Vocabulary{
		Rules: []lineclass.Rule{
			lineclass.BoundaryRule("step", `(?:PASO|ETAPA|FASE)\s*#?\s*(\d+)`),
			lineclass.LabelRule("title", `TITULO`),
			lineclass.LabelRule("content", `EXPLICACION|CONTENIDO|DESARROLLO`),
		},
		KeycapField: "step",
	}),
	labels: map[string]field{
		"title":   feynmanTitle,
		"content": feynmanContent,
	},
	first: feynmanContent,
	prose: map[field]bool{feynmanContent: true},
}

var feynmanCycle = [...]domain.FeynmanIcon{
	domain.IconTeach,
	domain.IconThink,
	domain.IconSimplify,
	domain.IconReview,
}

type feynmanBuilder struct {
	number  int
	title   joined
	content joined
}

func (b *feynmanBuilder) open(l lineclass.Line) {
	b.number = l.Number
	b.title.add(l.Value)
}

func (b *feynmanBuilder) text(f field, s string) {
	switch f {
	case feynmanTitle:
		b.title.add(s)
	case feynmanContent:
		b.content.add(s)
	}
}

func (b *feynmanBuilder) item(f field, s string) { b.text(f, s) }

func (b *feynmanBuilder) has(field) bool { return false }

func (b *feynmanBuilder) build() (domain.FeynmanStep, bool) {
	title := b.title.String()
	if title == "" {
		title = "Paso " + strconv.Itoa(b.number)
	}
	return domain.FeynmanStep{
		StepNumber: b.number,
		Title:      title,
		Content:    b.content.String(),
		Icon:       feynmanIcon(b.number, title),
	}, true
}

// feynmanIcon picks the icon from the step title, falling back to the
// position of the step in the four-step cycle.
func feynmanIcon(number int, title string) domain.FeynmanIcon {
	folded := textnorm.Fold(title)
	switch {
	case containsAny(folded, "IDENTIFIC", "LAGUNA", "PIENSA", "REFLEX", "VACIO", "DUDA"):
		return domain.IconThink
	case containsAny(folded, "SIMPLIF", "ANALOG"):
		return domain.IconSimplify
	case containsAny(folded, "REVIS", "REPAS", "ORGANIZ", "REFIN", "REVIEW"):
		return domain.IconReview
	case containsAny(folded, "EXPLIC", "ENSEN", "CUENTA", "TEACH"):
		return domain.IconTeach
	}
	if number < 1 {
		number = 1
	}
	return feynmanCycle[(number-1)%len(feynmanCycle)]
}

// ParseFeynman extracts numbered Feynman technique steps. Steps whose number
// does not increase over the previous step are dropped.
func ParseFeynman(text string) []domain.FeynmanStep {
	steps := accumulate(feynmanSchema, text, func() builder[domain.FeynmanStep] {
		return &feynmanBuilder{}
	})
	return increasing(steps, func(s domain.FeynmanStep) int { return s.StepNumber })
}
