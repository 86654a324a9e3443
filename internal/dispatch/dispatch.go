// Package dispatch decides which study formats a model response contains and
// runs the matching parsers.
package dispatch

import (
	"regexp"

	"github.com/conorfennell/studyparse/internal/domain"
	"github.com/conorfennell/studyparse/internal/parser"
	"github.com/conorfennell/studyparse/internal/textnorm"
)

// Extraction holds every record found in one response, one list per type.
type Extraction struct {
	Flashcards       []domain.Flashcard       `json:"flashcards,omitempty" yaml:"flashcards,omitempty"`
	Quiz             []domain.QuizQuestion    `json:"quiz,omitempty" yaml:"quiz,omitempty"`
	Cornell          []domain.CornellNote     `json:"cornell,omitempty" yaml:"cornell,omitempty"`
	Feynman          []domain.FeynmanStep     `json:"feynman,omitempty" yaml:"feynman,omitempty"`
	MindMap          []domain.MindMapNode     `json:"mindmap,omitempty" yaml:"mindmap,omitempty"`
	SpacedRepetition []domain.ReviewSession   `json:"spaced_repetition,omitempty" yaml:"spaced_repetition,omitempty"`
	ActiveRecall     []domain.RecallQuestion  `json:"active_recall,omitempty" yaml:"active_recall,omitempty"`
	Pomodoro         []domain.PomodoroSession `json:"pomodoro,omitempty" yaml:"pomodoro,omitempty"`
	Summary          []domain.Summary         `json:"summary,omitempty" yaml:"summary,omitempty"`
}

// Map returns the non-empty record lists keyed by content type.
func (e Extraction) Map() map[domain.ContentType]any {
	m := make(map[domain.ContentType]any)
	put := func(ct domain.ContentType, n int, v any) {
		if n > 0 {
			m[ct] = v
		}
	}
	put(domain.Flashcards, len(e.Flashcards), e.Flashcards)
	put(domain.Quiz, len(e.Quiz), e.Quiz)
	put(domain.Cornell, len(e.Cornell), e.Cornell)
	put(domain.Feynman, len(e.Feynman), e.Feynman)
	put(domain.MindMap, len(e.MindMap), e.MindMap)
	put(domain.SpacedRepetition, len(e.SpacedRepetition), e.SpacedRepetition)
	put(domain.ActiveRecall, len(e.ActiveRecall), e.ActiveRecall)
	put(domain.Pomodoro, len(e.Pomodoro), e.Pomodoro)
	put(domain.EasySummary, len(e.Summary), e.Summary)
	return m
}

// Types lists the content types found, in dispatch order.
func (e Extraction) Types() []domain.ContentType {
	m := e.Map()
	var types []domain.ContentType
	for _, ct := range domain.ContentTypes {
		if _, ok := m[ct]; ok {
			types = append(types, ct)
		}
	}
	return types
}

// Empty reports whether nothing structured was found.
func (e Extraction) Empty() bool {
	return len(e.Map()) == 0
}

// Counts returns the number of records per content type found.
func (e Extraction) Counts() map[domain.ContentType]int {
	return map[domain.ContentType]int{
		domain.Flashcards:       len(e.Flashcards),
		domain.Quiz:             len(e.Quiz),
		domain.Cornell:          len(e.Cornell),
		domain.Feynman:          len(e.Feynman),
		domain.MindMap:          len(e.MindMap),
		domain.SpacedRepetition: len(e.SpacedRepetition),
		domain.ActiveRecall:     len(e.ActiveRecall),
		domain.Pomodoro:         len(e.Pomodoro),
		domain.EasySummary:      len(e.Summary),
	}
}

// detector fires when any of its pattern groups fully matches. Every pattern
// of a group must be present, anywhere in the folded text.
type detector struct {
	ct     domain.ContentType
	groups [][]*regexp.Regexp
	run    func(text, topic string, e *Extraction)
}

func (d detector) fires(folded string) bool {
	for _, group := range d.groups {
		all := true
		for _, re := range group {
			if !re.MatchString(folded) {
				all = false
				break
			}
		}
		if all {
			return true
		}
	}
	return false
}

func anyOf(patterns ...string) [][]*regexp.Regexp {
	groups := make([][]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		groups = append(groups, []*regexp.Regexp{regexp.MustCompile(p)})
	}
	return groups
}

func allOf(patterns ...string) []*regexp.Regexp {
	group := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		group = append(group, regexp.MustCompile(p))
	}
	return group
}

var detectors = []detector{
	{
		ct:     domain.Flashcards,
		groups: anyOf(`TARJETA\s*(?:#|N[O°º]\.?)?\s*\d+`),
		run:    func(t, _ string, e *Extraction) { e.Flashcards = parser.ParseFlashcards(t) },
	},
	{
		ct:     domain.Quiz,
		groups: anyOf(`RESPUESTA\s+CORRECTA`),
		run:    func(t, _ string, e *Extraction) { e.Quiz = parser.ParseQuiz(t) },
	},
	{
		ct: domain.Cornell,
		groups: append(anyOf(`CORNELL`),
			allOf(`(?:PREGUNTAS|PALABRAS|IDEAS)\s+CLAVE`, `NOTAS`, `RESUMEN`)),
		run: func(t, _ string, e *Extraction) { e.Cornell = parser.ParseCornell(t) },
	},
	{
		ct:     domain.Feynman,
		groups: append(anyOf(`FEYNMAN`), allOf(`PASO\s*1\b`, `PASO\s*2\b`)),
		run:    func(t, _ string, e *Extraction) { e.Feynman = parser.ParseFeynman(t) },
	},
	{
		ct:     domain.MindMap,
		groups: anyOf(`MAPA\s+MENTAL`, `TEMA\s+CENTRAL`),
		run:    func(t, topic string, e *Extraction) { e.MindMap = parser.ParseMindMap(t, topic) },
	},
	{
		ct:     domain.SpacedRepetition,
		groups: anyOf(`DIA\s*\d+\s*[-–—]`),
		run:    func(t, _ string, e *Extraction) { e.SpacedRepetition = parser.ParseSpacedRepetition(t) },
	},
	{
		ct: domain.ActiveRecall,
		groups: append(anyOf(`RECUERDO\s+ACTIVO`, `RECALL\s+ACTIVO`, `ACTIVE\s+RECALL`),
			allOf(`PISTA\s*:`, `PREGUNTA\s*#?\s*\d+`)),
		run: func(t, _ string, e *Extraction) { e.ActiveRecall = parser.ParseActiveRecall(t) },
	},
	{
		ct:     domain.Pomodoro,
		groups: anyOf(`POMODORO`),
		run:    func(t, _ string, e *Extraction) { e.Pomodoro = parser.ParsePomodoro(t) },
	},
	{
		ct:     domain.EasySummary,
		groups: append(anyOf(`RESUMEN\s+FACIL`), allOf(`IDEA\s+PRINCIPAL`, `PUNTOS\s+CLAVE`)),
		run:    func(t, _ string, e *Extraction) { e.Summary = parser.ParseSummary(t) },
	},
}

// Detect returns the content types whose markers appear in text, without
// parsing. A detected type may still yield no valid records.
func Detect(text string) []domain.ContentType {
	folded := textnorm.Fold(text)
	var found []domain.ContentType
	for _, d := range detectors {
		if d.fires(folded) {
			found = append(found, d.ct)
		}
	}
	return found
}

// DetectAndParseAll runs every detector over text and the parser of each one
// that fires. Detectors are independent, so one response can yield several
// record types. topic labels the mind map root when the text names none.
func DetectAndParseAll(text, topic string) Extraction {
	var e Extraction
	folded := textnorm.Fold(text)
	for _, d := range detectors {
		if d.fires(folded) {
			d.run(text, topic, &e)
		}
	}
	return e
}
