package parser

import (
	"github.com/conorfennell/studyparse/internal/domain"
	"github.com/conorfennell/studyparse/internal/lineclass"
	"github.com/conorfennell/studyparse/internal/textnorm"
)

const (
	spacedTopics field = iota + 1
	spacedObjective
)

var spacedSchema = &schema{
	name: "spaced_repetition",
	class: lineclass.New(lineclass.Vocabulary{
		Rules: []lineclass.Rule{
			lineclass.BoundaryRule("day", `DIA\s*#?\s*(\d+)\b`),
			lineclass.LabelRule("topics", `TEMAS?(?:\s+A\s+REPASAR)?|CONTENIDOS?|QUE\s+REPASAR|REPASAR|REPASO`),
			lineclass.LabelRule("objective", `OBJETIVO|META|PROPOSITO`),
		},
	}),
	labels: map[string]field{
		"topics":    spacedTopics,
		"objective": spacedObjective,
	},
	lists: map[field]bool{spacedTopics: true},
	first: spacedTopics,
}

type sessionBuilder struct {
	day       int
	date      string
	topics    []string
	objective joined
}

func (b *sessionBuilder) open(l lineclass.Line) {
	b.day = l.Number
	b.date = l.Value
}

func (b *sessionBuilder) text(f field, s string) {
	if f == spacedObjective {
		b.objective.add(s)
	}
}

func (b *sessionBuilder) item(f field, s string) {
	if f == spacedTopics {
		b.topics = append(b.topics, s)
		return
	}
	b.text(f, s)
}

func (b *sessionBuilder) has(field) bool { return false }

func (b *sessionBuilder) build() (domain.ReviewSession, bool) {
	return domain.ReviewSession{
		Day:       b.day,
		DateLabel: textnorm.Clean(b.date),
		Topics:    textnorm.CleanAll(b.topics),
		Objective: b.objective.String(),
	}, true
}

// ParseSpacedRepetition extracts "DÍA n - fecha" review sessions. Day
// numbers must increase; a session that repeats or goes back is dropped.
func ParseSpacedRepetition(text string) []domain.ReviewSession {
	sessions := accumulate(spacedSchema, text, func() builder[domain.ReviewSession] {
		return &sessionBuilder{}
	})
	return increasing(sessions, func(s domain.ReviewSession) int { return s.Day })
}
