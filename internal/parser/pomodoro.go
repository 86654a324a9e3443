package parser

import (
	"github.com/conorfennell/studyparse/internal/domain"
	"github.com/conorfennell/studyparse/internal/lineclass"
	"github.com/conorfennell/studyparse/internal/textnorm"
)

const (
	pomodoroFocus field = iota + 1
	pomodoroActivities
	pomodoroBreak
)

var pomodoroSchema = &schema{
	name: "pomodoro",
	class: lineclass.New(lineclass.Vocabulary{
		Rules: []lineclass.Rule{
			lineclass.BoundaryRule("session", `(?:POMODORO|SESION|BLOQUE)\s*#?\s*(\d+)`),
			lineclass.LabelRule("focus", `ENFOQUE|FOCO|OBJETIVO|TEMA`),
			lineclass.LabelRule("activities", `ACTIVIDADES|TAREAS|QUE\s+HACER`),
			lineclass.LabelRule("break", `(?:DESCANSO|PAUSA)(?:\s+(?:CORTO|LARGO|CORTA|LARGA))?(?:\s*\([^)]*\))?`),
		},
	}),
	labels: map[string]field{
		"focus":      pomodoroFocus,
		"activities": pomodoroActivities,
		"break":      pomodoroBreak,
	},
	lists: map[field]bool{pomodoroActivities: true},
	first: pomodoroActivities,
}

type pomodoroBuilder struct {
	number     int
	focus      joined
	activities []string
	rest       joined
}

func (b *pomodoroBuilder) open(l lineclass.Line) {
	b.number = l.Number
	value := l.Value
	if m := leadingParenRe.FindStringSubmatch(value); m != nil {
		value = value[len(m[0]):]
	}
	b.focus.add(value)
}

func (b *pomodoroBuilder) text(f field, s string) {
	switch f {
	case pomodoroFocus:
		b.focus.add(s)
	case pomodoroBreak:
		b.rest.add(s)
	}
}

func (b *pomodoroBuilder) item(f field, s string) {
	if f == pomodoroActivities {
		b.activities = append(b.activities, s)
		return
	}
	b.text(f, s)
}

func (b *pomodoroBuilder) has(field) bool { return false }

func (b *pomodoroBuilder) build() (domain.PomodoroSession, bool) {
	return domain.PomodoroSession{
		SessionNumber:    b.number,
		Focus:            b.focus.String(),
		Activities:       textnorm.CleanAll(b.activities),
		BreakDescription: b.rest.String(),
	}, true
}

// ParsePomodoro extracts Pomodoro focus sessions. A session needs at least
// one activity.
func ParsePomodoro(text string) []domain.PomodoroSession {
	return accumulate(pomodoroSchema, text, func() builder[domain.PomodoroSession] {
		return &pomodoroBuilder{}
	})
}
