package parser

import (
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/conorfennell/studyparse/internal/domain"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterStructValidation(func(sl validator.StructLevel) {
		q := sl.Current().Interface().(domain.QuizQuestion)
		if q.CorrectAnswerIndex >= len(q.Options) {
			sl.ReportError(q.CorrectAnswerIndex, "CorrectAnswerIndex", "CorrectAnswerIndex", "inrange", "")
		}
	}, domain.QuizQuestion{})

	v.RegisterStructValidation(func(sl validator.StructLevel) {
		c := sl.Current().Interface().(domain.CornellNote)
		if len(c.Cues) == 0 && len(c.Notes) == 0 {
			sl.ReportError(c.Cues, "Cues", "Cues", "cuesornotes", "")
		}
	}, domain.CornellNote{})

	v.RegisterStructValidation(func(sl validator.StructLevel) {
		s := sl.Current().Interface().(domain.Summary)
		if s.MainIdea == "" && len(s.KeyPoints) == 0 {
			sl.ReportError(s.MainIdea, "MainIdea", "MainIdea", "ideaorpoints", "")
		}
	}, domain.Summary{})

	return v
}

// Valid reports whether rec satisfies the invariants of its record type.
func Valid(rec any) bool {
	return validate.Struct(rec) == nil
}

// finalize closes b and commits the record only if it validates.
func finalize[R any](name string, b builder[R]) (R, bool) {
	rec, ok := b.build()
	if !ok {
		return rec, false
	}
	if err := validate.Struct(rec); err != nil {
		slog.Debug("dropping incomplete record", "parser", name, "reason", err)
		var zero R
		return zero, false
	}
	return rec, true
}

// increasing keeps only records whose number is greater than the last one
// kept.
func increasing[R any](recs []R, number func(R) int) []R {
	var out []R
	last := 0
	for _, r := range recs {
		if n := number(r); n > last {
			out = append(out, r)
			last = n
		}
	}
	return out
}
