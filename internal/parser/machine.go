// Package parser turns loosely formatted model output into study records.
//
// Every parser is a pure, total function: it never returns an error and never
// panics on unexpected input. A document with no recognizable records simply
// yields an empty slice, and the caller falls back to showing the raw text.
// Parsers may be re-run on a growing prefix of a streamed response; a trailing
// record is only committed once it is complete.
package parser

import (
	"log/slog"
	"strings"

	"github.com/conorfennell/studyparse/internal/lineclass"
	"github.com/conorfennell/studyparse/internal/textnorm"
)

// field identifies which part of the open record receives text.
type field int

const noField field = 0

type phase int

const (
	phaseNone phase = iota
	phaseRecord
)

type action int

const (
	ignore action = iota
	openRecord
	switchField
	addItem
	addOption
	addText
)

// transitions is indexed by the current phase and the kind of the incoming
// line. Blank and separator lines only mark a paragraph break.
var transitions = [...][lineclass.Body + 1]action{
	phaseNone: {
		lineclass.Boundary: openRecord,
		lineclass.Label:    switchField,
	},
	phaseRecord: {
		lineclass.Boundary: openRecord,
		lineclass.Label:    switchField,
		lineclass.Option:   addOption,
		lineclass.Bullet:   addItem,
		lineclass.Body:     addText,
	},
}

// builder accumulates one in-progress record. build returns the cleaned
// candidate; it is committed only if it passes validation.
type builder[R any] interface {
	open(l lineclass.Line)
	text(f field, s string)
	item(f field, s string)
	has(f field) bool
	build() (R, bool)
}

// optionBuilder is implemented by builders that take lettered options.
type optionBuilder interface {
	option(f field, letter, s string)
}

// schema describes how one document type maps lines onto a builder.
type schema struct {
	name   string
	class  *lineclass.Classifier
	labels map[string]field
	lists  map[field]bool
	// first is the field that receives text right after a boundary.
	first field
	// implicit lets a field label open a record with no boundary before it.
	implicit bool
	// restart closes the open record when its label repeats on a filled field.
	restart field
	// options is the list field that option lines move the state to.
	options field
	// prose fields keep taking paragraphs across blank lines. A separator
	// still ends them.
	prose map[field]bool
}

// accumulate runs the section state machine over text.
func accumulate[R any](s *schema, text string, start func() builder[R]) (out []R) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("parser recovered from panic", "parser", s.name, "panic", r)
			out = nil
		}
	}()

	var (
		cur builder[R]
		ph  = phaseNone
		fld = noField
		// filled is set once the current scalar field has received text, and
		// gap once a paragraph break follows it.
		filled, gap bool
	)

	closeRecord := func() {
		if cur != nil {
			if rec, ok := finalize(s.name, cur); ok {
				out = append(out, rec)
			}
		}
		cur = nil
		ph = phaseNone
		fld = noField
		filled, gap = false, false
	}

	open := func(l lineclass.Line) {
		closeRecord()
		cur = start()
		ph = phaseRecord
		fld = s.first
		filled, gap = false, false
		cur.open(l)
	}

	for _, l := range s.class.Lines(text) {
		switch l.Kind {
		case lineclass.Blank:
			gap = gap || (filled && !s.prose[fld])
			continue
		case lineclass.Separator:
			gap = gap || filled
			continue
		}
		switch transitions[ph][l.Kind] {
		case openRecord:
			open(l)

		case switchField:
			f, ok := s.labels[l.Field]
			if !ok {
				continue
			}
			if ph == phaseNone {
				if !s.implicit {
					continue
				}
				open(lineclass.Line{Keycap: -1})
			} else if f == s.restart && cur.has(f) {
				open(lineclass.Line{Keycap: -1})
			}
			fld = f
			filled, gap = l.Value != "", false
			if l.Value == "" {
				continue
			}
			if s.lists[f] {
				cur.item(f, l.Value)
			} else {
				cur.text(f, l.Value)
			}

		case addOption:
			if s.options != noField && fld == s.first {
				fld = s.options
			}
			if ob, ok := cur.(optionBuilder); ok {
				ob.option(fld, l.Letter, l.Value)
				continue
			}
			fallthrough

		case addItem:
			if s.lists[fld] {
				cur.item(fld, l.Value)
			} else {
				cur.text(fld, l.Value)
				filled, gap = true, false
			}

		case addText:
			// Text after a paragraph break does not continue the field.
			if gap {
				fld = noField
			}
			if fld != noField && !s.lists[fld] {
				cur.text(fld, l.Value)
				filled = true
			}
		}
	}
	closeRecord()
	return out
}

// joined collects the lines of a scalar field, joined by single spaces.
type joined []string

func (j *joined) add(s string) {
	if s = strings.TrimSpace(s); s != "" {
		*j = append(*j, s)
	}
}

func (j joined) filled() bool { return len(j) > 0 }

func (j joined) String() string {
	return textnorm.Clean(strings.Join(j, " "))
}
