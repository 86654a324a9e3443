package knol

import (
	"crypto/sha256"
	"fmt"
	"strconv"
	"strings"

	"github.com/conorfennell/studyparse/internal/domain"
)

// Normalize renders a record as canonical text prefixed by its content type.
// It trims whitespace, lowercases, and normalizes line endings for each field
// before joining them. Review state such as ReviewSession.Completed is not
// part of the content and is left out.
func Normalize(ct domain.ContentType, rec any) string {
	normalizePart := func(part string) string {
		p := strings.ToLower(part)
		p = strings.TrimSpace(p)
		p = strings.ReplaceAll(p, "\r\n", "\n")
		return p
	}

	raw := parts(rec)
	out := make([]string, 0, len(raw)+1)
	out = append(out, string(ct))
	for _, p := range raw {
		out = append(out, normalizePart(p))
	}

	// Fields are newline separated so that "question" and "answer" never
	// collapse into "questionanswer".
	return strings.Join(out, "\n")
}

// Hash normalizes a record and returns its SHA-256 hash as a hex string.
func Hash(ct domain.ContentType, rec any) string {
	normalized := Normalize(ct, rec)
	hashBytes := sha256.Sum256([]byte(normalized))
	return fmt.Sprintf("%x", hashBytes)
}

// Title returns a short human label for a record, used by listings.
func Title(rec any) string {
	switch r := rec.(type) {
	case domain.Flashcard:
		return r.Question
	case domain.QuizQuestion:
		return r.Question
	case domain.CornellNote:
		if len(r.Cues) > 0 {
			return r.Cues[0]
		}
		if len(r.Notes) > 0 {
			return r.Notes[0]
		}
		return r.Summary
	case domain.FeynmanStep:
		return r.Title
	case domain.MindMapNode:
		return r.Label
	case domain.ReviewSession:
		if r.DateLabel != "" {
			return "Día " + strconv.Itoa(r.Day) + " - " + r.DateLabel
		}
		return "Día " + strconv.Itoa(r.Day)
	case domain.RecallQuestion:
		return r.Question
	case domain.PomodoroSession:
		if r.Focus != "" {
			return r.Focus
		}
		return "Pomodoro " + strconv.Itoa(r.SessionNumber)
	case domain.Summary:
		if r.MainIdea != "" {
			return r.MainIdea
		}
		return strings.Join(r.KeyPoints, "; ")
	}
	return fmt.Sprint(rec)
}

func parts(rec any) []string {
	lines := func(items []string) string { return strings.Join(items, "\n") }

	switch r := rec.(type) {
	case domain.Flashcard:
		return []string{r.Question, r.Answer, r.Tip}
	case domain.QuizQuestion:
		return []string{r.Question, lines(r.Options), strconv.Itoa(r.CorrectAnswerIndex), r.Explanation}
	case domain.CornellNote:
		return []string{lines(r.Cues), lines(r.Notes), r.Summary}
	case domain.FeynmanStep:
		return []string{strconv.Itoa(r.StepNumber), r.Title, r.Content}
	case domain.MindMapNode:
		var out []string
		walkLabels(r, &out)
		return out
	case domain.ReviewSession:
		return []string{strconv.Itoa(r.Day), r.DateLabel, lines(r.Topics), r.Objective}
	case domain.RecallQuestion:
		return []string{r.Question, r.Answer, r.Hint}
	case domain.PomodoroSession:
		return []string{strconv.Itoa(r.SessionNumber), r.Focus, lines(r.Activities), r.BreakDescription}
	case domain.Summary:
		return []string{r.MainIdea, lines(r.KeyPoints), r.Example}
	}
	return []string{fmt.Sprint(rec)}
}

// walkLabels flattens a mind map depth first. Node IDs are derived from the
// labels, so only labels and levels are hashed.
func walkLabels(n domain.MindMapNode, out *[]string) {
	*out = append(*out, strconv.Itoa(n.Level)+":"+n.Label)
	for _, c := range n.Children {
		walkLabels(c, out)
	}
}
