// Package domain holds the study records extracted from model output.
package domain

import (
	"fmt"
	"time"
)

// ContentType names one kind of structured study content.
type ContentType string

const (
	Flashcards       ContentType = "flashcards"
	Quiz             ContentType = "quiz"
	Cornell          ContentType = "cornell"
	Feynman          ContentType = "feynman"
	MindMap          ContentType = "mindmap"
	SpacedRepetition ContentType = "spaced_repetition"
	ActiveRecall     ContentType = "active_recall"
	Pomodoro         ContentType = "pomodoro"
	EasySummary      ContentType = "summary"
)

// ContentTypes lists every content type in dispatch order.
var ContentTypes = []ContentType{
	Flashcards,
	Quiz,
	Cornell,
	Feynman,
	MindMap,
	SpacedRepetition,
	ActiveRecall,
	Pomodoro,
	EasySummary,
}

// ParseContentType validates a content type name.
func ParseContentType(s string) (ContentType, error) {
	for _, ct := range ContentTypes {
		if string(ct) == s {
			return ct, nil
		}
	}
	return "", fmt.Errorf("unknown content type %q", s)
}

// ReviewLog records a single review event for a saved item.
// The Grade corresponds to FSRS-4.5 ratings:
// 1: Again (Incorrect)
// 2: Hard
// 3: Good
// 4: Easy
type ReviewLog struct {
	ItemHash  string
	Timestamp time.Time
	Grade     int
}
