package knol

import (
	"testing"

	"github.com/conorfennell/studyparse/internal/domain"
)

func TestNormalize(t *testing.T) {
	card := domain.Flashcard{
		Question: "  ¿Qué es HTMX? \r\n",
		Answer:   "Una librería para AJAX.",
		Tip:      "Desarrollo Web",
	}
	expected := "flashcards\n¿qué es htmx?\nuna librería para ajax.\ndesarrollo web"
	normalized := Normalize(domain.Flashcards, card)

	if normalized != expected {
		t.Errorf("Expected normalized string to be '%s', but got '%s'", expected, normalized)
	}
}

func TestHash(t *testing.T) {
	t.Run("generates correct hash", func(t *testing.T) {
		card := domain.Flashcard{
			Question: "Q",
			Answer:   "A",
			Tip:      "C",
		}
		// Hash for "flashcards\nq\na\nc"
		expectedHash := "78953476295ed2cab113e4cc57a5e56df71c2da4cfe60f9089ca9f01aee7f0d3"
		hash := Hash(domain.Flashcards, card)

		if hash != expectedHash {
			t.Errorf("Expected hash '%s', but got '%s'", expectedHash, hash)
		}
	})

	t.Run("hash is deterministic", func(t *testing.T) {
		q1 := domain.RecallQuestion{Question: "Test", Answer: "Sí"}
		q2 := domain.RecallQuestion{Question: "Test", Answer: "Sí"}
		if Hash(domain.ActiveRecall, q1) != Hash(domain.ActiveRecall, q2) {
			t.Error("Expected hashes for identical records to be the same")
		}
	})

	t.Run("normalization produces same hash", func(t *testing.T) {
		card1 := domain.Flashcard{
			Question: "  ¿qué es go? ",
			Answer:   "Un lenguaje de programación.",
		}
		card2 := domain.Flashcard{
			Question: "¿Qué Es Go?",
			Answer:   "Un lenguaje de programación.",
		}
		if Hash(domain.Flashcards, card1) != Hash(domain.Flashcards, card2) {
			t.Error("Expected hashes to be the same after normalization, but they were different.")
		}
	})

	t.Run("different records have different hashes", func(t *testing.T) {
		card1 := domain.Flashcard{Question: "Tarjeta 1"}
		card2 := domain.Flashcard{Question: "Tarjeta 2"}
		if Hash(domain.Flashcards, card1) == Hash(domain.Flashcards, card2) {
			t.Error("Expected hashes for different records to be different")
		}
	})

	t.Run("content type is part of the hash", func(t *testing.T) {
		card := domain.Flashcard{Question: "¿Uno?", Answer: "1"}
		recall := domain.RecallQuestion{Question: "¿Uno?", Answer: "1"}
		if Hash(domain.Flashcards, card) == Hash(domain.ActiveRecall, recall) {
			t.Error("Expected the same text under two content types to hash differently")
		}
	})

	t.Run("completion does not change a session hash", func(t *testing.T) {
		open := domain.ReviewSession{Day: 1, Topics: []string{"Células"}}
		done := open
		done.Completed = true
		if Hash(domain.SpacedRepetition, open) != Hash(domain.SpacedRepetition, done) {
			t.Error("Expected completion state to be ignored by the hash")
		}
	})

	t.Run("mind map ids are ignored", func(t *testing.T) {
		a := domain.MindMapNode{ID: "a", Label: "Agua", Children: []domain.MindMapNode{{ID: "b", Label: "Hielo", Level: 1}}}
		b := domain.MindMapNode{ID: "x", Label: "Agua", Children: []domain.MindMapNode{{ID: "y", Label: "Hielo", Level: 1}}}
		if Hash(domain.MindMap, a) != Hash(domain.MindMap, b) {
			t.Error("Expected mind maps with the same labels to hash the same")
		}
	})
}

func TestTitle(t *testing.T) {
	testCases := []struct {
		rec      any
		expected string
	}{
		{domain.Flashcard{Question: "¿Qué?"}, "¿Qué?"},
		{domain.CornellNote{Notes: []string{"Nota"}}, "Nota"},
		{domain.ReviewSession{Day: 3, DateLabel: "Miércoles"}, "Día 3 - Miércoles"},
		{domain.PomodoroSession{SessionNumber: 2}, "Pomodoro 2"},
		{domain.Summary{KeyPoints: []string{"a", "b"}}, "a; b"},
	}
	for _, tc := range testCases {
		if got := Title(tc.rec); got != tc.expected {
			t.Errorf("Title(%+v) = '%s', expected '%s'", tc.rec, got, tc.expected)
		}
	}
}
