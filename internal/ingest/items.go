package ingest

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/conorfennell/studyparse/internal/dispatch"
	"github.com/conorfennell/studyparse/internal/domain"
	"github.com/conorfennell/studyparse/internal/knol"
	"github.com/conorfennell/studyparse/internal/storage"
)

// NewItem wraps one parsed record as a library item keyed by its content hash.
func NewItem(ct domain.ContentType, rec any, topic string) (storage.Item, error) {
	payload, err := json.Marshal(rec)
	if err != nil {
		return storage.Item{}, fmt.Errorf("encoding %s record: %w", ct, err)
	}
	return storage.Item{
		Hash:        knol.Hash(ct, rec),
		ContentType: ct,
		Title:       knol.Title(rec),
		Topic:       topic,
		Payload:     payload,
	}, nil
}

// Items converts every record of an extraction into library items, in
// dispatch order.
func Items(e dispatch.Extraction, topic string) ([]storage.Item, error) {
	var (
		items []storage.Item
		err   error
	)
	add := func(ct domain.ContentType, recs []any) {
		for _, rec := range recs {
			if err != nil {
				return
			}
			var it storage.Item
			if it, err = NewItem(ct, rec, topic); err == nil {
				items = append(items, it)
			}
		}
	}

	add(domain.Flashcards, anys(e.Flashcards))
	add(domain.Quiz, anys(e.Quiz))
	add(domain.Cornell, anys(e.Cornell))
	add(domain.Feynman, anys(e.Feynman))
	add(domain.MindMap, anys(e.MindMap))
	add(domain.SpacedRepetition, anys(e.SpacedRepetition))
	add(domain.ActiveRecall, anys(e.ActiveRecall))
	add(domain.Pomodoro, anys(e.Pomodoro))
	add(domain.EasySummary, anys(e.Summary))

	if err != nil {
		return nil, err
	}
	return items, nil
}

func anys[R any](recs []R) []any {
	out := make([]any, len(recs))
	for i, r := range recs {
		out[i] = r
	}
	return out
}

// Decode returns the typed record stored in an item.
func Decode(it storage.Item) (any, error) {
	var (
		rec any
		err error
	)
	switch it.ContentType {
	case domain.Flashcards:
		rec, err = decode[domain.Flashcard](it.Payload)
	case domain.Quiz:
		rec, err = decode[domain.QuizQuestion](it.Payload)
	case domain.Cornell:
		rec, err = decode[domain.CornellNote](it.Payload)
	case domain.Feynman:
		rec, err = decode[domain.FeynmanStep](it.Payload)
	case domain.MindMap:
		rec, err = decode[domain.MindMapNode](it.Payload)
	case domain.SpacedRepetition:
		rec, err = decode[domain.ReviewSession](it.Payload)
	case domain.ActiveRecall:
		rec, err = decode[domain.RecallQuestion](it.Payload)
	case domain.Pomodoro:
		rec, err = decode[domain.PomodoroSession](it.Payload)
	case domain.EasySummary:
		rec, err = decode[domain.Summary](it.Payload)
	default:
		return nil, fmt.Errorf("item %s: unknown content type %q", it.Hash, it.ContentType)
	}
	if err != nil {
		return nil, fmt.Errorf("decoding item %s: %w", it.Hash, err)
	}
	return rec, nil
}

func decode[R any](payload []byte) (R, error) {
	var rec R
	err := json.Unmarshal(payload, &rec)
	return rec, err
}

// Save inserts the records of an extraction that are not in the library yet
// and returns how many were added. sourceID is 0 for records saved directly.
func Save(db *storage.DB, e dispatch.Extraction, topic string, sourceID int64) (int, error) {
	items, err := Items(e, topic)
	if err != nil {
		return 0, err
	}
	inserted := 0
	for _, it := range items {
		existing, err := db.FindItemByHash(it.Hash)
		if err != nil {
			return inserted, err
		}
		if existing != nil {
			continue
		}
		if err := db.InsertItem(it, sourceID); err != nil {
			return inserted, err
		}
		inserted++
	}
	return inserted, nil
}

// ItemView is a library item with its record decoded, as shown to users.
type ItemView struct {
	Hash       string             `json:"hash" yaml:"hash"`
	Type       domain.ContentType `json:"type" yaml:"type"`
	Title      string             `json:"title" yaml:"title"`
	Topic      string             `json:"topic,omitempty" yaml:"topic,omitempty"`
	Record     any                `json:"record" yaml:"record"`
	State      int                `json:"state" yaml:"state"`
	Stability  float64            `json:"stability" yaml:"stability"`
	Difficulty float64            `json:"difficulty" yaml:"difficulty"`
	Due        time.Time          `json:"due" yaml:"due"`
	LastReview *time.Time         `json:"lastReview,omitempty" yaml:"last_review,omitempty"`
}

// View decodes an item for display.
func View(it storage.Item) (ItemView, error) {
	rec, err := Decode(it)
	if err != nil {
		return ItemView{}, err
	}
	v := ItemView{
		Hash:       it.Hash,
		Type:       it.ContentType,
		Title:      it.Title,
		Topic:      it.Topic,
		Record:     rec,
		State:      it.State,
		Stability:  it.Stability,
		Difficulty: it.Difficulty,
		Due:        it.DueDate,
	}
	if it.LastReview.Valid {
		t := it.LastReview.Time
		v.LastReview = &t
	}
	return v, nil
}

// Views decodes a list of items for display.
func Views(items []storage.Item) ([]ItemView, error) {
	views := make([]ItemView, 0, len(items))
	for _, it := range items {
		v, err := View(it)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}
