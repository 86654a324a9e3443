package ingest

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/conorfennell/studyparse/internal/domain"
	"github.com/conorfennell/studyparse/internal/fsrs"
	"github.com/conorfennell/studyparse/internal/storage"
)

// Item review states.
const (
	StateNew      = 0
	StateLearning = 1
	StateReview   = 2
)

// Review applies a 1-4 grade made at now to the item with the given hash,
// reschedules it and logs the review. It returns storage.ErrNotFound when no
// such item is saved.
func Review(db *storage.DB, params *fsrs.Params, hash string, grade int, now time.Time) (*storage.Item, error) {
	rating, err := fsrs.ParseRating(grade)
	if err != nil {
		return nil, err
	}

	it, err := db.FindItemByHash(hash)
	if err != nil {
		return nil, err
	}
	if it == nil {
		return nil, fmt.Errorf("item %s: %w", hash, storage.ErrNotFound)
	}

	next := params.NextState(fsrs.CardState{
		Stability:  it.Stability,
		Difficulty: it.Difficulty,
		LastReview: it.LastReview.Time,
	}, rating, now)

	it.Stability = next.Stability
	it.Difficulty = next.Difficulty
	it.DueDate = fsrs.NextDueDate(next.Stability, now)
	it.LastReview = sql.NullTime{Time: next.LastReview, Valid: true}
	it.State = StateReview
	if rating == fsrs.Again {
		it.State = StateLearning
	}

	if err := db.UpdateItemState(it); err != nil {
		return nil, err
	}
	if err := db.InsertReviewLog(domain.ReviewLog{ItemHash: hash, Timestamp: now, Grade: grade}); err != nil {
		return nil, err
	}
	return it, nil
}
