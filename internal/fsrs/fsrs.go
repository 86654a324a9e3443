// Package fsrs schedules reviews of saved library items and places parsed
// spaced repetition plans on the calendar.
package fsrs

import (
	"fmt"
	"math"
	"time"
)

// Rating is the grade given to an item when it is reviewed.
type Rating int

const (
	Again Rating = 1
	Hard  Rating = 2
	Good  Rating = 3
	Easy  Rating = 4
)

// ParseRating validates a grade in the 1-4 range.
func ParseRating(grade int) (Rating, error) {
	r := Rating(grade)
	if r < Again || r > Easy {
		return 0, fmt.Errorf("invalid rating %d: must be between 1 and 4", grade)
	}
	return r, nil
}

// Params tunes the stability update.
type Params struct {
	A                float64 // overall growth scale
	B                float64 // difficulty exponent
	C                float64 // stability exponent
	D                float64 // retention effect
	DesiredRetention float64 // target recall probability, 0.9 is 90%
	EasyBonus        float64 // stability multiplier for Easy
}

// DefaultParams returns the parameters used by the CLI and the HTTP API.
func DefaultParams() *Params {
	return &Params{
		A:                0.2,
		B:                0.5,
		C:                0.1,
		D:                4.0,
		DesiredRetention: 0.9,
		EasyBonus:        1.3,
	}
}

// CardState is the memory state of one library item.
type CardState struct {
	Stability  float64 // days
	Difficulty float64 // 1 to 10
	LastReview time.Time
}

// NextState returns the state after a review graded rating at now.
func (p *Params) NextState(current CardState, rating Rating, now time.Time) CardState {
	if rating == Again {
		// A lapse restarts the item at one day and makes it harder.
		return CardState{
			Stability:  1,
			Difficulty: math.Min(10, current.Difficulty+0.5),
			LastReview: now,
		}
	}

	stability := p.grow(current.Stability, current.Difficulty)
	difficulty := current.Difficulty
	switch rating {
	case Hard:
		difficulty = math.Min(10, difficulty+0.1)
	case Easy:
		stability *= p.EasyBonus
		difficulty = math.Max(1, difficulty-0.1)
	}

	return CardState{
		Stability:  stability,
		Difficulty: difficulty,
		LastReview: now,
	}
}

// grow applies S' = S * (1 + a * D^(-b) * S^c * (e^(d * (1-R)) - 1)) for a
// successful review. New items start from S = D = 1.
func (p *Params) grow(stability, difficulty float64) float64 {
	stability = math.Max(1, stability)
	difficulty = math.Max(1, difficulty)

	factor := p.A * math.Pow(difficulty, -p.B) * math.Pow(stability, p.C)
	boost := math.Exp(p.D*(1-p.DesiredRetention)) - 1
	return stability * (1 + factor*boost)
}

// NextDueDate schedules the next review stability days after from, rounded
// to whole days.
func NextDueDate(stability float64, from time.Time) time.Time {
	days := time.Duration(math.Round(stability))
	return from.Add(days * 24 * time.Hour)
}
