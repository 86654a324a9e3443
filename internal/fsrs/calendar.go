package fsrs

import (
	"time"

	"github.com/conorfennell/studyparse/internal/domain"
)

// ScheduledSession is a spaced repetition session placed on the calendar.
type ScheduledSession struct {
	domain.ReviewSession `yaml:",inline"`
	Date time.Time `json:"scheduledFor" yaml:"scheduled_for"`
}

// Project places the sessions of a spaced repetition plan on the calendar,
// with day 1 falling on the day of start. Sessions keep their order.
func Project(sessions []domain.ReviewSession, start time.Time) []ScheduledSession {
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	out := make([]ScheduledSession, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, ScheduledSession{
			ReviewSession: s,
			Date:          day.AddDate(0, 0, s.Day-1),
		})
	}
	return out
}

// DueSessions returns the sessions of a projected plan that are not completed
// and fall on or before now.
func DueSessions(plan []ScheduledSession, now time.Time) []ScheduledSession {
	var due []ScheduledSession
	for _, s := range plan {
		if !s.Completed && !s.Date.After(now) {
			due = append(due, s)
		}
	}
	return due
}
