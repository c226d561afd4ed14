package drill

import (
	"fmt"
	"time"

	"github.com/kpauljoseph/repeater/internal/scheduler"
)

// FeedbackWindow is how long the last grade stays on screen.
const FeedbackWindow = 2 * time.Second

const minutesPerDay = 24 * 60

type LastGrade struct {
	Grade       scheduler.Grade
	IntervalRaw float64
	At          time.Time
}

// String renders the grade and a rough "see again" bucket, e.g.
// "Pass (See again in <15 mins)".
func (g LastGrade) String() string {
	return fmt.Sprintf("%s (See again in %s)", g.Grade, SeeAgain(g.IntervalRaw))
}

// SeeAgain buckets an interval given in days.
func SeeAgain(days float64) string {
	switch {
	case days <= 15.0/minutesPerDay:
		return "<15 mins"
	case days <= 30.0/minutesPerDay:
		return "<30 mins"
	case days <= 0.5:
		return "<12 hours"
	case days <= 1:
		return "<1 day"
	}
	return fmt.Sprintf("%d days", int64(days))
}
