package scheduler

import "time"

// Weights is the 19-parameter FSRS weight vector.
type Weights [19]float64

// DefaultWeights are the published FSRS-4.5 defaults.
var DefaultWeights = Weights{
	0.40255, 1.18385, 3.173, 15.69105, 7.1949, 0.5345, 1.4604, 0.0046, 1.54575, 0.1192, 1.01925,
	1.9395, 0.11, 0.29605, 2.2698, 0.2315, 2.9898, 0.51655, 0.6621,
}

const (
	factor = 19.0 / 81.0
	decay  = -0.5

	DefaultRetention = 0.9
	MinRetention     = 0.65
	MaxRetention     = 1.0

	MinIntervalDays = 1
	MaxIntervalDays = 256

	// LearnAheadThreshold pulls reviews due this soon into the current session.
	LearnAheadThreshold = 20 * time.Minute

	LearningAStep = time.Minute
	LearningBStep = 10 * time.Minute

	day = 24 * time.Hour
)

// earlyCap bounds the learning step for the first three reviews after a
// card leaves New, keyed by how many reviews it already had.
func earlyCap(priorReviews int, g Grade) (time.Duration, bool) {
	switch priorReviews {
	case 1:
		return time.Minute, true
	case 2:
		if g == Pass {
			return 10 * time.Minute, true
		}
		return time.Minute, true
	case 3:
		if g == Pass {
			return day, true
		}
		return 10 * time.Minute, true
	}
	return 0, false
}
