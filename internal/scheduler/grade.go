package scheduler

import (
	"fmt"
	"strings"
)

// Grade is the learner's verdict on a single recall attempt.
type Grade int

const (
	Fail Grade = iota + 1
	Pass
)

func (g Grade) String() string {
	switch g {
	case Pass:
		return "Pass"
	case Fail:
		return "Fail"
	}
	return fmt.Sprintf("Grade(%d)", int(g))
}

func (g Grade) IsValid() bool {
	return g == Pass || g == Fail
}

// score maps the grade onto the FSRS 1..4 rating scale (Again=1, Good=3).
func (g Grade) score() float64 {
	if g == Pass {
		return 3
	}
	return 1
}

func ParseGrade(s string) (Grade, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pass":
		return Pass, nil
	case "fail":
		return Fail, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidGrade, s)
}
