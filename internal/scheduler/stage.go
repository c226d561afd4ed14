package scheduler

import (
	"encoding"
	"fmt"
)

// Stage is the review stage a card's performance is in.
type Stage int

const (
	StageNew Stage = iota
	StageLearningA
	StageLearningB
	StageReview
)

var (
	stageNames  = [...]string{StageNew: "New", StageLearningA: "LearningA", StageLearningB: "LearningB", StageReview: "Review"}
	stageByName = map[string]Stage{
		"New":       StageNew,
		"LearningA": StageLearningA,
		"LearningB": StageLearningB,
		"Review":    StageReview,
	}
)

var (
	_ fmt.Stringer             = Stage(0)
	_ encoding.TextMarshaler   = Stage(0)
	_ encoding.TextUnmarshaler = (*Stage)(nil)
)

func (s Stage) isValid() bool {
	return s >= StageNew && s <= StageReview
}

func (s Stage) String() string {
	if s.isValid() {
		return stageNames[s]
	}
	return fmt.Sprintf("Stage(%d)", int(s))
}

// Learning reports whether the stage uses fixed short learning steps.
func (s Stage) Learning() bool {
	return s == StageLearningA || s == StageLearningB
}

func (s Stage) MarshalText() ([]byte, error) {
	if !s.isValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidStage, int(s))
	}
	return []byte(stageNames[s]), nil
}

func (s *Stage) UnmarshalText(text []byte) error {
	v, ok := stageByName[string(text)]
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidStage, text)
	}
	*s = v
	return nil
}
