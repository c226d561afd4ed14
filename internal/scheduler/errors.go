package scheduler

import "errors"

var (
	ErrInvalidGrade     = errors.New("scheduler: invalid grade")
	ErrInvalidStage     = errors.New("scheduler: invalid review stage")
	ErrInvalidRetention = errors.New("scheduler: desired retention out of range")
)
