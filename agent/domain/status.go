package domain

import (
	"errors"
	"fmt"
)

var ErrInvalidTransition = errors.New("invalid case status transition")

type CaseStatus string

const (
	StatusOpen       CaseStatus = "OPEN"
	StatusInProgress CaseStatus = "IN_PROGRESS"
	StatusResolved   CaseStatus = "RESOLVED"
)

// rank orders statuses; transitions only move forward.
func (s CaseStatus) rank() int {
	switch s {
	case StatusOpen:
		return 1
	case StatusInProgress:
		return 2
	case StatusResolved:
		return 3
	default:
		return 0
	}
}

func (s CaseStatus) CanTransitionTo(next CaseStatus) bool {
	from, to := s.rank(), next.rank()
	return from > 0 && to > from
}

func (s CaseStatus) IsTerminal() bool {
	return s == StatusResolved
}

func checkTransition(from, to CaseStatus) error {
	if !from.CanTransitionTo(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}
