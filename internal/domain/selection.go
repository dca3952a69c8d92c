package domain

import (
	"fmt"
	"sort"
)

// Selection is the tagged union of answer shapes: a single option id for
// multiple-choice and true/false questions, or an ordered list of option ids
// for ordering questions. Exactly one field is set; Validate enforces the
// shape against the question's type before anything is scored.
type Selection struct {
	OptionID string   `json:"optionId,omitempty"`
	Order    []string `json:"order,omitempty"`
}

// Validate checks the selection's shape against the question. A single option
// id must belong to the question's option set; an ordered list must be a
// permutation of exactly that set. Returns ErrInvalidSelection otherwise.
func (s Selection) Validate(q Question) error {
	switch q.Type {
	case QuestionOrdering:
		if s.OptionID != "" || len(s.Order) == 0 {
			return fmt.Errorf("%w: ordering question needs an ordered list", ErrInvalidSelection)
		}
		if len(s.Order) != len(q.Options) {
			return fmt.Errorf("%w: got %d ids, question has %d options", ErrInvalidSelection, len(s.Order), len(q.Options))
		}
		seen := make(map[string]bool, len(s.Order))
		for _, id := range s.Order {
			if seen[id] {
				return fmt.Errorf("%w: duplicate option id %q", ErrInvalidSelection, id)
			}
			seen[id] = true
			if !hasOption(q, id) {
				return fmt.Errorf("%w: unknown option id %q", ErrInvalidSelection, id)
			}
		}
		return nil
	default:
		if len(s.Order) != 0 || s.OptionID == "" {
			return fmt.Errorf("%w: %s question needs a single option id", ErrInvalidSelection, q.Type)
		}
		if !hasOption(q, s.OptionID) {
			return fmt.Errorf("%w: unknown option id %q", ErrInvalidSelection, s.OptionID)
		}
		return nil
	}
}

// IsCorrect evaluates an already-validated selection. Single-choice answers
// are correct when the chosen option carries the correctness flag; ordering
// answers must match the canonical sequence position for position.
func (s Selection) IsCorrect(q Question) bool {
	if q.Type == QuestionOrdering {
		canonical := CanonicalOrder(q)
		for i, id := range s.Order {
			if canonical[i] != id {
				return false
			}
		}
		return true
	}
	for _, o := range q.Options {
		if o.ID == s.OptionID {
			return o.Correct
		}
	}
	return false
}

// CanonicalOrder returns the question's option ids sorted by CorrectOrder.
func CanonicalOrder(q Question) []string {
	opts := make([]Option, len(q.Options))
	copy(opts, q.Options)
	sort.SliceStable(opts, func(i, j int) bool {
		return opts[i].CorrectOrder < opts[j].CorrectOrder
	})
	ids := make([]string, len(opts))
	for i, o := range opts {
		ids[i] = o.ID
	}
	return ids
}

func hasOption(q Question, id string) bool {
	for _, o := range q.Options {
		if o.ID == id {
			return true
		}
	}
	return false
}
