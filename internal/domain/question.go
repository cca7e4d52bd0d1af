package domain

import (
	"fmt"
	"strings"
)

// QuestionKind selects how an answer is scored.
type QuestionKind string

const (
	MultipleChoice QuestionKind = "multipleChoice"
	FillInTheBlank QuestionKind = "fillInTheBlank"
	Ordering       QuestionKind = "ordering"
)

// Option represents a possible answer for a question.
type Option struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
	Feedback  string `json:"feedback,omitempty"`
}

// Question is a tagged variant over QuestionKind. CorrectAnswer is only
// meaningful for fill-in-the-blank and CorrectOrder only for ordering.
type Question struct {
	ID            string       `json:"id"`
	Kind          QuestionKind `json:"type"`
	Prompt        string       `json:"prompt"`
	Explanation   string       `json:"explanation,omitempty"`
	Options       []Option     `json:"options,omitempty"`
	CorrectAnswer *string      `json:"correct_answer,omitempty"`
	CorrectOrder  []string     `json:"correct_order,omitempty"`
}

// OptionIDs returns option ids in authored order.
func (q Question) OptionIDs() []string {
	ids := make([]string, 0, len(q.Options))
	for _, opt := range q.Options {
		ids = append(ids, opt.ID)
	}
	return ids
}

// Option looks up an option by id.
func (q Question) Option(id string) (Option, bool) {
	for _, opt := range q.Options {
		if opt.ID == id {
			return opt, true
		}
	}
	return Option{}, false
}

// Validate enforces the per-kind content invariants.
func (q Question) Validate() error {
	if strings.TrimSpace(q.ID) == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidQuestion)
	}
	switch q.Kind {
	case MultipleChoice:
		for _, opt := range q.Options {
			if opt.IsCorrect {
				return nil
			}
		}
		return fmt.Errorf("%w: %s has no correct option", ErrInvalidQuestion, q.ID)
	case FillInTheBlank:
		if q.CorrectAnswer == nil {
			return fmt.Errorf("%w: %s has no correct answer", ErrInvalidQuestion, q.ID)
		}
		return nil
	case Ordering:
		if !isPermutation(q.CorrectOrder, q.OptionIDs()) {
			return fmt.Errorf("%w: %s correct order is not a permutation of its options", ErrInvalidQuestion, q.ID)
		}
		return nil
	default:
		return fmt.Errorf("%w: %s has unknown kind %q", ErrInvalidQuestion, q.ID, q.Kind)
	}
}

func isPermutation(order, ids []string) bool {
	if len(order) != len(ids) || len(ids) == 0 {
		return false
	}
	counts := make(map[string]int, len(ids))
	for _, id := range ids {
		counts[id]++
	}
	for _, id := range order {
		counts[id]--
		if counts[id] < 0 {
			return false
		}
	}
	return true
}
