package domain

import (
	"fmt"
	"strings"
)

// ContentType tags a block of lesson material.
type ContentType string

const (
	ContentText       ContentType = "text"
	ContentBulletList ContentType = "bulletList"
	ContentCode       ContentType = "code"
	ContentImage      ContentType = "image"
	ContentCallout    ContentType = "callout"
)

// ContentBlock is a piece of lesson material. Scoring never looks at it.
type ContentBlock struct {
	ID        string      `json:"id"`
	Type      ContentType `json:"type"`
	Text      string      `json:"text,omitempty"`
	Code      string      `json:"code,omitempty"`
	ImageName string      `json:"image_name,omitempty"`
}

// Lesson is authored content with an attached quiz.
type Lesson struct {
	ID       string         `json:"id"`
	Title    string         `json:"title"`
	Subtitle string         `json:"subtitle"`
	Content  []ContentBlock `json:"content"`
	Quiz     []Question     `json:"quiz"`
}

// LessonSummary is the list view of a lesson.
type LessonSummary struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Subtitle  string `json:"subtitle"`
	Questions int    `json:"questions"`
}

func (l Lesson) Summary() LessonSummary {
	return LessonSummary{ID: l.ID, Title: l.Title, Subtitle: l.Subtitle, Questions: len(l.Quiz)}
}

// Validate checks the lesson quiz before a session is built from it.
func (l Lesson) Validate() error {
	if strings.TrimSpace(l.ID) == "" {
		return fmt.Errorf("%w: lesson id is empty", ErrInvalidLesson)
	}
	if len(l.Quiz) == 0 {
		return fmt.Errorf("lesson %s: %w", l.ID, ErrEmptyQuiz)
	}
	seen := make(map[string]struct{}, len(l.Quiz))
	for _, q := range l.Quiz {
		if _, dup := seen[q.ID]; dup {
			return fmt.Errorf("lesson %s: %w: duplicate question id %s", l.ID, ErrInvalidQuestion, q.ID)
		}
		seen[q.ID] = struct{}{}
		if err := q.Validate(); err != nil {
			return fmt.Errorf("lesson %s: %w", l.ID, err)
		}
	}
	return nil
}
