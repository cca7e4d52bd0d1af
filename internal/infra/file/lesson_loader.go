package file

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"lesson-progress-engine/internal/domain"
)

// LessonLoader reads the lesson catalog from a JSON file.
type LessonLoader struct {
	path string
}

func NewLessonLoader(path string) *LessonLoader {
	return &LessonLoader{path: path}
}

func (l *LessonLoader) LoadLessons(ctx context.Context) ([]domain.Lesson, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", domain.ErrContentNotFound, l.path)
	}
	if err != nil {
		return nil, fmt.Errorf("read lessons %s: %w", l.path, err)
	}
	return DecodeLessons(data)
}

// DecodeLessons parses a JSON array of lessons.
func DecodeLessons(data []byte) ([]domain.Lesson, error) {
	var lessons []domain.Lesson
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&lessons); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrContentMalformed, err)
	}
	if lessons == nil {
		return nil, fmt.Errorf("%w: expected a list of lessons", domain.ErrContentMalformed)
	}
	return lessons, nil
}
