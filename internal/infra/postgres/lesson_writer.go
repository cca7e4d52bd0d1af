package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/uptrace/bun"
	"lesson-progress-engine/internal/domain"
)

// LessonWriter seeds lesson content into the lessons table.
type LessonWriter struct {
	db *bun.DB
}

func NewLessonWriter(db *bun.DB) *LessonWriter {
	return &LessonWriter{db: db}
}

// Upsert writes lessons in one transaction, keeping their slice order as the
// catalog position.
func (w *LessonWriter) Upsert(ctx context.Context, lessons []domain.Lesson) error {
	return w.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for i, lesson := range lessons {
			if lesson.ID == "" {
				return fmt.Errorf("lesson at position %d: %w", i, domain.ErrInvalidLesson)
			}
			data, err := json.Marshal(lesson)
			if err != nil {
				return fmt.Errorf("marshal lesson %s: %w", lesson.ID, err)
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO lessons (id, position, data, updated_at) VALUES (?, ?, ?::jsonb, now())
				 ON CONFLICT (id) DO UPDATE SET position=EXCLUDED.position, data=EXCLUDED.data, updated_at=EXCLUDED.updated_at`,
				lesson.ID, i, string(data)); err != nil {
				return fmt.Errorf("insert lesson %s: %w", lesson.ID, err)
			}
		}
		return nil
	})
}
