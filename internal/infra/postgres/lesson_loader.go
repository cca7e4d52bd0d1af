package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
	"lesson-progress-engine/internal/domain"
)

// LessonLoader loads lesson JSONB rows from Postgres in catalog order.
type LessonLoader struct {
	pool *pgxpool.Pool
}

func NewLessonLoader(pool *pgxpool.Pool) *LessonLoader {
	return &LessonLoader{pool: pool}
}

func (l *LessonLoader) LoadLessons(ctx context.Context) ([]domain.Lesson, error) {
	rows, err := l.pool.Query(ctx, `SELECT id, data FROM lessons ORDER BY position, id`)
	if err != nil {
		return nil, fmt.Errorf("load lessons: %w", err)
	}
	defer rows.Close()

	lessons := []domain.Lesson{}
	for rows.Next() {
		var (
			id  string
			raw []byte
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("scan lesson: %w", err)
		}
		var lesson domain.Lesson
		if err := json.Unmarshal(raw, &lesson); err != nil {
			return nil, fmt.Errorf("%w: lesson %s: %v", domain.ErrContentMalformed, id, err)
		}
		if lesson.ID == "" {
			lesson.ID = id
		}
		lessons = append(lessons, lesson)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load lessons: %w", err)
	}
	if len(lessons) == 0 {
		return nil, domain.ErrContentNotFound
	}
	return lessons, nil
}
