package domain

import "errors"

var (
	// ErrSessionNotFound is returned when no quiz is open under a session id.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrInvalidSession is returned when a quiz is opened without a session id.
	ErrInvalidSession = errors.New("session id is empty")
	// ErrLessonNotFound indicates the lesson id is not in the catalog.
	ErrLessonNotFound = errors.New("lesson not found")
	// ErrContentNotFound means the content source could not be located. Retryable.
	ErrContentNotFound = errors.New("could not locate the lesson content")
	// ErrContentMalformed means the content source exists but could not be decoded.
	ErrContentMalformed = errors.New("lesson content is malformed")
	// ErrInvalidLesson indicates lesson metadata is unusable.
	ErrInvalidLesson = errors.New("invalid lesson")
	// ErrEmptyQuiz is returned when a quiz session is built without questions.
	ErrEmptyQuiz = errors.New("quiz has no questions")
	// ErrInvalidQuestion indicates authored question content breaks its kind's rules.
	ErrInvalidQuestion = errors.New("invalid question")
)
