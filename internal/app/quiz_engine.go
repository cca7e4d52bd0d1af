package app

import (
	"context"
	"slices"
	"strings"
	"sync"

	"lesson-progress-engine/internal/domain"
)

// XP awarded per correct answer.
const (
	ChoiceXP   = 10
	BlankXP    = 10
	OrderingXP = 12
)

// ProgressRecorder is the only way a quiz reaches the learner profile.
type ProgressRecorder interface {
	AddXP(ctx context.Context, lessonID string, amount int)
	CompleteLesson(ctx context.Context, lessonID string, score, total int)
}

// Outcome describes what an answer call did. Accepted is false when the call
// was ignored because the question was already answered.
type Outcome struct {
	QuestionID  string `json:"questionId"`
	Accepted    bool   `json:"accepted"`
	Correct     bool   `json:"correct"`
	Awarded     int    `json:"awarded"`
	Feedback    string `json:"feedback,omitempty"`
	Explanation string `json:"explanation,omitempty"`
	Completed   bool   `json:"completed"`
}

// OptionView is an option with its correctness hidden.
type OptionView struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// QuestionView is the client-facing form of a question.
type QuestionView struct {
	ID      string              `json:"id"`
	Kind    domain.QuestionKind `json:"kind"`
	Prompt  string              `json:"prompt"`
	Options []OptionView        `json:"options,omitempty"`
}

// QuizState is a read-only snapshot of a session.
type QuizState struct {
	SessionID    string        `json:"sessionId,omitempty"`
	LessonID     string        `json:"lessonId"`
	CurrentIndex int           `json:"currentIndex"`
	Total        int           `json:"total"`
	Score        int           `json:"score"`
	Answered     int           `json:"answered"`
	Progress     float64       `json:"progress"`
	Complete     bool          `json:"complete"`
	PendingOrder []string      `json:"pendingOrder"`
	Question     *QuestionView `json:"question,omitempty"`
}

// QuizEngine runs one lesson's quiz. It is created when a quiz is opened and
// dropped when it is closed.
type QuizEngine struct {
	lessonID  string
	questions []domain.Question
	recorder  ProgressRecorder

	mu           sync.Mutex
	currentIndex int
	score        int
	answered     map[string]struct{}
	pendingOrder []string
	complete     bool
}

// NewQuizEngine validates the lesson quiz and seeds the ordering buffer from
// the first question.
func NewQuizEngine(lesson domain.Lesson, recorder ProgressRecorder) (*QuizEngine, error) {
	if err := lesson.Validate(); err != nil {
		return nil, err
	}
	e := &QuizEngine{
		lessonID:  lesson.ID,
		questions: slices.Clone(lesson.Quiz),
		recorder:  recorder,
		answered:  make(map[string]struct{}),
	}
	e.pendingOrder = e.questions[0].OptionIDs()
	return e, nil
}

func (e *QuizEngine) LessonID() string { return e.lessonID }

// AnswerMultipleChoice scores the selected option. An unknown option id is
// scored as wrong.
func (e *QuizEngine) AnswerMultipleChoice(ctx context.Context, optionID string) Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()

	q := e.questions[e.currentIndex]
	if e.isAnsweredLocked(q.ID) {
		return Outcome{QuestionID: q.ID}
	}
	e.answered[q.ID] = struct{}{}

	out := Outcome{QuestionID: q.ID, Accepted: true, Explanation: q.Explanation}
	opt, found := q.Option(optionID)
	if found {
		out.Feedback = opt.Feedback
	}
	if found && opt.IsCorrect {
		e.creditLocked(ctx, &out, ChoiceXP)
	}
	e.advanceLocked(ctx, &out)
	return out
}

// AnswerFillInTheBlank compares trimmed, case-folded text. There is no
// partial credit.
func (e *QuizEngine) AnswerFillInTheBlank(ctx context.Context, answer string) Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()

	q := e.questions[e.currentIndex]
	if e.isAnsweredLocked(q.ID) {
		return Outcome{QuestionID: q.ID}
	}
	e.answered[q.ID] = struct{}{}

	out := Outcome{QuestionID: q.ID, Accepted: true, Explanation: q.Explanation}
	if q.CorrectAnswer != nil && strings.EqualFold(strings.TrimSpace(answer), strings.TrimSpace(*q.CorrectAnswer)) {
		e.creditLocked(ctx, &out, BlankXP)
	}
	e.advanceLocked(ctx, &out)
	return out
}

// CommitOrdering scores the pending order against the expected one. It is
// ignored unless the current question is an ordering question.
func (e *QuizEngine) CommitOrdering(ctx context.Context) Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()

	q := e.questions[e.currentIndex]
	if e.isAnsweredLocked(q.ID) || q.Kind != domain.Ordering || q.CorrectOrder == nil {
		return Outcome{QuestionID: q.ID}
	}
	e.answered[q.ID] = struct{}{}

	out := Outcome{QuestionID: q.ID, Accepted: true, Explanation: q.Explanation}
	if slices.Equal(e.pendingOrder, q.CorrectOrder) {
		e.creditLocked(ctx, &out, OrderingXP)
	}
	e.advanceLocked(ctx, &out)
	return out
}

// SetPendingOrder replaces the ordering buffer. The ids are not checked
// against the question; a wrong set simply scores as incorrect.
func (e *QuizEngine) SetPendingOrder(ids []string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pendingOrder = slices.Clone(ids)
}

// MovePending moves the entry at from so that it ends up at index to.
func (e *QuizEngine) MovePending(from, to int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := len(e.pendingOrder)
	if from < 0 || from >= n || to < 0 || to >= n {
		return false
	}
	id := e.pendingOrder[from]
	e.pendingOrder = slices.Delete(e.pendingOrder, from, from+1)
	e.pendingOrder = slices.Insert(e.pendingOrder, to, id)
	return true
}

// Restart resets the session to its first question. The profile keeps
// everything earned so far.
func (e *QuizEngine) Restart() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.score = 0
	e.currentIndex = 0
	clear(e.answered)
	e.complete = false
	e.pendingOrder = e.questions[0].OptionIDs()
}

func (e *QuizEngine) PendingOrder() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.pendingOrder)
}

func (e *QuizEngine) Score() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.score
}

func (e *QuizEngine) CurrentIndex() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.currentIndex
}

func (e *QuizEngine) IsComplete() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.complete
}

// Progress is currentIndex / total, or 0 for an empty quiz.
func (e *QuizEngine) Progress() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.progressLocked()
}

func (e *QuizEngine) Snapshot() QuizState {
	e.mu.Lock()
	defer e.mu.Unlock()

	q := e.questions[e.currentIndex]
	view := &QuestionView{ID: q.ID, Kind: q.Kind, Prompt: q.Prompt}
	for _, opt := range q.Options {
		view.Options = append(view.Options, OptionView{ID: opt.ID, Text: opt.Text})
	}
	return QuizState{
		LessonID:     e.lessonID,
		CurrentIndex: e.currentIndex,
		Total:        len(e.questions),
		Score:        e.score,
		Answered:     len(e.answered),
		Progress:     e.progressLocked(),
		Complete:     e.complete,
		PendingOrder: slices.Clone(e.pendingOrder),
		Question:     view,
	}
}

func (e *QuizEngine) progressLocked() float64 {
	if len(e.questions) == 0 {
		return 0
	}
	return float64(e.currentIndex) / float64(len(e.questions))
}

func (e *QuizEngine) isAnsweredLocked(questionID string) bool {
	_, ok := e.answered[questionID]
	return ok
}

func (e *QuizEngine) creditLocked(ctx context.Context, out *Outcome, xp int) {
	e.score++
	out.Correct = true
	out.Awarded = xp
	e.recorder.AddXP(ctx, e.lessonID, xp)
}

// advanceLocked moves to the next question, or finishes the quiz and reports
// completion once.
func (e *QuizEngine) advanceLocked(ctx context.Context, out *Outcome) {
	if e.currentIndex < len(e.questions)-1 {
		e.currentIndex++
		e.pendingOrder = e.questions[e.currentIndex].OptionIDs()
		return
	}
	if e.complete {
		return
	}
	e.complete = true
	out.Completed = true
	e.recorder.CompleteLesson(ctx, e.lessonID, e.score, len(e.questions))
}
