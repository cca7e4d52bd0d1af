package app_test

import (
	"context"
	"errors"
	"slices"
	"testing"

	"lesson-progress-engine/internal/app"
	"lesson-progress-engine/internal/domain"
	"lesson-progress-engine/internal/infra/memory"
)

// recordingRecorder captures the events a quiz emits.
type recordingRecorder struct {
	xp          []int
	completions []completion
}

type completion struct {
	lessonID     string
	score, total int
}

func (r *recordingRecorder) AddXP(_ context.Context, _ string, amount int) {
	r.xp = append(r.xp, amount)
}

func (r *recordingRecorder) CompleteLesson(_ context.Context, lessonID string, score, total int) {
	r.completions = append(r.completions, completion{lessonID, score, total})
}

func (r *recordingRecorder) totalXP() int {
	sum := 0
	for _, v := range r.xp {
		sum += v
	}
	return sum
}

func TestMultipleChoiceScoring(t *testing.T) {
	ctx := context.Background()
	rec := &recordingRecorder{}
	engine := mustEngine(t, choiceLesson(), rec)

	out := engine.AnswerMultipleChoice(ctx, "q1-b")
	if !out.Accepted || !out.Correct || out.Awarded != app.ChoiceXP {
		t.Fatalf("expected correct answer worth 10 xp, got %+v", out)
	}
	if engine.Score() != 1 || engine.CurrentIndex() != 1 {
		t.Fatalf("expected score 1 at index 1, got score=%d index=%d", engine.Score(), engine.CurrentIndex())
	}

	out = engine.AnswerMultipleChoice(ctx, "q2-a")
	if !out.Accepted || out.Correct || out.Awarded != 0 {
		t.Fatalf("expected wrong answer, got %+v", out)
	}
	if out.Feedback != "Not quite" {
		t.Fatalf("expected option feedback, got %q", out.Feedback)
	}
	if engine.Score() != 1 || engine.CurrentIndex() != 2 {
		t.Fatalf("wrong answer must advance without scoring")
	}
	if rec.totalXP() != 10 {
		t.Fatalf("expected 10 xp total, got %d", rec.totalXP())
	}
}

func TestUnknownOptionScoresIncorrect(t *testing.T) {
	rec := &recordingRecorder{}
	engine := mustEngine(t, choiceLesson(), rec)

	out := engine.AnswerMultipleChoice(context.Background(), "nope")
	if !out.Accepted || out.Correct || engine.CurrentIndex() != 1 {
		t.Fatalf("unknown option must be scored wrong and advance, got %+v", out)
	}
}

func TestDuplicateAnswerIsIgnored(t *testing.T) {
	ctx := context.Background()
	rec := &recordingRecorder{}
	lesson := choiceLesson()
	lesson.Quiz = lesson.Quiz[:1]
	engine := mustEngine(t, lesson, rec)

	first := engine.AnswerMultipleChoice(ctx, "q1-b")
	if !first.Completed {
		t.Fatalf("single question quiz must complete on first answer")
	}
	second := engine.AnswerMultipleChoice(ctx, "q1-b")
	if second.Accepted {
		t.Fatalf("second answer must be ignored, got %+v", second)
	}
	blank := engine.AnswerFillInTheBlank(ctx, "anything")
	if blank.Accepted {
		t.Fatalf("answering an answered question through another kind must be ignored")
	}
	if engine.Score() != 1 || engine.CurrentIndex() != 0 || rec.totalXP() != 10 || len(rec.completions) != 1 {
		t.Fatalf("duplicate answers changed state: score=%d index=%d xp=%d completions=%d",
			engine.Score(), engine.CurrentIndex(), rec.totalXP(), len(rec.completions))
	}
}

func TestThreeCorrectChoicesCompleteLesson(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKVStore()
	store, _ := newTestStore(kv)
	rec := &forwardingRecorder{next: store}
	engine := mustEngine(t, choiceLesson(), rec)

	engine.AnswerMultipleChoice(ctx, "q1-b")
	engine.AnswerMultipleChoice(ctx, "q2-b")
	out := engine.AnswerMultipleChoice(ctx, "q3-a")

	if !out.Completed || !engine.IsComplete() {
		t.Fatalf("expected quiz complete")
	}
	if engine.Score() != 3 {
		t.Fatalf("expected score 3, got %d", engine.Score())
	}
	if len(rec.completions) != 1 || rec.completions[0] != (completion{"ml-101", 3, 3}) {
		t.Fatalf("expected one completion (ml-101, 3, 3), got %+v", rec.completions)
	}
	p := store.Profile(ctx)
	if p.XP != 30 || !p.HasBadge(domain.BadgeHighScore) || !p.HasCompleted("ml-101") {
		t.Fatalf("expected 30 xp, high score and completion, got %+v", p)
	}
}

func TestFillInTheBlankNormalisesAnswer(t *testing.T) {
	ctx := context.Background()
	rec := &recordingRecorder{}
	engine := mustEngine(t, mixedLesson(), rec)

	out := engine.AnswerFillInTheBlank(ctx, "  gradient descent ")
	if !out.Correct || out.Awarded != app.BlankXP {
		t.Fatalf("expected trimmed case-folded match, got %+v", out)
	}
}

func TestFillInTheBlankRejectsPartialAnswer(t *testing.T) {
	rec := &recordingRecorder{}
	engine := mustEngine(t, mixedLesson(), rec)

	out := engine.AnswerFillInTheBlank(context.Background(), "gradient")
	if out.Correct || !out.Accepted {
		t.Fatalf("partial answers get no credit, got %+v", out)
	}
}

func TestOrderingCommit(t *testing.T) {
	ctx := context.Background()

	rec := &recordingRecorder{}
	engine := mustEngine(t, mixedLesson(), rec)
	engine.AnswerFillInTheBlank(ctx, "wrong")

	if got := engine.PendingOrder(); !slices.Equal(got, []string{"A", "B", "C"}) {
		t.Fatalf("expected authored order seeded, got %v", got)
	}
	out := engine.CommitOrdering(ctx)
	if !out.Accepted || out.Correct {
		t.Fatalf("default order must be scored incorrect, got %+v", out)
	}

	rec = &recordingRecorder{}
	engine = mustEngine(t, mixedLesson(), rec)
	engine.AnswerFillInTheBlank(ctx, "wrong")
	engine.SetPendingOrder([]string{"B", "A", "C"})
	out = engine.CommitOrdering(ctx)
	if !out.Correct || out.Awarded != app.OrderingXP || rec.totalXP() != 12 {
		t.Fatalf("expected correct order worth 12 xp, got %+v xp=%d", out, rec.totalXP())
	}
}

func TestOrderingMoveAndMismatchedSet(t *testing.T) {
	ctx := context.Background()
	rec := &recordingRecorder{}
	engine := mustEngine(t, mixedLesson(), rec)
	engine.AnswerFillInTheBlank(ctx, "wrong")

	if !engine.MovePending(1, 0) {
		t.Fatalf("expected move to succeed")
	}
	if got := engine.PendingOrder(); !slices.Equal(got, []string{"B", "A", "C"}) {
		t.Fatalf("expected B,A,C after move, got %v", got)
	}
	if engine.MovePending(0, 7) {
		t.Fatalf("out of range move must be rejected")
	}

	engine.SetPendingOrder([]string{"B", "A"})
	out := engine.CommitOrdering(ctx)
	if !out.Accepted || out.Correct {
		t.Fatalf("non-permutation must be scored wrong, not rejected: %+v", out)
	}
}

func TestCommitOrderingIgnoredOnOtherKinds(t *testing.T) {
	rec := &recordingRecorder{}
	engine := mustEngine(t, mixedLesson(), rec)

	out := engine.CommitOrdering(context.Background())
	if out.Accepted || engine.CurrentIndex() != 0 {
		t.Fatalf("commit on a blank question must be a no-op, got %+v", out)
	}
}

func TestRestartReplaysIdentically(t *testing.T) {
	ctx := context.Background()
	rec := &recordingRecorder{}
	engine := mustEngine(t, mixedLesson(), rec)

	play := func() int {
		engine.AnswerFillInTheBlank(ctx, "Gradient Descent")
		engine.SetPendingOrder([]string{"C", "A", "B"})
		engine.CommitOrdering(ctx)
		engine.AnswerMultipleChoice(ctx, "m2")
		return engine.Score()
	}

	first := play()
	if !engine.IsComplete() || engine.Progress() != 2.0/3.0 {
		t.Fatalf("expected completion with progress 2/3, got complete=%v progress=%v", engine.IsComplete(), engine.Progress())
	}
	engine.Restart()
	if engine.Score() != 0 || engine.CurrentIndex() != 0 || engine.IsComplete() || engine.Progress() != 0 {
		t.Fatalf("restart must reset the session")
	}
	second := play()
	if first != second || first != 2 {
		t.Fatalf("expected identical replay score 2, got %d then %d", first, second)
	}
	if len(rec.completions) != 2 {
		t.Fatalf("each full pass reports completion, got %d", len(rec.completions))
	}
}

func TestNewQuizEngineValidates(t *testing.T) {
	rec := &recordingRecorder{}
	if _, err := app.NewQuizEngine(domain.Lesson{ID: "x"}, rec); !errors.Is(err, domain.ErrEmptyQuiz) {
		t.Fatalf("expected empty quiz error, got %v", err)
	}

	lesson := choiceLesson()
	lesson.Quiz[0].Options[1].IsCorrect = false
	if _, err := app.NewQuizEngine(lesson, rec); !errors.Is(err, domain.ErrInvalidQuestion) {
		t.Fatalf("expected invalid question for choice without answer, got %v", err)
	}

	lesson = mixedLesson()
	lesson.Quiz[1].CorrectOrder = []string{"A", "A", "C"}
	if _, err := app.NewQuizEngine(lesson, rec); !errors.Is(err, domain.ErrInvalidQuestion) {
		t.Fatalf("expected invalid question for bad permutation, got %v", err)
	}

	lesson = mixedLesson()
	lesson.Quiz[0].CorrectAnswer = nil
	if _, err := app.NewQuizEngine(lesson, rec); !errors.Is(err, domain.ErrInvalidQuestion) {
		t.Fatalf("expected invalid question for blank without answer, got %v", err)
	}
}

func TestSnapshotHidesAnswers(t *testing.T) {
	engine := mustEngine(t, choiceLesson(), &recordingRecorder{})
	state := engine.Snapshot()
	if state.Total != 3 || state.Question == nil || state.Question.ID != "q1" || len(state.Question.Options) != 2 {
		t.Fatalf("unexpected snapshot %+v", state)
	}
}

// forwardingRecorder records events and passes them to a real store.
type forwardingRecorder struct {
	recordingRecorder
	next app.ProgressRecorder
}

func (r *forwardingRecorder) AddXP(ctx context.Context, lessonID string, amount int) {
	r.recordingRecorder.AddXP(ctx, lessonID, amount)
	r.next.AddXP(ctx, lessonID, amount)
}

func (r *forwardingRecorder) CompleteLesson(ctx context.Context, lessonID string, score, total int) {
	r.recordingRecorder.CompleteLesson(ctx, lessonID, score, total)
	r.next.CompleteLesson(ctx, lessonID, score, total)
}

func mustEngine(t *testing.T, lesson domain.Lesson, rec app.ProgressRecorder) *app.QuizEngine {
	t.Helper()
	engine, err := app.NewQuizEngine(lesson, rec)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}

func choiceLesson() domain.Lesson {
	return domain.Lesson{
		ID:    "ml-101",
		Title: "What is Machine Learning?",
		Quiz: []domain.Question{
			{
				ID: "q1", Kind: domain.MultipleChoice, Prompt: "Learning from labelled data is",
				Options: []domain.Option{
					{ID: "q1-a", Text: "Unsupervised"},
					{ID: "q1-b", Text: "Supervised", IsCorrect: true},
				},
			},
			{
				ID: "q2", Kind: domain.MultipleChoice, Prompt: "A model that memorises noise is",
				Options: []domain.Option{
					{ID: "q2-a", Text: "Underfitting", Feedback: "Not quite"},
					{ID: "q2-b", Text: "Overfitting", IsCorrect: true},
				},
			},
			{
				ID: "q3", Kind: domain.MultipleChoice, Prompt: "Held-out data is used for",
				Options: []domain.Option{
					{ID: "q3-a", Text: "Evaluation", IsCorrect: true},
					{ID: "q3-b", Text: "Training"},
				},
			},
		},
	}
}

func mixedLesson() domain.Lesson {
	answer := "Gradient Descent"
	return domain.Lesson{
		ID:    "opt-201",
		Title: "Optimisation",
		Quiz: []domain.Question{
			{ID: "blank", Kind: domain.FillInTheBlank, Prompt: "Following the negative gradient is ____", CorrectAnswer: &answer},
			{
				ID: "order", Kind: domain.Ordering, Prompt: "Order the steps",
				Options: []domain.Option{
					{ID: "A", Text: "Forward pass"},
					{ID: "B", Text: "Compute loss"},
					{ID: "C", Text: "Update weights"},
				},
				CorrectOrder: []string{"B", "A", "C"},
			},
			{
				ID: "choice", Kind: domain.MultipleChoice, Prompt: "Step size is called",
				Options: []domain.Option{
					{ID: "m1", Text: "Momentum"},
					{ID: "m2", Text: "Learning rate", IsCorrect: true},
				},
			},
		},
	}
}
