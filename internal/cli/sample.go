package cli

import "lesson-progress-engine/internal/domain"

// sampleLessons is served when neither Postgres nor a content file is configured.
func sampleLessons() []domain.Lesson {
	answer := "Gradient Descent"
	return []domain.Lesson{
		{
			ID:       "ml-basics",
			Title:    "What is Machine Learning?",
			Subtitle: "Learning patterns from data",
			Content: []domain.ContentBlock{
				{ID: "ml-basics-1", Type: domain.ContentText, Text: "Machine learning fits a model to examples instead of hand-writing rules."},
				{ID: "ml-basics-2", Type: domain.ContentCallout, Text: "Always evaluate on data the model has not seen."},
			},
			Quiz: []domain.Question{
				{
					ID:          "ml-basics-q1",
					Kind:        domain.MultipleChoice,
					Prompt:      "Training on labelled examples is called",
					Explanation: "Labels supervise the model's predictions.",
					Options: []domain.Option{
						{ID: "ml-basics-q1-a", Text: "Supervised learning", IsCorrect: true},
						{ID: "ml-basics-q1-b", Text: "Unsupervised learning", Feedback: "Unsupervised methods have no labels."},
						{ID: "ml-basics-q1-c", Text: "Reinforcement learning", Feedback: "RL learns from rewards, not labels."},
					},
				},
				{
					ID:            "ml-basics-q2",
					Kind:          domain.FillInTheBlank,
					Prompt:        "The iterative method that follows the negative gradient is ____.",
					CorrectAnswer: &answer,
				},
			},
		},
		{
			ID:       "training-loop",
			Title:    "The Training Loop",
			Subtitle: "Forward, loss, backward, update",
			Content: []domain.ContentBlock{
				{ID: "training-loop-1", Type: domain.ContentCode, Code: "loss = criterion(model(x), y)\nloss.backward()\noptimizer.step()"},
			},
			Quiz: []domain.Question{
				{
					ID:     "training-loop-q1",
					Kind:   domain.Ordering,
					Prompt: "Put one optimisation step in order",
					Options: []domain.Option{
						{ID: "training-loop-q1-backward", Text: "Backpropagate gradients"},
						{ID: "training-loop-q1-forward", Text: "Run the forward pass"},
						{ID: "training-loop-q1-update", Text: "Update the weights"},
						{ID: "training-loop-q1-loss", Text: "Compute the loss"},
					},
					CorrectOrder: []string{
						"training-loop-q1-forward",
						"training-loop-q1-loss",
						"training-loop-q1-backward",
						"training-loop-q1-update",
					},
				},
				{
					ID:     "training-loop-q2",
					Kind:   domain.MultipleChoice,
					Prompt: "A validation loss that rises while training loss falls signals",
					Options: []domain.Option{
						{ID: "training-loop-q2-a", Text: "Overfitting", IsCorrect: true},
						{ID: "training-loop-q2-b", Text: "Underfitting"},
					},
				},
			},
		},
	}
}
