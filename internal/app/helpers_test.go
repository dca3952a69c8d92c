package app_test

import (
	"context"
	"testing"

	"livequiz-service/internal/app"
	"livequiz-service/internal/domain"
	"livequiz-service/internal/infra/memory"
)

func testQuiz() domain.Quiz {
	return domain.Quiz{
		ID: "quiz-1",
		Questions: []domain.Question{
			{
				ID:     "q1",
				Type:   domain.QuestionMultipleChoice,
				Prompt: "Select the right option",
				Options: []domain.Option{
					{ID: "o1", Text: "Wrong"},
					{ID: "o2", Text: "Right", Correct: true},
					{ID: "o3", Text: "Also wrong"},
				},
				TimeLimitSeconds: 30,
				Points:           100,
			},
			{
				ID:     "q2",
				Type:   domain.QuestionTrueFalse,
				Prompt: "True or false",
				Options: []domain.Option{
					{ID: "t", Text: "True", Correct: true},
					{ID: "f", Text: "False"},
				},
				TimeLimitSeconds: 15,
				Points:           50,
			},
			{
				ID:     "q3",
				Type:   domain.QuestionOrdering,
				Prompt: "Put these in order",
				Options: []domain.Option{
					{ID: "b", Text: "second", CorrectOrder: 2},
					{ID: "a", Text: "first", CorrectOrder: 1},
					{ID: "c", Text: "third", CorrectOrder: 3},
				},
				TimeLimitSeconds: 45,
				Points:           150,
			},
			{
				ID:     "q4",
				Type:   domain.QuestionMultipleChoice,
				Prompt: "Short fuse",
				Options: []domain.Option{
					{ID: "y", Text: "Yes", Correct: true},
					{ID: "n", Text: "No"},
				},
				TimeLimitSeconds: 1,
				Points:           100,
			},
		},
	}
}

func newTestGame() *app.Game {
	catalog := memory.NewStaticCatalog(map[string]domain.Quiz{"quiz-1": testQuiz()})
	return app.New(memory.NewStore(), catalog, memory.NewCodeIndex())
}

func mustCreateSession(t *testing.T, g *app.Game) domain.Session {
	t.Helper()
	s, err := g.Registry.CreateSession(context.Background(), "host-1", "quiz-1")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	return s
}

func mustJoin(t *testing.T, g *app.Game, sessionID, name string) domain.Player {
	t.Helper()
	p, err := g.Registry.Join(context.Background(), sessionID, name)
	if err != nil {
		t.Fatalf("join %s: %v", name, err)
	}
	return p
}

func mustStartRound(t *testing.T, g *app.Game, sessionID string, n int, questionID string) domain.Round {
	t.Helper()
	r, err := g.Rounds.StartRound(context.Background(), sessionID, n, questionID)
	if err != nil {
		t.Fatalf("start round %d: %v", n, err)
	}
	return r
}
