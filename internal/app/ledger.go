package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"livequiz-service/internal/domain"
)

// Ledger enforces at-most-one answer per (round, player), validates answer
// shape, scores accepted answers and persists the answer together with the
// score increment in one transactional unit.
type Ledger struct {
	store   GameStore
	catalog QuizCatalog
	rounds  *Coordinator
	bc      *Broadcaster
	locks   *sessionLocks
	now     func() time.Time
}

// SubmitResult reports the outcome of a submission. Accepted is false for
// the idempotent no-op cases (round already closed, duplicate answer), which
// yield zero points without being an error to the caller.
type SubmitResult struct {
	Accepted   bool `json:"accepted"`
	Correct    bool `json:"correct"`
	Points     int  `json:"points"`
	TotalScore int  `json:"totalScore"`
}

// SubmitAnswer validates, scores and records one player's answer to an open
// round. Malformed selections are rejected before any state change; a closed
// round or a duplicate (round, player) pair is a no-op worth zero points.
func (l *Ledger) SubmitAnswer(ctx context.Context, roundID, playerID string, sel domain.Selection, timeRemaining, timeTotal float64, basePoints int) (SubmitResult, error) {
	round, err := l.store.GetRound(ctx, roundID)
	if err != nil {
		return SubmitResult{}, err
	}
	player, err := l.store.GetPlayer(ctx, playerID)
	if err != nil {
		return SubmitResult{}, err
	}
	if player.SessionID != round.SessionID {
		return SubmitResult{}, domain.ErrNotSessionMember
	}

	res, err := l.submitLocked(ctx, round, player, sel, timeRemaining, timeTotal, basePoints)
	if err != nil {
		return SubmitResult{}, err
	}
	if res.Accepted {
		// Outside the session lock: EndRound re-acquires it.
		l.rounds.maybeEndEarly(ctx, round)
	}
	return res, nil
}

func (l *Ledger) submitLocked(ctx context.Context, round domain.Round, player domain.Player, sel domain.Selection, timeRemaining, timeTotal float64, basePoints int) (SubmitResult, error) {
	mu := l.locks.get(round.SessionID)
	mu.Lock()
	defer mu.Unlock()

	// Re-read under the lock: round closure happens under this same lock,
	// so the open check cannot race a concurrent close.
	round, err := l.store.GetRound(ctx, round.ID)
	if err != nil {
		return SubmitResult{}, err
	}
	if round.EndedAt != nil {
		return SubmitResult{}, nil
	}

	s, err := l.store.GetSession(ctx, round.SessionID)
	if err != nil {
		return SubmitResult{}, err
	}
	// Session end flips IsActive before its open round is forced closed, so
	// an answer can arrive in that window. Treat it like a late answer.
	if !s.IsActive {
		return SubmitResult{}, nil
	}
	quiz, err := l.catalog.GetQuiz(ctx, s.QuizID)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("resolve quiz %s: %w", s.QuizID, err)
	}
	q, ok := quiz.Question(round.QuestionID)
	if !ok {
		return SubmitResult{}, domain.ErrQuestionNotFound
	}

	if err := sel.Validate(q); err != nil {
		return SubmitResult{}, err
	}

	correct := sel.IsCorrect(q)
	points := domain.ScorePoints(correct, basePoints, timeRemaining, timeTotal)
	answeredAt := l.now()

	answer := domain.Answer{
		ID:            uuid.NewString(),
		RoundID:       round.ID,
		PlayerID:      player.ID,
		Selection:     sel,
		IsCorrect:     correct,
		PointsAwarded: points,
		ResponseTime:  answeredAt.Sub(round.StartedAt).Seconds(),
		AnsweredAt:    answeredAt,
	}

	score, err := l.store.InsertAnswer(ctx, &answer)
	if errors.Is(err, domain.ErrDuplicateAnswer) {
		return SubmitResult{}, nil
	}
	if err != nil {
		return SubmitResult{}, fmt.Errorf("insert answer: %w", err)
	}

	l.bc.SendToHost(round.SessionID, EventPlayerAnswered, playerEvent{
		PlayerID:    player.ID,
		DisplayName: player.DisplayName,
	})

	return SubmitResult{
		Accepted:   true,
		Correct:    correct,
		Points:     points,
		TotalScore: score.TotalScore,
	}, nil
}

// SubmitTimed is the server-authoritative variant used by the transport: the
// time budget and base points come from the round's question and the
// remaining time from the round clock, never from the client.
func (l *Ledger) SubmitTimed(ctx context.Context, roundID, playerID string, sel domain.Selection) (SubmitResult, error) {
	round, err := l.store.GetRound(ctx, roundID)
	if err != nil {
		return SubmitResult{}, err
	}
	s, err := l.store.GetSession(ctx, round.SessionID)
	if err != nil {
		return SubmitResult{}, err
	}
	quiz, err := l.catalog.GetQuiz(ctx, s.QuizID)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("resolve quiz %s: %w", s.QuizID, err)
	}
	q, ok := quiz.Question(round.QuestionID)
	if !ok {
		return SubmitResult{}, domain.ErrQuestionNotFound
	}

	total := float64(q.TimeLimit())
	remaining := total - l.now().Sub(round.StartedAt).Seconds()
	return l.SubmitAnswer(ctx, roundID, playerID, sel, remaining, total, q.BasePoints())
}
