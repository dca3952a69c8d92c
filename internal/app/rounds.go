package app

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"livequiz-service/internal/domain"
)

const (
	autoEndRetries = 3
	autoEndBackoff = 250 * time.Millisecond
)

// Coordinator owns the single-open-round invariant for every session: it
// starts rounds, runs their timers and funnels every closing path (explicit
// end, timeout, all-answered, session end) through one compare-and-swap.
type Coordinator struct {
	store   GameStore
	catalog QuizCatalog
	boards  *Aggregator
	bc      *Broadcaster
	locks   *sessionLocks
	now     func() time.Time

	tmu    sync.Mutex
	timers map[string]*time.Timer
}

// StartRound opens a round for the session's next question. It rejects the
// call when the session is inactive or another round is still open, then
// persists the round, arms the timeout and broadcasts the player-safe view
// of the question. Correctness data never rides on this broadcast; hosts
// fetch it separately.
func (c *Coordinator) StartRound(ctx context.Context, sessionID string, roundNumber int, questionID string) (domain.Round, error) {
	mu := c.locks.get(sessionID)
	mu.Lock()
	defer mu.Unlock()

	s, err := c.store.GetSession(ctx, sessionID)
	if err != nil {
		return domain.Round{}, err
	}
	if !s.IsActive {
		return domain.Round{}, domain.ErrSessionClosed
	}
	if s.CurrentRoundID != "" {
		return domain.Round{}, domain.ErrRoundOpen
	}

	quiz, err := c.catalog.GetQuiz(ctx, s.QuizID)
	if err != nil {
		return domain.Round{}, fmt.Errorf("resolve quiz %s: %w", s.QuizID, err)
	}
	q, ok := quiz.Question(questionID)
	if !ok {
		return domain.Round{}, domain.ErrQuestionNotFound
	}

	round := domain.Round{
		ID:          uuid.NewString(),
		SessionID:   sessionID,
		QuestionID:  questionID,
		RoundNumber: roundNumber,
		StartedAt:   c.now(),
	}
	if err := c.store.InsertRound(ctx, &round); err != nil {
		return domain.Round{}, err
	}

	c.armTimer(round.ID, time.Duration(q.TimeLimit())*time.Second)

	c.bc.Broadcast(sessionID, EventRoundStarted, roundStartedEvent{
		RoundID:     round.ID,
		RoundNumber: round.RoundNumber,
		Question:    q.PlayerView(),
	})
	log.Printf("session %s: round %d started (question %s)", sessionID, roundNumber, questionID)
	return round, nil
}

// EndRound closes the round and returns its stats. Only the call that wins
// the compare-and-swap cancels the timer and broadcasts; ending an
// already-closed round just recomputes the same stats and mutates nothing.
func (c *Coordinator) EndRound(ctx context.Context, roundID string) (domain.RoundStats, error) {
	r, err := c.store.GetRound(ctx, roundID)
	if err != nil {
		return domain.RoundStats{}, err
	}

	mu := c.locks.get(r.SessionID)
	mu.Lock()
	defer mu.Unlock()

	closed, err := c.store.CloseRound(ctx, roundID, c.now())
	if err != nil {
		return domain.RoundStats{}, fmt.Errorf("close round: %w", err)
	}

	stats, err := c.boards.roundStats(ctx, r)
	if err != nil {
		return domain.RoundStats{}, err
	}
	if !closed {
		return stats, nil
	}

	c.disarmTimer(roundID)

	c.bc.Broadcast(r.SessionID, EventRoundEnded, stats)
	if lb, err := c.boards.ComputeLeaderboard(ctx, r.SessionID); err == nil {
		c.bc.Broadcast(r.SessionID, EventLeaderboard, lb)
	} else {
		log.Printf("session %s: leaderboard after round %d: %v", r.SessionID, r.RoundNumber, err)
	}
	log.Printf("session %s: round %d ended (%d answers)", r.SessionID, r.RoundNumber, stats.TotalAnswers)
	return stats, nil
}

// Round returns the round record.
func (c *Coordinator) Round(ctx context.Context, roundID string) (domain.Round, error) {
	return c.store.GetRound(ctx, roundID)
}

func (c *Coordinator) armTimer(roundID string, d time.Duration) {
	c.tmu.Lock()
	defer c.tmu.Unlock()
	c.timers[roundID] = time.AfterFunc(d, func() { c.autoEnd(roundID) })
}

func (c *Coordinator) disarmTimer(roundID string) {
	c.tmu.Lock()
	defer c.tmu.Unlock()
	if t, ok := c.timers[roundID]; ok {
		t.Stop()
		delete(c.timers, roundID)
	}
}

// autoEnd is the timeout closing path. It shares EndRound's compare-and-swap,
// so a race with an explicit end resolves to exactly one closure. Store
// failures are retried with backoff; if the round still cannot be closed the
// session is marked degraded rather than left ambiguously open.
func (c *Coordinator) autoEnd(roundID string) {
	ctx := context.Background()

	var lastErr error
	for attempt := 0; attempt < autoEndRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(autoEndBackoff << (attempt - 1))
		}
		if _, lastErr = c.EndRound(ctx, roundID); lastErr == nil {
			return
		}
	}

	log.Printf("round %s: auto-end failed after %d attempts: %v", roundID, autoEndRetries, lastErr)
	if r, err := c.store.GetRound(ctx, roundID); err == nil {
		if err := c.store.MarkSessionDegraded(ctx, r.SessionID); err != nil {
			log.Printf("session %s: marking degraded: %v", r.SessionID, err)
		}
	}
}

// maybeEndEarly closes the round once every joined player has answered.
// Early close is a policy choice; it reuses the idempotent EndRound path.
func (c *Coordinator) maybeEndEarly(ctx context.Context, round domain.Round) {
	players, err := c.store.ListPlayers(ctx, round.SessionID)
	if err != nil || len(players) == 0 {
		return
	}
	answers, err := c.store.CountAnswers(ctx, round.ID)
	if err != nil || answers < len(players) {
		return
	}
	if _, err := c.EndRound(ctx, round.ID); err != nil {
		log.Printf("session %s: all-answered close of round %s: %v", round.SessionID, round.ID, err)
	}
}

type roundStartedEvent struct {
	RoundID     string              `json:"roundId"`
	RoundNumber int                 `json:"roundNumber"`
	Question    domain.QuestionView `json:"question"`
}
