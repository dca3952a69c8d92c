package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"livequiz-service/internal/domain"
)

func seedSession(t *testing.T, s *Store) domain.Session {
	t.Helper()
	sess := domain.Session{
		ID:        "sess-1",
		QuizID:    "quiz-1",
		HostID:    "host-1",
		Code:      "abc123",
		IsActive:  true,
		StartedAt: time.Now(),
	}
	if err := s.InsertSession(context.Background(), &sess); err != nil {
		t.Fatalf("insert session: %v", err)
	}
	return sess
}

func seedPlayer(t *testing.T, s *Store, sessionID, id string) domain.Player {
	t.Helper()
	p := domain.Player{ID: id, SessionID: sessionID, DisplayName: id, JoinedAt: time.Now()}
	if err := s.InsertPlayer(context.Background(), &p); err != nil {
		t.Fatalf("insert player %s: %v", id, err)
	}
	return p
}

func seedRound(t *testing.T, s *Store, sessionID, id string, n int) domain.Round {
	t.Helper()
	r := domain.Round{ID: id, SessionID: sessionID, QuestionID: "q1", RoundNumber: n, StartedAt: time.Now()}
	if err := s.InsertRound(context.Background(), &r); err != nil {
		t.Fatalf("insert round %s: %v", id, err)
	}
	return r
}

func TestInsertRoundEnforcesSingleOpenRound(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	sess := seedSession(t, s)
	seedRound(t, s, sess.ID, "r1", 1)

	r2 := domain.Round{ID: "r2", SessionID: sess.ID, QuestionID: "q2", RoundNumber: 2, StartedAt: time.Now()}
	if err := s.InsertRound(ctx, &r2); !errors.Is(err, domain.ErrRoundOpen) {
		t.Fatalf("expected ErrRoundOpen, got %v", err)
	}

	if _, err := s.CloseRound(ctx, "r1", time.Now()); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := s.InsertRound(ctx, &r2); err != nil {
		t.Fatalf("round after close: %v", err)
	}

	got, err := s.GetSession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if got.CurrentRoundID != "r2" {
		t.Fatalf("session should track the open round, got %q", got.CurrentRoundID)
	}
}

func TestInsertRoundRejectsStaleNumbers(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	sess := seedSession(t, s)
	seedRound(t, s, sess.ID, "r1", 3)
	if _, err := s.CloseRound(ctx, "r1", time.Now()); err != nil {
		t.Fatalf("close: %v", err)
	}

	stale := domain.Round{ID: "r2", SessionID: sess.ID, QuestionID: "q1", RoundNumber: 3, StartedAt: time.Now()}
	if err := s.InsertRound(ctx, &stale); !errors.Is(err, domain.ErrStaleRoundNumber) {
		t.Fatalf("expected ErrStaleRoundNumber, got %v", err)
	}
}

func TestCloseRoundIsCompareAndSwap(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	sess := seedSession(t, s)
	seedRound(t, s, sess.ID, "r1", 1)

	const attempts = 16
	wins := make(chan bool, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			closed, err := s.CloseRound(ctx, "r1", time.Now())
			if err != nil {
				t.Errorf("close: %v", err)
				return
			}
			wins <- closed
		}()
	}
	wg.Wait()
	close(wins)

	won := 0
	for c := range wins {
		if c {
			won++
		}
	}
	if won != 1 {
		t.Fatalf("exactly one close must win, got %d", won)
	}

	r, err := s.GetRound(ctx, "r1")
	if err != nil || r.EndedAt == nil {
		t.Fatalf("round should be closed")
	}
	got, err := s.GetSession(ctx, sess.ID)
	if err != nil || got.CurrentRoundID != "" {
		t.Fatalf("closing must clear the session's open round pointer")
	}
}

func TestInsertAnswerUniqueAndAtomic(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	sess := seedSession(t, s)
	p := seedPlayer(t, s, sess.ID, "p1")
	seedRound(t, s, sess.ID, "r1", 1)

	a := domain.Answer{
		ID: "a1", RoundID: "r1", PlayerID: p.ID,
		Selection: domain.Selection{OptionID: "o2"},
		IsCorrect: true, PointsAwarded: 150, ResponseTime: 2.5, AnsweredAt: time.Now(),
	}
	score, err := s.InsertAnswer(ctx, &a)
	if err != nil {
		t.Fatalf("insert answer: %v", err)
	}
	if score.TotalScore != 150 {
		t.Fatalf("score increment must land with the answer, got %d", score.TotalScore)
	}

	dup := domain.Answer{
		ID: "a2", RoundID: "r1", PlayerID: p.ID,
		Selection: domain.Selection{OptionID: "o1"},
		PointsAwarded: 999, AnsweredAt: time.Now(),
	}
	if _, err := s.InsertAnswer(ctx, &dup); !errors.Is(err, domain.ErrDuplicateAnswer) {
		t.Fatalf("expected ErrDuplicateAnswer, got %v", err)
	}

	answers, err := s.ListAnswers(ctx, "r1")
	if err != nil {
		t.Fatalf("list answers: %v", err)
	}
	if len(answers) != 1 {
		t.Fatalf("rejected duplicate must leave no row, got %d", len(answers))
	}
	scores, err := s.ListScores(ctx, sess.ID)
	if err != nil {
		t.Fatalf("list scores: %v", err)
	}
	if len(scores) != 1 || scores[0].TotalScore != 150 {
		t.Fatalf("rejected duplicate must leave the total untouched, got %+v", scores)
	}
}

func TestInsertAnswerZeroPointsKeepsUpdatedAt(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	sess := seedSession(t, s)
	p := seedPlayer(t, s, sess.ID, "p1")

	seedRound(t, s, sess.ID, "r1", 1)
	reached := time.Now()
	if _, err := s.InsertAnswer(ctx, &domain.Answer{
		ID: "a1", RoundID: "r1", PlayerID: p.ID,
		Selection: domain.Selection{OptionID: "o2"},
		IsCorrect: true, PointsAwarded: 150, AnsweredAt: reached,
	}); err != nil {
		t.Fatalf("insert answer: %v", err)
	}
	if _, err := s.CloseRound(ctx, "r1", time.Now()); err != nil {
		t.Fatalf("close: %v", err)
	}

	seedRound(t, s, sess.ID, "r2", 2)
	if _, err := s.InsertAnswer(ctx, &domain.Answer{
		ID: "a2", RoundID: "r2", PlayerID: p.ID,
		Selection: domain.Selection{OptionID: "o1"},
		AnsweredAt: reached.Add(time.Minute),
	}); err != nil {
		t.Fatalf("insert zero-point answer: %v", err)
	}

	scores, err := s.ListScores(ctx, sess.ID)
	if err != nil {
		t.Fatalf("list scores: %v", err)
	}
	if len(scores) != 1 || scores[0].TotalScore != 150 {
		t.Fatalf("total must stay 150, got %+v", scores)
	}
	if !scores[0].UpdatedAt.Equal(reached) {
		t.Fatalf("a zero-point answer must not move the reached-at time, got %v want %v",
			scores[0].UpdatedAt, reached)
	}
}

func TestEndSessionReturnsOpenRoundOnce(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	sess := seedSession(t, s)
	seedRound(t, s, sess.ID, "r1", 1)

	openRound, ended, err := s.EndSession(ctx, sess.ID, time.Now())
	if err != nil {
		t.Fatalf("end session: %v", err)
	}
	if !ended || openRound != "r1" {
		t.Fatalf("first end should win and surface the open round, got ended=%v round=%q", ended, openRound)
	}

	openRound, ended, err = s.EndSession(ctx, sess.ID, time.Now())
	if err != nil {
		t.Fatalf("second end: %v", err)
	}
	if ended || openRound != "" {
		t.Fatalf("second end must be a no-op, got ended=%v round=%q", ended, openRound)
	}

	if _, _, err := s.EndSession(ctx, "nope", time.Now()); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}

	got, err := s.GetSession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if got.IsActive || got.EndedAt == nil {
		t.Fatalf("session should be terminally inactive, got %+v", got)
	}

	active, err := s.ListActiveSessions(ctx)
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("ended sessions must not be listed as active")
	}
}

func TestInsertPlayerCreatesZeroScore(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	sess := seedSession(t, s)
	seedPlayer(t, s, sess.ID, "p1")

	scores, err := s.ListScores(ctx, sess.ID)
	if err != nil {
		t.Fatalf("list scores: %v", err)
	}
	if len(scores) != 1 || scores[0].TotalScore != 0 {
		t.Fatalf("joining should create a zero score row, got %+v", scores)
	}
}

func TestCodeIndexReserveResolveRelease(t *testing.T) {
	ctx := context.Background()
	idx := NewCodeIndex()

	ok, err := idx.Reserve(ctx, "abc123", "sess-1")
	if err != nil || !ok {
		t.Fatalf("first reserve should succeed, got ok=%v err=%v", ok, err)
	}
	ok, err = idx.Reserve(ctx, "abc123", "sess-2")
	if err != nil || ok {
		t.Fatalf("second reserve must lose, got ok=%v err=%v", ok, err)
	}

	id, err := idx.Resolve(ctx, "abc123")
	if err != nil || id != "sess-1" {
		t.Fatalf("resolve: got %q, %v", id, err)
	}

	if err := idx.Release(ctx, "abc123"); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, err := idx.Resolve(ctx, "abc123"); !errors.Is(err, domain.ErrCodeNotFound) {
		t.Fatalf("expected ErrCodeNotFound after release, got %v", err)
	}
}
