package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"livequiz-service/internal/domain"
)

// SessionCodeLength is how many leading hex characters of the session id
// make up the join code.
const SessionCodeLength = 6

const codeReserveAttempts = 16

// Registry owns session lifecycle and membership. Every broadcast it emits
// follows a successfully persisted state transition.
type Registry struct {
	store   GameStore
	catalog QuizCatalog
	codes   CodeIndex
	rounds  *Coordinator
	bc      *Broadcaster
	locks   *sessionLocks
	now     func() time.Time
}

// CreateSession binds a new active session to a quiz and a host. The session
// id is re-drawn until its code prefix collides with no reserved code, so
// join codes are unique among concurrently active sessions.
func (r *Registry) CreateSession(ctx context.Context, hostID, quizID string) (domain.Session, error) {
	if _, err := r.catalog.GetQuiz(ctx, quizID); err != nil {
		return domain.Session{}, fmt.Errorf("resolve quiz %s: %w", quizID, err)
	}

	var id, code string
	for attempt := 0; ; attempt++ {
		id = uuid.NewString()
		code = id[:SessionCodeLength]
		ok, err := r.codes.Reserve(ctx, code, id)
		if err != nil {
			return domain.Session{}, fmt.Errorf("reserve session code: %w", err)
		}
		if ok {
			break
		}
		if attempt+1 >= codeReserveAttempts {
			return domain.Session{}, fmt.Errorf("reserve session code: exhausted %d attempts", codeReserveAttempts)
		}
	}

	s := domain.Session{
		ID:        id,
		QuizID:    quizID,
		HostID:    hostID,
		Code:      code,
		IsActive:  true,
		StartedAt: r.now(),
	}
	if err := r.store.InsertSession(ctx, &s); err != nil {
		_ = r.codes.Release(ctx, code)
		return domain.Session{}, fmt.Errorf("insert session: %w", err)
	}

	log.Printf("session %s created for quiz %s (code %s)", s.ID, quizID, code)
	return s, nil
}

// Join adds a player to an active session and creates their zero-valued
// score row.
func (r *Registry) Join(ctx context.Context, sessionID, displayName string) (domain.Player, error) {
	mu := r.locks.get(sessionID)
	mu.Lock()
	defer mu.Unlock()

	s, err := r.store.GetSession(ctx, sessionID)
	if err != nil {
		return domain.Player{}, err
	}
	if !s.IsActive {
		return domain.Player{}, domain.ErrSessionClosed
	}

	p := domain.Player{
		ID:          uuid.NewString(),
		SessionID:   sessionID,
		DisplayName: displayName,
		JoinedAt:    r.now(),
	}
	if err := r.store.InsertPlayer(ctx, &p); err != nil {
		return domain.Player{}, fmt.Errorf("insert player: %w", err)
	}

	r.bc.Broadcast(sessionID, EventPlayerJoined, playerEvent{
		PlayerID:    p.ID,
		DisplayName: p.DisplayName,
	})
	return p, nil
}

// JoinByCode resolves a short code against active sessions and joins the
// match. Codes issued by CreateSession resolve through the index; any other
// prefix falls back to a scan of active session ids, first match wins.
func (r *Registry) JoinByCode(ctx context.Context, code, displayName string) (string, domain.Player, error) {
	sessionID, err := r.resolveCode(ctx, code)
	if err != nil {
		return "", domain.Player{}, err
	}
	p, err := r.Join(ctx, sessionID, displayName)
	if err != nil {
		return "", domain.Player{}, err
	}
	return sessionID, p, nil
}

func (r *Registry) resolveCode(ctx context.Context, code string) (string, error) {
	if sessionID, err := r.codes.Resolve(ctx, code); err == nil {
		return sessionID, nil
	} else if !errors.Is(err, domain.ErrCodeNotFound) {
		return "", fmt.Errorf("resolve code: %w", err)
	}

	// Only a full-length code may fall back to the prefix scan; anything
	// shorter would match nearly every session id.
	if len(code) != SessionCodeLength {
		return "", domain.ErrCodeNotFound
	}

	active, err := r.store.ListActiveSessions(ctx)
	if err != nil {
		return "", fmt.Errorf("list active sessions: %w", err)
	}
	for _, s := range active {
		if strings.HasPrefix(s.ID, code) {
			return s.ID, nil
		}
	}
	return "", domain.ErrCodeNotFound
}

// Leave announces a player's departure. The player row is kept so the
// leaderboard history stays intact.
func (r *Registry) Leave(ctx context.Context, sessionID, playerID string) {
	p, err := r.store.GetPlayer(ctx, playerID)
	if err != nil || p.SessionID != sessionID {
		return
	}
	r.bc.Broadcast(sessionID, EventPlayerLeft, playerEvent{
		PlayerID:    p.ID,
		DisplayName: p.DisplayName,
	})
}

// HostDisconnected tells the session's players their host dropped.
func (r *Registry) HostDisconnected(sessionID string) {
	r.bc.Broadcast(sessionID, EventHostDisconnected, nil)
}

// EndSession deactivates the session, forcing its open round (if any) to
// close first. Ending an already-ended session is a no-op returning false.
func (r *Registry) EndSession(ctx context.Context, sessionID string) (bool, error) {
	mu := r.locks.get(sessionID)
	mu.Lock()
	s, err := r.store.GetSession(ctx, sessionID)
	if err != nil {
		mu.Unlock()
		return false, err
	}
	openRoundID, ended, err := r.store.EndSession(ctx, sessionID, r.now())
	mu.Unlock()
	if err != nil {
		return false, fmt.Errorf("end session: %w", err)
	}
	if !ended {
		return false, nil
	}

	// The session is inactive now, so no new round can start; closing the
	// leftover round re-acquires the session lock inside EndRound.
	if openRoundID != "" {
		if _, err := r.rounds.EndRound(ctx, openRoundID); err != nil {
			log.Printf("session %s: closing open round %s on end: %v", sessionID, openRoundID, err)
		}
	}

	_ = r.codes.Release(ctx, s.Code)
	r.bc.Broadcast(sessionID, EventSessionEnded, sessionEndedEvent{SessionID: sessionID})
	log.Printf("session %s ended", sessionID)
	return true, nil
}

// GetSession returns the session record.
func (r *Registry) GetSession(ctx context.Context, sessionID string) (domain.Session, error) {
	return r.store.GetSession(ctx, sessionID)
}

// HostQuestion returns a question with its correctness data. This backs the
// host-scoped fetch; correctness never rides a broadcast payload.
func (r *Registry) HostQuestion(ctx context.Context, sessionID, questionID string) (domain.Question, error) {
	s, err := r.store.GetSession(ctx, sessionID)
	if err != nil {
		return domain.Question{}, err
	}
	quiz, err := r.catalog.GetQuiz(ctx, s.QuizID)
	if err != nil {
		return domain.Question{}, fmt.Errorf("resolve quiz %s: %w", s.QuizID, err)
	}
	q, ok := quiz.Question(questionID)
	if !ok {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	return q, nil
}

// HostQuiz returns the session's full quiz for the host.
func (r *Registry) HostQuiz(ctx context.Context, sessionID string) (domain.Quiz, error) {
	s, err := r.store.GetSession(ctx, sessionID)
	if err != nil {
		return domain.Quiz{}, err
	}
	return r.catalog.GetQuiz(ctx, s.QuizID)
}

// GetSessionStatus reports whether the session is still active.
func (r *Registry) GetSessionStatus(ctx context.Context, sessionID string) (bool, error) {
	s, err := r.store.GetSession(ctx, sessionID)
	if err != nil {
		return false, err
	}
	return s.IsActive, nil
}

type playerEvent struct {
	PlayerID    string `json:"playerId"`
	DisplayName string `json:"displayName"`
}

type sessionEndedEvent struct {
	SessionID string `json:"sessionId"`
}
