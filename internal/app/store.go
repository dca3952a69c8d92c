package app

import (
	"context"
	"time"

	"livequiz-service/internal/domain"
)

// GameStore is the persistence gateway for sessions, rounds, players,
// answers and scores. Implementations must enforce the uniqueness constraint
// on (roundID, playerID) and apply InsertAnswer's score increment in the same
// transactional unit as the answer row.
type GameStore interface {
	InsertSession(ctx context.Context, s *domain.Session) error
	GetSession(ctx context.Context, id string) (domain.Session, error)
	ListActiveSessions(ctx context.Context) ([]domain.Session, error)
	// EndSession flips IsActive false exactly once. It reports whether this
	// call performed the transition and, if so, the id of the still-open
	// round (empty when none); the caller is responsible for closing it.
	EndSession(ctx context.Context, id string, at time.Time) (openRoundID string, ended bool, err error)
	MarkSessionDegraded(ctx context.Context, id string) error

	// InsertPlayer registers the player and creates their zero-valued Score
	// row in one unit.
	InsertPlayer(ctx context.Context, p *domain.Player) error
	GetPlayer(ctx context.Context, id string) (domain.Player, error)
	ListPlayers(ctx context.Context, sessionID string) ([]domain.Player, error)

	// InsertRound persists the round and points the session's open-round
	// field at it. It fails with ErrRoundOpen when another round is open and
	// ErrStaleRoundNumber when the round number does not increase.
	InsertRound(ctx context.Context, r *domain.Round) error
	GetRound(ctx context.Context, id string) (domain.Round, error)
	ListRounds(ctx context.Context, sessionID string) ([]domain.Round, error)
	// CloseRound is the compare-and-swap on round state: it reports true only
	// for the single call that transitions the round to closed.
	CloseRound(ctx context.Context, roundID string, at time.Time) (bool, error)

	// InsertAnswer writes the answer and increments the player's session
	// score by PointsAwarded atomically, returning the updated Score. It
	// fails with ErrDuplicateAnswer when the (round, player) pair already
	// answered, leaving no state behind.
	InsertAnswer(ctx context.Context, a *domain.Answer) (domain.Score, error)
	ListAnswers(ctx context.Context, roundID string) ([]domain.Answer, error)
	CountAnswers(ctx context.Context, roundID string) (int, error)

	ListScores(ctx context.Context, sessionID string) ([]domain.Score, error)
}

// QuizCatalog resolves quiz content. The catalog is read-only from the
// core's perspective; correctness data in it is host-visible only.
type QuizCatalog interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// CodeIndex maps short join codes to active sessions. Reserve fails (false)
// when the code is already taken, which is how code uniqueness is guaranteed
// at issuance time.
type CodeIndex interface {
	Reserve(ctx context.Context, code, sessionID string) (bool, error)
	Resolve(ctx context.Context, code string) (string, error)
	Release(ctx context.Context, code string) error
}
