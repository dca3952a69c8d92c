package domain

import "errors"

var (
	// ErrSessionNotFound is returned when a session id does not resolve.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionClosed is returned when an operation needs an active session.
	ErrSessionClosed = errors.New("session is not active")
	// ErrRoundNotFound is returned when a round id does not resolve.
	ErrRoundNotFound = errors.New("round not found")
	// ErrRoundOpen is returned when starting a round while one is still open.
	ErrRoundOpen = errors.New("another round is still open")
	// ErrStaleRoundNumber is returned when a new round's number does not
	// strictly increase within its session.
	ErrStaleRoundNumber = errors.New("round number must increase")
	// ErrRoundClosed indicates the round already ended; for answer submission
	// this is an idempotent no-op, not a caller-visible failure.
	ErrRoundClosed = errors.New("round already closed")
	// ErrPlayerNotFound is returned when a player id does not resolve.
	ErrPlayerNotFound = errors.New("player not found")
	// ErrNotSessionMember is returned when a player submits into a round of a
	// session they never joined.
	ErrNotSessionMember = errors.New("player is not a member of the session")
	// ErrDuplicateAnswer indicates the (round, player) pair already answered.
	ErrDuplicateAnswer = errors.New("answer already submitted")
	// ErrInvalidSelection indicates a malformed selection shape, rejected
	// before any state change.
	ErrInvalidSelection = errors.New("invalid selection")
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuestionNotFound indicates a question id is not part of the quiz.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrCodeNotFound indicates a session code matched no active session.
	ErrCodeNotFound = errors.New("session code not found")
)
