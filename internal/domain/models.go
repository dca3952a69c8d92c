package domain

import "time"

// Session is one hosted play-through of a quiz. IsActive flips true->false
// exactly once; EndedAt is set on that transition.
type Session struct {
	ID       string `json:"id"`
	QuizID   string `json:"quizId"`
	HostID   string `json:"hostId"`
	Code     string `json:"code"`
	IsActive bool   `json:"isActive"`
	Degraded bool   `json:"degraded,omitempty"`
	// CurrentRoundID points at the single open round, if any.
	CurrentRoundID string     `json:"currentRoundId,omitempty"`
	StartedAt      time.Time  `json:"startedAt"`
	EndedAt        *time.Time `json:"endedAt,omitempty"`
}

// Round is the time-boxed presentation of a single question within a session.
// A round with EndedAt == nil is open; at most one round per session is open.
type Round struct {
	ID          string     `json:"id"`
	SessionID   string     `json:"sessionId"`
	QuestionID  string     `json:"questionId"`
	RoundNumber int        `json:"roundNumber"`
	StartedAt   time.Time  `json:"startedAt"`
	EndedAt     *time.Time `json:"endedAt,omitempty"`
}

// Player is an ephemeral, session-scoped identity. Players are never deleted,
// even after their connection drops, so leaderboard history stays intact.
type Player struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"sessionId"`
	DisplayName string    `json:"displayName"`
	JoinedAt    time.Time `json:"joinedAt"`
}

// Answer is immutable once written; (RoundID, PlayerID) is unique.
type Answer struct {
	ID            string    `json:"id"`
	RoundID       string    `json:"roundId"`
	PlayerID      string    `json:"playerId"`
	Selection     Selection `json:"selection"`
	IsCorrect     bool      `json:"isCorrect"`
	PointsAwarded int       `json:"pointsAwarded"`
	// ResponseTime is how long the player took to answer, in seconds.
	ResponseTime float64   `json:"responseTimeSeconds"`
	AnsweredAt   time.Time `json:"answeredAt"`
}

// Score is the per-(session, player) running total. It only ever grows, and
// each increment is applied atomically alongside the Answer that earned it.
type Score struct {
	SessionID  string `json:"sessionId"`
	PlayerID   string `json:"playerId"`
	TotalScore int    `json:"totalScore"`
	// UpdatedAt is the time the current total was reached; it is the
	// leaderboard tie-break among equal totals.
	UpdatedAt time.Time `json:"updatedAt"`
}

// RoundStats summarizes a closed round.
type RoundStats struct {
	RoundID                    string  `json:"roundId"`
	RoundNumber                int     `json:"roundNumber"`
	TotalAnswers               int     `json:"totalAnswers"`
	CorrectAnswers             int     `json:"correctAnswers"`
	Accuracy                   float64 `json:"accuracy"`
	AverageResponseTimeSeconds float64 `json:"averageResponseTimeSeconds"`
}

// LeaderboardEntry is one ranked row. Ranks are 1-based positions with no
// tie-sharing: equal scores still get distinct consecutive ranks.
type LeaderboardEntry struct {
	PlayerID    string `json:"playerId"`
	DisplayName string `json:"displayName"`
	TotalScore  int    `json:"totalScore"`
	Rank        int    `json:"rank"`
}

// Leaderboard captures the ordered scoreboard for a session.
type Leaderboard struct {
	SessionID string             `json:"sessionId"`
	Entries   []LeaderboardEntry `json:"entries"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// PlayerStats aggregates one player's performance across a session.
type PlayerStats struct {
	PlayerID                   string  `json:"playerId"`
	DisplayName                string  `json:"displayName"`
	TotalScore                 int     `json:"totalScore"`
	TotalAnswers               int     `json:"totalAnswers"`
	CorrectAnswers             int     `json:"correctAnswers"`
	Accuracy                   float64 `json:"accuracy"`
	AverageResponseTimeSeconds float64 `json:"averageResponseTimeSeconds"`
}

// SessionStats aggregates round and player statistics for a whole session.
type SessionStats struct {
	SessionID       string        `json:"sessionId"`
	TotalPlayers    int           `json:"totalPlayers"`
	TotalRounds     int           `json:"totalRounds"`
	AverageAccuracy float64       `json:"averageAccuracy"`
	PerPlayer       []PlayerStats `json:"perPlayer"`
	PerRound        []RoundStats  `json:"perRound"`
}
