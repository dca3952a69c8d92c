package app

import (
	"context"
	"sort"
	"time"

	"livequiz-service/internal/domain"
)

// Aggregator ranks players and computes round and session statistics. It
// only reads, so it takes no session locks.
type Aggregator struct {
	store GameStore
	now   func() time.Time
}

// ComputeLeaderboard sorts the session's score rows by total descending and
// assigns 1-based ranks with no tie-sharing. Equal totals are ordered by who
// reached the total first, then by display name.
func (a *Aggregator) ComputeLeaderboard(ctx context.Context, sessionID string) (domain.Leaderboard, error) {
	if _, err := a.store.GetSession(ctx, sessionID); err != nil {
		return domain.Leaderboard{}, err
	}
	scores, err := a.store.ListScores(ctx, sessionID)
	if err != nil {
		return domain.Leaderboard{}, err
	}
	players, err := a.store.ListPlayers(ctx, sessionID)
	if err != nil {
		return domain.Leaderboard{}, err
	}
	names := make(map[string]string, len(players))
	for _, p := range players {
		names[p.ID] = p.DisplayName
	}

	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].TotalScore != scores[j].TotalScore {
			return scores[i].TotalScore > scores[j].TotalScore
		}
		if !scores[i].UpdatedAt.Equal(scores[j].UpdatedAt) {
			return scores[i].UpdatedAt.Before(scores[j].UpdatedAt)
		}
		return names[scores[i].PlayerID] < names[scores[j].PlayerID]
	})

	entries := make([]domain.LeaderboardEntry, 0, len(scores))
	for i, sc := range scores {
		entries = append(entries, domain.LeaderboardEntry{
			PlayerID:    sc.PlayerID,
			DisplayName: names[sc.PlayerID],
			TotalScore:  sc.TotalScore,
			Rank:        i + 1,
		})
	}

	return domain.Leaderboard{
		SessionID: sessionID,
		Entries:   entries,
		UpdatedAt: a.now(),
	}, nil
}

// ComputeSessionStats aggregates per-round and per-player statistics across
// the whole session.
func (a *Aggregator) ComputeSessionStats(ctx context.Context, sessionID string) (domain.SessionStats, error) {
	if _, err := a.store.GetSession(ctx, sessionID); err != nil {
		return domain.SessionStats{}, err
	}
	rounds, err := a.store.ListRounds(ctx, sessionID)
	if err != nil {
		return domain.SessionStats{}, err
	}
	players, err := a.store.ListPlayers(ctx, sessionID)
	if err != nil {
		return domain.SessionStats{}, err
	}
	scores, err := a.store.ListScores(ctx, sessionID)
	if err != nil {
		return domain.SessionStats{}, err
	}
	totals := make(map[string]int, len(scores))
	for _, sc := range scores {
		totals[sc.PlayerID] = sc.TotalScore
	}

	stats := domain.SessionStats{
		SessionID:    sessionID,
		TotalPlayers: len(players),
		TotalRounds:  len(rounds),
		PerRound:     make([]domain.RoundStats, 0, len(rounds)),
		PerPlayer:    make([]domain.PlayerStats, 0, len(players)),
	}

	type tally struct {
		answers  int
		correct  int
		respSecs float64
	}
	perPlayer := make(map[string]*tally, len(players))
	var totalAnswers, correctAnswers int

	for _, r := range rounds {
		rs, err := a.roundStats(ctx, r)
		if err != nil {
			return domain.SessionStats{}, err
		}
		stats.PerRound = append(stats.PerRound, rs)
		totalAnswers += rs.TotalAnswers
		correctAnswers += rs.CorrectAnswers

		answers, err := a.store.ListAnswers(ctx, r.ID)
		if err != nil {
			return domain.SessionStats{}, err
		}
		for _, ans := range answers {
			t, ok := perPlayer[ans.PlayerID]
			if !ok {
				t = &tally{}
				perPlayer[ans.PlayerID] = t
			}
			t.answers++
			if ans.IsCorrect {
				t.correct++
			}
			t.respSecs += ans.ResponseTime
		}
	}

	stats.AverageAccuracy = accuracy(correctAnswers, totalAnswers)

	for _, p := range players {
		ps := domain.PlayerStats{
			PlayerID:    p.ID,
			DisplayName: p.DisplayName,
			TotalScore:  totals[p.ID],
		}
		if t, ok := perPlayer[p.ID]; ok {
			ps.TotalAnswers = t.answers
			ps.CorrectAnswers = t.correct
			ps.Accuracy = accuracy(t.correct, t.answers)
			if t.answers > 0 {
				ps.AverageResponseTimeSeconds = t.respSecs / float64(t.answers)
			}
		}
		stats.PerPlayer = append(stats.PerPlayer, ps)
	}
	sort.Slice(stats.PerPlayer, func(i, j int) bool {
		return stats.PerPlayer[i].TotalScore > stats.PerPlayer[j].TotalScore
	})

	return stats, nil
}

func (a *Aggregator) roundStats(ctx context.Context, r domain.Round) (domain.RoundStats, error) {
	answers, err := a.store.ListAnswers(ctx, r.ID)
	if err != nil {
		return domain.RoundStats{}, err
	}

	rs := domain.RoundStats{
		RoundID:      r.ID,
		RoundNumber:  r.RoundNumber,
		TotalAnswers: len(answers),
	}
	var respSecs float64
	for _, ans := range answers {
		if ans.IsCorrect {
			rs.CorrectAnswers++
		}
		respSecs += ans.ResponseTime
	}
	rs.Accuracy = accuracy(rs.CorrectAnswers, rs.TotalAnswers)
	if rs.TotalAnswers > 0 {
		rs.AverageResponseTimeSeconds = respSecs / float64(rs.TotalAnswers)
	}
	return rs, nil
}

// accuracy applies the shared zero-answer guard.
func accuracy(correct, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(correct) / float64(total) * 100
}
