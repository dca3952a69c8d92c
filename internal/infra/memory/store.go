package memory

import (
	"context"
	"sync"
	"time"

	"livequiz-service/internal/domain"
)

// Store is the in-memory GameStore. One mutex guards all maps, which makes
// every method a transaction: the answer insert plus score increment in
// InsertAnswer either fully applies or not at all, and the (roundID,
// playerID) uniqueness check cannot race the insert.
type Store struct {
	mu sync.RWMutex

	sessions map[string]*domain.Session
	players  map[string]*domain.Player
	rounds   map[string]*domain.Round
	answers  map[string]*domain.Answer
	scores   map[string]*domain.Score // keyed sessionID+"/"+playerID

	playersBySession map[string][]string
	roundsBySession  map[string][]string
	answersByRound   map[string][]string
	answerByPair     map[string]string // roundID+"/"+playerID -> answer id
}

func NewStore() *Store {
	return &Store{
		sessions:         make(map[string]*domain.Session),
		players:          make(map[string]*domain.Player),
		rounds:           make(map[string]*domain.Round),
		answers:          make(map[string]*domain.Answer),
		scores:           make(map[string]*domain.Score),
		playersBySession: make(map[string][]string),
		roundsBySession:  make(map[string][]string),
		answersByRound:   make(map[string][]string),
		answerByPair:     make(map[string]string),
	}
}

func (s *Store) InsertSession(_ context.Context, sess *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *sess
	s.sessions[sess.ID] = &cp
	return nil
}

func (s *Store) GetSession(_ context.Context, id string) (domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	return *sess, nil
}

func (s *Store) ListActiveSessions(_ context.Context) ([]domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Session
	for _, sess := range s.sessions {
		if sess.IsActive {
			out = append(out, *sess)
		}
	}
	return out, nil
}

func (s *Store) EndSession(_ context.Context, id string, at time.Time) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return "", false, domain.ErrSessionNotFound
	}
	if !sess.IsActive {
		return "", false, nil
	}
	sess.IsActive = false
	ended := at
	sess.EndedAt = &ended
	return sess.CurrentRoundID, true, nil
}

func (s *Store) MarkSessionDegraded(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return domain.ErrSessionNotFound
	}
	sess.Degraded = true
	return nil
}

func (s *Store) InsertPlayer(_ context.Context, p *domain.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[p.SessionID]; !ok {
		return domain.ErrSessionNotFound
	}
	cp := *p
	s.players[p.ID] = &cp
	s.playersBySession[p.SessionID] = append(s.playersBySession[p.SessionID], p.ID)
	s.scores[scoreKey(p.SessionID, p.ID)] = &domain.Score{
		SessionID: p.SessionID,
		PlayerID:  p.ID,
		UpdatedAt: p.JoinedAt,
	}
	return nil
}

func (s *Store) GetPlayer(_ context.Context, id string) (domain.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.players[id]
	if !ok {
		return domain.Player{}, domain.ErrPlayerNotFound
	}
	return *p, nil
}

func (s *Store) ListPlayers(_ context.Context, sessionID string) ([]domain.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.playersBySession[sessionID]
	out := make([]domain.Player, 0, len(ids))
	for _, id := range ids {
		out = append(out, *s.players[id])
	}
	return out, nil
}

func (s *Store) InsertRound(_ context.Context, r *domain.Round) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[r.SessionID]
	if !ok {
		return domain.ErrSessionNotFound
	}
	if sess.CurrentRoundID != "" {
		return domain.ErrRoundOpen
	}
	for _, id := range s.roundsBySession[r.SessionID] {
		if s.rounds[id].RoundNumber >= r.RoundNumber {
			return domain.ErrStaleRoundNumber
		}
	}
	cp := *r
	s.rounds[r.ID] = &cp
	s.roundsBySession[r.SessionID] = append(s.roundsBySession[r.SessionID], r.ID)
	sess.CurrentRoundID = r.ID
	return nil
}

func (s *Store) GetRound(_ context.Context, id string) (domain.Round, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rounds[id]
	if !ok {
		return domain.Round{}, domain.ErrRoundNotFound
	}
	return *r, nil
}

func (s *Store) ListRounds(_ context.Context, sessionID string) ([]domain.Round, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.roundsBySession[sessionID]
	out := make([]domain.Round, 0, len(ids))
	for _, id := range ids {
		out = append(out, *s.rounds[id])
	}
	return out, nil
}

func (s *Store) CloseRound(_ context.Context, roundID string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rounds[roundID]
	if !ok {
		return false, domain.ErrRoundNotFound
	}
	if r.EndedAt != nil {
		return false, nil
	}
	ended := at
	r.EndedAt = &ended
	if sess, ok := s.sessions[r.SessionID]; ok && sess.CurrentRoundID == roundID {
		sess.CurrentRoundID = ""
	}
	return true, nil
}

func (s *Store) InsertAnswer(_ context.Context, a *domain.Answer) (domain.Score, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rounds[a.RoundID]
	if !ok {
		return domain.Score{}, domain.ErrRoundNotFound
	}
	pair := a.RoundID + "/" + a.PlayerID
	if _, dup := s.answerByPair[pair]; dup {
		return domain.Score{}, domain.ErrDuplicateAnswer
	}

	sc, ok := s.scores[scoreKey(r.SessionID, a.PlayerID)]
	if !ok {
		return domain.Score{}, domain.ErrPlayerNotFound
	}

	cp := *a
	s.answers[a.ID] = &cp
	s.answerByPair[pair] = a.ID
	s.answersByRound[a.RoundID] = append(s.answersByRound[a.RoundID], a.ID)

	// UpdatedAt is the tie-break: the time the current total was reached.
	// A zero-point answer leaves the total, and therefore the tie-break,
	// untouched.
	if a.PointsAwarded != 0 {
		sc.TotalScore += a.PointsAwarded
		sc.UpdatedAt = a.AnsweredAt
	}
	return *sc, nil
}

func (s *Store) ListAnswers(_ context.Context, roundID string) ([]domain.Answer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.answersByRound[roundID]
	out := make([]domain.Answer, 0, len(ids))
	for _, id := range ids {
		out = append(out, *s.answers[id])
	}
	return out, nil
}

func (s *Store) CountAnswers(_ context.Context, roundID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.answersByRound[roundID]), nil
}

func (s *Store) ListScores(_ context.Context, sessionID string) ([]domain.Score, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Score
	for _, id := range s.playersBySession[sessionID] {
		if sc, ok := s.scores[scoreKey(sessionID, id)]; ok {
			out = append(out, *sc)
		}
	}
	return out, nil
}

func scoreKey(sessionID, playerID string) string {
	return sessionID + "/" + playerID
}
