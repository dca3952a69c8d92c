package domain

// QuestionType discriminates how a question is answered and scored.
type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionTrueFalse      QuestionType = "true_false"
	QuestionOrdering       QuestionType = "ordering"
)

// Option is a possible answer. For single-choice questions Correct marks the
// right option; for ordering questions CorrectOrder gives the option's
// position in the canonical sequence.
type Option struct {
	ID           string `json:"id"`
	Text         string `json:"text"`
	Correct      bool   `json:"correct,omitempty"`
	CorrectOrder int    `json:"correctOrder,omitempty"`
}

// Question models one catalog question. TimeLimit and Points fall back to
// defaults if zero.
type Question struct {
	ID               string       `json:"id"`
	Type             QuestionType `json:"type"`
	Prompt           string       `json:"prompt"`
	Options          []Option     `json:"options"`
	TimeLimitSeconds int          `json:"timeLimitSeconds"`
	Points           int          `json:"points"`
}

// Quiz is an ordered collection of questions. Correctness data lives here and
// is host-visible only; player-facing payloads go through PlayerView.
type Quiz struct {
	ID        string     `json:"id"`
	Title     string     `json:"title,omitempty"`
	Questions []Question `json:"questions"`
}

const (
	DefaultTimeLimitSeconds = 30
	DefaultPoints           = 100
)

// TimeLimit returns the question's time budget in seconds, defaulted.
func (q Question) TimeLimit() int {
	if q.TimeLimitSeconds > 0 {
		return q.TimeLimitSeconds
	}
	return DefaultTimeLimitSeconds
}

// BasePoints returns the question's base score, defaulted.
func (q Question) BasePoints() int {
	if q.Points > 0 {
		return q.Points
	}
	return DefaultPoints
}

// Question returns the question with the given id, if present.
func (z Quiz) Question(id string) (Question, bool) {
	for i := range z.Questions {
		if z.Questions[i].ID == id {
			return z.Questions[i], true
		}
	}
	return Question{}, false
}

// QuestionView is the player-safe projection of a question: display text and
// option ids only, never correctness flags or the canonical order.
type QuestionView struct {
	ID               string       `json:"id"`
	Type             QuestionType `json:"type"`
	Prompt           string       `json:"prompt"`
	Options          []OptionView `json:"options"`
	TimeLimitSeconds int          `json:"timeLimitSeconds"`
	Points           int          `json:"points"`
}

type OptionView struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// PlayerView strips everything a player must not see before round close.
func (q Question) PlayerView() QuestionView {
	opts := make([]OptionView, 0, len(q.Options))
	for _, o := range q.Options {
		opts = append(opts, OptionView{ID: o.ID, Text: o.Text})
	}
	return QuestionView{
		ID:               q.ID,
		Type:             q.Type,
		Prompt:           q.Prompt,
		Options:          opts,
		TimeLimitSeconds: q.TimeLimit(),
		Points:           q.BasePoints(),
	}
}
