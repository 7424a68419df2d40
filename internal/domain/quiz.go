package domain

import "math"

// PassThreshold is the minimum percentage needed to pass a quiz.
const PassThreshold = 70

// Question is one entry of a fixed question bank.
type Question struct {
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
	Correct int      `json:"-"`
}

// QuestionBank is a named, fixed list of questions.
type QuestionBank struct {
	Name      string     `json:"name"`
	Questions []Question `json:"questions"`
}

// QuizResult is the scored outcome of a finished session.
type QuizResult struct {
	Correct    int  `json:"correct"`
	Total      int  `json:"total"`
	Percentage int  `json:"percentage"`
	Passed     bool `json:"passed"`
}

// Score computes percentage = round(100*correct/total) and the pass flag.
func Score(correct, total int) QuizResult {
	if total <= 0 {
		return QuizResult{}
	}
	pct := int(math.Round(100 * float64(correct) / float64(total)))
	return QuizResult{
		Correct:    correct,
		Total:      total,
		Percentage: pct,
		Passed:     pct >= PassThreshold,
	}
}

// QuizSession presents one question at a time and records chosen options.
type QuizSession struct {
	bank    QuestionBank
	current int
	answers []int
}

// NewQuizSession starts a session at question 0.
func NewQuizSession(bank QuestionBank) *QuizSession {
	return &QuizSession{bank: bank}
}

// Current returns the index of the question awaiting an answer.
func (s *QuizSession) Current() int { return s.current }

// Answers returns the options chosen so far.
func (s *QuizSession) Answers() []int {
	out := make([]int, len(s.answers))
	copy(out, s.answers)
	return out
}

// Finished reports whether every question has been answered.
func (s *QuizSession) Finished() bool {
	return s.current >= len(s.bank.Questions)
}

// Answer records the option chosen for the current question and advances.
func (s *QuizSession) Answer(option int) error {
	if s.Finished() {
		return &ErrConflict{Message: "quiz already finished"}
	}
	q := s.bank.Questions[s.current]
	if option < 0 || option >= len(q.Options) {
		return &ErrValidation{Field: "answers", Message: "option out of range"}
	}
	s.answers = append(s.answers, option)
	s.current++
	return nil
}

// Result scores the recorded answers. Unanswered questions count as wrong.
func (s *QuizSession) Result() QuizResult {
	correct := 0
	for i, a := range s.answers {
		if s.bank.Questions[i].Correct == a {
			correct++
		}
	}
	return Score(correct, len(s.bank.Questions))
}

// Restart goes back to question 0 and clears every answer.
func (s *QuizSession) Restart() {
	s.current = 0
	s.answers = nil
}

// Grade replays a full answer list through a session.
func Grade(bank QuestionBank, answers []int) (QuizResult, error) {
	if len(answers) != len(bank.Questions) {
		return QuizResult{}, &ErrValidation{Field: "answers", Message: "one answer per question is required"}
	}
	s := NewQuizSession(bank)
	for _, a := range answers {
		if err := s.Answer(a); err != nil {
			return QuizResult{}, err
		}
	}
	return s.Result(), nil
}
