package progression

import (
	"math"

	"github.com/fotokruzhok/star-cabinet-bot/types"
)

// Quizzes with at most this many questions use the short-survey reward
// rule: any correct answer earns one star.
const shortQuizMaxQuestions = 3

type QuizResult struct {
	CorrectCount   int     `json:"correct_count"`
	TotalQuestions int     `json:"total_questions"`
	StarsEarned    float64 `json:"stars_earned"`
	Passed         bool    `json:"passed"`
}

// ScoreQuiz compares submitted answers against the quiz positionally.
// Missing answers count as incorrect, extra answers are ignored. Reward:
// short quizzes pay 1 star for any correct answer; longer ones pay 2 stars
// at 60% correct (rounded up), 1 star for at least one correct, 0 otherwise.
func ScoreQuiz(quiz types.Quiz, answers []int) QuizResult {
	total := len(quiz.Questions)
	correct := 0
	for i, q := range quiz.Questions {
		if i < len(answers) && answers[i] == q.CorrectIndex {
			correct++
		}
	}

	var earned float64
	switch {
	case total == 0:
		earned = 0
	case total <= shortQuizMaxQuestions:
		if correct >= 1 {
			earned = 1
		}
	default:
		passMark := int(math.Ceil(float64(total) * 0.6))
		switch {
		case correct >= passMark:
			earned = 2
		case correct >= 1:
			earned = 1
		}
	}

	return QuizResult{
		CorrectCount:   correct,
		TotalQuestions: total,
		StarsEarned:    earned,
		Passed:         earned > 0,
	}
}

// QuizRewardDescription is the ledger description for a quiz award.
func QuizRewardDescription(title string) string {
	return "Квиз: " + title
}
