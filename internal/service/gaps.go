package service

import (
	"github.com/liliang-cn/docflow/internal/domain"
	"github.com/liliang-cn/docflow/internal/schema"
)

// MaxQuestionsPerTurn caps the follow-up prompts sent in one reply
const MaxQuestionsPerTurn = 3

// MissingFields returns the critical fields whose value is absent or empty,
// in the order of critical
func MissingFields(rec domain.Record, critical []string) []string {
	missing := []string{}
	for _, f := range critical {
		if rec[f] == "" {
			missing = append(missing, f)
		}
	}
	return missing
}

// FollowUpQuestions turns missing field names into at most MaxQuestionsPerTurn prompts
func FollowUpQuestions(reg *schema.Registry, t domain.DocumentType, missing []string) []string {
	n := len(missing)
	if n > MaxQuestionsPerTurn {
		n = MaxQuestionsPerTurn
	}
	questions := make([]string, 0, n)
	for _, f := range missing[:n] {
		questions = append(questions, reg.Question(t, f))
	}
	return questions
}
