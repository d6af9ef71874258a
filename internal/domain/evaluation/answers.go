package evaluation

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/samber/lo"

	"github.com/eventdesk/eventdesk-api/internal/domain/model"
)

// AnswerError describes the first invalid answer in a submission.
type AnswerError struct {
	QuestionID string
	Message    string
}

func (e *AnswerError) Error() string {
	return fmt.Sprintf("answer %q: %s", e.QuestionID, e.Message)
}

// ValidateAnswers checks answers against the evaluation's question definitions
// and returns the normalised answer document to persist.
func ValidateAnswers(questions []model.Question, answers map[string]json.RawMessage) (json.RawMessage, error) {
	known := lo.KeyBy(questions, func(q model.Question) string { return q.ID })
	for id := range answers {
		if _, ok := known[id]; !ok {
			return nil, &AnswerError{QuestionID: id, Message: "unknown question"}
		}
	}

	normalised := make(map[string]any, len(answers))
	for _, q := range questions {
		raw, ok := answers[q.ID]
		if !ok || isNull(raw) {
			if q.Required {
				return nil, &AnswerError{QuestionID: q.ID, Message: "answer is required"}
			}
			continue
		}
		v, err := decodeAnswer(q, raw)
		if err != nil {
			return nil, err
		}
		normalised[q.ID] = v
	}

	out, err := json.Marshal(normalised)
	if err != nil {
		return nil, fmt.Errorf("encode answers: %w", err)
	}
	return out, nil
}

func isNull(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	return s == "" || s == "null"
}

func decodeAnswer(q model.Question, raw json.RawMessage) (any, error) {
	switch q.Type {
	case model.QuestionTypeRating:
		var n int
		if err := json.Unmarshal(raw, &n); err != nil {
			return nil, &AnswerError{QuestionID: q.ID, Message: "rating must be an integer"}
		}
		if n < model.MinRating || n > model.MaxRating {
			return nil, &AnswerError{
				QuestionID: q.ID,
				Message:    fmt.Sprintf("rating must be between %d and %d", model.MinRating, model.MaxRating),
			}
		}
		return n, nil
	case model.QuestionTypeChoice:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, &AnswerError{QuestionID: q.ID, Message: "choice must be a string"}
		}
		if !lo.Contains(q.Options, s) {
			return nil, &AnswerError{QuestionID: q.ID, Message: fmt.Sprintf("%q is not an allowed option", s)}
		}
		return s, nil
	default:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, &AnswerError{QuestionID: q.ID, Message: "text answer must be a string"}
		}
		s = strings.TrimSpace(s)
		if s == "" && q.Required {
			return nil, &AnswerError{QuestionID: q.ID, Message: "answer is required"}
		}
		if utf8.RuneCountInString(s) > model.MaxTextAnswerLength {
			return nil, &AnswerError{QuestionID: q.ID, Message: "answer is too long"}
		}
		return s, nil
	}
}
