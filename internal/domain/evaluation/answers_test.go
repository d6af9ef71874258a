package evaluation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventdesk/eventdesk-api/internal/domain/model"
)

var testQuestions = []model.Question{
	{ID: "overall", Type: model.QuestionTypeRating, Prompt: "Overall", Required: true},
	{ID: "track", Type: model.QuestionTypeChoice, Prompt: "Track", Options: []string{"web", "data"}},
	{ID: "comments", Type: model.QuestionTypeText, Prompt: "Comments"},
}

func raw(s string) json.RawMessage { return json.RawMessage(s) }

func TestValidateAnswers(t *testing.T) {
	tests := []struct {
		name    string
		answers map[string]json.RawMessage
		wantErr string
		wantDoc map[string]any
	}{
		{
			name:    "valid full submission",
			answers: map[string]json.RawMessage{"overall": raw("4"), "track": raw(`"data"`), "comments": raw(`"  great  "`)},
			wantDoc: map[string]any{"overall": float64(4), "track": "data", "comments": "great"},
		},
		{
			name:    "optional answers omitted",
			answers: map[string]json.RawMessage{"overall": raw("5"), "track": raw("null")},
			wantDoc: map[string]any{"overall": float64(5)},
		},
		{
			name:    "required missing",
			answers: map[string]json.RawMessage{"comments": raw(`"hi"`)},
			wantErr: `answer "overall": answer is required`,
		},
		{
			name:    "rating out of range",
			answers: map[string]json.RawMessage{"overall": raw("6")},
			wantErr: "rating must be between 1 and 5",
		},
		{
			name:    "rating wrong type",
			answers: map[string]json.RawMessage{"overall": raw(`"five"`)},
			wantErr: "rating must be an integer",
		},
		{
			name:    "choice not allowed",
			answers: map[string]json.RawMessage{"overall": raw("3"), "track": raw(`"mobile"`)},
			wantErr: "is not an allowed option",
		},
		{
			name:    "unknown question",
			answers: map[string]json.RawMessage{"overall": raw("3"), "bogus": raw(`"x"`)},
			wantErr: `answer "bogus": unknown question`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := ValidateAnswers(testQuestions, tt.answers)
			if tt.wantErr != "" {
				require.Error(t, err)
				var ae *AnswerError
				require.ErrorAs(t, err, &ae)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			var got map[string]any
			require.NoError(t, json.Unmarshal(doc, &got))
			assert.Equal(t, tt.wantDoc, got)
		})
	}
}
