package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inscope-ai/ragcore/ragerr"
)

type scorePayload struct {
	Score    float64 `json:"score"`
	Feedback string  `json:"feedback"`
}

func TestExtractJSONPlain(t *testing.T) {
	var got scorePayload
	require.NoError(t, ExtractJSON(`{"score": 0.8, "feedback": "충분함"}`, &got))
	assert.Equal(t, 0.8, got.Score)
}

func TestExtractJSONFenced(t *testing.T) {
	text := "평가 결과입니다.\n```json\n{\"score\": 0.6, \"feedback\": \"보강 필요\"}\n```\n이상입니다."
	var got scorePayload
	require.NoError(t, ExtractJSON(text, &got))
	assert.Equal(t, 0.6, got.Score)
	assert.Equal(t, "보강 필요", got.Feedback)
}

func TestExtractJSONSurroundingProse(t *testing.T) {
	var got scorePayload
	require.NoError(t, ExtractJSON(`점수는 다음과 같습니다 {"score": 1} 감사합니다`, &got))
	assert.Equal(t, 1.0, got.Score)
}

func TestExtractJSONFailureKinds(t *testing.T) {
	var got scorePayload
	for _, text := range []string{"", "   ", "JSON 없음", `{"score": `} {
		err := ExtractJSON(text, &got)
		require.Error(t, err, text)
		assert.True(t, ragerr.Is(err, ragerr.KindStructuredOutput), text)
	}
}
