package llm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestGeminiFinishReason(t *testing.T) {
	tests := map[string]FinishReason{
		"":                          FinishUnspecified,
		"FINISH_REASON_UNSPECIFIED": FinishUnspecified,
		"STOP":                      FinishStop,
		"MAX_TOKENS":                FinishMaxTokens,
		"SAFETY":                    FinishSafety,
		"IMAGE_SAFETY":              FinishSafety,
		"RECITATION":                FinishRecitation,
		"PROHIBITED_CONTENT":        FinishBlocked,
		"MALFORMED_FUNCTION_CALL":   FinishOther,
	}
	for raw, want := range tests {
		t.Run(raw, func(t *testing.T) {
			assert.Equal(t, want, geminiFinishReason(genai.FinishReason(raw)))
		})
	}
}

func TestParseGeminiResponse(t *testing.T) {
	t.Run("nil response", func(t *testing.T) {
		_, err := parseGeminiResponse(nil)
		assert.ErrorIs(t, err, ErrEmptyResponse)
	})

	t.Run("prompt blocked", func(t *testing.T) {
		_, err := parseGeminiResponse(&genai.GenerateContentResponse{
			PromptFeedback: &genai.GenerateContentResponsePromptFeedback{
				BlockReason:        genai.BlockedReason("SAFETY"),
				BlockReasonMessage: "image flagged",
			},
		})
		var blocked *BlockedError
		require.ErrorAs(t, err, &blocked)
		assert.Equal(t, FinishBlocked, blocked.Reason)
		assert.Equal(t, "SAFETY", blocked.Raw)
		assert.Equal(t, "image flagged", blocked.Message)
	})

	t.Run("no candidates", func(t *testing.T) {
		_, err := parseGeminiResponse(&genai.GenerateContentResponse{})
		assert.ErrorIs(t, err, ErrEmptyResponse)
	})

	t.Run("text and image parts", func(t *testing.T) {
		resp, err := parseGeminiResponse(&genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				FinishReason:  genai.FinishReason("MAX_TOKENS"),
				FinishMessage: "cut",
				Content: &genai.Content{Parts: []*genai.Part{
					{Text: "thinking...", Thought: true},
					{Text: "<html>"},
					{InlineData: &genai.Blob{MIMEType: "image/png", Data: []byte{1, 2}}},
					{Text: "<body>"},
				}},
			}},
		})
		require.NoError(t, err)
		assert.Equal(t, "<html><body>", resp.Text)
		assert.Equal(t, FinishMaxTokens, resp.FinishReason)
		assert.Equal(t, "MAX_TOKENS", resp.RawFinishReason)
		assert.Equal(t, "cut", resp.FinishMessage)
		require.Len(t, resp.Images, 1)
		assert.Equal(t, "image/png", resp.Images[0].MIMEType)
	})

	t.Run("candidate without content", func(t *testing.T) {
		resp, err := parseGeminiResponse(&genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{FinishReason: genai.FinishReason("SAFETY")}},
		})
		require.NoError(t, err)
		assert.Empty(t, resp.Text)
		assert.Equal(t, FinishSafety, resp.FinishReason)
	})
}

func TestBuildGeminiConfig(t *testing.T) {
	cfg := buildGeminiConfig(&Request{
		System: "system",
		Settings: Settings{
			Model:           "gemini-2.5-flash",
			MaxOutputTokens: 8192,
			Temperature:     0.4,
			Safety:          SafetyPolicy{Threshold: SafetyBlockHigh},
		},
		WantImage: true,
	})

	require.NotNil(t, cfg.Temperature)
	assert.InDelta(t, 0.4, *cfg.Temperature, 1e-6)
	assert.Equal(t, int32(8192), cfg.MaxOutputTokens)
	require.NotNil(t, cfg.SystemInstruction)
	assert.Len(t, cfg.SafetySettings, len(AllHarmCategories))
	assert.Equal(t, genai.HarmBlockThreshold("BLOCK_ONLY_HIGH"), cfg.SafetySettings[0].Threshold)
	assert.Equal(t, []string{"TEXT", "IMAGE"}, cfg.ResponseModalities)

	plain := buildGeminiConfig(&Request{})
	assert.Nil(t, plain.SystemInstruction)
	assert.Empty(t, plain.SafetySettings)
	assert.Empty(t, plain.ResponseModalities)
}

func TestBuildGeminiContents(t *testing.T) {
	contents, err := buildGeminiContents([]Part{
		TextPart("describe"),
		ImagePart("data:image/png;base64,AAAA"),
	})
	require.NoError(t, err)
	require.Len(t, contents, 1)
	require.Len(t, contents[0].Parts, 2)
	assert.Equal(t, "describe", contents[0].Parts[0].Text)
	require.NotNil(t, contents[0].Parts[1].InlineData)
	assert.Equal(t, "image/png", contents[0].Parts[1].InlineData.MIMEType)
	assert.Equal(t, []byte{0, 0, 0}, contents[0].Parts[1].InlineData.Data)

	_, err = buildGeminiContents([]Part{ImagePart("not-a-data-url")})
	assert.Error(t, err)
}

func TestWrapGeminiError(t *testing.T) {
	err := wrapGeminiError(genai.APIError{Code: 429, Status: "RESOURCE_EXHAUSTED", Message: "slow down"})
	assert.ErrorIs(t, err, ErrQuotaExceeded)

	err = wrapGeminiError(genai.APIError{Code: 500, Status: "INTERNAL", Message: "boom"})
	assert.NotErrorIs(t, err, ErrQuotaExceeded)
	assert.Contains(t, err.Error(), "500")

	base := errors.New("dial tcp: timeout")
	err = wrapGeminiError(base)
	assert.ErrorIs(t, err, base)
}
