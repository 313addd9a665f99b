package generation_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kdduha/snap2html/backend/internal/generation"
	"github.com/kdduha/snap2html/backend/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testSettings = llm.Settings{
	Model:           "test-model",
	MaxOutputTokens: 1024,
	Temperature:     0.3,
}

func newTestAdapter(m llm.Model) *generation.Adapter {
	return generation.NewAdapter(zap.NewNop(), m, testSettings, generation.DefaultPrompts())
}

func TestAdapterValidationShortCircuit(t *testing.T) {
	tests := []struct {
		name string
		req  generation.Request
		want error
	}{
		{
			name: "missing data prefix",
			req:  generation.Request{SourceImage: "image/png;base64,AAAA", Attempt: 1},
			want: generation.ErrInvalidImage,
		},
		{
			name: "empty image",
			req:  generation.Request{Attempt: 1},
			want: generation.ErrInvalidImage,
		},
		{
			name: "non image media type",
			req:  generation.Request{SourceImage: "data:text/html;base64,PGh0bWw+", Attempt: 1},
			want: generation.ErrInvalidImage,
		},
		{
			name: "zero attempt",
			req:  generation.Request{SourceImage: testImage, Attempt: 0},
			want: generation.ErrInvalidAttempt,
		},
		{
			name: "first attempt with prior content",
			req:  generation.Request{SourceImage: testImage, Attempt: 1, PriorContent: "<html>"},
			want: generation.ErrInvalidAttempt,
		},
		{
			name: "continuation without prior content",
			req:  generation.Request{SourceImage: testImage, Attempt: 2},
			want: generation.ErrInvalidAttempt,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := new(mockModel)
			res := newTestAdapter(m).Generate(context.Background(), tt.req)

			assert.True(t, res.Failed())
			assert.Equal(t, generation.ErrorKindValidation, res.ErrorKind)
			assert.Contains(t, res.Error, tt.want.Error())
			assert.True(t, res.IsComplete)
			m.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
		})
	}
}

func TestAdapterInitialAttempt(t *testing.T) {
	m := new(mockModel)
	var captured *llm.Request
	m.On("Generate", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { captured = args.Get(1).(*llm.Request) }).
		Return(textResponse("```html\n<html><body>\n```", llm.FinishStop), nil).
		Once()

	res := newTestAdapter(m).Generate(context.Background(), generation.Request{SourceImage: testImage, Attempt: 1})

	assert.False(t, res.Failed())
	assert.Equal(t, "<html><body>", res.GeneratedCode)
	assert.True(t, res.IsComplete)
	assert.Equal(t, "STOP", res.FinishReason)

	require.NotNil(t, captured)
	assert.Equal(t, testSettings, captured.Settings)
	assert.Equal(t, generation.DefaultPrompts().System, captured.System)
	require.Len(t, captured.Parts, 2)
	assert.Equal(t, generation.DefaultPrompts().Initial, captured.Parts[0].Text)
	assert.Equal(t, testImage, captured.Parts[1].Image)
	assert.Contains(t, captured.Parts[0].Text, generation.ContinuationMarker)
	m.AssertExpectations(t)
}

func TestAdapterContinuationCarriesPriorContent(t *testing.T) {
	m := new(mockModel)
	var captured *llm.Request
	m.On("Generate", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { captured = args.Get(1).(*llm.Request) }).
		Return(textResponse("</html>", llm.FinishStop), nil).
		Once()

	res := newTestAdapter(m).Generate(context.Background(), generation.Request{
		SourceImage:  testImage,
		PriorContent: "<html>",
		Attempt:      2,
	})

	assert.Equal(t, "</html>", res.GeneratedCode)
	require.NotNil(t, captured)
	require.Len(t, captured.Parts, 3)
	assert.Equal(t, generation.DefaultPrompts().Continuation, captured.Parts[0].Text)
	assert.Equal(t, testImage, captured.Parts[1].Image)
	assert.True(t, strings.HasSuffix(captured.Parts[2].Text, "<html>"))
}

func TestAdapterOutcomes(t *testing.T) {
	tests := []struct {
		name         string
		req          generation.Request
		resp         *llm.Response
		err          error
		wantText     string
		wantComplete bool
		wantKind     generation.ErrorKind
		wantError    string
	}{
		{
			name:         "sentinel keeps generation going",
			req:          generation.Request{SourceImage: testImage, Attempt: 1},
			resp:         textResponse("<html>"+generation.ContinuationMarker, llm.FinishStop),
			wantText:     "<html>",
			wantComplete: false,
		},
		{
			name:         "length limit keeps generation going",
			req:          generation.Request{SourceImage: testImage, Attempt: 1},
			resp:         textResponse("<html><bo", llm.FinishMaxTokens),
			wantText:     "<html><bo",
			wantComplete: false,
		},
		{
			name:         "empty first attempt fails with diagnostics",
			req:          generation.Request{SourceImage: testImage, Attempt: 1},
			resp:         &llm.Response{FinishReason: llm.FinishOther, RawFinishReason: "OTHER", FinishMessage: "no output"},
			wantComplete: true,
			wantKind:     generation.ErrorKindEmpty,
			wantError:    "AI did not generate initial content. Reason: OTHER - no output",
		},
		{
			name:         "marker only on first attempt fails",
			req:          generation.Request{SourceImage: testImage, Attempt: 1},
			resp:         textResponse(generation.ContinuationMarker, llm.FinishStop),
			wantComplete: true,
			wantKind:     generation.ErrorKindEmpty,
			wantError:    "AI did not generate initial content",
		},
		{
			name:         "stalled continuation is forced complete",
			req:          generation.Request{SourceImage: testImage, Attempt: 2, PriorContent: "<html>"},
			resp:         textResponse("", llm.FinishMaxTokens),
			wantComplete: true,
		},
		{
			name:         "transport error on first attempt",
			req:          generation.Request{SourceImage: testImage, Attempt: 1},
			err:          errors.New("connection reset"),
			wantComplete: true,
			wantKind:     generation.ErrorKindTransport,
			wantError:    "AI did not generate initial content. Reason: NO_RESPONSE - connection reset",
		},
		{
			name:         "transport error on continuation",
			req:          generation.Request{SourceImage: testImage, Attempt: 3, PriorContent: "<html>"},
			err:          errors.New("connection reset"),
			wantComplete: true,
			wantKind:     generation.ErrorKindTransport,
			wantError:    "Failed to get a response from the AI: connection reset",
		},
		{
			name:         "nil response",
			req:          generation.Request{SourceImage: testImage, Attempt: 2, PriorContent: "<html>"},
			wantComplete: true,
			wantKind:     generation.ErrorKindTransport,
			wantError:    "Failed to get a response from the AI",
		},
		{
			name:         "quota",
			req:          generation.Request{SourceImage: testImage, Attempt: 1},
			err:          llm.ErrQuotaExceeded,
			wantComplete: true,
			wantKind:     generation.ErrorKindQuota,
			wantError:    "usage limit",
		},
		{
			name:         "blocked prompt",
			req:          generation.Request{SourceImage: testImage, Attempt: 1},
			err:          &llm.BlockedError{Reason: llm.FinishBlocked, Raw: "PROHIBITED_CONTENT"},
			wantComplete: true,
			wantKind:     generation.ErrorKindContentPolicy,
			wantError:    "different image",
		},
		{
			name:         "safety stop keeps partial text",
			req:          generation.Request{SourceImage: testImage, Attempt: 2, PriorContent: "<html>"},
			resp:         textResponse("<body>", llm.FinishSafety),
			wantText:     "<body>",
			wantComplete: true,
			wantKind:     generation.ErrorKindContentPolicy,
			wantError:    "content restrictions (Reason: SAFETY)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := new(mockModel)
			m.On("Generate", mock.Anything, mock.Anything).Return(tt.resp, tt.err).Once()

			res := newTestAdapter(m).Generate(context.Background(), tt.req)

			assert.Equal(t, tt.wantText, res.GeneratedCode)
			assert.Equal(t, tt.wantComplete, res.IsComplete)
			assert.Equal(t, tt.wantKind, res.ErrorKind)
			if tt.wantError == "" {
				assert.Empty(t, res.Error)
			} else {
				assert.Contains(t, res.Error, tt.wantError)
			}
			m.AssertNumberOfCalls(t, "Generate", 1)
		})
	}
}
