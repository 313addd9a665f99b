package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kdduha/snap2html/backend/internal/llm"
)

type ErrorKind string

const (
	ErrorKindNone          ErrorKind = ""
	ErrorKindValidation    ErrorKind = "validation"
	ErrorKindTransport     ErrorKind = "transport"
	ErrorKindContentPolicy ErrorKind = "content_policy"
	ErrorKindQuota         ErrorKind = "quota"
	ErrorKindEmpty         ErrorKind = "empty"
	ErrorKindCanceled      ErrorKind = "canceled"
	ErrorKindInternal      ErrorKind = "internal"
)

var (
	ErrInvalidImage   = errors.New("invalid source image")
	ErrInvalidAttempt = errors.New("invalid attempt")
	ErrNoCode         = errors.New("no code generated")
)

// Error is a classified generation failure.
type Error struct {
	Kind    ErrorKind
	Reason  string
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// extractRule maps a transport error onto a chunk result. Rules are tried in
// order and the first match wins.
type extractRule func(err error) (ChunkResult, ErrorKind, bool)

var extractRules = []extractRule{
	extractBlocked,
	extractQuota,
	extractCanceled,
	extractEmpty,
}

// NormalizeError turns any error returned by a model transport into a
// ChunkResult and the kind of failure it represents.
func NormalizeError(err error) (ChunkResult, ErrorKind) {
	for _, rule := range extractRules {
		if chunk, kind, ok := rule(err); ok {
			return chunk, kind
		}
	}
	return ChunkResult{
		Signal:  SignalNoResponse,
		Reason:  SignalNoResponse.String(),
		Message: err.Error(),
	}, ErrorKindTransport
}

func extractBlocked(err error) (ChunkResult, ErrorKind, bool) {
	var blocked *llm.BlockedError
	if !errors.As(err, &blocked) {
		return ChunkResult{}, "", false
	}
	return ChunkResult{
		Signal:  SignalSafetyBlock,
		Reason:  blocked.Raw,
		Message: blocked.Message,
	}, ErrorKindContentPolicy, true
}

var quotaMarkers = []string{"quota", "rate limit", "rate_limit", "resource_exhausted", "too many requests", "status 429"}

func extractQuota(err error) (ChunkResult, ErrorKind, bool) {
	quota := errors.Is(err, llm.ErrQuotaExceeded)
	if !quota {
		msg := strings.ToLower(err.Error())
		for _, m := range quotaMarkers {
			if strings.Contains(msg, m) {
				quota = true
				break
			}
		}
	}
	if !quota {
		return ChunkResult{}, "", false
	}
	return ChunkResult{
		Signal:  SignalNoResponse,
		Reason:  "QUOTA_EXCEEDED",
		Message: err.Error(),
	}, ErrorKindQuota, true
}

func extractCanceled(err error) (ChunkResult, ErrorKind, bool) {
	if !errors.Is(err, context.Canceled) {
		return ChunkResult{}, "", false
	}
	return ChunkResult{
		Signal:  SignalNoResponse,
		Reason:  "CANCELED",
		Message: err.Error(),
	}, ErrorKindCanceled, true
}

func extractEmpty(err error) (ChunkResult, ErrorKind, bool) {
	if !errors.Is(err, llm.ErrEmptyResponse) {
		return ChunkResult{}, "", false
	}
	return ChunkResult{
		Signal:  SignalNoResponse,
		Reason:  SignalNoResponse.String(),
		Message: "the model returned no candidates",
	}, ErrorKindTransport, true
}

// UserMessage renders a failure the way it is shown to the person who
// uploaded the image.
func UserMessage(kind ErrorKind, chunk ChunkResult) string {
	switch kind {
	case ErrorKindQuota:
		return "The AI service usage limit has been reached. Please wait a little and try again."
	case ErrorKindContentPolicy:
		return "The AI declined to process this image due to content restrictions" +
			reasonSuffix(chunk) + ". Please try a different image."
	case ErrorKindCanceled:
		return "Generation was canceled."
	case ErrorKindEmpty:
		if chunk.Reason == "" && chunk.Message == "" {
			return "AI did not generate initial content. Please try again or use a different image."
		}
		return "AI did not generate initial content. Reason: " + diagnostic(chunk)
	default:
		if chunk.Message == "" {
			return "Failed to get a response from the AI."
		}
		return fmt.Sprintf("Failed to get a response from the AI: %s", chunk.Message)
	}
}

func reasonSuffix(chunk ChunkResult) string {
	if chunk.Reason == "" {
		return ""
	}
	return " (Reason: " + diagnostic(chunk) + ")"
}

func diagnostic(chunk ChunkResult) string {
	switch {
	case chunk.Reason != "" && chunk.Message != "":
		return chunk.Reason + " - " + chunk.Message
	case chunk.Reason != "":
		return chunk.Reason
	default:
		return chunk.Message
	}
}
