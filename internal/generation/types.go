// Package generation turns a source image into an HTML document by driving a
// remote model over as many chunks as the document needs.
//
// One run issues sequential remote calls. Every call after the first is seeded
// with all text produced so far; the model marks a cut-short answer with
// ContinuationMarker. Chunks are cleaned, classified and appended in call order
// until the document is believed complete, an error ends the run, or the
// attempt budget is spent.
package generation

import "context"

// ContinuationMarker is the literal the model is told to emit when its answer
// is cut short. The prompts and the parser must use the same value.
const ContinuationMarker = "<!-- MORE_CONTENT_TO_FOLLOW -->"

const (
	DefaultMaxAttempts = 5
	MinMaxAttempts     = 1
	MaxMaxAttempts     = 10
)

type Signal int

const (
	SignalNormal Signal = iota
	SignalLengthLimit
	SignalSafetyBlock
	SignalOtherAbnormal
	SignalNoResponse
)

func (s Signal) String() string {
	switch s {
	case SignalNormal:
		return "NORMAL"
	case SignalLengthLimit:
		return "LENGTH_LIMIT"
	case SignalSafetyBlock:
		return "SAFETY_BLOCK"
	case SignalOtherAbnormal:
		return "OTHER_ABNORMAL"
	case SignalNoResponse:
		return "NO_RESPONSE"
	default:
		return "UNKNOWN"
	}
}

// Request describes one attempt. Attempt starts at 1 and PriorContent is empty
// exactly on the first attempt.
type Request struct {
	SourceImage  string
	PriorContent string
	Attempt      int
}

func (r Request) IsContinuation() bool {
	return r.PriorContent != ""
}

// ChunkResult is the outcome of a single remote call before any cleanup.
type ChunkResult struct {
	RawText string
	Signal  Signal
	Reason  string
	Message string
}

type ProcessedChunk struct {
	Text          string
	SentinelFound bool
	Complete      bool
}

// AttemptResult is what the adapter hands back for every attempt. It never
// carries a Go error; failures are described by Error and ErrorKind.
type AttemptResult struct {
	GeneratedCode string    `json:"generated_code,omitempty"`
	Error         string    `json:"error,omitempty"`
	ErrorKind     ErrorKind `json:"error_kind,omitempty"`
	IsComplete    bool      `json:"is_complete"`
	FinishReason  string    `json:"finish_reason,omitempty"`
	FinishMessage string    `json:"finish_message,omitempty"`
}

func (r AttemptResult) Failed() bool {
	return r.Error != ""
}

type State int

const (
	StateInProgress State = iota
	StateSucceeded
	StateSucceededTruncated
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInProgress:
		return "in_progress"
	case StateSucceeded:
		return "succeeded"
	case StateSucceededTruncated:
		return "succeeded_truncated"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Document accumulates the cleaned chunks of one run.
type Document struct {
	Text         string
	AttemptsUsed int
	State        State
	Error        string
	ErrorKind    ErrorKind
}

func (d *Document) Truncated() bool {
	return d.State == StateSucceededTruncated
}

// Generator performs a single attempt.
type Generator interface {
	Generate(ctx context.Context, req Request) AttemptResult
}

type Progress struct {
	Attempt int
	Result  AttemptResult
	Text    string
}

type ProgressFunc func(Progress)
