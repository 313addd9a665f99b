package generation

import (
	"context"
	"fmt"
	"time"

	"github.com/kdduha/snap2html/backend/internal/dataurl"
	"github.com/kdduha/snap2html/backend/internal/llm"
	"github.com/kdduha/snap2html/backend/internal/metrics"
	"go.uber.org/zap"
)

// Adapter performs exactly one remote call per Generate and reports the
// outcome as an AttemptResult. It keeps no state between calls.
type Adapter struct {
	logger   *zap.Logger
	model    llm.Model
	settings llm.Settings
	prompts  Prompts
}

func NewAdapter(logger *zap.Logger, model llm.Model, settings llm.Settings, prompts Prompts) *Adapter {
	return &Adapter{
		logger:   logger,
		model:    model,
		settings: settings,
		prompts:  prompts,
	}
}

func (a *Adapter) Generate(ctx context.Context, req Request) AttemptResult {
	log := a.logger.With(
		zap.Int("attempt", req.Attempt),
		zap.Int("prior_content_bytes", len(req.PriorContent)),
	)

	if err := validateRequest(req); err != nil {
		log.Warn("generation request rejected", zap.Error(err))
		return AttemptResult{
			Error:      err.Error(),
			ErrorKind:  ErrorKindValidation,
			IsComplete: true,
		}
	}

	chunk, kind := a.call(ctx, req)
	processed := ProcessChunk(chunk.RawText)
	complete := Classify(chunk.Signal, processed.SentinelFound, req.IsContinuation(), processed.Text)

	log.Debug("chunk received",
		zap.Stringer("signal", chunk.Signal),
		zap.String("finish_reason", chunk.Reason),
		zap.Bool("sentinel", processed.SentinelFound),
		zap.Bool("complete", complete),
		zap.Int("chunk_bytes", len(processed.Text)),
	)

	result := AttemptResult{
		GeneratedCode: processed.Text,
		IsComplete:    complete,
		FinishReason:  chunk.Reason,
		FinishMessage: chunk.Message,
	}

	if kind == ErrorKindNone && chunk.Signal == SignalSafetyBlock {
		kind = ErrorKindContentPolicy
	}

	firstEmpty := req.Attempt == 1 && processed.Text == ""
	switch {
	case kind == ErrorKindNone && firstEmpty:
		kind = ErrorKindEmpty
		result.Error = UserMessage(ErrorKindEmpty, chunk)
	case kind == ErrorKindTransport && firstEmpty:
		result.Error = UserMessage(ErrorKindEmpty, chunk)
	case kind != ErrorKindNone:
		result.Error = UserMessage(kind, chunk)
	}

	if result.Failed() {
		result.ErrorKind = kind
		result.IsComplete = true
		log.Warn("generation attempt failed",
			zap.String("kind", string(kind)),
			zap.String("reason", chunk.Reason),
			zap.String("message", chunk.Message),
		)
	}
	return result
}

func (a *Adapter) call(ctx context.Context, req Request) (ChunkResult, ErrorKind) {
	provider := a.model.Provider()
	start := time.Now()

	resp, err := a.model.Generate(ctx, &llm.Request{
		System:   a.prompts.System,
		Parts:    a.prompts.buildParts(req),
		Settings: a.settings,
	})
	if err == nil && resp == nil {
		err = llm.ErrEmptyResponse
	}
	if err != nil {
		chunk, kind := NormalizeError(err)
		metrics.ModelRequest(provider, string(kind), time.Since(start))
		return chunk, kind
	}

	signal := SignalFromFinishReason(resp.FinishReason)
	metrics.ModelRequest(provider, "ok", time.Since(start))

	return ChunkResult{
		RawText: resp.Text,
		Signal:  signal,
		Reason:  resp.RawFinishReason,
		Message: resp.FinishMessage,
	}, ErrorKindNone
}

func validateRequest(req Request) error {
	if _, err := dataurl.ValidateImage(req.SourceImage); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidImage, err)
	}

	switch {
	case req.Attempt < 1:
		return fmt.Errorf("%w: attempt index %d", ErrInvalidAttempt, req.Attempt)
	case req.Attempt == 1 && req.IsContinuation():
		return fmt.Errorf("%w: first attempt must not carry prior content", ErrInvalidAttempt)
	case req.Attempt > 1 && !req.IsContinuation():
		return fmt.Errorf("%w: attempt %d has no prior content", ErrInvalidAttempt, req.Attempt)
	}
	return nil
}
