package generation

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Orchestrator drives a Generator until the document is complete, an attempt
// fails, or maxAttempts calls were made.
type Orchestrator struct {
	logger      *zap.Logger
	generator   Generator
	maxAttempts int
}

func NewOrchestrator(logger *zap.Logger, generator Generator, maxAttempts int) *Orchestrator {
	if maxAttempts < MinMaxAttempts {
		maxAttempts = DefaultMaxAttempts
	}
	return &Orchestrator{
		logger:      logger,
		generator:   generator,
		maxAttempts: maxAttempts,
	}
}

func (o *Orchestrator) MaxAttempts() int {
	return o.maxAttempts
}

// Run generates one document for sourceImage. onProgress, when set, is called
// after every attempt with the attempt result and the text accumulated so far.
// Run always returns a Document in a terminal state.
func (o *Orchestrator) Run(ctx context.Context, sourceImage string, onProgress ProgressFunc) (doc Document) {
	var text strings.Builder

	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("generation run panicked", zap.Any("panic", r))
			doc.Text = text.String()
			doc.State = StateFailed
			doc.Error = fmt.Sprintf("internal error: %v", r)
			doc.ErrorKind = ErrorKindInternal
		}
	}()

	doc.State = StateInProgress
	for doc.AttemptsUsed < o.maxAttempts {
		if err := ctx.Err(); err != nil {
			doc.State = StateFailed
			doc.Error = UserMessage(ErrorKindCanceled, ChunkResult{})
			doc.ErrorKind = ErrorKindCanceled
			break
		}

		req := Request{
			SourceImage: sourceImage,
			Attempt:     doc.AttemptsUsed + 1,
		}
		if doc.AttemptsUsed > 0 {
			req.PriorContent = text.String()
		}

		res := o.generator.Generate(ctx, req)
		if res.ErrorKind != ErrorKindValidation {
			doc.AttemptsUsed++
		}
		text.WriteString(res.GeneratedCode)
		doc.Text = text.String()

		if onProgress != nil {
			onProgress(Progress{
				Attempt: req.Attempt,
				Result:  res,
				Text:    doc.Text,
			})
		}

		if res.Failed() {
			doc.State = StateFailed
			doc.Error = res.Error
			doc.ErrorKind = res.ErrorKind
			break
		}
		if res.IsComplete {
			doc.State = StateSucceeded
			break
		}
		if req.IsContinuation() && res.GeneratedCode == "" {
			o.logger.Info("continuation returned no content, treating document as complete",
				zap.Int("attempt", req.Attempt))
			doc.State = StateSucceeded
			break
		}
	}

	if doc.State == StateInProgress {
		doc.State = StateSucceededTruncated
		o.logger.Warn("attempt budget exhausted before completion", zap.Int("attempts", doc.AttemptsUsed))
	}

	if doc.Text == "" && doc.Error == "" {
		doc.State = StateFailed
		doc.Error = ErrNoCode.Error()
		doc.ErrorKind = ErrorKindEmpty
	}

	o.logger.Info("generation run finished",
		zap.Stringer("state", doc.State),
		zap.Int("attempts", doc.AttemptsUsed),
		zap.Int("document_bytes", len(doc.Text)),
		zap.String("error_kind", string(doc.ErrorKind)),
	)
	return doc
}
