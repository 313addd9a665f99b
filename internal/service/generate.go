package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/kdduha/snap2html/backend/internal/dataurl"
	"github.com/kdduha/snap2html/backend/internal/generation"
	"github.com/kdduha/snap2html/backend/internal/llm"
	"github.com/kdduha/snap2html/backend/internal/metrics"
	"github.com/kdduha/snap2html/backend/internal/models"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string) error
}

// Runner drives one multi-chunk generation to a terminal document.
type Runner interface {
	Run(ctx context.Context, sourceImage string, onProgress generation.ProgressFunc) generation.Document
}

type Options struct {
	// ModelName is part of the cache key.
	ModelName         string
	ImageSettings     llm.Settings
	MaxConcurrentRuns int64
}

type GenerateService struct {
	logger        *zap.Logger
	runner        Runner
	model         llm.Model
	modelName     string
	imageSettings llm.Settings
	runs          *semaphore.Weighted
	cache         Cache
}

func NewGenerateService(logger *zap.Logger, runner Runner, model llm.Model, opts Options) *GenerateService {
	if opts.MaxConcurrentRuns < 1 {
		opts.MaxConcurrentRuns = 1
	}
	return &GenerateService{
		logger:        logger,
		runner:        runner,
		model:         model,
		modelName:     opts.ModelName,
		imageSettings: opts.ImageSettings,
		runs:          semaphore.NewWeighted(opts.MaxConcurrentRuns),
	}
}

func (s *GenerateService) SetCacheClient(cache Cache) {
	s.cache = cache
}

func (s *GenerateService) Generate(ctx context.Context, req *models.GenerateRequest) (*models.GenerateResponse, error) {
	image, err := prepareImage(req.Image)
	if err != nil {
		return nil, err
	}

	key := s.cacheKey(image)
	if cached, ok := s.lookup(ctx, key); ok {
		return cached, nil
	}

	if err := s.acquire(ctx); err != nil {
		return nil, err
	}
	defer s.runs.Release(1)

	logger := s.logger.With(zap.String("run_id", uuid.NewString()), zap.String("file_name", req.FileName))
	logger.Info("generation started")

	doc := s.runner.Run(ctx, image, nil)
	metrics.GenerationRun(modeGenerate, doc.State.String(), doc.AttemptsUsed)
	logger.Info("generation finished",
		zap.Stringer("state", doc.State),
		zap.Int("attempts", doc.AttemptsUsed),
	)

	resp := toResponse(doc)
	s.store(ctx, key, doc, resp)
	return resp, nil
}

func (s *GenerateService) GenerateStream(
	ctx context.Context,
	req *models.GenerateRequest,
) (<-chan models.StreamChunk, error) {
	image, err := prepareImage(req.Image)
	if err != nil {
		return nil, err
	}

	ch := make(chan models.StreamChunk, 1)

	key := s.cacheKey(image)
	if cached, ok := s.lookup(ctx, key); ok {
		ch <- models.StreamChunk{
			Attempt:       cached.Attempts,
			GeneratedCode: cached.GeneratedCode,
			IsComplete:    true,
			Final:         cached,
			Done:          true,
		}
		close(ch)
		return ch, nil
	}

	if err := s.acquire(ctx); err != nil {
		return nil, err
	}

	logger := s.logger.With(zap.String("run_id", uuid.NewString()), zap.String("file_name", req.FileName))

	go func() {
		defer close(ch)
		defer s.runs.Release(1)

		sendOrStop := func(msg models.StreamChunk) bool {
			select {
			case ch <- msg:
				return true
			case <-ctx.Done():
				return false
			}
		}

		sendNonBlocking := func(msg models.StreamChunk) {
			select {
			case ch <- msg:
			default:
			}
		}

		logger.Info("streamed generation started")
		doc := s.runner.Run(ctx, image, func(p generation.Progress) {
			sendOrStop(models.StreamChunk{
				Attempt:       p.Attempt,
				Delta:         p.Result.GeneratedCode,
				GeneratedCode: p.Text,
				IsComplete:    p.Result.IsComplete,
				FinishReason:  p.Result.FinishReason,
				FinishMessage: p.Result.FinishMessage,
				Error:         p.Result.Error,
				ErrorKind:     string(p.Result.ErrorKind),
			})
		})
		metrics.GenerationRun(modeStream, doc.State.String(), doc.AttemptsUsed)
		logger.Info("streamed generation finished",
			zap.Stringer("state", doc.State),
			zap.Int("attempts", doc.AttemptsUsed),
		)

		resp := toResponse(doc)
		s.store(ctx, key, doc, resp)

		if doc.ErrorKind == generation.ErrorKindCanceled {
			err := ctx.Err()
			if err == nil {
				err = &generation.Error{Kind: doc.ErrorKind, Message: doc.Error}
			}
			sendNonBlocking(models.StreamChunk{Err: err})
			return
		}
		sendOrStop(models.StreamChunk{
			Attempt:       doc.AttemptsUsed,
			GeneratedCode: doc.Text,
			IsComplete:    true,
			Error:         doc.Error,
			ErrorKind:     string(doc.ErrorKind),
			Final:         resp,
			Done:          true,
		})
	}()

	return ch, nil
}

// Recreate asks the image model for a fresh rendition of the upload plus a
// short description of it.
func (s *GenerateService) Recreate(ctx context.Context, req *models.RecreateRequest) (*models.RecreateResponse, error) {
	image, err := prepareImage(req.Image)
	if err != nil {
		return nil, err
	}
	if _, err := dataurl.ValidateImage(image); err != nil {
		return nil, &generation.Error{
			Kind:    generation.ErrorKindValidation,
			Message: err.Error(),
			Err:     fmt.Errorf("%w: %w", generation.ErrInvalidImage, err),
		}
	}

	if err := s.acquire(ctx); err != nil {
		return nil, err
	}
	defer s.runs.Release(1)

	logger := s.logger.With(zap.String("run_id", uuid.NewString()), zap.String("file_name", req.FileName))

	start := time.Now()
	resp, err := s.model.Generate(ctx, &llm.Request{
		System:    systemPromptRecreate,
		Parts:     []llm.Part{llm.TextPart(userPromptRecreate), llm.ImagePart(image)},
		Settings:  s.imageSettings,
		WantImage: true,
	})
	if err == nil && resp == nil {
		err = llm.ErrEmptyResponse
	}

	if err != nil {
		chunk, kind := generation.NormalizeError(err)
		metrics.ModelRequest(s.model.Provider(), string(kind), time.Since(start))
		metrics.GenerationRun(modeRecreate, generation.StateFailed.String(), 1)
		logger.Warn("recreate failed", zap.String("error_kind", string(kind)), zap.Error(err))
		return nil, &generation.Error{
			Kind:    kind,
			Reason:  chunk.Reason,
			Message: generation.UserMessage(kind, chunk),
			Err:     err,
		}
	}
	metrics.ModelRequest(s.model.Provider(), "ok", time.Since(start))

	if recErr := recreateError(resp); recErr != nil {
		metrics.GenerationRun(modeRecreate, generation.StateFailed.String(), 1)
		logger.Warn("recreate returned no image",
			zap.String("error_kind", string(recErr.Kind)),
			zap.String("finish_reason", resp.RawFinishReason),
		)
		return nil, recErr
	}

	metrics.GenerationRun(modeRecreate, generation.StateSucceeded.String(), 1)
	logger.Info("recreate finished", zap.Int("images", len(resp.Images)))

	img := resp.Images[0]
	return &models.RecreateResponse{
		Description: strings.TrimSpace(resp.Text),
		Image:       dataurl.FromBytes(img.MIMEType, img.Data),
	}, nil
}

func recreateError(resp *llm.Response) *generation.Error {
	chunk := generation.ChunkResult{
		RawText: resp.Text,
		Signal:  generation.SignalFromFinishReason(resp.FinishReason),
		Reason:  resp.RawFinishReason,
		Message: resp.FinishMessage,
	}
	if chunk.Signal == generation.SignalSafetyBlock {
		return &generation.Error{
			Kind:    generation.ErrorKindContentPolicy,
			Reason:  chunk.Reason,
			Message: generation.UserMessage(generation.ErrorKindContentPolicy, chunk),
		}
	}
	if len(resp.Images) == 0 {
		return &generation.Error{
			Kind:    generation.ErrorKindEmpty,
			Reason:  chunk.Reason,
			Message: "AI did not return a recreated image. Please try again or use a different image.",
			Err:     llm.ErrEmptyResponse,
		}
	}
	return nil
}

func (s *GenerateService) acquire(ctx context.Context) error {
	if err := s.runs.Acquire(ctx, 1); err != nil {
		return &generation.Error{
			Kind:    generation.ErrorKindCanceled,
			Message: generation.UserMessage(generation.ErrorKindCanceled, generation.ChunkResult{}),
			Err:     err,
		}
	}
	return nil
}

func (s *GenerateService) lookup(ctx context.Context, key string) (*models.GenerateResponse, bool) {
	if s.cache == nil {
		return nil, false
	}

	cached, found, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("cache get error", zap.Error(err))
		return nil, false
	}
	metrics.CacheLookup(found)
	if !found {
		return nil, false
	}

	var resp models.GenerateResponse
	if err := sonic.UnmarshalString(cached, &resp); err != nil {
		s.logger.Warn("cache entry is corrupted", zap.Error(err))
		return nil, false
	}
	resp.Cached = true
	s.logger.Info("served from cache")
	return &resp, true
}

// store caches fully generated documents only.
func (s *GenerateService) store(ctx context.Context, key string, doc generation.Document, resp *models.GenerateResponse) {
	if s.cache == nil || doc.State != generation.StateSucceeded {
		return
	}

	value, err := sonic.MarshalString(resp)
	if err != nil {
		s.logger.Warn("failed to encode cache entry", zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, key, value); err != nil {
		s.logger.Warn("failed to set cache", zap.Error(err))
	}
}

func (s *GenerateService) cacheKey(image string) string {
	hash := sha256.Sum256([]byte(s.modelName + "-" + image))
	return hex.EncodeToString(hash[:])
}

func toResponse(doc generation.Document) *models.GenerateResponse {
	return &models.GenerateResponse{
		GeneratedCode: doc.Text,
		State:         doc.State.String(),
		Attempts:      doc.AttemptsUsed,
		Truncated:     doc.Truncated(),
		Error:         doc.Error,
		ErrorKind:     string(doc.ErrorKind),
	}
}
