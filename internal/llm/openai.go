package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"go.uber.org/zap"
)

const ProviderOpenAI = "openai"

type OpenAIOptions struct {
	APIKey  string
	BaseURL string
}

type OpenAIModel struct {
	logger *zap.Logger
	client openai.Client
}

func NewOpenAIModel(logger *zap.Logger, opts OpenAIOptions) *OpenAIModel {
	reqOpts := []option.RequestOption{option.WithAPIKey(opts.APIKey)}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	return &OpenAIModel{
		logger: logger,
		client: openai.NewClient(reqOpts...),
	}
}

func (o *OpenAIModel) Provider() string {
	return ProviderOpenAI
}

func (o *OpenAIModel) Generate(ctx context.Context, req *Request) (*Response, error) {
	if req.WantImage {
		return nil, ErrImageOutputUnsupported
	}

	resp, err := o.client.Chat.Completions.New(ctx, buildOpenAIParams(req))
	if err != nil {
		return nil, wrapOpenAIError(err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return nil, ErrEmptyResponse
	}
	o.logger.Debug("openai completion received",
		zap.String("model", req.Settings.Model),
		zap.String("finish_reason", resp.Choices[0].FinishReason),
		zap.Int64("completion_tokens", resp.Usage.CompletionTokens),
	)

	choice := resp.Choices[0]
	if choice.Message.Refusal != "" {
		return nil, &BlockedError{
			Reason:  FinishSafety,
			Raw:     "refusal",
			Message: choice.Message.Refusal,
		}
	}

	return &Response{
		Text:            choice.Message.Content,
		FinishReason:    openAIFinishReason(choice.FinishReason),
		RawFinishReason: choice.FinishReason,
	}, nil
}

func buildOpenAIParams(req *Request) openai.ChatCompletionNewParams {
	parts := make([]openai.ChatCompletionContentPartUnionParam, 0, len(req.Parts))
	for _, p := range req.Parts {
		if p.Image != "" {
			parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
				URL: p.Image,
			}))
			continue
		}
		parts = append(parts, openai.TextContentPart(p.Text))
	}

	var messages []openai.ChatCompletionMessageParamUnion
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	messages = append(messages, openai.UserMessage(parts))

	params := openai.ChatCompletionNewParams{
		Model:       shared.ChatModel(req.Settings.Model),
		Messages:    messages,
		Temperature: openai.Float(req.Settings.Temperature),
	}
	if req.Settings.MaxOutputTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(req.Settings.MaxOutputTokens))
	}
	return params
}

func openAIFinishReason(r string) FinishReason {
	switch r {
	case "":
		return FinishUnspecified
	case "stop":
		return FinishStop
	case "length":
		return FinishMaxTokens
	case "content_filter":
		return FinishSafety
	default:
		return FinishOther
	}
}

func wrapOpenAIError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == http.StatusTooManyRequests || apiErr.Code == "insufficient_quota" {
			return fmt.Errorf("%w: %s", ErrQuotaExceeded, apiErr.Message)
		}
		return fmt.Errorf("OpenAI API %d: %w", apiErr.StatusCode, err)
	}
	return fmt.Errorf("OpenAI client error: %w", err)
}
