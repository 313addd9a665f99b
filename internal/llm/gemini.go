package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/kdduha/snap2html/backend/internal/dataurl"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

const ProviderGemini = "gemini"

type GeminiOptions struct {
	APIKey     string
	BaseURL    string
	APIVersion string
}

type GeminiModel struct {
	logger *zap.Logger
	models *genai.Models
}

func NewGeminiModel(ctx context.Context, logger *zap.Logger, opts GeminiOptions) (*GeminiModel, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    opts.BaseURL,
			APIVersion: opts.APIVersion,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiModel{
		logger: logger,
		models: client.Models,
	}, nil
}

func (g *GeminiModel) Provider() string {
	return ProviderGemini
}

func (g *GeminiModel) Generate(ctx context.Context, req *Request) (*Response, error) {
	contents, err := buildGeminiContents(req.Parts)
	if err != nil {
		return nil, err
	}

	resp, err := g.models.GenerateContent(ctx, req.Settings.Model, contents, buildGeminiConfig(req))
	if err != nil {
		g.logger.Debug("gemini request failed", zap.String("model", req.Settings.Model), zap.Error(err))
		return nil, wrapGeminiError(err)
	}
	return parseGeminiResponse(resp)
}

func buildGeminiContents(parts []Part) ([]*genai.Content, error) {
	out := make([]*genai.Part, 0, len(parts))
	for _, p := range parts {
		if p.Image == "" {
			out = append(out, genai.NewPartFromText(p.Text))
			continue
		}

		d, err := dataurl.Parse(p.Image)
		if err != nil {
			return nil, fmt.Errorf("invalid image part: %w", err)
		}
		data, err := d.Bytes()
		if err != nil {
			return nil, fmt.Errorf("invalid image part: %w", err)
		}
		out = append(out, genai.NewPartFromBytes(data, d.MIMEType))
	}
	return []*genai.Content{genai.NewContentFromParts(out, genai.RoleUser)}, nil
}

func buildGeminiConfig(req *Request) *genai.GenerateContentConfig {
	s := req.Settings
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(s.Temperature)),
	}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if s.MaxOutputTokens > 0 {
		cfg.MaxOutputTokens = int32(s.MaxOutputTokens)
	}
	if s.Safety.Threshold != SafetyProviderDefault {
		for _, c := range s.Safety.categories() {
			cfg.SafetySettings = append(cfg.SafetySettings, &genai.SafetySetting{
				Category:  genai.HarmCategory(c),
				Threshold: genai.HarmBlockThreshold(s.Safety.Threshold),
			})
		}
	}
	if req.WantImage {
		cfg.ResponseModalities = []string{"TEXT", "IMAGE"}
	}
	return cfg
}

func parseGeminiResponse(resp *genai.GenerateContentResponse) (*Response, error) {
	if resp == nil {
		return nil, ErrEmptyResponse
	}

	if len(resp.Candidates) == 0 {
		if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" {
			return nil, &BlockedError{
				Reason:  FinishBlocked,
				Raw:     string(fb.BlockReason),
				Message: fb.BlockReasonMessage,
			}
		}
		return nil, ErrEmptyResponse
	}

	cand := resp.Candidates[0]
	out := &Response{
		FinishReason:    geminiFinishReason(cand.FinishReason),
		RawFinishReason: string(cand.FinishReason),
		FinishMessage:   cand.FinishMessage,
	}

	if cand.Content == nil {
		return out, nil
	}

	var text strings.Builder
	for _, p := range cand.Content.Parts {
		if p == nil || p.Thought {
			continue
		}
		if p.Text != "" {
			text.WriteString(p.Text)
		}
		if p.InlineData != nil && len(p.InlineData.Data) > 0 {
			out.Images = append(out.Images, Image{
				MIMEType: p.InlineData.MIMEType,
				Data:     p.InlineData.Data,
			})
		}
	}
	out.Text = text.String()
	return out, nil
}

func geminiFinishReason(r genai.FinishReason) FinishReason {
	switch string(r) {
	case "", "FINISH_REASON_UNSPECIFIED":
		return FinishUnspecified
	case "STOP":
		return FinishStop
	case "MAX_TOKENS":
		return FinishMaxTokens
	case "SAFETY", "IMAGE_SAFETY", "SPII":
		return FinishSafety
	case "RECITATION":
		return FinishRecitation
	case "BLOCKLIST", "PROHIBITED_CONTENT":
		return FinishBlocked
	default:
		return FinishOther
	}
}

func wrapGeminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusTooManyRequests || apiErr.Status == "RESOURCE_EXHAUSTED" {
			return fmt.Errorf("%w: %s", ErrQuotaExceeded, apiErr.Message)
		}
		return fmt.Errorf("gemini API %d %s: %w", apiErr.Code, apiErr.Status, err)
	}
	return fmt.Errorf("gemini request: %w", err)
}
