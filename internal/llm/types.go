// Package llm wraps the remote generative models behind one request/response
// shape. Transports translate provider specific finish reasons, safety blocks
// and quota errors into the values declared here.
package llm

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrQuotaExceeded          = errors.New("model quota exceeded")
	ErrEmptyResponse          = errors.New("model returned no response")
	ErrImageOutputUnsupported = errors.New("provider does not support image output")
)

type Model interface {
	Provider() string
	Generate(ctx context.Context, req *Request) (*Response, error)
}

// Part is either a text segment or an embedded image given as a data url.
type Part struct {
	Text  string
	Image string
}

func TextPart(text string) Part {
	return Part{Text: text}
}

func ImagePart(dataURL string) Part {
	return Part{Image: dataURL}
}

type Request struct {
	System    string
	Parts     []Part
	Settings  Settings
	WantImage bool
}

// Settings is the generation configuration handed to every remote call.
type Settings struct {
	Model           string
	MaxOutputTokens int
	Temperature     float64
	Safety          SafetyPolicy
}

type HarmCategory string

const (
	HarmHarassment       HarmCategory = "HARM_CATEGORY_HARASSMENT"
	HarmHateSpeech       HarmCategory = "HARM_CATEGORY_HATE_SPEECH"
	HarmSexuallyExplicit HarmCategory = "HARM_CATEGORY_SEXUALLY_EXPLICIT"
	HarmDangerousContent HarmCategory = "HARM_CATEGORY_DANGEROUS_CONTENT"
)

var AllHarmCategories = []HarmCategory{
	HarmHarassment,
	HarmHateSpeech,
	HarmSexuallyExplicit,
	HarmDangerousContent,
}

type SafetyThreshold string

const (
	SafetyProviderDefault SafetyThreshold = ""
	SafetyBlockNone       SafetyThreshold = "BLOCK_NONE"
	SafetyBlockLow        SafetyThreshold = "BLOCK_LOW_AND_ABOVE"
	SafetyBlockMedium     SafetyThreshold = "BLOCK_MEDIUM_AND_ABOVE"
	SafetyBlockHigh       SafetyThreshold = "BLOCK_ONLY_HIGH"
)

func ParseSafetyThreshold(s string) (SafetyThreshold, error) {
	switch t := SafetyThreshold(s); t {
	case SafetyProviderDefault, SafetyBlockNone, SafetyBlockLow, SafetyBlockMedium, SafetyBlockHigh:
		return t, nil
	default:
		return "", fmt.Errorf("unknown safety threshold %q", s)
	}
}

// SafetyPolicy applies one threshold to a set of harm categories. An empty
// category list means every known category.
type SafetyPolicy struct {
	Threshold  SafetyThreshold
	Categories []HarmCategory
}

func (p SafetyPolicy) categories() []HarmCategory {
	if len(p.Categories) == 0 {
		return AllHarmCategories
	}
	return p.Categories
}

type FinishReason string

const (
	FinishUnspecified FinishReason = ""
	FinishStop        FinishReason = "STOP"
	FinishMaxTokens   FinishReason = "MAX_TOKENS"
	FinishSafety      FinishReason = "SAFETY"
	FinishRecitation  FinishReason = "RECITATION"
	FinishBlocked     FinishReason = "BLOCKED"
	FinishOther       FinishReason = "OTHER"
)

type Image struct {
	MIMEType string
	Data     []byte
}

type Response struct {
	Text   string
	Images []Image

	FinishReason FinishReason
	// RawFinishReason keeps the provider's own spelling for diagnostics.
	RawFinishReason string
	FinishMessage   string
}

// BlockedError is returned when the provider refused to produce a candidate at
// all, e.g. the prompt itself was blocked.
type BlockedError struct {
	Reason  FinishReason
	Raw     string
	Message string
}

func (e *BlockedError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("generation blocked: %s", e.Raw)
	}
	return fmt.Sprintf("generation blocked: %s - %s", e.Raw, e.Message)
}
