package models

import (
	"errors"
	"strings"
)

var (
	ErrEmptyImage      = errors.New("image is empty")
	ErrImageNotDataURL = errors.New("image must be a data URL (data:<mime>;base64,<payload>)")
)

// GenerateRequest represents request for generate endpoints
type GenerateRequest struct {
	Image    string `json:"image" validate:"required" example:"data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAA..."`
	FileName string `json:"file_name" example:"landing.png"`
}

func (r GenerateRequest) Validate() error {
	return validateImage(r.Image)
}

type GenerateResponse struct {
	GeneratedCode string `json:"generated_code"`
	State         string `json:"state" example:"succeeded"`
	Attempts      int    `json:"attempts" example:"2"`
	Truncated     bool   `json:"truncated"`
	Error         string `json:"error,omitempty"`
	ErrorKind     string `json:"error_kind,omitempty" example:"quota"`
	Cached        bool   `json:"cached"`
}

// RecreateRequest represents request for recreate endpoint
type RecreateRequest struct {
	Image    string `json:"image" validate:"required" example:"data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAA..."`
	FileName string `json:"file_name" example:"photo.jpg"`
}

func (r RecreateRequest) Validate() error {
	return validateImage(r.Image)
}

type RecreateResponse struct {
	Description string `json:"description"`
	// Image is a data URL of the generated picture.
	Image string `json:"image"`
}

// StreamChunk is one event of a streamed generation. Final is set on the
// last chunk only. Err is set when the run was canceled and no final
// document follows.
type StreamChunk struct {
	Attempt       int    `json:"attempt"`
	Delta         string `json:"delta,omitempty"`
	GeneratedCode string `json:"generated_code,omitempty"`
	IsComplete    bool   `json:"is_complete"`
	FinishReason  string `json:"finish_reason,omitempty"`
	FinishMessage string `json:"finish_message,omitempty"`
	Error         string `json:"error,omitempty"`
	ErrorKind     string `json:"error_kind,omitempty"`

	Final *GenerateResponse `json:"-"`
	Done  bool              `json:"-"`
	Err   error             `json:"-"`
}

type ErrorResponse struct {
	Error     string `json:"error"`
	ErrorKind string `json:"error_kind,omitempty"`
}

func validateImage(image string) error {
	image = strings.TrimSpace(image)
	if image == "" {
		return ErrEmptyImage
	}
	if !strings.HasPrefix(image, "data:") {
		return ErrImageNotDataURL
	}
	return nil
}
