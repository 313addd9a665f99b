package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/kdduha/snap2html/backend/internal/generation"
	"github.com/kdduha/snap2html/backend/internal/models"
)

type generateService interface {
	Generate(ctx context.Context, req *models.GenerateRequest) (*models.GenerateResponse, error)
	GenerateStream(ctx context.Context, req *models.GenerateRequest) (<-chan models.StreamChunk, error)
	Recreate(ctx context.Context, req *models.RecreateRequest) (*models.RecreateResponse, error)
}

type GenerateHandler struct {
	service      generateService
	maxBodyBytes int64
}

func NewGenerateHandler(service generateService, maxBodyBytes int64) *GenerateHandler {
	return &GenerateHandler{
		service:      service,
		maxBodyBytes: maxBodyBytes,
	}
}

// Generate godoc
// @Summary Generate HTML from an image
// @Description Runs a multi-chunk generation and returns the assembled HTML document. Image is sent as a data URL in JSON.
// @Tags generate
// @Accept json
// @Produce json
// @Param request body models.GenerateRequest true "Generate request"
// @Success 200 {object} models.GenerateResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 422 {object} models.GenerateResponse
// @Failure 429 {object} models.GenerateResponse
// @Failure 502 {object} models.GenerateResponse
// @Router /generate [post]
func (h *GenerateHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req models.GenerateRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("request validation failed: %s", err), generation.ErrorKindValidation)
		return
	}

	resp, err := h.service.Generate(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	status := http.StatusOK
	if resp.State == generation.StateFailed.String() {
		status = statusForKind(generation.ErrorKind(resp.ErrorKind))
	}
	writeJSON(w, status, resp)
}

// GenerateStream godoc
// @Summary Stream generation progress
// @Description Streams every attempt as an SSE "attempt" event and the final document as a "done" event.
// @Tags generate
// @Accept json
// @Produce text/event-stream
// @Param request body models.GenerateRequest true "Generate request"
// @Success 200 {object} models.StreamChunk "Stream of attempts (SSE)"
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /generate/stream [post]
func (h *GenerateHandler) GenerateStream(w http.ResponseWriter, r *http.Request) {
	var req models.GenerateRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("request validation failed: %s", err), generation.ErrorKindValidation)
		return
	}

	stream, err := h.service.GenerateStream(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	flusher := http.NewResponseController(w)

	for chunk := range stream {
		if chunk.Err != nil {
			fmt.Fprintf(w, "event: error\ndata: %v\n\n", chunk.Err)
			_ = flusher.Flush()
			return
		}

		event, payload := "attempt", any(chunk)
		if chunk.Done {
			event, payload = "done", chunk.Final
		}

		data, err := sonic.Marshal(payload)
		if err != nil {
			fmt.Fprintf(w, "event: error\ndata: marshal error %v\n\n", err)
			_ = flusher.Flush()
			return
		}

		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
		_ = flusher.Flush()

		if chunk.Done {
			return
		}
	}
}

// Recreate godoc
// @Summary Recreate an image
// @Description Asks the image model for a new rendition of the upload and a short description.
// @Tags recreate
// @Accept json
// @Produce json
// @Param request body models.RecreateRequest true "Recreate request"
// @Success 200 {object} models.RecreateResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Failure 429 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Router /recreate [post]
func (h *GenerateHandler) Recreate(w http.ResponseWriter, r *http.Request) {
	var req models.RecreateRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("request validation failed: %s", err), generation.ErrorKindValidation)
		return
	}

	resp, err := h.service.Recreate(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Healthz godoc
// @Summary Liveness probe
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /healthz [get]
func Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *GenerateHandler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	body := r.Body
	if h.maxBodyBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	}

	if err := sonic.ConfigDefault.NewDecoder(body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit), generation.ErrorKindValidation)
			return false
		}
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err), generation.ErrorKindValidation)
		return false
	}
	return true
}

func statusForKind(kind generation.ErrorKind) int {
	switch kind {
	case generation.ErrorKindValidation:
		return http.StatusBadRequest
	case generation.ErrorKindQuota:
		return http.StatusTooManyRequests
	case generation.ErrorKindContentPolicy:
		return http.StatusUnprocessableEntity
	case generation.ErrorKindCanceled:
		return http.StatusServiceUnavailable
	case generation.ErrorKindInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusBadGateway
	}
}

func writeServiceError(w http.ResponseWriter, err error) {
	var genErr *generation.Error
	if errors.As(err, &genErr) {
		writeError(w, statusForKind(genErr.Kind), genErr.Message, genErr.Kind)
		return
	}
	writeError(w, http.StatusInternalServerError, fmt.Sprintf("service error: %s", err), generation.ErrorKindInternal)
}

func writeError(w http.ResponseWriter, status int, msg string, kind generation.ErrorKind) {
	writeJSON(w, status, models.ErrorResponse{Error: msg, ErrorKind: string(kind)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := sonic.Marshal(v)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to encode: %s", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}
