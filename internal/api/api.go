// Package api exposes the subtitle pipeline and the practice scorer over
// HTTP.
//
// Routes:
//
//	POST /v1/scenes        raw subtitle text in, {"scenes": [...]} out
//	POST /v1/scenes/batch  {"sources": [{"name", "content"}]} in, per-source scenes out
//	POST /v1/practice      {"scene", "audio_base64", "format", "language"} in, PracticeResult out
//
// Errors are JSON objects of the form {"error": "..."}.
package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/MrWong99/scenecoach/internal/observe"
	"github.com/MrWong99/scenecoach/internal/practice"
	"github.com/MrWong99/scenecoach/internal/subtitle"
	"github.com/MrWong99/scenecoach/pkg/types"
)

// Request body limits.
const (
	maxSubtitleBytes = 10 << 20
	maxPracticeBytes = 32 << 20
)

// SceneProcessor converts subtitle content into scenes.
type SceneProcessor interface {
	Process(ctx context.Context, content string) ([]types.Scene, error)
	ProcessBatch(ctx context.Context, sources []subtitle.Source) ([]subtitle.BatchResult, error)
}

// Practicer grades practice attempts.
type Practicer interface {
	Practice(ctx context.Context, a practice.Attempt) (*types.PracticeResult, error)
}

// Handler serves the API routes. It is safe for concurrent use.
type Handler struct {
	scenes   SceneProcessor
	practice Practicer
}

// New returns a [Handler] backed by scenes and practicer.
func New(scenes SceneProcessor, practicer Practicer) *Handler {
	return &Handler{scenes: scenes, practice: practicer}
}

// Register adds the API routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/scenes", h.Scenes)
	mux.HandleFunc("POST /v1/scenes/batch", h.ScenesBatch)
	mux.HandleFunc("POST /v1/practice", h.Practice)
}

// ScenesResponse is the body returned by /v1/scenes.
type ScenesResponse struct {
	Scenes []types.Scene `json:"scenes"`
}

// Scenes converts the raw request body into scenes.
func (h *Handler) Scenes(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxSubtitleBytes))
	if err != nil {
		writeError(w, bodyStatus(err), fmt.Errorf("read body: %w", err))
		return
	}
	scenes, err := h.scenes.Process(r.Context(), string(body))
	if err != nil {
		writeError(w, contextStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, ScenesResponse{Scenes: scenes})
}

// BatchRequest is the body accepted by /v1/scenes/batch.
type BatchRequest struct {
	Sources []subtitle.Source `json:"sources"`
}

// BatchResponse is the body returned by /v1/scenes/batch.
type BatchResponse struct {
	Results []BatchResult `json:"results"`
}

// BatchResult holds the scenes of one named source.
type BatchResult struct {
	Name   string        `json:"name"`
	Scenes []types.Scene `json:"scenes"`
}

// ScenesBatch converts several named documents in one request.
func (h *Handler) ScenesBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := decodeJSON(w, r, maxSubtitleBytes, &req); err != nil {
		writeError(w, bodyStatus(err), err)
		return
	}
	if len(req.Sources) == 0 {
		writeError(w, http.StatusBadRequest, errors.New("sources must not be empty"))
		return
	}

	results, err := h.scenes.ProcessBatch(r.Context(), req.Sources)
	if err != nil {
		writeError(w, contextStatus(err), err)
		return
	}
	out := BatchResponse{Results: make([]BatchResult, len(results))}
	for i, res := range results {
		out.Results[i] = BatchResult{Name: res.Name, Scenes: res.Scenes}
	}
	writeJSON(w, http.StatusOK, out)
}

// PracticeRequest is the body accepted by /v1/practice.
type PracticeRequest struct {
	Scene       types.Scene `json:"scene"`
	AudioBase64 string      `json:"audio_base64"`
	Format      string      `json:"format"`
	Language    string      `json:"language,omitempty"`
}

// Practice transcribes and grades one attempt.
func (h *Handler) Practice(w http.ResponseWriter, r *http.Request) {
	var req PracticeRequest
	if err := decodeJSON(w, r, maxPracticeBytes, &req); err != nil {
		writeError(w, bodyStatus(err), err)
		return
	}
	audio, err := base64.StdEncoding.DecodeString(req.AudioBase64)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("audio_base64: %w", err))
		return
	}

	res, err := h.practice.Practice(r.Context(), practice.Attempt{
		Scene:    req.Scene,
		Audio:    audio,
		Format:   req.Format,
		Language: req.Language,
	})
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, res)
	case errors.Is(err, practice.ErrEmptyAudio), errors.Is(err, practice.ErrInvalidAttempt):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, practice.ErrTranscription):
		observe.Logger(r.Context()).Warn("practice transcription failed", "err", err)
		writeError(w, http.StatusBadGateway, err)
	default:
		writeError(w, contextStatus(err), err)
	}
}

// errorResponse is the JSON body of every error reply.
type errorResponse struct {
	Error string `json:"error"`
}

func decodeJSON(w http.ResponseWriter, r *http.Request, limit int64, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, limit))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

// bodyStatus maps a request body error to a status code.
func bodyStatus(err error) int {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

// contextStatus maps a processing error to a status code.
func contextStatus(err error) int {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
