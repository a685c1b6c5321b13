package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"cinematica/internal/datauri"
	"cinematica/internal/gemini"
)

type animateRequest struct {
	Base64Image string `json:"base64Image"`
	Prompt      string `json:"prompt"`
}

type animateStartResponse struct {
	OperationName string `json:"operationName"`
}

type animateStatusRequest struct {
	OperationName string `json:"operationName"`
}

type animateStatusResponse struct {
	Done  bool   `json:"done"`
	Video string `json:"video,omitempty"`
}

type videoResponse struct {
	Video string `json:"video"`
}

// AnimateStart submits a video render job and answers immediately with its
// operation name. The multi-minute wait happens on the client through
// AnimateStatus polling, so no handler ever blocks for the render.
func (a *App) AnimateStart(w http.ResponseWriter, r *http.Request) {
	image, prompt, ok := a.decodeAnimateInput(w, r)
	if !ok {
		return
	}

	operationName, err := a.Generator.StartAnimation(r.Context(), image, prompt)
	if err != nil {
		a.upstreamError(w, r, err, "Failed to start animation")
		return
	}
	a.json(w, http.StatusOK, animateStartResponse{OperationName: operationName})
}

// AnimateStatus re-queries one render job. On completion the clip bytes are
// fetched server-side and inlined, keeping the credentialed result URI off
// the wire.
func (a *App) AnimateStatus(w http.ResponseWriter, r *http.Request) {
	var req animateStatusRequest
	if !a.decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.OperationName) == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "Operation name is required")
		return
	}

	status, err := a.Generator.AnimationStatus(r.Context(), req.OperationName)
	if err != nil {
		a.upstreamError(w, r, err, "Failed to check animation status")
		return
	}
	if !status.Done {
		a.json(w, http.StatusOK, animateStatusResponse{Done: false})
		return
	}
	a.json(w, http.StatusOK, animateStatusResponse{
		Done:  true,
		Video: datauri.Encode(status.Video.MIME, status.Video.Data),
	})
}

// AnimateImage is the blocking variant for deployments without an
// execution-time ceiling: one request, server-side poll loop, inline video
// in the response.
func (a *App) AnimateImage(w http.ResponseWriter, r *http.Request) {
	image, prompt, ok := a.decodeAnimateInput(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	if a.Config != nil && a.Config.AnimateDeadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.Config.AnimateDeadline)
		defer cancel()
	}

	var pollInterval time.Duration
	if a.Config != nil {
		pollInterval = a.Config.AnimatePollInterval
	}
	media, err := a.Generator.Animate(ctx, image, prompt, pollInterval)
	if err != nil {
		a.upstreamError(w, r, err, "Failed to animate image")
		return
	}
	a.json(w, http.StatusOK, videoResponse{Video: datauri.Encode(media.MIME, media.Data)})
}

func (a *App) decodeAnimateInput(w http.ResponseWriter, r *http.Request) (gemini.Media, string, bool) {
	var req animateRequest
	if !a.decodeBody(w, r, &req) {
		return gemini.Media{}, "", false
	}
	if req.Base64Image == "" || strings.TrimSpace(req.Prompt) == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "Image and prompt are required")
		return gemini.Media{}, "", false
	}

	data, mimeType, err := datauri.Decode(req.Base64Image)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "Image payload is not valid base64")
		return gemini.Media{}, "", false
	}
	return gemini.Media{Data: data, MIME: mimeType}, req.Prompt, true
}
