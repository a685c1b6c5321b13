package handlers

import (
	"net/http"
	"strings"

	"cinematica/internal/datauri"
	"cinematica/internal/gemini"
)

type generateKeyframeRequest struct {
	Prompt      string `json:"prompt"`
	StyleSuffix string `json:"styleSuffix"`
}

type editImageRequest struct {
	Base64Image string `json:"base64Image"`
	EditPrompt  string `json:"editPrompt"`
}

type imageResponse struct {
	Image string `json:"image"`
}

// GenerateKeyframe renders a still from the excerpt plus the style suffix.
func (a *App) GenerateKeyframe(w http.ResponseWriter, r *http.Request) {
	var req generateKeyframeRequest
	if !a.decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "Prompt is required")
		return
	}

	media, err := a.Generator.GenerateKeyframe(r.Context(), req.Prompt, req.StyleSuffix)
	if err != nil {
		a.upstreamError(w, r, err, "Failed to generate image")
		return
	}
	a.json(w, http.StatusOK, imageResponse{Image: datauri.Encode(media.MIME, media.Data)})
}

// EditImage re-renders the supplied keyframe under a free-text instruction.
func (a *App) EditImage(w http.ResponseWriter, r *http.Request) {
	var req editImageRequest
	if !a.decodeBody(w, r, &req) {
		return
	}
	if req.Base64Image == "" || strings.TrimSpace(req.EditPrompt) == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "Image and edit prompt are required")
		return
	}

	data, mimeType, err := datauri.Decode(req.Base64Image)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "Image payload is not valid base64")
		return
	}

	media, err := a.Generator.EditImage(r.Context(), gemini.Media{Data: data, MIME: mimeType}, req.EditPrompt)
	if err != nil {
		a.upstreamError(w, r, err, "Failed to edit image")
		return
	}
	a.json(w, http.StatusOK, imageResponse{Image: datauri.Encode(media.MIME, media.Data)})
}
