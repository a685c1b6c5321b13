// Package client is the stateless media façade the studio session talks
// through. Each operation is one or more JSON round trips against the
// backend gateway; nothing is cached locally.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultPollInterval paces the animate-status loop.
	DefaultPollInterval = 5 * time.Second
	// DefaultMaxPollAttempts bounds the loop so a permanently stuck render
	// job surfaces as a timeout instead of polling forever.
	DefaultMaxPollAttempts = 120
)

// credentialExpiredMarker is matched only when the gateway response carries
// no machine code, for compatibility with older gateway builds.
const credentialExpiredMarker = "Requested entity was not found"

// Options configures a Client.
type Options struct {
	BaseURL         string
	HTTPClient      *http.Client
	PollInterval    time.Duration
	MaxPollAttempts int
	Logger          *zerolog.Logger
}

// Client calls the backend gateway.
type Client struct {
	baseURL         string
	httpClient      *http.Client
	pollInterval    time.Duration
	maxPollAttempts int
	logger          zerolog.Logger
}

// New validates options and constructs a Client.
func New(opts Options) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("client: base URL is required")
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 120 * time.Second}
	}

	pollInterval := opts.PollInterval
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	maxPollAttempts := opts.MaxPollAttempts
	if maxPollAttempts <= 0 {
		maxPollAttempts = DefaultMaxPollAttempts
	}

	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	return &Client{
		baseURL:         baseURL,
		httpClient:      httpClient,
		pollInterval:    pollInterval,
		maxPollAttempts: maxPollAttempts,
		logger:          logger,
	}, nil
}

type generateKeyframeRequest struct {
	Prompt      string `json:"prompt"`
	StyleSuffix string `json:"styleSuffix,omitempty"`
}

type editImageRequest struct {
	Base64Image string `json:"base64Image"`
	EditPrompt  string `json:"editPrompt"`
}

type animateRequest struct {
	Base64Image string `json:"base64Image"`
	Prompt      string `json:"prompt"`
}

type animateStatusRequest struct {
	OperationName string `json:"operationName"`
}

type imageResponse struct {
	Image string `json:"image"`
}

type animateStartResponse struct {
	OperationName string `json:"operationName"`
}

type animateStatusResponse struct {
	Done  bool   `json:"done"`
	Video string `json:"video"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// DraftKeyframe renders a fresh still from the excerpt and style suffix and
// returns it as a data URI.
func (c *Client) DraftKeyframe(ctx context.Context, excerpt, styleSuffix string) (string, error) {
	var out imageResponse
	err := c.post(ctx, "/v1/generate-keyframe", generateKeyframeRequest{Prompt: excerpt, StyleSuffix: styleSuffix}, &out)
	if err != nil {
		return "", err
	}
	if out.Image == "" {
		return "", &Error{Kind: KindGeneration, Message: "No image data returned"}
	}
	return out.Image, nil
}

// EditImage applies an instruction to the current keyframe and returns the
// replacement image as a data URI.
func (c *Client) EditImage(ctx context.Context, imageURI, instruction string) (string, error) {
	var out imageResponse
	err := c.post(ctx, "/v1/edit-image", editImageRequest{Base64Image: imageURI, EditPrompt: instruction}, &out)
	if err != nil {
		return "", err
	}
	if out.Image == "" {
		return "", &Error{Kind: KindGeneration, Message: "No image data returned"}
	}
	return out.Image, nil
}

// AnimateImage runs the two-phase video protocol: start the render job, then
// poll its status at a fixed interval until the gateway inlines the clip.
// progress, when non-nil, receives human-readable status text at least once
// before the first poll and again at every tick.
func (c *Client) AnimateImage(ctx context.Context, imageURI, prompt string, progress func(string)) (string, error) {
	var started animateStartResponse
	if err := c.post(ctx, "/v1/animate-start", animateRequest{Base64Image: imageURI, Prompt: prompt}, &started); err != nil {
		return "", err
	}
	if started.OperationName == "" {
		return "", &Error{Kind: KindGeneration, Message: "Failed to start animation"}
	}
	c.logger.Debug().Str("operation", started.OperationName).Msg("animation job started")

	if progress != nil {
		progress("Processing cinematic sequences...")
	}

	for attempt := 0; attempt < c.maxPollAttempts; attempt++ {
		var status animateStatusResponse
		if err := c.post(ctx, "/v1/animate-status", animateStatusRequest{OperationName: started.OperationName}, &status); err != nil {
			return "", err
		}
		if status.Done {
			if status.Video == "" {
				return "", &Error{Kind: KindGeneration, Message: "Video generation failed"}
			}
			return status.Video, nil
		}

		if progress != nil {
			progress("Processing cinematic sequences...")
		}
		select {
		case <-ctx.Done():
			return "", c.ctxError(ctx.Err())
		case <-time.After(c.pollInterval):
		}
	}

	return "", &Error{Kind: KindTimeout, Message: "Animation timed out before the render finished"}
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return &Error{Kind: KindValidation, Message: "Failed to encode request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return &Error{Kind: KindTransport, Message: "Failed to build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return c.ctxError(ctx.Err())
		}
		return &Error{Kind: KindTransport, Message: "Failed to reach the generation service", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return c.decodeFailure(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{Kind: KindTransport, Message: "Failed to decode response", Err: err}
	}
	return nil
}

func (c *Client) decodeFailure(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	var payload errorResponse
	_ = json.Unmarshal(body, &payload)

	message := payload.Error
	if message == "" {
		message = fmt.Sprintf("Generation service returned status %d", resp.StatusCode)
	}

	kind := kindFromCode(payload.Code)
	if kind == "" {
		switch {
		case strings.Contains(message, credentialExpiredMarker):
			kind = KindCredentialExpired
		case resp.StatusCode == http.StatusBadRequest:
			kind = KindValidation
		case resp.StatusCode == http.StatusGatewayTimeout:
			kind = KindTimeout
		default:
			kind = KindGeneration
		}
	}
	return &Error{Kind: kind, Message: message}
}

func (c *Client) ctxError(err error) error {
	if err == context.DeadlineExceeded {
		return &Error{Kind: KindTimeout, Message: "Animation timed out", Err: err}
	}
	return &Error{Kind: KindTransport, Message: "Operation cancelled", Err: err}
}

func kindFromCode(code string) Kind {
	switch Kind(code) {
	case KindValidation, KindGeneration, KindTransport, KindCredentialExpired, KindTimeout:
		return Kind(code)
	default:
		return ""
	}
}
