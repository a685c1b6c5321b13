// Package gemini adapts the Google generative-media API to the three
// capabilities the gateway needs: synchronous keyframe generation and
// editing, and long-running image-to-video animation jobs.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"cinematica/internal/infra"
)

// credentialExpiredMarker is the upstream wording that distinguishes an
// invalid or expired API key from other animation failures. The match lives
// here and nowhere else; everything downstream branches on Kind.
const credentialExpiredMarker = "Requested entity was not found"

// Options controls how the adapter is configured.
type Options struct {
	APIKey     string
	ImageModel string
	VideoModel string
	HTTPClient *http.Client
	Logger     *infra.Logger
}

// Client is a thin facade over the Gemini SDK. It holds the only copy of the
// API credential and normalizes all failures into classified errors.
type Client struct {
	api        *genai.Client
	apiKey     string
	imageModel string
	videoModel string
	httpClient *http.Client
	logger     *infra.Logger
}

// Media is a generated payload with its MIME type.
type Media struct {
	Data []byte
	MIME string
}

// AnimationStatus reports one poll of a video render job.
type AnimationStatus struct {
	Done  bool
	Video *Media
}

// NewClient constructs the adapter. Callers may provide a nil HTTP client; a
// reusable one with a sensible timeout is created for result downloads.
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("gemini: api key is required")
	}

	api, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 120 * time.Second}
	}

	imageModel := opts.ImageModel
	if imageModel == "" {
		imageModel = "gemini-2.5-flash-image"
	}
	videoModel := opts.VideoModel
	if videoModel == "" {
		videoModel = "veo-3.1-fast-generate-preview"
	}

	logger := opts.Logger
	if logger == nil {
		discard := zerolog.Nop()
		logger = &discard
	}

	return &Client{
		api:        api,
		apiKey:     strings.TrimSpace(opts.APIKey),
		imageModel: imageModel,
		videoModel: videoModel,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// GenerateKeyframe produces a 16:9 still from the excerpt and the style's
// prompt suffix.
func (c *Client) GenerateKeyframe(ctx context.Context, prompt, styleSuffix string) (*Media, error) {
	const op = "generate keyframe"

	contents := []*genai.Content{{
		Role:  "user",
		Parts: []*genai.Part{{Text: KeyframePrompt(prompt, styleSuffix)}},
	}}
	cfg := &genai.GenerateContentConfig{
		ImageConfig: &genai.ImageConfig{AspectRatio: "16:9"},
	}

	resp, err := c.api.Models.GenerateContent(ctx, c.imageModel, contents, cfg)
	if err != nil {
		return nil, c.classify(op, err)
	}
	return firstInlineImage(op, resp)
}

// EditImage applies a free-text instruction to the current keyframe and
// returns the re-rendered image.
func (c *Client) EditImage(ctx context.Context, image Media, instruction string) (*Media, error) {
	const op = "edit image"

	contents := []*genai.Content{{
		Role: "user",
		Parts: []*genai.Part{
			{InlineData: &genai.Blob{MIMEType: imageMIME(image.MIME), Data: image.Data}},
			{Text: instruction},
		},
	}}

	resp, err := c.api.Models.GenerateContent(ctx, c.imageModel, contents, nil)
	if err != nil {
		return nil, c.classify(op, err)
	}
	return firstInlineImage(op, resp)
}

// StartAnimation submits a video render job and returns its operation name
// without waiting for completion.
func (c *Client) StartAnimation(ctx context.Context, image Media, prompt string) (string, error) {
	const op = "start animation"

	operation, err := c.api.Models.GenerateVideos(ctx, c.videoModel, AnimationPrompt(prompt),
		&genai.Image{ImageBytes: image.Data, MIMEType: imageMIME(image.MIME)},
		&genai.GenerateVideosConfig{
			NumberOfVideos: 1,
			Resolution:     "720p",
			AspectRatio:    "16:9",
		})
	if err != nil {
		return "", c.classify(op, err)
	}
	if operation == nil || operation.Name == "" {
		return "", &Error{Kind: KindGeneration, Op: op, Err: errors.New("no operation returned")}
	}

	c.logger.Debug().Str("operation", operation.Name).Msg("gemini: animation job started")
	return operation.Name, nil
}

// AnimationStatus re-queries a render job. When the job is done the result
// URI is fetched server-side, because it requires the API key as a query
// parameter and must never reach the client.
func (c *Client) AnimationStatus(ctx context.Context, operationName string) (*AnimationStatus, error) {
	const op = "animation status"

	operation, err := c.api.Operations.GetVideosOperation(ctx, &genai.GenerateVideosOperation{Name: operationName}, nil)
	if err != nil {
		return nil, c.classify(op, err)
	}
	if !operation.Done {
		return &AnimationStatus{Done: false}, nil
	}

	video := firstGeneratedVideo(operation)
	if video == nil {
		return nil, &Error{Kind: KindGeneration, Op: op, Err: errors.New("video generation failed")}
	}
	if len(video.VideoBytes) > 0 {
		return &AnimationStatus{Done: true, Video: &Media{Data: video.VideoBytes, MIME: videoMIME(video.MIMEType)}}, nil
	}
	if video.URI == "" {
		return nil, &Error{Kind: KindGeneration, Op: op, Err: errors.New("video generation failed")}
	}

	media, err := c.fetchVideo(ctx, video.URI)
	if err != nil {
		return nil, err
	}
	return &AnimationStatus{Done: true, Video: media}, nil
}

// Animate is the blocking variant: it starts a render job and polls it at a
// fixed interval until completion. The caller bounds the wait through ctx.
func (c *Client) Animate(ctx context.Context, image Media, prompt string, pollInterval time.Duration) (*Media, error) {
	if pollInterval <= 0 {
		pollInterval = 8 * time.Second
	}

	operationName, err := c.StartAnimation(ctx, image, prompt)
	if err != nil {
		return nil, err
	}

	for {
		status, err := c.AnimationStatus(ctx, operationName)
		if err != nil {
			return nil, err
		}
		if status.Done {
			return status.Video, nil
		}

		select {
		case <-ctx.Done():
			return nil, c.classify("animate", ctx.Err())
		case <-time.After(pollInterval):
		}
	}
}

// fetchVideo downloads the rendered clip from its time-limited result URI,
// appending the credential the URI requires.
func (c *Client) fetchVideo(ctx context.Context, uri string) (*Media, error) {
	const op = "fetch video"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Op: op, Err: err}
	}
	q := req.URL.Query()
	q.Set("key", c.apiKey)
	req.URL.RawQuery = q.Encode()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.classify(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &Error{Kind: KindTransport, Op: op, Err: fmt.Errorf("status %d", resp.StatusCode)}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Op: op, Err: err}
	}
	return &Media{Data: data, MIME: videoMIME(resp.Header.Get("Content-Type"))}, nil
}

// classify folds an upstream failure into a structured error kind.
func (c *Client) classify(op string, err error) error {
	if err == nil {
		return nil
	}
	kind := KindGeneration
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		kind = KindTimeout
	case errors.Is(err, context.Canceled):
		kind = KindTransport
	case strings.Contains(err.Error(), credentialExpiredMarker):
		kind = KindCredentialExpired
	case isTransport(err):
		kind = KindTransport
	}
	c.logger.Warn().Err(err).Str("op", op).Str("kind", string(kind)).Msg("gemini: request failed")
	return &Error{Kind: kind, Op: op, Err: err}
}

func isTransport(err error) bool {
	var ue *url.Error
	return errors.As(err, &ue)
}

func firstInlineImage(op string, resp *genai.GenerateContentResponse) (*Media, error) {
	if resp != nil {
		for _, candidate := range resp.Candidates {
			if candidate == nil || candidate.Content == nil {
				continue
			}
			for _, part := range candidate.Content.Parts {
				if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
					continue
				}
				return &Media{Data: part.InlineData.Data, MIME: imageMIME(part.InlineData.MIMEType)}, nil
			}
		}
	}
	return nil, &Error{Kind: KindGeneration, Op: op, Err: errors.New("no image data returned")}
}

func firstGeneratedVideo(operation *genai.GenerateVideosOperation) *genai.Video {
	if operation == nil || operation.Response == nil {
		return nil
	}
	for _, generated := range operation.Response.GeneratedVideos {
		if generated != nil && generated.Video != nil {
			return generated.Video
		}
	}
	return nil
}

// KeyframePrompt combines the excerpt with the style's suffix text.
func KeyframePrompt(prompt, styleSuffix string) string {
	prompt = strings.TrimSpace(prompt)
	styleSuffix = strings.TrimSpace(styleSuffix)
	if styleSuffix == "" {
		return prompt
	}
	return prompt + ". " + styleSuffix
}

// AnimationPrompt wraps the last successful image prompt into the motion
// instruction used for video renders.
func AnimationPrompt(prompt string) string {
	return "Bring this image to life: " + strings.TrimSpace(prompt) + ". Subtle cinematic motion."
}

func imageMIME(mime string) string {
	if mime == "" {
		return "image/png"
	}
	return mime
}

func videoMIME(mime string) string {
	if mime == "" || !strings.HasPrefix(mime, "video/") {
		return "video/mp4"
	}
	return mime
}
