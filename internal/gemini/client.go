package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
)

const modelImage = "gemini-2.5-flash-image"

const stylePromptTemplate = "A photorealistic, high quality, high resolution portrait of the person in the image with a new hairstyle. The new hairstyle should be a %s. Preserve the person's facial features, identity, expression, and skin tone. Place the person against a clean, plain, neutral studio background. Only the hair and the background should be changed."

const negativePrompt = "ugly, deformed, disfigured, poor quality, blurry, low resolution, noisy, watermark, text, signature, cartoon, anime, 3d render, painting, unrealistic, extra limbs, missing limbs, distorted face, unnatural hair color, cluttered background, outdoor scene, indoor room, complex background, patterns, textures, multiple people, original background"

const upscalePrompt = "Upscale this image to a higher resolution (4K). Enhance the details, sharpness, and clarity of the original image without altering any of its content, composition, or colors. The output must be a photorealistic, high-quality version of the input image."

var (
	ErrGenerationFailed = errors.New("image generation failed")
	ErrUpscaleFailed    = errors.New("image upscale failed")
)

type Options struct {
	APIKey     string
	BaseURL    string
	APIVersion string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

type Client struct {
	apiKey     string
	baseURL    string
	apiVersion string
	httpClient *http.Client
	logger     *slog.Logger
}

func New(opts Options) *Client {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com"
	}

	apiVersion := strings.TrimSpace(opts.APIVersion)
	if apiVersion == "" {
		apiVersion = "v1beta"
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Client{
		apiKey:     opts.APIKey,
		baseURL:    baseURL,
		apiVersion: apiVersion,
		httpClient: opts.HTTPClient,
		logger:     logger,
	}
}

// GenerateStyled renders the person in sourceDataURL with the requested
// hairstyle and returns the result as a data URL.
func (c *Client) GenerateStyled(ctx context.Context, sourceDataURL, stylePrompt string) (string, error) {
	prompt := fmt.Sprintf(stylePromptTemplate, stylePrompt)
	text := prompt + " --- NEGATIVE PROMPT: " + negativePrompt

	image, err := c.editImage(ctx, sourceDataURL, text)
	if err != nil {
		c.logger.Error("generation request failed", "err", err)
		return "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	return image, nil
}

// Upscale asks the model for a detail-enhanced version of the given image
// without changing its content.
func (c *Client) Upscale(ctx context.Context, sourceDataURL string) (string, error) {
	image, err := c.editImage(ctx, sourceDataURL, upscalePrompt)
	if err != nil {
		c.logger.Error("upscale request failed", "err", err)
		return "", fmt.Errorf("%w: %v", ErrUpscaleFailed, err)
	}
	return image, nil
}

func (c *Client) editImage(ctx context.Context, sourceDataURL, text string) (string, error) {
	inline, ok := dataURLToInlineData(sourceDataURL, "image/jpeg")
	if !ok {
		return "", errors.New("source image is empty")
	}

	req := generateContentRequest{
		Contents: []content{
			{Role: "user", Parts: []part{
				{InlineData: &inline},
				{Text: text},
			}},
		},
		GenerationConfig: generationConfig{
			ResponseModalities: []string{"IMAGE", "TEXT"},
			ImageConfig:        &imageConfig{AspectRatio: "1:1"},
		},
	}

	resp, err := c.generateContent(ctx, modelImage, req)
	if err != nil && req.GenerationConfig.ImageConfig != nil && isUnknownFieldError(err, "imageConfig") {
		req.GenerationConfig.ImageConfig = nil
		resp, err = c.generateContent(ctx, modelImage, req)
	}
	if err != nil {
		return "", err
	}
	if len(resp.Images) == 0 {
		return "", errors.New("no image in response")
	}
	return resp.Images[0], nil
}

func (c *Client) generateContent(ctx context.Context, model string, payload generateContentRequest) (Response, error) {
	if c.httpClient == nil {
		return Response{}, errors.New("http client is nil")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Response{}, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s/models/%s:generateContent", c.baseURL, c.apiVersion, model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Response{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("content-type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Response{}, fmt.Errorf("request: %w", err)
	}
	defer httpResp.Body.Close()

	rawBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return Response{}, fmt.Errorf("read response: %w", err)
	}

	if httpResp.StatusCode >= 400 {
		return Response{}, fmt.Errorf("gemini API %s: %s", httpResp.Status, strings.TrimSpace(string(rawBody)))
	}

	var decoded generateContentResponse
	if err := json.Unmarshal(rawBody, &decoded); err != nil {
		return Response{}, fmt.Errorf("decode response: %w", err)
	}

	return Response{Images: extractImages(decoded)}, nil
}

// extractImages collects the inline image parts as data URLs. Text parts are
// ignored; the model is only ever asked for an edited image.
func extractImages(resp generateContentResponse) []string {
	if len(resp.Candidates) == 0 {
		return nil
	}

	var images []string
	for _, p := range resp.Candidates[0].Content.Parts {
		if p.InlineData != nil && p.InlineData.Data != "" && p.InlineData.MimeType != "" {
			images = append(images, fmt.Sprintf("data:%s;base64,%s", p.InlineData.MimeType, p.InlineData.Data))
		}
	}
	return images
}

type generateContentRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig,omitempty"`
}

type generationConfig struct {
	ResponseModalities []string     `json:"responseModalities,omitempty"`
	ImageConfig        *imageConfig `json:"imageConfig,omitempty"`
}

type imageConfig struct {
	AspectRatio string `json:"aspectRatio,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text       string `json:"text,omitempty"`
	InlineData *blob  `json:"inlineData,omitempty"`
}

type blob struct {
	Data     string `json:"data"`
	MimeType string `json:"mimeType"`
}

type generateContentResponse struct {
	Candidates []candidate `json:"candidates"`
}

type candidate struct {
	Content content `json:"content"`
}

var dataURLRegex = regexp.MustCompile(`^data:([^;]+);base64,`)

func dataURLToInlineData(dataURL string, fallbackMime string) (blob, bool) {
	dataURL = strings.TrimSpace(dataURL)
	if dataURL == "" {
		return blob{}, false
	}

	mime := fallbackMime
	if matches := dataURLRegex.FindStringSubmatch(dataURL); len(matches) == 2 {
		mime = matches[1]
	}

	data := stripDataURLPrefix(dataURL)
	if data == "" {
		return blob{}, false
	}

	return blob{
		Data:     data,
		MimeType: mime,
	}, true
}

func stripDataURLPrefix(value string) string {
	if idx := strings.IndexByte(value, ','); idx >= 0 {
		return value[idx+1:]
	}
	return value
}

func isUnknownFieldError(err error, field string) bool {
	message := err.Error()
	return strings.Contains(message, "Unknown name") && strings.Contains(message, field)
}
