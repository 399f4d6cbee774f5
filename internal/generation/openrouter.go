package generation

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"stylens-server/internal/domain"
)

// Generator produces image bytes from an assembled prompt and a set of
// reference image URLs. Satisfied by the OpenRouter client; tests use stubs.
type Generator interface {
	Generate(ctx context.Context, prompt string, imageURLs []string) ([]byte, error)
	Model() string
}

// Options configures the OpenRouter client.
type Options struct {
	APIKey     string
	BaseURL    string
	Model      string
	SiteURL    string
	SiteName   string
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

// Client calls OpenRouter's OpenAI-compatible chat completions endpoint with
// a multimodal user message and extracts the generated image from the
// response.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	siteURL    string
	siteName   string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient constructs an OpenRouter client. A nil HTTP client gets a
// reusable default sized for multi-second generation latency.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 110 * time.Second}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://openrouter.ai/api/v1"
	}
	model := opts.Model
	if model == "" {
		model = "google/gemini-3-pro-image-preview"
	}
	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		model:      model,
		siteURL:    opts.SiteURL,
		siteName:   opts.SiteName,
		httpClient: httpClient,
		logger:     opts.Logger,
	}
}

// Model returns the configured model identifier recorded on generation rows.
func (c *Client) Model() string {
	return c.model
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageRef `json:"image_url,omitempty"`
}

type imageRef struct {
	URL string `json:"url"`
}

type chatRequest struct {
	Model      string        `json:"model"`
	Messages   []chatMessage `json:"messages"`
	Modalities []string      `json:"modalities"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
			Images  []struct {
				ImageURL imageRef `json:"image_url"`
			} `json:"images"`
		} `json:"message"`
	} `json:"choices"`
}

var dataURIPrefix = regexp.MustCompile(`^data:image/\w+;base64,`)

// Generate sends one chat completion request with a single user message: one
// text part followed by one image part per reference URL. The returned bytes
// are the decoded image payload.
func (c *Client) Generate(ctx context.Context, prompt string, imageURLs []string) ([]byte, error) {
	parts := make([]contentPart, 0, 1+len(imageURLs))
	parts = append(parts, contentPart{Type: "text", Text: prompt})
	for _, url := range imageURLs {
		parts = append(parts, contentPart{Type: "image_url", ImageURL: &imageRef{URL: url}})
	}

	payload := chatRequest{
		Model:      c.model,
		Messages:   []chatMessage{{Role: "user", Content: parts}},
		Modalities: []string{"image", "text"},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("openrouter: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("openrouter: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	if c.siteURL != "" {
		req.Header.Set("HTTP-Referer", c.siteURL)
	}
	if c.siteName != "" {
		req.Header.Set("X-Title", c.siteName)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openrouter: invoke: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		errText, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("openrouter: status %d: %s", resp.StatusCode, strings.TrimSpace(string(errText)))
	}

	var result chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("openrouter: decode response: %w", err)
	}

	encoded := extractImagePayload(result)
	if encoded == "" {
		// Text-only answer or refusal; the caller refunds the debit.
		c.logger.Warn().Str("model", c.model).Msg("openrouter returned no image payload")
		return nil, domain.ErrNoImageGenerated
	}

	data, err := base64.StdEncoding.DecodeString(dataURIPrefix.ReplaceAllString(encoded, ""))
	if err != nil {
		return nil, fmt.Errorf("openrouter: decode image: %w", err)
	}
	return data, nil
}

func extractImagePayload(result chatResponse) string {
	if len(result.Choices) == 0 {
		return ""
	}
	images := result.Choices[0].Message.Images
	if len(images) == 0 {
		return ""
	}
	return images[0].ImageURL.URL
}

var _ Generator = (*Client)(nil)
