package genai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com"
	DefaultModel   = "gemini-2.5-flash"
	defaultTimeout = 30 * time.Second
)

// ErrServiceUnavailable is returned internally when the service is not configured or fails.
// It never leaves this package: public operations resolve it to a neutral result.
var ErrServiceUnavailable = errors.New("generative service unavailable")

// Config configures the generative service client
type Config struct {
	BaseURL    string
	APIKey     string
	Model      string
	Timeout    time.Duration
	RetryCount int
	// Location is used to render slot times in prompts; defaults to time.Local
	Location *time.Location
}

// Client calls the Gemini generateContent REST endpoint
type Client struct {
	httpClient *resty.Client
	apiKey     string
	model      string
	loc        *time.Location
	logger     *zap.Logger
}

// NewClient creates a client. An empty API key yields a client whose calls
// all resolve to neutral results.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}

	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(1*time.Second).
		SetRetryMaxWaitTime(5*time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{
		httpClient: httpClient,
		apiKey:     cfg.APIKey,
		model:      model,
		loc:        loc,
		logger:     logger,
	}
}

// Enabled reports whether an API key is configured
func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	ResponseMimeType string         `json:"responseMimeType"`
	ResponseSchema   map[string]any `json:"responseSchema,omitempty"`
}

type generateRequest struct {
	SystemInstruction *content         `json:"systemInstruction,omitempty"`
	Contents          []content        `json:"contents"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// generateJSON sends one prompt and returns the text of the first candidate.
// An empty string with a nil error means the service answered without content.
func (c *Client) generateJSON(ctx context.Context, system, user string, schema map[string]any) (string, error) {
	if !c.Enabled() {
		return "", fmt.Errorf("%w: API key missing", ErrServiceUnavailable)
	}

	request := generateRequest{
		SystemInstruction: &content{Parts: []part{{Text: system}}},
		Contents:          []content{{Role: "user", Parts: []part{{Text: user}}}},
		GenerationConfig: generationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   schema,
		},
	}

	var response generateResponse
	var apiErr errorResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("x-goog-api-key", c.apiKey).
		SetBody(request).
		SetResult(&response).
		SetError(&apiErr).
		Post(fmt.Sprintf("/v1beta/models/%s:generateContent", c.model))
	if err != nil {
		return "", fmt.Errorf("%w: failed to call generateContent: %v", ErrServiceUnavailable, err)
	}

	if resp.IsError() {
		return "", fmt.Errorf("%w: generateContent returned %d: %s", ErrServiceUnavailable, resp.StatusCode(), apiErr.Error.Message)
	}

	if len(response.Candidates) == 0 {
		return "", nil
	}

	var text strings.Builder
	for _, p := range response.Candidates[0].Content.Parts {
		text.WriteString(p.Text)
	}
	return strings.TrimSpace(text.String()), nil
}
