package aiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// maxResponseBytes caps how much of an upstream body is read.
const maxResponseBytes = 1 << 20

// ErrNotConfigured is returned when no API key is configured
var ErrNotConfigured = errors.New("ai generation is not configured")

// Generator turns a prompt into generated text
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Config holds the settings of an OpenAI-compatible chat completions endpoint
type Config struct {
	APIKey  string
	APIURL  string
	Model   string
	Timeout time.Duration
}

// Client calls an OpenAI-compatible chat completions endpoint in JSON mode
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient creates a new Client. A nil httpClient gets one with cfg.Timeout.
func NewClient(cfg Config, httpClient *http.Client, logger zerolog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		cfg:        cfg,
		httpClient: httpClient,
		logger:     logger,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	ResponseFormat responseFormat `json:"response_format"`
	Temperature    float64        `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

const systemPrompt = "You are a curriculum designer. Always answer with a single JSON object and nothing else."

// Generate sends prompt and returns the content of the first choice
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if c.cfg.APIKey == "" {
		return "", ErrNotConfigured
	}

	body, err := json.Marshal(chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		ResponseFormat: responseFormat{Type: "json_object"},
		Temperature:    0.7,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode ai request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build ai request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ai request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read ai response: %w", err)
	}

	c.logger.Debug().
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Str("model", c.cfg.Model).
		Msg("AI completion finished")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &UpstreamError{Status: resp.StatusCode, Details: string(raw)}
	}

	var out chatResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", &UpstreamError{Status: resp.StatusCode, Details: "malformed completion body: " + err.Error()}
	}
	if len(out.Choices) == 0 {
		return "", &UpstreamError{Status: resp.StatusCode, Details: "completion has no choices"}
	}
	return out.Choices[0].Message.Content, nil
}
