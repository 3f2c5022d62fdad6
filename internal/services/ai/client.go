package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/terraria-chatbot-go/internal/config"
	"github.com/terraria-chatbot-go/internal/services/fallback"
)

// Service represents the model client interface
type Service interface {
	// Generate produces an answer for the user's question given knowledge
	// snippets as context. It is total: every failure path returns the
	// canned fallback answer instead of an error.
	Generate(ctx context.Context, userText string, contextLines []string) string
}

const systemPromptTemplate = `You are a helpful Terraria expert assistant. Answer the user's question about Terraria using the provided context.

Context from Terraria knowledge base:
%s

Provide a helpful, accurate response about Terraria. Be specific and include practical advice when possible. Keep answers concise.`

// Client calls an OpenAI-compatible chat completions endpoint.
type Client struct {
	cfg        *config.LLMConfig
	fallback   *fallback.Responder
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewClient creates a model client. An empty API key is a valid degraded
// configuration: all calls delegate straight to the fallback responder.
func NewClient(cfg *config.LLMConfig, fb *fallback.Responder, logger *logrus.Logger) *Client {
	if cfg.APIKey == "" {
		logger.Warn("No LLM API key configured, serving canned fallback answers only")
	} else {
		logger.WithFields(logrus.Fields{
			"baseURL": cfg.BaseURL,
			"model":   cfg.Model,
			"stream":  cfg.Stream,
		}).Info("Model client initialized")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		cfg:      cfg,
		fallback: fb,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Generate asks the model and returns its text, or the canned fallback
// answer on any failure.
func (c *Client) Generate(ctx context.Context, userText string, contextLines []string) string {
	if c.cfg.APIKey == "" {
		return c.fallback.Respond(userText)
	}

	text, err := c.complete(ctx, userText, contextLines)
	if err != nil {
		c.logger.WithError(err).Warn("Model request failed, using fallback answer")
		return c.fallback.Respond(userText)
	}
	if strings.TrimSpace(text) == "" {
		c.logger.Warn("Model returned empty text, using fallback answer")
		return c.fallback.Respond(userText)
	}

	return text
}

// complete performs a single chat completions call, bulk or streamed
// depending on configuration.
func (c *Client) complete(ctx context.Context, userText string, contextLines []string) (string, error) {
	contextBlock := "No specific context found"
	if len(contextLines) > 0 {
		contextBlock = strings.Join(contextLines, "\n")
	}

	reqBody := map[string]interface{}{
		"model": c.cfg.Model,
		"messages": []map[string]string{
			{"role": "system", "content": fmt.Sprintf(systemPromptTemplate, contextBlock)},
			{"role": "user", "content": userText},
		},
		"max_tokens":  c.cfg.MaxTokens,
		"temperature": 0.7,
	}
	if c.cfg.Stream {
		reqBody["stream"] = true
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.httpClient.Timeout)
	defer cancel()

	url := fmt.Sprintf("%s/chat/completions", strings.TrimSuffix(c.cfg.BaseURL, "/"))
	req, err := http.NewRequestWithContext(reqCtx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.cfg.APIKey))

	c.logger.WithFields(logrus.Fields{
		"model":  c.cfg.Model,
		"url":    url,
		"stream": c.cfg.Stream,
	}).Debug("Sending model request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("model request failed with status %d: %s", resp.StatusCode, string(body))
	}

	if c.cfg.Stream {
		return readStream(resp.Body)
	}
	return readBulk(resp.Body)
}

// readBulk parses a single JSON completion body.
func readBulk(body io.Reader) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}

	if err := json.Unmarshal(data, &result); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if result.Error.Message != "" {
		return "", fmt.Errorf("model error: %s", result.Error.Message)
	}

	if len(result.Choices) == 0 || result.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("no response from model")
	}

	return result.Choices[0].Message.Content, nil
}
