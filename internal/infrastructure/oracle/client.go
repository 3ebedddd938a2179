package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gizibunda/backend/internal/domain"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Options configures the chat completion client
type Options struct {
	APIKey       string
	BaseURL      string
	Model        string
	Temperature  float64
	Timeout      time.Duration
	RetryCount   int
	RetryWait    time.Duration
	RetryMaxWait time.Duration
}

// Client is a TextOracle backed by an OpenAI-compatible chat completions API
type Client struct {
	client      *resty.Client
	model       string
	temperature float64
	logger      *zap.Logger
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// NewClient creates a chat completion client
func NewClient(opts Options, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetAuthToken(opts.APIKey).
		SetHeader("Content-Type", "application/json").
		SetTimeout(opts.Timeout).
		SetRetryCount(opts.RetryCount).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= http.StatusInternalServerError
		})
	if opts.RetryWait > 0 {
		client.SetRetryWaitTime(opts.RetryWait)
	}
	if opts.RetryMaxWait > 0 {
		client.SetRetryMaxWaitTime(opts.RetryMaxWait)
	}

	return &Client{
		client:      client,
		model:       opts.Model,
		temperature: opts.Temperature,
		logger:      logger.Named("oracle"),
	}
}

// Complete sends the system prompt and prompt and returns the first choice's content
func (c *Client) Complete(ctx context.Context, systemPrompt, prompt string) (string, error) {
	messages := make([]chatMessage, 0, 2)
	if systemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, chatMessage{Role: "user", Content: prompt})

	start := time.Now()
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(chatRequest{
			Model:       c.model,
			Messages:    messages,
			Temperature: c.temperature,
		}).
		Post("/chat/completions")
	if err != nil {
		c.logger.Warn("chat completion request failed", zap.Error(err), zap.Duration("latency", time.Since(start)))
		return "", fmt.Errorf("%w: %v", domain.ErrOracleFailure, err)
	}

	if resp.StatusCode() != http.StatusOK {
		c.logger.Warn("chat completion returned error",
			zap.Int("status", resp.StatusCode()),
			zap.String("body", truncate(resp.String(), 512)),
		)
		return "", fmt.Errorf("%w: status %d", domain.ErrOracleFailure, resp.StatusCode())
	}

	var result chatResponse
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return "", fmt.Errorf("%w: failed to parse response: %v", domain.ErrOracleFailure, err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in response", domain.ErrOracleFailure)
	}

	c.logger.Debug("chat completion done",
		zap.String("model", c.model),
		zap.Duration("latency", time.Since(start)),
		zap.Int("attempts", resp.Request.Attempt),
	)

	return result.Choices[0].Message.Content, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
