// Package llm talks to the chat-completion endpoint and supplies local
// fallback replies when the remote call cannot be completed.
package llm

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
)

// Completer is the contract the session consumes: given a user message and
// a system prompt, produce assistant text. Implementations must not surface
// transport errors to the caller; a degraded local reply is always returned
// instead.
type Completer interface {
	Complete(ctx context.Context, message, systemPrompt string) string
}

// Config configures the completion client.
type Config struct {
	APIKey      string
	BaseURL     string // optional override for self-hosted gateways
	Model       string
	Temperature float32
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Model:       openai.GPT4oMini,
		Temperature: 0.7,
	}
}

// Client sends chat completions and falls back locally on failure.
type Client struct {
	api      *openai.Client
	cfg      Config
	fallback *FallbackPool
	logger   zerolog.Logger
}

// NewClient creates a completion client. A nil fallback pool gets the
// default pool.
func NewClient(cfg Config, fallback *FallbackPool, logger zerolog.Logger) *Client {
	if cfg.Model == "" {
		cfg.Model = DefaultConfig().Model
	}
	if fallback == nil {
		fallback = NewFallbackPool()
	}

	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}

	return &Client{
		api:      openai.NewClientWithConfig(apiCfg),
		cfg:      cfg,
		fallback: fallback,
		logger:   logger.With().Str("component", "llm").Logger(),
	}
}

// Complete sends the message with the system prompt and returns the first
// choice. Quota exhaustion, network failures, and empty responses all
// degrade to a locally generated reply keyed off the outgoing message.
func (c *Client) Complete(ctx context.Context, message, systemPrompt string) string {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.cfg.Model,
		Temperature: c.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: message},
		},
	})
	if err != nil {
		if isQuotaExceeded(err) {
			c.logger.Warn().Msg("completion quota exceeded, using fallback")
		} else {
			c.logger.Error().Err(err).Msg("completion request failed, using fallback")
		}
		return c.fallback.Reply(message)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		c.logger.Warn().Msg("completion returned no choices, using fallback")
		return c.fallback.Reply(message)
	}

	return resp.Choices[0].Message.Content
}

func isQuotaExceeded(err error) bool {
	var apiErr *openai.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	if apiErr.Type == "insufficient_quota" {
		return true
	}
	if code, ok := apiErr.Code.(string); ok && code == "insufficient_quota" {
		return true
	}
	return false
}
