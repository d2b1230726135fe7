// Package completion implements core.CompletionService against the OpenAI
// chat-completions API.
package completion

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"junkobot/core"

	"github.com/sashabaranov/go-openai"
)

// Config holds the configuration for the completion client.
type Config struct {
	APIKey string `json:"api_key"`
	// BaseURL overrides the API endpoint. Empty means the public OpenAI API.
	BaseURL string        `json:"base_url,omitempty"`
	Model   string        `json:"model"`
	Timeout time.Duration `json:"timeout"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Model:   openai.GPT4o,
		Timeout: 30 * time.Second,
	}
}

// Client sends the full conversation history to the completion service and
// returns the assistant's reply. One attempt per call; every failure mode is
// folded into *core.CompletionError.
type Client struct {
	config Config
	logger *core.Logger

	mu            sync.RWMutex
	client        *openai.Client
	isInitialized bool
}

// NewClient creates a completion client with the provided config.
func NewClient(config Config, logger *core.Logger) *Client {
	defaults := DefaultConfig()
	if config.Model == "" {
		config.Model = defaults.Model
	}
	if config.Timeout == 0 {
		config.Timeout = defaults.Timeout
	}
	if logger == nil {
		logger = core.GetLogger()
	}
	return &Client{
		config: config,
		logger: logger,
	}
}

// Initialize validates the config and builds the underlying API client.
func (c *Client) Initialize(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.isInitialized {
		return nil
	}
	if c.config.APIKey == "" {
		return errors.New("completion API key is required")
	}

	apiConfig := openai.DefaultConfig(c.config.APIKey)
	if c.config.BaseURL != "" {
		apiConfig.BaseURL = c.config.BaseURL
	}
	c.client = openai.NewClientWithConfig(apiConfig)
	c.isInitialized = true
	return nil
}

// Cleanup releases the client.
func (c *Client) Cleanup() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.client = nil
	c.isInitialized = false
	return nil
}

// Complete implements core.CompletionService.
func (c *Client) Complete(ctx context.Context, history []core.ConversationTurn) (string, error) {
	c.mu.RLock()
	client := c.client
	initialized := c.isInitialized
	c.mu.RUnlock()

	if !initialized {
		return "", &core.CompletionError{
			Kind: core.CompletionTransport,
			Err:  errors.New("completion client not initialized"),
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	messages := make([]openai.ChatCompletionMessage, 0, len(history))
	for _, turn := range history {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    convertRole(turn.Role),
			Content: turn.Content,
		})
	}

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    c.config.Model,
		Messages: messages,
	})
	if err != nil {
		return "", c.classify(err)
	}

	if len(resp.Choices) == 0 {
		return "", &core.CompletionError{
			Kind: core.CompletionEmptyChoices,
			Err:  errors.New("response contained no choices"),
		}
	}

	return resp.Choices[0].Message.Content, nil
}

// classify folds the library's error surface into the single
// core.CompletionError taxonomy.
func (c *Client) classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		c.logger.With(map[string]interface{}{
			"status": apiErr.HTTPStatusCode,
			"type":   apiErr.Type,
		}).Error("completion request rejected")
		return &core.CompletionError{
			Kind:   core.CompletionBadStatus,
			Status: apiErr.HTTPStatusCode,
			Err:    err,
		}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &core.CompletionError{
			Kind:   core.CompletionBadStatus,
			Status: reqErr.HTTPStatusCode,
			Err:    err,
		}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) {
		return &core.CompletionError{
			Kind: core.CompletionTransport,
			Err:  fmt.Errorf("completion request failed: %w", err),
		}
	}

	return &core.CompletionError{
		Kind: core.CompletionBadBody,
		Err:  fmt.Errorf("decode completion response: %w", err),
	}
}

func convertRole(role core.TurnRole) string {
	switch role {
	case core.TurnRoleAssistant:
		return openai.ChatMessageRoleAssistant
	default:
		return openai.ChatMessageRoleUser
	}
}
