package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"dischat/app/chat"
	"dischat/app/config"

	"github.com/samber/do"
	"github.com/sashabaranov/go-openai"
)

type Client struct {
	client *openai.Client
	model  string
}

func NewClient(di *do.Injector) (*Client, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return New(cfg.Generation.OpenAI, cfg.Generation.Timeout), nil
}

func New(cfg config.OpenAI, timeout time.Duration) *Client {
	clientConfig := openai.DefaultConfig(cfg.Token)

	clientConfig.BaseURL = cfg.BaseURL
	clientConfig.HTTPClient = &http.Client{
		Timeout: timeout,
	}

	return &Client{
		client: openai.NewClientWithConfig(clientConfig),
		model:  cfg.Model,
	}
}

func (c *Client) Generate(ctx context.Context, prompt string, opts chat.GenerateOptions) (string, error) {
	aiResponse, err := c.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			MaxTokens:   int(opts.MaxTokens),
			Temperature: opts.Temperature,
			TopP:        opts.TopP,
		},
	)
	if err != nil {
		return "", classify(err)
	}

	if len(aiResponse.Choices) == 0 {
		return "", fmt.Errorf("%w: no chat completion found", chat.ErrMalformedResponse)
	}

	result := strings.TrimSpace(aiResponse.Choices[0].Message.Content)
	if result == "" {
		return "", fmt.Errorf("%w: empty chat completion", chat.ErrMalformedResponse)
	}

	return result, nil
}

func classify(err error) error {
	var statusCode int

	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		statusCode = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		statusCode = reqErr.HTTPStatusCode
	default:
		return fmt.Errorf("%w: failed to create chat completion: %w", chat.ErrTransient, err)
	}

	switch {
	case statusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %w", chat.ErrRateLimited, err)
	case statusCode == http.StatusServiceUnavailable:
		return fmt.Errorf("%w: %w", chat.ErrOverloaded, err)
	case statusCode >= 500:
		return fmt.Errorf("%w: %w", chat.ErrTransient, err)
	}

	return fmt.Errorf("failed to create chat completion: %w", err)
}
