package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"dischat/app/chat"
	"dischat/app/config"

	"github.com/google/generative-ai-go/genai"
	"github.com/samber/do"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var _ do.Shutdownable = (*Client)(nil)

type Client struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

func NewClient(di *do.Injector) (*Client, error) {
	cfg := do.MustInvoke[*config.Config](di)

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(cfg.Generation.Gemini.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Client{
		client: client,
		model:  client.GenerativeModel(cfg.Generation.Gemini.Model),
	}, nil
}

func (c *Client) Generate(ctx context.Context, prompt string, opts chat.GenerateOptions) (string, error) {
	model := *c.model
	model.SetTemperature(opts.Temperature)
	model.SetTopP(opts.TopP)
	model.SetMaxOutputTokens(opts.MaxTokens)
	if opts.TopK > 0 {
		model.SetTopK(opts.TopK)
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", classify(err)
	}

	text := extractText(resp)
	if text == "" {
		return "", fmt.Errorf("%w: no text in response", chat.ErrMalformedResponse)
	}

	return text, nil
}

func (c *Client) Shutdown() error {
	return c.client.Close()
}

func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}

	var result strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			result.WriteString(string(text))
		}
	}

	return strings.TrimSpace(result.String())
}

// classify maps quota answers to chat.ErrRateLimited and temporary unavailability to
// chat.ErrOverloaded, whether the error came over gRPC or REST.
func classify(err error) error {
	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		return fmt.Errorf("%w: %w", chat.ErrMalformedResponse, err)
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusTooManyRequests:
			return fmt.Errorf("%w: %w", chat.ErrRateLimited, err)
		case http.StatusServiceUnavailable:
			return fmt.Errorf("%w: %w", chat.ErrOverloaded, err)
		}
		if apiErr.Code >= 500 {
			return fmt.Errorf("%w: %w", chat.ErrTransient, err)
		}
		return fmt.Errorf("gemini returned %d: %w", apiErr.Code, err)
	}

	if st, ok := status.FromError(err); ok {
		switch st.Code() {
		case codes.ResourceExhausted:
			return fmt.Errorf("%w: %w", chat.ErrRateLimited, err)
		case codes.Unavailable:
			return fmt.Errorf("%w: %w", chat.ErrOverloaded, err)
		case codes.Internal, codes.DeadlineExceeded, codes.Aborted:
			return fmt.Errorf("%w: %w", chat.ErrTransient, err)
		}
	}

	return fmt.Errorf("failed to generate content: %w", err)
}
