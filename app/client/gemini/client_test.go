package gemini

import (
	"errors"
	"fmt"
	"testing"

	"dischat/app/chat"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"rest quota", &googleapi.Error{Code: 429}, chat.ErrRateLimited},
		{"rest overloaded", &googleapi.Error{Code: 503}, chat.ErrOverloaded},
		{"rest internal", &googleapi.Error{Code: 500}, chat.ErrTransient},
		{"grpc quota", status.Error(codes.ResourceExhausted, "quota"), chat.ErrRateLimited},
		{"grpc unavailable", status.Error(codes.Unavailable, "overloaded"), chat.ErrOverloaded},
		{"wrapped quota", fmt.Errorf("call: %w", &googleapi.Error{Code: 429}), chat.ErrRateLimited},
		{"blocked", &genai.BlockedError{}, chat.ErrMalformedResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classify(tt.err); !errors.Is(got, tt.want) {
				t.Errorf("classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClassify_Other(t *testing.T) {
	err := classify(&googleapi.Error{Code: 400})

	if chat.IsRateLimited(err) || chat.IsOverloaded(err) || errors.Is(err, chat.ErrTransient) {
		t.Errorf("Expected bad request to stay unclassified, got %v", err)
	}
}

func TestExtractText(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []genai.Part{genai.Text("pineapple, "), genai.Text("obviously ")}}},
			{Content: &genai.Content{Parts: []genai.Part{genai.Text("ignored")}}},
		},
	}

	if got := extractText(resp); got != "pineapple, obviously" {
		t.Errorf("extractText() = %q", got)
	}
	if got := extractText(nil); got != "" {
		t.Errorf("Expected empty text for nil response, got %q", got)
	}
}
