// Package gemini wraps the Google generative AI service behind the small
// Completer interface the orchestrator consumes.
package gemini

import (
	"context"
	"encoding/base64"
	"strings"

	"google.golang.org/genai"

	"github.com/glintlab/feedbackd/internal/domain"
)

// Completer is the AI completion contract. Complete sends the conversation
// history (excluding the latest user turn, which is folded into prompt) and
// returns the model's reply text. It never retries; classification of
// failures is the implementation's job, retry policy is the caller's.
type Completer interface {
	Complete(ctx context.Context, history []domain.Message, prompt string, images []domain.Image) (string, error)
}

// Client is the Gemini-backed Completer.
type Client struct {
	client *genai.Client
	model  string
}

// NewClient creates a Gemini client for the given API key and model.
func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	if apiKey == "" {
		return nil, domain.NewError(domain.ErrCodeNoAIService, "Gemini API key is required", nil)
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, domain.NewError(domain.ErrCodeNoAIService, "failed to create Gemini client", err)
	}
	return &Client{client: client, model: model}, nil
}

var _ Completer = (*Client)(nil)

// Complete sends history plus the prompt (with any inline images) and returns
// the reply text.
func (c *Client) Complete(ctx context.Context, history []domain.Message, prompt string, images []domain.Image) (string, error) {
	contents := convertHistory(history)

	parts := []*genai.Part{{Text: prompt}}
	for _, img := range images {
		data, err := decodeImage(img)
		if err != nil {
			return "", domain.NewError(domain.ErrCodeMessageInvalid, "invalid image data", err)
		}
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{MIMEType: img.MimeType, Data: data},
		})
	}
	contents = append(contents, &genai.Content{Role: "user", Parts: parts})

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(0.7)),
	})
	if err != nil {
		return "", classify(err)
	}

	text := extractText(resp)
	if text == "" {
		return "", domain.NewError(domain.ErrCodeAIUnknown, "model returned no text", nil)
	}
	return text, nil
}

func convertHistory(messages []domain.Message) []*genai.Content {
	var contents []*genai.Content
	for _, msg := range messages {
		role := "user"
		if msg.Role == domain.RoleAssistant {
			role = "model"
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: msg.Content}},
		})
	}
	return contents
}

func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return sb.String()
}

func decodeImage(img domain.Image) ([]byte, error) {
	data := img.Data
	// Widgets send data URLs; keep only the payload.
	if idx := strings.Index(data, ";base64,"); idx >= 0 {
		data = data[idx+len(";base64,"):]
	}
	return base64.StdEncoding.DecodeString(data)
}
