package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"docqa-backend/internal/models"
)

// GeminiClient implements Completer on top of the Gemini API.
type GeminiClient struct {
	client *genai.Client
	logger *zap.Logger
}

func NewGeminiClient(ctx context.Context, apiKey string, logger *zap.Logger) (*GeminiClient, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiClient{client: client, logger: logger}, nil
}

func (c *GeminiClient) Close() {
	c.client.Close()
}

// Complete replays all but the last message as chat history and sends the
// last one.
func (c *GeminiClient) Complete(ctx context.Context, model string, messages []models.PromptMessage) (string, error) {
	if len(messages) == 0 {
		return "", &APIError{Message: "no messages to send"}
	}

	contents, err := toGeminiContents(messages)
	if err != nil {
		return "", &APIError{Err: err}
	}
	if len(contents) == 0 {
		return "", &APIError{Message: "no content to send"}
	}

	m := c.client.GenerativeModel(model)
	cs := m.StartChat()
	cs.History = contents[:len(contents)-1]

	last := contents[len(contents)-1]
	resp, err := cs.SendMessage(ctx, last.Parts...)
	if err != nil {
		return "", geminiError(err)
	}

	if len(resp.Candidates) == 0 {
		return "", &APIError{Message: "no candidates in completion response"}
	}
	cand := resp.Candidates[0]
	if cand.FinishReason != genai.FinishReasonStop {
		c.logger.Warn("gemini stopped early",
			zap.String("model", model),
			zap.String("finish_reason", cand.FinishReason.String()))
	}

	return candidateText(cand), nil
}

func toGeminiContents(messages []models.PromptMessage) ([]*genai.Content, error) {
	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		role := "user"
		if m.Role == models.RoleAssistant {
			role = "model"
		}

		var parts []genai.Part
		if !m.IsMultipart() && m.Text != "" {
			parts = append(parts, genai.Text(m.Text))
		}
		for _, p := range m.Parts {
			if p.Type != models.PartTypeImageURL {
				if p.Text != "" {
					parts = append(parts, genai.Text(p.Text))
				}
				continue
			}
			blob, err := dataURLBlob(p.ImageURL.URL)
			if err != nil {
				return nil, err
			}
			parts = append(parts, blob)
		}
		// Gemini rejects empty text parts and content without parts, so a
		// message with nothing to say is left out.
		if len(parts) == 0 {
			continue
		}
		contents = append(contents, &genai.Content{Role: role, Parts: parts})
	}
	return contents, nil
}

func dataURLBlob(url string) (genai.Blob, error) {
	rest, ok := strings.CutPrefix(url, "data:")
	if !ok {
		return genai.Blob{}, fmt.Errorf("unsupported image url")
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok || !strings.HasSuffix(header, ";base64") {
		return genai.Blob{}, fmt.Errorf("malformed data url")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return genai.Blob{}, fmt.Errorf("decode image payload: %w", err)
	}
	return genai.Blob{MIMEType: strings.TrimSuffix(header, ";base64"), Data: data}, nil
}

func candidateText(cand *genai.Candidate) string {
	var text strings.Builder
	if cand.Content != nil {
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				text.WriteString(string(t))
			}
		}
	}
	return text.String()
}

func geminiError(err error) error {
	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return &APIError{StatusCode: gErr.Code, Message: gErr.Message, Err: err}
	}
	return &APIError{Err: err}
}
