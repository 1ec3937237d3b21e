package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"docqa-backend/internal/models"
)

// OpenAIClient talks to an OpenAI-compatible chat completions endpoint.
type OpenAIClient struct {
	client *openai.Client
	logger *zap.Logger
}

// NewOpenAIClient builds a client for apiKey. An empty baseURL keeps the
// library default; httpClient may be nil.
func NewOpenAIClient(apiKey, baseURL string, httpClient *http.Client, logger *zap.Logger) *OpenAIClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	hc := &http.Client{}
	if httpClient != nil {
		copied := *httpClient
		hc = &copied
	}
	base := hc.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	hc.Transport = promptTransport{base: base}
	cfg.HTTPClient = hc
	return &OpenAIClient{
		client: openai.NewClientWithConfig(cfg),
		logger: logger,
	}
}

func (c *OpenAIClient) Complete(ctx context.Context, model string, messages []models.PromptMessage) (string, error) {
	if hasEmptyParts(messages) {
		ctx = context.WithValue(ctx, promptKey{}, messages)
	}
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    model,
		Messages: toOpenAIMessages(messages),
	})
	if err != nil {
		return "", openAIError(err)
	}

	c.logger.Debug("completion received",
		zap.String("model", resp.Model),
		zap.Int("choices", len(resp.Choices)),
		zap.Int("total_tokens", resp.Usage.TotalTokens))

	if len(resp.Choices) == 0 {
		return "", &APIError{Message: "no choices in completion response"}
	}
	return resp.Choices[0].Message.Content, nil
}

func toOpenAIMessages(messages []models.PromptMessage) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		msg := openai.ChatCompletionMessage{Role: m.Role}
		if !m.IsMultipart() {
			msg.Content = m.Text
			out = append(out, msg)
			continue
		}
		for _, p := range m.Parts {
			switch p.Type {
			case models.PartTypeImageURL:
				msg.MultiContent = append(msg.MultiContent, openai.ChatMessagePart{
					Type:     openai.ChatMessagePartTypeImageURL,
					ImageURL: &openai.ChatMessageImageURL{URL: p.ImageURL.URL, Detail: openai.ImageURLDetailAuto},
				})
			default:
				msg.MultiContent = append(msg.MultiContent, openai.ChatMessagePart{
					Type: openai.ChatMessagePartTypeText,
					Text: p.Text,
				})
			}
		}
		out = append(out, msg)
	}
	return out
}

func hasEmptyParts(messages []models.PromptMessage) bool {
	for _, m := range messages {
		if m.IsMultipart() && len(m.Parts) == 0 {
			return true
		}
	}
	return false
}

type promptKey struct{}

// promptTransport rewrites the messages of an outgoing request with the
// PromptMessage encoding when the request context carries them. go-openai
// drops the content field of a message with no parts; the completion API
// expects "content": [] there.
type promptTransport struct {
	base http.RoundTripper
}

func (t promptTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	messages, ok := req.Context().Value(promptKey{}).([]models.PromptMessage)
	if !ok || req.Body == nil {
		return t.base.RoundTrip(req)
	}

	raw, err := io.ReadAll(req.Body)
	req.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("read request body: %w", err)
	}
	var body map[string]json.RawMessage
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("decode request body: %w", err)
	}
	encoded, err := json.Marshal(messages)
	if err != nil {
		return nil, fmt.Errorf("encode messages: %w", err)
	}
	body["messages"] = encoded
	out, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}

	clone := req.Clone(req.Context())
	clone.Body = io.NopCloser(bytes.NewReader(out))
	clone.ContentLength = int64(len(out))
	clone.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(out)), nil
	}
	return t.base.RoundTrip(clone)
}

func openAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		code := ""
		if apiErr.Code != nil {
			code = fmt.Sprint(apiErr.Code)
		}
		return &APIError{StatusCode: apiErr.HTTPStatusCode, Code: code, Message: apiErr.Message, Err: err}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &APIError{StatusCode: reqErr.HTTPStatusCode, Err: err}
	}

	return &APIError{Err: err}
}
