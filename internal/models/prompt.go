package models

import (
	"encoding/json"
)

const (
	PartTypeText     = "text"
	PartTypeImageURL = "image_url"
)

type ImageURL struct {
	URL string `json:"url"`
}

// ContentPart is one typed element of a multi-part message.
type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

func TextPart(text string) ContentPart {
	return ContentPart{Type: PartTypeText, Text: text}
}

func ImagePart(url string) ContentPart {
	return ContentPart{Type: PartTypeImageURL, ImageURL: &ImageURL{URL: url}}
}

// PromptMessage carries either plain text or an ordered list of parts.
// A non-nil Parts slice marks the message as multi-part, even when empty.
type PromptMessage struct {
	Role  string
	Text  string
	Parts []ContentPart
}

func TextMessage(role, text string) PromptMessage {
	return PromptMessage{Role: role, Text: text}
}

func PartsMessage(role string, parts ...ContentPart) PromptMessage {
	p := make([]ContentPart, 0, len(parts))
	p = append(p, parts...)
	return PromptMessage{Role: role, Parts: p}
}

func (m PromptMessage) IsMultipart() bool {
	return m.Parts != nil
}

// MarshalJSON renders the message the way the completion API expects it:
// content is a string for text messages and an array for multi-part ones.
func (m PromptMessage) MarshalJSON() ([]byte, error) {
	if m.IsMultipart() {
		return json.Marshal(struct {
			Role    string        `json:"role"`
			Content []ContentPart `json:"content"`
		}{m.Role, m.Parts})
	}
	return json.Marshal(struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}{m.Role, m.Text})
}
