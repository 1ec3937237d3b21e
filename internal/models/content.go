package models

// UploadedFile is one file received with an ask request. Path is the scratch
// location the bytes were written to and may be empty when the file only
// exists in memory.
type UploadedFile struct {
	MediaType string
	Filename  string
	Path      string
	Data      []byte
}

type ContentKind int

const (
	ContentText ContentKind = iota
	ContentImage
)

// ExtractedContent is either text or a base64 image payload.
type ExtractedContent struct {
	Kind  ContentKind
	Text  string
	Image string // base64, only set for ContentImage
}

func TextContent(text string) ExtractedContent {
	return ExtractedContent{Kind: ContentText, Text: text}
}

func ImageContent(b64 string) ExtractedContent {
	return ExtractedContent{Kind: ContentImage, Image: b64}
}

func (c ExtractedContent) IsImage() bool {
	return c.Kind == ContentImage
}

type SupportedFormat struct {
	Extension   string `json:"extension"`
	MimeType    string `json:"mime_type"`
	Description string `json:"description"`
}
