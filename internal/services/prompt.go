package services

import (
	"docqa-backend/internal/models"
)

const imageDataURLPrefix = "data:image/jpeg;base64,"

// AssemblePrompt builds the completion messages for a set of extracted files
// and a question.
//
// One file yields one message: "<text>\n\nQuestion: <question>" for text, or
// an image part followed by the bare question for images. Several files yield
// one message per text file with the question withheld, one message holding
// every image part, and a final message carrying only the question, so the
// model sees all material before the question.
func AssemblePrompt(contents []models.ExtractedContent, question string) []models.PromptMessage {
	switch len(contents) {
	case 0:
		return []models.PromptMessage{models.TextMessage(models.RoleUser, question)}
	case 1:
		c := contents[0]
		if c.IsImage() {
			return []models.PromptMessage{models.PartsMessage(models.RoleUser,
				models.ImagePart(imageDataURL(c.Image)),
				models.TextPart(question),
			)}
		}
		return []models.PromptMessage{models.TextMessage(models.RoleUser, withQuestion(c.Text, question))}
	}

	messages := make([]models.PromptMessage, 0, len(contents)+2)
	var images []models.ContentPart
	for _, c := range contents {
		if c.IsImage() {
			images = append(images, models.ImagePart(imageDataURL(c.Image)))
			continue
		}
		messages = append(messages, models.TextMessage(models.RoleUser, withQuestion(c.Text, "")))
	}
	messages = append(messages,
		models.PartsMessage(models.RoleUser, images...),
		models.TextMessage(models.RoleUser, question),
	)
	return messages
}

// TranscriptMessages replays an interactive transcript as completion messages.
func TranscriptMessages(turns []models.ChatTurn) []models.PromptMessage {
	messages := make([]models.PromptMessage, len(turns))
	for i, t := range turns {
		messages[i] = models.TextMessage(t.Role, t.Text)
	}
	return messages
}

func withQuestion(text, question string) string {
	return text + "\n\nQuestion: " + question
}

func imageDataURL(b64 string) string {
	return imageDataURLPrefix + b64
}
