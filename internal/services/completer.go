package services

import (
	"context"

	"docqa-backend/internal/models"
)

// Completer sends one prompt to a language model and returns the first
// choice's text. Implementations do not retry.
type Completer interface {
	Complete(ctx context.Context, model string, messages []models.PromptMessage) (string, error)
}
