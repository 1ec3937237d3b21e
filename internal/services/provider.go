package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"docqa-backend/internal/config"
)

// NewCompleter builds the completion client selected by cfg.Provider. The
// returned close func releases the client and is always non-nil.
func NewCompleter(ctx context.Context, cfg *config.Config, logger *zap.Logger) (Completer, func(), error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, nil, logger), func() {}, nil
	case config.ProviderGemini:
		client, err := NewGeminiClient(ctx, cfg.GeminiAPIKey, logger)
		if err != nil {
			return nil, func() {}, err
		}
		return client, client.Close, nil
	default:
		return nil, func() {}, fmt.Errorf("unsupported provider %q", cfg.Provider)
	}
}
