package services

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"docqa-backend/internal/models"
)

// QAService answers a question about a set of uploaded files:
// extract each file, assemble the prompt, then make one completion call.
type QAService struct {
	extractor *FileExtractService
	completer Completer
	model     string
	logger    *zap.Logger
}

func NewQAService(extractor *FileExtractService, completer Completer, model string, logger *zap.Logger) *QAService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QAService{
		extractor: extractor,
		completer: completer,
		model:     model,
		logger:    logger,
	}
}

// Answer stops at the first file that fails extraction; no completion call is
// made in that case.
func (s *QAService) Answer(ctx context.Context, files []models.UploadedFile, question string) (string, error) {
	if len(files) == 0 && strings.TrimSpace(question) == "" {
		return "", &ValidationError{Message: "A file or a question is required"}
	}

	contents := make([]models.ExtractedContent, 0, len(files))
	for _, f := range files {
		c, err := s.extractor.Extract(f)
		if err != nil {
			s.logger.Info("extraction failed",
				zap.String("filename", f.Filename),
				zap.String("media_type", f.MediaType),
				zap.Error(err))
			return "", err
		}
		contents = append(contents, c)
	}

	messages := AssemblePrompt(contents, question)
	s.logger.Debug("prompt assembled",
		zap.Int("files", len(files)),
		zap.Int("messages", len(messages)),
		zap.String("model", s.model))

	return s.completer.Complete(ctx, s.model, messages)
}
