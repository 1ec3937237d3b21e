// Package chat runs the interactive console conversation.
package chat

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"docqa-backend/internal/models"
	"docqa-backend/internal/services"
)

const exitCommand = "exit"

// Session keeps the transcript of one console conversation. Every request
// replays the whole transcript so the model keeps context.
type Session struct {
	completer  services.Completer
	model      string
	logger     *zap.Logger
	transcript []models.ChatTurn
}

func NewSession(completer services.Completer, model string, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		completer: completer,
		model:     model,
		logger:    logger,
	}
}

// Transcript returns a copy of the turns recorded so far.
func (s *Session) Transcript() []models.ChatTurn {
	return append([]models.ChatTurn(nil), s.transcript...)
}

// Run reads lines from in until EOF or "exit" (any case). The exit line is
// still sent and its reply printed before Run returns. A completion error
// ends the session and is returned.
func (s *Session) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "You: ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		s.transcript = append(s.transcript, models.ChatTurn{Role: models.RoleUser, Text: line})

		reply, err := s.completer.Complete(ctx, s.model, services.TranscriptMessages(s.transcript))
		if err != nil {
			s.logger.Error("chat completion failed", zap.Int("turns", len(s.transcript)), zap.Error(err))
			return err
		}

		fmt.Fprintf(out, "Assistant: %s\n", reply)

		if strings.EqualFold(line, exitCommand) {
			return nil
		}
		s.transcript = append(s.transcript, models.ChatTurn{Role: models.RoleAssistant, Text: reply})
	}
}
