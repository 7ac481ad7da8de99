package services

import (
	"context"

	"github.com/rs/zerolog"

	"formassist-backend/internal/conversation"
	"formassist-backend/internal/logging"
	"formassist-backend/internal/models"
)

// AssistService answers AI_REQUEST messages from the extension's UI surfaces.
type AssistService struct {
	dispatcher conversation.Dispatcher
	log        zerolog.Logger
}

func NewAssistService(d conversation.Dispatcher, log zerolog.Logger) *AssistService {
	return &AssistService{dispatcher: d, log: logging.Component(log, "assist")}
}

// Handle never returns an error; failures become {success:false, error}.
func (s *AssistService) Handle(ctx context.Context, env models.AIRequestEnvelope) models.AIResponseEnvelope {
	if env.Type != models.MessageTypeAIRequest {
		return models.AIResponseEnvelope{Error: "Unknown message type"}
	}
	data, err := s.dispatcher.Dispatch(ctx, env.Data)
	if err != nil {
		s.log.Error().Err(err).Msg("AI request failed")
		return models.AIResponseEnvelope{Error: "AI request failed"}
	}
	return models.AIResponseEnvelope{Success: true, Data: data}
}
