package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirillkom/smartcare-assistant/internal/core/attribution"
	"github.com/kirillkom/smartcare-assistant/internal/core/domain"
	"github.com/kirillkom/smartcare-assistant/internal/core/ports"
)

// TurnAuditUseCase is the worker side of turn-completed events.
type TurnAuditUseCase struct {
	recorder ports.TurnRecorder
	now      func() time.Time
}

func NewTurnAuditUseCase(recorder ports.TurnRecorder) *TurnAuditUseCase {
	return &TurnAuditUseCase{recorder: recorder, now: time.Now}
}

func (uc *TurnAuditUseCase) HandleTurnCompleted(_ context.Context, event domain.TurnCompleted) error {
	if event.MessageID == "" {
		return domain.WrapError(domain.ErrInvalidInput, "handle turn", fmt.Errorf("message_id is required"))
	}

	sources := attribution.DedupeByURL(event.Sources)
	sourceTypes := make([]string, 0, len(sources))
	for _, src := range sources {
		sourceTypes = append(sourceTypes, src.Type)
	}

	lag := time.Duration(-1)
	if !event.CreatedAt.IsZero() {
		lag = uc.now().Sub(event.CreatedAt)
	}
	uc.recorder.RecordTurn(event.Suppressed, sourceTypes, lag)

	slog.Info("turn_completed",
		"conversation_id", event.ConversationID,
		"message_id", event.MessageID,
		"candidates", event.Candidates,
		"sources", len(sources),
		"suppressed", event.Suppressed,
	)
	return nil
}
