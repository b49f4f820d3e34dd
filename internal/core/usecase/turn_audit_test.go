package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/kirillkom/smartcare-assistant/internal/core/domain"
)

type turnRecorderFake struct {
	suppressed bool
	types      []string
	lag        time.Duration
	calls      int
}

func (f *turnRecorderFake) RecordTurn(suppressed bool, sourceTypes []string, lag time.Duration) {
	f.calls++
	f.suppressed = suppressed
	f.types = sourceTypes
	f.lag = lag
}

func TestTurnAuditRecordsDedupedSourceTypes(t *testing.T) {
	recorder := &turnRecorderFake{}
	uc := NewTurnAuditUseCase(recorder)
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	uc.now = func() time.Time { return created.Add(2 * time.Second) }

	err := uc.HandleTurnCompleted(context.Background(), domain.TurnCompleted{
		MessageID: "m-1",
		Sources: []domain.AttributedSource{
			{Type: "MedlinePlus", URL: "https://medlineplus.gov/flu.html"},
			{Type: "MedlinePlus", URL: "https://medlineplus.gov/flu.html"},
			{Type: "Mayo Clinic", URL: "https://www.mayoclinic.org/diseases-conditions/flu/"},
		},
		CreatedAt: created,
	})
	if err != nil {
		t.Fatalf("HandleTurnCompleted() error = %v", err)
	}
	if len(recorder.types) != 2 || recorder.types[0] != "MedlinePlus" || recorder.types[1] != "Mayo Clinic" {
		t.Fatalf("unexpected source types: %v", recorder.types)
	}
	if recorder.lag != 2*time.Second {
		t.Fatalf("unexpected lag: %s", recorder.lag)
	}
}

func TestTurnAuditRejectsEventWithoutMessageID(t *testing.T) {
	recorder := &turnRecorderFake{}
	err := NewTurnAuditUseCase(recorder).HandleTurnCompleted(context.Background(), domain.TurnCompleted{})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if recorder.calls != 0 {
		t.Fatalf("invalid event must not be recorded")
	}
}
