package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/smartcare-assistant/internal/core/attribution"
	"github.com/kirillkom/smartcare-assistant/internal/core/domain"
)

const headacheAnswer = "Try resting in a dark room and staying hydrated; see a doctor if it persists."

func headachePassage() domain.Passage {
	return domain.Passage{
		Text: "Headaches are pain in any region of the head. Most are not caused by a serious illness.",
		Metadata: map[string]string{
			domain.MetadataSource: "https://medlineplus.gov/headache.html",
			domain.MetadataTitle:  "Headache",
		},
	}
}

type chatFixture struct {
	uc        *ChatUseCase
	completer *completerFake
	store     *messageStoreFake
	publisher *publisherFake
	observer  *observerFake
}

func newChatFixture(answer string, sources ...NamedRetriever) chatFixture {
	cfg := attribution.DefaultConfig()
	f := chatFixture{
		completer: &completerFake{answer: answer},
		store:     &messageStoreFake{},
		publisher: &publisherFake{},
		observer:  &observerFake{},
	}
	f.uc = NewChatUseCase(
		NewSourceRegistry(time.Second, f.observer, sources...),
		attribution.NewAssembler(cfg),
		f.completer,
		attribution.NewFilter(cfg, nil),
		f.store,
		f.publisher,
		f.observer,
		ChatLimits{},
	)
	return f
}

func TestChatUseCaseHeadacheScenario(t *testing.T) {
	f := newChatFixture(headacheAnswer, NamedRetriever{
		Label:     "MedlinePlus",
		Retriever: &retrieverFake{passages: []domain.Passage{headachePassage()}},
	})

	result, err := f.uc.Ask(context.Background(), domain.ChatRequest{UserID: "u1", Message: "I have a headache"})
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if result.Text != headacheAnswer {
		t.Fatalf("unexpected answer: %q", result.Text)
	}
	want := domain.AttributedSource{Type: "MedlinePlus", Name: "MedlinePlus - Headache", URL: "https://medlineplus.gov/headache.html"}
	if len(result.Sources) != 1 || result.Sources[0] != want {
		t.Fatalf("unexpected sources: %+v", result.Sources)
	}
	if result.ConversationID == "" || result.MessageID == "" {
		t.Fatalf("expected generated ids, got %+v", result)
	}
	if !strings.HasPrefix(f.completer.contextText, "MEDLINEPLUS SOURCES:\nSource 1: Headaches are pain") {
		t.Fatalf("unexpected context: %q", f.completer.contextText)
	}
	if f.completer.history != "User: I have a headache\n" {
		t.Fatalf("unexpected history: %q", f.completer.history)
	}

	if len(f.store.appended) != 2 {
		t.Fatalf("expected user and bot message persisted, got %d", len(f.store.appended))
	}
	userMsg, botMsg := f.store.appended[0], f.store.appended[1]
	if userMsg.Sender != domain.SenderUser || userMsg.Text != "I have a headache" || len(userMsg.Sources) != 0 {
		t.Fatalf("unexpected user message: %+v", userMsg)
	}
	if botMsg.Sender != domain.SenderBot || botMsg.ID != result.MessageID || len(botMsg.Sources) != 1 {
		t.Fatalf("unexpected bot message: %+v", botMsg)
	}
	if !botMsg.CreatedAt.After(userMsg.CreatedAt) {
		t.Fatalf("bot message must sort after user message")
	}

	if len(f.publisher.events) != 1 || f.publisher.events[0].MessageID != result.MessageID {
		t.Fatalf("unexpected events: %+v", f.publisher.events)
	}
	if f.observer.attributed != 1 || f.observer.suppressed {
		t.Fatalf("unexpected attribution observation: %+v", f.observer)
	}
}

func TestChatUseCaseSuppressesConversationalAnswer(t *testing.T) {
	f := newChatFixture("You're welcome! Take care.", NamedRetriever{
		Label:     "MedlinePlus",
		Retriever: &retrieverFake{passages: []domain.Passage{headachePassage()}},
	})

	result, err := f.uc.Ask(context.Background(), domain.ChatRequest{UserID: "u1", Message: "thanks"})
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if len(result.Sources) != 0 {
		t.Fatalf("expected no sources, got %+v", result.Sources)
	}
	if !f.observer.suppressed || !f.publisher.events[0].Suppressed {
		t.Fatalf("expected suppressed turn")
	}
	if len(f.store.appended) != 2 {
		t.Fatalf("suppressed turn still persists messages")
	}
}

func TestChatUseCaseHistoryWindow(t *testing.T) {
	f := newChatFixture(headacheAnswer)
	f.store.recent = []domain.ChatMessage{
		{Sender: domain.SenderUser, Text: "hello"},
		{Sender: domain.SenderBot, Text: "Hi! How can I help?"},
	}

	_, err := f.uc.Ask(context.Background(), domain.ChatRequest{
		UserID:         "u1",
		UserName:       "alice",
		ConversationID: "conv-1",
		Message:        "  what helps a headache?  ",
	})
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if f.store.recentLimit != 5 {
		t.Fatalf("expected 5 stored messages requested, got %d", f.store.recentLimit)
	}
	want := "alice: hello\nSmartCare: Hi! How can I help?\nalice: what helps a headache?\n"
	if f.completer.history != want {
		t.Fatalf("unexpected history:\n%q\nwant\n%q", f.completer.history, want)
	}
	if f.completer.question != "what helps a headache?" {
		t.Fatalf("unexpected question: %q", f.completer.question)
	}
	if f.store.appended[0].ConversationID != "conv-1" {
		t.Fatalf("expected supplied conversation id")
	}
}

func TestChatUseCaseAllSourcesFailedStillCompletes(t *testing.T) {
	f := newChatFixture(headacheAnswer, NamedRetriever{
		Label:     "MedlinePlus",
		Retriever: &retrieverFake{err: errors.New("down")},
	})

	result, err := f.uc.Ask(context.Background(), domain.ChatRequest{UserID: "u1", Message: "q"})
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if f.completer.calls != 1 || f.completer.contextText != "" {
		t.Fatalf("expected completion with empty context, got %d calls / %q", f.completer.calls, f.completer.contextText)
	}
	if len(result.Sources) != 0 {
		t.Fatalf("expected no sources, got %+v", result.Sources)
	}
}

func TestChatUseCaseCompletionFailurePersistsNothing(t *testing.T) {
	f := newChatFixture("", NamedRetriever{
		Label:     "MedlinePlus",
		Retriever: &retrieverFake{passages: []domain.Passage{headachePassage()}},
	})
	f.completer.err = domain.WrapError(domain.ErrTemporary, "groq", errors.New("503"))

	_, err := f.uc.Ask(context.Background(), domain.ChatRequest{UserID: "u1", Message: "q"})
	if !domain.IsKind(err, domain.ErrCompletion) || !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary completion error, got %v", err)
	}
	if len(f.store.appended) != 0 || len(f.publisher.events) != 0 {
		t.Fatalf("failed turn must not be persisted or published")
	}
	if f.observer.completionErrors != 1 {
		t.Fatalf("expected observed completion failure")
	}
}

func TestChatUseCaseEmptyAnswerIsCompletionError(t *testing.T) {
	f := newChatFixture("   ")
	_, err := f.uc.Ask(context.Background(), domain.ChatRequest{UserID: "u1", Message: "q"})
	if !domain.IsKind(err, domain.ErrCompletion) {
		t.Fatalf("expected ErrCompletion, got %v", err)
	}
}

func TestChatUseCaseValidation(t *testing.T) {
	f := newChatFixture(headacheAnswer)
	cases := []domain.ChatRequest{
		{UserID: "", Message: "q"},
		{UserID: "u1", Message: "   "},
	}
	for _, req := range cases {
		if _, err := f.uc.Ask(context.Background(), req); !domain.IsKind(err, domain.ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput for %+v, got %v", req, err)
		}
	}
	if f.completer.calls != 0 {
		t.Fatalf("invalid requests must not reach the model")
	}
}

func TestChatUseCaseCanceledContext(t *testing.T) {
	f := newChatFixture(headacheAnswer, NamedRetriever{
		Label:     "MedlinePlus",
		Retriever: &retrieverFake{passages: []domain.Passage{headachePassage()}},
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.uc.Ask(ctx, domain.ChatRequest{UserID: "u1", Message: "q"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if f.completer.calls != 0 || len(f.store.appended) != 0 {
		t.Fatalf("canceled turn must stop before completion")
	}
}

func TestChatUseCasePublishFailureIsNotFatal(t *testing.T) {
	f := newChatFixture(headacheAnswer)
	f.publisher.err = errors.New("nats down")

	if _, err := f.uc.Ask(context.Background(), domain.ChatRequest{UserID: "u1", Message: "q"}); err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if len(f.store.appended) != 2 {
		t.Fatalf("turn must be stored before publishing")
	}
}

func TestChatUseCaseStoreFailure(t *testing.T) {
	f := newChatFixture(headacheAnswer)
	f.store.appendErr = errors.New("db down")

	if _, err := f.uc.Ask(context.Background(), domain.ChatRequest{UserID: "u1", Message: "q"}); err == nil {
		t.Fatalf("expected store error")
	}
	if len(f.publisher.events) != 0 {
		t.Fatalf("unstored turn must not be published")
	}
}
