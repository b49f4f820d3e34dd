package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/smartcare-assistant/internal/config"
	"github.com/kirillkom/smartcare-assistant/internal/core/domain"
	"github.com/kirillkom/smartcare-assistant/internal/core/ports"
)

const maxRequestBodyBytes = 64 << 10

type Router struct {
	cfg     config.Config
	chat    ports.ChatService
	history ports.HistoryService

	metrics   MetricsRecorder
	readiness func(context.Context) error
}

// MetricsRecorder exposes Prometheus metrics and wraps handlers with request instrumentation.
type MetricsRecorder interface {
	Handler() http.Handler
	Middleware(next http.Handler) http.Handler
}

type RouterOption func(*Router)

func WithMetrics(metrics MetricsRecorder) RouterOption {
	return func(rt *Router) {
		rt.metrics = metrics
	}
}

// WithReadiness makes /healthz report 503 while check fails.
func WithReadiness(check func(context.Context) error) RouterOption {
	return func(rt *Router) {
		rt.readiness = check
	}
}

func NewRouter(cfg config.Config, chat ports.ChatService, history ports.HistoryService, opts ...RouterOption) *Router {
	rt := &Router{
		cfg:     cfg,
		chat:    chat,
		history: history,
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	if rt.metrics != nil {
		mux.Handle("GET /metrics", rt.metrics.Handler())
	}
	mux.HandleFunc("POST /v1/chat", rt.postChat)
	mux.HandleFunc("GET /v1/messages/{id}/sources", rt.getMessageSources)
	mux.HandleFunc("GET /v1/history", rt.getHistory)
	mux.HandleFunc("DELETE /v1/history", rt.clearHistory)
	mux.HandleFunc("POST /v1/conversations", rt.newConversation)
	mux.HandleFunc("GET /v1/conversations/{id}/messages", rt.getConversationMessages)

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, rt.cfg.MaxInFlight, 100*time.Millisecond)
	handler = rateLimitMiddleware(handler, rt.cfg.RateLimitRPS, rt.cfg.RateLimitBurst)
	handler = authMiddleware(handler, rt.cfg.APIKey)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(handler)
	}
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, r *http.Request) {
	if rt.readiness != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := rt.readiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) postChat(w http.ResponseWriter, r *http.Request) {
	var req domain.ChatRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid_json", Message: "request body must be a JSON object"})
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid_input", Message: "message is required"})
		return
	}

	answer, err := rt.chat.Ask(r.Context(), req)
	if err != nil {
		rt.writeError(w, r, "chat", err)
		return
	}
	writeJSON(w, http.StatusOK, answer)
}

func (rt *Router) getMessageSources(w http.ResponseWriter, r *http.Request) {
	sources, err := rt.history.MessageSources(r.Context(), r.URL.Query().Get("user_id"), r.PathValue("id"))
	if err != nil {
		rt.writeError(w, r, "message sources", err)
		return
	}
	if sources == nil {
		sources = []domain.AttributedSource{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"sources": sources})
}

func (rt *Router) getHistory(w http.ResponseWriter, r *http.Request) {
	messages, err := rt.history.UserHistory(r.Context(), r.URL.Query().Get("user_id"))
	if err != nil {
		rt.writeError(w, r, "history", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": nonNilMessages(messages)})
}

func (rt *Router) clearHistory(w http.ResponseWriter, r *http.Request) {
	if err := rt.history.ClearHistory(r.Context(), r.URL.Query().Get("user_id")); err != nil {
		rt.writeError(w, r, "clear history", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (rt *Router) newConversation(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" && r.ContentLength != 0 {
		var body struct {
			UserID string `json:"user_id"`
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid_json", Message: "request body must be a JSON object"})
			return
		}
		userID = body.UserID
	}

	conversationID, err := rt.history.NewConversation(r.Context(), userID)
	if err != nil {
		rt.writeError(w, r, "new conversation", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success", "conversation_id": conversationID})
}

func (rt *Router) getConversationMessages(w http.ResponseWriter, r *http.Request) {
	conversationID := r.PathValue("id")
	messages, err := rt.history.ConversationMessages(r.Context(), r.URL.Query().Get("user_id"), conversationID)
	if err != nil {
		rt.writeError(w, r, "conversation messages", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"conversation_id": conversationID,
		"messages":        nonNilMessages(messages),
	})
}

func (rt *Router) writeError(w http.ResponseWriter, r *http.Request, operation string, err error) {
	if errors.Is(err, context.Canceled) && r.Context().Err() != nil {
		// Client went away; nobody reads the response.
		return
	}
	status := mapErrorToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request_failed",
			"request_id", requestIDFromContext(r.Context()),
			"operation", operation,
			"status", status,
			"error", err,
		)
	}
	writeJSON(w, status, mapErrorToResponse(err))
}

func nonNilMessages(messages []domain.ChatMessage) []domain.ChatMessage {
	if messages == nil {
		return []domain.ChatMessage{}
	}
	return messages
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
