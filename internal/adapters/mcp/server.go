package mcpadapter

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/smartcare-assistant/internal/core/domain"
	"github.com/kirillkom/smartcare-assistant/internal/core/ports"
)

const (
	serverName   = "smartcare"
	AskToolName  = "ask_smartcare"
	defaultUser  = "mcp"
	toolDescribe = "Ask the SmartCare medical assistant a health question. Answers are short and cite the medical sources they used."
)

// NewServer exposes the chat pipeline as MCP tools.
func NewServer(version string, chat ports.ChatService) *server.MCPServer {
	s := server.NewMCPServer(
		serverName,
		version,
		server.WithToolCapabilities(true),
	)
	s.AddTool(askTool(), HandleAsk(chat))
	return s
}

func askTool() mcp.Tool {
	return mcp.NewTool(AskToolName,
		mcp.WithDescription(toolDescribe),
		mcp.WithString("message",
			mcp.Required(),
			mcp.Description("The user's question or message"),
		),
		mcp.WithString("user_id",
			mcp.Description("Opaque user id that owns the conversation history (default: mcp)"),
		),
		mcp.WithString("conversation_id",
			mcp.Description("Continue an existing conversation; a new one is started when empty"),
		),
		mcp.WithString("user_name",
			mcp.Description("Display name used in the conversation history (default: User)"),
		),
	)
}

// HandleAsk runs one chat turn and renders the answer followed by its sources.
func HandleAsk(chat ports.ChatService) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		message, err := request.RequireString("message")
		if err != nil || strings.TrimSpace(message) == "" {
			return toolError("Error: message parameter is required"), nil
		}

		req := domain.ChatRequest{
			UserID:         request.GetString("user_id", defaultUser),
			UserName:       request.GetString("user_name", ""),
			ConversationID: request.GetString("conversation_id", ""),
			Message:        message,
		}
		if strings.TrimSpace(req.UserID) == "" {
			req.UserID = defaultUser
		}

		answer, err := chat.Ask(ctx, req)
		if err != nil {
			slog.Error("mcp_ask_failed", "conversation_id", req.ConversationID, "error", err)
			if domain.IsKind(err, domain.ErrCompletion) {
				return toolError("Sorry, I couldn't generate a response right now. Please try again."), nil
			}
			return toolError(fmt.Sprintf("Ask error: %v", err)), nil
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{
				mcp.NewTextContent(formatAnswer(answer)),
			},
		}, nil
	}
}

func formatAnswer(answer *domain.AnswerResult) string {
	var b strings.Builder
	b.WriteString(answer.Text)
	if len(answer.Sources) > 0 {
		b.WriteString("\n\nSources:\n")
		for _, source := range answer.Sources {
			fmt.Fprintf(&b, "- %s: %s\n", source.Name, source.URL)
		}
	}
	if answer.ConversationID != "" {
		fmt.Fprintf(&b, "\nconversation_id: %s", answer.ConversationID)
	}
	return b.String()
}

func toolError(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
		IsError: true,
	}
}
