package bootstrap

import (
	"fmt"
	"strings"

	"github.com/kirillkom/smartcare-assistant/internal/config"
	"github.com/kirillkom/smartcare-assistant/internal/core/ports"
	"github.com/kirillkom/smartcare-assistant/internal/infrastructure/llm/claude"
	"github.com/kirillkom/smartcare-assistant/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/smartcare-assistant/internal/infrastructure/llm/openaicompat"
	"github.com/kirillkom/smartcare-assistant/internal/infrastructure/resilience"
)

func newCompleter(cfg config.Config, ollamaClient *ollama.Client, executor *resilience.Executor) (ports.Completer, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.CompletionProvider)) {
	case "", config.ProviderOllama:
		return ollama.NewCompleter(ollamaClient), nil
	case config.ProviderOpenAI:
		completer, err := openaicompat.New(openaicompat.Options{
			BaseURL:            cfg.OpenAIBaseURL,
			APIKey:             cfg.OpenAIAPIKey,
			Model:              cfg.OpenAIModel,
			MaxTokens:          int64(cfg.CompletionMaxTokens),
			Timeout:            cfg.CompletionTimeout,
			ResilienceExecutor: executor,
		})
		if err != nil {
			return nil, fmt.Errorf("init openai-compatible completer: %w", err)
		}
		return completer, nil
	case config.ProviderAnthropic:
		completer, err := claude.New(claude.Options{
			BaseURL:            cfg.AnthropicBaseURL,
			APIKey:             cfg.AnthropicAPIKey,
			Model:              cfg.AnthropicModel,
			MaxTokens:          int64(cfg.CompletionMaxTokens),
			Timeout:            cfg.CompletionTimeout,
			ResilienceExecutor: executor,
		})
		if err != nil {
			return nil, fmt.Errorf("init anthropic completer: %w", err)
		}
		return completer, nil
	default:
		return nil, fmt.Errorf("unknown completion provider %q", cfg.CompletionProvider)
	}
}
